// Package tui provides a terminal user interface for samplertools
package tui

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oletizi/samplertools/pkg/s330"
)

// CRT-inspired color scheme (green phosphor and amber)
var (
	crtGreen  = lipgloss.Color("#33FF33")
	crtAmber  = lipgloss.Color("#FFB000")
	silverTxt = lipgloss.Color("#C0C0C0")
	darkGray  = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(crtGreen).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	eventStyle = lipgloss.NewStyle().
			Foreground(silverTxt).
			PaddingLeft(2)

	latestStyle = lipgloss.NewStyle().
			Foreground(crtGreen).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(crtAmber).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(crtGreen).
			Padding(1, 2)
)

const maxVisibleEvents = 12

// Model represents the TUI model
type Model struct {
	device  *s330.Device
	events  chan s330.ParameterChangeEvent
	unwatch func()

	spinner  spinner.Model
	log      []s330.ParameterChangeEvent
	received int
	pressed  string
	err      error
	width    int
	height   int
}

// eventMsg carries one front panel parameter change
type eventMsg struct {
	event s330.ParameterChangeEvent
}

// pressDoneMsg signals completion of a button press
type pressDoneMsg struct {
	button string
	err    error
}

// New creates a new TUI model watching the given device
func New(device *s330.Device) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(crtGreen)

	events := make(chan s330.ParameterChangeEvent, 64)
	unwatch := device.OnParameterChange(func(ev s330.ParameterChangeEvent) {
		select {
		case events <- ev:
		default:
		}
	})

	return Model{
		device:  device,
		events:  events,
		unwatch: unwatch,
		spinner: s,
	}
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return eventMsg{event: <-m.events}
	}
}

func (m Model) pressButton(name string) tea.Cmd {
	return func() tea.Msg {
		button, err := s330.ButtonByName(name)
		if err != nil {
			return pressDoneMsg{button: name, err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return pressDoneMsg{button: name, err: m.device.PressButton(ctx, button)}
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.unwatch()
			return m, tea.Quit
		case "left":
			return m, m.pressButton("left")
		case "right":
			return m, m.pressButton("right")
		case "up":
			return m, m.pressButton("up")
		case "down":
			return m, m.pressButton("down")
		case "+", "=":
			return m, m.pressButton("inc")
		case "-":
			return m, m.pressButton("dec")
		case "m":
			return m, m.pressButton("mode")
		case "enter", "e":
			return m, m.pressButton("execute")
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.received++
		m.log = append(m.log, msg.event)
		if len(m.log) > maxVisibleEvents {
			m.log = m.log[1:]
		}
		return m, m.waitForEvent()

	case pressDoneMsg:
		m.pressed = msg.button
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" S-330 FRONT PANEL MONITOR "))
	s.WriteString("\n\n")

	if len(m.log) == 0 {
		s.WriteString(fmt.Sprintf("%s waiting for parameter changes...\n", m.spinner.View()))
	} else {
		for i, ev := range m.log {
			line := fmt.Sprintf("%s  %-8s #%-3d  %s",
				ev.ReceivedAt.Format("15:04:05"),
				ev.Space.String(), ev.Index,
				hex.EncodeToString(ev.Payload))
			if i == len(m.log)-1 {
				s.WriteString(latestStyle.Render("▸ " + line))
			} else {
				s.WriteString(eventStyle.Render("  " + line))
			}
			s.WriteString("\n")
		}
	}

	s.WriteString(statusStyle.Render(fmt.Sprintf("  %d events received", m.received)))
	if m.pressed != "" {
		if m.err != nil {
			s.WriteString("\n")
			s.WriteString(errorStyle.Render(fmt.Sprintf("✗ press %s: %v", m.pressed, m.err)))
		} else {
			s.WriteString(statusStyle.Render(fmt.Sprintf("  •  pressed %s", m.pressed)))
		}
	}

	out := boxStyle.Render(s.String())
	return out + "\n" + helpStyle.Render("arrows: cursor • +/-: value • m: mode • enter: execute • q: quit")
}

// Run starts the TUI application
func Run(device *s330.Device) error {
	p := tea.NewProgram(New(device), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
