// Package main is the entry point for the s330tool CLI
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oletizi/samplertools/pkg/akai"
	"github.com/oletizi/samplertools/pkg/api"
	"github.com/oletizi/samplertools/pkg/config"
	"github.com/oletizi/samplertools/pkg/midiio"
	"github.com/oletizi/samplertools/pkg/s330"
	"github.com/oletizi/samplertools/pkg/sysex"
	"github.com/oletizi/samplertools/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFile string
	verbose    bool
	inPort     string
	outPort    string
	serialDev  string
	serialBaud int
	deviceID   int
	dumpSize   int
	akaiTool   string
	akaiDevice string
	serveAddr  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "s330tool",
	Short: "Drive a Roland S-330 sampler and browse Akai disks",
	Long: `s330tool talks to a Roland S-330 over MIDI SysEx: it dumps patches
and tones, presses front panel buttons remotely, and monitors parameter
changes made at the unit. It also reads Akai S1000/S3000 format disks
through an external disk tool.

Examples:
  s330tool ports
  s330tool dump patch 0
  s330tool press execute
  s330tool monitor
  s330tool akai ls --akai-device /dev/sdb
  s330tool serve --addr :8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List the system's MIDI ports",
	RunE:  runPorts,
}

var dumpCmd = &cobra.Command{
	Use:   "dump <patch|tone> <index>",
	Short: "Bulk dump a patch or tone",
	Args:  cobra.ExactArgs(2),
	RunE:  runDump,
}

var pressCmd = &cobra.Command{
	Use:   "press <button>",
	Short: "Press a front panel button (mode, execute, left, right, up, down, inc, dec)",
	Args:  cobra.ExactArgs(1),
	RunE:  runPress,
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch front panel parameter changes live",
	RunE:  runMonitor,
}

var akaiCmd = &cobra.Command{
	Use:   "akai",
	Short: "Akai disk operations",
}

var akaiLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List every partition, volume and record on an Akai disk",
	RunE:  runAkaiLs,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().StringVar(&inPort, "in", "", "MIDI input port name fragment")
	rootCmd.PersistentFlags().StringVar(&outPort, "out", "", "MIDI output port name fragment")
	rootCmd.PersistentFlags().StringVar(&serialDev, "serial", "", "Serial MIDI device (overrides MIDI ports)")
	rootCmd.PersistentFlags().IntVar(&serialBaud, "baud", 0, "Serial baud rate")
	rootCmd.PersistentFlags().IntVarP(&deviceID, "device-id", "d", -1, "S-330 device ID (0-31)")

	// dump command
	dumpCmd.Flags().IntVarP(&dumpSize, "size", "s", 256, "Transfer size in nibbles")

	// akai commands
	akaiCmd.PersistentFlags().StringVar(&akaiTool, "akai-tool", "", "Disk tool binary")
	akaiCmd.PersistentFlags().StringVar(&akaiDevice, "akai-device", "", "Disk image or block device")
	akaiCmd.AddCommand(akaiLsCmd)

	// serve command
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address")
	serveCmd.Flags().StringVar(&akaiTool, "akai-tool", "", "Disk tool binary")
	serveCmd.Flags().StringVar(&akaiDevice, "akai-device", "", "Disk image or block device")

	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(pressCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(akaiCmd)
	rootCmd.AddCommand(serveCmd)
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, err
		}
	}
	// Flags override file settings.
	if inPort != "" {
		cfg.MIDI.InPort = inPort
	}
	if outPort != "" {
		cfg.MIDI.OutPort = outPort
	}
	if serialDev != "" {
		cfg.Serial.Device = serialDev
	}
	if serialBaud > 0 {
		cfg.Serial.Baud = serialBaud
	}
	if deviceID >= 0 {
		cfg.DeviceID = deviceID
	}
	if akaiTool != "" {
		cfg.Akai.Tool = akaiTool
	}
	if akaiDevice != "" {
		cfg.Akai.Device = akaiDevice
	}
	if serveAddr != "" {
		cfg.API.Addr = serveAddr
	}
	return cfg, cfg.Validate()
}

type closer interface{ Close() error }

func openTransport(cfg *config.Config, logger *zap.Logger) (s330.Transport, closer, error) {
	if cfg.Serial.Device != "" {
		t, err := midiio.OpenSerial(cfg.Serial.Device, cfg.Serial.Baud, logger)
		if err != nil {
			return nil, nil, err
		}
		return t, t, nil
	}
	t, err := midiio.OpenPorts(cfg.MIDI.InPort, cfg.MIDI.OutPort, logger)
	if err != nil {
		return nil, nil, err
	}
	return t, t, nil
}

func openDevice(cfg *config.Config, logger *zap.Logger) (*s330.Device, closer, error) {
	transport, closeT, err := openTransport(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	dev, err := s330.NewDevice(transport, byte(cfg.DeviceID), logger,
		s330.WithToneSelector(cfg.ToneSelector),
		s330.WithStepTimeout(cfg.StepTimeout()),
		s330.WithPressDelay(cfg.PressDelay()),
	)
	if err != nil {
		_ = closeT.Close()
		return nil, nil, err
	}
	return dev, closeT, nil
}

func runPorts(cmd *cobra.Command, args []string) error {
	ins, outs, err := midiio.ListPorts()
	if err != nil {
		return err
	}
	fmt.Println("Inputs:")
	for _, name := range ins {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("Outputs:")
	for _, name := range outs {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func runDump(cmd *cobra.Command, args []string) error {
	var space sysex.Space
	switch args[0] {
	case "patch":
		space = sysex.SpacePatch
	case "tone":
		space = sysex.SpaceTone
	default:
		return fmt.Errorf("space must be patch or tone, got %q", args[0])
	}
	var index int
	if _, err := fmt.Sscanf(args[1], "%d", &index); err != nil {
		return fmt.Errorf("bad index %q: %w", args[1], err)
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dev, closeT, err := openDevice(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeT.Close() }()
	defer dev.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	sess, err := dev.FetchBulkLocation(ctx, space, index, dumpSize)
	if err != nil {
		return err
	}
	fmt.Printf("Dumped %s %d: %d packets, %d bytes\n",
		args[0], index, len(sess.Packets()), len(sess.Decoded()))
	fmt.Println(hex.Dump(sess.Decoded()))
	return nil
}

func runPress(cmd *cobra.Command, args []string) error {
	button, err := s330.ButtonByName(args[0])
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dev, closeT, err := openDevice(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeT.Close() }()
	defer dev.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dev.PressButton(ctx, button); err != nil {
		return err
	}
	fmt.Printf("Pressed %s\n", args[0])
	return nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dev, closeT, err := openDevice(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeT.Close() }()
	defer dev.Close()

	return tui.Run(dev)
}

func runAkaiLs(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lister, err := akai.NewToolLister(akai.ToolConfig{
		Tool:        cfg.Akai.Tool,
		Device:      cfg.Akai.Device,
		LibraryPath: cfg.Akai.LibraryPath,
	}, logger)
	if err != nil {
		return err
	}
	disk, err := akai.BuildDisk(lister)
	if err != nil {
		return err
	}
	for _, part := range disk.Partitions {
		fmt.Printf("Partition %d\n", part.Number)
		for _, vol := range part.Volumes {
			fmt.Printf("  %s\n", vol.Name)
			for _, rec := range vol.Records {
				fmt.Printf("    %-15s %8d  %s\n", rec.Type, rec.Size, rec.Name)
			}
		}
		for _, rec := range part.Unmatched {
			fmt.Printf("  (no volume)    %-15s %8d  %s\n", rec.Type, rec.Size, rec.Name)
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var dev *s330.Device
	var closeT closer
	dev, closeT, err = openDevice(cfg, logger)
	if err != nil {
		// The disk endpoints still work without a sampler attached.
		logger.Sugar().Warnw("no sampler connected", "error", err)
		dev, closeT = nil, nil
	}
	if closeT != nil {
		defer func() { _ = closeT.Close() }()
	}
	if dev != nil {
		defer dev.Close()
	}

	var lister akai.PartitionLister
	if cfg.Akai.Tool != "" && cfg.Akai.Device != "" {
		lister, err = akai.NewToolLister(akai.ToolConfig{
			Tool:        cfg.Akai.Tool,
			Device:      cfg.Akai.Device,
			LibraryPath: cfg.Akai.LibraryPath,
		}, logger)
		if err != nil {
			return err
		}
	}

	server := api.NewServer(dev, lister, logger)
	defer server.Close()
	fmt.Printf("Starting API server on %s...\n", cfg.API.Addr)
	return server.Run(cfg.API.Addr)
}
