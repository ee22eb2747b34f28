// Package api provides the REST API server for samplertools
package api

import (
	"context"
	"encoding/hex"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/oletizi/samplertools/pkg/akai"
	"github.com/oletizi/samplertools/pkg/midiio"
	"github.com/oletizi/samplertools/pkg/s330"
	"github.com/oletizi/samplertools/pkg/sysex"
)

// @title SamplerTools API
// @version 1.0
// @description API for driving a Roland S-330 and browsing Akai disks
// @host localhost:8080
// @BasePath /api/v1

const eventBufferSize = 256

// Server exposes the sampler over HTTP. Panel events accumulate in a
// bounded ring buffer that /events drains oldest first.
type Server struct {
	device *s330.Device
	lister akai.PartitionLister
	sugar  *zap.SugaredLogger

	mu      sync.Mutex
	events  []panelEvent
	unwatch func()
}

type panelEvent struct {
	ID         uuid.UUID `json:"id"`
	Space      string    `json:"space"`
	Index      int       `json:"index"`
	Address    string    `json:"address"`
	Payload    string    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}

// NewServer wires a server to a connected device. The Akai lister may
// be nil when no disk tool is configured.
func NewServer(device *s330.Device, lister akai.PartitionLister, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		device: device,
		lister: lister,
		sugar:  logger.Sugar(),
	}
	if device != nil {
		s.unwatch = device.OnParameterChange(s.recordEvent)
	}
	return s
}

// Close detaches the panel event watcher.
func (s *Server) Close() {
	if s.unwatch != nil {
		s.unwatch()
	}
}

// Run starts the API server on the given address.
func (s *Server) Run(addr string) error {
	return s.router().Run(addr)
}

func (s *Server) router() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", s.healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", s.healthCheck)
		v1.GET("/ports", s.listPorts)
		v1.GET("/events", s.drainEvents)
		v1.POST("/press/:button", s.pressButton)
		v1.GET("/dump/:space/:index", s.dumpLocation)
		v1.GET("/akai/disk", s.akaiDisk)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) recordEvent(ev s330.ParameterChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) >= eventBufferSize {
		s.events = s.events[1:]
	}
	s.events = append(s.events, panelEvent{
		ID:         uuid.New(),
		Space:      ev.Space.String(),
		Index:      ev.Index,
		Address:    hex.EncodeToString(ev.Address[:]),
		Payload:    hex.EncodeToString(ev.Payload),
		ReceivedAt: ev.ReceivedAt,
	})
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "samplertools",
	})
}

// listPorts godoc
// @Summary List MIDI ports
// @Description Returns the system's MIDI input and output port names
// @Tags midi
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/ports [get]
func (s *Server) listPorts(c *gin.Context) {
	ins, outs, err := midiio.ListPorts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inputs": ins, "outputs": outs})
}

// drainEvents godoc
// @Summary Drain buffered front panel events
// @Description Returns and clears parameter changes received from the unit
// @Tags events
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/events [get]
func (s *Server) drainEvents(c *gin.Context) {
	s.mu.Lock()
	events := s.events
	s.events = nil
	s.mu.Unlock()
	if events == nil {
		events = []panelEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// pressButton godoc
// @Summary Press a front panel button
// @Description Sends the button frames for the named button
// @Tags panel
// @Produce json
// @Param button path string true "Button name (mode, execute, left, right, up, down, inc, dec)"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/v1/press/{button} [post]
func (s *Server) pressButton(c *gin.Context) {
	if s.device == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no device connected"})
		return
	}
	button, err := s330.ButtonByName(c.Param("button"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := s.device.PressButton(ctx, button); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pressed": c.Param("button")})
}

// dumpLocation godoc
// @Summary Dump a patch or tone
// @Description Runs a bulk transfer for the addressed location and returns the decoded bytes
// @Tags dump
// @Produce json
// @Param space path string true "Address space (patch or tone)"
// @Param index path int true "Location index"
// @Param size query int false "Transfer size in nibbles (default 256)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/v1/dump/{space}/{index} [get]
func (s *Server) dumpLocation(c *gin.Context) {
	if s.device == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no device connected"})
		return
	}
	var space sysex.Space
	switch c.Param("space") {
	case "patch":
		space = sysex.SpacePatch
	case "tone":
		space = sysex.SpaceTone
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "space must be patch or tone"})
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 || index > 127 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be 0-127"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "256"))
	if err != nil || size <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "size must be positive"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()
	sess, err := s.device.FetchBulkLocation(ctx, space, index, size)
	if err != nil {
		status := http.StatusInternalServerError
		if sess != nil && sess.State() == s330.StateRejected {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": sess.ID.String(),
		"state":   sess.State().String(),
		"packets": len(sess.Packets()),
		"data":    hex.EncodeToString(sess.Decoded()),
	})
}

// akaiDisk godoc
// @Summary Browse an Akai disk
// @Description Probes every partition of the configured disk and returns its volumes and records
// @Tags akai
// @Produce json
// @Success 200 {object} akai.Disk
// @Failure 503 {object} map[string]string
// @Router /api/v1/akai/disk [get]
func (s *Server) akaiDisk(c *gin.Context) {
	if s.lister == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no disk tool configured"})
		return
	}
	disk, err := akai.BuildDisk(s.lister)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, disk)
}
