// Package web serves the operational status surface: liveness, session
// stats, the last command per channel, the effective configuration, and
// the live pose stream. Visibility only; nothing here renders.
package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/ekvirika/MirrorMate/internal/log"
	"github.com/ekvirika/MirrorMate/pkg/hub"
	"github.com/ekvirika/MirrorMate/pkg/pipeline"
)

// Server exposes pipeline state over HTTP and websocket.
type Server struct {
	app  *fiber.App
	addr string

	hub      *hub.Hub
	pipeline *pipeline.Pipeline

	// cfg is the effective configuration snapshot served verbatim on
	// /api/config. It holds no secrets.
	cfg any

	started time.Time
}

// New wires the routes. The hub must already be running (or about to);
// the server never starts goroutines of its own besides Listen.
func New(addr string, p *pipeline.Pipeline, h *hub.Hub, cfg any) *Server {
	s := &Server{
		addr:     addr,
		hub:      h,
		pipeline: p,
		cfg:      cfg,
		started:  time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "MirrorMate Status",
		DisableStartupMessage: true,
	})

	// CORS for dashboards served from another origin during development.
	app.Use(cors.New())

	app.Get("/health", s.handleHealth)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/channels", s.handleChannels)
	api.Get("/config", s.handleConfig)
	api.Post("/reset", s.handleReset)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/pose", websocket.New(s.handlePoseWS))

	s.app = app
	return s
}

// Start blocks serving until Shutdown.
func (s *Server) Start() error {
	log.Info("status server listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync serves on a background goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("status server failed", "error", err)
		}
	}()
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
