package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/ekvirika/MirrorMate/pkg/hub"
	"github.com/ekvirika/MirrorMate/pkg/pipeline"
)

// statusResponse flattens pipeline stats with server-side observations.
type statusResponse struct {
	pipeline.Stats
	Viewers        int     `json:"viewers"`
	UptimeSeconds  float64 `json:"uptime_s"`
	SessionSeconds float64 `json:"session_s"`
}

// channelState is one channel's most recent commanded angle.
type channelState struct {
	Channel int `json:"channel"`
	Angle   int `json:"angle"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(statusResponse{
		Stats:          s.pipeline.Stats(),
		Viewers:        s.hub.ClientCount(),
		UptimeSeconds:  time.Since(s.started).Seconds(),
		SessionSeconds: time.Since(s.pipeline.SessionStarted()).Seconds(),
	})
}

// handleChannels reports the last command per channel in the configured
// emission order. Channels that have not commanded yet are omitted.
func (s *Server) handleChannels(c *fiber.Ctx) error {
	last := s.pipeline.LastCommands()
	out := make([]channelState, 0, len(last))
	for _, ch := range s.pipeline.Channels() {
		if angle, ok := last[ch.ID]; ok {
			out = append(out, channelState{Channel: ch.ID, Angle: angle})
		}
	}
	return c.JSON(out)
}

func (s *Server) handleConfig(c *fiber.Ctx) error {
	return c.JSON(s.cfg)
}

// handleReset starts a fresh session and reports its ID.
func (s *Server) handleReset(c *fiber.Ctx) error {
	s.pipeline.Reset()
	return c.JSON(fiber.Map{"session": s.pipeline.Session()})
}

// handlePoseWS hands the connection to the hub for the life of the
// stream. The nil check covers an upgrade racing hub shutdown.
func (s *Server) handlePoseWS(c *websocket.Conn) {
	client := hub.NewClient(s.hub, c)
	if client == nil {
		c.Close()
		return
	}
	client.Run()
}
