// The mirrormate daemon mirrors tracked hand motion onto a servo hand:
// pose packets in over UDP, actuator commands out over serial, telemetry
// fanned out to UDP, OSC, and websocket viewers.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ekvirika/MirrorMate/internal/config"
	"github.com/ekvirika/MirrorMate/internal/log"
	"github.com/ekvirika/MirrorMate/pkg/command"
	"github.com/ekvirika/MirrorMate/pkg/hub"
	"github.com/ekvirika/MirrorMate/pkg/ingest"
	"github.com/ekvirika/MirrorMate/pkg/pipeline"
	"github.com/ekvirika/MirrorMate/pkg/telemetry"
	"github.com/ekvirika/MirrorMate/pkg/web"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	listen := flag.String("listen", "", "pose ingest UDP address")
	serialPort := flag.String("serial", "", "serial endpoint candidates, comma separated")
	baud := flag.Int("baud", 0, "serial baud rate")
	udpOut := flag.String("udp", "", "telemetry UDP destination")
	oscOut := flag.String("osc", "", "telemetry OSC destination")
	webAddr := flag.String("web", "", "status server address")
	handPref := flag.String("hand", "", "hand preference: any, left, right")
	logLevel := flag.String("log-level", "", "debug, info, warn, error")
	noCommands := flag.Bool("no-commands", false, "disable actuator output")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load configuration", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if err := config.FromEnv(&cfg); err != nil {
		log.Error("bad environment", "error", err)
		os.Exit(1)
	}

	// Flags override file and environment.
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *serialPort != "" {
		cfg.Serial.Candidates = strings.Split(*serialPort, ",")
	}
	if *baud > 0 {
		cfg.Serial.Baud = *baud
	}
	if *udpOut != "" {
		cfg.Telemetry.UDP = *udpOut
	}
	if *oscOut != "" {
		cfg.Telemetry.OSC = *oscOut
	}
	if *webAddr != "" {
		cfg.Web = *webAddr
	}
	if *handPref != "" {
		cfg.Hand = *handPref
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log.Init(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	pc, err := cfg.PipelineConfig()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var transport command.Transport
	if *noCommands {
		log.Info("actuator output disabled")
	} else if t, endpoint, err := command.Probe(cfg.Serial.Candidates, cfg.Serial.Baud); err != nil {
		log.Warn("no actuator endpoint, commands will be dropped", "error", err)
	} else {
		log.Info("actuator connected", "endpoint", endpoint, "baud", cfg.Serial.Baud)
		transport = t
	}
	commands := command.NewSink(transport, pc.Channels)
	defer commands.Close()

	var sinks []telemetry.Sink
	if cfg.Telemetry.UDP != "" {
		udp, err := telemetry.NewUDPSink(cfg.Telemetry.UDP, cfg.Telemetry.PayloadLimit)
		if err != nil {
			log.Error("failed to open telemetry UDP sink", "error", err)
			os.Exit(1)
		}
		defer udp.Close()
		sinks = append(sinks, udp)
		log.Info("telemetry UDP sink ready", "addr", cfg.Telemetry.UDP)
	}
	if cfg.Telemetry.OSC != "" {
		host, port, err := splitOSC(cfg.Telemetry.OSC)
		if err != nil {
			log.Error("bad OSC address", "addr", cfg.Telemetry.OSC, "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, telemetry.NewOSCSink(host, port))
		log.Info("telemetry OSC sink ready", "addr", cfg.Telemetry.OSC)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var poseHub *hub.Hub
	if cfg.Web != "" {
		poseHub = hub.New("pose")
		go poseHub.Run(ctx)
		sinks = append(sinks, hub.NewSink(poseHub))
	}

	pipe, err := pipeline.New(pc, commands, sinks...)
	if err != nil {
		log.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer pipe.Stop()

	if cfg.Web != "" {
		server := web.New(cfg.Web, pipe, poseHub, cfg)
		server.StartAsync()
		defer server.Shutdown()
	}

	src, err := ingest.NewUDPSource(cfg.Listen)
	if err != nil {
		log.Error("failed to open ingest source", "error", err)
		os.Exit(1)
	}
	defer src.Close()

	// SIGHUP resets the session; SIGINT and SIGTERM stop the daemon.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigChan {
			if sig == syscall.SIGHUP {
				pipe.Reset()
				continue
			}
			log.Info("shutting down", "signal", sig.String())
			cancel()
			return
		}
	}()

	log.Info("mirrormate running",
		"session", pipe.Session(),
		"listen", cfg.Listen,
		"hand", cfg.Hand,
		"degraded", transport == nil && !*noCommands)

	if err := pipe.Run(ctx, src); err != nil {
		log.Error("pipeline failed", "error", err)
	}

	stats := pipe.Stats()
	log.Info("session complete",
		"frames", stats.Frames,
		"hands", stats.Hands,
		"commands", stats.Commands.Commands,
		"dropped_commands", stats.Commands.Dropped,
		"packets_sent", stats.PacketsSent,
		"packets_dropped", stats.PacketsDropped)
}

// splitOSC parses host:port for the OSC client, which takes them
// separately.
func splitOSC(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}
