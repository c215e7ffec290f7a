// rps plays rock-paper-scissors against the servo hand: the player's
// gesture is read from the pose stream at the end of a countdown, the
// robot answers with a preset pose, and the score accumulates until
// interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ekvirika/MirrorMate/internal/log"
	"github.com/ekvirika/MirrorMate/pkg/command"
	"github.com/ekvirika/MirrorMate/pkg/gesture"
	"github.com/ekvirika/MirrorMate/pkg/hand"
	"github.com/ekvirika/MirrorMate/pkg/ingest"
	"github.com/ekvirika/MirrorMate/pkg/servo"
)

var robotMoves = [3]gesture.Shape{gesture.Rock, gesture.Paper, gesture.Scissors}

// scoreboard tracks one session.
type scoreboard struct {
	player, robot, draws int
}

func (s *scoreboard) String() string {
	return fmt.Sprintf("you %d : %d robot (draws %d)", s.player, s.robot, s.draws)
}

// latestCapture keeps only the freshest frame from the reader goroutine.
type latestCapture struct {
	mu  sync.Mutex
	cap *hand.Capture
}

func (l *latestCapture) set(c hand.Capture) {
	l.mu.Lock()
	l.cap = &c
	l.mu.Unlock()
}

// take returns and clears the stored capture, so every round needs a
// hand seen during its own countdown.
func (l *latestCapture) take() *hand.Capture {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.cap
	l.cap = nil
	return c
}

func main() {
	listen := flag.String("listen", ":9001", "pose ingest UDP address")
	serialPort := flag.String("serial", "", "serial endpoint candidates, comma separated")
	baud := flag.Int("baud", 115200, "serial baud rate")
	rounds := flag.Int("rounds", 0, "rounds to play (0 = until interrupted)")
	countdown := flag.Int("countdown", 3, "countdown seconds before each shoot")
	noCommands := flag.Bool("no-commands", false, "disable actuator output")
	logLevel := flag.String("log-level", "warn", "debug, info, warn, error")
	flag.Parse()

	log.Init(*logLevel)

	var transport command.Transport
	if !*noCommands {
		var candidates []string
		if *serialPort != "" {
			candidates = strings.Split(*serialPort, ",")
		}
		t, endpoint, err := command.Probe(candidates, *baud)
		if err != nil {
			log.Warn("no actuator endpoint, playing without the hand", "error", err)
		} else {
			log.Info("actuator connected", "endpoint", endpoint)
			transport = t
		}
	}
	sink := command.NewSink(transport, servo.DefaultChannels())
	defer sink.Close()

	src, err := ingest.NewUDPSource(*listen)
	if err != nil {
		log.Error("failed to open pose source", "error", err)
		os.Exit(1)
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	latest := &latestCapture{}
	go func() {
		for {
			c, err := src.Next(ctx)
			if err != nil {
				return
			}
			latest.set(c)
		}
	}()

	fmt.Println("Rock, paper, scissors. Show your hand to the camera; Ctrl-C quits.")

	score := &scoreboard{}
	for round := 1; *rounds == 0 || round <= *rounds; round++ {
		fmt.Printf("\nRound %d\n", round)
		if !runCountdown(ctx, *countdown) {
			break
		}

		player := playerShape(latest.take())
		if player == gesture.Unknown {
			fmt.Println("No clear gesture, round skipped.")
			continue
		}

		robot := robotMoves[rand.Intn(len(robotMoves))]
		sink.SendFrame(gesture.Preset(robot))

		fmt.Printf("You: %s. Robot: %s. %s\n", player, robot, verdict(player, robot, score))
		fmt.Println(score)

		if !sleepCtx(ctx, 2*time.Second) {
			break
		}
	}

	fmt.Printf("\nFinal score: %s\n", score)
}

// runCountdown prints the countdown, returning false when interrupted.
func runCountdown(ctx context.Context, seconds int) bool {
	for i := seconds; i > 0; i-- {
		fmt.Printf("%d... ", i)
		if !sleepCtx(ctx, time.Second) {
			fmt.Println()
			return false
		}
	}
	fmt.Println("shoot!")
	return true
}

// playerShape classifies the first recognizable hand of the capture.
func playerShape(c *hand.Capture) gesture.Shape {
	if c == nil {
		return gesture.Unknown
	}
	for i := range c.Hands {
		if s := gesture.Classify(&c.Hands[i]); s != gesture.Unknown {
			return s
		}
	}
	return gesture.Unknown
}

func verdict(player, robot gesture.Shape, score *scoreboard) string {
	switch {
	case player.Beats(robot):
		score.player++
		return "You win!"
	case robot.Beats(player):
		score.robot++
		return "Robot wins."
	default:
		score.draws++
		return "Draw."
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
