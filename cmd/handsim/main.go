// handsim emits synthetic pose packets over UDP so the daemon can be
// exercised without a camera or tracker: hands cycle between open and
// closed while the wrist sways through its rotation range.
package main

import (
	"context"
	"flag"
	"math"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ekvirika/MirrorMate/internal/log"
	"github.com/ekvirika/MirrorMate/pkg/hand"
	"github.com/ekvirika/MirrorMate/pkg/telemetry"
)

// openPose is a right hand, palm to camera, fingers up. Positions are
// normalized image coordinates with y growing downward.
var openPose = [hand.NumCanonical][3]float64{
	{0.50, 0.85, 0.00},                                                              // WRIST
	{0.42, 0.78, -0.01}, {0.36, 0.72, -0.02}, {0.31, 0.66, -0.03}, {0.27, 0.60, -0.04}, // thumb
	{0.44, 0.60, -0.01}, {0.43, 0.50, -0.02}, {0.425, 0.43, -0.03}, {0.42, 0.36, -0.04}, // index
	{0.50, 0.58, -0.01}, {0.50, 0.47, -0.02}, {0.50, 0.39, -0.03}, {0.50, 0.31, -0.04}, // middle
	{0.56, 0.60, -0.01}, {0.565, 0.50, -0.02}, {0.57, 0.43, -0.03}, {0.575, 0.36, -0.04}, // ring
	{0.62, 0.63, -0.01}, {0.63, 0.55, -0.02}, {0.635, 0.49, -0.03}, {0.64, 0.44, -0.04}, // pinky
}

// closedPose is the same hand in a fist: fingertips folded back toward
// the palm, thumb across it.
var closedPose = [hand.NumCanonical][3]float64{
	{0.50, 0.85, 0.00},
	{0.42, 0.78, -0.01}, {0.38, 0.72, -0.02}, {0.42, 0.68, -0.04}, {0.47, 0.67, -0.05},
	{0.44, 0.60, -0.01}, {0.44, 0.52, -0.03}, {0.445, 0.58, -0.05}, {0.45, 0.64, -0.05},
	{0.50, 0.58, -0.01}, {0.50, 0.49, -0.03}, {0.50, 0.56, -0.05}, {0.50, 0.63, -0.05},
	{0.56, 0.60, -0.01}, {0.56, 0.52, -0.03}, {0.555, 0.59, -0.05}, {0.55, 0.65, -0.05},
	{0.62, 0.63, -0.01}, {0.62, 0.56, -0.03}, {0.615, 0.62, -0.05}, {0.61, 0.67, -0.05},
}

func main() {
	to := flag.String("to", "127.0.0.1:9001", "daemon ingest address")
	fps := flag.Int("fps", 30, "frames per second")
	hands := flag.Int("hands", 1, "number of hands (1 or 2)")
	cycle := flag.Duration("cycle", 3*time.Second, "open/close period")
	sway := flag.Float64("sway", 0.15, "wrist sway amplitude")
	duration := flag.Duration("duration", 0, "how long to run (0 = until interrupted)")
	logLevel := flag.String("log-level", "info", "debug, info, warn, error")
	flag.Parse()

	log.Init(*logLevel)
	if *fps <= 0 || *hands < 1 || *hands > 2 || *cycle <= 0 {
		log.Error("bad flags", "fps", *fps, "hands", *hands, "cycle", *cycle)
		os.Exit(1)
	}

	conn, err := net.Dial("udp", *to)
	if err != nil {
		log.Error("failed to dial ingest address", "addr", *to, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	log.Info("sending synthetic poses", "to", *to, "fps", *fps, "hands", *hands)

	ticker := time.NewTicker(time.Second / time.Duration(*fps))
	defer ticker.Stop()

	start := time.Now()
	frames := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("handsim done", "frames", frames, "elapsed", time.Since(start).Round(time.Millisecond))
			return
		case now := <-ticker.C:
			t := now.Sub(start).Seconds()
			pkt := buildPacket(t, *hands, cycle.Seconds(), *sway)
			data, err := pkt.Bytes()
			if err != nil {
				log.Error("failed to encode packet", "error", err)
				continue
			}
			if _, err := conn.Write(data); err != nil {
				log.Warn("send failed", "error", err)
				continue
			}
			frames++
		}
	}
}

// buildPacket animates the scene at time t. The second hand mirrors the
// first across the image and runs half a cycle out of phase.
func buildPacket(t float64, hands int, cycle, sway float64) *telemetry.Packet {
	pkt := &telemetry.Packet{Timestamp: t, Hands: make([]telemetry.HandData, 0, hands)}

	curl := (1 - math.Cos(2*math.Pi*t/cycle)) / 2
	swayX := sway * math.Sin(2*math.Pi*t/(cycle*2.7))
	pkt.Hands = append(pkt.Hands, animate("Right", t, curl, swayX, false))

	if hands > 1 {
		curl = (1 - math.Cos(2*math.Pi*t/cycle+math.Pi)) / 2
		pkt.Hands = append(pkt.Hands, animate("Left", t, curl, -swayX, true))
	}
	return pkt
}

// animate interpolates each joint between the open and closed pose.
// Sway displaces only the wrist so the wrist-to-palm direction, and
// with it the rotation channel, actually changes.
func animate(handType string, ts, curl, swayX float64, mirror bool) telemetry.HandData {
	hd := telemetry.HandData{
		Type:      handType,
		Timestamp: ts,
		Landmarks: make([]telemetry.Landmark, 0, hand.NumCanonical),
	}
	for i := 0; i < hand.NumCanonical; i++ {
		pos := [3]float64{
			openPose[i][0] + (closedPose[i][0]-openPose[i][0])*curl,
			openPose[i][1] + (closedPose[i][1]-openPose[i][1])*curl,
			openPose[i][2] + (closedPose[i][2]-openPose[i][2])*curl,
		}
		if mirror {
			pos[0] = 1 - pos[0]
		}
		if i == int(hand.Wrist) {
			pos[0] += swayX
		}
		hd.Landmarks = append(hd.Landmarks, telemetry.Landmark{
			ID:       i,
			Name:     hand.JointID(i).Name(),
			Position: pos,
		})
	}
	return hd
}
