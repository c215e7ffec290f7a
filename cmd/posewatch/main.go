// posewatch listens for telemetry packets and prints one summary line
// per frame, or the raw JSON with -raw. Frame data goes to stdout and
// logs to stderr, so the output pipes cleanly.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ekvirika/MirrorMate/internal/log"
	"github.com/ekvirika/MirrorMate/pkg/hand"
	"github.com/ekvirika/MirrorMate/pkg/telemetry"
)

func main() {
	listen := flag.String("listen", ":9870", "UDP address to listen on")
	raw := flag.Bool("raw", false, "print raw packet JSON instead of summaries")
	logLevel := flag.String("log-level", "info", "debug, info, warn, error")
	flag.Parse()

	log.Init(*logLevel)

	conn, err := net.ListenPacket("udp", *listen)
	if err != nil {
		log.Error("failed to listen", "addr", *listen, "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		conn.Close()
	}()

	log.Info("watching telemetry", "addr", conn.LocalAddr().String())

	buf := make([]byte, telemetry.MaxDatagram)
	packets := 0
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Error("read failed", "error", err)
			}
			log.Info("posewatch done", "packets", packets)
			return
		}
		packets++

		if *raw {
			os.Stdout.Write(buf[:n])
			os.Stdout.Write([]byte("\n"))
			continue
		}

		pkt, err := telemetry.ParsePacket(buf[:n])
		if err != nil {
			log.Warn("unparseable packet", "error", err)
			continue
		}
		fmt.Println(summarize(pkt))
	}
}

// summarize renders one frame as a single line: timestamp, hand count,
// then per hand its wrist position and thumb-to-pinky fingertip spread.
func summarize(p *telemetry.Packet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "t=%8.3f hands=%d", p.Timestamp, len(p.Hands))
	for i := range p.Hands {
		hd := &p.Hands[i]
		wrist, haveWrist := findLandmark(hd, int(hand.Wrist))
		thumb, haveThumb := findLandmark(hd, int(hand.ThumbTip))
		pinky, havePinky := findLandmark(hd, int(hand.PinkyTip))

		fmt.Fprintf(&b, "  [%s", hd.Type)
		if haveWrist {
			fmt.Fprintf(&b, " wrist=(%.2f,%.2f)", wrist.Position[0], wrist.Position[1])
		}
		if haveThumb && havePinky {
			dx := thumb.Position[0] - pinky.Position[0]
			dy := thumb.Position[1] - pinky.Position[1]
			fmt.Fprintf(&b, " spread=%.2f", math.Hypot(dx, dy))
		}
		b.WriteString("]")
	}
	return b.String()
}

// findLandmark scans by ID; the wire order is not trusted.
func findLandmark(hd *telemetry.HandData, id int) (*telemetry.Landmark, bool) {
	for i := range hd.Landmarks {
		if hd.Landmarks[i].ID == id {
			return &hd.Landmarks[i], true
		}
	}
	return nil, false
}
