package command

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/ekvirika/MirrorMate/internal/log"
)

// ErrNoEndpoint means every candidate serial port failed to open.
var ErrNoEndpoint = errors.New("command: no actuator endpoint available")

// readTimeout bounds reads on the port. The microcontroller may echo
// acknowledgements; nothing should ever block on them.
const readTimeout = time.Second

// OpenSerial opens a single serial port at the given baud rate.
func OpenSerial(portName string, baud int) (Transport, error) {
	mode := &serial.Mode{BaudRate: baud}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}
	return port, nil
}

// Probe tries each candidate port in order and returns the first that
// opens, along with its name. With no candidates it falls back to the
// system port list. Exhaustion is a single ErrNoEndpoint naming every
// candidate tried; the caller decides whether to run degraded.
func Probe(candidates []string, baud int) (Transport, string, error) {
	if len(candidates) == 0 {
		ports, err := serial.GetPortsList()
		if err != nil {
			return nil, "", fmt.Errorf("%w: failed to enumerate ports: %v", ErrNoEndpoint, err)
		}
		candidates = ports
	}
	if len(candidates) == 0 {
		return nil, "", fmt.Errorf("%w: no serial ports present", ErrNoEndpoint)
	}

	var tried []string
	for _, name := range candidates {
		t, err := OpenSerial(name, baud)
		if err != nil {
			log.Debug("serial candidate failed", "port", name, "error", err)
			tried = append(tried, name)
			continue
		}
		return t, name, nil
	}
	return nil, "", fmt.Errorf("%w: tried %s", ErrNoEndpoint, strings.Join(tried, ", "))
}
