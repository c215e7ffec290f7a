package ingest

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/ekvirika/MirrorMate/internal/log"
	"github.com/ekvirika/MirrorMate/pkg/hand"
)

// ReaderSource reads line-delimited JSON packets from a byte stream: an
// estimator subprocess pipe, a recorded session file, or stdin. Lines that
// fail to parse are skipped so one bad line cannot end a session.
type ReaderSource struct {
	r      *bufio.Reader
	closer io.Closer
}

// NewReaderSource wraps r. If r is also an io.Closer, Close closes it.
func NewReaderSource(r io.Reader) *ReaderSource {
	s := &ReaderSource{r: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Next returns the next valid capture. Cancellation is checked between
// lines; a read in progress finishes first, which matches pipe semantics.
func (s *ReaderSource) Next(ctx context.Context) (hand.Capture, error) {
	for {
		if err := ctx.Err(); err != nil {
			return hand.Capture{}, err
		}

		line, err := s.r.ReadString('\n')
		if err != nil {
			if len(strings.TrimSpace(line)) > 0 {
				// Final line without a trailing newline still counts.
				if c, ok := s.decodeLine(line); ok {
					return c, nil
				}
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
				return hand.Capture{}, ErrSourceClosed
			}
			return hand.Capture{}, err
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		if c, ok := s.decodeLine(line); ok {
			return c, nil
		}
	}
}

func (s *ReaderSource) decodeLine(line string) (hand.Capture, bool) {
	c, _, err := Decode([]byte(line))
	if err != nil {
		log.Debug("skipping unparseable line", "error", err)
		return hand.Capture{}, false
	}
	return c, true
}

// Close closes the underlying reader when it supports closing.
func (s *ReaderSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
