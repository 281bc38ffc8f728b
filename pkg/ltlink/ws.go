package ltlink

import (
	"bytes"
	"context"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// WSSource reads log lines from a WebSocket; each message may carry one or
// more newline separated lines.
type WSSource struct {
	URL    string
	Dialer *websocket.Dialer
}

func (s *WSSource) String() string { return s.URL }

// Lines reads messages until the connection closes or ctx is done
func (s *WSSource) Lines(ctx context.Context, emit func(string)) error {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, s.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return errors.Wrapf(err, "dialing %s", s.URL)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrapf(err, "reading %s", s.URL)
		}
		for _, line := range bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n")) {
			emit(strings.TrimRight(string(line), "\r"))
		}
	}
}
