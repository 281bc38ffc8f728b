// Package ltlink connects the console to the control link: line sources that
// feed the node log channels, sinks that carry messages to the drone, and the
// supervised readers tying sources to channels.
package ltlink

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultBaud is used for serial URLs without a baud parameter
const DefaultBaud = 115200

// maxLineLength bounds one decoded log line
const maxLineLength = 64 * 1024

// Source produces log lines for one node. Lines blocks, calling emit for each
// line, until ctx is done or the source fails. A finite source that reaches
// its end returns io.EOF.
type Source interface {
	Lines(ctx context.Context, emit func(string)) error
	String() string
}

// finite is implemented by sources whose end is not a failure
type finite interface {
	Finite() bool
}

// Opener opens the byte stream behind a StreamSource
type Opener func(ctx context.Context) (io.ReadCloser, error)

// StreamSource splits a byte stream into lines
type StreamSource struct {
	Name string
	Open Opener
	// EOFIsEnd marks sources such as files where end of stream is normal
	EOFIsEnd bool
}

// Finite reports whether EOF ends the source for good
func (s *StreamSource) Finite() bool { return s.EOFIsEnd }

func (s *StreamSource) String() string { return s.Name }

// Lines reads newline separated text until EOF, error or cancellation
func (s *StreamSource) Lines(ctx context.Context, emit func(string)) error {
	rc, err := s.Open(ctx)
	if err != nil {
		return errors.Wrapf(err, "opening %s", s.Name)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = rc.Close()
		case <-done:
			_ = rc.Close()
		}
	}()

	if err := scanLines(rc, emit); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrapf(err, "reading %s", s.Name)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return io.EOF
}

// scanLines emits newline separated lines. A line longer than maxLineLength
// is cut at the limit and the rest of it up to the newline is dropped, so a
// burst without newlines never stops the stream.
func scanLines(r io.Reader, emit func(string)) error {
	br := bufio.NewReader(r)
	line := make([]byte, 0, 256)
	truncated := false
	for {
		chunk, err := br.ReadSlice('\n')
		if err == nil {
			chunk = chunk[:len(chunk)-1]
		}
		if room := maxLineLength - len(line); len(chunk) > room {
			line = append(line, chunk[:room]...)
			truncated = true
		} else {
			line = append(line, chunk...)
		}

		switch {
		case err == nil:
			emit(finishLine(line, truncated))
			line, truncated = line[:0], false
		case errors.Is(err, bufio.ErrBufferFull):
		case errors.Is(err, io.EOF):
			if len(line) > 0 {
				emit(finishLine(line, truncated))
			}
			return nil
		default:
			return err
		}
	}
}

func finishLine(b []byte, truncated bool) string {
	if truncated {
		log.Debugf("Truncated log line at %d bytes", maxLineLength)
		// drop a rune split by the cut
		for i := 0; i < utf8.UTFMax-1 && len(b) > 0; i++ {
			if r, size := utf8.DecodeLastRune(b); r != utf8.RuneError || size != 1 {
				break
			}
			b = b[:len(b)-1]
		}
	}
	return string(bytes.TrimRight(b, "\r"))
}

// ParseSource builds a source from a URL:
//
//	serial:///dev/ttyACM0?baud=115200
//	tcp://host:port
//	file:///path/to/capture.log
//	ws://host/path, wss://host/path
//	nats://host:port/subject
//	- or stdin
func ParseSource(raw string) (Source, error) {
	if raw == "-" || raw == "stdin" {
		return &StreamSource{
			Name: "stdin",
			Open: func(context.Context) (io.ReadCloser, error) {
				return io.NopCloser(os.Stdin), nil
			},
			EOFIsEnd: true,
		}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "source %q", raw)
	}

	switch u.Scheme {
	case "serial":
		path, baud, err := serialTarget(u)
		if err != nil {
			return nil, err
		}
		return &StreamSource{
			Name: raw,
			Open: func(context.Context) (io.ReadCloser, error) {
				return openSerial(path, baud)
			},
		}, nil
	case "tcp":
		if u.Host == "" {
			return nil, errors.Errorf("source %q: missing host", raw)
		}
		return &StreamSource{
			Name: raw,
			Open: func(ctx context.Context) (io.ReadCloser, error) {
				var d net.Dialer
				return d.DialContext(ctx, "tcp", u.Host)
			},
		}, nil
	case "file":
		if u.Path == "" {
			return nil, errors.Errorf("source %q: missing path", raw)
		}
		return &StreamSource{
			Name: raw,
			Open: func(context.Context) (io.ReadCloser, error) {
				return os.Open(u.Path)
			},
			EOFIsEnd: true,
		}, nil
	case "ws", "wss":
		return &WSSource{URL: raw}, nil
	case "nats":
		server, subject, err := natsTarget(u)
		if err != nil {
			return nil, err
		}
		return &NATSSource{Server: server, Subject: subject}, nil
	}
	return nil, errors.Errorf("source %q: unsupported scheme %q", raw, u.Scheme)
}

func serialTarget(u *url.URL) (string, int, error) {
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	if path == "" {
		return "", 0, errors.Errorf("serial %q: missing device path", u.String())
	}
	baud := DefaultBaud
	if b := u.Query().Get("baud"); b != "" {
		n, err := strconv.Atoi(b)
		if err != nil || n <= 0 {
			return "", 0, errors.Errorf("serial %q: invalid baud %q", u.String(), b)
		}
		baud = n
	}
	return path, baud, nil
}

func natsTarget(u *url.URL) (server, subject string, err error) {
	subject = strings.Trim(u.Path, "/")
	if u.Host == "" || subject == "" {
		return "", "", errors.Errorf("nats %q: expected nats://host:port/subject", u.String())
	}
	return "nats://" + u.Host, subject, nil
}
