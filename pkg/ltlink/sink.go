package ltlink

import (
	"context"
	"encoding/hex"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/txn2/linkterm/pkg/ltmsg"
)

// ResponseHandler receives responses decoded from the drone link. It may be
// called from any goroutine.
type ResponseHandler func(ltmsg.Response)

// Sink delivers messages to the drone
type Sink interface {
	Send(ctx context.Context, msg ltmsg.Message) error
	Close() error
}

// Dialer opens the byte stream behind a FrameSink
type Dialer func(ctx context.Context) (io.ReadWriteCloser, error)

// FrameSink writes one CBOR frame per message to a byte stream, connecting
// on first use and again after a failed write. With ReadResponses set, frames
// coming back on the same stream are decoded as responses.
type FrameSink struct {
	Name          string
	Dial          Dialer
	ReadResponses bool
	OnResponse    ResponseHandler

	mu   sync.Mutex
	conn io.ReadWriteCloser
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

func (s *FrameSink) String() string { return s.Name }

// Send encodes and writes msg
func (s *FrameSink) Send(ctx context.Context, msg ltmsg.Message) error {
	frame, err := ltmsg.Encode(msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		conn, err := s.Dial(ctx)
		if err != nil {
			return errors.Wrapf(err, "connecting to %s", s.Name)
		}
		s.conn = conn
		if s.ReadResponses && s.OnResponse != nil {
			go s.readResponses(conn)
		}
	}

	if wd, ok := s.conn.(writeDeadliner); ok {
		deadline, _ := ctx.Deadline()
		_ = wd.SetWriteDeadline(deadline)
	}
	if _, err := s.conn.Write(frame); err != nil {
		_ = s.conn.Close()
		s.conn = nil
		return errors.Wrapf(err, "writing to %s", s.Name)
	}
	return nil
}

func (s *FrameSink) readResponses(conn io.Reader) {
	dec := ltmsg.NewDecoder(conn)
	for {
		r, err := dec.DecodeResponse()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && !errors.Is(err, os.ErrClosed) {
				log.Warnf("Response stream from %s ended: %v", s.Name, err)
			}
			return
		}
		s.OnResponse(r)
	}
}

// Close closes the underlying stream, if open
func (s *FrameSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// LogSink logs messages instead of sending them
type LogSink struct{}

// Send logs msg and its frame
func (LogSink) Send(_ context.Context, msg ltmsg.Message) error {
	frame, err := ltmsg.Encode(msg)
	if err != nil {
		return err
	}
	log.Infof("Dry run, not sent: %s", msg)
	log.Debugf("Frame %s", hex.EncodeToString(frame))
	return nil
}

// Close does nothing
func (LogSink) Close() error { return nil }

// ParseSink builds a sink from a URL:
//
//	log                                   log messages, send nothing
//	serial:///dev/ttyACM0?baud=115200     CBOR frames over a serial port
//	tcp://host:port                       CBOR frames over TCP
//	file:///path/frames.bin               append CBOR frames to a file
//	nats://host:port/subject?responses=s  publish frames on a NATS subject
//
// Stream sinks decode responses coming back unless responses=false is set.
func ParseSink(raw string, onResponse ResponseHandler) (Sink, error) {
	if raw == "log" || raw == "" {
		return LogSink{}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "sink %q", raw)
	}
	readResponses := true
	if v := u.Query().Get("responses"); v != "" && u.Scheme != "nats" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.Errorf("sink %q: invalid responses %q", raw, v)
		}
		readResponses = b
	}

	switch u.Scheme {
	case "serial":
		path, baud, err := serialTarget(u)
		if err != nil {
			return nil, err
		}
		return &FrameSink{
			Name: raw,
			Dial: func(context.Context) (io.ReadWriteCloser, error) {
				return openSerial(path, baud)
			},
			ReadResponses: readResponses,
			OnResponse:    onResponse,
		}, nil
	case "tcp":
		if u.Host == "" {
			return nil, errors.Errorf("sink %q: missing host", raw)
		}
		return &FrameSink{
			Name: raw,
			Dial: func(ctx context.Context) (io.ReadWriteCloser, error) {
				var d net.Dialer
				return d.DialContext(ctx, "tcp", u.Host)
			},
			ReadResponses: readResponses,
			OnResponse:    onResponse,
		}, nil
	case "file":
		if u.Path == "" {
			return nil, errors.Errorf("sink %q: missing path", raw)
		}
		return &FrameSink{
			Name: raw,
			Dial: func(context.Context) (io.ReadWriteCloser, error) {
				return os.OpenFile(u.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			},
		}, nil
	case "nats":
		server, subject, err := natsTarget(u)
		if err != nil {
			return nil, err
		}
		return &NATSSink{
			Server:          server,
			Subject:         subject,
			ResponseSubject: strings.TrimSpace(u.Query().Get("responses")),
			OnResponse:      onResponse,
		}, nil
	}
	return nil, errors.Errorf("sink %q: unsupported scheme %q", raw, u.Scheme)
}
