package ltlink

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/txn2/linkterm/pkg/ltmsg"
)

// NATSSource subscribes to a subject whose messages carry log lines
type NATSSource struct {
	Server  string
	Subject string
}

func (s *NATSSource) String() string { return s.Server + "/" + s.Subject }

// Lines emits every line published on the subject until ctx is done or the
// connection is closed
func (s *NATSSource) Lines(ctx context.Context, emit func(string)) error {
	closed := make(chan struct{})
	var once sync.Once
	nc, err := nats.Connect(s.Server,
		nats.Name("linkterm"),
		nats.ClosedHandler(func(*nats.Conn) { once.Do(func() { close(closed) }) }),
	)
	if err != nil {
		return errors.Wrapf(err, "connecting to %s", s.Server)
	}
	defer nc.Close()

	sub, err := nc.Subscribe(s.Subject, func(m *nats.Msg) {
		for _, line := range bytes.Split(bytes.TrimRight(m.Data, "\n"), []byte("\n")) {
			emit(strings.TrimRight(string(line), "\r"))
		}
	})
	if err != nil {
		return errors.Wrapf(err, "subscribing to %s", s.Subject)
	}

	select {
	case <-ctx.Done():
		_ = sub.Unsubscribe()
		return ctx.Err()
	case <-closed:
		return errors.Errorf("connection to %s closed", s.Server)
	}
}

// NATSSink publishes encoded message frames on a subject. When a response
// subject is set, response frames published there are decoded and handed to
// OnResponse.
type NATSSink struct {
	Server          string
	Subject         string
	ResponseSubject string
	OnResponse      ResponseHandler

	mu  sync.Mutex
	nc  *nats.Conn
	sub *nats.Subscription
}

func (s *NATSSink) connect() (*nats.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nc != nil && !s.nc.IsClosed() {
		return s.nc, nil
	}

	nc, err := nats.Connect(s.Server, nats.Name("linkterm"))
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", s.Server)
	}
	if s.ResponseSubject != "" && s.OnResponse != nil {
		sub, err := nc.Subscribe(s.ResponseSubject, func(m *nats.Msg) {
			r, err := ltmsg.DecodeResponse(m.Data)
			if err != nil {
				log.Warnf("Dropping response on %s: %v", s.ResponseSubject, err)
				return
			}
			s.OnResponse(r)
		})
		if err != nil {
			nc.Close()
			return nil, errors.Wrapf(err, "subscribing to %s", s.ResponseSubject)
		}
		s.sub = sub
	}
	s.nc = nc
	return nc, nil
}

// Send publishes msg and waits for the server to acknowledge the flush
func (s *NATSSink) Send(ctx context.Context, msg ltmsg.Message) error {
	frame, err := ltmsg.Encode(msg)
	if err != nil {
		return err
	}
	nc, err := s.connect()
	if err != nil {
		return err
	}
	if err := nc.Publish(s.Subject, frame); err != nil {
		return errors.Wrapf(err, "publishing to %s", s.Subject)
	}
	if err := nc.FlushWithContext(ctx); err != nil {
		return errors.Wrapf(err, "flushing %s", s.Server)
	}
	return nil
}

// Close drains the connection
func (s *NATSSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nc == nil {
		return nil
	}
	err := s.nc.Drain()
	s.nc = nil
	s.sub = nil
	return err
}
