package ltsession

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/txn2/linkterm/pkg/ltevents"
	"github.com/txn2/linkterm/pkg/ltlog"
	"github.com/txn2/linkterm/pkg/ltmsg"
)

// DefaultSendTimeout bounds one delivery to the drone link
const DefaultSendTimeout = 2 * time.Second

// Sink accepts messages for the drone
type Sink interface {
	Send(ctx context.Context, msg ltmsg.Message) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, msg ltmsg.Message) error

// Send calls f
func (f SinkFunc) Send(ctx context.Context, msg ltmsg.Message) error { return f(ctx, msg) }

// SendError is a delivery failure. It never changes the session mode or the
// authoring buffer.
type SendError struct {
	Message ltmsg.Message
	Err     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send %s: %v", e.Message, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Delivery is a committed message on its way to the sink
type Delivery struct {
	ID      string
	Message ltmsg.Message
}

// Config configures a Session
type Config struct {
	Sink        Sink
	Logs        *ltlog.Set
	Bus         *ltevents.Bus
	SendTimeout time.Duration
	HistorySize int
}

// Session couples the state machine with the node logs, the sink and the
// delivery history. Key handling, Dispatch, Complete and View belong to the
// console loop; Deliver may run on any goroutine.
type Session struct {
	machine     *Machine
	logs        *ltlog.Set
	sink        Sink
	bus         *ltevents.Bus
	history     *History
	sendTimeout time.Duration
	sendErr     *SendError
	lastSent    *Entry
}

// View is everything needed to draw one frame
type View struct {
	State    State
	Lines    []ltlog.Line
	SendErr  *SendError
	LastSent *Entry
}

// New creates a session browsing the Remote tab
func New(cfg Config) *Session {
	if cfg.Logs == nil {
		cfg.Logs = ltlog.NewSet(ltlog.DefaultCapacity)
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	return &Session{
		machine:     NewMachine(),
		logs:        cfg.Logs,
		sink:        cfg.Sink,
		bus:         cfg.Bus,
		history:     NewHistory(cfg.HistorySize),
		sendTimeout: cfg.SendTimeout,
	}
}

// Logs returns the node log channels
func (s *Session) Logs() *ltlog.Set { return s.logs }

// History returns the delivery history
func (s *Session) History() *History { return s.history }

// Machine returns the underlying state machine
func (s *Session) Machine() *Machine { return s.machine }

// Terminated reports whether the session has ended
func (s *Session) Terminated() bool { return s.machine.Mode() == Terminated }

// HandleKey applies a key press. When it commits a message, the returned
// Delivery must be passed to Deliver and then Complete.
func (s *Session) HandleKey(k Key) (Outcome, *Delivery) {
	wasRunning := !s.Terminated()
	out := s.machine.Handle(k)

	if out.ParseErr != nil {
		log.Debugf("Rejected input: %v", out.ParseErr)
		s.publish(ltevents.NewParseFailedEvent(s.machine.State().Buffer, out.ParseErr))
	}
	if out.Quit && wasRunning {
		s.publish(ltevents.Event{Type: ltevents.SessionEnded, Timestamp: time.Now()})
	}
	if out.Send == nil {
		return out, nil
	}
	return out, s.Dispatch(out.Send)
}

// Dispatch records msg as pending and returns its delivery
func (s *Session) Dispatch(msg ltmsg.Message) *Delivery {
	entry := s.history.Add(msg)
	s.publish(ltevents.NewMessageEvent(ltevents.MessageQueued, entry.ID, entry.Kind, entry.Text, nil))
	return &Delivery{ID: entry.ID, Message: msg}
}

// Deliver echoes the message to the Remote log and hands it to the sink,
// bounded by the send timeout. It does not touch session state.
func (s *Session) Deliver(ctx context.Context, d *Delivery) error {
	s.logs.Channel(ltlog.Remote).Append("Sending: " + d.Message.String())

	if s.sink == nil {
		return errors.New("no drone link configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	return s.sink.Send(ctx, d.Message)
}

// Complete records the outcome of Deliver
func (s *Session) Complete(d *Delivery, err error) {
	entry, ok := s.history.Resolve(d.ID, err)
	if ok {
		s.lastSent = &entry
	}

	if err != nil {
		s.sendErr = &SendError{Message: d.Message, Err: err}
		log.Warnf("Failed to send %s: %v", d.Message, err)
		s.logs.Channel(ltlog.Remote).Append(fmt.Sprintf("Send failed: %s: %v", d.Message, err))
		s.publish(ltevents.NewMessageEvent(ltevents.SendFailed, d.ID, d.Message.Kind().String(), d.Message.String(), err))
		return
	}

	s.sendErr = nil
	s.publish(ltevents.NewMessageEvent(ltevents.MessageSent, d.ID, d.Message.Kind().String(), d.Message.String(), nil))
}

// SendErr returns the most recent delivery failure, cleared by the next
// successful delivery
func (s *Session) SendErr() *SendError { return s.sendErr }

// View returns the active tab's lines and the session state
func (s *Session) View() View {
	st := s.machine.State()
	return View{
		State:    st,
		Lines:    s.logs.Channel(st.Tab).Snapshot(),
		SendErr:  s.sendErr,
		LastSent: s.lastSent,
	}
}

// Close ends the session
func (s *Session) Close() {
	if s.Terminated() {
		return
	}
	s.machine.Terminate()
	s.publish(ltevents.Event{Type: ltevents.SessionEnded, Timestamp: time.Now()})
}

func (s *Session) publish(e ltevents.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
