package ltlink

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/thejerf/suture/v4"
	"github.com/txn2/linkterm/pkg/ltevents"
	"github.com/txn2/linkterm/pkg/ltlog"
	"github.com/txn2/linkterm/pkg/ltmetrics"
)

// Reader feeds one node's channel from its source. It implements
// suture.Service: failures are returned for the supervisor to restart, while
// the normal end of a finite source stops the reader for good.
type Reader struct {
	node    ltlog.Node
	source  Source
	channel *ltlog.Channel
	bus     *ltevents.Bus
	lines   prometheus.Counter
}

// NewReader creates a reader appending lines from source to channel
func NewReader(source Source, channel *ltlog.Channel, bus *ltevents.Bus) *Reader {
	node := channel.Node()
	return &Reader{
		node:    node,
		source:  source,
		channel: channel,
		bus:     bus,
		lines:   ltmetrics.Get().LinesTotal.WithLabelValues(node.String()),
	}
}

func (r *Reader) String() string {
	return fmt.Sprintf("%s reader (%s)", r.node, r.source)
}

// Serve implements suture.Service
func (r *Reader) Serve(ctx context.Context) error {
	log.Debugf("Reading %s logs from %s", r.node, r.source)
	r.publish(ltevents.NewReaderEvent(ltevents.ReaderStarted, r.node.String(), nil))

	err := r.source.Lines(ctx, func(text string) {
		line := r.channel.Append(text)
		r.lines.Inc()
		r.publish(ltevents.NewLineEvent(r.node.String(), line.Text))
	})

	switch {
	case ctx.Err() != nil:
		r.publish(ltevents.NewReaderEvent(ltevents.ReaderStopped, r.node.String(), nil))
		return ctx.Err()
	case errors.Is(err, io.EOF) && isFinite(r.source):
		log.Infof("%s source %s ended", r.node.Title(), r.source)
		r.publish(ltevents.NewReaderEvent(ltevents.ReaderStopped, r.node.String(), nil))
		return suture.ErrDoNotRestart
	}

	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	log.Warnf("%s reader failed: %v", r.node.Title(), err)
	r.publish(ltevents.NewReaderEvent(ltevents.ReaderRestarting, r.node.String(), err))
	return errors.Wrapf(err, "%s reader", r.node)
}

func (r *Reader) publish(e ltevents.Event) {
	if r.bus != nil {
		r.bus.Publish(e)
	}
}

func isFinite(s Source) bool {
	f, ok := s.(finite)
	return ok && f.Finite()
}

// NewSupervisor returns the supervisor for node readers. Failing readers are
// restarted; after repeated failures the supervisor backs off.
func NewSupervisor() *suture.Supervisor {
	return suture.New("linkterm-readers", suture.Spec{
		EventHook: func(e suture.Event) {
			log.Debugf("Supervisor: %s", e)
		},
		FailureThreshold: 3,
		FailureBackoff:   5 * time.Second,
		Timeout:          3 * time.Second,
	})
}
