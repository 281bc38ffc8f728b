// Package ltmetrics exposes console activity as Prometheus metrics.
package ltmetrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/txn2/linkterm/pkg/ltevents"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all console metrics.
type Registry struct {
	LinesTotal        *prometheus.CounterVec
	ReaderUp          *prometheus.GaugeVec
	ReaderRestarts    *prometheus.CounterVec
	MessagesQueued    *prometheus.CounterVec
	MessagesSent      *prometheus.CounterVec
	SendFailures      *prometheus.CounterVec
	ResponsesReceived prometheus.Counter
	ParseErrors       prometheus.Counter
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	r.LinesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkterm_log_lines_total",
		Help: "Log lines received per node",
	}, []string{"node"})

	r.ReaderUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "linkterm_reader_up",
		Help: "1 while the node's line reader is running",
	}, []string{"node"})

	r.ReaderRestarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkterm_reader_restarts_total",
		Help: "Line reader restarts per node",
	}, []string{"node"})

	r.MessagesQueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkterm_messages_queued_total",
		Help: "Messages committed by the operator, by kind",
	}, []string{"kind"})

	r.MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkterm_messages_sent_total",
		Help: "Messages delivered to the drone link, by kind",
	}, []string{"kind"})

	r.SendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkterm_send_failures_total",
		Help: "Messages the drone link failed to accept, by kind",
	}, []string{"kind"})

	r.ResponsesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkterm_responses_received_total",
		Help: "Response frames decoded from the drone link",
	})

	r.ParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkterm_parse_errors_total",
		Help: "Operator commits rejected by the parser",
	})

	return r
}

// Observe updates the registry for one event. Lines are counted by the
// readers directly since line events may be dropped under load.
func (r *Registry) Observe(e ltevents.Event) {
	switch e.Type {
	case ltevents.ReaderStarted:
		r.ReaderUp.WithLabelValues(e.Node).Set(1)
	case ltevents.ReaderStopped:
		r.ReaderUp.WithLabelValues(e.Node).Set(0)
	case ltevents.ReaderRestarting:
		r.ReaderUp.WithLabelValues(e.Node).Set(0)
		r.ReaderRestarts.WithLabelValues(e.Node).Inc()
	case ltevents.MessageQueued:
		r.MessagesQueued.WithLabelValues(e.Kind).Inc()
	case ltevents.MessageSent:
		r.MessagesSent.WithLabelValues(e.Kind).Inc()
	case ltevents.SendFailed:
		r.SendFailures.WithLabelValues(e.Kind).Inc()
	case ltevents.ResponseReceived:
		r.ResponsesReceived.Inc()
	case ltevents.ParseFailed:
		r.ParseErrors.Inc()
	}
}

// Attach subscribes the registry to every event on bus
func (r *Registry) Attach(bus *ltevents.Bus) ltevents.UnsubscribeFunc {
	return bus.SubscribeAll(r.Observe)
}
