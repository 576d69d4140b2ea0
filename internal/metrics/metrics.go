// Package metrics exposes Prometheus collectors for the notification pipeline.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hldsbot"

// Send results recorded by MessageSent.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// Metrics holds the pipeline collectors. A nil *Metrics is valid and records
// nothing, so components can take it as an optional dependency.
type Metrics struct {
	registerer prometheus.Registerer

	datagramsTotal prometheus.Counter
	eventsTotal    *prometheus.CounterVec
	messagesTotal  *prometheus.CounterVec
	failuresTotal  prometheus.Counter
}

// New creates the collectors and registers them with registerer
// (prometheus.DefaultRegisterer if nil).
func New(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		registerer: registerer,
		datagramsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datagrams_received_total",
			Help:      "Total number of log datagrams received",
		}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total number of classified log lines by event kind",
		}, []string{"kind"}),
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Total number of outbound notifications by destination role and result",
		}, []string{"role", "result"}),
		failuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_failures_total",
			Help:      "Total number of internal failures caught while dispatching an event",
		}),
	}

	for _, c := range []prometheus.Collector{m.datagramsTotal, m.eventsTotal, m.messagesTotal, m.failuresTotal} {
		if err := register(registerer, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func register(registerer prometheus.Registerer, c prometheus.Collector) error {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return err
		}
	}
	return nil
}

// DatagramReceived counts one inbound datagram.
func (m *Metrics) DatagramReceived() {
	if m == nil {
		return
	}
	m.datagramsTotal.Inc()
}

// EventClassified counts one classified line of the given kind.
func (m *Metrics) EventClassified(kind string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(kind).Inc()
}

// MessageSent counts one send attempt outcome for a destination role.
func (m *Metrics) MessageSent(role, result string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(role, result).Inc()
}

// DispatchFailed counts one internal dispatch failure.
func (m *Metrics) DispatchFailed() {
	if m == nil {
		return
	}
	m.failuresTotal.Inc()
}

// WatchAvailability exports available() as the destination_available gauge
// for role. It is evaluated at scrape time.
func (m *Metrics) WatchAvailability(role string, available func() bool) error {
	if m == nil {
		return nil
	}
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "destination_available",
		Help:        "Whether the destination is currently considered reachable (1) or not (0)",
		ConstLabels: prometheus.Labels{"role": role},
	}, func() float64 {
		if available() {
			return 1
		}
		return 0
	})
	return register(m.registerer, g)
}
