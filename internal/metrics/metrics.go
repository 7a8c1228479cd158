package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// BrokerConnections tracks peer connections currently open on a
	// bind-mode broker, by connection kind ("rpc" or "sub").
	BrokerConnections = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nrmd",
		Subsystem: "broker",
		Name:      "connections",
		Help:      "Number of currently open peer connections, by connection kind (rpc, sub).",
	}, []string{"role"})

	// DispatcherMessagesTotal counts messages handled by the
	// dispatcher, by wire message kind (add, remove, list, find,
	// event, actuate, exit).
	DispatcherMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nrmd",
		Subsystem: "dispatcher",
		Name:      "messages_total",
		Help:      "Total number of messages handled by the dispatcher, by kind.",
	}, []string{"kind"})

	// DispatcherTickDuration observes the wall time spent on one
	// reactor step: handling one inbound message, or one timer fire
	// (closing a period and publishing it).
	DispatcherTickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nrmd",
		Subsystem: "dispatcher",
		Name:      "tick_duration_seconds",
		Help:      "Time spent processing one dispatcher reactor tick.",
		Buckets:   prometheus.DefBuckets,
	})

	// EventbaseCurrentLength tracks the live occupancy of each
	// series' current ring, keyed by sensor UUID and scope UUID.
	EventbaseCurrentLength = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nrmd",
		Subsystem: "eventbase",
		Name:      "current_length",
		Help:      "Number of raw events currently buffered in a series' current ring.",
	}, []string{"sensor", "scope"})

	// EventbasePastLength tracks the live occupancy of each series'
	// past ring, keyed by sensor UUID and scope UUID.
	EventbasePastLength = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nrmd",
		Subsystem: "eventbase",
		Name:      "past_length",
		Help:      "Number of aggregated periods currently buffered in a series' past ring.",
	}, []string{"sensor", "scope"})

	// EventbaseCollapsesTotal counts ring-overflow aggregations
	// (collapse-on-overflow events), keyed by sensor UUID.
	EventbaseCollapsesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nrmd",
		Subsystem: "eventbase",
		Name:      "collapses_total",
		Help:      "Total number of current-ring overflow aggregations, by sensor.",
	}, []string{"sensor"})

	// EventbaseTicksTotal counts every call to Base.Tick, i.e. every
	// period close across all tracked series.
	EventbaseTicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nrmd",
		Subsystem: "eventbase",
		Name:      "ticks_total",
		Help:      "Total number of period closes performed by the event base.",
	})
)

func init() {
	prometheus.MustRegister(
		BrokerConnections,
		DispatcherMessagesTotal,
		DispatcherTickDuration,
		EventbaseCurrentLength,
		EventbasePastLength,
		EventbaseCollapsesTotal,
		EventbaseTicksTotal,
	)
}

// Timer measures elapsed time against a histogram observer; the
// dispatcher starts one per reactor step and observes it when the step
// is done.
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer starts a Timer against the given observer.
func NewTimer(observer prometheus.Observer) *Timer {
	return &Timer{start: time.Now(), observer: observer}
}

// ObserveDuration records the elapsed time since NewTimer.
func (t *Timer) ObserveDuration() {
	t.observer.Observe(time.Since(t.start).Seconds())
}
