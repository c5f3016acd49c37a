package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Publish results.
const (
	ResultSuccess   = "success"
	ResultMalformed = "malformed"
	ResultConnect   = "connect_failed"
	ResultTimeout   = "ack_timeout"
	ResultRejected  = "rejected"
	ResultFailed    = "failed"
)

// Registry holds every canpub metric plus the Go runtime and process collectors.
var Registry = prometheus.NewRegistry()

var (
	// PublishTotal counts published CAN status messages.
	PublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "canpub_publish_total",
			Help: "Total number of CAN status messages handled, by algorithm and result.",
		},
		[]string{"algorithm", "result"},
	)

	// AckLatency records the time between sending PUBLISH and receiving the acknowledgment.
	AckLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "canpub_publish_ack_seconds",
			Help:    "Latency between publish and broker acknowledgment.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"algorithm"},
	)

	// ConnectionState is 1 for the current state of the publisher connection
	// and 0 for every other state.
	ConnectionState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "canpub_connection_state",
			Help: "Current state of the publisher connection (1 = current).",
		},
		[]string{"state"},
	)

	// BrokerConnected reports the relay's broker connectivity (1 = connected).
	BrokerConnected = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "canpub_broker_connected",
			Help: "Whether the long-lived relay connection is up (1 = connected).",
		},
		func() float64 { return brokerConnected() },
	)
)

var brokerConnected = func() float64 { return 0 }

// SetBrokerProbe installs the function backing canpub_broker_connected.
func SetBrokerProbe(connected func() bool) {
	brokerConnected = func() float64 {
		if connected() {
			return 1
		}
		return 0
	}
}

// SetConnectionState marks state as current.
func SetConnectionState(states []string, current string) {
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1
		}
		ConnectionState.WithLabelValues(s).Set(v)
	}
}

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		PublishTotal,
		AckLatency,
		ConnectionState,
		BrokerConnected,
	)
}
