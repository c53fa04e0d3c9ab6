// Package metrics exposes Prometheus instrumentation for the gateway.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voxgate"

var (
	// sessionsActive is a gauge of currently connected live sessions.
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently connected live sessions",
		},
	)

	// turnsTotal counts completed turns by outcome.
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of conversation turns by outcome",
		},
		[]string{"outcome"}, // completed, aborted, failed
	)

	// interruptsTotal counts barge-in interrupts.
	interruptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interrupts_total",
			Help:      "Total number of client interrupts",
		},
	)

	// tokensStreamedTotal counts reply tokens forwarded to clients.
	tokensStreamedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_streamed_total",
			Help:      "Total number of reply tokens streamed to clients",
		},
	)

	// stageDuration is a histogram of turn stage duration in seconds.
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Histogram of turn stage duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"}, // recognition, generation, synthesis, turn
	)

	// audioChunksSentTotal counts synthesized audio chunks sent to clients.
	audioChunksSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_sent_total",
			Help:      "Total number of synthesized audio chunks sent to clients",
		},
	)

	allMetrics = []prometheus.Collector{
		sessionsActive,
		turnsTotal,
		interruptsTotal,
		tokensStreamedTotal,
		stageDuration,
		audioChunksSentTotal,
	}
)

// NewRegistry builds a registry with all gateway and runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	for _, collector := range allMetrics {
		reg.MustRegister(collector)
	}
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns the /metrics HTTP handler for the given registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// SessionOpened records a new live session.
func SessionOpened() {
	sessionsActive.Inc()
}

// SessionClosed records a live session ending.
func SessionClosed() {
	sessionsActive.Dec()
}

// RecordTurn records a finished turn with its outcome.
func RecordTurn(outcome string) {
	turnsTotal.WithLabelValues(outcome).Inc()
}

// RecordInterrupt records a client interrupt.
func RecordInterrupt() {
	interruptsTotal.Inc()
}

// RecordToken records one streamed reply token.
func RecordToken() {
	tokensStreamedTotal.Inc()
}

// RecordStageDuration records how long a turn stage took.
func RecordStageDuration(stage string, durationSeconds float64) {
	stageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordAudioChunk records one synthesized audio chunk sent to a client.
func RecordAudioChunk() {
	audioChunksSentTotal.Inc()
}
