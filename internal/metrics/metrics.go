// Package metrics holds the prometheus counters exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a private registry plus the service counters. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	uploads        *prometheus.CounterVec
	chats          *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	fallbackWrites prometheus.Counter
	embedFailures  prometheus.Counter
}

// New registers the counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docuchat",
			Name:      "uploads_total",
			Help:      "PDF uploads by outcome.",
		}, []string{"variant", "outcome"}),
		chats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docuchat",
			Name:      "chat_requests_total",
			Help:      "Chat requests by outcome.",
		}, []string{"variant", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docuchat",
			Name:      "responder_cache_lookups_total",
			Help:      "Session responder cache lookups.",
		}, []string{"result"}),
		fallbackWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docuchat",
			Name:      "session_fallback_writes_total",
			Help:      "Session writes that landed in the in-memory fallback.",
		}),
		embedFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docuchat",
			Name:      "chunk_embed_failures_total",
			Help:      "Chunks skipped because embedding failed.",
		}),
	}
	reg.MustRegister(m.uploads, m.chats, m.cacheLookups, m.fallbackWrites, m.embedFailures)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Upload(variant, outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(variant, outcome).Inc()
}

func (m *Metrics) Chat(variant, outcome string) {
	if m == nil {
		return
	}
	m.chats.WithLabelValues(variant, outcome).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("hit").Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) FallbackWrite() {
	if m == nil {
		return
	}
	m.fallbackWrites.Inc()
}

func (m *Metrics) EmbedFailure() {
	if m == nil {
		return
	}
	m.embedFailures.Inc()
}
