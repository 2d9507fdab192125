// Package metrics exposes Prometheus collectors for analyses, corpus loads,
// extraction jobs and HTTP traffic.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hindsight"

// Metrics implements ai.Observer and the HTTP middleware's recorder.
type Metrics struct {
	analyses         *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	patternsSelected prometheus.Histogram
	corpusLoads      *prometheus.CounterVec
	corpusPatterns   prometheus.Gauge
	extracted        *prometheus.CounterVec
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// New registers the collectors with reg. Collectors already registered under
// the same name are reused, so New may be called more than once per registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &Metrics{
		analyses: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed analyses by outcome.",
		}, []string{"outcome"})),
		analysisDuration: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis latency.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		})),
		patternsSelected: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_patterns_selected",
			Help:      "Patterns selected per analysis.",
			Buckets:   []float64{0, 1, 5, 10, 15, 20},
		})),
		corpusLoads: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corpus_loads_total",
			Help:      "Corpus load attempts by result.",
		}, []string{"result"})),
		corpusPatterns: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_patterns",
			Help:      "Patterns in the current snapshot.",
		})),
		extracted: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_stories_total",
			Help:      "Stories processed by the extraction pipeline, by result.",
		}, []string{"result"})),
		requests: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"})),
		requestDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"})),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// RecordAnalysis is called once per Analyze.
func (m *Metrics) RecordAnalysis(d time.Duration, outcome string, selected int) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
	m.analysisDuration.Observe(d.Seconds())
	m.patternsSelected.Observe(float64(selected))
}

// RecordCorpusLoad matches corpus.Store.OnLoad.
func (m *Metrics) RecordCorpusLoad(n int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.corpusLoads.WithLabelValues("error").Inc()
		return
	}
	m.corpusLoads.WithLabelValues("ok").Inc()
	m.corpusPatterns.Set(float64(n))
}

// RecordExtraction counts stories that produced a pattern and stories that were dropped.
func (m *Metrics) RecordExtraction(ok, dropped int) {
	if m == nil {
		return
	}
	m.extracted.WithLabelValues("ok").Add(float64(ok))
	m.extracted.WithLabelValues("dropped").Add(float64(dropped))
}

// ObserveRequest records one HTTP request. route is the chi route pattern.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
