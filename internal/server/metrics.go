package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/draftmill/draftmill/models"
	"github.com/draftmill/draftmill/provider"
)

// Metrics collects pipeline counters on a private registry so the serve
// command can expose them on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal        *prometheus.CounterVec
	PublishesTotal   prometheus.Counter
	LLMRequestsTotal *prometheus.CounterVec
	RunDuration      prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "draftmill",
			Name:      "runs_total",
			Help:      "Pipeline runs by final status.",
		}, []string{"status"}),
		PublishesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "draftmill",
			Name:      "publishes_total",
			Help:      "Posts successfully pushed to the blog host.",
		}),
		LLMRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "draftmill",
			Name:      "llm_requests_total",
			Help:      "Model calls by kind.",
		}, []string{"kind"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "draftmill",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	m.registry.MustRegister(m.RunsTotal, m.PublishesTotal, m.LLMRequestsTotal, m.RunDuration)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRun records the outcome of one pipeline run.
func (m *Metrics) ObserveRun(rec models.RunRecord) {
	m.RunsTotal.WithLabelValues(string(rec.Status)).Inc()
	if rec.FinishedAt != nil {
		m.RunDuration.Observe(rec.FinishedAt.Sub(rec.StartedAt).Seconds())
	}
	if rec.PublishedURL != "" {
		m.PublishesTotal.Inc()
	}
}

// WrapProvider counts model calls made through p.
func (m *Metrics) WrapProvider(p provider.Provider) provider.Provider {
	return &measuredProvider{inner: p, calls: m.LLMRequestsTotal}
}

type measuredProvider struct {
	inner provider.Provider
	calls *prometheus.CounterVec
}

func (p *measuredProvider) DraftArticle(ctx context.Context, topic string, sources []models.SourceArticle, minChars, maxChars int) (models.Draft, error) {
	p.calls.WithLabelValues("draft").Inc()
	return p.inner.DraftArticle(ctx, topic, sources, minChars, maxChars)
}

func (p *measuredProvider) ReviseLength(ctx context.Context, bodyHTML string, minChars, maxChars int) (string, error) {
	p.calls.WithLabelValues("revise").Inc()
	return p.inner.ReviseLength(ctx, bodyHTML, minChars, maxChars)
}

func (p *measuredProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	p.calls.WithLabelValues("image").Inc()
	return p.inner.GenerateImage(ctx, prompt)
}
