package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "slipstream"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	regenDuration    prom.Histogram
	regenOutcome     *prom.CounterVec
	posts            prom.Gauge
	artifactsWritten prom.Counter
	artifactsPruned  prom.Counter
	publishOutcome   *prom.CounterVec
	notifyResults    *prom.CounterVec
	notifyRetries    prom.Counter
}

// NewPrometheusRecorder creates the collectors and registers them on reg,
// or on a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		regenDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "regenerate_duration_seconds",
			Help:      "Duration of full site regenerations",
			Buckets:   prom.DefBuckets,
		}),
		regenOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "regenerate_outcomes_total",
			Help:      "Regenerations by outcome",
		}, []string{"outcome"}),
		posts: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "posts",
			Help:      "Posts in the last regeneration snapshot",
		}),
		artifactsWritten: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_written_total",
			Help:      "Generated files written",
		}),
		artifactsPruned: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_pruned_total",
			Help:      "Stale generated files removed",
		}),
		publishOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "publish_outcomes_total",
			Help:      "Publish requests by outcome",
		}, []string{"outcome"}),
		notifyResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notify_results_total",
			Help:      "Publish webhook deliveries by result",
		}, []string{"result"}),
		notifyRetries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notify_retries_total",
			Help:      "Publish webhook delivery retries",
		}),
	}
	reg.MustRegister(
		pr.regenDuration, pr.regenOutcome, pr.posts,
		pr.artifactsWritten, pr.artifactsPruned,
		pr.publishOutcome, pr.notifyResults, pr.notifyRetries,
	)
	return pr
}

func (p *PrometheusRecorder) ObserveRegenerateDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.regenDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRegenerateOutcome(o Outcome) {
	if p == nil {
		return
	}
	p.regenOutcome.WithLabelValues(string(o)).Inc()
}

func (p *PrometheusRecorder) SetPosts(n int) {
	if p == nil {
		return
	}
	p.posts.Set(float64(n))
}

func (p *PrometheusRecorder) AddArtifactsWritten(n int) {
	if p == nil {
		return
	}
	p.artifactsWritten.Add(float64(n))
}

func (p *PrometheusRecorder) AddArtifactsPruned(n int) {
	if p == nil {
		return
	}
	p.artifactsPruned.Add(float64(n))
}

func (p *PrometheusRecorder) IncPublishOutcome(o Outcome) {
	if p == nil {
		return
	}
	p.publishOutcome.WithLabelValues(string(o)).Inc()
}

func (p *PrometheusRecorder) IncNotifyResult(success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.notifyResults.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) IncNotifyRetry() {
	if p == nil {
		return
	}
	p.notifyRetries.Inc()
}

// HTTPHandler serves the metrics registered on reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
