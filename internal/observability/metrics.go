package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	modelCallCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sparkdesk",
			Name:      "model_calls_total",
			Help:      "Total model completion calls",
		},
		[]string{"provider", "status"},
	)
	modelCallLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sparkdesk",
			Name:      "model_call_duration_seconds",
			Help:      "Model completion latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
	metricsRegistered bool
)

// RegisterCollectors allows external registries (e.g., the Hertz prometheus
// tracer's) to reuse the same metric vectors instead of duplicating
// definitions. If a registry is provided and collectors are not yet
// registered, it registers them there; otherwise it falls back to the
// default global registry.
func RegisterCollectors(reg *prometheus.Registry) {
	if metricsRegistered {
		return
	}
	if reg != nil {
		reg.MustRegister(modelCallCounter, modelCallLatency)
	} else {
		prometheus.MustRegister(modelCallCounter, modelCallLatency)
	}
	metricsRegistered = true
}

// InitMetrics launches a /metrics HTTP endpoint if addr not empty.
func InitMetrics(service, addr string, logger *zap.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	RegisterCollectors(nil)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	logger.Info("metrics server listening", zap.String("addr", addr), zap.String("service", service))
	return srv
}

// ObserveModelCall records one completion call outcome.
func ObserveModelCall(provider string, d time.Duration, failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	modelCallCounter.WithLabelValues(provider, status).Inc()
	modelCallLatency.WithLabelValues(provider).Observe(d.Seconds())
}
