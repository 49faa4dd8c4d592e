// Package metrics agrupa los colectores Prometheus del cliente API y de la caché de consultas.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inventario_web"

// Metrics colectores compartidos. Un valor nil es válido y no registra nada.
type Metrics struct {
	apiRequests  *prometheus.CounterVec
	apiLatency   *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
	cacheFetches *prometheus.CounterVec
	gatherer     prometheus.Gatherer
}

// New registra los colectores en un registro propio (evita colisiones en tests).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Peticiones al backend REST por operación y status (0 = fallo de transporte).",
		}, []string{"operation", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Latencia de las peticiones al backend REST.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Lecturas de la caché de consultas por recurso y resultado (hit|miss).",
		}, []string{"resource", "result"}),
		cacheFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_fetches_total",
			Help:      "Fetches ejecutados por la caché por recurso y resultado (ok|retry|error).",
		}, []string{"resource", "result"}),
		gatherer: reg,
	}
}

// ObserveAPI registra una petición al backend.
func (m *Metrics) ObserveAPI(operation string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// CacheLookup registra un hit o miss de la caché.
func (m *Metrics) CacheLookup(resource string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(resource, result).Inc()
}

// CacheFetch registra el desenlace de un intento de fetch.
func (m *Metrics) CacheFetch(resource, result string) {
	if m == nil {
		return
	}
	m.cacheFetches.WithLabelValues(resource, result).Inc()
}

// Handler expone el registro en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
