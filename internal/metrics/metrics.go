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

const namespace = "purapata"

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	remoteCalls     *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	staleResponses  prometheus.Counter
	listings        *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	visitors        prometheus.GaugeFunc
}

// New registers every collector on a registry of its own. visitors reports
// the number of live visitors when scraped; it may be nil.
func New(visitors func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		remoteCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_api_calls_total",
			Help:      "Calls to the dogs API by operation and outcome.",
		}, []string{"operation", "outcome"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_rejections_total",
			Help:      "Files rejected before staging, by reason.",
		}, []string{"reason"}),
		staleResponses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_stale_responses_total",
			Help:      "Listing responses discarded because a newer request was issued.",
		}),
		listings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_results_total",
			Help:      "Listing responses applied for visitors, by outcome.",
		}, []string{"outcome"}),
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_uploads_total",
			Help:      "Photo batches pushed to storage, by outcome.",
		}, []string{"outcome"}),
	}
	if visitors != nil {
		m.visitors = f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visitors",
			Help:      "Visitors with live state.",
		}, visitors)
	}
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveRemoteCall matches dogsapi.CallObserver.
func (m *Metrics) ObserveRemoteCall(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.remoteCalls.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) Rejected(reason string) {
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) StaleResponse() {
	m.staleResponses.Inc()
}

// ListingSettled counts an applied listing by its state; failed fetches are
// counted apart from genuinely empty results.
func (m *Metrics) ListingSettled(state string, failed bool) {
	if failed {
		state = "failed"
	}
	m.listings.WithLabelValues(state).Inc()
}

func (m *Metrics) Uploaded(err error) {
	if err != nil {
		m.uploads.WithLabelValues("error").Inc()
		return
	}
	m.uploads.WithLabelValues("ok").Inc()
}
