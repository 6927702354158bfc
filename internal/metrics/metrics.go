package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	settlementTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payops_settlement_transitions_total",
		Help: "Settlement status transitions applied, by resulting status.",
	}, []string{"status"})

	ledgerDeltas = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payops_ledger_deltas_total",
		Help: "Ledger deltas applied to Calculation rows.",
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payops_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "code"})
)

// SettlementTransition records a settlement reaching the given status.
func SettlementTransition(status string) {
	settlementTransitions.WithLabelValues(status).Inc()
}

// LedgerDelta records one delta applied to a ledger row.
func LedgerDelta() {
	ledgerDeltas.Inc()
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware observes request latency and status codes.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpDuration.WithLabelValues(r.Method, strconv.Itoa(rec.code)).Observe(time.Since(start).Seconds())
	})
}
