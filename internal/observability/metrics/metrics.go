package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes settlement-domain counters.
type Metrics struct {
	statementsProcessed *prometheus.CounterVec
	stockMovements      *prometheus.CounterVec
	mileageMoved        *prometheus.CounterVec
	batchSize           prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		statementsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settle",
			Name:      "statements_processed_total",
			Help:      "Statements processed by type and result.",
		}, []string{"type", "result"}),
		stockMovements: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settle",
			Name:      "stock_movements_total",
			Help:      "Stock movements recorded by movement type.",
		}, []string{"type"}),
		mileageMoved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settle",
			Name:      "mileage_moved_total",
			Help:      "Absolute mileage amount moved by entry kind.",
		}, []string{"kind"}),
		batchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "settle",
			Name:      "reconcile_batch_size",
			Help:      "Number of statements per reconcile batch.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
		}),
	}
}

func (m *Metrics) RecordStatementProcessed(statementType, result string) {
	if m == nil {
		return
	}
	m.statementsProcessed.WithLabelValues(statementType, result).Inc()
}

func (m *Metrics) RecordStockMovement(movementType string) {
	if m == nil {
		return
	}
	m.stockMovements.WithLabelValues(movementType).Inc()
}

func (m *Metrics) RecordMileageMoved(kind string, amount int64) {
	if m == nil {
		return
	}
	if amount < 0 {
		amount = -amount
	}
	m.mileageMoved.WithLabelValues(kind).Add(float64(amount))
}

func (m *Metrics) ObserveBatchSize(n int) {
	if m == nil {
		return
	}
	m.batchSize.Observe(float64(n))
}

// HTTPMetrics tracks request counts and latency for the gin shell.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settle",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "settle",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
