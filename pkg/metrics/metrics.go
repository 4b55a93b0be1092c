package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 业务与HTTP指标
type Metrics struct {
	InterestOutcomes *prometheus.CounterVec
	MessagesRelayed  *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New 创建并注册全部指标
// 传入独立的 Registry 便于测试，生产环境传 prometheus.DefaultRegisterer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		InterestOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchmaking_interest_outcomes_total",
			Help: "Interest operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		MessagesRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchmaking_messages_relayed_total",
			Help: "Chat messages persisted, labelled by whether a live connection received them",
		}, []string{"delivered"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchmaking_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matchmaking_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// Interest 记录一次意向操作的结果，m 为 nil 时忽略
func (m *Metrics) Interest(operation, outcome string) {
	if m == nil {
		return
	}
	m.InterestOutcomes.WithLabelValues(operation, outcome).Inc()
}

// MessageRelayed 记录一条消息是否被实时送达
func (m *Metrics) MessageRelayed(delivered bool) {
	if m == nil {
		return
	}
	m.MessagesRelayed.WithLabelValues(strconv.FormatBool(delivered)).Inc()
}

// Middleware gin 中间件：按路由模板统计请求数与耗时
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler /metrics 处理函数
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
