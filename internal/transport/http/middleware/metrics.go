package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"gorm-trashbin/internal/transport/http/ez"
)

var (
	httpReqTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trashbin_http_requests_total", Help: "HTTP requests by route and business code"},
		[]string{"server", "route", "method", "code"},
	)
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trashbin_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"server", "route", "method"},
	)
)

func init() { prometheus.MustRegister(httpReqTotal, httpLatency) }

// Metrics 按路由模板打点；code 取响应体里的业务码（HTTP 状态恒为 200）
func Metrics(server string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched" // 避免 404 扫描把 label 打爆
		}
		code := c.GetInt(ez.CtxCode)
		if code == 0 && c.Writer.Status() != 200 {
			code = c.Writer.Status()
		}
		httpReqTotal.WithLabelValues(server, route, c.Request.Method, strconv.Itoa(code)).Inc()
		httpLatency.WithLabelValues(server, route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
