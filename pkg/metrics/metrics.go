package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// todo 操作计数
	TodoOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_ops_total",
			Help: "Total number of todo operations",
		},
		[]string{"op", "status"}, // op: list, create, toggle, delete
	)

	// 会话解析计数
	SessionResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_resolutions_total",
			Help: "Total number of session resolution attempts",
		},
		[]string{"outcome"}, // outcome: ok, missing, invalid, error
	)

	// 登录计数
	SignInsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sign_ins_total",
			Help: "Total number of sign-in attempts",
		},
		[]string{"result"}, // result: ok, failed
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementTodoOp 增加 todo 操作计数
func IncrementTodoOp(op, status string) {
	TodoOpsTotal.WithLabelValues(op, status).Inc()
}

// IncrementSessionResolution 增加会话解析计数
func IncrementSessionResolution(outcome string) {
	SessionResolutionsTotal.WithLabelValues(outcome).Inc()
}

// IncrementSignIn 增加登录计数
func IncrementSignIn(result string) {
	SignInsTotal.WithLabelValues(result).Inc()
}
