// Package metrics Prometheus指标
//
// 指标分三类：
//   - HTTP/gRPC请求：请求数、耗时、并发数（由中间件和拦截器采集）
//   - 流通业务：各操作的结果与耗时、预约过期数、事务重试数
//   - 基础设施：熔断器状态、消息发布数
//
// 命名规范：<namespace>_<name>_<unit>，Counter以_total结尾
//
// 示例：
//
//	metrics.InitMetrics()
//	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

const namespace = "library"

var (
	initOnce sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数
	// 标签：method、path（路由模板）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// GRPCRequestsTotal gRPC调用总数
	// 标签：method、code
	GRPCRequestsTotal *prometheus.CounterVec

	// GRPCRequestDuration gRPC调用耗时
	GRPCRequestDuration *prometheus.HistogramVec

	// 流通业务指标

	// CirculationOpsTotal 流通操作总数
	// 标签：op（create_loan/register_return/...）、result（ok或错误类别）
	CirculationOpsTotal *prometheus.CounterVec

	// CirculationOpDuration 流通操作耗时（含事务与锁等待）
	CirculationOpDuration *prometheus.HistogramVec

	// ReservationsExpiredTotal 被置为过期的预约数
	// 标签：trigger（sweep=定时清理，lazy=读取时顺带清理）
	ReservationsExpiredTotal *prometheus.CounterVec

	// TxRetriesTotal 因死锁/锁等待超时而重试的事务数
	TxRetriesTotal prometheus.Counter

	// 熔断器指标

	// CircuitBreakerState 熔断器状态 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数
	// 标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// 消息队列指标

	// MessagesPublishedTotal 消息发布总数
	// 标签：exchange、routing_key、result
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 注册所有指标到默认Registry，重复调用无副作用
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		)
		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path"},
		)
		HTTPRequestsInProgress = promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_progress",
				Help:      "Number of HTTP requests currently being served",
			},
		)

		GRPCRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "grpc_requests_total",
				Help:      "Total number of gRPC requests",
			},
			[]string{"method", "code"},
		)
		GRPCRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "grpc_request_duration_seconds",
				Help:      "gRPC request latency",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method"},
		)

		CirculationOpsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circulation_operations_total",
				Help:      "Total number of circulation operations by result",
			},
			[]string{"op", "result"},
		)
		CirculationOpDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "circulation_operation_duration_seconds",
				Help:      "Circulation operation latency including lock waits",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"op"},
		)
		ReservationsExpiredTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reservations_expired_total",
				Help:      "Total number of reservations moved to expired",
			},
			[]string{"trigger"},
		)
		TxRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tx_retries_total",
				Help:      "Total number of transactions retried after a transient failure",
			},
		)

		CircuitBreakerState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		)
		CircuitBreakerRequests = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_requests_total",
				Help:      "Total number of requests through circuit breakers",
			},
			[]string{"name", "result"},
		)

		MessagesPublishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_published_total",
				Help:      "Total number of messages published",
			},
			[]string{"exchange", "routing_key", "result"},
		)
	})
}

// ObserveOp 记录一次流通操作的结果与耗时
//
// 用法：
//
//	start := time.Now()
//	defer func() { metrics.ObserveOp("create_loan", start, err) }()
func ObserveOp(op string, start time.Time, err error) {
	InitMetrics()
	CirculationOpsTotal.WithLabelValues(op, Result(err)).Inc()
	CirculationOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Result 错误转为指标标签
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	if !apperrors.IsAppError(err) {
		return "internal"
	}
	return apperrors.GetAppError(err).Kind().String()
}

// ObserveGRPCRequest 记录一次gRPC调用
func ObserveGRPCRequest(method, code string, duration time.Duration) {
	InitMetrics()
	GRPCRequestsTotal.WithLabelValues(method, code).Inc()
	GRPCRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// AddExpired 记录过期的预约数
func AddExpired(trigger string, n int64) {
	if n <= 0 {
		return
	}
	InitMetrics()
	ReservationsExpiredTotal.WithLabelValues(trigger).Add(float64(n))
}

// IncTxRetry 记录一次事务重试
func IncTxRetry() {
	InitMetrics()
	TxRetriesTotal.Inc()
}

// SetCircuitBreakerState 记录熔断器状态
func SetCircuitBreakerState(name string, state int) {
	InitMetrics()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// IncCircuitBreakerRequest 记录经过熔断器的请求
func IncCircuitBreakerRequest(name, result string) {
	InitMetrics()
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// IncMessagePublished 记录一次消息发布
func IncMessagePublished(exchange, routingKey string, err error) {
	InitMetrics()
	result := "success"
	if err != nil {
		result = "failure"
	}
	MessagesPublishedTotal.WithLabelValues(exchange, routingKey, result).Inc()
}
