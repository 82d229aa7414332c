package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 流程执行延迟（毫秒）
	FlowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flow_duration_ms",
			Help:    "Flow invocation duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12), // 10ms to ~40s
		},
		[]string{"flow", "status"},
	)

	// 模型调用延迟（毫秒）
	InferenceLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inference_latency_ms",
			Help:    "Model inference call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"model", "status"},
	)

	// 工具调用计数
	ToolCallCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_call_count",
			Help: "Total number of data-access tool calls",
		},
		[]string{"tool", "status"},
	)

	// Todo 创建计数
	TodoCreatedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_created_count",
			Help: "Total number of todos created by flow side effects",
		},
		[]string{"flow"},
	)

	// Webhook 收件计数
	WebhookEventCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_event_count",
			Help: "Total number of inbound webhook deliveries",
		},
		[]string{"status"}, // status: accepted, rejected
	)

	// MQ 消费延迟（毫秒）
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	// 数据库慢查询计数
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of slow document-store queries",
		},
		[]string{"operation"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

// RecordFlowDuration 记录流程执行延迟
func RecordFlowDuration(flow, status string, duration time.Duration) {
	FlowDuration.WithLabelValues(flow, status).Observe(float64(duration.Milliseconds()))
}

// RecordInferenceLatency 记录模型调用延迟
func RecordInferenceLatency(model, status string, duration time.Duration) {
	InferenceLatency.WithLabelValues(model, status).Observe(float64(duration.Milliseconds()))
}

// RecordToolCall 记录工具调用
func RecordToolCall(tool, status string) {
	ToolCallCount.WithLabelValues(tool, status).Inc()
}

// RecordTodoCreated 记录 Todo 创建
func RecordTodoCreated(flow string, n int) {
	TodoCreatedCount.WithLabelValues(flow).Add(float64(n))
}

// RecordWebhookEvent 记录 webhook 收件
func RecordWebhookEvent(status string) {
	WebhookEventCount.WithLabelValues(status).Inc()
}

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// IncrementSlowQuery 记录慢查询
func IncrementSlowQuery(operation string) {
	SlowQueryCount.WithLabelValues(operation).Inc()
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
