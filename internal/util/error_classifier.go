package util

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"

	"firmflow/internal/flow"
	"firmflow/internal/llm"
	"firmflow/internal/store"
	"firmflow/pkg/circuitbreaker"
)

// IsRetryableError determines if an error is retryable
// Returns: (isRetryable, errorType)
func IsRetryableError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	errStr := err.Error()

	// JSON decode errors - 不可重试（数据格式错误）
	if _, ok := err.(*json.SyntaxError); ok {
		return false, "json_decode_error"
	}
	if _, ok := err.(*json.UnmarshalTypeError); ok {
		return false, "json_decode_error"
	}
	if strings.Contains(errStr, "json:") {
		return false, "json_decode_error"
	}

	// Store errors
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, flow.ErrMissingReference) {
		// 引用的记录不存在 - 不可重试
		return false, "record_not_found"
	}
	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "UNIQUE constraint") {
		// 唯一约束冲突 - 不可重试（幂等性）
		return false, "duplicate_key"
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "timeout") {
		// DB 连接问题 - 可重试
		return true, "db_connection_error"
	}

	// Inference errors. Timeouts and transport failures retry; a plan that
	// failed schema validation retries too since the model is stochastic.
	if errors.Is(err, llm.ErrTimeout) {
		return true, "inference_timeout"
	}
	if errors.Is(err, llm.ErrInvalidOutput) || errors.Is(err, llm.ErrNoOutput) {
		return true, "invalid_model_output"
	}
	if errors.Is(err, llm.ErrToolBudget) {
		// 工具预算用尽，重试大概率还是超 - 不重试
		return false, "tool_budget_exhausted"
	}
	if errors.Is(err, llm.ErrToolFailed) {
		return true, "tool_failed"
	}
	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		// 熔断打开，稍后重试
		return true, "circuit_open"
	}

	// Network errors - 可重试
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}

	// URL errors - 可重试（配置问题）
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}

	// Context timeout - 可重试
	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return false, "context_canceled"
	}

	// 默认：未知错误，保守处理 - 不重试
	return false, "unknown_error"
}

// ShouldRetry checks if an error should be retried based on retry count
func ShouldRetry(retryCount int64, maxRetries int64, isRetryable bool) bool {
	if !isRetryable {
		return false
	}
	return retryCount <= maxRetries
}
