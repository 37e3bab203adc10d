package syncing

import (
	"context"
	"errors"
	"math"
	"net"
	"syscall"
	"time"

	"notesync/internal/core/domain"
)

// RetryConfig defines retry behavior for save operations.
type RetryConfig struct {
	MaxAttempts int // total attempts, including the first
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	MaxDelay:    60 * time.Second,
}

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFatal
)

// ClassifyError decides whether a failed attempt is worth retrying.
// Transport-level failures and 5xx responses are transient; everything
// else is surfaced to the caller unmodified.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionRetry // Should not happen
	}

	var statusErr *domain.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Code >= 500 && statusErr.Code < 600 {
			return ActionRetry
		}
		// 4xx and anything else the remote signals: retrying cannot help.
		return ActionFatal
	}

	var malformed *domain.MalformedResponseError
	if errors.As(err, &malformed) {
		// Transport succeeded but the contract was violated.
		return ActionFatal
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ActionRetry
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ActionRetry
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ActionRetry
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ActionRetry
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return ActionRetry
	}

	return ActionFatal
}

// Backoff computes the wait before retry attempt+1, exponential with a
// cap: BaseDelay * 2^attempt, attempt starting at 0 for the first retry.
func Backoff(attempt int, cfg RetryConfig) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}
