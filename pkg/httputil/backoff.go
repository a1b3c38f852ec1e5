package httputil

import (
	"context"
	"net/http"
	"time"
)

// Backoff describes how often and how patiently a request is retried.
// The zero value never retries.
type Backoff struct {
	Retries int
	Base    time.Duration
	Max     time.Duration
}

// defaultBackoff doubles from one second up to ten
var defaultBackoff = Backoff{Retries: 3, Base: time.Second, Max: 10 * time.Second}

// Delay returns the pause before retry n (1-based)
func (b Backoff) Delay(n int) time.Duration {
	d := b.Base
	for i := 1; i < n; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	return d
}

// sleep waits d and reports false when ctx ends first
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// IsRetryableError reports whether a status is worth retrying
func IsRetryableError(statusCode int) bool {
	// 5xx 서버 에러와 429 Too Many Requests만 재시도
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}
