package trello

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// APIError is returned for any non-2xx response other than 429.
type APIError struct {
	Status int
	Method string
	Path   string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("trello %s %s: status %d: %s", e.Method, e.Path, e.Status, strings.TrimSpace(e.Body))
}

// RateLimitError is returned on HTTP 429.
type RateLimitError struct {
	RetryAfter time.Duration
	Body       string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("trello rate limit exceeded, retry after %s", e.RetryAfter)
	}
	return "trello rate limit exceeded"
}

// RateLimited marks the error as retryable by the backoff executor.
func (e *RateLimitError) RateLimited() bool {
	return true
}

// RetryAfterSeconds rounds the server hint up to whole seconds, minimum 1.
func (e *RateLimitError) RetryAfterSeconds() int {
	seconds := int((e.RetryAfter + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := time.Parse(time.RFC1123, value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
