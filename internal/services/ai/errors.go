package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
)

var (
	// ErrRateLimited indicates the API rate limit was exceeded
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded indicates the API quota was exceeded
	ErrQuotaExceeded = errors.New("quota exceeded")
)

const (
	defaultRateLimitWait = 60 * time.Second
	defaultQuotaWait     = time.Hour
)

// APIError is a classified error from the model provider.
type APIError struct {
	Message     string
	Type        string
	Code        string
	StatusCode  int
	RetryAfter  *time.Duration
	IsPermanent bool // quota exhaustion; rate limits are transient
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// Unwrap lets callers match ErrRateLimited and ErrQuotaExceeded with errors.Is.
func (e *APIError) Unwrap() error {
	if e.StatusCode != http.StatusTooManyRequests {
		return nil
	}
	if e.IsPermanent {
		return ErrQuotaExceeded
	}
	return ErrRateLimited
}

// ExtractAPIError converts an openai SDK error into an APIError. It returns nil for
// errors that are not 429 responses.
func ExtractAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var oaErr *openai.Error
	if !errors.As(err, &oaErr) || oaErr.StatusCode != http.StatusTooManyRequests {
		return nil
	}

	out := &APIError{
		Message:     oaErr.Message,
		Type:        oaErr.Type,
		Code:        oaErr.Code,
		StatusCode:  oaErr.StatusCode,
		IsPermanent: oaErr.Code == "insufficient_quota",
	}
	if out.Type == "" {
		out.Type = "rate_limit_error"
	}

	wait := defaultRateLimitWait
	if out.IsPermanent {
		wait = defaultQuotaWait
	} else if oaErr.Response != nil {
		if secs, err := strconv.Atoi(oaErr.Response.Header.Get("Retry-After")); err == nil && secs > 0 {
			wait = time.Duration(secs) * time.Second
		}
	}
	out.RetryAfter = &wait
	return out
}

// IsRateLimitError reports whether err is a transient rate limit.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if apiErr := ExtractAPIError(err); apiErr != nil {
		return !apiErr.IsPermanent
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests")
}

// IsQuotaError reports whether err is an exhausted quota.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	if apiErr := ExtractAPIError(err); apiErr != nil {
		return apiErr.IsPermanent
	}
	return strings.Contains(err.Error(), "insufficient_quota")
}

// GetRetryDelay returns the backoff before retry number attempt (0-based).
// Quota errors start at one hour and cap at a day; rate limits start at a minute,
// cap at fifteen and honour Retry-After; anything else starts at five seconds.
func GetRetryDelay(err error, attempt int) time.Duration {
	shift := uint(min(max(attempt, 0), 10))

	switch {
	case IsQuotaError(err):
		return min(defaultQuotaWait<<shift, 24*time.Hour)
	case IsRateLimitError(err):
		delay := min(defaultRateLimitWait<<shift, 15*time.Minute)
		if apiErr := ExtractAPIError(err); apiErr != nil && apiErr.RetryAfter != nil && *apiErr.RetryAfter > delay {
			delay = *apiErr.RetryAfter
		}
		return delay
	default:
		return min(5*time.Second<<shift, 5*time.Minute)
	}
}
