package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorKind says whether retrying a failed request can help.
type ErrorKind int

const (
	// KindUnavailable covers outages, 5xx replies and transport failures.
	KindUnavailable ErrorKind = iota
	KindRateLimited
	// KindRejected is a 4xx other than 429: bad key, bad request.
	KindRejected
	// KindInvalidResponse means the reply did not match the schema.
	KindInvalidResponse
	// KindTruncated means the reply hit the token limit.
	KindTruncated
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate limited"
	case KindRejected:
		return "request rejected"
	case KindInvalidResponse:
		return "invalid response"
	case KindTruncated:
		return "response truncated"
	default:
		return "provider unavailable"
	}
}

// Error is returned by every provider in this package.
type Error struct {
	Kind ErrorKind

	// RetryAfter is the provider's requested back-off, if it sent one.
	RetryAfter time.Duration

	// Content is the offending reply for invalid and truncated responses.
	Content json.RawMessage

	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "llm: " + e.Kind.String()
	}
	return fmt.Sprintf("llm: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// fromStatus classifies an SDK error by the HTTP status it carried.
func fromStatus(status int, retryAfter string, err error) *Error {
	e := &Error{Kind: KindUnavailable, Err: err}
	switch {
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.RetryAfter = parseRetryAfter(retryAfter)
	case status >= 400 && status < 500:
		e.Kind = KindRejected
	}
	return e
}

// parseRetryAfter reads the delay-seconds form of Retry-After.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
