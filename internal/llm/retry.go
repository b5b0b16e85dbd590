package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/adaptiq/internal/logger"
)

type retrying struct {
	next    Provider
	cfg     RetryConfig
	timeout time.Duration
	log     *logger.Logger
}

// WithRetry retries outages and rate limits up to cfg.MaxAttempts, an
// invalid reply once, and truncation or cancellation never. timeout, when
// positive, bounds the whole call including waits.
func WithRetry(p Provider, cfg RetryConfig, timeout time.Duration, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &retrying{next: p, cfg: cfg, timeout: timeout, log: log}
}

func (r *retrying) Generate(ctx context.Context, req Request) (*Response, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	attempts := max(r.cfg.MaxAttempts, 1)
	invalidSeen := false
	for n := 0; ; n++ {
		resp, err := r.next.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if n+1 >= attempts || !retryable(err, &invalidSeen) {
			return nil, err
		}

		wait := r.cfg.delay(n)
		var e *Error
		if errors.As(err, &e) && e.RetryAfter > 0 {
			wait = e.RetryAfter
		}
		r.log.Debug("retrying llm request", "attempt", n+2, "wait", wait, "error", err)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (r *retrying) ModelID() string { return r.next.ModelID() }

func retryable(err error, invalidSeen *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return true
	}
	switch e.Kind {
	case KindTruncated, KindRejected:
		return false
	case KindInvalidResponse:
		if *invalidSeen {
			return false
		}
		*invalidSeen = true
	}
	return true
}

// delay is the wait before retry n (0-based): exponential, capped at
// MaxWait, with ±20% jitter.
func (c RetryConfig) delay(n int) time.Duration {
	mult := math.Max(c.Multiplier, 1)
	d := float64(c.InitialWait) * math.Pow(mult, float64(n))
	if c.MaxWait > 0 {
		d = math.Min(d, float64(c.MaxWait))
	}
	d += d * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(math.Max(d, 0))
}
