// Package backoff wraps outgoing provider HTTP calls with rate-limit
// recognition and exponential sleep-and-retry, generalized from the
// teacher's internal/orchestrator retry loop (RetryDelay doubling on each
// attempt) to the wider set of provider-specific rate-limit signals the
// translation core's providers surface.
package backoff

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/valpere/polyglotter/internal/errs"
)

// Config controls the retry loop. BaseDelay and MaxAttempts default to
// sane values when zero.
type Config struct {
	BaseDelay   time.Duration
	MaxAttempts int
}

func (c Config) withDefaults() Config {
	if c.BaseDelay <= 0 {
		c.BaseDelay = 500 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	return c
}

// RateLimitError carries the server's Retry-After hint, if any, so Do can
// compute the correct sleep duration.
type RateLimitError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *RateLimitError) Error() string { return e.Cause.Error() }
func (e *RateLimitError) Unwrap() error { return e.Cause }

// Do calls fn, retrying while it returns a *RateLimitError up to
// cfg.MaxAttempts times. Each retry sleeps for
// max(retryAfter, baseDelay*2^attempt) plus jitter. Non-rate-limit errors
// are returned immediately without retrying.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var rle *RateLimitError
		if !errors.As(err, &rle) {
			return err
		}
		lastErr = err

		delay := cfg.BaseDelay * time.Duration(math.Pow(2, float64(attempt)))
		if rle.RetryAfter > delay {
			delay = rle.RetryAfter
		}
		delay += time.Duration(rand.Int63n(int64(cfg.BaseDelay) + 1))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return errs.New(errs.ProviderHttp, lastErr)
}

// ClassifyHTTP turns a non-2xx HTTP response into a *RateLimitError when it
// looks like a rate-limit response (429 status, or a provider-specific
// error body key), else returns a plain ProviderHttp error.
func ClassifyHTTP(resp *http.Response, bodyLooksRateLimited bool) error {
	if resp.StatusCode == http.StatusTooManyRequests || bodyLooksRateLimited {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return &RateLimitError{RetryAfter: retryAfter, Cause: errs.Newf(errs.ProviderHttp, "rate limited (status %d)", resp.StatusCode)}
	}
	return errs.Newf(errs.ProviderHttp, "upstream returned status %d", resp.StatusCode)
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := time.Parse(http.TimeFormat, v); err == nil {
		return time.Until(t)
	}
	return 0
}
