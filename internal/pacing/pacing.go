// Package pacing spaces out calls to rate-limited catalog APIs.
//
// [StrategyFixed] sleeps exactly the configured interval between consecutive calls and is the default.
// [StrategyAdaptive] uses a [rate.Limiter] token bucket at the same interval and additionally holds
// further calls when a response carries Retry-After or an exhausted X-RateLimit-Remaining with X-RateLimit-Reset.
package pacing

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/amzx/internal/shared"
	"golang.org/x/time/rate"
)

// Strategy selects how a [Pacer] spaces calls.
type Strategy string

const (
	StrategyFixed    Strategy = "fixed"
	StrategyAdaptive Strategy = "adaptive"
)

// ParseStrategy maps a config value to a [Strategy]. Empty selects [StrategyFixed].
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyFixed:
		return StrategyFixed, nil
	case StrategyAdaptive:
		return StrategyAdaptive, nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrUnsupportedStrategy, s)
	}
}

// Pacer gates outbound calls. The zero value is not usable; construct with [New].
//
// A Pacer is safe for concurrent use.
type Pacer struct {
	strategy Strategy
	interval time.Duration
	limiter  *rate.Limiter
	logger   *log.Logger

	mu        sync.Mutex
	started   bool
	notBefore time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Pacer. A non-positive interval disables spacing, though
// adaptive pacers still honour header-driven holds.
func New(strategy Strategy, interval time.Duration, logger *log.Logger) *Pacer {
	if interval < 0 {
		interval = 0
	}

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &Pacer{
		strategy: strategy,
		interval: interval,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
		now:      time.Now,
		sleep:    Sleep,
	}
}

// Strategy returns the configured strategy.
func (p *Pacer) Strategy() Strategy { return p.strategy }

// Interval returns the configured spacing.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Wait blocks until the next call may be issued. The first call never waits for spacing.
func (p *Pacer) Wait(ctx context.Context) error {
	switch p.strategy {
	case StrategyAdaptive:
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	default:
		p.mu.Lock()
		first := !p.started
		p.started = true
		p.mu.Unlock()

		if !first && p.interval > 0 {
			if p.logger != nil {
				p.logger.Debug("pacing before next request", "delay", p.interval)
			}
			if err := p.sleep(ctx, p.interval); err != nil {
				return err
			}
		}
	}

	return p.Hold(ctx)
}

// Hold blocks only while a header-driven backoff is in effect. Fixed pacers never hold.
func (p *Pacer) Hold(ctx context.Context) error {
	p.mu.Lock()
	until := p.notBefore
	p.mu.Unlock()

	if until.IsZero() {
		return nil
	}
	d := until.Sub(p.now())
	if d <= 0 {
		return nil
	}
	if p.logger != nil {
		p.logger.Warn("rate limited, holding requests", "delay", d)
	}
	return p.sleep(ctx, d)
}

// Observe inspects response headers. Adaptive pacers extend their hold window from
// Retry-After (seconds or HTTP date) or from an exhausted X-RateLimit-Remaining with X-RateLimit-Reset.
// A 429 without either header holds for one interval.
func (p *Pacer) Observe(status int, header http.Header) {
	if p.strategy != StrategyAdaptive {
		return
	}

	now := p.now()
	delay, ok := RetryAfter(header, now)
	if !ok && status == http.StatusTooManyRequests {
		delay, ok = p.interval, true
	}
	if !ok || delay <= 0 {
		return
	}

	until := now.Add(delay)
	p.mu.Lock()
	if until.After(p.notBefore) {
		p.notBefore = until
	}
	p.mu.Unlock()
}

// RetryAfter derives a backoff from rate limit headers relative to now.
func RetryAfter(header http.Header, now time.Time) (time.Duration, bool) {
	if header == nil {
		return 0, false
	}

	if v := strings.TrimSpace(header.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second, true
		}
		if at, err := http.ParseTime(v); err == nil {
			return at.Sub(now), true
		}
	}

	if strings.TrimSpace(header.Get("X-RateLimit-Remaining")) == "0" {
		if reset, err := strconv.ParseInt(strings.TrimSpace(header.Get("X-RateLimit-Reset")), 10, 64); err == nil {
			return time.Unix(reset, 0).Sub(now), true
		}
	}

	return 0, false
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
