package pacing

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/desertthunder/amzx/internal/shared"
)

// recordSleeps replaces the pacer's sleep with one that records requested durations.
func recordSleeps(p *Pacer) *[]time.Duration {
	var slept []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return &slept
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{in: "", want: StrategyFixed},
		{in: "fixed", want: StrategyFixed},
		{in: " Adaptive ", want: StrategyAdaptive},
		{in: "exponential", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrUnsupportedStrategy) {
					t.Errorf("expected ErrUnsupportedStrategy, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseStrategy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFixedPacer(t *testing.T) {
	t.Run("first call does not wait", func(t *testing.T) {
		p := New(StrategyFixed, 10*time.Second, nil)
		slept := recordSleeps(p)

		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if len(*slept) != 0 {
			t.Errorf("expected no sleep on first call, got %v", *slept)
		}
	})

	t.Run("subsequent calls wait the full interval", func(t *testing.T) {
		p := New(StrategyFixed, 10*time.Second, nil)
		slept := recordSleeps(p)

		for range 3 {
			if err := p.Wait(context.Background()); err != nil {
				t.Fatalf("Wait() error = %v", err)
			}
		}

		if len(*slept) != 2 {
			t.Fatalf("expected 2 sleeps, got %d", len(*slept))
		}
		for _, d := range *slept {
			if d != 10*time.Second {
				t.Errorf("expected 10s sleep, got %v", d)
			}
		}
	})

	t.Run("zero interval never sleeps", func(t *testing.T) {
		p := New(StrategyFixed, 0, nil)
		slept := recordSleeps(p)

		for range 3 {
			if err := p.Wait(context.Background()); err != nil {
				t.Fatalf("Wait() error = %v", err)
			}
		}
		if len(*slept) != 0 {
			t.Errorf("expected no sleeps, got %v", *slept)
		}
	})

	t.Run("ignores rate limit headers", func(t *testing.T) {
		p := New(StrategyFixed, 0, nil)
		slept := recordSleeps(p)

		h := http.Header{}
		h.Set("Retry-After", "30")
		p.Observe(http.StatusTooManyRequests, h)

		if err := p.Hold(context.Background()); err != nil {
			t.Fatalf("Hold() error = %v", err)
		}
		if len(*slept) != 0 {
			t.Errorf("fixed pacer should not hold, slept %v", *slept)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		p := New(StrategyFixed, time.Hour, nil)
		ctx, cancel := context.WithCancel(context.Background())

		if err := p.Wait(ctx); err != nil {
			t.Fatalf("first Wait() error = %v", err)
		}
		cancel()
		if err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestAdaptivePacer(t *testing.T) {
	t.Run("Retry-After seconds holds calls", func(t *testing.T) {
		p := New(StrategyAdaptive, 0, nil)
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		p.now = func() time.Time { return now }
		slept := recordSleeps(p)

		h := http.Header{}
		h.Set("Retry-After", "3")
		p.Observe(http.StatusTooManyRequests, h)

		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if len(*slept) != 1 || (*slept)[0] != 3*time.Second {
			t.Errorf("expected a single 3s hold, got %v", *slept)
		}
	})

	t.Run("429 without headers holds one interval", func(t *testing.T) {
		p := New(StrategyAdaptive, 2*time.Second, nil)
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		p.now = func() time.Time { return now }
		slept := recordSleeps(p)

		p.Observe(http.StatusTooManyRequests, http.Header{})
		if err := p.Hold(context.Background()); err != nil {
			t.Fatalf("Hold() error = %v", err)
		}
		if len(*slept) != 1 || (*slept)[0] != 2*time.Second {
			t.Errorf("expected a single 2s hold, got %v", *slept)
		}
	})

	t.Run("shorter hold does not shrink a longer one", func(t *testing.T) {
		p := New(StrategyAdaptive, 0, nil)
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		p.now = func() time.Time { return now }
		slept := recordSleeps(p)

		long := http.Header{}
		long.Set("Retry-After", "10")
		short := http.Header{}
		short.Set("Retry-After", "1")
		p.Observe(http.StatusTooManyRequests, long)
		p.Observe(http.StatusTooManyRequests, short)

		if err := p.Hold(context.Background()); err != nil {
			t.Fatalf("Hold() error = %v", err)
		}
		if len(*slept) != 1 || (*slept)[0] != 10*time.Second {
			t.Errorf("expected 10s hold, got %v", *slept)
		}
	})

	t.Run("successful responses do not hold", func(t *testing.T) {
		p := New(StrategyAdaptive, 0, nil)
		slept := recordSleeps(p)

		p.Observe(http.StatusOK, http.Header{})
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if len(*slept) != 0 {
			t.Errorf("expected no hold, got %v", *slept)
		}
	})

	t.Run("token bucket spaces calls", func(t *testing.T) {
		p := New(StrategyAdaptive, 20*time.Millisecond, nil)
		start := time.Now()

		for range 3 {
			if err := p.Wait(context.Background()); err != nil {
				t.Fatalf("Wait() error = %v", err)
			}
		}

		if elapsed := time.Since(start); elapsed < 35*time.Millisecond {
			t.Errorf("expected at least ~40ms across 3 calls, got %v", elapsed)
		}
	})
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		headers map[string]string
		want    time.Duration
		wantOK  bool
	}{
		{name: "no headers", headers: nil},
		{name: "seconds", headers: map[string]string{"Retry-After": "5"}, want: 5 * time.Second, wantOK: true},
		{
			name:    "http date",
			headers: map[string]string{"Retry-After": now.Add(30 * time.Second).Format(http.TimeFormat)},
			want:    30 * time.Second,
			wantOK:  true,
		},
		{
			name:    "exhausted ratelimit with reset",
			headers: map[string]string{"X-RateLimit-Remaining": "0", "X-RateLimit-Reset": "1704110460"},
			want:    time.Minute,
			wantOK:  true,
		},
		{
			name:    "remaining budget ignores reset",
			headers: map[string]string{"X-RateLimit-Remaining": "4", "X-RateLimit-Reset": "1704110460"},
		},
		{name: "garbage", headers: map[string]string{"Retry-After": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			got, ok := RetryAfter(h, now)
			if ok != tt.wantOK {
				t.Fatalf("RetryAfter() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("RetryAfter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("expected nil for zero duration, got %v", err)
	}
}
