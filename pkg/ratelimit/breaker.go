package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// BreakerConfig tunes the circuit breaker. Zero fields fall back to the
// package defaults.
type BreakerConfig struct {
	// ErrorThreshold is the failure ratio that trips the breaker once
	// MinRequests calls were observed.
	ErrorThreshold float64

	// MinRequests is the smallest sample size the threshold applies to.
	MinRequests int

	// CoolDown is how long an open breaker rejects calls before probing.
	CoolDown time.Duration

	// HalfOpenMax caps in-flight probes while half-open.
	HalfOpenMax int

	// IsFailure decides which errors count against the threshold. Defaults
	// to counting every error. Errors it rejects count as successes: the
	// remote answered, just not usefully.
	IsFailure func(error) bool
}

const (
	defaultErrorThreshold = 0.5
	defaultMinRequests    = 10
	defaultCoolDown       = 30 * time.Second
	defaultHalfOpenMax    = 3
)

// BreakerState is the circuit breaker's externally visible state.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

var (
	// ErrBreakerOpen is returned without dispatching while the breaker
	// cools down. It is not transient: retrying into an open breaker is
	// pointless inside one invocation.
	ErrBreakerOpen = errors.New("circuit breaker is open")

	errTooManyProbes = errors.New("too many probes while half-open")
)

// Breaker guards a Func against a persistently failing provider. It trips
// open once the observed error rate crosses the threshold, rejects calls for
// a cool-down period, then probes with a bounded number of half-open calls.
type Breaker[A, R any] struct {
	call Func[A, R]
	cfg  BreakerConfig

	mu          sync.Mutex
	state       BreakerState
	failures    int
	successes   int
	requests    int
	lastFailure time.Time
}

// NewBreaker wraps call with circuit-breaking. Compose with a Scheduler by
// wrapping the provider call before handing it to ratelimit.New.
func NewBreaker[A, R any](call Func[A, R], cfg BreakerConfig) *Breaker[A, R] {
	if cfg.ErrorThreshold <= 0 {
		cfg.ErrorThreshold = defaultErrorThreshold
	}
	if cfg.MinRequests <= 0 {
		cfg.MinRequests = defaultMinRequests
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = defaultCoolDown
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = defaultHalfOpenMax
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}

	return &Breaker[A, R]{call: call, cfg: cfg}
}

// Call dispatches through the breaker.
func (b *Breaker[A, R]) Call(ctx context.Context, args A) (R, error) {
	var zero R

	b.mu.Lock()
	if b.state == BreakerOpen {
		if time.Since(b.lastFailure) < b.cfg.CoolDown {
			b.mu.Unlock()
			return zero, ErrBreakerOpen
		}

		b.state = BreakerHalfOpen
		b.resetCountersLocked()
	}

	if b.state == BreakerHalfOpen && b.requests >= b.cfg.HalfOpenMax {
		b.mu.Unlock()
		return zero, errTooManyProbes
	}
	b.mu.Unlock()

	value, err := b.call(ctx, args)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests++

	if err != nil && b.cfg.IsFailure(err) {
		b.failures++

		if b.state == BreakerHalfOpen {
			b.tripLocked()
		} else {
			b.evaluateLocked()
		}

		return zero, err
	}

	if err != nil {
		b.successes++
		return zero, err
	}

	b.successes++

	if b.state == BreakerHalfOpen && b.successes >= b.cfg.HalfOpenMax {
		b.state = BreakerClosed
		b.resetCountersLocked()
	}

	return value, nil
}

// State reports the current breaker state.
func (b *Breaker[A, R]) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker[A, R]) evaluateLocked() {
	if b.requests < b.cfg.MinRequests {
		return
	}

	if float64(b.failures)/float64(b.requests) >= b.cfg.ErrorThreshold {
		b.tripLocked()
	}
}

func (b *Breaker[A, R]) tripLocked() {
	b.state = BreakerOpen
	b.lastFailure = time.Now()
	b.resetCountersLocked()
}

func (b *Breaker[A, R]) resetCountersLocked() {
	b.failures = 0
	b.successes = 0
	b.requests = 0
}
