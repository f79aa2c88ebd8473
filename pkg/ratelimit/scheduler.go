// Package ratelimit paces outbound geocoding calls. A Scheduler wraps a
// single call, serializes concurrent invocations, enforces a minimum spacing
// between dispatches and retries transient failures. The wrapping is explicit
// composition: callers hold the Scheduler and go through Invoke or Call.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/Proton-105/geogate/pkg/geocode"
)

// Func is the shape of the wrapped call. A and R are opaque to the Scheduler.
type Func[A, R any] func(ctx context.Context, args A) (R, error)

// Config controls pacing, retry and error-swallowing behavior. The zero
// value disables all of it: no spacing, no retries, errors propagate.
type Config[R any] struct {
	// MinDelay is the minimum spacing between the starts of successive
	// dispatches. Spacing is measured start-to-start, so a slow remote
	// response does not raise the effective call rate.
	MinDelay time.Duration

	// MaxRetries bounds extra attempts after a transient failure. Total
	// attempts per invocation never exceed MaxRetries+1.
	MaxRetries int

	// ErrorWait is slept before each retry attempt. Pacing is not
	// re-applied between retries of the same invocation.
	ErrorWait time.Duration

	// SwallowErrors converts terminal failures into a SwallowValue result
	// instead of surfacing the error. Context cancellation is never
	// swallowed.
	SwallowErrors bool

	// SwallowValue is returned in place of a result for swallowed errors.
	SwallowValue R

	// Transient decides retry eligibility. Defaults to geocode.Transient.
	// Unclassified errors must report false.
	Transient func(error) bool

	// OnRetry, when set, is called before each retry wait.
	OnRetry func(err error, attempt int)
}

// Scheduler wraps a Func with pacing, serialization and retry. All state is
// private to one instance; independent Schedulers never coordinate, even when
// they target the same remote service.
type Scheduler[A, R any] struct {
	call Func[A, R]
	cfg  Config[R]
	log  *slog.Logger

	// gate admits one pacing-and-dispatch sequence at a time. Goroutines
	// parked on a contended channel are woken in FIFO order, so waiting
	// callers cannot starve under bounded contention.
	gate chan struct{}

	// lastDispatch is only touched while holding the gate.
	lastDispatch time.Time

	// now and sleep are swapped out by tests for deterministic timing.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a Scheduler around call. A nil Transient classifier falls back
// to geocode.Transient.
func New[A, R any](call Func[A, R], cfg Config[R], log *slog.Logger) *Scheduler[A, R] {
	if log == nil {
		log = slog.Default()
	}

	if cfg.Transient == nil {
		cfg.Transient = geocode.Transient
	}

	return &Scheduler[A, R]{
		call:  call,
		cfg:   cfg,
		log:   log,
		gate:  make(chan struct{}, 1),
		now:   time.Now,
		sleep: sleepContext,
	}
}

// Invoke runs one paced invocation of the wrapped call and reports its full
// outcome. Concurrent invocations on the same Scheduler are strictly
// serialized; the wrapped call is never in flight twice.
func (s *Scheduler[A, R]) Invoke(ctx context.Context, args A) Outcome[R] {
	if err := s.acquire(ctx); err != nil {
		return Outcome[R]{Err: err}
	}
	defer s.release()

	if wait := s.pacingWait(); wait > 0 {
		if err := s.sleep(ctx, wait); err != nil {
			return Outcome[R]{Err: err}
		}
	}

	attempts := 0
	for {
		attempts++
		dispatched := s.now()

		value, err := s.call(ctx, args)
		if err == nil {
			s.lastDispatch = dispatched
			return Outcome[R]{Value: value, Attempts: attempts}
		}

		if ctx.Err() != nil {
			// The caller is gone; surface the failure untouched.
			s.lastDispatch = dispatched
			return Outcome[R]{Err: err, Attempts: attempts}
		}

		if s.cfg.Transient(err) && attempts <= s.cfg.MaxRetries {
			if s.cfg.OnRetry != nil {
				s.cfg.OnRetry(err, attempts)
			}

			s.log.Warn("geocoding call failed, retrying",
				slog.Int("attempt", attempts),
				slog.Duration("error_wait", s.cfg.ErrorWait),
				slog.Any("error", err))

			if s.cfg.ErrorWait > 0 {
				if serr := s.sleep(ctx, s.cfg.ErrorWait); serr != nil {
					s.lastDispatch = dispatched
					return Outcome[R]{Err: serr, Attempts: attempts}
				}
			}

			continue
		}

		s.lastDispatch = dispatched

		if s.cfg.SwallowErrors {
			s.log.Warn("geocoding call failed, swallowing error",
				slog.Int("attempts", attempts),
				slog.Any("error", err))

			return Outcome[R]{Value: s.cfg.SwallowValue, Err: err, Swallowed: true, Attempts: attempts}
		}

		return Outcome[R]{Err: err, Attempts: attempts}
	}
}

// Call runs one paced invocation with the same signature as the wrapped
// call, so a Scheduler can stand in wherever a Func is expected. Swallowed
// failures come back as the configured sentinel value with a nil error.
func (s *Scheduler[A, R]) Call(ctx context.Context, args A) (R, error) {
	o := s.Invoke(ctx, args)
	if o.Failed() {
		return o.Value, o.Err
	}

	return o.Value, nil
}

// pacingWait computes the remaining spacing before the next dispatch may
// start. The very first invocation never waits.
func (s *Scheduler[A, R]) pacingWait() time.Duration {
	if s.cfg.MinDelay <= 0 || s.lastDispatch.IsZero() {
		return 0
	}

	return s.cfg.MinDelay - s.now().Sub(s.lastDispatch)
}

func (s *Scheduler[A, R]) acquire(ctx context.Context) error {
	select {
	case s.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler[A, R]) release() {
	<-s.gate
}

// sleepContext blocks for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
