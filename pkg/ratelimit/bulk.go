package ratelimit

import (
	"context"
	"iter"
)

// Bulk drives an ordered sequence of inputs through a Scheduler, one outcome
// per input, in input order.
type Bulk[A, R any] struct {
	sched *Scheduler[A, R]

	// Progress, when set, is called once per completed input before its
	// outcome is yielded.
	Progress func(index int, o Outcome[R])
}

// NewBulk wraps a Scheduler for dataset-style workloads.
func NewBulk[A, R any](sched *Scheduler[A, R]) *Bulk[A, R] {
	return &Bulk[A, R]{sched: sched}
}

// Run returns a lazy, single-pass sequence of outcomes. Each step dispatches
// a live call, so iterating twice repeats the work. The sequence stops after
// the first failed (unswallowed) outcome: that item's outcome is yielded and
// the remaining inputs are never dispatched. With swallowing enabled on the
// Scheduler every input is covered.
func (b *Bulk[A, R]) Run(ctx context.Context, inputs []A) iter.Seq2[int, Outcome[R]] {
	return func(yield func(int, Outcome[R]) bool) {
		for i, args := range inputs {
			o := b.sched.Invoke(ctx, args)

			if b.Progress != nil {
				b.Progress(i, o)
			}

			if !yield(i, o) {
				return
			}

			if o.Failed() {
				return
			}
		}
	}
}

// Collect runs the whole sequence eagerly. The returned slice covers inputs
// up to and including the first failed outcome, whose error is also returned.
func (b *Bulk[A, R]) Collect(ctx context.Context, inputs []A) ([]Outcome[R], error) {
	outcomes := make([]Outcome[R], 0, len(inputs))

	var firstErr error
	for _, o := range b.Run(ctx, inputs) {
		outcomes = append(outcomes, o)
		if o.Failed() {
			firstErr = o.Err
		}
	}

	return outcomes, firstErr
}
