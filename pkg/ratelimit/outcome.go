package ratelimit

// Outcome is the tri-state result of one scheduled invocation: success,
// swallowed error, or propagated error. Exactly one shape is produced per
// invocation.
type Outcome[R any] struct {
	// Value holds the call result, or the configured sentinel when the
	// error was swallowed.
	Value R

	// Err holds the original error for swallowed and propagated failures.
	Err error

	// Swallowed marks an error that was absorbed into the sentinel value.
	Swallowed bool

	// Attempts counts dispatches made for this invocation, retries
	// included.
	Attempts int
}

// Success reports a clean result with no error at all.
func (o Outcome[R]) Success() bool {
	return o.Err == nil
}

// Failed reports an error the caller must handle, i.e. one that was not
// swallowed.
func (o Outcome[R]) Failed() bool {
	return o.Err != nil && !o.Swallowed
}
