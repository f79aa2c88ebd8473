package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsAllHooks(t *testing.T) {
	s := NewShutdown(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var ran atomic.Int32
	for range 3 {
		s.Register("hook", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	require.NoError(t, s.Execute(context.Background()))
	assert.Equal(t, int32(3), ran.Load())
}

func TestShutdownCollectsHookErrors(t *testing.T) {
	s := NewShutdown(nil)
	s.Register("ok", func(ctx context.Context) error { return nil })
	s.Register("broken", func(ctx context.Context) error { return errors.New("boom") })

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: boom")
}

func TestShutdownIgnoresNilHooks(t *testing.T) {
	s := NewShutdown(nil)
	s.Register("nil", nil)

	assert.NoError(t, s.Execute(context.Background()))
}
