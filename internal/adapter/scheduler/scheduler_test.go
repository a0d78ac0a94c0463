package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := New(context.Background(), testLogger(&bytes.Buffer{}))
	_, err := s.AddJob("not a cron spec", "bad", func(ctx context.Context) error { return nil })
	require.Error(t, err)
}

func TestJobRunsAndStops(t *testing.T) {
	var runs atomic.Int32
	s := New(context.Background(), testLogger(&bytes.Buffer{}))
	_, err := s.AddJob("@every 10ms", "tick", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	settled := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, runs.Load())
}

func TestJobErrorLoggedNotFatal(t *testing.T) {
	var buf bytes.Buffer
	var runs atomic.Int32
	s := New(context.Background(), testLogger(&buf))
	_, err := s.AddJob("@every 10ms", "flaky", func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("prune exploded")
	})
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Contains(t, buf.String(), "job failed")
	assert.Contains(t, buf.String(), "prune exploded")
}

func TestJobPanicRecovered(t *testing.T) {
	var buf bytes.Buffer
	var runs atomic.Int32
	s := New(context.Background(), testLogger(&buf))
	_, err := s.AddJob("@every 10ms", "bomb", func(ctx context.Context) error {
		runs.Add(1)
		panic("boom")
	})
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Contains(t, buf.String(), "job panicked")
}

func TestStopIdempotent(t *testing.T) {
	s := New(context.Background(), testLogger(&bytes.Buffer{}))
	s.Start()
	s.Stop()
	s.Stop()
}
