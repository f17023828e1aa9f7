package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystonemortgage/backend/internal/service"
)

type fakeRefresher struct {
	calls    atomic.Int32
	err      error
	deadline atomic.Bool
	delay    time.Duration
}

func (f *fakeRefresher) Refresh(ctx context.Context) (*service.RefreshSummary, error) {
	f.calls.Add(1)
	_, hasDeadline := ctx.Deadline()
	f.deadline.Store(hasDeadline)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return &service.RefreshSummary{}, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_StartDisabled(t *testing.T) {
	s := New(Config{Schedule: "0 6 * * *", Enabled: false}, &fakeRefresher{}, quietLogger())

	require.NoError(t, s.Start())
	assert.Empty(t, s.cron.Entries())
	assert.True(t, s.GetNextRunTime().IsZero())
}

func TestScheduler_StartInvalidSchedule(t *testing.T) {
	s := New(Config{Schedule: "every morning", Enabled: true}, &fakeRefresher{}, quietLogger())
	assert.Error(t, s.Start())
}

func TestScheduler_Start(t *testing.T) {
	s := New(DefaultConfig(), &fakeRefresher{}, quietLogger())

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Len(t, s.cron.Entries(), 1)
	assert.Eventually(t, func() bool {
		next := s.GetNextRunTime()
		return !next.IsZero() && next.Hour() == 6 && next.Minute() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_RunRefreshJob(t *testing.T) {
	r := &fakeRefresher{delay: 20 * time.Millisecond}
	s := New(Config{Schedule: "0 6 * * *", Timeout: time.Minute}, r, quietLogger())

	s.runRefreshJob()

	assert.Equal(t, int32(1), r.calls.Load())
	assert.True(t, r.deadline.Load(), "refresh runs under a timeout")
}

func TestScheduler_RunRefreshJobFailure(t *testing.T) {
	r := &fakeRefresher{err: errors.New("no snapshots published")}
	s := New(Config{Schedule: "0 6 * * *"}, r, quietLogger())

	s.runRefreshJob()

	assert.Equal(t, int32(1), r.calls.Load())
	assert.True(t, r.deadline.Load(), "zero timeout falls back to the default")
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := New(DefaultConfig(), &fakeRefresher{}, quietLogger())

	select {
	case <-s.Stop().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stop blocked with no running job")
	}
}
