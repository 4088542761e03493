package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarker struct {
	calls []time.Time
	n     int64
	err   error
}

func (f *fakeMarker) MarkOverdue(now time.Time) (int64, error) {
	f.calls = append(f.calls, now)
	return f.n, f.err
}

func TestSweepOverdue(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	marker := &fakeMarker{n: 2}
	s := New(marker)
	s.now = func() time.Time { return fixed }

	n, err := s.SweepOverdue()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.Len(t, marker.calls, 1)
	assert.Equal(t, fixed, marker.calls[0])
}

func TestSweepOverdueError(t *testing.T) {
	s := New(&fakeMarker{err: errors.New("db down")})

	n, err := s.SweepOverdue()
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestScheduleOverdueSweep(t *testing.T) {
	s := New(&fakeMarker{})

	assert.NoError(t, s.ScheduleOverdueSweep("@hourly"))
	assert.NoError(t, s.ScheduleOverdueSweep("*/5 * * * *"))
	assert.NoError(t, s.ScheduleOverdueSweep(""))
	assert.Error(t, s.ScheduleOverdueSweep("not a schedule"))
	assert.Len(t, s.cron.Entries(), 2)
}

func TestStartStop(t *testing.T) {
	s := New(&fakeMarker{})
	require.NoError(t, s.ScheduleOverdueSweep("@every 1h"))

	s.Start()
	ctx := s.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
