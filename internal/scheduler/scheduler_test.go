package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christophergentle/instaposter/internal/config"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in           string
		hour, minute int
		wantErr      bool
	}{
		{"09:00", 9, 0, false},
		{"9:05", 9, 5, false},
		{"23:59", 23, 59, false},
		{"00:00", 0, 0, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"noon", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, h)
			assert.Equal(t, tt.minute, m)
		})
	}
}

func TestDailySpec(t *testing.T) {
	assert.Equal(t, "0 9 * * *", DailySpec(9, 0))
	assert.Equal(t, "30 18 * * *", DailySpec(18, 30))
}

func TestNewRejectsBadConfig(t *testing.T) {
	log, _ := logrustest.NewNullLogger()
	noop := func(context.Context) {}

	_, err := New(config.ScheduleConfig{Time: "25:00"}, noop, log)
	assert.Error(t, err)

	_, err = New(config.ScheduleConfig{Time: "09:00", Timezone: "Mars/Olympus"}, noop, log)
	assert.Error(t, err)

	s, err := New(config.ScheduleConfig{Time: "09:00", Timezone: "Europe/Istanbul"}, noop, log)
	require.NoError(t, err)
	assert.Equal(t, "0 9 * * *", s.spec)
}

func TestRunNextRunMatchesScheduleTime(t *testing.T) {
	log, _ := logrustest.NewNullLogger()
	s, err := New(config.ScheduleConfig{Time: "07:15", Timezone: "UTC"}, func(context.Context) {}, log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return !s.NextRun().IsZero() }, 2*time.Second, 10*time.Millisecond)
	next := s.NextRun().In(time.UTC)
	assert.Equal(t, 7, next.Hour())
	assert.Equal(t, 15, next.Minute())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestPanickingJobDoesNotStopScheduler(t *testing.T) {
	log, _ := logrustest.NewNullLogger()
	var calls atomic.Int32

	job := func(context.Context) {
		if calls.Add(1) == 1 {
			panic("first run explodes")
		}
	}
	s := newWithSpec("@every 1s", time.UTC, true, job, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestJobContextSurvivesShutdown(t *testing.T) {
	log, _ := logrustest.NewNullLogger()
	started := make(chan struct{})
	release := make(chan struct{})
	var jobErr atomic.Value

	job := func(ctx context.Context) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			jobErr.Store(err)
		}
	}
	s := newWithSpec("@every 1h", time.UTC, true, job, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		<-started
		cancel()
		close(release)
	}()
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Nil(t, jobErr.Load())
}
