package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestWindow(window time.Duration, max int) (*SlidingWindow, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewSlidingWindow(window, max)
	s.now = clock.now
	return s, clock
}

func TestSlidingWindow_AllowsUpToMax(t *testing.T) {
	s, clock := newTestWindow(time.Minute, 3)
	ctx := context.Background()

	for i := 2; i >= 0; i-- {
		res, err := s.Check(ctx, "bot")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, i, res.Remaining)
		assert.Equal(t, clock.t.Add(time.Minute), res.ResetAt)
	}

	res, err := s.Check(ctx, "bot")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	// other keys keep their own quota
	res, _ = s.Check(ctx, "other")
	assert.True(t, res.Allowed)
}

func TestSlidingWindow_ResetsAfterWindow(t *testing.T) {
	s, clock := newTestWindow(time.Minute, 1)
	ctx := context.Background()

	res, _ := s.Check(ctx, "k")
	assert.True(t, res.Allowed)
	res, _ = s.Check(ctx, "k")
	assert.False(t, res.Allowed)

	clock.advance(time.Minute + time.Millisecond)
	res, _ = s.Check(ctx, "k")
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestSlidingWindow_Defaults(t *testing.T) {
	s := NewSlidingWindow(0, 0)
	assert.Equal(t, DefaultWindow, s.window)
	assert.Equal(t, DefaultMaxRequests, s.max)

	res, err := s.Check(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxRequests-1, res.Remaining)
}

func TestSlidingWindow_Cleanup(t *testing.T) {
	s, clock := newTestWindow(time.Minute, 10)
	ctx := context.Background()

	_, _ = s.Check(ctx, "old")
	clock.advance(90 * time.Second)
	_, _ = s.Check(ctx, "fresh")

	assert.Equal(t, 0, s.Cleanup())

	clock.advance(45 * time.Second)
	assert.Equal(t, 1, s.Cleanup())
	assert.Equal(t, 1, s.Len())
}

func TestScheduleCleanup(t *testing.T) {
	c := cron.New()
	id, err := ScheduleCleanup(c, NewSlidingWindow(0, 0), zap.NewNop())
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Len(t, c.Entries(), 1)
}

func TestNewRedisWindow_InvalidURL(t *testing.T) {
	_, err := NewRedisWindow("not-a-url", time.Minute, 10)
	assert.Error(t, err)
}
