package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radpro/doselog/utils"
)

type steppedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppedClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestInstance(t *testing.T, yml string) (*Instance, *steppedClock) {
	t.Helper()
	cfg, err := utils.ParseConfig([]byte(yml))
	require.Nil(t, err)
	clock := &steppedClock{now: time.Unix(1700000000, 0)}
	inst, err := NewInstanceSetup(cfg, clock.Now)
	require.Nil(t, err)
	t.Cleanup(func() { _ = inst.Close() })
	return inst, clock
}

func TestInstanceOpensWriteSession(t *testing.T) {
	t.Parallel()
	inst, _ := newTestInstance(t, "flash_size: 8K\npage_size: 1K\nlogging_interval: 1Min")
	assert.True(t, inst.Engine.Writing())
	last, ok := inst.Engine.LastSample()
	assert.True(t, ok)
	assert.Equal(t, uint32(1700000000), last.Time)

	inst, _ = newTestInstance(t, "flash_size: 8K\npage_size: 1K\nlogging_interval: Off")
	assert.False(t, inst.Engine.Writing())
}

func TestInstanceReopensImage(t *testing.T) {
	t.Parallel()
	yml := "flash_image: " + t.TempDir() + "/flash.img\nflash_size: 4K\npage_size: 1K\nword_size: 4"
	inst, _ := newTestInstance(t, yml)
	require.Nil(t, inst.Engine.CloseWrite())
	require.Nil(t, inst.Close())

	inst, _ = newTestInstance(t, yml)
	st, err := inst.Engine.Stats()
	require.Nil(t, err)
	assert.Equal(t, 0, st.HeadPage)
	assert.Greater(t, st.HeadIndex, 12, "both sessions share the first page")
	last, ok := inst.Engine.LastSample()
	assert.True(t, ok)
	assert.Equal(t, uint32(1700000000), last.Time)
}

func TestLoopRunsRequestsAndTicks(t *testing.T) {
	t.Parallel()
	// --- given ---
	inst, clock := newTestInstance(t, "flash_size: 8K\npage_size: 1K\nlogging_interval: 1Min")
	loop := NewLoop(inst.Engine, inst.Device, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	// --- when ---
	clock.Add(time.Minute)
	require.Eventually(t, func() bool {
		var last uint32
		require.Nil(t, loop.Do(ctx, func(h Handle) {
			s, _ := h.Engine.LastSample()
			last = s.Time
		}))
		return last == 1700000060
	}, time.Second, 5*time.Millisecond)

	used, err := loop.FlashUsage(ctx)
	require.Nil(t, err)

	cancel()

	// --- then ---
	assert.Nil(t, <-done)
	assert.Greater(t, used, 0)
	assert.False(t, inst.Engine.Writing())
	assert.ErrorIs(t, loop.Do(context.Background(), func(Handle) {}), ErrLoopStopped)
}
