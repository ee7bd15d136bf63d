package metrics_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/radpro/doselog/metrics"
)

type mockMetricsSetter struct {
	mu    sync.Mutex
	value float64
	calls int
}

func (m *mockMetricsSetter) Set(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = v
	m.calls++
}

func (m *mockMetricsSetter) get() (float64, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.calls
}

type usageFunc func(ctx context.Context) (int, error)

func (f usageFunc) FlashUsage(ctx context.Context) (int, error) {
	return f(ctx)
}

func TestStartFlashUsageMonitor(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		src       usageFunc
		expMetric float64
		expSet    bool
	}{
		"ok/ the used bytes of the region are monitored": {
			src:       func(context.Context) (int, error) { return 4096, nil },
			expMetric: 4096,
			expSet:    true,
		},
		"ng/ errors leave the metric untouched": {
			src:    func(context.Context) (int, error) { return 0, errors.New("loop stopped") },
			expSet: false,
		},
	}
	for name := range tests {
		tt := tests[name]
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			// --- given ---
			ctx, cancel := context.WithCancel(context.Background())
			m := &mockMetricsSetter{}
			done := make(chan struct{})

			// --- when ---
			go func() {
				metrics.StartFlashUsageMonitor(ctx, m, tt.src, 10*time.Millisecond)
				close(done)
			}()
			time.Sleep(50 * time.Millisecond)
			cancel()
			<-done

			// --- then ---
			value, calls := m.get()
			assert.Equal(t, tt.expMetric, value)
			assert.Equal(t, tt.expSet, calls > 0)
		})
	}
}
