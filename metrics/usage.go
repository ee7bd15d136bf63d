package metrics

import (
	"context"
	"time"

	"github.com/radpro/doselog/utils/log"
)

// Setter is an interface for prometheus metrics to improve unit-testability.
type Setter interface {
	Set(m float64)
}

// UsageSource reports how many bytes of the datalog region hold data.
type UsageSource interface {
	FlashUsage(ctx context.Context) (int, error)
}

// StartFlashUsageMonitor polls the datalog usage at each provided time
// interval and sets it as a prometheus metric until ctx is done.
func StartFlashUsageMonitor(ctx context.Context, s Setter, src UsageSource, interval time.Duration) {
	update := func() {
		used, err := src.FlashUsage(ctx)
		if err != nil {
			log.Error("get the flash usage of the datalog for monitoring: %v", err)
			return
		}
		s.Set(float64(used))
	}
	update()

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			update()
		}
	}
}
