package executor

import (
	"context"
	"errors"
	"time"

	"github.com/radpro/doselog/datalog"
	"github.com/radpro/doselog/sim"
	"github.com/radpro/doselog/utils/log"
)

const DefaultTickPeriod = time.Second

var ErrLoopStopped = errors.New("executor: loop stopped")

// Handle gives a request exclusive access to the engine and the device for
// the duration of one loop cycle.
type Handle struct {
	Engine *datalog.Engine
	Device *sim.Device
}

type request struct {
	fn   func(Handle)
	done chan struct{}
}

// Loop is the main loop of the device. One goroutine owns the datalog
// engine and the simulated device: it ticks the measurements, offers each
// tick's sample to the engine and runs the requests of the command
// interfaces in between, one at a time.
type Loop struct {
	engine   *datalog.Engine
	device   *sim.Device
	period   time.Duration
	requests chan request
	stopped  chan struct{}
}

func NewLoop(engine *datalog.Engine, device *sim.Device, period time.Duration) *Loop {
	return &Loop{
		engine:   engine,
		device:   device,
		period:   period,
		requests: make(chan request),
		stopped:  make(chan struct{}),
	}
}

// Run drives the loop until ctx is done, then closes the write session so
// that buffered entries reach flash.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	t := time.NewTicker(l.period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("stopping main loop...")
			return l.engine.CloseWrite()
		case <-t.C:
			l.tick()
		case req := <-l.requests:
			req.fn(Handle{Engine: l.engine, Device: l.device})
			close(req.done)
		}
	}
}

func (l *Loop) tick() {
	l.device.Tick()
	if err := l.engine.Update(l.device.Sample()); err != nil {
		log.Error("failed to log sample: %v", err)
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func(Handle)) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case l.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
	<-req.done
	return nil
}

// FlashUsage returns the number of bytes of the region holding readable
// entries.
func (l *Loop) FlashUsage(ctx context.Context) (int, error) {
	var (
		st  datalog.Stats
		err error
	)
	if doErr := l.Do(ctx, func(h Handle) { st, err = h.Engine.Stats() }); doErr != nil {
		return 0, doErr
	}
	return st.UsedBytes, err
}
