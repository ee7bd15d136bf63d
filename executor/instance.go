package executor

import (
	"fmt"
	"io"
	"time"

	"github.com/radpro/doselog/datalog"
	"github.com/radpro/doselog/datalog/codec"
	"github.com/radpro/doselog/flash"
	"github.com/radpro/doselog/sim"
	"github.com/radpro/doselog/utils"
	"github.com/radpro/doselog/utils/log"
)

// Instance is everything one simulated device is made of.
type Instance struct {
	Flash  flash.Device
	Region *flash.Region
	Engine *datalog.Engine
	Device *sim.Device
	Loop   *Loop
	closer io.Closer
}

// NewInstanceSetup opens the flash, recovers the datalog and starts a
// write session when logging is enabled. The loop is returned stopped.
func NewInstanceSetup(cfg *utils.DoselogConfig, clock func() time.Time) (*Instance, error) {
	inst := &Instance{}

	if cfg.FlashImage != "" {
		img, err := flash.OpenImage(cfg.FlashImage, cfg.PageSize, cfg.WordSize, cfg.PageCount())
		if err != nil {
			return nil, err
		}
		log.Info("flash image: %s", img.Path())
		inst.Flash, inst.closer = img, img
	} else {
		log.Warn("no flash_image configured, the datalog is kept in memory")
		mem, err := flash.NewMemoryDevice(cfg.PageSize, cfg.WordSize, cfg.PageCount())
		if err != nil {
			return nil, err
		}
		inst.Flash = mem
	}

	var err error
	if inst.Region, err = flash.NewRegion(inst.Flash, cfg.RegionBegin, cfg.RegionEnd); err != nil {
		inst.Close()
		return nil, err
	}

	inst.Device = sim.NewDevice(cfg.DeviceID, sim.NewTube(cfg.Simulator.CPM, cfg.Simulator.Seed), clock)
	inst.Engine, err = datalog.New(inst.Region, inst.Device, codec.Interval(cfg.LoggingInterval.Index))
	if err != nil {
		inst.Close()
		return nil, err
	}
	if err = inst.Engine.Recover(); err != nil {
		inst.Close()
		return nil, fmt.Errorf("recover datalog: %w", err)
	}
	if cfg.LoggingInterval.Enabled() {
		if !inst.Engine.OpenWrite() {
			log.Warn("failed to open the datalog write session")
		}
	}

	inst.Loop = NewLoop(inst.Engine, inst.Device, DefaultTickPeriod)
	return inst, nil
}

// Close releases the flash image. The loop must have stopped.
func (i *Instance) Close() error {
	if i.closer == nil {
		return nil
	}
	return i.closer.Close()
}
