package di

import (
	"time"

	"github.com/radpro/doselog/executor"
	"github.com/radpro/doselog/frontend"
	"github.com/radpro/doselog/frontend/stream"
	"github.com/radpro/doselog/utils"
	"github.com/radpro/doselog/utils/log"
)

type Container struct {
	cfg         *utils.DoselogConfig
	clock       func() time.Time
	instance    *executor.Instance
	commService *frontend.CommService
	commServer  *frontend.CommServer
}

func NewContainer(cfg *utils.DoselogConfig) *Container {
	return &Container{cfg: cfg, clock: time.Now}
}

// GetInstance opens the flash and recovers the datalog on first use.
// Logged records are published on the websocket stream.
func (c *Container) GetInstance() (*executor.Instance, error) {
	if c.instance != nil {
		return c.instance, nil
	}
	inst, err := executor.NewInstanceSetup(c.cfg, c.clock)
	if err != nil {
		return nil, err
	}
	inst.Engine.SetListener(stream.Listener(c.cfg.DeviceID))
	log.Info("datalog recovered, logging interval %s", c.cfg.LoggingInterval.String)
	c.instance = inst
	return c.instance, nil
}

// GetLoop returns the main loop. GetInstance must have succeeded.
func (c *Container) GetLoop() *executor.Loop {
	if c.instance == nil {
		log.Fatal("main loop requested before the instance was set up")
	}
	return c.instance.Loop
}

func (c *Container) GetCommService() *frontend.CommService {
	if c.commService != nil {
		return c.commService
	}
	c.commService = frontend.NewCommService(c.GetLoop())
	return c.commService
}

func (c *Container) GetCommServer() *frontend.CommServer {
	if c.commServer != nil {
		return c.commServer
	}
	c.commServer = frontend.NewCommServer(c.GetCommService())
	return c.commServer
}
