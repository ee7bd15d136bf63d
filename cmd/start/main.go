package start

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/radpro/doselog/frontend"
	"github.com/radpro/doselog/frontend/stream"
	"github.com/radpro/doselog/internal/di"
	"github.com/radpro/doselog/metrics"
	"github.com/radpro/doselog/utils"
	"github.com/radpro/doselog/utils/log"
)

const (
	usage                 = "start"
	short                 = "Start a simulated dosimeter with a flash datalog"
	long                  = "This command starts a simulated dosimeter that logs its dose samples to a flash image"
	example               = "doselog start --config <path>"
	defaultConfigFilePath = "./doselog.yml"
	configDesc            = "set the path for the doselog YAML configuration file"
)

var (
	// Cmd is the start command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		Aliases:    []string{"s"},
		SuggestFor: []string{"boot", "up"},
		Example:    example,
		RunE:       executeStart,
	}
	// configFilePath set flag for a path to the config file.
	configFilePath string
)

// nolint:gochecknoinits // cobra's standard way to initialize flags
func init() {
	utils.InstanceConfig.StartTime = time.Now()
	Cmd.Flags().StringVarP(&configFilePath, "config", "c", defaultConfigFilePath, configDesc)
}

// executeStart implements the start command.
func executeStart(cmd *cobra.Command, _ []string) error {
	globalCtx, globalCancel := context.WithCancel(context.Background())
	defer globalCancel()

	// Attempt to read config file.
	data, err := os.ReadFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to read configuration file error: %w", err)
	}

	// Don't output command usage if args(=only the filepath to doselog.yml at the moment) are correct
	cmd.SilenceUsage = true

	// Log config location.
	log.Info("using %v for configuration", configFilePath)

	// Attempt to set configuration.
	config, err := utils.ParseConfig(data)
	if err != nil {
		return fmt.Errorf("failed to parse configuration file error: %w", err)
	}
	utils.InstanceConfig = *config

	// Initialize doselog services.
	// --------------------------------
	log.Info("initializing doselog...")

	start := time.Now()

	log.Info("initializing websocket...")
	stream.Initialize()

	c := di.NewContainer(config)
	inst, err := c.GetInstance()
	if err != nil {
		return fmt.Errorf("create new instance setup: %w", err)
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- inst.Loop.Run(globalCtx) }()

	go metrics.StartFlashUsageMonitor(globalCtx, metrics.FlashUsedBytes, inst.Loop, config.FlashMonitorInterval)

	startupTime := time.Since(start)
	metrics.StartupTime.Set(startupTime.Seconds())
	log.Info("startup time: %s", startupTime)

	if config.UtilitiesURL != "" {
		// Start utility endpoints.
		log.Info("launching utility service...")
		uah := frontend.NewUtilityAPIHandlers(config.StartTime, inst.Loop)
		go func() {
			if err2 := uah.Handle(config.UtilitiesURL); err2 != nil {
				log.Error("utility API handle error: %v", err2.Error())
			}
		}()
	}

	log.Info("enabling query access...")
	atomic.StoreUint32(&frontend.Queryable, 1)

	// Spawn a goroutine and listen for a signal.
	const defaultSignalChanLen = 10
	signalChan := make(chan os.Signal, defaultSignalChanLen)
	go func() {
		for s := range signalChan {
			switch s {
			case syscall.SIGUSR1:
				log.Info("dumping stack traces due to SIGUSR1 request")
				if err2 := pprof.Lookup("goroutine").WriteTo(os.Stdout, 1); err2 != nil {
					log.Error("failed to write goroutine pprof: %v", err2)
				}
			case syscall.SIGINT, syscall.SIGTERM:
				log.Info("initiating graceful shutdown due to '%v' request", s)
				atomic.StoreUint32(&frontend.Queryable, uint32(0))
				c.GetCommServer().Shutdown()
				log.Info("shutdown command interface...")

				log.Info("waiting a grace period of %v to shutdown...", config.StopGracePeriod)
				time.Sleep(config.StopGracePeriod)
				globalCancel()
				return
			}
		}
	}()
	signal.Notify(signalChan, syscall.SIGUSR1, syscall.SIGINT, syscall.SIGTERM)

	// Serve.
	log.Info("launching tcp listener for the command interface...")
	serveErr := make(chan error, 1)
	go func() { serveErr <- c.GetCommServer().ListenAndServe(globalCtx, config.ListenURL) }()

	select {
	case err = <-serveErr:
		if err != nil {
			globalCancel()
			err = fmt.Errorf("failed to start server - error: %w", err)
		}
	case <-globalCtx.Done():
	}

	if loopErr := <-loopDone; loopErr != nil {
		log.Error("failed to close the datalog: %v", loopErr)
	}
	if closeErr := inst.Close(); closeErr != nil {
		log.Error("failed to close the flash image: %v", closeErr)
	}
	log.Info("exiting...")
	log.Sync()
	return err
}
