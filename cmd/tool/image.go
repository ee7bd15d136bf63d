package tool

import (
	"os"

	"github.com/pkg/errors"

	"github.com/radpro/doselog/datalog"
	"github.com/radpro/doselog/datalog/codec"
	"github.com/radpro/doselog/flash"
	"github.com/radpro/doselog/utils"
)

// loadConfig reads the configuration and applies the image flag.
func loadConfig() (*utils.DoselogConfig, error) {
	data, err := os.ReadFile(configFilePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read configuration file")
	}
	cfg, err := utils.ParseConfig(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse configuration file")
	}
	if imagePath != "" {
		cfg.FlashImage = imagePath
	}
	if cfg.FlashImage == "" {
		return nil, errors.New("no flash image, set flash_image or --image")
	}
	return cfg, nil
}

// loadImage copies the flash image into memory, so that tools never
// modify it.
func loadImage(cfg *utils.DoselogConfig) (*flash.MemoryDevice, *flash.Region, error) {
	image, err := os.ReadFile(cfg.FlashImage)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read flash image")
	}
	dev, err := flash.NewMemoryDevice(cfg.PageSize, cfg.WordSize, cfg.PageCount())
	if err != nil {
		return nil, nil, err
	}
	if err = dev.Load(image); err != nil {
		return nil, nil, errors.Wrapf(err, "flash image %s does not match the configured geometry", cfg.FlashImage)
	}
	region, err := flash.NewRegion(dev, cfg.RegionBegin, cfg.RegionEnd)
	if err != nil {
		return nil, nil, err
	}
	return dev, region, nil
}

// openEngine recovers the datalog of a loaded image without logging.
func openEngine(region *flash.Region) (*datalog.Engine, error) {
	e, err := datalog.New(region, idleMeasurements{}, codec.IntervalOff)
	if err != nil {
		return nil, err
	}
	if err = e.Recover(); err != nil {
		return nil, errors.Wrap(err, "failed to recover datalog")
	}
	return e, nil
}

type idleMeasurements struct{}

func (idleMeasurements) Sample() datalog.Sample { return datalog.Sample{} }
func (idleMeasurements) ResetHistory()          {}
