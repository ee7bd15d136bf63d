package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"gopkg.in/yaml.v2"

	"github.com/radpro/doselog/utils/log"
)

const (
	defaultPageSize             = 1024
	defaultWordSize             = 8
	defaultFlashSize            = 64 * 1024
	defaultLoggingInterval      = "1Min"
	defaultListenURL            = "localhost:5845"
	defaultDeviceID             = "doselog-sim"
	defaultSimulatorCPM         = 30.0
	defaultFlashMonitorInterval = time.Minute
)

var InstanceConfig DoselogConfig

type SimulatorSetting struct {
	// CPM is the mean tube count rate in counts per minute.
	CPM  float64
	Seed uint64
}

type DoselogConfig struct {
	// FlashImage is the path of the flash image file. Empty keeps the
	// flash in memory, which loses the log on exit.
	FlashImage           string
	FlashSize            int
	PageSize             int
	WordSize             int
	RegionBegin          int
	RegionEnd            int
	LoggingInterval      *LoggingInterval
	ListenURL            string
	UtilitiesURL         string
	LogLevel             log.Level
	StopGracePeriod      time.Duration
	DeviceID             string
	Simulator            SimulatorSetting
	FlashMonitorInterval time.Duration
	StartTime            time.Time
}

// PageCount is the number of pages in the whole flash image.
func (c *DoselogConfig) PageCount() int {
	return c.FlashSize / c.PageSize
}

func ParseConfig(data []byte) (*DoselogConfig, error) {
	var (
		err error
		aux struct {
			FlashImage           string `yaml:"flash_image"`
			FlashSize            string `yaml:"flash_size"`
			PageSize             string `yaml:"page_size"`
			WordSize             int    `yaml:"word_size"`
			RegionBegin          *int   `yaml:"region_begin"`
			RegionEnd            *int   `yaml:"region_end"`
			LoggingInterval      string `yaml:"logging_interval"`
			ListenURL            string `yaml:"listen_url"`
			UtilitiesURL         string `yaml:"utilities_url"`
			LogLevel             string `yaml:"log_level"`
			StopGracePeriod      int    `yaml:"stop_grace_period"`
			DeviceID             string `yaml:"device_id"`
			FlashMonitorInterval int    `yaml:"flash_monitor_interval"`
			Simulator            struct {
				CPM  float64 `yaml:"cpm"`
				Seed uint64  `yaml:"seed"`
			} `yaml:"simulator"`
		}
	)

	if err = yaml.Unmarshal(data, &aux); err != nil {
		return nil, err
	}

	m := &DoselogConfig{
		FlashImage: aux.FlashImage,
		StartTime:  time.Now(),
	}

	if m.PageSize, err = parseSize(aux.PageSize, defaultPageSize); err != nil {
		return nil, fmt.Errorf("invalid page_size %q: %w", aux.PageSize, err)
	}
	if m.FlashSize, err = parseSize(aux.FlashSize, defaultFlashSize); err != nil {
		return nil, fmt.Errorf("invalid flash_size %q: %w", aux.FlashSize, err)
	}

	m.WordSize = defaultWordSize
	if aux.WordSize != 0 {
		m.WordSize = aux.WordSize
	}
	if m.WordSize < 1 || m.WordSize&(m.WordSize-1) != 0 {
		return nil, fmt.Errorf("word_size must be a power of two, got %d", m.WordSize)
	}
	if m.PageSize%m.WordSize != 0 || m.PageSize <= m.WordSize {
		return nil, fmt.Errorf("page_size %d must be a multiple of word_size %d and larger than it",
			m.PageSize, m.WordSize)
	}
	if m.FlashSize%m.PageSize != 0 || m.FlashSize == 0 {
		return nil, fmt.Errorf("flash_size %d must be a non-zero multiple of page_size %d",
			m.FlashSize, m.PageSize)
	}

	m.RegionEnd = m.PageCount()
	if aux.RegionBegin != nil {
		m.RegionBegin = *aux.RegionBegin
	}
	if aux.RegionEnd != nil {
		m.RegionEnd = *aux.RegionEnd
	}
	if m.RegionBegin < 0 || m.RegionEnd > m.PageCount() || m.RegionBegin >= m.RegionEnd {
		return nil, fmt.Errorf("invalid datalog region [%d, %d) for %d pages",
			m.RegionBegin, m.RegionEnd, m.PageCount())
	}

	interval := defaultLoggingInterval
	if aux.LoggingInterval != "" {
		interval = aux.LoggingInterval
	}
	if m.LoggingInterval = LoggingIntervalFromString(interval); m.LoggingInterval == nil {
		return nil, errors.New("invalid logging_interval: " + interval)
	}

	m.ListenURL = defaultListenURL
	if aux.ListenURL != "" {
		m.ListenURL = aux.ListenURL
	}
	m.UtilitiesURL = aux.UtilitiesURL

	m.LogLevel = log.INFO
	if aux.LogLevel != "" {
		m.LogLevel = log.ParseLevel(aux.LogLevel)
	}
	log.SetLevel(m.LogLevel)

	if aux.StopGracePeriod > 0 {
		m.StopGracePeriod = time.Duration(aux.StopGracePeriod) * time.Second
	}

	m.DeviceID = defaultDeviceID
	if aux.DeviceID != "" {
		m.DeviceID = aux.DeviceID
	}

	m.FlashMonitorInterval = defaultFlashMonitorInterval
	if aux.FlashMonitorInterval > 0 {
		m.FlashMonitorInterval = time.Duration(aux.FlashMonitorInterval) * time.Second
	}

	m.Simulator.CPM = defaultSimulatorCPM
	if aux.Simulator.CPM > 0 {
		m.Simulator.CPM = aux.Simulator.CPM
	}
	m.Simulator.Seed = aux.Simulator.Seed
	if m.Simulator.Seed == 0 {
		m.Simulator.Seed = uint64(m.StartTime.UnixNano())
	}

	return m, nil
}

// parseSize accepts plain byte counts ("1024") as well as human units
// ("1K", "64KB").
func parseSize(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, errors.New("size must be positive")
		}
		return n, nil
	}
	n, err := bytefmt.ToBytes(s)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
