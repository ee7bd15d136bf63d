package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var namespace = "radpro"
var subsystem = "doselog"

var (
	// StartupTime stores how long the startup took (in seconds), boot
	// recovery of the datalog included.
	StartupTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "startup_seconds",
			Help:      "Seconds taken by the startup",
		},
	)

	// FlashPageErasesTotal counts page erase operations on the datalog region.
	FlashPageErasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "flash_page_erases_total",
		Help:      "Number of flash page erase operations",
	})

	// FlashProgrammedBytesTotal counts data bytes programmed, padding included.
	FlashProgrammedBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "flash_programmed_bytes_total",
		Help:      "Number of data bytes programmed into flash pages",
	})

	// FlashPageStatesTotal counts footer writes partitioned by the new page state.
	FlashPageStatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "flash_page_state_changes_total",
		Help:      "Number of page footer writes partitioned by state",
	}, []string{"state"})

	// FlashUsedBytes is the size of the readable log, from the tail page to
	// the write cursor.
	FlashUsedBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "flash_used_bytes",
		Help:      "Bytes of the datalog region currently holding readable entries",
	})

	// DatalogEntriesTotal counts encoded entries partitioned by kind.
	DatalogEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "datalog_entries_total",
		Help:      "Number of datalog entries written partitioned by encoding",
	}, []string{"kind"})

	// DatalogSessionsTotal counts opened sessions partitioned by mode.
	DatalogSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "datalog_sessions_total",
		Help:      "Number of datalog sessions opened partitioned by mode",
	}, []string{"mode"})

	// DatalogDroppedSamplesTotal counts samples not logged because a read
	// session was open.
	DatalogDroppedSamplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "datalog_dropped_samples_total",
		Help:      "Number of due samples dropped while a read session was open",
	})

	// DatalogDumpRecordsTotal counts records sent by the text dump.
	DatalogDumpRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "datalog_dump_records_total",
		Help:      "Number of records sent over the command interface",
	})

	// CommandRequestDuration stores the processing time for every command
	// partitioned by verb and property.
	CommandRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "command_request_duration_seconds",
		Help:      "Command processing time partitioned by command",
	}, []string{"command"})

	// CommandRequestsTotal stores the number of commands partitioned by
	// command and outcome.
	CommandRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "command_requests_total",
		Help:      "Number of commands received partitioned by command and result",
	}, []string{"command", "result"})
)
