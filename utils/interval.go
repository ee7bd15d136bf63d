package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LoggingInterval is one of the datalog sampling periods a device can be
// configured with. Index is its position in the on-flash interval table,
// so it must never be reordered.
type LoggingInterval struct {
	String   string
	Duration time.Duration
	Index    int
}

var intervalUnits = []struct {
	suffix   string
	duration time.Duration
}{
	{"Sec", time.Second},
	{"Min", time.Minute},
	{"H", time.Hour},
}

var LoggingIntervals = []*LoggingInterval{
	{"Off", 0, 0},
	{"1H", time.Hour, 1},
	{"30Min", 30 * time.Minute, 2},
	{"10Min", 10 * time.Minute, 3},
	{"5Min", 5 * time.Minute, 4},
	{"1Min", time.Minute, 5},
}

func (li *LoggingInterval) Enabled() bool {
	return li.Index != 0
}

// Seconds returns the period as the whole number of seconds stored in
// sync records.
func (li *LoggingInterval) Seconds() uint32 {
	return uint32(li.Duration / time.Second)
}

// LoggingIntervalFromString accepts the canonical names ("1H", "5Min")
// as well as equivalent spellings such as "60Min" or "3600Sec".
func LoggingIntervalFromString(s string) *LoggingInterval {
	if strings.EqualFold(s, "off") || s == "0" {
		return LoggingIntervals[0]
	}
	for _, unit := range intervalUnits {
		if !strings.HasSuffix(s, unit.suffix) {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSuffix(s, unit.suffix), 10, 32)
		if err != nil || n <= 0 {
			return nil
		}
		return LoggingIntervalFromDuration(unit.duration * time.Duration(n))
	}
	return nil
}

func LoggingIntervalFromDuration(d time.Duration) *LoggingInterval {
	for _, li := range LoggingIntervals {
		if li.Duration == d {
			return li
		}
	}
	return nil
}

func LoggingIntervalFromIndex(index int) (*LoggingInterval, error) {
	if index < 0 || index >= len(LoggingIntervals) {
		return nil, fmt.Errorf("logging interval index %d out of range [0, %d)", index, len(LoggingIntervals))
	}
	return LoggingIntervals[index], nil
}
