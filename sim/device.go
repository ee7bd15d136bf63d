package sim

import (
	"time"

	"github.com/radpro/doselog/datalog"
)

const historySeconds = 60

// Device ties the tube to a clock. It implements datalog.Measurements.
type Device struct {
	id       string
	clock    func() time.Time
	offset   int64
	tube     *Tube
	history  *History
	lastTick time.Time
}

// NewDevice builds a device reading the host clock through clock.
func NewDevice(id string, tube *Tube, clock func() time.Time) *Device {
	return &Device{
		id:       id,
		clock:    clock,
		tube:     tube,
		history:  NewHistory(historySeconds),
		lastTick: clock(),
	}
}

func (d *Device) ID() string {
	return d.id
}

// Tick counts the pulses of the whole seconds elapsed since the last tick.
func (d *Device) Tick() {
	now := d.clock()
	seconds := int(now.Sub(d.lastTick) / time.Second)
	if seconds <= 0 {
		return
	}
	d.lastTick = d.lastTick.Add(time.Duration(seconds) * time.Second)
	for i := 0; i < seconds; i++ {
		d.history.Push(d.tube.Count(1))
	}
}

// DeviceTime is the device clock in seconds since the epoch.
func (d *Device) DeviceTime() uint32 {
	return uint32(d.clock().Unix() + d.offset)
}

// SetDeviceTime sets the device clock without touching the host clock.
func (d *Device) SetDeviceTime(t uint32) {
	d.offset = int64(t) - d.clock().Unix()
}

func (d *Device) Tube() *Tube {
	return d.tube
}

// Rate is the mean count rate over the last minute in counts per second.
func (d *Device) Rate() float64 {
	return d.history.Rate()
}

func (d *Device) Sample() datalog.Sample {
	return datalog.Sample{Time: d.DeviceTime(), PulseCount: d.tube.PulseCount()}
}

func (d *Device) ResetHistory() {
	d.history.Reset()
}
