// Package sim simulates the measurement side of a dosimeter: a Geiger
// tube producing Poisson distributed pulses, the real time clock and the
// short term history the rate display is computed from.
package sim

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Tube counts simulated pulses.
type Tube struct {
	cps        float64
	src        rand.Source
	pulseCount uint32
	tubeTime   uint32
}

// NewTube returns a tube with a mean rate of cpm counts per minute. The
// same seed always produces the same pulse train.
func NewTube(cpm float64, seed uint64) *Tube {
	return &Tube{
		cps: cpm / 60,
		src: rand.NewSource(seed),
	}
}

// Count advances the tube by seconds and returns the pulses counted.
func (t *Tube) Count(seconds uint32) uint32 {
	if seconds == 0 {
		return 0
	}
	t.tubeTime += seconds
	if t.cps <= 0 {
		return 0
	}
	p := distuv.Poisson{Lambda: t.cps * float64(seconds), Src: t.src}
	n := uint32(p.Rand())
	t.pulseCount += n
	return n
}

func (t *Tube) PulseCount() uint32 {
	return t.pulseCount
}

func (t *Tube) SetPulseCount(n uint32) {
	t.pulseCount = n
}

// TubeTime is the number of seconds the tube has been counting.
func (t *Tube) TubeTime() uint32 {
	return t.tubeTime
}

func (t *Tube) SetTubeTime(s uint32) {
	t.tubeTime = s
}
