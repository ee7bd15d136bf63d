// Package test holds fixtures shared by the package tests.
package test

import (
	"github.com/radpro/doselog/datalog/codec"
	"github.com/radpro/doselog/flash"
)

// Measurements is a scripted statistics engine.
type Measurements struct {
	Current codec.Sample
	Resets  int
}

func (m *Measurements) Sample() codec.Sample {
	return m.Current
}

func (m *Measurements) ResetHistory() {
	m.Resets++
}

// Set moves the scripted clock and pulse counter and returns the new sample.
func (m *Measurements) Set(time, pulseCount uint32) codec.Sample {
	m.Current = codec.Sample{Time: time, PulseCount: pulseCount}
	return m.Current
}

// NewMemoryRegion builds an erased in-memory device of pages pages and a
// region covering all of it.
func NewMemoryRegion(pageSize, wordSize, pages int) (*flash.Region, *flash.MemoryDevice, error) {
	dev, err := flash.NewMemoryDevice(pageSize, wordSize, pages)
	if err != nil {
		return nil, nil, err
	}
	region, err := flash.NewRegion(dev, 0, pages)
	if err != nil {
		return nil, nil, err
	}
	return region, dev, nil
}
