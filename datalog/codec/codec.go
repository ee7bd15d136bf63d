// Package codec implements the datalog entry format. Every entry is
// relative to a running (time, pulse count, interval) state:
//
//	0xxxxxxx                     7-bit signed pulse count delta
//	10xxxxxx +1 byte             14-bit signed delta
//	110xxxxx +2 bytes            21-bit signed delta
//	1110xxxx +3 bytes            28-bit signed delta
//	0xf0     +4 bytes            32-bit signed delta, big endian
//	0xf1..0xf5 +8 bytes          sync: interval, big endian time and pulse count
//	0xf6..0xfe                   filler
//	0xff                         end of data on the page
//
// Deltas advance time by the interval of the last sync record.
package codec

import (
	"encoding/binary"
)

const (
	Delta32     = 0xf0
	SyncFirst   = 0xf1
	SyncLast    = 0xf5
	FillerFirst = 0xf6
	// SessionStart is a filler byte written in front of the sync record
	// that opens a logging session.
	SessionStart = 0xf8
	Padding      = 0xfe
	EndOfData    = 0xff

	SyncSize     = 9
	MaxDeltaSize = 5
)

// Sample is one dose reading: seconds since the epoch and the cumulative
// tube pulse count.
type Sample struct {
	Time       uint32
	PulseCount uint32
}

// Interval indexes the sampling interval table stored in sync records.
// IntervalOff never appears on flash.
type Interval uint8

const (
	IntervalOff Interval = iota
	Interval1H
	Interval30Min
	Interval10Min
	Interval5Min
	Interval1Min
	IntervalCount
)

var intervalSeconds = [IntervalCount]uint32{0, 3600, 1800, 600, 300, 60}

func (iv Interval) Seconds() uint32 {
	if iv >= IntervalCount {
		return 0
	}
	return intervalSeconds[iv]
}

func (iv Interval) Enabled() bool {
	return iv > IntervalOff && iv < IntervalCount
}

type tier struct {
	prefix byte
	mask   byte
	bits   uint
}

// tiers[n-1] describes the n-byte delta encoding.
var tiers = [4]tier{
	{prefix: 0x00, mask: 0x7f, bits: 7},
	{prefix: 0x80, mask: 0x3f, bits: 14},
	{prefix: 0xc0, mask: 0x1f, bits: 21},
	{prefix: 0xe0, mask: 0x0f, bits: 28},
}

func fits(delta int32, bits uint) bool {
	limit := int32(1) << (bits - 1)
	return delta >= -limit && delta < limit
}

// DeltaSize returns the size of the smallest encoding of delta.
func DeltaSize(delta int32) int {
	for i, t := range tiers {
		if fits(delta, t.bits) {
			return i + 1
		}
	}
	return MaxDeltaSize
}

// PulseDelta is the signed difference between two cumulative pulse counts.
// Counter wrap-around is preserved.
func PulseDelta(from, to uint32) int32 {
	return int32(to - from)
}

// AppendDelta appends the smallest encoding of delta to dst.
func AppendDelta(dst []byte, delta int32) []byte {
	size := DeltaSize(delta)
	if size == MaxDeltaSize {
		dst = append(dst, Delta32)
		return binary.BigEndian.AppendUint32(dst, uint32(delta))
	}
	t := tiers[size-1]
	v := uint32(delta)
	dst = append(dst, byte(v>>(8*uint(size)-8))&t.mask|t.prefix)
	for i := size - 2; i >= 0; i-- {
		dst = append(dst, byte(v>>(8*uint(i))))
	}
	return dst
}

// AppendSync appends a sync record anchoring s under interval iv, which
// must be enabled.
func AppendSync(dst []byte, iv Interval, s Sample) []byte {
	if !iv.Enabled() {
		panic("codec: sync record needs an enabled interval")
	}
	dst = append(dst, SyncFirst+byte(iv)-1)
	dst = binary.BigEndian.AppendUint32(dst, s.Time)
	return binary.BigEndian.AppendUint32(dst, s.PulseCount)
}

func AppendSessionStart(dst []byte) []byte {
	return append(dst, SessionStart)
}
