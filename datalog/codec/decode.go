package codec

import (
	"encoding/binary"
)

type Kind int

const (
	// KindDelta advanced an anchored state by one sample.
	KindDelta Kind = iota
	// KindSync re-anchored the state.
	KindSync
	// KindFiller is padding or any other byte without meaning.
	KindFiller
	// KindSessionStart marks that the next sample opens a session.
	KindSessionStart
	// KindEnd is an erased byte: no more entries on this page.
	KindEnd
	// KindUnanchored is a delta read before any sync. The state is left
	// untouched and the sample must be skipped.
	KindUnanchored
	// KindTruncated is an entry running past the end of the input.
	// Nothing after it can be trusted.
	KindTruncated
)

func (k Kind) String() string {
	switch k {
	case KindDelta:
		return "delta"
	case KindSync:
		return "sync"
	case KindFiller:
		return "filler"
	case KindSessionStart:
		return "session-start"
	case KindEnd:
		return "end"
	case KindUnanchored:
		return "unanchored"
	case KindTruncated:
		return "truncated"
	}
	return "unknown"
}

// State is the decoder accumulator.
type State struct {
	Sample
	Interval Interval
	Anchored bool
}

// Decode reads one entry from the start of b, updates st and returns the
// entry kind together with the number of bytes consumed.
func Decode(b []byte, st *State) (Kind, int) {
	if len(b) == 0 {
		return KindTruncated, 0
	}
	lead := b[0]
	switch {
	case lead == EndOfData:
		return KindEnd, 1
	case lead == SessionStart:
		return KindSessionStart, 1
	case lead >= FillerFirst:
		return KindFiller, 1
	case lead >= SyncFirst:
		if len(b) < SyncSize {
			return KindTruncated, 0
		}
		st.Interval = Interval(lead-SyncFirst) + 1
		st.Time = binary.BigEndian.Uint32(b[1:5])
		st.PulseCount = binary.BigEndian.Uint32(b[5:9])
		st.Anchored = true
		return KindSync, SyncSize
	}

	delta, size, ok := decodeDelta(b)
	if !ok {
		return KindTruncated, 0
	}
	if !st.Anchored {
		return KindUnanchored, size
	}
	st.PulseCount += uint32(delta)
	st.Time += st.Interval.Seconds()
	return KindDelta, size
}

func decodeDelta(b []byte) (int32, int, bool) {
	lead := b[0]
	if lead == Delta32 {
		if len(b) < MaxDeltaSize {
			return 0, 0, false
		}
		return int32(binary.BigEndian.Uint32(b[1:5])), MaxDeltaSize, true
	}

	size := 1
	for size < len(tiers) && lead&^tiers[size-1].mask != tiers[size-1].prefix {
		size++
	}
	if len(b) < size {
		return 0, 0, false
	}
	t := tiers[size-1]
	v := uint32(lead & t.mask)
	for i := 1; i < size; i++ {
		v = v<<8 | uint32(b[i])
	}
	// sign extend from t.bits
	shift := 32 - t.bits
	return int32(v<<shift) >> shift, size, true
}
