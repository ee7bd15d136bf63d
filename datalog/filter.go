package datalog

import (
	"math"
	"strconv"
)

// Filter selects records by time, with inclusive bounds, and caps the
// number of records selected.
type Filter struct {
	Start uint32
	End   uint32
	Max   uint32
}

func NewFilter() Filter {
	return Filter{End: math.MaxUint32, Max: math.MaxUint32}
}

// ParseFilter reads the optional start, end and max arguments in that
// order. Parsing stops at the first argument that is not a uint32, and
// that argument and the ones after it keep their defaults.
func ParseFilter(args []string) Filter {
	f := NewFilter()
	fields := []*uint32{&f.Start, &f.End, &f.Max}
	for i, arg := range args {
		if i == len(fields) {
			break
		}
		v, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			break
		}
		*fields[i] = uint32(v)
	}
	return f
}

// Accept reports whether rec is selected once sent records have already
// been selected.
func (f Filter) Accept(rec Record, sent uint32) bool {
	return sent < f.Max && rec.Time >= f.Start && rec.Time <= f.End
}

// Exhausted reports whether no further record can be selected.
func (f Filter) Exhausted(sent uint32) bool {
	return sent >= f.Max
}
