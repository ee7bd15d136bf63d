package datalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFilter(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
		want Filter
	}{
		{"no args", nil, Filter{0, math.MaxUint32, math.MaxUint32}},
		{"start", []string{"100"}, Filter{100, math.MaxUint32, math.MaxUint32}},
		{"all", []string{"100", "200", "3"}, Filter{100, 200, 3}},
		{"junk stops parsing", []string{"100", "x", "3"}, Filter{100, math.MaxUint32, math.MaxUint32}},
		{"overflow", []string{"4294967296"}, NewFilter()},
		{"extra args", []string{"1", "2", "3", "4"}, Filter{1, 2, 3}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseFilter(tt.args))
		})
	}
}

func TestFilterAccept(t *testing.T) {
	t.Parallel()
	f := Filter{Start: 10, End: 20, Max: 2}
	rec := func(ts uint32) Record { return Record{Sample: Sample{Time: ts}} }

	assert.False(t, f.Accept(rec(9), 0))
	assert.True(t, f.Accept(rec(10), 0))
	assert.True(t, f.Accept(rec(20), 1))
	assert.False(t, f.Accept(rec(21), 0))
	assert.False(t, f.Accept(rec(15), 2))
	assert.True(t, f.Exhausted(2))
	assert.False(t, f.Exhausted(1))
}
