// Package datalog is a log-structured store of dose samples on a circular
// range of flash pages.
//
// The Engine owns the region, the write cursor and its word buffer, and
// at most one Reader. It is not safe for concurrent use: callers drive it
// from a single goroutine, the way firmware drives it from its main loop.
package datalog

import (
	"errors"
	"fmt"

	"github.com/radpro/doselog/datalog/codec"
	"github.com/radpro/doselog/datalog/wordbuf"
	"github.com/radpro/doselog/flash"
	"github.com/radpro/doselog/metrics"
)

type (
	Sample   = codec.Sample
	Interval = codec.Interval
)

var (
	ErrNotRecovered    = errors.New("datalog: engine has not been recovered")
	ErrReadSessionOpen = errors.New("datalog: a read session is open")
)

// Measurements is the dose statistics engine feeding the log.
type Measurements interface {
	// Sample returns the current time and cumulative pulse count.
	Sample() Sample
	// ResetHistory clears the history derived from the log.
	ResetHistory()
}

// Record is one decoded sample. SessionStart is set on the first sample of
// a logging session.
type Record struct {
	Sample
	SessionStart bool
}

// Listener is called with every record appended to the log.
type Listener func(Record)

type Engine struct {
	region *flash.Region
	m      Measurements
	buf    *wordbuf.Buffer

	// head is the write cursor. head.Index is where the buffer will be
	// programmed.
	head flash.Iterator
	// last is the most recently logged sample and the interval it was
	// logged under. It is not anchored until something was logged or
	// recovered.
	last codec.State

	interval  Interval
	writing   bool
	reader    *Reader
	recovered bool
	listener  Listener
}

// New builds an engine over region. Recover must be called before any
// session is opened.
func New(region *flash.Region, m Measurements, interval Interval) (*Engine, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	// a page must hold a session marker and a sync record
	if need := wordbuf.RoundUp(codec.SyncSize+1, region.WordSize()); region.DataSize() < need {
		return nil, fmt.Errorf("datalog: page data size %d is below the minimum of %d bytes",
			region.DataSize(), need)
	}
	if interval >= codec.IntervalCount {
		return nil, fmt.Errorf("datalog: invalid interval %d", interval)
	}
	return &Engine{
		region:   region,
		m:        m,
		buf:      wordbuf.New(region.WordSize()),
		head:     flash.Iterator{Region: region, Page: region.Begin},
		interval: interval,
	}, nil
}

func (e *Engine) SetListener(l Listener) {
	e.listener = l
}

func (e *Engine) Region() *flash.Region {
	return e.region
}

func (e *Engine) Interval() Interval {
	return e.interval
}

func (e *Engine) Writing() bool {
	return e.writing
}

func (e *Engine) Reading() bool {
	return e.reader != nil
}

// LastSample returns the most recently logged or recovered sample.
func (e *Engine) LastSample() (Sample, bool) {
	return e.last.Sample, e.last.Anchored
}

// Head returns the write cursor, counting buffered bytes as written.
func (e *Engine) Head() flash.Iterator {
	it := e.head
	it.Index += e.buf.Len()
	return it
}

type Stats struct {
	HeadPage  int
	HeadIndex int
	TailPage  int
	UsedPages int
	UsedBytes int
	Buffered  int
	Last      Sample
	LastValid bool
	Interval  Interval
	Writing   bool
	Reading   bool
}

func (e *Engine) Stats() (Stats, error) {
	if !e.recovered {
		return Stats{}, ErrNotRecovered
	}
	tail, err := e.seekToTail()
	if err != nil {
		return Stats{}, err
	}
	used := e.head.Page - tail + 1
	if e.head.Page < tail {
		used += e.region.Pages()
	}
	return Stats{
		HeadPage:  e.head.Page,
		HeadIndex: e.head.Index,
		TailPage:  tail,
		UsedPages: used,
		UsedBytes: (used-1)*e.region.DataSize() + e.head.Index + e.buf.Len(),
		Buffered:  e.buf.Len(),
		Last:      e.last.Sample,
		LastValid: e.last.Anchored,
		Interval:  e.interval,
		Writing:   e.writing,
		Reading:   e.reader != nil,
	}, nil
}

func (e *Engine) seekToTail() (int, error) {
	return e.region.TailPage(e.head.Page)
}

func countEntry(kind string) {
	metrics.DatalogEntriesTotal.WithLabelValues(kind).Inc()
}
