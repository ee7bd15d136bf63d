package datalog

import (
	"github.com/radpro/doselog/datalog/codec"
	"github.com/radpro/doselog/flash"
	"github.com/radpro/doselog/metrics"
	"github.com/radpro/doselog/utils/log"
)

// Reader walks the log forward from the oldest readable page to the write
// cursor. At most one Reader is open per engine; samples offered while it
// is open are not logged.
type Reader struct {
	e            *Engine
	it           flash.Iterator
	page         []byte
	state        codec.State
	sessionStart bool
	visited      int
	done         bool
}

// OpenRead programs any buffered entries and opens a read session at the
// tail of the log. It fails when a read session is already open.
func (e *Engine) OpenRead() (*Reader, bool) {
	if !e.recovered || e.reader != nil {
		return nil, false
	}
	if err := e.flush(); err != nil {
		log.Error("datalog: failed to flush before reading: %v", err)
	}
	tail, err := e.seekToTail()
	if err != nil {
		log.Error("datalog: failed to find the log tail: %v", err)
		return nil, false
	}
	r := &Reader{
		e:  e,
		it: flash.Iterator{Region: e.region, Page: tail},
	}
	e.reader = r
	metrics.DatalogSessionsTotal.WithLabelValues("read").Inc()
	return r, true
}

// Position returns the read cursor.
func (r *Reader) Position() flash.Iterator {
	return r.it
}

// Done reports whether the session has ended.
func (r *Reader) Done() bool {
	return r.done
}

// Next decodes entries until it produces a record. It returns false once
// the write cursor is reached, after an entry that cannot be decoded, or
// after the session was closed.
func (r *Reader) Next() (Record, bool) {
	dataSize := r.e.region.DataSize()
	for !r.done {
		if r.page == nil && !r.load() {
			break
		}
		if r.it.Index >= dataSize {
			r.nextPage()
			continue
		}

		kind, n := codec.Decode(r.page[r.it.Index:dataSize], &r.state)
		switch kind {
		case codec.KindEnd:
			if flash.PageState(r.page[dataSize]) == flash.PageAvailable {
				r.finish()
			} else {
				r.nextPage()
			}
			continue
		case codec.KindTruncated:
			log.Warn("datalog: undecodable entry at %v, ending read", r.it)
			r.finish()
			continue
		}

		r.it.Index += n
		switch kind {
		case codec.KindSessionStart:
			r.sessionStart = true
		case codec.KindSync, codec.KindDelta:
			rec := Record{Sample: r.state.Sample, SessionStart: r.sessionStart}
			r.sessionStart = false
			return rec, true
		}
	}
	return Record{}, false
}

// Close ends the session. It is safe to call more than once.
func (r *Reader) Close() {
	r.finish()
}

func (r *Reader) load() bool {
	if r.visited >= r.e.region.Pages() {
		r.finish()
		return false
	}
	page, err := r.e.region.Read(r.it.Page)
	if err != nil {
		log.Error("datalog: failed to read page %d: %v", r.it.Page, err)
		r.finish()
		return false
	}
	r.page = page
	r.visited++
	return true
}

func (r *Reader) nextPage() {
	if r.it.Page == r.e.head.Page {
		r.finish()
		return
	}
	r.it.AdvanceToNextPage()
	r.page = nil
}

func (r *Reader) finish() {
	r.done = true
	r.page = nil
	if r.e.reader == r {
		r.e.reader = nil
	}
}
