package datalog

import (
	"fmt"
	"strconv"

	"github.com/radpro/doselog/datalog/codec"
	"github.com/radpro/doselog/flash"
	"github.com/radpro/doselog/metrics"
	"github.com/radpro/doselog/utils/log"
)

// OpenWrite starts a logging session and anchors it with a sync record of
// the current sample. It fails when a session is already open, when a read
// session is open or when logging is off.
func (e *Engine) OpenWrite() bool {
	if !e.recovered || e.writing || e.reader != nil || !e.interval.Enabled() {
		return false
	}
	e.writing = true
	metrics.DatalogSessionsTotal.WithLabelValues("write").Inc()

	if err := e.append(e.m.Sample(), true, true); err != nil {
		log.Error("datalog: failed to anchor write session: %v", err)
	}
	return true
}

// CloseWrite ends the logging session and programs whatever is buffered.
func (e *Engine) CloseWrite() error {
	if !e.writing {
		return nil
	}
	e.writing = false
	return e.flush()
}

// Update offers the sample of the current tick. It is logged when a full
// interval elapsed since the last logged sample: as a delta when exactly
// one interval elapsed, as a sync record when samples were skipped.
// Samples are dropped while a read session is open.
func (e *Engine) Update(s Sample) error {
	if !e.writing {
		return nil
	}
	period := e.interval.Seconds()
	elapsed := s.Time - e.last.Time
	if e.last.Anchored && elapsed < period {
		return nil
	}
	if e.reader != nil {
		metrics.DatalogDroppedSamplesTotal.Inc()
		return nil
	}
	return e.append(s, !e.last.Anchored || elapsed > period, false)
}

// TimeChanged re-anchors the log after the device clock was set.
func (e *Engine) TimeChanged() error {
	if !e.writing || e.reader != nil {
		return nil
	}
	return e.append(e.m.Sample(), true, false)
}

// SetInterval changes the logging interval. Turning logging on opens a
// write session and turning it off closes it; the first entry logged under
// a new interval is a sync record.
func (e *Engine) SetInterval(iv Interval) error {
	if iv >= codec.IntervalCount {
		return fmt.Errorf("datalog: invalid interval %d", iv)
	}
	if iv == e.interval {
		return nil
	}
	if e.reader != nil {
		return ErrReadSessionOpen
	}
	was := e.interval
	e.interval = iv
	switch {
	case was.Enabled() && !iv.Enabled():
		return e.CloseWrite()
	case !was.Enabled() && iv.Enabled() && e.recovered:
		e.OpenWrite()
	}
	return nil
}

// ResetLog discards the log: the current page is closed as RESET, which
// hides it and every page before it from readers, and the history derived
// from the log is cleared. Pages are erased lazily as the writer reaches
// them. An open read session ends, and an open write session restarts.
func (e *Engine) ResetLog() error {
	if !e.recovered {
		return ErrNotRecovered
	}
	if e.reader != nil {
		e.reader.finish()
	}
	if err := e.rollPage(flash.PageReset); err != nil {
		return err
	}
	e.last = codec.State{}
	e.m.ResetHistory()
	log.Info("datalog: log reset, writing to page %d", e.head.Page)

	if e.writing {
		return e.append(e.m.Sample(), true, true)
	}
	return nil
}

func (e *Engine) atPageStart() bool {
	return e.head.Index == 0 && e.buf.Len() == 0
}

func (e *Engine) append(s Sample, forceSync, sessionStart bool) error {
	if !e.interval.Enabled() {
		return nil
	}
	sync := forceSync || sessionStart || !e.last.Anchored ||
		e.last.Interval != e.interval || e.atPageStart()
	entry := e.encode(s, sync, sessionStart)

	if !e.buf.Fits(e.head.Index, len(entry), e.region.DataSize()) {
		if err := e.rollPage(flash.PageFull); err != nil {
			return err
		}
		if !sync {
			sync = true
			entry = e.encode(s, true, sessionStart)
		}
	}

	e.buf.Append(entry)
	e.last = codec.State{Sample: s, Interval: e.interval, Anchored: true}
	if sessionStart {
		countEntry("session-start")
		entry = entry[1:]
	}
	if sync {
		countEntry("sync")
	} else {
		countEntry("delta" + strconv.Itoa(len(entry)))
	}

	if e.buf.Ready() {
		if err := e.flush(); err != nil {
			return err
		}
	}
	if e.listener != nil {
		e.listener(Record{Sample: s, SessionStart: sessionStart})
	}
	return nil
}

func (e *Engine) encode(s Sample, sync, sessionStart bool) []byte {
	var entry []byte
	if sessionStart {
		entry = codec.AppendSessionStart(entry)
	}
	if sync {
		return codec.AppendSync(entry, e.interval, s)
	}
	return codec.AppendDelta(entry, codec.PulseDelta(e.last.PulseCount, s.PulseCount))
}

func (e *Engine) flush() error {
	n, err := e.buf.Flush(e.region, e.head.Page, e.head.Index)
	e.head.Index += n
	return err
}

// rollPage programs the buffer, moves the write cursor to the next page,
// erasing it unless it is already blank, and closes the previous page with
// state. A single page region is only erased.
func (e *Engine) rollPage(state flash.PageState) error {
	if err := e.flush(); err != nil {
		return err
	}
	prev := e.head.Page
	e.head.AdvanceToNextPage()
	if err := e.prepareHead(); err != nil {
		return err
	}
	if e.head.Page == prev {
		return nil
	}
	return e.region.SetState(prev, state)
}

func (e *Engine) prepareHead() error {
	state, err := e.region.State(e.head.Page)
	if err != nil {
		return err
	}
	blank, err := e.region.IsBlank(e.head.Page, 0)
	if err != nil {
		return err
	}
	if state == flash.PageAvailable && blank {
		return nil
	}
	return e.region.Erase(e.head.Page)
}
