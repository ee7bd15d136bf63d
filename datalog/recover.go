package datalog

import (
	"github.com/radpro/doselog/datalog/codec"
	"github.com/radpro/doselog/datalog/wordbuf"
	"github.com/radpro/doselog/flash"
	"github.com/radpro/doselog/utils/log"
)

// Recover finds the write cursor and the last logged sample after boot.
//
// The head is the first AVAILABLE page in region order; its entries are
// decoded forward up to the first erased byte, and the cursor is placed on
// the next word boundary. If no page is AVAILABLE the region is in a state
// the writer can never leave on its own, so the first page is erased and
// becomes the head. A head page with non-erased bytes after the cursor was
// interrupted mid-write and is closed as FULL.
//
// The last sample is taken from the head page, or from the newest FULL page
// before it when the head page holds no sync record yet.
func (e *Engine) Recover() error {
	e.writing = false
	e.reader = nil
	e.buf.Reset()

	head, ok, err := e.region.HeadPage()
	if err != nil {
		return err
	}
	if !ok {
		log.Warn("datalog: no available page in region [%d, %d), erasing page %d",
			e.region.Begin, e.region.End, head)
		if err = e.region.Erase(head); err != nil {
			return err
		}
	}
	e.head = flash.Iterator{Region: e.region, Page: head}

	st, end, err := e.scanPage(head)
	if err != nil {
		return err
	}
	e.last = st
	e.head.Index = wordbuf.RoundUp(end, e.region.WordSize())

	blank, err := e.region.IsBlank(head, e.head.Index)
	if err != nil {
		return err
	}
	if !blank {
		log.Warn("datalog: page %d holds unreadable data after offset %d, closing it", head, end)
		if err = e.rollPage(flash.PageFull); err != nil {
			return err
		}
	}

	if !e.last.Anchored {
		if e.last, err = e.lastBefore(head); err != nil {
			return err
		}
	}
	e.recovered = true

	log.Info("datalog: recovered write cursor at %v, last sample %+v (valid %v)",
		e.head, e.last.Sample, e.last.Anchored)
	return nil
}

// scanPage decodes page from its start and returns the decoder state and
// the offset where decoding stopped.
func (e *Engine) scanPage(page int) (codec.State, int, error) {
	var st codec.State
	b, err := e.region.Read(page)
	if err != nil {
		return st, 0, err
	}
	data := b[:e.region.DataSize()]
	off := 0
	for off < len(data) {
		kind, n := codec.Decode(data[off:], &st)
		if kind == codec.KindEnd || kind == codec.KindTruncated {
			break
		}
		off += n
	}
	return st, off, nil
}

// lastBefore walks backward from page across FULL pages and returns the
// state after the last entry of the newest page holding a sync record.
func (e *Engine) lastBefore(page int) (codec.State, error) {
	for i := 1; i < e.region.Pages(); i++ {
		page = e.region.Prev(page)
		state, err := e.region.State(page)
		if err != nil {
			return codec.State{}, err
		}
		if state != flash.PageFull {
			break
		}
		st, _, err := e.scanPage(page)
		if err != nil {
			return codec.State{}, err
		}
		if st.Anchored {
			return st, nil
		}
	}
	return codec.State{}, nil
}
