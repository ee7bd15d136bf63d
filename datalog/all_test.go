package datalog

import (
	"testing"

	. "gopkg.in/check.v1"

	"github.com/radpro/doselog/datalog/codec"
	"github.com/radpro/doselog/flash"
	"github.com/radpro/doselog/utils/test"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

var _ = Suite(&ScenarioTests{})

type ScenarioTests struct {
	region *flash.Region
	dev    *flash.MemoryDevice
	m      *test.Measurements
	e      *Engine
}

func (s *ScenarioTests) setup(c *C, pageSize, wordSize, pages int) {
	var err error
	s.region, s.dev, err = test.NewMemoryRegion(pageSize, wordSize, pages)
	c.Assert(err, IsNil)
	s.m = &test.Measurements{}
	s.e, err = New(s.region, s.m, codec.Interval1Min)
	c.Assert(err, IsNil)
	c.Assert(s.e.Recover(), IsNil)
}

func readAll(c *C, e *Engine) []Record {
	r, ok := e.OpenRead()
	c.Assert(ok, Equals, true)
	defer r.Close()
	var out []Record
	for {
		rec, ok := r.Next()
		if !ok {
			return out
		}
		out = append(out, rec)
	}
}

// Three samples one minute apart in a single page region.
func (s *ScenarioTests) TestSinglePageRoundTrip(c *C) {
	s.setup(c, 64, 8, 1)

	s.m.Set(1000, 5)
	c.Assert(s.e.OpenWrite(), Equals, true)
	c.Assert(s.e.Update(s.m.Set(1060, 5)), IsNil)
	c.Assert(s.e.Update(s.m.Set(1120, 9)), IsNil)

	c.Assert(readAll(c, s.e), DeepEquals, []Record{
		{Sample: Sample{Time: 1000, PulseCount: 5}, SessionStart: true},
		{Sample: Sample{Time: 1060, PulseCount: 5}},
		{Sample: Sample{Time: 1120, PulseCount: 9}},
	})

	page, err := s.dev.ReadPage(0)
	c.Assert(err, IsNil)
	c.Assert(page[:10], DeepEquals, []byte{0xf8, 0xf5, 0, 0, 0x03, 0xe8, 0, 0, 0, 5})
	c.Assert(page[16:18], DeepEquals, []byte{0x00, 0x04})
}

// A delta beyond 21 bits is stored in the 28-bit tier.
func (s *ScenarioTests) TestLargeDeltaUsesFourByteTier(c *C) {
	s.setup(c, 64, 8, 2)

	s.m.Set(1000, 100)
	c.Assert(s.e.OpenWrite(), Equals, true)
	c.Assert(s.e.Update(s.m.Set(1060, 2000100)), IsNil)
	c.Assert(s.e.CloseWrite(), IsNil)

	page, err := s.dev.ReadPage(0)
	c.Assert(err, IsNil)
	c.Assert(page[16:20], DeepEquals, []byte{0xe0, 0x1e, 0x84, 0x80})
	c.Assert(page[20:24], DeepEquals, []byte{0xfe, 0xfe, 0xfe, 0xfe})

	recs := readAll(c, s.e)
	c.Assert(recs, HasLen, 2)
	c.Assert(recs[1].Sample, Equals, Sample{Time: 1060, PulseCount: 2000100})
}

// Filling a page to its last data byte rolls the next entry onto the next
// page as a sync record, erasing that page first.
func (s *ScenarioTests) TestPageRollover(c *C) {
	var err error
	s.region, s.dev, err = test.NewMemoryRegion(64, 8, 2)
	c.Assert(err, IsNil)
	stale := codec.AppendSync(nil, codec.Interval1H, Sample{Time: 1, PulseCount: 1})
	stale = append(stale, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe)
	c.Assert(s.region.Program(1, 0, stale), IsNil)
	c.Assert(s.region.SetState(1, flash.PageFull), IsNil)
	s.m = &test.Measurements{}
	s.e, err = New(s.region, s.m, codec.Interval1Min)
	c.Assert(err, IsNil)
	c.Assert(s.e.Recover(), IsNil)

	// marker and sync take 10 bytes, padded to 16; 40 deltas fill the
	// remaining 40 bytes of the 56 byte data area
	s.m.Set(1000, 0)
	c.Assert(s.e.OpenWrite(), Equals, true)
	for i := uint32(1); i <= 40; i++ {
		c.Assert(s.e.Update(s.m.Set(1000+60*i, i)), IsNil)
	}
	c.Assert(s.e.Head(), Equals, flash.Iterator{Region: s.region, Page: 0, Index: 56})
	c.Assert(s.dev.EraseCount(1), Equals, 0)

	c.Assert(s.e.Update(s.m.Set(1000+60*41, 41)), IsNil)
	c.Assert(s.e.CloseWrite(), IsNil)

	state, err := s.region.State(0)
	c.Assert(err, IsNil)
	c.Assert(state, Equals, flash.PageFull)
	c.Assert(s.dev.EraseCount(1), Equals, 1)
	page, err := s.dev.ReadPage(1)
	c.Assert(err, IsNil)
	c.Assert(page[0], Equals, byte(0xf5))
	c.Assert(page[1:9], DeepEquals, []byte{0, 0, 0x0d, 0x84, 0, 0, 0, 41})

	recs := readAll(c, s.e)
	c.Assert(recs, HasLen, 42)
	c.Assert(recs[41], Equals, Record{Sample: Sample{Time: 3460, PulseCount: 41}})
	for i, rec := range recs {
		c.Assert(rec.PulseCount, Equals, uint32(i))
	}
}

// A reset hides everything logged before it and the next session starts
// a new session boundary.
func (s *ScenarioTests) TestResetMidSession(c *C) {
	s.setup(c, 64, 8, 4)

	s.m.Set(1000, 5)
	c.Assert(s.e.OpenWrite(), Equals, true)
	c.Assert(s.e.Update(s.m.Set(1060, 7)), IsNil)
	c.Assert(s.e.Update(s.m.Set(1120, 8)), IsNil)

	s.m.Set(1150, 9)
	c.Assert(s.e.ResetLog(), IsNil)
	c.Assert(s.m.Resets, Equals, 1)
	state, err := s.region.State(0)
	c.Assert(err, IsNil)
	c.Assert(state, Equals, flash.PageReset)

	c.Assert(s.e.Update(s.m.Set(1210, 12)), IsNil)
	c.Assert(readAll(c, s.e), DeepEquals, []Record{
		{Sample: Sample{Time: 1150, PulseCount: 9}, SessionStart: true},
		{Sample: Sample{Time: 1210, PulseCount: 12}},
	})
}

func (s *ScenarioTests) TestResetWhileNotLogging(c *C) {
	s.setup(c, 64, 8, 4)

	s.m.Set(1000, 5)
	c.Assert(s.e.OpenWrite(), Equals, true)
	c.Assert(s.e.CloseWrite(), IsNil)
	c.Assert(s.e.ResetLog(), IsNil)

	c.Assert(readAll(c, s.e), HasLen, 0)

	s.m.Set(2000, 50)
	c.Assert(s.e.OpenWrite(), Equals, true)
	c.Assert(readAll(c, s.e), DeepEquals, []Record{
		{Sample: Sample{Time: 2000, PulseCount: 50}, SessionStart: true},
	})
}
