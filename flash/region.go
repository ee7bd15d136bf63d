package flash

import (
	"fmt"

	"github.com/radpro/doselog/metrics"
)

// PageState is stored in the first byte of the footer word, the last
// program word of every page.
type PageState byte

const (
	PageFull      PageState = 0x00
	PageReset     PageState = 0x01
	PageAvailable PageState = 0xff
)

func (s PageState) String() string {
	switch s {
	case PageFull:
		return "FULL"
	case PageReset:
		return "RESET"
	case PageAvailable:
		return "AVAILABLE"
	}
	return fmt.Sprintf("UNKNOWN(0x%02x)", byte(s))
}

// Region is the half-open page range [Begin, End) of a device that holds
// a single circular log.
type Region struct {
	Dev   Device
	Begin int
	End   int
}

func NewRegion(dev Device, begin, end int) (*Region, error) {
	r := &Region{Dev: dev, Begin: begin, End: end}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Region) Validate() error {
	if r.Dev == nil || r.Begin < 0 || r.Begin >= r.End || r.End > r.Dev.PageCount() {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidRegion, r.Begin, r.End)
	}
	return nil
}

func (r *Region) Pages() int {
	return r.End - r.Begin
}

func (r *Region) WordSize() int {
	return r.Dev.WordSize()
}

// DataSize is the usable part of a page, everything but the footer word.
func (r *Region) DataSize() int {
	return r.Dev.PageSize() - r.Dev.WordSize()
}

func (r *Region) Contains(page int) bool {
	return page >= r.Begin && page < r.End
}

// Next returns the page after page in circular order.
func (r *Region) Next(page int) int {
	page++
	if page >= r.End {
		page = r.Begin
	}
	return page
}

// Prev returns the page before page in circular order.
func (r *Region) Prev(page int) int {
	if page <= r.Begin {
		return r.End - 1
	}
	return page - 1
}

func (r *Region) Read(page int) ([]byte, error) {
	if !r.Contains(page) {
		return nil, fmt.Errorf("%w: page %d outside region [%d, %d)", ErrOutOfRange, page, r.Begin, r.End)
	}
	return r.Dev.ReadPage(page)
}

// State decodes the footer of page.
func (r *Region) State(page int) (PageState, error) {
	b, err := r.Read(page)
	if err != nil {
		return 0, err
	}
	return PageState(b[r.DataSize()]), nil
}

// SetState programs the footer word of page. A footer can be written once
// per erase cycle, and AVAILABLE is only reached by erasing.
func (r *Region) SetState(page int, state PageState) error {
	if state == PageAvailable {
		return fmt.Errorf("flash: page %d cannot be marked %s, erase it instead", page, state)
	}
	if !r.Contains(page) {
		return fmt.Errorf("%w: page %d outside region [%d, %d)", ErrOutOfRange, page, r.Begin, r.End)
	}
	footer := make([]byte, r.WordSize())
	footer[0] = byte(state)
	if err := r.Dev.Program(page, r.DataSize(), footer); err != nil {
		return fmt.Errorf("mark page %d %s: %w", page, state, err)
	}
	metrics.FlashPageStatesTotal.WithLabelValues(state.String()).Inc()
	return nil
}

func (r *Region) Erase(page int) error {
	if !r.Contains(page) {
		return fmt.Errorf("%w: page %d outside region [%d, %d)", ErrOutOfRange, page, r.Begin, r.End)
	}
	if err := r.Dev.ErasePage(page); err != nil {
		return fmt.Errorf("erase page %d: %w", page, err)
	}
	metrics.FlashPageErasesTotal.Inc()
	return nil
}

// Program writes data into the data area of page.
func (r *Region) Program(page, offset int, data []byte) error {
	if !r.Contains(page) || offset+len(data) > r.DataSize() {
		return fmt.Errorf("%w: program page %d offset %d length %d", ErrOutOfRange, page, offset, len(data))
	}
	if err := r.Dev.Program(page, offset, data); err != nil {
		return fmt.Errorf("program page %d offset %d: %w", page, offset, err)
	}
	metrics.FlashProgrammedBytesTotal.Add(float64(len(data)))
	return nil
}

// IsBlank reports whether the data area of page is erased from offset on.
func (r *Region) IsBlank(page, offset int) (bool, error) {
	b, err := r.Read(page)
	if err != nil {
		return false, err
	}
	for _, v := range b[offset:r.DataSize()] {
		if v != Erased {
			return false, nil
		}
	}
	return true, nil
}

// HeadPage returns the first AVAILABLE page in region order. The boolean
// is false when every page is FULL or RESET.
func (r *Region) HeadPage() (int, bool, error) {
	for page := r.Begin; page < r.End; page++ {
		state, err := r.State(page)
		if err != nil {
			return 0, false, err
		}
		if state == PageAvailable {
			return page, true, nil
		}
	}
	return r.Begin, false, nil
}

// TailPage walks backward from head across FULL pages and returns the
// oldest page that still belongs to the log. RESET pages and erased pages
// stop the walk, and a region where no page precedes head yields head.
func (r *Region) TailPage(head int) (int, error) {
	tail := head
	for i := 1; i < r.Pages(); i++ {
		prev := r.Prev(tail)
		state, err := r.State(prev)
		if err != nil {
			return 0, err
		}
		if state != PageFull {
			break
		}
		tail = prev
	}
	return tail, nil
}

// Iterator is a cursor into a region: a page and a byte offset within the
// page's data area.
type Iterator struct {
	Region *Region
	Page   int
	Index  int
}

func (it *Iterator) AtPageStart() bool {
	return it.Index == 0
}

// Remaining is the number of data bytes left on the current page.
func (it *Iterator) Remaining() int {
	return it.Region.DataSize() - it.Index
}

// AdvanceToNextPage moves to the start of the next page, wrapping at the
// end of the region.
func (it *Iterator) AdvanceToNextPage() {
	it.Page = it.Region.Next(it.Page)
	it.Index = 0
}

func (it Iterator) String() string {
	return fmt.Sprintf("page %d offset %d", it.Page, it.Index)
}
