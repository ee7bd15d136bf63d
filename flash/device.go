// Package flash models NOR flash as the datalog sees it: fixed-size pages
// that are erased as a whole and programmed one word at a time. Programming
// can only clear bits, so a word must be erased (all 0xff) before it is
// written again.
package flash

import (
	"errors"
	"fmt"
)

// Erased is the value of every byte of a freshly erased page.
const Erased = 0xff

var (
	ErrOutOfRange    = errors.New("flash: page or offset out of range")
	ErrUnaligned     = errors.New("flash: program is not word aligned")
	ErrNotErased     = errors.New("flash: program target is not erased")
	ErrInvalidRegion = errors.New("flash: invalid region")
)

// Device is the raw page accessor.
type Device interface {
	PageSize() int
	WordSize() int
	PageCount() int
	// ReadPage returns a copy of the page, footer included.
	ReadPage(page int) ([]byte, error)
	ErasePage(page int) error
	// Program writes data at offset within page. Both the offset and the
	// length must be multiples of the word size.
	Program(page, offset int, data []byte) error
}

type geometry struct {
	pageSize  int
	wordSize  int
	pageCount int
}

func (g geometry) PageSize() int  { return g.pageSize }
func (g geometry) WordSize() int  { return g.wordSize }
func (g geometry) PageCount() int { return g.pageCount }

func newGeometry(pageSize, wordSize, pageCount int) (geometry, error) {
	if wordSize <= 0 || pageSize <= wordSize || pageSize%wordSize != 0 || pageCount <= 0 {
		return geometry{}, fmt.Errorf("flash: invalid geometry page=%d word=%d pages=%d",
			pageSize, wordSize, pageCount)
	}
	return geometry{pageSize: pageSize, wordSize: wordSize, pageCount: pageCount}, nil
}

func (g geometry) checkPage(page int) error {
	if page < 0 || page >= g.pageCount {
		return fmt.Errorf("%w: page %d of %d", ErrOutOfRange, page, g.pageCount)
	}
	return nil
}

// checkProgram validates a program request against the page contents.
func (g geometry) checkProgram(contents []byte, offset int, data []byte) error {
	if offset < 0 || offset+len(data) > g.pageSize {
		return fmt.Errorf("%w: offset %d length %d", ErrOutOfRange, offset, len(data))
	}
	if offset%g.wordSize != 0 || len(data)%g.wordSize != 0 {
		return fmt.Errorf("%w: offset %d length %d word %d", ErrUnaligned, offset, len(data), g.wordSize)
	}
	for i := range data {
		if contents[offset+i] != Erased {
			return fmt.Errorf("%w: byte %d", ErrNotErased, offset+i)
		}
	}
	return nil
}
