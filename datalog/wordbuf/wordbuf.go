// Package wordbuf batches encoded entries so that flash is only ever
// programmed in whole words.
package wordbuf

import (
	"github.com/radpro/doselog/datalog/codec"
)

const minCapacity = 16

// Programmer writes data at a word aligned offset of a page.
type Programmer interface {
	Program(page, offset int, data []byte) error
}

// Buffer holds entries that have been accepted but not yet programmed. An
// entry is never split across two flushes, so a reader never finds half of
// an entry on flash.
type Buffer struct {
	wordSize int
	buf      []byte
}

func New(wordSize int) *Buffer {
	capacity := 2 * wordSize
	if capacity < minCapacity {
		capacity = minCapacity
	}
	return &Buffer{
		wordSize: wordSize,
		buf:      make([]byte, 0, capacity),
	}
}

func (b *Buffer) Len() int {
	return len(b.buf)
}

func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Ready reports whether at least one whole word is waiting.
func (b *Buffer) Ready() bool {
	return len(b.buf) >= b.wordSize
}

// Fits reports whether an entry of n bytes can still be buffered when the
// buffer will be programmed at offset of a page whose data area ends at
// limit, counting the padding of the last word.
func (b *Buffer) Fits(offset, n, limit int) bool {
	return offset+RoundUp(len(b.buf)+n, b.wordSize) <= limit
}

func (b *Buffer) Append(entry []byte) {
	b.buf = append(b.buf, entry...)
}

// Flush programs the buffered entries at offset, padded with filler bytes
// up to the next word boundary, and returns the number of bytes programmed.
func (b *Buffer) Flush(p Programmer, page, offset int) (int, error) {
	if len(b.buf) == 0 {
		return 0, nil
	}
	n := RoundUp(len(b.buf), b.wordSize)
	for len(b.buf) < n {
		b.buf = append(b.buf, codec.Padding)
	}
	if err := p.Program(page, offset, b.buf); err != nil {
		return 0, err
	}
	b.buf = b.buf[:0]
	return n, nil
}

// Reset drops the buffered entries.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}

// RoundUp rounds n up to a multiple of word.
func RoundUp(n, word int) int {
	return (n + word - 1) / word * word
}
