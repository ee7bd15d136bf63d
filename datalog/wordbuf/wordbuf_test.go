package wordbuf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type programCall struct {
	page, offset int
	data         []byte
}

type recordingProgrammer struct {
	calls []programCall
	err   error
}

func (p *recordingProgrammer) Program(page, offset int, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, programCall{page: page, offset: offset, data: append([]byte(nil), data...)})
	return nil
}

func TestRoundUp(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, RoundUp(0, 8))
	assert.Equal(t, 8, RoundUp(1, 8))
	assert.Equal(t, 8, RoundUp(8, 8))
	assert.Equal(t, 16, RoundUp(9, 8))
	assert.Equal(t, 10, RoundUp(9, 2))
}

func TestBufferFlushPads(t *testing.T) {
	t.Parallel()
	// --- given ---
	b := New(4)
	p := &recordingProgrammer{}
	b.Append([]byte{0x01, 0x02})
	assert.False(t, b.Ready())
	b.Append([]byte{0x03, 0x04, 0x05})
	assert.True(t, b.Ready())

	// --- when ---
	n, err := b.Flush(p, 3, 12)

	// --- then ---
	require.Nil(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, 0, b.Len())
	require.Len(t, p.calls, 1)
	assert.Equal(t, programCall{page: 3, offset: 12, data: []byte{1, 2, 3, 4, 5, 0xfe, 0xfe, 0xfe}}, p.calls[0])

	n, err = b.Flush(p, 3, 20)
	require.Nil(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, p.calls, 1, "an empty buffer programs nothing")
}

func TestBufferFlushErrorKeepsEntries(t *testing.T) {
	t.Parallel()
	b := New(2)
	b.Append([]byte{0x01})
	_, err := b.Flush(&recordingProgrammer{err: errors.New("worn out")}, 0, 0)
	assert.NotNil(t, err)
	assert.Equal(t, 2, b.Len())
}

func TestBufferFits(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		buffered int
		offset   int
		entry    int
		want     bool
	}{
		"ok/ empty buffer at page start":           {offset: 0, entry: 9, want: true},
		"ok/ exactly fills the data area":          {buffered: 3, offset: 16, entry: 5, want: true},
		"ng/ padding would cross the data area":    {buffered: 3, offset: 16, entry: 6, want: false},
		"ng/ one byte entry on a full page":        {offset: 24, entry: 1, want: false},
		"ok/ one byte entry in the last free word": {buffered: 7, offset: 16, entry: 1, want: true},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			b := New(8)
			b.Append(make([]byte, tt.buffered))
			assert.Equal(t, tt.want, b.Fits(tt.offset, tt.entry, 24))
		})
	}
}

func TestBufferCapacity(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 16, cap(New(2).Bytes()))
	assert.Equal(t, 64, cap(New(32).Bytes()))
}
