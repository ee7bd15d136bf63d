package flash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegion(t *testing.T, begin, end int) (*Region, *MemoryDevice) {
	t.Helper()
	d, err := NewMemoryDevice(32, 4, 8)
	require.Nil(t, err)
	r, err := NewRegion(d, begin, end)
	require.Nil(t, err)
	return r, d
}

func TestRegionValidate(t *testing.T) {
	t.Parallel()
	d, err := NewMemoryDevice(32, 4, 8)
	require.Nil(t, err)

	_, err = NewRegion(d, 2, 2)
	assert.ErrorIs(t, err, ErrInvalidRegion)
	_, err = NewRegion(d, 0, 9)
	assert.ErrorIs(t, err, ErrInvalidRegion)
	_, err = NewRegion(nil, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidRegion)
}

func TestRegionCircularOrder(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegion(t, 2, 5)

	assert.Equal(t, 3, r.Pages())
	assert.Equal(t, 28, r.DataSize())
	assert.Equal(t, 3, r.Next(2))
	assert.Equal(t, 2, r.Next(4))
	assert.Equal(t, 4, r.Prev(2))
	assert.Equal(t, 3, r.Prev(4))

	it := Iterator{Region: r, Page: 4, Index: 12}
	it.AdvanceToNextPage()
	assert.Equal(t, 2, it.Page)
	assert.True(t, it.AtPageStart())
	assert.Equal(t, 28, it.Remaining())
}

func TestRegionStates(t *testing.T) {
	t.Parallel()
	r, d := newTestRegion(t, 0, 4)

	state, err := r.State(1)
	require.Nil(t, err)
	assert.Equal(t, PageAvailable, state)

	require.Nil(t, r.SetState(1, PageFull))
	require.Nil(t, r.SetState(2, PageReset))
	state, _ = r.State(1)
	assert.Equal(t, PageFull, state)
	state, _ = r.State(2)
	assert.Equal(t, PageReset, state)

	page, _ := d.ReadPage(2)
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, page[28:])

	assert.NotNil(t, r.SetState(1, PageReset), "footer can only be written once per erase")
	assert.NotNil(t, r.SetState(3, PageAvailable))

	require.Nil(t, r.Erase(1))
	state, _ = r.State(1)
	assert.Equal(t, PageAvailable, state)
	assert.Equal(t, "RESET", PageReset.String())
	assert.Equal(t, "UNKNOWN(0x42)", PageState(0x42).String())
}

func TestRegionIsBlank(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegion(t, 0, 2)

	blank, err := r.IsBlank(0, 0)
	require.Nil(t, err)
	assert.True(t, blank)

	require.Nil(t, r.Program(0, 8, []byte{0x10, 0xfe, 0xfe, 0xfe}))
	blank, _ = r.IsBlank(0, 0)
	assert.False(t, blank)
	blank, _ = r.IsBlank(0, 12)
	assert.True(t, blank)

	// the footer is not part of the data area
	require.Nil(t, r.SetState(1, PageFull))
	blank, _ = r.IsBlank(1, 0)
	assert.True(t, blank)

	assert.NotNil(t, r.Program(0, 28, []byte{0, 0, 0, 0}))
}

func TestRegionHeadPage(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegion(t, 1, 4)

	head, ok, err := r.HeadPage()
	require.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, head)

	require.Nil(t, r.SetState(1, PageFull))
	head, ok, _ = r.HeadPage()
	assert.True(t, ok)
	assert.Equal(t, 2, head)

	require.Nil(t, r.SetState(2, PageReset))
	require.Nil(t, r.SetState(3, PageFull))
	head, ok, _ = r.HeadPage()
	assert.False(t, ok)
	assert.Equal(t, 1, head)
}

func TestRegionTailPage(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		states   map[int]PageState
		head     int
		wantTail int
	}{
		"ok/ empty region degenerates to the head": {
			head:     0,
			wantTail: 0,
		},
		"ok/ walks back over full pages": {
			states:   map[int]PageState{1: PageFull, 2: PageFull},
			head:     3,
			wantTail: 1,
		},
		"ok/ wraps around the region start": {
			states:   map[int]PageState{0: PageFull, 3: PageFull, 4: PageFull},
			head:     1,
			wantTail: 3,
		},
		"ok/ stops at a reset page": {
			states:   map[int]PageState{0: PageFull, 1: PageReset, 2: PageFull},
			head:     3,
			wantTail: 2,
		},
		"ok/ never walks past the head": {
			states:   map[int]PageState{0: PageFull, 1: PageFull, 3: PageFull, 4: PageFull},
			head:     2,
			wantTail: 3,
		},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			// --- given ---
			r, _ := newTestRegion(t, 0, 5)
			for page, state := range tt.states {
				require.Nil(t, r.SetState(page, state))
			}

			// --- when ---
			tail, err := r.TailPage(tt.head)
			require.Nil(t, err)
			again, err := r.TailPage(tt.head)
			require.Nil(t, err)

			// --- then ---
			assert.Equal(t, tt.wantTail, tail)
			assert.Equal(t, tail, again)
		})
	}
}
