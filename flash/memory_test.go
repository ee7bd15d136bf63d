package flash

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDeviceProgram(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		offset  int
		data    []byte
		prepare func(t *testing.T, d *MemoryDevice)
		wantErr error
	}{
		"ok/ word aligned write into erased page": {
			offset: 4,
			data:   []byte{1, 2, 3, 4},
		},
		"ng/ unaligned offset": {
			offset:  2,
			data:    []byte{1, 2, 3, 4},
			wantErr: ErrUnaligned,
		},
		"ng/ partial word": {
			offset:  0,
			data:    []byte{1, 2},
			wantErr: ErrUnaligned,
		},
		"ng/ past the end of the page": {
			offset:  28,
			data:    []byte{1, 2, 3, 4, 5, 6, 7, 8},
			wantErr: ErrOutOfRange,
		},
		"ng/ programming twice without erase": {
			offset: 8,
			data:   []byte{0, 0, 0, 0},
			prepare: func(t *testing.T, d *MemoryDevice) {
				require.Nil(t, d.Program(0, 8, []byte{0xfe, 0xff, 0xff, 0xff}))
			},
			wantErr: ErrNotErased,
		},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			// --- given ---
			d, err := NewMemoryDevice(32, 4, 2)
			require.Nil(t, err)
			if tt.prepare != nil {
				tt.prepare(t, d)
			}

			// --- when ---
			err = d.Program(0, tt.offset, tt.data)

			// --- then ---
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.Nil(t, err)
			page, err := d.ReadPage(0)
			require.Nil(t, err)
			assert.Equal(t, tt.data, page[tt.offset:tt.offset+len(tt.data)])
		})
	}
}

func TestMemoryDeviceErase(t *testing.T) {
	t.Parallel()
	d, err := NewMemoryDevice(16, 2, 3)
	require.Nil(t, err)

	require.Nil(t, d.Program(1, 0, []byte{0, 0}))
	require.Nil(t, d.ErasePage(1))
	require.Nil(t, d.ErasePage(1))

	page, err := d.ReadPage(1)
	require.Nil(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xff}, 16), page)
	assert.Equal(t, 2, d.EraseCount(1))
	assert.Equal(t, 0, d.EraseCount(0))
	assert.Equal(t, 2, d.TotalErases())

	assert.True(t, errors.Is(d.ErasePage(3), ErrOutOfRange))
	_, err = d.ReadPage(-1)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestMemoryDeviceReadIsACopy(t *testing.T) {
	t.Parallel()
	d, err := NewMemoryDevice(8, 2, 1)
	require.Nil(t, err)

	page, _ := d.ReadPage(0)
	page[0] = 0
	again, _ := d.ReadPage(0)
	assert.Equal(t, byte(0xff), again[0])
}

func TestNewMemoryDeviceGeometry(t *testing.T) {
	t.Parallel()
	_, err := NewMemoryDevice(10, 4, 1)
	assert.NotNil(t, err)
	_, err = NewMemoryDevice(4, 4, 1)
	assert.NotNil(t, err)
	_, err = NewMemoryDevice(16, 4, 0)
	assert.NotNil(t, err)
}

func TestImageDevicePersists(t *testing.T) {
	t.Parallel()
	path := t.TempDir() + "/flash.img"

	d, err := OpenImage(path, 16, 4, 4)
	require.Nil(t, err)
	require.Nil(t, d.Program(2, 4, []byte{1, 2, 3, 4}))
	require.Nil(t, d.ErasePage(1))
	require.Nil(t, d.Close())

	d, err = OpenImage(path, 16, 4, 4)
	require.Nil(t, err)
	defer d.Close()
	page, err := d.ReadPage(2)
	require.Nil(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, page[4:8])
	assert.Equal(t, byte(0xff), page[0])

	_, err = OpenImage(path, 16, 4, 8)
	assert.NotNil(t, err)
}
