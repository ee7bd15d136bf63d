package flash

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/radpro/doselog/utils/log"
)

type fileLike interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
}

// ImageDevice is a flash device persisted to an image file, one page after
// another. The image is kept in memory and every erase or program is
// written through to the file, so the file always holds what the flash
// would hold after a power loss.
type ImageDevice struct {
	*MemoryDevice
	fp   fileLike
	path string
}

// OpenImage opens the flash image at path, creating an erased image when
// the file does not exist yet.
func OpenImage(path string, pageSize, wordSize, pageCount int) (*ImageDevice, error) {
	mem, err := NewMemoryDevice(pageSize, wordSize, pageCount)
	if err != nil {
		return nil, err
	}
	fp, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, errors.Wrap(err, "open flash image")
	}
	fi, err := fp.Stat()
	if err != nil {
		_ = fp.Close()
		return nil, errors.Wrap(err, "stat flash image")
	}

	d := &ImageDevice{MemoryDevice: mem, fp: fp, path: path}
	size := int64(pageSize * pageCount)
	switch fi.Size() {
	case 0:
		log.Info("creating erased flash image %s (%d pages of %d bytes)", path, pageCount, pageSize)
		if _, err = fp.WriteAt(mem.Image(), 0); err != nil {
			_ = fp.Close()
			return nil, errors.Wrap(err, "initialize flash image")
		}
	case size:
		image := make([]byte, size)
		if _, err = fp.ReadAt(image, 0); err != nil {
			_ = fp.Close()
			return nil, errors.Wrap(err, "read flash image")
		}
		if err = mem.Load(image); err != nil {
			_ = fp.Close()
			return nil, err
		}
	default:
		_ = fp.Close()
		return nil, errors.Errorf("flash image %s has %d bytes, expected %d", path, fi.Size(), size)
	}
	return d, nil
}

func (d *ImageDevice) ErasePage(page int) error {
	if err := d.MemoryDevice.ErasePage(page); err != nil {
		return err
	}
	return d.writeThrough(page, 0, d.pages[page])
}

func (d *ImageDevice) Program(page, offset int, data []byte) error {
	if err := d.MemoryDevice.Program(page, offset, data); err != nil {
		return err
	}
	return d.writeThrough(page, offset, data)
}

func (d *ImageDevice) writeThrough(page, offset int, data []byte) error {
	pos := int64(page)*int64(d.pageSize) + int64(offset)
	if _, err := d.fp.WriteAt(data, pos); err != nil {
		return errors.Wrapf(err, "write flash image %s at %d", d.path, pos)
	}
	return nil
}

func (d *ImageDevice) Path() string {
	return d.path
}

func (d *ImageDevice) Close() error {
	return d.fp.Close()
}
