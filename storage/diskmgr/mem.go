package diskmgr

import (
	"fmt"
	"sync"

	"github.com/dsnet/golib/memfile"
)

// MemDevice is an in-memory Device, backed by a growable byte slice
// wrapped in a memfile.File. It never touches disk; useful for tests
// and for callers that want a pure in-process engine.
type MemDevice struct {
	mu     sync.Mutex
	backed []byte
	file   *memfile.File
	pages  uint32
}

// NewMemDevice returns an empty in-memory device with no pages
// allocated yet.
func NewMemDevice() *MemDevice {
	d := &MemDevice{}
	d.file = memfile.New(d.backed)
	return d
}

func (d *MemDevice) Allocate() (PageID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := PageID(d.pages)
	d.backed = append(d.backed, make([]byte, PageSize)...)
	d.file = memfile.New(d.backed)
	d.pages++
	return id, nil
}

func (d *MemDevice) ReadPage(id PageID, buf *PageData) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if uint32(id) >= d.pages {
		return &IOError{Op: "ReadPage", Err: fmt.Errorf("page %s out of range (have %d pages)", id, d.pages)}
	}
	off := int64(id) * PageSize
	if _, err := d.file.ReadAt(buf[:], off); err != nil {
		return &IOError{Op: "ReadPage", Err: err}
	}
	return nil
}

func (d *MemDevice) WritePage(id PageID, buf *PageData) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if uint32(id) >= d.pages {
		return &IOError{Op: "WritePage", Err: fmt.Errorf("page %s out of range (have %d pages)", id, d.pages)}
	}
	off := int64(id) * PageSize
	if _, err := d.file.WriteAt(buf[:], off); err != nil {
		return &IOError{Op: "WritePage", Err: err}
	}
	return nil
}

func (d *MemDevice) PageCount() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pages
}
