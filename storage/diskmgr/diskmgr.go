// Package diskmgr implements the block device abstraction: fixed-size
// page storage addressed by a dense PageID, with in-memory and
// file-backed implementations.
package diskmgr

import "fmt"

// PageSize is the fixed size, in bytes, of every page handled by this
// module. Every persistent structure in the storage core is laid out
// inside exactly one PageData.
const PageSize = 4096

// PageData is one page's worth of bytes.
type PageData = [PageSize]byte

// PageID identifies a page. InvalidPageID is the reserved sentinel;
// valid ids are dense and start at 0.
type PageID uint32

// InvalidPageID is never returned by Allocate and never refers to a
// real page.
const InvalidPageID PageID = 0xFFFFFFFF

func (id PageID) String() string {
	if id == InvalidPageID {
		return "PageID(invalid)"
	}
	return fmt.Sprintf("PageID(%d)", uint32(id))
}

// Device is the abstract fixed-size-page random-access store. All
// reads and writes are whole-page; implementations are free to be
// in-memory or backed by a file.
type Device interface {
	// Allocate returns a fresh PageID, strictly larger than any id
	// previously returned, and grows the logical page count by one.
	// The new page's contents are unspecified until the first write.
	Allocate() (PageID, error)

	// ReadPage copies the stored bytes of id into buf.
	ReadPage(id PageID, buf *PageData) error

	// WritePage durably records buf as the new contents of id.
	WritePage(id PageID, buf *PageData) error

	// PageCount returns the number of pages allocated so far.
	PageCount() uint32
}

// IOError wraps a backend failure so callers can tell a device error
// apart from other failure kinds while still seeing the underlying
// cause via errors.Unwrap.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("diskmgr: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
