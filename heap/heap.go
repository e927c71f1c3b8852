// Package heap implements a table heap: an append-only chain of
// slotted pages linked by a next-page-id stored in each page's
// metadata trailer. It is the slotted page's second consumer,
// alongside the B-tree, and needs none of the B-tree's ordering or
// splitting — only "does this tuple fit, and if not, where's the next
// page".
package heap

import (
	"encoding/binary"
	"fmt"

	"pagedstore/storage/buffer"
	"pagedstore/storage/diskmgr"
	"pagedstore/storage/page"
)

// metadataSize is the size of a heap page's trailer: just the next
// page's id, or diskmgr.InvalidPageID for the last page in the chain.
const metadataSize = 4

// Heap is a handle to a table heap rooted at a fixed first page.
type Heap struct {
	pool      *buffer.Pool
	firstPage diskmgr.PageID
}

// New allocates a single empty page as the heap's first (and, for
// now, only) page.
func New(pool *buffer.Pool) (*Heap, error) {
	pp, err := pool.AllocatePage()
	if err != nil {
		return nil, err
	}
	wg := pp.Write()
	page.New(wg.Data()[:], encodeNextPageID(diskmgr.InvalidPageID))
	pp.MarkDirty()
	wg.Release()

	return &Heap{pool: pool, firstPage: pp.ID()}, nil
}

// Open wraps an existing heap whose first page id is already known.
func Open(pool *buffer.Pool, firstPage diskmgr.PageID) *Heap {
	return &Heap{pool: pool, firstPage: firstPage}
}

// FirstPage returns the id of the heap's first page, for callers that
// need to persist it alongside other catalog metadata.
func (h *Heap) FirstPage() diskmgr.PageID {
	return h.firstPage
}

func encodeNextPageID(id diskmgr.PageID) []byte {
	var b [metadataSize]byte
	binary.LittleEndian.PutUint32(b[:], uint32(id))
	return b[:]
}

func decodeNextPageID(b []byte) diskmgr.PageID {
	return diskmgr.PageID(binary.LittleEndian.Uint32(b))
}

// InsertTuple walks the chain from the first page and stores tuple on
// the first page with room for it, allocating and linking a new page
// when the last page in the chain is full too.
func (h *Heap) InsertTuple(tuple []byte) error {
	id := h.firstPage
	for {
		pp, err := h.pool.GetPage(id)
		if err != nil {
			return err
		}
		wg := pp.Write()
		node, err := page.FromExisting(wg.Data()[:], metadataSize)
		if err != nil {
			wg.Release()
			return fmt.Errorf("heap: page %s corrupt: %w", id, err)
		}

		next := decodeNextPageID(node.Metadata())
		err = node.InsertTuple(tuple)
		if err == nil {
			pp.MarkDirty()
			wg.Release()
			return nil
		}
		if err != page.ErrPageFull {
			wg.Release()
			return err
		}

		if next != diskmgr.InvalidPageID {
			wg.Release()
			id = next
			continue
		}

		newPP, err := h.pool.AllocatePage()
		if err != nil {
			wg.Release()
			return err
		}
		newWG := newPP.Write()
		page.New(newWG.Data()[:], encodeNextPageID(diskmgr.InvalidPageID))
		newPP.MarkDirty()
		newWG.Release()

		node.SetMetadata(encodeNextPageID(newPP.ID()))
		pp.MarkDirty()
		wg.Release()

		id = newPP.ID()
	}
}

// Scan calls fn with every live tuple in the heap, in page-chain
// order, stopping early if fn returns false.
func (h *Heap) Scan(fn func(tuple []byte) bool) error {
	id := h.firstPage
	for id != diskmgr.InvalidPageID {
		pp, err := h.pool.GetPage(id)
		if err != nil {
			return err
		}
		rg := pp.Read()
		node, err := page.FromExisting(rg.Data()[:], metadataSize)
		if err != nil {
			rg.Release()
			return fmt.Errorf("heap: page %s corrupt: %w", id, err)
		}

		for i := 0; i < node.TupleCount(); i++ {
			tuple := node.GetTuple(i)
			if tuple == nil {
				continue
			}
			if !fn(tuple) {
				rg.Release()
				return nil
			}
		}

		next := decodeNextPageID(node.Metadata())
		rg.Release()
		id = next
	}
	return nil
}
