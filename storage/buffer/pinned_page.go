package buffer

import (
	"sync/atomic"

	"pagedstore/storage/diskmgr"
)

// PinnedPage is a pinned reference to a resident frame. It guarantees
// the frame will not be rebound to a different page while the pin is
// held. A PinnedPage must be consumed exactly once, either by Unpin
// (no data access needed) or by Read/Write (data access needed, the
// pin's lifetime transfers to the returned guard). Consuming it twice
// is a programming error and panics, mirroring the "a pinned handle
// must not be consumed twice" invariant this package is built to.
type PinnedPage struct {
	pool    *Pool
	frame   *frame
	id      diskmgr.PageID
	fid     frameID
	consumed atomic.Bool
}

func (p *PinnedPage) take() {
	if !p.consumed.CompareAndSwap(false, true) {
		panic("buffer: pinned handle consumed twice")
	}
}

// ID returns the page id this handle is pinned to.
func (p *PinnedPage) ID() diskmgr.PageID {
	return p.id
}

// MarkDirty records that the page's bytes have been (or are about to
// be) modified, so eviction writes them back before rebinding the
// frame. It does not consume the handle and may be called any number
// of times, including from inside a Write guard's critical section.
func (p *PinnedPage) MarkDirty() {
	p.frame.dirty.Store(true)
}

// Unpin releases the pin without taking a data-access guard, for
// callers that only needed the page's id (e.g. reading a pivot
// downlink during descent).
func (p *PinnedPage) Unpin() {
	p.take()
	p.pool.unpin(p.fid)
}

// ReadGuard holds a read lock over a frame's bytes and the pin that
// was transferred into it. Release must be called exactly once.
type ReadGuard struct {
	pool *Pool
	frame *frame
	fid  frameID
	released atomic.Bool
}

// Data returns the frame's bytes for reading. The slice is only valid
// until Release is called.
func (g *ReadGuard) Data() *diskmgr.PageData {
	return &g.frame.data
}

func (g *ReadGuard) Release() {
	if !g.released.CompareAndSwap(false, true) {
		panic("buffer: read guard released twice")
	}
	g.frame.dataMu.RUnlock()
	g.pool.unpin(g.fid)
}

// WriteGuard holds a write lock over a frame's bytes and the pin that
// was transferred into it. Release must be called exactly once.
type WriteGuard struct {
	pool *Pool
	frame *frame
	fid  frameID
	released atomic.Bool
}

// Data returns the frame's bytes for reading and writing. The slice is
// only valid until Release is called.
func (g *WriteGuard) Data() *diskmgr.PageData {
	return &g.frame.data
}

func (g *WriteGuard) Release() {
	if !g.released.CompareAndSwap(false, true) {
		panic("buffer: write guard released twice")
	}
	g.frame.dataMu.Unlock()
	g.pool.unpin(g.fid)
}

// Read consumes the pin and returns a guard holding a read lock over
// the frame's bytes.
func (p *PinnedPage) Read() *ReadGuard {
	p.take()
	p.frame.dataMu.RLock()
	return &ReadGuard{pool: p.pool, frame: p.frame, fid: p.fid}
}

// Write consumes the pin and returns a guard holding a write lock over
// the frame's bytes.
func (p *PinnedPage) Write() *WriteGuard {
	p.take()
	p.frame.dataMu.Lock()
	return &WriteGuard{pool: p.pool, frame: p.frame, fid: p.fid}
}
