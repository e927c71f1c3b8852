// Package buffer implements the fixed-capacity buffer pool: a bounded
// cache of device pages held in frames, evicted with CLOCK, handed out
// as pinned, lock-guarded references.
package buffer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"pagedstore/storage/diskmgr"
	"pagedstore/storelog"
)

// ErrNoFreeFrames is returned when every frame is pinned and the CLOCK
// sweep cannot find a victim.
var ErrNoFreeFrames = errors.New("buffer: no free frames")

// ErrIO wraps a failure returned by the underlying device.
type ErrIO struct {
	Err error
}

func (e *ErrIO) Error() string { return fmt.Sprintf("buffer: device error: %v", e.Err) }
func (e *ErrIO) Unwrap() error { return e.Err }

// frameID indexes into Pool.frames.
type frameID int32

const invalidFrame frameID = -1

// frame holds one cached page: its data under a dedicated lock,
// disjoint from the pool's own bookkeeping lock.
type frame struct {
	pageID    atomic.Uint32 // diskmgr.PageID of the resident page
	pinCount  atomic.Int32
	dirty     atomic.Bool
	dataMu    sync.RWMutex
	data      diskmgr.PageData
}

// Pool is the fixed-capacity buffer pool described by this package's
// doc comment. The zero value is not usable; construct with New.
type Pool struct {
	device   diskmgr.Device
	log      *zap.SugaredLogger
	capacity int
	frames   []*frame

	// poolMu protects pageTable, freeFrames, refBits and clockHand —
	// the pool's own bookkeeping, disjoint from any frame's data lock.
	poolMu     sync.RWMutex
	pageTable  map[diskmgr.PageID]frameID
	freeFrames []frameID
	refBits    []bool
	clockHand  int
}

// New builds a pool of the given frame capacity backed by device.
func New(device diskmgr.Device, capacity int) *Pool {
	if capacity <= 0 {
		panic("buffer: capacity must be positive")
	}
	p := &Pool{
		device:     device,
		log:        storelog.New("buffer"),
		capacity:   capacity,
		frames:     make([]*frame, capacity),
		pageTable:  make(map[diskmgr.PageID]frameID, capacity),
		freeFrames: make([]frameID, capacity),
		refBits:    make([]bool, capacity),
	}
	for i := 0; i < capacity; i++ {
		p.frames[i] = &frame{}
		p.freeFrames[i] = frameID(capacity - 1 - i)
	}
	return p
}
