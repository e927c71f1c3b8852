package buffer

import (
	"pagedstore/storage/diskmgr"
)

// unpin atomically decrements a frame's pin count. It is the single
// point every PinnedPage/guard funnels through on release.
func (p *Pool) unpin(fid frameID) {
	f := p.frames[fid]
	f.pinCount.Add(-1)
}

// AllocatePage asks the device for a fresh page, binds it to a frame
// (evicting if necessary), zero-fills it, and returns it pinned.
func (p *Pool) AllocatePage() (*PinnedPage, error) {
	id, err := p.device.Allocate()
	if err != nil {
		return nil, &ErrIO{Err: err}
	}

	p.poolMu.Lock()
	defer p.poolMu.Unlock()

	fid, err := p.getFreeFrameLocked()
	if err != nil {
		return nil, err
	}

	f := p.frames[fid]
	f.data = diskmgr.PageData{}
	f.dirty.Store(false)
	f.pinCount.Store(1)
	f.pageID.Store(uint32(id))

	p.pageTable[id] = fid
	p.refBits[fid] = true

	p.log.Debugf("allocated page %s in frame %d", id, fid)
	return &PinnedPage{pool: p, frame: f, id: id, fid: fid}, nil
}

// GetPage returns a pinned reference to id, fetching it from the
// device on a cache miss.
func (p *Pool) GetPage(id diskmgr.PageID) (*PinnedPage, error) {
	// Fast path: read-lock hit.
	p.poolMu.RLock()
	if fid, ok := p.pageTable[id]; ok {
		f := p.frames[fid]
		old := f.pinCount.Add(1) - 1
		p.poolMu.RUnlock()
		if old == 0 {
			p.poolMu.Lock()
			p.refBits[fid] = true
			p.poolMu.Unlock()
		}
		return &PinnedPage{pool: p, frame: f, id: id, fid: fid}, nil
	}
	p.poolMu.RUnlock()

	// Miss path: write-lock, re-check, then install.
	p.poolMu.Lock()
	defer p.poolMu.Unlock()

	if fid, ok := p.pageTable[id]; ok {
		f := p.frames[fid]
		f.pinCount.Add(1)
		p.refBits[fid] = true
		return &PinnedPage{pool: p, frame: f, id: id, fid: fid}, nil
	}

	fid, err := p.getFreeFrameLocked()
	if err != nil {
		return nil, err
	}

	f := p.frames[fid]
	if err := p.device.ReadPage(id, &f.data); err != nil {
		// Frame is unbound (not yet in pageTable); return it to the
		// free list rather than leaving it in limbo.
		p.freeFrames = append(p.freeFrames, fid)
		return nil, &ErrIO{Err: err}
	}
	f.dirty.Store(false)
	f.pinCount.Store(1)
	f.pageID.Store(uint32(id))

	p.pageTable[id] = fid
	p.refBits[fid] = true

	p.log.Debugf("fetched page %s into frame %d", id, fid)
	return &PinnedPage{pool: p, frame: f, id: id, fid: fid}, nil
}

// getFreeFrameLocked returns a frame ready to be bound to a new page,
// popping the free list first and falling back to CLOCK eviction.
// Caller must hold poolMu in write mode.
func (p *Pool) getFreeFrameLocked() (frameID, error) {
	if n := len(p.freeFrames); n > 0 {
		fid := p.freeFrames[n-1]
		p.freeFrames = p.freeFrames[:n-1]
		return fid, nil
	}

	fid, err := p.findVictimLocked()
	if err != nil {
		return invalidFrame, err
	}

	f := p.frames[fid]
	if f.dirty.Load() {
		oldID := diskmgr.PageID(f.pageID.Load())
		if err := p.device.WritePage(oldID, &f.data); err != nil {
			return invalidFrame, &ErrIO{Err: err}
		}
		f.dirty.Store(false)
		p.log.Debugf("wrote back dirty page %s before eviction", oldID)
	}
	delete(p.pageTable, diskmgr.PageID(f.pageID.Load()))
	return fid, nil
}

// findVictimLocked sweeps at most 2*capacity frames looking for an
// unpinned frame, clearing reference bits on frames it passes over on
// the way. Caller must hold poolMu in write mode.
func (p *Pool) findVictimLocked() (frameID, error) {
	steps := p.capacity * 2
	for i := 0; i < steps; i++ {
		fid := frameID(p.clockHand)
		p.clockHand = (p.clockHand + 1) % p.capacity

		f := p.frames[fid]
		if f.pinCount.Load() > 0 {
			continue
		}
		if p.refBits[fid] {
			p.refBits[fid] = false
			continue
		}
		return fid, nil
	}
	p.log.Warnf("no free frames after sweeping %d steps", steps)
	return invalidFrame, ErrNoFreeFrames
}

// Capacity returns the pool's fixed frame count.
func (p *Pool) Capacity() int {
	return p.capacity
}
