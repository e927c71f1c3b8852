// Package page implements the slotted-page tuple layout shared by the
// B-tree and the table heap: a growing-up descriptor array, a
// growing-down payload area, and a fixed-size metadata trailer, all
// inside one fixed-size block of bytes.
package page

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Size is the fixed byte size of a page, matching diskmgr.PageSize.
// Kept as an independent constant (rather than importing diskmgr) so
// this package has no dependency on the device layer — it operates
// purely on in-memory byte slices handed to it by a pinned frame.
const Size = 4096

const (
	headerSize     = 4 + 2 + 2 + 2 // lsn, metadataSize, freeSpacePointer, tupleCount
	descriptorSize = 2 + 2         // offset, size

	offLSN             = 0
	offMetadataSize    = 4
	offFreeSpacePtr    = 6
	offTupleCount      = 8
	offDescriptorsBase = headerSize
)

// ErrPageFull is returned when a tuple, even after compaction, does
// not fit in the remaining space.
var ErrPageFull = errors.New("page: full")

// Page is a view over exactly Size bytes of backing storage. It does
// no I/O of its own; callers are expected to hand it the bytes of a
// pinned buffer-pool frame.
type Page struct {
	data         []byte
	metadataSize int
}

// New initializes data (which must be Size bytes) as a fresh, empty
// page with the given metadata trailer contents, and returns a Page
// view over it.
func New(data []byte, metadata []byte) *Page {
	if len(data) != Size {
		panic(fmt.Sprintf("page: data must be %d bytes, got %d", Size, len(data)))
	}
	p := &Page{data: data, metadataSize: len(metadata)}
	binary.LittleEndian.PutUint32(data[offLSN:], 0)
	binary.LittleEndian.PutUint16(data[offMetadataSize:], uint16(len(metadata)))
	binary.LittleEndian.PutUint16(data[offFreeSpacePtr:], uint16(Size-len(metadata)))
	binary.LittleEndian.PutUint16(data[offTupleCount:], 0)
	copy(data[Size-len(metadata):], metadata)
	return p
}

// FromExisting wraps already-initialized page bytes for reads and
// writes, checking that the stored metadata size matches
// metadataSize.
func FromExisting(data []byte, metadataSize int) (*Page, error) {
	if len(data) != Size {
		panic(fmt.Sprintf("page: data must be %d bytes, got %d", Size, len(data)))
	}
	stored := int(binary.LittleEndian.Uint16(data[offMetadataSize:]))
	if stored != metadataSize {
		return nil, fmt.Errorf("page: metadata size mismatch: stored %d, expected %d", stored, metadataSize)
	}
	return &Page{data: data, metadataSize: metadataSize}, nil
}

func (p *Page) lsn() uint32           { return binary.LittleEndian.Uint32(p.data[offLSN:]) }
func (p *Page) freeSpacePointer() int { return int(binary.LittleEndian.Uint16(p.data[offFreeSpacePtr:])) }
func (p *Page) setFreeSpacePointer(v int) {
	binary.LittleEndian.PutUint16(p.data[offFreeSpacePtr:], uint16(v))
}

// TupleCount returns the number of slots. DeleteTuple removes its slot
// outright, so deleted tuples are never counted; a slot whose
// descriptor offset is 0 is still counted and reads as nil.
func (p *Page) TupleCount() int {
	return int(binary.LittleEndian.Uint16(p.data[offTupleCount:]))
}

func (p *Page) setTupleCount(v int) {
	binary.LittleEndian.PutUint16(p.data[offTupleCount:], uint16(v))
}

// RawData returns the page's full backing byte slice, for callers
// that need to hand it to New again (e.g. rebuilding a page in place
// after splitting its tuples onto a sibling).
func (p *Page) RawData() []byte {
	return p.data
}

// Metadata returns the fixed-size trailer at the end of the page.
func (p *Page) Metadata() []byte {
	return p.data[Size-p.metadataSize:]
}

// SetMetadata overwrites the trailer in place.
func (p *Page) SetMetadata(metadata []byte) {
	if len(metadata) != p.metadataSize {
		panic("page: metadata size mismatch")
	}
	copy(p.data[Size-p.metadataSize:], metadata)
}

func (p *Page) descriptorOffset(index int) int {
	return offDescriptorsBase + index*descriptorSize
}

type descriptor struct {
	offset int
	size   int
}

func (p *Page) getDescriptor(index int) descriptor {
	off := p.descriptorOffset(index)
	return descriptor{
		offset: int(binary.LittleEndian.Uint16(p.data[off:])),
		size:   int(binary.LittleEndian.Uint16(p.data[off+2:])),
	}
}

func (p *Page) setDescriptor(index int, d descriptor) {
	off := p.descriptorOffset(index)
	binary.LittleEndian.PutUint16(p.data[off:], uint16(d.offset))
	binary.LittleEndian.PutUint16(p.data[off+2:], uint16(d.size))
}

// GetTuple returns the bytes of the tuple at index, or nil if that
// slot's descriptor offset is 0 (dead/null).
func (p *Page) GetTuple(index int) []byte {
	d := p.getDescriptor(index)
	if d.offset == 0 {
		return nil
	}
	return p.data[d.offset : d.offset+d.size]
}

func (p *Page) headerAndDescriptorsEnd(count int) int {
	return offDescriptorsBase + count*descriptorSize
}

// FreeSpace returns the number of bytes available for a new tuple
// payload plus its descriptor, without compaction.
func (p *Page) FreeSpace() int {
	count := p.TupleCount()
	used := p.headerAndDescriptorsEnd(count)
	return p.freeSpacePointer() - used
}

// TotalTupleSize returns the sum of all live tuples' payload sizes.
func (p *Page) TotalTupleSize() int {
	total := 0
	for i := 0; i < p.TupleCount(); i++ {
		d := p.getDescriptor(i)
		if d.offset != 0 {
			total += d.size
		}
	}
	return total
}

// FreeSpaceAfterCompaction returns the free space Compact would leave
// behind: everything not occupied by a live tuple's payload or
// descriptor, with fragmentation removed.
func (p *Page) FreeSpaceAfterCompaction() int {
	live := 0
	for i := 0; i < p.TupleCount(); i++ {
		if p.getDescriptor(i).offset != 0 {
			live++
		}
	}
	used := p.headerAndDescriptorsEnd(live) + p.TotalTupleSize()
	return (Size - p.metadataSize) - used
}

// AllocTupleAt shifts descriptors at index..count one slot right,
// allocates size bytes at the low end of free space, records a new
// descriptor at index, and returns the payload slice for the caller
// to fill in. It compacts once, if necessary and sufficient, before
// failing with ErrPageFull.
func (p *Page) AllocTupleAt(index int, size int) ([]byte, error) {
	needed := size + descriptorSize
	if p.FreeSpace() < needed {
		if p.FreeSpaceAfterCompaction() < needed {
			return nil, ErrPageFull
		}
		p.Compact()
	}

	count := p.TupleCount()
	for i := count; i > index; i-- {
		p.setDescriptor(i, p.getDescriptor(i-1))
	}

	newLow := p.freeSpacePointer() - size
	p.setFreeSpacePointer(newLow)
	p.setDescriptor(index, descriptor{offset: newLow, size: size})
	p.setTupleCount(count + 1)

	return p.data[newLow : newLow+size], nil
}

// InsertTuple appends tuple as the last slot.
func (p *Page) InsertTuple(tuple []byte) error {
	return p.InsertTupleAt(p.TupleCount(), tuple)
}

// InsertTupleAt allocates space for tuple at index and copies it in.
func (p *Page) InsertTupleAt(index int, tuple []byte) error {
	dst, err := p.AllocTupleAt(index, len(tuple))
	if err != nil {
		return err
	}
	copy(dst, tuple)
	return nil
}

// DeleteTuple shifts descriptors at index+1..count one slot left and
// decrements the tuple count. The payload bytes remain in place,
// reachable only through Compact.
func (p *Page) DeleteTuple(index int) {
	count := p.TupleCount()
	for i := index; i < count-1; i++ {
		p.setDescriptor(i, p.getDescriptor(i+1))
	}
	p.setDescriptor(count-1, descriptor{})
	p.setTupleCount(count - 1)
}

// Compact copies every live tuple aside, resets the free-space
// pointer and tuple count, then reinserts each tuple in its original
// slot order, reclaiming the space of deleted or shifted-out slots.
// It is idempotent and never fails for tuples that already fit.
func (p *Page) Compact() {
	count := p.TupleCount()
	saved := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		d := p.getDescriptor(i)
		if d.offset == 0 {
			continue
		}
		tuple := make([]byte, d.size)
		copy(tuple, p.data[d.offset:d.offset+d.size])
		saved = append(saved, tuple)
	}

	p.setFreeSpacePointer(Size - p.metadataSize)
	p.setTupleCount(0)

	for i, tuple := range saved {
		if err := p.InsertTupleAt(i, tuple); err != nil {
			panic(fmt.Sprintf("page: compact could not reinsert tuple %d: %v", i, err))
		}
	}
}

// GetSplitIndex computes the slot at which a page holding its current
// tuples plus one pending insert of size tupleSize at insertIndex
// should be divided so each side holds roughly half the total bytes.
func (p *Page) GetSplitIndex(insertIndex int, tupleSize int) int {
	count := p.TupleCount()
	sizes := make([]int, count+1)
	sizes[insertIndex] = tupleSize
	si := 0
	for i := 0; i < count; i++ {
		if si == insertIndex {
			si++
		}
		sizes[si] = p.getDescriptor(i).size
		si++
	}

	total := 0
	for _, s := range sizes {
		total += s
	}

	acc := 0
	for i, s := range sizes {
		acc += s
		if acc > total/2 {
			return i
		}
	}
	return len(sizes) - 1
}
