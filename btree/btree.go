// Package btree implements an ordered byte-string key to byte-string
// value map on top of the slotted page and buffer pool: a single
// meta-page holding the root id, and a root that is either a leaf or
// (after exactly one split) a two-level tree. Deeper trees, key
// replacement on duplicate insert, and deletion are deliberately out
// of scope — see ErrUnsupportedOperation.
package btree

import (
	"bytes"
	"errors"
	"fmt"

	"pagedstore/storage/buffer"
	"pagedstore/storage/diskmgr"
	"pagedstore/storage/page"
)

// ErrUnsupportedOperation is returned (or, per spec.md's "deliberate
// program error" framing, panicked with — see Insert) for operations
// this B-tree intentionally does not implement: descent into
// non-root nodes, replacing an existing key, and deletion.
var ErrUnsupportedOperation = errors.New("btree: unsupported operation")

// ErrKeyTooLarge is returned when a single key/value pair cannot fit
// on an empty page — there are no overflow pages, so this is fatal
// for that insert.
var ErrKeyTooLarge = errors.New("btree: tuple too large for a page")

// BTree is a handle to a tree rooted at a fixed meta-page.
type BTree struct {
	pool       *buffer.Pool
	metaPageID diskmgr.PageID
}

// New allocates a meta-page and an empty root leaf page, and returns a
// handle to the new tree.
func New(pool *buffer.Pool) (*BTree, error) {
	metaPP, err := pool.AllocatePage()
	if err != nil {
		return nil, err
	}
	rootPP, err := pool.AllocatePage()
	if err != nil {
		metaPP.Unpin()
		return nil, err
	}

	rootWG := rootPP.Write()
	page.New(rootWG.Data()[:], nodeMetadata{level: 0}.encode())
	rootPP.MarkDirty()
	rootWG.Release()

	rootID := rootPP.ID()
	metaID := metaPP.ID()

	metaWG := metaPP.Write()
	writeRootID(metaWG.Data(), rootID)
	metaPP.MarkDirty()
	metaWG.Release()

	return &BTree{pool: pool, metaPageID: metaID}, nil
}

// Open wraps an existing tree whose meta-page id is already known.
func Open(pool *buffer.Pool, metaPageID diskmgr.PageID) *BTree {
	return &BTree{pool: pool, metaPageID: metaPageID}
}

func writeRootID(data *diskmgr.PageData, id diskmgr.PageID) {
	data[0] = byte(id)
	data[1] = byte(id >> 8)
	data[2] = byte(id >> 16)
	data[3] = byte(id >> 24)
}

func readRootID(data *diskmgr.PageData) diskmgr.PageID {
	return diskmgr.PageID(uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24)
}

// Insert adds key -> value to the tree.
//
// Per this tree's scope, insert only works while the root is a leaf
// or is about to be split for the first time: if the root has already
// been promoted to an internal node by an earlier split, descent into
// its children is unimplemented future work, and this call panics
// rather than silently doing the wrong thing (mirroring the original
// implementation's unimplemented!() at this exact point).
func (t *BTree) Insert(key, value []byte) error {
	metaPP, err := t.pool.GetPage(t.metaPageID)
	if err != nil {
		return err
	}
	metaWG := metaPP.Write()
	rootID := readRootID(metaWG.Data())

	rootPP, err := t.pool.GetPage(rootID)
	if err != nil {
		metaWG.Release()
		return err
	}
	rootWG := rootPP.Write()
	defer rootWG.Release()

	rootNode, err := page.FromExisting(rootWG.Data()[:], nodeMetadataSize)
	if err != nil {
		metaWG.Release()
		return fmt.Errorf("btree: root page corrupt: %w", err)
	}
	meta := decodeNodeMetadata(rootNode.Metadata())
	if !meta.isLeaf() {
		metaWG.Release()
		panic(fmt.Errorf("%w: insert requires descent into a non-root node", ErrUnsupportedOperation))
	}

	found, insertIndex := t.binarySearchLeaf(rootNode, key)
	if found {
		metaWG.Release()
		panic(fmt.Errorf("%w: insert requires replacing an existing key", ErrUnsupportedOperation))
	}

	tupleSize := leafT.size(key, value)
	// On an empty node the tuple and its 4-byte descriptor must fit
	// between the 10-byte page header and the metadata trailer.
	if tupleSize+4 > page.Size-10-nodeMetadataSize {
		metaWG.Release()
		return ErrKeyTooLarge
	}

	dst, err := rootNode.AllocTupleAt(insertIndex, tupleSize)
	if err == nil {
		leafT.write(dst, key, value)
		rootPP.MarkDirty()
		metaWG.Release()
		return nil
	}
	if !errors.Is(err, page.ErrPageFull) {
		metaWG.Release()
		return err
	}

	// Split: allocate a sibling leaf, redistribute tuples, promote
	// a new internal root.
	if err := t.splitLeafAndPromote(metaPP, metaWG, rootPP, rootNode, meta, insertIndex, key, value, tupleSize); err != nil {
		metaWG.Release()
		return err
	}
	metaWG.Release()
	return nil
}

// splitLeafAndPromote implements spec.md §4.4 steps 5-6: split the
// full root leaf into two leaves and replace the root with a fresh
// internal node pointing at both.
func (t *BTree) splitLeafAndPromote(
	metaPP *buffer.PinnedPage,
	metaWG *buffer.WriteGuard,
	rootPP *buffer.PinnedPage,
	rootNode *page.Page,
	meta nodeMetadata,
	insertIndex int,
	key, value []byte,
	tupleSize int,
) error {
	count := rootNode.TupleCount()
	existing := make([][]byte, count)
	for i := 0; i < count; i++ {
		tuple := rootNode.GetTuple(i)
		cp := make([]byte, len(tuple))
		copy(cp, tuple)
		existing[i] = cp
	}

	newTuple := make([]byte, tupleSize)
	leafT.write(newTuple, key, value)

	virtual := func(v int) []byte {
		switch {
		case v == insertIndex:
			return newTuple
		case v < insertIndex:
			return existing[v]
		default:
			return existing[v-1]
		}
	}

	splitIdx := rootNode.GetSplitIndex(insertIndex, tupleSize)

	siblingPP, err := t.pool.AllocatePage()
	if err != nil {
		return err
	}
	siblingWG := siblingPP.Write()
	siblingNode := page.New(siblingWG.Data()[:], nodeMetadata{level: 0}.encode())

	for v := splitIdx; v < count+1; v++ {
		if err := siblingNode.InsertTuple(virtual(v)); err != nil {
			siblingWG.Release()
			panic(fmt.Sprintf("btree: split could not place tuple on new sibling: %v", err))
		}
	}
	siblingPP.MarkDirty()

	// Rebuild the original leaf in place with the left-hand half.
	rootNode2 := page.New(rootNode.RawData(), nodeMetadata{level: 0}.encode())
	for v := 0; v < splitIdx; v++ {
		if err := rootNode2.InsertTuple(virtual(v)); err != nil {
			siblingWG.Release()
			panic(fmt.Sprintf("btree: split could not place tuple on left half: %v", err))
		}
	}
	rootPP.MarkDirty()

	smallestOnSibling := leafT.key(siblingNode.GetTuple(0))

	// Promote: allocate a new internal root. Pivot 0 is the old root
	// (now holding the left half) with an empty (-infinity) key;
	// pivot 1 is the new sibling with its smallest key.
	newRootPP, err := t.pool.AllocatePage()
	if err != nil {
		siblingWG.Release()
		return err
	}
	newRootWG := newRootPP.Write()
	newRootNode := page.New(newRootWG.Data()[:], nodeMetadata{level: meta.level + 1}.encode())

	pivot0 := make([]byte, pivotT.size(nil))
	pivotT.write(pivot0, rootPP.ID(), nil)
	if err := newRootNode.InsertTuple(pivot0); err != nil {
		newRootWG.Release()
		siblingWG.Release()
		return fmt.Errorf("btree: could not write pivot 0 on new root: %w", err)
	}

	pivot1 := make([]byte, pivotT.size(smallestOnSibling))
	pivotT.write(pivot1, siblingPP.ID(), smallestOnSibling)
	if err := newRootNode.InsertTuple(pivot1); err != nil {
		newRootWG.Release()
		siblingWG.Release()
		return fmt.Errorf("btree: could not write pivot 1 on new root: %w", err)
	}
	newRootPP.MarkDirty()

	writeRootID(metaWG.Data(), newRootPP.ID())
	metaPP.MarkDirty()

	newRootWG.Release()
	siblingWG.Release()
	return nil
}

// Get looks up key, returning its value and true if present.
//
// Like Insert, this only operates correctly while the root is a leaf;
// once the root has been promoted to an internal node, lookups would
// need to descend into a child, which — consistent with this tree's
// scope — is unimplemented.
func (t *BTree) Get(key []byte) ([]byte, bool, error) {
	metaPP, err := t.pool.GetPage(t.metaPageID)
	if err != nil {
		return nil, false, err
	}
	metaRG := metaPP.Read()
	rootID := readRootID(metaRG.Data())
	metaRG.Release()

	rootPP, err := t.pool.GetPage(rootID)
	if err != nil {
		return nil, false, err
	}
	rootRG := rootPP.Read()
	defer rootRG.Release()

	rootNode, err := page.FromExisting(rootRG.Data()[:], nodeMetadataSize)
	if err != nil {
		return nil, false, fmt.Errorf("btree: root page corrupt: %w", err)
	}
	meta := decodeNodeMetadata(rootNode.Metadata())
	if !meta.isLeaf() {
		panic(fmt.Errorf("%w: lookup requires descent into a non-root node", ErrUnsupportedOperation))
	}

	found, index := t.binarySearchLeaf(rootNode, key)
	if !found {
		return nil, false, nil
	}
	tuple := rootNode.GetTuple(index)
	value := make([]byte, len(leafT.value(tuple)))
	copy(value, leafT.value(tuple))
	return value, true, nil
}

// binarySearchLeaf performs a standard lower-bound search over a
// leaf's keys, returning whether key was found and either its index
// (found) or the insertion index (not found).
func (t *BTree) binarySearchLeaf(node *page.Page, key []byte) (found bool, index int) {
	count := node.TupleCount()
	lo, hi := 0, count
	for lo < hi {
		mid := (lo + hi) / 2
		midKey := leafT.key(node.GetTuple(mid))
		switch bytes.Compare(midKey, key) {
		case 0:
			return true, mid
		case -1:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return false, lo
}

// binarySearchInternal is the pivot-tuple counterpart of
// binarySearchLeaf. Nothing calls it: Dump visits every child without
// searching, and Insert and Get stop at a non-leaf root.
func (t *BTree) binarySearchInternal(node *page.Page, key []byte) (found bool, index int) {
	count := node.TupleCount()
	lo, hi := 1, count // pivot 0's key is -infinity, never compared
	for lo < hi {
		mid := (lo + hi) / 2
		midKey := pivotT.key(node.GetTuple(mid))
		switch bytes.Compare(midKey, key) {
		case 0:
			return true, mid
		case -1:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return false, lo
}
