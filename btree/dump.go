package btree

import (
	"fmt"

	"pagedstore/storage/diskmgr"
	"pagedstore/storage/page"
)

// LeafEntry is one key/value pair in a dumped leaf.
type LeafEntry struct {
	Key   []byte
	Value []byte
}

// InternalEntry is one pivot's separator key and the dump of the
// child it points at. Key is nil for pivot 0 (the -infinity pivot).
type InternalEntry struct {
	Key   []byte
	Child NodeDump
}

// NodeDump is a debug/test-only snapshot of one tree node, produced by
// walking the tree unconditionally (unlike Insert/Get, Dump descends
// into every level — it exists purely to let tests assert on tree
// shape after splits the public API itself cannot yet navigate back
// into).
type NodeDump struct {
	Leaf     []LeafEntry
	Internal []InternalEntry
}

func (d NodeDump) IsLeaf() bool { return d.Internal == nil }

// Dump walks the whole tree starting at the root and returns a
// snapshot of its structure.
func (t *BTree) Dump() (NodeDump, error) {
	metaPP, err := t.pool.GetPage(t.metaPageID)
	if err != nil {
		return NodeDump{}, err
	}
	metaRG := metaPP.Read()
	rootID := readRootID(metaRG.Data())
	metaRG.Release()

	return t.dumpPage(rootID)
}

func (t *BTree) dumpPage(id diskmgr.PageID) (NodeDump, error) {
	pp, err := t.pool.GetPage(id)
	if err != nil {
		return NodeDump{}, err
	}
	rg := pp.Read()
	defer rg.Release()

	node, err := page.FromExisting(rg.Data()[:], nodeMetadataSize)
	if err != nil {
		return NodeDump{}, fmt.Errorf("btree: page %s corrupt: %w", id, err)
	}
	meta := decodeNodeMetadata(node.Metadata())

	if meta.isLeaf() {
		entries := make([]LeafEntry, node.TupleCount())
		for i := range entries {
			tuple := node.GetTuple(i)
			key := append([]byte(nil), leafT.key(tuple)...)
			value := append([]byte(nil), leafT.value(tuple)...)
			entries[i] = LeafEntry{Key: key, Value: value}
		}
		return NodeDump{Leaf: entries}, nil
	}

	entries := make([]InternalEntry, node.TupleCount())
	for i := range entries {
		tuple := node.GetTuple(i)
		var key []byte
		if i > 0 {
			key = append([]byte(nil), pivotT.key(tuple)...)
		}
		child, err := t.dumpPage(pivotT.downlink(tuple))
		if err != nil {
			return NodeDump{}, err
		}
		entries[i] = InternalEntry{Key: key, Child: child}
	}
	return NodeDump{Internal: entries}, nil
}
