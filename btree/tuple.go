package btree

import (
	"encoding/binary"

	"pagedstore/storage/diskmgr"
)

// nodeMetadataSize is the size, in bytes, of the metadata trailer
// every B-tree node page carries: a single level byte (0 for leaves,
// increasing toward the root).
const nodeMetadataSize = 1

// nodeMetadata is the slotted page's metadata trailer for a B-tree
// node: just enough to tell a leaf from an internal node and to
// report how many splits separate it from the leaves.
type nodeMetadata struct {
	level uint8
}

func (m nodeMetadata) isLeaf() bool { return m.level == 0 }

func (m nodeMetadata) encode() []byte {
	return []byte{m.level}
}

func decodeNodeMetadata(b []byte) nodeMetadata {
	return nodeMetadata{level: b[0]}
}

// leafTuple bytes: key-size (2 B) | key bytes | value bytes.
type leafTuple struct{}

func (leafTuple) size(key, value []byte) int {
	return 2 + len(key) + len(value)
}

func (leafTuple) write(dst, key, value []byte) {
	binary.LittleEndian.PutUint16(dst[0:2], uint16(len(key)))
	copy(dst[2:2+len(key)], key)
	copy(dst[2+len(key):], value)
}

func (leafTuple) key(tuple []byte) []byte {
	keySize := int(binary.LittleEndian.Uint16(tuple[0:2]))
	return tuple[2 : 2+keySize]
}

func (leafTuple) value(tuple []byte) []byte {
	keySize := int(binary.LittleEndian.Uint16(tuple[0:2]))
	return tuple[2+keySize:]
}

// pivotTuple bytes: downlink PageId (4 B) | separator key bytes. An
// empty separator key means -infinity (pivot 0 of every internal
// node).
type pivotTuple struct{}

func (pivotTuple) size(key []byte) int {
	return 4 + len(key)
}

func (pivotTuple) write(dst []byte, downlink diskmgr.PageID, key []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], uint32(downlink))
	copy(dst[4:], key)
}

func (pivotTuple) downlink(tuple []byte) diskmgr.PageID {
	return diskmgr.PageID(binary.LittleEndian.Uint32(tuple[0:4]))
}

func (pivotTuple) key(tuple []byte) []byte {
	return tuple[4:]
}

var leafT leafTuple
var pivotT pivotTuple
