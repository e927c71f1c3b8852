// Package pagedstore wires the block device, buffer pool, and B-tree
// into a single handle, the way the teacher's NewBufMgr is the one
// entry point that assembles a whole buffer manager from a device
// name and a frame count.
package pagedstore

import (
	"fmt"

	"pagedstore/btree"
	"pagedstore/heap"
	"pagedstore/storage/buffer"
	"pagedstore/storage/diskmgr"
)

// Config carries everything needed to open a Store. There is no
// CLI/env-var/wire-protocol surface at this layer, so Config is a
// plain struct literal rather than a flag or env parser.
type Config struct {
	// PoolCapacity is the fixed number of frames in the buffer pool.
	PoolCapacity int

	// Path is the backing file for Open; ignored by OpenMem.
	Path string
}

// Store bundles a device, a buffer pool, and a B-tree used as the
// store's primary index.
type Store struct {
	device diskmgr.Device
	Pool   *buffer.Pool
	Tree   *btree.BTree
}

// OpenMem opens an in-memory store: nothing persists past process
// exit, which is the right tradeoff for tests and short-lived tools.
func OpenMem(cfg Config) (*Store, error) {
	dev := diskmgr.NewMemDevice()
	return open(dev, cfg)
}

// Open opens (creating if necessary) a file-backed store at cfg.Path.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("pagedstore: Config.Path is required for Open")
	}
	dev, err := diskmgr.OpenFileDevice(cfg.Path)
	if err != nil {
		return nil, err
	}
	return open(dev, cfg)
}

func open(dev diskmgr.Device, cfg Config) (*Store, error) {
	if cfg.PoolCapacity <= 0 {
		return nil, fmt.Errorf("pagedstore: Config.PoolCapacity must be positive")
	}
	pool := buffer.New(dev, cfg.PoolCapacity)

	tree, err := btree.New(pool)
	if err != nil {
		return nil, err
	}

	return &Store{device: dev, Pool: pool, Tree: tree}, nil
}

// NewHeap allocates a fresh table heap backed by the store's pool.
func (s *Store) NewHeap() (*heap.Heap, error) {
	return heap.New(s.Pool)
}

// Close releases the underlying device, if it owns one that needs
// closing (the file backend; the in-memory backend is a no-op).
func (s *Store) Close() error {
	if closer, ok := s.device.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
