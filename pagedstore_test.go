package pagedstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMem_InsertAndGet(t *testing.T) {
	store, err := OpenMem(Config{PoolCapacity: 8})
	require.NoError(t, err)

	require.NoError(t, store.Tree.Insert([]byte("k1"), []byte("v1")))

	value, found, err := store.Tree.Get([]byte("k1"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v1"), value)
}

func TestOpen_FileBacked(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(Config{PoolCapacity: 8, Path: filepath.Join(dir, "store.db")})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Tree.Insert([]byte("a"), []byte("1")))

	value, found, err := store.Tree.Get([]byte("a"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("1"), value)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{PoolCapacity: 8})
	assert.Error(t, err)
}

func TestOpenMem_NewHeap(t *testing.T) {
	store, err := OpenMem(Config{PoolCapacity: 8})
	require.NoError(t, err)

	h, err := store.NewHeap()
	require.NoError(t, err)
	require.NoError(t, h.InsertTuple([]byte("row")))

	var got []byte
	require.NoError(t, h.Scan(func(tuple []byte) bool {
		got = append([]byte(nil), tuple...)
		return false
	}))
	assert.Equal(t, []byte("row"), got)
}
