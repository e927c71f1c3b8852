package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagedstore/storage/buffer"
	"pagedstore/storage/diskmgr"
)

func newTestHeap(t *testing.T, capacity int) *Heap {
	t.Helper()
	pool := buffer.New(diskmgr.NewMemDevice(), capacity)
	h, err := New(pool)
	require.NoError(t, err)
	return h
}

func TestInsertAndScan_SinglePage(t *testing.T) {
	h := newTestHeap(t, 4)

	require.NoError(t, h.InsertTuple([]byte("row one")))
	require.NoError(t, h.InsertTuple([]byte("row two")))

	var got [][]byte
	require.NoError(t, h.Scan(func(tuple []byte) bool {
		got = append(got, append([]byte(nil), tuple...))
		return true
	}))

	assert.Equal(t, [][]byte{[]byte("row one"), []byte("row two")}, got)
}

func TestInsert_OverflowsToNewPage(t *testing.T) {
	h := newTestHeap(t, 8)

	big := make([]byte, 3000)
	for i := range big {
		big[i] = byte(i)
	}

	require.NoError(t, h.InsertTuple(big))
	require.NoError(t, h.InsertTuple(big)) // does not fit on page 1 anymore

	count := 0
	require.NoError(t, h.Scan(func(tuple []byte) bool {
		count++
		return true
	}))
	assert.Equal(t, 2, count)
}

func TestScan_CanStopEarly(t *testing.T) {
	h := newTestHeap(t, 4)

	require.NoError(t, h.InsertTuple([]byte("a")))
	require.NoError(t, h.InsertTuple([]byte("b")))
	require.NoError(t, h.InsertTuple([]byte("c")))

	var seen []string
	require.NoError(t, h.Scan(func(tuple []byte) bool {
		seen = append(seen, string(tuple))
		return len(seen) < 2
	}))

	assert.Equal(t, []string{"a", "b"}, seen)
}
