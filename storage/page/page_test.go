package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPage(t *testing.T, metadataSize int) (*Page, []byte) {
	t.Helper()
	buf := make([]byte, Size)
	p := New(buf, make([]byte, metadataSize))
	return p, buf
}

func TestNew_EmptyPage(t *testing.T) {
	p, _ := newTestPage(t, 8)
	assert.Equal(t, 0, p.TupleCount())
	assert.Equal(t, p.FreeSpace(), p.FreeSpaceAfterCompaction())
}

func TestFromExisting_RejectsMismatchedMetadataSize(t *testing.T) {
	p, buf := newTestPage(t, 8)
	_, err := FromExisting(buf, 4)
	assert.Error(t, err)

	reopened, err := FromExisting(buf, 8)
	require.NoError(t, err)
	assert.Equal(t, p.TupleCount(), reopened.TupleCount())
}

func TestInsertAndGetTuple(t *testing.T) {
	p, _ := newTestPage(t, 0)

	require.NoError(t, p.InsertTuple([]byte("hello")))
	require.NoError(t, p.InsertTuple([]byte("world!")))

	assert.Equal(t, 2, p.TupleCount())
	assert.Equal(t, []byte("hello"), p.GetTuple(0))
	assert.Equal(t, []byte("world!"), p.GetTuple(1))
}

func TestInsertTupleAt_ShiftsDescriptors(t *testing.T) {
	p, _ := newTestPage(t, 0)

	require.NoError(t, p.InsertTuple([]byte("a")))
	require.NoError(t, p.InsertTuple([]byte("c")))
	require.NoError(t, p.InsertTupleAt(1, []byte("b")))

	assert.Equal(t, []byte("a"), p.GetTuple(0))
	assert.Equal(t, []byte("b"), p.GetTuple(1))
	assert.Equal(t, []byte("c"), p.GetTuple(2))
}

func TestDeleteTuple_ThenCompactReclaimsSpace(t *testing.T) {
	p, _ := newTestPage(t, 0)

	require.NoError(t, p.InsertTuple([]byte("aaaa")))
	require.NoError(t, p.InsertTuple([]byte("bbbb")))
	require.NoError(t, p.InsertTuple([]byte("cccc")))

	freeBefore := p.FreeSpace()
	p.DeleteTuple(1)
	assert.Equal(t, 2, p.TupleCount())
	assert.Equal(t, []byte("aaaa"), p.GetTuple(0))
	assert.Equal(t, []byte("cccc"), p.GetTuple(1))

	p.Compact()
	assert.Greater(t, p.FreeSpace(), freeBefore)
	assert.Equal(t, []byte("aaaa"), p.GetTuple(0))
	assert.Equal(t, []byte("cccc"), p.GetTuple(1))
}

func TestAllocTupleAt_CompactsWhenFragmented(t *testing.T) {
	p, _ := newTestPage(t, 0)

	// Fill with many small tuples, delete every other one to
	// fragment, then insert something that only fits after compaction.
	for i := 0; i < 10; i++ {
		require.NoError(t, p.InsertTuple([]byte("xxxxxxxxxxxxxxxxxxxx")))
	}
	for i := 8; i >= 0; i -= 2 {
		p.DeleteTuple(i)
	}

	// 3866 bytes are free before compaction and 3966 after, so 3900
	// bytes plus a 4-byte descriptor fit only once the five deleted
	// 20-byte payloads are reclaimed.
	before := p.FreeSpace()
	_, err := p.AllocTupleAt(p.TupleCount(), 3900)
	require.NoError(t, err)
	assert.Less(t, p.FreeSpace(), before)
}

func TestAllocTupleAt_PageFullWhenTooLarge(t *testing.T) {
	p, _ := newTestPage(t, 0)

	_, err := p.AllocTupleAt(0, Size)
	assert.ErrorIs(t, err, ErrPageFull)
}

func dumpTuples(p *Page) [][]byte {
	out := make([][]byte, p.TupleCount())
	for i := range out {
		out[i] = p.GetTuple(i)
	}
	return out
}

func TestScenario_InsertAtSlot(t *testing.T) {
	p, _ := newTestPage(t, 0)

	require.NoError(t, p.InsertTupleAt(0, []byte("A")))
	require.NoError(t, p.InsertTupleAt(1, []byte("B")))
	require.NoError(t, p.InsertTupleAt(2, []byte("C")))
	require.NoError(t, p.InsertTupleAt(3, []byte("D")))
	require.NoError(t, p.InsertTupleAt(1, []byte("X")))

	assert.Equal(t, [][]byte{[]byte("A"), []byte("X"), []byte("B"), []byte("C"), []byte("D")}, dumpTuples(p))
}

func TestScenario_DeleteThenCompact(t *testing.T) {
	p, _ := newTestPage(t, 0)

	require.NoError(t, p.InsertTuple([]byte("AAAAAAAAAAA")))
	require.NoError(t, p.InsertTuple([]byte("BBBBBBBBBBB")))
	require.NoError(t, p.InsertTuple([]byte("CCCCCCCCCCC")))

	freeBeforeDelete := p.FreeSpace()
	p.DeleteTuple(1)
	assert.Equal(t, [][]byte{[]byte("AAAAAAAAAAA"), []byte("CCCCCCCCCCC")}, dumpTuples(p))

	// Deleting reclaims the dead slot's descriptor immediately (the
	// shift), but its 11 payload bytes stay fragmented until Compact.
	assert.Equal(t, freeBeforeDelete+4, p.FreeSpace())
	assert.Equal(t, p.FreeSpace()+11, p.FreeSpaceAfterCompaction())

	freeAfterCompactionPrediction := p.FreeSpaceAfterCompaction()
	p.Compact()
	assert.Equal(t, freeAfterCompactionPrediction, p.FreeSpace())
	assert.Equal(t, p.FreeSpace(), p.FreeSpaceAfterCompaction())

	require.NoError(t, p.InsertTuple([]byte("DDDDDDDDDDD")))
	assert.Equal(t, [][]byte{[]byte("AAAAAAAAAAA"), []byte("CCCCCCCCCCC"), []byte("DDDDDDDDDDD")}, dumpTuples(p))
}

func TestGetSplitIndex_RoughlyHalvesBytes(t *testing.T) {
	p, _ := newTestPage(t, 0)

	for i := 0; i < 4; i++ {
		require.NoError(t, p.InsertTuple([]byte("abcdefghij"))) // 10 bytes each
	}

	// Five 10-byte tuples total 50 bytes; the running sum first exceeds
	// 25 at slot 2 (10, 20, 30).
	idx := p.GetSplitIndex(2, 10)
	assert.GreaterOrEqual(t, idx, 0)
	assert.LessOrEqual(t, idx, 5)
	assert.Equal(t, 2, idx)
}
