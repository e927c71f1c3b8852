package diskmgr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemDevice_AllocateReadWrite(t *testing.T) {
	d := NewMemDevice()

	id0, err := d.Allocate()
	require.NoError(t, err)
	assert.Equal(t, PageID(0), id0)

	id1, err := d.Allocate()
	require.NoError(t, err)
	assert.Equal(t, PageID(1), id1)
	assert.Equal(t, uint32(2), d.PageCount())

	var in PageData
	for i := range in {
		in[i] = byte(i)
	}
	require.NoError(t, d.WritePage(id1, &in))

	var out PageData
	require.NoError(t, d.ReadPage(id1, &out))
	assert.Equal(t, in, out)

	var zero PageData
	require.NoError(t, d.ReadPage(id0, &out))
	assert.Equal(t, zero, out)
}

func TestMemDevice_ReadWriteOutOfRange(t *testing.T) {
	d := NewMemDevice()
	var buf PageData

	err := d.ReadPage(PageID(0), &buf)
	assert.Error(t, err)

	err = d.WritePage(PageID(0), &buf)
	assert.Error(t, err)
}

func TestFileDevice_AllocateReadWriteReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pages.db")

	d, err := OpenFileDevice(path)
	require.NoError(t, err)

	id, err := d.Allocate()
	require.NoError(t, err)
	assert.Equal(t, PageID(0), id)

	var in PageData
	for i := range in {
		in[i] = byte(i % 251)
	}
	require.NoError(t, d.WritePage(id, &in))
	require.NoError(t, d.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(PageSize), info.Size())

	d2, err := OpenFileDevice(path)
	require.NoError(t, err)
	defer d2.Close()

	assert.Equal(t, uint32(1), d2.PageCount())

	var out PageData
	require.NoError(t, d2.ReadPage(id, &out))
	assert.Equal(t, in, out)
}
