package datum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringRoundTrip(t *testing.T) {
	buf := WriteString(nil, "hello, world")
	s, n, err := ReadString(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello, world", s)
	assert.Equal(t, len(buf), n)
}

func TestInt64RoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 1 << 40, -(1 << 40)} {
		buf := WriteInt64(nil, v)
		got, n, err := ReadInt64(buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, 8, n)
	}
}

func TestBoolRoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		buf := WriteBool(nil, v)
		got, n, err := ReadBool(buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, 1, n)
	}
}

func TestWriteRead_NullableNotNull(t *testing.T) {
	buf := Write(nil, StringDatum("abc"), Nullable, TypeString)
	got, _, err := Read(buf, Nullable, TypeString)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.String)
	assert.False(t, got.Null)
}

func TestWriteRead_NullableNull(t *testing.T) {
	buf := Write(nil, NullDatum(), Nullable, TypeInt64)
	got, n, err := Read(buf, Nullable, TypeInt64)
	require.NoError(t, err)
	assert.True(t, got.Null)
	assert.Equal(t, 1, n)
}

func TestWrite_NullOnNotNullPanics(t *testing.T) {
	assert.Panics(t, func() {
		Write(nil, NullDatum(), NotNull, TypeBool)
	})
}

func TestMultipleFieldsConcatenate(t *testing.T) {
	buf := WriteString(nil, "key")
	buf = WriteInt64(buf, 42)
	buf = WriteBool(buf, true)

	s, n1, err := ReadString(buf)
	require.NoError(t, err)
	assert.Equal(t, "key", s)

	v, n2, err := ReadInt64(buf[n1:])
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	b, n3, err := ReadBool(buf[n1+n2:])
	require.NoError(t, err)
	assert.True(t, b)
	assert.Equal(t, len(buf), n1+n2+n3)
}
