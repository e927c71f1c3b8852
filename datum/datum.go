// Package datum implements the typed-datum wire format: a tiny,
// frozen byte encoding for nullable strings, 64-bit integers, and
// booleans. It stands alone: the table heap and the B-tree store raw
// byte tuples and do not call into this package.
package datum

import (
	"encoding/binary"
	"fmt"
)

// Type identifies which Go-level representation a Datum holds.
type Type int

const (
	TypeString Type = iota
	TypeInt64
	TypeBool
)

// Nullability controls whether a null-indicator byte precedes the
// encoded value.
type Nullability int

const (
	NotNull Nullability = iota
	Nullable
)

// Datum is a single typed value, or null when Null is set. This
// package does not introduce a Go interface/union type beyond what
// the wire format demands — Datum is the one small struct every
// reader/writer below converts to and from.
type Datum struct {
	Null   bool
	String string
	Int64  int64
	Bool   bool
}

func NullDatum() Datum       { return Datum{Null: true} }
func StringDatum(s string) Datum { return Datum{String: s} }
func Int64Datum(v int64) Datum   { return Datum{Int64: v} }
func BoolDatum(v bool) Datum     { return Datum{Bool: v} }

// WriteString appends a NotNull-encoded string: a u32 length prefix
// followed by its UTF-8 bytes.
func WriteString(buf []byte, s string) []byte {
	buf = appendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// ReadString reads a string previously written by WriteString,
// returning the value and the number of bytes consumed.
func ReadString(buf []byte) (string, int, error) {
	if len(buf) < 4 {
		return "", 0, fmt.Errorf("datum: ReadString: buffer too short for length prefix")
	}
	n := int(binary.LittleEndian.Uint32(buf))
	if len(buf) < 4+n {
		return "", 0, fmt.Errorf("datum: ReadString: buffer too short for %d-byte string", n)
	}
	return string(buf[4 : 4+n]), 4 + n, nil
}

// WriteInt64 appends a little-endian 8-byte integer.
func WriteInt64(buf []byte, v int64) []byte {
	return appendUint64(buf, uint64(v))
}

// ReadInt64 reads an integer previously written by WriteInt64.
func ReadInt64(buf []byte) (int64, int, error) {
	if len(buf) < 8 {
		return 0, 0, fmt.Errorf("datum: ReadInt64: buffer too short")
	}
	return int64(binary.LittleEndian.Uint64(buf)), 8, nil
}

// WriteBool appends a single byte: 1 for true, 0 for false.
func WriteBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// ReadBool reads a bool previously written by WriteBool.
func ReadBool(buf []byte) (bool, int, error) {
	if len(buf) < 1 {
		return false, 0, fmt.Errorf("datum: ReadBool: buffer too short")
	}
	return buf[0] != 0, 1, nil
}

const notNull byte = 1

// WriteNullableString prepends the null-indicator byte required when
// a column is declared Nullable, then the same encoding as
// WriteString (omitted entirely when s represents SQL NULL — callers
// distinguish that by not calling this function and instead writing a
// single zero byte, matching the original's Datum::Null case).
func WriteNullableString(buf []byte, s string) []byte {
	buf = append(buf, notNull)
	return WriteString(buf, s)
}

// WriteNull appends the single zero byte that represents SQL NULL in
// a Nullable column; only valid where Nullability is Nullable.
func WriteNull(buf []byte) []byte {
	return append(buf, 0)
}

// ReadNullableString reads the null-indicator byte first; if the
// value is null, ok is false and no further bytes are consumed beyond
// the indicator.
func ReadNullableString(buf []byte) (s string, ok bool, n int, err error) {
	if len(buf) < 1 {
		return "", false, 0, fmt.Errorf("datum: ReadNullableString: buffer too short for null indicator")
	}
	if buf[0] == 0 {
		return "", false, 1, nil
	}
	s, consumed, err := ReadString(buf[1:])
	if err != nil {
		return "", false, 0, err
	}
	return s, true, 1 + consumed, nil
}

// WriteNullableInt64 is the Nullable counterpart to WriteInt64.
func WriteNullableInt64(buf []byte, v int64) []byte {
	buf = append(buf, notNull)
	return WriteInt64(buf, v)
}

// ReadNullableInt64 is the Nullable counterpart to ReadInt64.
func ReadNullableInt64(buf []byte) (v int64, ok bool, n int, err error) {
	if len(buf) < 1 {
		return 0, false, 0, fmt.Errorf("datum: ReadNullableInt64: buffer too short for null indicator")
	}
	if buf[0] == 0 {
		return 0, false, 1, nil
	}
	v, consumed, err := ReadInt64(buf[1:])
	if err != nil {
		return 0, false, 0, err
	}
	return v, true, 1 + consumed, nil
}

// WriteNullableBool is the Nullable counterpart to WriteBool.
func WriteNullableBool(buf []byte, v bool) []byte {
	buf = append(buf, notNull)
	return WriteBool(buf, v)
}

// ReadNullableBool is the Nullable counterpart to ReadBool.
func ReadNullableBool(buf []byte) (v bool, ok bool, n int, err error) {
	if len(buf) < 1 {
		return false, false, 0, fmt.Errorf("datum: ReadNullableBool: buffer too short for null indicator")
	}
	if buf[0] == 0 {
		return false, false, 1, nil
	}
	v, consumed, err := ReadBool(buf[1:])
	if err != nil {
		return false, false, 0, err
	}
	return v, true, 1 + consumed, nil
}

// Write appends d's wire encoding under the given nullability and
// declared type, mirroring Datum::serialize in the original.
func Write(buf []byte, d Datum, n Nullability, ty Type) []byte {
	if d.Null {
		if n != Nullable {
			panic("datum: Null value for a NotNull column")
		}
		return WriteNull(buf)
	}
	switch ty {
	case TypeString:
		if n == Nullable {
			return WriteNullableString(buf, d.String)
		}
		return WriteString(buf, d.String)
	case TypeInt64:
		if n == Nullable {
			return WriteNullableInt64(buf, d.Int64)
		}
		return WriteInt64(buf, d.Int64)
	case TypeBool:
		if n == Nullable {
			return WriteNullableBool(buf, d.Bool)
		}
		return WriteBool(buf, d.Bool)
	default:
		panic(fmt.Sprintf("datum: unknown type %v", ty))
	}
}

// Read decodes a Datum previously written by Write, given the same
// nullability and declared type.
func Read(buf []byte, n Nullability, ty Type) (Datum, int, error) {
	if n == Nullable {
		switch ty {
		case TypeString:
			s, ok, consumed, err := ReadNullableString(buf)
			if err != nil || !ok {
				return NullDatum(), consumed, err
			}
			return StringDatum(s), consumed, nil
		case TypeInt64:
			v, ok, consumed, err := ReadNullableInt64(buf)
			if err != nil || !ok {
				return NullDatum(), consumed, err
			}
			return Int64Datum(v), consumed, nil
		case TypeBool:
			v, ok, consumed, err := ReadNullableBool(buf)
			if err != nil || !ok {
				return NullDatum(), consumed, err
			}
			return BoolDatum(v), consumed, nil
		default:
			return Datum{}, 0, fmt.Errorf("datum: unknown type %v", ty)
		}
	}
	switch ty {
	case TypeString:
		s, consumed, err := ReadString(buf)
		return StringDatum(s), consumed, err
	case TypeInt64:
		v, consumed, err := ReadInt64(buf)
		return Int64Datum(v), consumed, err
	case TypeBool:
		v, consumed, err := ReadBool(buf)
		return BoolDatum(v), consumed, err
	default:
		return Datum{}, 0, fmt.Errorf("datum: unknown type %v", ty)
	}
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}
