// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/European-XFEL/Karabo-sub007/types"
)

// Binary layout (little endian):
//
//	Hash   := u32 nKeys, Node*
//	Node   := u8 keyLen, key, u32 type, u32 nAttrs, Attr*, Value
//	Attr   := u8 keyLen, key, u32 type, Value
//	SCHEMA := u32 totalLen, u8 nameLen, name, Hash

func (h *Hash) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := h.EncodeBuffer(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *Hash) EncodeBuffer(buf *bytes.Buffer) error {
	return encodeHash(buf, h, "")
}

// UnmarshalBinary decodes a complete buffer. The receiver is left unchanged
// on error.
func (h *Hash) UnmarshalBinary(data []byte) error {
	buf := bytes.NewBuffer(data)
	if err := h.DecodeBuffer(buf); err != nil {
		return err
	}
	if buf.Len() > 0 {
		return trailingBytes(buf.Len())
	}
	return nil
}

// DecodeBuffer decodes one Hash from the head of buf.
func (h *Hash) DecodeBuffer(buf *bytes.Buffer) error {
	x, err := decodeHash(buf, "")
	if err != nil {
		return err
	}
	h.index, h.nodes = x.index, x.nodes
	return nil
}

// EncodeSequence writes a count prefixed sequence of Hashes.
func EncodeSequence(list []*Hash) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	putU32(buf, uint32(len(list)))
	for i, h := range list {
		if err := encodeHash(buf, h, fmt.Sprintf("[%d]", i)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func DecodeSequence(data []byte) ([]*Hash, error) {
	buf := bytes.NewBuffer(data)
	list, err := decodeHashes(buf, "")
	if err != nil {
		return nil, err
	}
	if buf.Len() > 0 {
		return nil, trailingBytes(buf.Len())
	}
	return list, nil
}

// ----------------------------------------------------------------------------
// encoder

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putKey(buf *bytes.Buffer, key, path string) error {
	if len(key) > math.MaxUint8 {
		return types.NewError(types.KindCodecMalformed, path, fmt.Sprintf("key length %d exceeds 255 bytes", len(key)))
	}
	buf.WriteByte(byte(len(key)))
	buf.WriteString(key)
	return nil
}

func encodeHash(buf *bytes.Buffer, h *Hash, path string) error {
	putU32(buf, uint32(h.Len()))
	for _, n := range h.nodes {
		p := joinPath(path, n.key, Separator)
		if err := putKey(buf, n.key, p); err != nil {
			return err
		}
		putU32(buf, n.typ.Code())
		putU32(buf, uint32(n.attrs.Len()))
		for _, a := range n.attrs.list {
			ap := p + "@" + a.key
			if err := putKey(buf, a.key, ap); err != nil {
				return err
			}
			putU32(buf, a.typ.Code())
			if err := encodeValue(buf, a.typ, a.value, ap); err != nil {
				return err
			}
		}
		if err := encodeValue(buf, n.typ, n.value, p); err != nil {
			return err
		}
	}
	return nil
}

func encodeSchema(buf *bytes.Buffer, s *Schema, path string) error {
	if len(s.Name) > math.MaxUint8 {
		return types.NewError(types.KindCodecMalformed, path, "schema name exceeds 255 bytes")
	}
	body := bytes.NewBuffer(nil)
	body.WriteByte(byte(len(s.Name)))
	body.WriteString(s.Name)
	if err := encodeHash(body, s.Hash, path); err != nil {
		return err
	}
	putU32(buf, uint32(body.Len()))
	buf.Write(body.Bytes())
	return nil
}

func encodeValue(buf *bytes.Buffer, t types.Type, v any, path string) error {
	switch t {
	case types.Hash:
		h, ok := v.(*Hash)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		return encodeHash(buf, h, path)

	case types.VectorHash:
		list, ok := v.([]*Hash)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		putU32(buf, uint32(len(list)))
		for i, h := range list {
			if err := encodeHash(buf, h, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	case types.Schema:
		s, ok := v.(*Schema)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		return encodeSchema(buf, s, path)

	case types.None:
		putU32(buf, 0)
		return nil

	case types.VectorNone:
		list, ok := v.([]any)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		putU32(buf, uint32(len(list)))
		for range list {
			putU32(buf, 0)
		}
		return nil

	case types.String:
		s, ok := v.(string)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		putU32(buf, uint32(len(s)))
		buf.WriteString(s)
		return nil

	case types.VectorString:
		list, ok := v.([]string)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		putU32(buf, uint32(len(list)))
		for _, s := range list {
			putU32(buf, uint32(len(s)))
			buf.WriteString(s)
		}
		return nil

	case types.VectorChar:
		list, ok := v.([]types.Character)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		putU32(buf, uint32(len(list)))
		for _, c := range list {
			buf.WriteByte(byte(c))
		}
		return nil

	case types.VectorUInt8, types.ByteArray:
		b, ok := v.([]byte)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		putU32(buf, uint32(len(b)))
		buf.Write(b)
		return nil
	}

	if !t.IsValid() {
		return types.NewError(types.KindCodecUnknownType, path, fmt.Sprintf("cannot encode type code %d", t.Code()))
	}
	if t.IsVector() {
		if types.Len(v) < 0 {
			return encodeMismatch(path, t, v)
		}
		putU32(buf, uint32(types.Len(v)))
	}
	// fixed width scalars and their vectors have the native layout
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		return types.WrapError(types.KindCodecMalformed, path, fmt.Sprintf("cannot encode %s", t), err)
	}
	return nil
}

func encodeMismatch(path string, t types.Type, v any) error {
	return types.NewError(types.KindTypeMismatch, path, fmt.Sprintf("%s node holds %T", t, v))
}

// ----------------------------------------------------------------------------
// decoder

func truncated(path string) error {
	return types.WrapError(types.KindCodecTruncated, path, "unexpected end of input", io.ErrShortBuffer)
}

func trailingBytes(n int) error {
	return types.NewError(types.KindCodecMalformed, "", fmt.Sprintf("%d trailing bytes after hash", n))
}

func readU32(buf *bytes.Buffer, path string) (uint32, error) {
	b := buf.Next(4)
	if len(b) < 4 {
		return 0, truncated(path)
	}
	return binary.LittleEndian.Uint32(b), nil
}

func readBytes(buf *bytes.Buffer, n int, path string) ([]byte, error) {
	if buf.Len() < n {
		return nil, truncated(path)
	}
	return buf.Next(n), nil
}

func readKey(buf *bytes.Buffer, path string) (string, error) {
	b := buf.Next(1)
	if len(b) == 0 {
		return "", truncated(path)
	}
	key, err := readBytes(buf, int(b[0]), path)
	if err != nil {
		return "", err
	}
	return string(key), nil
}

func readType(buf *bytes.Buffer, path string) (types.Type, error) {
	code, err := readU32(buf, path)
	if err != nil {
		return types.Unknown, err
	}
	t, err := types.FromCode(code)
	if err != nil {
		return types.Unknown, withPath(err, path)
	}
	return t, nil
}

// readCount reads an element count and checks that at least min bytes per
// element remain.
func readCount(buf *bytes.Buffer, min int, path string) (int, error) {
	n, err := readU32(buf, path)
	if err != nil {
		return 0, err
	}
	if uint64(n)*uint64(min) > uint64(buf.Len()) {
		return 0, truncated(path)
	}
	return int(n), nil
}

func decodeHash(buf *bytes.Buffer, path string) (*Hash, error) {
	// smallest node: key length byte, type and attribute count
	n, err := readCount(buf, 9, path)
	if err != nil {
		return nil, err
	}
	h := New()
	for i := 0; i < n; i++ {
		key, err := readKey(buf, path)
		if err != nil {
			return nil, err
		}
		p := joinPath(path, key, Separator)
		t, err := readType(buf, p)
		if err != nil {
			return nil, err
		}
		na, err := readCount(buf, 5, p)
		if err != nil {
			return nil, err
		}
		attrs := &Attributes{}
		for j := 0; j < na; j++ {
			akey, err := readKey(buf, p)
			if err != nil {
				return nil, err
			}
			ap := p + "@" + akey
			at, err := readType(buf, ap)
			if err != nil {
				return nil, err
			}
			av, err := decodeValue(buf, at, ap)
			if err != nil {
				return nil, err
			}
			attrs.put(akey, av, at)
		}
		v, err := decodeValue(buf, t, p)
		if err != nil {
			return nil, err
		}
		h.put(key, v, t).attrs = attrs
	}
	return h, nil
}

func decodeHashes(buf *bytes.Buffer, path string) ([]*Hash, error) {
	n, err := readCount(buf, 4, path)
	if err != nil {
		return nil, err
	}
	list := make([]*Hash, n)
	for i := range list {
		if list[i], err = decodeHash(buf, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func decodeSchema(buf *bytes.Buffer, path string) (*Schema, error) {
	size, err := readU32(buf, path)
	if err != nil {
		return nil, err
	}
	body, err := readBytes(buf, int(size), path)
	if err != nil {
		return nil, err
	}
	sub := bytes.NewBuffer(body)
	name, err := readKey(sub, path)
	if err != nil {
		return nil, err
	}
	h, err := decodeHash(sub, path)
	if err != nil {
		return nil, err
	}
	if sub.Len() > 0 {
		return nil, types.NewError(types.KindCodecMalformed, path, fmt.Sprintf("schema length mismatch, %d bytes left", sub.Len()))
	}
	return &Schema{Name: name, Hash: h}, nil
}

func decodeValue(buf *bytes.Buffer, t types.Type, path string) (any, error) {
	switch t {
	case types.Hash:
		return decodeHash(buf, path)
	case types.VectorHash:
		return decodeHashes(buf, path)
	case types.Schema:
		return decodeSchema(buf, path)
	case types.None:
		n, err := readU32(buf, path)
		if err != nil {
			return nil, err
		}
		if n != 0 {
			return nil, types.NewError(types.KindCodecMalformed, path, fmt.Sprintf("NONE value carries %d bytes", n))
		}
		return nil, nil
	case types.VectorNone:
		n, err := readCount(buf, 4, path)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			if _, err := decodeValue(buf, types.None, path); err != nil {
				return nil, err
			}
		}
		return make([]any, n), nil
	case types.Bool:
		b, err := readBytes(buf, 1, path)
		if err != nil {
			return nil, err
		}
		return b[0] != 0, nil
	case types.Char:
		b, err := readBytes(buf, 1, path)
		if err != nil {
			return nil, err
		}
		return types.Character(b[0]), nil
	case types.String:
		n, err := readU32(buf, path)
		if err != nil {
			return nil, err
		}
		b, err := readBytes(buf, int(n), path)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case types.VectorString:
		n, err := readCount(buf, 4, path)
		if err != nil {
			return nil, err
		}
		list := make([]string, n)
		for i := range list {
			s, err := decodeValue(buf, types.String, path)
			if err != nil {
				return nil, err
			}
			list[i] = s.(string)
		}
		return list, nil
	case types.VectorChar:
		n, err := readU32(buf, path)
		if err != nil {
			return nil, err
		}
		b, err := readBytes(buf, int(n), path)
		if err != nil {
			return nil, err
		}
		list := make([]types.Character, len(b))
		for i := range b {
			list[i] = types.Character(b[i])
		}
		return list, nil
	case types.VectorUInt8, types.ByteArray:
		n, err := readU32(buf, path)
		if err != nil {
			return nil, err
		}
		b, err := readBytes(buf, int(n), path)
		if err != nil {
			return nil, err
		}
		return append([]byte{}, b...), nil
	case types.Int8:
		return readFixed[int8](buf, path)
	case types.UInt8:
		return readFixed[uint8](buf, path)
	case types.Int16:
		return readFixed[int16](buf, path)
	case types.UInt16:
		return readFixed[uint16](buf, path)
	case types.Int32:
		return readFixed[int32](buf, path)
	case types.UInt32:
		return readFixed[uint32](buf, path)
	case types.Int64:
		return readFixed[int64](buf, path)
	case types.UInt64:
		return readFixed[uint64](buf, path)
	case types.Float:
		return readFixed[float32](buf, path)
	case types.Double:
		return readFixed[float64](buf, path)
	case types.ComplexFloat:
		return readFixed[complex64](buf, path)
	case types.ComplexDouble:
		return readFixed[complex128](buf, path)
	case types.VectorBool:
		return readVector[bool](buf, 1, path)
	case types.VectorInt8:
		return readVector[int8](buf, 1, path)
	case types.VectorInt16:
		return readVector[int16](buf, 2, path)
	case types.VectorUInt16:
		return readVector[uint16](buf, 2, path)
	case types.VectorInt32:
		return readVector[int32](buf, 4, path)
	case types.VectorUInt32:
		return readVector[uint32](buf, 4, path)
	case types.VectorInt64:
		return readVector[int64](buf, 8, path)
	case types.VectorUInt64:
		return readVector[uint64](buf, 8, path)
	case types.VectorFloat:
		return readVector[float32](buf, 4, path)
	case types.VectorDouble:
		return readVector[float64](buf, 8, path)
	case types.VectorComplexFloat:
		return readVector[complex64](buf, 8, path)
	case types.VectorComplexDouble:
		return readVector[complex128](buf, 16, path)
	}
	return nil, types.NewError(types.KindCodecUnknownType, path, fmt.Sprintf("cannot decode type %s", t))
}

func readFixed[T any](buf *bytes.Buffer, path string) (T, error) {
	var v T
	if buf.Len() < binary.Size(v) {
		return v, truncated(path)
	}
	if err := binary.Read(buf, binary.LittleEndian, &v); err != nil {
		return v, types.WrapError(types.KindCodecMalformed, path, "cannot decode value", err)
	}
	return v, nil
}

func readVector[T any](buf *bytes.Buffer, size int, path string) ([]T, error) {
	n, err := readCount(buf, size, path)
	if err != nil {
		return nil, err
	}
	v := make([]T, n)
	if n == 0 {
		return v, nil
	}
	if err := binary.Read(buf, binary.LittleEndian, v); err != nil {
		return nil, types.WrapError(types.KindCodecMalformed, path, "cannot decode vector", err)
	}
	return v, nil
}
