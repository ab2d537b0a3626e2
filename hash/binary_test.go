// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/European-XFEL/Karabo-sub007/types"
)

func TestBinaryLayout(t *testing.T) {
	h := MustNew("a", int32(1))
	buf, err := h.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0x01, 0x00, 0x00, 0x00, // key count
		0x01, 'a', // key
		0x0c, 0x00, 0x00, 0x00, // INT32
		0x00, 0x00, 0x00, 0x00, // attribute count
		0x01, 0x00, 0x00, 0x00, // value
	}
	if !bytes.Equal(buf, want) {
		t.Errorf("layout mismatch:\nhave=%x\nwant=%x", buf, want)
	}
}

func TestBinaryAttributesRoundTrip(t *testing.T) {
	h := MustNew(
		"bool", true,
		"int", 4,
		"string", "bla",
		"vector", []int{0, 1, 2, 3, 4, 5, 6},
	)
	if err := h.SetAttribute("bool", "bool", false); err != nil {
		t.Fatal(err)
	}
	if err := h.SetAttribute("int", "float", float32(7.3)); err != nil {
		t.Fatal(err)
	}
	if err := h.SetAttribute("int", "double", 24.0); err != nil {
		t.Fatal(err)
	}
	buf, err := h.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	again, _ := h.MarshalBinary()
	if !bytes.Equal(buf, again) {
		t.Errorf("encoding is not deterministic")
	}
	out := New()
	if err := out.UnmarshalBinary(buf); err != nil {
		t.Fatal(err)
	}
	if !out.FullyEqual(h, true) {
		t.Errorf("round-trip mismatch:\n%s\nwant\n%s", out, h)
	}
	if v, _ := out.GetAttribute("int", "float"); v != float32(7.3) {
		t.Errorf("float attribute mismatch: have=%#v", v)
	}
	if typ, _ := out.GetType("vector"); typ != types.VectorInt32 {
		t.Errorf("vector type mismatch: have=%s", typ)
	}
}

func TestBinaryAllTypes(t *testing.T) {
	h := allTypes()
	buf, err := h.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	out := New()
	if err := out.UnmarshalBinary(buf); err != nil {
		t.Fatal(err)
	}
	if !out.FullyEqual(h, true) {
		t.Errorf("round-trip mismatch:\n%s\nwant\n%s", out, h)
	}
	again, err := out.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, again) {
		t.Errorf("re-encoding differs")
	}
}

func TestBinaryTruncated(t *testing.T) {
	buf, err := allTypes().MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(buf); i++ {
		h := MustNew("keep", 1)
		err := h.UnmarshalBinary(buf[:i])
		if !errors.Is(err, types.ErrCodecTruncated) {
			t.Fatalf("prefix %d: expected truncation error, have=%v", i, err)
		}
		if !errors.Is(err, io.ErrShortBuffer) {
			t.Fatalf("prefix %d: cause lost: %v", i, err)
		}
		if !h.Has("keep") {
			t.Fatalf("prefix %d: receiver modified on error", i)
		}
	}
}

func TestBinaryMalformed(t *testing.T) {
	unknown := []byte{
		0x01, 0x00, 0x00, 0x00,
		0x01, 'a',
		0x21, 0x00, 0x00, 0x00, // code 33 is unassigned
		0x00, 0x00, 0x00, 0x00,
	}
	err := New().UnmarshalBinary(unknown)
	if !errors.Is(err, types.ErrCodecUnknownType) {
		t.Errorf("expected unknown type error, have=%v", err)
	}

	buf, _ := MustNew("a", int32(1)).MarshalBinary()
	err = New().UnmarshalBinary(append(buf, 0x00))
	if !errors.Is(err, types.ErrCodecMalformed) {
		t.Errorf("expected malformed error for trailing bytes, have=%v", err)
	}

	none := []byte{
		0x01, 0x00, 0x00, 0x00,
		0x01, 'n',
		0x23, 0x00, 0x00, 0x00, // NONE
		0x00, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00, // non-zero payload size
	}
	err = New().UnmarshalBinary(none)
	if !errors.Is(err, types.ErrCodecMalformed) {
		t.Errorf("expected malformed error for NONE payload, have=%v", err)
	}
}

func TestBinarySequence(t *testing.T) {
	list := []*Hash{MustNew("a", 1), New(), MustNew("b.c", "x")}
	buf, err := EncodeSequence(list)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeSequence(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(list) {
		t.Fatalf("length mismatch: have=%d want=%d", len(out), len(list))
	}
	for i := range list {
		if !out[i].FullyEqual(list[i], true) {
			t.Errorf("item %d mismatch", i)
		}
	}
}

func TestBinaryKeyTooLong(t *testing.T) {
	h := New()
	if err := h.SetSep(string(bytes.Repeat([]byte{'k'}, 256)), 1, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := h.MarshalBinary(); !errors.Is(err, types.ErrCodecMalformed) {
		t.Errorf("expected malformed error for long key, have=%v", err)
	}
}

func TestSchemaBinary(t *testing.T) {
	s := NewSchema("Motor")
	if err := s.Hash.Set("speed", 1.5); err != nil {
		t.Fatal(err)
	}
	buf, err := s.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	out := NewSchema("")
	if err := out.UnmarshalBinary(buf); err != nil {
		t.Fatal(err)
	}
	if !out.Equal(s) {
		t.Errorf("schema round-trip mismatch: have=%s", out.Name)
	}
}
