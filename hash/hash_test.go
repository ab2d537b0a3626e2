// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"errors"
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/European-XFEL/Karabo-sub007/types"
)

// allTypes returns a Hash carrying every value kind.
func allTypes() *Hash {
	h := New()
	set := func(path string, v any) {
		if err := h.Set(path, v); err != nil {
			panic(err)
		}
	}
	set("bool", true)
	set("char", types.Character('x'))
	set("int8", int8(-8))
	set("uint8", uint8(8))
	set("int16", int16(-16))
	set("uint16", uint16(16))
	set("int32", int32(-32))
	set("uint32", uint32(32))
	set("int64", int64(math.MinInt64))
	set("uint64", uint64(math.MaxUint64))
	set("float", float32(7.3))
	set("double", 24.125)
	set("cfloat", complex64(complex(1, -2)))
	set("cdouble", complex(0.5, 3))
	set("string", "bla bla")
	set("vbool", []bool{true, false})
	set("vchar", []types.Character{'a', 'b', 'c'})
	set("vint8", []int8{-1, 2})
	if err := h.SetAs("vuint8", []byte{1, 2, 255}, types.VectorUInt8); err != nil {
		panic(err)
	}
	set("vint16", []int16{-300, 300})
	set("vuint16", []uint16{1, 65535})
	set("vint32", []int32{0, 1, 2, 3, 4, 5, 6})
	set("vuint32", []uint32{7})
	set("vint64", []int64{math.MaxInt64})
	set("vuint64", []uint64{1, 2})
	set("vfloat", []float32{0.5, -1.25})
	set("vdouble", []float64{1e-300, 3.5})
	set("vcfloat", []complex64{complex(1, 1)})
	set("vcdouble", []complex128{complex(-1, 0.5), complex(2, 0)})
	set("vstring", []string{"a", "b"})
	set("vempty", []float64{})
	set("bytes", []byte("raw\x00data"))
	set("none", nil)
	set("vnone", []any{nil, nil})
	set("node.leaf", int32(1))
	set("node.deeper.x", "y")
	set("empty", New())
	set("rows", []*Hash{MustNew("a", 1), New()})
	s := NewSchema("Motor")
	if err := s.Hash.Set("speed", int32(0)); err != nil {
		panic(err)
	}
	if err := s.Hash.SetAttribute("speed", "valueType", "INT32"); err != nil {
		panic(err)
	}
	set("schema", s)

	attr := func(path, key string, v any) {
		if err := h.SetAttribute(path, key, v); err != nil {
			panic(err)
		}
	}
	attr("int32", "unit", "m")
	attr("int32", "alarm", 2.5)
	attr("int32", "flag", false)
	attr("rows", "rowSchema", []*Hash{MustNew("x", "y")})
	attr("node", "tags", []string{"a", "b"})
	attr("node", "limits", []int16{-1, 1})
	attr("schema", "owner", NewSchema("Owner"))
	return h
}

func TestSetCreatesPath(t *testing.T) {
	h := New()
	if err := h.Set("a.b.c", 7); err != nil {
		t.Fatalf("set: %v", err)
	}
	if have, want := h.Paths(), []string{"a.b.c"}; !reflect.DeepEqual(have, want) {
		t.Errorf("paths mismatch: have=%v want=%v", have, want)
	}
	v, err := h.Get("a.b.c")
	if err != nil || v != int32(7) {
		t.Errorf("value mismatch: have=%#v err=%v", v, err)
	}
	sub, err := h.GetHash("a")
	if err != nil {
		t.Fatalf("get sub-hash: %v", err)
	}
	if !sub.Has("b.c") {
		t.Errorf("sub-hash lacks path b.c")
	}
	// sub-hashes alias the parent
	if err := sub.Set("b.d", "x"); err != nil {
		t.Fatalf("set on alias: %v", err)
	}
	if !h.Has("a.b.d") {
		t.Errorf("mutation through alias not visible in parent")
	}
}

func TestInsertionOrder(t *testing.T) {
	h := MustNew("x", 1, "y", 2, "z", 3)
	if err := h.Set("x", 10); err != nil {
		t.Fatal(err)
	}
	if have, want := h.Keys(), []string{"x", "y", "z"}; !reflect.DeepEqual(have, want) {
		t.Errorf("re-set moved key: have=%v want=%v", have, want)
	}
	if !h.Erase("x") {
		t.Fatalf("erase failed")
	}
	if err := h.Set("x", 11); err != nil {
		t.Fatal(err)
	}
	if have, want := h.Keys(), []string{"y", "z", "x"}; !reflect.DeepEqual(have, want) {
		t.Errorf("erase+set order mismatch: have=%v want=%v", have, want)
	}
}

func TestReplaceChangesKind(t *testing.T) {
	h := MustNew("a.b", 1)
	if err := h.SetAttribute("a", "keep", true); err != nil {
		t.Fatal(err)
	}
	if err := h.Set("a", "leaf"); err != nil {
		t.Fatal(err)
	}
	if typ, _ := h.GetType("a"); typ != types.String {
		t.Errorf("type mismatch: have=%s want=STRING", typ)
	}
	if h.Has("a.b") {
		t.Errorf("old subtree still reachable")
	}
	if !h.HasAttribute("a", "keep") {
		t.Errorf("attributes lost on re-assignment")
	}
}

func TestVectorHashPaths(t *testing.T) {
	h := New()
	if err := h.Set("v[1].x", 5); err != nil {
		t.Fatal(err)
	}
	list, err := GetValue[[]*Hash](h, "v")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || !list[0].Empty() {
		t.Errorf("vector mismatch: len=%d", len(list))
	}
	if v, err := h.Get("v[1].x"); err != nil || v != int32(5) {
		t.Errorf("indexed get mismatch: have=%v err=%v", v, err)
	}
	if typ, _ := h.GetType("v[1]"); typ != types.Hash {
		t.Errorf("item type mismatch: have=%s", typ)
	}
	if have, want := h.Paths(), []string{"v"}; !reflect.DeepEqual(have, want) {
		t.Errorf("paths mismatch: have=%v want=%v", have, want)
	}
	if have, want := h.DeepPaths(), []string{"v[0]", "v[1].x"}; !reflect.DeepEqual(have, want) {
		t.Errorf("deep paths mismatch: have=%v want=%v", have, want)
	}
	if _, err := h.Get("v[2]"); !errors.Is(err, types.ErrPathNotFound) {
		t.Errorf("expected path-not-found for bad index, have=%v", err)
	}
	if err := h.Set("v[0]", 3); !errors.Is(err, types.ErrTypeMismatch) {
		t.Errorf("expected type mismatch for scalar item, have=%v", err)
	}
	if !h.Erase("v[0]") {
		t.Fatalf("erase item failed")
	}
	if v, err := h.Get("v[0].x"); err != nil || v != int32(5) {
		t.Errorf("item shift mismatch: have=%v err=%v", v, err)
	}
}

func TestAlternateSeparator(t *testing.T) {
	h := New()
	if err := h.SetSep("a/b.c", 1, "/"); err != nil {
		t.Fatal(err)
	}
	if !h.HasSep("a/b.c", "/") || h.Has("a.b.c") {
		t.Errorf("separator not honoured")
	}
	if sub, err := h.GetHash("a"); err != nil || !sub.HasSep("b.c", "") {
		t.Errorf("key with dot not stored verbatim: err=%v", err)
	}
}

func TestAttributeErrors(t *testing.T) {
	h := MustNew("a", 1)
	if err := h.SetAttribute("a", "unit", "m"); err != nil {
		t.Fatal(err)
	}
	if v, err := h.GetAttribute("a", "unit"); err != nil || v != "m" {
		t.Errorf("attribute mismatch: have=%v err=%v", v, err)
	}
	if _, err := h.GetAttribute("b", "unit"); !errors.Is(err, types.ErrPathNotFound) {
		t.Errorf("expected path-not-found, have=%v", err)
	}
	if _, err := h.GetAttribute("a", "scale"); !errors.Is(err, types.ErrAttributeNotFound) {
		t.Errorf("expected attribute-not-found, have=%v", err)
	}
	if err := h.SetAttribute("b", "unit", "m"); !errors.Is(err, types.ErrPathNotFound) {
		t.Errorf("expected path-not-found on set, have=%v", err)
	}
	if v, err := GetAttributeValue[string](h, "a", "unit"); err != nil || v != "m" {
		t.Errorf("typed attribute mismatch: have=%v err=%v", v, err)
	}
	if v, err := h.GetAttributeAs("a", "unit", types.VectorString); err != nil || !reflect.DeepEqual(v, []string{"m"}) {
		t.Errorf("attribute conversion mismatch: have=%v err=%v", v, err)
	}
}

func TestGetAs(t *testing.T) {
	h := MustNew("i", int16(5), "big", int32(300), "flag", true)
	cases := []struct {
		path string
		to   types.Type
		want any
	}{
		{"i", types.String, "5"},
		{"i", types.Int8, int8(5)},
		{"i", types.VectorInt16, []int16{5}},
		{"flag", types.Int32, int32(1)},
		{"flag", types.String, "1"},
	}
	for _, c := range cases {
		v, err := h.GetAs(c.path, c.to)
		if err != nil {
			t.Errorf("%s as %s: %v", c.path, c.to, err)
			continue
		}
		if !reflect.DeepEqual(v, c.want) {
			t.Errorf("%s as %s mismatch: have=%#v want=%#v", c.path, c.to, v, c.want)
		}
	}
	if _, err := h.GetAs("big", types.Int8); !errors.Is(err, types.ErrConversionFailed) {
		t.Errorf("expected conversion failure on narrowing, have=%v", err)
	}
	if _, err := GetValue[float64](h, "i"); !errors.Is(err, types.ErrTypeMismatch) {
		t.Errorf("expected type mismatch, have=%v", err)
	}
}

func TestCompositeStringConversion(t *testing.T) {
	h := MustNew("dev.a", 1, "dev.b", "x")
	s, err := h.GetAs("dev", types.String)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Convert(s, types.Hash)
	if err != nil {
		t.Fatal(err)
	}
	sub, _ := h.GetHash("dev")
	if !back.(*Hash).FullyEqual(sub, true) {
		t.Errorf("hash string round-trip mismatch: %v", back)
	}
	if _, err := h.GetAs("dev", types.Int32); !errors.Is(err, types.ErrConversionFailed) {
		t.Errorf("expected conversion failure for HASH to INT32, have=%v", err)
	}
}

func TestErasePath(t *testing.T) {
	h := MustNew("a.b.c", 1, "a.d", 2, "x.y.z", 3)
	if !h.ErasePath("a.b.c") {
		t.Fatalf("erase path failed")
	}
	if h.Has("a.b") || !h.Has("a.d") {
		t.Errorf("unexpected tree after erase path: %v", h.Paths())
	}
	if !h.Erase("a.d") {
		t.Fatalf("erase failed")
	}
	if !h.Has("a") {
		t.Errorf("erase must keep empty parents")
	}
	if !h.ErasePath("x.y.z") {
		t.Fatalf("erase path failed")
	}
	if h.Has("x") {
		t.Errorf("erase path must collapse empty parents")
	}
	if h.Erase("nope") {
		t.Errorf("erase of missing path reported success")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	h := allTypes()
	c := h.Clone()
	if !c.FullyEqual(h, true) {
		t.Fatalf("clone differs from original")
	}
	if err := c.Set("node.leaf", int32(2)); err != nil {
		t.Fatal(err)
	}
	if err := c.SetAttribute("int32", "unit", "km"); err != nil {
		t.Fatal(err)
	}
	rows, _ := GetValue[[]*Hash](c, "rows")
	if err := rows[0].Set("a", 99); err != nil {
		t.Fatal(err)
	}
	if v, _ := h.Get("node.leaf"); v != int32(1) {
		t.Errorf("clone shares nested hash")
	}
	if v, _ := h.GetAttribute("int32", "unit"); v != "m" {
		t.Errorf("clone shares attributes")
	}
	if v, _ := h.Get("rows[0].a"); v != int32(1) {
		t.Errorf("clone shares vector items")
	}
}

func TestPathsMatchWalk(t *testing.T) {
	h := allTypes()
	var walked []string
	h.Walk(func(path string, _ int, n *Node) bool {
		switch v := n.Value().(type) {
		case *Hash:
			if v.Empty() {
				walked = append(walked, path)
			}
			return true
		default:
			walked = append(walked, path)
			return false
		}
	})
	paths := h.Paths()
	sort.Strings(walked)
	sort.Strings(paths)
	if !reflect.DeepEqual(walked, paths) {
		t.Errorf("paths mismatch: have=%v want=%v", paths, walked)
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	h := MustNew("a.b.c", 1, "a.d", "x", "e", 2.5, "f", New())
	if err := h.SetAttribute("a.b.c", "unit", "m"); err != nil {
		t.Fatal(err)
	}
	if err := h.SetAttribute("a", "desc", "node"); err != nil {
		t.Fatal(err)
	}
	flat := h.Flatten("/")
	if have, want := flat.Keys(), []string{"a", "a/b/c", "a/d", "e", "f"}; !reflect.DeepEqual(have, want) {
		t.Errorf("flat keys mismatch: have=%v want=%v", have, want)
	}
	if v, err := flat.GetAttribute("a/b/c", "unit"); err != nil || v != "m" {
		t.Errorf("flat attribute mismatch: have=%v err=%v", v, err)
	}
	back := flat.Unflatten("/")
	if !back.FullyEqual(h, true) {
		t.Errorf("unflatten mismatch:\n%s\nwant\n%s", back, h)
	}
	full := allTypes()
	if !full.Flatten(".").Unflatten(".").FullyEqual(full, false) {
		t.Errorf("flatten round-trip of all types failed")
	}
}

func TestSimilarAndEqual(t *testing.T) {
	a := MustNew("a", 1, "b.c", "x")
	if !a.Similar(MustNew("b.c", "y", "a", 2)) {
		t.Errorf("expected similar hashes")
	}
	if a.Similar(MustNew("a", 1.0, "b.c", "x")) {
		t.Errorf("different kinds must not be similar")
	}
	x := MustNew("a", 1, "b", 2)
	y := MustNew("b", 2, "a", 1)
	if !x.FullyEqual(y, false) {
		t.Errorf("expected order agnostic equality")
	}
	if x.FullyEqual(y, true) {
		t.Errorf("expected order sensitive inequality")
	}
	if err := y.SetAttribute("a", "unit", "m"); err != nil {
		t.Fatal(err)
	}
	if x.FullyEqual(y, false) {
		t.Errorf("attributes must take part in equality")
	}
}

func TestSubtract(t *testing.T) {
	h := MustNew("a.b", 1, "a.c", 2, "d", 3)
	h.Subtract(MustNew("a.b", 0, "d", 0))
	if have, want := h.Paths(), []string{"a.c"}; !reflect.DeepEqual(have, want) {
		t.Errorf("subtract mismatch: have=%v want=%v", have, want)
	}
	h.Subtract(MustNew("a.c", 0))
	if have, want := h.Paths(), []string{"a"}; !reflect.DeepEqual(have, want) {
		t.Errorf("subtract must keep empty parents: have=%v want=%v", have, want)
	}
}

func TestString(t *testing.T) {
	h := MustNew("a.b", 7)
	if err := h.SetAttribute("a.b", "unit", "m"); err != nil {
		t.Fatal(err)
	}
	if have, want := h.String(), "a +\n  b unit=\"m\" => 7 INT32\n"; have != want {
		t.Errorf("string mismatch: have=%q want=%q", have, want)
	}
}
