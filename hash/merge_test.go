// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"reflect"
	"testing"
)

func TestMergeOverlapping(t *testing.T) {
	h1 := MustNew("a", 1, "b.c", 2)
	if err := h1.SetAttribute("a", "tag", "first"); err != nil {
		t.Fatal(err)
	}
	h2 := MustNew("b.c", 9, "b.d", 3)

	h1.Merge(h2, MergeAttributes)
	want := MustNew("b.c", 9, "b.d", 3, "a", 1)
	if err := want.SetAttribute("a", "tag", "first"); err != nil {
		t.Fatal(err)
	}
	if !h1.FullyEqual(want, false) {
		t.Errorf("merge mismatch:\n%s", h1)
	}
	if have, want := h1.Keys(), []string{"a", "b"}; !reflect.DeepEqual(have, want) {
		t.Errorf("existing keys must keep their position: have=%v want=%v", have, want)
	}

	// the other direction lets h1 values win and appends new nodes
	h2 = MustNew("b.c", 9, "b.d", 3)
	src := MustNew("a", 1, "b.c", 2)
	h2.Merge(src, MergeAttributes)
	if v, _ := h2.Get("b.c"); v != int32(2) {
		t.Errorf("leaf not replaced: have=%v", v)
	}
	if have, want := h2.Paths(), []string{"b.c", "b.d", "a"}; !reflect.DeepEqual(have, want) {
		t.Errorf("paths mismatch: have=%v want=%v", have, want)
	}
}

func TestMergeAttributePolicy(t *testing.T) {
	build := func() (*Hash, *Hash) {
		dst := MustNew("b.c", 1)
		src := MustNew("b.c", 2)
		_ = dst.SetAttribute("b.c", "x", 1)
		_ = src.SetAttribute("b.c", "y", 2)
		return dst, src
	}
	dst, src := build()
	dst.Merge(src, MergeAttributes)
	if !dst.HasAttribute("b.c", "x") || !dst.HasAttribute("b.c", "y") {
		t.Errorf("merge policy must keep both attributes")
	}
	dst, src = build()
	dst.Merge(src, ReplaceAttributes)
	if dst.HasAttribute("b.c", "x") || !dst.HasAttribute("b.c", "y") {
		t.Errorf("replace policy must drop existing attributes")
	}
	if err := src.SetAttribute("b.c", "y", 3); err != nil {
		t.Fatal(err)
	}
	if v, _ := dst.GetAttribute("b.c", "y"); v != int32(2) {
		t.Errorf("merged attributes alias the source")
	}
}

func TestMergeSelectedPaths(t *testing.T) {
	src := MustNew("a", 1, "b.c", 2, "b.d", 3, "e", 4)
	dst := New()
	dst.Merge(src, MergeAttributes, "b.c", "e", "missing.path")
	if have, want := dst.Paths(), []string{"b.c", "e"}; !reflect.DeepEqual(have, want) {
		t.Errorf("selection mismatch: have=%v want=%v", have, want)
	}
}

func TestMergeVectors(t *testing.T) {
	src := MustNew("v", []*Hash{MustNew("i", 0), MustNew("i", 1), MustNew("i", 2)})

	dst := New()
	dst.Merge(src, MergeAttributes, "v[2]", "v[7]")
	list, err := GetValue[[]*Hash](dst, "v")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || !list[0].FullyEqual(MustNew("i", 2), true) {
		t.Errorf("item selection mismatch: %v", list)
	}

	dst = MustNew("v", []*Hash{MustNew("i", 9)})
	dst.MergeWith(src, MergeOptions{Vectors: VectorAppend})
	if list, _ := GetValue[[]*Hash](dst, "v"); len(list) != 4 {
		t.Errorf("append length mismatch: have=%d want=4", len(list))
	}

	dst = MustNew("v", []*Hash{MustNew("i", 9, "j", 1)})
	dst.MergeWith(src, MergeOptions{Vectors: VectorMergeItems})
	list, _ = GetValue[[]*Hash](dst, "v")
	if len(list) != 3 || !list[0].FullyEqual(MustNew("i", 0, "j", 1), true) {
		t.Errorf("item merge mismatch: %v", list)
	}

	dst = MustNew("v", []*Hash{MustNew("i", 9)})
	dst.Merge(src, MergeAttributes)
	if list, _ := GetValue[[]*Hash](dst, "v"); len(list) != 3 {
		t.Errorf("replace length mismatch: have=%d want=3", len(list))
	}
}

func TestMergeDoesNotAlias(t *testing.T) {
	src := MustNew("a.b", 1)
	dst := New()
	dst.Merge(src, MergeAttributes)
	if err := src.Set("a.b", 2); err != nil {
		t.Fatal(err)
	}
	if v, _ := dst.Get("a.b"); v != int32(1) {
		t.Errorf("merged hash aliases the source")
	}
}
