// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/European-XFEL/Karabo-sub007/types"
)

func TestFromJSON(t *testing.T) {
	doc := `{"b":1,"a":{"x":[1,2.5],"y":"s"},"n":null,"rows":[{"k":true}],"big":5000000000,"e":[]}`
	h, err := FromJSON([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if have, want := h.Keys(), []string{"b", "a", "n", "rows", "big", "e"}; !reflect.DeepEqual(have, want) {
		t.Errorf("key order mismatch: have=%v want=%v", have, want)
	}
	checks := []struct {
		path string
		typ  types.Type
	}{
		{"b", types.Int32},
		{"a.x", types.VectorDouble},
		{"a.y", types.String},
		{"n", types.None},
		{"rows", types.VectorHash},
		{"rows[0].k", types.Bool},
		{"big", types.Int64},
		{"e", types.VectorString},
	}
	for _, c := range checks {
		if typ, err := h.GetType(c.path); err != nil || typ != c.typ {
			t.Errorf("%s type mismatch: have=%s want=%s err=%v", c.path, typ, c.typ, err)
		}
	}
	if v, _ := h.Get("a.x"); !reflect.DeepEqual(v, []float64{1, 2.5}) {
		t.Errorf("widened vector mismatch: have=%v", v)
	}
	if _, err := FromJSON([]byte(`[1,2]`)); !errors.Is(err, types.ErrCodecMalformed) {
		t.Errorf("expected malformed error for array document, have=%v", err)
	}
	if _, err := FromJSON([]byte(`{"a":`)); !errors.Is(err, types.ErrCodecMalformed) {
		t.Errorf("expected malformed error for broken document, have=%v", err)
	}
}

func TestMarshalJSON(t *testing.T) {
	h := MustNew("a", 1, "b.c", "x", "v", []*Hash{MustNew("k", true)})
	if err := h.SetAttribute("a", "unit", "m"); err != nil {
		t.Fatal(err)
	}
	buf, err := json.Marshal(h)
	if err != nil {
		t.Fatal(err)
	}
	if have, want := string(buf), `{"a":1,"b":{"c":"x"},"v":[{"k":true}]}`; have != want {
		t.Errorf("json mismatch: have=%s want=%s", have, want)
	}
	var out Hash
	if err := json.Unmarshal(buf, &out); err != nil {
		t.Fatal(err)
	}
	if !out.Similar(h) {
		t.Errorf("json round-trip not similar:\n%s", &out)
	}
}

func TestYAML(t *testing.T) {
	doc := "b: 1\na:\n  x: [1, 2]\n  y: hello\nrows:\n  - k: true\n  - k: false\nf: 0.5\nn: ~\n"
	h, err := FromYAML([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if have, want := h.Paths(), []string{"b", "a.x", "a.y", "rows", "f", "n"}; !reflect.DeepEqual(have, want) {
		t.Errorf("paths mismatch: have=%v want=%v", have, want)
	}
	if v, _ := h.Get("a.x"); !reflect.DeepEqual(v, []int32{1, 2}) {
		t.Errorf("vector mismatch: have=%#v", v)
	}
	if v, _ := h.Get("rows[1].k"); v != false {
		t.Errorf("sequence item mismatch: have=%#v", v)
	}
	if v, _ := h.Get("f"); v != 0.5 {
		t.Errorf("float mismatch: have=%#v", v)
	}
	if typ, _ := h.GetType("n"); typ != types.None {
		t.Errorf("null mismatch: have=%s", typ)
	}

	buf, err := yaml.Marshal(h)
	if err != nil {
		t.Fatal(err)
	}
	back, err := FromYAML(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !back.FullyEqual(h, true) {
		t.Errorf("yaml round-trip mismatch:\n%s\nwant\n%s", back, h)
	}
	if _, err := FromYAML([]byte("- a\n- b\n")); !errors.Is(err, types.ErrCodecMalformed) {
		t.Errorf("expected malformed error for sequence document, have=%v", err)
	}
}
