// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/European-XFEL/Karabo-sub007/types"
)

func TestXMLRootedLayout(t *testing.T) {
	h := MustNew("dev.a", 1)
	if err := h.SetAttribute("dev.a", "unit", "m"); err != nil {
		t.Fatal(err)
	}
	buf, err := h.EncodeXML(CompactXML)
	if err != nil {
		t.Fatal(err)
	}
	want := `<dev KRB_Type="HASH"><a unit="KRB_STRING:m" KRB_Type="INT32">1</a></dev>`
	if string(buf) != want {
		t.Errorf("compact layout mismatch:\nhave=%s\nwant=%s", buf, want)
	}
	buf, err = h.EncodeXML(DefaultXML)
	if err != nil {
		t.Fatal(err)
	}
	want = "<?xml version=\"1.0\"?>\n" +
		"<dev KRB_Type=\"HASH\">\n" +
		"  <a unit=\"KRB_STRING:m\" KRB_Type=\"INT32\">1</a>\n" +
		"</dev>\n"
	if string(buf) != want {
		t.Errorf("indented layout mismatch:\nhave=%s\nwant=%s", buf, want)
	}
}

func TestXMLArtificialRoot(t *testing.T) {
	h := MustNew("a", 1, "b", true)
	buf, err := h.EncodeXML(CompactXML)
	if err != nil {
		t.Fatal(err)
	}
	want := `<root KRB_Artificial="" KRB_Type="HASH"><a KRB_Type="INT32">1</a><b KRB_Type="BOOL">1</b></root>`
	if string(buf) != want {
		t.Errorf("layout mismatch:\nhave=%s\nwant=%s", buf, want)
	}
	out := New()
	if err := out.DecodeXML(buf); err != nil {
		t.Fatal(err)
	}
	if !out.FullyEqual(h, true) {
		t.Errorf("round-trip mismatch:\n%s", out)
	}
}

func TestXMLTableRoundTrip(t *testing.T) {
	rows := []*Hash{MustNew("a", 3, "b", "x"), MustNew("a", 5, "b", "y")}
	if err := rows[0].SetAttribute("a", "unit", "m"); err != nil {
		t.Fatal(err)
	}
	h := MustNew("table", rows)
	for _, opts := range []XMLOptions{DefaultXML, CompactXML, {Indent: 4}} {
		buf, err := h.EncodeXML(opts)
		if err != nil {
			t.Fatal(err)
		}
		out := New()
		if err := out.DecodeXML(buf); err != nil {
			t.Fatalf("indent %d: %v", opts.Indent, err)
		}
		if !out.FullyEqual(h, true) {
			t.Errorf("indent %d: round-trip mismatch:\n%s", opts.Indent, out)
		}
		again, _ := out.EncodeXML(opts)
		if !bytes.Equal(buf, again) {
			t.Errorf("indent %d: re-encoding differs", opts.Indent)
		}
	}
}

func TestXMLAllTypes(t *testing.T) {
	h := allTypes()
	for _, opts := range []XMLOptions{DefaultXML, CompactXML} {
		buf, err := h.EncodeXML(opts)
		if err != nil {
			t.Fatal(err)
		}
		out := New()
		if err := out.DecodeXML(buf); err != nil {
			t.Fatalf("indent %d: %v", opts.Indent, err)
		}
		if !out.FullyEqual(h, true) {
			t.Errorf("indent %d: round-trip mismatch:\n%s\nwant\n%s", opts.Indent, out, h)
		}
	}
}

func TestXMLSlashInKey(t *testing.T) {
	h := New()
	if err := h.SetSep("a/b", 1, ""); err != nil {
		t.Fatal(err)
	}
	buf, err := h.EncodeXML(CompactXML)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(buf), "<a.KRB_SLASH.b ") {
		t.Errorf("slash not escaped: %s", buf)
	}
	out := New()
	if err := out.DecodeXML(buf); err != nil {
		t.Fatal(err)
	}
	if !out.HasSep("a/b", "") {
		t.Errorf("slash not restored: %v", out.Keys())
	}
}

func TestXMLInvalidNames(t *testing.T) {
	cases := []struct {
		name  string
		build func() *Hash
		path  string
	}{
		{"leading digit", func() *Hash { return MustNew("dev.1", 1) }, "dev.1"},
		{"space in key", func() *Hash { return MustNew("a b", 1) }, "a b"},
		{"root key", func() *Hash { return MustNew("my dev.a", 1) }, "my dev"},
		{"leading slash", func() *Hash {
			h := New()
			h.SetSep("/x", 1, "")
			return h
		}, "/x"},
		{"vector item key", func() *Hash {
			return MustNew("rows", []*Hash{MustNew("ok", 1), MustNew("not ok", 2)})
		}, "rows[1].not ok"},
		{"reserved attribute", func() *Hash {
			h := MustNew("dev.a", 1)
			h.SetAttribute("dev.a", "KRB_Type", "x")
			return h
		}, "dev.a@KRB_Type"},
		{"namespace attribute", func() *Hash {
			h := MustNew("dev.a", 1)
			h.SetAttribute("dev.a", "xmlns", "urn:x")
			return h
		}, "dev.a@xmlns"},
		{"prefixed namespace attribute", func() *Hash {
			h := MustNew("a", 1)
			h.SetAttribute("a", "xmlns:k", "urn:x")
			return h
		}, "a@xmlns:k"},
		{"attribute with space", func() *Hash {
			h := MustNew("a", 1)
			h.SetAttribute("a", "unit name", "m")
			return h
		}, "a@unit name"},
	}
	for _, c := range cases {
		_, err := c.build().EncodeXML(CompactXML)
		if !errors.Is(err, types.ErrCodecMalformedXML) {
			t.Errorf("%s: expected malformed XML error, have=%v", c.name, err)
			continue
		}
		var e *types.Error
		if errors.As(err, &e) && e.Path != c.path {
			t.Errorf("%s: error path mismatch: have=%q want=%q", c.name, e.Path, c.path)
		}
	}

	// attributes that survive the round trip
	h := MustNew("dev.a", 1)
	h.SetAttribute("dev.a", "KRBx", "1")
	h.SetAttribute("dev.a", "xmlnsx", "2")
	h.SetAttribute("dev.a", "ns:k", "3")
	buf, err := h.EncodeXML(CompactXML)
	if err != nil {
		t.Fatal(err)
	}
	out := New()
	if err := out.DecodeXML(buf); err != nil {
		t.Fatal(err)
	}
	if !out.FullyEqual(h, true) {
		t.Errorf("attribute round trip mismatch: have=%s", buf)
	}
}

func TestXMLStringVectorText(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{[]string{"a", "b"}, []string{"a", "b"}},
		{[]string{"a,b", "c"}, []string{"a", "b", "c"}},
		{[]string{" a ", "b"}, []string{"a", "b"}},
		{[]string{""}, []string{}},
	}
	for _, c := range cases {
		h := MustNew("v", c.in)
		buf, err := h.EncodeXML(CompactXML)
		if err != nil {
			t.Fatal(err)
		}
		out := New()
		if err := out.DecodeXML(buf); err != nil {
			t.Fatal(err)
		}
		if have, _ := out.Get("v"); !reflect.DeepEqual(have, c.want) {
			t.Errorf("%q: xml have=%q want=%q", c.in, have, c.want)
		}

		// the binary form keeps every element
		bin, err := h.MarshalBinary()
		if err != nil {
			t.Fatal(err)
		}
		back := New()
		if err := back.UnmarshalBinary(bin); err != nil {
			t.Fatal(err)
		}
		if have, _ := back.Get("v"); !reflect.DeepEqual(have, c.in) {
			t.Errorf("%q: binary have=%q want=%q", c.in, have, c.in)
		}
	}
}

func TestXMLUntypedInput(t *testing.T) {
	doc := `<dev><name>motor</name><rows><KRB_Item><x>1</x></KRB_Item></rows><flag a="plain">1</flag></dev>`
	h := New()
	if err := h.DecodeXML([]byte(doc)); err != nil {
		t.Fatal(err)
	}
	if v, _ := h.Get("dev.name"); v != "motor" {
		t.Errorf("untyped leaf mismatch: have=%#v", v)
	}
	if typ, _ := h.GetType("dev.rows"); typ != types.VectorHash {
		t.Errorf("item heuristic mismatch: have=%s", typ)
	}
	if v, _ := h.GetAttribute("dev.flag", "a"); v != "plain" {
		t.Errorf("untyped attribute mismatch: have=%#v", v)
	}
}

func TestXMLMalformed(t *testing.T) {
	cases := []string{
		`<a><b></a>`,
		`<a KRB_Type="FOO">1</a>`,
		`<a KRB_Type="INT32">x</a>`,
		`<a KRB_Type="HASH"><b x="KRB_INT32">1</b></a>`,
		`<a KRB_Type="HASH" x="KRB_HASH:_attr_missing"/>`,
		`<a/><b/>`,
	}
	for _, doc := range cases {
		h := MustNew("keep", 1)
		err := h.DecodeXML([]byte(doc))
		if !errors.Is(err, types.ErrCodecMalformedXML) {
			t.Errorf("%s: expected malformed XML error, have=%v", doc, err)
		}
		if !h.Has("keep") {
			t.Errorf("%s: receiver modified on error", doc)
		}
	}
}

func TestXMLSequence(t *testing.T) {
	list := []*Hash{MustNew("a", 1), MustNew("b.c", "x")}
	buf, err := EncodeXMLSequence(list, DefaultXML)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeXMLSequence(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || !out[0].FullyEqual(list[0], true) || !out[1].FullyEqual(list[1], true) {
		t.Errorf("sequence mismatch: %v", out)
	}
	single, err := DecodeXMLSequence([]byte(`<dev KRB_Type="HASH"><a KRB_Type="INT32">1</a></dev>`))
	if err != nil {
		t.Fatal(err)
	}
	if len(single) != 1 || !single[0].Has("dev.a") {
		t.Errorf("single document not wrapped: %v", single)
	}
}

func TestSchemaText(t *testing.T) {
	s := NewSchema("Motor")
	if err := s.Hash.Set("speed", 1.5); err != nil {
		t.Fatal(err)
	}
	buf, err := s.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(buf), "Motor:<root") {
		t.Errorf("text form mismatch: %s", buf)
	}
	out := NewSchema("")
	if err := out.UnmarshalText(buf); err != nil {
		t.Fatal(err)
	}
	if !out.Equal(s) {
		t.Errorf("schema text round-trip mismatch")
	}
}
