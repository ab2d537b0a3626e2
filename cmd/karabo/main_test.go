// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package main

import (
	"reflect"
	"testing"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/schema"
)

func TestSplitArgs(t *testing.T) {
	known, extra, pos := splitArgs([]string{
		"-v", "convert", "-from", "xml", "-o=out.bin", "-db.path=/tmp/x", "-server.cors_enable", "in.xml",
	})
	if have, want := known, []string{"-v", "-from", "xml", "-o=out.bin"}; !reflect.DeepEqual(have, want) {
		t.Errorf("known: have=%v want=%v", have, want)
	}
	if have, want := extra, []string{"-db.path=/tmp/x", "-server.cors_enable"}; !reflect.DeepEqual(have, want) {
		t.Errorf("extra: have=%v want=%v", have, want)
	}
	if have, want := pos, []string{"convert", "in.xml"}; !reflect.DeepEqual(have, want) {
		t.Errorf("positional: have=%v want=%v", have, want)
	}
}

func TestParseOverride(t *testing.T) {
	for _, c := range []struct {
		arg string
		key string
		val any
		err bool
	}{
		{"-db.path=/data", "db.path", "/data", false},
		{"--log.level=debug", "log.level", "debug", false},
		{"-db.nosync", "db.nosync", true, false},
		{"db.path", "", nil, true},
		{"-", "", nil, true},
	} {
		key, val, err := parseOverride(c.arg)
		if (err != nil) != c.err {
			t.Errorf("%s: unexpected error %v", c.arg, err)
			continue
		}
		if key != c.key || val != c.val {
			t.Errorf("%s: have=%s=%v want=%s=%v", c.arg, key, val, c.key, c.val)
		}
	}
}

func TestFormatOf(t *testing.T) {
	for _, c := range []struct {
		name, file string
		want       Format
	}{
		{"", "a.xml", FormatXML},
		{"", "a.krb", FormatBinary},
		{"", "a.yml", FormatYAML},
		{"", "a.txt", FormatJSON},
		{"", "", FormatJSON},
		{"binary", "a.xml", FormatBinary},
	} {
		f, err := formatOf(c.name, c.file, FormatJSON)
		if err != nil {
			t.Fatal(err)
		}
		if f != c.want {
			t.Errorf("%q/%q: have=%s want=%s", c.name, c.file, f, c.want)
		}
	}
	if _, err := formatOf("toml", "", FormatJSON); err == nil {
		t.Errorf("expected error for unknown format")
	}
}

func TestCodecs(t *testing.T) {
	h := hash.MustNew("a.b", int32(7), "c", "text", "d", []float64{1, 2})
	for _, f := range []Format{FormatXML, FormatBinary} {
		buf, err := encodeHash(f, h, false)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		h2, err := decodeHash(f, buf)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if !h.FullyEqual(h2, true) {
			t.Errorf("%s: have=%s want=%s", f, h2, h)
		}
	}
	// untyped formats keep structure and values
	for _, f := range []Format{FormatJSON, FormatYAML} {
		buf, err := encodeHash(f, h, false)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		h2, err := decodeHash(f, buf)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if have, want := h2.Paths(), h.Paths(); !reflect.DeepEqual(have, want) {
			t.Errorf("%s: paths have=%v want=%v", f, have, want)
		}
		if v, err := h2.Get("c"); err != nil || v != "text" {
			t.Errorf("%s: c have=%v want=text (%v)", f, v, err)
		}
	}
}

func TestAlign(t *testing.T) {
	colored := "\x1b[31mabc\x1b[0m"
	if have, want := AlignLeft(colored, 5), colored+"  "; have != want {
		t.Errorf("left: have=%q want=%q", have, want)
	}
	if have, want := AlignRight(colored, 5), "  "+colored; have != want {
		t.Errorf("right: have=%q want=%q", have, want)
	}
	if have, want := AlignLeft("abcdef", 3), "abcdef"; have != want {
		t.Errorf("overflow: have=%q want=%q", have, want)
	}
}

func TestFormatBytes(t *testing.T) {
	for _, c := range []struct {
		n    int
		want string
	}{
		{512, "512 B"},
		{1024, "1 kB"},
		{1536, "1.5 kB"},
		{3 << 20, "3 MB"},
	} {
		if have := FormatBytes(c.n); have != c.want {
			t.Errorf("%d: have=%s want=%s", c.n, have, c.want)
		}
	}
}

func TestValidationRules(t *testing.T) {
	defer func() {
		unknown, partial, rooted, timestamps = "", false, false, false
	}()
	r, err := validationRules()
	if err != nil {
		t.Fatal(err)
	}
	if !r.InjectDefaults || r.AllowMissingKeys || !r.AllowUnrootedConfiguration {
		t.Errorf("defaults: have=%+v", r)
	}
	if r.UnknownKeys != schema.RejectUnknown {
		t.Errorf("policy: have=%s want=%s", r.UnknownKeys, schema.RejectUnknown)
	}

	unknown, partial, rooted, timestamps = "strip", true, true, true
	r, err = validationRules()
	if err != nil {
		t.Fatal(err)
	}
	if r.InjectDefaults || !r.AllowMissingKeys || r.AllowUnrootedConfiguration || !r.InjectTimestamps {
		t.Errorf("flags: have=%+v", r)
	}
	if r.UnknownKeys != schema.StripUnknown {
		t.Errorf("policy: have=%s want=%s", r.UnknownKeys, schema.StripUnknown)
	}

	unknown = "ignore"
	if _, err := validationRules(); err == nil {
		t.Errorf("expected error for unknown policy")
	}
}
