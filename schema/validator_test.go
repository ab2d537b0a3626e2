// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/ndarray"
	"github.com/European-XFEL/Karabo-sub007/state"
	"github.com/European-XFEL/Karabo-sub007/types"
)

func TestValidateBounds(t *testing.T) {
	s := motorSchema(t)
	v := NewValidator(DefaultRules)

	cases := []struct {
		name string
		in   *hash.Hash
		want any
		kind types.ErrorKind
	}{
		{"inside", hash.MustNew("x", 5), int16(5), 0},
		{"upper inclusive", hash.MustNew("x", 6000), int16(6000), 0},
		{"lower exclusive", hash.MustNew("x", 3), nil, types.KindRangeViolation},
		{"below", hash.MustNew("x", 2), nil, types.KindRangeViolation},
		{"above", hash.MustNew("x", 6001), nil, types.KindRangeViolation},
		{"missing", hash.New(), nil, types.KindMissingMandatory},
		{"quantity", hash.MustNew("x", "5 m"), int16(5000), 0},
		{"quantity in prefix", hash.MustNew("x", "40 mm"), int16(40), 0},
		{"wrong unit", hash.MustNew("x", "5 s"), nil, types.KindConversionFailed},
		{"not a number", hash.MustNew("x", "far"), nil, types.KindConversionFailed},
	}
	for _, c := range cases {
		out, err := v.Validate(s, c.in)
		if c.kind != 0 {
			if err == nil {
				t.Errorf("%s: expected error", c.name)
				continue
			}
			if !hasKind(err, c.kind) {
				t.Errorf("%s: have=%v want=%v", c.name, kindsOf(err), c.kind)
			}
			if out != nil {
				t.Errorf("%s: expected no output on failure", c.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
			continue
		}
		if have, _ := out.Get("x"); have != c.want {
			t.Errorf("%s: have=%v (%T) want=%v", c.name, have, have, c.want)
		}
	}
}

func TestValidateWideIntegerBounds(t *testing.T) {
	s := New("Counter")
	must(t, Int64(s).Key("a").MaxInc(int64(1)<<53).Commit())
	must(t, Int64(s).Key("b").MinInc(int64(math.MinInt64)+1).MaxExc(int64(math.MaxInt64)).Commit())
	must(t, UInt64(s).Key("c").MaxInc(uint64(1)<<63).Commit())
	rules := DefaultRules
	rules.AllowMissingKeys = true
	v := NewValidator(rules)

	cases := []struct {
		name string
		in   *hash.Hash
		ok   bool
	}{
		{"at 2^53", hash.MustNew("a", int64(1)<<53), true},
		{"above 2^53", hash.MustNew("a", int64(1)<<53+1), false},
		{"above min", hash.MustNew("b", int64(math.MinInt64)+1), true},
		{"at min", hash.MustNew("b", int64(math.MinInt64)), false},
		{"below exclusive max", hash.MustNew("b", int64(math.MaxInt64)-1), true},
		{"at exclusive max", hash.MustNew("b", int64(math.MaxInt64)), false},
		{"at 2^63", hash.MustNew("c", uint64(1)<<63), true},
		{"above 2^63", hash.MustNew("c", uint64(1)<<63+1), false},
	}
	for _, c := range cases {
		_, err := v.Validate(s, c.in)
		if c.ok && err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
		}
		if !c.ok && !hasKind(err, types.KindRangeViolation) {
			t.Errorf("%s: have=%v want=%v", c.name, kindsOf(err), types.KindRangeViolation)
		}
	}
}

func TestValidateInjectsDefaults(t *testing.T) {
	s := motorSchema(t)
	in := hash.MustNew("x", 5)
	out, err := NewValidator(DefaultRules).Validate(s, in)
	if err != nil {
		t.Fatal(err)
	}
	if have, want := out.Keys(), []string{"x", "speed", "mode", "name", "limits", "state"}; !reflect.DeepEqual(have, want) {
		t.Errorf("keys: have=%v want=%v", have, want)
	}
	for path, want := range map[string]any{
		"speed":       1.5,
		"mode":        "slow",
		"name":        "abc",
		"limits.low":  int32(-5),
		"limits.high": int32(5),
		"state":       "UNKNOWN",
	} {
		if have, _ := out.Get(path); !reflect.DeepEqual(have, want) {
			t.Errorf("%s: have=%v (%T) want=%v", path, have, have, want)
		}
	}
	if ok, _ := out.GetAttribute("state", AttrIndicateState); ok != true {
		t.Errorf("state leaf lacks indication flag")
	}
	if in.Len() != 1 {
		t.Errorf("input was modified")
	}

	// a validated configuration validates to itself
	again, err := NewValidator(DefaultRules).Validate(s, out)
	if err != nil {
		t.Fatal(err)
	}
	if !again.FullyEqual(out, true) {
		t.Errorf("validation is not idempotent:\n%s\n%s", out, again)
	}
}

func TestValidateConstraints(t *testing.T) {
	s := motorSchema(t)
	v := NewValidator(DefaultRules)
	cases := []struct {
		name string
		in   *hash.Hash
		kind types.ErrorKind
	}{
		{"option", hash.MustNew("x", 5, "mode", "medium"), types.KindOptionViolation},
		{"regex", hash.MustNew("x", 5, "name", "ABC"), types.KindRegexViolation},
		{"cast", hash.MustNew("x", 5, "speed", "fast"), types.KindConversionFailed},
		{"node kind", hash.MustNew("x", 5, "limits", 1), types.KindTypeMismatch},
		{"bad state", hash.MustNew("x", 5, "state", "SLEEPY"), types.KindStateViolation},
		{"slot config", hash.MustNew("x", 5, "move", hash.MustNew("now", true)), types.KindUnknownKey},
	}
	for _, c := range cases {
		_, err := v.Validate(s, c.in)
		if !hasKind(err, c.kind) {
			t.Errorf("%s: have=%v want=%v", c.name, kindsOf(err), c.kind)
		}
	}

	// every problem is reported
	_, err := v.Validate(s, hash.MustNew("x", 1, "mode", "medium", "name", "ABC"))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, have %v", err)
	}
	if have, want := len(verr.Issues), 3; have != want {
		t.Errorf("issues: have=%d want=%d (%v)", have, want, err)
	}
	if !errors.Is(err, types.ErrOptionViolation) {
		t.Errorf("errors.Is does not see option violation")
	}
}

func TestValidateUnknownKeys(t *testing.T) {
	s := motorSchema(t)
	in := hash.MustNew("x", 5, "extra", "y")

	if _, err := NewValidator(DefaultRules).Validate(s, in); !hasKind(err, types.KindUnknownKey) {
		t.Errorf("reject: have=%v", kindsOf(err))
	}

	r := DefaultRules
	r.UnknownKeys = PassUnknown
	out, err := NewValidator(r).Validate(s, in)
	if err != nil {
		t.Fatal(err)
	}
	if have, _ := out.Get("extra"); have != "y" {
		t.Errorf("pass: have=%v", have)
	}

	r.UnknownKeys = StripUnknown
	out, err = NewValidator(r).Validate(s, in)
	if err != nil {
		t.Fatal(err)
	}
	if out.Has("extra") {
		t.Errorf("strip: unknown key kept")
	}

	for _, c := range []struct {
		s    string
		want UnknownKeyPolicy
	}{{"", RejectUnknown}, {"pass", PassUnknown}, {"STRIP", StripUnknown}} {
		if have, err := ParseUnknownKeyPolicy(c.s); err != nil || have != c.want {
			t.Errorf("parse %q: have=%v err=%v", c.s, have, err)
		}
	}
	if _, err := ParseUnknownKeyPolicy("keep"); err == nil {
		t.Errorf("expected parse error")
	}
}

func TestValidateReconfigure(t *testing.T) {
	s := motorSchema(t)
	v := NewValidator(ReconfigureRules)
	out, err := v.Validate(s, hash.MustNew("speed", 2))
	if err != nil {
		t.Fatal(err)
	}
	if have, want := out.Keys(), []string{"speed"}; !reflect.DeepEqual(have, want) {
		t.Errorf("keys: have=%v want=%v", have, want)
	}
	if have, _ := out.Get("speed"); have != 2.0 {
		t.Errorf("speed: have=%v (%T)", have, have)
	}
	if !v.HasReconfigurableParameter() {
		t.Errorf("expected reconfigurable parameter")
	}

	out, err = v.Validate(s, hash.MustNew("mode", "fast"))
	if err != nil {
		t.Fatal(err)
	}
	if v.HasReconfigurableParameter() {
		t.Errorf("init-only parameter reported as reconfigurable")
	}
	if _, err := v.Validate(s, hash.MustNew("bogus", 1)); !hasKind(err, types.KindUnknownKey) {
		t.Errorf("unknown key: have=%v", kindsOf(err))
	}
}

func TestValidateRooted(t *testing.T) {
	s := motorSchema(t)
	r := DefaultRules
	r.AllowUnrootedConfiguration = false
	v := NewValidator(r)

	out, err := v.Validate(s, hash.MustNew("Motor", hash.MustNew("x", 5)))
	if err != nil {
		t.Fatal(err)
	}
	if have, _ := out.Get("Motor.x"); have != int16(5) {
		t.Errorf("rooted value: have=%v", have)
	}
	if have, _ := out.Get("Motor.speed"); have != 1.5 {
		t.Errorf("rooted default: have=%v", have)
	}
	if _, err := v.Validate(s, hash.MustNew("Pump", hash.MustNew("x", 5))); !hasKind(err, types.KindUnknownKey) {
		t.Errorf("wrong root: have=%v", kindsOf(err))
	}
	if _, err := v.Validate(s, hash.MustNew("Motor", 5)); !hasKind(err, types.KindTypeMismatch) {
		t.Errorf("leaf root: have=%v", kindsOf(err))
	}
	if _, err := v.Validate(s, hash.MustNew("Motor", hash.New(), "Pump", hash.New())); err == nil {
		t.Errorf("two roots accepted")
	}
}

func TestValidateTimestamps(t *testing.T) {
	s := motorSchema(t)
	r := DefaultRules
	r.InjectTimestamps = true
	ts := Timestamp{Sec: 10, Frac: 20, Tid: 30}

	in := hash.MustNew("x", 5)
	must(t, in.SetAttribute("x", AttrSec, uint64(1)))
	must(t, in.SetAttribute("x", AttrFrac, uint64(2)))
	must(t, in.SetAttribute("x", AttrTid, uint64(3)))

	out, err := NewValidator(r).ValidateAt(s, in, ts)
	if err != nil {
		t.Fatal(err)
	}
	if have, _ := out.GetAttribute("x", AttrSec); have != uint64(1) {
		t.Errorf("existing stamp overwritten: have=%v", have)
	}
	if have, _ := out.GetAttribute("speed", AttrTid); have != uint64(30) {
		t.Errorf("injected stamp: have=%v", have)
	}

	r.ForceInjectedTimestamp = true
	out, err = NewValidator(r).ValidateAt(s, in, ts)
	if err != nil {
		t.Fatal(err)
	}
	if have, _ := out.GetAttribute("x", AttrSec); have != uint64(10) {
		t.Errorf("forced stamp: have=%v", have)
	}
}

func TestValidateStateIndication(t *testing.T) {
	s := motorSchema(t)
	v := NewValidator(DefaultRules)

	in := hash.MustNew("x", 5, "state", "ON")
	out, err := v.Validate(s, in)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := out.GetAttribute("state", AttrIndicateState); ok != true {
		t.Errorf("state leaf lacks indication flag")
	}

	in = hash.MustNew("x", 5)
	must(t, in.SetAttribute("x", AttrIndicateState, true))
	if _, err := v.Validate(s, in); !hasKind(err, types.KindStateViolation) {
		t.Errorf("indication on plain leaf: have=%v", kindsOf(err))
	}

	a := New("Test")
	must(t, AlarmLeaf(a).Key("alarm").Default(state.AlarmNone).Commit())
	out, err = v.Validate(a, hash.New())
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := out.GetAttribute("alarm", AttrIndicateAlarm); ok != true {
		t.Errorf("alarm leaf lacks indication flag")
	}
	if _, err := v.Validate(a, hash.MustNew("alarm", "panic")); !hasKind(err, types.KindStateViolation) {
		t.Errorf("bad alarm: have=%v", kindsOf(err))
	}
}

func connectionSchema(t *testing.T) *Schema {
	t.Helper()
	s := New("Conn")
	must(t, Choice(s).Key("conn").Default("tcp").Commit())
	must(t, Node(s).Key("conn.tcp").Commit())
	must(t, UInt16(s).Key("conn.tcp.port").Default(7777).Commit())
	must(t, Node(s).Key("conn.serial").Commit())
	must(t, String(s).Key("conn.serial.device").Default("/dev/ttyS0").Commit())
	must(t, UInt32(s).Key("conn.serial.baud").Default(9600).Commit())

	must(t, List(s).Key("filters").Min(1).Max(3).Default("median").Commit())
	must(t, Node(s).Key("filters.median").Commit())
	must(t, UInt8(s).Key("filters.median.width").Default(3).Commit())
	must(t, Node(s).Key("filters.gain").Commit())
	must(t, Double(s).Key("filters.gain.factor").Default(1.0).Commit())
	return s
}

func TestValidateChoice(t *testing.T) {
	s := connectionSchema(t)
	v := NewValidator(DefaultRules)

	out, err := v.Validate(s, hash.New())
	if err != nil {
		t.Fatal(err)
	}
	if have, _ := out.Get("conn.tcp.port"); have != uint16(7777) {
		t.Errorf("default option: have=%v (%v)", have, out)
	}

	for _, in := range []*hash.Hash{
		hash.MustNew("conn", "serial"),
		hash.MustNew("conn", hash.MustNew("serial", hash.New())),
		hash.MustNew("conn", hash.MustNew("serial", "")),
		hash.MustNew("conn", hash.MustNew("serial", hash.MustNew("baud", "115200"))),
	} {
		out, err := v.Validate(s, in)
		if err != nil {
			t.Errorf("%v: %v", in, err)
			continue
		}
		sel, _ := out.GetHash("conn")
		if have, want := sel.Keys(), []string{"serial"}; !reflect.DeepEqual(have, want) {
			t.Errorf("selection: have=%v want=%v", have, want)
		}
		if have, _ := out.Get("conn.serial.device"); have != "/dev/ttyS0" {
			t.Errorf("option default: have=%v", have)
		}
		if have, _ := out.GetAttribute("conn", AttrSelectedOption); have != "serial" {
			t.Errorf("selected option: have=%v want=%v", have, "serial")
		}
		again, err := v.Validate(s, out)
		if err != nil {
			t.Errorf("%v: revalidation: %v", in, err)
			continue
		}
		if !again.FullyEqual(out, true) {
			t.Errorf("choice validation is not idempotent:\n%s\n%s", out, again)
		}
	}
	if have, _ := out.GetAttribute("conn", AttrSelectedOption); have != "tcp" {
		t.Errorf("selected default option: have=%v want=%v", have, "tcp")
	}
	if have, _ := out.Get("conn.tcp.port"); have != uint16(7777) {
		t.Errorf("previous output was changed: have=%v", have)
	}

	if _, err := v.Validate(s, hash.MustNew("conn", "udp")); !hasKind(err, types.KindOptionViolation) {
		t.Errorf("invalid option: have=%v", kindsOf(err))
	}
	two := hash.MustNew("conn", hash.MustNew("tcp", hash.New(), "serial", hash.New()))
	if _, err := v.Validate(s, two); !hasKind(err, types.KindOptionViolation) {
		t.Errorf("two options: have=%v", kindsOf(err))
	}
	bad := hash.MustNew("conn", hash.MustNew("tcp", hash.MustNew("port", 70000)))
	if _, err := v.Validate(s, bad); !hasKind(err, types.KindConversionFailed) {
		t.Errorf("option leaf: have=%v", kindsOf(err))
	}

	m := New("Test")
	must(t, Choice(m).Key("c").Mandatory().Commit())
	must(t, Node(m).Key("c.a").Commit())
	if _, err := v.Validate(m, hash.New()); !hasKind(err, types.KindMissingMandatory) {
		t.Errorf("mandatory choice: have=%v", kindsOf(err))
	}
}

func TestValidateList(t *testing.T) {
	s := connectionSchema(t)
	v := NewValidator(DefaultRules)

	itemKeys := func(out *hash.Hash) []string {
		items, err := out.GetAs("filters", types.VectorHash)
		if err != nil {
			t.Fatal(err)
		}
		var keys []string
		for _, h := range items.([]*hash.Hash) {
			keys = append(keys, h.Keys()...)
		}
		return keys
	}

	out, err := v.Validate(s, hash.New())
	if err != nil {
		t.Fatal(err)
	}
	if have, want := itemKeys(out), []string{"median"}; !reflect.DeepEqual(have, want) {
		t.Errorf("default items: have=%v want=%v", have, want)
	}

	out, err = v.Validate(s, hash.MustNew("filters", []string{"gain", "median", "gain"}))
	if err != nil {
		t.Fatal(err)
	}
	if have, want := itemKeys(out), []string{"gain", "median", "gain"}; !reflect.DeepEqual(have, want) {
		t.Errorf("named items: have=%v want=%v", have, want)
	}

	items := []*hash.Hash{
		hash.MustNew("gain", hash.MustNew("factor", "2.5")),
		hash.MustNew("median", ""),
	}
	out, err = v.Validate(s, hash.MustNew("filters", items))
	if err != nil {
		t.Fatal(err)
	}
	list, _ := out.Get("filters")
	rows := list.([]*hash.Hash)
	if have, _ := rows[0].Get("gain.factor"); have != 2.5 {
		t.Errorf("item value: have=%v (%T)", have, have)
	}
	if have, _ := rows[1].Get("median.width"); have != uint8(3) {
		t.Errorf("item default: have=%v (%T)", have, have)
	}

	tooMany := hash.MustNew("filters", []string{"gain", "gain", "gain", "gain"})
	if _, err := v.Validate(s, tooMany); !hasKind(err, types.KindSizeViolation) {
		t.Errorf("max: have=%v", kindsOf(err))
	}
	if _, err := v.Validate(s, hash.MustNew("filters", []string{"blur"})); !hasKind(err, types.KindOptionViolation) {
		t.Errorf("unknown item: have=%v", kindsOf(err))
	}
	twoKeys := []*hash.Hash{hash.MustNew("gain", hash.New(), "median", hash.New())}
	if _, err := v.Validate(s, hash.MustNew("filters", twoKeys)); !hasKind(err, types.KindOptionViolation) {
		t.Errorf("entry with two options: have=%v", kindsOf(err))
	}
}

func TestValidateTable(t *testing.T) {
	row := New("row")
	must(t, String(row).Key("name").Default("n").Commit())
	must(t, Int32(row).Key("count").MinInc(0).Default(1).Commit())

	s := New("Test")
	must(t, Table(s, row).Key("table").MinSize(1).Commit())
	v := NewValidator(DefaultRules)

	in := hash.MustNew("table", []*hash.Hash{
		hash.MustNew("count", "4", "name", "a"),
		hash.MustNew("name", "b"),
	})
	out, err := v.Validate(s, in)
	if err != nil {
		t.Fatal(err)
	}
	list, _ := out.Get("table")
	rows := list.([]*hash.Hash)
	if len(rows) != 2 {
		t.Fatalf("rows: have=%d", len(rows))
	}
	if have, want := rows[0].Keys(), []string{"name", "count"}; !reflect.DeepEqual(have, want) {
		t.Errorf("row order: have=%v want=%v", have, want)
	}
	if have, _ := rows[0].Get("count"); have != int32(4) {
		t.Errorf("row cast: have=%v (%T)", have, have)
	}
	if have, _ := rows[1].Get("count"); have != int32(1) {
		t.Errorf("row default: have=%v", have)
	}

	if _, err := v.Validate(s, hash.MustNew("table", []*hash.Hash{})); !hasKind(err, types.KindSizeViolation) {
		t.Errorf("min size: have=%v", kindsOf(err))
	}
	if _, err := v.Validate(s, hash.MustNew("table", []string{})); !hasKind(err, types.KindSizeViolation) {
		t.Errorf("empty string vector: have=%v", kindsOf(err))
	}

	bad := hash.MustNew("table", []*hash.Hash{hash.MustNew("count", -1)})
	_, err = v.Validate(s, bad)
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Issues) == 0 {
		t.Fatalf("expected validation error, have %v", err)
	}
	if have, want := verr.Issues[0].Path, "table[0].count"; have != want {
		t.Errorf("row issue path: have=%s want=%s", have, want)
	}
	if verr.Issues[0].Kind != types.KindRangeViolation {
		t.Errorf("row issue kind: have=%v", verr.Issues[0].Kind)
	}
}

func TestValidateArrays(t *testing.T) {
	s := New("Camera")
	must(t, NDArray(s, types.UInt16, 2, 0).Key("frame").Commit())
	v := NewValidator(DefaultRules)

	a, err := ndarray.FromSlice([]uint16{1, 2, 3, 4, 5, 6}, []uint64{2, 3})
	if err != nil {
		t.Fatal(err)
	}
	out, err := v.Validate(s, hash.MustNew("frame", a.ToHash()))
	if err != nil {
		t.Fatal(err)
	}
	if !out.HasAttribute("frame", AttrHashClassID) {
		t.Errorf("array node lacks class id")
	}
	back, err := ndarray.FromHash(mustHash(t, out, "frame"))
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(a) {
		t.Errorf("array changed by validation")
	}

	wrongShape, _ := ndarray.FromSlice([]uint16{1, 2, 3, 4, 5, 6}, []uint64{3, 2})
	if _, err := v.Validate(s, hash.MustNew("frame", wrongShape.ToHash())); !hasKind(err, types.KindShapeMismatch) {
		t.Errorf("shape: have=%v", kindsOf(err))
	}
	wrongType, _ := ndarray.FromSlice([]int32{1, 2}, []uint64{2, 1})
	if _, err := v.Validate(s, hash.MustNew("frame", wrongType.ToHash())); !hasKind(err, types.KindTypeMismatch) {
		t.Errorf("type: have=%v", kindsOf(err))
	}
}

func mustHash(t *testing.T, h *hash.Hash, path string) *hash.Hash {
	t.Helper()
	sub, err := h.GetHash(path)
	if err != nil {
		t.Fatal(err)
	}
	return sub
}

func TestValidateOutputSchema(t *testing.T) {
	s := New("Test")
	must(t, OutputSchema(s).Key("schema").Commit())
	must(t, Int32(s).Key("schema.value").Commit())
	must(t, Int32(s).Key("after").Default(1).Commit())
	v := NewValidator(DefaultRules)

	out, err := v.Validate(s, hash.New())
	if err != nil {
		t.Fatal(err)
	}
	if sub := mustHash(t, out, "schema"); !sub.Empty() {
		t.Errorf("output schema not empty: %v", sub)
	}
	if have, _ := out.Get("after"); have != int32(1) {
		t.Errorf("sibling default: have=%v", have)
	}
	if _, err := v.Validate(s, hash.MustNew("schema", hash.MustNew("value", 1))); !hasKind(err, types.KindUnknownKey) {
		t.Errorf("configured output schema: have=%v", kindsOf(err))
	}
}

func TestAlarmFor(t *testing.T) {
	s := New("Test")
	must(t, Double(s).Key("temp").WarnLow(10).WarnHigh(50).AlarmLow(0).AlarmHigh(80).Commit())
	must(t, String(s).Key("label").Commit())
	for _, c := range []struct {
		v    any
		want state.AlarmCondition
	}{
		{25.0, state.AlarmNone},
		{5, state.AlarmWarnLow},
		{60.5, state.AlarmWarnHigh},
		{-1, state.AlarmAlarmLow},
		{100, state.AlarmAlarmHigh},
		{"55", state.AlarmWarnHigh},
	} {
		have, err := s.AlarmFor("temp", c.v)
		if err != nil {
			t.Errorf("%v: %v", c.v, err)
			continue
		}
		if have != c.want {
			t.Errorf("%v: have=%v want=%v", c.v, have, c.want)
		}
	}
	if _, err := s.AlarmFor("label", "x"); types.KindOf(err) != types.KindTypeMismatch {
		t.Errorf("string leaf: have=%v", err)
	}
	if _, err := s.AlarmFor("missing", 1); err == nil {
		t.Errorf("expected error for missing path")
	}
}
