// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/state"
	"github.com/European-XFEL/Karabo-sub007/types"
)

// LeafElement builds a value descriptor. Leaves are optional and
// reconfigurable unless told otherwise.
type LeafElement struct {
	d   descriptor
	typ types.Type
}

// Leaf starts a descriptor for a value of kind t.
func Leaf(s *Schema, t types.Type) *LeafElement {
	e := &LeafElement{
		d:   newDescriptor(s, NodeLeaf),
		typ: t,
	}
	switch t.Category() {
	case types.CategoryInvalid, types.CategoryHash, types.CategorySchema:
		e.d.failf(types.KindDescriptorInvalid, "%s is not a leaf kind", t)
	}
	e.d.set(AttrLeafType, int32(LeafProperty))
	e.d.set(AttrValueType, t.String())
	e.d.set(AttrAccessMode, int32(AccessWrite))
	e.d.set(AttrAssignment, int32(AssignmentOptional))
	return e
}

func Bool(s *Schema) *LeafElement    { return Leaf(s, types.Bool) }
func Char(s *Schema) *LeafElement    { return Leaf(s, types.Char) }
func Int8(s *Schema) *LeafElement    { return Leaf(s, types.Int8) }
func UInt8(s *Schema) *LeafElement   { return Leaf(s, types.UInt8) }
func Int16(s *Schema) *LeafElement   { return Leaf(s, types.Int16) }
func UInt16(s *Schema) *LeafElement  { return Leaf(s, types.UInt16) }
func Int32(s *Schema) *LeafElement   { return Leaf(s, types.Int32) }
func UInt32(s *Schema) *LeafElement  { return Leaf(s, types.UInt32) }
func Int64(s *Schema) *LeafElement   { return Leaf(s, types.Int64) }
func UInt64(s *Schema) *LeafElement  { return Leaf(s, types.UInt64) }
func Float(s *Schema) *LeafElement   { return Leaf(s, types.Float) }
func Double(s *Schema) *LeafElement  { return Leaf(s, types.Double) }
func String(s *Schema) *LeafElement  { return Leaf(s, types.String) }
func Bytes(s *Schema) *LeafElement   { return Leaf(s, types.ByteArray) }
func Complex(s *Schema) *LeafElement { return Leaf(s, types.ComplexDouble) }

// Vector starts a descriptor for a vector of elem values.
func Vector(s *Schema, elem types.Type) *LeafElement {
	t := elem.VectorOf()
	if t == types.Unknown {
		e := Leaf(s, types.VectorNone)
		e.d.failf(types.KindDescriptorInvalid, "no vector kind for %s", elem)
		return e
	}
	return Leaf(s, t)
}

// StateLeaf describes a read-only STRING holding a State name.
func StateLeaf(s *Schema) *LeafElement {
	e := Leaf(s, types.String)
	e.d.set(AttrLeafType, int32(LeafState))
	e.d.set(AttrClassID, ClassState)
	e.d.set(AttrDisplayType, DisplayState)
	e.d.set(AttrAccessMode, int32(AccessRead))
	return e
}

// AlarmLeaf describes a read-only STRING holding an AlarmCondition.
func AlarmLeaf(s *Schema) *LeafElement {
	e := Leaf(s, types.String)
	e.d.set(AttrLeafType, int32(LeafAlarmCondition))
	e.d.set(AttrClassID, ClassAlarmCondition)
	e.d.set(AttrDisplayType, DisplayAlarm)
	e.d.set(AttrAccessMode, int32(AccessRead))
	return e
}

// Table describes a VECTOR_HASH whose rows follow row.
func Table(s *Schema, row *Schema) *LeafElement {
	e := Leaf(s, types.VectorHash)
	e.d.set(AttrDisplayType, DisplayTable)
	if row == nil {
		e.d.failf(types.KindDescriptorInvalid, "table without row schema")
		return e
	}
	e.d.set(AttrRowSchema, row.Clone().ToHash())
	return e
}

func (e *LeafElement) Key(key string) *LeafElement {
	e.d.setKey(key)
	return e
}

func (e *LeafElement) DisplayedName(name string) *LeafElement {
	e.d.set(AttrDisplayedName, name)
	return e
}

func (e *LeafElement) Description(desc string) *LeafElement {
	e.d.set(AttrDescription, desc)
	return e
}

func (e *LeafElement) Alias(v any) *LeafElement {
	e.d.set(AttrAlias, v)
	return e
}

func (e *LeafElement) Tags(tags ...string) *LeafElement {
	e.d.setTags(tags)
	return e
}

func (e *LeafElement) DisplayType(t string) *LeafElement {
	e.d.set(AttrDisplayType, t)
	return e
}

func (e *LeafElement) Unit(u Unit) *LeafElement {
	if !u.IsValid() {
		e.d.failf(types.KindDescriptorInvalid, "invalid unit %d", int32(u))
		return e
	}
	e.d.set(AttrUnitEnum, int32(u))
	e.d.set(AttrUnitName, u.String())
	e.d.set(AttrUnitSymbol, u.Symbol())
	return e
}

func (e *LeafElement) MetricPrefix(p MetricPrefix) *LeafElement {
	if !p.IsValid() {
		e.d.failf(types.KindDescriptorInvalid, "invalid metric prefix %d", int32(p))
		return e
	}
	e.d.set(AttrMetricPrefixEnum, int32(p))
	e.d.set(AttrMetricPrefixName, p.String())
	e.d.set(AttrMetricPrefixSymbol, p.Symbol())
	return e
}

func (e *LeafElement) Mandatory() *LeafElement {
	e.d.set(AttrAssignment, int32(AssignmentMandatory))
	return e
}

func (e *LeafElement) Optional() *LeafElement {
	e.d.set(AttrAssignment, int32(AssignmentOptional))
	return e
}

func (e *LeafElement) Internal() *LeafElement {
	e.d.set(AttrAssignment, int32(AssignmentInternal))
	return e
}

// Init makes the parameter configurable at instantiation only.
func (e *LeafElement) Init() *LeafElement {
	e.d.set(AttrAccessMode, int32(AccessInit))
	return e
}

func (e *LeafElement) ReadOnly() *LeafElement {
	e.d.set(AttrAccessMode, int32(AccessRead))
	return e
}

func (e *LeafElement) Reconfigurable() *LeafElement {
	e.d.set(AttrAccessMode, int32(AccessWrite))
	return e
}

func (e *LeafElement) RequiredAccessLevel(l AccessLevel) *LeafElement {
	e.d.set(AttrRequiredAccessLevel, int32(l))
	return e
}

// Default sets the value injected for a missing optional parameter.
func (e *LeafElement) Default(v any) *LeafElement {
	e.d.setAs(AttrDefaultValue, plain(v), e.typ)
	return e
}

// Options restricts the leaf to the listed values.
func (e *LeafElement) Options(values ...any) *LeafElement {
	if e.typ.Category() != types.CategorySimple {
		e.d.failf(types.KindDescriptorInvalid, "options require a scalar kind, have %s", e.typ)
		return e
	}
	list := make([]any, len(values))
	for i, v := range values {
		x, err := types.Convert(plain(v), e.typ)
		if err != nil {
			e.d.fail(types.WrapError(types.KindDescriptorInvalid, e.d.key, "option does not fit "+e.typ.String(), err))
			return e
		}
		list[i] = x
	}
	e.d.setAs(AttrOptions, list, e.typ.VectorOf())
	return e
}

// OptionsString takes options as a comma separated list.
func (e *LeafElement) OptionsString(s string) *LeafElement {
	items := types.SplitList(s)
	values := make([]any, len(items))
	for i, v := range items {
		values[i] = v
	}
	return e.Options(values...)
}

func (e *LeafElement) MinInc(v any) *LeafElement {
	e.d.setAs(AttrMinInc, v, e.typ)
	return e
}

func (e *LeafElement) MaxInc(v any) *LeafElement {
	e.d.setAs(AttrMaxInc, v, e.typ)
	return e
}

func (e *LeafElement) MinExc(v any) *LeafElement {
	e.d.setAs(AttrMinExc, v, e.typ)
	return e
}

func (e *LeafElement) MaxExc(v any) *LeafElement {
	e.d.setAs(AttrMaxExc, v, e.typ)
	return e
}

func (e *LeafElement) MinSize(n uint32) *LeafElement {
	e.d.set(AttrMinSize, n)
	return e
}

func (e *LeafElement) MaxSize(n uint32) *LeafElement {
	e.d.set(AttrMaxSize, n)
	return e
}

func (e *LeafElement) AbsoluteError(v float64) *LeafElement {
	e.d.set(AttrAbsoluteError, v)
	return e
}

func (e *LeafElement) RelativeError(v float64) *LeafElement {
	e.d.set(AttrRelativeError, v)
	return e
}

func (e *LeafElement) Regex(re string) *LeafElement {
	if e.typ != types.String {
		e.d.failf(types.KindDescriptorInvalid, "regex requires STRING, have %s", e.typ)
		return e
	}
	e.d.set(AttrRegex, re)
	return e
}

func (e *LeafElement) AllowedStates(list ...state.State) *LeafElement {
	e.d.setStates(list)
	return e
}

func (e *LeafElement) WarnLow(v any) *LeafElement {
	e.d.setAs(AttrWarnLow, v, e.typ)
	return e
}

func (e *LeafElement) WarnHigh(v any) *LeafElement {
	e.d.setAs(AttrWarnHigh, v, e.typ)
	return e
}

func (e *LeafElement) AlarmLow(v any) *LeafElement {
	e.d.setAs(AttrAlarmLow, v, e.typ)
	return e
}

func (e *LeafElement) AlarmHigh(v any) *LeafElement {
	e.d.setAs(AttrAlarmHigh, v, e.typ)
	return e
}

func (e *LeafElement) ArchivePolicy(p ArchivePolicy) *LeafElement {
	e.d.set(AttrArchivePolicy, int32(p))
	return e
}

func (e *LeafElement) DaqPolicy(p DaqPolicy) *LeafElement {
	e.d.set(AttrDaqPolicy, int32(p))
	return e
}

// Commit checks the descriptor and adds it to the schema.
func (e *LeafElement) Commit() error {
	if e.d.err != nil {
		return e.d.err
	}
	if e.typ == types.VectorHash {
		if err := e.checkTableDefault(); err != nil {
			return err
		}
	}
	defaultAccessLevel(e.d.attrs)
	if err := checkLeaf(e.d.key, e.typ, e.d.attrs); err != nil {
		return err
	}
	return e.d.install(nil)
}

// checkTableDefault validates default rows against the row schema and
// stores them in canonical form.
func (e *LeafElement) checkTableDefault() error {
	a, ok := e.d.attrs.Lookup(AttrDefaultValue)
	if !ok {
		return nil
	}
	rs, err := e.d.attrs.Get(AttrRowSchema)
	if err != nil {
		return nil
	}
	row := FromHash(rs.(*hash.Schema))
	rows := a.Value().([]*hash.Hash)
	out := make([]*hash.Hash, len(rows))
	v := NewValidator(TableRules)
	for i, r := range rows {
		res, err := v.Validate(row, r)
		if err != nil {
			return types.WrapError(types.KindDescriptorInvalid, e.d.key, "default row does not match row schema", err)
		}
		out[i] = res
	}
	return e.d.attrs.SetAs(AttrDefaultValue, out, types.VectorHash)
}
