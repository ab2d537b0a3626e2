// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/state"
	"github.com/European-XFEL/Karabo-sub007/types"
)

// OverwriteElement replaces selected attributes of an existing element. The
// changes are checked as a whole and applied on Commit; a failed commit
// leaves the schema untouched.
type OverwriteElement struct {
	d    descriptor
	node *hash.Node
	typ  types.Type
}

func Overwrite(s *Schema) *OverwriteElement {
	return &OverwriteElement{
		d:   descriptor{s: s, attrs: hash.NewAttributes()},
		typ: types.Unknown,
	}
}

// Key selects the element to change.
func (e *OverwriteElement) Key(path string) *OverwriteElement {
	e.d.setKey(path)
	n, err := e.d.s.node(path)
	if err != nil {
		e.d.fail(types.WrapError(types.KindPathNotFound, path, "no element to overwrite", err))
		return e
	}
	e.node = n
	e.d.attrs = n.Attributes().Clone()
	if nodeTypeOf(n) == NodeLeaf {
		if t, err := e.d.s.ValueType(path); err == nil {
			e.typ = t
		}
	}
	return e
}

func (e *OverwriteElement) put(key string, v any) *OverwriteElement {
	if !overwritable[key] {
		e.d.failf(types.KindDescriptorInvalid, "attribute %s cannot be overwritten", key)
		return e
	}
	if e.node == nil {
		e.d.failf(types.KindPathNotFound, "no element selected")
		return e
	}
	e.d.set(key, v)
	return e
}

// putValue stores a value attribute in the leaf's own kind.
func (e *OverwriteElement) putValue(key string, v any) *OverwriteElement {
	if e.typ == types.Unknown {
		return e.put(key, v)
	}
	x, err := types.Convert(v, e.typ)
	if err != nil {
		e.d.fail(types.WrapError(types.KindDescriptorInvalid, e.d.key, "attribute "+key+" does not fit "+e.typ.String(), err))
		return e
	}
	return e.put(key, x)
}

// SetNewAttribute replaces any overwritable attribute.
func (e *OverwriteElement) SetNewAttribute(key string, v any) *OverwriteElement {
	return e.put(key, v)
}

func (e *OverwriteElement) SetNewDisplayedName(name string) *OverwriteElement {
	return e.put(AttrDisplayedName, name)
}

func (e *OverwriteElement) SetNewDescription(desc string) *OverwriteElement {
	return e.put(AttrDescription, desc)
}

func (e *OverwriteElement) SetNewAlias(v any) *OverwriteElement {
	return e.put(AttrAlias, v)
}

func (e *OverwriteElement) SetNewTags(tags ...string) *OverwriteElement {
	return e.put(AttrTags, append([]string{}, tags...))
}

func (e *OverwriteElement) SetNewDisplayType(t string) *OverwriteElement {
	return e.put(AttrDisplayType, t)
}

func (e *OverwriteElement) SetNewAssignmentMandatory() *OverwriteElement {
	return e.put(AttrAssignment, int32(AssignmentMandatory))
}

func (e *OverwriteElement) SetNewAssignmentOptional() *OverwriteElement {
	return e.put(AttrAssignment, int32(AssignmentOptional))
}

func (e *OverwriteElement) SetNewAssignmentInternal() *OverwriteElement {
	return e.put(AttrAssignment, int32(AssignmentInternal))
}

func (e *OverwriteElement) SetNowInit() *OverwriteElement {
	return e.put(AttrAccessMode, int32(AccessInit))
}

func (e *OverwriteElement) SetNowReconfigurable() *OverwriteElement {
	return e.put(AttrAccessMode, int32(AccessWrite))
}

// SetNowReadOnly makes the element read-only. A mandatory assignment is
// relaxed to optional.
func (e *OverwriteElement) SetNowReadOnly() *OverwriteElement {
	e.put(AttrAccessMode, int32(AccessRead))
	if v, err := e.d.attrs.GetAs(AttrAssignment, types.Int32); err == nil && Assignment(v.(int32)) == AssignmentMandatory {
		e.put(AttrAssignment, int32(AssignmentOptional))
	}
	return e
}

func (e *OverwriteElement) SetNewRequiredAccessLevel(l AccessLevel) *OverwriteElement {
	return e.put(AttrRequiredAccessLevel, int32(l))
}

func (e *OverwriteElement) SetNowObserverAccess() *OverwriteElement {
	return e.SetNewRequiredAccessLevel(AccessLevelObserver)
}

func (e *OverwriteElement) SetNowOperatorAccess() *OverwriteElement {
	return e.SetNewRequiredAccessLevel(AccessLevelOperator)
}

func (e *OverwriteElement) SetNowExpertAccess() *OverwriteElement {
	return e.SetNewRequiredAccessLevel(AccessLevelExpert)
}

func (e *OverwriteElement) SetNewDefaultValue(v any) *OverwriteElement {
	return e.putValue(AttrDefaultValue, plain(v))
}

func (e *OverwriteElement) SetNewMinInc(v any) *OverwriteElement {
	return e.putValue(AttrMinInc, v)
}

func (e *OverwriteElement) SetNewMaxInc(v any) *OverwriteElement {
	return e.putValue(AttrMaxInc, v)
}

func (e *OverwriteElement) SetNewMinExc(v any) *OverwriteElement {
	return e.putValue(AttrMinExc, v)
}

func (e *OverwriteElement) SetNewMaxExc(v any) *OverwriteElement {
	return e.putValue(AttrMaxExc, v)
}

func (e *OverwriteElement) SetNewMinSize(n uint32) *OverwriteElement {
	return e.put(AttrMinSize, n)
}

func (e *OverwriteElement) SetNewMaxSize(n uint32) *OverwriteElement {
	return e.put(AttrMaxSize, n)
}

// SetNewOptions replaces the option list. State values are stored by name.
func (e *OverwriteElement) SetNewOptions(values ...any) *OverwriteElement {
	if e.typ == types.Unknown || e.typ.Category() != types.CategorySimple {
		e.d.failf(types.KindDescriptorInvalid, "options require a scalar leaf")
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
	x, err := types.Convert(list, e.typ.VectorOf())
	if err != nil {
		e.d.fail(types.WrapError(types.KindDescriptorInvalid, e.d.key, "invalid options", err))
		return e
	}
	return e.put(AttrOptions, x)
}

func (e *OverwriteElement) SetNewOptionsString(s string) *OverwriteElement {
	items := types.SplitList(s)
	values := make([]any, len(items))
	for i, v := range items {
		values[i] = v
	}
	return e.SetNewOptions(values...)
}

func (e *OverwriteElement) SetNewAllowedStates(list ...state.State) *OverwriteElement {
	names := make([]string, len(list))
	for i, v := range list {
		if !v.IsValid() {
			e.d.failf(types.KindDescriptorInvalid, "invalid allowed state %q", v)
			return e
		}
		names[i] = string(v)
	}
	return e.put(AttrAllowedStates, names)
}

func (e *OverwriteElement) SetNewUnit(u Unit) *OverwriteElement {
	if !u.IsValid() {
		e.d.failf(types.KindDescriptorInvalid, "invalid unit %d", int32(u))
		return e
	}
	e.put(AttrUnitEnum, int32(u))
	e.put(AttrUnitName, u.String())
	return e.put(AttrUnitSymbol, u.Symbol())
}

func (e *OverwriteElement) SetNewMetricPrefix(p MetricPrefix) *OverwriteElement {
	if !p.IsValid() {
		e.d.failf(types.KindDescriptorInvalid, "invalid metric prefix %d", int32(p))
		return e
	}
	e.put(AttrMetricPrefixEnum, int32(p))
	e.put(AttrMetricPrefixName, p.String())
	return e.put(AttrMetricPrefixSymbol, p.Symbol())
}

func (e *OverwriteElement) SetNewWarnLow(v any) *OverwriteElement {
	return e.putValue(AttrWarnLow, v)
}

func (e *OverwriteElement) SetNewWarnHigh(v any) *OverwriteElement {
	return e.putValue(AttrWarnHigh, v)
}

func (e *OverwriteElement) SetNewAlarmLow(v any) *OverwriteElement {
	return e.putValue(AttrAlarmLow, v)
}

func (e *OverwriteElement) SetNewAlarmHigh(v any) *OverwriteElement {
	return e.putValue(AttrAlarmHigh, v)
}

func (e *OverwriteElement) SetNewArchivePolicy(p ArchivePolicy) *OverwriteElement {
	return e.put(AttrArchivePolicy, int32(p))
}

func (e *OverwriteElement) SetNewDaqPolicy(p DaqPolicy) *OverwriteElement {
	return e.put(AttrDaqPolicy, int32(p))
}

// Commit checks the changed element and swaps in its new attributes.
func (e *OverwriteElement) Commit() error {
	if e.d.err != nil {
		return e.d.err
	}
	if e.node == nil {
		return types.NewError(types.KindPathNotFound, e.d.key, "no element selected")
	}
	if e.typ != types.Unknown {
		if err := checkLeaf(e.d.key, e.typ, e.d.attrs); err != nil {
			return err
		}
	}
	attrs := e.node.Attributes()
	attrs.Clear()
	attrs.Merge(e.d.attrs)
	log.Tracef("schema %s: overwrote %s", e.d.s.name, e.d.key)
	return nil
}
