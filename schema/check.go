// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"regexp"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/types"
)

// orderKind returns the kind in which values of kind t compare exactly:
// INT64 for signed, UINT64 for unsigned and DOUBLE for floating point.
// Other kinds have no order.
func orderKind(t types.Type) (types.Type, bool) {
	switch {
	case t.IsVector() || !t.IsNumeric():
		return 0, false
	case t.IsFloat():
		return types.Double, true
	case t == types.UInt8 || t == types.UInt16 || t == types.UInt32 || t == types.UInt64:
		return types.UInt64, true
	default:
		return types.Int64, true
	}
}

// orderValue converts v of kind t into its order kind.
func orderValue(v any, t types.Type) (types.Type, any, bool) {
	k, ok := orderKind(t)
	if !ok {
		return 0, nil, false
	}
	x, err := types.Convert(v, k)
	if err != nil {
		return 0, nil, false
	}
	return k, x, true
}

// compareNative orders two values of order kind k. NaN is unordered.
func compareNative(k types.Type, a, b any) (int, bool) {
	switch k {
	case types.Int64:
		return cmp.Compare(a.(int64), b.(int64)), true
	case types.UInt64:
		return cmp.Compare(a.(uint64), b.(uint64)), true
	default:
		x, y := a.(float64), b.(float64)
		if math.IsNaN(x) || math.IsNaN(y) {
			return 0, false
		}
		return cmp.Compare(x, y), true
	}
}

// compareBound orders x of order kind k against the bound attribute key.
// It reports false when the bound is missing, does not fit k or the pair
// is unordered.
func compareBound(attrs *hash.Attributes, key string, k types.Type, x any) (int, any, bool) {
	b, err := attrs.GetAs(key, k)
	if err != nil {
		return 0, nil, false
	}
	c, ok := compareNative(k, x, b)
	return c, b, ok
}

func attrFloat(attrs *hash.Attributes, key string) (float64, bool) {
	v, err := attrs.GetAs(key, types.Double)
	if err != nil {
		return 0, false
	}
	return v.(float64), true
}

func attrUint(attrs *hash.Attributes, key string) (uint64, bool) {
	v, err := attrs.GetAs(key, types.UInt64)
	if err != nil {
		return 0, false
	}
	return v.(uint64), true
}

// checkValue tests v of kind t against options, bounds, size and regex
// constraints in attrs.
func checkValue(attrs *hash.Attributes, t types.Type, v any, path string) []*types.Error {
	var errs []*types.Error
	switch t.Category() {
	case types.CategorySimple:
		if opts, ok := attrs.Lookup(AttrOptions); ok {
			if !containsOption(opts.Value(), v, t) {
				s, _ := types.Format(v)
				o, _ := types.Format(opts.Value())
				errs = append(errs, types.NewError(types.KindOptionViolation, path,
					fmt.Sprintf("value '%s' is not one of the valid options: %s", s, o)))
			}
		}
		if k, x, ok := orderValue(v, t); ok {
			for _, b := range valueBounds {
				if c, lim, ok := compareBound(attrs, b.key, k, x); ok && b.violated(c) {
					errs = append(errs, boundError(path, x, b.side, lim))
				}
			}
		}
		if t == types.String {
			if re, err := attrs.GetAs(AttrRegex, types.String); err == nil {
				ok, err := regexp.MatchString("^(?:"+re.(string)+")$", v.(string))
				if err != nil || !ok {
					errs = append(errs, types.NewError(types.KindRegexViolation, path,
						fmt.Sprintf("value '%s' does not match pattern '%s'", v, re)))
				}
			}
		}
	case types.CategorySequence, types.CategoryVectorHash:
		n := types.Len(v)
		if rows, ok := v.([]*hash.Hash); ok {
			n = len(rows)
		}
		if b, ok := attrUint(attrs, AttrMinSize); ok && uint64(n) < b {
			errs = append(errs, types.NewError(types.KindSizeViolation, path,
				fmt.Sprintf("number of elements (%d) is smaller than lower bound (%d)", n, b)))
		}
		if b, ok := attrUint(attrs, AttrMaxSize); ok && uint64(n) > b {
			errs = append(errs, types.NewError(types.KindSizeViolation, path,
				fmt.Sprintf("number of elements (%d) is greater than upper bound (%d)", n, b)))
		}
	}
	return errs
}

type valueBound struct {
	key       string
	side      string
	exclusive bool
}

// valueBounds lists the range attributes in reporting order.
var valueBounds = []valueBound{
	{AttrMinExc, "lower", true},
	{AttrMinInc, "lower", false},
	{AttrMaxExc, "upper", true},
	{AttrMaxInc, "upper", false},
}

// violated tells whether comparison result c of value against bound breaks
// the bound.
func (b valueBound) violated(c int) bool {
	switch {
	case b.side == "lower" && b.exclusive:
		return c <= 0
	case b.side == "lower":
		return c < 0
	case b.exclusive:
		return c >= 0
	default:
		return c > 0
	}
}

func boundError(path string, v any, side string, b any) *types.Error {
	return types.NewError(types.KindRangeViolation, path,
		fmt.Sprintf("value %v is out of %s bound %v", v, side, b))
}

func containsOption(opts, v any, t types.Type) bool {
	list, err := types.Convert(opts, t.VectorOf())
	if err != nil {
		return false
	}
	elems, ok := types.Elements(list)
	if !ok {
		return false
	}
	x, err := types.Convert(v, t)
	if err != nil {
		return false
	}
	if c, ok := x.(types.Character); ok {
		x = uint8(c)
	}
	for _, e := range elems {
		if reflect.DeepEqual(e, x) {
			return true
		}
	}
	return false
}

// checkLeaf enforces the descriptor invariants of a leaf of kind t.
func checkLeaf(path string, t types.Type, attrs *hash.Attributes) error {
	invalid := func(format string, args ...any) error {
		return types.NewError(types.KindDescriptorInvalid, path, fmt.Sprintf(format, args...))
	}

	// attribute kinds follow the value kind
	for _, key := range limitKeys {
		if a, ok := attrs.Lookup(key); ok && a.Type() != t {
			if _, err := a.GetAs(t); err != nil {
				return types.WrapError(types.KindDescriptorInvalid, path, "attribute "+key+" does not fit "+t.String(), err)
			}
		}
	}
	if attrs.Has(AttrMinInc) && attrs.Has(AttrMinExc) {
		return invalid("minInc and minExc are mutually exclusive")
	}
	if attrs.Has(AttrMaxInc) && attrs.Has(AttrMaxExc) {
		return invalid("maxInc and maxExc are mutually exclusive")
	}
	if k, ok := orderKind(t.ElemType()); ok {
		lo, loErr := attrs.GetAs(AttrMinInc, k)
		loExc := attrs.Has(AttrMinExc)
		if loExc {
			lo, loErr = attrs.GetAs(AttrMinExc, k)
		}
		hi, hiErr := attrs.GetAs(AttrMaxInc, k)
		hiExc := attrs.Has(AttrMaxExc)
		if hiExc {
			hi, hiErr = attrs.GetAs(AttrMaxExc, k)
		}
		if loErr == nil && hiErr == nil {
			if c, ok := compareNative(k, lo, hi); ok && (c > 0 || (c == 0 && (loExc || hiExc))) {
				return invalid("lower bound %v crosses upper bound %v", lo, hi)
			}
		}
	}
	if lo, ok := attrUint(attrs, AttrMinSize); ok {
		if hi, ok := attrUint(attrs, AttrMaxSize); ok && lo > hi {
			return invalid("minSize %d is greater than maxSize %d", lo, hi)
		}
	}
	for _, key := range []string{AttrAbsoluteError, AttrRelativeError} {
		if v, ok := attrFloat(attrs, key); ok && (v <= 0 || math.IsInf(v, 0) || math.IsNaN(v)) {
			return invalid("%s must be positive and finite, have %v", key, v)
		}
	}
	if re, err := attrs.GetAs(AttrRegex, types.String); err == nil {
		if _, err := regexp.Compile(re.(string)); err != nil {
			return types.WrapError(types.KindDescriptorInvalid, path, "invalid regex", err)
		}
	}
	if a, ok := attrs.Lookup(AttrAssignment); ok {
		if m, ok := attrs.Lookup(AttrAccessMode); ok {
			asg, _ := a.GetAs(types.Int32)
			mode, _ := m.GetAs(types.Int32)
			if Assignment(asg.(int32)) == AssignmentMandatory && AccessMode(mode.(int32)) == AccessRead {
				return invalid("read-only parameters cannot be mandatory")
			}
		}
	}
	if a, ok := attrs.Lookup(AttrDefaultValue); ok {
		v, err := a.GetAs(t)
		if err != nil {
			return types.WrapError(types.KindDescriptorInvalid, path, "default value does not fit "+t.String(), err)
		}
		if errs := checkValue(attrs, t, v, path); len(errs) > 0 {
			return types.WrapError(types.KindDescriptorInvalid, path, "default value violates constraints", errs[0])
		}
	}
	return nil
}

// defaultAccessLevel fills in the required access level implied by the
// access mode when none was set.
func defaultAccessLevel(attrs *hash.Attributes) {
	if attrs.Has(AttrRequiredAccessLevel) {
		return
	}
	level := AccessLevelUser
	if m, err := attrs.GetAs(AttrAccessMode, types.Int32); err == nil {
		switch AccessMode(m.(int32)) {
		case AccessRead:
			level = AccessLevelObserver
		case AccessWrite:
			level = AccessLevelOperator
		}
	}
	_ = attrs.Set(AttrRequiredAccessLevel, int32(level))
}
