// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package types

import (
	"fmt"
	"math"
	"reflect"
)

// Character is a single byte with character semantics.
type Character byte

func (c Character) String() string {
	return string(rune(c))
}

// Typer is implemented by composite values (Hash, Schema) defined outside
// this package.
type Typer interface {
	KaraboType() Type
}

var typerType = reflect.TypeOf((*Typer)(nil)).Elem()

// Infer returns the most specific reference type for a native Go value.
// Booleans are matched before integers, plain int values map to INT32 when
// they fit and to INT64 otherwise, []byte maps to BYTE_ARRAY and an empty
// list maps to VECTOR_STRING.
func Infer(v any) (Type, error) {
	switch val := v.(type) {
	case nil:
		return None, nil
	case bool:
		return Bool, nil
	case Character:
		return Char, nil
	case int8:
		return Int8, nil
	case uint8:
		return UInt8, nil
	case int16:
		return Int16, nil
	case uint16:
		return UInt16, nil
	case int32:
		return Int32, nil
	case uint32:
		return UInt32, nil
	case int64:
		return Int64, nil
	case uint64:
		return UInt64, nil
	case int:
		if val >= math.MinInt32 && val <= math.MaxInt32 {
			return Int32, nil
		}
		return Int64, nil
	case uint:
		if uint64(val) <= math.MaxUint32 {
			return UInt32, nil
		}
		return UInt64, nil
	case float32:
		return Float, nil
	case float64:
		return Double, nil
	case complex64:
		return ComplexFloat, nil
	case complex128:
		return ComplexDouble, nil
	case string:
		return String, nil
	case []bool:
		return VectorBool, nil
	case []Character:
		return VectorChar, nil
	case []byte:
		return ByteArray, nil
	case []int8:
		return VectorInt8, nil
	case []int16:
		return VectorInt16, nil
	case []uint16:
		return VectorUInt16, nil
	case []int32:
		return VectorInt32, nil
	case []uint32:
		return VectorUInt32, nil
	case []int64:
		return VectorInt64, nil
	case []uint64:
		return VectorUInt64, nil
	case []int:
		for _, x := range val {
			if x < math.MinInt32 || x > math.MaxInt32 {
				return VectorInt64, nil
			}
		}
		return VectorInt32, nil
	case []float32:
		return VectorFloat, nil
	case []float64:
		return VectorDouble, nil
	case []complex64:
		return VectorComplexFloat, nil
	case []complex128:
		return VectorComplexDouble, nil
	case []string:
		return VectorString, nil
	case []any:
		return inferList(val)
	case Typer:
		return val.KaraboType(), nil
	}

	// slices of composite values, e.g. []*hash.Hash
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Implements(typerType) {
		if rv.Len() == 0 {
			// element kind is known from the static type
			elem := reflect.Zero(rv.Type().Elem())
			if elem.Kind() == reflect.Pointer {
				elem = reflect.New(rv.Type().Elem().Elem())
			}
			if t, ok := elem.Interface().(Typer); ok {
				return t.KaraboType().VectorOf(), nil
			}
		}
		if t, ok := rv.Index(0).Interface().(Typer); ok {
			return t.KaraboType().VectorOf(), nil
		}
	}
	return Unknown, NewError(KindTypeMismatch, "", fmt.Sprintf("unsupported value type %T", v))
}

// inferList handles untyped lists. Empty lists become VECTOR_STRING, a
// homogeneous list takes the vector kind of its first element.
func inferList(list []any) (Type, error) {
	if len(list) == 0 {
		return VectorString, nil
	}
	first, err := Infer(list[0])
	if err != nil {
		return Unknown, err
	}
	for _, v := range list[1:] {
		t, err := Infer(v)
		if err != nil {
			return Unknown, err
		}
		if t != first {
			// widen mixed integer literals
			if first == Int32 && t == Int64 {
				first = Int64
				continue
			}
			if first == Int64 && t == Int32 {
				continue
			}
			return Unknown, NewError(KindTypeMismatch, "", fmt.Sprintf("mixed list element types %s and %s", first, t))
		}
	}
	vt := first.VectorOf()
	if vt == Unknown || first.IsVector() {
		return Unknown, NewError(KindTypeMismatch, "", fmt.Sprintf("no vector kind for %s", first))
	}
	return vt, nil
}
