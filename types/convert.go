// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package types

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Normalize returns v in the canonical native representation of its inferred
// type, e.g. a plain int becomes int32.
func Normalize(v any) (any, Type, error) {
	t, err := Infer(v)
	if err != nil {
		return nil, Unknown, err
	}
	if t.Category() == CategoryHash || t.Category() == CategoryVectorHash || t.Category() == CategorySchema {
		return v, t, nil
	}
	x, err := Convert(v, t)
	if err != nil {
		return nil, Unknown, err
	}
	return x, t, nil
}

// Convert converts a native value to the canonical representation of type
// to. Composite kinds only convert to themselves here; HASH, VECTOR_HASH
// and SCHEMA to STRING are handled by the hash package.
func Convert(v any, to Type) (any, error) {
	switch to.Category() {
	case CategoryHash, CategoryVectorHash, CategorySchema:
		if from, err := Infer(v); err == nil && from == to {
			return v, nil
		}
		return nil, conversionError(v, to)
	case CategoryNone:
		if v == nil {
			return nil, nil
		}
		if s, ok := v.(string); ok && s == "" {
			return nil, nil
		}
		return nil, conversionError(v, to)
	case CategoryInvalid:
		return nil, NewError(KindConversionFailed, "", fmt.Sprintf("invalid target type %d", uint32(to)))
	}

	if _, ok := v.(Typer); ok {
		return nil, conversionError(v, to)
	}

	if to == VectorNone {
		if elems, ok := elements(v); ok {
			return make([]any, len(elems)), nil
		}
		return nil, conversionError(v, to)
	}

	if to.IsVector() {
		return convertVector(v, to)
	}
	if to == String {
		if v == nil {
			return "", nil
		}
		return Format(v)
	}
	if _, ok := elements(v); ok {
		// a vector converts to a scalar only through STRING
		return nil, conversionError(v, to)
	}
	return convertScalar(v, to)
}

func conversionError(v any, to Type) error {
	from, err := Infer(v)
	name := fmt.Sprintf("%T", v)
	if err == nil {
		name = from.String()
	}
	return NewError(KindConversionFailed, "", fmt.Sprintf("cannot convert %s to %s", name, to))
}

func rangeError(v any, to Type) error {
	return NewError(KindConversionFailed, "", fmt.Sprintf("value %v out of range for %s", v, to))
}

// ----------------------------------------------------------------------------
// scalars

func convertScalar(v any, to Type) (any, error) {
	if v == nil {
		return nil, conversionError(v, to)
	}
	if s, ok := v.(string); ok {
		return parseScalar(s, to)
	}
	switch to {
	case Bool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case complex64, complex128:
			return nil, conversionError(v, to)
		}
		f, ok := asFloat(v)
		if !ok {
			return nil, conversionError(v, to)
		}
		switch f {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return nil, rangeError(v, to)

	case Char:
		if c, ok := v.(Character); ok {
			return c, nil
		}
		x, err := convertScalar(v, UInt8)
		if err != nil {
			return nil, err
		}
		return Character(x.(uint8)), nil

	case Int8, Int16, Int32, Int64:
		if u, ok := asUint(v); ok {
			if u > math.MaxInt64 || !fitsInt(int64(u), to) {
				return nil, rangeError(v, to)
			}
			return makeInt(int64(u), to), nil
		}
		if i, ok := asInt(v); ok {
			if !fitsInt(i, to) {
				return nil, rangeError(v, to)
			}
			return makeInt(i, to), nil
		}
		f, ok := asFloat(v)
		if !ok {
			return nil, conversionError(v, to)
		}
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, rangeError(v, to)
		}
		if !fitsInt(int64(f), to) {
			return nil, rangeError(v, to)
		}
		return makeInt(int64(f), to), nil

	case UInt8, UInt16, UInt32, UInt64:
		if u, ok := asUint(v); ok {
			if !fitsUint(u, to) {
				return nil, rangeError(v, to)
			}
			return makeUint(u, to), nil
		}
		if i, ok := asInt(v); ok {
			if i < 0 || !fitsUint(uint64(i), to) {
				return nil, rangeError(v, to)
			}
			return makeUint(uint64(i), to), nil
		}
		f, ok := asFloat(v)
		if !ok {
			return nil, conversionError(v, to)
		}
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return nil, rangeError(v, to)
		}
		if !fitsUint(uint64(f), to) {
			return nil, rangeError(v, to)
		}
		return makeUint(uint64(f), to), nil

	case Float:
		f, ok := asFloat(v)
		if !ok {
			return nil, conversionError(v, to)
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return nil, rangeError(v, to)
		}
		return float32(f), nil

	case Double:
		f, ok := asFloat(v)
		if !ok {
			return nil, conversionError(v, to)
		}
		return f, nil

	case ComplexFloat:
		c, ok := asComplex(v)
		if !ok {
			return nil, conversionError(v, to)
		}
		return complex64(c), nil

	case ComplexDouble:
		c, ok := asComplex(v)
		if !ok {
			return nil, conversionError(v, to)
		}
		return c, nil
	}
	return nil, conversionError(v, to)
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case Character:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	}
	return 0, false
}

// asUint covers unsigned kinds that may exceed the int64 range.
func asUint(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint64:
		return x, true
	case uint:
		return uint64(x), true
	}
	return 0, false
}

// asFloat converts real kinds; complex values qualify when imaginary is zero.
func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case complex64:
		if imag(x) != 0 {
			return 0, false
		}
		return float64(real(x)), true
	case complex128:
		if imag(x) != 0 {
			return 0, false
		}
		return real(x), true
	}
	if u, ok := asUint(v); ok {
		return float64(u), true
	}
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

func asComplex(v any) (complex128, bool) {
	switch x := v.(type) {
	case complex64:
		return complex128(x), true
	case complex128:
		return x, true
	}
	if f, ok := asFloat(v); ok {
		return complex(f, 0), true
	}
	return 0, false
}

func fitsInt(i int64, to Type) bool {
	switch to {
	case Int8:
		return i >= math.MinInt8 && i <= math.MaxInt8
	case Int16:
		return i >= math.MinInt16 && i <= math.MaxInt16
	case Int32:
		return i >= math.MinInt32 && i <= math.MaxInt32
	case Int64:
		return true
	}
	return false
}

func fitsUint(u uint64, to Type) bool {
	switch to {
	case UInt8:
		return u <= math.MaxUint8
	case UInt16:
		return u <= math.MaxUint16
	case UInt32:
		return u <= math.MaxUint32
	case UInt64:
		return true
	}
	return false
}

func makeInt(i int64, to Type) any {
	switch to {
	case Int8:
		return int8(i)
	case Int16:
		return int16(i)
	case Int32:
		return int32(i)
	default:
		return i
	}
}

func makeUint(u uint64, to Type) any {
	switch to {
	case UInt8:
		return uint8(u)
	case UInt16:
		return uint16(u)
	case UInt32:
		return uint32(u)
	default:
		return u
	}
}

func parseScalar(s string, to Type) (any, error) {
	str := strings.TrimSpace(s)
	fail := func(err error) error {
		return WrapError(KindConversionFailed, "", fmt.Sprintf("cannot parse %q as %s", s, to), err)
	}
	switch to {
	case Bool:
		switch strings.ToLower(str) {
		case "1", "true", "t", "yes", "y":
			return true, nil
		case "0", "false", "f", "no", "n":
			return false, nil
		}
		return nil, fail(nil)
	case Char:
		if len(s) != 1 {
			return nil, fail(nil)
		}
		return Character(s[0]), nil
	case Int8, Int16, Int32, Int64:
		i, err := strconv.ParseInt(str, 10, to.Size()*8)
		if err != nil {
			// accept integral floating point notation like "5.0" or "1e3"
			f, ferr := strconv.ParseFloat(str, 64)
			if ferr != nil || f != math.Trunc(f) {
				return nil, fail(err)
			}
			return convertScalar(f, to)
		}
		return makeInt(i, to), nil
	case UInt8, UInt16, UInt32, UInt64:
		u, err := strconv.ParseUint(str, 10, to.Size()*8)
		if err != nil {
			f, ferr := strconv.ParseFloat(str, 64)
			if ferr != nil || f != math.Trunc(f) {
				return nil, fail(err)
			}
			return convertScalar(f, to)
		}
		return makeUint(u, to), nil
	case Float:
		f, err := strconv.ParseFloat(str, 32)
		if err != nil {
			return nil, fail(err)
		}
		return float32(f), nil
	case Double:
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, fail(err)
		}
		return f, nil
	case ComplexFloat, ComplexDouble:
		c, err := parseComplex(str)
		if err != nil {
			return nil, fail(err)
		}
		if to == ComplexFloat {
			return complex64(c), nil
		}
		return c, nil
	}
	return nil, fail(nil)
}

// parseComplex reads "(re,im)" or a plain real number.
func parseComplex(s string) (complex128, error) {
	if !strings.HasPrefix(s, "(") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return complex(f, 0), nil
	}
	if !strings.HasSuffix(s, ")") {
		return 0, fmt.Errorf("missing closing parenthesis")
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected (re,im)")
	}
	re, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, err
	}
	im, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, err
	}
	return complex(re, im), nil
}

// Format renders a non-composite value as STRING.
func Format(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case Character:
		return string([]byte{byte(x)}), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case complex64:
		return "(" + strconv.FormatFloat(float64(real(x)), 'g', -1, 32) + "," +
			strconv.FormatFloat(float64(imag(x)), 'g', -1, 32) + ")", nil
	case complex128:
		return "(" + strconv.FormatFloat(real(x), 'g', -1, 64) + "," +
			strconv.FormatFloat(imag(x), 'g', -1, 64) + ")", nil
	case []byte:
		return base64.StdEncoding.EncodeToString(x), nil
	case []Character:
		b := make([]byte, len(x))
		for i, c := range x {
			b[i] = byte(c)
		}
		return base64.StdEncoding.EncodeToString(b), nil
	case []string:
		return strings.Join(x, ","), nil
	}
	if u, ok := asUint(v); ok {
		return strconv.FormatUint(u, 10), nil
	}
	if i, ok := asInt(v); ok {
		return strconv.FormatInt(i, 10), nil
	}
	if elems, ok := elements(v); ok {
		parts := make([]string, len(elems))
		for i, e := range elems {
			s, err := Format(e)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, ","), nil
	}
	return "", NewError(KindConversionFailed, "", fmt.Sprintf("cannot format %T as STRING", v))
}

// ----------------------------------------------------------------------------
// vectors

// elements boxes the items of a supported slice. Byte slices yield uint8.
func elements(v any) ([]any, bool) {
	var out []any
	switch x := v.(type) {
	case []bool:
		out = make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
	case []Character:
		out = make([]any, len(x))
		for i := range x {
			out[i] = uint8(x[i])
		}
	case []byte:
		out = make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
	case []int8:
		out = make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
	case []int16:
		out = make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
	case []uint16:
		out = make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
	case []int32:
		out = make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
	case []uint32:
		out = make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
	case []int64:
		out = make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
	case []uint64:
		out = make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
	case []int:
		out = make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
	case []float32:
		out = make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
	case []float64:
		out = make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
	case []complex64:
		out = make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
	case []complex128:
		out = make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
	case []string:
		out = make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
	case []any:
		out = x
	default:
		return nil, false
	}
	return out, true
}

func convertVector(v any, to Type) (any, error) {
	if v == nil {
		return makeVector(to, nil)
	}
	byteKind := to == VectorChar || to == VectorUInt8 || to == ByteArray

	// STRING source: parse the textual vector form
	if s, ok := v.(string); ok {
		if byteKind {
			b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
			if err != nil {
				return nil, WrapError(KindConversionFailed, "", fmt.Sprintf("cannot decode base64 %s", to), err)
			}
			return byteVector(b, to), nil
		}
		if to == VectorString {
			return SplitList(s), nil
		}
		parts := SplitList(s)
		out := make([]any, len(parts))
		for i, p := range parts {
			x, err := parseScalar(p, to.ElemType())
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return makeVector(to, out)
	}

	// byte buffers are interchangeable
	if b, ok := v.([]byte); ok && byteKind {
		return byteVector(append([]byte{}, b...), to), nil
	}

	elems, ok := elements(v)
	if !ok {
		// scalar to its 1-element vector
		x, err := Convert(v, to.ElemType())
		if err != nil {
			return nil, err
		}
		return makeVector(to, []any{x})
	}
	out := make([]any, len(elems))
	for i, e := range elems {
		x, err := Convert(e, to.ElemType())
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return makeVector(to, out)
}

// makeVector builds the canonical typed slice for vector kind t from
// elements that already carry the element kind.
func makeVector(t Type, elems []any) (any, error) {
	n := len(elems)
	switch t {
	case VectorBool:
		out := make([]bool, n)
		for i, e := range elems {
			out[i] = e.(bool)
		}
		return out, nil
	case VectorChar:
		out := make([]Character, n)
		for i, e := range elems {
			out[i] = e.(Character)
		}
		return out, nil
	case ByteArray:
		out := make([]byte, n)
		for i, e := range elems {
			out[i] = byte(e.(Character))
		}
		return out, nil
	case VectorInt8:
		out := make([]int8, n)
		for i, e := range elems {
			out[i] = e.(int8)
		}
		return out, nil
	case VectorUInt8:
		out := make([]uint8, n)
		for i, e := range elems {
			out[i] = e.(uint8)
		}
		return out, nil
	case VectorInt16:
		out := make([]int16, n)
		for i, e := range elems {
			out[i] = e.(int16)
		}
		return out, nil
	case VectorUInt16:
		out := make([]uint16, n)
		for i, e := range elems {
			out[i] = e.(uint16)
		}
		return out, nil
	case VectorInt32:
		out := make([]int32, n)
		for i, e := range elems {
			out[i] = e.(int32)
		}
		return out, nil
	case VectorUInt32:
		out := make([]uint32, n)
		for i, e := range elems {
			out[i] = e.(uint32)
		}
		return out, nil
	case VectorInt64:
		out := make([]int64, n)
		for i, e := range elems {
			out[i] = e.(int64)
		}
		return out, nil
	case VectorUInt64:
		out := make([]uint64, n)
		for i, e := range elems {
			out[i] = e.(uint64)
		}
		return out, nil
	case VectorFloat:
		out := make([]float32, n)
		for i, e := range elems {
			out[i] = e.(float32)
		}
		return out, nil
	case VectorDouble:
		out := make([]float64, n)
		for i, e := range elems {
			out[i] = e.(float64)
		}
		return out, nil
	case VectorComplexFloat:
		out := make([]complex64, n)
		for i, e := range elems {
			out[i] = e.(complex64)
		}
		return out, nil
	case VectorComplexDouble:
		out := make([]complex128, n)
		for i, e := range elems {
			out[i] = e.(complex128)
		}
		return out, nil
	case VectorString:
		out := make([]string, n)
		for i, e := range elems {
			out[i] = e.(string)
		}
		return out, nil
	}
	return nil, NewError(KindConversionFailed, "", fmt.Sprintf("cannot build vector of kind %s", t))
}

// byteVector wraps raw bytes in the native slice type of byte kind t.
func byteVector(b []byte, t Type) any {
	if t != VectorChar {
		return b
	}
	out := make([]Character, len(b))
	for i := range b {
		out[i] = Character(b[i])
	}
	return out
}

// SplitList splits a comma separated list at top level, leaving commas
// inside parentheses (complex values) alone. Items are trimmed and an
// empty or blank string yields an empty list.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	var (
		out   []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

// Len returns the element count of a vector value or -1 for scalars.
func Len(v any) int {
	if b, ok := v.([]byte); ok {
		return len(b)
	}
	if elems, ok := elements(v); ok {
		return len(elems)
	}
	return -1
}

// Elements exposes the boxed items of a vector value.
func Elements(v any) ([]any, bool) {
	return elements(v)
}
