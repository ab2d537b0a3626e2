// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package types

import (
	"fmt"
)

// Type is the numeric reference type code of a Karabo value kind. The code is
// the on-wire type tag of the binary codec and stable across languages.
type Type uint32

// Reference types
const (
	Bool                Type = iota // 00
	VectorBool                      // 01
	Char                            // 02
	VectorChar                      // 03
	Int8                            // 04
	VectorInt8                      // 05
	UInt8                           // 06
	VectorUInt8                     // 07
	Int16                           // 08
	VectorInt16                     // 09
	UInt16                          // 0A
	VectorUInt16                    // 0B
	Int32                           // 0C
	VectorInt32                     // 0D
	UInt32                          // 0E
	VectorUInt32                    // 0F
	Int64                           // 10
	VectorInt64                     // 11
	UInt64                          // 12
	VectorUInt64                    // 13
	Float                           // 14
	VectorFloat                     // 15
	Double                          // 16
	VectorDouble                    // 17
	ComplexFloat                    // 18
	VectorComplexFloat              // 19
	ComplexDouble                   // 1A
	VectorComplexDouble             // 1B
	String                          // 1C
	VectorString                    // 1D
	Hash                            // 1E
	VectorHash                      // 1F
	Schema                          // 20

	None       Type = 35
	VectorNone Type = 36
	ByteArray  Type = 37

	Unknown Type = 0xffffffff
)

// Category groups reference types by how they are encoded and validated.
type Category byte

const (
	CategorySimple Category = iota
	CategorySequence
	CategoryHash
	CategoryVectorHash
	CategorySchema
	CategoryNone
	CategoryInvalid
)

func (c Category) String() string {
	switch c {
	case CategorySimple:
		return "SIMPLE"
	case CategorySequence:
		return "SEQUENCE"
	case CategoryHash:
		return "HASH"
	case CategoryVectorHash:
		return "VECTOR_HASH"
	case CategorySchema:
		return "SCHEMA"
	case CategoryNone:
		return "NONE"
	default:
		return "INVALID"
	}
}

var (
	typeToString = map[Type]string{
		Bool:                "BOOL",
		VectorBool:          "VECTOR_BOOL",
		Char:                "CHAR",
		VectorChar:          "VECTOR_CHAR",
		Int8:                "INT8",
		VectorInt8:          "VECTOR_INT8",
		UInt8:               "UINT8",
		VectorUInt8:         "VECTOR_UINT8",
		Int16:               "INT16",
		VectorInt16:         "VECTOR_INT16",
		UInt16:              "UINT16",
		VectorUInt16:        "VECTOR_UINT16",
		Int32:               "INT32",
		VectorInt32:         "VECTOR_INT32",
		UInt32:              "UINT32",
		VectorUInt32:        "VECTOR_UINT32",
		Int64:               "INT64",
		VectorInt64:         "VECTOR_INT64",
		UInt64:              "UINT64",
		VectorUInt64:        "VECTOR_UINT64",
		Float:               "FLOAT",
		VectorFloat:         "VECTOR_FLOAT",
		Double:              "DOUBLE",
		VectorDouble:        "VECTOR_DOUBLE",
		ComplexFloat:        "COMPLEX_FLOAT",
		VectorComplexFloat:  "VECTOR_COMPLEX_FLOAT",
		ComplexDouble:       "COMPLEX_DOUBLE",
		VectorComplexDouble: "VECTOR_COMPLEX_DOUBLE",
		String:              "STRING",
		VectorString:        "VECTOR_STRING",
		Hash:                "HASH",
		VectorHash:          "VECTOR_HASH",
		Schema:              "SCHEMA",
		None:                "NONE",
		VectorNone:          "VECTOR_NONE",
		ByteArray:           "BYTE_ARRAY",
	}
	stringToType map[string]Type

	// fixed byte width of scalar kinds
	typeSize = map[Type]int{
		Bool:          1,
		Char:          1,
		Int8:          1,
		UInt8:         1,
		Int16:         2,
		UInt16:        2,
		Int32:         4,
		UInt32:        4,
		Int64:         8,
		UInt64:        8,
		Float:         4,
		Double:        8,
		ComplexFloat:  8,
		ComplexDouble: 16,
	}
)

func init() {
	stringToType = make(map[string]Type)
	for n, v := range typeToString {
		stringToType[v] = n
	}
}

func (t Type) String() string {
	str, ok := typeToString[t]
	if !ok {
		return fmt.Sprintf("UNKNOWN(%d)", uint32(t))
	}
	return str
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(data []byte) error {
	v, err := ParseType(string(data))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Code returns the numeric type code.
func (t Type) Code() uint32 {
	return uint32(t)
}

func (t Type) IsValid() bool {
	_, ok := typeToString[t]
	return ok
}

// ParseType returns the type for a canonical name like "VECTOR_DOUBLE".
func ParseType(name string) (Type, error) {
	t, ok := stringToType[name]
	if !ok {
		return Unknown, fmt.Errorf("types: unknown type name %q", name)
	}
	return t, nil
}

// FromCode returns the type for a numeric type code.
func FromCode(code uint32) (Type, error) {
	t := Type(code)
	if !t.IsValid() {
		return Unknown, NewError(KindCodecUnknownType, "", fmt.Sprintf("unknown type code %d", code))
	}
	return t, nil
}

// Size returns the fixed byte width of a scalar kind or -1 for variable
// length kinds.
func (t Type) Size() int {
	if sz, ok := typeSize[t]; ok {
		return sz
	}
	return -1
}

// IsVector reports whether t is a sequence of scalars, strings or Hashes.
func (t Type) IsVector() bool {
	switch t {
	case VectorBool, VectorChar, VectorInt8, VectorUInt8, VectorInt16, VectorUInt16,
		VectorInt32, VectorUInt32, VectorInt64, VectorUInt64, VectorFloat, VectorDouble,
		VectorComplexFloat, VectorComplexDouble, VectorString, VectorHash, VectorNone,
		ByteArray:
		return true
	default:
		return false
	}
}

func (t Type) IsNumeric() bool {
	switch t {
	case Int8, UInt8, Int16, UInt16, Int32, UInt32, Int64, UInt64, Float, Double:
		return true
	default:
		return false
	}
}

func (t Type) IsInteger() bool {
	switch t {
	case Int8, UInt8, Int16, UInt16, Int32, UInt32, Int64, UInt64:
		return true
	default:
		return false
	}
}

func (t Type) IsFloat() bool {
	return t == Float || t == Double
}

func (t Type) IsComplex() bool {
	return t == ComplexFloat || t == ComplexDouble
}

// ElemType returns the element kind of a vector kind, or t itself.
func (t Type) ElemType() Type {
	switch t {
	case VectorBool, VectorChar, VectorInt8, VectorUInt8, VectorInt16, VectorUInt16,
		VectorInt32, VectorUInt32, VectorInt64, VectorUInt64, VectorFloat, VectorDouble,
		VectorComplexFloat, VectorComplexDouble, VectorString, VectorHash, VectorNone:
		return t - 1
	case ByteArray:
		return Char
	default:
		return t
	}
}

// VectorOf returns the vector kind holding elements of kind t, or Unknown.
func (t Type) VectorOf() Type {
	switch t {
	case Bool, Char, Int8, UInt8, Int16, UInt16, Int32, UInt32, Int64, UInt64,
		Float, Double, ComplexFloat, ComplexDouble, String, Hash, None:
		return t + 1
	default:
		if t.IsVector() {
			return t
		}
		return Unknown
	}
}

func (t Type) Category() Category {
	switch t {
	case Hash:
		return CategoryHash
	case VectorHash:
		return CategoryVectorHash
	case Schema:
		return CategorySchema
	case None:
		return CategoryNone
	default:
		if t.IsVector() {
			return CategorySequence
		}
		if t.IsValid() {
			return CategorySimple
		}
		return CategoryInvalid
	}
}

// Types returns all registered types ordered by code.
func Types() []Type {
	list := make([]Type, 0, len(typeToString))
	for t := Bool; t <= Schema; t++ {
		list = append(list, t)
	}
	return append(list, None, VectorNone, ByteArray)
}
