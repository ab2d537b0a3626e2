// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

// Package ndarray implements the NDArray and ImageData payloads and their
// layout inside a Hash.
package ndarray

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/types"
)

const (
	ClassID      = "NDArray"
	ClassIDAttr  = "__classId"
	KeyType      = "type"
	KeyBigEndian = "isBigEndian"
	KeyShape     = "shape"
	KeyData      = "data"
)

// NDArray is a fixed-kind multi-dimensional array stored as raw bytes. Data
// is laid out row-major in the byte order given by BigEndian.
type NDArray struct {
	Type      types.Type
	Shape     []uint64
	BigEndian bool
	Data      []byte
}

// New returns a zero filled little endian array of element kind t.
func New(t types.Type, shape []uint64) (*NDArray, error) {
	if err := checkElemType(t); err != nil {
		return nil, err
	}
	n := product(shape)
	return &NDArray{
		Type:  t,
		Shape: append([]uint64{}, shape...),
		Data:  make([]byte, n*uint64(t.Size())),
	}, nil
}

// FromSlice copies a typed slice like []uint16 into a little endian array.
// An empty shape defaults to the one-dimensional slice length.
func FromSlice(v any, shape []uint64) (*NDArray, error) {
	vt, err := types.Infer(v)
	if err != nil {
		return nil, err
	}
	var t types.Type
	switch vt {
	case types.ByteArray, types.VectorUInt8:
		t = types.UInt8
	default:
		if !vt.IsVector() {
			return nil, types.NewError(types.KindTypeMismatch, "", fmt.Sprintf("%s is not a vector kind", vt))
		}
		t = vt.ElemType()
	}
	if err := checkElemType(t); err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(nil)
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		return nil, types.WrapError(types.KindConversionFailed, "", fmt.Sprintf("cannot encode %s", vt), err)
	}
	a := &NDArray{
		Type: t,
		Data: buf.Bytes(),
	}
	if err := a.SetShape(shape); err != nil {
		return nil, err
	}
	return a, nil
}

func checkElemType(t types.Type) error {
	if !t.IsValid() || t.IsVector() || t.Size() <= 0 || t.Category() != types.CategorySimple {
		return types.NewError(types.KindTypeMismatch, "", fmt.Sprintf("%s is not a fixed width element kind", t))
	}
	return nil
}

func product(shape []uint64) uint64 {
	if len(shape) == 0 {
		return 0
	}
	n := uint64(1)
	for _, v := range shape {
		n *= v
	}
	return n
}

// ItemSize is the width of one element in bytes.
func (a *NDArray) ItemSize() int {
	return a.Type.Size()
}

// Len is the number of elements.
func (a *NDArray) Len() int {
	if a.ItemSize() <= 0 {
		return 0
	}
	return len(a.Data) / a.ItemSize()
}

// Rank is the number of dimensions.
func (a *NDArray) Rank() int {
	return len(a.Shape)
}

// SetShape changes the shape keeping the data. An empty shape means a
// one-dimensional array of all elements.
func (a *NDArray) SetShape(shape []uint64) error {
	if len(shape) == 0 {
		a.Shape = []uint64{uint64(a.Len())}
		return nil
	}
	if n := product(shape); n != uint64(a.Len()) {
		return types.NewError(types.KindShapeMismatch, "", fmt.Sprintf("shape %v holds %d elements, array has %d", shape, n, a.Len()))
	}
	a.Shape = append([]uint64{}, shape...)
	return nil
}

func (a *NDArray) order() binary.ByteOrder {
	if a.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Values decodes the data into a typed slice such as []float32.
func (a *NDArray) Values() (any, error) {
	v, err := makeSlice(a.Type, a.Len())
	if err != nil {
		return nil, err
	}
	if err := binary.Read(bytes.NewReader(a.Data), a.order(), v); err != nil {
		return nil, types.WrapError(types.KindCodecTruncated, KeyData, "cannot decode array data", err)
	}
	return deref(v), nil
}

// makeSlice returns a pointer to a slice of n elements of kind t.
func makeSlice(t types.Type, n int) (any, error) {
	switch t {
	case types.Bool:
		s := make([]bool, n)
		return &s, nil
	case types.Char:
		s := make([]types.Character, n)
		return &s, nil
	case types.Int8:
		s := make([]int8, n)
		return &s, nil
	case types.UInt8:
		s := make([]uint8, n)
		return &s, nil
	case types.Int16:
		s := make([]int16, n)
		return &s, nil
	case types.UInt16:
		s := make([]uint16, n)
		return &s, nil
	case types.Int32:
		s := make([]int32, n)
		return &s, nil
	case types.UInt32:
		s := make([]uint32, n)
		return &s, nil
	case types.Int64:
		s := make([]int64, n)
		return &s, nil
	case types.UInt64:
		s := make([]uint64, n)
		return &s, nil
	case types.Float:
		s := make([]float32, n)
		return &s, nil
	case types.Double:
		s := make([]float64, n)
		return &s, nil
	case types.ComplexFloat:
		s := make([]complex64, n)
		return &s, nil
	case types.ComplexDouble:
		s := make([]complex128, n)
		return &s, nil
	}
	return nil, types.NewError(types.KindTypeMismatch, "", fmt.Sprintf("%s is not a fixed width element kind", t))
}

func deref(p any) any {
	switch x := p.(type) {
	case *[]bool:
		return *x
	case *[]types.Character:
		return *x
	case *[]int8:
		return *x
	case *[]uint8:
		return *x
	case *[]int16:
		return *x
	case *[]uint16:
		return *x
	case *[]int32:
		return *x
	case *[]uint32:
		return *x
	case *[]int64:
		return *x
	case *[]uint64:
		return *x
	case *[]float32:
		return *x
	case *[]float64:
		return *x
	case *[]complex64:
		return *x
	case *[]complex128:
		return *x
	}
	return p
}

// ToLittleEndian converts the data in place when stored big endian.
func (a *NDArray) ToLittleEndian() {
	if a.BigEndian {
		a.swap()
		a.BigEndian = false
	}
}

// ToBigEndian converts the data in place when stored little endian.
func (a *NDArray) ToBigEndian() {
	if !a.BigEndian {
		a.swap()
		a.BigEndian = true
	}
}

// swap reverses the byte order of every element. Complex elements swap
// real and imaginary parts independently.
func (a *NDArray) swap() {
	width := a.ItemSize()
	if a.Type.IsComplex() {
		width /= 2
	}
	if width <= 1 {
		return
	}
	for i := 0; i+width <= len(a.Data); i += width {
		w := a.Data[i : i+width]
		for l, r := 0, width-1; l < r; l, r = l+1, r-1 {
			w[l], w[r] = w[r], w[l]
		}
	}
}

func (a *NDArray) Clone() *NDArray {
	return &NDArray{
		Type:      a.Type,
		Shape:     append([]uint64{}, a.Shape...),
		BigEndian: a.BigEndian,
		Data:      append([]byte{}, a.Data...),
	}
}

// Equal compares kind, shape and element values independent of byte order.
func (a *NDArray) Equal(b *NDArray) bool {
	if a.Type != b.Type || len(a.Shape) != len(b.Shape) || len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	if a.BigEndian == b.BigEndian {
		return bytes.Equal(a.Data, b.Data)
	}
	x, y := a.Clone(), b.Clone()
	x.ToLittleEndian()
	y.ToLittleEndian()
	return bytes.Equal(x.Data, y.Data)
}

// ToHash returns the Hash layout of the array.
func (a *NDArray) ToHash() *hash.Hash {
	h := hash.New()
	_ = h.SetAs(KeyData, a.Data, types.ByteArray)
	_ = h.Set(KeyType, int32(a.Type.Code()))
	_ = h.SetAs(KeyShape, a.Shape, types.VectorUInt64)
	_ = h.Set(KeyBigEndian, a.BigEndian)
	return h
}

// FromHash reads the Hash layout of an array. Shape and data length must
// agree with the element kind.
func FromHash(h *hash.Hash) (*NDArray, error) {
	code, err := hash.GetValue[int32](h, KeyType)
	if err != nil {
		return nil, err
	}
	t, err := types.FromCode(uint32(code))
	if err != nil {
		return nil, types.WrapError(types.KindTypeMismatch, KeyType, fmt.Sprintf("invalid element type code %d", code), err)
	}
	if err := checkElemType(t); err != nil {
		return nil, err.(*types.Error).WithPath(KeyType)
	}
	data, err := hash.GetValue[[]byte](h, KeyData)
	if err != nil {
		return nil, err
	}
	if len(data)%t.Size() != 0 {
		return nil, types.NewError(types.KindShapeMismatch, KeyData, fmt.Sprintf("%d bytes is not a multiple of the %s width", len(data), t))
	}
	a := &NDArray{Type: t, Data: data}
	if h.Has(KeyBigEndian) {
		if a.BigEndian, err = hash.GetValue[bool](h, KeyBigEndian); err != nil {
			return nil, err
		}
	}
	var shape []uint64
	if h.Has(KeyShape) {
		v, err := h.GetAs(KeyShape, types.VectorUInt64)
		if err != nil {
			return nil, err
		}
		shape = v.([]uint64)
	}
	if err := a.SetShape(shape); err != nil {
		return nil, err.(*types.Error).WithPath(KeyShape)
	}
	return a, nil
}

// Set stores a at path and tags the node with the NDArray class id.
func Set(h *hash.Hash, path string, a *NDArray) error {
	if err := h.Set(path, a.ToHash()); err != nil {
		return err
	}
	return h.SetAttribute(path, ClassIDAttr, ClassID)
}

// Get reads the array stored at path.
func Get(h *hash.Hash, path string) (*NDArray, error) {
	sub, err := h.GetHash(path)
	if err != nil {
		return nil, err
	}
	a, err := FromHash(sub)
	if err != nil {
		if e, ok := err.(*types.Error); ok {
			p := path
			if e.Path != "" {
				p += hash.Separator + e.Path
			}
			return nil, e.WithPath(p)
		}
		return nil, err
	}
	return a, nil
}

// IsNDArray reports whether node n carries an NDArray payload.
func IsNDArray(n *hash.Node) bool {
	if n == nil || n.Type() != types.Hash {
		return false
	}
	v, err := n.Attributes().Get(ClassIDAttr)
	return err == nil && v == ClassID
}
