// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"errors"
	"fmt"

	"github.com/European-XFEL/Karabo-sub007/types"
)

// Node is a keyed entry of a Hash holding a typed value and its attributes.
// Nodes and sub-Hashes returned from a Hash alias the parent's storage and
// stay valid until the entry is erased or replaced.
type Node struct {
	key   string
	typ   types.Type
	value any
	attrs *Attributes
}

func newNode(key string, val any, typ types.Type) *Node {
	return &Node{
		key:   key,
		typ:   typ,
		value: val,
		attrs: &Attributes{},
	}
}

func (n *Node) Key() string {
	return n.key
}

func (n *Node) Type() types.Type {
	return n.typ
}

func (n *Node) Value() any {
	return n.value
}

func (n *Node) Attributes() *Attributes {
	return n.attrs
}

// IsHash reports whether the node holds a nested Hash.
func (n *Node) IsHash() bool {
	return n.typ == types.Hash
}

// Hash returns the nested Hash or nil when the node is not of kind HASH.
func (n *Node) Hash() *Hash {
	h, _ := n.value.(*Hash)
	return h
}

// Hashes returns the items of a VECTOR_HASH node.
func (n *Node) Hashes() []*Hash {
	v, _ := n.value.([]*Hash)
	return v
}

// SetValue replaces the value, changing the node kind when necessary.
// Attributes are kept.
func (n *Node) SetValue(v any) error {
	val, typ, err := normalize(v)
	if err != nil {
		return withPath(err, n.key)
	}
	n.value, n.typ = val, typ
	return nil
}

// SetType converts the value in place to kind t.
func (n *Node) SetType(t types.Type) error {
	if t == n.typ {
		return nil
	}
	val, err := Convert(n.value, t)
	if err != nil {
		return withPath(err, n.key)
	}
	n.value, n.typ = val, t
	return nil
}

// GetAs returns the value converted to kind t.
func (n *Node) GetAs(t types.Type) (any, error) {
	if t == n.typ {
		return n.value, nil
	}
	v, err := Convert(n.value, t)
	if err != nil {
		return nil, withPath(err, n.key)
	}
	return v, nil
}

func (n *Node) clone() *Node {
	return &Node{
		key:   n.key,
		typ:   n.typ,
		value: cloneValue(n.value),
		attrs: n.attrs.Clone(),
	}
}

// normalize maps a native value onto its canonical representation and kind.
func normalize(v any) (any, types.Type, error) {
	switch x := v.(type) {
	case *Hash:
		if x == nil {
			x = New()
		}
		return x, types.Hash, nil
	case []*Hash:
		if x == nil {
			x = []*Hash{}
		}
		return x, types.VectorHash, nil
	case *Schema:
		if x == nil {
			x = NewSchema("")
		}
		return x, types.Schema, nil
	case Schema:
		return &x, types.Schema, nil
	case *Node:
		return nil, types.Unknown, types.NewError(types.KindTypeMismatch, "", "cannot store a node as value, use SetNode")
	case []any:
		if list, ok := hashList(x); ok {
			return list, types.VectorHash, nil
		}
	}
	return types.Normalize(v)
}

// hashList converts a non-empty untyped list of Hashes.
func hashList(list []any) ([]*Hash, bool) {
	if len(list) == 0 {
		return nil, false
	}
	out := make([]*Hash, len(list))
	for i, v := range list {
		h, ok := v.(*Hash)
		if !ok {
			return nil, false
		}
		out[i] = h
	}
	return out, true
}

// cloneValue deep copies composite values and slices.
func cloneValue(v any) any {
	switch x := v.(type) {
	case *Hash:
		return x.Clone()
	case []*Hash:
		c := make([]*Hash, len(x))
		for i := range x {
			c[i] = x[i].Clone()
		}
		return c
	case *Schema:
		return x.Clone()
	case []bool:
		return append([]bool{}, x...)
	case []types.Character:
		return append([]types.Character{}, x...)
	case []byte:
		return append([]byte{}, x...)
	case []int8:
		return append([]int8{}, x...)
	case []int16:
		return append([]int16{}, x...)
	case []uint16:
		return append([]uint16{}, x...)
	case []int32:
		return append([]int32{}, x...)
	case []uint32:
		return append([]uint32{}, x...)
	case []int64:
		return append([]int64{}, x...)
	case []uint64:
		return append([]uint64{}, x...)
	case []float32:
		return append([]float32{}, x...)
	case []float64:
		return append([]float64{}, x...)
	case []complex64:
		return append([]complex64{}, x...)
	case []complex128:
		return append([]complex128{}, x...)
	case []string:
		return append([]string{}, x...)
	case []any:
		return append([]any{}, x...)
	}
	return v
}

// withPath binds an untargeted *types.Error to path.
func withPath(err error, path string) error {
	var e *types.Error
	if errors.As(err, &e) && e.Path == "" {
		return e.WithPath(path)
	}
	return err
}

func typeMismatch(path string, have types.Type, want string) error {
	return types.NewError(types.KindTypeMismatch, path, fmt.Sprintf("value is %s, not %s", have, want))
}
