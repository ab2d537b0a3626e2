// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"reflect"

	"github.com/European-XFEL/Karabo-sub007/types"
)

// Similar reports whether both Hashes have the same paths with the same
// value kinds, ignoring values, attributes and key order. VECTOR_HASH
// values must have the same length and similar items.
func (h *Hash) Similar(other *Hash) bool {
	if h.Len() != other.Len() {
		return false
	}
	for _, n := range h.nodes {
		m := other.node(n.key)
		if m == nil || m.typ != n.typ {
			return false
		}
		switch n.typ {
		case types.Hash:
			if !n.value.(*Hash).Similar(m.value.(*Hash)) {
				return false
			}
		case types.VectorHash:
			a, b := n.value.([]*Hash), m.value.([]*Hash)
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if !a[i].Similar(b[i]) {
					return false
				}
			}
		}
	}
	return true
}

// FullyEqual compares kinds, values and attributes of all nodes. With
// orderMatters set the key and attribute order must match as well.
func (h *Hash) FullyEqual(other *Hash, orderMatters bool) bool {
	if h.Len() != other.Len() {
		return false
	}
	for i, n := range h.nodes {
		var m *Node
		if orderMatters {
			m = other.nodes[i]
			if m.key != n.key {
				return false
			}
		} else if m = other.node(n.key); m == nil {
			return false
		}
		if m.typ != n.typ {
			return false
		}
		if !n.attrs.Equal(m.attrs, orderMatters) {
			return false
		}
		if !valuesEqual(n.value, m.value, orderMatters) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any, orderMatters bool) bool {
	switch x := a.(type) {
	case *Hash:
		y, ok := b.(*Hash)
		return ok && x.FullyEqual(y, orderMatters)
	case []*Hash:
		y, ok := b.([]*Hash)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !x[i].FullyEqual(y[i], orderMatters) {
				return false
			}
		}
		return true
	case *Schema:
		y, ok := b.(*Schema)
		return ok && x.Name == y.Name && x.Hash.FullyEqual(y.Hash, orderMatters)
	}
	return reflect.DeepEqual(a, b)
}
