// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"strings"

	"github.com/European-XFEL/Karabo-sub007/types"
)

// Flatten returns a single level Hash keyed by the leaf paths of h joined
// with sep. Leaf attributes are copied. Hash nodes that are empty or carry
// attributes are kept as empty Hash entries ahead of their children so
// that Unflatten can restore them.
func (h *Hash) Flatten(sep string) *Hash {
	if sep == "" {
		sep = Separator
	}
	flat := New()
	h.flatten(flat, "", sep)
	return flat
}

func (h *Hash) flatten(flat *Hash, prefix, sep string) {
	for _, n := range h.nodes {
		p := joinPath(prefix, n.key, sep)
		sub, ok := n.value.(*Hash)
		if !ok {
			c := n.clone()
			c.key = p
			flat.appendNode(c)
			continue
		}
		if sub.Empty() || n.attrs.Len() > 0 {
			flat.appendNode(&Node{
				key:   p,
				typ:   types.Hash,
				value: New(),
				attrs: n.attrs.Clone(),
			})
		}
		sub.flatten(flat, p, sep)
	}
}

// Unflatten inverts Flatten by splitting each key at sep.
func (h *Hash) Unflatten(sep string) *Hash {
	if sep == "" {
		sep = Separator
	}
	out := New()
	for _, n := range h.nodes {
		segs := strings.Split(n.key, sep)
		cur := out
		for _, s := range segs[:len(segs)-1] {
			cur = cur.descend(segment{key: s, index: -1})
		}
		key := segs[len(segs)-1]
		if sub, ok := n.value.(*Hash); ok && sub.Empty() {
			if existing, ok := cur.Node(key); ok && existing.typ == types.Hash {
				existing.attrs.Merge(n.attrs)
				continue
			}
		}
		c := n.clone()
		c.key = key
		if existing := cur.node(key); existing != nil {
			existing.value, existing.typ, existing.attrs = c.value, c.typ, c.attrs
			continue
		}
		cur.appendNode(c)
	}
	return out
}
