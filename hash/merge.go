// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"sort"

	"github.com/European-XFEL/Karabo-sub007/types"
)

// MergePolicy controls how attributes of nodes present on both sides are
// combined.
type MergePolicy byte

const (
	MergeAttributes MergePolicy = iota
	ReplaceAttributes
)

func (p MergePolicy) String() string {
	switch p {
	case MergeAttributes:
		return "MERGE_ATTRIBUTES"
	case ReplaceAttributes:
		return "REPLACE_ATTRIBUTES"
	default:
		return "UNKNOWN"
	}
}

// VectorPolicy controls how VECTOR_HASH values present on both sides are
// combined.
type VectorPolicy byte

const (
	VectorReplace VectorPolicy = iota
	VectorAppend
	VectorMergeItems
)

type MergeOptions struct {
	Policy  MergePolicy
	Vectors VectorPolicy
	// Selected restricts the merge to these paths and their ancestors.
	// `key[n]` selects single VECTOR_HASH items, indices outside the
	// source vector are ignored.
	Selected  []string
	Separator string
}

// Merge merges other into h. Matching Hash nodes are merged recursively,
// leaves are replaced and new nodes are appended.
func (h *Hash) Merge(other *Hash, policy MergePolicy, selectedPaths ...string) {
	h.MergeWith(other, MergeOptions{
		Policy:   policy,
		Selected: selectedPaths,
	})
}

func (h *Hash) MergeWith(other *Hash, opts MergeOptions) {
	if opts.Separator == "" {
		opts.Separator = Separator
	}
	var sel *selection
	if len(opts.Selected) > 0 {
		sel = newSelection(opts.Selected, opts.Separator)
	}
	h.merge(other, opts, sel)
}

// selection is a tree of selected paths. A nil selection or one with all
// set selects a complete subtree.
type selection struct {
	all      bool
	children map[string]*selection
	items    map[int]*selection
}

func newSelection(paths []string, sep string) *selection {
	root := &selection{}
	for _, p := range paths {
		segs, err := splitPath(p, sep)
		if err != nil {
			log.Debugf("hash: ignoring invalid merge selection %q: %v", p, err)
			continue
		}
		cur := root
		for _, s := range segs {
			cur = cur.child(s.key)
			if s.index >= 0 {
				cur = cur.item(s.index)
			}
		}
		cur.all = true
	}
	return root
}

func (s *selection) child(key string) *selection {
	if s.children == nil {
		s.children = make(map[string]*selection)
	}
	c, ok := s.children[key]
	if !ok {
		c = &selection{}
		s.children[key] = c
	}
	return c
}

func (s *selection) item(i int) *selection {
	if s.items == nil {
		s.items = make(map[int]*selection)
	}
	c, ok := s.items[i]
	if !ok {
		c = &selection{}
		s.items[i] = c
	}
	return c
}

func (s *selection) complete() bool {
	return s == nil || s.all
}

func (h *Hash) merge(other *Hash, opts MergeOptions, sel *selection) {
	for _, on := range other.nodes {
		var sub *selection
		if sel != nil {
			var ok bool
			if sub, ok = sel.children[on.key]; !ok {
				continue
			}
			if sub.complete() {
				sub = nil
			}
		}

		n := h.node(on.key)
		if n == nil {
			if sub == nil {
				h.appendNode(on.clone())
				continue
			}
			// partially selected subtree
			switch on.typ {
			case types.Hash:
				n = h.appendNode(newNode(on.key, New(), types.Hash))
			case types.VectorHash:
				n = h.appendNode(newNode(on.key, []*Hash{}, types.VectorHash))
			default:
				// selection points below a leaf
				continue
			}
			n.attrs = on.attrs.Clone()
		} else {
			switch opts.Policy {
			case ReplaceAttributes:
				n.attrs = on.attrs.Clone()
			default:
				n.attrs.Merge(on.attrs)
			}
		}

		switch on.typ {
		case types.Hash:
			dst, ok := n.value.(*Hash)
			if !ok {
				dst = New()
				n.value, n.typ = dst, types.Hash
			}
			dst.merge(on.value.(*Hash), opts, sub)
		case types.VectorHash:
			mergeVector(n, on.value.([]*Hash), opts, sub)
		default:
			if sub != nil {
				continue
			}
			n.value, n.typ = cloneValue(on.value), on.typ
		}
	}
}

type selectedItem struct {
	index int
	hash  *Hash
}

func mergeVector(n *Node, src []*Hash, opts MergeOptions, sel *selection) {
	var picked []selectedItem
	if sel != nil && len(sel.items) > 0 {
		idx := make([]int, 0, len(sel.items))
		for i := range sel.items {
			if i < len(src) {
				idx = append(idx, i)
			}
		}
		sort.Ints(idx)
		for _, i := range idx {
			picked = append(picked, selectedItem{i, pickItem(src[i], sel.items[i], opts)})
		}
	} else {
		for i, item := range src {
			picked = append(picked, selectedItem{i, item.Clone()})
		}
	}

	dst, ok := n.value.([]*Hash)
	if !ok {
		dst = []*Hash{}
	}
	switch opts.Vectors {
	case VectorAppend:
		for _, p := range picked {
			dst = append(dst, p.hash)
		}
	case VectorMergeItems:
		for _, p := range picked {
			for len(dst) < p.index {
				dst = append(dst, New())
			}
			if p.index < len(dst) {
				dst[p.index].merge(p.hash, opts, nil)
			} else {
				dst = append(dst, p.hash)
			}
		}
	default:
		dst = make([]*Hash, len(picked))
		for i, p := range picked {
			dst[i] = p.hash
		}
	}
	n.value, n.typ = dst, types.VectorHash
}

func pickItem(item *Hash, sel *selection, opts MergeOptions) *Hash {
	if sel.complete() {
		return item.Clone()
	}
	x := New()
	x.merge(item, opts, sel)
	return x
}

// Subtract removes all paths of other from h. A Hash present on both sides
// is subtracted recursively unless the other side is empty, in which case
// the whole entry is removed. Parents that become empty are kept.
func (h *Hash) Subtract(other *Hash) {
	for _, on := range other.nodes {
		n := h.node(on.key)
		if n == nil {
			continue
		}
		src, ok := on.value.(*Hash)
		dst, isHash := n.value.(*Hash)
		if ok && isHash && !src.Empty() {
			dst.Subtract(src)
			continue
		}
		h.remove(on.key)
	}
}
