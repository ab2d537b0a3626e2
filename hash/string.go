// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"strconv"
	"strings"

	"github.com/European-XFEL/Karabo-sub007/types"
)

// String renders an indented tree with one node per line, e.g.
//
//	a +
//	  b unit="m" => 7 INT32
func (h *Hash) String() string {
	var b strings.Builder
	h.dump(&b, 0)
	return b.String()
}

// Visitor is called for every node in depth-first order. Returning false
// skips the children of a Hash or VECTOR_HASH node.
type Visitor func(path string, depth int, n *Node) bool

// Walk visits all nodes below h in insertion order.
func (h *Hash) Walk(fn Visitor) {
	h.walk("", 0, fn)
}

func (h *Hash) walk(prefix string, depth int, fn Visitor) {
	for _, n := range h.nodes {
		p := joinPath(prefix, n.key, Separator)
		if !fn(p, depth, n) {
			continue
		}
		switch v := n.value.(type) {
		case *Hash:
			v.walk(p, depth+1, fn)
		case []*Hash:
			for i, item := range v {
				item.walk(p+"["+strconv.Itoa(i)+"]", depth+1, fn)
			}
		}
	}
}

func (h *Hash) dump(b *strings.Builder, depth int) {
	pad := strings.Repeat("  ", depth)
	for _, n := range h.nodes {
		b.WriteString(pad)
		b.WriteString(n.key)
		for _, a := range n.attrs.List() {
			b.WriteString(" ")
			b.WriteString(a.key)
			b.WriteString("=\"")
			b.WriteString(ValueString(a.typ, a.value))
			b.WriteString("\"")
		}
		switch v := n.value.(type) {
		case *Hash:
			b.WriteString(" +\n")
			v.dump(b, depth+1)
		case []*Hash:
			b.WriteString(" @\n")
			for i, item := range v {
				b.WriteString(pad)
				b.WriteString("[" + strconv.Itoa(i) + "]\n")
				item.dump(b, depth+1)
			}
		case *Schema:
			b.WriteString(" => " + v.Name + " SCHEMA\n")
			v.Hash.dump(b, depth+1)
		default:
			b.WriteString(" => ")
			b.WriteString(ValueString(n.typ, n.value))
			b.WriteString(" ")
			b.WriteString(n.typ.String())
			b.WriteString("\n")
		}
	}
}

// ValueString renders a non-composite value as text, falling back to the
// kind name for composites.
func ValueString(t types.Type, v any) string {
	switch t {
	case types.Hash, types.VectorHash, types.Schema:
		return t.String()
	case types.VectorNone:
		return strconv.Itoa(types.Len(v)) + " x NONE"
	}
	s, err := types.Format(v)
	if err != nil {
		return "?"
	}
	return s
}
