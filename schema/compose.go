// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"fmt"
	"strings"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/state"
	"github.com/European-XFEL/Karabo-sub007/types"
)

// Merge adds all elements of o that s does not have yet. Elements present
// in both must agree on node type and, for leaves, on value kind; on a
// clash s is left unchanged.
func (s *Schema) Merge(o *Schema) error {
	if err := mergeNodes(s.h, o.h, "", false); err != nil {
		return err
	}
	return mergeNodes(s.h, o.h, "", true)
}

func mergeNodes(dst, src *hash.Hash, prefix string, apply bool) error {
	for _, n := range src.Nodes() {
		path := joinPath(prefix, n.Key())
		dn, ok := dst.Node(n.Key())
		if !ok {
			if apply {
				if err := dst.SetNode(n.Key(), n); err != nil {
					return err
				}
			}
			continue
		}
		if a, b := nodeTypeOf(dn), nodeTypeOf(n); a != b {
			return types.NewError(types.KindDescriptorInvalid, path,
				fmt.Sprintf("node type clash: %s vs %s", a, b))
		}
		if nodeTypeOf(n) == NodeLeaf {
			a, _ := dn.Attributes().Get(AttrValueType)
			b, _ := n.Attributes().Get(AttrValueType)
			if a != b {
				return types.NewError(types.KindDescriptorInvalid, path,
					fmt.Sprintf("value type clash: %v vs %v", a, b))
			}
			continue
		}
		if dn.IsHash() && n.IsHash() {
			if err := mergeNodes(dn.Hash(), n.Hash(), path, apply); err != nil {
				return err
			}
		}
	}
	return nil
}

// FilterByTags returns the elements tagged with any of tags. A matching
// node is kept with all its children; other nodes are kept when one of
// their children matches.
func (s *Schema) FilterByTags(tags ...string) *Schema {
	want := make(map[string]bool)
	for _, t := range tags {
		for _, x := range types.SplitList(t) {
			want[x] = true
		}
	}
	out := New(s.name)
	filterTags(s.h, out.h, want)
	return out
}

func filterTags(src, dst *hash.Hash, want map[string]bool) {
	for _, n := range src.Nodes() {
		if hasTag(n, want) {
			_ = dst.SetNode(n.Key(), n)
			continue
		}
		if nodeTypeOf(n) == NodeLeaf || !n.IsHash() {
			continue
		}
		sub := hash.New()
		filterTags(n.Hash(), sub, want)
		if sub.Empty() {
			continue
		}
		_ = dst.Set(n.Key(), sub)
		dn, _ := dst.Node(n.Key())
		dn.Attributes().Merge(n.Attributes())
	}
}

func hasTag(n *hash.Node, want map[string]bool) bool {
	v, err := n.Attributes().GetAs(AttrTags, types.VectorString)
	if err != nil {
		return false
	}
	for _, t := range v.([]string) {
		if want[t] {
			return true
		}
	}
	return false
}

// SubSchema returns the elements below a node as a schema of their own. The
// result shares nothing with s.
func (s *Schema) SubSchema(path string) (*Schema, error) {
	n, err := s.node(path)
	if err != nil {
		return nil, err
	}
	if !n.IsHash() || nodeTypeOf(n) == NodeLeaf {
		return nil, types.NewError(types.KindTypeMismatch, path, "not a node")
	}
	return &Schema{name: s.name, h: n.Hash().Clone()}, nil
}

// AssemblyRules select elements by access mode, state and access level.
// An empty State or a negative AccessLevel matches everything.
type AssemblyRules struct {
	AccessMode  AccessMode
	State       state.State
	AccessLevel AccessLevel
}

// DefaultAssemblyRules match every element.
var DefaultAssemblyRules = AssemblyRules{
	AccessMode:  AccessAll,
	AccessLevel: -1,
}

// SubSchemaByRules keeps the elements visible under rules.
func (s *Schema) SubSchemaByRules(rules AssemblyRules) *Schema {
	var paths []string
	for _, p := range s.units() {
		if !s.allowed(p, rules) {
			continue
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		return New(s.name)
	}
	return s.SubSchemaByPaths(paths...)
}

func (s *Schema) allowed(path string, rules AssemblyRules) bool {
	if mode, err := s.AccessMode(path); err == nil && mode&rules.AccessMode == 0 {
		return false
	}
	if rules.State != "" {
		if list, err := s.AllowedStates(path); err == nil && len(list) > 0 {
			found := false
			for _, st := range list {
				if st == rules.State {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	if rules.AccessLevel >= 0 {
		if l, err := s.RequiredAccessLevel(path); err == nil && rules.AccessLevel < l {
			return false
		}
	}
	return true
}

// units lists the paths that are selected as a whole: leaves, commands,
// empty nodes and array payloads.
func (s *Schema) units() []string {
	var paths []string
	s.h.Walk(func(path string, _ int, n *hash.Node) bool {
		switch {
		case nodeTypeOf(n) == NodeLeaf:
			paths = append(paths, path)
			return false
		case s.IsCommand(path) || s.IsNDArray(path) || s.IsImage(path):
			paths = append(paths, path)
			return false
		case n.IsHash() && n.Hash().Empty():
			paths = append(paths, path)
			return false
		}
		return true
	})
	return paths
}

// SubSchemaByPaths keeps the listed elements with their ancestors, in
// schema order. No paths keep everything.
func (s *Schema) SubSchemaByPaths(paths ...string) *Schema {
	if len(paths) == 0 {
		return s.Clone()
	}
	selected := make(map[string]bool, len(paths))
	ancestors := make(map[string]bool)
	for _, p := range paths {
		selected[p] = true
		segs := strings.Split(p, hash.Separator)
		for i := 1; i < len(segs); i++ {
			ancestors[strings.Join(segs[:i], hash.Separator)] = true
		}
	}
	out := New(s.name)
	s.h.Walk(func(path string, _ int, n *hash.Node) bool {
		switch {
		case selected[path]:
			_ = out.h.SetNode(path, n)
			return false
		case ancestors[path]:
			_ = out.h.Set(path, hash.New())
			dn, _ := out.h.GetNode(path)
			dn.Attributes().Merge(n.Attributes())
			return true
		}
		return false
	})
	return out
}
