// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

// Package hash implements the ordered, attributed key/value tree used for
// all configuration and data exchange together with its binary and XML
// codecs.
package hash

import (
	"fmt"

	"github.com/European-XFEL/Karabo-sub007/types"
)

// Hash is an insertion ordered tree of typed values. Paths address nested
// entries using a separator (default ".") and `key[n]` selects item n of a
// VECTOR_HASH. A Hash is not safe for concurrent mutation.
type Hash struct {
	index map[string]int
	nodes []*Node
}

func New() *Hash {
	return &Hash{}
}

// MustNew builds a Hash from path/value pairs and panics on invalid input.
// It is meant for static construction in code and tests.
func MustNew(kv ...any) *Hash {
	if len(kv)%2 != 0 {
		panic("hash: odd number of arguments")
	}
	h := New()
	for i := 0; i < len(kv); i += 2 {
		path, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("hash: path argument %d is %T, not string", i, kv[i]))
		}
		if err := h.Set(path, kv[i+1]); err != nil {
			panic(err)
		}
	}
	return h
}

func (h *Hash) KaraboType() types.Type {
	return types.Hash
}

func (h *Hash) Len() int {
	if h == nil {
		return 0
	}
	return len(h.nodes)
}

func (h *Hash) Empty() bool {
	return h.Len() == 0
}

func (h *Hash) Clear() {
	h.index = nil
	h.nodes = nil
}

// Keys returns the top-level keys in insertion order.
func (h *Hash) Keys() []string {
	keys := make([]string, len(h.nodes))
	for i, n := range h.nodes {
		keys[i] = n.key
	}
	return keys
}

// Nodes returns the top-level nodes in insertion order.
func (h *Hash) Nodes() []*Node {
	return append([]*Node{}, h.nodes...)
}

// Node returns the top-level node stored under key.
func (h *Hash) Node(key string) (*Node, bool) {
	n := h.node(key)
	return n, n != nil
}

func (h *Hash) node(key string) *Node {
	if h == nil || h.index == nil {
		return nil
	}
	i, ok := h.index[key]
	if !ok {
		return nil
	}
	return h.nodes[i]
}

func (h *Hash) appendNode(n *Node) *Node {
	if h.index == nil {
		h.index = make(map[string]int)
	}
	h.index[n.key] = len(h.nodes)
	h.nodes = append(h.nodes, n)
	return n
}

// put stores a normalized value under a top-level key. An existing node
// keeps its position and attributes.
func (h *Hash) put(key string, val any, typ types.Type) *Node {
	if n := h.node(key); n != nil {
		n.value, n.typ = val, typ
		return n
	}
	return h.appendNode(newNode(key, val, typ))
}

func (h *Hash) remove(key string) bool {
	if h.index == nil {
		return false
	}
	i, ok := h.index[key]
	if !ok {
		return false
	}
	h.nodes = append(h.nodes[:i], h.nodes[i+1:]...)
	delete(h.index, key)
	for j := i; j < len(h.nodes); j++ {
		h.index[h.nodes[j].key] = j
	}
	return true
}

// Clone returns a fully independent deep copy including attributes.
func (h *Hash) Clone() *Hash {
	if h == nil {
		return nil
	}
	c := &Hash{
		nodes: make([]*Node, len(h.nodes)),
	}
	if len(h.nodes) > 0 {
		c.index = make(map[string]int, len(h.nodes))
	}
	for i, n := range h.nodes {
		c.nodes[i] = n.clone()
		c.index[n.key] = i
	}
	return c
}

// ----------------------------------------------------------------------------
// path resolution

// location identifies either a node or an item of a VECTOR_HASH node.
type location struct {
	parent *Hash
	node   *Node
	index  int
}

func (l location) value() any {
	if l.index >= 0 {
		return l.node.value.([]*Hash)[l.index]
	}
	return l.node.value
}

func (l location) typ() types.Type {
	if l.index >= 0 {
		return types.Hash
	}
	return l.node.typ
}

func (h *Hash) resolve(path, sep string) (location, error) {
	segs, err := splitPath(path, sep)
	if err != nil {
		return location{}, err
	}
	cur := h
	for i, s := range segs {
		n := cur.node(s.key)
		if n == nil {
			return location{}, types.NewError(types.KindPathNotFound, path, fmt.Sprintf("key %q not found", s.key))
		}
		last := i == len(segs)-1
		if s.index >= 0 {
			vec, ok := n.value.([]*Hash)
			if !ok {
				return location{}, types.NewError(types.KindPathNotFound, path, fmt.Sprintf("%q is %s, not VECTOR_HASH", s.key, n.typ))
			}
			if s.index >= len(vec) {
				return location{}, types.NewError(types.KindPathNotFound, path, fmt.Sprintf("index %d out of range [0,%d)", s.index, len(vec)))
			}
			if last {
				return location{parent: cur, node: n, index: s.index}, nil
			}
			cur = vec[s.index]
			continue
		}
		if last {
			return location{parent: cur, node: n, index: -1}, nil
		}
		sub, ok := n.value.(*Hash)
		if !ok {
			return location{}, types.NewError(types.KindPathNotFound, path, fmt.Sprintf("%q is %s, not HASH", s.key, n.typ))
		}
		cur = sub
	}
	return location{}, types.NewError(types.KindPathNotFound, path, "empty path")
}

// descend returns the Hash addressed by s below h, creating or replacing
// intermediate entries.
func (h *Hash) descend(s segment) *Hash {
	n := h.node(s.key)
	if s.index >= 0 {
		if n == nil {
			n = h.appendNode(newNode(s.key, []*Hash{}, types.VectorHash))
		}
		vec, ok := n.value.([]*Hash)
		if !ok {
			vec = []*Hash{}
			n.typ = types.VectorHash
		}
		for len(vec) <= s.index {
			vec = append(vec, New())
		}
		n.value = vec
		return vec[s.index]
	}
	if n == nil {
		n = h.appendNode(newNode(s.key, New(), types.Hash))
	}
	sub, ok := n.value.(*Hash)
	if !ok {
		sub = New()
		n.value, n.typ = sub, types.Hash
	}
	return sub
}

// ----------------------------------------------------------------------------
// set

// Set stores v at path, creating intermediate Hashes. Re-assignment keeps
// the node position and its attributes.
func (h *Hash) Set(path string, v any) error {
	return h.SetSep(path, v, Separator)
}

func (h *Hash) SetSep(path string, v any, sep string) error {
	val, typ, err := normalize(v)
	if err != nil {
		return withPath(err, path)
	}
	return h.set(path, val, typ, sep, nil)
}

// SetAs stores v converted to kind t.
func (h *Hash) SetAs(path string, v any, t types.Type) error {
	val, err := Convert(v, t)
	if err != nil {
		return withPath(err, path)
	}
	return h.set(path, val, t, Separator, nil)
}

// SetNode stores a copy of n, including its attributes, at path.
func (h *Hash) SetNode(path string, n *Node) error {
	c := n.clone()
	return h.set(path, c.value, c.typ, Separator, c.attrs)
}

func (h *Hash) set(path string, val any, typ types.Type, sep string, attrs *Attributes) error {
	segs, err := splitPath(path, sep)
	if err != nil {
		return err
	}
	last := segs[len(segs)-1]
	var item *Hash
	if last.index >= 0 {
		var ok bool
		if item, ok = val.(*Hash); !ok {
			return types.NewError(types.KindTypeMismatch, path, fmt.Sprintf("VECTOR_HASH item must be HASH, not %s", typ))
		}
	}
	cur := h
	for _, s := range segs[:len(segs)-1] {
		cur = cur.descend(s)
	}
	if item != nil {
		n := cur.node(last.key)
		if n == nil || n.typ != types.VectorHash {
			cur.descend(segment{key: last.key, index: last.index})
			n = cur.node(last.key)
		}
		vec := n.value.([]*Hash)
		for len(vec) <= last.index {
			vec = append(vec, New())
		}
		vec[last.index] = item
		n.value = vec
		return nil
	}
	n := cur.put(last.key, val, typ)
	if attrs != nil {
		n.attrs = attrs
	}
	return nil
}

// ----------------------------------------------------------------------------
// get

// Get returns the value at path. Nested Hashes are returned as aliases.
func (h *Hash) Get(path string) (any, error) {
	return h.GetSep(path, Separator)
}

func (h *Hash) GetSep(path, sep string) (any, error) {
	loc, err := h.resolve(path, sep)
	if err != nil {
		return nil, err
	}
	return loc.value(), nil
}

// GetNode returns the node at path. Paths ending in an index address a
// VECTOR_HASH item which has no node of its own.
func (h *Hash) GetNode(path string) (*Node, error) {
	return h.GetNodeSep(path, Separator)
}

func (h *Hash) GetNodeSep(path, sep string) (*Node, error) {
	loc, err := h.resolve(path, sep)
	if err != nil {
		return nil, err
	}
	if loc.index >= 0 {
		return nil, types.NewError(types.KindPathNotFound, path, "path addresses a VECTOR_HASH item, not a node")
	}
	return loc.node, nil
}

// GetType returns the value kind at path.
func (h *Hash) GetType(path string) (types.Type, error) {
	loc, err := h.resolve(path, Separator)
	if err != nil {
		return types.Unknown, err
	}
	return loc.typ(), nil
}

// GetAs returns the value at path converted to kind t.
func (h *Hash) GetAs(path string, t types.Type) (any, error) {
	loc, err := h.resolve(path, Separator)
	if err != nil {
		return nil, err
	}
	if loc.typ() == t {
		return loc.value(), nil
	}
	v, err := Convert(loc.value(), t)
	if err != nil {
		return nil, withPath(err, path)
	}
	return v, nil
}

// GetHash returns the sub-Hash at path.
func (h *Hash) GetHash(path string) (*Hash, error) {
	return GetValue[*Hash](h, path)
}

// GetValue returns the value at path as native type T. It fails with a
// type-mismatch error when the stored value has a different type.
func GetValue[T any](h *Hash, path string) (T, error) {
	var zero T
	loc, err := h.resolve(path, Separator)
	if err != nil {
		return zero, err
	}
	v, ok := loc.value().(T)
	if !ok {
		return zero, typeMismatch(path, loc.typ(), fmt.Sprintf("%T", zero))
	}
	return v, nil
}

// GetAttributeValue returns attribute key at path as native type T.
func GetAttributeValue[T any](h *Hash, path, key string) (T, error) {
	var zero T
	a, err := h.Attributes(path)
	if err != nil {
		return zero, err
	}
	attr, ok := a.Lookup(key)
	if !ok {
		return zero, types.NewError(types.KindAttributeNotFound, path+"@"+key, "attribute not found")
	}
	v, ok := attr.value.(T)
	if !ok {
		return zero, typeMismatch(path+"@"+key, attr.typ, fmt.Sprintf("%T", zero))
	}
	return v, nil
}

func (h *Hash) Has(path string) bool {
	return h.HasSep(path, Separator)
}

func (h *Hash) HasSep(path, sep string) bool {
	_, err := h.resolve(path, sep)
	return err == nil
}

// ----------------------------------------------------------------------------
// erase

// Erase removes the node or VECTOR_HASH item at path and reports whether
// something was removed. Empty parents are kept.
func (h *Hash) Erase(path string) bool {
	return h.EraseSep(path, Separator)
}

func (h *Hash) EraseSep(path, sep string) bool {
	loc, err := h.resolve(path, sep)
	if err != nil {
		return false
	}
	if loc.index >= 0 {
		vec := loc.node.value.([]*Hash)
		loc.node.value = append(vec[:loc.index], vec[loc.index+1:]...)
		return true
	}
	return loc.parent.remove(loc.node.key)
}

// ErasePath removes the entry at path and then every parent Hash that
// became empty as a result.
func (h *Hash) ErasePath(path string) bool {
	return h.ErasePathSep(path, Separator)
}

func (h *Hash) ErasePathSep(path, sep string) bool {
	segs, err := splitPath(path, sep)
	if err != nil {
		return false
	}
	if !h.EraseSep(path, sep) {
		return false
	}
	for k := len(segs) - 1; k > 0; k-- {
		parent := segs[:k]
		if parent[len(parent)-1].index >= 0 {
			break
		}
		p := joinSegments(parent, sep)
		sub, err := h.GetSep(p, sep)
		if err != nil {
			break
		}
		if sh, ok := sub.(*Hash); !ok || !sh.Empty() {
			break
		}
		h.EraseSep(p, sep)
	}
	return true
}

// ----------------------------------------------------------------------------
// paths

// Paths returns all leaf paths in depth-first insertion order. Empty Hashes
// and VECTOR_HASH values count as leaves.
func (h *Hash) Paths() []string {
	return h.PathsSep(Separator)
}

func (h *Hash) PathsSep(sep string) []string {
	paths := make([]string, 0, len(h.nodes))
	return h.paths("", sep, false, paths)
}

// DeepPaths is like Paths but also descends into VECTOR_HASH items using
// `key[n]` segments.
func (h *Hash) DeepPaths() []string {
	paths := make([]string, 0, len(h.nodes))
	return h.paths("", Separator, true, paths)
}

func (h *Hash) paths(prefix, sep string, deep bool, paths []string) []string {
	for _, n := range h.nodes {
		p := joinPath(prefix, n.key, sep)
		switch v := n.value.(type) {
		case *Hash:
			if v.Empty() {
				paths = append(paths, p)
			} else {
				paths = v.paths(p, sep, deep, paths)
			}
		case []*Hash:
			if !deep || len(v) == 0 {
				paths = append(paths, p)
				continue
			}
			for i, item := range v {
				ip := fmt.Sprintf("%s[%d]", p, i)
				if item.Empty() {
					paths = append(paths, ip)
				} else {
					paths = item.paths(ip, sep, deep, paths)
				}
			}
		default:
			paths = append(paths, p)
		}
	}
	return paths
}

// ----------------------------------------------------------------------------
// attributes

// Attributes returns the attribute map of the node at path.
func (h *Hash) Attributes(path string) (*Attributes, error) {
	n, err := h.GetNode(path)
	if err != nil {
		return nil, err
	}
	return n.attrs, nil
}

// SetAttribute stores attribute key on the existing node at path.
func (h *Hash) SetAttribute(path, key string, v any) error {
	n, err := h.GetNode(path)
	if err != nil {
		return err
	}
	if err := n.attrs.Set(key, v); err != nil {
		return withPath(err, path+"@"+key)
	}
	return nil
}

// SetAttributeAs stores attribute key converted to kind t.
func (h *Hash) SetAttributeAs(path, key string, v any, t types.Type) error {
	n, err := h.GetNode(path)
	if err != nil {
		return err
	}
	return n.attrs.SetAs(key, v, t)
}

// SetAttributes replaces all attributes at path with a copy of attrs.
func (h *Hash) SetAttributes(path string, attrs *Attributes) error {
	n, err := h.GetNode(path)
	if err != nil {
		return err
	}
	n.attrs = attrs.Clone()
	return nil
}

// GetAttribute fails with path-not-found when path is missing and with
// attribute-not-found when the node exists without the attribute.
func (h *Hash) GetAttribute(path, key string) (any, error) {
	a, err := h.Attributes(path)
	if err != nil {
		return nil, err
	}
	v, err := a.Get(key)
	if err != nil {
		return nil, types.NewError(types.KindAttributeNotFound, path+"@"+key, "attribute not found")
	}
	return v, nil
}

func (h *Hash) GetAttributeAs(path, key string, t types.Type) (any, error) {
	a, err := h.Attributes(path)
	if err != nil {
		return nil, err
	}
	attr, ok := a.Lookup(key)
	if !ok {
		return nil, types.NewError(types.KindAttributeNotFound, path+"@"+key, "attribute not found")
	}
	v, err := attr.GetAs(t)
	if err != nil {
		return nil, withPath(err, path+"@"+key)
	}
	return v, nil
}

func (h *Hash) HasAttribute(path, key string) bool {
	a, err := h.Attributes(path)
	if err != nil {
		return false
	}
	return a.Has(key)
}

func (h *Hash) EraseAttribute(path, key string) bool {
	a, err := h.Attributes(path)
	if err != nil {
		return false
	}
	return a.Delete(key)
}
