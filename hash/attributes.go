// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"github.com/European-XFEL/Karabo-sub007/types"
)

// Attribute is a typed value attached to a Hash node.
type Attribute struct {
	key   string
	typ   types.Type
	value any
}

func (a *Attribute) Key() string {
	return a.key
}

func (a *Attribute) Type() types.Type {
	return a.typ
}

func (a *Attribute) Value() any {
	return a.value
}

// GetAs returns the attribute value converted to kind t.
func (a *Attribute) GetAs(t types.Type) (any, error) {
	if t == a.typ {
		return a.value, nil
	}
	return Convert(a.value, t)
}

// Attributes is an insertion ordered map of typed attribute values. The zero
// value is ready for use.
type Attributes struct {
	index map[string]int
	list  []*Attribute
}

func NewAttributes() *Attributes {
	return &Attributes{}
}

func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.list)
}

// Set stores v under key, inferring the value kind. An existing key keeps
// its position.
func (a *Attributes) Set(key string, v any) error {
	val, typ, err := normalize(v)
	if err != nil {
		return withPath(err, "@"+key)
	}
	a.put(key, val, typ)
	return nil
}

// SetAs stores v converted to kind t.
func (a *Attributes) SetAs(key string, v any, t types.Type) error {
	val, err := Convert(v, t)
	if err != nil {
		return withPath(err, "@"+key)
	}
	a.put(key, val, t)
	return nil
}

func (a *Attributes) put(key string, val any, typ types.Type) {
	if a.index == nil {
		a.index = make(map[string]int)
	}
	if i, ok := a.index[key]; ok {
		a.list[i].value = val
		a.list[i].typ = typ
		return
	}
	a.index[key] = len(a.list)
	a.list = append(a.list, &Attribute{key: key, typ: typ, value: val})
}

// Lookup returns the attribute stored under key.
func (a *Attributes) Lookup(key string) (*Attribute, bool) {
	if a == nil || a.index == nil {
		return nil, false
	}
	i, ok := a.index[key]
	if !ok {
		return nil, false
	}
	return a.list[i], true
}

func (a *Attributes) Has(key string) bool {
	_, ok := a.Lookup(key)
	return ok
}

func (a *Attributes) Get(key string) (any, error) {
	attr, ok := a.Lookup(key)
	if !ok {
		return nil, types.NewError(types.KindAttributeNotFound, "@"+key, "attribute not found")
	}
	return attr.value, nil
}

func (a *Attributes) GetAs(key string, t types.Type) (any, error) {
	attr, ok := a.Lookup(key)
	if !ok {
		return nil, types.NewError(types.KindAttributeNotFound, "@"+key, "attribute not found")
	}
	v, err := attr.GetAs(t)
	if err != nil {
		return nil, withPath(err, "@"+key)
	}
	return v, nil
}

func (a *Attributes) Type(key string) (types.Type, bool) {
	attr, ok := a.Lookup(key)
	if !ok {
		return types.Unknown, false
	}
	return attr.typ, true
}

// Delete removes key and reports whether it was present.
func (a *Attributes) Delete(key string) bool {
	if a == nil || a.index == nil {
		return false
	}
	i, ok := a.index[key]
	if !ok {
		return false
	}
	a.list = append(a.list[:i], a.list[i+1:]...)
	delete(a.index, key)
	for j := i; j < len(a.list); j++ {
		a.index[a.list[j].key] = j
	}
	return true
}

func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	keys := make([]string, len(a.list))
	for i, v := range a.list {
		keys[i] = v.key
	}
	return keys
}

// List returns the attributes in insertion order.
func (a *Attributes) List() []*Attribute {
	if a == nil {
		return nil
	}
	return append([]*Attribute{}, a.list...)
}

func (a *Attributes) Clear() {
	a.index = nil
	a.list = nil
}

// Clone returns a deep copy.
func (a *Attributes) Clone() *Attributes {
	c := &Attributes{}
	if a == nil {
		return c
	}
	for _, v := range a.list {
		c.put(v.key, cloneValue(v.value), v.typ)
	}
	return c
}

// Merge copies every attribute of b into a, replacing existing keys.
func (a *Attributes) Merge(b *Attributes) {
	if b == nil {
		return
	}
	for _, v := range b.list {
		a.put(v.key, cloneValue(v.value), v.typ)
	}
}

// Equal compares kinds and values of all attributes.
func (a *Attributes) Equal(b *Attributes, orderMatters bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a.Len() == 0 {
		return true
	}
	for i, x := range a.list {
		var y *Attribute
		if orderMatters {
			y = b.list[i]
			if y.key != x.key {
				return false
			}
		} else {
			var ok bool
			if y, ok = b.Lookup(x.key); !ok {
				return false
			}
		}
		if x.typ != y.typ || !valuesEqual(x.value, y.value, orderMatters) {
			return false
		}
	}
	return true
}
