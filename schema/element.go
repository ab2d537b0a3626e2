// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"fmt"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/state"
	"github.com/European-XFEL/Karabo-sub007/types"
)

// descriptor collects the attributes of an element under construction. The
// first error sticks and is returned from commit.
type descriptor struct {
	s     *Schema
	key   string
	attrs *hash.Attributes
	err   error
}

func newDescriptor(s *Schema, nt NodeType) descriptor {
	d := descriptor{
		s:     s,
		attrs: hash.NewAttributes(),
	}
	d.set(AttrNodeType, int32(nt))
	return d
}

func (d *descriptor) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *descriptor) failf(kind types.ErrorKind, format string, args ...any) {
	d.fail(types.NewError(kind, d.key, fmt.Sprintf(format, args...)))
}

func (d *descriptor) set(key string, v any) {
	if err := d.attrs.Set(key, v); err != nil {
		d.fail(types.WrapError(types.KindDescriptorInvalid, d.key, "invalid attribute "+key, err))
	}
}

func (d *descriptor) setAs(key string, v any, t types.Type) {
	if err := d.attrs.SetAs(key, v, t); err != nil {
		d.fail(types.WrapError(types.KindDescriptorInvalid, d.key, fmt.Sprintf("attribute %s does not fit %s", key, t), err))
	}
}

// plain maps state vocabulary onto the strings stored in descriptors.
func plain(v any) any {
	switch x := v.(type) {
	case state.State:
		return string(x)
	case state.AlarmCondition:
		return string(x)
	}
	return v
}

func (d *descriptor) setKey(key string) {
	if key == "" {
		d.failf(types.KindDescriptorInvalid, "empty key")
		return
	}
	d.key = key
}

func (d *descriptor) setTags(tags []string) {
	d.setAs(AttrTags, tags, types.VectorString)
}

func (d *descriptor) setStates(list []state.State) {
	names := make([]string, len(list))
	for i, v := range list {
		if !v.IsValid() {
			d.failf(types.KindDescriptorInvalid, "invalid allowed state %q", v)
			return
		}
		names[i] = string(v)
	}
	d.setAs(AttrAllowedStates, names, types.VectorString)
}

// install stores the descriptor at its key below an existing parent node.
func (d *descriptor) install(value any) error {
	if d.err != nil {
		return d.err
	}
	if d.key == "" {
		return types.NewError(types.KindDescriptorInvalid, "", "element has no key")
	}
	if parent, _ := parentPath(d.key); parent != "" {
		n, err := d.s.h.GetNode(parent)
		if err != nil {
			return types.WrapError(types.KindDescriptorInvalid, d.key, "parent node does not exist", err)
		}
		if !n.IsHash() {
			return types.NewError(types.KindDescriptorInvalid, d.key, "parent is a leaf")
		}
	}
	if err := d.s.h.Set(d.key, value); err != nil {
		return err
	}
	n, _ := d.s.h.GetNode(d.key)
	n.Attributes().Clear()
	n.Attributes().Merge(d.attrs)
	log.Tracef("schema %s: added %s", d.s.name, d.key)
	return nil
}
