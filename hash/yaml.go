// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/European-XFEL/Karabo-sub007/types"
)

// FromYAML builds a Hash from a YAML mapping document preserving key order.
// Scalars follow the YAML core schema tags; sequences of mappings become
// VECTOR_HASH.
func FromYAML(data []byte) (*Hash, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, types.WrapError(types.KindCodecMalformed, "", "invalid YAML document", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return New(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, types.NewError(types.KindCodecMalformed, "", "YAML document is not a mapping")
	}
	return fromYAMLMapping(root, "")
}

func fromYAMLMapping(node *yaml.Node, path string) (*Hash, error) {
	h := New()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		p := joinPath(path, key, Separator)
		v, err := fromYAMLValue(node.Content[i+1], p)
		if err != nil {
			return nil, err
		}
		nv, typ, err := normalize(v)
		if err != nil {
			return nil, withPath(err, p)
		}
		h.put(key, nv, typ)
	}
	return h, nil
}

func fromYAMLValue(node *yaml.Node, path string) (any, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return fromYAMLValue(node.Alias, path)
	case yaml.MappingNode:
		return fromYAMLMapping(node, path)
	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			return []string{}, nil
		}
		if node.Content[0].Kind == yaml.MappingNode {
			list := make([]*Hash, len(node.Content))
			for i, item := range node.Content {
				if item.Kind != yaml.MappingNode {
					return nil, types.NewError(types.KindTypeMismatch, path, "mixed mappings and values in sequence")
				}
				sub, err := fromYAMLMapping(item, fmt.Sprintf("%s[%d]", path, i))
				if err != nil {
					return nil, err
				}
				list[i] = sub
			}
			return list, nil
		}
		list := make([]any, len(node.Content))
		float := false
		for i, item := range node.Content {
			v, err := fromYAMLValue(item, path)
			if err != nil {
				return nil, err
			}
			if _, ok := v.(float64); ok {
				float = true
			}
			list[i] = v
		}
		if float {
			for i, v := range list {
				if f, err := types.Convert(v, types.Double); err == nil {
					list[i] = f
				}
			}
		}
		return list, nil
	case yaml.ScalarNode:
		return fromYAMLScalar(node, path)
	}
	return nil, types.NewError(types.KindCodecMalformed, path, "unsupported YAML node")
}

func fromYAMLScalar(node *yaml.Node, path string) (any, error) {
	var err error
	switch node.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err = node.Decode(&b); err == nil {
			return b, nil
		}
	case "!!int":
		var i int64
		if err = node.Decode(&i); err == nil {
			if i >= math.MinInt32 && i <= math.MaxInt32 {
				return int32(i), nil
			}
			return i, nil
		}
		var u uint64
		if err = node.Decode(&u); err == nil {
			return u, nil
		}
	case "!!float":
		var f float64
		if err = node.Decode(&f); err == nil {
			return f, nil
		}
	case "!!binary":
		var b []byte
		if err = node.Decode(&b); err == nil {
			return b, nil
		}
	default:
		return node.Value, nil
	}
	return nil, types.WrapError(types.KindConversionFailed, path, fmt.Sprintf("cannot decode %s scalar", node.ShortTag()), err)
}

// MarshalYAML implements yaml.Marshaler with an ordered mapping.
func (h *Hash) MarshalYAML() (any, error) {
	return h.yamlNode()
}

func (h *Hash) yamlNode() (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, n := range h.nodes {
		k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.key}
		v, err := yamlValue(n.value)
		if err != nil {
			return nil, withPath(err, n.key)
		}
		m.Content = append(m.Content, k, v)
	}
	return m, nil
}

func yamlValue(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case *Hash:
		return x.yamlNode()
	case []*Hash:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range x {
			n, err := item.yamlNode()
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	case *Schema:
		n, err := x.Hash.yamlNode()
		if err != nil {
			return nil, err
		}
		return &yaml.Node{
			Kind: yaml.MappingNode,
			Tag:  "!!map",
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: x.Name},
				n,
			},
		}, nil
	case types.Character, []types.Character, complex64, complex128, []complex64, []complex128:
		s, err := types.Format(v)
		if err != nil {
			return nil, err
		}
		v = s
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, types.WrapError(types.KindCodecMalformed, "", "cannot encode YAML value", err)
	}
	return n, nil
}
