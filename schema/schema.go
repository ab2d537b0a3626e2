// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

// Package schema describes the shape of valid configurations. A Schema is a
// named Hash whose nodes carry descriptor attributes; builders populate it,
// the Validator checks candidate Hashes against it.
package schema

import (
	"fmt"
	"strings"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/state"
	"github.com/European-XFEL/Karabo-sub007/types"
)

type Schema struct {
	name string
	h    *hash.Hash
}

func New(name string) *Schema {
	return &Schema{
		name: name,
		h:    hash.New(),
	}
}

// FromHash wraps a SCHEMA value. The descriptor Hash is shared.
func FromHash(s *hash.Schema) *Schema {
	if s == nil {
		return New("")
	}
	h := s.Hash
	if h == nil {
		h = hash.New()
	}
	return &Schema{name: s.Name, h: h}
}

// ToHash returns the SCHEMA value sharing the descriptor Hash.
func (s *Schema) ToHash() *hash.Schema {
	return &hash.Schema{Name: s.name, Hash: s.h}
}

func (s *Schema) Name() string {
	return s.name
}

func (s *Schema) SetName(name string) {
	s.name = name
}

// Hash returns the descriptor Hash.
func (s *Schema) Hash() *hash.Hash {
	return s.h
}

func (s *Schema) Clone() *Schema {
	return &Schema{name: s.name, h: s.h.Clone()}
}

func (s *Schema) Empty() bool {
	return s.h.Empty()
}

func (s *Schema) Equal(o *Schema) bool {
	return s.ToHash().Equal(o.ToHash())
}

func (s *Schema) String() string {
	return "Schema for: " + s.name + "\n" + s.h.String()
}

func (s *Schema) MarshalBinary() ([]byte, error) {
	return s.ToHash().MarshalBinary()
}

func (s *Schema) UnmarshalBinary(data []byte) error {
	x := hash.NewSchema("")
	if err := x.UnmarshalBinary(data); err != nil {
		return err
	}
	s.name, s.h = x.Name, x.Hash
	return nil
}

func (s *Schema) MarshalText() ([]byte, error) {
	return s.ToHash().MarshalText()
}

func (s *Schema) UnmarshalText(data []byte) error {
	x := hash.NewSchema("")
	if err := x.UnmarshalText(data); err != nil {
		return err
	}
	s.name, s.h = x.Name, x.Hash
	return nil
}

// ----------------------------------------------------------------------------
// structure

func (s *Schema) Has(path string) bool {
	return s.h.Has(path)
}

func (s *Schema) node(path string) (*hash.Node, error) {
	n, err := s.h.GetNode(path)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Keys lists the direct children of path, or the top level for an empty
// path.
func (s *Schema) Keys(path string) ([]string, error) {
	if path == "" {
		return s.h.Keys(), nil
	}
	sub, err := s.h.GetHash(path)
	if err != nil {
		return nil, err
	}
	return sub.Keys(), nil
}

// Paths lists every descriptor that carries a value, i.e. leaves, in
// schema order. Options of choices and lists are walked like nodes.
func (s *Schema) Paths() []string {
	var paths []string
	s.h.Walk(func(path string, _ int, n *hash.Node) bool {
		if nodeTypeOf(n) == NodeLeaf {
			paths = append(paths, path)
		}
		return true
	})
	return paths
}

func nodeTypeOf(n *hash.Node) NodeType {
	v, err := n.Attributes().GetAs(AttrNodeType, types.Int32)
	if err != nil {
		if n.IsHash() {
			return NodeNode
		}
		return NodeLeaf
	}
	return NodeType(v.(int32))
}

func (s *Schema) NodeType(path string) (NodeType, error) {
	n, err := s.node(path)
	if err != nil {
		return 0, err
	}
	return nodeTypeOf(n), nil
}

func (s *Schema) IsLeaf(path string) bool {
	t, err := s.NodeType(path)
	return err == nil && t == NodeLeaf
}

func (s *Schema) IsNode(path string) bool {
	t, err := s.NodeType(path)
	return err == nil && t == NodeNode
}

func (s *Schema) IsChoiceOfNodes(path string) bool {
	t, err := s.NodeType(path)
	return err == nil && t == NodeChoiceOfNodes
}

func (s *Schema) IsListOfNodes(path string) bool {
	t, err := s.NodeType(path)
	return err == nil && t == NodeListOfNodes
}

// IsCommand reports whether path is a slot.
func (s *Schema) IsCommand(path string) bool {
	return s.IsNode(path) && s.classID(path) == ClassSlot
}

func (s *Schema) IsProperty(path string) bool {
	lt, err := s.LeafType(path)
	return err == nil && s.IsLeaf(path) && lt != LeafCommand
}

func (s *Schema) IsNDArray(path string) bool {
	return s.IsNode(path) && s.classID(path) == ClassNDArray
}

func (s *Schema) IsImage(path string) bool {
	return s.IsNode(path) && s.classID(path) == ClassImageData
}

func (s *Schema) IsTable(path string) bool {
	return s.IsLeaf(path) && s.h.HasAttribute(path, AttrRowSchema)
}

func (s *Schema) IsOutputChannelSchema(path string) bool {
	v, _ := s.DisplayType(path)
	return v == DisplayOutputSchema
}

func (s *Schema) classID(path string) string {
	v, _ := hash.GetAttributeValue[string](s.h, path, AttrClassID)
	return v
}

// ----------------------------------------------------------------------------
// attribute access

// Attribute returns the raw descriptor attribute key at path.
func (s *Schema) Attribute(path, key string) (any, error) {
	return s.h.GetAttribute(path, key)
}

func (s *Schema) HasAttribute(path, key string) bool {
	return s.h.HasAttribute(path, key)
}

func (s *Schema) stringAttr(path, key string) (string, error) {
	v, err := s.h.GetAttributeAs(path, key, types.String)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Schema) int32Attr(path, key string) (int32, error) {
	v, err := s.h.GetAttributeAs(path, key, types.Int32)
	if err != nil {
		return 0, err
	}
	return v.(int32), nil
}

func (s *Schema) stringsAttr(path, key string) ([]string, error) {
	v, err := s.h.GetAttributeAs(path, key, types.VectorString)
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// ValueType is the declared kind of a leaf.
func (s *Schema) ValueType(path string) (types.Type, error) {
	name, err := s.stringAttr(path, AttrValueType)
	if err != nil {
		return types.Unknown, err
	}
	t, err := types.ParseType(name)
	if err != nil {
		return types.Unknown, types.WrapError(types.KindDescriptorInvalid, path, "invalid value type", err)
	}
	return t, nil
}

func (s *Schema) LeafType(path string) (LeafType, error) {
	v, err := s.int32Attr(path, AttrLeafType)
	return LeafType(v), err
}

func (s *Schema) DisplayedName(path string) (string, error) {
	return s.stringAttr(path, AttrDisplayedName)
}

func (s *Schema) Description(path string) (string, error) {
	return s.stringAttr(path, AttrDescription)
}

func (s *Schema) DisplayType(path string) (string, error) {
	return s.stringAttr(path, AttrDisplayType)
}

func (s *Schema) ClassID(path string) (string, error) {
	return s.stringAttr(path, AttrClassID)
}

func (s *Schema) Alias(path string) (any, error) {
	return s.h.GetAttribute(path, AttrAlias)
}

// AliasPath returns the first path whose alias equals v.
func (s *Schema) AliasPath(v any) (string, bool) {
	var found string
	s.h.Walk(func(path string, _ int, n *hash.Node) bool {
		if found != "" {
			return false
		}
		if a, err := n.Attributes().Get(AttrAlias); err == nil && fmt.Sprint(a) == fmt.Sprint(v) {
			found = path
			return false
		}
		return true
	})
	return found, found != ""
}

func (s *Schema) Tags(path string) ([]string, error) {
	return s.stringsAttr(path, AttrTags)
}

func (s *Schema) AccessMode(path string) (AccessMode, error) {
	v, err := s.int32Attr(path, AttrAccessMode)
	return AccessMode(v), err
}

func (s *Schema) Assignment(path string) (Assignment, error) {
	v, err := s.int32Attr(path, AttrAssignment)
	return Assignment(v), err
}

func (s *Schema) IsMandatory(path string) bool {
	a, err := s.Assignment(path)
	return err == nil && a == AssignmentMandatory
}

func (s *Schema) RequiredAccessLevel(path string) (AccessLevel, error) {
	v, err := s.int32Attr(path, AttrRequiredAccessLevel)
	return AccessLevel(v), err
}

func (s *Schema) HasDefaultValue(path string) bool {
	return s.h.HasAttribute(path, AttrDefaultValue)
}

func (s *Schema) DefaultValue(path string) (any, error) {
	return s.h.GetAttribute(path, AttrDefaultValue)
}

// Options returns the permitted values as a vector of the leaf kind.
func (s *Schema) Options(path string) (any, error) {
	return s.h.GetAttribute(path, AttrOptions)
}

func (s *Schema) MinInc(path string) (any, error) {
	return s.h.GetAttribute(path, AttrMinInc)
}

func (s *Schema) MaxInc(path string) (any, error) {
	return s.h.GetAttribute(path, AttrMaxInc)
}

func (s *Schema) MinExc(path string) (any, error) {
	return s.h.GetAttribute(path, AttrMinExc)
}

func (s *Schema) MaxExc(path string) (any, error) {
	return s.h.GetAttribute(path, AttrMaxExc)
}

func (s *Schema) MinSize(path string) (uint32, error) {
	v, err := s.h.GetAttributeAs(path, AttrMinSize, types.UInt32)
	if err != nil {
		return 0, err
	}
	return v.(uint32), nil
}

func (s *Schema) MaxSize(path string) (uint32, error) {
	v, err := s.h.GetAttributeAs(path, AttrMaxSize, types.UInt32)
	if err != nil {
		return 0, err
	}
	return v.(uint32), nil
}

func (s *Schema) AbsoluteError(path string) (float64, error) {
	v, err := s.h.GetAttributeAs(path, AttrAbsoluteError, types.Double)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (s *Schema) RelativeError(path string) (float64, error) {
	v, err := s.h.GetAttributeAs(path, AttrRelativeError, types.Double)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (s *Schema) Regex(path string) (string, error) {
	return s.stringAttr(path, AttrRegex)
}

func (s *Schema) Unit(path string) (Unit, error) {
	v, err := s.int32Attr(path, AttrUnitEnum)
	return Unit(v), err
}

func (s *Schema) UnitSymbol(path string) (string, error) {
	return s.stringAttr(path, AttrUnitSymbol)
}

func (s *Schema) MetricPrefix(path string) (MetricPrefix, error) {
	v, err := s.int32Attr(path, AttrMetricPrefixEnum)
	return MetricPrefix(v), err
}

func (s *Schema) MetricPrefixSymbol(path string) (string, error) {
	return s.stringAttr(path, AttrMetricPrefixSymbol)
}

func (s *Schema) AllowedStates(path string) ([]state.State, error) {
	list, err := s.stringsAttr(path, AttrAllowedStates)
	if err != nil {
		return nil, err
	}
	res := make([]state.State, 0, len(list))
	for _, v := range list {
		st, err := state.FromString(v)
		if err != nil {
			return nil, types.WrapError(types.KindDescriptorInvalid, path, "invalid allowed state", err)
		}
		res = append(res, st)
	}
	return res, nil
}

// Limit returns one of the warn/alarm thresholds like AttrWarnLow.
func (s *Schema) Limit(path, key string) (any, error) {
	return s.h.GetAttribute(path, key)
}

func (s *Schema) ArchivePolicy(path string) (ArchivePolicy, error) {
	v, err := s.int32Attr(path, AttrArchivePolicy)
	return ArchivePolicy(v), err
}

func (s *Schema) DaqPolicy(path string) (DaqPolicy, error) {
	v, err := s.int32Attr(path, AttrDaqPolicy)
	return DaqPolicy(v), err
}

func (s *Schema) DaqDataType(path string) (DaqDataType, error) {
	v, err := s.int32Attr(path, AttrDaqDataType)
	return DaqDataType(v), err
}

func (s *Schema) AllowedActions(path string) ([]string, error) {
	return s.stringsAttr(path, AttrAllowedActions)
}

// RowSchema returns the row description of a table.
func (s *Schema) RowSchema(path string) (*Schema, error) {
	v, err := s.h.GetAttribute(path, AttrRowSchema)
	if err != nil {
		return nil, err
	}
	rs, ok := v.(*hash.Schema)
	if !ok {
		return nil, types.NewError(types.KindTypeMismatch, path, "row schema is not of kind SCHEMA")
	}
	return FromHash(rs), nil
}

// ----------------------------------------------------------------------------
// helpers

func parentPath(path string) (string, string) {
	if i := strings.LastIndex(path, hash.Separator); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + hash.Separator + key
}
