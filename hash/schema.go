// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"bytes"
	"strings"

	"github.com/European-XFEL/Karabo-sub007/types"
)

// Schema is a named Hash of descriptors. It is the value carried by nodes
// of kind SCHEMA; package schema builds and interprets its content.
type Schema struct {
	Name string
	Hash *Hash
}

func NewSchema(name string) *Schema {
	return &Schema{
		Name: name,
		Hash: New(),
	}
}

func (s *Schema) KaraboType() types.Type {
	return types.Schema
}

func (s *Schema) Clone() *Schema {
	return &Schema{
		Name: s.Name,
		Hash: s.Hash.Clone(),
	}
}

// Equal compares the name and the descriptor Hash, ignoring key order.
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Name == o.Name && s.Hash.FullyEqual(o.Hash, false)
}

// MarshalText renders the text form `name:<xml>`.
func (s *Schema) MarshalText() ([]byte, error) {
	buf, err := s.Hash.EncodeXML(CompactXML)
	if err != nil {
		return nil, err
	}
	return append([]byte(s.Name+":"), buf...), nil
}

func (s *Schema) UnmarshalText(data []byte) error {
	name, doc, ok := strings.Cut(string(data), ":")
	if !ok {
		return types.NewError(types.KindCodecMalformedXML, "", "schema text lacks name separator")
	}
	h := New()
	if err := h.DecodeXML([]byte(doc)); err != nil {
		return err
	}
	s.Name, s.Hash = name, h
	return nil
}

func (s *Schema) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := s.EncodeBuffer(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Schema) EncodeBuffer(buf *bytes.Buffer) error {
	return encodeSchema(buf, s, "")
}

func (s *Schema) UnmarshalBinary(data []byte) error {
	buf := bytes.NewBuffer(data)
	if err := s.DecodeBuffer(buf); err != nil {
		return err
	}
	if buf.Len() > 0 {
		return trailingBytes(buf.Len())
	}
	return nil
}

func (s *Schema) DecodeBuffer(buf *bytes.Buffer) error {
	x, err := decodeSchema(buf, "")
	if err != nil {
		return err
	}
	*s = *x
	return nil
}
