// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"fmt"

	"github.com/European-XFEL/Karabo-sub007/types"
)

// Convert extends types.Convert to composite kinds. HASH, VECTOR_HASH and
// SCHEMA only convert to and from STRING using the XML text form.
func Convert(v any, to types.Type) (any, error) {
	switch x := v.(type) {
	case *Hash:
		switch to {
		case types.Hash:
			return x, nil
		case types.String:
			buf, err := x.EncodeXML(CompactXML)
			if err != nil {
				return nil, err
			}
			return string(buf), nil
		}
		return nil, compositeError(types.Hash, to)
	case []*Hash:
		switch to {
		case types.VectorHash:
			return x, nil
		case types.String:
			buf, err := EncodeXMLSequence(x, CompactXML)
			if err != nil {
				return nil, err
			}
			return string(buf), nil
		}
		return nil, compositeError(types.VectorHash, to)
	case *Schema:
		switch to {
		case types.Schema:
			return x, nil
		case types.String:
			buf, err := x.MarshalText()
			if err != nil {
				return nil, err
			}
			return string(buf), nil
		}
		return nil, compositeError(types.Schema, to)
	case string:
		switch to {
		case types.Hash:
			h := New()
			if err := h.DecodeXML([]byte(x)); err != nil {
				return nil, err
			}
			return h, nil
		case types.VectorHash:
			return DecodeXMLSequence([]byte(x))
		case types.Schema:
			s := NewSchema("")
			if err := s.UnmarshalText([]byte(x)); err != nil {
				return nil, err
			}
			return s, nil
		}
	}
	return types.Convert(v, to)
}

func compositeError(from, to types.Type) error {
	return types.NewError(types.KindConversionFailed, "", fmt.Sprintf("cannot convert %s to %s", from, to))
}
