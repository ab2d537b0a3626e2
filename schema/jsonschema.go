// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qri-io/jsonschema"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/types"
)

const jsonSchemaDraft = "http://json-schema.org/draft-07/schema#"

// JSONSchema exports s as a JSON-Schema document describing canonical
// configurations in their JSON form.
func (s *Schema) JSONSchema() ([]byte, error) {
	doc := s.jsonObject(s.h)
	doc["$schema"] = jsonSchemaDraft
	if s.name != "" {
		doc["title"] = s.name
	}
	return json.Marshal(doc)
}

// ValidateJSON checks a JSON configuration against the exported JSON-Schema.
func (s *Schema) ValidateJSON(data []byte) error {
	buf, err := s.JSONSchema()
	if err != nil {
		return err
	}
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(buf, rs); err != nil {
		return types.WrapError(types.KindDescriptorInvalid, "", "cannot load JSON schema", err)
	}
	errs, err := rs.ValidateBytes(context.Background(), data)
	if err != nil {
		return types.WrapError(types.KindCodecMalformed, "", "cannot read JSON input", err)
	}
	if len(errs) == 0 {
		return nil
	}
	verr := &ValidationError{}
	for _, e := range errs {
		verr.Issues = append(verr.Issues, types.NewError(jsonErrorKind(e.Message), jsonPath(e.PropertyPath), e.Message))
	}
	return verr
}

func jsonErrorKind(msg string) types.ErrorKind {
	switch {
	case strings.Contains(msg, "required"):
		return types.KindMissingMandatory
	case strings.Contains(msg, "additional"):
		return types.KindUnknownKey
	case strings.Contains(msg, "pattern"):
		return types.KindRegexViolation
	case strings.Contains(msg, "must be one of"):
		return types.KindOptionViolation
	case strings.Contains(msg, "items"):
		return types.KindSizeViolation
	case strings.Contains(msg, "must be less") || strings.Contains(msg, "must be greater"):
		return types.KindRangeViolation
	default:
		return types.KindTypeMismatch
	}
}

// jsonPath turns a JSON pointer like /a/b/0 into a Hash path.
func jsonPath(p string) string {
	p = strings.TrimPrefix(p, "/")
	return strings.ReplaceAll(p, "/", hash.Separator)
}

func (s *Schema) jsonObject(h *hash.Hash) map[string]any {
	props := make(map[string]any)
	var required []string
	for _, n := range h.Nodes() {
		var prop map[string]any
		switch nodeTypeOf(n) {
		case NodeLeaf:
			prop = jsonLeaf(n)
			if assignmentOf(n) == AssignmentMandatory {
				required = append(required, n.Key())
			}
		case NodeNode:
			switch {
			case nodeClassID(n) == ClassSlot:
				continue
			case nodeClassID(n) == ClassNDArray, nodeClassID(n) == ClassImageData, isOutputSchema(n):
				prop = map[string]any{"type": "object"}
			default:
				prop = s.jsonObject(n.Hash())
			}
		case NodeChoiceOfNodes:
			prop = s.jsonChoice(n)
			if assignmentOf(n) == AssignmentMandatory {
				required = append(required, n.Key())
			}
		case NodeListOfNodes:
			prop = map[string]any{
				"type":  "array",
				"items": s.jsonChoice(n),
			}
			if v, ok := attrUint(n.Attributes(), AttrMin); ok {
				prop["minItems"] = v
			}
			if v, ok := attrUint(n.Attributes(), AttrMax); ok {
				prop["maxItems"] = v
			}
			if assignmentOf(n) == AssignmentMandatory {
				required = append(required, n.Key())
			}
		default:
			continue
		}
		jsonAnnotate(prop, n.Attributes())
		props[n.Key()] = prop
	}
	obj := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		obj["required"] = required
	}
	return obj
}

// jsonChoice describes an object holding exactly one of the options of n.
func (s *Schema) jsonChoice(n *hash.Node) map[string]any {
	var alts []any
	for _, opt := range n.Hash().Nodes() {
		if !opt.IsHash() {
			continue
		}
		alts = append(alts, map[string]any{
			"type":                 "object",
			"properties":           map[string]any{opt.Key(): s.jsonObject(opt.Hash())},
			"required":             []string{opt.Key()},
			"additionalProperties": false,
		})
	}
	if len(alts) == 0 {
		return map[string]any{"type": "object"}
	}
	return map[string]any{"oneOf": alts}
}

func jsonAnnotate(prop map[string]any, attrs *hash.Attributes) {
	if v, err := attrs.GetAs(AttrDisplayedName, types.String); err == nil {
		prop["title"] = v
	}
	if v, err := attrs.GetAs(AttrDescription, types.String); err == nil {
		prop["description"] = v
	}
}

func jsonType(t types.Type) map[string]any {
	switch {
	case t == types.Bool:
		return map[string]any{"type": "boolean"}
	case t.IsInteger():
		return map[string]any{"type": "integer"}
	case t.IsFloat():
		return map[string]any{"anyOf": []any{
			map[string]any{"type": "number"},
			map[string]any{"type": "string", "enum": []string{"nan", "inf", "-inf", "NaN", "+Inf", "-Inf"}},
		}}
	case t == types.None:
		return map[string]any{"type": "null"}
	case t == types.ByteArray || t == types.VectorUInt8 || t == types.VectorChar:
		return map[string]any{"type": "string", "contentEncoding": "base64"}
	case t == types.VectorHash:
		return map[string]any{"type": "array", "items": map[string]any{"type": "object"}}
	case t.IsVector():
		if t == types.VectorNone {
			return map[string]any{"type": "array"}
		}
		return map[string]any{"type": "array", "items": jsonType(t.ElemType())}
	default:
		// strings, characters and complex numbers
		return map[string]any{"type": "string"}
	}
}

func jsonLeaf(n *hash.Node) map[string]any {
	attrs := n.Attributes()
	vt, _ := attrs.GetAs(AttrValueType, types.String)
	name, _ := vt.(string)
	t, err := types.ParseType(name)
	if err != nil {
		return map[string]any{}
	}
	prop := jsonType(t)
	switch {
	case t.IsNumeric():
		num := prop
		if t.IsFloat() {
			num = prop["anyOf"].([]any)[0].(map[string]any)
		}
		for key, kw := range map[string]string{
			AttrMinInc: "minimum",
			AttrMaxInc: "maximum",
			AttrMinExc: "exclusiveMinimum",
			AttrMaxExc: "exclusiveMaximum",
		} {
			if v, ok := attrFloat(attrs, key); ok {
				num[kw] = v
			}
		}
	case t == types.String:
		if re, err := attrs.GetAs(AttrRegex, types.String); err == nil {
			prop["pattern"] = fmt.Sprintf("^(?:%s)$", re)
		}
	case t.IsVector() && prop["type"] == "array":
		if v, ok := attrUint(attrs, AttrMinSize); ok {
			prop["minItems"] = v
		}
		if v, ok := attrUint(attrs, AttrMaxSize); ok {
			prop["maxItems"] = v
		}
		if rs, err := attrs.Get(AttrRowSchema); err == nil {
			if sch, ok := rs.(*hash.Schema); ok {
				row := FromHash(sch)
				prop["items"] = row.jsonObject(row.h)
			}
		}
	}
	if opts, ok := attrs.Lookup(AttrOptions); ok && t.Category() == types.CategorySimple {
		if list, ok := types.Elements(opts.Value()); ok && jsonScalar(t) {
			prop["enum"] = list
		}
	}
	if def, ok := attrs.Lookup(AttrDefaultValue); ok && jsonScalar(t) {
		prop["default"] = def.Value()
	}
	return prop
}

// jsonScalar reports whether values of kind t encode as plain JSON scalars.
func jsonScalar(t types.Type) bool {
	return t == types.Bool || t == types.String || t.IsNumeric()
}
