// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/European-XFEL/Karabo-sub007/types"
)

// MarshalJSON writes values as an ordered JSON object. Attributes are not
// part of the JSON form. Complex numbers and non-finite floats are written
// in their string form.
func (h *Hash) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := h.encodeJSON(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *Hash) encodeJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, n := range h.nodes {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(n.key)
		buf.Write(key)
		buf.WriteByte(':')
		if err := encodeJSONValue(buf, n.value); err != nil {
			return withPath(err, n.key)
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeJSONValue(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case *Hash:
		return x.encodeJSON(buf)
	case []*Hash:
		buf.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encodeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case *Schema:
		buf.WriteString(`{"name":`)
		name, _ := json.Marshal(x.Name)
		buf.Write(name)
		buf.WriteString(`,"hash":`)
		if err := x.Hash.encodeJSON(buf); err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	case types.Character:
		v = x.String()
	case []types.Character, complex64, complex128, []complex64, []complex128:
		s, err := types.Format(v)
		if err != nil {
			return err
		}
		v = s
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			v = strconv.FormatFloat(float64(x), 'g', -1, 32)
		}
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			v = strconv.FormatFloat(x, 'g', -1, 64)
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return types.WrapError(types.KindCodecMalformed, "", "cannot encode JSON value", err)
	}
	buf.Write(b)
	return nil
}

// UnmarshalJSON replaces the content of h with the decoded JSON object.
func (h *Hash) UnmarshalJSON(data []byte) error {
	x, err := FromJSON(data)
	if err != nil {
		return err
	}
	h.index, h.nodes = x.index, x.nodes
	return nil
}

// FromJSON builds a Hash from a JSON object preserving key order. Integers
// become INT32 or INT64 depending on their range, other numbers DOUBLE,
// null becomes NONE, arrays of objects VECTOR_HASH and other arrays the
// vector kind of their elements.
func FromJSON(data []byte) (*Hash, error) {
	if !gjson.ValidBytes(data) {
		return nil, types.NewError(types.KindCodecMalformed, "", "invalid JSON document")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return nil, types.NewError(types.KindCodecMalformed, "", fmt.Sprintf("JSON document is %s, not an object", res.Type))
	}
	return fromJSONObject(res, "")
}

func fromJSONObject(res gjson.Result, path string) (*Hash, error) {
	h := New()
	var err error
	res.ForEach(func(key, val gjson.Result) bool {
		p := joinPath(path, key.String(), Separator)
		var v any
		if v, err = fromJSONValue(val, p); err != nil {
			return false
		}
		var (
			nv  any
			typ types.Type
		)
		if nv, typ, err = normalize(v); err != nil {
			err = withPath(err, p)
			return false
		}
		h.put(key.String(), nv, typ)
		return true
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func fromJSONValue(val gjson.Result, path string) (any, error) {
	switch val.Type {
	case gjson.Null:
		return nil, nil
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	case gjson.String:
		return val.Str, nil
	case gjson.Number:
		return jsonNumber(val), nil
	}
	if val.IsObject() {
		return fromJSONObject(val, path)
	}
	items := val.Array()
	if len(items) == 0 {
		return []string{}, nil
	}
	if items[0].IsObject() {
		list := make([]*Hash, len(items))
		for i, item := range items {
			if !item.IsObject() {
				return nil, types.NewError(types.KindTypeMismatch, path, "mixed objects and values in array")
			}
			sub, err := fromJSONObject(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			list[i] = sub
		}
		return list, nil
	}
	list := make([]any, len(items))
	float := false
	for i, item := range items {
		v, err := fromJSONValue(item, path)
		if err != nil {
			return nil, err
		}
		if _, ok := v.(float64); ok {
			float = true
		}
		list[i] = v
	}
	if float {
		// widen integer literals in mixed numeric arrays
		for i, v := range list {
			if f, err := types.Convert(v, types.Double); err == nil {
				list[i] = f
			}
		}
	}
	return list, nil
}

func jsonNumber(val gjson.Result) any {
	raw := val.Raw
	if !strings.ContainsAny(raw, ".eE") {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			if i >= math.MinInt32 && i <= math.MaxInt32 {
				return int32(i)
			}
			return i
		}
		if u, err := strconv.ParseUint(raw, 10, 64); err == nil {
			return u
		}
	}
	return val.Num
}
