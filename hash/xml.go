// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/European-XFEL/Karabo-sub007/types"
)

const (
	xmlPrefix     = "KRB_"
	xmlTypeFlag   = xmlPrefix + "Type"
	xmlArtificial = xmlPrefix + "Artificial"
	xmlItem       = xmlPrefix + "Item"
	xmlSequence   = xmlPrefix + "Sequence"
	xmlSlash      = ".KRB_SLASH."
	xmlAttrRef    = "_attr"
)

// XMLOptions control the textual layout of the XML encoder. Output is
// deterministic for a given Hash and options.
type XMLOptions struct {
	// Indent is the number of spaces per level, -1 writes everything on a
	// single line without declaration.
	Indent int
	// Namespace, when set, is written as xmlns attribute of the root.
	Namespace string
}

var (
	DefaultXML = XMLOptions{Indent: 2}
	CompactXML = XMLOptions{Indent: -1}
)

// xmlElem is a minimal DOM node shared by encoder and decoder.
type xmlElem struct {
	name     string
	attrs    []xml.Attr
	children []*xmlElem
	text     string
	leaf     bool
}

func (e *xmlElem) attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (e *xmlElem) addAttr(name, value string) {
	e.attrs = append(e.attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

func escapeElementName(s string) string {
	return strings.ReplaceAll(s, "/", xmlSlash)
}

func unescapeElementName(s string) string {
	return strings.ReplaceAll(s, xmlSlash, "/")
}

func isXMLName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r), r == '_', r == ':':
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// elementName escapes key for use as element name. Keys that cannot be
// written as XML element are rejected.
func elementName(key, path string) (string, error) {
	name := escapeElementName(key)
	if !isXMLName(name) {
		return "", malformedXML(path, fmt.Sprintf("key %q is not a valid XML element name", key), nil)
	}
	return name, nil
}

// checkAttributeName rejects attribute names the decoder would skip or
// cannot parse.
func checkAttributeName(name, path string) error {
	switch {
	case strings.HasPrefix(name, xmlPrefix):
		return malformedXML(path, fmt.Sprintf("attribute %q uses the reserved %s prefix", name, xmlPrefix), nil)
	case name == "xmlns" || strings.HasPrefix(name, "xmlns:"):
		return malformedXML(path, fmt.Sprintf("attribute %q is a namespace declaration", name), nil)
	case !isXMLName(name):
		return malformedXML(path, fmt.Sprintf("attribute %q is not a valid XML name", name), nil)
	}
	return nil
}

// ----------------------------------------------------------------------------
// encoder

// EncodeXML renders h as XML. A Hash with a single HASH entry becomes the
// document root, anything else is wrapped in an artificial root element.
// Keys and attribute names must be valid XML names, attribute names must
// not start with KRB_ or declare a namespace.
func (h *Hash) EncodeXML(opts XMLOptions) ([]byte, error) {
	var root *xmlElem
	if h.Len() == 1 && h.nodes[0].typ == types.Hash {
		n := h.nodes[0]
		name, err := elementName(n.key, n.key)
		if err != nil {
			return nil, err
		}
		root = &xmlElem{name: name}
		if opts.Namespace != "" {
			root.addAttr("xmlns", opts.Namespace)
		}
		root.addAttr(xmlTypeFlag, types.Hash.String())
		ref := "_" + root.name
		if err := writeAttributes(n.attrs, root, ref, n.key); err != nil {
			return nil, err
		}
		if err := createXML(n.value.(*Hash), root, ref, n.key); err != nil {
			return nil, err
		}
	} else {
		root = &xmlElem{name: "root"}
		root.addAttr(xmlArtificial, "")
		root.addAttr(xmlTypeFlag, types.Hash.String())
		if err := createXML(h, root, "_root", ""); err != nil {
			return nil, err
		}
	}
	buf := bytes.NewBuffer(nil)
	if opts.Indent >= 0 {
		buf.WriteString(`<?xml version="1.0"?>` + "\n")
	}
	root.write(buf, 0, opts.Indent)
	return buf.Bytes(), nil
}

// EncodeXMLSequence wraps list into a KRB_Sequence document.
func EncodeXMLSequence(list []*Hash, opts XMLOptions) ([]byte, error) {
	h := New()
	h.put(xmlSequence, list, types.VectorHash)
	return h.EncodeXML(opts)
}

// writeAttributes stores node attributes as typed XML attributes. Composite
// attribute values are written as child elements referenced by name. ref
// names the holder elements, at is the Hash path used in errors.
func writeAttributes(attrs *Attributes, e *xmlElem, ref, at string) error {
	for _, a := range attrs.List() {
		ap := at + "@" + a.key
		if err := checkAttributeName(a.key, ap); err != nil {
			return err
		}
		switch a.typ {
		case types.Hash, types.VectorHash, types.Schema:
			hr := xmlAttrRef + ref + "_" + a.key
			e.addAttr(a.key, xmlPrefix+a.typ.String()+":"+hr)
			holder := &xmlElem{name: hr}
			tmp := New()
			tmp.put(hr+"_value", a.value, a.typ)
			if err := createXML(tmp, holder, ref+"_"+hr, ap); err != nil {
				return err
			}
			e.children = append(e.children, holder)
		default:
			s, err := xmlText(a.typ, a.value)
			if err != nil {
				return withPath(err, ap)
			}
			e.addAttr(a.key, xmlPrefix+a.typ.String()+":"+s)
		}
	}
	return nil
}

func createXML(h *Hash, parent *xmlElem, ref, at string) error {
	for _, n := range h.nodes {
		p := joinPath(at, n.key, Separator)
		name, err := elementName(n.key, p)
		if err != nil {
			return err
		}
		e := &xmlElem{name: name}
		r := ref + "_" + e.name
		if err := writeAttributes(n.attrs, e, r, p); err != nil {
			return err
		}
		e.addAttr(xmlTypeFlag, n.typ.String())
		switch v := n.value.(type) {
		case *Hash:
			if err := createXML(v, e, r, p); err != nil {
				return err
			}
		case []*Hash:
			for i, item := range v {
				ie := &xmlElem{name: xmlItem}
				if err := createXML(item, ie, r+"_"+xmlItem, fmt.Sprintf("%s[%d]", p, i)); err != nil {
					return err
				}
				e.children = append(e.children, ie)
			}
		default:
			s, err := xmlText(n.typ, n.value)
			if err != nil {
				return withPath(err, p)
			}
			e.text, e.leaf = s, true
		}
		parent.children = append(parent.children, e)
	}
	return nil
}

func xmlText(t types.Type, v any) (string, error) {
	if t == types.VectorNone {
		return strconv.Itoa(types.Len(v)), nil
	}
	s, err := Convert(v, types.String)
	if err != nil {
		return "", err
	}
	return s.(string), nil
}

func (e *xmlElem) write(buf *bytes.Buffer, depth, indent int) {
	pretty := indent >= 0
	if pretty {
		buf.WriteString(strings.Repeat(" ", depth*indent))
	}
	buf.WriteByte('<')
	buf.WriteString(e.name)
	for _, a := range e.attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name.Local)
		buf.WriteString(`="`)
		xml.EscapeText(buf, []byte(a.Value))
		buf.WriteByte('"')
	}
	switch {
	case len(e.children) == 0 && e.text == "":
		buf.WriteString("/>")
	case e.leaf:
		// mixed content stays on one line to keep the text exact
		buf.WriteByte('>')
		for _, c := range e.children {
			c.write(buf, 0, -1)
		}
		xml.EscapeText(buf, []byte(e.text))
		buf.WriteString("</" + e.name + ">")
	default:
		buf.WriteByte('>')
		if pretty {
			buf.WriteByte('\n')
		}
		for _, c := range e.children {
			c.write(buf, depth+1, indent)
		}
		if pretty {
			buf.WriteString(strings.Repeat(" ", depth*indent))
		}
		buf.WriteString("</" + e.name + ">")
	}
	if pretty {
		buf.WriteByte('\n')
	}
}

// ----------------------------------------------------------------------------
// decoder

func malformedXML(path, msg string, err error) error {
	return types.WrapError(types.KindCodecMalformedXML, path, msg, err)
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func parseXML(data []byte) (*xmlElem, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		stack []*xmlElem
		root  *xmlElem
	)
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformedXML("", "cannot parse XML document", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			e := &xmlElem{name: qualifiedName(t.Name)}
			for _, a := range t.Attr {
				e.attrs = append(e.attrs, xml.Attr{Name: xml.Name{Local: qualifiedName(a.Name)}, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, malformedXML("", "multiple root elements", nil)
				}
				root = e
			} else {
				top := stack[len(stack)-1]
				top.children = append(top.children, e)
			}
			stack = append(stack, e)
		case xml.EndElement:
			if len(stack) == 0 || stack[len(stack)-1].name != qualifiedName(t.Name) {
				return nil, malformedXML("", fmt.Sprintf("unexpected end element %q", qualifiedName(t.Name)), nil)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			} else if len(bytes.TrimSpace(t)) > 0 {
				return nil, malformedXML("", "text outside root element", nil)
			}
		}
	}
	if len(stack) > 0 {
		return nil, malformedXML("", fmt.Sprintf("unclosed element %q", stack[len(stack)-1].name), nil)
	}
	return root, nil
}

// DecodeXML replaces the content of h with the decoded document. The
// receiver is left unchanged on error.
func (h *Hash) DecodeXML(data []byte) error {
	root, err := parseXML(data)
	if err != nil {
		return err
	}
	x := New()
	if root != nil {
		if _, ok := root.attr(xmlArtificial); ok {
			err = createHash(x, root.children, "")
		} else {
			err = createHash(x, []*xmlElem{root}, "")
		}
		if err != nil {
			return err
		}
	}
	h.index, h.nodes = x.index, x.nodes
	return nil
}

// DecodeXMLSequence reads a KRB_Sequence document. Any other document is
// returned as a single element sequence.
func DecodeXMLSequence(data []byte) ([]*Hash, error) {
	h := New()
	if err := h.DecodeXML(data); err != nil {
		return nil, err
	}
	if h.Empty() {
		return []*Hash{}, nil
	}
	if n := h.nodes[0]; n.key == xmlSequence && n.typ == types.VectorHash {
		return n.value.([]*Hash), nil
	}
	return []*Hash{h}, nil
}

type xmlAttrRefInfo struct {
	key string
	typ types.Type
	ref string
}

// readAttributes decodes typed XML attributes. Composite attributes are
// returned as references to child elements.
func readAttributes(e *xmlElem, path string) (*Attributes, []xmlAttrRefInfo, error) {
	attrs := &Attributes{}
	var refs []xmlAttrRefInfo
	for _, a := range e.attrs {
		name := a.Name.Local
		if strings.HasPrefix(name, xmlPrefix) || name == "xmlns" || strings.HasPrefix(name, "xmlns:") {
			continue
		}
		ap := path + "@" + name
		if !strings.HasPrefix(a.Value, xmlPrefix) {
			attrs.put(name, a.Value, types.String)
			continue
		}
		tname, text, ok := strings.Cut(a.Value[len(xmlPrefix):], ":")
		if !ok {
			return nil, nil, malformedXML(ap, "attribute type tag lacks value separator", nil)
		}
		t, err := types.ParseType(tname)
		if err != nil {
			return nil, nil, malformedXML(ap, fmt.Sprintf("unknown attribute type %q", tname), err)
		}
		switch t {
		case types.Hash, types.VectorHash, types.Schema:
			refs = append(refs, xmlAttrRefInfo{key: name, typ: t, ref: text})
			// keep the position in the attribute order
			attrs.put(name, nil, types.None)
		default:
			v, err := decodeXMLText(t, text)
			if err != nil {
				return nil, nil, withPath(err, ap)
			}
			attrs.put(name, v, t)
		}
	}
	return attrs, refs, nil
}

func decodeXMLText(t types.Type, text string) (any, error) {
	switch t {
	case types.VectorNone:
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || n < 0 {
			return nil, types.WrapError(types.KindConversionFailed, "", "invalid VECTOR_NONE length", err)
		}
		return make([]any, n), nil
	case types.Hash:
		if strings.TrimSpace(text) == "" {
			return New(), nil
		}
	case types.VectorHash:
		if strings.TrimSpace(text) == "" {
			return []*Hash{}, nil
		}
	case types.Schema:
		if text == "" {
			return NewSchema(""), nil
		}
	}
	return Convert(text, t)
}

func createHash(h *Hash, elems []*xmlElem, path string) error {
	for _, e := range elems {
		key := unescapeElementName(e.name)
		p := joinPath(path, key, Separator)
		attrs, refs, err := readAttributes(e, p)
		if err != nil {
			return err
		}
		children := e.children
		for _, ref := range refs {
			var holder *xmlElem
			rest := make([]*xmlElem, 0, len(children))
			for _, c := range children {
				if holder == nil && c.name == ref.ref {
					holder = c
					continue
				}
				rest = append(rest, c)
			}
			if holder == nil {
				return malformedXML(p+"@"+ref.key, fmt.Sprintf("missing attribute element %q", ref.ref), nil)
			}
			children = rest
			tmp := New()
			if err := createHash(tmp, holder.children, ""); err != nil {
				return err
			}
			vn, ok := tmp.Node(ref.ref + "_value")
			if !ok || vn.typ != ref.typ {
				return malformedXML(p+"@"+ref.key, fmt.Sprintf("attribute element %q has no %s value", ref.ref, ref.typ), nil)
			}
			attrs.put(ref.key, vn.value, vn.typ)
		}

		tname, typed := e.attr(xmlTypeFlag)
		var t types.Type
		switch {
		case typed:
			if t, err = types.ParseType(tname); err != nil {
				return malformedXML(p, fmt.Sprintf("unknown element type %q", tname), err)
			}
		case len(children) > 0 && children[0].name == xmlItem:
			t = types.VectorHash
		case len(children) > 0:
			t = types.Hash
		default:
			t = types.String
		}

		var n *Node
		switch t {
		case types.Hash:
			sub := New()
			if err := createHash(sub, children, p); err != nil {
				return err
			}
			n = h.put(key, sub, types.Hash)
		case types.VectorHash:
			list := make([]*Hash, 0, len(children))
			for i, c := range children {
				if c.name != xmlItem {
					return malformedXML(p, fmt.Sprintf("unexpected element %q in VECTOR_HASH", c.name), nil)
				}
				item := New()
				if err := createHash(item, c.children, fmt.Sprintf("%s[%d]", p, i)); err != nil {
					return err
				}
				list = append(list, item)
			}
			n = h.put(key, list, types.VectorHash)
		default:
			if len(children) > 0 {
				return malformedXML(p, fmt.Sprintf("%s element has child elements", t), nil)
			}
			v, err := decodeXMLText(t, e.text)
			if err != nil {
				return malformedXML(p, fmt.Sprintf("invalid %s text", t), err)
			}
			n = h.put(key, v, t)
		}
		n.attrs = attrs
	}
	return nil
}
