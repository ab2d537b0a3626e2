// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package server

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/European-XFEL/Karabo-sub007/hash"
)

// Format names a wire representation of a Hash.
type Format string

const (
	FormatJSON   Format = "json"
	FormatXML    Format = "xml"
	FormatBinary Format = "binary"
	FormatYAML   Format = "yaml"
)

// formatFromMime maps a request content type onto a Format. An empty
// content type selects the binary codec.
func formatFromMime(ct string) (Format, bool) {
	if ct == "" {
		return FormatBinary, true
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", false
	}
	switch mt {
	case "application/json":
		return FormatJSON, true
	case "application/xml", "text/xml":
		return FormatXML, true
	case "application/octet-stream", "application/x-karabo-binary":
		return FormatBinary, true
	case "application/yaml", "application/x-yaml", "text/yaml":
		return FormatYAML, true
	default:
		return "", false
	}
}

func parseFormat(s string) (Format, bool) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatJSON, true
	case FormatJSON, FormatXML, FormatBinary, FormatYAML:
		return f, true
	default:
		return "", false
	}
}

// requestFormat returns the format of the request body.
func (api *ApiContext) requestFormat() Format {
	ct := api.Request.Header.Get("Content-Type")
	f, ok := formatFromMime(ct)
	if !ok {
		panic(EBadMimetype(EC_CONTENTTYPE_UNSUPPORTED, fmt.Sprintf("unsupported content type '%s'", ct), nil))
	}
	return f
}

// responseFormat returns the format requested with the format argument.
func (api *ApiContext) responseFormat(s string) Format {
	f, ok := parseFormat(s)
	if !ok {
		panic(ENotAcceptable(EC_PARAM_INVALID, fmt.Sprintf("unsupported format '%s'", s), nil))
	}
	return f
}

// ReadHash decodes the request body into a Hash.
func (api *ApiContext) ReadHash() *hash.Hash {
	f := api.requestFormat()
	buf := api.ReadBody()
	h, err := decodeHash(f, buf)
	if err != nil {
		panic(MapError(fmt.Sprintf("cannot decode %s body", f), err))
	}
	return h
}

func decodeHash(f Format, buf []byte) (*hash.Hash, error) {
	switch f {
	case FormatJSON:
		return hash.FromJSON(buf)
	case FormatYAML:
		return hash.FromYAML(buf)
	case FormatXML:
		h := hash.New()
		if err := h.DecodeXML(buf); err != nil {
			return nil, err
		}
		return h, nil
	default:
		h := hash.New()
		if err := h.UnmarshalBinary(buf); err != nil {
			return nil, err
		}
		return h, nil
	}
}

// encodeHash renders h as a response body. JSON is returned as h itself
// and marshaled by the response writer.
func encodeHash(f Format, h *hash.Hash) (interface{}, error) {
	switch f {
	case FormatXML:
		buf, err := h.EncodeXML(hash.DefaultXML)
		if err != nil {
			return nil, err
		}
		return &Payload{ContentType: xmlContentType, Data: buf}, nil
	case FormatBinary:
		buf, err := h.MarshalBinary()
		if err != nil {
			return nil, err
		}
		return &Payload{ContentType: binaryContentType, Data: buf}, nil
	case FormatYAML:
		buf, err := yaml.Marshal(h)
		if err != nil {
			return nil, err
		}
		return &Payload{ContentType: "application/yaml; charset=utf-8", Data: buf}, nil
	default:
		return h, nil
	}
}

// WriteHash returns h in format f or fails.
func (api *ApiContext) WriteHash(f Format, h *hash.Hash) (interface{}, int) {
	res, err := encodeHash(f, h)
	if err != nil {
		panic(EInternal(EC_MARSHAL_FAILED, fmt.Sprintf("cannot encode %s response", f), err))
	}
	return res, http.StatusOK
}
