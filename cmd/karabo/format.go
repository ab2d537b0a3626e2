// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/schema"
)

type Format string

const (
	FormatJSON   Format = "json"
	FormatXML    Format = "xml"
	FormatBinary Format = "binary"
	FormatYAML   Format = "yaml"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	case "binary", "bin", "krb":
		return FormatBinary, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// formatOf picks an explicit format name first, then the file extension,
// then def.
func formatOf(name, filename string, def Format) (Format, error) {
	if name != "" {
		return ParseFormat(name)
	}
	if ext := filepath.Ext(filename); ext != "" {
		if f, err := ParseFormat(ext); err == nil {
			return f, nil
		}
	}
	return def, nil
}

func readInput(filename string) ([]byte, error) {
	if filename == "" || filename == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(filename)
}

func writeOutput(filename string, buf []byte) error {
	if filename == "" || filename == "-" {
		_, err := os.Stdout.Write(buf)
		return err
	}
	return os.WriteFile(filename, buf, 0644)
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

func encodeHash(f Format, h *hash.Hash, compact bool) ([]byte, error) {
	switch f {
	case FormatXML:
		if compact {
			return h.EncodeXML(hash.CompactXML)
		}
		return h.EncodeXML(hash.DefaultXML)
	case FormatBinary:
		return h.MarshalBinary()
	case FormatYAML:
		return yaml.Marshal(h)
	default:
		buf, err := h.MarshalJSON()
		if err != nil || compact {
			return buf, err
		}
		var out bytes.Buffer
		if err := json.Indent(&out, buf, "", "  "); err != nil {
			return nil, err
		}
		out.WriteByte('\n')
		return out.Bytes(), nil
	}
}

// loadHash reads and decodes a Hash from filename or stdin.
func loadHash(filename string) (*hash.Hash, Format, error) {
	f, err := formatOf(fromFormat, filename, FormatJSON)
	if err != nil {
		return nil, f, err
	}
	buf, err := readInput(filename)
	if err != nil {
		return nil, f, err
	}
	h, err := decodeHash(f, buf)
	if err != nil {
		return nil, f, fmt.Errorf("decoding %s: %w", f, err)
	}
	hashLog.Debugf("Read %d bytes of %s from %q", len(buf), f, filename)
	return h, f, nil
}

// loadSchema reads a schema in binary form when the file name says so and
// in name:<xml> text form otherwise.
func loadSchema(filename string) (*schema.Schema, error) {
	buf, err := readInput(filename)
	if err != nil {
		return nil, err
	}
	sc := schema.New("")
	if f, _ := formatOf("", filename, FormatXML); f == FormatBinary {
		err = sc.UnmarshalBinary(buf)
	} else {
		err = sc.UnmarshalText(bytes.TrimSpace(buf))
	}
	if err != nil {
		return nil, fmt.Errorf("decoding schema %s: %w", filename, err)
	}
	return sc, nil
}
