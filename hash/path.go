// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package hash

import (
	"strconv"
	"strings"

	"github.com/European-XFEL/Karabo-sub007/types"
)

// Separator is the canonical path separator.
const Separator = "."

// segment is one step of a path, optionally indexing into a VECTOR_HASH.
type segment struct {
	key   string
	index int
}

func (s segment) String() string {
	if s.index < 0 {
		return s.key
	}
	return s.key + "[" + strconv.Itoa(s.index) + "]"
}

// splitPath splits path at sep and extracts trailing `[n]` indices. An empty
// separator addresses a single top-level key without index parsing.
func splitPath(path, sep string) ([]segment, error) {
	if path == "" {
		return nil, types.NewError(types.KindPathNotFound, path, "empty path")
	}
	if sep == "" {
		return []segment{{key: path, index: -1}}, nil
	}
	parts := strings.Split(path, sep)
	segs := make([]segment, len(parts))
	for i, p := range parts {
		seg, err := parseSegment(p)
		if err != nil {
			return nil, types.WrapError(types.KindPathNotFound, path, "invalid path segment", err)
		}
		segs[i] = seg
	}
	return segs, nil
}

func parseSegment(p string) (segment, error) {
	if p == "" {
		return segment{}, types.NewError(types.KindPathNotFound, p, "empty key")
	}
	if !strings.HasSuffix(p, "]") {
		return segment{key: p, index: -1}, nil
	}
	pos := strings.LastIndexByte(p, '[')
	if pos <= 0 {
		return segment{}, types.NewError(types.KindPathNotFound, p, "malformed index")
	}
	idx, err := strconv.Atoi(p[pos+1 : len(p)-1])
	if err != nil || idx < 0 {
		return segment{}, types.NewError(types.KindPathNotFound, p, "malformed index")
	}
	return segment{key: p[:pos], index: idx}, nil
}

func joinSegments(segs []segment, sep string) string {
	s := make([]string, len(segs))
	for i, v := range segs {
		s[i] = v.String()
	}
	return strings.Join(s, sep)
}

func joinPath(prefix, key, sep string) string {
	if prefix == "" {
		return key
	}
	return prefix + sep + key
}
