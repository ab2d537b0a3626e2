// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package types

import (
	"strings"
)

// ErrorKind classifies errors surfaced by Hash, codecs, Schema and validator.
type ErrorKind int

const (
	KindPathNotFound ErrorKind = 1 + iota
	KindAttributeNotFound
	KindTypeMismatch
	KindConversionFailed
	KindRangeViolation
	KindOptionViolation
	KindSizeViolation
	KindRegexViolation
	KindMissingMandatory
	KindUnknownKey
	KindShapeMismatch
	KindCodecTruncated
	KindCodecUnknownType
	KindCodecMalformed
	KindCodecMalformedXML
	KindDescriptorInvalid
	KindStateViolation
)

var kindNames = map[ErrorKind]string{
	KindPathNotFound:      "path-not-found",
	KindAttributeNotFound: "attribute-not-found",
	KindTypeMismatch:      "type-mismatch",
	KindConversionFailed:  "type-conversion-failed",
	KindRangeViolation:    "range-violation",
	KindOptionViolation:   "option-violation",
	KindSizeViolation:     "size-violation",
	KindRegexViolation:    "regex-violation",
	KindMissingMandatory:  "missing-mandatory",
	KindUnknownKey:        "unknown-key",
	KindShapeMismatch:     "shape-mismatch",
	KindCodecTruncated:    "codec-truncated",
	KindCodecUnknownType:  "codec-unknown-typecode",
	KindCodecMalformed:    "codec-malformed",
	KindCodecMalformedXML: "codec-malformed-xml",
	KindDescriptorInvalid: "descriptor-invalid",
	KindStateViolation:    "state-violation",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown-error"
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ErrorKind) UnmarshalText(data []byte) error {
	for n, s := range kindNames {
		if s == string(data) {
			*k = n
			return nil
		}
	}
	return NewError(KindConversionFailed, "", "unknown error kind '"+string(data)+"'")
}

// Error sentinels for use with errors.Is.
var (
	ErrPathNotFound      = &Error{Kind: KindPathNotFound}
	ErrAttributeNotFound = &Error{Kind: KindAttributeNotFound}
	ErrTypeMismatch      = &Error{Kind: KindTypeMismatch}
	ErrConversionFailed  = &Error{Kind: KindConversionFailed}
	ErrRangeViolation    = &Error{Kind: KindRangeViolation}
	ErrOptionViolation   = &Error{Kind: KindOptionViolation}
	ErrSizeViolation     = &Error{Kind: KindSizeViolation}
	ErrRegexViolation    = &Error{Kind: KindRegexViolation}
	ErrMissingMandatory  = &Error{Kind: KindMissingMandatory}
	ErrUnknownKey        = &Error{Kind: KindUnknownKey}
	ErrShapeMismatch     = &Error{Kind: KindShapeMismatch}
	ErrCodecTruncated    = &Error{Kind: KindCodecTruncated}
	ErrCodecUnknownType  = &Error{Kind: KindCodecUnknownType}
	ErrCodecMalformed    = &Error{Kind: KindCodecMalformed}
	ErrCodecMalformedXML = &Error{Kind: KindCodecMalformedXML}
	ErrDescriptorInvalid = &Error{Kind: KindDescriptorInvalid}
	ErrStateViolation    = &Error{Kind: KindStateViolation}
)

// Error carries the kind, the offending path and a human readable message.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Path    string    `json:"path,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func NewError(kind ErrorKind, path, msg string) *Error {
	return &Error{
		Kind:    kind,
		Path:    path,
		Message: msg,
	}
}

func WrapError(kind ErrorKind, path, msg string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Path:    path,
		Message: msg,
		Cause:   cause,
	}
}

func (e *Error) Error() string {
	s := make([]string, 0, 4)
	s = append(s, strings.Join([]string{"kind", e.Kind.String()}, "="))
	if e.Path != "" {
		s = append(s, strings.Join([]string{"path", e.Path}, "="))
	}
	if e.Message != "" {
		s = append(s, strings.Join([]string{"message", e.Message}, "="))
	}
	if e.Cause != nil {
		s = append(s, strings.Join([]string{"cause", e.Cause.Error()}, "="))
	}
	return strings.Join(s, " ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithPath returns a copy of e bound to path.
func (e *Error) WithPath(path string) *Error {
	x := *e
	x.Path = path
	return &x
}

// KindOf returns the kind of err or zero when err is not an *Error.
func KindOf(err error) ErrorKind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0
		}
		err = u.Unwrap()
	}
	return 0
}
