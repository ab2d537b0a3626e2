// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/European-XFEL/Karabo-sub007/schema"
	"github.com/European-XFEL/Karabo-sub007/store"
	"github.com/European-XFEL/Karabo-sub007/types"
)

// Error Codes

// 10xx - HTTP errors
const (
	EC_NO_ROUTE = 1000 + iota
	EC_CONTENTTYPE_UNSUPPORTED
	EC_MARSHAL_FAILED
	EC_DEMARSHAL_FAILED
	EC_BAD_URL_QUERY
	EC_PARAM_REQUIRED
	EC_PARAM_INVALID
	EC_PARAM_NOTEXPECTED
	EC_BODY_TOO_LARGE
)

// 11xx - internal server error codes
const (
	EC_DATABASE = 1100 + iota
	EC_SERVER
	EC_NETWORK
)

// 12xx - Access errors
const (
	EC_ACCESS_RATE_LIMITED = 1200 + iota
	EC_ACCESS_READONLY
)

// 13xx - Resource errors
const (
	EC_RESOURCE_ID_MISSING = 1300 + iota
	EC_RESOURCE_ID_MALFORMED
	EC_RESOURCE_NOTFOUND
	EC_RESOURCE_CORRUPT
	EC_RESOURCE_CREATE_FAILED
	EC_RESOURCE_DELETE_FAILED
)

// 14xx - Validation errors. A single issue adds its kind to the base code.
const EC_VALIDATION = 1400

type Error struct {
	Code      int            `json:"code"`
	Status    int            `json:"status"`
	Message   string         `json:"message"`
	Scope     string         `json:"scope"`
	Detail    string         `json:"detail"`
	RequestId string         `json:"request_id,omitempty"`
	Issues    []*types.Error `json:"issues,omitempty"`
	Cause     error          `json:"-"`
	Reason    string         `json:"reason,omitempty"`
}

type ErrorList []*Error

type ErrorResponse struct {
	Errors ErrorList `json:"errors"`
}

type ErrorWrapper func(code int, detail string, err error) error

func NewWrappedError(status int, msg string) ErrorWrapper {
	e := &Error{Status: status, Message: msg}
	return e.Complete
}

func (e *Error) Complete(code int, detail string, err error) error {
	x := &Error{
		Code:    code,
		Status:  e.Status,
		Message: e.Message,
		Scope:   e.Scope,
		Detail:  detail,
		Cause:   err,
	}
	if err != nil {
		x.Reason = err.Error()
	}
	return x
}

func (e *Error) String() string {
	return fmt.Sprintf("%s %s: %s", e.Scope, e.Message, e.Detail)
}

func (e *Error) Error() string {
	s := make([]string, 0)
	if e.Status != 0 {
		s = append(s, strings.Join([]string{"status", strconv.Itoa(e.Status)}, "="))
	}
	if e.Code != 0 {
		s = append(s, strings.Join([]string{"code", strconv.Itoa(e.Code)}, "="))
	}
	if e.Scope != "" {
		s = append(s, strings.Join([]string{"scope", e.Scope}, "="))
	}
	s = append(s, strings.Join([]string{"message", e.Message}, "="))
	if e.Detail != "" {
		s = append(s, strings.Join([]string{"detail", e.Detail}, "="))
	}
	if e.RequestId != "" {
		s = append(s, strings.Join([]string{"request-id", e.RequestId}, "="))
	}
	if e.Cause != nil {
		s = append(s, strings.Join([]string{"cause", e.Cause.Error()}, "="))
	}
	return strings.Join(s, " ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) SetScope(s string) *Error {
	if e.Scope != "" {
		e.Scope = strings.Join([]string{s, e.Scope}, ": ")
	} else {
		e.Scope = s
	}
	return e
}

func (e *Error) MarshalIndent() []byte {
	errResp := ErrorResponse{
		Errors: ErrorList{e},
	}
	b, _ := json.MarshalIndent(errResp, "", "  ")
	return b
}

func ParseErrorFromStream(i io.Reader, status int) error {
	var response ErrorResponse
	jsonDecoder := json.NewDecoder(i)
	if err := jsonDecoder.Decode(&response); err != nil || len(response.Errors) == 0 {
		return &Error{
			Status:  status,
			Code:    EC_DEMARSHAL_FAILED,
			Message: "parsing error response failed",
			Scope:   "ParseErrorFromStream",
			Cause:   err,
		}
	}
	return response.Errors[0]
}

// MapError translates errors from the archive, codecs and validator into
// API errors. Errors that already are API errors pass unchanged.
func MapError(detail string, err error) error {
	return mapError(detail, err, EC_DATABASE)
}

// MapWriteError is MapError for failed archive writes, errors without a
// more specific class are reported with code.
func MapWriteError(detail string, err error, code int) error {
	return mapError(detail, err, code)
}

func mapError(detail string, err error, code int) error {
	var (
		apiErr *Error
		verr   *schema.ValidationError
		kerr   *types.Error
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &verr):
		e := EUnprocessable(EC_VALIDATION, detail, err).(*Error)
		e.Issues = verr.Issues
		if len(verr.Issues) == 1 {
			e.Code += int(verr.Issues[0].Kind)
		}
		return e
	case errors.Is(err, store.ErrNoConfig), errors.Is(err, store.ErrNoSchema), errors.Is(err, types.ErrPathNotFound):
		return ENotFound(EC_RESOURCE_NOTFOUND, detail, err)
	case errors.Is(err, store.ErrReadOnly):
		return EForbidden(EC_ACCESS_READONLY, detail, err)
	case errors.Is(err, store.ErrEmptyKey):
		return EBadRequest(EC_RESOURCE_ID_MISSING, detail, err)
	case errors.Is(err, store.ErrCorrupt):
		return EInternal(EC_RESOURCE_CORRUPT, detail, err)
	case errors.As(err, &kerr):
		e := EUnprocessable(EC_VALIDATION+int(kerr.Kind), detail, err).(*Error)
		e.Issues = []*types.Error{kerr}
		return e
	default:
		return EInternal(code, detail, err)
	}
}

// Server Error Reasons
var (
	EBadRequest         = NewWrappedError(http.StatusBadRequest, "incorrect request syntax")
	EForbidden          = NewWrappedError(http.StatusForbidden, "access forbidden")
	ENotFound           = NewWrappedError(http.StatusNotFound, "resource not found")
	ENotAcceptable      = NewWrappedError(http.StatusNotAcceptable, "unsupported response type")
	EBadMimetype        = NewWrappedError(http.StatusUnsupportedMediaType, "unsupported media type")
	EUnprocessable      = NewWrappedError(http.StatusUnprocessableEntity, "validation failed")
	EInternal           = NewWrappedError(http.StatusInternalServerError, "internal server error")
	ERequestTooLarge    = NewWrappedError(http.StatusRequestEntityTooLarge, "request size exceeds our limits")
	ETooManyRequests    = NewWrappedError(http.StatusTooManyRequests, "request limit exceeded")
	EServiceUnavailable = NewWrappedError(http.StatusServiceUnavailable, "service temporarily unavailable")
	EConnectionClosed   = NewWrappedError(499, "connection closed")
)
