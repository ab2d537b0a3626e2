// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package server

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"reflect"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	logpkg "github.com/echa/log"

	"github.com/European-XFEL/Karabo-sub007/store"
)

const (
	jsonContentType   = "application/json; charset=utf-8"
	xmlContentType    = "application/xml; charset=utf-8"
	binaryContentType = "application/octet-stream"
	textContentType   = "text/plain; charset=utf-8"
	headerVersion     = "X-Api-Version"
	headerRuntime     = "X-Runtime"
)

type ApiCall func(*ApiContext) (interface{}, int)

// Payload is a pre-encoded response body.
type Payload struct {
	ContentType string
	Data        []byte
}

type ApiContext struct {
	context.Context
	// request data
	Request        *http.Request
	ResponseWriter http.ResponseWriter
	RemoteIP       net.IP
	Cfg            *Config
	Server         *RestServer
	Store          *store.Store

	// QoS and Debugging
	RequestID string
	Log       logpkg.Logger

	// Statistics
	Now time.Time

	// input
	name string
	f    ApiCall

	// output
	status int
	result interface{}
	err    *Error
	done   chan *Error
}

func NewContext(ctx context.Context, r *http.Request, w http.ResponseWriter, f ApiCall, srv *RestServer) *ApiContext {
	now := time.Now().UTC()

	// extract name from func to use in fail method
	name := getCallName(f)

	// get real IP behind proxies
	host := r.Header.Get("X-Real-Ip")
	if host == "" {
		host = r.Header.Get("X-Forwarded-For")
	}
	if host == "" {
		host, _, _ = net.SplitHostPort(r.RemoteAddr)
	}
	requestId := r.Header.Get("X-Request-ID")
	if requestId == "" {
		requestId = "KR-" + <-idStream
	}

	return &ApiContext{
		Context:        ctx,
		Now:            now,
		RequestID:      requestId,
		Cfg:            srv.cfg,
		Server:         srv,
		Store:          srv.cfg.Store,
		Request:        r,
		ResponseWriter: w,
		RemoteIP:       net.ParseIP(host),
		done:           make(chan *Error, 1),
		f:              f,
		name:           name,
		Log:            log.WithTag(requestId),
	}
}

// ParseRequestArgs decodes URL query arguments into args or fails.
func (api *ApiContext) ParseRequestArgs(args interface{}) {
	if err := formDecoder.Decode(args, api.Request.URL.Query()); err != nil {
		panic(EBadRequest(EC_BAD_URL_QUERY, err.Error(), nil))
	}
}

// ReadBody returns the request body, bounded by the configured size limit.
func (api *ApiContext) ReadBody() []byte {
	r := api.Request
	if r.Body == nil {
		panic(EBadRequest(EC_PARAM_REQUIRED, "missing request body", nil))
	}
	limit := api.Cfg.Http.MaxBodySize
	if limit > 0 {
		r.Body = http.MaxBytesReader(api.ResponseWriter, r.Body, limit)
	}
	buf, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			panic(ERequestTooLarge(EC_BODY_TOO_LARGE, fmt.Sprintf("body exceeds %d bytes", limit), nil))
		}
		panic(EBadRequest(EC_DEMARSHAL_FAILED, "cannot read request body", err))
	}
	if len(buf) == 0 {
		panic(EBadRequest(EC_PARAM_REQUIRED, "empty request body", nil))
	}
	return buf
}

// this is executed in a worker goroutine, panics on error
func (api *ApiContext) serve() {
	defer api.complete()
	var status int
	api.result, status = api.f(api)
	if status > 0 {
		api.status = status
	}
}

func (api *ApiContext) complete() {
	// only execute on panic
	if e := recover(); e != nil {
		if debugHttp {
			d, _ := httputil.DumpRequest(api.Request, false)
			api.Log.Trace(string(d))
		}

		// e might not be error type, e.g. when panic is thrown by Go Std Library
		switch err := e.(type) {
		case error:
			api.handleError(err)
		default:
			api.handleError(fmt.Errorf("%v", e))
		}
	}
}

func (api *ApiContext) handleError(e error) {
	var re *Error
	switch err := e.(type) {
	case *Error:
		re = err
	case *net.OpError:
		re = EConnectionClosed(EC_NETWORK, "connection closed", err).(*Error)
	case error:
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			dl, _ := api.Context.Deadline()
			re = EServiceUnavailable(
				EC_SERVER,
				fmt.Sprintf("request timeout: took=%v max=%v", time.Since(api.Now), dl),
				err).(*Error)
		case errors.Is(err, context.Canceled):
			re = EConnectionClosed(EC_NETWORK, "context canceled", err).(*Error)
		case errors.Is(err, syscall.EPIPE):
			re = EConnectionClosed(EC_NETWORK, "connection closed", err).(*Error)
		default:
			// archive, codec and validation errors raised without detail
			re = MapError(api.name, err).(*Error)
			if re.Status == http.StatusInternalServerError {
				api.Log.Debugf("%s", string(debug.Stack()))
			}
		}
	default:
		re = EInternal(EC_SERVER, reflect.TypeOf(e).String(), e).(*Error)
	}
	re.SetScope(api.name)
	re.RequestId = api.RequestID
	re.Reason = "" // clear internal error
	api.err = re
	api.status = re.Status
}

func (api *ApiContext) sendResponse() {
	if api.err == nil {
		contentType := ""
		if p, ok := api.result.(*Payload); ok {
			contentType = p.ContentType
		}
		api.writeResponseHeaders(contentType)
		api.writeResponseBody()
		return
	}

	path := strings.Join([]string{
		api.Request.Method,
		api.Request.RequestURI,
		api.Request.Proto,
	}, " ")

	err := api.err
	if err.Cause != nil {
		api.Log.Errorf("%d (%d) %s - %s failed (%s): %v", api.status, err.Code, path, err.Scope, err.Detail, err.Cause)
	} else {
		api.Log.Errorf("%d (%d) %s - %s failed (%s)", api.status, err.Code, path, err.Scope, err.Detail)
	}

	// return error response when connection is still alive
	if !errors.Is(err.Cause, context.Canceled) {
		api.writeResponseHeaders("")
		api.ResponseWriter.Write(err.MarshalIndent())
	}
}

func (api *ApiContext) writeResponseHeaders(contentType string) {
	w := api.ResponseWriter
	h := w.Header()
	if api.status == 0 {
		api.status = http.StatusOK
	}

	h.Set("Server", UserAgent)
	h.Set(headerVersion, ApiVersion)
	h.Set("X-Request-Id", api.RequestID)

	// set content type if not already set by request handler function
	if h.Get("Content-Type") == "" && api.status != http.StatusNoContent {
		if contentType == "" {
			contentType = jsonContentType
		}
		h.Set("Content-Type", contentType)
	}

	// set CORS header if enabled
	cfg := api.Cfg.Http
	if cfg.CorsEnable {
		if cfg.CorsOrigin == "*" {
			h.Set("Access-Control-Allow-Origin", api.Request.Header.Get("Origin"))
		} else {
			h.Set("Access-Control-Allow-Origin", cfg.CorsOrigin)
		}
		h.Set("Access-Control-Allow-Headers", cfg.CorsAllowHeaders)
		h.Set("Access-Control-Expose-Headers", cfg.CorsExposeHeaders)
		h.Set("Access-Control-Allow-Methods", cfg.CorsMethods)
		h.Set("Access-Control-Allow-Credentials", cfg.CorsCredentials)
		h.Set("Access-Control-Max-Age", cfg.CorsMaxAge)
	}

	// archived configurations change at any time
	h.Set("Cache-Control", "max-age=0, no-cache, no-store, must-revalidate")
	h.Set("Date", api.Now.Format(http.TimeFormat))

	rt := strconv.FormatFloat(time.Since(api.Now).Seconds(), 'f', 6, 64)
	h.Set(headerRuntime, rt)

	w.WriteHeader(api.status)
}

func (api *ApiContext) writeResponseBody() {
	if api.result == nil {
		return
	}
	switch t := api.result.(type) {
	case string:
		api.ResponseWriter.Write([]byte(t))
	case []byte:
		api.ResponseWriter.Write(t)
	case *Payload:
		api.ResponseWriter.Write(t.Data)
	default:
		// marshal and write the result to the HTTP body
		if b, err := json.MarshalIndent(api.result, "", "  "); err != nil {
			api.Log.Errorf("Error sending response: %v in struct %#v", err, api.result)
			e := EInternal(EC_MARSHAL_FAILED, "cannot marshal response", err).(*Error)
			e.SetScope(api.name)
			api.ResponseWriter.Write(e.MarshalIndent())
		} else {
			api.ResponseWriter.Write(append(b, '\n'))
		}
	}
}

var (
	callNames = make(map[uintptr]string)
	mu        sync.RWMutex
	idStream  chan string
)

func getCallName(f ApiCall) string {
	p := reflect.ValueOf(f).Pointer()
	mu.RLock()
	n, ok := callNames[p]
	mu.RUnlock()
	if ok {
		return n
	}
	name := runtime.FuncForPC(p).Name()
	if idx := strings.LastIndex(name, "."); idx > -1 {
		name = name[idx+1:]
	}
	mu.Lock()
	callNames[p] = name
	mu.Unlock()
	return name
}

func init() {
	// start asynchronous ID generator
	idStream = make(chan string, 100)
	go func(ch chan string) {
		h := sha1.New()
		c := []byte(time.Now().String())
		for {
			h.Write(c)
			ch <- fmt.Sprintf("%x", h.Sum(nil))[:20]
		}
	}(idStream)
}
