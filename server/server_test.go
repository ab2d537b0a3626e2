// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/schema"
	"github.com/European-XFEL/Karabo-sub007/store"
	"github.com/European-XFEL/Karabo-sub007/types"
)

func newTestServer(t *testing.T) *RestServer {
	t.Helper()
	opts := store.DefaultOptions
	opts.NoSync = true
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"), opts)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &Config{
		Store: st,
		Rules: schema.DefaultRules,
		Http:  NewHttpConfig(),
	}
	cfg.Http.MaxWorkers = 2
	cfg.Http.MaxQueue = 8
	cfg.Http.MaxBodySize = 1 << 16
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	s.Run()
	t.Cleanup(func() {
		s.dispatcher.Stop()
		st.Close()
	})
	return s
}

func pumpSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s := schema.New("Pump")
	if err := schema.Double(s).Key("flow").Default(1.0).MinInc(0).Tags("hw").Commit(); err != nil {
		t.Fatal(err)
	}
	if err := schema.String(s).Key("label").Default("main").Commit(); err != nil {
		t.Fatal(err)
	}
	return s
}

func do(t *testing.T, s *RestServer, method, url, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func apiErr(t *testing.T, rec *httptest.ResponseRecorder) *Error {
	t.Helper()
	err := ParseErrorFromStream(rec.Body, rec.Code)
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("not an API error: %v", err)
	}
	return e
}

func putSchema(t *testing.T, s *RestServer, sc *schema.Schema) {
	t.Helper()
	buf, err := sc.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	rec := do(t, s, "PUT", "/schemas/"+sc.Name(), "application/octet-stream", buf)
	if rec.Code != http.StatusCreated {
		t.Fatalf("put schema: status=%d body=%s", rec.Code, rec.Body)
	}
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, "GET", "/ping?sequence=7&client_time=42", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: have=%d want=%d", rec.Code, http.StatusOK)
	}
	var p Pinger
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.Sequence != 7 || p.RequestAt != 42 || p.ResponseAt == 0 {
		t.Errorf("ping: have=%+v", p)
	}
	if p.Server != UserAgent || p.ApiVersion != ApiVersion || p.ReadOnly {
		t.Errorf("ping identity: have=%+v", p)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Errorf("missing request id header")
	}
	if rec.Header().Get(headerRuntime) == "" {
		t.Errorf("missing runtime header")
	}
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, "GET", "/nothing/here", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: have=%d want=%d", rec.Code, http.StatusNotFound)
	}
	if e := apiErr(t, rec); e.Code != EC_NO_ROUTE || e.RequestId == "" {
		t.Errorf("error: have=%+v", e)
	}
	if rec := do(t, s, "OPTIONS", "/configs", "", nil); rec.Code != http.StatusOK {
		t.Errorf("options: have=%d", rec.Code)
	}
}

func TestSchemaEndpoints(t *testing.T) {
	s := newTestServer(t)
	sc := pumpSchema(t)
	buf, _ := sc.MarshalBinary()

	rec := do(t, s, "PUT", "/schemas/Pump", "application/octet-stream", buf)
	if rec.Code != http.StatusCreated {
		t.Fatalf("put: status=%d body=%s", rec.Code, rec.Body)
	}
	want, _ := store.Digest(sc)
	if have := gjson.GetBytes(rec.Body.Bytes(), "digest").String(); have != fmt.Sprintf("%016x", want) {
		t.Errorf("digest: have=%s want=%016x", have, want)
	}

	rec = do(t, s, "GET", "/schemas", "", nil)
	if have := gjson.GetBytes(rec.Body.Bytes(), "#.name").String(); have != `["Pump"]` {
		t.Errorf("list: have=%s", have)
	}

	// binary download round trips
	rec = do(t, s, "GET", "/schemas/Pump?format=binary", "", nil)
	back := schema.New("")
	if err := back.UnmarshalBinary(rec.Body.Bytes()); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(sc) {
		t.Errorf("binary download mismatch:\n%s", back)
	}

	// JSON-Schema export
	rec = do(t, s, "GET", "/schemas/Pump?format=jsonschema", "", nil)
	if ct := rec.Header().Get("Content-Type"); ct != "application/schema+json" {
		t.Errorf("content type: have=%s", ct)
	}
	if have := gjson.GetBytes(rec.Body.Bytes(), "properties.flow.anyOf.0.type").String(); have != "number" {
		t.Errorf("json schema flow type: have=%s", have)
	}

	// tag filter keeps tagged elements only
	rec = do(t, s, "GET", "/schemas/Pump?format=binary&tags=hw", "", nil)
	filtered := schema.New("")
	if err := filtered.UnmarshalBinary(rec.Body.Bytes()); err != nil {
		t.Fatal(err)
	}
	if !filtered.Has("flow") || filtered.Has("label") {
		t.Errorf("tag filter: have=%v", filtered.Paths())
	}

	// XML upload under another name
	xml, err := sc.Hash().EncodeXML(hash.DefaultXML)
	if err != nil {
		t.Fatal(err)
	}
	if rec := do(t, s, "PUT", "/schemas/Valve", "application/xml", xml); rec.Code != http.StatusCreated {
		t.Fatalf("xml put: status=%d body=%s", rec.Code, rec.Body)
	}
	valve, err := s.cfg.Store.Schema("Valve")
	if err != nil {
		t.Fatal(err)
	}
	if !valve.Hash().FullyEqual(sc.Hash(), false) {
		t.Errorf("xml upload mismatch:\n%s", valve)
	}

	// binary body naming another class
	rec = do(t, s, "PUT", "/schemas/Other", "application/octet-stream", buf)
	if rec.Code != http.StatusBadRequest || apiErr(t, rec).Code != EC_RESOURCE_ID_MALFORMED {
		t.Errorf("name mismatch: status=%d", rec.Code)
	}

	rec = do(t, s, "GET", "/schemas/Pump?path=nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing path: have=%d", rec.Code)
	}
	rec = do(t, s, "GET", "/schemas/Pump?level=nobody", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad level: have=%d", rec.Code)
	}

	if rec := do(t, s, "DELETE", "/schemas/Valve", "", nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete: have=%d", rec.Code)
	}
	rec = do(t, s, "GET", "/schemas/Valve", "", nil)
	if rec.Code != http.StatusNotFound || apiErr(t, rec).Code != EC_RESOURCE_NOTFOUND {
		t.Errorf("deleted: have=%d", rec.Code)
	}
}

func TestConfigEndpoints(t *testing.T) {
	s := newTestServer(t)
	putSchema(t, s, pumpSchema(t))

	rec := do(t, s, "PUT", "/configs/dev/pump/1?class=Pump", "application/json", []byte(`{"flow":"2.5"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("put: status=%d body=%s", rec.Code, rec.Body)
	}
	if have := gjson.GetBytes(rec.Body.Bytes(), "schema").String(); have != "Pump" {
		t.Errorf("info schema: have=%s", have)
	}

	// canonical JSON form
	rec = do(t, s, "GET", "/configs/dev/pump/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status=%d body=%s", rec.Code, rec.Body)
	}
	body := rec.Body.Bytes()
	if have := gjson.GetBytes(body, "flow").Float(); have != 2.5 {
		t.Errorf("flow: have=%v", have)
	}
	if have := gjson.GetBytes(body, "label").String(); have != "main" {
		t.Errorf("label: have=%v", have)
	}

	// binary form keeps kinds
	rec = do(t, s, "GET", "/configs/dev/pump/1?format=binary", "", nil)
	h := hash.New()
	if err := h.UnmarshalBinary(rec.Body.Bytes()); err != nil {
		t.Fatal(err)
	}
	if typ, _ := h.GetType("flow"); typ != types.Double {
		t.Errorf("flow kind: have=%s", typ)
	}

	rec = do(t, s, "GET", "/configs/dev/pump/1?stat=true", "", nil)
	if have := gjson.GetBytes(rec.Body.Bytes(), "key").String(); have != "dev/pump/1" {
		t.Errorf("stat: have=%s", rec.Body)
	}

	// unvalidated XML upload
	xml, _ := hash.MustNew("a", 1).EncodeXML(hash.CompactXML)
	if rec := do(t, s, "PUT", "/configs/dev/other", "application/xml", xml); rec.Code != http.StatusCreated {
		t.Fatalf("xml put: status=%d body=%s", rec.Code, rec.Body)
	}
	if rec := do(t, s, "PUT", "/configs/x/2", "text/csv", []byte("a,b")); rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("mimetype: have=%d", rec.Code)
	}
	if rec := do(t, s, "PUT", "/configs/x/3", "application/json", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("empty body: have=%d", rec.Code)
	}

	rec = do(t, s, "GET", "/configs?prefix=dev/&limit=1", "", nil)
	if have := gjson.GetBytes(rec.Body.Bytes(), "#.key").String(); have != `["dev/other"]` {
		t.Errorf("list: have=%s", have)
	}
	rec = do(t, s, "GET", "/configs?prefix=dev/&offset=1", "", nil)
	if have := gjson.GetBytes(rec.Body.Bytes(), "#.key").String(); have != `["dev/pump/1"]` {
		t.Errorf("list offset: have=%s", have)
	}

	if rec := do(t, s, "DELETE", "/configs/dev/other", "", nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete: have=%d", rec.Code)
	}
	if rec := do(t, s, "GET", "/configs/dev/other", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("deleted: have=%d", rec.Code)
	}
}

func TestConfigRejected(t *testing.T) {
	s := newTestServer(t)
	putSchema(t, s, pumpSchema(t))

	rec := do(t, s, "PUT", "/configs/pump/2?class=Pump", "application/json", []byte(`{"flow":-1}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: have=%d body=%s", rec.Code, rec.Body)
	}
	e := apiErr(t, rec)
	if e.Code != EC_VALIDATION+int(types.KindRangeViolation) {
		t.Errorf("code: have=%d", e.Code)
	}
	if len(e.Issues) != 1 || e.Issues[0].Kind != types.KindRangeViolation || e.Issues[0].Path != "flow" {
		t.Errorf("issues: have=%v", e.Issues)
	}
	if rec := do(t, s, "GET", "/configs/pump/2", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("rejected config was stored")
	}
	if rec := do(t, s, "PUT", "/configs/pump/3?class=Valve", "application/json", []byte(`{}`)); rec.Code != http.StatusNotFound {
		t.Errorf("unknown class: have=%d", rec.Code)
	}
	rec = do(t, s, "PUT", "/configs/pump/4", "application/json", []byte(`{"a":`))
	if rec.Code != http.StatusUnprocessableEntity || apiErr(t, rec).Code != EC_VALIDATION+int(types.KindCodecMalformed) {
		t.Errorf("malformed: have=%d", rec.Code)
	}
}

func TestValidateEndpoint(t *testing.T) {
	s := newTestServer(t)
	putSchema(t, s, pumpSchema(t))

	rec := do(t, s, "POST", "/validate/Pump?format=xml", "application/json", []byte(`{"flow":3}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: have=%d body=%s", rec.Code, rec.Body)
	}
	out := hash.New()
	if err := out.DecodeXML(rec.Body.Bytes()); err != nil {
		t.Fatal(err)
	}
	if have, _ := out.Get("flow"); have != 3.0 {
		t.Errorf("flow: have=%v (%T)", have, have)
	}
	if have, _ := out.Get("label"); have != "main" {
		t.Errorf("label: have=%v", have)
	}
	if s.cfg.Store.Options().ReadOnly {
		t.Fatal("unexpected read-only store")
	}
	if list, _ := s.cfg.Store.List(""); len(list) != 0 {
		t.Errorf("validation stored %d configs", len(list))
	}

	rec = do(t, s, "POST", "/validate/Pump?format=binary&timestamps=true", "application/json", []byte(`{"flow":3}`))
	stamped := hash.New()
	if err := stamped.UnmarshalBinary(rec.Body.Bytes()); err != nil {
		t.Fatal(err)
	}
	if !stamped.HasAttribute("flow", schema.AttrSec) {
		t.Errorf("missing timestamp attributes")
	}

	rec = do(t, s, "POST", "/validate/Pump", "application/json", []byte(`{"flow":1,"bogus":2}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown key: have=%d", rec.Code)
	}
	if e := apiErr(t, rec); len(e.Issues) != 1 || e.Issues[0].Kind != types.KindUnknownKey {
		t.Errorf("unknown key issues: have=%v", e.Issues)
	}
	rec = do(t, s, "POST", "/validate/Pump?unknown=strip&format=binary", "application/json", []byte(`{"flow":1,"bogus":2}`))
	if rec.Code != http.StatusOK {
		t.Errorf("strip: have=%d body=%s", rec.Code, rec.Body)
	}
	if rec := do(t, s, "POST", "/validate/Pump?unknown=maybe", "application/json", []byte(`{}`)); rec.Code != http.StatusBadRequest {
		t.Errorf("bad policy: have=%d", rec.Code)
	}
	if rec := do(t, s, "POST", "/validate/Pump?rooted=true", "application/json", []byte(`{"flow":1}`)); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unrooted input: have=%d", rec.Code)
	}
	if rec := do(t, s, "POST", "/validate/Pump?strict=true", "application/xml", []byte(`<a/>`)); rec.Code != http.StatusBadRequest {
		t.Errorf("strict xml: have=%d", rec.Code)
	}
	if rec := do(t, s, "POST", "/validate/Pump?format=csv", "application/json", []byte(`{}`)); rec.Code != http.StatusNotAcceptable {
		t.Errorf("bad format: have=%d", rec.Code)
	}
}

func TestSystemEndpoints(t *testing.T) {
	s := newTestServer(t)
	putSchema(t, s, pumpSchema(t))
	rec := do(t, s, "GET", "/system/stats", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: have=%d", rec.Code)
	}
	if have := gjson.GetBytes(rec.Body.Bytes(), "archive.schemas").Int(); have != 1 {
		t.Errorf("schemas: have=%d", have)
	}
	rec = do(t, s, "GET", "/system/config", "", nil)
	if rec.Code != http.StatusOK || !gjson.ParseBytes(rec.Body.Bytes()).IsObject() {
		t.Errorf("settings: have=%d body=%s", rec.Code, rec.Body)
	}
	if have := rec.Header().Get("X-Request-Id"); have == "" {
		t.Errorf("settings: missing request id")
	}
	if rec := do(t, s, "PUT", "/system/log/bogus/debug", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad subsystem: have=%d", rec.Code)
	}
}

func TestDispatcherQueueLimit(t *testing.T) {
	d := NewDispatcher(1, 1)
	if !d.Submit(&ApiContext{}) {
		t.Errorf("first submit rejected")
	}
	if d.Submit(&ApiContext{}) {
		t.Errorf("submit beyond queue size accepted")
	}
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   int
	}{
		{fmt.Errorf("x: %w", store.ErrNoConfig), http.StatusNotFound, EC_RESOURCE_NOTFOUND},
		{store.ErrReadOnly, http.StatusForbidden, EC_ACCESS_READONLY},
		{store.ErrEmptyKey, http.StatusBadRequest, EC_RESOURCE_ID_MISSING},
		{fmt.Errorf("x: %w", store.ErrCorrupt), http.StatusInternalServerError, EC_RESOURCE_CORRUPT},
		{types.NewError(types.KindCodecTruncated, "", "short"), http.StatusUnprocessableEntity, EC_VALIDATION + int(types.KindCodecTruncated)},
		{&schema.ValidationError{Issues: []*types.Error{
			types.NewError(types.KindRangeViolation, "a", ""),
			types.NewError(types.KindRegexViolation, "b", ""),
		}}, http.StatusUnprocessableEntity, EC_VALIDATION},
		{errors.New("boom"), http.StatusInternalServerError, EC_DATABASE},
		{EBadRequest(EC_PARAM_INVALID, "", nil), http.StatusBadRequest, EC_PARAM_INVALID},
	}
	for i, c := range cases {
		var e *Error
		if !errors.As(MapError("detail", c.err), &e) {
			t.Fatalf("%d: not an API error", i)
		}
		if e.Status != c.status || e.Code != c.code {
			t.Errorf("%d: have=%d/%d want=%d/%d", i, e.Status, e.Code, c.status, c.code)
		}
	}
}

func TestMapWriteError(t *testing.T) {
	cases := []struct {
		err    error
		code   int
		status int
		want   int
	}{
		{errors.New("disk full"), EC_RESOURCE_CREATE_FAILED, http.StatusInternalServerError, EC_RESOURCE_CREATE_FAILED},
		{errors.New("disk full"), EC_RESOURCE_DELETE_FAILED, http.StatusInternalServerError, EC_RESOURCE_DELETE_FAILED},
		{store.ErrReadOnly, EC_RESOURCE_CREATE_FAILED, http.StatusForbidden, EC_ACCESS_READONLY},
		{fmt.Errorf("x: %w", store.ErrNoSchema), EC_RESOURCE_DELETE_FAILED, http.StatusNotFound, EC_RESOURCE_NOTFOUND},
	}
	for i, c := range cases {
		var e *Error
		if !errors.As(MapWriteError("detail", c.err, c.code), &e) {
			t.Fatalf("%d: not an API error", i)
		}
		if e.Status != c.status || e.Code != c.want {
			t.Errorf("%d: have=%d/%d want=%d/%d", i, e.Status, e.Code, c.status, c.want)
		}
	}
}
