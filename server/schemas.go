// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package server

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/schema"
	"github.com/European-XFEL/Karabo-sub007/state"
)

func init() {
	register(SchemaRequest{})
}

var _ RESTful = (*SchemaRequest)(nil)

type SchemaRequest struct{}

func (t SchemaRequest) RESTPrefix() string {
	return "/schemas"
}

func (t SchemaRequest) RegisterDirectRoutes(s *RestServer, r *mux.Router) error {
	r.HandleFunc(t.RESTPrefix(), s.C(ListSchemas)).Methods("GET")
	return nil
}

func (t SchemaRequest) RegisterRoutes(s *RestServer, r *mux.Router) error {
	r.HandleFunc("/{name}", s.C(GetSchema)).Methods("GET")
	r.HandleFunc("/{name}", s.C(PutSchema)).Methods("PUT")
	r.HandleFunc("/{name}", s.C(DeleteSchema)).Methods("DELETE")
	return nil
}

// Digest renders as a fixed width hex string.
type Digest uint64

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%016x", uint64(d))), nil
}

func (d *Digest) UnmarshalText(data []byte) error {
	v, err := strconv.ParseUint(string(data), 16, 64)
	if err != nil {
		return err
	}
	*d = Digest(v)
	return nil
}

type SchemaInfo struct {
	Name   string `json:"name"`
	Digest Digest `json:"digest"`
}

func ListSchemas(ctx *ApiContext) (interface{}, int) {
	names, err := ctx.Store.Schemas()
	if err != nil {
		panic(MapError("cannot list schemas", err))
	}
	list := make([]SchemaInfo, 0, len(names))
	for _, n := range names {
		d, err := ctx.Store.SchemaDigest(n)
		if err != nil {
			panic(MapError(fmt.Sprintf("schema '%s' has no digest", n), err))
		}
		list = append(list, SchemaInfo{Name: n, Digest: Digest(d)})
	}
	return list, http.StatusOK
}

type GetSchemaRequest struct {
	Format string `schema:"format"` // json, xml, binary, yaml, text or jsonschema
	Tags   string `schema:"tags"`   // comma separated tag filter
	Path   string `schema:"path"`   // sub-schema root
	Mode   string `schema:"mode"`   // access mode filter, e.g. INIT|WRITE
	Level  string `schema:"level"`  // highest visible access level
	State  string `schema:"state"`  // device state the elements are allowed in
}

func (a GetSchemaRequest) assemblyRules() (schema.AssemblyRules, bool) {
	if a.Mode == "" && a.Level == "" && a.State == "" {
		return schema.AssemblyRules{}, false
	}
	rules := schema.DefaultAssemblyRules
	var err error
	if a.Mode != "" {
		if rules.AccessMode, err = schema.ParseAccessMode(a.Mode); err != nil {
			panic(EBadRequest(EC_PARAM_INVALID, err.Error(), nil))
		}
	}
	if a.Level != "" {
		if rules.AccessLevel, err = schema.ParseAccessLevel(a.Level); err != nil {
			panic(EBadRequest(EC_PARAM_INVALID, err.Error(), nil))
		}
	}
	if a.State != "" {
		if rules.State, err = state.FromString(a.State); err != nil {
			panic(EBadRequest(EC_PARAM_INVALID, err.Error(), nil))
		}
	}
	return rules, true
}

func GetSchema(ctx *ApiContext) (interface{}, int) {
	args := &GetSchemaRequest{}
	ctx.ParseRequestArgs(args)
	name := mux.Vars(ctx.Request)["name"]
	sc, err := ctx.Store.Schema(name)
	if err != nil {
		panic(MapError(fmt.Sprintf("no schema '%s'", name), err))
	}
	if args.Path != "" {
		if sc, err = sc.SubSchema(args.Path); err != nil {
			panic(MapError(fmt.Sprintf("no path '%s' in schema '%s'", args.Path, name), err))
		}
	}
	if rules, ok := args.assemblyRules(); ok {
		sc = sc.SubSchemaByRules(rules)
	}
	if args.Tags != "" {
		sc = sc.FilterByTags(strings.Split(args.Tags, ",")...)
	}

	switch strings.ToLower(args.Format) {
	case "jsonschema":
		buf, err := sc.JSONSchema()
		if err != nil {
			panic(EInternal(EC_MARSHAL_FAILED, "cannot export JSON-Schema", err))
		}
		return &Payload{ContentType: "application/schema+json", Data: buf}, http.StatusOK
	case "text":
		buf, err := sc.MarshalText()
		if err != nil {
			panic(EInternal(EC_MARSHAL_FAILED, "cannot encode schema text", err))
		}
		return &Payload{ContentType: textContentType, Data: buf}, http.StatusOK
	case "binary":
		buf, err := sc.MarshalBinary()
		if err != nil {
			panic(EInternal(EC_MARSHAL_FAILED, "cannot encode schema", err))
		}
		return &Payload{ContentType: binaryContentType, Data: buf}, http.StatusOK
	default:
		return ctx.WriteHash(ctx.responseFormat(args.Format), sc.Hash())
	}
}

// PutSchema archives a schema under name. Binary and text bodies carry
// their own name which must match, other formats contain the descriptor
// Hash only.
func PutSchema(ctx *ApiContext) (interface{}, int) {
	name := mux.Vars(ctx.Request)["name"]
	sc, err := readSchema(ctx, name)
	if err != nil {
		panic(MapError(fmt.Sprintf("cannot decode schema '%s'", name), err))
	}
	if sc.Name() != name {
		panic(EBadRequest(EC_RESOURCE_ID_MALFORMED,
			fmt.Sprintf("body describes schema '%s', not '%s'", sc.Name(), name), nil))
	}
	d, err := ctx.Store.PutSchema(sc)
	if err != nil {
		panic(MapWriteError(fmt.Sprintf("cannot store schema '%s'", name), err, EC_RESOURCE_CREATE_FAILED))
	}
	return &SchemaInfo{Name: name, Digest: Digest(d)}, http.StatusCreated
}

func readSchema(ctx *ApiContext, name string) (*schema.Schema, error) {
	if mt, _, _ := mime.ParseMediaType(ctx.Request.Header.Get("Content-Type")); mt == "text/plain" {
		sc := schema.New("")
		return sc, sc.UnmarshalText(ctx.ReadBody())
	}
	f := ctx.requestFormat()
	buf := ctx.ReadBody()
	if f == FormatBinary {
		sc := schema.New("")
		return sc, sc.UnmarshalBinary(buf)
	}
	h, err := decodeHash(f, buf)
	if err != nil {
		return nil, err
	}
	return schema.FromHash(&hash.Schema{Name: name, Hash: h}), nil
}

func DeleteSchema(ctx *ApiContext) (interface{}, int) {
	name := mux.Vars(ctx.Request)["name"]
	if err := ctx.Store.DeleteSchema(name); err != nil {
		panic(MapWriteError(fmt.Sprintf("cannot delete schema '%s'", name), err, EC_RESOURCE_DELETE_FAILED))
	}
	return nil, http.StatusNoContent
}
