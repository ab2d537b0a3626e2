// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package server

import (
	"fmt"

	"github.com/gorilla/mux"

	"github.com/European-XFEL/Karabo-sub007/schema"
)

func init() {
	register(ValidateRequest{})
}

var _ RESTful = (*ValidateRequest)(nil)

type ValidateRequest struct{}

func (t ValidateRequest) RESTPrefix() string {
	return "/validate"
}

func (t ValidateRequest) RegisterDirectRoutes(s *RestServer, r *mux.Router) error {
	return nil
}

func (t ValidateRequest) RegisterRoutes(s *RestServer, r *mux.Router) error {
	r.HandleFunc("/{class}", s.C(Validate)).Methods("POST")
	return nil
}

// ValidateArgs override the server's validation rules per request.
type ValidateArgs struct {
	Unknown    string `schema:"unknown"`    // reject, pass or strip
	Partial    bool   `schema:"partial"`    // check a reconfiguration only
	Rooted     bool   `schema:"rooted"`     // require a single class root
	Timestamps bool   `schema:"timestamps"` // attach sec/frac/tid
}

func (a ValidateArgs) Rules(base schema.Rules) schema.Rules {
	r := base
	if a.Unknown != "" {
		p, err := schema.ParseUnknownKeyPolicy(a.Unknown)
		if err != nil {
			panic(EBadRequest(EC_PARAM_INVALID, err.Error(), nil))
		}
		r.UnknownKeys = p
	}
	if a.Partial {
		r.InjectDefaults = false
		r.AllowMissingKeys = true
	}
	if a.Rooted {
		r.AllowUnrootedConfiguration = false
	}
	if a.Timestamps {
		r.InjectTimestamps = true
	}
	return r
}

type ValidateConfigRequest struct {
	Format string `schema:"format"`
	Strict bool   `schema:"strict"` // check JSON input against the JSON-Schema first
	ValidateArgs
}

// Validate checks the request body against an archived schema and returns
// its canonical form. Nothing is stored.
func Validate(ctx *ApiContext) (interface{}, int) {
	args := &ValidateConfigRequest{}
	ctx.ParseRequestArgs(args)
	f := ctx.responseFormat(args.Format)
	class := mux.Vars(ctx.Request)["class"]
	sc, err := ctx.Store.Schema(class)
	if err != nil {
		panic(MapError(fmt.Sprintf("no schema '%s'", class), err))
	}

	in := ctx.requestFormat()
	buf := ctx.ReadBody()
	if args.Strict {
		if in != FormatJSON {
			panic(EBadRequest(EC_PARAM_NOTEXPECTED, "strict checks need a JSON body", nil))
		}
		if err := sc.ValidateJSON(buf); err != nil {
			panic(MapError("JSON-Schema check failed", err))
		}
	}
	h, err := decodeHash(in, buf)
	if err != nil {
		panic(MapError(fmt.Sprintf("cannot decode %s body", in), err))
	}

	rules := args.Rules(ctx.Cfg.Rules)
	out, err := schema.NewValidator(rules).ValidateAt(sc, h, timestampAt(ctx))
	if err != nil {
		panic(MapError(fmt.Sprintf("configuration does not match '%s'", class), err))
	}
	return ctx.WriteHash(f, out)
}

// timestampAt converts the request time into a Karabo timestamp with
// attosecond fractions.
func timestampAt(ctx *ApiContext) schema.Timestamp {
	return schema.Timestamp{
		Sec:  uint64(ctx.Now.Unix()),
		Frac: uint64(ctx.Now.Nanosecond()) * 1e9,
	}
}
