// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/store"
)

func init() {
	register(ConfigRequest{})
}

var _ RESTful = (*ConfigRequest)(nil)

type ConfigRequest struct{}

func (t ConfigRequest) RESTPrefix() string {
	return "/configs"
}

func (t ConfigRequest) RegisterDirectRoutes(s *RestServer, r *mux.Router) error {
	r.HandleFunc(t.RESTPrefix(), s.C(ListConfigs)).Methods("GET")
	return nil
}

func (t ConfigRequest) RegisterRoutes(s *RestServer, r *mux.Router) error {
	r.HandleFunc("/{key:.+}", s.C(GetConfig)).Methods("GET")
	r.HandleFunc("/{key:.+}", s.C(PutConfig)).Methods("PUT")
	r.HandleFunc("/{key:.+}", s.C(DeleteConfig)).Methods("DELETE")
	return nil
}

type ListConfigsRequest struct {
	Prefix string `schema:"prefix"`
	Limit  uint   `schema:"limit"`
	Offset uint   `schema:"offset"`
}

func ListConfigs(ctx *ApiContext) (interface{}, int) {
	args := &ListConfigsRequest{}
	ctx.ParseRequestArgs(args)
	list, err := ctx.Store.List(args.Prefix)
	if err != nil {
		panic(MapError("cannot list configurations", err))
	}
	if args.Offset >= uint(len(list)) {
		return []*store.Info{}, http.StatusOK
	}
	list = list[args.Offset:]
	if n := ctx.Cfg.ClampList(args.Limit); n < uint(len(list)) {
		list = list[:n]
	}
	return list, http.StatusOK
}

type GetConfigRequest struct {
	Format string `schema:"format"`
	Stat   bool   `schema:"stat"`
}

func configKey(ctx *ApiContext) string {
	key := mux.Vars(ctx.Request)["key"]
	if key == "" {
		panic(EBadRequest(EC_RESOURCE_ID_MISSING, "missing configuration key", nil))
	}
	return key
}

func GetConfig(ctx *ApiContext) (interface{}, int) {
	args := &GetConfigRequest{}
	ctx.ParseRequestArgs(args)
	key := configKey(ctx)
	if args.Stat {
		info, err := ctx.Store.Stat(key)
		if err != nil {
			panic(MapError(fmt.Sprintf("no configuration '%s'", key), err))
		}
		return info, http.StatusOK
	}
	f := ctx.responseFormat(args.Format)
	h, err := ctx.Store.Config(key)
	if err != nil {
		panic(MapError(fmt.Sprintf("no configuration '%s'", key), err))
	}
	return ctx.WriteHash(f, h)
}

// PutConfigRequest selects the schema a configuration is validated
// against before it is archived. Without a class the body is stored as is.
type PutConfigRequest struct {
	Class string `schema:"class"`
	ValidateArgs
}

func PutConfig(ctx *ApiContext) (interface{}, int) {
	args := &PutConfigRequest{}
	ctx.ParseRequestArgs(args)
	key := configKey(ctx)
	h := ctx.ReadHash()

	var (
		info *store.Info
		err  error
	)
	if args.Class == "" {
		info, err = ctx.Store.PutConfig(key, h)
	} else {
		var out *hash.Hash
		out, info, err = ctx.Store.PutValidated(key, args.Class, h, args.Rules(ctx.Cfg.Rules))
		if err == nil {
			ctx.Log.Debugf("Validated %s against %s: %d paths", key, args.Class, len(out.Paths()))
		}
	}
	if err != nil {
		panic(MapWriteError(fmt.Sprintf("cannot store configuration '%s'", key), err, EC_RESOURCE_CREATE_FAILED))
	}
	return info, http.StatusCreated
}

func DeleteConfig(ctx *ApiContext) (interface{}, int) {
	key := configKey(ctx)
	if err := ctx.Store.DeleteConfig(key); err != nil {
		panic(MapWriteError(fmt.Sprintf("cannot delete configuration '%s'", key), err, EC_RESOURCE_DELETE_FAILED))
	}
	return nil, http.StatusNoContent
}
