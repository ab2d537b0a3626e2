// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func init() {
	register(Pinger{})
}

var _ RESTful = (*Pinger)(nil)

type Pinger struct {
	Sequence   int64  `json:"sequence"`
	RequestAt  int64  `json:"client_time"` // whatever client sends
	ResponseAt int64  `json:"server_time"` // unix nanosec
	Server     string `json:"server,omitempty"`
	ApiVersion string `json:"api_version,omitempty"`
	ReadOnly   bool   `json:"read_only"`
}

func (p Pinger) RESTPrefix() string {
	return "/ping"
}

func (p Pinger) RegisterDirectRoutes(s *RestServer, r *mux.Router) error {
	r.HandleFunc(p.RESTPrefix(), s.C(Ping)).Methods("GET")
	return nil
}

func (p Pinger) RegisterRoutes(s *RestServer, r *mux.Router) error {
	return nil
}

type PingRequest struct {
	Sequence  int64 `schema:"sequence"`
	RequestAt int64 `schema:"client_time"`
}

func Ping(ctx *ApiContext) (interface{}, int) {
	args := &PingRequest{}
	ctx.ParseRequestArgs(args)
	if ctx.Server.IsShutdown() {
		panic(EServiceUnavailable(EC_SERVER, "shutting down", nil))
	}
	resp := &Pinger{
		Sequence:   args.Sequence,
		RequestAt:  args.RequestAt,
		ResponseAt: ctx.Now.UnixNano(),
		Server:     UserAgent,
		ApiVersion: ApiVersion,
		ReadOnly:   ctx.Store.Options().ReadOnly,
	}
	return resp, http.StatusOK
}
