// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package server

import (
	"expvar"
	"net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
)

var formDecoder = schema.NewDecoder()

func init() {
	// configure schema (URL parameter) decoding
	formDecoder.IgnoreUnknownKeys(true)
	formDecoder.ZeroEmpty(true)
}

type RESTful interface {
	RESTPrefix() string
	RegisterRoutes(s *RestServer, r *mux.Router) error
	RegisterDirectRoutes(s *RestServer, r *mux.Router) error
}

var models = map[string]RESTful{}

func register(model RESTful) {
	models[model.RESTPrefix()] = model
}

// NewRouter builds the API router with support for HTTP OPTIONS.
func (s *RestServer) NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)

	router.PathPrefix("/").HandlerFunc(s.C(StateOptions)).Methods("OPTIONS")

	for _, m := range models {
		if err := m.RegisterDirectRoutes(s, router); err != nil {
			log.Fatalf("API cannot register %s route: %v", m.RESTPrefix(), err)
		}
		if err := m.RegisterRoutes(s, router.PathPrefix(m.RESTPrefix()).Subrouter()); err != nil {
			log.Fatalf("API cannot register %s subroutes: %v", m.RESTPrefix(), err)
		}
	}

	// register debug routes directly (i.e. without going through dispatcher)
	log.Debugf("Registering debug routes")
	router.HandleFunc("/debug/pprof/", pprof.Index)
	router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("/debug/pprof/profile", pprof.Profile)
	router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("/debug/pprof/trace", pprof.Trace)
	router.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	router.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	router.Handle("/debug/pprof/allocs", pprof.Handler("allocs"))
	router.PathPrefix("/debug/vars").Handler(expvar.Handler())

	router.PathPrefix("/").HandlerFunc(s.C(NotFound))

	return router
}
