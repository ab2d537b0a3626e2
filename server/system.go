// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package server

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/echa/config"
	logpkg "github.com/echa/log"
	"github.com/gorilla/mux"

	"github.com/European-XFEL/Karabo-sub007/store"
)

// LoggerMap lists the subsystem loggers that can be tuned at runtime.
var LoggerMap map[string]logpkg.Logger

func init() {
	register(SystemRequest{})
}

var _ RESTful = (*SystemRequest)(nil)

type SystemRequest struct{}

func (t SystemRequest) RESTPrefix() string {
	return "/system"
}

func (t SystemRequest) RegisterDirectRoutes(s *RestServer, r *mux.Router) error {
	return nil
}

func (t SystemRequest) RegisterRoutes(s *RestServer, r *mux.Router) error {
	r.HandleFunc("/stats", s.C(GetStats)).Methods("GET")
	r.HandleFunc("/config", s.C(GetSettings)).Methods("GET")
	r.HandleFunc("/log/{subsystem}/{level}", s.C(UpdateLog)).Methods("PUT")
	return nil
}

type SystemStats struct {
	Archive    store.Stats `json:"archive"`
	Path       string      `json:"path"`
	ReadOnly   bool        `json:"read_only"`
	Goroutines int         `json:"goroutines"`
	HeapAlloc  uint64      `json:"heap_alloc"`
	HeapSys    uint64      `json:"heap_sys"`
	NumGC      uint32      `json:"num_gc"`
}

func GetStats(ctx *ApiContext) (interface{}, int) {
	st, err := ctx.Store.Stats()
	if err != nil {
		panic(EInternal(EC_DATABASE, "cannot read archive stats", err))
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &SystemStats{
		Archive:    st,
		Path:       ctx.Store.Path(),
		ReadOnly:   ctx.Store.Options().ReadOnly,
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  m.HeapAlloc,
		HeapSys:    m.HeapSys,
		NumGC:      m.NumGC,
	}, http.StatusOK
}

func GetSettings(ctx *ApiContext) (interface{}, int) {
	return config.All(), http.StatusOK
}

func UpdateLog(ctx *ApiContext) (interface{}, int) {
	sub := mux.Vars(ctx.Request)["subsystem"]
	level := mux.Vars(ctx.Request)["level"]
	lvl := logpkg.ParseLevel(level)
	if lvl == logpkg.LevelInvalid {
		panic(EBadRequest(EC_PARAM_INVALID, fmt.Sprintf("undefined log level '%s'", level), nil))
	}
	var key string
	switch strings.ToLower(sub) {
	case "main":
		key = "MAIN"
	case "hash":
		key = "HASH"
	case "schema":
		key = "SCHM"
	case "database":
		key = "DATA"
	case "server":
		key = "API "
	default:
		panic(EBadRequest(EC_PARAM_INVALID, fmt.Sprintf("undefined subsystem '%s'", sub), nil))
	}
	logger, ok := LoggerMap[key]
	if !ok {
		panic(ENotFound(EC_RESOURCE_NOTFOUND, fmt.Sprintf("subsystem '%s' has no logger", sub), nil))
	}
	logger.SetLevel(lvl)
	return nil, http.StatusNoContent
}
