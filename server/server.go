// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

// Package server exposes archived configurations and schemas over HTTP
// and validates configurations on request.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	logpkg "github.com/echa/log"
	"github.com/gorilla/mux"
)

type RestServer struct {
	router     *mux.Router
	srv        *http.Server
	dispatcher *Dispatcher
	cfg        *Config
	shutdown   atomic.Bool
}

var (
	UserAgent  = "Karabo-Archive/1.0"
	ApiVersion = "v1"
	debugHttp  bool
)

func New(cfg *Config) (*RestServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("server archive required")
	}

	if err := cfg.Http.Check(); err != nil {
		return nil, err
	}

	debugHttp = log.Level() == logpkg.LevelTrace

	s := &RestServer{
		cfg:        cfg,
		dispatcher: NewDispatcher(cfg.Http.MaxWorkers, cfg.Http.MaxQueue),
	}

	// setup router
	s.router = s.NewRouter()
	s.router.NotFoundHandler = s.C(NotFound)

	// setup HTTP/2 server to support HTTP/1.1 and HTTP/2.0
	h2s := &http2.Server{
		MaxHandlers: cfg.Http.MaxWorkers,
		IdleTimeout: cfg.Http.KeepAlive,
	}

	// configure the server, allowing non-TLS HTTP/2.0 a.k.a h2c conns
	// make timeout a bit longer to have headroom for returning 504 errors
	s.srv = &http.Server{
		Addr:              cfg.Http.Address(),
		Handler:           h2c.NewHandler(s.router, h2s),
		ReadHeaderTimeout: cfg.Http.HeaderTimeout,
		ReadTimeout:       cfg.Http.ReadTimeout,
		WriteTimeout:      cfg.Http.WriteTimeout + time.Second,
		IdleTimeout:       cfg.Http.KeepAlive,
		ErrorLog:          log.Logger(),
	}
	return s, nil
}

// Handler returns the root handler, used for embedding and tests.
func (s *RestServer) Handler() http.Handler {
	return s.srv.Handler
}

func (s *RestServer) IsShutdown() bool {
	return s.shutdown.Load()
}

// Run starts the worker pool without listening, for use with Handler.
func (s *RestServer) Run() {
	s.dispatcher.Run()
}

func (s *RestServer) Start() {
	s.Run()
	go func() {
		log.Info("Starting HTTP server at ", s.cfg.Http.Address())
		if err := s.srv.ListenAndServe(); err != nil {
			if !s.IsShutdown() {
				log.Fatal(err)
			}
		}
	}()
}

func (s *RestServer) Stop() {
	log.Info("Stopping HTTP server.")
	s.shutdown.Store(true)
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Http.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Error(err)
	}
	s.dispatcher.Stop()
}

func NotFound(ctx *ApiContext) (interface{}, int) {
	r := ctx.Request
	s := fmt.Sprintf("Unrecognized request URL (%s: %s).", r.Method, r.URL.Path)
	panic(ENotFound(EC_NO_ROUTE, s, nil))
}

// Respond to requests with the OPTIONS Method.
func StateOptions(ctx *ApiContext) (interface{}, int) {
	// headers are set by the response writer
	return nil, http.StatusOK
}

// C wraps an API call into an HTTP handler that runs on the worker pool.
func (s *RestServer) C(f ApiCall) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			ctx    context.Context
			cancel context.CancelFunc
		)

		// use configured request timeout as default
		timeout := s.cfg.Http.WriteTimeout

		// skip timeout on internal routes /debug and /system
		if strings.HasPrefix(r.URL.Path, "/") {
			switch strings.Split(r.URL.Path, "/")[1] {
			case "system", "debug":
				timeout = 0
			}
		}

		if timeout > 0 {
			ctx, cancel = context.WithTimeout(r.Context(), timeout)
		} else {
			ctx, cancel = context.WithCancel(r.Context())
		}
		defer cancel()

		api := NewContext(ctx, r, w, f, s)

		// schedule call processing, will return 429 on full queue
		if s.dispatcher.Submit(api) {
			// wait until request is finished, otherwise go's http handler returns 200 OK
			<-api.done
		} else {
			api.handleError(ETooManyRequests(EC_ACCESS_RATE_LIMITED, "too many concurrent requests", nil))
			api.sendResponse()
		}
	}
}
