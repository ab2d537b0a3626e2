// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/echa/config"

	"github.com/European-XFEL/Karabo-sub007/server"
)

func runServer() error {
	server.UserAgent = UserAgent()
	server.ApiVersion = apiVersion

	pathname := config.GetString("db.path")
	log.Infof("Using archive %s", pathname)
	if config.GetBool("db.nosync") {
		log.Warnf("Enabled NOSYNC mode. Archive will not be safe on crashes!")
	}
	if err := os.MkdirAll(filepath.Dir(pathname), 0700); err != nil {
		return err
	}
	db, err := openArchive(config.GetBool("db.readonly"))
	if err != nil {
		return err
	}
	defer db.Close()

	rules, err := validationRules()
	if err != nil {
		return err
	}

	srv, err := server.New(&server.Config{
		Store: db,
		Rules: rules,
		Http: server.HttpConfig{
			Addr:              config.GetString("server.addr"),
			Port:              config.GetInt("server.port"),
			Scheme:            config.GetString("server.scheme"),
			Host:              config.GetString("server.host"),
			MaxWorkers:        config.GetInt("server.max_workers"),
			MaxQueue:          config.GetInt("server.queue"),
			MaxBodySize:       config.GetInt64("server.max_body_size"),
			ReadTimeout:       config.GetDuration("server.read_timeout"),
			HeaderTimeout:     config.GetDuration("server.header_timeout"),
			WriteTimeout:      config.GetDuration("server.write_timeout"),
			KeepAlive:         config.GetDuration("server.keepalive"),
			ShutdownTimeout:   config.GetDuration("server.shutdown_timeout"),
			DefaultListCount:  config.GetUint("server.default_list_count"),
			MaxListCount:      config.GetUint("server.max_list_count"),
			CorsEnable:        cors || config.GetBool("server.cors_enable"),
			CorsOrigin:        config.GetString("server.cors_origin"),
			CorsAllowHeaders:  config.GetString("server.cors_allow_headers"),
			CorsExposeHeaders: config.GetString("server.cors_expose_headers"),
			CorsMethods:       config.GetString("server.cors_methods"),
			CorsMaxAge:        config.GetString("server.cors_maxage"),
			CorsCredentials:   config.GetString("server.cors_credentials"),
		},
	})
	if err != nil {
		return err
	}
	srv.Start()
	defer srv.Stop()

	c := make(chan os.Signal, 1)
	signal.Notify(c,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	<-c
	return nil
}
