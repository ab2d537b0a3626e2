// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package main

import (
	"os"

	"github.com/echa/config"
	logpkg "github.com/echa/log"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/schema"
	"github.com/European-XFEL/Karabo-sub007/server"
	"github.com/European-XFEL/Karabo-sub007/store"
)

var (
	log     = logpkg.NewLogger("MAIN") // main program
	hashLog = logpkg.NewLogger("HASH") // containers and codecs
	schmLog = logpkg.NewLogger("SCHM") // schema and validator
	dataLog = logpkg.NewLogger("DATA") // archive
	srvrLog = logpkg.NewLogger("API ") // api server
)

func init() {
	config.SetDefault("log.backend", "stdout")
	config.SetDefault("log.flags", "date,time,micro,utc")

	hash.UseLogger(hashLog)
	schema.UseLogger(schmLog)
	store.UseLogger(dataLog)
	server.UseLogger(srvrLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]logpkg.Logger{
	"MAIN": log,
	"HASH": hashLog,
	"SCHM": schmLog,
	"DATA": dataLog,
	"API ": srvrLog,
}

func initLogging() {
	cfg := logpkg.NewConfig()
	cfg.Level = logpkg.ParseLevel(config.GetString("log.level"))
	cfg.Flags = logpkg.ParseFlags(config.GetString("log.flags"))
	cfg.Backend = config.GetString("log.backend")
	cfg.Filename = config.GetString("log.filename")
	cfg.Addr = config.GetString("log.syslog.address")
	cfg.Facility = config.GetString("log.syslog.facility")
	cfg.Ident = config.GetString("log.syslog.ident")
	cfg.FileMode = os.FileMode(config.GetInt("log.filemode"))
	logpkg.Init(cfg)

	log = logpkg.NewLogger("MAIN")
	hashLog = logpkg.NewLogger("HASH")
	hashLog.SetLevel(logpkg.ParseLevel(config.GetString("log.hash")))
	schmLog = logpkg.NewLogger("SCHM")
	schmLog.SetLevel(logpkg.ParseLevel(config.GetString("log.schema")))
	dataLog = logpkg.NewLogger("DATA")
	dataLog.SetLevel(logpkg.ParseLevel(config.GetString("log.db")))
	srvrLog = logpkg.NewLogger("API ")
	srvrLog.SetLevel(logpkg.ParseLevel(config.GetString("log.api")))

	hash.UseLogger(hashLog)
	schema.UseLogger(schmLog)
	store.UseLogger(dataLog)
	server.UseLogger(srvrLog)

	subsystemLoggers = map[string]logpkg.Logger{
		"MAIN": log,
		"HASH": hashLog,
		"SCHM": schmLog,
		"DATA": dataLog,
		"API ": srvrLog,
	}

	// export to server for http control
	server.LoggerMap = subsystemLoggers

	switch {
	case vtrace:
		setLogLevels(logpkg.LevelTrace)
	case vdebug:
		setLogLevels(logpkg.LevelDebug)
	case verbose:
		setLogLevels(logpkg.LevelInfo)
	}
}

// setLogLevel sets the logging level for provided subsystem. Invalid
// subsystems are ignored.
func setLogLevel(subsystemID string, level logpkg.Level) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}
	logger.SetLevel(level)
}

func setLogLevels(level logpkg.Level) {
	for subsystemID := range subsystemLoggers {
		setLogLevel(subsystemID, level)
	}
}
