// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/echa/config"
)

var (
	flags   = flag.NewFlagSet(appName, flag.ContinueOnError)
	errExit = errors.New("exit")

	// general options
	verbose     bool
	vtrace      bool
	vdebug      bool
	maxcpu      int
	showVersion bool
	configFile  string
	nocolor     bool
	cpuprof     string

	// codec options
	fromFormat string
	toFormat   string
	outFile    string
	compact    bool

	// validation options
	schemaFile string
	className  string
	unknown    string
	partial    bool
	rooted     bool
	timestamps bool
	strict     bool

	// archive options
	prefix string
	cors   bool
)

func init() {
	flags.Usage = func() {}
	flags.BoolVar(&verbose, "v", false, "be verbose")
	flags.BoolVar(&vdebug, "vv", false, "debug mode")
	flags.BoolVar(&vtrace, "vvv", false, "trace mode")
	flags.BoolVar(&showVersion, "version", false, "show version")
	flags.StringVar(&configFile, "c", "config.json", "read config from `file`")
	flags.StringVar(&configFile, "config", "config.json", "read config from `file`")
	flags.BoolVar(&nocolor, "no-color", false, "disable color output")
	flags.StringVar(&cpuprof, "profile", "", "write cpu profile to `file`")

	flags.StringVar(&fromFormat, "from", "", "input `format` (json, xml, binary, yaml; default from file name)")
	flags.StringVar(&toFormat, "to", "", "output `format` (json, xml, binary, yaml; default from output name)")
	flags.StringVar(&outFile, "o", "", "write output to `file` instead of stdout")
	flags.BoolVar(&compact, "compact", false, "single line XML and JSON output")

	flags.StringVar(&schemaFile, "schema", "", "read schema from `file` (text or binary form)")
	flags.StringVar(&className, "class", "", "use archived schema `name`")
	flags.StringVar(&unknown, "unknown", "", "unknown key `policy` (reject, pass, strip)")
	flags.BoolVar(&partial, "partial", false, "validate a partial reconfiguration")
	flags.BoolVar(&rooted, "rooted", false, "require a single class root")
	flags.BoolVar(&timestamps, "timestamps", false, "attach timestamps to validated leaves")
	flags.BoolVar(&strict, "strict", false, "check JSON input against the JSON-Schema first")

	flags.StringVar(&prefix, "prefix", "", "list archived keys starting with `prefix`")
	flags.BoolVar(&cors, "enable-cors", false, "enable API CORS support")

	// go runtime
	config.SetDefault("go.cpu", 0)
	config.SetDefault("go.gc", 20)
	config.SetDefault("go.sample_rate", 0)

	// archive
	config.SetDefault("db.path", "./karabo.db")
	config.SetDefault("db.readonly", false)
	config.SetDefault("db.nosync", false)
	config.SetDefault("db.no_grow_sync", false)
	config.SetDefault("db.no_free_sync", false)
	config.SetDefault("db.page_size", os.Getpagesize())
	config.SetDefault("archive.compression", "lz4")
	config.SetDefault("archive.cache_size", 128)

	// validation
	config.SetDefault("validator.unknown_keys", "reject")
	config.SetDefault("validator.inject_defaults", true)
	config.SetDefault("validator.allow_missing_keys", false)
	config.SetDefault("validator.allow_unrooted", true)
	config.SetDefault("validator.inject_timestamps", false)

	// HTTP API server
	config.SetDefault("server.addr", "127.0.0.1")
	config.SetDefault("server.port", 8010)
	config.SetDefault("server.scheme", "http")
	config.SetDefault("server.host", "127.0.0.1")
	config.SetDefault("server.max_workers", 16)
	config.SetDefault("server.queue", 128)
	config.SetDefault("server.max_body_size", 32<<20)
	config.SetDefault("server.read_timeout", 5*time.Second)
	config.SetDefault("server.header_timeout", 2*time.Second)
	config.SetDefault("server.write_timeout", 90*time.Second)
	config.SetDefault("server.keepalive", 90*time.Second)
	config.SetDefault("server.shutdown_timeout", 15*time.Second)
	config.SetDefault("server.max_list_count", 50000)
	config.SetDefault("server.default_list_count", 500)
	config.SetDefault("server.cors_enable", false)
	config.SetDefault("server.cors_origin", "*")
	config.SetDefault("server.cors_allow_headers", strings.Join([]string{
		"Authorization",
		"Accept",
		"Content-Type",
		"X-Requested-With",
	}, ","))
	config.SetDefault("server.cors_expose_headers", strings.Join([]string{
		"Date",
		"X-Runtime",
		"X-Request-Id",
		"X-Api-Version",
	}, ","))
	config.SetDefault("server.cors_methods", "GET,PUT,POST,DELETE,OPTIONS")
	config.SetDefault("server.cors_maxage", "86400")
	config.SetDefault("server.cors_credentials", true)

	// logging
	config.SetDefault("log.level", "info")
	config.SetDefault("log.hash", "info")
	config.SetDefault("log.schema", "info")
	config.SetDefault("log.db", "info")
	config.SetDefault("log.api", "info")
}

func loadConfig() error {
	config.SetEnvPrefix(envprefix)
	if configFile != "" {
		config.SetConfigName(configFile)
	}
	realconf := config.ConfigName()
	if _, err := os.Stat(realconf); err == nil {
		if err := config.ReadConfigFile(); err != nil {
			return fmt.Errorf("reading config file %q: %v", realconf, err)
		}
		log.Infof("Using config file %s", realconf)
	} else {
		log.Debugf("Missing config file, using default values.")
	}
	return nil
}

func printUsage() {
	fmt.Printf("Usage: %s [flags] <cmd> [args]\n", appName)
	fmt.Println("\nCommands")
	fmt.Printf("  convert <file>               convert a Hash between json, xml, binary and yaml\n")
	fmt.Printf("  dump <file>                  print a Hash as colored tree\n")
	fmt.Printf("  validate <file>              validate a configuration against -schema or -class\n")
	fmt.Printf("  archive list                 list archived configurations\n")
	fmt.Printf("  archive get <key>            print an archived configuration\n")
	fmt.Printf("  archive put <key> <file>     archive a configuration (validated with -class)\n")
	fmt.Printf("  archive delete <key>         remove an archived configuration\n")
	fmt.Printf("  archive schemas              list archived schemas\n")
	fmt.Printf("  archive add-schema <file>    archive a schema\n")
	fmt.Printf("  archive drop-schema <name>   remove an archived schema\n")
	fmt.Printf("  archive stats                show archive statistics\n")
	fmt.Printf("  serve                        run the HTTP API\n")
	fmt.Printf("  version                      show version\n")
	fmt.Println("\nFlags")
	flags.PrintDefaults()
	fmt.Println("\nAny other -key=value flag overrides the matching config setting.")
}

type boolFlag interface {
	IsBoolFlag() bool
}

// splitArgs separates known flags, config overrides and positional
// arguments. Known non-boolean flags consume the next argument as value
// unless it is given inline. Overrides must use the -key=value form or
// are taken as boolean true.
func splitArgs(args []string) (known, extra, positional []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "-" || !strings.HasPrefix(arg, "-") {
			positional = append(positional, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if n := strings.IndexByte(name, '='); n >= 0 {
			name = name[:n]
		}
		f := flags.Lookup(name)
		if f == nil && name != "h" && name != "help" {
			extra = append(extra, arg)
			continue
		}
		known = append(known, arg)
		if f == nil || strings.Contains(arg, "=") {
			continue
		}
		if b, ok := f.Value.(boolFlag); ok && b.IsBoolFlag() {
			continue
		}
		if i+1 < len(args) {
			known = append(known, args[i+1])
			i++
		}
	}
	return
}

// parseOverride turns a -key=value argument into a config key and value.
func parseOverride(arg string) (string, any, error) {
	if !strings.HasPrefix(arg, "-") {
		return "", nil, fmt.Errorf("invalid flag %q: missing dash", arg)
	}
	key := strings.TrimLeft(arg, "-")
	if key == "" {
		return "", nil, fmt.Errorf("invalid flag %q", arg)
	}
	if k, v, ok := strings.Cut(key, "="); ok {
		return k, v, nil
	}
	return key, true, nil
}

func parseFlags(args []string) ([]string, error) {
	known, extra, positional := splitArgs(args)
	if err := flags.Parse(known); err != nil {
		if err == flag.ErrHelp {
			printUsage()
			return nil, errExit
		}
		return nil, err
	}

	if showVersion {
		printVersion()
		return nil, errExit
	}

	// load config file now (before applying extra CLI args so users can override
	// config file settings with cli args)
	if err := loadConfig(); err != nil {
		return nil, err
	}

	for _, arg := range extra {
		key, val, err := parseOverride(arg)
		if err != nil {
			return nil, err
		}
		log.Debugf("Flag %s=%v", key, val)
		config.Set(key, val)
	}
	return positional, nil
}
