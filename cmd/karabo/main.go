// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"runtime/pprof"

	"github.com/echa/config"
)

func main() {
	if err := run(); err != nil {
		if err != errExit {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	}
}

func run() error {
	args, err := setup()
	if err != nil {
		return err
	}
	if len(args) < 1 {
		printUsage()
		return fmt.Errorf("command required")
	}
	log.Debugf("%s %s %s %s", company, appName, version, commit)
	log.Debugf("Go version %s on %d cores", runtime.Version(), maxcpu)
	startProfiling()
	defer stopProfiling()

	cmd, args := args[0], args[1:]
	switch cmd {
	case "convert":
		return runConvert(args)
	case "dump":
		return runDump(args)
	case "validate":
		return runValidate(args)
	case "archive":
		return runArchive(args)
	case "serve":
		return runServer()
	case "version":
		printVersion()
		return nil
	default:
		return fmt.Errorf("unknown command %s", cmd)
	}
}

func setup() ([]string, error) {
	args, err := parseFlags(os.Args[1:])
	if err != nil {
		return nil, err
	}
	initLogging()

	maxcpu = config.GetInt("go.cpu")
	if maxcpu <= 0 {
		maxcpu = runtime.NumCPU()
	}
	runtime.GOMAXPROCS(maxcpu)

	gogc := config.GetInt("go.gc")
	if gogc <= 0 {
		gogc = 20
	}
	debug.SetGCPercent(gogc)
	return args, nil
}

func startProfiling() {
	if r := config.GetInt("go.sample_rate"); r > 0 {
		runtime.SetMutexProfileFraction(r)
		runtime.SetBlockProfileRate(r)
	}
	if cpuprof != "" {
		f, err := os.Create(cpuprof)
		if err != nil {
			log.Errorf("cannot write cpu profile: %s", err)
		} else {
			log.Info("Profiling CPU usage.")
			_ = pprof.StartCPUProfile(f)
		}
	}
}

func stopProfiling() {
	if cpuprof != "" {
		pprof.StopCPUProfile()
		log.Infof("CPU profile written to %s", cpuprof)
	}
}
