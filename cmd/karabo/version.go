// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package main

import (
	"fmt"
	"runtime"
)

var (
	company           = "European XFEL GmbH"
	orgUrl            = "xfel.eu"
	appName           = "karabo"
	apiVersion        = "v1"
	version    string = "v1.0"
	commit     string = "dev"
	envprefix         = "KARABO"
)

func UserAgent() string {
	return fmt.Sprintf("%s.%s/%s.%s",
		appName,
		orgUrl,
		version,
		commit,
	)
}

func printVersion() {
	fmt.Printf("Karabo Core %s -- %s\n", version, commit)
	fmt.Printf("(c) Copyright 2024 -- %s\n", company)
	fmt.Printf("Go version (client): %s\n", runtime.Version())
}
