// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Strongroom.
//
// Usage:
//
//	go run . [flags]
//	./strongroom [flags]
//
// This launches the Strongroom CLI. See --help for options.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/strongroom-io/strongroom/ui/cli"
)

// version is set at build time using -ldflags, e.g.:
// go build -ldflags "-X main.version=1.2.3"
var version = "dev"

func main() {
	if os.Getenv("STRONGROOM_SHOW_VERSION") == "1" {
		fmt.Fprintf(os.Stderr, "Strongroom version: %s\n", version)
	}

	if err := cli.Execute(); err != nil {
		log.Printf("Strongroom CLI error: %v", err)
		os.Exit(1)
	}
}
