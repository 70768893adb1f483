// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/zupt_displacement/internal/app"
	"github.com/relabs-tech/zupt_displacement/internal/config"
)

func main() {
	configPath := flag.String("config", "zupt_config.txt", "path to KEY=VALUE config file")
	plotDir := flag.String("plot-dir", "", "write one PNG report per recording into this directory")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("usage: %s [-config file] [-plot-dir dir] recording.csv...", os.Args[0])
	}

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if _, err := app.RunReplay(flag.Args(), config.Get().Estimator, *plotDir); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
