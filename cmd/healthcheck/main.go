package main

import (
	"encoding/json"
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"

	"FlashMonitor/internal/config"
	"FlashMonitor/internal/health"
)

type options struct {
	Config string `short:"c" long:"config" description:"Path to YAML configuration file"`
}

func main() {
	var opts options
	if _, err := goflags.Parse(&opts); err != nil {
		if goflags.WroteHelp(err) {
			return
		}
		os.Exit(2)
	}

	cfg := config.Load(opts.Config)
	report := health.Collect(cfg.Paths.LockFile(), cfg.Paths.StateFile())

	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal report:", err)
		os.Exit(1)
	}
	fmt.Println(string(raw))

	if !report.OK {
		os.Exit(1)
	}
}
