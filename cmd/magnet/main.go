// Package main is the entry point for the magnet CLI.
//
// magnet boots groups of cloud instances whose names share a prefix,
// registers them in DNS, converges them with chef-client and tears the
// whole group down again, including DNS records, Chef registrations and
// object-storage buckets.
//
// Commands: boot, delete, probe, list, version.
//
// For detailed usage information, run:
//
//	magnet --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/magnet/cmd/magnet/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
