// Command grace generates a Rust domain module and its ObjectStore from a
// model document.
//
//	grace generate --target src/domain/pets --module domain::pets models/pets.yaml
//
// Release builds inject the version and build time:
//
//	go build -ldflags "-X main.version=v1.2.0 -X main.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/grace
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/syssam/grace/internal/cli"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out, errOut io.Writer, args []string) error {
	info, err := buildInfo()
	if err != nil {
		return err
	}
	return cli.Run(ctx, args, out, errOut, info)
}

// buildInfo returns the injected version and build time. Without an
// injected time the VCS commit time recorded by the toolchain is used.
func buildInfo() (cli.BuildInfo, error) {
	info := cli.BuildInfo{Version: version}
	if buildTime != "" {
		t, err := time.Parse(time.RFC3339, buildTime)
		if err != nil {
			return info, fmt.Errorf("invalid build time %q: %w", buildTime, err)
		}
		info.Time = t
		return info, nil
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info, nil
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.time" {
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
				info.Time = t
			}
		}
	}
	return info, nil
}
