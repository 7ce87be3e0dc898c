// Command tileforge builds Old World scenario maps for the Gallic Wars
// chapters: region extraction from an editor export, the frozen terrain
// baseline, full scenario documents, procedural baselines and previews.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/talgya/tileforge/internal/tile"
)

const usage = `usage: tileforge <command> [flags]

commands:
  extract    cut the scenario region out of an editor export
  freeze     extract and write the terrain-only baseline
  scenario   compose cities, units and territory over a terrain baseline
  generate   write a procedural terrain baseline
  preview    print an ASCII minimap, optionally render a PNG
  history    list recent runs from the ledger

environment:
  TILEFORGE_DB         ledger database (default data/tileforge.db, or postgres://...)
  TILEFORGE_LOG_LEVEL  debug|info|warn|error (default info)
`

func main() {
	setupLogging()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	commands := map[string]func([]string) error{
		"extract":  runExtract,
		"freeze":   runFreeze,
		"scenario": runScenario,
		"generate": runGenerate,
		"preview":  runPreview,
		"history":  runHistory,
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		if os.Args[1] != "-h" && os.Args[1] != "help" {
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		}
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := cmd(os.Args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error(os.Args[1]+" failed", "error", err)
		os.Exit(exitCode(err))
	}
}

// setupLogging installs a text handler on terminals and JSON otherwise.
func setupLogging() {
	opts := &slog.HandlerOptions{Level: parseLevel(envOrDefault("TILEFORGE_LOG_LEVEL", "info"))}
	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// exitCode maps the error taxonomy onto distinct exit statuses.
func exitCode(err error) int {
	var fe *tile.FormatError
	var me *tile.MissingTileError
	var ce *tile.ConfigurationError
	switch {
	case errors.As(err, &ce):
		return 3
	case errors.As(err, &fe):
		return 4
	case errors.As(err, &me):
		return 5
	default:
		return 1
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
