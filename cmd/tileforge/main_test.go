package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/tileforge/internal/persistence"
	"github.com/talgya/tileforge/internal/tile"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{tile.Configf("y_min", "odd"), 3},
		{fmt.Errorf("parse: %w", &tile.FormatError{Reason: "bad"}), 4},
		{fmt.Errorf("compose: %w", &tile.MissingTileError{ID: 3}), 5},
		{errors.New("disk full"), 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestPipeline_ExtractFreezeScenario(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TILEFORGE_DB", filepath.Join(dir, "ledger.db"))

	src := filepath.Join(dir, "export.xml")
	doc := "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<Root MapWidth=\"2\">\n" +
		"  <Tile ID=\"0\">\n    <Terrain>TERRAIN_LUSH</Terrain>\n  </Tile>\n</Root>\n"
	if err := os.WriteFile(src, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	bare := filepath.Join(dir, "bare.xml")
	if err := runExtract([]string{"-in", src, "-out", bare, "-bare"}); err != nil {
		t.Fatalf("extract: %v", err)
	}
	g, err := tile.ReadFile(bare)
	if err != nil {
		t.Fatalf("read bare: %v", err)
	}
	if g.Width != 23 || g.Count() != 23*29 {
		t.Fatalf("bare grid = %s", g)
	}
	if v, _ := g.Attr("MapEdgesSafe"); v != "True" {
		t.Fatal("bare document lacks MapEdgesSafe")
	}

	frozen := filepath.Join(dir, "terrain.xml")
	if err := runFreeze([]string{"-in", src, "-out", frozen}); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	out := filepath.Join(dir, "scenario.xml")
	if err := runScenario([]string{"-in", frozen, "-out", out, "-game-id", "test-game"}); err != nil {
		t.Fatalf("scenario: %v", err)
	}
	data, err := tile.ReadDocument(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `GameId="test-game"`) {
		t.Fatal("scenario document lacks the game id")
	}

	db, err := persistence.Open(filepath.Join(dir, "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	runs, err := db.RecentRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("ledger has %d runs, want 3", len(runs))
	}
	if runs[0].Kind != persistence.KindScenario || runs[0].GameID != "test-game" || runs[0].Cities != 4 {
		t.Fatalf("latest run = %+v", runs[0])
	}
	claims, err := db.Claims(runs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(claims) == 0 {
		t.Fatal("scenario run recorded no claims")
	}
}

func TestRunGenerate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TILEFORGE_DB", filepath.Join(dir, "ledger.db"))
	out := filepath.Join(dir, "gen.xml")

	if err := runGenerate([]string{"-out", out, "-width", "16", "-height", "12", "-seed", "7"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	g, err := tile.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.CheckDense("generated"); err != nil {
		t.Fatal(err)
	}
	if g.Width != 16 || g.Height() != 12 {
		t.Fatalf("grid = %s", g)
	}

	if err := runPreview([]string{"-in", out, "-png", filepath.Join(dir, "gen.png")}); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "gen.png")); err != nil {
		t.Fatalf("png not written: %v", err)
	}
	if err := runHistory(nil); err != nil {
		t.Fatalf("history: %v", err)
	}
}

func TestRequiredFlags(t *testing.T) {
	err := runFreeze([]string{"-out", "x.xml"})
	var ce *tile.ConfigurationError
	if !errors.As(err, &ce) || ce.Field != "in" {
		t.Fatalf("err = %v, want missing -in", err)
	}
}
