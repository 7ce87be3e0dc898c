package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/tileforge/internal/persistence"
	"github.com/talgya/tileforge/internal/preview"
	"github.com/talgya/tileforge/internal/region"
	"github.com/talgya/tileforge/internal/scenario"
	"github.com/talgya/tileforge/internal/terrain"
	"github.com/talgya/tileforge/internal/tile"
)

// loadConfig returns the scenario definition at path, or the built-in Gallic
// Wars set-up when path is empty.
func loadConfig(path string) (*scenario.Config, error) {
	if path == "" {
		return scenario.DefaultConfig(), nil
	}
	return scenario.LoadConfig(path)
}

func requireFlag(fs *flag.FlagSet, name, value string) error {
	if value == "" {
		fs.Usage()
		return tile.Configf(name, "-%s is required", name)
	}
	return nil
}

// output is one written document, ready for the ledger.
type output struct {
	kind   string
	gameID string
	input  string
	path   string
	grid   *tile.Grid
	cities int
	units  int
	data   []byte
	claims []scenario.Claim
}

// commit writes the document atomically, reports it and records it in the
// ledger. Ledger trouble is only a warning: the document is already on disk.
func commit(o output) error {
	if err := tile.WriteFile(o.path, o.data); err != nil {
		return err
	}
	sum := sha256.Sum256(o.data)
	digest := hex.EncodeToString(sum[:])

	slog.Info("document written",
		"kind", o.kind,
		"path", o.path,
		"grid", o.grid.String(),
		"size", humanize.Bytes(uint64(len(o.data))),
		"sha256", digest[:12],
	)

	dsn := envOrDefault("TILEFORGE_DB", "data/tileforge.db")
	if !strings.Contains(dsn, "://") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			slog.Warn("ledger directory unavailable", "error", err)
			return nil
		}
	}
	db, err := persistence.Open(dsn)
	if err != nil {
		slog.Warn("ledger unavailable, run not recorded", "error", err)
		return nil
	}
	defer db.Close()

	id, err := db.RecordRun(persistence.Run{
		Kind:   o.kind,
		GameID: o.gameID,
		Input:  o.input,
		Output: o.path,
		Width:  o.grid.Width,
		Height: o.grid.Height(),
		Tiles:  o.grid.Count(),
		Cities: o.cities,
		Units:  o.units,
		Bytes:  int64(len(o.data)),
		SHA256: digest,
	}, o.claims)
	if err != nil {
		slog.Warn("ledger write failed", "error", err)
		return nil
	}
	slog.Debug("run recorded", "run", id)
	return nil
}

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	in := fs.String("in", "", "editor export to read")
	out := fs.String("out", "", "document to write")
	cfgPath := fs.String("config", "", "scenario definition (JSON); default is the built-in set-up")
	bare := fs.Bool("bare", false, "mark boundary tiles and strip session tags (debug output)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag(fs, "in", *in); err != nil {
		return err
	}
	if err := requireFlag(fs, "out", *out); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	src, err := tile.ReadFile(*in)
	if err != nil {
		return err
	}
	g, st, err := region.Extract(src, cfg.Region)
	if err != nil {
		return err
	}
	slog.Info("region extracted", "bounds", cfg.Region.String(),
		"copied", humanize.Comma(int64(st.Copied)), "filled", st.Filled)

	if *bare {
		res, err := scenario.NewCompositor(cfg, scenario.ModeBare).Compose(g)
		if err != nil {
			return err
		}
		g = res.Grid
		slog.Info("boundary marked", "tiles", res.Stats.Boundary)
	}

	return commit(output{
		kind:  persistence.KindExtract,
		input: *in,
		path:  *out,
		grid:  g,
		data:  tile.Render(g, tile.WriteOptions{}),
	})
}

func runFreeze(args []string) error {
	fs := flag.NewFlagSet("freeze", flag.ContinueOnError)
	in := fs.String("in", "", "editor export to read")
	out := fs.String("out", "", "terrain baseline to write")
	cfgPath := fs.String("config", "", "scenario definition (JSON); default is the built-in set-up")
	canonical := fs.Bool("canonical", false, "write fields in canonical order")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag(fs, "in", *in); err != nil {
		return err
	}
	if err := requireFlag(fs, "out", *out); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	src, err := tile.ReadFile(*in)
	if err != nil {
		return err
	}
	g, _, err := region.Extract(src, cfg.Region)
	if err != nil {
		return err
	}
	res, err := scenario.NewCompositor(cfg, scenario.ModeTerrain).Compose(g)
	if err != nil {
		return err
	}
	slog.Info("terrain frozen",
		"overlays", res.Stats.Overlays,
		"removed", res.Stats.Removed,
		"stamps", res.Stats.Stamps,
	)

	return commit(output{
		kind:  persistence.KindFreeze,
		input: *in,
		path:  *out,
		grid:  res.Grid,
		data:  tile.Render(res.Grid, tile.WriteOptions{Canonical: *canonical}),
	})
}

func runScenario(args []string) error {
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)
	in := fs.String("in", "", "terrain baseline to read")
	out := fs.String("out", "", "scenario map to write")
	cfgPath := fs.String("config", "", "scenario definition (JSON); default is the built-in set-up")
	preamblePath := fs.String("preamble", "", "game-setup template; overrides the config")
	gameID := fs.String("game-id", "", "game id; a random UUID when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag(fs, "in", *in); err != nil {
		return err
	}
	if err := requireFlag(fs, "out", *out); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *preamblePath != "" {
		cfg.PreamblePath = *preamblePath
	}
	pre, err := scenario.LoadPreamble(cfg.PreamblePath)
	if err != nil {
		return err
	}

	g, err := tile.ReadFile(*in)
	if err != nil {
		return err
	}
	res, err := scenario.NewCompositor(cfg, scenario.ModeScenario).Compose(g)
	if err != nil {
		return err
	}
	doc, id, err := scenario.Document(cfg, pre, res, *gameID)
	if err != nil {
		return err
	}

	counts := res.Resolver.ClaimCounts()
	for cid, city := range cfg.Cities {
		slog.Info("city", "id", cid, "name", city.Name, "player", city.Player,
			"tile", city.Anchor().String(), "territory", counts[cid])
	}
	slog.Info("scenario composed",
		"game_id", id,
		"cities", res.Stats.Cities,
		"units", res.Stats.Units,
		"claimed", res.Stats.Claimed,
		"revealed", res.Stats.Revealed,
	)

	return commit(output{
		kind:   persistence.KindScenario,
		gameID: id,
		input:  *in,
		path:   *out,
		grid:   res.Grid,
		cities: cfg.CityCount(),
		units:  cfg.UnitCount(),
		data:   doc,
		claims: res.Claims,
	})
}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	out := fs.String("out", "", "terrain baseline to write")
	cfgPath := fs.String("config", "", "generator parameters (JSON) over the defaults")
	seed := fs.Int64("seed", 0, "noise seed; overrides the config when set")
	width := fs.Int("width", 0, "map width; overrides the config when set")
	height := fs.Int("height", 0, "map height; overrides the config when set")
	show := fs.Bool("preview", false, "print an ASCII minimap of the result")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag(fs, "out", *out); err != nil {
		return err
	}

	cfg := terrain.DefaultGenConfig()
	if *cfgPath != "" {
		data, err := os.ReadFile(*cfgPath)
		if err != nil {
			return fmt.Errorf("read generator config: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse generator config: %w", err)
		}
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *width != 0 {
		cfg.Width = *width
	}
	if *height != 0 {
		cfg.Height = *height
	}

	m, err := terrain.Generate(cfg)
	if err != nil {
		return err
	}
	counts := m.TerrainCounts()
	tokens := make([]string, 0, len(counts))
	for t := range counts {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	for _, t := range tokens {
		slog.Info("terrain", "type", t, "count", counts[t])
	}
	for _, s := range m.Sites {
		slog.Info("city site", "name", s.Name, "at", s.At.String(), "score", fmt.Sprintf("%.2f", s.Score))
	}

	g := m.Grid()
	if *show {
		fmt.Print(preview.ASCII(g))
	}
	return commit(output{
		kind:  persistence.KindGenerate,
		input: fmt.Sprintf("seed:%d", m.Seed),
		path:  *out,
		grid:  g,
		data:  tile.Render(g, tile.WriteOptions{}),
	})
}

func runPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	in := fs.String("in", "", "document to preview")
	pngPath := fs.String("png", "", "also render a PNG to this path")
	cell := fs.Int("cell", preview.DefaultCellSize, "PNG pixels per tile")
	cfgPath := fs.String("config", "", "scenario definition whose city names label the PNG")
	copyText := fs.Bool("copy", false, "copy the ASCII minimap to the clipboard")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag(fs, "in", *in); err != nil {
		return err
	}

	g, err := tile.ReadFile(*in)
	if err != nil {
		return err
	}
	text := preview.ASCII(g)
	fmt.Print(text)

	if *copyText {
		if err := preview.CopyToClipboard(text); err != nil {
			slog.Warn("clipboard copy failed", "error", err)
		} else {
			slog.Info("minimap copied to clipboard")
		}
	}

	if *pngPath == "" {
		return nil
	}
	var labels []preview.Label
	if *cfgPath != "" {
		cfg, err := scenario.LoadConfig(*cfgPath)
		if err != nil {
			return err
		}
		for _, c := range cfg.Cities {
			labels = append(labels, preview.Label{X: c.X, Y: c.Y, Text: c.Name})
		}
	}

	f, err := os.Create(*pngPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", *pngPath, err)
	}
	if err := preview.WritePNG(f, preview.Render(g, labels, *cell)); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("preview rendered", "path", *pngPath)
	return nil
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("n", 20, "number of runs to list")
	claims := fs.Int64("claims", 0, "list the territory claims of this run id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := persistence.Open(envOrDefault("TILEFORGE_DB", "data/tileforge.db"))
	if err != nil {
		return err
	}
	defer db.Close()

	if *claims != 0 {
		list, err := db.Claims(*claims)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return errors.New("no claims recorded for that run")
		}
		for _, c := range list {
			fmt.Printf("tile %5d  city %d\n", c.TileID, c.CityID)
		}
		return nil
	}

	runs, err := db.RecentRuns(*limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%4d  %-8s  %-14s  %3dx%-3d  %8s  %s  %s -> %s\n",
			r.ID, r.Kind, humanize.Time(r.CreatedAt), r.Width, r.Height,
			humanize.Bytes(uint64(r.Bytes)), r.SHA256[:min(12, len(r.SHA256))],
			r.Input, r.Output)
	}
	return nil
}
