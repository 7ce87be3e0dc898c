package scenario

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/talgya/tileforge/internal/tile"
	"github.com/talgya/tileforge/internal/world"
)

// Mode selects which layers the compositor applies.
type Mode int

const (
	// ModeTerrain produces the frozen terrain baseline: drop list, legacy
	// site removal, improvement overlays and stamps. No session state.
	ModeTerrain Mode = iota
	// ModeBare copies the terrain and marks boundary tiles. Debug output.
	ModeBare
	// ModeScenario applies every layer: cities, units, territory,
	// revelation and the per-tile trailer.
	ModeScenario
)

func (m Mode) String() string {
	switch m {
	case ModeTerrain:
		return "terrain"
	case ModeBare:
		return "bare"
	case ModeScenario:
		return "scenario"
	default:
		return "unknown"
	}
}

// Tags written by the scenario layer.
const (
	tagRevealedCityTerritory = "RevealedCityTerritory"
	tagRevealed              = "Revealed"
	tagRevealedCity          = "RevealedCity"
	tagRevealedTerrain       = "RevealedTerrain"
	tagRevealedTurn          = "RevealedTurn"
	tagCityTerritory         = "CityTerritory"
	tagOrigUrbanOwner        = "OrigUrbanOwner"
	tagReligion              = "Religion"
	tagTeam                  = "Team"
	tagUnit                  = "Unit"
)

// Stats counts what a composition changed.
type Stats struct {
	Tiles        int
	Boundary     int
	Cities       int
	Units        int
	Overlays     int
	Removed      int
	Stamps       int
	Claimed      int
	Revealed     int
	Improvements int
}

// Result is a composed grid plus the territory it resolved.
type Result struct {
	Grid     *tile.Grid
	Claims   []Claim
	Resolver *Resolver
	Stats    Stats
}

// Compositor layers a Config over terrain grids.
type Compositor struct {
	cfg  *Config
	mode Mode

	drop     map[string]bool
	overlays map[int]string
	removals map[int]bool
	stamps   map[int][]Stamp
}

// NewCompositor returns a compositor for cfg. The config is read, never
// modified.
func NewCompositor(cfg *Config, mode Mode) *Compositor {
	c := &Compositor{cfg: cfg, mode: mode, drop: make(map[string]bool, len(cfg.Drop))}
	for _, tag := range cfg.Drop {
		c.drop[tag] = true
	}
	return c
}

// Compose builds the output grid. The configuration is validated and the
// terrain checked for gaps before any record is produced; a terrain gap is
// reported as *tile.MissingTileError.
func (c *Compositor) Compose(terrain *tile.Grid) (*Result, error) {
	dims := terrain.Dims()
	if err := c.cfg.Validate(dims); err != nil {
		return nil, err
	}
	if err := terrain.CheckDense("terrain"); err != nil {
		return nil, fmt.Errorf("compose %s: %w", c.mode, err)
	}
	c.index(dims)

	res := &Result{Grid: tile.NewGrid(dims.Width, dims.Count())}
	if c.mode == ModeBare {
		res.Grid.SetAttr("MapEdgesSafe", "True")
	}
	if c.mode == ModeScenario {
		res.Resolver = NewResolver(c.cfg, dims)
		res.Claims = res.Resolver.Claims()
	}

	for id := 0; id < dims.Count(); id++ {
		src, ok := terrain.Get(id)
		if !ok {
			// CheckDense above makes this unreachable.
			x, y := dims.Coords(id)
			return nil, &tile.MissingTileError{ID: id, X: x, Y: y, Layer: "terrain"}
		}
		rec := c.composeTile(src, dims, res.Resolver, &res.Stats)
		res.Grid.Set(rec)
	}

	res.Stats.Tiles = dims.Count()
	res.Stats.Claimed = len(res.Claims)
	slog.Debug("composed grid", "mode", c.mode.String(), "dims", dims.String(),
		"boundary", res.Stats.Boundary, "overlays", res.Stats.Overlays,
		"removed", res.Stats.Removed, "claimed", res.Stats.Claimed,
		"revealed", res.Stats.Revealed)
	return res, nil
}

func (c *Compositor) index(dims world.Dims) {
	c.overlays = make(map[int]string, len(c.cfg.Improvements))
	for _, o := range c.cfg.Improvements {
		c.overlays[dims.ID(o.X, o.Y)] = o.Improvement
	}
	c.removals = make(map[int]bool, len(c.cfg.RemoveSites))
	for _, p := range c.cfg.RemoveSites {
		c.removals[dims.ID(p.X, p.Y)] = true
	}
	c.stamps = make(map[int][]Stamp, len(c.cfg.Stamps))
	for _, s := range c.cfg.Stamps {
		id := dims.ID(s.X, s.Y)
		c.stamps[id] = append(c.stamps[id], s)
	}
}

func (c *Compositor) composeTile(src *tile.Record, dims world.Dims, res *Resolver, st *Stats) *tile.Record {
	id := src.ID
	x, y := dims.Coords(id)
	boundary := dims.IsBoundary(x, y, c.cfg.BoundaryMargin)

	// Source fields in order, minus the drop list.
	rec := tile.NewRecord(id)
	for _, f := range src.Clone().Fields {
		if !c.drop[f.Tag] {
			rec.Append(f)
		}
	}

	if c.mode == ModeBare {
		if boundary {
			c.markBoundary(rec)
			st.Boundary++
		}
		return rec
	}

	var (
		cityID = -1
		city   CityDefinition
	)
	if c.mode == ModeScenario {
		if cid, def, ok := res.CityAt(id); ok {
			cityID, city = cid, def
			rec.Set(tile.TagTerrain, tile.TerrainUrban)
			rec.Set(tile.TagCitySite, tile.CitySiteUsed)
			st.Cities++
		}
	}

	overlay, hasOverlay := c.overlays[id]
	if c.removals[id] {
		c.removeLegacySite(rec, overlay, hasOverlay)
		st.Removed++
	}
	if hasOverlay && !rec.Has(tile.TagImprovement) {
		rec.Set(tile.TagImprovement, overlay)
		st.Overlays++
	}
	for _, s := range c.stamps[id] {
		if s.Value == "" {
			rec.SetFlag(s.Tag)
		} else {
			rec.Set(s.Tag, s.Value)
		}
		st.Stamps++
	}
	if rec.Has(tile.TagImprovement) {
		st.Improvements++
	}

	if c.mode == ModeTerrain {
		rec.Dedup()
		return rec
	}

	if boundary {
		c.markBoundary(rec)
		st.Boundary++
	}
	c.appendState(rec, res, cityID, city, st)
	rec.Dedup()
	return rec
}

// removeLegacySite strips an old city site from rec. A site improvement is
// replaced in place by the queued overlay when there is one.
func (c *Compositor) removeLegacySite(rec *tile.Record, overlay string, hasOverlay bool) {
	rec.Remove(tile.TagCitySite)
	rec.Remove(tile.TagElementName)
	if v := rec.Get(tile.TagImprovement); v.State == tile.Valued && v.Text == tile.ImprovementCitySite {
		if hasOverlay {
			rec.Set(tile.TagImprovement, overlay)
		} else {
			rec.Remove(tile.TagImprovement)
		}
	}
	if v := rec.Get(tile.TagTerrain); v.State == tile.Valued && v.Text == tile.TerrainUrban {
		rec.Set(tile.TagTerrain, tile.TerrainLush)
	}
}

// markBoundary puts the Boundary flag first in the record.
func (c *Compositor) markBoundary(rec *tile.Record) {
	rec.Remove(tile.TagBoundary)
	rec.Fields = append([]tile.Field{tile.FlagField(tile.TagBoundary)}, rec.Fields...)
}

// appendState writes the session layer in the order the game loader emits
// it: revelation, territory, units, then the fixed trailer.
func (c *Compositor) appendState(rec *tile.Record, res *Resolver, cityID int, city CityDefinition, st *Stats) {
	id := rec.ID
	vis := res.Visibility(id)
	team := strconv.Itoa(c.cfg.Team)

	if vis.Revealed {
		st.Revealed++
		if vis.Territory >= 0 {
			rec.Append(tile.Element(tagRevealedCityTerritory, nil,
				tile.AttrElement(tagTeam, []tile.Attr{{Name: "CityTerritory", Value: strconv.Itoa(vis.Territory)}}, team)))
		}
		rec.Append(tile.Element(tagRevealed, nil, tile.ValueField(tagTeam, team)))
		if vis.OwnedCity {
			rec.Append(tile.Element(tagRevealedCity, nil, tile.ValueField(tagTeam, team)))
		}
	}

	if vis.Territory >= 0 {
		rec.Set(tagCityTerritory, strconv.Itoa(vis.Territory))
	}
	if cityID >= 0 && city.ClaimsTerritory() {
		rec.Set(tagOrigUrbanOwner, strconv.Itoa(city.Player))
	}

	for _, uid := range res.UnitsAt(id) {
		rec.Append(c.unitBlock(uid))
		st.Units++
	}

	rec.Append(tile.FlagField(tagReligion))
	if vis.Revealed {
		if t := rec.Get(tile.TagTerrain); t.State == tile.Valued && t.Text != "" {
			rec.Append(tile.Element(tagRevealedTerrain, nil,
				tile.AttrElement(tagTeam, []tile.Attr{{Name: "Terrain", Value: t.Text}}, team)))
		}
	}
	rec.Append(tile.FlagField(tagRevealedTurn))
}

// unitBlock renders a pre-placed unit. The seed is UnitSeed plus the unit ID.
func (c *Compositor) unitBlock(uid int) tile.Field {
	u := c.cfg.Units[uid]
	tribe := u.Tribe
	if tribe == "" {
		tribe = "NONE"
	}
	owner := u.Player
	if owner < 0 {
		owner = 0
	}

	family := tile.FlagField("PlayerFamily")
	if u.Player >= 0 && u.Family != "" {
		family = tile.Element("PlayerFamily", nil,
			tile.ValueField("P."+strconv.Itoa(u.Player), u.Family))
	}

	attrs := []tile.Attr{
		{Name: "ID", Value: strconv.Itoa(uid)},
		{Name: "Type", Value: u.Type},
		{Name: "Player", Value: strconv.Itoa(u.Player)},
		{Name: "Tribe", Value: tribe},
		{Name: "Seed", Value: strconv.FormatInt(c.cfg.UnitSeed+int64(uid), 10)},
	}
	return tile.Element(tagUnit, attrs,
		tile.ValueField("CreateTurn", "1"),
		tile.ValueField("Facing", "NE"),
		tile.ValueField("OriginalPlayer", strconv.Itoa(owner)),
		tile.FlagField("RaidTurn"),
		family,
		tile.FlagField("QueueList"),
		tile.FlagField("AI"),
	)
}
