// Package scenario layers game state (cities, units, territory, revelation)
// over a terrain grid and assembles the playable map document.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/talgya/tileforge/internal/region"
	"github.com/talgya/tileforge/internal/tile"
	"github.com/talgya/tileforge/internal/world"
)

// DefaultTerritoryRadius is the hex distance a city claims when its
// definition does not set one.
const DefaultTerritoryRadius = 2

// DefaultUnitSeedBase seeds the first pre-placed unit; unit i gets base+i.
const DefaultUnitSeedBase int64 = 58100000000000100

// Point is a (column, row) position on the destination grid.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Offset() world.Offset { return world.Offset{X: p.X, Y: p.Y} }

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// BuildItem is one entry of a city's starting build queue.
type BuildItem struct {
	Build string `json:"build"`
	Type  string `json:"type"`
}

// CityDefinition describes a settlement stamped onto its anchor tile.
// Player -1 marks an independent tribe city, which never claims territory.
type CityDefinition struct {
	Name       string      `json:"name"`
	X          int         `json:"x"`
	Y          int         `json:"y"`
	Player     int         `json:"player"`
	Family     string      `json:"family,omitempty"`
	Tribe      string      `json:"tribe,omitempty"`
	Capital    bool        `json:"capital,omitempty"`
	Citizens   int         `json:"citizens"`
	Culture    string      `json:"culture,omitempty"`
	BuildQueue []BuildItem `json:"build_queue,omitempty"`

	// Territory shaping. Nil clamps are unset.
	Radius *int    `json:"radius,omitempty"`
	XMin   *int    `json:"territory_x_min,omitempty"`
	XMax   *int    `json:"territory_x_max,omitempty"`
	YMin   *int    `json:"territory_y_min,omitempty"`
	YMax   *int    `json:"territory_y_max,omitempty"`
	Extra  []Point `json:"extra_territory,omitempty"`
}

// Anchor returns the city's tile position.
func (c CityDefinition) Anchor() Point { return Point{X: c.X, Y: c.Y} }

// ClaimsTerritory reports whether the city belongs to a player.
func (c CityDefinition) ClaimsTerritory() bool { return c.Player >= 0 }

// TerritoryRadius returns the configured radius or the default.
func (c CityDefinition) TerritoryRadius() int {
	if c.Radius == nil {
		return DefaultTerritoryRadius
	}
	return *c.Radius
}

// InClamps reports whether p satisfies every clamp that is set.
func (c CityDefinition) InClamps(p Point) bool {
	if c.XMin != nil && p.X < *c.XMin {
		return false
	}
	if c.XMax != nil && p.X > *c.XMax {
		return false
	}
	if c.YMin != nil && p.Y < *c.YMin {
		return false
	}
	if c.YMax != nil && p.Y > *c.YMax {
		return false
	}
	return true
}

func (c CityDefinition) isExtra(p Point) bool {
	for _, e := range c.Extra {
		if e == p {
			return true
		}
	}
	return false
}

// UnitPlacement is a pre-seeded unit. Units get sequential IDs in list order.
type UnitPlacement struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Type   string `json:"type"`
	Player int    `json:"player"`
	Tribe  string `json:"tribe,omitempty"`
	Family string `json:"family,omitempty"`
}

// ImprovementOverlay places an improvement on a tile that has none.
type ImprovementOverlay struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Improvement string `json:"improvement"`
}

// Stamp sets one field on one tile after all other terrain rules. An empty
// Value writes a flag.
type Stamp struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Tag   string `json:"tag"`
	Value string `json:"value,omitempty"`
}

// Config is a complete scenario definition.
type Config struct {
	Name           string `json:"name"`
	BoundaryMargin int    `json:"boundary_margin"`
	// Team is the team whose revelation state is written.
	Team       int   `json:"team"`
	Characters int   `json:"characters"`
	UnitSeed   int64 `json:"unit_seed"`

	// Region is the source rectangle used by extract and freeze.
	Region region.Bounds `json:"region"`
	// Drop lists source tags never copied into the output.
	Drop []string `json:"drop"`

	Cities       []CityDefinition     `json:"cities"`
	Units        []UnitPlacement      `json:"units"`
	Improvements []ImprovementOverlay `json:"improvements"`
	// RemoveSites are legacy city sites stripped from the terrain.
	RemoveSites []Point `json:"remove_sites"`
	Stamps      []Stamp `json:"stamps"`

	// PreamblePath names a game-setup template. Empty uses the built-in one.
	PreamblePath string `json:"preamble,omitempty"`
}

// LoadConfig reads a JSON scenario definition. Keys missing from the file
// keep the values of DefaultConfig; a list given in the file replaces the
// default list entirely.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a JSON scenario definition over DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	def := DefaultConfig()
	cfg := DefaultConfig()
	// encoding/json decodes array elements into existing slice entries, so
	// lists start empty and fall back to the defaults only when absent.
	cfg.Drop, cfg.Cities, cfg.Units = nil, nil, nil
	cfg.Improvements, cfg.RemoveSites, cfg.Stamps = nil, nil, nil
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Drop == nil {
		cfg.Drop = def.Drop
	}
	if cfg.Cities == nil {
		cfg.Cities = def.Cities
	}
	if cfg.Units == nil {
		cfg.Units = def.Units
	}
	if cfg.Improvements == nil {
		cfg.Improvements = def.Improvements
	}
	if cfg.RemoveSites == nil {
		cfg.RemoveSites = def.RemoveSites
	}
	if cfg.Stamps == nil {
		cfg.Stamps = def.Stamps
	}
	return cfg, nil
}

// Validate checks the configuration against the destination grid before any
// tile is touched. The first violation is returned as a
// *tile.ConfigurationError.
func (c *Config) Validate(dims world.Dims) error {
	if c.BoundaryMargin < 0 {
		return tile.Configf("boundary_margin", "negative margin %d", c.BoundaryMargin)
	}
	if c.Characters < 0 {
		return tile.Configf("characters", "negative character count %d", c.Characters)
	}
	inside := func(field string, p Point) error {
		if !dims.Contains(p.X, p.Y) {
			return tile.Configf(field, "%s lies outside the %s grid", p, dims)
		}
		return nil
	}

	removed := make(map[Point]bool, len(c.RemoveSites))
	for i, p := range c.RemoveSites {
		if err := inside(fmt.Sprintf("remove_sites[%d]", i), p); err != nil {
			return err
		}
		removed[p] = true
	}

	anchors := make(map[Point]string, len(c.Cities))
	for i, city := range c.Cities {
		field := fmt.Sprintf("cities[%d]", i)
		if city.Name == "" {
			return tile.Configf(field, "city has no name")
		}
		field = fmt.Sprintf("cities[%d] %s", i, city.Name)
		if err := inside(field, city.Anchor()); err != nil {
			return err
		}
		if other, dup := anchors[city.Anchor()]; dup {
			return tile.Configf(field, "shares tile %s with %s", city.Anchor(), other)
		}
		anchors[city.Anchor()] = city.Name
		if removed[city.Anchor()] {
			return tile.Configf(field, "anchor %s is also a removed legacy site", city.Anchor())
		}
		if city.Player < -1 {
			return tile.Configf(field, "player %d; use -1 for a tribe city", city.Player)
		}
		if city.Player == -1 && city.Tribe == "" {
			return tile.Configf(field, "tribe city needs a tribe")
		}
		if city.TerritoryRadius() < 0 {
			return tile.Configf(field, "negative territory radius %d", city.TerritoryRadius())
		}
		if city.XMin != nil && city.XMax != nil && *city.XMin > *city.XMax {
			return tile.Configf(field, "territory_x_min %d > territory_x_max %d", *city.XMin, *city.XMax)
		}
		if city.YMin != nil && city.YMax != nil && *city.YMin > *city.YMax {
			return tile.Configf(field, "territory_y_min %d > territory_y_max %d", *city.YMin, *city.YMax)
		}
		for _, p := range city.Extra {
			if err := inside(field+" extra_territory", p); err != nil {
				return err
			}
		}
	}

	for i, u := range c.Units {
		field := fmt.Sprintf("units[%d]", i)
		if u.Type == "" {
			return tile.Configf(field, "unit has no type")
		}
		if err := inside(field, Point{X: u.X, Y: u.Y}); err != nil {
			return err
		}
	}

	overlays := make(map[Point]bool, len(c.Improvements))
	for i, imp := range c.Improvements {
		field := fmt.Sprintf("improvements[%d]", i)
		p := Point{X: imp.X, Y: imp.Y}
		if imp.Improvement == "" {
			return tile.Configf(field, "overlay at %s has no improvement", p)
		}
		if err := inside(field, p); err != nil {
			return err
		}
		if overlays[p] {
			return tile.Configf(field, "second overlay for %s", p)
		}
		overlays[p] = true
	}

	for i, s := range c.Stamps {
		field := fmt.Sprintf("stamps[%d]", i)
		if s.Tag == "" {
			return tile.Configf(field, "stamp has no tag")
		}
		if err := inside(field, Point{X: s.X, Y: s.Y}); err != nil {
			return err
		}
	}
	return nil
}

// CityCount returns the number of configured cities.
func (c *Config) CityCount() int { return len(c.Cities) }

// UnitCount returns the number of pre-placed units.
func (c *Config) UnitCount() int { return len(c.Units) }

func intp(v int) *int { return &v }

// DefaultConfig returns the Gallic Wars chapter 1 set-up: Narbo and Genava
// for Rome, the Aedui and Sequani holding Bibracte and Vesontio.
func DefaultConfig() *Config {
	return &Config{
		Name:           "Gallic Wars 1",
		BoundaryMargin: world.DefaultBoundaryMargin,
		Team:           0,
		Characters:     2,
		UnitSeed:       DefaultUnitSeedBase,
		Region:         region.Bounds{XMin: 20, XMax: 42, YMin: 58, YMax: 86},
		Drop: []string{
			tile.TagMetadata, tile.TagTribeSite, tile.TagNationSite, tile.TagBoundary,
		},
		Cities: []CityDefinition{
			{
				Name: "Narbo", X: 6, Y: 4, Player: 0, Family: "FAMILY_JULIUS",
				Capital: true, Citizens: 3, Culture: "CULTURE_DEVELOPING",
				BuildQueue: []BuildItem{{Build: "BUILD_UNIT", Type: "UNIT_HASTATUS"}},
				Extra: []Point{
					{X: 8, Y: 5}, {X: 9, Y: 5}, {X: 10, Y: 5}, {X: 11, Y: 5},
					{X: 9, Y: 6}, {X: 10, Y: 6},
				},
			},
			{
				Name: "Genava", X: 11, Y: 12, Player: 0, Family: "FAMILY_JULIUS",
				Citizens: 1, Culture: "CULTURE_WEAK",
				BuildQueue: []BuildItem{{Build: "BUILD_UNIT", Type: "UNIT_WARRIOR"}},
				XMin:       intp(10),
				YMax:       intp(12),
			},
			{
				Name: "Bibracte", X: 9, Y: 13, Player: -1, Family: "NONE",
				Tribe: "TRIBE_AEDUI", Citizens: 1, Culture: "CULTURE_WEAK",
			},
			{
				Name: "Vesontio", X: 14, Y: 15, Player: -1, Family: "NONE",
				Tribe: "TRIBE_SEQUANI", Citizens: 1, Culture: "CULTURE_WEAK",
			},
		},
		Units: []UnitPlacement{
			{X: 5, Y: 4, Type: "UNIT_HASTATUS", Family: "FAMILY_JULIUS"},
			{X: 6, Y: 3, Type: "UNIT_BALEARIC_SLINGER", Family: "FAMILY_JULIUS"},
			{X: 6, Y: 5, Type: "UNIT_NOMAD_SKIRMISHER_2", Family: "FAMILY_JULIUS"},
			{X: 5, Y: 5, Type: "UNIT_WORKER", Family: "FAMILY_JULIUS"},
		},
		Improvements: []ImprovementOverlay{
			{X: 7, Y: 5, Improvement: "IMPROVEMENT_GARRISON_1"},
			{X: 7, Y: 2, Improvement: "IMPROVEMENT_NETS"},
			{X: 7, Y: 4, Improvement: "IMPROVEMENT_NETS"},
			{X: 5, Y: 5, Improvement: "IMPROVEMENT_MINE"},
			{X: 6, Y: 6, Improvement: "IMPROVEMENT_MINE"},
			{X: 7, Y: 6, Improvement: "IMPROVEMENT_MINE"},
			{X: 4, Y: 5, Improvement: "IMPROVEMENT_QUARRY"},
			{X: 6, Y: 3, Improvement: "IMPROVEMENT_QUARRY"},
			{X: 5, Y: 2, Improvement: "IMPROVEMENT_QUARRY"},
			// Farms around Genava.
			{X: 10, Y: 12, Improvement: "IMPROVEMENT_FARM"},
			{X: 11, Y: 11, Improvement: "IMPROVEMENT_FARM"},
			{X: 12, Y: 11, Improvement: "IMPROVEMENT_FARM"},
			{X: 10, Y: 10, Improvement: "IMPROVEMENT_FARM"},
			{X: 11, Y: 10, Improvement: "IMPROVEMENT_FARM"},
			{X: 12, Y: 10, Improvement: "IMPROVEMENT_FARM"},
		},
		// Lugdunum, Durocortorum, Genua, Augusta Vindelicorum, Colonia,
		// Londinium, Caesarodunum.
		RemoveSites: []Point{
			{X: 10, Y: 10}, {X: 9, Y: 18}, {X: 17, Y: 7}, {X: 20, Y: 17},
			{X: 14, Y: 23}, {X: 4, Y: 25}, {X: 3, Y: 16},
		},
	}
}
