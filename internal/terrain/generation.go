// Package terrain generates procedural terrain baselines on the offset hex
// grid using layered simplex noise. Elevation, rainfall and temperature
// fields are sampled per tile and mapped onto the game's terrain, height and
// vegetation tokens.
package terrain

import (
	"log/slog"
	"math"
	"math/rand"
	"strconv"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/tileforge/internal/tile"
	"github.com/talgya/tileforge/internal/world"
)

// GenConfig holds generation parameters.
type GenConfig struct {
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Seed           int64   `json:"seed"`         // 0 = random
	SeaLevel       float64 `json:"sea_level"`    // Elevation threshold for water (0.0–1.0)
	HillLvl        float64 `json:"hill_level"`   // Elevation threshold for hills
	MountainLvl    float64 `json:"mountain_lvl"` // Elevation threshold for mountains
	BoundaryMargin int     `json:"boundary_margin"`
	Sites          int     `json:"sites"`        // City sites to place
	SiteSpacing    int     `json:"site_spacing"` // Minimum hex distance between sites
	Rivers         int     `json:"rivers"`
}

// DefaultGenConfig returns the 50x40 layout of the first Gallic Wars draft.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:          50,
		Height:         40,
		Seed:           58,
		SeaLevel:       0.28,
		HillLvl:        0.62,
		MountainLvl:    0.76,
		BoundaryMargin: world.DefaultBoundaryMargin,
		Sites:          8,
		SiteSpacing:    5,
		Rivers:         4,
	}
}

// SmallTestConfig returns a tiny map for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:          16,
		Height:         12,
		Seed:           42,
		SeaLevel:       0.28,
		HillLvl:        0.62,
		MountainLvl:    0.76,
		BoundaryMargin: world.DefaultBoundaryMargin,
		Sites:          2,
		SiteSpacing:    4,
		Rivers:         1,
	}
}

// Validate rejects configurations that cannot produce a map.
func (c GenConfig) Validate() error {
	if c.Width <= 2*c.BoundaryMargin || c.Height <= 2*c.BoundaryMargin {
		return tile.Configf("width", "%dx%d leaves no interior inside a %d-tile boundary", c.Width, c.Height, c.BoundaryMargin)
	}
	if c.BoundaryMargin < 0 {
		return tile.Configf("boundary_margin", "negative margin %d", c.BoundaryMargin)
	}
	if !(c.SeaLevel < c.HillLvl && c.HillLvl < c.MountainLvl) {
		return tile.Configf("sea_level", "levels must rise: sea %.2f, hill %.2f, mountain %.2f", c.SeaLevel, c.HillLvl, c.MountainLvl)
	}
	if c.Sites < 0 || c.Rivers < 0 || c.SiteSpacing < 1 {
		return tile.Configf("sites", "sites %d, rivers %d, spacing %d", c.Sites, c.Rivers, c.SiteSpacing)
	}
	if c.Sites > MaxSites {
		return tile.Configf("sites", "%d sites exceed the %d available names", c.Sites, MaxSites)
	}
	return nil
}

// cell is the working state of one tile during generation.
type cell struct {
	elev, rain, temp float64

	terrain    string
	height     string
	vegetation string
	resource   string
	citySite   string
	boundary   bool
	river      [3]int // W, SW, SE; -1 unset
}

func (c *cell) water() bool { return c.terrain == tile.TerrainWater }

// Map is a generated baseline before serialization.
type Map struct {
	Dims  world.Dims
	Seed  int64
	Sites []Site
	cells []cell
}

func (m *Map) at(x, y int) *cell {
	if !m.Dims.Contains(x, y) {
		return nil
	}
	return &m.cells[m.Dims.ID(x, y)]
}

// Generate creates a complete terrain baseline.
func Generate(cfg GenConfig) (*Map, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	// Three noise generators for independent layers.
	elevNoise := opensimplex.NewNormalized(seed)
	rainNoise := opensimplex.NewNormalized(seed + 1)
	tempNoise := opensimplex.NewNormalized(seed + 2)

	dims := world.Dims{Width: cfg.Width, Height: cfg.Height}
	m := &Map{Dims: dims, Seed: seed, cells: make([]cell, dims.Count())}

	cx := float64(cfg.Width-1) / 2
	cy := float64(cfg.Height-1) / 2
	for id := range m.cells {
		x, y := dims.Coords(id)

		// Odd rows sit half a cell to the right; rows are sqrt(3)/2 apart.
		px := float64(x) + 0.5*float64(y&1)
		py := float64(y) * math.Sqrt(3.0) / 2.0

		elev := octaveNoise(elevNoise, px, py, 4, 0.08, 0.5)
		rain := octaveNoise(rainNoise, px, py, 3, 0.06, 0.5)
		temp := octaveNoise(tempNoise, px, py, 3, 0.05, 0.5)

		// Continental shaping: sink the rectangle's rim toward the sea.
		d := math.Max(math.Abs(float64(x)-cx)/cx, math.Abs(float64(y)-cy)/cy)
		falloff := 1.0 - math.Pow(d, 3.5)
		if falloff < 0 {
			falloff = 0
		}
		elev *= falloff

		// Cooler toward the top rows and at altitude.
		temp = temp*0.6 + (1.0-float64(y)/float64(cfg.Height))*0.3 + (1.0-elev)*0.1

		c := &m.cells[id]
		c.elev, c.rain, c.temp = elev, rain, temp
		c.river = [3]int{-1, -1, -1}
		c.boundary = dims.IsBoundary(x, y, cfg.BoundaryMargin)
		deriveTerrain(c, cfg)
	}

	rng := rand.New(rand.NewSource(seed + 100))
	markCoast(m)
	placeRivers(m, cfg, rng)
	scatterResources(m, rng)
	m.Sites = placeSites(m, cfg, rand.New(rand.NewSource(seed+200)))

	slog.Debug("terrain generated", "dims", dims.String(), "seed", seed,
		"sites", len(m.Sites))
	return m, nil
}

// deriveTerrain determines tokens from environmental parameters.
func deriveTerrain(c *cell, cfg GenConfig) {
	if c.elev < cfg.SeaLevel {
		c.terrain = tile.TerrainWater
		c.height = tile.HeightOcean
		return
	}

	switch {
	case c.elev > cfg.MountainLvl:
		c.height = tile.HeightMountain
	case c.elev > cfg.HillLvl:
		c.height = tile.HeightHill
	default:
		c.height = tile.HeightFlat
	}

	switch {
	case c.temp < 0.25:
		c.terrain = tile.TerrainTundra
	case c.rain < 0.25 && c.temp > 0.5:
		c.terrain = tile.TerrainArid
	case c.rain > 0.7 && c.elev < 0.45:
		c.terrain = tile.TerrainMarsh
	case c.rain > 0.55:
		c.terrain = tile.TerrainLush
	default:
		c.terrain = tile.TerrainTemperate
	}

	if c.height == tile.HeightMountain || c.terrain == tile.TerrainMarsh {
		return
	}
	switch {
	case c.rain > 0.45 && c.elev > 0.45:
		c.vegetation = tile.VegetationTrees
	case c.rain < 0.3 && c.terrain != tile.TerrainTundra:
		c.vegetation = tile.VegetationScrub
	}
}

// markCoast turns open water next to land into coastal water.
func markCoast(m *Map) {
	var toMark []int
	for id := range m.cells {
		if !m.cells[id].water() {
			continue
		}
		x, y := m.Dims.Coords(id)
		for _, n := range (world.Offset{X: x, Y: y}).Neighbors() {
			if nc := m.at(n.X, n.Y); nc != nil && !nc.water() {
				toMark = append(toMark, id)
				break
			}
		}
	}
	for _, id := range toMark {
		m.cells[id].height = tile.HeightCoast
	}
}

// scatterResources rolls one resource per eligible land tile.
func scatterResources(m *Map, rng *rand.Rand) {
	byTerrain := map[string][]chance{
		tile.TerrainLush: {
			{"RESOURCE_CATTLE", 0.04}, {"RESOURCE_PIG", 0.03}, {"RESOURCE_SHEEP", 0.03},
		},
		tile.TerrainTemperate: {
			{"RESOURCE_HORSE", 0.02}, {"RESOURCE_SHEEP", 0.02}, {"RESOURCE_GAME", 0.02},
		},
	}
	byHeight := map[string][]chance{
		tile.HeightHill:     {{"RESOURCE_ORE", 0.04}, {"RESOURCE_MARBLE", 0.02}},
		tile.HeightMountain: {{"RESOURCE_ORE", 0.03}, {"RESOURCE_SILVER", 0.02}},
	}

	for id := range m.cells {
		c := &m.cells[id]
		if c.boundary || c.water() || c.terrain == tile.TerrainMarsh {
			continue
		}
		c.resource = roll(rng, byTerrain[c.terrain])
		if c.resource == "" {
			c.resource = roll(rng, byHeight[c.height])
		}
	}
}

type chance struct {
	token string
	p     float64
}

func roll(rng *rand.Rand, table []chance) string {
	for _, ch := range table {
		if rng.Float64() < ch.p {
			return ch.token
		}
	}
	return ""
}

// Grid serializes the map into tile records in the field order the map
// editor writes.
func (m *Map) Grid() *tile.Grid {
	g := tile.NewGrid(m.Dims.Width, m.Dims.Count())
	g.SetAttr("MapEdgesSafe", "True")
	for id := range m.cells {
		c := &m.cells[id]
		r := tile.NewRecord(id)
		if c.boundary {
			r.SetFlag(tile.TagBoundary)
		}
		r.Set(tile.TagTerrain, c.terrain)
		r.Set(tile.TagHeight, c.height)
		if c.vegetation != "" {
			r.Set(tile.TagVegetation, c.vegetation)
		}
		for i, tag := range tile.RiverTags {
			if c.river[i] >= 0 {
				r.Set(tag, strconv.Itoa(c.river[i]))
			}
		}
		if c.citySite != "" {
			r.Set(tile.TagCitySite, c.citySite)
		}
		if c.resource != "" {
			r.Set(tile.TagResource, c.resource)
		}
		g.Set(r)
	}
	return g
}

// TerrainCounts returns a summary of terrain token distribution.
func (m *Map) TerrainCounts() map[string]int {
	counts := make(map[string]int)
	for i := range m.cells {
		counts[m.cells[i].terrain]++
	}
	return counts
}

// octaveNoise sums octaves of normalized simplex noise into 0..1.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
