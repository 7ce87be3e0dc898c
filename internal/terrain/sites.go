package terrain

import (
	"math/rand"
	"sort"

	"github.com/talgya/tileforge/internal/tile"
	"github.com/talgya/tileforge/internal/world"
)

// Site is a generated city site.
type Site struct {
	At    world.Offset `json:"at"`
	Score float64      `json:"score"`
	Name  string       `json:"name"`
}

// placeSites scores every interior land tile and marks the best ones as
// active city sites, keeping at least cfg.SiteSpacing hex steps between
// any two sites.
func placeSites(m *Map, cfg GenConfig, rng *rand.Rand) []Site {
	type scored struct {
		at    world.Offset
		score float64
	}
	var candidates []scored
	for id := range m.cells {
		x, y := m.Dims.Coords(id)
		p := world.Offset{X: x, Y: y}
		if s := siteScore(m, p); s > 0 {
			candidates = append(candidates, scored{p, s})
		}
	}

	// Stable on ties so a seed always yields the same sites.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var sites []Site
	for _, c := range candidates {
		if len(sites) >= cfg.Sites {
			break
		}
		if tooClose(c.at, sites, cfg.SiteSpacing) {
			continue
		}
		sites = append(sites, Site{At: c.at, Score: c.score})
		m.at(c.at.X, c.at.Y).citySite = tile.CitySiteActive
	}

	names := generateNames(rng, len(sites))
	for i := range sites {
		sites[i].Name = names[i]
	}
	return sites
}

// siteScore evaluates how desirable a tile is for a city. Prefers fertile
// flat land with water access and varied surroundings.
func siteScore(m *Map, p world.Offset) float64 {
	c := m.at(p.X, p.Y)
	if c == nil || c.boundary || c.water() || c.height == tile.HeightMountain {
		return 0
	}

	score := 0.0
	switch c.terrain {
	case tile.TerrainLush:
		score += 3.5
	case tile.TerrainTemperate:
		score += 3.0
	case tile.TerrainArid, tile.TerrainTundra:
		score += 0.5
	default:
		return 0
	}
	if c.height == tile.HeightHill {
		score -= 0.5
	}

	kinds := make(map[string]bool)
	water := false
	for _, n := range p.Neighbors() {
		nc := m.at(n.X, n.Y)
		if nc == nil {
			continue
		}
		if nc.water() {
			water = true
			continue
		}
		kinds[nc.terrain+nc.height] = true
	}
	score += float64(len(kinds)) * 0.3
	if water {
		score += 1.0
	}
	if c.river[edgeW] > 0 {
		score += 0.8
	}
	if c.resource != "" {
		score += 0.4
	}
	return score
}

func tooClose(p world.Offset, existing []Site, minDist int) bool {
	for _, s := range existing {
		if world.OffsetDistance(p, s.At) < minDist {
			return true
		}
	}
	return false
}

var (
	sitePrefixes = [...]string{
		"Lug", "Dur", "Ves", "Bib", "Gen", "Nar", "Aug", "Cen",
		"Avar", "Mat", "Lut", "Rot", "Sam", "Alb", "Vin", "Con",
	}
	siteSuffixes = [...]string{
		"dunum", "ona", "acum", "briga", "magus", "ritum", "bona",
		"avum", "iacum", "ontio", "acte", "obriga", "essa", "ava",
	}
)

// MaxSites is the number of distinct site names available.
const MaxSites = len(sitePrefixes) * len(siteSuffixes)

// generateNames produces procedural site names by combining syllables.
// At most MaxSites names are returned.
func generateNames(rng *rand.Rand, count int) []string {
	count = min(count, MaxSites)
	used := make(map[string]bool)
	names := make([]string, 0, count)
	for len(names) < count {
		name := sitePrefixes[rng.Intn(len(sitePrefixes))] + siteSuffixes[rng.Intn(len(siteSuffixes))]
		if !used[name] {
			used[name] = true
			names = append(names, name)
		}
	}
	return names
}
