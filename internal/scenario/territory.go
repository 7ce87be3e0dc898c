package scenario

import (
	"github.com/talgya/tileforge/internal/world"
)

// Claim assigns one tile to one city's territory.
type Claim struct {
	TileID int `json:"tile_id" db:"tile_id"`
	CityID int `json:"city_id" db:"city_id"`
}

// Visibility is the revelation state of one tile for the configured team.
type Visibility struct {
	Revealed bool
	// Territory is the claiming city ID, or -1.
	Territory int
	// OwnedCity is set when the tile is a player city's own anchor.
	OwnedCity bool
}

// Resolver answers territory and visibility questions for every tile of a
// grid. It is built once per composition and read-only afterwards.
type Resolver struct {
	dims   world.Dims
	margin int
	cities []CityDefinition

	owner   []int         // tile ID -> city ID, -1 unclaimed
	cityAt  map[int]int   // tile ID -> city ID
	unitsAt map[int][]int // tile ID -> unit IDs in placement order
}

// NewResolver resolves territory for every tile of dims. City and unit IDs
// are their indices in cfg.
func NewResolver(cfg *Config, dims world.Dims) *Resolver {
	r := &Resolver{
		dims:    dims,
		margin:  cfg.BoundaryMargin,
		cities:  cfg.Cities,
		owner:   make([]int, dims.Count()),
		cityAt:  make(map[int]int, len(cfg.Cities)),
		unitsAt: make(map[int][]int, len(cfg.Units)),
	}
	for id, c := range cfg.Cities {
		r.cityAt[dims.ID(c.X, c.Y)] = id
	}
	for id, u := range cfg.Units {
		tid := dims.ID(u.X, u.Y)
		r.unitsAt[tid] = append(r.unitsAt[tid], id)
	}
	for id := range r.owner {
		x, y := dims.Coords(id)
		r.owner[id] = r.resolve(Point{X: x, Y: y})
	}
	return r
}

// resolve returns the first city in definition order that claims p. When
// two cities could both reach a tile, the earlier definition keeps it.
func (r *Resolver) resolve(p Point) int {
	if r.dims.IsBoundary(p.X, p.Y, r.margin) {
		return -1
	}
	for id, c := range r.cities {
		if !c.ClaimsTerritory() {
			continue
		}
		if c.isExtra(p) {
			return id
		}
		if world.OffsetDistance(p.Offset(), c.Anchor().Offset()) <= c.TerritoryRadius() && c.InClamps(p) {
			return id
		}
	}
	return -1
}

// Territory returns the city claiming tile id.
func (r *Resolver) Territory(id int) (int, bool) {
	if id < 0 || id >= len(r.owner) || r.owner[id] < 0 {
		return -1, false
	}
	return r.owner[id], true
}

// CityAt returns the city anchored on tile id.
func (r *Resolver) CityAt(id int) (int, CityDefinition, bool) {
	cid, ok := r.cityAt[id]
	if !ok {
		return -1, CityDefinition{}, false
	}
	return cid, r.cities[cid], true
}

// UnitsAt returns the IDs of units placed on tile id.
func (r *Resolver) UnitsAt(id int) []int {
	return r.unitsAt[id]
}

// Visibility derives the revelation state of tile id. A tile is revealed
// when it hosts a unit or is a player city's anchor; boundary tiles are
// never revealed.
func (r *Resolver) Visibility(id int) Visibility {
	v := Visibility{Territory: -1}
	x, y := r.dims.Coords(id)
	if r.dims.IsBoundary(x, y, r.margin) {
		return v
	}
	if cid, ok := r.Territory(id); ok {
		v.Territory = cid
	}
	if _, c, ok := r.CityAt(id); ok && c.ClaimsTerritory() {
		v.OwnedCity = true
	}
	v.Revealed = v.OwnedCity || len(r.unitsAt[id]) > 0
	return v
}

// Claims lists every claimed tile in ascending tile order.
func (r *Resolver) Claims() []Claim {
	var out []Claim
	for id, cid := range r.owner {
		if cid >= 0 {
			out = append(out, Claim{TileID: id, CityID: cid})
		}
	}
	return out
}

// ClaimCounts returns the number of tiles each city holds, indexed by city ID.
func (r *Resolver) ClaimCounts() []int {
	counts := make([]int, len(r.cities))
	for _, cid := range r.owner {
		if cid >= 0 {
			counts[cid]++
		}
	}
	return counts
}
