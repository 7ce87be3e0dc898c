package tile

import (
	"fmt"

	"github.com/talgya/tileforge/internal/world"
)

// Grid owns the tile records of one map document, indexed by tile ID.
// Height is derived from the slot count and never stored.
type Grid struct {
	Width int
	// Attrs are the root element attributes in document order. The
	// MapWidth entry is rewritten from Width on output.
	Attrs []Attr

	tiles []*Record
}

// NewGrid creates a grid of the given width with count empty slots.
func NewGrid(width, count int) *Grid {
	return &Grid{
		Width: width,
		Attrs: []Attr{{Name: "MapWidth"}},
		tiles: make([]*Record, count),
	}
}

// Height returns the number of rows implied by the slot count.
func (g *Grid) Height() int {
	if g.Width <= 0 {
		return 0
	}
	return len(g.tiles) / g.Width
}

// Dims returns the grid dimensions.
func (g *Grid) Dims() world.Dims {
	return world.Dims{Width: g.Width, Height: g.Height()}
}

// Slots returns the number of addressable IDs (max ID + 1).
func (g *Grid) Slots() int {
	return len(g.tiles)
}

// Count returns the number of records actually present.
func (g *Grid) Count() int {
	n := 0
	for _, r := range g.tiles {
		if r != nil {
			n++
		}
	}
	return n
}

// Get returns the record with the given ID.
func (g *Grid) Get(id int) (*Record, bool) {
	if id < 0 || id >= len(g.tiles) || g.tiles[id] == nil {
		return nil, false
	}
	return g.tiles[id], true
}

// At returns the record at (x, y). Columns outside the grid width never
// wrap onto the neighbouring row.
func (g *Grid) At(x, y int) (*Record, bool) {
	if x < 0 || x >= g.Width || y < 0 {
		return nil, false
	}
	return g.Get(world.ToID(x, y, g.Width))
}

// Set stores r at r.ID, growing the grid if needed.
func (g *Grid) Set(r *Record) {
	if r.ID >= len(g.tiles) {
		grown := make([]*Record, r.ID+1)
		copy(grown, g.tiles)
		g.tiles = grown
	}
	g.tiles[r.ID] = r
}

// Records returns the present records in ascending ID order.
func (g *Grid) Records() []*Record {
	out := make([]*Record, 0, len(g.tiles))
	for _, r := range g.tiles {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Attr returns the value of a root attribute.
func (g *Grid) Attr(name string) (string, bool) {
	for _, a := range g.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets a root attribute, appending it when absent.
func (g *Grid) SetAttr(name, value string) {
	for i, a := range g.Attrs {
		if a.Name == name {
			g.Attrs[i].Value = value
			return
		}
	}
	g.Attrs = append(g.Attrs, Attr{Name: name, Value: value})
}

// CheckDense verifies that every ID in 0..Slots-1 holds a record and that the
// slot count is a whole number of rows. The first gap is reported as a
// MissingTileError against the named layer.
func (g *Grid) CheckDense(layer string) error {
	if g.Width <= 0 {
		return &FormatError{Offset: -1, TileID: -1, Reason: fmt.Sprintf("non-positive width %d", g.Width)}
	}
	if len(g.tiles)%g.Width != 0 {
		id := len(g.tiles)
		x, y := world.ToCoords(id, g.Width)
		return &MissingTileError{ID: id, X: x, Y: y, Layer: layer}
	}
	for id, r := range g.tiles {
		if r == nil {
			x, y := world.ToCoords(id, g.Width)
			return &MissingTileError{ID: id, X: x, Y: y, Layer: layer}
		}
	}
	return nil
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(width=%d, height=%d, tiles=%d)", g.Width, g.Height(), g.Count())
}
