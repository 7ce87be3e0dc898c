// Package region cuts a rectangular sub-grid out of a larger map and
// re-indexes it densely from zero.
package region

import (
	"fmt"
	"log/slog"

	"github.com/talgya/tileforge/internal/tile"
	"github.com/talgya/tileforge/internal/world"
)

// Bounds is an inclusive source rectangle. Columns or rows outside the
// source grid are allowed and come back as open water.
type Bounds struct {
	XMin int `json:"x_min"`
	XMax int `json:"x_max"`
	YMin int `json:"y_min"`
	YMax int `json:"y_max"`
}

// Width returns the destination grid width.
func (b Bounds) Width() int { return b.XMax - b.XMin + 1 }

// Height returns the destination grid height.
func (b Bounds) Height() int { return b.YMax - b.YMin + 1 }

// Dims returns the destination grid dimensions.
func (b Bounds) Dims() world.Dims {
	return world.Dims{Width: b.Width(), Height: b.Height()}
}

func (b Bounds) String() string {
	return fmt.Sprintf("x %d..%d, y %d..%d", b.XMin, b.XMax, b.YMin, b.YMax)
}

// Validate checks the rectangle on its own.
func (b Bounds) Validate() error {
	if b.XMax < b.XMin {
		return tile.Configf("x_max", "x_max %d is left of x_min %d", b.XMax, b.XMin)
	}
	if b.YMax < b.YMin {
		return tile.Configf("y_max", "y_max %d is above y_min %d", b.YMax, b.YMin)
	}
	return nil
}

// Check validates b against a concrete source grid. An odd row offset flips
// the row shift of every destination row, so it is rejected whenever a
// river edge falls inside the rectangle.
func (b Bounds) Check(src *tile.Grid) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.YMin&1 == 0 {
		return nil
	}
	for y := b.YMin; y <= b.YMax; y++ {
		for x := b.XMin; x <= b.XMax; x++ {
			if r, ok := src.At(x, y); ok && r.HasRiver() {
				return tile.Configf("y_min",
					"odd row offset %d breaks hex row parity; tile %d (%d,%d) carries river edges",
					b.YMin, r.ID, x, y)
			}
		}
	}
	return nil
}

// Stats summarizes one extraction.
type Stats struct {
	Copied int
	Filled int
}

// Extract copies the tiles inside b into a new grid of width b.Width().
// Each source record is copied verbatim under its new ID; cells the source
// does not have become tile.Water records.
func Extract(src *tile.Grid, b Bounds) (*tile.Grid, Stats, error) {
	var st Stats
	if err := b.Check(src); err != nil {
		return nil, st, err
	}

	dims := b.Dims()
	dst := tile.NewGrid(dims.Width, dims.Count())
	for id := 0; id < dims.Count(); id++ {
		x, y := dims.Coords(id)
		r, ok := src.At(x+b.XMin, y+b.YMin)
		if !ok {
			dst.Set(tile.Water(id))
			st.Filled++
			continue
		}
		c := r.Clone()
		c.ID = id
		dst.Set(c)
		st.Copied++
	}

	slog.Debug("region extracted", "bounds", b.String(), "dims", dims.String(),
		"copied", st.Copied, "filled", st.Filled)
	return dst, st, nil
}
