package world

import "fmt"

// DefaultBoundaryMargin is the number of edge rows/columns marked as boundary
// in every scenario map produced so far.
const DefaultBoundaryMargin = 2

// Dims describes a rectangular grid. Tile IDs are dense: id = y*Width + x.
type Dims struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ToCoords converts a linear tile ID to (column, row).
func ToCoords(id, width int) (x, y int) {
	return id % width, id / width
}

// ToID converts (column, row) to a linear tile ID.
func ToID(x, y, width int) int {
	return y*width + x
}

// IsBoundary reports whether (x, y) lies within margin cells of any edge of a
// width×height grid.
func IsBoundary(x, y, width, height, margin int) bool {
	return x < margin || x >= width-margin || y < margin || y >= height-margin
}

// Count returns the number of tiles in the grid.
func (d Dims) Count() int {
	return d.Width * d.Height
}

// Contains reports whether (x, y) is addressable in the grid.
func (d Dims) Contains(x, y int) bool {
	return x >= 0 && x < d.Width && y >= 0 && y < d.Height
}

// ID returns the tile ID at (x, y).
func (d Dims) ID(x, y int) int {
	return ToID(x, y, d.Width)
}

// Coords returns the (column, row) of a tile ID.
func (d Dims) Coords(id int) (x, y int) {
	return ToCoords(id, d.Width)
}

// IsBoundary reports whether (x, y) is within margin cells of an edge.
func (d Dims) IsBoundary(x, y, margin int) bool {
	return IsBoundary(x, y, d.Width, d.Height, margin)
}

// String returns a summary of the grid.
func (d Dims) String() string {
	return fmt.Sprintf("%dx%d (%d tiles)", d.Width, d.Height, d.Count())
}
