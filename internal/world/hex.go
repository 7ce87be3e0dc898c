// Package world provides the hex grid geometry shared by every map pass.
// Tiles are addressed with "odd-row-right" offset coordinates (x = column,
// y = row, odd rows shifted right by half a cell); distances are computed in
// cube coordinates with exact integer arithmetic.
package world

import "strconv"

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// Offset returns the odd-row-right offset position of the cube coordinate.
func (h HexCoord) Offset() Offset {
	return Offset{X: h.Q + (h.R-(h.R&1))/2, Y: h.R}
}

// Offset is a (column, row) position on the rectangular tile grid.
type Offset struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (o Offset) String() string { return "(" + strconv.Itoa(o.X) + "," + strconv.Itoa(o.Y) + ")" }

// Cube converts an odd-row-right offset position to cube coordinates.
// (y - (y&1)) / 2 is floor(y/2) for negative rows as well.
func (o Offset) Cube() HexCoord {
	return HexCoord{Q: o.X - (o.Y-(o.Y&1))/2, R: o.Y}
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// Neighbors returns the six adjacent offset positions. Positions outside
// any particular grid are included; callers filter with Dims.Contains.
func (o Offset) Neighbors() [6]Offset {
	var result [6]Offset
	for i, n := range o.Cube().Neighbors() {
		result[i] = n.Offset()
	}
	return result
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S() - b.S())
	// Max of the three absolute differences in cube coordinates.
	max := dq
	if dr > max {
		max = dr
	}
	if ds > max {
		max = ds
	}
	return max
}

// OffsetDistance returns the hex distance between two offset positions.
func OffsetDistance(a, b Offset) int {
	return Distance(a.Cube(), b.Cube())
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
