// Package preview draws quick-look renderings of tile documents: an ASCII
// minimap for the terminal and a PNG with one hex cell per tile.
package preview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/talgya/tileforge/internal/tile"
)

// Legend explains the minimap glyphs.
const Legend = "~ water  ≈ lake  ^ mountain  n hill  A wooded hill  T trees  ; scrub  : lush  , marsh  . flat  O city  * nation site  | boundary"

// Glyph returns the minimap character for one record.
func Glyph(r *tile.Record) rune {
	terrain := r.Get(tile.TagTerrain).Text
	height := r.Get(tile.TagHeight).Text
	vegetation := r.Get(tile.TagVegetation).Text

	var ch rune
	switch {
	case r.Has(tile.TagNationSite):
		ch = '*'
	case terrain == tile.TerrainUrban:
		ch = 'O'
	case r.Has(tile.TagBoundary) && terrain != tile.TerrainWater:
		ch = '|'
	case terrain == tile.TerrainWater:
		ch = '~'
		if height == tile.HeightLake {
			ch = '≈'
		}
	case terrain == tile.TerrainMarsh:
		ch = ','
	case height == tile.HeightMountain:
		ch = '^'
	case height == tile.HeightHill:
		ch = 'n'
		if vegetation == tile.VegetationTrees {
			ch = 'A'
		}
	case vegetation == tile.VegetationTrees:
		ch = 'T'
	case vegetation == tile.VegetationScrub:
		ch = ';'
	case terrain == tile.TerrainLush:
		ch = ':'
	default:
		ch = '.'
	}

	// Rivers only show through otherwise plain ground.
	if ch == '.' && visibleRiver(r) {
		ch = '~'
	}
	return ch
}

func visibleRiver(r *tile.Record) bool {
	for _, tag := range tile.RiverTags {
		if n, err := strconv.Atoi(r.Get(tag).Text); err == nil && n > 0 {
			return true
		}
	}
	return false
}

// ASCII renders g as a minimap with a column ruler and row numbers. Row 0 is
// printed first; in game orientation that is the southern edge.
func ASCII(g *tile.Grid) string {
	var b strings.Builder
	width, height := g.Width, g.Height()

	fmt.Fprintf(&b, "  %s\n", g)
	fmt.Fprintf(&b, "  Legend: %s\n\n", Legend)

	b.WriteString("    ")
	for x := 0; x < width; x += 5 {
		fmt.Fprintf(&b, "%-5d", x)
	}
	b.WriteString("\n")

	for y := 0; y < height; y++ {
		fmt.Fprintf(&b, "%3d ", y)
		for x := 0; x < width; x++ {
			r, ok := g.At(x, y)
			if !ok {
				b.WriteRune(' ')
				continue
			}
			b.WriteRune(Glyph(r))
		}
		switch y {
		case 0:
			b.WriteString("  <- south")
		case height - 1:
			b.WriteString("  <- north")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// CopyToClipboard places text on the system clipboard.
func CopyToClipboard(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard: no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}
