package preview

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/talgya/tileforge/internal/tile"
)

// Label is a name drawn next to a tile, usually a city.
type Label struct {
	X, Y int
	Text string
}

// DefaultCellSize is the pixel width of one tile in the PNG render.
const DefaultCellSize = 12

var palette = map[rune]color.RGBA{
	'~': {40, 90, 170, 255},
	'≈': {70, 130, 200, 255},
	'^': {120, 110, 100, 255},
	'n': {160, 140, 90, 255},
	'A': {70, 110, 50, 255},
	'T': {40, 110, 40, 255},
	';': {170, 160, 90, 255},
	':': {90, 170, 70, 255},
	',': {90, 120, 100, 255},
	'.': {150, 180, 90, 255},
	'O': {200, 60, 50, 255},
	'*': {230, 190, 40, 255},
	'|': {60, 60, 60, 255},
}

var riverColor = color.RGBA{60, 120, 220, 255}

// Render draws g with one cell per tile. Odd rows are shifted right by half
// a cell and row 0 is drawn at the bottom, matching the in-game view.
func Render(g *tile.Grid, labels []Label, cell int) *image.RGBA {
	if cell <= 0 {
		cell = DefaultCellSize
	}
	width, height := g.Width, g.Height()
	img := image.NewRGBA(image.Rect(0, 0, width*cell+cell/2, height*cell))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{20, 20, 30, 255}}, image.Point{}, draw.Src)

	for _, r := range g.Records() {
		x, y := r.ID%width, r.ID/width
		rect := cellRect(x, y, height, cell)
		c, ok := palette[Glyph(r)]
		if !ok {
			c = palette['.']
		}
		draw.Draw(img, rect, &image.Uniform{C: c}, image.Point{}, draw.Src)

		// A thin stripe on the west edge marks a river.
		if visibleRiver(r) && cell >= 4 {
			stripe := image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+cell/4, rect.Max.Y)
			draw.Draw(img, stripe, &image.Uniform{C: riverColor}, image.Point{}, draw.Src)
		}
	}

	face := basicfont.Face7x13
	for _, l := range labels {
		if l.X < 0 || l.X >= width || l.Y < 0 || l.Y >= height {
			continue
		}
		rect := cellRect(l.X, l.Y, height, cell)
		drawText(img, l.Text, rect.Max.X+2, rect.Min.Y+face.Metrics().Ascent.Ceil(), face)
	}
	return img
}

func cellRect(x, y, height, cell int) image.Rectangle {
	px := x*cell + (y&1)*cell/2
	py := (height - 1 - y) * cell
	return image.Rect(px, py, px+cell, py+cell)
}

func drawText(img *image.RGBA, text string, x, y int, face font.Face) {
	shadow := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(x+1, y+1),
	}
	shadow.DrawString(text)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// WritePNG encodes img to w.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
