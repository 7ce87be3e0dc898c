package tile

import (
	"bytes"
	"strconv"
	"strings"
)

// Declaration is the XML declaration every map document starts with.
const Declaration = `<?xml version="1.0" encoding="utf-8"?>`

// CanonicalOrder is the field order used by repair tools. Fields not listed
// keep their relative order after the listed ones.
var CanonicalOrder = []string{
	"Terrain", "Height", "Vegetation", "Resource", "Road",
	"RiverW", "RiverSW", "RiverSE",
	"CitySite", "Improvement", "ElementName",
}

const indentStep = "  "

// WriteOptions controls document rendering.
type WriteOptions struct {
	// Canonical reorders scalar fields per CanonicalOrder. The compositor
	// never sets this.
	Canonical bool
}

// Render produces the full document text: declaration, a single-line root
// element, one block per tile in ascending ID order, and the closing root
// tag followed by a newline. The byte-order mark is added by WriteFile.
func Render(g *Grid, opts WriteOptions) []byte {
	var buf bytes.Buffer
	buf.WriteString(Declaration)
	buf.WriteByte('\n')
	writeRoot(&buf, g)
	RenderTiles(&buf, g.Records(), opts)
	buf.WriteString("</Root>\n")
	return buf.Bytes()
}

func writeRoot(buf *bytes.Buffer, g *Grid) {
	attrs := g.Attrs
	hasWidth := false
	for _, a := range attrs {
		if a.Name == rootWidthAttr {
			hasWidth = true
		}
	}
	if !hasWidth {
		attrs = append([]Attr{{Name: rootWidthAttr}}, attrs...)
	}
	buf.WriteString("<Root")
	for _, a := range attrs {
		v := a.Value
		if a.Name == rootWidthAttr {
			v = strconv.Itoa(g.Width)
		}
		buf.WriteByte(' ')
		writeAttr(buf, Attr{Name: a.Name, Value: v})
	}
	buf.WriteString(">\n")
}

// RenderTiles appends one block per record at the tile indentation level.
func RenderTiles(buf *bytes.Buffer, records []*Record, opts WriteOptions) {
	for _, r := range records {
		RenderTile(buf, r, opts)
	}
}

// RenderTile appends a single tile block:
//
//	  <Tile
//	    ID="12">
//	    <Terrain>TERRAIN_WATER</Terrain>
//	  </Tile>
//
// Repeated self-closing flags are written once.
func RenderTile(buf *bytes.Buffer, r *Record, opts WriteOptions) {
	fields := r.Fields
	if opts.Canonical {
		fields = canonicalize(fields)
	}

	buf.WriteString(indentStep + "<" + tileElement + "\n")
	buf.WriteString(indentStep + indentStep)
	writeAttr(buf, Attr{Name: tileIDAttr, Value: strconv.Itoa(r.ID)})
	for _, a := range r.Attrs {
		buf.WriteString("\n" + indentStep + indentStep)
		writeAttr(buf, a)
	}
	buf.WriteString(">\n")

	flags := make(map[string]bool)
	for _, f := range fields {
		if f.State == Flag {
			if flags[f.Tag] {
				continue
			}
			flags[f.Tag] = true
		}
		RenderField(buf, f, 2)
	}
	buf.WriteString(indentStep + "</" + tileElement + ">\n")
}

// RenderField appends f at the given depth (two spaces per level).
func RenderField(buf *bytes.Buffer, f Field, depth int) {
	indent := strings.Repeat(indentStep, depth)
	buf.WriteString(indent)
	buf.WriteString("<" + f.Tag)

	switch f.State {
	case Flag, Absent:
		buf.WriteString(" />\n")
		return
	case Valued:
		buf.WriteByte('>')
		writeText(buf, f.Text)
		buf.WriteString("</" + f.Tag + ">\n")
		return
	}

	// Nested: attributes one per line, then either inline text or children.
	for _, a := range f.Attrs {
		buf.WriteByte('\n')
		buf.WriteString(indent + indentStep)
		writeAttr(buf, a)
	}
	if len(f.Children) == 0 && f.Text == "" {
		switch {
		case f.SelfClosing:
			buf.WriteString(" />\n")
		case len(f.Attrs) == 0:
			buf.WriteString(">\n" + indent + "</" + f.Tag + ">\n")
		default:
			buf.WriteString("></" + f.Tag + ">\n")
		}
		return
	}
	buf.WriteByte('>')
	if len(f.Children) == 0 {
		writeText(buf, f.Text)
		buf.WriteString("</" + f.Tag + ">\n")
		return
	}
	buf.WriteByte('\n')
	for _, ch := range f.Children {
		RenderField(buf, ch, depth+1)
	}
	buf.WriteString(indent + "</" + f.Tag + ">\n")
}

func canonicalize(fields []Field) []Field {
	out := make([]Field, 0, len(fields))
	used := make([]bool, len(fields))
	for _, tag := range CanonicalOrder {
		for i, f := range fields {
			if !used[i] && f.Tag == tag {
				out = append(out, f)
				used[i] = true
			}
		}
	}
	for i, f := range fields {
		if !used[i] {
			out = append(out, f)
		}
	}
	return out
}

func writeAttr(buf *bytes.Buffer, a Attr) {
	buf.WriteString(a.Name)
	buf.WriteString(`="`)
	escape(buf, a.Value, true)
	buf.WriteByte('"')
}

func writeText(buf *bytes.Buffer, s string) {
	escape(buf, s, false)
}

// escape writes the minimal entity set the game's own writer produces:
// & < > in text, plus " inside attribute values.
func escape(buf *bytes.Buffer, s string, attr bool) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			if attr {
				buf.WriteString("&quot;")
			} else {
				buf.WriteByte(c)
			}
		default:
			buf.WriteByte(c)
		}
	}
}
