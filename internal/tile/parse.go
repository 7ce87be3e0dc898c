package tile

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	rootWidthAttr = "MapWidth"
	tileElement   = "Tile"
	tileIDAttr    = "ID"

	// MaxTileID bounds tile IDs so a corrupt document cannot force a huge
	// slot allocation. The largest game maps stay far below it.
	MaxTileID = 1<<20 - 1
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse reads a map document into a Grid. Tiles may appear in any textual
// order; non-tile children of the root (game, player, city blocks) are
// skipped. Whitespace between elements is not preserved.
func Parse(data []byte) (*Grid, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	p := &parser{src: data, d: xml.NewDecoder(bytes.NewReader(data)), tileID: -1}
	return p.document()
}

type parser struct {
	src    []byte
	d      *xml.Decoder
	tileID int
}

func (p *parser) document() (*Grid, error) {
	root, err := p.rootStart()
	if err != nil {
		return nil, err
	}

	g := &Grid{Width: -1}
	for _, a := range root.Attr {
		g.Attrs = append(g.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
		if a.Name.Local == rootWidthAttr {
			w, err := strconv.Atoi(strings.TrimSpace(a.Value))
			if err != nil || w <= 0 {
				return nil, p.errorf("invalid %s %q", rootWidthAttr, a.Value)
			}
			g.Width = w
		}
	}
	if g.Width < 0 {
		return nil, p.errorf("root element <%s> has no %s attribute", root.Name.Local, rootWidthAttr)
	}
	if p.selfClosing() {
		return g, nil
	}

	for {
		tok, err := p.d.Token()
		if err != nil {
			return nil, p.wrap(err, "unterminated root element")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != tileElement {
				if err := p.d.Skip(); err != nil {
					return nil, p.wrap(err, "unterminated <"+t.Name.Local+"> block")
				}
				continue
			}
			rec, err := p.tile(t)
			if err != nil {
				return nil, err
			}
			if _, dup := g.Get(rec.ID); dup {
				return nil, p.errorf("duplicate tile ID %d", rec.ID)
			}
			g.Set(rec)
		case xml.EndElement:
			return g, nil
		}
	}
}

func (p *parser) rootStart() (xml.StartElement, error) {
	for {
		tok, err := p.d.Token()
		if err == io.EOF {
			return xml.StartElement{}, p.errorf("document has no root element")
		}
		if err != nil {
			return xml.StartElement{}, p.wrap(err, "malformed prolog")
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, nil
		}
	}
}

func (p *parser) tile(start xml.StartElement) (*Record, error) {
	p.tileID = -1
	defer func() { p.tileID = -1 }()

	raw := ""
	found := false
	var extra []Attr
	for _, a := range start.Attr {
		if a.Name.Local == tileIDAttr && !found {
			raw, found = a.Value, true
			continue
		}
		extra = append(extra, Attr{Name: a.Name.Local, Value: a.Value})
	}
	if !found {
		return nil, p.errorf("tile element has no %s attribute", tileIDAttr)
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if (err != nil && !errors.Is(err, strconv.ErrRange)) || id < 0 {
		return nil, p.errorf("non-numeric tile ID %q", raw)
	}
	if err != nil || id > MaxTileID {
		return nil, p.errorf("tile ID %s exceeds %d", strings.TrimSpace(raw), MaxTileID)
	}
	p.tileID = id

	rec := NewRecord(id)
	rec.Attrs = extra
	if p.selfClosing() {
		if _, err := p.d.Token(); err != nil {
			return nil, p.wrap(err, "unterminated tile block")
		}
		return rec, nil
	}

	for {
		tok, err := p.d.Token()
		if err != nil {
			return nil, p.wrap(err, "unterminated tile block")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			f, err := p.element(t)
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, f)
		case xml.EndElement:
			return rec, nil
		}
	}
}

// element reads one field, including any nested children.
func (p *parser) element(start xml.StartElement) (Field, error) {
	f := Field{Tag: start.Name.Local}
	for _, a := range start.Attr {
		f.Attrs = append(f.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
	}

	if p.selfClosing() {
		if _, err := p.d.Token(); err != nil {
			return f, p.wrap(err, "unterminated <"+f.Tag+">")
		}
		f.State = Flag
		if len(f.Attrs) > 0 {
			f.State = Nested
			f.SelfClosing = true
		}
		return f, nil
	}

	var text strings.Builder
	for {
		tok, err := p.d.Token()
		if err != nil {
			return f, p.wrap(err, "unterminated <"+f.Tag+">")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := p.element(t)
			if err != nil {
				return f, err
			}
			f.Children = append(f.Children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			switch {
			case len(f.Children) > 0:
				f.State = Nested
			case len(f.Attrs) > 0:
				f.State = Nested
				f.Text = text.String()
			default:
				f.State = Valued
				f.Text = text.String()
			}
			return f, nil
		}
	}
}

// selfClosing reports whether the start element just read ended with "/>".
// encoding/xml reports <a/> and <a></a> identically, so the raw input is
// consulted to keep flags distinct from empty values.
func (p *parser) selfClosing() bool {
	off := p.d.InputOffset()
	return off >= 2 && off <= int64(len(p.src)) && p.src[off-2] == '/' && p.src[off-1] == '>'
}

func (p *parser) errorf(format string, args ...any) error {
	return &FormatError{Offset: p.d.InputOffset(), TileID: p.tileID, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) wrap(err error, reason string) error {
	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		reason = fmt.Sprintf("%s (line %d: %s)", reason, syn.Line, syn.Msg)
	} else if err == io.EOF || err == io.ErrUnexpectedEOF {
		reason += " (unexpected end of document)"
	} else {
		reason = fmt.Sprintf("%s: %v", reason, err)
	}
	return &FormatError{Offset: p.d.InputOffset(), TileID: p.tileID, Reason: reason}
}
