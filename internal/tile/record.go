// Package tile provides the ordered tile record model shared by every map
// transformation: parsing, structural mutation, and byte-exact serialization.
package tile

// State reports how a tag appears inside a tile record.
type State uint8

const (
	Absent State = iota // Tag is not written at all
	Flag                // Self-closing <Tag />
	Valued              // <Tag>text</Tag>
	Nested              // Element carrying attributes and/or child elements
)

// String returns a short name for the state.
func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Flag:
		return "flag"
	case Valued:
		return "valued"
	case Nested:
		return "nested"
	default:
		return "unknown"
	}
}

// Attr is one element attribute, kept in source order.
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Field is one child element of a tile. Flag and Valued fields are the
// scalar payload of the terrain layer; Nested fields carry scenario blocks
// such as embedded units and per-team revelation state.
type Field struct {
	Tag      string  `json:"tag"`
	State    State   `json:"state"`
	Text     string  `json:"text,omitempty"`
	Attrs    []Attr  `json:"attrs,omitempty"`
	Children []Field `json:"children,omitempty"`
	// SelfClosing writes a nested field with no text or children as
	// <Tag ... /> instead of an open and close tag pair.
	SelfClosing bool `json:"self_closing,omitempty"`
}

// FlagField returns a self-closing field.
func FlagField(tag string) Field {
	return Field{Tag: tag, State: Flag}
}

// ValueField returns a field carrying a text value.
func ValueField(tag, text string) Field {
	return Field{Tag: tag, State: Valued, Text: text}
}

// Element returns a nested field with the given attributes and children.
// An element with attributes and no children self-closes; one with neither
// is written as an open tag and a close tag on separate lines.
func Element(tag string, attrs []Attr, children ...Field) Field {
	return Field{
		Tag:         tag,
		State:       Nested,
		Attrs:       attrs,
		Children:    children,
		SelfClosing: len(attrs) > 0 && len(children) == 0,
	}
}

// AttrElement returns a nested field whose attributes are followed by a
// text value on the same line, e.g. <Team Terrain="...">0</Team>.
func AttrElement(tag string, attrs []Attr, text string) Field {
	return Field{Tag: tag, State: Nested, Attrs: attrs, Text: text}
}

func (f Field) clone() Field {
	c := f
	if f.Attrs != nil {
		c.Attrs = append([]Attr(nil), f.Attrs...)
	}
	if f.Children != nil {
		c.Children = make([]Field, len(f.Children))
		for i, ch := range f.Children {
			c.Children[i] = ch.clone()
		}
	}
	return c
}

// Value is the result of looking a tag up in a record.
type Value struct {
	State State
	Text  string
}

// Present reports whether the tag appears in the record in any form.
func (v Value) Present() bool {
	return v.State != Absent
}

// Record is one grid cell: an integer ID plus an ordered field list.
type Record struct {
	ID int `json:"id"`
	// Attrs are the tile element attributes after ID, in source order.
	Attrs  []Attr  `json:"attrs,omitempty"`
	Fields []Field `json:"fields"`
}

// NewRecord creates an empty record with the given ID.
func NewRecord(id int) *Record {
	return &Record{ID: id}
}

// Get looks up the first occurrence of tag.
func (r *Record) Get(tag string) Value {
	for _, f := range r.Fields {
		if f.Tag == tag {
			return Value{State: f.State, Text: f.Text}
		}
	}
	return Value{State: Absent}
}

// Has reports whether tag appears in the record.
func (r *Record) Has(tag string) bool {
	return r.index(tag) >= 0
}

// Field returns the first field with the given tag.
func (r *Record) Field(tag string) (Field, bool) {
	if i := r.index(tag); i >= 0 {
		return r.Fields[i], true
	}
	return Field{}, false
}

// Set stores a text value for tag, replacing the existing field in place
// or appending when the tag is absent.
func (r *Record) Set(tag, text string) {
	r.Put(ValueField(tag, text))
}

// SetFlag stores tag as a presence flag with set-or-replace semantics.
func (r *Record) SetFlag(tag string) {
	r.Put(FlagField(tag))
}

// Put is the general set-or-replace: the first occurrence of f.Tag is
// overwritten at its position and any later occurrences are dropped.
// An absent tag is appended at the end.
func (r *Record) Put(f Field) {
	i := r.index(f.Tag)
	if i < 0 {
		r.Fields = append(r.Fields, f)
		return
	}
	r.Fields[i] = f
	out := r.Fields[:i+1]
	for _, rest := range r.Fields[i+1:] {
		if rest.Tag != f.Tag {
			out = append(out, rest)
		}
	}
	r.Fields = out
}

// Append adds f at the end without checking for an existing tag. Used for
// repeatable blocks such as several units sharing one tile.
func (r *Record) Append(f Field) {
	r.Fields = append(r.Fields, f)
}

// Remove deletes every occurrence of tag. Removing an absent tag is a no-op.
func (r *Record) Remove(tag string) {
	out := r.Fields[:0]
	for _, f := range r.Fields {
		if f.Tag != tag {
			out = append(out, f)
		}
	}
	r.Fields = out
}

// Dedup drops repeated self-closing flags, keeping the first occurrence.
// Valued and nested fields are left alone.
func (r *Record) Dedup() {
	seen := make(map[string]bool)
	out := r.Fields[:0]
	for _, f := range r.Fields {
		if f.State == Flag {
			if seen[f.Tag] {
				continue
			}
			seen[f.Tag] = true
		}
		out = append(out, f)
	}
	r.Fields = out
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := &Record{ID: r.ID, Fields: make([]Field, len(r.Fields))}
	if r.Attrs != nil {
		c.Attrs = append([]Attr(nil), r.Attrs...)
	}
	for i, f := range r.Fields {
		c.Fields[i] = f.clone()
	}
	return c
}

func (r *Record) index(tag string) int {
	for i, f := range r.Fields {
		if f.Tag == tag {
			return i
		}
	}
	return -1
}
