package region

import (
	"errors"
	"fmt"
	"testing"

	"github.com/talgya/tileforge/internal/tile"
)

// source builds a width×height grid where every tile records its own
// coordinates in ElementName.
func source(width, height int) *tile.Grid {
	g := tile.NewGrid(width, 0)
	for id := 0; id < width*height; id++ {
		r := tile.NewRecord(id)
		r.Set(tile.TagTerrain, tile.TerrainTemperate)
		r.SetFlag("Marker")
		r.Set(tile.TagElementName, fmt.Sprintf("%d,%d", id%width, id/width))
		g.Set(r)
	}
	return g
}

func TestExtract_DenseReindex(t *testing.T) {
	src := source(10, 10)
	b := Bounds{XMin: 2, XMax: 5, YMin: 4, YMax: 6}

	dst, st, err := Extract(src, b)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if dst.Width != 4 || dst.Height() != 3 {
		t.Fatalf("dims = %dx%d, want 4x3", dst.Width, dst.Height())
	}
	if err := dst.CheckDense("extract"); err != nil {
		t.Fatalf("CheckDense: %v", err)
	}
	if st.Copied != 12 || st.Filled != 0 {
		t.Fatalf("stats = %+v, want 12 copied", st)
	}

	r, _ := dst.Get(5) // (1,1) -> source (3,5)
	if got := r.Get(tile.TagElementName).Text; got != "3,5" {
		t.Fatalf("tile 5 came from %q, want 3,5", got)
	}
	if r.Get("Marker").State != tile.Flag {
		t.Fatal("flag field not copied verbatim")
	}
}

func TestExtract_OutOfRangeBecomesWater(t *testing.T) {
	src := source(4, 4)
	b := Bounds{XMin: 2, XMax: 5, YMin: 2, YMax: 5}

	dst, st, err := Extract(src, b)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if st.Copied != 4 || st.Filled != 12 {
		t.Fatalf("stats = %+v, want 4 copied, 12 filled", st)
	}

	// (2,0) in destination is source (4,2): one column past the right edge.
	// It must not wrap onto the next source row.
	r, _ := dst.Get(2)
	want := []tile.Field{
		tile.ValueField(tile.TagTerrain, tile.TerrainWater),
		tile.ValueField(tile.TagHeight, tile.HeightOcean),
	}
	if len(r.Fields) != len(want) {
		t.Fatalf("water tile fields = %+v, want exactly Terrain and Height", r.Fields)
	}
	for i, f := range want {
		if r.Fields[i].Tag != f.Tag || r.Fields[i].Text != f.Text || r.Fields[i].State != tile.Valued {
			t.Fatalf("field %d = %+v, want %+v", i, r.Fields[i], f)
		}
	}
}

func TestExtract_NegativeOffsetFillsWater(t *testing.T) {
	src := source(4, 4)
	dst, st, err := Extract(src, Bounds{XMin: -1, XMax: 0, YMin: -2, YMax: 0})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if st.Copied != 1 {
		t.Fatalf("copied = %d, want 1", st.Copied)
	}
	r, _ := dst.Get(dst.Slots() - 1)
	if r.Get(tile.TagElementName).Text != "0,0" {
		t.Fatalf("last tile = %+v, want source (0,0)", r)
	}
}

func TestExtract_CopyIsIndependent(t *testing.T) {
	src := source(3, 3)
	dst, _, err := Extract(src, Bounds{XMin: 0, XMax: 2, YMin: 0, YMax: 2})
	if err != nil {
		t.Fatal(err)
	}
	r, _ := dst.Get(0)
	r.Set(tile.TagTerrain, tile.TerrainUrban)
	orig, _ := src.Get(0)
	if orig.Get(tile.TagTerrain).Text != tile.TerrainTemperate {
		t.Fatal("extraction aliases source records")
	}
}

func TestExtract_ConfigurationErrors(t *testing.T) {
	src := source(6, 6)
	river, _ := src.At(2, 3)
	river.Set(tile.TagRiverW, "1")

	tests := []struct {
		name string
		b    Bounds
	}{
		{"inverted x", Bounds{XMin: 4, XMax: 1, YMin: 0, YMax: 2}},
		{"inverted y", Bounds{XMin: 0, XMax: 2, YMin: 3, YMax: 1}},
		{"odd row with river", Bounds{XMin: 0, XMax: 4, YMin: 1, YMax: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Extract(src, tt.b)
			var ce *tile.ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *ConfigurationError", err)
			}
		})
	}
}

func TestExtract_OddRowWithoutRiversAllowed(t *testing.T) {
	src := source(6, 6)
	if _, _, err := Extract(src, Bounds{XMin: 0, XMax: 3, YMin: 1, YMax: 3}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
}
