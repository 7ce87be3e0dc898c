package scenario

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/talgya/tileforge/internal/tile"
)

const (
	testWidth  = 23
	testHeight = 29
)

// terrainGrid returns a 23x29 temperate plain; edit adjusts single tiles.
func terrainGrid(edit func(x, y int, r *tile.Record)) *tile.Grid {
	g := tile.NewGrid(testWidth, testWidth*testHeight)
	for id := 0; id < testWidth*testHeight; id++ {
		r := tile.NewRecord(id)
		r.Set(tile.TagTerrain, tile.TerrainTemperate)
		r.Set(tile.TagHeight, tile.HeightFlat)
		if edit != nil {
			edit(id%testWidth, id/testWidth, r)
		}
		g.Set(r)
	}
	return g
}

func compose(t *testing.T, cfg *Config, mode Mode, g *tile.Grid) *Result {
	t.Helper()
	res, err := NewCompositor(cfg, mode).Compose(g)
	if err != nil {
		t.Fatalf("Compose(%s): %v", mode, err)
	}
	return res
}

func at(t *testing.T, res *Result, x, y int) *tile.Record {
	t.Helper()
	r, ok := res.Grid.At(x, y)
	if !ok {
		t.Fatalf("no tile at (%d,%d)", x, y)
	}
	return r
}

func TestCompose_CityTileChain(t *testing.T) {
	res := compose(t, DefaultConfig(), ModeScenario, terrainGrid(nil))
	r := at(t, res, 6, 4)

	if got := r.Get(tile.TagTerrain).Text; got != tile.TerrainUrban {
		t.Errorf("Terrain = %q, want %q", got, tile.TerrainUrban)
	}
	if got := r.Get(tile.TagCitySite); got.State != tile.Valued || got.Text != tile.CitySiteUsed {
		t.Errorf("CitySite = %+v, want USED", got)
	}
	if got := r.Get("OrigUrbanOwner").Text; got != "0" {
		t.Errorf("OrigUrbanOwner = %q, want 0", got)
	}
	if !r.Has("RevealedCity") {
		t.Error("missing RevealedCity")
	}

	var buf bytes.Buffer
	tile.RenderTile(&buf, r, tile.WriteOptions{})
	want := `  <Tile
    ID="98">
    <Terrain>TERRAIN_URBAN</Terrain>
    <Height>HEIGHT_FLAT</Height>
    <CitySite>USED</CitySite>
    <RevealedCityTerritory>
      <Team
        CityTerritory="0">0</Team>
    </RevealedCityTerritory>
    <Revealed>
      <Team>0</Team>
    </Revealed>
    <RevealedCity>
      <Team>0</Team>
    </RevealedCity>
    <CityTerritory>0</CityTerritory>
    <OrigUrbanOwner>0</OrigUrbanOwner>
    <Religion />
    <RevealedTerrain>
      <Team
        Terrain="TERRAIN_URBAN">0</Team>
    </RevealedTerrain>
    <RevealedTurn />
  </Tile>
`
	if buf.String() != want {
		t.Fatalf("city tile block\n--- got ---\n%s--- want ---\n%s", buf.String(), want)
	}
}

func TestCompose_CitySiteReplacedInPlace(t *testing.T) {
	g := terrainGrid(func(x, y int, r *tile.Record) {
		if x == 6 && y == 4 {
			r.Set(tile.TagCitySite, tile.CitySiteActive)
			r.Set(tile.TagResource, "RESOURCE_ORE")
		}
	})
	res := compose(t, DefaultConfig(), ModeScenario, g)
	r := at(t, res, 6, 4)

	tags := make([]string, 0, 4)
	for _, f := range r.Fields[:4] {
		tags = append(tags, f.Tag)
	}
	if strings.Join(tags, ",") != "Terrain,Height,CitySite,Resource" {
		t.Fatalf("leading fields = %v, want source order kept", tags)
	}
	if r.Get(tile.TagCitySite).Text != tile.CitySiteUsed {
		t.Fatal("CitySite not overridden to USED")
	}
}

func TestCompose_OverlayIsIdempotentOnce(t *testing.T) {
	g := terrainGrid(func(x, y int, r *tile.Record) {
		if x == 7 && y == 5 {
			r.Set(tile.TagImprovement, "IMPROVEMENT_FARM")
		}
	})
	for _, mode := range []Mode{ModeTerrain, ModeScenario} {
		res := compose(t, DefaultConfig(), mode, g)

		kept := at(t, res, 7, 5)
		if got := kept.Get(tile.TagImprovement).Text; got != "IMPROVEMENT_FARM" {
			t.Errorf("%s: (7,5) improvement = %q, want terrain value kept", mode, got)
		}

		added := at(t, res, 7, 2)
		if got := added.Get(tile.TagImprovement).Text; got != "IMPROVEMENT_NETS" {
			t.Errorf("%s: (7,2) improvement = %q, want overlay", mode, got)
		}
	}

	// Composing the frozen output again changes nothing.
	first := compose(t, DefaultConfig(), ModeTerrain, g)
	second := compose(t, DefaultConfig(), ModeTerrain, first.Grid)
	a := tile.Render(first.Grid, tile.WriteOptions{})
	b := tile.Render(second.Grid, tile.WriteOptions{})
	if !bytes.Equal(a, b) {
		t.Fatal("terrain pass is not idempotent")
	}
}

func TestCompose_LegacySiteRemoval(t *testing.T) {
	site := func(r *tile.Record) {
		r.Set(tile.TagTerrain, tile.TerrainUrban)
		r.Set(tile.TagCitySite, tile.CitySiteActive)
		r.Set(tile.TagImprovement, tile.ImprovementCitySite)
		r.Set(tile.TagElementName, "CITYNAME_LUGDUNUM")
	}
	g := terrainGrid(func(x, y int, r *tile.Record) {
		if (x == 10 && y == 10) || (x == 9 && y == 18) {
			site(r)
		}
	})
	res := compose(t, DefaultConfig(), ModeTerrain, g)

	// (10,10) has a farm queued: it takes the site improvement's place.
	r := at(t, res, 10, 10)
	want := []tile.Field{
		tile.ValueField(tile.TagTerrain, tile.TerrainLush),
		tile.ValueField(tile.TagHeight, tile.HeightFlat),
		tile.ValueField(tile.TagImprovement, "IMPROVEMENT_FARM"),
	}
	if len(r.Fields) != len(want) {
		t.Fatalf("(10,10) fields = %+v, want %+v", r.Fields, want)
	}
	for i := range want {
		if r.Fields[i].Tag != want[i].Tag || r.Fields[i].Text != want[i].Text {
			t.Fatalf("(10,10) field %d = %+v, want %+v", i, r.Fields[i], want[i])
		}
	}

	// (9,18) has nothing queued: the improvement is simply gone.
	r = at(t, res, 9, 18)
	for _, tag := range []string{tile.TagCitySite, tile.TagImprovement, tile.TagElementName} {
		if r.Has(tag) {
			t.Errorf("(9,18) still has %s", tag)
		}
	}
	if r.Get(tile.TagTerrain).Text != tile.TerrainLush {
		t.Errorf("(9,18) terrain = %q, want lush", r.Get(tile.TagTerrain).Text)
	}
}

func TestCompose_DropList(t *testing.T) {
	g := terrainGrid(func(x, y int, r *tile.Record) {
		r.SetFlag(tile.TagBoundary)
		r.Set(tile.TagMetadata, "debug")
		r.Set(tile.TagNationSite, "NATION_ROME")
	})
	res := compose(t, DefaultConfig(), ModeTerrain, g)
	for _, r := range res.Grid.Records() {
		for _, tag := range []string{tile.TagBoundary, tile.TagMetadata, tile.TagNationSite} {
			if r.Has(tag) {
				t.Fatalf("tile %d kept dropped tag %s", r.ID, tag)
			}
		}
	}
}

func TestCompose_Units(t *testing.T) {
	res := compose(t, DefaultConfig(), ModeScenario, terrainGrid(nil))

	r := at(t, res, 5, 5)
	u, ok := r.Field("Unit")
	if !ok {
		t.Fatal("no unit at (5,5)")
	}
	attrs := map[string]string{}
	for _, a := range u.Attrs {
		attrs[a.Name] = a.Value
	}
	if attrs["ID"] != "3" || attrs["Type"] != "UNIT_WORKER" || attrs["Seed"] != "58100000000000103" {
		t.Fatalf("unit attrs = %v", attrs)
	}
	if !r.Has("Revealed") {
		t.Error("unit tile not revealed")
	}
	if res.Stats.Units != 4 {
		t.Errorf("units embedded = %d, want 4", res.Stats.Units)
	}
}

func TestCompose_TrailerOnEveryTile(t *testing.T) {
	res := compose(t, DefaultConfig(), ModeScenario, terrainGrid(nil))
	if err := res.Grid.CheckDense("scenario"); err != nil {
		t.Fatalf("CheckDense: %v", err)
	}
	for _, r := range res.Grid.Records() {
		last := r.Fields[len(r.Fields)-1]
		if last.Tag != "RevealedTurn" || last.State != tile.Flag {
			t.Fatalf("tile %d ends with %s, want RevealedTurn flag", r.ID, last.Tag)
		}
		if !r.Has("Religion") {
			t.Fatalf("tile %d has no Religion marker", r.ID)
		}
	}
}

func TestCompose_BoundaryTiles(t *testing.T) {
	res := compose(t, DefaultConfig(), ModeScenario, terrainGrid(nil))

	edge := at(t, res, 0, 0)
	if edge.Fields[0].Tag != tile.TagBoundary || edge.Fields[0].State != tile.Flag {
		t.Fatalf("boundary tile starts with %+v", edge.Fields[0])
	}
	if edge.Has("CityTerritory") || edge.Has("Revealed") {
		t.Fatal("boundary tile carries territory or revelation")
	}
	if inner := at(t, res, 2, 2); inner.Has(tile.TagBoundary) {
		t.Fatal("(2,2) marked as boundary")
	}
}

func TestCompose_BareMode(t *testing.T) {
	res := compose(t, DefaultConfig(), ModeBare, terrainGrid(nil))
	if v, _ := res.Grid.Attr("MapEdgesSafe"); v != "True" {
		t.Fatalf("MapEdgesSafe = %q", v)
	}
	if r := at(t, res, 22, 28); !r.Has(tile.TagBoundary) {
		t.Fatal("corner not marked")
	}
	r := at(t, res, 6, 4)
	if r.Get(tile.TagTerrain).Text != tile.TerrainTemperate || r.Has(tile.TagCitySite) {
		t.Fatalf("bare output applied scenario layers: %+v", r.Fields)
	}
}

func TestCompose_MissingTerrainTile(t *testing.T) {
	g := terrainGrid(nil)
	full := g.Records()
	holed := tile.NewGrid(testWidth, 0)
	for _, r := range full {
		if r.ID != 100 {
			holed.Set(r)
		}
	}
	_, err := NewCompositor(DefaultConfig(), ModeScenario).Compose(holed)
	var me *tile.MissingTileError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want *MissingTileError", err)
	}
	if me.ID != 100 || me.X != 8 || me.Y != 4 {
		t.Fatalf("missing = %+v, want tile 100 at (8,4)", me)
	}
}

func TestCompose_StampsReplaceInlineSpecialCase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stamps = []Stamp{
		{X: 6, Y: 4, Tag: tile.TagNationSite, Value: "NATION_ROME"},
		{X: 3, Y: 3, Tag: "Marker"},
	}
	res := compose(t, cfg, ModeTerrain, terrainGrid(nil))
	if got := at(t, res, 6, 4).Get(tile.TagNationSite).Text; got != "NATION_ROME" {
		t.Fatalf("NationSite = %q", got)
	}
	if at(t, res, 3, 3).Get("Marker").State != tile.Flag {
		t.Fatal("flag stamp missing")
	}
	if res.Stats.Stamps != 2 {
		t.Fatalf("stamps = %d, want 2", res.Stats.Stamps)
	}
}
