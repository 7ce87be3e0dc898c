package scenario

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/tileforge/internal/tile"
)

func TestDocument_DefaultPreamble(t *testing.T) {
	cfg := DefaultConfig()
	res := compose(t, cfg, ModeScenario, terrainGrid(nil))
	pre, err := LoadPreamble("")
	if err != nil {
		t.Fatalf("LoadPreamble: %v", err)
	}

	doc, gameID, err := Document(cfg, pre, res, "")
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if len(gameID) != 36 {
		t.Fatalf("game id %q is not a UUID", gameID)
	}
	text := string(doc)

	for _, want := range []string{
		`<?xml version="1.0" encoding="utf-8"?>` + "\n<Root\n",
		`  MapWidth="23"`,
		`  GameId="` + gameID + `"`,
		`<NextUnitID>4</NextUnitID>`,
		`<NextCityID>4</NextCityID>`,
		`<NextCharacterID>2</NextCharacterID>`,
		`<Tile>98</Tile>`,
		"  <City\n    ID=\"0\"\n    TileID=\"98\"\n    Player=\"0\"\n    Family=\"FAMILY_JULIUS\"\n    Founded=\"1\">\n    <Name>Narbo</Name>\n",
		"    <Tribe>TRIBE_AEDUI</Tribe>\n",
		"        <Type>UNIT_HASTATUS</Type>\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if !strings.HasSuffix(text, "  </Tile>\n</Root>\n") {
		t.Errorf("document tail = %q", text[len(text)-40:])
	}

	// Roster comes before the first tile.
	if strings.Index(text, "<City\n") > strings.Index(text, "<Tile\n") {
		t.Error("city roster follows the tiles")
	}

	// The tile section parses back into the composed grid.
	back, err := tile.Parse(doc)
	if err != nil {
		t.Fatalf("scenario document does not parse: %v", err)
	}
	if back.Count() != res.Grid.Count() {
		t.Fatalf("parsed %d tiles, want %d", back.Count(), res.Grid.Count())
	}
	var a, b bytes.Buffer
	tile.RenderTiles(&a, back.Records(), tile.WriteOptions{})
	tile.RenderTiles(&b, res.Grid.Records(), tile.WriteOptions{})
	if a.String() != b.String() {
		t.Fatal("tile section does not round trip")
	}
}

func TestDocument_CustomPreamble(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setup.tmpl")
	src := `<?xml version="1.0" encoding="utf-8"?>
<Root MapWidth="{{.MapWidth}}" GameId="{{.GameID}}" Units="{{.NextUnitID}}">
`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	pre, err := LoadPreamble(path)
	if err != nil {
		t.Fatalf("LoadPreamble: %v", err)
	}
	cfg := DefaultConfig()
	res := compose(t, cfg, ModeScenario, terrainGrid(nil))
	doc, _, err := Document(cfg, pre, res, "fixed-id")
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if !strings.Contains(string(doc), `<Root MapWidth="23" GameId="fixed-id" Units="4">`) {
		t.Fatalf("custom preamble not rendered:\n%.200s", doc)
	}
}

func TestLoadPreamble_BadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tmpl")
	if err := os.WriteFile(path, []byte("<Root {{.MapWidth>"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPreamble(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStartingTile(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.StartingTile(testWidth); got != 98 {
		t.Fatalf("StartingTile = %d, want 98 (Narbo)", got)
	}
	cfg.Cities[0].Capital = false
	if got := cfg.StartingTile(testWidth); got != 98 {
		t.Fatalf("without capital = %d, want first player city 98", got)
	}
	cfg.Cities = cfg.Cities[2:]
	if got := cfg.StartingTile(testWidth); got != 0 {
		t.Fatalf("tribes only = %d, want 0", got)
	}
}

func TestCityBlock_TribeCity(t *testing.T) {
	var buf bytes.Buffer
	tile.RenderField(&buf, CityBlock(2, testWidth, DefaultConfig().Cities[2]), 1)
	out := buf.String()
	for _, want := range []string{
		`Player="-1"`,
		"<FirstPlayer>0</FirstPlayer>",
		"<Tribe>TRIBE_AEDUI</Tribe>",
		"<T.0>CULTURE_WEAK</T.0>",
		"    <PlayerFamily>\n    </PlayerFamily>\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("tribe city block missing %q\n%s", want, out)
		}
	}
	for _, unwanted := range []string{"TeamDiscontentLevel", "<Capital />", "BuildQueue", "<PlayerFamily></PlayerFamily>", "<PlayerFamily />"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("tribe city block has %q", unwanted)
		}
	}
}
