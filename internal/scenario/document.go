package scenario

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"text/template"

	"github.com/google/uuid"

	"github.com/talgya/tileforge/internal/tile"
)

//go:embed preamble.xml.tmpl
var defaultPreamble string

// PreambleData is everything a game-setup template may reference. The
// template itself is opaque: it must open the root element and may carry
// any non-tile blocks.
type PreambleData struct {
	MapWidth        int
	GameID          string
	NextUnitID      int
	NextCityID      int
	NextCharacterID int
	StartingTileID  int
}

// Preamble is a parsed game-setup template.
type Preamble struct {
	tmpl *template.Template
}

// LoadPreamble parses the template at path, or the built-in Gallic Wars
// template when path is empty.
func LoadPreamble(path string) (*Preamble, error) {
	src := defaultPreamble
	name := "preamble"
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read preamble: %w", err)
		}
		src, name = string(data), path
	}
	t, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse preamble %s: %w", name, err)
	}
	return &Preamble{tmpl: t}, nil
}

// Render executes the template into buf.
func (p *Preamble) Render(buf *bytes.Buffer, data PreambleData) error {
	if err := p.tmpl.Execute(buf, data); err != nil {
		return fmt.Errorf("render preamble: %w", err)
	}
	return nil
}

// StartingTile returns the tile of the first player capital, falling back
// to the first player city, then tile 0.
func (c *Config) StartingTile(width int) int {
	first := -1
	for _, city := range c.Cities {
		if !city.ClaimsTerritory() {
			continue
		}
		id := city.Y*width + city.X
		if city.Capital {
			return id
		}
		if first < 0 {
			first = id
		}
	}
	if first < 0 {
		return 0
	}
	return first
}

// CityBlock renders one roster entry in the game's element syntax.
func CityBlock(id, width int, city CityDefinition) tile.Field {
	owner := strconv.Itoa(max(city.Player, 0))
	family := city.Family
	if family == "" {
		family = "NONE"
	}
	culture := city.Culture
	if culture == "" {
		culture = "CULTURE_WEAK"
	}

	attrs := []tile.Attr{
		{Name: "ID", Value: strconv.Itoa(id)},
		{Name: "TileID", Value: strconv.Itoa(city.Y*width + city.X)},
		{Name: "Player", Value: strconv.Itoa(city.Player)},
		{Name: "Family", Value: family},
		{Name: "Founded", Value: "1"},
	}

	children := []tile.Field{
		tile.ValueField("Name", city.Name),
		tile.ValueField("Citizens", strconv.Itoa(city.Citizens)),
	}
	if city.Capital {
		children = append(children, tile.FlagField("Capital"))
	}
	children = append(children,
		tile.ValueField("FirstPlayer", owner),
		tile.ValueField("LastPlayer", owner),
	)
	if !city.ClaimsTerritory() {
		children = append(children, tile.ValueField("Tribe", city.Tribe))
	}
	for _, tag := range []string{"YieldProgress", "YieldOverflow", "ProjectCount", "LuxuryTurn", "AgentCharacterID", "TeamCultureStep"} {
		children = append(children, tile.FlagField(tag))
	}
	if city.ClaimsTerritory() {
		children = append(children, tile.FlagField("TeamDiscontentLevel"), tile.FlagField("TeamDiscontentLevelHighest"))
	}
	children = append(children, tile.FlagField("Religion"))

	if city.ClaimsTerritory() {
		p := strconv.Itoa(city.Player)
		children = append(children, tile.Element("PlayerFamily", nil, tile.ValueField("P."+p, family)))
	} else {
		children = append(children, tile.Element("PlayerFamily", nil))
	}
	children = append(children, tile.Element("TeamCulture", nil, tile.ValueField("T.0", culture)))

	if len(city.BuildQueue) > 0 {
		var queue []tile.Field
		for _, item := range city.BuildQueue {
			queue = append(queue, tile.Element("QueueInfo", nil,
				tile.ValueField("Build", item.Build),
				tile.ValueField("Type", item.Type),
				tile.ValueField("Data", "-1"),
				tile.ValueField("Progress", "0"),
				tile.FlagField("YieldCost"),
			))
		}
		children = append(children, tile.Element("BuildQueue", nil, queue...))
	}
	return tile.Element("City", attrs, children...)
}

// Document assembles the full scenario map: the game-setup preamble, the
// city roster, every composed tile and the closing root tag. An empty
// gameID is replaced by a fresh UUID; the ID used is returned.
func Document(cfg *Config, pre *Preamble, res *Result, gameID string) ([]byte, string, error) {
	if gameID == "" {
		gameID = uuid.NewString()
	}
	g := res.Grid
	var buf bytes.Buffer
	err := pre.Render(&buf, PreambleData{
		MapWidth:        g.Width,
		GameID:          gameID,
		NextUnitID:      cfg.UnitCount(),
		NextCityID:      cfg.CityCount(),
		NextCharacterID: cfg.Characters,
		StartingTileID:  cfg.StartingTile(g.Width),
	})
	if err != nil {
		return nil, "", err
	}
	for id, city := range cfg.Cities {
		tile.RenderField(&buf, CityBlock(id, g.Width, city), 1)
	}
	tile.RenderTiles(&buf, g.Records(), tile.WriteOptions{})
	buf.WriteString("</Root>\n")
	return buf.Bytes(), gameID, nil
}
