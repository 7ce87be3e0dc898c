package tile

// Tags the map passes read or write.
const (
	TagTerrain     = "Terrain"
	TagHeight      = "Height"
	TagVegetation  = "Vegetation"
	TagResource    = "Resource"
	TagRiverW      = "RiverW"
	TagRiverSW     = "RiverSW"
	TagRiverSE     = "RiverSE"
	TagCitySite    = "CitySite"
	TagImprovement = "Improvement"
	TagElementName = "ElementName"
	TagBoundary    = "Boundary"
	TagMetadata    = "Metadata"
	TagTribeSite   = "TribeSite"
	TagNationSite  = "NationSite"
)

// Value tokens understood by the game loader.
const (
	TerrainWater     = "TERRAIN_WATER"
	TerrainUrban     = "TERRAIN_URBAN"
	TerrainLush      = "TERRAIN_LUSH"
	TerrainTemperate = "TERRAIN_TEMPERATE"
	TerrainArid      = "TERRAIN_ARID"
	TerrainMarsh     = "TERRAIN_MARSH"
	TerrainTundra    = "TERRAIN_TUNDRA"

	HeightOcean    = "HEIGHT_OCEAN"
	HeightCoast    = "HEIGHT_COAST"
	HeightLake     = "HEIGHT_LAKE"
	HeightFlat     = "HEIGHT_FLAT"
	HeightHill     = "HEIGHT_HILL"
	HeightMountain = "HEIGHT_MOUNTAIN"

	VegetationTrees = "VEGETATION_TREES"
	VegetationScrub = "VEGETATION_SCRUB"

	CitySiteActive = "ACTIVE"
	CitySiteUsed   = "USED"

	ImprovementCitySite = "IMPROVEMENT_CITY_SITE"
)

// RiverTags lists the edge tags whose meaning depends on row parity.
var RiverTags = []string{TagRiverW, TagRiverSW, TagRiverSE}

// Water returns the default open-water record used for cells that do not
// exist in a source grid.
func Water(id int) *Record {
	return &Record{ID: id, Fields: []Field{
		ValueField(TagTerrain, TerrainWater),
		ValueField(TagHeight, HeightOcean),
	}}
}

// HasRiver reports whether the record carries any parity-sensitive river edge.
func (r *Record) HasRiver() bool {
	for _, tag := range RiverTags {
		if r.Has(tag) {
			return true
		}
	}
	return false
}
