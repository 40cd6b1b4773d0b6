package config

// TileMapConfig contains tile map loading and collision configuration
type TileMapConfig struct {
	// Assets
	AssetsDir string // Root of the level files, empty to use the embedded levels
	Map       string // Default map, relative to AssetsDir
	Tileset   string // Default external tileset, empty when the map embeds it
	Atlas     string // Atlas image override, empty to use the tileset image

	// Collision
	CollisionTag string // Hitbox tag turned into collision objects
	CellWidth    int    // resolv space cell size, in pixels
	CellHeight   int

	// Loading
	RetryFailedLoads bool // Retry failed loads on the next request instead of caching the failure
}

// RenderConfig contains tile drawing configuration
type RenderConfig struct {
	Scale float64 // Scale applied when drawing tiles
}

var TileMap TileMapConfig
var Render RenderConfig

func init() {
	// Tile Map Config
	TileMap = TileMapConfig{
		AssetsDir: "",
		Map:       "levels/level1.tmj",
		Tileset:   "levels/tiles.tsj",
		Atlas:     "",

		CollisionTag: "obstacle",
		CellWidth:    16, // Matches the common tile size
		CellHeight:   16,

		RetryFailedLoads: false,
	}

	// Render Config
	Render = RenderConfig{
		Scale: 1.0,
	}
}
