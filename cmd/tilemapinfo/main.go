package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/automoto/tilemaps/assets"
	"github.com/automoto/tilemaps/config"
	"github.com/automoto/tilemaps/shared/collision"
	"github.com/automoto/tilemaps/shared/tiledoc"
	"github.com/automoto/tilemaps/shared/tilemap"
	"github.com/automoto/tilemaps/shared/tilemapmgr"
)

func main() {
	assetsDir := flag.String("assets", config.TileMap.AssetsDir, "Assets directory (empty = embedded levels)")
	mapFile := flag.String("map", config.TileMap.Map, "Tile map file, relative to the assets directory")
	tilesetFile := flag.String("tileset", config.TileMap.Tileset, "External tileset file (empty = embedded in the map)")
	atlasImage := flag.String("atlas", config.TileMap.Atlas, "Atlas image override (empty = tileset image)")
	level := flag.Int("level", 0, "Level index of an LDtk project")
	tag := flag.String("tag", config.TileMap.CollisionTag, "Hitbox tag used for collision")
	retry := flag.Bool("retry", config.TileMap.RetryFailedLoads, "Retry failed loads instead of caching the failure")
	flag.Parse()

	logger := log.New(os.Stderr, "[tilemapinfo] ", log.LstdFlags)

	var fsys fs.FS = assets.Levels()
	if *assetsDir != "" {
		fsys = os.DirFS(*assetsDir)
	}

	var opts []tilemapmgr.Option
	if *retry {
		opts = append(opts, tilemapmgr.WithRetryFailedLoads())
	}
	mgr := tilemapmgr.New(tiledoc.NewFSSource(fsys), logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	model, err := mgr.TileMapLevel(ctx, *mapFile, *tilesetFile, *level)
	if err != nil {
		logger.Fatalf("fatal: %v", err)
	}
	printModel(model, *tag)

	textures := assets.NewBoundsLoader(fsys, path.Dir(*mapFile), logger)
	a, err := mgr.TextureAtlasLevel(ctx, textures.Texture, *atlasImage, *mapFile, *tilesetFile, *level)
	if err != nil {
		logger.Printf("no atlas: %v", err)
	} else {
		fmt.Printf("atlas: %d regions\n", a.Len())
	}

	space := collision.NewSpace(model, *tag, config.TileMap.CellWidth, config.TileMap.CellHeight)
	fmt.Printf("collision: %d %q objects\n", len(space.Objects()), *tag)
}

func printModel(m *tilemap.Model, tag string) {
	fmt.Printf("map: %dx%d tiles of %dx%d px (%dx%d px)\n",
		m.DimensionX(), m.DimensionY(), m.TileWidth(), m.TileHeight(), m.Width(), m.Height())

	for _, l := range m.Layers() {
		switch layer := l.(type) {
		case *tilemap.TileLayer:
			used := 0
			for y := 0; y < layer.DimensionY(); y++ {
				for x := 0; x < layer.DimensionX(); x++ {
					if _, ok := layer.TileID(x, y); ok {
						used++
					}
				}
			}
			fmt.Printf("layer %d %q: tiles, %d cells used, alpha %.2f\n", layer.ID(), layer.Name(), used, layer.Alpha())
		case *tilemap.ObjectLayer:
			fmt.Printf("layer %d %q: %d tile objects\n", layer.ID(), layer.Name(), len(layer.Objects()))
		}
	}

	tagged, animated, stacks := 0, 0, 0
	for _, def := range m.Definitions() {
		if def.HasTaggedHitbox(tag) {
			tagged++
		}
		if def.AnimationLength() > 0 {
			animated++
		}
		if def.HasStackedTiles() {
			stacks++
		}
	}
	fmt.Printf("tiles: %d defined, %d with %q hitboxes, %d animated, %d stacks\n",
		len(m.Definitions()), tagged, tag, animated, stacks)
	if bg := m.BackgroundResourceName(); bg != "" {
		fmt.Printf("background: %s\n", bg)
	}
}
