package atlas

import (
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/automoto/tilemaps/shared/tiledoc"
)

var ErrNoLevel = errors.New("level not found")

// BuildLDtk stores a region for every tile placed in one level of project.
// A negative levelIndex selects the first level. Each tileset uid has its
// own texture, resolved by the tileset relPath; a tileset without a
// texture is logged and its tiles get no region. The level background, if
// any, is stored with SetBackground under its bgRelPath.
func BuildLDtk(project *tiledoc.LDtkProject, levelIndex int, textures TextureFunc, logger *log.Logger) (*Atlas, error) {
	if logger == nil {
		logger = log.Default()
	}
	if project == nil {
		return nil, fmt.Errorf("%w: nil project", ErrNoLevel)
	}
	level, ok := project.Level(levelIndex)
	if !ok || len(level.LayerInstances) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoLevel, levelIndex)
	}
	resolve := func(name string) Texture {
		if textures == nil {
			return nil
		}
		return textures(name)
	}

	a := New()
	loaded := make(map[int]Texture)
	for i := len(level.LayerInstances) - 1; i >= 0; i-- {
		l := &level.LayerInstances[i]
		if l.Type == tiledoc.LDtkEntities || l.TilesetDefUID == nil {
			continue
		}
		uid := *l.TilesetDefUID
		ts, ok := project.Tileset(uid)
		if !ok {
			logger.Printf("Warning: layer %q uses unknown tileset %d", l.Identifier, uid)
			continue
		}
		tex, seen := loaded[uid]
		if !seen {
			if ts.RelPath == "" {
				logger.Printf("Warning: tileset %q has no atlas image", ts.Identifier)
			} else if tex = resolve(ts.RelPath); tex == nil {
				logger.Printf("Warning: atlas image %q of tileset %q cannot be loaded", ts.RelPath, ts.Identifier)
			}
			loaded[uid] = tex
		}
		if tex == nil {
			continue
		}

		size := ts.TileGridSize
		corner := tex.Bounds().Min
		for _, t := range l.Tiles() {
			if !tiledoc.ValidLDtkTile(uid, t.T) {
				continue
			}
			id := tiledoc.LDtkTileID(uid, t.T)
			if _, ok := a.regions[uint32(id)]; ok {
				continue
			}
			origin := corner.Add(image.Pt(t.Src[0], t.Src[1]))
			a.SetRegion(id, false, false, false, &Region{
				Texture:   tex,
				Frame:     image.Rectangle{Min: origin, Max: origin.Add(image.Pt(size, size))},
				Width:     size,
				Height:    size,
				Transform: Identity,
			})
		}
	}

	if level.BgRelPath != "" {
		tex := resolve(level.BgRelPath)
		if tex == nil {
			logger.Printf("Warning: background %q of level %q cannot be loaded", level.BgRelPath, level.Identifier)
		} else {
			corner := tex.Bounds().Min
			a.SetBackground(level.BgRelPath, &Region{
				Texture:   tex,
				Frame:     image.Rectangle{Min: corner, Max: corner.Add(image.Pt(level.PxWid, level.PxHei))},
				Width:     level.PxWid,
				Height:    level.PxHei,
				Transform: Identity,
			})
		}
	}
	return a, nil
}
