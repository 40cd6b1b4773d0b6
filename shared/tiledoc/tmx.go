package tiledoc

import (
	"fmt"
	"io/fs"

	"github.com/automoto/tilemaps/shared/gid"
	"github.com/lafriks/go-tiled"
)

// LoadTMX parses a TMX file with go-tiled and converts it to the JSON
// document schema, so both formats go through the same parser. External
// .tsx tilesets are resolved by go-tiled. Tile layers come first, followed
// by object groups and then groups; TMX interleaving between the kinds is
// not kept.
func LoadTMX(fsys fs.FS, tmxPath string) (*Map, error) {
	levelMap, err := tiled.LoadFile(tmxPath, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", tmxPath, err)
	}
	return FromTMX(levelMap), nil
}

// FromTMX converts a map decoded by go-tiled.
func FromTMX(levelMap *tiled.Map) *Map {
	doc := &Map{
		TiledVersion: levelMap.TiledVersion,
		Orientation:  levelMap.Orientation,
		Width:        levelMap.Width,
		Height:       levelMap.Height,
		TileWidth:    levelMap.TileWidth,
		TileHeight:   levelMap.TileHeight,
	}
	if doc.TiledVersion == "" {
		// Older TMX files omit the attribute; go-tiled already validated the format.
		doc.TiledVersion = "tmx"
	}

	for _, ts := range levelMap.Tilesets {
		doc.Tilesets = append(doc.Tilesets, tilesetFromTMX(ts))
	}

	doc.Layers = layersFromTMX(levelMap.Layers, levelMap.ObjectGroups, levelMap.Groups, levelMap.Width, levelMap.Height)
	return doc
}

func layersFromTMX(layers []*tiled.Layer, objectGroups []*tiled.ObjectGroup, groups []*tiled.Group, width, height int) []Layer {
	var out []Layer
	for _, layer := range layers {
		data := make([]uint32, 0, len(layer.Tiles))
		for _, tile := range layer.Tiles {
			if tile == nil || tile.IsNil() || tile.Tileset == nil {
				data = append(data, 0)
				continue
			}
			data = append(data, gid.Pack(uint32(tile.Tileset.FirstGID)+uint32(tile.ID),
				tile.HorizontalFlip, tile.VerticalFlip, tile.DiagonalFlip))
		}
		opacity := float64(layer.Opacity)
		out = append(out, Layer{
			ID:      int(layer.ID),
			Name:    layer.Name,
			Type:    TypeTileLayer,
			Visible: boolPtr(layer.Visible),
			Opacity: &opacity,
			Width:   width,
			Height:  height,
			Data:    LayerData{GIDs: data},
		})
	}

	for _, og := range objectGroups {
		l := Layer{
			ID:      int(og.ID),
			Name:    og.Name,
			Type:    TypeObjectGroup,
			Visible: boolPtr(og.Visible),
		}
		for _, o := range og.Objects {
			l.Objects = append(l.Objects, objectFromTMX(o))
		}
		out = append(out, l)
	}

	for _, g := range groups {
		opacity := float64(g.Opacity)
		out = append(out, Layer{
			ID:      int(g.ID),
			Name:    g.Name,
			Type:    TypeGroup,
			Visible: boolPtr(g.Visible),
			Opacity: &opacity,
			Layers:  layersFromTMX(g.Layers, g.ObjectGroups, g.Groups, width, height),
		})
	}
	return out
}

func tilesetFromTMX(ts *tiled.Tileset) Tileset {
	out := Tileset{
		FirstGID:   int(ts.FirstGID),
		Name:       ts.Name,
		TileWidth:  ts.TileWidth,
		TileHeight: ts.TileHeight,
		TileCount:  ts.TileCount,
		Columns:    ts.Columns,
		Margin:     ts.Margin,
		Spacing:    ts.Spacing,
	}
	if ts.Image != nil {
		out.Image = ts.Image.Source
		out.ImageWidth = ts.Image.Width
		out.ImageHeight = ts.Image.Height
	}

	for _, t := range ts.Tiles {
		tile := Tile{
			ID:    int(t.ID),
			Type:  t.Type, //nolint:staticcheck // written by Tiled before 1.9
			Class: t.Class,
		}
		for _, f := range t.Animation {
			tile.Animation = append(tile.Animation, Frame{TileID: int(f.TileID), Duration: int(f.Duration)})
		}
		if len(t.ObjectGroups) > 0 {
			group := &ObjectGroup{}
			for _, og := range t.ObjectGroups {
				for _, o := range og.Objects {
					group.Objects = append(group.Objects, objectFromTMX(o))
				}
			}
			tile.ObjectGroup = group
		}
		out.Tiles = append(out.Tiles, tile)
	}
	return out
}

func objectFromTMX(o *tiled.Object) Object {
	out := Object{
		ID:       int(o.ID),
		Name:     o.Name,
		Class:    o.Class,
		Type:     o.Type, //nolint:staticcheck // TMX uses type= attribute
		X:        o.X,
		Y:        o.Y,
		Width:    o.Width,
		Height:   o.Height,
		Rotation: o.Rotation,
		GID:      uint32(o.GID),
		Visible:  boolPtr(o.Visible),
		Ellipse:  len(o.Ellipses) > 0,
	}
	if len(o.Polygons) > 0 {
		polygon := o.Polygons[0]
		if polygon.Points != nil {
			for _, point := range *polygon.Points {
				out.Polygon = append(out.Polygon, Point{X: point.X, Y: point.Y})
			}
		}
	}
	if len(o.PolyLines) > 0 {
		polyline := o.PolyLines[0]
		if polyline.Points != nil {
			for _, point := range *polyline.Points {
				out.Polyline = append(out.Polyline, Point{X: point.X, Y: point.Y})
			}
		}
	}
	return out
}

func boolPtr(b bool) *bool {
	return &b
}
