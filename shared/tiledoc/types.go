// Package tiledoc holds the Tiled level document schema and the sources that
// read it. It has no dependencies on the tile map model, only plain data.
package tiledoc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Layer types as written by Tiled.
const (
	TypeTileLayer   = "tilelayer"
	TypeObjectGroup = "objectgroup"
	TypeImageLayer  = "imagelayer"
	TypeGroup       = "group"
)

// Map is a Tiled map document (.tmj / .json).
type Map struct {
	TiledVersion string    `json:"tiledversion"`
	Orientation  string    `json:"orientation,omitempty"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	TileWidth    int       `json:"tilewidth"`
	TileHeight   int       `json:"tileheight"`
	Infinite     bool      `json:"infinite,omitempty"`
	Tilesets     []Tileset `json:"tilesets"`
	Layers       []Layer   `json:"layers"`
}

// Tileset is either embedded in a map or stored in its own file (.tsj).
// An embedded reference to an external file only carries FirstGID and Source.
type Tileset struct {
	FirstGID    int    `json:"firstgid,omitempty"`
	Source      string `json:"source,omitempty"`
	Name        string `json:"name,omitempty"`
	TileWidth   int    `json:"tilewidth,omitempty"`
	TileHeight  int    `json:"tileheight,omitempty"`
	TileCount   int    `json:"tilecount,omitempty"`
	Columns     int    `json:"columns,omitempty"`
	Margin      int    `json:"margin,omitempty"`
	Spacing     int    `json:"spacing,omitempty"`
	Image       string `json:"image,omitempty"`
	ImageWidth  int    `json:"imagewidth,omitempty"`
	ImageHeight int    `json:"imageheight,omitempty"`
	Tiles       []Tile `json:"tiles,omitempty"`
}

// FirstID returns the first global id of the tileset, defaulting to 1.
func (ts Tileset) FirstID() int {
	if ts.FirstGID <= 0 {
		return 1
	}
	return ts.FirstGID
}

// IsExternal reports whether the tileset is only a reference to another file.
func (ts Tileset) IsExternal() bool {
	return ts.Source != "" && ts.TileCount == 0 && len(ts.Tiles) == 0
}

// Tile holds the per-tile data of a tileset. Tiles without custom data are
// not listed.
type Tile struct {
	ID          int          `json:"id"`
	Type        string       `json:"type,omitempty"`
	Class       string       `json:"class,omitempty"`
	ObjectGroup *ObjectGroup `json:"objectgroup,omitempty"`
	Animation   []Frame      `json:"animation,omitempty"`
}

// Tag returns the tile class, or the pre-1.9 type attribute.
func (t Tile) Tag() string {
	if t.Class != "" {
		return t.Class
	}
	return t.Type
}

type Frame struct {
	TileID   int `json:"tileid"`
	Duration int `json:"duration"`
}

// ObjectGroup is the collision shape group of a tileset tile.
type ObjectGroup struct {
	Objects []Object `json:"objects"`
}

// Layer is any map layer. Type selects which fields are meaningful.
type Layer struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Visible     *bool     `json:"visible,omitempty"`
	Opacity     *float64  `json:"opacity,omitempty"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	Encoding    string    `json:"encoding,omitempty"`
	Compression string    `json:"compression,omitempty"`
	Data        LayerData `json:"data,omitempty"`
	Chunks      []Chunk   `json:"chunks,omitempty"`
	Objects     []Object  `json:"objects,omitempty"`
	Layers      []Layer   `json:"layers,omitempty"`
}

// IsVisible defaults to true when the attribute is absent.
func (l Layer) IsVisible() bool {
	return l.Visible == nil || *l.Visible
}

// Alpha defaults to 1 when the attribute is absent.
func (l Layer) Alpha() float64 {
	if l.Opacity == nil {
		return 1
	}
	return *l.Opacity
}

// Chunk is a piece of an infinite map layer.
type Chunk struct {
	X      int       `json:"x"`
	Y      int       `json:"y"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Data   LayerData `json:"data"`
}

// LayerData is the "data" field of a tile layer: a plain array of packed
// cells, or a base64 string when the layer declares an encoding.
type LayerData struct {
	GIDs    []uint32
	Encoded string
}

func (d *LayerData) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		return nil
	case len(b) > 0 && b[0] == '"':
		return json.Unmarshal(b, &d.Encoded)
	default:
		if err := json.Unmarshal(b, &d.GIDs); err != nil {
			return fmt.Errorf("layer data: %w", err)
		}
		return nil
	}
}

func (d LayerData) MarshalJSON() ([]byte, error) {
	if d.GIDs == nil && d.Encoded != "" {
		return json.Marshal(d.Encoded)
	}
	return json.Marshal(d.GIDs)
}

// Point is a polygon vertex, relative to its object.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Object is a placed object of an object layer or a collision shape of a
// tileset tile.
type Object struct {
	ID       int     `json:"id,omitempty"`
	Name     string  `json:"name,omitempty"`
	Type     string  `json:"type,omitempty"`
	Class    string  `json:"class,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`
	GID      uint32  `json:"gid,omitempty"`
	Visible  *bool   `json:"visible,omitempty"`
	Ellipse  bool    `json:"ellipse,omitempty"`
	Point    bool    `json:"point,omitempty"`
	Polygon  []Point `json:"polygon,omitempty"`
	Polyline []Point `json:"polyline,omitempty"`
}

func (o Object) IsVisible() bool {
	return o.Visible == nil || *o.Visible
}

func (o Object) Tag() string {
	if o.Class != "" {
		return o.Class
	}
	return o.Type
}

// ParseMap decodes a Tiled JSON map.
func ParseMap(b []byte) (*Map, error) {
	var m Map
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse map json: %w", err)
	}
	return &m, nil
}

// ParseTileset decodes a Tiled JSON tileset file.
func ParseTileset(b []byte) (*Tileset, error) {
	var ts Tileset
	if err := json.Unmarshal(b, &ts); err != nil {
		return nil, fmt.Errorf("parse tileset json: %w", err)
	}
	return &ts, nil
}

// WithTileset returns a copy of m where the first external tileset reference
// is replaced by ts. The reference's first gid is kept. When m has no
// external reference, ts replaces the first tileset, or is appended to an
// empty list. m itself is left untouched.
func (m *Map) WithTileset(ts *Tileset) *Map {
	out := *m
	out.Tilesets = append([]Tileset(nil), m.Tilesets...)

	merged := *ts
	slot := -1
	for i, ref := range out.Tilesets {
		if ref.IsExternal() {
			slot = i
			break
		}
	}
	if slot < 0 && len(out.Tilesets) > 0 {
		slot = 0
	}
	if slot < 0 {
		out.Tilesets = append(out.Tilesets, merged)
		return &out
	}

	ref := out.Tilesets[slot]
	merged.FirstGID = ref.FirstID()
	out.Tilesets[slot] = merged
	return &out
}
