// Package tilemap turns Tiled documents into an immutable tile map model
// and answers queries about its cells and hitboxes.
package tilemap

import (
	"math"
	"sort"

	"github.com/automoto/tilemaps/shared/gid"
	dmath "github.com/yohamta/donburi/features/math"
)

// Model is a parsed tile map. It is built once by Parse and is safe for
// concurrent reads.
type Model struct {
	tileWidth   int
	tileHeight  int
	dimX        int
	dimY        int
	definitions map[int]*TileDefinition
	layers      []Layer
	background  string
}

// TileWidth is the width of a tile in pixels.
func (m *Model) TileWidth() int  { return m.tileWidth }
func (m *Model) TileHeight() int { return m.tileHeight }

// DimensionX is the number of columns of the grid.
func (m *Model) DimensionX() int { return m.dimX }
func (m *Model) DimensionY() int { return m.dimY }

// Width is the map width in pixels.
func (m *Model) Width() int  { return m.tileWidth * m.dimX }
func (m *Model) Height() int { return m.tileHeight * m.dimY }

// BackgroundResourceName names the image drawn behind every layer, empty
// when there is none.
func (m *Model) BackgroundResourceName() string { return m.background }

func (m *Model) Definition(id int) (*TileDefinition, bool) {
	d, ok := m.definitions[id]
	return d, ok
}

// Definitions returns every tile definition sorted by id.
func (m *Model) Definitions() []*TileDefinition {
	out := make([]*TileDefinition, 0, len(m.definitions))
	for _, d := range m.definitions {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Layers returns the layers in draw order.
func (m *Model) Layers() []Layer {
	return append([]Layer(nil), m.layers...)
}

func (m *Model) Layer(id int) (Layer, bool) {
	for _, l := range m.layers {
		if l.ID() == id {
			return l, true
		}
	}
	return nil, false
}

func (m *Model) TileLayer(id int) (*TileLayer, bool) {
	l, ok := m.Layer(id)
	if !ok {
		return nil, false
	}
	tl, ok := l.(*TileLayer)
	return tl, ok
}

func (m *Model) ObjectLayer(id int) (*ObjectLayer, bool) {
	l, ok := m.Layer(id)
	if !ok {
		return nil, false
	}
	ol, ok := l.(*ObjectLayer)
	return ol, ok
}

// TileID returns the tile id at grid position (x, y) of a tile layer, or
// gid.EmptyTileID when the layer or the tile does not exist.
func (m *Model) TileID(x, y, layerID int) int {
	tl, ok := m.TileLayer(layerID)
	if !ok {
		return gid.EmptyTileID
	}
	id, _ := tl.TileID(x, y)
	return id
}

// PointIsInsideTile reports whether the pixel (x, y) falls on a tile of any
// tile layer whose definition has a hitbox tagged tag.
func (m *Model) PointIsInsideTile(x, y float64, tag string) bool {
	if m.tileWidth <= 0 || m.tileHeight <= 0 || x < 0 || y < 0 {
		return false
	}
	col := int(math.Floor(x / float64(m.tileWidth)))
	row := int(math.Floor(y / float64(m.tileHeight)))
	for _, l := range m.layers {
		tl, ok := l.(*TileLayer)
		if !ok {
			continue
		}
		id, ok := tl.TileID(col, row)
		if !ok {
			continue
		}
		if d, ok := m.definitions[id]; ok && d.HasTaggedHitbox(tag) {
			return true
		}
	}
	return false
}

// HitboxesAt returns the hitboxes tagged tag of the tile at grid (x, y) of
// a tile layer, flipped like the cell and placed in map pixels.
func (m *Model) HitboxesAt(layerID, x, y int, tag string) []Polygon {
	tl, ok := m.TileLayer(layerID)
	if !ok {
		return nil
	}
	c, ok := tl.Cell(x, y)
	if !ok || c.IsEmpty() {
		return nil
	}
	d, ok := m.definitions[c.TileID]
	if !ok {
		return nil
	}
	src := d.Hitboxes(tag)
	if len(src) == 0 {
		return nil
	}

	offX := float64(x * m.tileWidth)
	offY := float64(y * m.tileHeight)
	out := make([]Polygon, 0, len(src))
	for _, poly := range src {
		p := FlipPolygon(poly, c, float64(m.tileWidth), float64(m.tileHeight))
		for i := range p {
			p[i].X += offX
			p[i].Y += offY
		}
		out = append(out, p)
	}
	return out
}

// FlipPolygon returns a copy of poly flipped like cell inside a tile of the
// given size: diagonal first, then horizontal, then vertical.
func FlipPolygon(poly Polygon, cell gid.Cell, tileWidth, tileHeight float64) Polygon {
	out := make(Polygon, len(poly))
	for i, v := range poly {
		x, y := v.X, v.Y
		if cell.FlippedDiagonally {
			x, y = y, x
		}
		if cell.FlippedHorizontally {
			x = tileWidth - x
		}
		if cell.FlippedVertically {
			y = tileHeight - y
		}
		out[i] = dmath.Vec2{X: x, Y: y}
	}
	return out
}

// IsEmpty reports whether no layer holds a tile.
func (m *Model) IsEmpty() bool {
	for _, l := range m.layers {
		if !l.IsEmpty() {
			return false
		}
	}
	return true
}
