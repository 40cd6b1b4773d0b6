// Package collision builds resolv collision spaces from tile map hitboxes.
package collision

import (
	"github.com/automoto/tilemaps/shared/tilemap"
	"github.com/solarlune/resolv"
)

// Hitbox is attached to every object of the space as resolv.Object.Data.
type Hitbox struct {
	LayerID int
	TileID  int
	Polygon tilemap.Polygon // map pixels
}

// NewSpace adds one rectangle object per hitbox tagged tag, taken from the
// bounds of the hitbox polygon. Tile objects of object layers are added as
// well. Cell sizes of 0 use the tile size.
func NewSpace(model *tilemap.Model, tag string, cellW, cellH int) *resolv.Space {
	if cellW <= 0 || cellH <= 0 {
		cellW, cellH = model.TileWidth(), model.TileHeight()
	}
	space := resolv.NewSpace(model.Width(), model.Height(), cellW, cellH)
	tw, th := float64(model.TileWidth()), float64(model.TileHeight())

	for _, l := range model.Layers() {
		switch layer := l.(type) {
		case *tilemap.TileLayer:
			for y := 0; y < layer.DimensionY(); y++ {
				for x := 0; x < layer.DimensionX(); x++ {
					id, _ := layer.TileID(x, y)
					for _, poly := range model.HitboxesAt(layer.ID(), x, y, tag) {
						addHitbox(space, tag, &Hitbox{LayerID: layer.ID(), TileID: id, Polygon: poly})
					}
				}
			}
		case *tilemap.ObjectLayer:
			for _, o := range layer.Objects() {
				def, ok := model.Definition(o.Cell.TileID)
				if !ok {
					continue
				}
				for _, src := range def.Hitboxes(tag) {
					poly := tilemap.FlipPolygon(src, o.Cell, tw, th)
					for i := range poly {
						poly[i].X += o.X
						poly[i].Y += o.Y - th
					}
					addHitbox(space, tag, &Hitbox{LayerID: layer.ID(), TileID: o.Cell.TileID, Polygon: poly})
				}
			}
		}
	}
	return space
}

func addHitbox(space *resolv.Space, tag string, hb *Hitbox) {
	x, y, w, h := PolygonBounds(hb.Polygon)
	if w <= 0 || h <= 0 {
		return
	}
	obj := resolv.NewObject(x, y, w, h, tag)
	obj.SetShape(resolv.NewRectangle(0, 0, w, h))
	obj.Data = hb
	space.Add(obj)
}

// PolygonBounds returns the bounding rectangle of poly as position and size.
func PolygonBounds(poly tilemap.Polygon) (x, y, w, h float64) {
	minX, minY, maxX, maxY := poly.Bounds()
	return minX, minY, maxX - minX, maxY - minY
}

// Overlapping returns the objects tagged tag whose rectangle overlaps the
// given area.
func Overlapping(space *resolv.Space, x, y, w, h float64, tag string) []*resolv.Object {
	query := resolv.NewObject(x, y, w, h)
	space.Add(query)
	defer space.Remove(query)

	check := query.Check(0, 0, tag)
	if check == nil {
		return nil
	}
	var hits []*resolv.Object
	for _, obj := range check.Objects {
		// Check only compares cells.
		if obj.X < x+w && x < obj.X+obj.W && obj.Y < y+h && y < obj.Y+obj.H {
			hits = append(hits, obj)
		}
	}
	return hits
}
