package tilemap

import (
	"math"

	dmath "github.com/yohamta/donburi/features/math"
)

// Polygon is a closed list of vertices in tile-local pixel space.
type Polygon []dmath.Vec2

// Bounds returns the axis-aligned bounding box of the polygon.
func (p Polygon) Bounds() (minX, minY, maxX, maxY float64) {
	if len(p) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, v := range p {
		minX = math.Min(minX, v.X)
		minY = math.Min(minY, v.Y)
		maxX = math.Max(maxX, v.X)
		maxY = math.Max(maxY, v.Y)
	}
	return minX, minY, maxX, maxY
}

type taggedHitbox struct {
	tag      string
	polygons []Polygon
	full     bool
}

// TileDefinition describes one tile of a tileset: its hitboxes grouped by
// tag, its type and its animation length. It is never modified once the
// parser hands it over.
type TileDefinition struct {
	id              int
	tileType        string
	animationLength int
	hitboxes        []taggedHitbox
	stacked         []uint32
}

func newTileDefinition(id int, tileType string, animationLength int) *TileDefinition {
	return &TileDefinition{
		id:              id,
		tileType:        tileType,
		animationLength: animationLength,
	}
}

func (d *TileDefinition) addHitbox(tag string, polygon Polygon, full bool) {
	for i := range d.hitboxes {
		if d.hitboxes[i].tag == tag {
			d.hitboxes[i].polygons = append(d.hitboxes[i].polygons, polygon)
			d.hitboxes[i].full = d.hitboxes[i].full || full
			return
		}
	}
	d.hitboxes = append(d.hitboxes, taggedHitbox{
		tag:      tag,
		polygons: []Polygon{polygon},
		full:     full,
	})
}

func (d *TileDefinition) ID() int {
	return d.id
}

// Type is the free-form class of the tile, empty when none was set.
func (d *TileDefinition) Type() string {
	return d.tileType
}

// AnimationLength is the number of animation frames, 0 for a still tile.
func (d *TileDefinition) AnimationLength() int {
	return d.animationLength
}

// Polygons returns every hitbox polygon of the tile, whatever its tag.
func (d *TileDefinition) Polygons() []Polygon {
	var out []Polygon
	for _, h := range d.hitboxes {
		out = append(out, h.polygons...)
	}
	return out
}

// Hitboxes returns the polygons tagged with tag, or nil.
func (d *TileDefinition) Hitboxes(tag string) []Polygon {
	for _, h := range d.hitboxes {
		if h.tag == tag {
			return h.polygons
		}
	}
	return nil
}

func (d *TileDefinition) HasTaggedHitbox(tag string) bool {
	for _, h := range d.hitboxes {
		if h.tag == tag {
			return true
		}
	}
	return false
}

// HasFullHitbox reports whether the tag covers the whole tile square.
func (d *TileDefinition) HasFullHitbox(tag string) bool {
	for _, h := range d.hitboxes {
		if h.tag == tag {
			return h.full
		}
	}
	return false
}

// StackedTiles returns the tiles a stack tile draws, bottom first. Each is
// a tile id with its flip flags folded on by gid.Pack.
func (d *TileDefinition) StackedTiles() []uint32 {
	return append([]uint32(nil), d.stacked...)
}

// HasStackedTiles reports whether the tile stands for several tiles sharing
// one cell.
func (d *TileDefinition) HasStackedTiles() bool {
	return len(d.stacked) > 0
}

// Tags lists the hitbox tags in declaration order.
func (d *TileDefinition) Tags() []string {
	tags := make([]string, 0, len(d.hitboxes))
	for _, h := range d.hitboxes {
		tags = append(tags, h.tag)
	}
	return tags
}
