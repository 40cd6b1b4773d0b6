package tilemap

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/automoto/tilemaps/shared/gid"
	"github.com/automoto/tilemaps/shared/tiledoc"
	dmath "github.com/yohamta/donburi/features/math"
)

var (
	// ErrInvalidDocument is returned by Parse when the document cannot
	// produce a model at all.
	ErrInvalidDocument = errors.New("invalid tile map document")

	ErrInfiniteLayer = errors.New("infinite (chunked) layers are not supported")
	ErrShortLayer    = errors.New("layer data is shorter than its size")
)

var errUnsupportedShape = errors.New("unsupported hitbox shape")

// LayerDecodeError reports a tile layer that was dropped while parsing.
type LayerDecodeError struct {
	LayerID   int
	LayerName string
	Err       error
}

func (e *LayerDecodeError) Error() string {
	return fmt.Sprintf("layer %d (%s): %v", e.LayerID, e.LayerName, e.Err)
}

func (e *LayerDecodeError) Unwrap() error {
	return e.Err
}

// Parse builds a model from a Tiled map document whose tilesets are all
// embedded. Layer problems are logged and the layer dropped; only document
// level problems fail the parse. A nil logger logs to log.Default().
func Parse(doc *tiledoc.Map, logger *log.Logger) (*Model, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	p := &parser{
		doc:    doc,
		logger: logger,
		model: &Model{
			tileWidth:   doc.TileWidth,
			tileHeight:  doc.TileHeight,
			dimX:        doc.Width,
			dimY:        doc.Height,
			definitions: make(map[int]*TileDefinition),
		},
	}
	for _, ts := range doc.Tilesets {
		p.addTileset(ts)
	}
	p.addLayers(doc.Layers, 1)
	return p.model, nil
}

func validate(doc *tiledoc.Map) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	if doc.TiledVersion == "" {
		return fmt.Errorf("%w: no tiledversion, was the map exported from Tiled?", ErrInvalidDocument)
	}
	if doc.TileWidth <= 0 || doc.TileHeight <= 0 {
		return fmt.Errorf("%w: tile size %dx%d", ErrInvalidDocument, doc.TileWidth, doc.TileHeight)
	}
	if doc.Width < 0 || doc.Height < 0 {
		return fmt.Errorf("%w: map size %dx%d", ErrInvalidDocument, doc.Width, doc.Height)
	}
	if len(doc.Tilesets) == 0 {
		return fmt.Errorf("%w: no tileset", ErrInvalidDocument)
	}
	for _, ts := range doc.Tilesets {
		if ts.IsExternal() {
			return fmt.Errorf("%w: tileset %q was not resolved", ErrInvalidDocument, ts.Source)
		}
	}
	return nil
}

type parser struct {
	doc    *tiledoc.Map
	logger *log.Logger
	model  *Model
}

func (p *parser) addTileset(ts tiledoc.Tileset) {
	base := ts.FirstID() - 1
	tileW, tileH := ts.TileWidth, ts.TileHeight
	if tileW <= 0 || tileH <= 0 {
		tileW, tileH = p.doc.TileWidth, p.doc.TileHeight
	}

	for _, tile := range ts.Tiles {
		id := base + tile.ID
		def := newTileDefinition(id, tile.Tag(), len(tile.Animation))

		switch {
		case tile.ObjectGroup != nil:
			for _, obj := range tile.ObjectGroup.Objects {
				poly, err := objectPolygon(obj)
				if err != nil {
					p.logger.Printf("Warning: tileset %q tile %d: %v", ts.Name, tile.ID, err)
					continue
				}
				tag := obj.Tag()
				if tag == "" {
					tag = tile.Tag()
				}
				def.addHitbox(tag, poly, false)
			}
		case tile.Tag() != "":
			def.addHitbox(tile.Tag(), fullTile(float64(tileW), float64(tileH)), true)
		}
		p.model.definitions[id] = def
	}

	for i := 0; i < ts.TileCount; i++ {
		id := base + i
		if _, ok := p.model.definitions[id]; !ok {
			p.model.definitions[id] = newTileDefinition(id, "", 0)
		}
	}
}

func fullTile(w, h float64) Polygon {
	return Polygon{{X: 0, Y: 0}, {X: 0, Y: h}, {X: w, Y: h}, {X: w, Y: 0}}
}

// objectPolygon converts a collision object to a polygon in tile space.
// Points are rotated about the object origin.
func objectPolygon(obj tiledoc.Object) (Polygon, error) {
	var local []tiledoc.Point
	switch {
	case obj.Ellipse:
		return nil, fmt.Errorf("%w: ellipse", errUnsupportedShape)
	case obj.Point:
		return nil, fmt.Errorf("%w: point", errUnsupportedShape)
	case obj.Polyline != nil:
		return nil, fmt.Errorf("%w: polyline", errUnsupportedShape)
	case obj.Polygon != nil:
		if len(obj.Polygon) < 3 {
			return nil, fmt.Errorf("%w: polygon with %d points", errUnsupportedShape, len(obj.Polygon))
		}
		local = obj.Polygon
	case obj.Width > 0 && obj.Height > 0:
		local = []tiledoc.Point{
			{X: 0, Y: 0},
			{X: 0, Y: obj.Height},
			{X: obj.Width, Y: obj.Height},
			{X: obj.Width, Y: 0},
		}
	default:
		return nil, fmt.Errorf("%w: empty rectangle", errUnsupportedShape)
	}

	cos, sin := rotation(obj.Rotation)
	poly := make(Polygon, len(local))
	for i, pt := range local {
		poly[i] = dmath.Vec2{
			X: obj.X + pt.X*cos - pt.Y*sin,
			Y: obj.Y + pt.X*sin + pt.Y*cos,
		}
	}
	return poly, nil
}

// rotation returns cos and sin of deg degrees, exact on right angles.
func rotation(deg float64) (cos, sin float64) {
	if deg == 0 {
		return 1, 0
	}
	rad := deg * math.Pi / 180
	cos, sin = math.Cos(rad), math.Sin(rad)
	if cos == 1 || cos == -1 {
		sin = 0
	}
	if sin == 1 || sin == -1 {
		cos = 0
	}
	return cos, sin
}

func (p *parser) addLayers(layers []tiledoc.Layer, alpha float64) {
	for _, l := range layers {
		if !l.IsVisible() {
			continue
		}
		switch l.Type {
		case tiledoc.TypeGroup:
			p.addLayers(l.Layers, alpha*l.Alpha())
		case tiledoc.TypeObjectGroup:
			p.addObjectLayer(l)
		case tiledoc.TypeTileLayer:
			if err := p.addTileLayer(l, alpha*l.Alpha()); err != nil {
				p.logger.Printf("Warning: dropping tile layer: %v", err)
			}
		}
	}
}

func (p *parser) addTileLayer(l tiledoc.Layer, alpha float64) error {
	if len(l.Chunks) > 0 {
		return &LayerDecodeError{LayerID: l.ID, LayerName: l.Name, Err: ErrInfiniteLayer}
	}

	cells := l.Data.GIDs
	if l.Encoding == "base64" || (cells == nil && l.Data.Encoded != "") {
		decoded, err := gid.DecodeLayerBuffer(l.Encoding, l.Compression, l.Data.Encoded)
		if err != nil {
			return &LayerDecodeError{LayerID: l.ID, LayerName: l.Name, Err: err}
		}
		cells = decoded
	}

	w, h := l.Width, l.Height
	if w <= 0 || h <= 0 {
		w, h = p.doc.Width, p.doc.Height
	}
	if len(cells) < w*h {
		return &LayerDecodeError{
			LayerID:   l.ID,
			LayerName: l.Name,
			Err:       fmt.Errorf("%w: %d cells for %dx%d", ErrShortLayer, len(cells), w, h),
		}
	}

	layer := newTileLayer(l.ID, l.Name, alpha, p.model.dimX, p.model.dimY)
	unknown := 0
	for y := 0; y < h && y < p.model.dimY; y++ {
		for x := 0; x < w && x < p.model.dimX; x++ {
			c := gid.Decode(cells[y*w+x])
			if c.IsEmpty() {
				continue
			}
			if _, ok := p.model.definitions[c.TileID]; !ok {
				unknown++
				continue
			}
			layer.set(x, y, c)
		}
	}
	if unknown > 0 {
		p.logger.Printf("Warning: tile layer %d (%s): %d cells reference unknown tiles and were left empty", l.ID, l.Name, unknown)
	}
	p.model.layers = append(p.model.layers, layer)
	return nil
}

func (p *parser) addObjectLayer(l tiledoc.Layer) {
	layer := &ObjectLayer{id: l.ID, name: l.Name}
	unknown := 0
	for _, o := range l.Objects {
		if !o.IsVisible() || o.GID == 0 {
			continue
		}
		c := gid.Decode(o.GID)
		if _, ok := p.model.definitions[c.TileID]; !ok {
			unknown++
			continue
		}
		layer.objects = append(layer.objects, TileObject{X: o.X, Y: o.Y, Cell: c})
	}
	if unknown > 0 {
		p.logger.Printf("Warning: object layer %d (%s): skipped %d objects with unknown tiles", l.ID, l.Name, unknown)
	}
	p.model.layers = append(p.model.layers, layer)
}
