package tilemap

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/automoto/tilemaps/shared/gid"
	"github.com/automoto/tilemaps/shared/tiledoc"
)

// Stack tiles get ids counting down from here, above every LDtk tile id.
const firstStackTileID = 0x0FFFFFFF

var errNoTileset = errors.New("layer has tiles but no tileset")

// ParseLDtk builds a model from one level of an LDtk project. A negative
// levelIndex selects the first level. Tile ids come from
// tiledoc.LDtkTileID, and layer ids are the layer indexes of the level.
//
// LDtk lets several tiles share a cell. Such a cell holds a stack tile
// whose definition lists the tiles to draw; equal stacks share one
// definition. A nil logger logs to log.Default().
func ParseLDtk(project *tiledoc.LDtkProject, levelIndex int, logger *log.Logger) (*Model, error) {
	if logger == nil {
		logger = log.Default()
	}
	if project == nil {
		return nil, fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	level, ok := project.Level(levelIndex)
	if !ok {
		return nil, fmt.Errorf("%w: no level %d, the project has %d", ErrInvalidDocument, levelIndex, len(project.Levels))
	}
	if len(level.LayerInstances) == 0 {
		return nil, fmt.Errorf("%w: level %q has no layer instances", ErrInvalidDocument, level.Identifier)
	}

	p := &ldtkParser{
		level:  level,
		logger: logger,
		model: &Model{
			definitions: make(map[int]*TileDefinition),
			background:  level.BgRelPath,
		},
		stacks:      make(map[string]int),
		nextStackID: firstStackTileID,
	}
	p.setGrid()
	// LDtk lists the top layer first.
	for i := len(level.LayerInstances) - 1; i >= 0; i-- {
		if err := p.addLayer(i, &level.LayerInstances[i]); err != nil {
			logger.Printf("Warning: dropping tile layer: %v", err)
		}
	}
	return p.model, nil
}

type ldtkParser struct {
	level       *tiledoc.LDtkLevel
	logger      *log.Logger
	model       *Model
	stacks      map[string]int
	nextStackID int
}

// setGrid takes the grid of the bottom-most layer that can hold tiles.
func (p *ldtkParser) setGrid() {
	layers := p.level.LayerInstances
	for i := len(layers) - 1; i >= 0; i-- {
		l := &layers[i]
		switch l.Type {
		case tiledoc.LDtkIntGrid, tiledoc.LDtkAutoLayer, tiledoc.LDtkTiles:
		default:
			continue
		}
		if p.model.tileWidth == 0 {
			p.model.tileWidth, p.model.tileHeight = l.GridSize, l.GridSize
			p.model.dimX, p.model.dimY = l.CWid, l.CHei
		} else if l.GridSize != p.model.tileWidth {
			p.logger.Printf("Warning: level %q: layer %q uses a %d px grid, only the first grid size (%d px) is followed",
				p.level.Identifier, l.Identifier, l.GridSize, p.model.tileWidth)
		}
	}
}

func (p *ldtkParser) addLayer(index int, l *tiledoc.LDtkLayerInstance) error {
	if !l.Visible || l.Type == tiledoc.LDtkEntities {
		return nil
	}
	layer := newTileLayer(index, l.Identifier, l.Opacity, p.model.dimX, p.model.dimY)
	tiles := l.Tiles()
	if len(tiles) > 0 {
		if l.TilesetDefUID == nil {
			return &LayerDecodeError{LayerID: index, LayerName: l.Identifier, Err: errNoTileset}
		}
		if l.GridSize <= 0 {
			return &LayerDecodeError{LayerID: index, LayerName: l.Identifier,
				Err: fmt.Errorf("%w: grid size %d", ErrInvalidDocument, l.GridSize)}
		}
	}

	skipped := 0
	for _, t := range tiles {
		uid := *l.TilesetDefUID
		if !tiledoc.ValidLDtkTile(uid, t.T) {
			skipped++
			continue
		}
		cell := gid.Cell{
			TileID:              tiledoc.LDtkTileID(uid, t.T),
			FlippedHorizontally: t.FlippedHorizontally(),
			FlippedVertically:   t.FlippedVertically(),
		}
		p.define(cell.TileID)

		x, y := gridCell(t.Px[0], l.GridSize), gridCell(t.Px[1], l.GridSize)
		below, ok := layer.Cell(x, y)
		if !ok {
			skipped++
			continue
		}
		if below.IsEmpty() {
			layer.set(x, y, cell)
			continue
		}
		layer.set(x, y, gid.Cell{TileID: p.stack(below, cell)})
	}
	if skipped > 0 {
		p.logger.Printf("Warning: tile layer %d (%s): skipped %d tiles outside the grid or the id range", index, l.Identifier, skipped)
	}
	p.model.layers = append(p.model.layers, layer)
	return nil
}

func gridCell(px, gridSize int) int {
	if px < 0 {
		return -1
	}
	return px / gridSize
}

func (p *ldtkParser) define(id int) {
	if _, ok := p.model.definitions[id]; !ok {
		p.model.definitions[id] = newTileDefinition(id, "", 0)
	}
}

// stack returns the stack tile drawing top over the tiles of below.
func (p *ldtkParser) stack(below, top gid.Cell) int {
	var tiles []uint32
	if d, ok := p.model.definitions[below.TileID]; ok && d.HasStackedTiles() {
		tiles = append(tiles, d.stacked...)
	} else {
		tiles = append(tiles, packCell(below))
	}
	tiles = append(tiles, packCell(top))

	key := stackKey(tiles)
	if id, ok := p.stacks[key]; ok {
		return id
	}
	id := p.nextStackID
	p.nextStackID--
	def := newTileDefinition(id, "", 0)
	def.stacked = tiles
	p.model.definitions[id] = def
	p.stacks[key] = id
	return id
}

func packCell(c gid.Cell) uint32 {
	return gid.Pack(uint32(c.TileID), c.FlippedHorizontally, c.FlippedVertically, c.FlippedDiagonally)
}

func stackKey(tiles []uint32) string {
	var b strings.Builder
	for i, t := range tiles {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.FormatUint(uint64(t), 10))
	}
	return b.String()
}
