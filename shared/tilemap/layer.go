package tilemap

import "github.com/automoto/tilemaps/shared/gid"

// Layer is either a *TileLayer or an *ObjectLayer.
type Layer interface {
	// ID is the layer id of the source document.
	ID() int
	Name() string
	IsEmpty() bool
}

// TileLayer is a dense grid of cells, stored row-major.
type TileLayer struct {
	id     int
	name   string
	alpha  float64
	width  int
	height int
	cells  []gid.Cell
}

func newTileLayer(id int, name string, alpha float64, width, height int) *TileLayer {
	cells := make([]gid.Cell, width*height)
	for i := range cells {
		cells[i] = gid.EmptyCell
	}
	return &TileLayer{
		id:     id,
		name:   name,
		alpha:  alpha,
		width:  width,
		height: height,
		cells:  cells,
	}
}

func (l *TileLayer) ID() int      { return l.id }
func (l *TileLayer) Name() string { return l.name }

// Alpha is the layer opacity in [0, 1].
func (l *TileLayer) Alpha() float64 { return l.alpha }

func (l *TileLayer) DimensionX() int { return l.width }
func (l *TileLayer) DimensionY() int { return l.height }

// Cell returns the cell at (x, y). ok is false out of bounds.
func (l *TileLayer) Cell(x, y int) (c gid.Cell, ok bool) {
	if x < 0 || y < 0 || x >= l.width || y >= l.height {
		return gid.EmptyCell, false
	}
	return l.cells[y*l.width+x], true
}

// TileID returns the tile id at (x, y). ok is false for an empty cell or
// out of bounds.
func (l *TileLayer) TileID(x, y int) (id int, ok bool) {
	c, ok := l.Cell(x, y)
	if !ok || c.IsEmpty() {
		return gid.EmptyTileID, false
	}
	return c.TileID, true
}

// GID returns the packed cell value at (x, y), 0 when empty or out of bounds.
func (l *TileLayer) GID(x, y int) uint32 {
	c, _ := l.Cell(x, y)
	return gid.Encode(c)
}

func (l *TileLayer) IsEmpty() bool {
	for _, c := range l.cells {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

func (l *TileLayer) set(x, y int, c gid.Cell) {
	l.cells[y*l.width+x] = c
}

// TileObject is a tile placed freely on an object layer. Y is the bottom of
// the tile, as Tiled stores it.
type TileObject struct {
	X, Y float64
	Cell gid.Cell
}

// ObjectLayer is a sparse list of tile objects.
type ObjectLayer struct {
	id      int
	name    string
	objects []TileObject
}

func (l *ObjectLayer) ID() int      { return l.id }
func (l *ObjectLayer) Name() string { return l.name }

// Objects returns the objects in document order. The slice is shared; do
// not modify it.
func (l *ObjectLayer) Objects() []TileObject { return l.objects }

func (l *ObjectLayer) IsEmpty() bool { return len(l.objects) == 0 }
