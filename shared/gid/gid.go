// Package gid packs and unpacks Tiled global tile ids.
//
// A packed cell is a uint32 whose three high bits carry the per-cell
// mirroring flags and whose low 29 bits carry tileId+1 (0 means an empty
// cell).
package gid

const (
	FlippedHorizontallyFlag uint32 = 0x80000000
	FlippedVerticallyFlag   uint32 = 0x40000000
	FlippedDiagonallyFlag   uint32 = 0x20000000

	// TileIDMask keeps the 29 id bits.
	TileIDMask uint32 = 0x1FFFFFFF

	flagsMask = FlippedHorizontallyFlag | FlippedVerticallyFlag | FlippedDiagonallyFlag
)

// EmptyTileID is the TileID of a cell that holds no tile.
const EmptyTileID = -1

// Cell is one decoded grid cell: a tile id and the three flip flags that
// select one of the 8 orientations of the tile image.
type Cell struct {
	TileID              int
	FlippedHorizontally bool
	FlippedVertically   bool
	FlippedDiagonally   bool
}

// EmptyCell is a cell without a tile and without flags.
var EmptyCell = Cell{TileID: EmptyTileID}

// IsEmpty reports whether the cell holds no tile.
func (c Cell) IsEmpty() bool {
	return c.TileID < 0
}

// Decode splits a packed cell value into its tile id and flags.
// The stored id is tileId+1, so 0 decodes to EmptyTileID.
func Decode(raw uint32) Cell {
	return Cell{
		TileID:              int(raw&TileIDMask) - 1,
		FlippedHorizontally: raw&FlippedHorizontallyFlag != 0,
		FlippedVertically:   raw&FlippedVerticallyFlag != 0,
		FlippedDiagonally:   raw&FlippedDiagonallyFlag != 0,
	}
}

// Encode is the inverse of Decode.
func Encode(c Cell) uint32 {
	return Pack(uint32(c.TileID+1)&TileIDMask, c.FlippedHorizontally, c.FlippedVertically, c.FlippedDiagonally)
}

// Pack folds the flip flags onto id as is. Unlike Encode it applies no +1
// offset, which makes it suitable as a lookup key for an already
// zero-based tile id.
func Pack(id uint32, flippedHorizontally, flippedVertically, flippedDiagonally bool) uint32 {
	packed := id &^ flagsMask
	if flippedHorizontally {
		packed |= FlippedHorizontallyFlag
	}
	if flippedVertically {
		packed |= FlippedVerticallyFlag
	}
	if flippedDiagonally {
		packed |= FlippedDiagonallyFlag
	}
	return packed
}

// Unpack is the inverse of Pack.
func Unpack(packed uint32) (id uint32, flippedHorizontally, flippedVertically, flippedDiagonally bool) {
	return packed & TileIDMask,
		packed&FlippedHorizontallyFlag != 0,
		packed&FlippedVerticallyFlag != 0,
		packed&FlippedDiagonallyFlag != 0
}
