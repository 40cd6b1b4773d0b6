package tiledoc

import (
	"encoding/json"
	"fmt"
)

// LDtk layer instance types.
const (
	LDtkIntGrid   = "IntGrid"
	LDtkAutoLayer = "AutoLayer"
	LDtkTiles     = "Tiles"
	LDtkEntities  = "Entities"
)

// MaxLDtkTilesetUID is the largest tileset uid whose tiles get an id.
const MaxLDtkTilesetUID = 1<<11 - 1

// LDtkTileID is the tile id of tile t of a tileset: the uid in the high
// bits, the tile index in the low 16.
func LDtkTileID(tilesetUID, t int) int {
	return tilesetUID<<16 + t
}

// ValidLDtkTile reports whether LDtkTileID gives a distinct id for the pair.
func ValidLDtkTile(tilesetUID, t int) bool {
	return tilesetUID >= 0 && tilesetUID <= MaxLDtkTilesetUID && t >= 0 && t <= 0xFFFF
}

// LDtkProject is the subset of an LDtk project file (.ldtk) needed to draw
// its levels.
type LDtkProject struct {
	Header LDtkHeader  `json:"__header__"`
	Defs   LDtkDefs    `json:"defs"`
	Levels []LDtkLevel `json:"levels"`
}

type LDtkHeader struct {
	App        string `json:"app"`
	AppVersion string `json:"appVersion,omitempty"`
}

type LDtkDefs struct {
	Tilesets []LDtkTileset `json:"tilesets"`
}

// LDtkTileset is a tileset definition. RelPath is empty for tilesets
// without an image.
type LDtkTileset struct {
	UID          int    `json:"uid"`
	Identifier   string `json:"identifier"`
	RelPath      string `json:"relPath,omitempty"`
	TileGridSize int    `json:"tileGridSize"`
	PxWid        int    `json:"pxWid"`
	PxHei        int    `json:"pxHei"`
}

// Tileset returns the definition with the given uid.
func (p *LDtkProject) Tileset(uid int) (LDtkTileset, bool) {
	for _, ts := range p.Defs.Tilesets {
		if ts.UID == uid {
			return ts, true
		}
	}
	return LDtkTileset{}, false
}

// Level returns the level at index, where a negative index means the first
// level. ok is false when the level does not exist.
func (p *LDtkProject) Level(index int) (*LDtkLevel, bool) {
	if index < 0 {
		index = 0
	}
	if index >= len(p.Levels) {
		return nil, false
	}
	return &p.Levels[index], true
}

type LDtkLevel struct {
	Identifier     string              `json:"identifier"`
	PxWid          int                 `json:"pxWid"`
	PxHei          int                 `json:"pxHei"`
	BgRelPath      string              `json:"bgRelPath,omitempty"`
	LayerInstances []LDtkLayerInstance `json:"layerInstances"`
}

// LDtkLayerInstance is a layer of a level. LDtk lists the top layer first.
type LDtkLayerInstance struct {
	Type           string     `json:"__type"`
	Identifier     string     `json:"__identifier"`
	GridSize       int        `json:"__gridSize"`
	CWid           int        `json:"__cWid"`
	CHei           int        `json:"__cHei"`
	Opacity        float64    `json:"__opacity"`
	TilesetDefUID  *int       `json:"__tilesetDefUid"`
	Visible        bool       `json:"visible"`
	AutoLayerTiles []LDtkTile `json:"autoLayerTiles"`
	GridTiles      []LDtkTile `json:"gridTiles"`
}

// Tiles returns the auto-layer tiles followed by the hand placed ones.
func (l *LDtkLayerInstance) Tiles() []LDtkTile {
	out := make([]LDtkTile, 0, len(l.AutoLayerTiles)+len(l.GridTiles))
	out = append(out, l.AutoLayerTiles...)
	return append(out, l.GridTiles...)
}

// LDtkTile is a placed tile. Px is its position in the level and Src its
// top-left corner in the tileset image. Bit 0 of F flips it horizontally,
// bit 1 vertically.
type LDtkTile struct {
	Px  [2]int `json:"px"`
	Src [2]int `json:"src"`
	F   int    `json:"f"`
	T   int    `json:"t"`
}

func (t LDtkTile) FlippedHorizontally() bool { return t.F&1 != 0 }
func (t LDtkTile) FlippedVertically() bool   { return t.F&2 != 0 }

// ParseLDtk decodes an LDtk project.
func ParseLDtk(b []byte) (*LDtkProject, error) {
	var p LDtkProject
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse ldtk json: %w", err)
	}
	return &p, nil
}

// Kind tells which editor produced a level document.
type Kind int

const (
	KindUnknown Kind = iota
	KindTiled
	KindLDtk
)

func (k Kind) String() string {
	switch k {
	case KindTiled:
		return "tiled"
	case KindLDtk:
		return "ldtk"
	default:
		return "unknown"
	}
}

// Document is a level document of either kind. Exactly one of Tiled and
// LDtk is set.
type Document struct {
	Kind  Kind
	Tiled *Map
	LDtk  *LDtkProject
}

// Identify looks for the keys each editor writes: "tiledversion" for Tiled
// and a "__header__" whose app is "LDtk" for LDtk.
func Identify(b []byte) (Kind, error) {
	var keys struct {
		TiledVersion string      `json:"tiledversion"`
		Header       *LDtkHeader `json:"__header__"`
	}
	if err := json.Unmarshal(b, &keys); err != nil {
		return KindUnknown, fmt.Errorf("identify document: %w", err)
	}
	switch {
	case keys.TiledVersion != "":
		return KindTiled, nil
	case keys.Header != nil && keys.Header.App == "LDtk":
		return KindLDtk, nil
	default:
		return KindUnknown, nil
	}
}

// ParseDocument identifies b and decodes it. A document of unknown kind is
// decoded into Tiled, where the tile map parser rejects it for its missing
// version.
func ParseDocument(b []byte) (*Document, error) {
	kind, err := Identify(b)
	if err != nil {
		return nil, err
	}
	if kind == KindLDtk {
		p, err := ParseLDtk(b)
		if err != nil {
			return nil, err
		}
		return &Document{Kind: KindLDtk, LDtk: p}, nil
	}
	m, err := ParseMap(b)
	if err != nil {
		return nil, err
	}
	return &Document{Kind: kind, Tiled: m}, nil
}
