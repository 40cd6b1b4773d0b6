package tilemap

import (
	"bytes"
	"errors"
	"log"
	"reflect"
	"strings"
	"testing"

	"github.com/automoto/tilemaps/shared/gid"
	"github.com/automoto/tilemaps/shared/tiledoc"
)

const projectJSON = `{
  "__header__": {"app": "LDtk", "appVersion": "1.5.3"},
  "defs": {"tilesets": [
    {"uid": 1, "identifier": "Ground", "relPath": "ground.png", "tileGridSize": 16, "pxWid": 48, "pxHei": 16},
    {"uid": 7, "identifier": "Deco", "relPath": "deco.png", "tileGridSize": 16, "pxWid": 32, "pxHei": 16}
  ]},
  "levels": [
    {"identifier": "Entrance", "pxWid": 48, "pxHei": 32, "bgRelPath": "sky.png", "layerInstances": [
      {"__type": "Entities", "__identifier": "Entities", "__gridSize": 16, "__cWid": 3, "__cHei": 2,
       "__opacity": 1, "__tilesetDefUid": null, "visible": true, "autoLayerTiles": [], "gridTiles": []},
      {"__type": "IntGrid", "__identifier": "Collisions", "__gridSize": 8, "__cWid": 6, "__cHei": 4,
       "__opacity": 1, "__tilesetDefUid": null, "visible": false, "autoLayerTiles": [], "gridTiles": []},
      {"__type": "Tiles", "__identifier": "Deco", "__gridSize": 16, "__cWid": 3, "__cHei": 2,
       "__opacity": 0.5, "__tilesetDefUid": 7, "visible": true, "autoLayerTiles": [],
       "gridTiles": [
         {"px": [0, 0], "src": [16, 0], "f": 1, "t": 1},
         {"px": [32, 16], "src": [0, 0], "f": 0, "t": 0}
       ]},
      {"__type": "AutoLayer", "__identifier": "Ground", "__gridSize": 16, "__cWid": 3, "__cHei": 2,
       "__opacity": 1, "__tilesetDefUid": 1, "visible": true,
       "autoLayerTiles": [
         {"px": [0, 16], "src": [0, 0], "f": 0, "t": 0},
         {"px": [16, 16], "src": [0, 0], "f": 0, "t": 0},
         {"px": [32, 16], "src": [0, 0], "f": 0, "t": 0}
       ],
       "gridTiles": [
         {"px": [0, 16], "src": [32, 0], "f": 3, "t": 2},
         {"px": [16, 16], "src": [32, 0], "f": 3, "t": 2},
         {"px": [16, 16], "src": [16, 0], "f": 0, "t": 1},
         {"px": [40, 20], "src": [16, 0], "f": 1, "t": 1},
         {"px": [48, 0], "src": [0, 0], "f": 0, "t": 0}
       ]}
    ]},
    {"identifier": "Cellar", "pxWid": 16, "pxHei": 16, "layerInstances": [
      {"__type": "Tiles", "__identifier": "Floor", "__gridSize": 16, "__cWid": 1, "__cHei": 1,
       "__opacity": 1, "__tilesetDefUid": 1, "visible": true, "autoLayerTiles": [],
       "gridTiles": [{"px": [0, 0], "src": [32, 0], "f": 0, "t": 2}]}
    ]},
    {"identifier": "Void", "pxWid": 16, "pxHei": 16, "layerInstances": []}
  ]
}`

var (
	ground0 = tiledoc.LDtkTileID(1, 0)
	ground1 = tiledoc.LDtkTileID(1, 1)
	ground2 = tiledoc.LDtkTileID(1, 2)
	deco0   = tiledoc.LDtkTileID(7, 0)
	deco1   = tiledoc.LDtkTileID(7, 1)
)

func parseProject(t *testing.T, level int) (*Model, *bytes.Buffer) {
	t.Helper()
	project, err := tiledoc.ParseLDtk([]byte(projectJSON))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	m, err := ParseLDtk(project, level, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("ParseLDtk: %v", err)
	}
	return m, &buf
}

func TestParseLDtkLayers(t *testing.T) {
	m, logs := parseProject(t, 0)

	if m.TileWidth() != 16 || m.TileHeight() != 16 || m.DimensionX() != 3 || m.DimensionY() != 2 {
		t.Fatalf("grid is %dx%d of %dx%d px", m.DimensionX(), m.DimensionY(), m.TileWidth(), m.TileHeight())
	}
	var ids []int
	for _, l := range m.Layers() {
		ids = append(ids, l.ID())
	}
	// Bottom layer first; the hidden IntGrid and the entities are left out.
	if !reflect.DeepEqual(ids, []int{3, 2}) {
		t.Fatalf("layer ids = %v", ids)
	}
	deco, _ := m.TileLayer(2)
	if deco.Name() != "Deco" || deco.Alpha() != 0.5 {
		t.Fatalf("deco layer = %q alpha %v", deco.Name(), deco.Alpha())
	}
	if c, _ := deco.Cell(0, 0); c != (gid.Cell{TileID: deco1, FlippedHorizontally: true}) {
		t.Errorf("deco (0,0) = %+v", c)
	}
	if id := m.TileID(2, 1, 2); id != deco0 {
		t.Errorf("deco (2,1) = %d, want %d", id, deco0)
	}
	if m.BackgroundResourceName() != "sky.png" {
		t.Errorf("background = %q", m.BackgroundResourceName())
	}

	out := logs.String()
	if !strings.Contains(out, "only the first grid size (16 px)") {
		t.Errorf("grid size mismatch not logged: %q", out)
	}
	if !strings.Contains(out, "skipped 1 tiles") {
		t.Errorf("out of grid tile not logged: %q", out)
	}
}

func TestParseLDtkStacksTiles(t *testing.T) {
	m, _ := parseProject(t, 0)
	ground, _ := m.TileLayer(3)

	twoTiles := []uint32{uint32(ground0), gid.Pack(uint32(ground2), true, true, false)}
	tests := []struct {
		x, y  int
		id    int
		tiles []uint32
	}{
		{0, 1, firstStackTileID, twoTiles},
		{1, 1, firstStackTileID - 1, append(append([]uint32(nil), twoTiles...), uint32(ground1))},
		{2, 1, firstStackTileID - 2, []uint32{uint32(ground0), gid.Pack(uint32(ground1), true, false, false)}},
	}
	for _, tt := range tests {
		c, _ := ground.Cell(tt.x, tt.y)
		if c != (gid.Cell{TileID: tt.id}) {
			t.Errorf("(%d,%d) = %+v, want stack %#x without flags", tt.x, tt.y, c, tt.id)
			continue
		}
		def, ok := m.Definition(tt.id)
		if !ok || !def.HasStackedTiles() {
			t.Errorf("stack %#x has no definition", tt.id)
			continue
		}
		if got := def.StackedTiles(); !reflect.DeepEqual(got, tt.tiles) {
			t.Errorf("stack %#x = %v, want %v", tt.id, got, tt.tiles)
		}
	}

	// Every placed tile is defined, and equal stacks share a definition.
	want := []int{ground0, ground1, ground2, deco0, deco1,
		firstStackTileID - 2, firstStackTileID - 1, firstStackTileID}
	var got []int
	for _, d := range m.Definitions() {
		got = append(got, d.ID())
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("definitions = %v, want %v", got, want)
	}
	if def, _ := m.Definition(ground0); def.HasStackedTiles() {
		t.Error("plain tile reports stacked tiles")
	}
}

func TestParseLDtkLevelIndex(t *testing.T) {
	first, _ := parseProject(t, -1)
	if first.BackgroundResourceName() != "sky.png" {
		t.Fatal("a negative index did not select the first level")
	}

	cellar, _ := parseProject(t, 1)
	if cellar.DimensionX() != 1 || cellar.TileID(0, 0, 0) != ground2 {
		t.Fatalf("cellar is %dx%d with tile %d", cellar.DimensionX(), cellar.DimensionY(), cellar.TileID(0, 0, 0))
	}
	if cellar.BackgroundResourceName() != "" {
		t.Errorf("cellar background = %q", cellar.BackgroundResourceName())
	}

	project, err := tiledoc.ParseLDtk([]byte(projectJSON))
	if err != nil {
		t.Fatal(err)
	}
	for _, level := range []int{2, 3} {
		if _, err := ParseLDtk(project, level, log.New(&bytes.Buffer{}, "", 0)); !errors.Is(err, ErrInvalidDocument) {
			t.Errorf("level %d: err = %v, want ErrInvalidDocument", level, err)
		}
	}
	if _, err := ParseLDtk(nil, 0, nil); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("nil project: err = %v", err)
	}
}

func TestParseLDtkLayerWithoutTileset(t *testing.T) {
	project := &tiledoc.LDtkProject{Levels: []tiledoc.LDtkLevel{{
		Identifier: "Broken",
		LayerInstances: []tiledoc.LDtkLayerInstance{{
			Type: tiledoc.LDtkTiles, Identifier: "Orphan", GridSize: 8, CWid: 1, CHei: 1,
			Opacity: 1, Visible: true,
			GridTiles: []tiledoc.LDtkTile{{T: 0}},
		}},
	}}}
	var buf bytes.Buffer
	m, err := ParseLDtk(project, 0, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("ParseLDtk: %v", err)
	}
	if len(m.Layers()) != 0 || !strings.Contains(buf.String(), "Orphan") {
		t.Fatalf("layers = %d, log = %q", len(m.Layers()), buf.String())
	}
}
