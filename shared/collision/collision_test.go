package collision

import (
	"bytes"
	"log"
	"testing"

	"github.com/automoto/tilemaps/shared/gid"
	"github.com/automoto/tilemaps/shared/tiledoc"
	"github.com/automoto/tilemaps/shared/tilemap"
)

const roomJSON = `{
  "tiledversion": "1.10.2",
  "width": 4, "height": 4, "tilewidth": 8, "tileheight": 8,
  "tilesets": [{
    "firstgid": 1, "name": "room", "tilewidth": 8, "tileheight": 8, "tilecount": 3, "columns": 3,
    "tiles": [
      {"id": 0, "type": "obstacle",
       "objectgroup": {"objects": [{"x": 2, "y": 3, "width": 4, "height": 5}]}},
      {"id": 1, "type": "obstacle"},
      {"id": 2, "type": "ladder"}
    ]
  }],
  "layers": [
    {"id": 1, "type": "tilelayer", "width": 4, "height": 4,
     "data": [1, 0, 0, 0,  0, 0, 0, 3,  0, 0, 2, 0,  0, 0, 0, 0]},
    {"id": 2, "type": "objectgroup", "objects": [{"id": 1, "gid": 2147483649, "x": 8, "y": 32}]}
  ]
}`

func roomModel(t *testing.T) *tilemap.Model {
	t.Helper()
	doc, err := tiledoc.ParseMap([]byte(roomJSON))
	if err != nil {
		t.Fatal(err)
	}
	m, err := tilemap.Parse(doc, log.New(&bytes.Buffer{}, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestNewSpace(t *testing.T) {
	space := NewSpace(roomModel(t), "obstacle", 8, 8)

	objs := space.Objects()
	if len(objs) != 3 {
		t.Fatalf("got %d objects, want 3", len(objs))
	}

	want := map[[4]float64]bool{
		{2, 3, 4, 5}:   true, // tile 0 at (0,0)
		{16, 16, 8, 8}: true, // full tile at (2,2)
		{10, 27, 4, 5}: true, // flipped tile object
	}
	for _, obj := range objs {
		key := [4]float64{obj.X, obj.Y, obj.W, obj.H}
		if !want[key] {
			t.Errorf("unexpected object %v", key)
		}
		if !obj.HasTags("obstacle") {
			t.Errorf("object %v is not tagged", key)
		}
		if hb, ok := obj.Data.(*Hitbox); !ok || len(hb.Polygon) != 4 {
			t.Errorf("object %v data = %#v", key, obj.Data)
		}
	}
}

func TestOverlapping(t *testing.T) {
	space := NewSpace(roomModel(t), "obstacle", 0, 0)

	tests := []struct {
		name       string
		x, y, w, h float64
		want       int
	}{
		{"inside tile hitbox", 3, 4, 1, 1, 1},
		{"same cell, outside hitbox", 0, 0, 1, 1, 0},
		{"full tile", 17, 17, 2, 2, 1},
		{"tile object", 11, 28, 1, 1, 1},
		{"ladder is not an obstacle", 25, 9, 2, 2, 0},
		{"spanning two", 4, 6, 14, 12, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(Overlapping(space, tt.x, tt.y, tt.w, tt.h, "obstacle")); got != tt.want {
				t.Fatalf("got %d hits, want %d", got, tt.want)
			}
		})
	}
	if n := len(space.Objects()); n != 3 {
		t.Fatalf("query object left in the space: %d objects", n)
	}
}

func TestPolygonBounds(t *testing.T) {
	triangle := tilemap.Polygon{{X: 1, Y: 2}, {X: 5, Y: 2}, {X: 3, Y: 7}}
	poly := tilemap.FlipPolygon(triangle, gid.Cell{FlippedHorizontally: true}, 8, 8)
	x, y, w, h := PolygonBounds(poly)
	if x != 3 || y != 2 || w != 4 || h != 5 {
		t.Fatalf("bounds = %v %v %v %v", x, y, w, h)
	}
}
