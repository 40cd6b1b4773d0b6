package render

import (
	"bytes"
	"context"
	"image"
	"log"
	"math"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/automoto/tilemaps/assets"
	"github.com/automoto/tilemaps/shared/atlas"
	"github.com/automoto/tilemaps/shared/gid"
	"github.com/automoto/tilemaps/shared/tiledoc"
	"github.com/automoto/tilemaps/shared/tilemap"
	"github.com/automoto/tilemaps/shared/tilemapmgr"
)

var allTransforms = []atlas.Transform{
	atlas.Identity, atlas.Rotate270, atlas.Rotate180, atlas.Rotate90,
	atlas.FlipVertical, atlas.Transpose, atlas.FlipHorizontal, atlas.AntiTranspose,
}

func TestGeoMStaysInFootprint(t *testing.T) {
	const w, h = 16.0, 8.0
	for _, tr := range allTransforms {
		g := GeoM(tr, w, h)
		fw, fh := w, h
		if tr.SwapsAxes() {
			fw, fh = h, w
		}
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, p := range [][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
			x, y := g.Apply(p[0], p[1])
			minX, minY = math.Min(minX, x), math.Min(minY, y)
			maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
		}
		if minX != 0 || minY != 0 || maxX != fw || maxY != fh {
			t.Errorf("%v: footprint (%v,%v)-(%v,%v), want (0,0)-(%v,%v)", tr, minX, minY, maxX, maxY, fw, fh)
		}
	}
}

func TestGeoMQuarterTurns(t *testing.T) {
	tests := []struct {
		tr           atlas.Transform
		wantX, wantY float64 // where the source top-left corner lands
	}{
		{atlas.Identity, 0, 0},
		{atlas.Rotate90, 8, 0},
		{atlas.Rotate180, 8, 8},
		{atlas.Rotate270, 0, 8},
	}
	for _, tt := range tests {
		x, y := GeoM(tt.tr, 8, 8).Apply(0, 0)
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("%v: top-left -> (%v, %v), want (%v, %v)", tt.tr, x, y, tt.wantX, tt.wantY)
		}
	}
}

// Drawn tiles and their hitboxes must flip the same way.
func TestGeoMMatchesHitboxFlips(t *testing.T) {
	poly := tilemap.Polygon{{X: 1, Y: 2}, {X: 7, Y: 3}, {X: 4, Y: 6}}
	for _, tr := range allTransforms {
		h, v, d := tr.Flags()
		flipped := tilemap.FlipPolygon(poly, gid.Cell{FlippedHorizontally: h, FlippedVertically: v, FlippedDiagonally: d}, 8, 8)
		g := GeoM(tr, 8, 8)
		for i, p := range poly {
			x, y := g.Apply(p.X, p.Y)
			if math.Abs(x-flipped[i].X) > 1e-9 || math.Abs(y-flipped[i].Y) > 1e-9 {
				t.Errorf("%v vertex %d: GeoM (%v, %v), hitbox (%v, %v)", tr, i, x, y, flipped[i].X, flipped[i].Y)
			}
		}
	}
}

func TestSubImageNeedsEbitenTexture(t *testing.T) {
	r := &atlas.Region{Texture: image.Rect(0, 0, 8, 8), Frame: image.Rect(0, 0, 8, 8)}
	if _, ok := SubImage(r); ok {
		t.Fatal("non-ebiten texture accepted")
	}
}

func TestTileAnimation(t *testing.T) {
	anim := NewTileAnimation(1)
	var frames []int
	for i := 0; i < 8; i++ {
		frames = append(frames, anim.Frame(3))
		anim.Update()
	}
	want := []int{0, 0, 1, 1, 2, 2, 0, 0}
	for i := range want {
		if frames[i] != want[i] {
			t.Fatalf("frames = %v, want %v", frames, want)
		}
	}

	anim.Restart()
	if anim.Frame(3) != 0 {
		t.Fatal("Restart did not rewind")
	}
	var none *TileAnimation
	if none.Frame(4) != 0 || anim.Frame(0) != 0 {
		t.Fatal("still tiles must stay on frame 0")
	}
}

func TestAnimatedRegion(t *testing.T) {
	r := &atlas.Region{Texture: image.Rect(0, 0, 64, 16), Frame: image.Rect(16, 0, 32, 16), Width: 16, Height: 16}
	if AnimatedRegion(r, 0) != r {
		t.Fatal("frame 0 must reuse the region")
	}
	moved := AnimatedRegion(r, 2)
	if moved.Frame != image.Rect(48, 0, 64, 16) {
		t.Fatalf("frame 2 = %v", moved.Frame)
	}
	if r.Frame != image.Rect(16, 0, 32, 16) {
		t.Fatal("source region was modified")
	}
}

func TestGeoMUnknownTransformIsIdentity(t *testing.T) {
	x, y := GeoM(atlas.Transform(99), 8, 4).Apply(3, 2)
	if x != 3 || y != 2 {
		t.Fatalf("(3, 2) -> (%v, %v)", x, y)
	}
}

func TestTextureLoaderLogsUnreadableImages(t *testing.T) {
	var logs bytes.Buffer
	l := NewTextureLoader(fstest.MapFS{}, "gfx", log.New(&logs, "", 0))
	if tex := l.Texture("missing.png"); tex != nil {
		t.Fatalf("Texture = %v, want nil", tex)
	}
	if !strings.Contains(logs.String(), "gfx/missing.png") {
		t.Fatalf("log = %q", logs.String())
	}
}

func TestCellRegionsExpandStacks(t *testing.T) {
	var logs bytes.Buffer
	logger := log.New(&logs, "", 0)
	mgr := tilemapmgr.New(tiledoc.NewFSSource(assets.Levels()), logger)
	ctx := context.Background()

	m, err := mgr.TileMap(ctx, "levels/dungeon.ldtk", "")
	if err != nil {
		t.Fatalf("TileMap: %v", err)
	}
	textures := assets.NewBoundsLoader(assets.Levels(), "levels", logger)
	a, err := mgr.TextureAtlas(ctx, textures.Texture, "", "levels/dungeon.ldtk", "")
	if err != nil {
		t.Fatalf("TextureAtlas: %v", err)
	}
	walls, ok := m.TileLayer(2)
	if !ok {
		t.Fatal("no walls layer")
	}

	stacked, _ := walls.Cell(2, 1)
	got := CellRegions(m, a, nil, stacked)
	if len(got) != 2 {
		t.Fatalf("stack draws %d regions, want 2", len(got))
	}
	if got[0].Frame != image.Rect(0, 0, 16, 16) || got[0].Transform != atlas.Identity {
		t.Errorf("bottom of stack = %+v", got[0])
	}
	if got[1].Frame != image.Rect(16, 0, 32, 16) || got[1].Transform != atlas.TransformFor(false, true, false) {
		t.Errorf("top of stack = %+v", got[1])
	}

	single, _ := walls.Cell(1, 1)
	if got := CellRegions(m, a, nil, single); len(got) != 1 || got[0].Transform != atlas.TransformFor(true, false, false) {
		t.Errorf("flipped cell = %+v", got)
	}
	if got := CellRegions(m, a, nil, gid.EmptyCell); got != nil {
		t.Errorf("empty cell = %+v", got)
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected warnings:\n%s", logs.String())
	}
}
