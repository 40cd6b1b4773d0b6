// Package render draws tile map layers with ebiten.
package render

import (
	"image"

	"github.com/automoto/tilemaps/config"
	"github.com/automoto/tilemaps/shared/atlas"
	"github.com/automoto/tilemaps/shared/gid"
	"github.com/automoto/tilemaps/shared/tilemap"
	"github.com/hajimehoshi/ebiten/v2"
)

// GeoM maps a w x h source frame onto its on-screen footprint for t. The
// footprint starts at the origin and is h x w for transforms that swap
// axes. Flips apply in Tiled order: diagonal, horizontal, vertical. A
// transform outside the D8 table draws unflipped.
func GeoM(t atlas.Transform, w, h float64) ebiten.GeoM {
	var g ebiten.GeoM
	flipH, flipV, diagonal := t.Flags()

	fw, fh := w, h
	if diagonal {
		// Transpose: (x, y) -> (y, x)
		g.SetElement(0, 0, 0)
		g.SetElement(0, 1, 1)
		g.SetElement(1, 0, 1)
		g.SetElement(1, 1, 0)
		fw, fh = h, w
	}
	if flipH {
		g.Scale(-1, 1)
		g.Translate(fw, 0)
	}
	if flipV {
		g.Scale(1, -1)
		g.Translate(0, fh)
	}
	return g
}

// SubImage returns the frame of the region. ok is false when the region
// texture is not an *ebiten.Image.
func SubImage(r *atlas.Region) (*ebiten.Image, bool) {
	img, ok := r.Texture.(*ebiten.Image)
	if !ok || img == nil {
		return nil, false
	}
	return img.SubImage(r.Frame).(*ebiten.Image), true
}

// DrawRegion draws r with its top-left corner at (x, y) in the space of geoM.
func DrawRegion(dst *ebiten.Image, r *atlas.Region, x, y, alpha float64, geoM ebiten.GeoM) {
	src, ok := SubImage(r)
	if !ok {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM = GeoM(r.Transform, float64(r.Frame.Dx()), float64(r.Frame.Dy()))
	op.GeoM.Translate(x, y)
	op.GeoM.Concat(geoM)
	op.ColorScale.ScaleAlpha(float32(alpha))
	dst.DrawImage(src, op)
}

// DrawMap draws the level background, then every layer of model in order.
// camera is applied after the configured render scale. Animated tiles show
// the frame of anim, which may be nil to draw their first frame.
func DrawMap(dst *ebiten.Image, model *tilemap.Model, a *atlas.Atlas, anim *TileAnimation, camera ebiten.GeoM) {
	var geoM ebiten.GeoM
	geoM.Scale(config.Render.Scale, config.Render.Scale)
	geoM.Concat(camera)

	if name := model.BackgroundResourceName(); name != "" {
		if r, ok := a.Background(name); ok {
			DrawRegion(dst, r, 0, 0, 1, geoM)
		}
	}

	tw, th := float64(model.TileWidth()), float64(model.TileHeight())
	for _, l := range model.Layers() {
		switch layer := l.(type) {
		case *tilemap.TileLayer:
			for y := 0; y < layer.DimensionY(); y++ {
				for x := 0; x < layer.DimensionX(); x++ {
					c, _ := layer.Cell(x, y)
					drawCell(dst, model, a, anim, c, float64(x)*tw, float64(y)*th, layer.Alpha(), geoM)
				}
			}
		case *tilemap.ObjectLayer:
			for _, o := range layer.Objects() {
				drawCell(dst, model, a, anim, o.Cell, o.X, o.Y-th, 1, geoM)
			}
		}
	}
}

func drawCell(dst *ebiten.Image, model *tilemap.Model, a *atlas.Atlas, anim *TileAnimation, c gid.Cell, x, y, alpha float64, geoM ebiten.GeoM) {
	for _, r := range CellRegions(model, a, anim, c) {
		DrawRegion(dst, r, x, y, alpha, geoM)
	}
}

// CellRegions returns the regions drawn for c, bottom first. A stack tile
// draws each of its tiles with their own flips; other tiles draw one
// region, moved to the current frame of anim when animated.
func CellRegions(model *tilemap.Model, a *atlas.Atlas, anim *TileAnimation, c gid.Cell) []*atlas.Region {
	if c.IsEmpty() {
		return nil
	}
	def, ok := model.Definition(c.TileID)
	if ok && def.HasStackedTiles() {
		var out []*atlas.Region
		for _, packed := range def.StackedTiles() {
			id, h, v, d := gid.Unpack(packed)
			if r, ok := a.FindRegion(int(id), h, v, d); ok {
				out = append(out, r)
			}
		}
		return out
	}

	r, found := a.RegionFor(c)
	if !found {
		return nil
	}
	if ok {
		r = AnimatedRegion(r, anim.Frame(def.AnimationLength()))
	}
	return []*atlas.Region{r}
}

// AnimatedRegion returns r moved right by frame tiles. Animation frames of
// a tile are laid out next to it in the atlas.
func AnimatedRegion(r *atlas.Region, frame int) *atlas.Region {
	if frame <= 0 {
		return r
	}
	moved := *r
	moved.Frame = r.Frame.Add(image.Pt(frame*r.Frame.Dx(), 0))
	return &moved
}
