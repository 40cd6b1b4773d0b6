package atlas

import (
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/automoto/tilemaps/shared/tiledoc"
)

var (
	ErrNoTexture      = errors.New("atlas texture not found")
	ErrInvalidTileset = errors.New("tileset cannot be laid out on a grid")
	// ErrResizedAtlas means the texture does not match the tileset grid,
	// usually because the image was scaled after the tileset was made.
	ErrResizedAtlas = errors.New("atlas texture size does not match the tileset")
)

// Build cuts the tileset grid out of texture and stores one canonical
// region per tile. A 1x1 texture is taken as a placeholder and is not
// checked against the grid. A nil logger logs to log.Default().
func Build(ts tiledoc.Tileset, texture Texture, logger *log.Logger) (*Atlas, error) {
	if logger == nil {
		logger = log.Default()
	}
	if texture == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTexture, ts.Image)
	}
	tw, th := ts.TileWidth, ts.TileHeight
	if tw <= 0 || th <= 0 || ts.TileCount < 0 || (ts.TileCount > 0 && ts.Columns <= 0) {
		return nil, fmt.Errorf("%w: %q has %d tiles of %dx%d in %d columns",
			ErrInvalidTileset, ts.Name, ts.TileCount, tw, th, ts.Columns)
	}

	bounds := texture.Bounds()
	if ts.TileCount > 0 && !(bounds.Dx() == 1 && bounds.Dy() == 1) {
		rows := (ts.TileCount + ts.Columns - 1) / ts.Columns
		wantW := 2*ts.Margin + ts.Columns*tw + (ts.Columns-1)*ts.Spacing
		wantH := 2*ts.Margin + rows*th + (rows-1)*ts.Spacing
		w, h := bounds.Dx(), bounds.Dy()
		if w < wantW || w >= wantW+ts.Spacing+tw || h < wantH || h >= wantH+ts.Spacing+th {
			return nil, fmt.Errorf("%w: %q is %dx%d, the tileset needs %dx%d",
				ErrResizedAtlas, ts.Image, w, h, wantW, wantH)
		}
		if w != wantW || h != wantH {
			logger.Printf("Warning: atlas %q is %dx%d but the tileset only uses %dx%d, the extra pixels are ignored",
				ts.Image, w, h, wantW, wantH)
		}
	}

	a := New()
	base := ts.FirstID() - 1
	for v := 0; v < ts.TileCount; v++ {
		x := ts.Margin + (v%ts.Columns)*(tw+ts.Spacing)
		y := ts.Margin + (v/ts.Columns)*(th+ts.Spacing)
		origin := bounds.Min.Add(image.Pt(x, y))
		a.SetRegion(base+v, false, false, false, &Region{
			Texture:   texture,
			Frame:     image.Rectangle{Min: origin, Max: origin.Add(image.Pt(tw, th))},
			Width:     tw,
			Height:    th,
			Transform: Identity,
		})
	}
	return a, nil
}
