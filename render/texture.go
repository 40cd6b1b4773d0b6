package render

import (
	"bytes"
	"io/fs"
	"log"

	"github.com/automoto/tilemaps/assets"
	"github.com/automoto/tilemaps/shared/atlas"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// NewTextureLoader loads *ebiten.Image textures. Names are resolved
// relative to dir.
func NewTextureLoader(fsys fs.FS, dir string, logger *log.Logger) *assets.TextureLoader {
	return assets.NewLoader(fsys, dir, logger, decodeImage)
}

func decodeImage(b []byte) (atlas.Texture, error) {
	img, _, err := ebitenutil.NewImageFromReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return img, nil
}
