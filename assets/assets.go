package assets

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	_ "image/png"
	"io/fs"
	"log"
	"path"
	"sync"

	"github.com/automoto/tilemaps/shared/atlas"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	//go:embed all:levels
	levelFS embed.FS
)

// Levels returns the embedded level files, rooted above the levels directory.
func Levels() fs.FS {
	return levelFS
}

// TextureLoader reads atlas images from a file system and caches them by
// path. Failed loads are cached as well and logged once.
type TextureLoader struct {
	fsys   fs.FS
	dir    string
	logger *log.Logger
	decode DecodeFunc

	mu    sync.Mutex
	cache map[string]atlas.Texture
}

// DecodeFunc turns encoded image bytes into a texture.
type DecodeFunc func(b []byte) (atlas.Texture, error)

// NewBoundsLoader only reads image headers, for tools that never draw. Its
// textures are image.Rectangle values.
func NewBoundsLoader(fsys fs.FS, dir string, logger *log.Logger) *TextureLoader {
	return NewLoader(fsys, dir, logger, decodeBounds)
}

// NewLoader reads textures with decode. Names are resolved relative to dir.
// render.NewTextureLoader builds one that decodes ebiten images.
func NewLoader(fsys fs.FS, dir string, logger *log.Logger, decode DecodeFunc) *TextureLoader {
	if logger == nil {
		logger = log.Default()
	}
	return &TextureLoader{
		fsys:   fsys,
		dir:    dir,
		logger: logger,
		decode: decode,
		cache:  make(map[string]atlas.Texture),
	}
}

// Load returns the texture stored under name.
func (l *TextureLoader) Load(name string) (atlas.Texture, error) {
	p := path.Join(l.dir, name)
	imgBytes, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", p, err)
	}
	tex, err := l.decode(imgBytes)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", p, err)
	}
	return tex, nil
}

// Texture is an atlas.TextureFunc. It returns nil when the image cannot be
// loaded.
func (l *TextureLoader) Texture(name string) atlas.Texture {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tex, ok := l.cache[name]; ok {
		return tex
	}

	tex, err := l.Load(name)
	if err != nil {
		l.logger.Printf("Warning: %v", err)
	}
	l.cache[name] = tex
	return tex
}

func decodeBounds(b []byte) (atlas.Texture, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return image.Rect(0, 0, cfg.Width, cfg.Height), nil
}
