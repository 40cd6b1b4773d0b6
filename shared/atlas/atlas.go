// Package atlas caches the texture regions of tiles, including the flipped
// variants derived on demand from each canonical region.
package atlas

import (
	"image"
	"sync"

	"github.com/automoto/tilemaps/shared/gid"
)

// Texture is an opaque texture handle. *ebiten.Image and image.Image
// values both satisfy it.
type Texture interface {
	Bounds() image.Rectangle
}

// TextureFunc resolves a texture by resource name. It returns nil when the
// texture is unknown.
type TextureFunc func(name string) Texture

// Region is the part of a texture that draws one tile variant. Width and
// Height are the size on screen, swapped from Frame for diagonal flips.
type Region struct {
	Texture   Texture
	Frame     image.Rectangle
	Width     int
	Height    int
	Transform Transform
}

// Atlas maps tile variants to regions. Derived regions are memoized, so
// one variant is always answered with the same *Region.
type Atlas struct {
	mu          sync.RWMutex
	regions     map[uint32]*Region
	backgrounds map[string]*Region
}

func New() *Atlas {
	return &Atlas{
		regions:     make(map[uint32]*Region),
		backgrounds: make(map[string]*Region),
	}
}

// SetBackground stores the region drawn behind a level, by resource name.
func (a *Atlas) SetBackground(name string, r *Region) {
	if r == nil {
		return
	}
	a.mu.Lock()
	a.backgrounds[name] = r
	a.mu.Unlock()
}

func (a *Atlas) Background(name string) (*Region, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.backgrounds[name]
	return r, ok
}

// SetRegion stores r for the tile variant as is. Ids that do not fit in the
// 29 id bits are ignored.
func (a *Atlas) SetRegion(tileID int, h, v, d bool, r *Region) {
	if !validID(tileID) || r == nil {
		return
	}
	a.mu.Lock()
	a.regions[gid.Pack(uint32(tileID), h, v, d)] = r
	a.mu.Unlock()
}

// FindRegion returns the region of a tile variant. A flipped variant that
// was never set is derived from the unflipped region of the tile.
func (a *Atlas) FindRegion(tileID int, h, v, d bool) (*Region, bool) {
	if !validID(tileID) {
		return nil, false
	}
	key := gid.Pack(uint32(tileID), h, v, d)

	a.mu.RLock()
	r, ok := a.regions[key]
	a.mu.RUnlock()
	if ok {
		return r, true
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if r, ok := a.regions[key]; ok {
		return r, true
	}
	base, ok := a.regions[uint32(tileID)]
	if !ok {
		return nil, false
	}
	derived := &Region{
		Texture:   base.Texture,
		Frame:     base.Frame,
		Width:     base.Width,
		Height:    base.Height,
		Transform: TransformFor(h, v, d),
	}
	if d {
		derived.Width, derived.Height = base.Height, base.Width
	}
	a.regions[key] = derived
	return derived, true
}

func validID(tileID int) bool {
	return tileID >= 0 && tileID <= int(gid.TileIDMask)
}

// RegionFor returns the region drawing a decoded cell.
func (a *Atlas) RegionFor(c gid.Cell) (*Region, bool) {
	if c.IsEmpty() {
		return nil, false
	}
	return a.FindRegion(c.TileID, c.FlippedHorizontally, c.FlippedVertically, c.FlippedDiagonally)
}

// Len is the number of stored regions, derived ones included.
func (a *Atlas) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.regions)
}
