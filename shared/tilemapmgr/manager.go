// Package tilemapmgr loads tile map models and texture atlases once per
// set of files and shares them between every caller.
package tilemapmgr

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/automoto/tilemaps/shared/atlas"
	"github.com/automoto/tilemaps/shared/resourcecache"
	"github.com/automoto/tilemaps/shared/tiledoc"
	"github.com/automoto/tilemaps/shared/tilemap"
	"golang.org/x/sync/errgroup"
)

type settings struct {
	cacheOpts []resourcecache.Option
}

type Option func(*settings)

// WithRetryFailedLoads makes failed loads retry on the next request instead
// of reporting the cached failure.
func WithRetryFailedLoads() Option {
	return func(s *settings) {
		s.cacheOpts = append(s.cacheOpts, resourcecache.WithFailureEviction())
	}
}

// Manager is safe for concurrent use. Models and atlases it returns are
// shared and must not be modified.
type Manager struct {
	source  tiledoc.Source
	logger  *log.Logger
	models  *resourcecache.Cache[*tilemap.Model]
	atlases *resourcecache.Cache[*atlas.Atlas]
}

// New creates a manager reading documents from source. A nil logger logs
// to log.Default().
func New(source tiledoc.Source, logger *log.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	s.cacheOpts = append(s.cacheOpts, resourcecache.WithLogger(logger))
	return &Manager{
		source:  source,
		logger:  logger,
		models:  resourcecache.New[*tilemap.Model](s.cacheOpts...),
		atlases: resourcecache.New[*atlas.Atlas](s.cacheOpts...),
	}
}

func levelSuffix(level int) string {
	if level <= 0 {
		return ""
	}
	return "|" + strconv.Itoa(level)
}

func modelKey(tilemapFile, tilesetFile string, level int) string {
	return tilemapFile + "|" + tilesetFile + levelSuffix(level)
}

func atlasKey(tilemapFile, tilesetFile, atlasImageName string, level int) string {
	return tilemapFile + "|" + tilesetFile + "|" + atlasImageName + levelSuffix(level)
}

// GetOrLoadTileMap calls onResult with the model of the map, or with nil
// when it cannot be loaded. tilesetFile may be empty when the map embeds
// its tilesets. onResult runs on the caller's goroutine when the model is
// already cached, on the loading goroutine otherwise.
func (m *Manager) GetOrLoadTileMap(tilemapFile, tilesetFile string, onResult func(*tilemap.Model)) {
	m.GetOrLoadTileMapLevel(tilemapFile, tilesetFile, 0, onResult)
}

// GetOrLoadTileMapLevel is GetOrLoadTileMap for one level of an LDtk
// project. Tiled maps have a single level and ignore levelIndex.
func (m *Manager) GetOrLoadTileMapLevel(tilemapFile, tilesetFile string, levelIndex int, onResult func(*tilemap.Model)) {
	m.models.GetOrLoad(modelKey(tilemapFile, tilesetFile, levelIndex),
		async(func(ctx context.Context) (*tilemap.Model, error) {
			return m.loadModel(ctx, tilemapFile, tilesetFile, levelIndex)
		}),
		func(model *tilemap.Model, _ error) {
			if onResult != nil {
				onResult(model)
			}
		})
}

// TileMap is the blocking form of GetOrLoadTileMap.
func (m *Manager) TileMap(ctx context.Context, tilemapFile, tilesetFile string) (*tilemap.Model, error) {
	return m.TileMapLevel(ctx, tilemapFile, tilesetFile, 0)
}

// TileMapLevel is the blocking form of GetOrLoadTileMapLevel.
func (m *Manager) TileMapLevel(ctx context.Context, tilemapFile, tilesetFile string, levelIndex int) (*tilemap.Model, error) {
	key := modelKey(tilemapFile, tilesetFile, levelIndex)
	return m.models.Get(ctx, key, func(ctx context.Context) (*tilemap.Model, error) {
		return m.loadModel(ctx, tilemapFile, tilesetFile, levelIndex)
	})
}

// GetOrLoadTextureAtlas calls onResult with the atlas cut from the first
// tileset of the map, or with nil on failure. An empty atlasImageName uses
// the image named by the tileset. textures resolves the image.
func (m *Manager) GetOrLoadTextureAtlas(textures atlas.TextureFunc, atlasImageName, tilemapFile, tilesetFile string, onResult func(*atlas.Atlas)) {
	m.GetOrLoadTextureAtlasLevel(textures, atlasImageName, tilemapFile, tilesetFile, 0, onResult)
}

// GetOrLoadTextureAtlasLevel is GetOrLoadTextureAtlas for one level of an
// LDtk project, whose atlas holds the tiles and background of that level.
// LDtk tilesets name their own images, so atlasImageName is ignored for
// them.
func (m *Manager) GetOrLoadTextureAtlasLevel(textures atlas.TextureFunc, atlasImageName, tilemapFile, tilesetFile string, levelIndex int, onResult func(*atlas.Atlas)) {
	m.atlases.GetOrLoad(atlasKey(tilemapFile, tilesetFile, atlasImageName, levelIndex),
		async(func(ctx context.Context) (*atlas.Atlas, error) {
			return m.loadAtlas(ctx, textures, atlasImageName, tilemapFile, tilesetFile, levelIndex)
		}),
		func(a *atlas.Atlas, _ error) {
			if onResult != nil {
				onResult(a)
			}
		})
}

// TextureAtlas is the blocking form of GetOrLoadTextureAtlas.
func (m *Manager) TextureAtlas(ctx context.Context, textures atlas.TextureFunc, atlasImageName, tilemapFile, tilesetFile string) (*atlas.Atlas, error) {
	return m.TextureAtlasLevel(ctx, textures, atlasImageName, tilemapFile, tilesetFile, 0)
}

// TextureAtlasLevel is the blocking form of GetOrLoadTextureAtlasLevel.
func (m *Manager) TextureAtlasLevel(ctx context.Context, textures atlas.TextureFunc, atlasImageName, tilemapFile, tilesetFile string, levelIndex int) (*atlas.Atlas, error) {
	key := atlasKey(tilemapFile, tilesetFile, atlasImageName, levelIndex)
	return m.atlases.Get(ctx, key, func(ctx context.Context) (*atlas.Atlas, error) {
		return m.loadAtlas(ctx, textures, atlasImageName, tilemapFile, tilesetFile, levelIndex)
	})
}

func (m *Manager) loadModel(ctx context.Context, tilemapFile, tilesetFile string, levelIndex int) (*tilemap.Model, error) {
	model, err := m.parseModel(ctx, tilemapFile, tilesetFile, levelIndex)
	if err != nil {
		m.logger.Printf("Warning: failed to load tile map %s: %v", modelKey(tilemapFile, tilesetFile, levelIndex), err)
		return nil, err
	}
	return model, nil
}

func (m *Manager) parseModel(ctx context.Context, tilemapFile, tilesetFile string, levelIndex int) (*tilemap.Model, error) {
	doc, err := m.loadDocument(ctx, tilemapFile, tilesetFile)
	if err != nil {
		return nil, err
	}
	if doc.Kind == tiledoc.KindLDtk {
		return tilemap.ParseLDtk(doc.LDtk, levelIndex, m.logger)
	}
	return tilemap.Parse(doc.Tiled, m.logger)
}

func (m *Manager) loadAtlas(ctx context.Context, textures atlas.TextureFunc, atlasImageName, tilemapFile, tilesetFile string, levelIndex int) (*atlas.Atlas, error) {
	a, err := m.buildAtlas(ctx, textures, atlasImageName, tilemapFile, tilesetFile, levelIndex)
	if err != nil {
		m.logger.Printf("Warning: failed to load texture atlas %s: %v",
			atlasKey(tilemapFile, tilesetFile, atlasImageName, levelIndex), err)
		return nil, err
	}
	return a, nil
}

func (m *Manager) buildAtlas(ctx context.Context, textures atlas.TextureFunc, atlasImageName, tilemapFile, tilesetFile string, levelIndex int) (*atlas.Atlas, error) {
	doc, err := m.loadDocument(ctx, tilemapFile, tilesetFile)
	if err != nil {
		return nil, err
	}
	if doc.Kind == tiledoc.KindLDtk {
		return atlas.BuildLDtk(doc.LDtk, levelIndex, textures, m.logger)
	}

	tiled := doc.Tiled
	if tiled == nil || len(tiled.Tilesets) == 0 || tiled.Tilesets[0].IsExternal() {
		return nil, fmt.Errorf("%w: no embedded tileset in %s", tilemap.ErrInvalidDocument, tilemapFile)
	}
	ts := tiled.Tilesets[0]

	name := atlasImageName
	if name == "" {
		name = ts.Image
	}
	var tex atlas.Texture
	if textures != nil {
		tex = textures(name)
	}
	if tex == nil {
		return nil, fmt.Errorf("%w: %q", atlas.ErrNoTexture, name)
	}
	return atlas.Build(ts, tex, m.logger)
}

// loadDocument reads the map and the tileset in parallel. The tileset is
// merged into Tiled maps; LDtk projects carry their own tilesets.
func (m *Manager) loadDocument(ctx context.Context, tilemapFile, tilesetFile string) (*tiledoc.Document, error) {
	g, ctx := errgroup.WithContext(ctx)

	var doc *tiledoc.Document
	var ts *tiledoc.Tileset
	g.Go(func() error {
		var err error
		doc, err = m.source.Document(ctx, tilemapFile)
		return err
	})
	if tilesetFile != "" {
		g.Go(func() error {
			var err error
			ts, err = m.source.Tileset(ctx, tilesetFile)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if ts != nil && doc.Kind != tiledoc.KindLDtk {
		out := *doc
		out.Tiled = doc.Tiled.WithTileset(ts)
		return &out, nil
	}
	return doc, nil
}

// async adapts a blocking loader to the callback form, running it on its
// own goroutine.
func async[V any](load func(context.Context) (V, error)) func(func(V, error)) {
	return func(done func(V, error)) {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					var zero V
					done(zero, fmt.Errorf("%w: %v", resourcecache.ErrLoaderPanic, r))
				}
			}()
			done(load(context.Background()))
		}()
	}
}
