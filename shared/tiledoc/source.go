package tiledoc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"golang.org/x/sync/singleflight"
)

var ErrUnsupportedFormat = errors.New("unsupported document format")

// Source loads level documents by name. Implementations must be safe for
// concurrent use and must treat returned documents as shared: callers never
// mutate them.
type Source interface {
	Document(ctx context.Context, name string) (*Document, error)
	Tileset(ctx context.Context, name string) (*Tileset, error)
}

// FSSource reads documents from an fs.FS, so callers can pass embed.FS or
// os.DirFS. Concurrent reads of the same file are collapsed into one.
type FSSource struct {
	fsys  fs.FS
	group singleflight.Group
}

func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// Document reads a level document. ".tmx" files go through go-tiled,
// anything else is JSON from Tiled or LDtk, told apart by its content.
func (s *FSSource) Document(ctx context.Context, name string) (*Document, error) {
	v, err := s.do(ctx, "map:"+name, func() (any, error) {
		if strings.EqualFold(path.Ext(name), ".tmx") {
			m, err := LoadTMX(s.fsys, name)
			if err != nil {
				return nil, err
			}
			return &Document{Kind: KindTiled, Tiled: m}, nil
		}
		b, err := fs.ReadFile(s.fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read map %s: %w", name, err)
		}
		doc, err := ParseDocument(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

// Map reads a Tiled map document.
func (s *FSSource) Map(ctx context.Context, name string) (*Map, error) {
	doc, err := s.Document(ctx, name)
	if err != nil {
		return nil, err
	}
	if doc.Tiled == nil {
		return nil, fmt.Errorf("%w: %s is an %s project, not a Tiled map", ErrUnsupportedFormat, name, doc.Kind)
	}
	return doc.Tiled, nil
}

// Tileset reads a JSON tileset document (.tsj or .json).
func (s *FSSource) Tileset(ctx context.Context, name string) (*Tileset, error) {
	if strings.EqualFold(path.Ext(name), ".tsx") {
		return nil, fmt.Errorf("%w: %s (reference it from a TMX map instead)", ErrUnsupportedFormat, name)
	}
	v, err := s.do(ctx, "tileset:"+name, func() (any, error) {
		b, err := fs.ReadFile(s.fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read tileset %s: %w", name, err)
		}
		ts, err := ParseTileset(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return ts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tileset), nil
}

func (s *FSSource) do(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	ch := s.group.DoChan(key, fn)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}
