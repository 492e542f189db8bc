package pyramid

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"log"

	"github.com/golang/groupcache/lru"
	"github.com/mrjoshuak/go-ptiff/compression"
	"github.com/mrjoshuak/go-ptiff/tiff"
)

// LevelInfo describes one stored level.
type LevelInfo struct {
	Image       int
	Level       int
	Width       int
	Height      int
	Channels    int
	Type        tiff.DataType
	TileWidth   int
	TileHeight  int
	TilesAcross int
	TilesDown   int
	Compression compression.Method
	Reduced     bool
	Handle      tiff.Handle
}

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithTileCache keeps up to n decoded tiles in memory. n ≤ 0 disables the
// cache.
func WithTileCache(n int) NavigatorOption {
	return func(nav *Navigator) {
		if n > 0 {
			nav.tiles = lru.New(n)
		}
	}
}

// WithReadWorkers decodes the tiles of FetchLevel on n goroutines. Without
// it levels are decoded sequentially. n ≤ 0 means runtime.GOMAXPROCS(0).
func WithReadWorkers(n int) NavigatorOption {
	return func(nav *Navigator) {
		nav.r.SetWorkers(n)
	}
}

// WithLogger sets the logger receiving navigation messages.
func WithLogger(l *log.Logger) NavigatorOption {
	return func(nav *Navigator) {
		if l != nil {
			nav.logger = l
		}
	}
}

type tileKey struct {
	image, level, x, y int
}

// Navigator reads the images, levels and tiles of a pyramid container.
//
// Every fetch starts with an absolute jump of the reader to the directory
// it needs, so fetches may be freely interleaved with Images. A Navigator
// is not safe for concurrent use.
type Navigator struct {
	r      *tiff.Reader
	closer io.Closer
	logger *log.Logger

	cursor tiff.Handle           // Directory the reader was last moved to
	roots  []tiff.Handle         // Level 0 handle of every image
	levels map[int][]tiff.Handle // Checked chains by image
	tiles  *lru.Cache
}

// NewNavigator returns a Navigator reading from r. The caller keeps
// ownership of r.
func NewNavigator(r *tiff.Reader, opts ...NavigatorOption) *Navigator {
	nav := &Navigator{
		r:      r,
		logger: log.New(io.Discard, "", 0),
		levels: make(map[int][]tiff.Handle),
	}
	for _, opt := range opts {
		opt(nav)
	}
	return nav
}

// OpenNavigator opens the named container. Close releases it.
func OpenNavigator(path string, opts ...NavigatorOption) (*Navigator, error) {
	r, err := tiff.Open(path)
	if err != nil {
		return nil, err
	}
	nav := NewNavigator(r, opts...)
	nav.closer = r
	return nav, nil
}

// Close releases the container opened by OpenNavigator.
func (nav *Navigator) Close() error {
	if nav.tiles != nil {
		nav.tiles.Clear()
	}
	if nav.closer == nil {
		return nil
	}
	err := nav.closer.Close()
	nav.closer = nil
	return err
}

// jump moves the reader to h.
func (nav *Navigator) jump(h tiff.Handle) error {
	if err := nav.r.SetDirectoryAt(h); err != nil {
		return err
	}
	nav.cursor = h
	return nil
}

// Images returns a single forward pass over the full resolution images of
// the container, in write order.
func (nav *Navigator) Images() iter.Seq2[*tiff.Image, error] {
	return func(yield func(*tiff.Image, error) bool) {
		for d, err := range nav.r.Directories() {
			if err != nil {
				yield(nil, err)
				return
			}
			h := d.Handle()
			if err := nav.jump(h); err != nil {
				yield(nil, err)
				return
			}
			img, err := nav.r.ReadImage()
			if !yield(img, err) || err != nil {
				return
			}
		}
	}
}

// NumImages returns the number of images in the container.
func (nav *Navigator) NumImages() (int, error) {
	roots, err := nav.rootHandles()
	if err != nil {
		return 0, err
	}
	return len(roots), nil
}

func (nav *Navigator) rootHandles() ([]tiff.Handle, error) {
	if nav.roots != nil {
		return nav.roots, nil
	}
	var roots []tiff.Handle
	for d, err := range nav.r.Directories() {
		if err != nil {
			return nil, err
		}
		roots = append(roots, d.Handle())
	}
	nav.roots = roots
	return roots, nil
}

// LevelsOf returns the directory handles of the levels of an image: its
// level 0 handle followed by the handles linked from its SubIFDs field, in
// descending resolution.
//
// The chain is checked on first access. It is malformed when level 0 is not
// tiled, when the SubIFDs count differs from the number of reduced levels
// its size implies, or when a linked directory is not flagged reduced.
func (nav *Navigator) LevelsOf(image int) ([]tiff.Handle, error) {
	if hs, ok := nav.levels[image]; ok {
		return hs, nil
	}
	roots, err := nav.rootHandles()
	if err != nil {
		return nil, err
	}
	if image < 0 || image >= len(roots) {
		return nil, fmt.Errorf("%w: %d of %d", ErrImageOutOfRange, image, len(roots))
	}

	if err := nav.jump(roots[image]); err != nil {
		return nil, err
	}
	d := nav.r.Current()
	info, err := d.Info()
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", image, err)
	}
	if !info.Tiled {
		return nil, fmt.Errorf("%w: image %d level 0 is not tiled", ErrMalformedContainer, image)
	}

	subs := d.SubIFDs()
	n := LevelCount(info.Height, info.Width, max(info.TileWidth, info.TileHeight))
	switch {
	case n > 0 && len(subs) == 0:
		return nil, fmt.Errorf("%w: image %d needs %d reduced levels but has no SubIFDs", ErrMalformedContainer, image, n)
	case len(subs) != n:
		return nil, fmt.Errorf("%w: image %d links %d reduced levels, want %d", ErrMalformedContainer, image, len(subs), n)
	}

	for z, h := range subs {
		if err := nav.jump(h); err != nil {
			return nil, fmt.Errorf("%w: image %d level %d: %v", ErrMalformedContainer, image, z+1, err)
		}
		if !nav.r.Current().IsReduced() {
			return nil, fmt.Errorf("%w: image %d level %d is not flagged reduced", ErrMalformedContainer, image, z+1)
		}
	}

	hs := append([]tiff.Handle{roots[image]}, subs...)
	nav.levels[image] = hs
	nav.logger.Printf("image %d has %d levels", image, len(hs))
	return hs, nil
}

// level jumps to a level and returns its layout.
func (nav *Navigator) level(image, level int) (tiff.Info, error) {
	hs, err := nav.LevelsOf(image)
	if err != nil {
		return tiff.Info{}, err
	}
	if level < 0 || level >= len(hs) {
		return tiff.Info{}, fmt.Errorf("%w: level %d of image %d, which has levels 0 to %d",
			ErrLevelOutOfRange, level, image, len(hs)-1)
	}
	if err := nav.jump(hs[level]); err != nil {
		return tiff.Info{}, err
	}
	return nav.r.Current().Info()
}

// LevelInfo returns the layout of one level.
func (nav *Navigator) LevelInfo(image, level int) (LevelInfo, error) {
	info, err := nav.level(image, level)
	if err != nil {
		return LevelInfo{}, err
	}
	return LevelInfo{
		Image:       image,
		Level:       level,
		Width:       info.Width,
		Height:      info.Height,
		Channels:    info.Channels,
		Type:        info.Type,
		TileWidth:   info.TileWidth,
		TileHeight:  info.TileHeight,
		TilesAcross: info.BlocksAcross(),
		TilesDown:   info.BlocksDown(),
		Compression: info.Compression,
		Reduced:     info.Reduced,
		Handle:      nav.cursor,
	}, nil
}

// FetchLevel decodes one level of an image.
func (nav *Navigator) FetchLevel(image, level int) (*tiff.Image, error) {
	if _, err := nav.level(image, level); err != nil {
		return nil, err
	}
	return nav.r.ReadImage()
}

// FetchTile decodes one tile of a level. tileX and tileY count tiles from
// the top-left corner. The result always has the full tile dimensions.
func (nav *Navigator) FetchTile(image, level, tileX, tileY int) (*tiff.Image, error) {
	key := tileKey{image, level, tileX, tileY}
	if nav.tiles != nil {
		if v, ok := nav.tiles.Get(key); ok {
			return cloneImage(v.(*tiff.Image)), nil
		}
	}

	info, err := nav.level(image, level)
	if err != nil {
		return nil, err
	}
	if !info.Tiled {
		return nil, fmt.Errorf("%w: image %d level %d is not tiled", ErrMalformedContainer, image, level)
	}
	if tileX < 0 || tileY < 0 || tileX >= info.BlocksAcross() || tileY >= info.BlocksDown() {
		return nil, fmt.Errorf("%w: tile (%d, %d) of a %dx%d grid", ErrTileOutOfRange,
			tileX, tileY, info.BlocksAcross(), info.BlocksDown())
	}

	tile, err := nav.r.ReadTile(tileX*info.TileWidth, tileY*info.TileHeight)
	if err != nil {
		return nil, err
	}
	if nav.tiles != nil {
		nav.tiles.Add(key, cloneImage(tile))
	}
	return tile, nil
}

func cloneImage(img *tiff.Image) *tiff.Image {
	c := *img
	c.Pix = bytes.Clone(img.Pix)
	return &c
}
