package pyramid

import (
	"fmt"
	"io"
	"log"

	"github.com/mrjoshuak/go-ptiff/compression"
	"github.com/mrjoshuak/go-ptiff/resample"
	"github.com/mrjoshuak/go-ptiff/tiff"
)

// Options configures a Builder.
type Options struct {
	// TileSize is the edge of the square tiles, a multiple of 16.
	// 0 means DefaultTileSize.
	TileSize int

	// Compression is applied to the tiles of every level. The zero value
	// means none. It is checked against every image before writing.
	Compression compression.Method

	// DeflateLevel is the zlib level used when Compression is Deflate.
	// The zero value is the default level.
	DeflateLevel compression.Level

	// Predictor enables the TIFF predictor matching the sample type.
	Predictor bool

	// Filter selects how reduced levels are computed.
	Filter resample.Filter

	// PageName is stored on every level 0 directory. Empty means
	// DefaultPageName.
	PageName string

	// Software is stored on every directory when set.
	Software string

	// BigTIFF selects 64-bit offsets. Only used by Create.
	BigTIFF bool

	// Workers is the number of goroutines compressing tiles. Only used by
	// Create. 0 means 1.
	Workers int

	// Logger receives progress messages. Nil discards them.
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.TileSize == 0 {
		o.TileSize = DefaultTileSize
	}
	if o.Compression == 0 {
		o.Compression = compression.None
	}
	if o.PageName == "" {
		o.PageName = DefaultPageName
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
	return o
}

// Builder writes images and their reduced levels as pyramid chains.
type Builder struct {
	opts   Options
	logger *log.Logger
}

// NewBuilder returns a Builder with the given options.
func NewBuilder(opts Options) *Builder {
	opts = opts.withDefaults()
	return &Builder{opts: opts, logger: opts.Logger}
}

// Options returns the effective options of the builder.
func (b *Builder) Options() Options {
	return b.opts
}

// Validate checks that every image can be written with the builder's
// options.
func (b *Builder) Validate(images []*tiff.Image) error {
	if t := b.opts.TileSize; t <= 0 || t%16 != 0 {
		return fmt.Errorf("%w: got %d", tiff.ErrTileSize, t)
	}
	for i, img := range images {
		if err := img.Validate(); err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
		l := compression.Layout{
			Channels:      img.Channels,
			BitsPerSample: img.Type.Bits,
			Unsigned:      img.Type.Kind == tiff.Uint,
			Level:         b.opts.DeflateLevel,
		}
		if err := compression.Supports(b.opts.Compression, l); err != nil {
			return fmt.Errorf("image %d (%v): %w", i, img.Type, err)
		}
	}
	return nil
}

// Build validates all images, then writes each as a top-level directory
// followed by its reduced levels linked through SubIFDs. Reduced levels are
// always computed from the full resolution image. The writer is not closed.
func (b *Builder) Build(w *tiff.Writer, images []*tiff.Image) ([]*Chain, error) {
	if err := b.Validate(images); err != nil {
		return nil, err
	}

	chains := make([]*Chain, 0, len(images))
	for i, img := range images {
		c, err := b.buildChain(w, i, img)
		if err != nil {
			return chains, fmt.Errorf("image %d: %w", i, err)
		}
		chains = append(chains, c)
	}
	return chains, nil
}

func (b *Builder) buildChain(w *tiff.Writer, index int, img *tiff.Image) (*Chain, error) {
	tile := b.opts.TileSize
	wopts := tiff.WriteOptions{
		TileWidth:    tile,
		TileHeight:   tile,
		Compression:  b.opts.Compression,
		DeflateLevel: b.opts.DeflateLevel,
		Predictor:    b.opts.Predictor,
	}
	n := LevelCount(img.Height, img.Width, tile)

	b.logger.Printf("writing image %d at %dx%d (%v, %d channels)", index, img.Width, img.Height, img.Type, img.Channels)
	b.logger.Printf("image %d will have %d reduced levels", index, n)

	dir := b.directory(false)
	dir.SetASCII(tiff.TagPageName, b.opts.PageName)
	dir.ReserveSubIFDs(n)
	root, err := w.WriteImage(dir, img, wopts)
	if err != nil {
		return nil, err
	}

	c := &Chain{Image: index, Channels: img.Channels, Type: img.Type}
	c.Levels = append(c.Levels, Level{Width: img.Width, Height: img.Height, Handle: root})

	for z := 1; z <= n; z++ {
		h, wd := LevelShape(img.Height, img.Width, z)
		b.logger.Printf("computing level %d of image %d at %dx%d", z, index, wd, h)

		level, err := resample.ResampleWith(img, h, wd, b.opts.Filter)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", z, err)
		}
		handle, err := w.WriteSubImage(root, b.directory(true), level, wopts)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", z, err)
		}
		c.Levels = append(c.Levels, Level{Index: z, Width: wd, Height: h, Reduced: true, Handle: handle})
	}
	return c, nil
}

// directory returns the descriptive fields shared by all levels.
func (b *Builder) directory(reduced bool) *tiff.Directory {
	d := tiff.NewDirectory()
	var subfile uint32
	if reduced {
		subfile = tiff.SubfileReducedImage
	}
	d.SetLong(tiff.TagNewSubfileType, subfile)
	d.SetShort(tiff.TagOrientation, 1) // Top-left
	if b.opts.Software != "" {
		d.SetASCII(tiff.TagSoftware, b.opts.Software)
	}
	return d
}

// Create writes images as a pyramid container to the named file.
// Nothing is created when the images fail validation.
func Create(path string, images []*tiff.Image, opts Options) ([]*Chain, error) {
	b := NewBuilder(opts)
	if err := b.Validate(images); err != nil {
		return nil, err
	}

	w, err := tiff.Create(path, &tiff.WriterOptions{BigTIFF: b.opts.BigTIFF, Workers: b.opts.Workers})
	if err != nil {
		return nil, err
	}
	chains, err := b.Build(w, images)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	b.logger.Printf("wrote %d images to %s", len(chains), path)
	return chains, nil
}
