package tiff

import (
	"fmt"

	"github.com/mrjoshuak/go-ptiff/compression"
)

// Info summarizes the storage layout of one directory.
type Info struct {
	Width       int
	Height      int
	Channels    int
	Type        DataType
	Compression compression.Method
	Predictor   int
	Planar      int
	Photometric int

	Tiled        bool
	TileWidth    int // Set for tiled images
	TileHeight   int // Set for tiled images
	RowsPerStrip int // Set for stripped images

	Reduced bool // NewSubfileType has the reduced-image bit
	SubIFDs int  // Number of SubIFDs links
}

// BlockSize returns the dimensions of one tile, or of one full strip.
func (i Info) BlockSize() (w, h int) {
	if i.Tiled {
		return i.TileWidth, i.TileHeight
	}
	return i.Width, i.RowsPerStrip
}

// BlocksAcross returns the number of tile columns (1 for strips).
func (i Info) BlocksAcross() int {
	w, _ := i.BlockSize()
	return (i.Width + w - 1) / w
}

// BlocksDown returns the number of tile rows or strips.
func (i Info) BlocksDown() int {
	_, h := i.BlockSize()
	return (i.Height + h - 1) / h
}

// BlocksPerPlane returns the number of blocks holding one sample plane.
func (i Info) BlocksPerPlane() int {
	return i.BlocksAcross() * i.BlocksDown()
}

// Info decodes and checks the layout fields of the directory.
func (d *Directory) Info() (Info, error) {
	info := Info{
		Width:       int(d.UintOr(TagImageWidth, 0)),
		Height:      int(d.UintOr(TagImageLength, 0)),
		Channels:    int(d.UintOr(TagSamplesPerPixel, 1)),
		Compression: compression.Method(d.UintOr(TagCompression, uint64(compression.None))),
		Predictor:   int(d.UintOr(TagPredictor, PredictorNone)),
		Planar:      int(d.UintOr(TagPlanarConfiguration, PlanarContig)),
		Photometric: int(d.UintOr(TagPhotometricInterpretation, PhotometricMinIsBlack)),
		Reduced:     d.IsReduced(),
		SubIFDs:     len(d.Uints(TagSubIFDs)),
	}
	if info.Width <= 0 || info.Height <= 0 || info.Channels <= 0 {
		return Info{}, fmt.Errorf("%w: image %dx%d with %d samples per pixel",
			ErrFormat, info.Width, info.Height, info.Channels)
	}

	bits := d.Uints(TagBitsPerSample)
	if len(bits) == 0 {
		bits = []uint64{1}
	}
	for _, b := range bits[1:] {
		if b != bits[0] {
			return Info{}, fmt.Errorf("%w: mixed BitsPerSample %v", ErrUnsupportedType, bits)
		}
	}
	t, err := DataTypeOf(uint16(d.UintOr(TagSampleFormat, SampleFormatUint)), int(bits[0]))
	if err != nil {
		return Info{}, err
	}
	info.Type = t

	if info.Photometric == PhotometricYCbCr {
		return Info{}, fmt.Errorf("%w: YCbCr", ErrUnsupportedType)
	}
	if info.Planar != PlanarContig && info.Planar != PlanarSeparate {
		return Info{}, fmt.Errorf("%w: PlanarConfiguration %d", ErrFormat, info.Planar)
	}

	if d.IsTiled() {
		info.Tiled = true
		info.TileWidth = int(d.UintOr(TagTileWidth, 0))
		info.TileHeight = int(d.UintOr(TagTileLength, 0))
		if info.TileWidth <= 0 || info.TileHeight <= 0 {
			return Info{}, fmt.Errorf("%w: tile size %dx%d", ErrFormat, info.TileWidth, info.TileHeight)
		}
	} else {
		info.RowsPerStrip = int(min(d.UintOr(TagRowsPerStrip, uint64(info.Height)), uint64(info.Height)))
		if info.RowsPerStrip <= 0 {
			return Info{}, fmt.Errorf("%w: RowsPerStrip 0", ErrFormat)
		}
	}
	return info, nil
}
