package tiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mrjoshuak/go-ptiff/compression"
	"github.com/mrjoshuak/go-ptiff/internal/byteio"
	"github.com/mrjoshuak/go-ptiff/internal/predictor"
)

// Writer errors
var (
	ErrUnfilledSubIFDs = errors.New("tiff: declared SubIFDs left unfilled")
	ErrNoSubIFDSlot    = errors.New("tiff: parent has no free SubIFDs slot")
	ErrNoDirectories   = errors.New("tiff: no directory written")
	ErrWriterClosed    = errors.New("tiff: writer closed")
	ErrTileSize        = errors.New("tiff: tile dimensions must be positive multiples of 16")
	ErrTooLarge        = errors.New("tiff: offset exceeds the 4 GiB classic TIFF limit")
)

// defaultStripBytes is the target uncompressed strip size for stripped
// images when RowsPerStrip is not given.
const defaultStripBytes = 64 << 10

// WriterOptions configures a Writer.
type WriterOptions struct {
	// BigTIFF selects 64-bit offsets.
	BigTIFF bool

	// Workers is the number of goroutines compressing the blocks of the
	// directory being written. 0 means runtime.GOMAXPROCS(0), 1 encodes
	// sequentially. Blocks are always written to the file in order.
	Workers int
}

// WriteOptions configures how one image is stored.
type WriteOptions struct {
	// TileWidth and TileHeight select tiled storage when non-zero. Both
	// must be multiples of 16. Zero stores the image in strips.
	TileWidth  int
	TileHeight int

	// RowsPerStrip sets the strip height of stripped images. 0 picks
	// strips of about 64 KiB.
	RowsPerStrip int

	// Compression is the block codec. The zero value means none.
	Compression compression.Method

	// DeflateLevel is the zlib level of Deflate blocks. The zero value is
	// the default level.
	DeflateLevel compression.Level

	// Predictor applies horizontal differencing to integer samples and the
	// floating point predictor to float samples. It is ignored for complex
	// samples.
	Predictor bool
}

// subIFDSlots tracks the placeholders declared by one parent directory.
type subIFDSlots struct {
	pos    int64 // File position of the first placeholder
	n      int
	filled int
}

// Writer writes directories to a TIFF file.
//
// Directories written with WriteImage form the top-level chain in call
// order. Directories written with WriteSubImage are linked from the SubIFDs
// placeholders of their parent instead. A Writer is not safe for concurrent
// use.
type Writer struct {
	ws      io.WriteSeeker
	closer  io.Closer
	order   byteio.Order
	big     bool
	workers int

	end     int64 // Current end of file
	nextPos int64 // Position of the offset linking the next top-level directory
	count   int   // Top-level directories written

	slots   map[Handle]*subIFDSlots
	parents []Handle // Slot owners in declaration order
	closed  bool
}

// Create creates the named file and returns a Writer for it.
// Close closes the file.
func Create(path string, opts *WriterOptions) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// NewWriter writes a TIFF header to ws and returns a Writer.
// ws must be positioned at the start of the file.
func NewWriter(ws io.WriteSeeker, opts *WriterOptions) (*Writer, error) {
	if opts == nil {
		opts = &WriterOptions{}
	}
	w := &Writer{
		ws:      ws,
		order:   binary.LittleEndian,
		big:     opts.BigTIFF,
		workers: opts.Workers,
		slots:   make(map[Handle]*subIFDSlots),
	}

	hdr := byteio.NewBufferWriter(16, w.order, w.big)
	hdr.WriteBytes([]byte(leHeader))
	if w.big {
		hdr.WriteUint16(magicBig)
		hdr.WriteUint16(8) // Offset size
		hdr.WriteUint16(0)
		w.nextPos = int64(hdr.Len())
		hdr.WriteUint64(0)
	} else {
		hdr.WriteUint16(magicClassic)
		w.nextPos = int64(hdr.Len())
		hdr.WriteUint32(0)
	}
	if _, err := ws.Write(hdr.Bytes()); err != nil {
		return nil, fmt.Errorf("tiff: write header: %w", err)
	}
	w.end = int64(hdr.Len())
	return w, nil
}

// BigTIFF reports whether the writer uses 64-bit offsets.
func (w *Writer) BigTIFF() bool {
	return w.big
}

// WriteImage writes img as a new top-level directory and returns its handle.
//
// dir supplies descriptive fields (PageName, NewSubfileType, ...). The
// structural fields (dimensions, sample layout, compression, block offsets)
// are set from img and opts. If dir declared SubIFDs placeholders with
// ReserveSubIFDs, they must be filled with WriteSubImage before Close.
func (w *Writer) WriteImage(dir *Directory, img *Image, opts WriteOptions) (Handle, error) {
	h, next, err := w.writeDirectory(dir, img, opts)
	if err != nil {
		return 0, err
	}
	if err := w.patchOffset(w.nextPos, uint64(h)); err != nil {
		return 0, err
	}
	w.nextPos = next
	w.count++
	return h, nil
}

// WriteSubImage writes img as a sub-directory of parent and stores its
// offset in the next free SubIFDs placeholder of parent.
func (w *Writer) WriteSubImage(parent Handle, dir *Directory, img *Image, opts WriteOptions) (Handle, error) {
	s, ok := w.slots[parent]
	if !ok || s.filled >= s.n {
		return 0, fmt.Errorf("%w: directory %d", ErrNoSubIFDSlot, parent)
	}
	h, _, err := w.writeDirectory(dir, img, opts)
	if err != nil {
		return 0, err
	}
	if err := w.patchOffset(s.pos+int64(s.filled*w.offsetSize()), uint64(h)); err != nil {
		return 0, err
	}
	s.filled++
	return h, nil
}

// Pending returns the number of unfilled SubIFDs placeholders of parent.
func (w *Writer) Pending(parent Handle) int {
	if s, ok := w.slots[parent]; ok {
		return s.n - s.filled
	}
	return 0
}

// Close checks that every declared SubIFDs placeholder was filled and
// closes the file if the Writer was created with Create.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var err error
	for _, p := range w.parents {
		if s := w.slots[p]; s.filled < s.n {
			err = fmt.Errorf("%w: directory %d has %d of %d", ErrUnfilledSubIFDs, p, s.filled, s.n)
			break
		}
	}
	if err == nil && w.count == 0 {
		err = ErrNoDirectories
	}
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (w *Writer) offsetSize() int {
	if w.big {
		return 8
	}
	return 4
}

// writeDirectory writes the blocks and the IFD of one image. It returns the
// IFD handle and the file position of its next-IFD field.
func (w *Writer) writeDirectory(dir *Directory, img *Image, opts WriteOptions) (Handle, int64, error) {
	if w.closed {
		return 0, 0, ErrWriterClosed
	}
	if dir == nil {
		dir = NewDirectory()
	}
	if err := img.Validate(); err != nil {
		return 0, 0, err
	}
	if opts.Compression == 0 {
		opts.Compression = compression.None
	}
	layout := compression.Layout{
		Channels:      img.Channels,
		BitsPerSample: img.Type.Bits,
		Unsigned:      img.Type.Kind == Uint,
		Order:         w.order,
		Level:         opts.DeflateLevel,
	}
	if err := compression.Supports(opts.Compression, layout); err != nil {
		return 0, 0, err
	}

	tiled := opts.TileWidth != 0 || opts.TileHeight != 0
	if tiled && (opts.TileWidth <= 0 || opts.TileHeight <= 0 || opts.TileWidth%16 != 0 || opts.TileHeight%16 != 0) {
		return 0, 0, fmt.Errorf("%w: got %dx%d", ErrTileSize, opts.TileWidth, opts.TileHeight)
	}

	w.setLayoutFields(dir, img, opts, tiled)
	info, err := dir.Info()
	if err != nil {
		return 0, 0, err
	}

	blocks, err := w.encodeBlocks(img, info, opts)
	if err != nil {
		return 0, 0, err
	}

	offsets := make([]uint64, len(blocks))
	counts := make([]uint64, len(blocks))
	for i, b := range blocks {
		offsets[i] = uint64(w.end)
		counts[i] = uint64(len(b))
		if err := w.append(b); err != nil {
			return 0, 0, err
		}
	}

	offTag, countTag := TagStripOffsets, TagStripByteCounts
	if tiled {
		offTag, countTag = TagTileOffsets, TagTileByteCounts
	}
	if w.big {
		dir.Set(Field{Tag: offTag, Type: TypeLong8, Ints: offsets})
		dir.SetUint(countTag, counts...)
		if f, _ := dir.Field(countTag); f.Type == TypeShort {
			dir.Set(Field{Tag: countTag, Type: TypeLong, Ints: counts})
		}
	} else {
		if w.end > math.MaxUint32 {
			return 0, 0, ErrTooLarge
		}
		dir.Set(Field{Tag: offTag, Type: TypeLong, Ints: offsets})
		dir.Set(Field{Tag: countTag, Type: TypeLong, Ints: counts})
	}

	if dir.reserve > 0 {
		typ := TypeIFD
		if w.big {
			typ = TypeIFD8
		}
		dir.Set(Field{Tag: TagSubIFDs, Type: typ, Ints: make([]uint64, dir.reserve)})
	} else {
		dir.Delete(TagSubIFDs)
	}

	return w.writeIFD(dir)
}

// setLayoutFields sets the structural fields derived from the image and the
// storage options. Descriptive fields already on dir are kept.
func (w *Writer) setLayoutFields(dir *Directory, img *Image, opts WriteOptions, tiled bool) {
	dir.SetUint(TagImageWidth, uint64(img.Width))
	dir.SetUint(TagImageLength, uint64(img.Height))

	bits := make([]uint16, img.Channels)
	formats := make([]uint16, img.Channels)
	for i := range bits {
		bits[i] = uint16(img.Type.Bits)
		formats[i] = img.Type.SampleFormat()
	}
	dir.SetShort(TagBitsPerSample, bits...)
	dir.SetShort(TagSampleFormat, formats...)
	dir.SetShort(TagSamplesPerPixel, uint16(img.Channels))
	dir.SetShort(TagCompression, uint16(opts.Compression))
	dir.SetShort(TagPlanarConfiguration, PlanarContig)

	if !dir.Has(TagPhotometricInterpretation) {
		if img.Channels >= 3 {
			dir.SetShort(TagPhotometricInterpretation, PhotometricRGB)
		} else {
			dir.SetShort(TagPhotometricInterpretation, PhotometricMinIsBlack)
		}
	}
	if !dir.Has(TagExtraSamples) {
		base := 1
		if dir.UintOr(TagPhotometricInterpretation, PhotometricMinIsBlack) == PhotometricRGB {
			base = 3
		}
		if extra := img.Channels - base; extra > 0 {
			dir.SetShort(TagExtraSamples, make([]uint16, extra)...)
		}
	}

	switch {
	case opts.Predictor && img.Type.IsInteger():
		dir.SetShort(TagPredictor, PredictorHorizontal)
	case opts.Predictor && img.Type.Kind == Float:
		dir.SetShort(TagPredictor, PredictorFloatingPoint)
	default:
		dir.Delete(TagPredictor)
	}

	if tiled {
		dir.SetUint(TagTileWidth, uint64(opts.TileWidth))
		dir.SetUint(TagTileLength, uint64(opts.TileHeight))
		dir.Delete(TagRowsPerStrip)
		dir.Delete(TagStripOffsets)
		dir.Delete(TagStripByteCounts)
		return
	}

	rows := opts.RowsPerStrip
	if rows <= 0 {
		rows = max(1, defaultStripBytes/img.RowBytes())
	}
	dir.SetUint(TagRowsPerStrip, uint64(min(rows, img.Height)))
	dir.Delete(TagTileWidth)
	dir.Delete(TagTileLength)
	dir.Delete(TagTileOffsets)
	dir.Delete(TagTileByteCounts)
}

// encodeBlocks cuts img into tiles or strips and compresses each.
func (w *Writer) encodeBlocks(img *Image, info Info, opts WriteOptions) ([][]byte, error) {
	bw, bh := info.BlockSize()
	across := info.BlocksAcross()
	blocks := make([][]byte, info.BlocksPerPlane())
	usePredictor := info.Predictor != PredictorNone

	err := forEachBlock(len(blocks), w.workers, func(i int) error {
		x0, y0 := (i%across)*bw, (i/across)*bh
		rows := bh
		var raw []byte
		if info.Tiled {
			raw = img.Region(x0, y0, bw, bh).Pix
		} else {
			rows = min(bh, img.Height-y0)
			raw = img.Pix[y0*img.RowBytes() : (y0+rows)*img.RowBytes()]
			if usePredictor {
				raw = append([]byte(nil), raw...)
			}
		}

		switch info.Predictor {
		case PredictorHorizontal:
			predictor.Encode(raw, bw, img.Channels, img.Type.Bytes())
		case PredictorFloatingPoint:
			predictor.EncodeFloat(raw, bw, img.Channels, img.Type.Bytes())
		}

		b, err := compression.Compress(opts.Compression, raw, compression.Layout{
			Width:         bw,
			Height:        rows,
			Channels:      img.Channels,
			BitsPerSample: img.Type.Bits,
			Unsigned:      img.Type.Kind == Uint,
			Order:         w.order,
			Level:         opts.DeflateLevel,
		})
		if err != nil {
			return fmt.Errorf("tiff: encode block %d: %w", i, err)
		}
		blocks[i] = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// writeIFD serializes dir at the next word boundary: entry count, entries
// sorted by tag, next-IFD offset, then the values too large for an entry.
func (w *Writer) writeIFD(dir *Directory) (Handle, int64, error) {
	align := int64(2)
	if w.big {
		align = 8
	}
	if pad := (align - w.end%align) % align; pad > 0 {
		if err := w.append(make([]byte, pad)); err != nil {
			return 0, 0, err
		}
	}

	start := w.end
	tags := dir.Tags()
	entryLen, inline := entryLenClassic, 4
	if w.big {
		entryLen, inline = entryLenBig, 8
	}
	headLen := 2 + len(tags)*entryLen + 4
	if w.big {
		headLen = 8 + len(tags)*entryLen + 8
	}
	extraBase := start + int64(headLen)

	buf := byteio.NewBufferWriter(headLen, w.order, w.big)
	extra := byteio.NewBufferWriter(0, w.order, w.big)
	if w.big {
		buf.WriteUint64(uint64(len(tags)))
	} else {
		buf.WriteUint16(uint16(len(tags)))
	}

	subIFDPos := int64(-1)
	for _, tag := range tags {
		f := dir.fields[tag]
		typ, data, err := w.encodeValues(f)
		if err != nil {
			return 0, 0, fmt.Errorf("tiff: field %v: %w", tag, err)
		}

		entryPos := start + int64(buf.Len())
		buf.WriteUint16(uint16(tag))
		buf.WriteUint16(uint16(typ))
		count := uint64(len(data) / typ.Size())
		if w.big {
			buf.WriteUint64(count)
		} else {
			buf.WriteUint32(uint32(count))
		}

		valuePos := entryPos + int64(entryLen-inline)
		if len(data) <= inline {
			buf.WriteBytes(data)
			buf.WriteBytes(make([]byte, inline-len(data)))
		} else {
			extra.Pad(2)
			valuePos = extraBase + int64(extra.Len())
			if !w.big && valuePos > math.MaxUint32 {
				return 0, 0, ErrTooLarge
			}
			buf.WriteOffset(uint64(valuePos))
			extra.WriteBytes(data)
		}
		if tag == TagSubIFDs {
			subIFDPos = valuePos
		}
	}

	nextPos := start + int64(buf.Len())
	buf.WriteOffset(0)
	buf.WriteBytes(extra.Bytes())

	if !w.big && start+int64(buf.Len()) > math.MaxUint32 {
		return 0, 0, ErrTooLarge
	}
	if err := w.append(buf.Bytes()); err != nil {
		return 0, 0, err
	}

	h := Handle(start)
	dir.handle = h
	dir.next = 0
	if dir.reserve > 0 {
		w.slots[h] = &subIFDSlots{pos: subIFDPos, n: dir.reserve}
		w.parents = append(w.parents, h)
	}
	return h, nextPos, nil
}

// encodeValues returns the on-disk type and bytes of a field's values.
// Classic files store 64-bit integer types in their 32-bit forms.
func (w *Writer) encodeValues(f *Field) (FieldType, []byte, error) {
	typ := f.Type
	if !w.big {
		switch typ {
		case TypeLong8:
			typ = TypeLong
		case TypeSLong8:
			typ = TypeSLong
		case TypeIFD8:
			typ = TypeIFD
		}
	}

	out := byteio.NewBufferWriter(0, w.order, w.big)
	switch {
	case typ == TypeASCII:
		out.WriteBytes([]byte(f.ASCII))
		out.WriteUint8(0)

	case typ == TypeFloat:
		for _, v := range f.Floats {
			out.WriteFloat32(float32(v))
		}

	case typ == TypeDouble:
		for _, v := range f.Floats {
			out.WriteFloat64(v)
		}

	case typ == TypeRational || typ == TypeSRational:
		for _, v := range f.Floats {
			num, den := rational(v)
			out.WriteUint32(uint32(num))
			out.WriteUint32(uint32(den))
		}

	case typ.Size() > 0:
		size := typ.Size()
		for _, v := range f.Ints {
			if size == 4 && f.Type != typ && v > math.MaxUint32 {
				return 0, nil, ErrTooLarge
			}
			switch size {
			case 1:
				out.WriteUint8(uint8(v))
			case 2:
				out.WriteUint16(uint16(v))
			case 4:
				out.WriteUint32(uint32(v))
			default:
				out.WriteUint64(v)
			}
		}

	default:
		return 0, nil, fmt.Errorf("unknown field type %d", typ)
	}
	return typ, out.Bytes(), nil
}

// rational approximates v as a fraction with a power of ten denominator.
func rational(v float64) (num, den int64) {
	den = 1
	for v*float64(den) != math.Trunc(v*float64(den)) && den < 1_000_000 {
		den *= 10
	}
	return int64(math.Round(v * float64(den))), den
}

// append writes b at the end of the file.
func (w *Writer) append(b []byte) error {
	if _, err := w.ws.Write(b); err != nil {
		return fmt.Errorf("tiff: write: %w", err)
	}
	w.end += int64(len(b))
	return nil
}

// patchOffset overwrites the offset stored at pos and returns to the end of
// the file.
func (w *Writer) patchOffset(pos int64, v uint64) error {
	if !w.big && v > math.MaxUint32 {
		return ErrTooLarge
	}
	b := byteio.NewBufferWriter(8, w.order, w.big)
	b.WriteOffset(v)

	if _, err := w.ws.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("tiff: seek: %w", err)
	}
	if _, err := w.ws.Write(b.Bytes()); err != nil {
		return fmt.Errorf("tiff: write: %w", err)
	}
	if _, err := w.ws.Seek(w.end, io.SeekStart); err != nil {
		return fmt.Errorf("tiff: seek: %w", err)
	}
	return nil
}
