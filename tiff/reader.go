package tiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"os"

	"github.com/mrjoshuak/go-ptiff/compression"
	"github.com/mrjoshuak/go-ptiff/internal/byteio"
	"github.com/mrjoshuak/go-ptiff/internal/predictor"
)

// Reader errors
var (
	ErrFormat         = errors.New("tiff: malformed file")
	ErrNotTiled       = errors.New("tiff: directory is not tiled")
	ErrOutOfBounds    = errors.New("tiff: pixel coordinates out of bounds")
	ErrDirectoryIndex = errors.New("tiff: directory index out of range")
)

// maxEntries bounds the entry count of one directory.
const maxEntries = 1 << 16

// Reader reads directories and pixel data from a TIFF or BigTIFF file.
//
// A Reader has a current directory, which ReadImage and ReadTile use.
// It starts at the first top-level directory and moves with SetDirectory,
// SetDirectoryAt and Directories. A Reader is not safe for concurrent use.
type Reader struct {
	ra     io.ReaderAt
	size   int64
	order  byteio.Order
	big    bool
	first  Handle
	cur    *Directory
	closer io.Closer

	workers int // Goroutines decoding the blocks of ReadImage
}

// Open opens the named file with memory mapping and returns a Reader
// positioned at its first directory. Close releases the file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	mmap, err := newMmapReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	r, err := NewReader(mmap, mmap.Size())
	if err != nil {
		mmap.Close()
		return nil, err
	}
	r.closer = mmap
	return r, nil
}

// NewReader parses the header of the size-byte file behind ra and returns a
// Reader positioned at its first directory.
func NewReader(ra io.ReaderAt, size int64) (*Reader, error) {
	r := &Reader{ra: ra, size: size, workers: 1}

	hdr := make([]byte, 16)
	n, err := ra.ReadAt(hdr, 0)
	if n < 8 {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: header: %v", ErrFormat, err)
	}

	switch string(hdr[:2]) {
	case leHeader:
		r.order = binary.LittleEndian
	case beHeader:
		r.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad byte order mark %q", ErrFormat, hdr[:2])
	}

	switch r.order.Uint16(hdr[2:]) {
	case magicClassic:
		r.first = Handle(r.order.Uint32(hdr[4:]))
	case magicBig:
		if n < 16 || r.order.Uint16(hdr[4:]) != 8 || r.order.Uint16(hdr[6:]) != 0 {
			return nil, fmt.Errorf("%w: bad BigTIFF header", ErrFormat)
		}
		r.big = true
		r.first = Handle(r.order.Uint64(hdr[8:]))
	default:
		return nil, fmt.Errorf("%w: bad magic number %d", ErrFormat, r.order.Uint16(hdr[2:]))
	}

	r.cur, err = r.readDirectory(r.first)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Close releases the file opened by Open. It is a no-op for readers made
// with NewReader.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// SetWorkers sets the number of goroutines decoding blocks in ReadImage.
// Readers start with one. n ≤ 0 means runtime.GOMAXPROCS(0).
func (r *Reader) SetWorkers(n int) {
	r.workers = n
}

// Workers returns the number of goroutines ReadImage decodes blocks on.
func (r *Reader) Workers() int {
	return effectiveWorkers(r.workers)
}

// BigTIFF reports whether the file uses 64-bit offsets.
func (r *Reader) BigTIFF() bool {
	return r.big
}

// ByteOrder returns the byte order of the file.
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.order
}

// Current returns the current directory.
func (r *Reader) Current() *Directory {
	return r.cur
}

// Directories returns a single forward pass over the top-level directories.
// Each yielded directory becomes the current directory. Iteration stops
// after the first error.
func (r *Reader) Directories() iter.Seq2[*Directory, error] {
	return func(yield func(*Directory, error) bool) {
		r.walk(func(_ int, d *Directory, err error) bool {
			if err == nil {
				r.cur = d
			}
			return yield(d, err) && err == nil
		})
	}
}

// NumDirectories counts the top-level directories. The current directory
// is unchanged.
func (r *Reader) NumDirectories() (int, error) {
	n := 0
	var walkErr error
	r.walk(func(_ int, _ *Directory, err error) bool {
		if err != nil {
			walkErr = err
			return false
		}
		n++
		return true
	})
	return n, walkErr
}

// SetDirectory makes the top-level directory with the given index current.
func (r *Reader) SetDirectory(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrDirectoryIndex, index)
	}
	var found *Directory
	var walkErr error
	r.walk(func(i int, d *Directory, err error) bool {
		if err != nil {
			walkErr = err
			return false
		}
		if i == index {
			found = d
			return false
		}
		return true
	})
	if walkErr != nil {
		return walkErr
	}
	if found == nil {
		return fmt.Errorf("%w: %d", ErrDirectoryIndex, index)
	}
	r.cur = found
	return nil
}

// SetDirectoryAt makes the directory at handle current. It works for
// top-level and sub-directories alike.
func (r *Reader) SetDirectoryAt(h Handle) error {
	d, err := r.readDirectory(h)
	if err != nil {
		return err
	}
	r.cur = d
	return nil
}

// walk visits the top-level chain, stopping when fn returns false.
func (r *Reader) walk(fn func(index int, d *Directory, err error) bool) {
	seen := make(map[Handle]bool)
	for i, h := 0, r.first; h != 0; i++ {
		if seen[h] {
			fn(i, nil, fmt.Errorf("%w: directory loop at offset %d", ErrFormat, h))
			return
		}
		seen[h] = true

		d, err := r.readDirectory(h)
		if !fn(i, d, err) || err != nil {
			return
		}
		h = d.next
	}
}

// readDirectory parses the IFD at offset h.
func (r *Reader) readDirectory(h Handle) (*Directory, error) {
	countLen, entryLen, inline := 2, entryLenClassic, 4
	if r.big {
		countLen, entryLen, inline = 8, entryLenBig, 8
	}
	if h == 0 || int64(h) > r.size-int64(countLen) {
		return nil, fmt.Errorf("%w: directory offset %d outside file", ErrFormat, h)
	}

	head, err := r.readAt(int64(h), countLen)
	if err != nil {
		return nil, err
	}
	var n uint64
	if r.big {
		n = r.order.Uint64(head)
	} else {
		n = uint64(r.order.Uint16(head))
	}
	if n > maxEntries {
		return nil, fmt.Errorf("%w: %d directory entries", ErrFormat, n)
	}

	block, err := r.readAt(int64(h)+int64(countLen), int(n)*entryLen+inline)
	if err != nil {
		return nil, err
	}
	br := byteio.NewReader(block, r.order, r.big)

	d := NewDirectory()
	d.handle = h
	for i := uint64(0); i < n; i++ {
		tag, _ := br.ReadUint16()
		typ, _ := br.ReadUint16()
		var count uint64
		if r.big {
			count, _ = br.ReadUint64()
		} else {
			c, _ := br.ReadUint32()
			count = uint64(c)
		}
		value, _ := br.ReadBytes(inline)

		ft := FieldType(typ)
		size := ft.Size()
		if size == 0 {
			continue // Unknown types are skipped
		}
		if count > uint64(r.size)/uint64(size) {
			return nil, fmt.Errorf("%w: field %v count %d", ErrFormat, Tag(tag), count)
		}

		total := int(count) * size
		data := value[:min(total, inline)]
		if total > inline {
			var off uint64
			if r.big {
				off = r.order.Uint64(value)
			} else {
				off = uint64(r.order.Uint32(value))
			}
			if data, err = r.readAt(int64(off), total); err != nil {
				return nil, fmt.Errorf("field %v: %w", Tag(tag), err)
			}
		}
		d.fields[Tag(tag)] = decodeField(Tag(tag), ft, count, data, r.order)
	}

	next, err := br.ReadOffset()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	d.next = Handle(next)
	return d, nil
}

// decodeField converts raw value bytes into a Field.
func decodeField(tag Tag, typ FieldType, count uint64, data []byte, order binary.ByteOrder) *Field {
	f := &Field{Tag: tag, Type: typ, Count: count}
	size := typ.Size()

	switch {
	case typ == TypeASCII:
		f.ASCII = string(data)

	case typ == TypeFloat:
		for i := 0; i+4 <= len(data); i += 4 {
			f.Floats = append(f.Floats, float64(math.Float32frombits(order.Uint32(data[i:]))))
		}

	case typ == TypeDouble:
		for i := 0; i+8 <= len(data); i += 8 {
			f.Floats = append(f.Floats, math.Float64frombits(order.Uint64(data[i:])))
		}

	case typ == TypeRational || typ == TypeSRational:
		for i := 0; i+8 <= len(data); i += 8 {
			num, den := float64(order.Uint32(data[i:])), float64(order.Uint32(data[i+4:]))
			if typ == TypeSRational {
				num, den = float64(int32(order.Uint32(data[i:]))), float64(int32(order.Uint32(data[i+4:])))
			}
			if den == 0 {
				f.Floats = append(f.Floats, 0)
				continue
			}
			f.Floats = append(f.Floats, num/den)
		}

	default:
		f.Ints = make([]uint64, 0, len(data)/size)
		for i := 0; i+size <= len(data); i += size {
			var v uint64
			switch size {
			case 1:
				v = uint64(data[i])
				if typ.isSigned() {
					v = uint64(int64(int8(data[i])))
				}
			case 2:
				v = uint64(order.Uint16(data[i:]))
				if typ.isSigned() {
					v = uint64(int64(int16(v)))
				}
			case 4:
				v = uint64(order.Uint32(data[i:]))
				if typ.isSigned() {
					v = uint64(int64(int32(v)))
				}
			default:
				v = order.Uint64(data[i:])
			}
			f.Ints = append(f.Ints, v)
		}
	}
	return f
}

// readAt reads exactly n bytes at off.
func (r *Reader) readAt(off int64, n int) ([]byte, error) {
	if off < 0 || n < 0 || off > r.size || int64(n) > r.size-off {
		return nil, fmt.Errorf("%w: %d bytes at offset %d outside file", ErrFormat, n, off)
	}
	buf := make([]byte, n)
	if _, err := r.ra.ReadAt(buf, off); err != nil && !(err == io.EOF && n > 0) {
		return nil, fmt.Errorf("tiff: read: %w", err)
	}
	return buf, nil
}

// ReadImage decodes the whole image of the current directory.
func (r *Reader) ReadImage() (*Image, error) {
	d := r.cur
	info, err := d.Info()
	if err != nil {
		return nil, err
	}
	offsets, counts, err := blockTables(d, info)
	if err != nil {
		return nil, err
	}

	out := NewImage(info.Width, info.Height, info.Channels, info.Type)
	bw, bh := info.BlockSize()
	across := info.BlocksAcross()
	perPlane := info.BlocksPerPlane()

	planes := 1
	if info.Planar == PlanarSeparate && info.Channels > 1 {
		planes = info.Channels
	}

	err = forEachBlock(perPlane*planes, r.workers, func(i int) error {
		plane, idx := i/perPlane, i%perPlane
		x0, y0 := (idx%across)*bw, (idx/across)*bh
		rows := bh
		if !info.Tiled {
			rows = min(bh, info.Height-y0)
		}

		channels := info.Channels
		if planes > 1 {
			channels = 1
		}
		raw, err := r.readBlock(info, offsets, counts, i, bw, rows, channels)
		if err != nil {
			return err
		}
		block := &Image{Width: bw, Height: rows, Channels: channels, Type: info.Type, Pix: raw}
		if planes > 1 {
			pastePlane(out, block, x0, y0, plane)
		} else {
			out.Paste(block, x0, y0)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadTile decodes the tile of the current directory holding pixel (x, y).
// The result always has the full tile dimensions; pixels beyond the image
// edge hold whatever the file stores there.
func (r *Reader) ReadTile(x, y int) (*Image, error) {
	d := r.cur
	info, err := d.Info()
	if err != nil {
		return nil, err
	}
	if !info.Tiled {
		return nil, ErrNotTiled
	}
	if x < 0 || y < 0 || x >= info.Width || y >= info.Height {
		return nil, fmt.Errorf("%w: (%d, %d) in %dx%d image", ErrOutOfBounds, x, y, info.Width, info.Height)
	}
	offsets, counts, err := blockTables(d, info)
	if err != nil {
		return nil, err
	}

	idx := (y/info.TileHeight)*info.BlocksAcross() + x/info.TileWidth
	if info.Planar == PlanarContig || info.Channels == 1 {
		raw, err := r.readBlock(info, offsets, counts, idx, info.TileWidth, info.TileHeight, info.Channels)
		if err != nil {
			return nil, err
		}
		return &Image{Width: info.TileWidth, Height: info.TileHeight, Channels: info.Channels, Type: info.Type, Pix: raw}, nil
	}

	out := NewImage(info.TileWidth, info.TileHeight, info.Channels, info.Type)
	for c := 0; c < info.Channels; c++ {
		raw, err := r.readBlock(info, offsets, counts, c*info.BlocksPerPlane()+idx, info.TileWidth, info.TileHeight, 1)
		if err != nil {
			return nil, err
		}
		pastePlane(out, &Image{Width: info.TileWidth, Height: info.TileHeight, Channels: 1, Type: info.Type, Pix: raw}, 0, 0, c)
	}
	return out, nil
}

// blockTables returns the offset and byte count arrays of the directory.
func blockTables(d *Directory, info Info) (offsets, counts []uint64, err error) {
	if info.Tiled {
		offsets, counts = d.Uints(TagTileOffsets), d.Uints(TagTileByteCounts)
	} else {
		offsets, counts = d.Uints(TagStripOffsets), d.Uints(TagStripByteCounts)
	}

	want := info.BlocksPerPlane()
	if info.Planar == PlanarSeparate {
		want *= info.Channels
	}
	if len(offsets) < want || len(counts) < want {
		return nil, nil, fmt.Errorf("%w: %d offsets and %d byte counts for %d blocks",
			ErrFormat, len(offsets), len(counts), want)
	}
	return offsets, counts, nil
}

// readBlock reads, decompresses, byte swaps and un-predicts block idx.
// The result holds little-endian samples.
func (r *Reader) readBlock(info Info, offsets, counts []uint64, idx, w, h, channels int) ([]byte, error) {
	layout := compression.Layout{
		Width:         w,
		Height:        h,
		Channels:      channels,
		BitsPerSample: info.Type.Bits,
		Unsigned:      info.Type.Kind == Uint,
		Order:         r.order,
	}
	if counts[idx] == 0 {
		return make([]byte, layout.Size()), nil // Sparse block
	}

	data, err := r.readAt(int64(offsets[idx]), int(counts[idx]))
	if err != nil {
		return nil, fmt.Errorf("tiff: block %d: %w", idx, err)
	}
	raw, err := compression.Decompress(info.Compression, data, layout)
	if err != nil {
		return nil, fmt.Errorf("tiff: block %d: %w", idx, err)
	}

	switch info.Predictor {
	case PredictorNone, PredictorHorizontal:
		if r.order == binary.BigEndian {
			byteio.SwapOrder(raw, info.Type.LaneBytes())
		}
		if info.Predictor == PredictorHorizontal {
			predictor.Decode(raw, w, channels, info.Type.Bytes())
		}
	case PredictorFloatingPoint:
		if info.Type.Kind != Float {
			return nil, fmt.Errorf("%w: floating point predictor on %v samples", ErrUnsupportedType, info.Type)
		}
		// Byte planes are most significant first in either file order.
		predictor.DecodeFloat(raw, w, channels, info.Type.Bytes())
	default:
		return nil, fmt.Errorf("%w: predictor %d", ErrUnsupportedType, info.Predictor)
	}
	return raw, nil
}

// pastePlane copies the single-channel src into channel c of dst at (x0, y0),
// clipping to dst.
func pastePlane(dst, src *Image, x0, y0, c int) {
	sb := dst.Type.Bytes()
	w := min(src.Width, dst.Width-x0)
	h := min(src.Height, dst.Height-y0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := (y*src.Width + x) * sb
			d := dst.offset(x0+x, y0+y, c)
			copy(dst.Pix[d:d+sb], src.Pix[s:s+sb])
		}
	}
}
