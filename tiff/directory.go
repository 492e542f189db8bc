package tiff

import (
	"math"
	"slices"
	"strings"
)

// Handle is the file offset of a written directory. It is the address used
// to jump back to that directory when reading.
type Handle uint64

// Field is one directory entry.
//
// Integer types keep their values in Ints (signed values as two's
// complement), floating and rational types in Floats, ASCII in ASCII.
type Field struct {
	Tag    Tag
	Type   FieldType
	Count  uint64
	Ints   []uint64
	Floats []float64
	ASCII  string
}

// Directory is the set of fields of one image.
//
// A Directory built by the caller is handed to Writer.WriteImage or
// Writer.WriteSubImage, which add the structural fields. A Directory
// returned by a Reader reflects the file contents.
type Directory struct {
	fields  map[Tag]*Field
	handle  Handle
	next    Handle
	reserve int
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{fields: make(map[Tag]*Field)}
}

// Handle returns the file offset of the directory once it has been written
// or read, and 0 before.
func (d *Directory) Handle() Handle {
	return d.handle
}

// Set stores f, replacing any field with the same tag.
func (d *Directory) Set(f Field) {
	switch {
	case f.Type == TypeASCII:
		f.Count = uint64(len(f.ASCII)) + 1
	case f.Type.isFloat():
		f.Count = uint64(len(f.Floats))
	default:
		f.Count = uint64(len(f.Ints))
	}
	d.fields[f.Tag] = &f
}

// SetShort stores 16-bit unsigned values.
func (d *Directory) SetShort(tag Tag, values ...uint16) {
	ints := make([]uint64, len(values))
	for i, v := range values {
		ints[i] = uint64(v)
	}
	d.Set(Field{Tag: tag, Type: TypeShort, Ints: ints})
}

// SetLong stores 32-bit unsigned values.
func (d *Directory) SetLong(tag Tag, values ...uint32) {
	ints := make([]uint64, len(values))
	for i, v := range values {
		ints[i] = uint64(v)
	}
	d.Set(Field{Tag: tag, Type: TypeLong, Ints: ints})
}

// SetUint stores unsigned values using the narrowest of SHORT, LONG and
// LONG8 that holds all of them.
func (d *Directory) SetUint(tag Tag, values ...uint64) {
	typ := TypeShort
	for _, v := range values {
		if v > math.MaxUint32 {
			typ = TypeLong8
			break
		}
		if v > math.MaxUint16 {
			typ = TypeLong
		}
	}
	d.Set(Field{Tag: tag, Type: typ, Ints: slices.Clone(values)})
}

// SetASCII stores a string. A trailing NUL is added on write.
func (d *Directory) SetASCII(tag Tag, s string) {
	d.Set(Field{Tag: tag, Type: TypeASCII, ASCII: s})
}

// SetRational stores unsigned rational values.
func (d *Directory) SetRational(tag Tag, values ...float64) {
	d.Set(Field{Tag: tag, Type: TypeRational, Floats: slices.Clone(values)})
}

// SetDouble stores 64-bit floating point values.
func (d *Directory) SetDouble(tag Tag, values ...float64) {
	d.Set(Field{Tag: tag, Type: TypeDouble, Floats: slices.Clone(values)})
}

// Delete removes a field.
func (d *Directory) Delete(tag Tag) {
	delete(d.fields, tag)
}

// Has reports whether the field is present.
func (d *Directory) Has(tag Tag) bool {
	_, ok := d.fields[tag]
	return ok
}

// Field returns a copy of the field.
func (d *Directory) Field(tag Tag) (Field, bool) {
	f, ok := d.fields[tag]
	if !ok {
		return Field{}, false
	}
	return *f, true
}

// Uint returns the first value of an integer field.
func (d *Directory) Uint(tag Tag) (uint64, bool) {
	f, ok := d.fields[tag]
	if !ok || len(f.Ints) == 0 {
		return 0, false
	}
	return f.Ints[0], true
}

// UintOr returns the first value of an integer field, or def when absent.
func (d *Directory) UintOr(tag Tag, def uint64) uint64 {
	if v, ok := d.Uint(tag); ok {
		return v
	}
	return def
}

// Uints returns all values of an integer field.
func (d *Directory) Uints(tag Tag) []uint64 {
	f, ok := d.fields[tag]
	if !ok {
		return nil
	}
	return f.Ints
}

// Floats returns all values of a floating point or rational field.
func (d *Directory) Floats(tag Tag) []float64 {
	f, ok := d.fields[tag]
	if !ok {
		return nil
	}
	return f.Floats
}

// ASCII returns the value of an ASCII field without its trailing NULs.
func (d *Directory) ASCII(tag Tag) (string, bool) {
	f, ok := d.fields[tag]
	if !ok || f.Type != TypeASCII {
		return "", false
	}
	return strings.TrimRight(f.ASCII, "\x00"), true
}

// Tags returns the tags present in ascending order, the order in which they
// are written.
func (d *Directory) Tags() []Tag {
	tags := make([]Tag, 0, len(d.fields))
	for t := range d.fields {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	return tags
}

// ReserveSubIFDs declares n SubIFDs placeholders on the directory. After the
// directory is written, each Writer.WriteSubImage naming it as parent fills
// the next placeholder. n of 0 removes the declaration.
func (d *Directory) ReserveSubIFDs(n int) {
	d.reserve = max(n, 0)
}

// SubIFDs returns the sub-directory handles stored in the SubIFDs field.
func (d *Directory) SubIFDs() []Handle {
	ints := d.Uints(TagSubIFDs)
	handles := make([]Handle, len(ints))
	for i, v := range ints {
		handles[i] = Handle(v)
	}
	return handles
}

// IsReduced reports whether NewSubfileType flags the image as a reduced
// resolution version of another image.
func (d *Directory) IsReduced() bool {
	return d.UintOr(TagNewSubfileType, 0)&SubfileReducedImage != 0
}

// IsTiled reports whether the image is stored as tiles.
func (d *Directory) IsTiled() bool {
	return d.Has(TagTileWidth) && d.Has(TagTileLength)
}
