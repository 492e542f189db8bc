package tiff

import "strconv"

// A TIFF file holds one or more images. The metadata of each image lives in
// an Image File Directory (IFD): a count followed by fixed-size entries of
// tag, field type, value count and either the value itself or the offset of
// the value when it does not fit in the entry.
//
// Classic TIFF uses 12-byte entries and 32-bit offsets. BigTIFF uses 20-byte
// entries and 64-bit offsets.

const (
	leHeader = "II" // Little-endian byte order mark
	beHeader = "MM" // Big-endian byte order mark

	magicClassic = 42
	magicBig     = 43

	entryLenClassic = 12
	entryLenBig     = 20
)

// Tag identifies a directory field.
type Tag uint16

// Tags used by this package (TIFF 6.0 and the Adobe supplements).
const (
	TagNewSubfileType            Tag = 254
	TagImageWidth                Tag = 256
	TagImageLength               Tag = 257
	TagBitsPerSample             Tag = 258
	TagCompression               Tag = 259
	TagPhotometricInterpretation Tag = 262
	TagDocumentName              Tag = 269
	TagImageDescription          Tag = 270
	TagStripOffsets              Tag = 273
	TagOrientation               Tag = 274
	TagSamplesPerPixel           Tag = 277
	TagRowsPerStrip              Tag = 278
	TagStripByteCounts           Tag = 279
	TagXResolution               Tag = 282
	TagYResolution               Tag = 283
	TagPlanarConfiguration       Tag = 284
	TagPageName                  Tag = 285
	TagResolutionUnit            Tag = 296
	TagSoftware                  Tag = 305
	TagDateTime                  Tag = 306
	TagPredictor                 Tag = 317
	TagColorMap                  Tag = 320
	TagTileWidth                 Tag = 322
	TagTileLength                Tag = 323
	TagTileOffsets               Tag = 324
	TagTileByteCounts            Tag = 325
	TagSubIFDs                   Tag = 330
	TagExtraSamples              Tag = 338
	TagSampleFormat              Tag = 339
)

var tagNames = map[Tag]string{
	TagNewSubfileType:            "NewSubfileType",
	TagImageWidth:                "ImageWidth",
	TagImageLength:               "ImageLength",
	TagBitsPerSample:             "BitsPerSample",
	TagCompression:               "Compression",
	TagPhotometricInterpretation: "PhotometricInterpretation",
	TagDocumentName:              "DocumentName",
	TagImageDescription:          "ImageDescription",
	TagStripOffsets:              "StripOffsets",
	TagOrientation:               "Orientation",
	TagSamplesPerPixel:           "SamplesPerPixel",
	TagRowsPerStrip:              "RowsPerStrip",
	TagStripByteCounts:           "StripByteCounts",
	TagXResolution:               "XResolution",
	TagYResolution:               "YResolution",
	TagPlanarConfiguration:       "PlanarConfiguration",
	TagPageName:                  "PageName",
	TagResolutionUnit:            "ResolutionUnit",
	TagSoftware:                  "Software",
	TagDateTime:                  "DateTime",
	TagPredictor:                 "Predictor",
	TagColorMap:                  "ColorMap",
	TagTileWidth:                 "TileWidth",
	TagTileLength:                "TileLength",
	TagTileOffsets:               "TileOffsets",
	TagTileByteCounts:            "TileByteCounts",
	TagSubIFDs:                   "SubIFDs",
	TagExtraSamples:              "ExtraSamples",
	TagSampleFormat:              "SampleFormat",
}

// String returns the tag name, or its number for unknown tags.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "Tag(" + strconv.Itoa(int(t)) + ")"
}

// FieldType is the TIFF data type of a field's values.
type FieldType uint16

// Field types (p. 15-16 of TIFF 6.0, plus the BigTIFF additions).
const (
	TypeByte      FieldType = 1
	TypeASCII     FieldType = 2
	TypeShort     FieldType = 3
	TypeLong      FieldType = 4
	TypeRational  FieldType = 5
	TypeSByte     FieldType = 6
	TypeUndefined FieldType = 7
	TypeSShort    FieldType = 8
	TypeSLong     FieldType = 9
	TypeSRational FieldType = 10
	TypeFloat     FieldType = 11
	TypeDouble    FieldType = 12
	TypeIFD       FieldType = 13
	TypeLong8     FieldType = 16
	TypeSLong8    FieldType = 17
	TypeIFD8      FieldType = 18
)

// Size returns the size in bytes of one value of the type, or 0 for unknown
// types.
func (t FieldType) Size() int {
	switch t {
	case TypeByte, TypeASCII, TypeSByte, TypeUndefined:
		return 1
	case TypeShort, TypeSShort:
		return 2
	case TypeLong, TypeSLong, TypeFloat, TypeIFD:
		return 4
	case TypeRational, TypeSRational, TypeDouble, TypeLong8, TypeSLong8, TypeIFD8:
		return 8
	}
	return 0
}

func (t FieldType) isFloat() bool {
	return t == TypeRational || t == TypeSRational || t == TypeFloat || t == TypeDouble
}

func (t FieldType) isSigned() bool {
	return t == TypeSByte || t == TypeSShort || t == TypeSLong || t == TypeSLong8
}

// NewSubfileType bits.
const (
	SubfileReducedImage = 1
	SubfilePage         = 2
	SubfileMask         = 4
)

// Compression values are the compression.Method constants.

// Photometric interpretation values.
const (
	PhotometricMinIsWhite = 0
	PhotometricMinIsBlack = 1
	PhotometricRGB        = 2
	PhotometricPalette    = 3
	PhotometricMask       = 4
	PhotometricSeparated  = 5
	PhotometricYCbCr      = 6
)

// Planar configuration values.
const (
	PlanarContig   = 1
	PlanarSeparate = 2
)

// Predictor values.
const (
	PredictorNone          = 1
	PredictorHorizontal    = 2
	PredictorFloatingPoint = 3
)

// Sample format values.
const (
	SampleFormatUint         = 1
	SampleFormatInt          = 2
	SampleFormatFloat        = 3
	SampleFormatVoid         = 4
	SampleFormatComplexInt   = 5
	SampleFormatComplexFloat = 6
)

// Extra sample values.
const (
	ExtraSampleUnspecified = 0
	ExtraSampleAssocAlpha  = 1
	ExtraSampleUnassAlpha  = 2
)
