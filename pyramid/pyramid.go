// Package pyramid builds and navigates pyramidal tiled TIFF containers.
//
// A container holds one or more base images as top-level directories. Each
// base image is stored tiled and carries a SubIFDs field linking the
// reduced resolution copies of itself, each half the size of the previous
// one, until the image fits in a single tile:
//
//	IFD 0 (image 0, level 0) ─ SubIFDs ─> level 1, level 2, ...
//	  │
//	IFD 1 (image 1, level 0) ─ SubIFDs ─> level 1, ...
//
// Builder writes containers, Navigator reads them back level by level or
// tile by tile, and Export writes any image out as a plain TIFF file.
package pyramid

import (
	"errors"

	"github.com/mrjoshuak/go-ptiff/tiff"
)

// Navigation errors.
var (
	ErrImageOutOfRange    = errors.New("pyramid: image index out of range")
	ErrLevelOutOfRange    = errors.New("pyramid: level out of range")
	ErrTileOutOfRange     = errors.New("pyramid: tile coordinates out of range")
	ErrMalformedContainer = errors.New("pyramid: malformed container")
)

// DefaultTileSize is the edge length of the square tiles of every level.
const DefaultTileSize = 256

// DefaultPageName is the PageName stored on level 0 directories.
const DefaultPageName = "Full image"

// LevelCount returns the number of reduced levels of a height×width image:
// the smallest n ≥ 0 for which the longest side divided by 2^n fits in one
// tile.
func LevelCount(height, width, tileSize int) int {
	longest := max(height, width)
	if tileSize <= 0 || longest <= tileSize {
		return 0
	}
	n := 0
	for size := tileSize; size < longest; size <<= 1 {
		n++
	}
	return n
}

// LevelShape returns the dimensions of level z of a height×width image.
// Each dimension is halved z times, rounding down, and is at least 1.
func LevelShape(height, width, z int) (int, int) {
	return max(height>>z, 1), max(width>>z, 1)
}

// Level is one resolution of a chain.
type Level struct {
	Index   int
	Width   int
	Height  int
	Reduced bool        // False only for level 0
	Handle  tiff.Handle // Directory written for the level
}

// Chain is the pyramid of one source image: level 0 at full resolution
// followed by its reduced copies in descending resolution.
type Chain struct {
	Image    int // Position of the source image in the container
	Channels int
	Type     tiff.DataType
	Levels   []Level
}

// Handles returns the directory handles of the levels in order.
func (c *Chain) Handles() []tiff.Handle {
	hs := make([]tiff.Handle, len(c.Levels))
	for i, l := range c.Levels {
		hs[i] = l.Handle
	}
	return hs
}
