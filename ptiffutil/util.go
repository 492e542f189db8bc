// Package ptiffutil provides higher-level operations on pyramid containers.
//
// It offers file summaries, chain validation, level by level comparison,
// loading of source images in any format the build tool accepts, and
// per-channel statistics.
//
// Example usage:
//
//	info, _ := ptiffutil.GetFileInfo("slide.tif")
//	fmt.Printf("%d images, first has %d levels\n", info.NumImages, len(info.Images[0].Levels))
//
//	img, _ := ptiffutil.LoadImage("scan.png")
package ptiffutil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"

	"github.com/mrjoshuak/go-ptiff/pyramid"
	"github.com/mrjoshuak/go-ptiff/tiff"
)

// ===========================================
// File Information
// ===========================================

// ImageInfo summarizes one image of a container.
type ImageInfo struct {
	Index  int
	Levels []pyramid.LevelInfo
	Err    error // Set when the chain of the image is malformed
}

// FileInfo provides a summary of a pyramid container.
type FileInfo struct {
	Path      string
	FileSize  int64
	BigTIFF   bool
	BigEndian bool
	NumImages int
	Images    []ImageInfo
}

// GetFileInfo returns summary information about a container. Images with a
// malformed chain are reported with Err set rather than failing the call.
func GetFileInfo(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	r, err := tiff.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	nav := pyramid.NewNavigator(r)
	n, err := nav.NumImages()
	if err != nil {
		return nil, err
	}

	info := &FileInfo{
		Path:      path,
		FileSize:  stat.Size(),
		BigTIFF:   r.BigTIFF(),
		BigEndian: r.ByteOrder() == binary.BigEndian,
		NumImages: n,
	}
	for i := 0; i < n; i++ {
		img := ImageInfo{Index: i}
		hs, err := nav.LevelsOf(i)
		if err != nil {
			if !errors.Is(err, pyramid.ErrMalformedContainer) {
				return nil, err
			}
			img.Err = err
			info.Images = append(info.Images, img)
			continue
		}
		for z := range hs {
			li, err := nav.LevelInfo(i, z)
			if err != nil {
				return nil, err
			}
			img.Levels = append(img.Levels, li)
		}
		info.Images = append(info.Images, img)
	}
	return info, nil
}

// ===========================================
// Validation
// ===========================================

// ValidationResult contains the results of file validation.
type ValidationResult struct {
	Valid    bool
	Warnings []string
	Errors   []string
}

// ValidateFile checks that a file is a well formed pyramid container: every
// chain is linked and flagged as expected, levels have the halved
// dimensions, and the tile size is the same everywhere.
func ValidateFile(path string) (*ValidationResult, error) {
	result := &ValidationResult{Valid: true}
	fail := func(format string, args ...any) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	stat, err := os.Stat(path)
	if err != nil {
		fail("cannot access file: %v", err)
		return result, nil
	}
	if stat.Size() < 8 {
		fail("file too small to be valid TIFF")
		return result, nil
	}

	info, err := GetFileInfo(path)
	if err != nil {
		fail("cannot open file: %v", err)
		return result, nil
	}
	if info.NumImages == 0 {
		fail("no images")
	}

	tile := 0
	for _, img := range info.Images {
		if img.Err != nil {
			fail("image %d: %v", img.Index, img.Err)
			continue
		}
		base := img.Levels[0]
		for _, l := range img.Levels {
			if l.TileWidth != l.TileHeight {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("image %d level %d: tiles are %dx%d, not square", img.Index, l.Level, l.TileWidth, l.TileHeight))
			}
			if tile == 0 {
				tile = l.TileWidth
			} else if l.TileWidth != tile {
				fail("image %d level %d: tile width %d, container uses %d", img.Index, l.Level, l.TileWidth, tile)
			}
			h, w := pyramid.LevelShape(base.Height, base.Width, l.Level)
			if l.Width != w || l.Height != h {
				fail("image %d level %d: size %dx%d, want %dx%d", img.Index, l.Level, l.Width, l.Height, w, h)
			}
			if l.Channels != base.Channels || l.Type != base.Type {
				fail("image %d level %d: samples %dx%v differ from level 0 %dx%v",
					img.Index, l.Level, l.Channels, l.Type, base.Channels, base.Type)
			}
		}
	}
	if tile%16 != 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("tile size %d is not a multiple of 16", tile))
	}
	return result, nil
}

// ===========================================
// Comparison
// ===========================================

// CompareOptions configures file comparison behavior.
type CompareOptions struct {
	Tolerance      float64 // Maximum allowed difference for sample values
	IgnoreMetadata bool    // If true, only compare pixel data
}

// CompareFiles checks if two containers hold the same images and levels.
// Returns true if they match within tolerance, along with any differences
// found.
func CompareFiles(path1, path2 string, opts CompareOptions) (bool, []string, error) {
	nav1, err := pyramid.OpenNavigator(path1)
	if err != nil {
		return false, nil, fmt.Errorf("cannot open %s: %w", path1, err)
	}
	defer nav1.Close()

	nav2, err := pyramid.OpenNavigator(path2)
	if err != nil {
		return false, nil, fmt.Errorf("cannot open %s: %w", path2, err)
	}
	defer nav2.Close()

	n1, err := nav1.NumImages()
	if err != nil {
		return false, nil, err
	}
	n2, err := nav2.NumImages()
	if err != nil {
		return false, nil, err
	}

	var diffs []string
	if n1 != n2 {
		diffs = append(diffs, fmt.Sprintf("image count differs: %d vs %d", n1, n2))
	}

	for i := 0; i < min(n1, n2); i++ {
		hs1, err := nav1.LevelsOf(i)
		if err != nil {
			return false, nil, fmt.Errorf("file1 image %d: %w", i, err)
		}
		hs2, err := nav2.LevelsOf(i)
		if err != nil {
			return false, nil, fmt.Errorf("file2 image %d: %w", i, err)
		}
		if len(hs1) != len(hs2) {
			diffs = append(diffs, fmt.Sprintf("image %d: level count differs: %d vs %d", i, len(hs1), len(hs2)))
		}

		for z := 0; z < min(len(hs1), len(hs2)); z++ {
			d, err := compareLevel(nav1, nav2, i, z, opts)
			if err != nil {
				return false, nil, err
			}
			diffs = append(diffs, d...)
		}
	}
	return len(diffs) == 0, diffs, nil
}

func compareLevel(nav1, nav2 *pyramid.Navigator, image, level int, opts CompareOptions) ([]string, error) {
	var diffs []string
	where := fmt.Sprintf("image %d level %d", image, level)

	if !opts.IgnoreMetadata {
		li1, err := nav1.LevelInfo(image, level)
		if err != nil {
			return nil, err
		}
		li2, err := nav2.LevelInfo(image, level)
		if err != nil {
			return nil, err
		}
		if li1.Compression != li2.Compression {
			diffs = append(diffs, fmt.Sprintf("%s: compression differs: %v vs %v", where, li1.Compression, li2.Compression))
		}
		if li1.TileWidth != li2.TileWidth || li1.TileHeight != li2.TileHeight {
			diffs = append(diffs, fmt.Sprintf("%s: tile size differs: %dx%d vs %dx%d",
				where, li1.TileWidth, li1.TileHeight, li2.TileWidth, li2.TileHeight))
		}
	}

	img1, err := nav1.FetchLevel(image, level)
	if err != nil {
		return nil, fmt.Errorf("error reading %s from file1: %w", where, err)
	}
	img2, err := nav2.FetchLevel(image, level)
	if err != nil {
		return nil, fmt.Errorf("error reading %s from file2: %w", where, err)
	}

	if img1.Width != img2.Width || img1.Height != img2.Height || img1.Channels != img2.Channels {
		return append(diffs, fmt.Sprintf("%s: dimensions differ: %dx%dx%d vs %dx%dx%d", where,
			img1.Width, img1.Height, img1.Channels, img2.Width, img2.Height, img2.Channels)), nil
	}
	if img1.Type != img2.Type {
		return append(diffs, fmt.Sprintf("%s: sample type differs: %v vs %v", where, img1.Type, img2.Type)), nil
	}

	s1, s2 := Samples(img1), Samples(img2)
	if maxDiff := floats.Distance(s1, s2, math.Inf(1)); maxDiff > opts.Tolerance {
		count := 0
		for i := range s1 {
			if math.Abs(s1[i]-s2[i]) > opts.Tolerance {
				count++
			}
		}
		diffs = append(diffs, fmt.Sprintf("%s: %d samples differ (max diff: %g)", where, count, maxDiff))
	}
	return diffs, nil
}
