package ptiff_test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrjoshuak/go-ptiff/compression"
	"github.com/mrjoshuak/go-ptiff/pyramid"
	"github.com/mrjoshuak/go-ptiff/tiff"
)

func sampleImage() *tiff.Image {
	img := tiff.NewImage(1000, 600, 1, tiff.Uint8)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.SetValue(x, y, 0, 0, float64((x+y)%256))
		}
	}
	return img
}

// Example_build demonstrates writing a pyramid container.
func Example_build() {
	dir, err := os.MkdirTemp("", "ptiff")
	if err != nil {
		fmt.Println("Error creating directory:", err)
		return
	}
	defer os.RemoveAll(dir)

	chains, err := pyramid.Create(filepath.Join(dir, "slide.tif"), []*tiff.Image{sampleImage()},
		pyramid.Options{Compression: compression.Deflate, Predictor: true})
	if err != nil {
		fmt.Println("Error building pyramid:", err)
		return
	}

	for _, l := range chains[0].Levels {
		fmt.Printf("level %d: %dx%d reduced=%v\n", l.Index, l.Width, l.Height, l.Reduced)
	}
	// Output:
	// level 0: 1000x600 reduced=false
	// level 1: 500x300 reduced=true
	// level 2: 250x150 reduced=true
}

// Example_navigate demonstrates reading one tile of a reduced level.
func Example_navigate() {
	dir, err := os.MkdirTemp("", "ptiff")
	if err != nil {
		fmt.Println("Error creating directory:", err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "slide.tif")
	if _, err := pyramid.Create(path, []*tiff.Image{sampleImage()}, pyramid.Options{}); err != nil {
		fmt.Println("Error building pyramid:", err)
		return
	}

	nav, err := pyramid.OpenNavigator(path, pyramid.WithTileCache(16))
	if err != nil {
		fmt.Println("Error opening pyramid:", err)
		return
	}
	defer nav.Close()

	info, err := nav.LevelInfo(0, 1)
	if err != nil {
		fmt.Println("Error reading level:", err)
		return
	}
	fmt.Printf("level 1 has %dx%d tiles\n", info.TilesAcross, info.TilesDown)

	tile, err := nav.FetchTile(0, 1, 1, 0)
	if err != nil {
		fmt.Println("Error fetching tile:", err)
		return
	}
	fmt.Printf("tile is %dx%d with %d channel\n", tile.Width, tile.Height, tile.Channels)
	// Output:
	// level 1 has 2x2 tiles
	// tile is 256x256 with 1 channel
}

// Example_export demonstrates writing every level to its own file.
func Example_export() {
	dir, err := os.MkdirTemp("", "ptiff")
	if err != nil {
		fmt.Println("Error creating directory:", err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "slide.tif")
	if _, err := pyramid.Create(path, []*tiff.Image{sampleImage()}, pyramid.Options{}); err != nil {
		fmt.Println("Error building pyramid:", err)
		return
	}

	nav, err := pyramid.OpenNavigator(path)
	if err != nil {
		fmt.Println("Error opening pyramid:", err)
		return
	}
	defer nav.Close()

	paths, err := pyramid.ExportAll(nav, dir, "slide")
	if err != nil {
		fmt.Println("Error exporting:", err)
		return
	}
	for _, p := range paths {
		fmt.Println(filepath.Base(p))
	}
	// Output:
	// image0_sub0.tiff
	// image0_sub1.tiff
	// image0_sub2.tiff
}
