package pyramid

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrjoshuak/go-ptiff/tiff"
)

// Export writes img to the named file as a single stripped directory.
func Export(img *tiff.Image, path string) error {
	w, err := tiff.Create(path, nil)
	if err != nil {
		return err
	}
	if err := writeExport(w, img); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// ExportTo writes img to ws as a single stripped directory.
func ExportTo(ws io.WriteSeeker, img *tiff.Image) error {
	w, err := tiff.NewWriter(ws, nil)
	if err != nil {
		return err
	}
	if err := writeExport(w, img); err != nil {
		return err
	}
	return w.Close()
}

func writeExport(w *tiff.Writer, img *tiff.Image) error {
	d := tiff.NewDirectory()
	d.SetShort(tiff.TagOrientation, 1)
	_, err := w.WriteImage(d, img, tiff.WriteOptions{})
	return err
}

// ExportPath returns the file name ExportAll uses for one level.
func ExportPath(dir, name string, image, level int) string {
	return filepath.Join(dir, name, fmt.Sprintf("image%d_sub%d.tiff", image, level))
}

// ExportAll writes every level of every image of the container to its own
// file under dir/name and returns the file names in write order.
func ExportAll(nav *Navigator, dir, name string) ([]string, error) {
	if err := os.MkdirAll(filepath.Join(dir, name), 0o755); err != nil {
		return nil, err
	}
	n, err := nav.NumImages()
	if err != nil {
		return nil, err
	}

	var paths []string
	for i := 0; i < n; i++ {
		hs, err := nav.LevelsOf(i)
		if err != nil {
			return paths, err
		}
		for z := range hs {
			img, err := nav.FetchLevel(i, z)
			if err != nil {
				return paths, err
			}
			p := ExportPath(dir, name, i, z)
			if err := Export(img, p); err != nil {
				return paths, err
			}
			nav.logger.Printf("exported image %d level %d to %s", i, z, p)
			paths = append(paths, p)
		}
	}
	return paths, nil
}
