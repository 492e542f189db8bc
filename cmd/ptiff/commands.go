package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/mrjoshuak/go-ptiff/compression"
	"github.com/mrjoshuak/go-ptiff/ptiffutil"
	"github.com/mrjoshuak/go-ptiff/pyramid"
	"github.com/mrjoshuak/go-ptiff/resample"
	"github.com/mrjoshuak/go-ptiff/tiff"
)

var errTileSpec = errors.New("tile must be given as X,Y,Z or X Y Z")

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Generate a pyramidal version of one or more images",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Required: true,
				Usage:    "source image; repeat for several images",
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Required: true,
				Usage:    "name of the output TIFF file",
			},
			&cli.BoolFlag{
				Name:    "compressed",
				Aliases: []string{"z"},
				Usage:   "activate lossless LZW compression of the tiles, with predictor",
			},
			&cli.StringFlag{
				Name:  "compression",
				Usage: "compression method: none, lzw, deflate or packbits",
			},
			&cli.IntFlag{
				Name:  "tile-size",
				Usage: "edge of the square tiles, a multiple of 16",
			},
			&cli.StringFlag{
				Name:  "filter",
				Usage: "reduction filter: linear or box",
			},
			&cli.BoolFlag{
				Name:  "bigtiff",
				Usage: "write 64-bit offsets",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "number of goroutines compressing tiles",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, closer, err := setup(c)
			if err != nil {
				return err
			}
			defer closer.Close()

			opts, err := cfg.Pyramid.Options()
			if err != nil {
				return err
			}
			if c.Bool("compressed") {
				opts.Compression = compression.LZW
				opts.Predictor = true
			}
			if c.IsSet("compression") {
				if opts.Compression, err = compression.ParseMethod(c.String("compression")); err != nil {
					return err
				}
			}
			if c.IsSet("tile-size") {
				opts.TileSize = c.Int("tile-size")
			}
			if c.IsSet("filter") {
				if opts.Filter, err = resample.ParseFilter(c.String("filter")); err != nil {
					return err
				}
			}
			if c.IsSet("bigtiff") {
				opts.BigTIFF = c.Bool("bigtiff")
			}
			if c.IsSet("workers") {
				opts.Workers = c.Int("workers")
			}
			opts.Logger = logger

			var images []*tiff.Image
			for _, path := range c.StringSlice("input") {
				loaded, err := ptiffutil.LoadImages(path)
				if err != nil {
					return err
				}
				for _, img := range loaded {
					logger.Printf("image size is %dx%d with %d %v channels", img.Width, img.Height, img.Channels, img.Type)
				}
				images = append(images, loaded...)
			}

			output := c.String("output")
			chains, err := pyramid.Create(output, images, opts)
			if err != nil {
				return err
			}

			st, err := os.Stat(output)
			if err != nil {
				return err
			}
			levels := 0
			for _, ch := range chains {
				levels += len(ch.Levels)
			}
			fmt.Fprintf(c.App.Writer, "Wrote %d images in %d levels to %s (%s)\n",
				len(chains), levels, output, humanize.Bytes(uint64(st.Size())))
			return nil
		},
	}
}

// parseTile parses a tile position given as "X,Y,Z", "X Y Z", or as X
// followed by the positional arguments Y and Z (--tile X Y Z).
func parseTile(s string, rest ...string) (x, y, z int, err error) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	parts = append(parts, rest...)
	spec := strings.Join(append([]string{s}, rest...), " ")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: %q", errTileSpec, spec)
	}
	var v [3]int
	for i, p := range parts {
		if v[i], err = strconv.Atoi(p); err != nil {
			return 0, 0, 0, fmt.Errorf("%w: %q", errTileSpec, spec)
		}
	}
	return v[0], v[1], v[2], nil
}

func tileCommand() *cli.Command {
	return &cli.Command{
		Name:  "tile",
		Usage: "Extract one tile of a pyramidal TIFF file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Required: true,
				Usage:    "name of the input TIFF file",
			},
			&cli.IntFlag{
				Name:    "page",
				Aliases: []string{"p"},
				Usage:   "page/directory number",
			},
			&cli.StringFlag{
				Name:     "tile",
				Aliases:  []string{"t"},
				Required: true,
				Usage:    "X,Y,Z position of the tile, X and Y counted in tiles; also X Y Z as the last flag",
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Required: true,
				Usage:    "name of the output TIFF file",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, closer, err := setup(c)
			if err != nil {
				return err
			}
			defer closer.Close()

			x, y, z, err := parseTile(c.String("tile"), c.Args().Slice()...)
			if err != nil {
				return err
			}

			nav, err := pyramid.OpenNavigator(c.String("input"),
				pyramid.WithLogger(logger), pyramid.WithTileCache(cfg.Pyramid.TileCache))
			if err != nil {
				return err
			}
			defer nav.Close()

			img, err := nav.FetchTile(c.Int("page"), z, x, y)
			if err != nil {
				return err
			}
			if err := pyramid.Export(img, c.String("output")); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "tile saved")
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write every level of a pyramidal TIFF file to its own file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Required: true,
				Usage:    "name of the input TIFF file",
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Required: true,
				Usage:    "base directory of the exported files",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "subdirectory name, the input file name without extension by default",
			},
		},
		Action: func(c *cli.Context) error {
			_, logger, closer, err := setup(c)
			if err != nil {
				return err
			}
			defer closer.Close()

			input := c.String("input")
			name := c.String("name")
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
			}

			nav, err := pyramid.OpenNavigator(input, pyramid.WithLogger(logger))
			if err != nil {
				return err
			}
			defer nav.Close()

			paths, err := pyramid.ExportAll(nav, c.String("output"), name)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(c.App.Writer, p)
			}
			return nil
		},
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Describe the images and levels of a pyramidal TIFF file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Required: true,
				Usage:    "name of the input TIFF file",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "print per-channel statistics of every level",
			},
		},
		Action: func(c *cli.Context) error {
			_, _, closer, err := setup(c)
			if err != nil {
				return err
			}
			defer closer.Close()

			input := c.String("input")
			info, err := ptiffutil.GetFileInfo(input)
			if err != nil {
				return err
			}

			w := c.App.Writer
			variant := "classic TIFF"
			if info.BigTIFF {
				variant = "BigTIFF"
			}
			order := "little-endian"
			if info.BigEndian {
				order = "big-endian"
			}
			fmt.Fprintf(w, "%s: %s, %s %s, %d images\n",
				info.Path, humanize.Bytes(uint64(info.FileSize)), variant, order, info.NumImages)

			var nav *pyramid.Navigator
			if c.Bool("stats") {
				if nav, err = pyramid.OpenNavigator(input); err != nil {
					return err
				}
				defer nav.Close()
			}

			for _, img := range info.Images {
				if img.Err != nil {
					fmt.Fprintf(w, "  image %d: %v\n", img.Index, img.Err)
					continue
				}
				fmt.Fprintf(w, "  image %d: %d levels\n", img.Index, len(img.Levels))
				for _, l := range img.Levels {
					fmt.Fprintf(w, "    level %d: %dx%d, %d x %v, %s pixels, %dx%d tiles of %dx%d, %v\n",
						l.Level, l.Width, l.Height, l.Channels, l.Type,
						humanize.Comma(int64(l.Width)*int64(l.Height)),
						l.TilesAcross, l.TilesDown, l.TileWidth, l.TileHeight, l.Compression)
					if nav == nil {
						continue
					}
					data, err := nav.FetchLevel(img.Index, l.Level)
					if err != nil {
						return err
					}
					for ch, s := range ptiffutil.LevelStats(data) {
						fmt.Fprintf(w, "      channel %d: min %g, max %g, mean %.4g, stddev %.4g\n",
							ch, s.Min, s.Max, s.Mean, s.StdDev)
					}
				}
			}

			result, err := ptiffutil.ValidateFile(input)
			if err != nil {
				return err
			}
			for _, warn := range result.Warnings {
				fmt.Fprintf(w, "  warning: %s\n", warn)
			}
			if !result.Valid {
				return fmt.Errorf("%s: %w", input, pyramid.ErrMalformedContainer)
			}
			return nil
		},
	}
}

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:  "compare",
		Usage: "Compare the levels of two pyramidal TIFF files",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Required: true,
				Usage:    "file to compare; give exactly two",
			},
			&cli.Float64Flag{
				Name:  "tolerance",
				Usage: "maximum allowed difference between samples",
			},
			&cli.BoolFlag{
				Name:  "ignore-metadata",
				Usage: "only compare pixel data",
			},
		},
		Action: func(c *cli.Context) error {
			inputs := c.StringSlice("input")
			if len(inputs) != 2 {
				return fmt.Errorf("compare needs two inputs, got %d", len(inputs))
			}

			match, diffs, err := ptiffutil.CompareFiles(inputs[0], inputs[1], ptiffutil.CompareOptions{
				Tolerance:      c.Float64("tolerance"),
				IgnoreMetadata: c.Bool("ignore-metadata"),
			})
			if err != nil {
				return err
			}
			for _, d := range diffs {
				fmt.Fprintln(c.App.Writer, d)
			}
			if !match {
				return fmt.Errorf("%s and %s differ", inputs[0], inputs[1])
			}
			fmt.Fprintln(c.App.Writer, "files match")
			return nil
		},
	}
}
