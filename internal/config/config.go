// Package config loads the TOML configuration of the ptiff tool.
//
// A configuration file has two optional sections:
//
//	[pyramid]
//	tile_size = 512
//	compression = "deflate"
//	deflate_level = 9 # 1 to 9, 0 for the default
//	predictor = true
//	filter = "linear"
//	bigtiff = false
//	workers = 4
//	software = "ptiff"
//	tile_cache = 64
//
//	[logging]
//	logfile = "ptiff.log"
//	max_log_size = 10 # megabytes
//	max_log_age = 7   # days
package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/lumberjack"

	"github.com/mrjoshuak/go-ptiff/compression"
	"github.com/mrjoshuak/go-ptiff/pyramid"
	"github.com/mrjoshuak/go-ptiff/resample"
)

// ErrUnknownKey is returned when a configuration file holds keys that are
// not part of the configuration.
var ErrUnknownKey = errors.New("config: unknown key")

// Config is the full configuration.
type Config struct {
	Pyramid PyramidConfig
	Logging LogConfig
}

// PyramidConfig holds the build settings.
type PyramidConfig struct {
	TileSize     int `toml:"tile_size"`
	Compression  string
	DeflateLevel int `toml:"deflate_level"`
	Predictor    bool
	Filter       string
	BigTIFF      bool `toml:"bigtiff"`
	Workers      int
	Software     string
	TileCache    int `toml:"tile_cache"`
}

// LogConfig selects where log messages go.
type LogConfig struct {
	Logfile string
	MaxSize int `toml:"max_log_size"`
	MaxAge  int `toml:"max_log_age"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Pyramid: PyramidConfig{
			TileSize:    pyramid.DefaultTileSize,
			Compression: "none",
			Filter:      "linear",
			Workers:     1,
			TileCache:   64,
		},
	}
}

// Load reads the configuration file at path over the defaults. An empty
// path returns the defaults. A relative logfile is taken relative to the
// directory of the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s in %s", ErrUnknownKey, strings.Join(keys, ", "), path)
	}

	if c.Logging.Logfile != "" && !filepath.IsAbs(c.Logging.Logfile) {
		c.Logging.Logfile = filepath.Join(filepath.Dir(path), c.Logging.Logfile)
	}
	if _, err := c.Pyramid.Options(); err != nil {
		return nil, err
	}
	return c, nil
}

// Options converts the build settings into pyramid options.
func (c PyramidConfig) Options() (pyramid.Options, error) {
	m, err := compression.ParseMethod(c.Compression)
	if err != nil {
		return pyramid.Options{}, err
	}
	f, err := resample.ParseFilter(c.Filter)
	if err != nil {
		return pyramid.Options{}, err
	}
	if c.TileSize <= 0 || c.TileSize%16 != 0 {
		return pyramid.Options{}, fmt.Errorf("config: tile_size %d is not a positive multiple of 16", c.TileSize)
	}
	level := compression.Level(c.DeflateLevel)
	if !level.Valid() {
		return pyramid.Options{}, fmt.Errorf("%w: deflate_level %d", compression.ErrUnsupported, c.DeflateLevel)
	}
	return pyramid.Options{
		TileSize:     c.TileSize,
		Compression:  m,
		DeflateLevel: level,
		Predictor:    c.Predictor,
		Filter:       f,
		Software:     c.Software,
		BigTIFF:      c.BigTIFF,
		Workers:      c.Workers,
	}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger creates the logger for the tool. With a log file, messages go
// to a rotating file. Otherwise they go to stderr when verbose is set and
// are discarded when not. The returned closer releases the log file.
func (c *LogConfig) NewLogger(verbose bool) (*log.Logger, io.Closer) {
	if c != nil && c.Logfile != "" {
		l := &lumberjack.Logger{
			Filename: c.Logfile,
			MaxSize:  c.MaxSize, // megabytes
			MaxAge:   c.MaxAge,  // days
		}
		return log.New(l, "", log.LstdFlags), l
	}
	if verbose {
		return log.New(os.Stderr, "", log.LstdFlags), nopCloser{}
	}
	return log.New(io.Discard, "", 0), nopCloser{}
}
