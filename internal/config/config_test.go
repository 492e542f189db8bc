package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrjoshuak/go-ptiff/compression"
	"github.com/mrjoshuak/go-ptiff/pyramid"
	"github.com/mrjoshuak/go-ptiff/resample"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ptiff.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	opts, err := c.Pyramid.Options()
	require.NoError(t, err)
	assert.Equal(t, pyramid.DefaultTileSize, opts.TileSize)
	assert.Equal(t, compression.None, opts.Compression)
	assert.Equal(t, resample.FilterLinear, opts.Filter)
	assert.Equal(t, compression.LevelDefault, opts.DeflateLevel)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[pyramid]
tile_size = 512
compression = "deflate"
deflate_level = 9
predictor = true
filter = "box"
bigtiff = true
workers = 4
software = "scanner"

[logging]
logfile = "logs/ptiff.log"
max_log_size = 10
max_log_age = 7
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 512, c.Pyramid.TileSize)
	assert.True(t, c.Pyramid.BigTIFF)
	assert.Equal(t, 64, c.Pyramid.TileCache, "unset keys keep their default")
	assert.Equal(t, filepath.Join(filepath.Dir(path), "logs", "ptiff.log"), c.Logging.Logfile)
	assert.Equal(t, 10, c.Logging.MaxSize)
	assert.Equal(t, 7, c.Logging.MaxAge)

	opts, err := c.Pyramid.Options()
	require.NoError(t, err)
	assert.Equal(t, pyramid.Options{
		TileSize:     512,
		Compression:  compression.Deflate,
		DeflateLevel: compression.LevelBestSize,
		Predictor:    true,
		Filter:       resample.FilterBox,
		Software:     "scanner",
		BigTIFF:      true,
		Workers:      4,
	}, opts)
}

func TestLoadAbsoluteLogfile(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "abs.log")
	c, err := Load(writeConfig(t, "[logging]\nlogfile = \""+filepath.ToSlash(abs)+"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(abs), filepath.ToSlash(c.Logging.Logfile))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"unknown key", "[pyramid]\ntile_sise = 256\n", ErrUnknownKey},
		{"unknown compression", "[pyramid]\ncompression = \"jpeg\"\n", compression.ErrUnsupported},
		{"bad deflate level", "[pyramid]\ndeflate_level = 12\n", compression.ErrUnsupported},
		{"bad filter", "[pyramid]\nfilter = \"cubic\"\n", nil},
		{"bad tile size", "[pyramid]\ntile_size = 100\n", nil},
		{"syntax", "[pyramid\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Run("discard", func(t *testing.T) {
		l, closer := (&LogConfig{}).NewLogger(false)
		assert.Equal(t, io.Discard, l.Writer())
		assert.NoError(t, closer.Close())
	})

	t.Run("verbose", func(t *testing.T) {
		var c *LogConfig
		l, closer := c.NewLogger(true)
		assert.Equal(t, os.Stderr, l.Writer())
		assert.NoError(t, closer.Close())
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ptiff.log")
		l, closer := (&LogConfig{Logfile: path, MaxSize: 1}).NewLogger(false)
		l.Printf("computing level %d", 1)
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "computing level 1")
	})
}
