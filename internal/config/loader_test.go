package config

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewLoader(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		NewLoader("", fstest.MapFS{})
	}, "config name is not set")
}

func TestLoader_ChainConfigs(t *testing.T) {
	t.Parallel()

	t.Run("without root config", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{}
		loader := NewLoader("blocky", fsys, WithLogger(zaptest.NewLogger(t)))
		result, err := loader.FindConfigChain("", TypeYAML)
		require.NoError(t, err)
		require.Nil(t, result)
	})

	fsys := fstest.MapFS{
		"blocky.yaml": {
			Data: []byte("path:blocky.yaml"),
		},
		"nested/blocky.yaml": {
			Data: []byte("path:nested/blocky.yaml"),
		},
		"nested/path/blocky.yaml": {
			Data: []byte("path:nested/path/blocky.yaml"),
		},
		"nested/path/doc.json": {
			Data: []byte("[]"),
		},
		"other/blocky.yaml": {
			Data: []byte("path:other/blocky.yaml"),
		},
		"without/config": {
			Data: []byte("path:without/config"),
			Mode: fs.ModeDir,
		},
	}
	loader := NewLoader("blocky", fsys, WithLogger(zaptest.NewLogger(t)))

	t.Run("root config", func(t *testing.T) {
		result, err := loader.FindConfigChain("", TypeYAML)
		require.NoError(t, err)
		require.Equal(
			t,
			[][]byte{[]byte("path:blocky.yaml")},
			result,
		)
	})

	t.Run("nested deep config", func(t *testing.T) {
		result, err := loader.FindConfigChain("nested/path", TypeYAML)
		require.NoError(t, err)
		require.Equal(
			t,
			[][]byte{
				[]byte("path:blocky.yaml"),
				[]byte("path:nested/blocky.yaml"),
				[]byte("path:nested/path/blocky.yaml"),
			},
			result,
		)
	})

	t.Run("file in nested directory", func(t *testing.T) {
		result, err := loader.FindConfigChain("nested/path/doc.json", TypeYAML)
		require.NoError(t, err)
		require.Len(t, result, 3)
	})

	t.Run("nested without config", func(t *testing.T) {
		result, err := loader.FindConfigChain("without/config", TypeYAML)
		require.NoError(t, err)
		require.Equal(
			t,
			[][]byte{[]byte("path:blocky.yaml")},
			result,
		)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := loader.FindConfigChain("missing", TypeYAML)
		require.Error(t, err)
	})
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := NewLoader("blocky", fstest.MapFS{}).Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("nested overrides", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"blocky.yaml": {
				Data: []byte("version: v1\nformat: trac\nsniffLanguage: true\n"),
			},
			"docs/blocky.yaml": {
				Data: []byte("version: v1\nformat: markdown\n"),
			},
		}
		loader := NewLoader("blocky", fsys, WithLogger(zaptest.NewLogger(t)))

		cfg, err := loader.Load("")
		require.NoError(t, err)
		assert.Equal(t, "trac", cfg.Format)

		cfg, err = loader.Load("docs")
		require.NoError(t, err)
		assert.Equal(t, "markdown", cfg.Format)
		assert.True(t, cfg.SniffLanguage)
	})

	t.Run("toml", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"blocky.toml": {
				Data: []byte("version = \"v1\"\nformat = \"trac\"\n\n[batch]\nconcurrency = 2\npattern = \"*.yaml\"\n"),
			},
		}
		cfg, err := NewLoader("blocky", fsys).Load("")
		require.NoError(t, err)
		assert.Equal(t, "trac", cfg.Format)
		assert.Equal(t, Batch{Concurrency: 2, Pattern: "*.yaml"}, cfg.Batch)
	})

	t.Run("yaml preferred", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"blocky.yaml": {Data: []byte("version: v1\nformat: trac\n")},
			"blocky.toml": {Data: []byte("version = \"v1\"\nformat = \"markdown\"\n")},
		}
		cfg, err := NewLoader("blocky", fsys).Load("")
		require.NoError(t, err)
		assert.Equal(t, "trac", cfg.Format)

		cfg, err = NewLoader("blocky", fsys, WithConfigTypes(TypeTOML)).Load("")
		require.NoError(t, err)
		assert.Equal(t, "markdown", cfg.Format)
	})
}
