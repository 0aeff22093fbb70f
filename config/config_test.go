package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	assert.NoError(t, Defaults().Validate())
}

func TestParseOverlaysDefaults(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.config")
	defer teardown()
	//
	c, err := Parse([]byte(`
history:
  capacity: 100
style:
  classPrefix: pb-
  unit: rem
`))
	require.NoError(t, err)
	assert.Equal(t, 100, c.History.Capacity)
	assert.Equal(t, "pb-", c.Style.ClassPrefix)
	assert.Equal(t, "rem", c.Style.Unit)
	assert.Equal(t, "nanoid", c.IDs.Strategy, "untouched settings keep their defaults")
	assert.Equal(t, 1024, c.Style.TabletWidth)
}

func TestParseEmpty(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), c)
}

func TestParseRejects(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.config")
	defer teardown()
	//
	for _, c := range []struct {
		yaml, msg string
	}{
		{"history:\n  capacity: 0\n", "History.Capacity must be at least 1"},
		{"ids:\n  strategy: counter\n", "IDs.Strategy must be one of"},
		{"style:\n  classPrefix: 9x\n", "not a valid CSS class prefix"},
		{"style:\n  mobileWidth: 2000\n", "Style.MobileWidth must be less than TabletWidth"},
		{"style:\n  colour: red\n", "colour"},
		{"history: [1, 2]\n", "HistoryConfig"},
	} {
		_, err := Parse([]byte(c.yaml))
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("expected ErrInvalid for %q, got %v", c.yaml, err)
			continue
		}
		assert.Contains(t, err.Error(), c.msg)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	c := Defaults()
	c.IDs.Strategy = "sequence"
	data, err := c.Marshal()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "pagedoc.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
