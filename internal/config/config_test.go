package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "arcalts.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
archive: data/stages.arcz
max_alts: 12
online: true
log:
  level: debug
metrics:
  addr: ":9000"
`), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "data/stages.arcz", cfg.Archive)
	assert.Equal(t, 12, cfg.MaxAlts)
	assert.True(t, cfg.Online)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, ":9000", cfg.Metrics.Addr)
	assert.True(t, cfg.Metrics.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("ARCALTS_ARCHIVE", "env.arcz")
	t.Setenv("ARCALTS_MAX_ALTS", "5")
	t.Setenv("ARCALTS_SEED", "42")
	t.Setenv("ARCALTS_ONLINE", "not-a-bool")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env.arcz", cfg.Archive)
	assert.Equal(t, 5, cfg.MaxAlts)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.False(t, cfg.Online)
}

func TestLoad_BadYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("max_alts: [\n"), 0o644))
	_, err := Load(p)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"ok", func(c *Config) {}, nil},
		{"no archive", func(c *Config) { c.Archive = "" }, ErrNoArchive},
		{"zero alts", func(c *Config) { c.MaxAlts = 0 }, ErrBadMaxAlts},
		{"too many alts", func(c *Config) { c.MaxAlts = 100 }, ErrBadMaxAlts},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, ErrBadLogLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Archive = "a.arcz"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
