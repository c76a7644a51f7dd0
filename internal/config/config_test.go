package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, filepath.Join(DataDir(), "formdoc.db"), c.DatabasePath)
	assert.Equal(t, ModeAuto, c.StorageMode)
	assert.Equal(t, "rename", c.ConflictStrategy)
	assert.Equal(t, 30*time.Second, c.RemoteTimeout)
	assert.Empty(t, c.S3Bucket)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_UsesOSArgs(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = []string{"formdoc", "-m", "database"}

	cfg := LoadConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, ModeDatabase, cfg.StorageMode)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempFile(t, "formdoc.json", `{"storage_mode": "filesystem", "s3_bucket": "from-file"}`)

	cfg := load([]string{"-c", path, "-b", "from-flag"})
	assert.Equal(t, ModeFilesystem, cfg.StorageMode, "file overrides default")
	assert.Equal(t, "from-flag", cfg.S3Bucket, "flag overrides file")
	assert.Equal(t, "us-east-1", cfg.S3Region, "default survives")
}

func TestLoad_InvalidPanics(t *testing.T) {
	require.Panics(t, func() { load([]string{"-m", "cloud"}) })
	require.Panics(t, func() { load([]string{"-s", "merge"}) })
	require.Panics(t, func() { load([]string{"-d", ""}) })
}

func TestValidate(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.RemoteTimeout = -time.Second
	require.ErrorIs(t, c.Validate(), ErrInvalidConfig)
}
