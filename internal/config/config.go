package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Storage modes.
const (
	ModeAuto       = "auto"
	ModeDatabase   = "database"
	ModeFilesystem = "filesystem"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds runtime settings for the formdoc CLI.
//
// StorageMode picks the backend: "database" always uses the SQLite file,
// "filesystem" requires a workspace folder, and "auto" uses a previously
// granted workspace when it is still writable and falls back to the database
// otherwise. WorkspaceDir, when set, is granted on start-up.
type Config struct {
	DatabasePath     string
	WorkspaceDir     string
	StorageMode      string
	LogLevel         string
	ConflictStrategy string
	HistoryFile      string

	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	RemoteTimeout time.Duration
	// BackupPassphrase, when set, encrypts pushed backups. It is only read
	// from the config file.
	BackupPassphrase string
}

// DataDir is where formdoc keeps its database and REPL history by default.
func DataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "formdoc")
	}
	return ".formdoc"
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	dir := DataDir()
	c.DatabasePath = filepath.Join(dir, "formdoc.db")
	c.WorkspaceDir = ""
	c.StorageMode = ModeAuto
	c.LogLevel = "warn"
	c.ConflictStrategy = "rename"
	c.HistoryFile = filepath.Join(dir, "history")
	c.S3Region = "us-east-1"
	c.RemoteTimeout = 30 * time.Second
}

// Validate rejects values no component can act on.
func (c *Config) Validate() error {
	switch c.StorageMode {
	case ModeAuto, ModeDatabase, ModeFilesystem:
	default:
		return fmt.Errorf("%w: storage mode %q", ErrInvalidConfig, c.StorageMode)
	}
	switch c.ConflictStrategy {
	case "overwrite", "rename", "skip":
	default:
		return fmt.Errorf("%w: conflict strategy %q", ErrInvalidConfig, c.ConflictStrategy)
	}
	// the workspace grant itself is remembered in the database
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database path is empty", ErrInvalidConfig)
	}
	if c.RemoteTimeout < 0 {
		return fmt.Errorf("%w: negative remote timeout", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig builds a Config from defaults, then the optional config file
// named by -c/-config, then command-line flags. Later sources win. Malformed
// files or flags panic, as does a configuration that fails Validate.
func LoadConfig() *Config {
	return load(os.Args[1:])
}

func load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg, args)
	parseFlags(cfg, args)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}
