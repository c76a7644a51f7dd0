package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/formdoc/internal/flagx"
	"github.com/dmitrijs2005/formdoc/internal/timex"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of a config file. Durations go through
// timex.Duration so "30s" and integer nanoseconds are both accepted.
type FileConfig struct {
	DatabasePath     string         `json:"database_path" yaml:"database_path"`
	WorkspaceDir     string         `json:"workspace_dir" yaml:"workspace_dir"`
	StorageMode      string         `json:"storage_mode" yaml:"storage_mode"`
	LogLevel         string         `json:"log_level" yaml:"log_level"`
	ConflictStrategy string         `json:"conflict_strategy" yaml:"conflict_strategy"`
	HistoryFile      string         `json:"history_file" yaml:"history_file"`
	S3Bucket         string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region         string         `json:"s3_region" yaml:"s3_region"`
	S3Endpoint       string         `json:"s3_endpoint" yaml:"s3_endpoint"`
	S3AccessKey      string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey      string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	RemoteTimeout    timex.Duration `json:"remote_timeout" yaml:"remote_timeout"`
	BackupPassphrase string         `json:"backup_passphrase" yaml:"backup_passphrase"`
}

// parseFile overlays cfg with the file named by -c/-config in args. Keys the
// file leaves out keep their current value. Read or decode errors panic.
func parseFile(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	fc, err := decodeFile(path, data)
	if err != nil {
		panic(fmt.Errorf("config %s: %w", path, err))
	}
	fc.apply(cfg)
}

// decodeFile picks YAML for .yaml/.yml files and JSON (comments and trailing
// commas allowed) for everything else. Unknown keys are errors.
func decodeFile(path string, data []byte) (*FileConfig, error) {
	var fc FileConfig

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(std))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fc); err != nil {
			return nil, err
		}
	}
	return &fc, nil
}

func (fc *FileConfig) apply(cfg *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.DatabasePath, fc.DatabasePath)
	set(&cfg.WorkspaceDir, fc.WorkspaceDir)
	set(&cfg.StorageMode, fc.StorageMode)
	set(&cfg.LogLevel, fc.LogLevel)
	set(&cfg.ConflictStrategy, fc.ConflictStrategy)
	set(&cfg.HistoryFile, fc.HistoryFile)
	set(&cfg.S3Bucket, fc.S3Bucket)
	set(&cfg.S3Region, fc.S3Region)
	set(&cfg.S3Endpoint, fc.S3Endpoint)
	set(&cfg.S3AccessKey, fc.S3AccessKey)
	set(&cfg.S3SecretKey, fc.S3SecretKey)
	set(&cfg.BackupPassphrase, fc.BackupPassphrase)
	if fc.RemoteTimeout.Duration != 0 {
		cfg.RemoteTimeout = fc.RemoteTimeout.Duration
	}
}
