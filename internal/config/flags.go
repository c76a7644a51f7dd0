package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/formdoc/internal/flagx"
)

var knownFlags = []string{"-d", "-w", "-m", "-l", "-s", "-b", "-r", "-e", "-t"}

// parseFlags overlays cfg with command-line flags:
//
//	-d string   database file
//	-w string   workspace folder to grant
//	-m string   storage mode (auto, database, filesystem)
//	-l string   log level
//	-s string   default import conflict strategy
//	-b string   S3 bucket for remote backups
//	-r string   S3 region
//	-e string   S3-compatible endpoint URL
//	-t int      remote timeout in seconds
//
// Other arguments are ignored; a bad value panics.
func parseFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("formdoc", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "database file")
	fs.StringVar(&cfg.WorkspaceDir, "w", cfg.WorkspaceDir, "workspace folder to grant")
	fs.StringVar(&cfg.StorageMode, "m", cfg.StorageMode, "storage mode: auto, database or filesystem")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.ConflictStrategy, "s", cfg.ConflictStrategy, "import conflict strategy: overwrite, rename or skip")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket for remote backups")
	fs.StringVar(&cfg.S3Region, "r", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3Endpoint, "e", cfg.S3Endpoint, "S3-compatible endpoint URL")
	timeout := fs.Int("t", int(cfg.RemoteTimeout.Seconds()), "remote timeout (in seconds)")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RemoteTimeout = time.Duration(*timeout) * time.Second
		}
	})
}
