// Package config loads runtime configuration for the formdoc CLI.
//
// Sources, lowest precedence first:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. An optional file named by -c or -config. Files ending in .yaml or
//     .yml are YAML; anything else is JSON, where comments and trailing
//     commas are tolerated.
//  3. Command-line flags (see parseFlags).
//
// Example JSON:
//
//	{
//	  // keep everything in a synced folder
//	  "storage_mode": "filesystem",
//	  "workspace_dir": "/home/me/Documents/forms",
//	  "s3_bucket": "formdoc-backups",
//	  "remote_timeout": "45s",
//	}
//
// Environment variables are not read here; the AWS SDK still honours its
// own (AWS_PROFILE, AWS_ACCESS_KEY_ID, ...) when no keys are configured.
package config
