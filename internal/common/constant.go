// Package common contains shared constants and sentinel errors used across
// formdoc components.
package common

// AppName is stamped into full backups so a file can be traced back to the
// tool that produced it.
const AppName = "formdoc"

// FormatVersion is the envelope version written into every pack and backup.
const FormatVersion = "1.0"

// MaxPayloadSize bounds any pack or backup read from disk or the network.
const MaxPayloadSize = 256 << 20
