package packs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/formdoc/internal/common"
	"github.com/dmitrijs2005/formdoc/internal/filex"
)

// MaxFileSize bounds pack files read from disk.
const MaxFileSize = common.MaxPayloadSize

// Extension returns the conventional file extension for t.
func Extension(t Type) string {
	switch t {
	case TypeTemplate:
		return ExtTemplate
	case TypeRecords:
		return ExtRecords
	}
	return ExtBackup
}

// FileName returns base with the conventional extension for t appended unless
// base already carries an extension.
func FileName(base string, t Type) string {
	if filepath.Ext(base) != "" {
		return base
	}
	return base + Extension(t)
}

// SafeBaseName turns a template name into something usable as a file name.
func SafeBaseName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "export"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
}

// WriteFile stores an encoded pack atomically.
func WriteFile(path string, data []byte) error {
	if err := filex.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return filex.WriteFileAtomic(path, data)
}

// ReadFile loads a pack file.
func ReadFile(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.Size() > MaxFileSize {
		return nil, fmt.Errorf("%s: %w: file too large", path, ErrInvalidPack)
	}
	return os.ReadFile(path)
}
