package modfile

import (
	"errors"
	"os"
)

// SplitConfig holds configuration for splitting a stream into per-record files
type SplitConfig struct {
	Directory string      // Output directory, created if missing
	Prefix    string      // Files are named <Prefix>-<index>, index from 1
	Atomic    bool        // Stage output and only publish it if every record succeeds
	FileMode  os.FileMode // Mode for created files (0 = 0644)
}

// Errors
var (
	ErrAddressOutOfRange = errors.New("record address outside image")
	ErrEmptyPrefix       = errors.New("split prefix must not be empty")
)

const defaultFileMode os.FileMode = 0644

func (c SplitConfig) fileMode() os.FileMode {
	if c.FileMode == 0 {
		return defaultFileMode
	}
	return c.FileMode
}
