// Package model defines the data structures shared by the selection pipeline.
package model

import (
	"path/filepath"
	"strings"
)

// Path represents a file system path.
type Path string

// String returns the raw path.
func (p Path) String() string {
	return string(p)
}

// Ext returns the file extension including the leading dot.
func (p Path) Ext() string {
	return filepath.Ext(string(p))
}

// Base returns the last element of the path.
func (p Path) Base() string {
	return filepath.Base(string(p))
}

// Clean returns the lexically cleaned, slash-separated form of the path.
// Coverage records, diffs and pytest node IDs all use forward slashes.
func (p Path) Clean() Path {
	if p == "" {
		return ""
	}

	return Path(filepath.ToSlash(filepath.Clean(string(p))))
}

// IsAbs reports whether the path is absolute.
func (p Path) IsAbs() bool {
	return filepath.IsAbs(string(p)) || strings.HasPrefix(string(p), "/")
}

// File represents a source file together with its raw content.
type File struct {
	Path    Path
	Content []byte
}
