package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Prefixes that mark a module id as synthetic rather than a file on disk
const (
	VirtualPrefix  = "virtual:"
	RolldownPrefix = "rolldown:"
	NullBytePrefix = "\x00"
)

// ErrEmptyModuleID is returned when a module id is built from an empty path
var ErrEmptyModuleID = errors.New("module id path must not be empty")

// ErrInvalidModuleID is returned for paths that are not valid UTF-8.
// Ids are stored as text by the persistent backend and must round-trip unchanged.
var ErrInvalidModuleID = errors.New("module id path must be valid UTF-8")

// ModuleID identifies a module in the graph.
// The zero value is not a valid id. ModuleID is comparable and can be used as a map key.
type ModuleID struct {
	path    string
	virtual bool
}

// NewModuleID builds a canonical id for a filesystem path.
// Relative paths are made absolute against the working directory, the result is
// cleaned, and symlinks are resolved when the file exists. Paths carrying a
// virtual prefix are delegated to NewVirtualModuleID.
func NewModuleID(path string) (ModuleID, error) {
	if path == "" {
		return ModuleID{}, ErrEmptyModuleID
	}
	if !utf8.ValidString(path) {
		return ModuleID{}, fmt.Errorf("%w: %q", ErrInvalidModuleID, path)
	}
	if isVirtualPath(path) {
		return NewVirtualModuleID(path), nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return ModuleID{}, fmt.Errorf("failed to resolve module path %s: %w", path, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	switch {
	case err == nil:
		abs = resolved
	case errors.Is(err, fs.ErrNotExist):
		// not on disk (yet); the cleaned absolute path is canonical
	default:
		return ModuleID{}, fmt.Errorf("failed to canonicalize module path %s: %w", path, err)
	}

	return ModuleID{path: filepath.Clean(abs)}, nil
}

// MustModuleID is like NewModuleID but panics on error. Intended for tests and constants.
func MustModuleID(path string) ModuleID {
	id, err := NewModuleID(path)
	if err != nil {
		panic(err)
	}
	return id
}

// NewVirtualModuleID builds an id for a synthetic module.
// The virtual: prefix is added unless the name already carries a virtual prefix.
// Invalid UTF-8 in name is replaced with U+FFFD.
func NewVirtualModuleID(name string) ModuleID {
	name = strings.ToValidUTF8(name, "\uFFFD")
	if !isVirtualPath(name) {
		name = VirtualPrefix + name
	}
	return ModuleID{path: name, virtual: true}
}

// ParseModuleID restores an id from its String form without touching the filesystem
func ParseModuleID(s string) (ModuleID, error) {
	if s == "" {
		return ModuleID{}, ErrEmptyModuleID
	}
	if !utf8.ValidString(s) {
		return ModuleID{}, fmt.Errorf("%w: %q", ErrInvalidModuleID, s)
	}
	if isVirtualPath(s) {
		return ModuleID{path: s, virtual: true}, nil
	}
	return ModuleID{path: s}, nil
}

// String returns the id's path form
func (id ModuleID) String() string {
	return id.path
}

// Path returns the filesystem path, or the virtual name for synthetic modules
func (id ModuleID) Path() string {
	return id.path
}

// IsVirtual reports whether the id names a synthetic module
func (id ModuleID) IsVirtual() bool {
	return id.virtual
}

// IsZero reports whether the id is the zero value
func (id ModuleID) IsZero() bool {
	return id.path == ""
}

// Base returns the last element of the id's path
func (id ModuleID) Base() string {
	if id.virtual {
		return id.path
	}
	return filepath.Base(id.path)
}

// MarshalJSON encodes the id as a JSON string
func (id ModuleID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.path)
}

// UnmarshalJSON decodes an id previously encoded by MarshalJSON
func (id *ModuleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseModuleID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalText lets ModuleID be used as a JSON object key
func (id ModuleID) MarshalText() ([]byte, error) {
	return []byte(id.path), nil
}

// UnmarshalText is the inverse of MarshalText
func (id *ModuleID) UnmarshalText(text []byte) error {
	parsed, err := ParseModuleID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// CompareModuleIDs orders ids by their string form
func CompareModuleIDs(a, b ModuleID) int {
	return strings.Compare(a.path, b.path)
}

func isVirtualPath(path string) bool {
	return strings.HasPrefix(path, VirtualPrefix) ||
		strings.HasPrefix(path, RolldownPrefix) ||
		strings.HasPrefix(path, NullBytePrefix)
}

// fileExists is shared by the manifest loader
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
