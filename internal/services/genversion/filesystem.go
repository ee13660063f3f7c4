package genversion

import (
	"io/fs"
	"os"
)

// FileSystem describes the file operations the generator depends on.
type FileSystem interface {
	// ReadFile returns the full content of the named file.
	ReadFile(name string) ([]byte, error)

	// WriteFile replaces the named file with data, creating it with perm when absent.
	WriteFile(name string, data []byte, perm fs.FileMode) error
}

// OSFileSystem resolves paths against the process working directory.
type OSFileSystem struct{}

var _ FileSystem = OSFileSystem{}

// NewOSFileSystem returns the FileSystem backed by the operating system.
func NewOSFileSystem() OSFileSystem {
	return OSFileSystem{}
}

// ReadFile reads the named file with os.ReadFile.
func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) // #nosec G304 -- manifest paths are operator supplied
}

// WriteFile writes the named file with os.WriteFile, truncating existing content.
func (OSFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}
