// Package manifest extracts version fields from package and workspace manifests.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
)

var (
	// ErrNotFound reports that a manifest file does not exist.
	ErrNotFound = errors.New("manifest: file not found")
	// ErrUnreadable reports that a manifest exists but could not be read.
	ErrUnreadable = errors.New("manifest: file unreadable")
	// ErrMalformed reports invalid syntax or a version value of the wrong type.
	ErrMalformed = errors.New("manifest: malformed content")
	// ErrMissingField reports that the exact version key path is absent.
	ErrMissingField = errors.New("manifest: required field missing")
)

const (
	// PackageVersionField is the key path read from the package manifest.
	PackageVersionField = "version"
	// WorkspaceVersionField is the key path read from the workspace manifest.
	WorkspaceVersionField = "workspace.package.version"
)

var workspaceVersionPath = []string{"workspace", "package", "version"}

// Reader is the read side of the filesystem used to load manifests.
type Reader interface {
	ReadFile(name string) ([]byte, error)
}

// ReadPackageVersion returns the top-level "version" string of a JSON package manifest.
// Keys are matched exactly; "Version" does not stand in for "version".
func ReadPackageVersion(data []byte) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", fmt.Errorf("%w: package manifest: %w", ErrMalformed, err)
	}

	raw, ok := fields[PackageVersionField]
	if !ok {
		return "", fmt.Errorf("%w: package manifest: %s", ErrMissingField, PackageVersionField)
	}

	var version *string
	if err := json.Unmarshal(raw, &version); err != nil {
		return "", fmt.Errorf("%w: package manifest: %s: %w", ErrMalformed, PackageVersionField, err)
	}
	if version == nil {
		return "", fmt.Errorf("%w: package manifest: %s", ErrMissingField, PackageVersionField)
	}
	return *version, nil
}

// ReadWorkspaceVersion returns workspace.package.version from a TOML workspace manifest.
// Each key on the path is matched exactly.
func ReadWorkspaceVersion(data []byte) (string, error) {
	var doc map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return "", fmt.Errorf("%w: workspace manifest: %w", ErrMalformed, err)
	}

	var node any = doc
	for _, key := range workspaceVersionPath {
		table, ok := node.(map[string]any)
		if !ok {
			return "", fmt.Errorf("%w: workspace manifest: %s", ErrMissingField, WorkspaceVersionField)
		}
		if node, ok = table[key]; !ok {
			return "", fmt.Errorf("%w: workspace manifest: %s", ErrMissingField, WorkspaceVersionField)
		}
	}

	version, ok := node.(string)
	if !ok {
		return "", fmt.Errorf("%w: workspace manifest: %s has type %T, want string", ErrMalformed, WorkspaceVersionField, node)
	}
	return version, nil
}

// LoadPackageVersion reads the package manifest at path and extracts its version.
func LoadPackageVersion(r Reader, path string) (string, error) {
	data, err := load(r, path)
	if err != nil {
		return "", err
	}
	v, err := ReadPackageVersion(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// LoadWorkspaceVersion reads the workspace manifest at path and extracts its shared version.
func LoadWorkspaceVersion(r Reader, path string) (string, error) {
	data, err := load(r, path)
	if err != nil {
		return "", err
	}
	v, err := ReadWorkspaceVersion(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

func load(r Reader, path string) ([]byte, error) {
	data, err := r.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
}
