// Package pkgversion renders the TypeScript module exporting the SDK and RPC versions.
package pkgversion

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	semver "github.com/blang/semver/v4"
)

// DefaultHeader is the license banner written ahead of the generated constants.
const DefaultHeader = "// Copyright (c) Mysten Labs, Inc.\n// SPDX-License-Identifier: Apache-2.0\n\n"

// ErrEmptyVersion is returned by CheckSemver for an empty version string.
var ErrEmptyVersion = errors.New("pkgversion: empty version")

var moduleTemplate = template.Must(template.New("pkg-version").Parse(
	`{{.Header}}export const PACKAGE_VERSION = '{{.PackageVersion}}';
export const TARGETED_RPC_VERSION = '{{.TargetedRPCVersion}}';
`))

// Module holds the two versions exported by the generated source file.
type Module struct {
	PackageVersion     string
	TargetedRPCVersion string
}

// Render produces the generated module. Versions are emitted verbatim.
func (m Module) Render(header string) ([]byte, error) {
	var buf bytes.Buffer
	err := moduleTemplate.Execute(&buf, struct {
		Header             string
		PackageVersion     string
		TargetedRPCVersion string
	}{
		Header:             NormalizeHeader(header),
		PackageVersion:     m.PackageVersion,
		TargetedRPCVersion: m.TargetedRPCVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering version module: %w", err)
	}
	return buf.Bytes(), nil
}

// NormalizeHeader makes a header end with exactly one blank line. Blank headers render as nothing.
func NormalizeHeader(header string) string {
	trimmed := strings.TrimRight(header, "\r\n")
	if strings.TrimSpace(trimmed) == "" {
		return ""
	}
	return trimmed + "\n\n"
}

// CheckSemver reports whether value is a strict semantic version, allowing a leading "v".
func CheckSemver(value string) error {
	if value == "" {
		return ErrEmptyVersion
	}
	if _, err := semver.Parse(strings.TrimPrefix(value, "v")); err != nil {
		return fmt.Errorf("parsing %q as semver: %w", value, err)
	}
	return nil
}
