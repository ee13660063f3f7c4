package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/launchbynttdata/launch-genversion/internal/manifest"
	"github.com/launchbynttdata/launch-genversion/internal/services/genversion"
)

type workspace struct {
	pkg    string
	cargo  string
	output string
}

func newWorkspace(t *testing.T, pkgJSON, cargoTOML string) workspace {
	t.Helper()
	root := t.TempDir()
	sdk := filepath.Join(root, "sdk", "typescript")
	if err := os.MkdirAll(filepath.Join(sdk, "src"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	ws := workspace{
		pkg:    filepath.Join(sdk, "package.json"),
		cargo:  filepath.Join(root, "Cargo.toml"),
		output: filepath.Join(sdk, "src", "pkg-version.ts"),
	}
	if pkgJSON != "" {
		writeFile(t, ws.pkg, pkgJSON)
	}
	if cargoTOML != "" {
		writeFile(t, ws.cargo, cargoTOML)
	}
	return ws
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func (w workspace) args(extra ...string) []string {
	return append([]string{
		"--package-manifest", w.pkg,
		"--workspace-manifest", w.cargo,
		"--output", w.output,
	}, extra...)
}

func runCommand(t *testing.T, env map[string]string, args []string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(dependencies{
		fs: genversion.NewOSFileSystem(),
		lookup: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
	})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootGeneratesModule(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, `{"version":"1.2.3"}`, "[workspace.package]\nversion = \"4.5.6\"\n")

	stdout, stderr, err := runCommand(t, nil, ws.args())
	if err != nil {
		t.Fatalf("execute: %v (stderr=%s)", err, stderr)
	}

	data, err := os.ReadFile(ws.output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "// Copyright (c) Mysten Labs, Inc.\n// SPDX-License-Identifier: Apache-2.0\n\n" +
		"export const PACKAGE_VERSION = '1.2.3';\nexport const TARGETED_RPC_VERSION = '4.5.6';\n"
	if string(data) != want {
		t.Fatalf("unexpected output:\n%s", data)
	}
	if strings.TrimSpace(stdout) != ws.output {
		t.Fatalf("expected output path on stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "version module updated") {
		t.Fatalf("expected info log on stderr, got %q", stderr)
	}
}

func TestRootMissingPackageManifestLeavesNoOutput(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, "", "[workspace.package]\nversion = \"4.5.6\"\n")

	_, _, err := runCommand(t, nil, ws.args())
	if !errors.Is(err, manifest.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, statErr := os.Stat(ws.output); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file, stat err=%v", statErr)
	}
}

func TestRootEnvOverridesFlags(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, `{"version":"1.2.3"}`, "[workspace.package]\nversion = \"4.5.6\"\n")
	envOut := filepath.Join(filepath.Dir(ws.output), "env-version.ts")

	_, stderr, err := runCommand(t, map[string]string{envOutput: envOut}, ws.args())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := os.Stat(envOut); err != nil {
		t.Fatalf("expected env output to exist: %v", err)
	}
	if _, err := os.Stat(ws.output); !os.IsNotExist(err) {
		t.Fatalf("expected flag output to be ignored")
	}
	if !strings.Contains(stderr, "config: conflict for output") {
		t.Fatalf("expected conflict warning, got %q", stderr)
	}
}

func TestRootHeaderFile(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, `{"version":"1.2.3"}`, "[workspace.package]\nversion = \"4.5.6\"\n")
	header := filepath.Join(t.TempDir(), "HEADER")
	writeFile(t, header, "// SPDX-License-Identifier: MIT\n")

	if _, _, err := runCommand(t, nil, ws.args("--header-file", header)); err != nil {
		t.Fatalf("execute: %v", err)
	}
	data, err := os.ReadFile(ws.output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "// SPDX-License-Identifier: MIT\n\nexport const PACKAGE_VERSION") {
		t.Fatalf("unexpected output:\n%s", data)
	}

	_, _, err = runCommand(t, nil, ws.args("--header-file", header+".missing"))
	if err == nil || !strings.Contains(err.Error(), "reading header file") {
		t.Fatalf("expected header read error, got %v", err)
	}
}

func TestRootStrictSemverFromEnv(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, `{"version":"latest"}`, "[workspace.package]\nversion = \"4.5.6\"\n")

	_, _, err := runCommand(t, map[string]string{envStrictSemver: "true"}, ws.args())
	if !errors.Is(err, genversion.ErrInvalidSemver) {
		t.Fatalf("expected ErrInvalidSemver, got %v", err)
	}

	_, _, err = runCommand(t, map[string]string{envStrictSemver: "sometimes"}, ws.args())
	if err == nil || !strings.Contains(err.Error(), "invalid boolean") {
		t.Fatalf("expected invalid boolean error, got %v", err)
	}
}

func TestRootRejectsArgumentsAndBadLogLevel(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, `{"version":"1.2.3"}`, "[workspace.package]\nversion = \"4.5.6\"\n")

	if _, _, err := runCommand(t, nil, append(ws.args(), "extra")); err == nil {
		t.Fatalf("expected positional arguments to be rejected")
	}
	if _, _, err := runCommand(t, nil, ws.args("--log-level", "loud")); err == nil {
		t.Fatalf("expected unknown log level to fail")
	}
}

func TestRootLogLevelResolvedOnce(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, `{"version":"1.2.3"}`, "[workspace.package]\nversion = \"4.5.6\"\n")

	_, stderr, err := runCommand(t, map[string]string{envLogLevel: "verbose"}, ws.args())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(stderr, "logger configured") || !strings.Contains(stderr, `"verbose"`) {
		t.Fatalf("expected debug line with the resolved level, got %q", stderr)
	}
	if strings.Contains(stderr, "config: resolved log-level") {
		t.Fatalf("expected log-level to be resolved only before the logger exists, got %q", stderr)
	}

	_, stderr, err = runCommand(t, nil, ws.args())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.Contains(stderr, "logger configured") {
		t.Fatalf("expected terse run to omit debug output, got %q", stderr)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCommand(t, nil, []string{"version"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(stdout, "genversion ") {
		t.Fatalf("unexpected version output %q", stdout)
	}
}
