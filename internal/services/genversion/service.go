package genversion

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/launchbynttdata/launch-genversion/internal/domain/pkgversion"
	"github.com/launchbynttdata/launch-genversion/internal/manifest"
)

const (
	// DefaultPackageManifest is the JSON manifest read relative to the working directory.
	DefaultPackageManifest = "./package.json"
	// DefaultWorkspaceManifest is the Cargo workspace manifest two levels up.
	DefaultWorkspaceManifest = "../../Cargo.toml"
	// DefaultOutput is the generated module path.
	DefaultOutput = "src/pkg-version.ts"

	outputPerm = 0o644
)

var (
	// ErrNilFileSystem is returned when the Service was built without a FileSystem.
	ErrNilFileSystem = errors.New("genversion service: nil filesystem")
	// ErrEmptyOutput is returned when no output path is configured.
	ErrEmptyOutput = errors.New("genversion service: empty output path")
	// ErrInvalidSemver is returned in strict mode when a version fails semver parsing.
	ErrInvalidSemver = errors.New("genversion service: version is not valid semver")
)

// Config captures the inputs of a single generation run.
type Config struct {
	PackageManifest   string
	WorkspaceManifest string
	Output            string
	Header            string
	StrictSemver      bool
}

// DefaultConfig returns the layout used by the TypeScript SDK build.
func DefaultConfig() Config {
	return Config{
		PackageManifest:   DefaultPackageManifest,
		WorkspaceManifest: DefaultWorkspaceManifest,
		Output:            DefaultOutput,
		Header:            pkgversion.DefaultHeader,
	}
}

// Result summarizes what a run wrote.
type Result struct {
	PackageVersion     string
	TargetedRPCVersion string
	Output             string
	BytesWritten       int
	Changed            bool
}

// Service generates the version module from the two manifests.
type Service struct {
	fs FileSystem
}

// NewService constructs a Service instance.
func NewService(fs FileSystem) Service {
	return Service{fs: fs}
}

// Generate reads both manifests and overwrites the output file. Nothing is
// written unless both versions were extracted.
func (s Service) Generate(ctx context.Context, cfg Config) (Result, error) {
	if s.fs == nil {
		return Result{}, ErrNilFileSystem
	}

	output := cfg.Output
	if output == "" {
		return Result{}, ErrEmptyOutput
	}

	mod, err := s.readVersions(ctx, cfg)
	if err != nil {
		return Result{}, err
	}

	if cfg.StrictSemver {
		if err := pkgversion.CheckSemver(mod.PackageVersion); err != nil {
			return Result{}, fmt.Errorf("%w: package version: %w", ErrInvalidSemver, err)
		}
		if err := pkgversion.CheckSemver(mod.TargetedRPCVersion); err != nil {
			return Result{}, fmt.Errorf("%w: workspace version: %w", ErrInvalidSemver, err)
		}
	}

	content, err := mod.Render(cfg.Header)
	if err != nil {
		return Result{}, err
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	previous, readErr := s.fs.ReadFile(output)
	changed := readErr != nil || !bytes.Equal(previous, content)

	if err := s.fs.WriteFile(output, content, outputPerm); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", output, err)
	}

	return Result{
		PackageVersion:     mod.PackageVersion,
		TargetedRPCVersion: mod.TargetedRPCVersion,
		Output:             output,
		BytesWritten:       len(content),
		Changed:            changed,
	}, nil
}

func (s Service) readVersions(ctx context.Context, cfg Config) (pkgversion.Module, error) {
	var mod pkgversion.Module
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := gCtx.Err(); err != nil {
			return err
		}
		v, err := manifest.LoadPackageVersion(s.fs, cfg.PackageManifest)
		if err != nil {
			return fmt.Errorf("reading package version: %w", err)
		}
		mod.PackageVersion = v
		return nil
	})

	g.Go(func() error {
		if err := gCtx.Err(); err != nil {
			return err
		}
		v, err := manifest.LoadWorkspaceVersion(s.fs, cfg.WorkspaceManifest)
		if err != nil {
			return fmt.Errorf("reading workspace version: %w", err)
		}
		mod.TargetedRPCVersion = v
		return nil
	})

	if err := g.Wait(); err != nil {
		return pkgversion.Module{}, err
	}
	return mod, nil
}
