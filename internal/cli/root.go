package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/launchbynttdata/launch-genversion/internal/config"
	"github.com/launchbynttdata/launch-genversion/internal/domain/pkgversion"
	"github.com/launchbynttdata/launch-genversion/internal/logging"
	"github.com/launchbynttdata/launch-genversion/internal/services/genversion"
	"github.com/launchbynttdata/launch-genversion/internal/version"
)

const (
	envPackageManifest   = "GENVERSION_PACKAGE_MANIFEST"
	envWorkspaceManifest = "GENVERSION_WORKSPACE_MANIFEST"
	envOutput            = "GENVERSION_OUTPUT"
	envHeaderFile        = "GENVERSION_HEADER_FILE"
	envStrictSemver      = "GENVERSION_STRICT_SEMVER"
	envLogLevel          = "GENVERSION_LOG_LEVEL"
)

const (
	flagPackageManifest   = "package-manifest"
	flagWorkspaceManifest = "workspace-manifest"
	flagOutput            = "output"
	flagHeaderFile        = "header-file"
	flagStrictSemver      = "strict-semver"
	flagLogLevel          = "log-level"
)

// Execute runs the CLI root command with the provided context and arguments.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := newRootCommand(dependencies{fs: genversion.NewOSFileSystem(), lookup: os.LookupEnv})
	cmd.SetArgs(args)
	if stdout != nil {
		cmd.SetOut(stdout)
	}
	if stderr != nil {
		cmd.SetErr(stderr)
	}
	return cmd.ExecuteContext(ctx)
}

type dependencies struct {
	fs     genversion.FileSystem
	lookup config.LookupFunc
}

type generateFlagSet struct {
	packageManifest   *stringFlag
	workspaceManifest *stringFlag
	output            *stringFlag
	headerFile        *stringFlag
	strictSemver      *boolFlag
	logLevel          *stringFlag
}

type runtimeConfig struct {
	resolver config.Resolver
	logger   *zap.Logger
}

func newRootCommand(deps dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "genversion",
		Short:         "Generate the SDK version module from package.json and the workspace Cargo.toml",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.Version = version.Version
	cmd.SetVersionTemplate("genversion {{.Version}}\n")

	flags := bindGenerateFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return runGenerate(cmd, deps, flags)
	}

	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "genversion %s\n", version.Summary()); err != nil {
				return fmt.Errorf("writing version info: %w", err)
			}
			return nil
		},
	}
}

func bindGenerateFlags(cmd *cobra.Command) *generateFlagSet {
	fs := cmd.Flags()
	fs.SortFlags = false
	return &generateFlagSet{
		packageManifest:   bindStringFlag(fs, flagPackageManifest, "p", envPackageManifest, genversion.DefaultPackageManifest, "JSON package manifest providing \"version\""),
		workspaceManifest: bindStringFlag(fs, flagWorkspaceManifest, "w", envWorkspaceManifest, genversion.DefaultWorkspaceManifest, "TOML workspace manifest providing workspace.package.version"),
		output:            bindStringFlag(fs, flagOutput, "o", envOutput, genversion.DefaultOutput, "Generated module path, overwritten on every run"),
		headerFile:        bindStringFlag(fs, flagHeaderFile, "", envHeaderFile, "", "File whose content replaces the default license header"),
		strictSemver:      bindBoolFlag(fs, flagStrictSemver, "", envStrictSemver, false, "Fail when either version is not a valid semantic version"),
		logLevel:          bindStringFlag(fs, flagLogLevel, "", envLogLevel, logging.LevelTerse, "Log verbosity (terse or verbose)"),
	}
}

func runGenerate(cmd *cobra.Command, deps dependencies, flags *generateFlagSet) error {
	ctx := cmd.Context()
	runtime, cleanup, err := buildRuntime(cmd, deps, flags)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := flags.resolve(runtime.resolver, deps.fs)
	if err != nil {
		return err
	}

	runtime.logger.Debug("generating version module",
		zap.String("packageManifest", cfg.PackageManifest),
		zap.String("workspaceManifest", cfg.WorkspaceManifest),
		zap.String("output", cfg.Output),
		zap.Bool("strictSemver", cfg.StrictSemver),
	)

	result, err := genversion.NewService(deps.fs).Generate(ctx, cfg)
	if err != nil {
		return err
	}

	log := runtime.logger.With(
		zap.String("output", result.Output),
		zap.String("packageVersion", result.PackageVersion),
		zap.String("targetedRPCVersion", result.TargetedRPCVersion),
	)
	if result.Changed {
		log.Info("version module updated", zap.Int("bytes", result.BytesWritten))
	} else {
		log.Info("version module unchanged")
	}

	if _, err := fmt.Fprintln(cmd.OutOrStdout(), result.Output); err != nil {
		return fmt.Errorf("writing generate result: %w", err)
	}
	return nil
}

func (f *generateFlagSet) resolve(resolver config.Resolver, fsys genversion.FileSystem) (genversion.Config, error) {
	cfg := genversion.Config{
		PackageManifest:   strings.TrimSpace(f.packageManifest.Value(resolver)),
		WorkspaceManifest: strings.TrimSpace(f.workspaceManifest.Value(resolver)),
		Output:            strings.TrimSpace(f.output.Value(resolver)),
		Header:            pkgversion.DefaultHeader,
	}

	if cfg.PackageManifest == "" {
		return genversion.Config{}, fmt.Errorf("%s must not be empty (set %s or --%s)", flagPackageManifest, envPackageManifest, flagPackageManifest)
	}
	if cfg.WorkspaceManifest == "" {
		return genversion.Config{}, fmt.Errorf("%s must not be empty (set %s or --%s)", flagWorkspaceManifest, envWorkspaceManifest, flagWorkspaceManifest)
	}

	strict, err := f.strictSemver.Value(resolver)
	if err != nil {
		return genversion.Config{}, err
	}
	cfg.StrictSemver = strict

	if headerFile := strings.TrimSpace(f.headerFile.Value(resolver)); headerFile != "" {
		data, err := fsys.ReadFile(headerFile)
		if err != nil {
			return genversion.Config{}, fmt.Errorf("reading header file %s: %w", headerFile, err)
		}
		cfg.Header = string(data)
	}

	return cfg, nil
}

func buildRuntime(cmd *cobra.Command, deps dependencies, flags *generateFlagSet) (runtimeConfig, func(), error) {
	nopResolver := config.NewResolver(zap.NewNop()).WithLookup(deps.lookup)
	logLevel := flags.logLevel.Value(nopResolver)

	logger, err := logging.New(logLevel, cmd.ErrOrStderr())
	if err != nil {
		return runtimeConfig{}, nil, fmt.Errorf("configuring logger: %w", err)
	}

	logger.Debug("logger configured", zap.String("level", logLevel))
	resolver := config.NewResolver(logger).WithLookup(deps.lookup)

	cleanup := func() {
		_ = logger.Sync()
	}

	return runtimeConfig{resolver: resolver, logger: logger}, cleanup, nil
}
