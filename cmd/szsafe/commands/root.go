package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/szsafe/szsafe-go/pkg/sz"
	"github.com/szsafe/szsafe-go/pkg/sz/logging"
	"github.com/szsafe/szsafe-go/pkg/sz/mocksz"
	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

// app carries what every subcommand needs once flags have been parsed.
type app struct {
	configFile string
	cfg        *Config
	log        *zap.Logger

	registry *sz.Registry
	fake     func() native.Library
}

// NewRootCmd builds the szsafe command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{
		registry: sz.DefaultRegistry,
		fake:     func() native.Library { return mocksz.New() },
	})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "szsafe",
		Short: "szsafe - lifecycle-safe entity resolution tooling",
		Long: `szsafe drives the entity-resolution native library through the
lifecycle-safe sz wrapper.

Configuration is read from flags, SZSAFE_* environment variables and an
optional yaml or toml file, in that order of precedence. The settings
document may also come from ` + EnvSettings + `.

Examples:
  szsafe version                      # Show wrapper and native versions
  szsafe check --fake                 # Exercise every module against the fake
  szsafe datasource add CUSTOMERS     # Register a data source
  szsafe export --format csv -o out   # Export every entity as CSV`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags(), a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log, err = newLogger(cfg.LogLevel)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "Path to a yaml or toml config file")
	pf.String("instance-name", "szsafe", "Instance name reported to the native library")
	pf.String("settings", "{}", "Native settings document (JSON)")
	pf.Bool("verbose", false, "Enable native verbose logging")
	pf.Int64("config-id", 0, "Initialise with this configuration id instead of the default")
	pf.String("library", "", "Path to the native shared library")
	pf.Bool("fake", false, "Use the in-memory fake instead of the native library")
	pf.String("log-level", "warn", "Log level: debug, info, warn or error")
	pf.Duration("timeout", 0, "Overall deadline for the command (0 uses the configured default)")

	root.AddCommand(
		newVersionCmd(a),
		newCheckCmd(a),
		newExportCmd(a),
		newDataSourceCmd(a),
		newConfigCmd(a),
	)
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	zc.Encoding = "console"
	zc.DisableStacktrace = true
	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// commandContext returns the command context bounded by the configured timeout.
func (a *app) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, a.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (a *app) envOptions() sz.EnvOptions {
	opts := sz.EnvOptions{
		InstanceName:   a.cfg.InstanceName,
		Settings:       a.cfg.Settings,
		VerboseLogging: a.cfg.Verbose,
		LibraryPath:    a.cfg.Library,
		Logger:         logging.NewZap(a.log),
	}
	if a.cfg.ConfigID != 0 {
		id := a.cfg.ConfigID
		opts.ConfigID = &id
	}
	if a.cfg.Fake {
		opts.Library = a.fake()
	}
	return opts
}

// withEnvironment builds an environment, runs fn and destroys it. A destroy
// failure is reported only when fn succeeded.
func (a *app) withEnvironment(ctx context.Context, fn func(env *sz.Environment) error) (err error) {
	env, err := a.registry.Build(ctx, a.envOptions())
	if err != nil {
		if errors.Is(err, sz.ErrNotBuilt) {
			return fmt.Errorf("native library unavailable (try --fake): %w", err)
		}
		return err
	}
	a.log.Debug("environment built", zap.String("env_id", env.ID()))
	defer func() {
		if derr := env.Destroy(); derr != nil {
			if err == nil {
				err = derr
				return
			}
			a.log.Warn("destroy failed after earlier failure", zap.Error(derr))
		}
	}()
	return fn(env)
}
