package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/szsafe/szsafe-go/pkg/sz"
)

func newDataSourceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasource",
		Aliases: []string{"ds"},
		Short:   "Manage the data sources of the default configuration",
	}
	cmd.AddCommand(
		newDataSourceListCmd(a),
		newDataSourceChangeCmd(a, "add", "Register data sources and make the result the default configuration",
			func(ctx context.Context, cfg *sz.Config, code string) error {
				_, err := cfg.RegisterDataSource(ctx, code)
				return err
			}),
		newDataSourceChangeCmd(a, "remove", "Unregister data sources and make the result the default configuration",
			func(ctx context.Context, cfg *sz.Config, code string) error {
				_, err := cfg.UnregisterDataSource(ctx, code)
				return err
			}),
	)
	return cmd
}

func newDataSourceListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the data source registry of the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()
			return a.withEnvironment(ctx, func(env *sz.Environment) error {
				cm, err := env.ConfigManager(ctx)
				if err != nil {
					return err
				}
				id, err := cm.DefaultConfigID(ctx)
				if err != nil {
					return err
				}
				cfg, err := cm.CreateConfigFromID(ctx, id)
				if err != nil {
					return err
				}
				registry, err := cfg.DataSourceRegistry(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), registry)
				return nil
			})
		},
	}
}

func newDataSourceChangeCmd(a *app, use, short string, apply func(context.Context, *sz.Config, string) error) *cobra.Command {
	var (
		comment  string
		attempts uint
	)
	cmd := &cobra.Command{
		Use:   use + " CODE...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, codes []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()
			return a.withEnvironment(ctx, func(env *sz.Environment) error {
				cm, err := env.ConfigManager(ctx)
				if err != nil {
					return err
				}
				policy := sz.ReplacePolicy{
					MaxAttempts: attempts,
					OnConflict: func(err error, delay time.Duration) {
						a.log.Warn("default configuration changed concurrently, retrying",
							zap.Duration("delay", delay), zap.Error(err))
					},
				}
				id, err := cm.UpdateDefaultConfig(ctx, policy, comment, func(ctx context.Context, cfg *sz.Config) error {
					for _, code := range codes {
						if err := apply(ctx, cfg, code); err != nil {
							return fmt.Errorf("%s %s: %w", use, code, err)
						}
					}
					return nil
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Default config: %d\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "Registry comment (defaults to the data source list)")
	cmd.Flags().UintVar(&attempts, "attempts", 5, "Maximum attempts when the default configuration changes concurrently")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration registry",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every registered configuration and the default id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()
			return a.withEnvironment(ctx, func(env *sz.Environment) error {
				cm, err := env.ConfigManager(ctx)
				if err != nil {
					return err
				}
				registry, err := cm.ConfigRegistry(ctx)
				if err != nil {
					return err
				}
				id, err := cm.DefaultConfigID(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, registry)
				fmt.Fprintf(out, "Default config: %d\n", id)
				return nil
			})
		},
	})
	return cmd
}
