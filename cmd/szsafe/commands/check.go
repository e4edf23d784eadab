package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/szsafe/szsafe-go/pkg/sz"
)

func newCheckCmd(a *app) *cobra.Command {
	var seconds int
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Initialise every module and report repository health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()
			out := cmd.OutOrStdout()

			return a.withEnvironment(ctx, func(env *sz.Environment) error {
				eng, err := env.Engine(ctx)
				if err != nil {
					return err
				}
				if err := eng.PrimeEngine(ctx); err != nil {
					return err
				}
				active, err := eng.ActiveConfigID(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Active config: %d\n", active)

				diag, err := env.Diagnostic(ctx)
				if err != nil {
					return err
				}
				info, err := diag.RepositoryInfo(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Repository: %s\n", info)

				if seconds > 0 {
					a.log.Info("running repository performance check", zap.Int("seconds", seconds))
					perf, err := diag.CheckRepositoryPerformance(ctx, seconds)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Performance: %s\n", perf)
				}

				prod, err := env.Product(ctx)
				if err != nil {
					return err
				}
				license, err := prod.License(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "License: %s\n", license)

				stats, err := eng.GetStats(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Stats: %s\n", stats)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&seconds, "performance", 0, "Also run a repository performance check for this many seconds")
	return cmd
}
