package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/szsafe/szsafe-go/pkg/sz"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format    string
		columns   string
		flagNames []string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every resolved entity",
		Long: `Stream the entity report to stdout or a file. JSON output has one entity per
line; CSV output starts with a header row.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			flags := sz.ExportDefaultFlags
			if len(flagNames) > 0 {
				if flags, err = sz.ParseFlags(flagNames...); err != nil {
					return err
				}
			}
			if format != "json" && format != "csv" {
				return fmt.Errorf("unknown format %q: want json or csv", format)
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				w = f
			}
			bw := bufio.NewWriter(w)

			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			var chunks int
			write := func(chunk string) error {
				chunks++
				_, err := bw.WriteString(chunk)
				return err
			}
			err = a.withEnvironment(ctx, func(env *sz.Environment) error {
				eng, err := env.Engine(ctx)
				if err != nil {
					return err
				}
				if format == "csv" {
					return eng.StreamCSVEntityReport(ctx, columns, flags, write)
				}
				return eng.StreamJSONEntityReport(ctx, flags, write)
			})
			if err != nil {
				return err
			}
			a.log.Info("export complete", zap.Int("chunks", chunks), zap.Stringer("flags", flags))
			return bw.Flush()
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or csv")
	cmd.Flags().StringVar(&columns, "columns", "*", "CSV column list")
	cmd.Flags().StringSliceVar(&flagNames, "flags", nil, "Export flag names, e.g. EXPORT_INCLUDE_MULTI_RECORD_ENTITIES")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
