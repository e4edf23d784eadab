package commands

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/szsafe/szsafe-go/pkg/sz"
)

type versionInfo struct {
	Wrapper      string          `json:"wrapper"`
	BuiltAgainst string          `json:"built_against"`
	GoVersion    string          `json:"go"`
	Platform     string          `json:"platform"`
	Native       json.RawMessage `json:"native,omitempty"`
	NativeError  string          `json:"native_error,omitempty"`
}

func newVersionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show wrapper and native library versions",
		Long: `Display the wrapper version, the native version it was built against and,
when the native library can be loaded, the version actually loaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jsonOutput, _ := cmd.Flags().GetBool("json")
			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			info := versionInfo{
				Wrapper:      sz.WrapperVersion(),
				BuiltAgainst: sz.BuiltAgainst(),
				GoVersion:    runtime.Version(),
				Platform:     runtime.GOOS + "/" + runtime.GOARCH,
			}
			err := a.withEnvironment(ctx, func(env *sz.Environment) error {
				prod, err := env.Product(ctx)
				if err != nil {
					return err
				}
				v, err := prod.Version(ctx)
				if err != nil {
					return err
				}
				info.Native = json.RawMessage(v)
				return nil
			})
			if err != nil {
				info.NativeError = err.Error()
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				b, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("formatting JSON: %w", err)
				}
				fmt.Fprintln(out, string(b))
				return nil
			}
			fmt.Fprintf(out, "szsafe %s (built against %s)\n", info.Wrapper, info.BuiltAgainst)
			fmt.Fprintf(out, "Platform: %s\n", info.Platform)
			fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
			if info.NativeError != "" {
				fmt.Fprintf(out, "Native: unavailable: %s\n", info.NativeError)
			} else {
				fmt.Fprintf(out, "Native: %s\n", info.Native)
			}
			return nil
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output version info as JSON")
	return cmd
}
