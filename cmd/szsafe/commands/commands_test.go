package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/szsafe/szsafe-go/pkg/sz"
	"github.com/szsafe/szsafe-go/pkg/sz/mocksz"
	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

func execute(t *testing.T, lib *mocksz.Library, args ...string) (string, error) {
	t.Helper()
	a := &app{
		registry: sz.NewRegistry(),
		fake:     func() native.Library { return lib },
	}
	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--fake", "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, mocksz.New(), "version", "--json")
	require.NoError(t, err)
	require.Contains(t, out, `"wrapper": "`+sz.WrapperVersion()+`"`)
	require.Contains(t, out, mocksz.ProductVersion)
	require.NotContains(t, out, "native_error")
}

func TestCheck(t *testing.T) {
	out, err := execute(t, mocksz.New(), "check", "--performance", "1")
	require.NoError(t, err)
	require.Contains(t, out, "Active config: 1")
	require.Contains(t, out, "Performance:")
	require.Contains(t, out, "License:")
}

func TestDataSourceLifecycle(t *testing.T) {
	lib := mocksz.New()

	out, err := execute(t, lib, "datasource", "add", "CUSTOMERS", "WATCHLIST")
	require.NoError(t, err)
	require.Contains(t, out, "Default config: 2")

	out, err = execute(t, lib, "datasource", "list")
	require.NoError(t, err)
	require.Contains(t, out, "CUSTOMERS")
	require.Contains(t, out, "WATCHLIST")

	out, err = execute(t, lib, "config", "list")
	require.NoError(t, err)
	require.Contains(t, out, "Data Sources: CUSTOMERS, SEARCH, TEST, WATCHLIST")
	require.Contains(t, out, "Default config: 2")

	_, err = execute(t, lib, "ds", "remove", "WATCHLIST", "--comment", "drop watchlist")
	require.NoError(t, err)
	require.Equal(t, []string{"CUSTOMERS", "SEARCH", "TEST"}, lib.DataSources())

	_, err = execute(t, lib, "datasource", "add", "TEST")
	require.ErrorIs(t, err, sz.ErrConfiguration)
	require.Equal(t, []string{"CUSTOMERS", "SEARCH", "TEST"}, lib.DataSources())

	_, err = execute(t, lib, "datasource", "add")
	require.Error(t, err)
}

func TestExport(t *testing.T) {
	lib := mocksz.New()
	lib.SetExportChunks("{\"ENTITY_ID\":1}\n", "{\"ENTITY_ID\":2}\n")

	out, err := execute(t, lib, "export")
	require.NoError(t, err)
	require.Equal(t, "{\"ENTITY_ID\":1}\n{\"ENTITY_ID\":2}\n", out)
	require.Equal(t, sz.ExportDefaultFlags.Native(), lib.LastFlags("Engine.ExportJSONEntityReport"))

	path := filepath.Join(t.TempDir(), "entities.csv")
	_, err = execute(t, lib, "export", "--format", "csv", "--flags", "EXPORT_INCLUDE_DISCLOSED", "-o", path)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "{\"ENTITY_ID\":1}\n{\"ENTITY_ID\":2}\n", string(b))
	require.Equal(t, int64(sz.ExportIncludeDisclosed), lib.LastFlags("Engine.ExportCSVEntityReport"))
	require.Zero(t, lib.OpenHandles())

	_, err = execute(t, lib, "export", "--format", "xml")
	require.ErrorContains(t, err, "unknown format")

	_, err = execute(t, lib, "export", "--flags", "NOT_A_FLAG")
	require.ErrorContains(t, err, "NOT_A_FLAG")
}

func TestExportFailureIsReported(t *testing.T) {
	lib := mocksz.New()
	lib.FailNext("Engine.ExportJSONEntityReport", 9000, "license expired")

	_, err := execute(t, lib, "export")
	require.ErrorIs(t, err, sz.ErrLicense)
}

func TestConfigPrecedence(t *testing.T) {
	t.Setenv("SZSAFE_INSTANCE_NAME", "from-env")
	t.Setenv(EnvSettings, `{"PIPELINE":{}}`)

	path := filepath.Join(t.TempDir(), "szsafe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("instance_name: from-file\nlog_level: DEBUG\nconfig_id: 7\n"), 0o600))

	root := newRootCmd(&app{registry: sz.NewRegistry()})
	flags := root.PersistentFlags()
	require.NoError(t, flags.Parse(nil))
	cfg, err := loadConfig(flags, path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.InstanceName)
	require.Equal(t, `{"PIPELINE":{}}`, cfg.Settings)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, int64(7), cfg.ConfigID)

	root = newRootCmd(&app{registry: sz.NewRegistry()})
	flags = root.PersistentFlags()
	require.NoError(t, flags.Parse([]string{"--instance-name", "from-flag", "--settings", `{"A":1}`}))
	cfg, err = loadConfig(flags, path)
	require.NoError(t, err)
	require.Equal(t, "from-flag", cfg.InstanceName)
	require.Equal(t, `{"A":1}`, cfg.Settings)
}

func TestConfigDefaults(t *testing.T) {
	root := newRootCmd(&app{registry: sz.NewRegistry()})
	cfg, err := loadConfig(root.PersistentFlags(), "")
	require.NoError(t, err)
	require.Equal(t, "szsafe", cfg.InstanceName)
	require.Equal(t, "{}", cfg.Settings)
	require.Equal(t, "warn", cfg.LogLevel)
	require.False(t, cfg.Fake)
	require.Positive(t, cfg.Timeout)
}

func TestConfigValidation(t *testing.T) {
	cases := map[string][]string{
		"settings not json": {"--settings", "{"},
		"bad log level":     {"--log-level", "loud"},
		"negative id":       {"--config-id", "-1"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			root := newRootCmd(&app{registry: sz.NewRegistry()})
			flags := root.PersistentFlags()
			require.NoError(t, flags.Parse(args))
			_, err := loadConfig(flags, "")
			require.ErrorContains(t, err, "invalid configuration")
		})
	}

	root := newRootCmd(&app{registry: sz.NewRegistry()})
	_, err := loadConfig(root.PersistentFlags(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to read config file")
}
