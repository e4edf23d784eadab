package sz

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

// ConfigManager manages the repository's registry of configurations and the
// default configuration id.
type ConfigManager struct {
	env       *Environment
	native    native.ConfigManager
	destroyed bool
}

// CreateConfig returns a snapshot of the native configuration template.
func (m *ConfigManager) CreateConfig(ctx context.Context) (*Config, error) {
	def, err := execute(ctx, m.env, "ConfigManager.CreateConfig", func() (string, error) {
		cfg, err := m.env.configNative()
		if err != nil {
			return "", err
		}
		return withConfigHandle(m.env, cfg,
			func(n native.Config) (native.Handle, int64) { return n.Create() },
			func(n native.Config, h native.Handle) (string, error) {
				return callValue(n, func() (string, int64) { return n.Export(h) })
			},
		)
	})
	if err != nil {
		return nil, err
	}
	return newConfig(m.env, def), nil
}

// CreateConfigFromDefinition returns a snapshot of definition after checking
// that the native layer can load it.
func (m *ConfigManager) CreateConfigFromDefinition(ctx context.Context, definition string) (*Config, error) {
	err := run(ctx, m.env, "ConfigManager.CreateConfigFromDefinition", func() error {
		cfg, err := m.env.configNative()
		if err != nil {
			return err
		}
		_, err = withConfigHandle(m.env, cfg,
			func(n native.Config) (native.Handle, int64) { return n.Load(definition) },
			func(native.Config, native.Handle) (struct{}, error) { return struct{}{}, nil },
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return newConfig(m.env, definition), nil
}

// CreateConfigFromID returns a snapshot of a registered configuration.
func (m *ConfigManager) CreateConfigFromID(ctx context.Context, configID int64) (*Config, error) {
	def, err := execute(ctx, m.env, "ConfigManager.CreateConfigFromID", func() (string, error) {
		return callValue(m.native, func() (string, int64) { return m.native.GetConfig(configID) })
	})
	if err != nil {
		return nil, err
	}
	return newConfig(m.env, def), nil
}

// ConfigRegistry returns the registry document listing every registered
// configuration with its id, creation time and comment.
func (m *ConfigManager) ConfigRegistry(ctx context.Context) (string, error) {
	return execute(ctx, m.env, "ConfigManager.ConfigRegistry", func() (string, error) {
		return callValue(m.native, m.native.GetConfigRegistry)
	})
}

// DefaultConfigID returns the repository's default configuration id, zero
// when none is set.
func (m *ConfigManager) DefaultConfigID(ctx context.Context) (int64, error) {
	return execute(ctx, m.env, "ConfigManager.DefaultConfigID", func() (int64, error) {
		return callValue(m.native, m.native.GetDefaultConfigID)
	})
}

// RegisterConfig stores definition in the registry and returns its new id.
// An empty comment is replaced by one listing the definition's data sources.
func (m *ConfigManager) RegisterConfig(ctx context.Context, definition, comment string) (int64, error) {
	if comment == "" {
		comment = configComment(definition)
	}
	return execute(ctx, m.env, "ConfigManager.RegisterConfig", func() (int64, error) {
		return m.register(definition, comment)
	})
}

// ReplaceDefaultConfigID moves the default configuration from current to
// next. It fails with a ReplaceConflict error when current is no longer the
// default; see RetryOnReplaceConflict.
func (m *ConfigManager) ReplaceDefaultConfigID(ctx context.Context, current, next int64) error {
	return run(ctx, m.env, "ConfigManager.ReplaceDefaultConfigID", func() error {
		return call(m.native, func() int64 { return m.native.ReplaceDefaultConfigID(current, next) })
	})
}

// SetDefaultConfigID unconditionally makes configID the default.
func (m *ConfigManager) SetDefaultConfigID(ctx context.Context, configID int64) error {
	return run(ctx, m.env, "ConfigManager.SetDefaultConfigID", func() error {
		return call(m.native, func() int64 { return m.native.SetDefaultConfigID(configID) })
	})
}

// SetDefaultConfig registers definition and makes it the default in one
// guarded operation.
func (m *ConfigManager) SetDefaultConfig(ctx context.Context, definition, comment string) (int64, error) {
	if comment == "" {
		comment = configComment(definition)
	}
	return execute(ctx, m.env, "ConfigManager.SetDefaultConfig", func() (int64, error) {
		id, err := m.register(definition, comment)
		if err != nil {
			return 0, err
		}
		return id, call(m.native, func() int64 { return m.native.SetDefaultConfigID(id) })
	})
}

func (m *ConfigManager) register(definition, comment string) (int64, error) {
	return callValue(m.native, func() (int64, int64) { return m.native.RegisterConfig(definition, comment) })
}

// configComment lists the data sources declared by a configuration
// definition, e.g. "Data Sources: CUSTOMERS, WATCHLIST". Definitions that
// cannot be parsed get an empty comment.
func configComment(definition string) string {
	var doc struct {
		Config struct {
			DataSources []struct {
				Code string `json:"DSRC_CODE"`
			} `json:"CFG_DSRC"`
		} `json:"G2_CONFIG"`
	}
	if err := json.Unmarshal([]byte(definition), &doc); err != nil {
		return ""
	}
	codes := make([]string, 0, len(doc.Config.DataSources))
	for _, ds := range doc.Config.DataSources {
		if ds.Code != "" {
			codes = append(codes, ds.Code)
		}
	}
	if len(codes) == 0 {
		return "Data Sources: [none]"
	}
	sort.Strings(codes)
	return "Data Sources: " + strings.Join(codes, ", ")
}
