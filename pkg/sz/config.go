package sz

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

// Config is an in-memory configuration snapshot. The definition text is only
// replaced once a mutation has been exported back from the native layer and
// its handle closed, so a failed mutation leaves the snapshot untouched.
type Config struct {
	env *Environment

	mu         sync.Mutex
	definition string
}

// ErrEmptyDataSourceCode is returned when a data source code is blank.
var ErrEmptyDataSourceCode = errors.New("sz: data source code must not be empty")

func newConfig(env *Environment, definition string) *Config {
	return &Config{env: env, definition: definition}
}

// Export returns the current configuration definition.
func (c *Config) Export() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.definition
}

func (c *Config) String() string { return c.Export() }

// DataSourceRegistry returns the data source registry document of the
// snapshot.
func (c *Config) DataSourceRegistry(ctx context.Context) (string, error) {
	c.mu.Lock()
	def := c.definition
	c.mu.Unlock()

	return execute(ctx, c.env, "Config.DataSourceRegistry", func() (string, error) {
		cfg, err := c.env.configNative()
		if err != nil {
			return "", err
		}
		return withConfigHandle(c.env, cfg,
			func(n native.Config) (native.Handle, int64) { return n.Load(def) },
			func(n native.Config, h native.Handle) (string, error) {
				return callValue(n, func() (string, int64) { return n.GetDataSourceRegistry(h) })
			},
		)
	})
}

// RegisterDataSource adds a data source to the snapshot and returns the
// native result document.
func (c *Config) RegisterDataSource(ctx context.Context, dataSourceCode string) (string, error) {
	doc, err := dataSourceDocument(dataSourceCode)
	if err != nil {
		return "", err
	}
	return c.mutate(ctx, "Config.RegisterDataSource", func(n native.Config, h native.Handle) (string, error) {
		return callValue(n, func() (string, int64) { return n.RegisterDataSource(h, doc) })
	})
}

// UnregisterDataSource removes a data source from the snapshot and returns
// the native result document.
func (c *Config) UnregisterDataSource(ctx context.Context, dataSourceCode string) (string, error) {
	doc, err := dataSourceDocument(dataSourceCode)
	if err != nil {
		return "", err
	}
	return c.mutate(ctx, "Config.UnregisterDataSource", func(n native.Config, h native.Handle) (string, error) {
		return callValue(n, func() (string, int64) { return n.UnregisterDataSource(h, doc) })
	})
}

// mutate loads the snapshot into a handle, applies fn, exports the result and
// closes the handle. The snapshot is replaced only if all of that succeeded.
func (c *Config) mutate(ctx context.Context, op string, fn func(native.Config, native.Handle) (string, error)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	type outcome struct {
		result     string
		definition string
	}
	def := c.definition
	out, err := execute(ctx, c.env, op, func() (outcome, error) {
		cfg, err := c.env.configNative()
		if err != nil {
			return outcome{}, err
		}
		return withConfigHandle(c.env, cfg,
			func(n native.Config) (native.Handle, int64) { return n.Load(def) },
			func(n native.Config, h native.Handle) (outcome, error) {
				result, err := fn(n, h)
				if err != nil {
					return outcome{}, err
				}
				exported, err := callValue(n, func() (string, int64) { return n.Export(h) })
				if err != nil {
					return outcome{}, err
				}
				return outcome{result: result, definition: exported}, nil
			},
		)
	})
	if err != nil {
		return "", err
	}
	c.definition = out.definition
	return out.result, nil
}

func dataSourceDocument(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrEmptyDataSourceCode
	}
	b, err := json.Marshal(struct {
		Code string `json:"DSRC_CODE"`
	}{Code: code})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
