package sz

import (
	"context"

	crdb "github.com/cockroachdb/errors"

	"github.com/szsafe/szsafe-go/pkg/sz/logging"
	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

// Capability modules are built lazily on first access and cached for the
// lifetime of the environment. Construction happens under the environment
// monitor inside a guarded operation, so concurrent first accesses build a
// module once. Modules are destroyed only by Environment.Destroy.

// Engine returns the engine module, initialising it on first use.
func (e *Environment) Engine(ctx context.Context) (*Engine, error) {
	return execute(ctx, e, "Engine", e.engineModule)
}

// Diagnostic returns the diagnostic module, initialising it on first use.
func (e *Environment) Diagnostic(ctx context.Context) (*Diagnostic, error) {
	return execute(ctx, e, "Diagnostic", e.diagnosticModule)
}

// ConfigManager returns the configuration manager module, initialising it on
// first use.
func (e *Environment) ConfigManager(ctx context.Context) (*ConfigManager, error) {
	return execute(ctx, e, "ConfigManager", e.configManagerModule)
}

// Product returns the product module, initialising it on first use.
func (e *Environment) Product(ctx context.Context) (*Product, error) {
	return execute(ctx, e, "Product", e.productModule)
}

func (e *Environment) engineModule() (*Engine, error) {
	e.monitor.Lock()
	defer e.monitor.Unlock()
	return e.engineLocked()
}

func (e *Environment) engineLocked() (*Engine, error) {
	if e.engine != nil {
		return e.engine, nil
	}
	n := e.lib.Engine()
	if err := e.initModule("engine", n, func() int64 {
		if e.configID != nil {
			return n.InitWithConfigID(e.opts.InstanceName, e.opts.Settings, *e.configID, verbosity(e.opts.VerboseLogging))
		}
		return n.Init(e.opts.InstanceName, e.opts.Settings, verbosity(e.opts.VerboseLogging))
	}); err != nil {
		return nil, err
	}
	e.engine = &Engine{env: e, native: n}
	return e.engine, nil
}

func (e *Environment) diagnosticModule() (*Diagnostic, error) {
	e.monitor.Lock()
	defer e.monitor.Unlock()
	if e.diagnostic != nil {
		return e.diagnostic, nil
	}
	n := e.lib.Diagnostic()
	if err := e.initModule("diagnostic", n, func() int64 {
		if e.configID != nil {
			return n.InitWithConfigID(e.opts.InstanceName, e.opts.Settings, *e.configID, verbosity(e.opts.VerboseLogging))
		}
		return n.Init(e.opts.InstanceName, e.opts.Settings, verbosity(e.opts.VerboseLogging))
	}); err != nil {
		return nil, err
	}
	e.diagnostic = &Diagnostic{env: e, native: n}
	return e.diagnostic, nil
}

func (e *Environment) configManagerModule() (*ConfigManager, error) {
	e.monitor.Lock()
	defer e.monitor.Unlock()
	if e.configMgr != nil {
		return e.configMgr, nil
	}
	n := e.lib.ConfigManager()
	if err := e.initModule("config_manager", n, func() int64 {
		return n.Init(e.opts.InstanceName, e.opts.Settings, verbosity(e.opts.VerboseLogging))
	}); err != nil {
		return nil, err
	}
	e.configMgr = &ConfigManager{env: e, native: n}
	return e.configMgr, nil
}

// configModule is the native configuration-document library. It is not
// exposed directly; Config and ConfigManager reach it through handles.
type configModule struct {
	native    native.Config
	destroyed bool
}

func (e *Environment) configNative() (*configModule, error) {
	e.monitor.Lock()
	defer e.monitor.Unlock()
	if e.config != nil {
		return e.config, nil
	}
	n := e.lib.Config()
	if err := e.initModule("config", n, func() int64 {
		return n.Init(e.opts.InstanceName, e.opts.Settings, verbosity(e.opts.VerboseLogging))
	}); err != nil {
		return nil, err
	}
	e.config = &configModule{native: n}
	return e.config, nil
}

func (e *Environment) productModule() (*Product, error) {
	e.monitor.Lock()
	defer e.monitor.Unlock()
	if e.product != nil {
		return e.product, nil
	}
	n := e.lib.Product()
	if err := e.initModule("product", n, func() int64 {
		return n.Init(e.opts.InstanceName, e.opts.Settings, verbosity(e.opts.VerboseLogging))
	}); err != nil {
		return nil, err
	}
	e.product = &Product{env: e, native: n}
	return e.product, nil
}

func (e *Environment) initModule(name string, state native.ErrorState, init func() int64) error {
	if err := call(state, init); err != nil {
		return err
	}
	e.log.Debug(context.Background(), "module initialized", logging.FieldModule, name)
	return nil
}

// destroyModules runs with the exclusive lock held. Each constructed module
// is destroyed exactly once, in a fixed order, and a failure does not stop
// the remaining modules from being destroyed.
func (e *Environment) destroyModules(ctx context.Context) error {
	type step struct {
		name      string
		destroyed *bool
		state     native.ErrorState
		destroy   func() int64
	}
	var steps []step
	if m := e.engine; m != nil {
		steps = append(steps, step{"engine", &m.destroyed, m.native, m.native.Destroy})
	}
	if m := e.diagnostic; m != nil {
		steps = append(steps, step{"diagnostic", &m.destroyed, m.native, m.native.Destroy})
	}
	if m := e.configMgr; m != nil {
		steps = append(steps, step{"config_manager", &m.destroyed, m.native, m.native.Destroy})
	}
	if m := e.config; m != nil {
		steps = append(steps, step{"config", &m.destroyed, m.native, m.native.Destroy})
	}
	if m := e.product; m != nil {
		steps = append(steps, step{"product", &m.destroyed, m.native, m.native.Destroy})
	}

	var errs error
	for _, s := range steps {
		if *s.destroyed {
			continue
		}
		*s.destroyed = true
		if err := call(s.state, s.destroy); err != nil {
			e.log.Warn(ctx, "module destroy failed", logging.FieldModule, s.name, "error", err)
			errs = crdb.CombineErrors(errs, crdb.Wrapf(err, "destroy %s", s.name))
			continue
		}
		e.log.Debug(ctx, "module destroyed", logging.FieldModule, s.name)
	}
	return errs
}
