package sz

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	crdb "github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/szsafe/szsafe-go/pkg/sz/logging"
	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

// State is the lifecycle state of an Environment. It only moves forward.
type State int32

const (
	StateActive State = iota
	StateDestroying
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDestroying:
		return "destroying"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Environment is one live binding to the native library. Every operation that
// reaches the native layer runs under the environment's shared lock; Destroy
// takes the exclusive lock, so teardown waits for operations that already
// started and rejects everything that starts afterwards.
type Environment struct {
	id       string
	registry *Registry
	opts     EnvOptions
	lib      native.Library
	ownsLib  bool
	log      logging.Logger
	metrics  *Metrics

	// guard is held shared by every operation and exclusively by Destroy and
	// Reinitialize.
	guard    sync.RWMutex
	inFlight atomic.Int64
	state    atomic.Int32

	// monitor serialises state transitions and lazy module construction.
	monitor    sync.Mutex
	configID   *int64
	engine     *Engine
	diagnostic *Diagnostic
	configMgr  *ConfigManager
	config     *configModule
	product    *Product

	destroyed chan struct{}
}

func newEnvironment(r *Registry, opts EnvOptions, lib native.Library, ownsLib bool) *Environment {
	id := uuid.NewString()
	e := &Environment{
		id:        id,
		registry:  r,
		opts:      opts,
		lib:       lib,
		ownsLib:   ownsLib,
		metrics:   opts.Metrics,
		configID:  opts.ConfigID,
		destroyed: make(chan struct{}),
		log: opts.Logger.With(
			logging.FieldEnvID, id,
			logging.FieldInstance, opts.InstanceName,
		),
	}
	e.setState(StateActive)
	return e
}

// ID is a random identifier used to correlate logs and metrics.
func (e *Environment) ID() string { return e.id }

// InstanceName is the name the environment was built with.
func (e *Environment) InstanceName() string { return e.opts.InstanceName }

// VerboseLogging reports whether native verbose logging was requested.
func (e *Environment) VerboseLogging() bool { return e.opts.VerboseLogging }

// State returns the current lifecycle state.
func (e *Environment) State() State { return State(e.state.Load()) }

// IsDestroyed reports whether Destroy has been called.
func (e *Environment) IsDestroyed() bool { return e.State() != StateActive }

// InFlight returns the number of operations currently executing.
func (e *Environment) InFlight() int64 { return e.inFlight.Load() }

// ConfigID returns the explicit configuration id modules are initialised with,
// if one was supplied or set by Reinitialize.
func (e *Environment) ConfigID() (int64, bool) {
	e.monitor.Lock()
	defer e.monitor.Unlock()
	if e.configID == nil {
		return 0, false
	}
	return *e.configID, true
}

func (e *Environment) setState(s State) {
	e.state.Store(int32(s))
	e.metrics.setState(s)
}

// execute runs fn as one guarded operation. The shared lock is held for the
// whole of fn and the in-flight counter is decremented on every exit path.
// Errors that are not already typed are wrapped into CategoryGeneric.
func execute[T any](ctx context.Context, e *Environment, op string, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if e.State() != StateActive {
		e.metrics.rejected(op)
		return zero, ErrDestroyed
	}

	e.guard.RLock()
	defer e.guard.RUnlock()
	if e.State() != StateActive {
		e.metrics.rejected(op)
		return zero, ErrDestroyed
	}

	e.inFlight.Add(1)
	e.metrics.operationStarted()
	err := errPanicked
	defer func() {
		e.inFlight.Add(-1)
		e.metrics.operationFinished(op, err)
	}()

	v, ferr := fn()
	if err = asError(ferr); err != nil {
		e.logFailure(ctx, op, err)
		return zero, err
	}
	return v, nil
}

// run is execute for operations without a result.
func run(ctx context.Context, e *Environment, op string, fn func() error) error {
	_, err := execute(ctx, e, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func (e *Environment) logFailure(ctx context.Context, op string, err error) {
	args := []any{logging.FieldOperation, op}
	var se *Error
	if crdb.As(err, &se) {
		args = append(args,
			logging.FieldCategory, se.Category.String(),
			logging.FieldErrorCode, se.Code,
			logging.FieldReturnCode, se.ReturnCode,
		)
	}
	e.log.Debug(ctx, "operation failed", append(args, "error", err)...)
}

// Destroy tears the environment down. The first call marks the environment
// Destroying, so every operation that starts afterwards fails with
// ErrDestroyed, then blocks until operations that already started have
// finished, destroys every constructed module and marks it Destroyed. Further
// calls, including concurrent ones, return nil immediately.
//
// Module destroy failures are combined into the returned error; the
// environment reaches Destroyed regardless.
func (e *Environment) Destroy() error {
	e.monitor.Lock()
	if e.State() != StateActive {
		e.monitor.Unlock()
		return nil
	}
	e.setState(StateDestroying)
	e.monitor.Unlock()

	ctx := context.Background()
	e.log.Info(ctx, "destroying environment", logging.FieldInFlight, e.InFlight())

	start := time.Now()
	e.guard.Lock()
	defer e.guard.Unlock()
	drain := time.Since(start)
	e.metrics.drained(drain)

	if n := e.inFlight.Load(); n != 0 {
		panic(crdb.AssertionFailedf("sz: %d operations in flight after acquiring the exclusive lock", n))
	}

	err := e.destroyModules(ctx)
	if e.ownsLib {
		if c, ok := e.lib.(io.Closer); ok {
			err = crdb.CombineErrors(err, c.Close())
		}
	}

	e.setState(StateDestroyed)
	close(e.destroyed)
	e.registry.release(e)
	e.log.Info(ctx, "environment destroyed", logging.FieldDurationMS, drain.Milliseconds())
	return err
}

// ActiveConfigID returns the id of the configuration the engine is running.
func (e *Environment) ActiveConfigID(ctx context.Context) (int64, error) {
	return execute(ctx, e, "ActiveConfigID", func() (int64, error) {
		eng, err := e.engineModule()
		if err != nil {
			return 0, err
		}
		return eng.activeConfigID()
	})
}

// Reinitialize switches the running configuration to configID. It takes the
// exclusive lock because every module reads the configuration. Modules built
// later are initialised with configID. Reinitializing to the active id is a
// no-op. When a module fails to switch, modules already switched are moved
// back to the previous configuration.
func (e *Environment) Reinitialize(ctx context.Context, configID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.State() != StateActive {
		return ErrDestroyed
	}
	e.guard.Lock()
	defer e.guard.Unlock()
	if e.State() != StateActive {
		return ErrDestroyed
	}

	e.monitor.Lock()
	defer e.monitor.Unlock()

	eng, err := e.engineLocked()
	if err != nil {
		return asError(err)
	}
	current, err := eng.activeConfigID()
	if err != nil {
		return err
	}
	if current == configID {
		return nil
	}
	if err := eng.reinit(configID); err != nil {
		return err
	}
	if e.diagnostic != nil {
		if err := e.diagnostic.reinit(configID); err != nil {
			if rerr := eng.reinit(current); rerr != nil {
				e.log.Error(ctx, "engine rollback failed", logging.FieldConfigID, current, "error", rerr)
				return crdb.CombineErrors(err, rerr)
			}
			return err
		}
	}
	id := configID
	e.configID = &id
	e.log.Info(ctx, "environment reinitialized", logging.FieldConfigID, configID)
	return nil
}
