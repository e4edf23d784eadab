package sz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/szsafe/szsafe-go/pkg/sz/logging"
)

// Registry owns the single environment slot of a process. At most one
// environment of a registry is Active or Destroying at any time.
//
// Applications normally use DefaultRegistry through Build. Tests create
// independent registries so they can exercise the lifecycle in parallel.
type Registry struct {
	mu     sync.Mutex
	active *Environment
}

// DefaultRegistry is the process-wide registry used by Build and Active.
var DefaultRegistry = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// Build constructs an environment on DefaultRegistry.
func Build(ctx context.Context, opts EnvOptions) (*Environment, error) {
	return DefaultRegistry.Build(ctx, opts)
}

// Active returns the active environment of DefaultRegistry, or nil.
func Active() *Environment { return DefaultRegistry.Active() }

// Active returns the registry's environment if it is Active, or nil.
func (r *Registry) Active() *Environment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil || r.active.State() != StateActive {
		return nil
	}
	return r.active
}

// Build constructs and registers a new Active environment.
//
// Build fails with ErrAlreadyActive while another environment of r is Active.
// If the previous environment is still Destroying, Build waits for it to reach
// Destroyed, re-checking at most every opts.DestroyPollInterval; if ctx ends
// first the error wraps both ErrAlreadyActive and the context error.
func (r *Registry) Build(ctx context.Context, opts EnvOptions) (*Environment, error) {
	opts = opts.withDefaults()
	for {
		r.mu.Lock()
		prev := r.active
		if prev == nil || prev.State() == StateDestroyed {
			env, err := r.buildLocked(opts)
			r.mu.Unlock()
			if err != nil {
				return nil, err
			}
			env.log.Info(ctx, "environment built",
				"verbose", opts.VerboseLogging,
				logging.Redacted("settings"),
			)
			return env, nil
		}
		if prev.State() == StateActive {
			r.mu.Unlock()
			return nil, ErrAlreadyActive
		}
		done := prev.destroyed
		r.mu.Unlock()

		timer := time.NewTimer(opts.DestroyPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: previous environment still destroying: %w", ErrAlreadyActive, ctx.Err())
		case <-done:
		case <-timer.C:
		}
		timer.Stop()
	}
}

func (r *Registry) buildLocked(opts EnvOptions) (*Environment, error) {
	lib, owned, err := opts.openLibrary()
	if err != nil {
		return nil, err
	}
	env := newEnvironment(r, opts, lib, owned)
	r.active = env
	return env, nil
}

// release frees the slot once e reaches Destroyed.
func (r *Registry) release(e *Environment) {
	r.mu.Lock()
	if r.active == e {
		r.active = nil
	}
	r.mu.Unlock()
}
