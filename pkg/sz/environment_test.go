package sz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/szsafe/szsafe-go/pkg/sz/mocksz"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEnv(t *testing.T, opts ...func(*EnvOptions)) (*Environment, *mocksz.Library) {
	t.Helper()
	lib := mocksz.New()
	o := EnvOptions{Library: lib, DestroyPollInterval: 5 * time.Millisecond}
	for _, f := range opts {
		f(&o)
	}
	env, err := NewRegistry().Build(context.Background(), o)
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Destroy() })
	return env, lib
}

func engineOf(t *testing.T, env *Environment) *Engine {
	t.Helper()
	eng, err := env.Engine(context.Background())
	require.NoError(t, err)
	return eng
}

// blockCall makes the next calls of method wait until the returned release
// function is called. started is closed when the first call arrives.
func blockCall(lib *mocksz.Library, method string) (started <-chan struct{}, release func()) {
	s := make(chan struct{})
	r := make(chan struct{})
	var once, releaseOnce sync.Once
	lib.OnCall(method, func() {
		once.Do(func() { close(s) })
		<-r
	})
	return s, func() { releaseOnce.Do(func() { close(r) }) }
}

func TestBuildRejectsSecondActiveEnvironment(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	lib := mocksz.New()

	env, err := reg.Build(ctx, EnvOptions{Library: lib})
	require.NoError(t, err)
	require.Same(t, env, reg.Active())
	require.Equal(t, StateActive, env.State())
	require.Equal(t, DefaultInstanceName, env.InstanceName())
	require.NotEmpty(t, env.ID())

	_, err = reg.Build(ctx, EnvOptions{Library: lib})
	require.ErrorIs(t, err, ErrAlreadyActive)

	require.NoError(t, env.Destroy())
	require.Nil(t, reg.Active())
	require.True(t, env.IsDestroyed())

	next, err := reg.Build(ctx, EnvOptions{Library: lib, InstanceName: "second"})
	require.NoError(t, err)
	require.NotEqual(t, env.ID(), next.ID())
	require.Equal(t, "second", next.InstanceName())
	require.NoError(t, next.Destroy())
}

func TestOperationsFailAfterDestroy(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)
	eng := engineOf(t, env)

	require.NoError(t, env.Destroy())
	require.Equal(t, StateDestroyed, env.State())

	_, err := eng.GetStats(ctx)
	require.ErrorIs(t, err, ErrDestroyed)
	_, err = env.Engine(ctx)
	require.ErrorIs(t, err, ErrDestroyed)
	_, err = env.Product(ctx)
	require.ErrorIs(t, err, ErrDestroyed)
	require.ErrorIs(t, env.Reinitialize(ctx, mocksz.BootstrapConfigID), ErrDestroyed)

	require.Zero(t, lib.Calls("Engine.GetStats"))
	require.Zero(t, lib.Calls("Product.Init"))
}

func TestDestroyIsIdempotent(t *testing.T) {
	env, lib := newEnv(t)
	engineOf(t, env)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(env.Destroy)
	}
	require.NoError(t, g.Wait())
	require.NoError(t, env.Destroy())
	require.Equal(t, 1, lib.Calls("Engine.Destroy"))
	require.False(t, lib.Initialized(mocksz.Engine))
}

func TestDestroyWaitsForInFlightOperations(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)
	eng := engineOf(t, env)

	started, release := blockCall(lib, "Engine.GetStats")
	defer release()

	opErr := make(chan error, 1)
	go func() {
		_, err := eng.GetStats(ctx)
		opErr <- err
	}()
	<-started
	require.EqualValues(t, 1, env.InFlight())

	destroyed := make(chan error, 1)
	go func() { destroyed <- env.Destroy() }()

	require.Eventually(t, func() bool { return env.State() == StateDestroying }, time.Second, time.Millisecond)

	_, err := eng.GetRecord(ctx, "TEST", "1", NoFlags)
	require.ErrorIs(t, err, ErrDestroyed)

	select {
	case <-destroyed:
		t.Fatal("destroy returned while an operation was in flight")
	case <-time.After(20 * time.Millisecond):
	}
	require.Zero(t, lib.Calls("Engine.Destroy"))

	release()
	require.NoError(t, <-opErr)
	require.NoError(t, <-destroyed)
	require.Equal(t, StateDestroyed, env.State())
	require.Equal(t, 1, lib.Calls("Engine.Destroy"))
	require.Zero(t, env.InFlight())
}

func TestConcurrentOperationsRaceDestroy(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)
	eng := engineOf(t, env)

	var g errgroup.Group
	for w := 0; w < 16; w++ {
		g.Go(func() error {
			for {
				_, err := eng.AddRecord(ctx, "TEST", "r", `{"NAME_FULL":"Ann Smith"}`, NoFlags)
				if errors.Is(err, ErrDestroyed) {
					return nil
				}
				if err != nil {
					return err
				}
				if _, err := eng.GetStats(ctx); err != nil && !errors.Is(err, ErrDestroyed) {
					return err
				}
			}
		})
	}

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, env.Destroy())
	require.NoError(t, g.Wait())

	require.Zero(t, env.InFlight())
	require.Zero(t, lib.PendingErrors())
	require.Equal(t, 1, lib.Calls("Engine.Destroy"))
}

func TestBuildWaitsForDestroyingEnvironment(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	lib := mocksz.New()

	env, err := reg.Build(ctx, EnvOptions{Library: lib})
	require.NoError(t, err)
	eng := engineOf(t, env)

	started, release := blockCall(lib, "Engine.GetStats")
	defer release()
	opDone := make(chan struct{})
	go func() {
		defer close(opDone)
		_, _ = eng.GetStats(ctx)
	}()
	<-started

	destroyed := make(chan error, 1)
	go func() { destroyed <- env.Destroy() }()
	require.Eventually(t, func() bool { return env.State() == StateDestroying }, time.Second, time.Millisecond)

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = reg.Build(short, EnvOptions{Library: lib, DestroyPollInterval: time.Millisecond})
	require.ErrorIs(t, err, ErrAlreadyActive)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	built := make(chan *Environment, 1)
	buildErr := make(chan error, 1)
	go func() {
		next, err := reg.Build(ctx, EnvOptions{Library: lib, DestroyPollInterval: time.Millisecond})
		buildErr <- err
		built <- next
	}()

	release()
	<-opDone
	require.NoError(t, <-destroyed)
	require.NoError(t, <-buildErr)
	next := <-built
	require.Same(t, next, reg.Active())
	require.NoError(t, next.Destroy())
}

func TestModulesInitialiseOnce(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)

	engines := make([]*Engine, 32)
	var g errgroup.Group
	for i := range engines {
		g.Go(func() error {
			eng, err := env.Engine(ctx)
			engines[i] = eng
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, eng := range engines {
		require.Same(t, engines[0], eng)
	}
	require.Equal(t, 1, lib.Calls("Engine.Init"))
	require.Zero(t, lib.Calls("Diagnostic.Init"))
	require.Zero(t, lib.Calls("Product.Init"))

	require.NoError(t, env.Destroy())
	require.Equal(t, 1, lib.Calls("Engine.Destroy"))
	require.Zero(t, lib.Calls("Diagnostic.Destroy"))
	require.Zero(t, lib.Calls("Product.Destroy"))
}

func TestModuleInitFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)

	lib.FailNext("Engine.Init", 7223, "no default configuration")
	_, err := env.Engine(ctx)
	require.ErrorIs(t, err, ErrConfiguration)
	require.False(t, lib.Initialized(mocksz.Engine))

	eng, err := env.Engine(ctx)
	require.NoError(t, err)
	require.NotNil(t, eng)
	require.Equal(t, 2, lib.Calls("Engine.Init"))

	require.NoError(t, env.Destroy())
	require.Equal(t, 1, lib.Calls("Engine.Destroy"))
}

func TestDestroyContinuesAfterModuleFailure(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)

	engineOf(t, env)
	_, err := env.Diagnostic(ctx)
	require.NoError(t, err)
	_, err = env.ConfigManager(ctx)
	require.NoError(t, err)
	_, err = env.Product(ctx)
	require.NoError(t, err)

	lib.FailNext("Engine.Destroy", 8000, "engine teardown failed")
	err = env.Destroy()
	require.ErrorIs(t, err, ErrUnhandled)
	require.Equal(t, StateDestroyed, env.State())

	for _, c := range []string{mocksz.Diagnostic, mocksz.ConfigManager, mocksz.Product} {
		require.Equal(t, 1, lib.Calls(c+".Destroy"), c)
		require.False(t, lib.Initialized(c), c)
	}
	require.NoError(t, env.Destroy())
	require.Equal(t, 1, lib.Calls("Engine.Destroy"))
}

func TestConfigIDOption(t *testing.T) {
	id := mocksz.BootstrapConfigID
	env, lib := newEnv(t, func(o *EnvOptions) { o.ConfigID = &id })

	got, ok := env.ConfigID()
	require.True(t, ok)
	require.Equal(t, id, got)

	active, err := env.ActiveConfigID(context.Background())
	require.NoError(t, err)
	require.Equal(t, id, active)
	require.Equal(t, 1, lib.Calls("Engine.InitWithConfigID"))
	require.Zero(t, lib.Calls("Engine.Init"))
}

func TestReinitialize(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)

	mgr, err := env.ConfigManager(ctx)
	require.NoError(t, err)
	cfg, err := mgr.CreateConfig(ctx)
	require.NoError(t, err)
	_, err = cfg.RegisterDataSource(ctx, "CUSTOMERS")
	require.NoError(t, err)
	nextID, err := mgr.RegisterConfig(ctx, cfg.Export(), "")
	require.NoError(t, err)

	_, err = env.Diagnostic(ctx)
	require.NoError(t, err)

	require.NoError(t, env.Reinitialize(ctx, nextID))
	active, err := env.ActiveConfigID(ctx)
	require.NoError(t, err)
	require.Equal(t, nextID, active)
	require.Equal(t, 1, lib.Calls("Engine.Reinit"))
	require.Equal(t, 1, lib.Calls("Diagnostic.Reinit"))

	require.NoError(t, env.Reinitialize(ctx, nextID))
	require.Equal(t, 1, lib.Calls("Engine.Reinit"))

	eng := engineOf(t, env)
	_, err = eng.AddRecord(ctx, "CUSTOMERS", "1001", `{"NAME_FULL":"Ann Smith"}`, NoFlags)
	require.NoError(t, err)

	require.Error(t, env.Reinitialize(ctx, 9999))
	got, ok := env.ConfigID()
	require.True(t, ok)
	require.Equal(t, nextID, got)
}

func TestReinitializeRollsBackOnModuleFailure(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)

	mgr, err := env.ConfigManager(ctx)
	require.NoError(t, err)
	cfg, err := mgr.CreateConfig(ctx)
	require.NoError(t, err)
	nextID, err := mgr.RegisterConfig(ctx, cfg.Export(), "")
	require.NoError(t, err)
	_, err = env.Diagnostic(ctx)
	require.NoError(t, err)

	lib.FailNext("Diagnostic.Reinit", 8000, "boom")
	err = env.Reinitialize(ctx, nextID)
	require.ErrorIs(t, err, ErrUnhandled)

	active, err := env.ActiveConfigID(ctx)
	require.NoError(t, err)
	require.Equal(t, mocksz.BootstrapConfigID, active)
	require.Equal(t, 2, lib.Calls("Engine.Reinit"))
	_, ok := env.ConfigID()
	require.False(t, ok)
	require.Zero(t, lib.PendingErrors())

	require.NoError(t, env.Reinitialize(ctx, nextID))
	active, err = env.ActiveConfigID(ctx)
	require.NoError(t, err)
	require.Equal(t, nextID, active)
}

func TestCancelledContextIsNotAnOperation(t *testing.T) {
	env, lib := newEnv(t)
	eng := engineOf(t, env)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eng.GetStats(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, lib.Calls("Engine.GetStats"))
}
