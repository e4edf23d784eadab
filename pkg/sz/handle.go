package sz

import (
	"context"

	"github.com/szsafe/szsafe-go/pkg/sz/logging"
	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

const (
	familyConfig = "config"
	familyExport = "export"
)

// withHandle opens a native handle, hands it to use and closes it on every
// exit path, panics included. Nothing is closed when open fails. A close
// failure is returned only when use succeeded; otherwise the use failure wins
// and the close failure is logged.
func withHandle[T any](
	e *Environment,
	family string,
	open func() (native.Handle, error),
	closeFn func(native.Handle) error,
	use func(native.Handle) (T, error),
) (result T, err error) {
	h, err := open()
	if err != nil {
		return result, err
	}
	defer func() {
		cerr := closeFn(h)
		if cerr == nil {
			return
		}
		if err == nil {
			err = cerr
			return
		}
		e.log.Warn(context.Background(), "handle close failed after earlier failure",
			logging.FieldHandleFamily, family, "error", cerr)
	}()
	return use(h)
}

// withConfigHandle scopes a native configuration handle produced by open.
func withConfigHandle[T any](
	e *Environment,
	cfg *configModule,
	open func(n native.Config) (native.Handle, int64),
	use func(n native.Config, h native.Handle) (T, error),
) (T, error) {
	n := cfg.native
	return withHandle(e, familyConfig,
		func() (native.Handle, error) {
			h, err := callValue(n, func() (native.Handle, int64) { return open(n) })
			if err == nil {
				e.metrics.handleEvent(familyConfig, "open")
			}
			return h, err
		},
		func(h native.Handle) error {
			e.metrics.handleEvent(familyConfig, "close")
			return call(n, func() int64 { return n.Close(h) })
		},
		func(h native.Handle) (T, error) { return use(n, h) },
	)
}
