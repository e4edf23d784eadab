package sz

import (
	"time"

	"github.com/szsafe/szsafe-go/pkg/sz/internal/backend"
	"github.com/szsafe/szsafe-go/pkg/sz/logging"
	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

const (
	// DefaultInstanceName is used when EnvOptions.InstanceName is empty.
	DefaultInstanceName = "Senzing Instance"

	// DefaultSettings is the bootstrap settings document used when
	// EnvOptions.Settings is empty.
	DefaultSettings = "{ }"

	// DefaultDestroyPollInterval bounds how long Build sleeps between checks
	// while a previous environment is still being destroyed.
	DefaultDestroyPollInterval = 100 * time.Millisecond
)

// ErrNotBuilt is returned by Build when no Library is supplied and the
// platform cannot load the native library dynamically.
var ErrNotBuilt = backend.ErrNotBuilt

// EnvOptions expresses the knobs required to build an Environment.
type EnvOptions struct {
	// InstanceName identifies this process to the native library.
	InstanceName string

	// Settings is the native settings document. It usually carries database
	// credentials and is never logged.
	Settings string

	// VerboseLogging turns on the native library's own diagnostic output.
	VerboseLogging bool

	// ConfigID pins the configuration modules are initialised with. Nil means
	// the repository default.
	ConfigID *int64

	// Library is the native layer. Nil loads the shared library at
	// LibraryPath; tests pass a mocksz.Library.
	Library native.Library

	// LibraryPath overrides the shared library location used when Library is
	// nil. Empty uses the platform default name.
	LibraryPath string

	// Logger receives lifecycle and failure logs. Nil discards them.
	Logger logging.Logger

	// Metrics receives guard instrumentation. Nil disables it.
	Metrics *Metrics

	// DestroyPollInterval bounds the re-check interval used by Build while a
	// previous environment is Destroying.
	DestroyPollInterval time.Duration
}

func (o EnvOptions) withDefaults() EnvOptions {
	if o.InstanceName == "" {
		o.InstanceName = DefaultInstanceName
	}
	if o.Settings == "" {
		o.Settings = DefaultSettings
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	if o.DestroyPollInterval <= 0 {
		o.DestroyPollInterval = DefaultDestroyPollInterval
	}
	if o.ConfigID != nil {
		id := *o.ConfigID
		o.ConfigID = &id
	}
	return o
}

// openLibrary returns the configured native layer and whether the environment
// owns it and must release it after teardown.
func (o EnvOptions) openLibrary() (native.Library, bool, error) {
	if o.Library != nil {
		return o.Library, false, nil
	}
	lib, err := backend.Open(o.LibraryPath)
	if err != nil {
		return nil, false, err
	}
	return lib, true, nil
}

func verbosity(verbose bool) int64 {
	if verbose {
		return 1
	}
	return 0
}
