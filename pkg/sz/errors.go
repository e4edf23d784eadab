package sz

import (
	"errors"
	"fmt"
	"runtime"

	crdb "github.com/cockroachdb/errors"

	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

var (
	// ErrAlreadyActive is returned by Registry.Build while another environment
	// of the same registry is active or still being destroyed.
	ErrAlreadyActive = errors.New("sz: an environment is already active")

	// ErrDestroyed is returned by every guarded operation once the environment
	// has started tearing down.
	ErrDestroyed = errors.New("sz: environment has been destroyed")

	// ErrExportClosed is returned when an export cursor is used after Close.
	ErrExportClosed = errors.New("sz: export has been closed")

	// errPanicked is the outcome recorded for an operation that panicked.
	errPanicked = errors.New("sz: operation panicked")
)

// Category classifies a failure reported by the native layer.
type Category int

const (
	CategoryGeneric Category = iota
	CategoryBadInput
	CategoryUnknownDataSource
	CategoryNotFound
	CategoryConfiguration
	CategoryDatabase
	CategoryDatabaseConnectionLost
	CategoryNotInitialized
	CategoryLicense
	CategoryRetryTimeoutExceeded
	CategoryReplaceConflict
	CategoryUnhandled

	categoryCount
)

var categoryNames = [...]string{
	CategoryGeneric:                "Generic",
	CategoryBadInput:               "BadInput",
	CategoryUnknownDataSource:      "UnknownDataSource",
	CategoryNotFound:               "NotFound",
	CategoryConfiguration:          "Configuration",
	CategoryDatabase:               "Database",
	CategoryDatabaseConnectionLost: "DatabaseConnectionLost",
	CategoryNotInitialized:         "NotInitialized",
	CategoryLicense:                "License",
	CategoryRetryTimeoutExceeded:   "RetryTimeoutExceeded",
	CategoryReplaceConflict:        "ReplaceConflict",
	CategoryUnhandled:              "Unhandled",
}

func (c Category) valid() bool { return c >= 0 && c < categoryCount }

func (c Category) String() string {
	if !c.valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// parent returns the broader category c belongs to, or c itself at the root.
func (c Category) parent() Category {
	switch c {
	case CategoryNotFound, CategoryUnknownDataSource:
		return CategoryBadInput
	}
	return c
}

// Retryable reports whether a failure of this category may succeed if the
// same call is made again later.
func (c Category) Retryable() bool {
	switch c {
	case CategoryDatabaseConnectionLost, CategoryRetryTimeoutExceeded:
		return true
	}
	return false
}

// Unrecoverable reports whether the native layer is unusable after a failure
// of this category.
func (c Category) Unrecoverable() bool {
	switch c {
	case CategoryDatabase, CategoryLicense, CategoryNotInitialized, CategoryUnhandled:
		return true
	}
	return false
}

// Error is a typed failure translated from a native return code. Code and
// Message are the values reported by the native error state verbatim;
// ReturnCode is what the failing call returned, which can differ when the
// native layer communicates status two ways.
type Error struct {
	Category   Category
	Code       int64
	Message    string
	ReturnCode int64

	err error // wrapped cause for failures that did not come from the native layer
}

func (e *Error) Error() string {
	if e.err != nil && e.Message == "" {
		return fmt.Sprintf("sz %s: %v", e.Category, e.err)
	}
	if e.Code == 0 && e.Message == "" {
		return "sz " + e.Category.String()
	}
	return fmt.Sprintf("sz %s (%d): %s", e.Category, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// Is matches category sentinels such as ErrNotFound. A NotFound failure also
// matches ErrBadInput.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || !t.sentinel() {
		return false
	}
	return e.Category == t.Category || e.Category.parent() == t.Category
}

// Retryable reports whether the failure is worth retrying unchanged.
func (e *Error) Retryable() bool { return e.Category.Retryable() }

// Unrecoverable reports whether the native layer should be considered unusable.
func (e *Error) Unrecoverable() bool { return e.Category.Unrecoverable() }

func (e *Error) sentinel() bool {
	return e.Code == 0 && e.Message == "" && e.ReturnCode == 0 && e.err == nil
}

// Category sentinels for use with errors.Is.
var (
	ErrGeneric                = &Error{Category: CategoryGeneric}
	ErrBadInput               = &Error{Category: CategoryBadInput}
	ErrUnknownDataSource      = &Error{Category: CategoryUnknownDataSource}
	ErrNotFound               = &Error{Category: CategoryNotFound}
	ErrConfiguration          = &Error{Category: CategoryConfiguration}
	ErrDatabase               = &Error{Category: CategoryDatabase}
	ErrDatabaseConnectionLost = &Error{Category: CategoryDatabaseConnectionLost}
	ErrNotInitialized         = &Error{Category: CategoryNotInitialized}
	ErrLicense                = &Error{Category: CategoryLicense}
	ErrRetryTimeoutExceeded   = &Error{Category: CategoryRetryTimeoutExceeded}
	ErrReplaceConflict        = &Error{Category: CategoryReplaceConflict}
	ErrUnhandled              = &Error{Category: CategoryUnhandled}
)

// CategoryOf returns the category of err, or false when err is not a
// translated failure.
func CategoryOf(err error) (Category, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Category, true
	}
	return CategoryGeneric, false
}

// translate builds the typed failure for a non-zero return code. It reads the
// last-error code and message and clears the error state so nothing leaks into
// the next call on this thread. Callers must still be on the OS thread that
// made the failing call.
func translate(state native.ErrorState, returnCode int64) *Error {
	code := state.GetLastExceptionCode()
	msg := state.GetLastException()
	state.ClearLastException()
	if code == 0 {
		code = returnCode
	}
	return &Error{
		Category:   categoryFor(code),
		Code:       code,
		Message:    msg,
		ReturnCode: returnCode,
	}
}

// call runs one native call and translates a non-zero result. The goroutine is
// pinned to its OS thread until the error state has been read and cleared.
func call(state native.ErrorState, fn func() int64) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if rc := fn(); rc != 0 {
		return translate(state, rc)
	}
	return nil
}

// callValue is call for native functions that produce a value.
func callValue[T any](state native.ErrorState, fn func() (T, int64)) (T, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	v, rc := fn()
	if rc != 0 {
		var zero T
		return zero, translate(state, rc)
	}
	return v, nil
}

// asError converts any failure escaping a guarded operation into *Error,
// wrapping foreign errors into the generic category.
func asError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) || errors.Is(err, ErrDestroyed) || errors.Is(err, ErrExportClosed) {
		return err
	}
	return &Error{Category: CategoryGeneric, err: crdb.WithStack(err)}
}
