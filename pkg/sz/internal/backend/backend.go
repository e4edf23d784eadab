//go:build linux || darwin

package backend

import (
	"bytes"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

// exceptionBufferSize bounds the last-exception message copied per call.
const exceptionBufferSize = 4096

// Library is a dynamically loaded native library.
type Library struct {
	path string

	mu     sync.Mutex
	handle uintptr

	free func(unsafe.Pointer)

	engine     *engine
	config     *config
	configMgr  *configManager
	diagnostic *diagnostic
	product    *product
}

var _ native.Library = (*Library)(nil)

type symbol struct {
	name string
	fptr any
}

// DefaultLibraryName returns the platform file name used when path is empty.
func DefaultLibraryName() string {
	if runtime.GOOS == "darwin" {
		return "libSz.dylib"
	}
	return "libSz.so"
}

// Open loads the shared library at path, or DefaultLibraryName when path is
// empty, and binds every entry point. A missing symbol fails the whole load.
func Open(path string) (native.Library, error) {
	if path == "" {
		path = DefaultLibraryName()
	}
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen %s failed: %w", path, err)
	}

	l := &Library{
		path:       path,
		handle:     handle,
		engine:     &engine{},
		config:     &config{},
		configMgr:  &configManager{},
		diagnostic: &diagnostic{},
		product:    &product{},
	}
	l.engine.lib = l
	l.config.lib = l
	l.configMgr.lib = l
	l.diagnostic.lib = l
	l.product.lib = l

	symbols := []symbol{{"SzHelper_free", &l.free}}
	symbols = append(symbols, l.engine.symbols()...)
	symbols = append(symbols, l.config.symbols()...)
	symbols = append(symbols, l.configMgr.symbols()...)
	symbols = append(symbols, l.diagnostic.symbols()...)
	symbols = append(symbols, l.product.symbols()...)
	for _, s := range symbols {
		if err := bind(handle, s); err != nil {
			_ = purego.Dlclose(handle)
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return l, nil
}

func bind(handle uintptr, s symbol) error {
	sym, err := purego.Dlsym(handle, s.name)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrMissingSymbol, s.name, err)
	}
	purego.RegisterFunc(s.fptr, sym)
	return nil
}

// Close unloads the shared library. It is safe to call more than once.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == 0 {
		return nil
	}
	if err := purego.Dlclose(l.handle); err != nil {
		return fmt.Errorf("dlclose %s failed: %w", l.path, err)
	}
	l.handle = 0
	return nil
}

func (l *Library) Engine() native.Engine               { return l.engine }
func (l *Library) Config() native.Config               { return l.config }
func (l *Library) ConfigManager() native.ConfigManager { return l.configMgr }
func (l *Library) Diagnostic() native.Diagnostic       { return l.diagnostic }
func (l *Library) Product() native.Product             { return l.product }

// text runs a call that writes a library-allocated C string through its
// out-parameter, copies the string and frees the original.
func (l *Library) text(fn func(out **byte) int64) (string, int64) {
	var p *byte
	rc := fn(&p)
	if p == nil {
		return "", rc
	}
	s := goString(p)
	l.free(unsafe.Pointer(p))
	return s, rc
}

func goString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

func handleOut(fn func(out *uintptr) int64) (native.Handle, int64) {
	var h uintptr
	rc := fn(&h)
	return native.Handle(h), rc
}

func int64Out(fn func(out *int64) int64) (int64, int64) {
	var v int64
	rc := fn(&v)
	return v, rc
}

// errorState binds the three last-error entry points of one sub-library.
type errorState struct {
	lib *Library

	lastException     func(buf *byte, size uint64) int64
	lastExceptionCode func() int64
	clearException    func()
}

func (s *errorState) errorSymbols(prefix string) []symbol {
	return []symbol{
		{prefix + "getLastException", &s.lastException},
		{prefix + "getLastExceptionCode", &s.lastExceptionCode},
		{prefix + "clearLastException", &s.clearException},
	}
}

func (s *errorState) GetLastException() string {
	buf := make([]byte, exceptionBufferSize)
	if n := s.lastException(&buf[0], uint64(len(buf))); n <= 0 {
		return ""
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf)
}

func (s *errorState) GetLastExceptionCode() int64 { return s.lastExceptionCode() }

func (s *errorState) ClearLastException() { s.clearException() }
