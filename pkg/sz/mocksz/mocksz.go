package mocksz

import (
	"sort"
	"sync"

	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

// Component names used in method keys such as "Engine.AddRecord".
const (
	Engine        = "Engine"
	Config        = "Config"
	ConfigManager = "ConfigManager"
	Diagnostic    = "Diagnostic"
	Product       = "Product"
)

// Handle families reported by Opened and Closed.
const (
	FamilyConfig = "config"
	FamilyExport = "export"
)

// Native codes produced by the fake.
const (
	CodeInvalidHandle     int64 = 2
	CodeNotInitialized    int64 = 48
	CodeNotFound          int64 = 33
	CodeEntityNotFound    int64 = 37
	CodeUnknownDataSource int64 = 2134
	CodeDataSourceMissing int64 = 2207
	CodeDataSourceExists  int64 = 7217
	CodeConfigNotFound    int64 = 7221
	CodeNoDefaultConfig   int64 = 7223
	CodeReplaceConflict   int64 = 7245
	CodeBadJSON           int64 = 30121
)

// BootstrapConfigID is the id of the configuration a new Library registers
// and makes the default. It declares the TEST and SEARCH data sources.
const BootstrapConfigID int64 = 1

// Failure scripts the outcome of one native call. ReturnCode is what the call
// returns; zero means Code. Code and Message are what the error state reports.
type Failure struct {
	ReturnCode int64
	Code       int64
	Message    string
}

type slotKey struct {
	component string
	thread    int
}

type lastError struct {
	code    int64
	message string
}

// Library is an in-memory native.Library. The zero value is not usable; call
// New.
type Library struct {
	mu sync.Mutex

	slots    map[slotKey]lastError
	live     map[string]bool
	calls    map[string]int
	flags    map[string]int64
	failures map[string][]Failure
	hooks    map[string]func()
	settings string

	configs         map[int64]registeredConfig
	nextConfigID    int64
	defaultConfigID int64
	activeConfigID  int64

	nextHandle    native.Handle
	configHandles map[native.Handle]*configDocument
	exportHandles map[native.Handle]*exportCursor
	opened        map[string]int
	closed        map[string]int
	exportChunks  []string

	records      map[recordKey]*record
	entities     map[int64]recordKey
	nextEntityID int64
	redo         []string
	stats        workload

	engine     *engine
	config     *config
	configMgr  *configManager
	diagnostic *diagnostic
	product    *product
}

var _ native.Library = (*Library)(nil)

// New returns a Library whose repository holds the bootstrap configuration
// and no records.
func New() *Library {
	l := &Library{
		slots:         make(map[slotKey]lastError),
		live:          make(map[string]bool),
		calls:         make(map[string]int),
		flags:         make(map[string]int64),
		failures:      make(map[string][]Failure),
		hooks:         make(map[string]func()),
		configs:       make(map[int64]registeredConfig),
		nextConfigID:  BootstrapConfigID,
		nextHandle:    1,
		configHandles: make(map[native.Handle]*configDocument),
		exportHandles: make(map[native.Handle]*exportCursor),
		opened:        make(map[string]int),
		closed:        make(map[string]int),
		records:       make(map[recordKey]*record),
		entities:      make(map[int64]recordKey),
		nextEntityID:  1,
	}
	id := l.registerLocked(templateDocument(), "bootstrap")
	l.defaultConfigID = id

	l.engine = &engine{component{l, Engine}}
	l.config = &config{component{l, Config}}
	l.configMgr = &configManager{component{l, ConfigManager}}
	l.diagnostic = &diagnostic{component{l, Diagnostic}}
	l.product = &product{component{l, Product}}
	return l
}

func (l *Library) Engine() native.Engine               { return l.engine }
func (l *Library) Config() native.Config               { return l.config }
func (l *Library) ConfigManager() native.ConfigManager { return l.configMgr }
func (l *Library) Diagnostic() native.Diagnostic       { return l.diagnostic }
func (l *Library) Product() native.Product             { return l.product }

// FailNext makes the next call of method, e.g. "Engine.GetRecord", fail with
// code and message.
func (l *Library) FailNext(method string, code int64, message string) {
	l.Fail(method, Failure{Code: code, Message: message})
}

// Fail queues f for the next call of method. Queued failures are consumed in
// order, one per call.
func (l *Library) Fail(method string, f Failure) {
	l.mu.Lock()
	l.failures[method] = append(l.failures[method], f)
	l.mu.Unlock()
}

// OnCall runs fn at the start of every call of method, before the call takes
// effect and without any fake lock held. Tests use it to hold a call open.
// A nil fn removes the hook.
func (l *Library) OnCall(method string, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if fn == nil {
		delete(l.hooks, method)
		return
	}
	l.hooks[method] = fn
}

// Calls returns how many times method has been called.
func (l *Library) Calls(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[method]
}

// LastFlags returns the flags argument of the latest call of method.
func (l *Library) LastFlags(method string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flags[method]
}

// Initialized reports whether component has been initialised and not
// destroyed since.
func (l *Library) Initialized(component string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live[component]
}

// Settings returns the settings document of the latest Init call.
func (l *Library) Settings() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// PendingErrors returns the number of error-state slots that have been set
// and not cleared, across every component and thread.
func (l *Library) PendingErrors() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

// OpenHandles returns the number of config and export handles not yet closed.
func (l *Library) OpenHandles() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.configHandles) + len(l.exportHandles)
}

// Opened returns how many handles of family have been handed out.
func (l *Library) Opened(family string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opened[family]
}

// Closed returns how many handles of family have been closed.
func (l *Library) Closed(family string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed[family]
}

// SetExportChunks makes export cursors opened afterwards yield chunks
// verbatim instead of the repository contents. No arguments restores the
// default.
func (l *Library) SetExportChunks(chunks ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.exportChunks = append([]string(nil), chunks...)
}

// QueueRedo appends a redo record to the pending queue.
func (l *Library) QueueRedo(redoRecord string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.redo = append(l.redo, redoRecord)
}

// DataSources returns the data source codes of the active configuration, or of
// the default one when the engine is not running.
func (l *Library) DataSources() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.activeConfigID
	if id == 0 {
		id = l.defaultConfigID
	}
	cfg, ok := l.configs[id]
	if !ok {
		return nil
	}
	codes := cfg.doc.codes()
	sort.Strings(codes)
	return codes
}

// component implements native.ErrorState and the call plumbing shared by the
// sub-libraries.
type component struct {
	l    *Library
	name string
}

func (c component) GetLastException() string {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	return c.l.slots[slotKey{c.name, threadID()}].message
}

func (c component) GetLastExceptionCode() int64 {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	return c.l.slots[slotKey{c.name, threadID()}].code
}

func (c component) ClearLastException() {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	delete(c.l.slots, slotKey{c.name, threadID()})
}

// do runs one native call. fn runs with the library lock held and reports
// failures through c.fail.
func (c component) do(method string, requireInit bool, fn func() int64) int64 {
	key := c.name + "." + method
	l := c.l

	l.mu.Lock()
	l.calls[key]++
	hook := l.hooks[key]
	var scripted *Failure
	if q := l.failures[key]; len(q) > 0 {
		scripted = &q[0]
		l.failures[key] = q[1:]
	}
	l.mu.Unlock()

	if hook != nil {
		hook()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if scripted != nil {
		rc := scripted.ReturnCode
		if rc == 0 {
			rc = scripted.Code
		}
		l.slots[slotKey{c.name, threadID()}] = lastError{code: scripted.Code, message: scripted.Message}
		return rc
	}
	if requireInit && !l.live[c.name] {
		return c.fail(CodeNotInitialized, "%s is not initialized", c.name)
	}
	return fn()
}

// noteFlags records the flags of a call; the library lock must be held.
func (c component) noteFlags(method string, flags int64) {
	c.l.flags[c.name+"."+method] = flags
}
