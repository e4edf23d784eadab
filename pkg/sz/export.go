package sz

import (
	"context"
	"io"
	"runtime"
	"sync"

	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

// Export is an open export cursor. Next and Close may be called from any
// goroutine; calls are serialized. Each Next and Close is a separate guarded
// operation, so an open cursor does not hold up Destroy. After Destroy the
// cursor only returns ErrDestroyed.
type Export struct {
	engine *Engine

	mu     sync.Mutex
	handle native.Handle
	closed bool
}

func newExport(m *Engine, h native.Handle) *Export {
	x := &Export{engine: m, handle: h}
	runtime.SetFinalizer(x, func(x *Export) { _ = x.Close() })
	return x
}

// Next returns the next chunk of the report. It returns io.EOF once the
// report is exhausted and ErrExportClosed after Close.
func (x *Export) Next(ctx context.Context) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return "", ErrExportClosed
	}
	chunk, err := x.engine.FetchNext(ctx, x.handle)
	if err != nil {
		return "", err
	}
	if chunk == "" {
		return "", io.EOF
	}
	return chunk, nil
}

// Close releases the native cursor. Only the first call reaches the native
// layer; later calls return nil.
func (x *Export) Close() error {
	if x == nil {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil
	}
	x.closed = true
	runtime.SetFinalizer(x, nil)
	return x.engine.CloseExport(context.Background(), x.handle)
}

// ExportJSONEntityReport opens a cursor over every entity as JSON lines.
// The caller must Close it.
func (m *Engine) ExportJSONEntityReport(ctx context.Context, flags Flags) (*Export, error) {
	h, err := execute(ctx, m.env, "Engine.ExportJSONEntityReport", func() (native.Handle, error) {
		return m.openExport(func() (native.Handle, int64) { return m.native.ExportJSONEntityReport(flags.Native()) })
	})
	if err != nil {
		return nil, err
	}
	return newExport(m, h), nil
}

// ExportCSVEntityReport opens a cursor over every entity as CSV with the
// given column list; "*" selects every column. The caller must Close it.
func (m *Engine) ExportCSVEntityReport(ctx context.Context, csvColumnList string, flags Flags) (*Export, error) {
	h, err := execute(ctx, m.env, "Engine.ExportCSVEntityReport", func() (native.Handle, error) {
		return m.openExport(func() (native.Handle, int64) {
			return m.native.ExportCSVEntityReport(csvColumnList, flags.Native())
		})
	})
	if err != nil {
		return nil, err
	}
	return newExport(m, h), nil
}

func (m *Engine) openExport(open func() (native.Handle, int64)) (native.Handle, error) {
	h, err := callValue(m.native, open)
	if err == nil {
		m.env.metrics.handleEvent(familyExport, "open")
	}
	return h, err
}

// FetchNext reads the next chunk from a raw export handle. An empty chunk
// marks the end of the report.
func (m *Engine) FetchNext(ctx context.Context, exportHandle native.Handle) (string, error) {
	return execute(ctx, m.env, "Engine.FetchNext", func() (string, error) {
		return callValue(m.native, func() (string, int64) { return m.native.FetchNext(exportHandle) })
	})
}

// CloseExport releases a raw export handle.
func (m *Engine) CloseExport(ctx context.Context, exportHandle native.Handle) error {
	return run(ctx, m.env, "Engine.CloseExport", func() error {
		m.env.metrics.handleEvent(familyExport, "close")
		return call(m.native, func() int64 { return m.native.CloseExport(exportHandle) })
	})
}

// StreamJSONEntityReport exports every entity as JSON lines and hands each
// chunk to fn. The whole stream is one guarded operation, so Destroy waits
// for it, and the cursor is closed on every exit path. A failure of fn or of
// a fetch takes precedence over a close failure. fn must not call back into
// the environment.
func (m *Engine) StreamJSONEntityReport(ctx context.Context, flags Flags, fn func(chunk string) error) error {
	return m.stream(ctx, "Engine.StreamJSONEntityReport", func() (native.Handle, int64) {
		return m.native.ExportJSONEntityReport(flags.Native())
	}, fn)
}

// StreamCSVEntityReport is StreamJSONEntityReport for CSV output.
func (m *Engine) StreamCSVEntityReport(ctx context.Context, csvColumnList string, flags Flags, fn func(chunk string) error) error {
	return m.stream(ctx, "Engine.StreamCSVEntityReport", func() (native.Handle, int64) {
		return m.native.ExportCSVEntityReport(csvColumnList, flags.Native())
	}, fn)
}

func (m *Engine) stream(ctx context.Context, op string, open func() (native.Handle, int64), fn func(string) error) error {
	return run(ctx, m.env, op, func() error {
		_, err := withHandle(m.env, familyExport,
			func() (native.Handle, error) { return m.openExport(open) },
			func(h native.Handle) error {
				m.env.metrics.handleEvent(familyExport, "close")
				return call(m.native, func() int64 { return m.native.CloseExport(h) })
			},
			func(h native.Handle) (struct{}, error) {
				for {
					chunk, err := callValue(m.native, func() (string, int64) { return m.native.FetchNext(h) })
					if err != nil {
						return struct{}{}, err
					}
					if chunk == "" {
						return struct{}{}, nil
					}
					if err := fn(chunk); err != nil {
						return struct{}{}, err
					}
				}
			},
		)
		return err
	})
}

var _ io.Closer = (*Export)(nil)
