package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l := New(base).With(FieldEnvID, "env-1")

	l.Warn(context.Background(), "handle close failed", FieldHandleFamily, "config", Redacted("settings"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	want := map[string]any{
		"level":           "WARN",
		"msg":             "handle close failed",
		FieldEnvID:        "env-1",
		FieldHandleFamily: "config",
		"settings":        Placeholder(),
	}
	for k, v := range want {
		if rec[k] != v {
			t.Errorf("%s = %v, want %v", k, rec[k], v)
		}
	}
}

func TestSlogLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	ctx := context.Background()
	l.Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %q", buf.String())
	}
	l.Error(ctx, "shown", FieldErrorCode, int64(33))
	if !strings.Contains(buf.String(), "error_code=33") {
		t.Fatalf("error line missing code: %q", buf.String())
	}
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZap(zap.New(core)).With(FieldInstance, "szsafe")

	ctx := context.Background()
	l.Debug(ctx, "operation failed", FieldOperation, "Engine.GetRecord", FieldReturnCode, int64(33))
	l.Info(ctx, "environment built", Redacted("settings"))

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	first := entries[0].ContextMap()
	if entries[0].Level != zapcore.DebugLevel {
		t.Errorf("level = %v, want debug", entries[0].Level)
	}
	if first[FieldInstance] != "szsafe" {
		t.Errorf("%s = %v", FieldInstance, first[FieldInstance])
	}
	if first[FieldOperation] != "Engine.GetRecord" {
		t.Errorf("%s = %v", FieldOperation, first[FieldOperation])
	}
	if first[FieldReturnCode] != int64(33) {
		t.Errorf("%s = %v (%T)", FieldReturnCode, first[FieldReturnCode], first[FieldReturnCode])
	}

	second := entries[1].ContextMap()
	if entries[1].Message != "environment built" {
		t.Errorf("message = %q", entries[1].Message)
	}
	if second["settings"] != Placeholder() {
		t.Errorf("settings = %v, want placeholder", second["settings"])
	}
}

func TestNop(t *testing.T) {
	l := Nop().With("k", "v")
	l.Debug(context.Background(), "x")
	l.Info(context.Background(), "x")
	l.Warn(context.Background(), "x")
	l.Error(context.Background(), "x")
}
