// Package logging is the logger contract the sz wrapper writes through.
//
// Every method takes the caller's context so handlers can pull request-scoped
// values, and With returns a child logger carrying extra attributes. Two
// adapters are provided, one over log/slog and one over zap, plus Nop for
// callers that want silence:
//
//	env, err := sz.Build(ctx, sz.EnvOptions{
//	    Logger: logging.NewZap(zap.Must(zap.NewProduction())),
//	})
//
// Field names shared by the wrapper's log lines (environment id, operation,
// category, native code) are exported as Field* constants so dashboards can
// key on them.
//
// # Settings
//
// The settings document handed to the native library usually embeds database
// credentials. It must never reach a logger in clear; log the placeholder
// instead:
//
//	logger.Info(ctx, "environment built", logging.Redacted("settings"))
//
// pkg/sz/internalcheck fails the build's tests when the sz package passes the
// settings value to any Logger method.
package logging
