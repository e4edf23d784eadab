// Package sz is a concurrency-safe Go binding for a native entity-resolution
// library whose entry points share process-wide state.
//
// An [Environment] is built on a [Registry] and is the only way to reach the
// native layer. Capability modules ([Engine], [Diagnostic], [ConfigManager],
// [Product]) are initialised lazily on first use. Every operation runs under
// the environment's shared lock; [Environment.Destroy] takes the exclusive
// lock, waits for operations already in progress and rejects new ones with
// [ErrDestroyed].
//
// Native failures surface as *[Error] values carrying a [Category] and the
// native code and message. Use errors.Is with the category sentinels, e.g.
// errors.Is(err, sz.ErrNotFound). NotFound and UnknownDataSource failures
// also match [ErrBadInput].
//
// Transient native handles never escape an operation except for [Export]
// cursors, which must be closed. [Config] values are plain in-memory
// snapshots of a configuration definition.
package sz
