// Package mocksz provides an in-memory implementation of the native library
// for tests, examples and the CLI's --fake mode.
//
// The fake behaves like the real library where the sz package depends on it:
//
//   - Every entry point returns a status code and reports failures through a
//     per-component error slot keyed by OS thread, so a failure is only
//     visible on the thread that made the call until it is cleared.
//   - Calls made before Init or after Destroy fail with CodeNotInitialized.
//   - A new Library registers a bootstrap configuration declaring the TEST and
//     SEARCH data sources and makes it the default.
//   - Records referring to undeclared data sources fail with
//     CodeUnknownDataSource.
//   - ReplaceDefaultConfigID fails with CodeReplaceConflict when the current
//     default does not match.
//
// # Usage
//
//	lib := mocksz.New()
//	env, err := sz.NewRegistry().Build(ctx, sz.EnvOptions{Library: lib})
//	if err != nil {
//	    return err
//	}
//	defer env.Destroy()
//
// # Test hooks
//
// Method keys have the form "Component.Method", e.g. "Engine.AddRecord".
//
//	lib.FailNext("Engine.GetRecord", 1006, "connection lost")
//	lib.OnCall("Engine.GetStats", func() { <-release })
//	lib.Calls("Engine.Init")
//	lib.OpenHandles()
//
// # Limitations
//
// Every record resolves to its own entity and there are no relationships, so
// path, network and why results are structurally valid but trivial. Only the
// data source section of configuration documents is kept.
package mocksz
