// Package native describes the boundary to the native entity-resolution
// library as plain Go interfaces.
//
// The native library is reached only through calls that take primitive values
// and UTF-8 text and return an integer status code. A zero status means
// success; anything else means the caller must read the failure details from
// the sub-library's [ErrorState] on the same OS thread and then clear it.
// Transient resources are identified by opaque [Handle] values which must be
// closed exactly once.
//
// Nothing in this package is safe to call directly from application code. The
// sz package wraps every call in the environment guard, the error translator
// and, where handles are involved, the handle scope. Implementations live in
// sz/internal/backend (the shared library, loaded at run time) and sz/mocksz
// (an in-memory fake for tests).
package native
