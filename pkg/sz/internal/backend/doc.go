// Package backend loads the native entity-resolution library at run time and
// exposes it as a native.Library.
//
// Loading uses purego, so binaries build without cgo. Each sub-library binds
// to C entry points that take primitive arguments, write results through
// out-parameters and return an int64 status code. Text results are allocated
// by the library and released with SzHelper_free once copied.
//
// Only linux and darwin are supported; elsewhere Open returns ErrNotBuilt.
package backend
