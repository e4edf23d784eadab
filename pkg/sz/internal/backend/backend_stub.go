//go:build !linux && !darwin

package backend

import "github.com/szsafe/szsafe-go/pkg/sz/native"

// DefaultLibraryName is empty where loading is unsupported.
func DefaultLibraryName() string { return "" }

// Open always fails with ErrNotBuilt.
func Open(string) (native.Library, error) { return nil, ErrNotBuilt }
