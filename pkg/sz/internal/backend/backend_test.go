package backend

import (
	"path/filepath"
	"testing"
)

func TestOpenMissingLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libSz-missing.so")
	lib, err := Open(path)
	if err == nil {
		t.Fatalf("Open(%s) succeeded, want error", path)
	}
	if lib != nil {
		t.Fatalf("Open(%s) returned a library alongside %v", path, err)
	}
}
