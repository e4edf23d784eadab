package internalcheck

import (
	"go/types"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const szPackage = "github.com/szsafe/szsafe-go/pkg/sz"

func loadSZ(t *testing.T) []*packages.Package {
	t.Helper()
	cfg := &packages.Config{
		Mode: packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedFiles | packages.NeedName,
	}
	pkgs, err := packages.Load(cfg, szPackage)
	if err != nil {
		t.Fatalf("load package: %v", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		t.Fatalf("package %s has errors", szPackage)
	}
	return pkgs
}

// methodOf reports whether obj is a method declared on a type from a package
// whose path ends in pkgSuffix.
func methodOf(obj types.Object, pkgSuffix string) bool {
	fn, ok := obj.(*types.Func)
	if !ok {
		return false
	}
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return false
	}
	return strings.Contains(types.TypeString(sig.Recv().Type(), nil), pkgSuffix+".")
}
