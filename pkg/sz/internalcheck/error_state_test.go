package internalcheck

import (
	"fmt"
	"go/ast"
	"strings"
	"testing"
)

// errorStateReader is the only function allowed to touch the native error
// state.
const errorStateReader = "translate"

func TestErrorStateOnlyReadByTranslator(t *testing.T) {
	pkgs := loadSZ(t)

	var findings []string
	var seen int
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			fset := pkg.Fset
			for _, decl := range file.Decls {
				fn, ok := decl.(*ast.FuncDecl)
				if !ok || fn.Body == nil {
					continue
				}
				ast.Inspect(fn.Body, func(n ast.Node) bool {
					selector, ok := n.(*ast.SelectorExpr)
					if !ok {
						return true
					}
					switch selector.Sel.Name {
					case "GetLastException", "GetLastExceptionCode", "ClearLastException":
					default:
						return true
					}
					obj := pkg.TypesInfo.Uses[selector.Sel]
					if obj == nil || !methodOf(obj, "pkg/sz/native") {
						return true
					}
					if fn.Name.Name == errorStateReader && fn.Recv == nil {
						seen++
						return true
					}
					findings = append(findings, fmt.Sprintf("%s: %s used outside %s",
						fset.Position(selector.Pos()), selector.Sel.Name, errorStateReader))
					return true
				})
			}
		}
	}

	if len(findings) > 0 {
		t.Fatalf("error state policy violation:\n%s", strings.Join(findings, "\n"))
	}
	if seen != 3 {
		t.Fatalf("expected %s to read, read and clear the error state, found %d uses", errorStateReader, seen)
	}
}
