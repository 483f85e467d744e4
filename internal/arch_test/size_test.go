package arch_test

import (
	"go/ast"
	"testing"
)

const (
	maxFilesPerPackage = 20
	maxLinesPerFile    = 400
)

func TestPackageFileCount(t *testing.T) {
	t.Parallel()

	for _, pkg := range internalPackages(t) {
		if n := len(parsePackage(t, pkg, false)); n > maxFilesPerPackage {
			t.Errorf("internal/%s has %d non-test files (limit %d); split it", pkg, n, maxFilesPerPackage)
		}
	}
}

// Test files count against the limit too.
func TestFileLineCount(t *testing.T) {
	t.Parallel()

	for _, pkg := range internalPackages(t) {
		for _, f := range parsePackage(t, pkg, true) {
			if ast.IsGenerated(f.AST) {
				continue
			}
			if f.Lines > maxLinesPerFile {
				t.Errorf("%s has %d lines (limit %d); decompose it", f.Rel, f.Lines, maxLinesPerFile)
			}
		}
	}
}
