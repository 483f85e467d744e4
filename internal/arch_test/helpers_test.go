package arch_test

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

const modulePath = "github.com/papapumpkin/relmenu"

// sourceFile is one parsed Go file from a package under internal/.
type sourceFile struct {
	Pkg   string
	Rel   string // path relative to the repository root
	Lines int
	AST   *ast.File
	Fset  *token.FileSet
}

// repoRoot walks up from the test's working directory to the directory
// holding go.mod.
func repoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found above the test directory")
		}
		dir = parent
	}
}

// internalPackages lists the directories under internal/ that hold Go code,
// arch_test excluded.
func internalPackages(t *testing.T) []string {
	t.Helper()
	root := filepath.Join(repoRoot(t), "internal")
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read %s: %v", root, err)
	}
	var pkgs []string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "arch_test" {
			continue
		}
		matches, _ := filepath.Glob(filepath.Join(root, e.Name(), "*.go"))
		if len(matches) > 0 {
			pkgs = append(pkgs, e.Name())
		}
	}
	sort.Strings(pkgs)
	return pkgs
}

// parsePackage parses the Go files of internal/<pkg>. Test files are included
// only when withTests is set.
func parsePackage(t *testing.T, pkg string, withTests bool) []sourceFile {
	t.Helper()
	root := repoRoot(t)
	paths, err := filepath.Glob(filepath.Join(root, "internal", pkg, "*.go"))
	if err != nil {
		t.Fatalf("glob %s: %v", pkg, err)
	}
	sort.Strings(paths)

	fset := token.NewFileSet()
	var files []sourceFile
	for _, path := range paths {
		isTest := strings.HasSuffix(path, "_test.go")
		if isTest && !withTests {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		f, err := parser.ParseFile(fset, path, data, parser.ParseComments)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		rel, _ := filepath.Rel(root, path)
		files = append(files, sourceFile{
			Pkg:   pkg,
			Rel:   filepath.ToSlash(rel),
			Lines: countLines(data),
			AST:   f,
			Fset:  fset,
		})
	}
	return files
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte("\n"))
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// internalImports returns the internal packages imported by files, by their
// directory name under internal/.
func internalImports(files []sourceFile) []string {
	prefix := modulePath + "/internal/"
	seen := make(map[string]bool)
	for _, f := range files {
		for _, imp := range f.AST.Imports {
			path := strings.Trim(imp.Path.Value, `"`)
			rel, ok := strings.CutPrefix(path, prefix)
			if !ok {
				continue
			}
			name, _, _ := strings.Cut(rel, "/")
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// parseSnippet parses src as a file of package pkg.
func parseSnippet(t *testing.T, pkg, src string) sourceFile {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, pkg+".go", "package "+pkg+"\n"+src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse snippet: %v", err)
	}
	return sourceFile{Pkg: pkg, Rel: "internal/" + pkg + "/" + pkg + ".go", AST: f, Fset: fset}
}

// pos formats the position of n within f for error messages.
func (f sourceFile) pos(n ast.Node) string {
	return f.Rel + ":" + strconv.Itoa(f.Fset.Position(n.Pos()).Line)
}
