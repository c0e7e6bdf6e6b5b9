// Package testutil provides test helpers that enforce import boundaries, such
// as keeping the rotor core free of internal and third-party packages.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// ThirdPartyImport matches import paths outside the standard library, which
// always carry a dot in their first element (github.com/..., golang.org/x/...).
func ThirdPartyImport(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return strings.Contains(first, ".")
}

// InternalImportForbidden matches any import path containing /internal/.
func InternalImportForbidden(path string) bool {
	return strings.Contains(path, "/internal/")
}

// ModuleImportExcept returns a predicate matching packages of module other
// than the allowed ones.
func ModuleImportExcept(module string, allowed ...string) func(string) bool {
	return func(path string) bool {
		if !within(path, module) {
			return false
		}
		for _, a := range allowed {
			if path == a {
				return false
			}
		}
		return true
	}
}

// StdlibOnlyExcept combines ThirdPartyImport with ModuleImportExcept: it
// matches everything a package limited to the standard library must not use.
func StdlibOnlyExcept(module string, allowed ...string) func(string) bool {
	inModule := ModuleImportExcept(module, allowed...)
	return func(path string) bool {
		return ThirdPartyImport(path) || inModule(path)
	}
}

// AssertNoDirectImports parses the non-test .go files in dir and fails if any
// import path matches forbidden. Build tags are not evaluated.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	report(t, "direct imports", reason, viols)
}

// AssertNoTransitiveDependency loads pattern with its full dependency graph
// and fails if any package reached from it matches forbidden.
func AssertNoTransitiveDependency(t testing.TB, pattern string, forbidden func(string) bool, reason string) {
	t.Helper()
	pkgs, err := packages.Load(&packages.Config{Mode: packages.NeedName | packages.NeedImports | packages.NeedDeps}, pattern)
	if err != nil {
		t.Fatalf("load %s: %v", pattern, err)
	}
	report(t, "transitive dependency", reason, dependencyViolations(pkgs, forbidden))
}

// AssertOnlyImportedBy loads pattern, test files included, and fails if a
// package outside target and the allowed trees imports anything under target.
func AssertOnlyImportedBy(t testing.TB, pattern, target string, allowed ...string) {
	t.Helper()
	pkgs, err := packages.Load(&packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}, pattern)
	if err != nil {
		t.Fatalf("load %s: %v", pattern, err)
	}
	report(t, "importers", target+" is reserved for "+strings.Join(allowed, ", "), importerViolations(pkgs, target, allowed))
}

func directImportViolations(dir string, forbidden func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	seen := make(map[string]struct{})
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range f.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				return nil, err
			}
			if forbidden(path) {
				seen[path+" (in "+name+")"] = struct{}{}
			}
		}
	}
	return sortedKeys(seen), nil
}

func dependencyViolations(roots []*packages.Package, forbidden func(string) bool) []string {
	seen := make(map[string]struct{})
	packages.Visit(roots, func(p *packages.Package) bool {
		if forbidden(p.PkgPath) {
			seen[p.PkgPath] = struct{}{}
		}
		return true
	}, nil)
	return sortedKeys(seen)
}

func importerViolations(pkgs []*packages.Package, target string, allowed []string) []string {
	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		owner := strings.TrimSuffix(strings.TrimSuffix(pkg.PkgPath, ".test"), "_test")
		if within(owner, target) || withinAny(owner, allowed) {
			continue
		}
		for path := range pkg.Imports {
			if within(path, target) {
				seen[owner+": "+path] = struct{}{}
			}
		}
	}
	return sortedKeys(seen)
}

func within(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+"/")
}

func withinAny(path string, roots []string) bool {
	for _, r := range roots {
		if within(path, r) {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func report(t fatalLogger, kind, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden %s (%s):\n%s", kind, reason, strings.Join(viols, "\n"))
	}
}
