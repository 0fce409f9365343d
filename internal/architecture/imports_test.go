package architecture_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// layerRules lists, per layer under internal/, the sibling trees it must not
// import.
var layerRules = map[string][]string{
	"domain":   {"data/", "services", "http", "app", "platform/", "observability", "skills/"},
	"skills":   {"data/", "services", "http", "app", "platform/"},
	"platform": {"data/", "services", "http", "app", "skills/"},
	"data":     {"services", "http", "app"},
	"services": {"http", "app"},
}

// transportFree layers may not import gin at all.
var transportFree = []string{"domain", "data", "services", "skills", "platform"}

type goImport struct {
	file string // module relative, slash separated
	path string
}

// moduleImports parses every non-test Go file under internal/ and returns its
// imports along with the module path.
func moduleImports(t *testing.T) (string, []goImport) {
	t.Helper()
	root := moduleRoot(t)
	raw, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		t.Fatalf("read go.mod: %v", err)
	}
	var modulePath string
	for _, line := range strings.Split(string(raw), "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "module "); ok {
			modulePath = strings.Trim(strings.TrimSpace(rest), `"`)
			break
		}
	}
	if modulePath == "" {
		t.Fatalf("module path not found in go.mod")
	}

	fset := token.NewFileSet()
	var out []goImport
	err = filepath.WalkDir(filepath.Join(root, "internal"), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return err
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		for _, spec := range f.Imports {
			if imp, err := strconv.Unquote(spec.Path.Value); err == nil {
				out = append(out, goImport{file: filepath.ToSlash(rel), path: imp})
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk internal/: %v", err)
	}
	return modulePath, out
}

func moduleRoot(t *testing.T) string {
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
			t.Fatalf("go.mod not found")
		}
		dir = parent
	}
}

// layerOf returns the first path element below internal/.
func layerOf(file string) string {
	rest, ok := strings.CutPrefix(file, "internal/")
	if !ok {
		return ""
	}
	layer, _, _ := strings.Cut(rest, "/")
	return layer
}

func TestImportBoundaries(t *testing.T) {
	modulePath, imports := moduleImports(t)
	internal := modulePath + "/internal/"

	var violations []string
	for _, imp := range imports {
		target, ok := strings.CutPrefix(imp.path, internal)
		if !ok {
			continue
		}
		for _, banned := range layerRules[layerOf(imp.file)] {
			if strings.HasPrefix(target, banned) {
				violations = append(violations, imp.file+" imports "+imp.path)
				break
			}
		}
	}
	if len(violations) > 0 {
		t.Fatalf("import boundary violations:\n- %s", strings.Join(violations, "\n- "))
	}
}

func TestCoreLayersStayTransportFree(t *testing.T) {
	_, imports := moduleImports(t)

	var offenders []string
	for _, imp := range imports {
		if !strings.HasPrefix(imp.path, "github.com/gin-gonic/") {
			continue
		}
		layer := layerOf(imp.file)
		for _, l := range transportFree {
			if layer == l {
				offenders = append(offenders, imp.file)
			}
		}
	}
	if len(offenders) > 0 {
		t.Fatalf("gin imported below the http layer:\n- %s", strings.Join(offenders, "\n- "))
	}
}
