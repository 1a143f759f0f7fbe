package architecture_test

import (
	"bufio"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Layering, outermost first: http -> services -> data -> domain, with
// platform underneath everything. The calculation packages (growth,
// biomass) stay free of module-internal imports so they remain portable,
// and the alert bus client knows nothing above platform.
var layerRules = []struct {
	prefix     string
	disallowed []string
}{
	{"internal/growth/", []string{"internal/"}},
	{"internal/biomass/", []string{"internal/"}},
	{"internal/platform/", []string{
		"internal/domain/",
		"internal/data/",
		"internal/services/",
		"internal/http/",
		"internal/app/",
		"internal/clients/",
		"internal/observability/",
	}},
	{"internal/domain/", []string{
		"internal/platform/",
		"internal/data/",
		"internal/services/",
		"internal/http/",
		"internal/app/",
		"internal/clients/",
	}},
	{"internal/clients/", []string{
		"internal/domain/",
		"internal/data/",
		"internal/services/",
		"internal/http/",
		"internal/app/",
	}},
	{"internal/data/", []string{
		"internal/services/",
		"internal/http/",
		"internal/app/",
		"internal/clients/",
	}},
	{"internal/services/", []string{
		"internal/http/",
		"internal/app/",
	}},
	{"internal/http/", []string{
		"internal/app/",
	}},
}

func TestLayerImports(t *testing.T) {
	root, modulePath := moduleInfo(t)

	type violation struct {
		file string
		imp  string
		rule string
	}
	var violations []violation

	walkInternalGoFiles(t, root, func(rel string, imports []string) {
		var disallowed []string
		for _, rule := range layerRules {
			if strings.HasPrefix(rel, rule.prefix) {
				disallowed = rule.disallowed
				break
			}
		}
		if len(disallowed) == 0 {
			return
		}
		for _, imp := range imports {
			for _, bad := range disallowed {
				if strings.HasPrefix(imp, modulePath+"/"+bad) {
					violations = append(violations, violation{file: rel, imp: imp, rule: bad})
					break
				}
			}
		}
	})

	if len(violations) > 0 {
		var b strings.Builder
		b.WriteString("layer violations:\n")
		for _, v := range violations {
			fmt.Fprintf(&b, "- %s imports %q (layer forbids %q)\n", v.file, v.imp, v.rule)
		}
		t.Fatal(b.String())
	}
}

// The redis alert bus is consumed through its interface in services and
// constructed in app. Nothing else may reach into internal/clients.
func TestClientImportsConfinedToWiringLayers(t *testing.T) {
	root, modulePath := moduleInfo(t)

	allowed := []string{"internal/clients/", "internal/services/", "internal/app/"}

	type violation struct {
		file string
		imp  string
	}
	var violations []violation

	walkInternalGoFiles(t, root, func(rel string, imports []string) {
		for _, prefix := range allowed {
			if strings.HasPrefix(rel, prefix) {
				return
			}
		}
		for _, imp := range imports {
			if strings.HasPrefix(imp, modulePath+"/internal/clients/") {
				violations = append(violations, violation{file: rel, imp: imp})
			}
		}
	})

	if len(violations) > 0 {
		var b strings.Builder
		b.WriteString("internal/clients imported outside services/app wiring:\n")
		for _, v := range violations {
			fmt.Fprintf(&b, "- %s imports %q\n", v.file, v.imp)
		}
		t.Fatal(b.String())
	}
}

// walkInternalGoFiles parses every .go file under internal/ (imports only)
// and hands the visitor the path relative to the module root plus the
// file's import paths.
func walkInternalGoFiles(t *testing.T, root string, visit func(rel string, imports []string)) {
	t.Helper()

	fset := token.NewFileSet()
	internalDir := filepath.Join(root, "internal")

	err := filepath.WalkDir(internalDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "vendor", "testdata":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		imports := make([]string, 0, len(f.Imports))
		for _, spec := range f.Imports {
			if spec == nil || spec.Path == nil {
				continue
			}
			imp, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				continue
			}
			imports = append(imports, imp)
		}
		visit(rel, imports)
		return nil
	})
	if err != nil {
		t.Fatalf("walk internal/: %v", err)
	}
}

func moduleInfo(t *testing.T) (root, modulePath string) {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		goMod := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goMod); err == nil {
			mp, err := modulePathFrom(goMod)
			if err != nil {
				t.Fatalf("module path: %v", err)
			}
			return dir, mp
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found above test directory")
		}
		dir = parent
	}
}

func modulePathFrom(goMod string) (string, error) {
	f, err := os.Open(goMod)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if mp, ok := strings.CutPrefix(line, "module "); ok {
			mp = strings.TrimSpace(mp)
			if mp == "" {
				break
			}
			return mp, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("module directive missing in %s", goMod)
}
