package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/chazu/bytepatch/pkg/bytecode"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "clamp-mod"
caller = "mods/clamp"

[policy]
force-preserve-count = true
fail-fast-on-critical = false
strict-build = true
critical-markers = ["must be static"]

[symbols]
files = ["symbols/game.toml"]

[log]
level = "debug"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "clamp-mod" {
		t.Errorf("project name = %q, want clamp-mod", m.Project.Name)
	}
	if m.Project.Caller != "mods/clamp" {
		t.Errorf("project caller = %q, want mods/clamp", m.Project.Caller)
	}

	p := m.Policy()
	if !p.ForcePreserveCount || p.FailFastOnCritical || !p.StrictBuild {
		t.Errorf("policy = %+v", p)
	}
	if len(p.CriticalMarkers) != 1 || !p.IsCritical("target Mods.Helper::X must be static") {
		t.Errorf("critical markers = %v", p.CriticalMarkers)
	}

	paths := m.SymbolPaths()
	if len(paths) != 1 || paths[0] != filepath.Join(m.Dir, "symbols", "game.toml") {
		t.Errorf("symbol paths = %v", paths)
	}
	if m.ZapLevel() != zapcore.DebugLevel {
		t.Errorf("zap level = %v, want debug", m.ZapLevel())
	}
	if m.Verbosity() != 2 {
		t.Errorf("verbosity = %d, want 2", m.Verbosity())
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "minimal"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Log.Level != "info" {
		t.Errorf("default log level = %q, want info", m.Log.Level)
	}
	if m.Project.Caller != "minimal" {
		t.Errorf("default caller = %q, want project name", m.Project.Caller)
	}
	if p := m.Policy(); !p.FailFastOnCritical || p.StrictBuild || p.ForcePreserveCount {
		t.Errorf("default policy = %+v", p)
	}
}

func TestLoadEmptyManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "")

	if _, err := Load(dir); err != nil {
		t.Errorf("Load(empty) error = %v", err)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "[policy]\nstrict = true\n"},
		{"wrong type", "[policy]\nstrict-build = \"yes\"\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
		{"empty symbol path", "[symbols]\nfiles = [\"\"]\n"},
		{"unknown table", "[image]\noutput = \"x\"\n"},
		{"malformed", "[policy\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tt.content)
			_, err := Load(dir)
			if err == nil {
				t.Fatal("Load accepted an invalid manifest")
			}
			if !strings.HasPrefix(err.Error(), "manifest: ") {
				t.Errorf("error = %q, want manifest prefix", err)
			}
		})
	}
}

func TestFindAndLoad(t *testing.T) {
	// Create nested directory structure
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, `[project]
name = "found-project"
`)

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no bytepatch.toml exists")
	}
}

func TestLoadSymbols(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "symbols"), 0755); err != nil {
		t.Fatal(err)
	}
	symbolSrc := `
[[types]]
name = "Mods.Helper"

[[types.methods]]
name = "Baz"
params = ["int32"]
return = "int32"
static = true
`
	if err := os.WriteFile(filepath.Join(dir, "symbols", "mods.toml"), []byte(symbolSrc), 0644); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, "[symbols]\nfiles = [\"symbols/mods.toml\"]\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := m.LoadSymbols()
	if err != nil {
		t.Fatalf("LoadSymbols failed: %v", err)
	}
	if _, err := tbl.LookupMethod(bytecode.T("Mods.Helper"), "Baz", nil); err != nil {
		t.Errorf("Baz not loaded: %v", err)
	}

	empty := &Manifest{Dir: dir}
	if _, err := empty.LoadSymbols(); err == nil {
		t.Error("LoadSymbols without files succeeded")
	}
}
