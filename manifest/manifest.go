// Package manifest handles bytepatch.toml project configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"

	"github.com/chazu/bytepatch/pkg/patch"
	"github.com/chazu/bytepatch/pkg/symbols"
)

// FileName is the manifest file looked up by Load and FindAndLoad.
const FileName = "bytepatch.toml"

// Manifest represents a bytepatch.toml project configuration.
type Manifest struct {
	Project Project      `toml:"project"`
	Safety  PolicyConfig `toml:"policy"`
	Symbols Symbols      `toml:"symbols"`
	Log     Log          `toml:"log"`

	// Dir is the directory containing the bytepatch.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name   string `toml:"name"`
	Caller string `toml:"caller"`
}

// PolicyConfig mirrors patch.Policy.
type PolicyConfig struct {
	ForcePreserveCount bool     `toml:"force-preserve-count"`
	FailFastOnCritical *bool    `toml:"fail-fast-on-critical"`
	StrictBuild        bool     `toml:"strict-build"`
	CriticalMarkers    []string `toml:"critical-markers"`
}

// Symbols lists symbol table files, relative to the manifest directory.
type Symbols struct {
	Files []string `toml:"files"`
}

// Log configures diagnostics output.
type Log struct {
	Level string `toml:"level"`
}

// Load parses a bytepatch.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: cannot read %s: %w", path, err)
	}
	return parse(path, dir, data)
}

func parse(path, dir string, data []byte) (*Manifest, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("manifest: parse error in %s: %w", path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse error in %s: %w", path, err)
	}

	var err error
	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("manifest: cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Log.Level == "" {
		m.Log.Level = "info"
	}
	if m.Project.Caller == "" {
		m.Project.Caller = m.Project.Name
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a bytepatch.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Policy converts the [policy] table. Fail-fast defaults to on.
func (m *Manifest) Policy() patch.Policy {
	p := patch.DefaultPolicy()
	p.ForcePreserveCount = m.Safety.ForcePreserveCount
	p.StrictBuild = m.Safety.StrictBuild
	p.CriticalMarkers = append([]string(nil), m.Safety.CriticalMarkers...)
	if m.Safety.FailFastOnCritical != nil {
		p.FailFastOnCritical = *m.Safety.FailFastOnCritical
	}
	return p
}

// SymbolPaths returns absolute paths for the configured symbol files.
func (m *Manifest) SymbolPaths() []string {
	var paths []string
	for _, f := range m.Symbols.Files {
		if filepath.IsAbs(f) {
			paths = append(paths, f)
			continue
		}
		paths = append(paths, filepath.Join(m.Dir, f))
	}
	return paths
}

// LoadSymbols loads and merges every configured symbol file.
func (m *Manifest) LoadSymbols() (*symbols.Table, error) {
	if len(m.Symbols.Files) == 0 {
		return nil, errors.New("manifest: no symbol files configured")
	}
	return symbols.LoadFiles(m.SymbolPaths()...)
}

// ZapLevel returns the configured level for a zap logger.
func (m *Manifest) ZapLevel() zapcore.Level {
	switch m.Log.Level {
	case "debug":
		return zapcore.DebugLevel
	case "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// Verbosity returns the configured level as a commonlog verbosity.
func (m *Manifest) Verbosity() int {
	switch m.Log.Level {
	case "debug":
		return 2
	case "warning":
		return -1
	case "error":
		return -2
	}
	return 1
}
