package symbols

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a symbol table.
//
//	[[types]]
//	name = "Game.Player"
//	base = "Game.Entity"
//
//	[[types.methods]]
//	name = "Damage"
//	params = ["int32"]
//	return = "void"
type File struct {
	Types []TypeInfo `toml:"types" yaml:"types"`
}

// LoadFile parses a symbol table from a .toml, .yaml or .yml file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("symbols: cannot read %s: %w", path, err)
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("symbols: parse error in %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("symbols: parse error in %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("symbols: unsupported file extension %q", ext)
	}

	t := NewTable()
	for _, info := range f.Types {
		if err := t.Register(info); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return t, nil
}

// LoadFiles loads and merges several symbol files into one table.
func LoadFiles(paths ...string) (*Table, error) {
	t := NewTable()
	for _, p := range paths {
		ft, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		if err := t.Merge(ft); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return t, nil
}
