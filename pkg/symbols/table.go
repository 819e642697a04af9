// Package symbols provides the type and member lookup service the patch
// engine uses instead of runtime reflection: a table of types with their
// base types, interfaces, methods and fields.
package symbols

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/chazu/bytepatch/pkg/bytecode"
)

var (
	// ErrNotFound is returned when a type or member does not exist.
	ErrNotFound = errors.New("symbol not found")

	// ErrAmbiguous is returned when several overloads match a lookup that
	// did not specify parameter types.
	ErrAmbiguous = errors.New("ambiguous symbol")
)

// MethodInfo describes a method declared on a type.
type MethodInfo struct {
	Name          string   `toml:"name" yaml:"name"`
	Params        []string `toml:"params" yaml:"params"`
	Return        string   `toml:"return" yaml:"return"`
	Static        bool     `toml:"static" yaml:"static"`
	GenericParams []string `toml:"generic-params" yaml:"generic-params"`
}

// FieldInfo describes a field declared on a type.
type FieldInfo struct {
	Name   string `toml:"name" yaml:"name"`
	Type   string `toml:"type" yaml:"type"`
	Static bool   `toml:"static" yaml:"static"`
}

// TypeInfo describes a type and the members it declares itself.
// Inherited members are found by walking Base.
type TypeInfo struct {
	Name       string       `toml:"name" yaml:"name"`
	Base       string       `toml:"base" yaml:"base"`
	Interfaces []string     `toml:"interfaces" yaml:"interfaces"`
	Methods    []MethodInfo `toml:"methods" yaml:"methods"`
	Fields     []FieldInfo  `toml:"fields" yaml:"fields"`
}

// Table manages registered types by name.
// It's safe for concurrent use so one table can serve parallel patch requests.
type Table struct {
	mu    sync.RWMutex
	types map[string]*TypeInfo
}

// NewTable creates a new empty table.
func NewTable() *Table {
	return &Table{
		types: make(map[string]*TypeInfo),
	}
}

// Register adds a type to the table.
// Returns an error if a type with this name is already registered.
func (t *Table) Register(info TypeInfo) error {
	if info.Name == "" {
		return fmt.Errorf("symbols: type has no name")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.types[info.Name]; ok {
		return fmt.Errorf("symbols: duplicate type %s", info.Name)
	}
	cp := info
	t.types[info.Name] = &cp
	return nil
}

// Merge registers every type of other. It stops at the first duplicate.
func (t *Table) Merge(other *Table) error {
	for _, info := range other.All() {
		if err := t.Register(info); err != nil {
			return err
		}
	}
	return nil
}

// Lookup finds a type by name.
func (t *Table) Lookup(name string) (TypeInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info, ok := t.types[name]
	if !ok {
		return TypeInfo{}, false
	}
	return *info, true
}

// Len returns the number of registered types.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.types)
}

// All returns all registered types sorted by name.
func (t *Table) All() []TypeInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]TypeInfo, 0, len(t.types))
	for _, info := range t.types {
		result = append(result, *info)
	}
	slices.SortFunc(result, func(a, b TypeInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result
}

// Ancestors returns the base types of name from immediate parent to root.
// Unknown base types end the chain.
func (t *Table) Ancestors(name string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var result []string
	seen := map[string]bool{name: true}
	for current := t.types[name]; current != nil && current.Base != ""; current = t.types[current.Base] {
		if seen[current.Base] {
			break
		}
		seen[current.Base] = true
		result = append(result, current.Base)
	}
	return result
}

// IsAssignable reports whether a value of type from can be used where to is
// expected: the same type, a base type, or an implemented interface
// (directly or through a base type). Two open generic parameters are
// always assignable to each other.
func (t *Table) IsAssignable(from, to bytecode.TypeRef) bool {
	if from.Open || to.Open {
		return from.Open && to.Open
	}
	if from.Name == to.Name {
		return true
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.reaches(from.Name, to.Name, make(map[string]bool))
}

func (t *Table) reaches(from, to string, seen map[string]bool) bool {
	if from == to {
		return true
	}
	if seen[from] {
		return false
	}
	seen[from] = true

	info, ok := t.types[from]
	if !ok {
		return false
	}
	if info.Base != "" && t.reaches(info.Base, to, seen) {
		return true
	}
	for _, iface := range info.Interfaces {
		if t.reaches(iface, to, seen) {
			return true
		}
	}
	return false
}

// LookupMethod finds a method by name on typ or its base types. When params
// is nil any overload matches, and more than one candidate on the same type
// is an ErrAmbiguous error. Otherwise parameter types must match exactly.
func (t *Table) LookupMethod(typ bytecode.TypeRef, name string, params []bytecode.TypeRef) (*bytecode.MethodRef, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if _, ok := t.types[typ.Name]; !ok {
		return nil, fmt.Errorf("symbols: type %s: %w", typ.Name, ErrNotFound)
	}

	seen := make(map[string]bool)
	for current := t.types[typ.Name]; current != nil && !seen[current.Name]; current = t.types[current.Base] {
		seen[current.Name] = true

		var found []MethodInfo
		for _, m := range current.Methods {
			if m.Name != name {
				continue
			}
			if params != nil && !paramsEqual(m.Params, params) {
				continue
			}
			found = append(found, m)
		}

		switch len(found) {
		case 0:
			continue
		case 1:
			return methodRef(current.Name, found[0]), nil
		default:
			return nil, fmt.Errorf("symbols: %s::%s has %d overloads, specify parameter types: %w",
				current.Name, name, len(found), ErrAmbiguous)
		}
	}
	return nil, fmt.Errorf("symbols: method %s::%s: %w", typ.Name, name, ErrNotFound)
}

// LookupField finds a field by name on typ or its base types.
func (t *Table) LookupField(typ bytecode.TypeRef, name string) (*bytecode.FieldRef, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[string]bool)
	for current := t.types[typ.Name]; current != nil && !seen[current.Name]; current = t.types[current.Base] {
		seen[current.Name] = true
		for _, f := range current.Fields {
			if f.Name == name {
				return &bytecode.FieldRef{
					DeclaringType: bytecode.T(current.Name),
					Name:          f.Name,
					Type:          bytecode.T(f.Type),
					Static:        f.Static,
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("symbols: field %s::%s: %w", typ.Name, name, ErrNotFound)
}

func methodRef(declaring string, m MethodInfo) *bytecode.MethodRef {
	ref := &bytecode.MethodRef{
		DeclaringType: bytecode.T(declaring),
		Name:          m.Name,
		Params:        typeRefs(m.Params),
		Static:        m.Static,
		Return:        bytecode.T(m.Return),
	}
	if len(m.GenericParams) > 0 {
		ref.Generic = true
		for _, g := range m.GenericParams {
			ref.GenericArgs = append(ref.GenericArgs, bytecode.GenericParam(g))
		}
	}
	return ref
}

func typeRefs(names []string) []bytecode.TypeRef {
	if len(names) == 0 {
		return nil
	}
	out := make([]bytecode.TypeRef, len(names))
	for i, n := range names {
		out[i] = bytecode.T(n)
	}
	return out
}

func paramsEqual(names []string, params []bytecode.TypeRef) bool {
	if len(names) != len(params) {
		return false
	}
	for i, n := range names {
		if params[i].Name != n {
			return false
		}
	}
	return true
}
