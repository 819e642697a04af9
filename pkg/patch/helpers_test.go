package patch

import (
	"sync"
	"testing"

	"github.com/chazu/bytepatch/pkg/bytecode"
	"github.com/chazu/bytepatch/pkg/symbols"
)

var (
	int32T   = bytecode.T("int32")
	float32T = bytecode.T("float32")

	entityDamage = &bytecode.MethodRef{
		DeclaringType: bytecode.T("Game.Entity"),
		Name:          "Damage",
		Params:        []bytecode.TypeRef{int32T},
	}
	playerHealth = &bytecode.MethodRef{
		DeclaringType: bytecode.T("Game.Player"),
		Name:          "get_Health",
		Return:        int32T,
	}
	mathMax = &bytecode.MethodRef{
		DeclaringType: bytecode.T("System.Math"),
		Name:          "Max",
		Params:        []bytecode.TypeRef{float32T, float32T},
		Return:        float32T,
		Static:        true,
	}
	helperBaz = &bytecode.MethodRef{
		DeclaringType: bytecode.T("Mods.Helper"),
		Name:          "Baz",
		Params:        []bytecode.TypeRef{int32T},
		Return:        int32T,
		Static:        true,
	}
	helperConst = &bytecode.MethodRef{
		DeclaringType: bytecode.T("Mods.Helper"),
		Name:          "Const",
		Return:        float32T,
		Static:        true,
	}
	healthField = &bytecode.FieldRef{
		DeclaringType: bytecode.T("Game.Player"),
		Name:          "health",
		Type:          int32T,
	}
)

func ldc(v int64) bytecode.Instruction {
	return bytecode.New(bytecode.OpLdcI4, bytecode.Int(v))
}

func ldcf(v float64) bytecode.Instruction {
	return bytecode.New(bytecode.OpLdcR4, bytecode.Float(v))
}

func op(o bytecode.Opcode) bytecode.Instruction {
	return bytecode.New(o)
}

func labeled(ins bytecode.Instruction, labels ...bytecode.Label) bytecode.Instruction {
	return ins.AddLabels(labels...)
}

func voidMethod(name string) *bytecode.MethodMetadata {
	return &bytecode.MethodMetadata{DeclaringType: bytecode.T("Game.Player"), Name: name}
}

func intMethod(name string) *bytecode.MethodMetadata {
	return &bytecode.MethodMetadata{DeclaringType: bytecode.T("Game.Player"), Name: name, Return: int32T}
}

func gameSymbols(t *testing.T) *symbols.Table {
	t.Helper()
	tbl := symbols.NewTable()
	for _, info := range []symbols.TypeInfo{
		{Name: "System.Object"},
		{Name: "Game.Entity", Base: "System.Object", Methods: []symbols.MethodInfo{
			{Name: "Damage", Params: []string{"int32"}},
		}},
		{Name: "Game.Player", Base: "Game.Entity", Methods: []symbols.MethodInfo{
			{Name: "get_Health", Return: "int32"},
		}},
		{Name: "Mods.Helper", Methods: []symbols.MethodInfo{
			{Name: "Baz", Params: []string{"int32"}, Return: "int32", Static: true},
			{Name: "Const", Return: "float32", Static: true},
			{Name: "Instance", Params: []string{"int32"}},
			{Name: "Make", Static: true, GenericParams: []string{"T"}},
		}},
	} {
		if err := tbl.Register(info); err != nil {
			t.Fatal(err)
		}
	}
	return tbl
}

// recordSink collects everything a cursor flushes.
type recordSink struct {
	mu       sync.Mutex
	warnings []string
	notices  []string
}

func (s *recordSink) Warning(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, line)
}

func (s *recordSink) Notice(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, line)
}

func (s *recordSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.warnings), len(s.notices)
}
