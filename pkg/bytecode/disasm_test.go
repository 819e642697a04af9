package bytecode

import (
	"strings"
	"testing"
)

func TestDisassembleEmpty(t *testing.T) {
	m := &Method{Meta: MethodMetadata{DeclaringType: T("Game.Player"), Name: "Tick"}}

	output := m.Disassemble()

	if !strings.Contains(output, "=== Game.Player::Tick ===") {
		t.Error("Disassembly missing header")
	}
	if !strings.Contains(output, "Instructions: 0") {
		t.Error("Disassembly missing instruction count")
	}
}

func TestDisassembleSimple(t *testing.T) {
	s := Stream{
		New(OpLdcI4, Int(1)),
		New(OpLdcI4, Int(2)),
		New(OpAdd),
		New(OpRet),
	}

	lines := s.DisassembleToLines()
	want := []string{
		"IL_0000  ldc.i4 1",
		"IL_0001  ldc.i4 2",
		"IL_0002  add",
		"IL_0003  ret",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestDisassembleLabels(t *testing.T) {
	s := Stream{
		Branch(OpBrfalse, 1),
		New(OpLdstr, Str("hello world")),
		New(OpPop).WithLabels([]Label{1}),
	}

	output := s.Disassemble()

	if !strings.Contains(output, "brfalse L1") {
		t.Error("Missing branch target")
	}
	if !strings.Contains(output, "L1:\nIL_0002  pop") {
		t.Errorf("Missing label marker before target:\n%s", output)
	}
	if !strings.Contains(output, `ldstr "hello world"`) {
		t.Error("Missing string literal")
	}
}

func TestDisassembleCallShowsPops(t *testing.T) {
	inst := &MethodRef{DeclaringType: T("Game.Player"), Name: "Damage", Params: []TypeRef{T("int32")}}
	ctor := &MethodRef{DeclaringType: T("Vector2"), Name: ConstructorName, Params: []TypeRef{T("float32"), T("float32")}}

	if got := DisassembleInstruction(Callvirt(inst)); !strings.HasSuffix(got, "; pops 2") {
		t.Errorf("callvirt line = %q, want receiver + 1 arg", got)
	}
	if got := DisassembleInstruction(Newobj(ctor)); !strings.HasSuffix(got, "; pops 2") {
		t.Errorf("newobj line = %q, want 2 args and no receiver", got)
	}
}

func TestDisassembleField(t *testing.T) {
	f := &FieldRef{DeclaringType: T("Game.Player"), Name: "health", Type: T("int32")}
	got := DisassembleInstruction(New(OpLdfld, FieldOp(f)))
	if got != "ldfld int32 Game.Player::health" {
		t.Errorf("got %q", got)
	}
}

func TestDisassembleOperandMismatch(t *testing.T) {
	got := DisassembleInstruction(New(OpLdcI4, Str("x")))
	if !strings.Contains(got, "expected int operand") {
		t.Errorf("got %q, want operand mismatch note", got)
	}
}

func TestDisassembleTruncatesLongStrings(t *testing.T) {
	long := strings.Repeat("a", 60)
	got := DisassembleInstruction(New(OpLdstr, Str(long)))
	if !strings.Contains(got, "...") {
		t.Errorf("got %q, want truncated string", got)
	}
}
