package bytecode

import (
	"strings"
	"testing"
)

func TestAllOpcodesHaveMetadata(t *testing.T) {
	// Ensure every defined opcode has metadata
	for _, op := range AllOpcodes() {
		info := GetOpcodeInfo(op)
		if info.Name == "" || strings.HasPrefix(info.Name, "UNKNOWN") {
			t.Errorf("Opcode 0x%02X has no metadata", byte(op))
		}
	}
}

func TestOpcodeNamesAreUnique(t *testing.T) {
	seen := make(map[string]Opcode)
	for _, op := range AllOpcodes() {
		name := op.String()
		if prev, ok := seen[name]; ok {
			t.Errorf("name %q used by 0x%02X and 0x%02X", name, byte(prev), byte(op))
		}
		seen[name] = op
	}
}

func TestOpcodeString(t *testing.T) {
	tests := []struct {
		op   Opcode
		want string
	}{
		{OpNop, "nop"},
		{OpPop, "pop"},
		{OpLdcR4, "ldc.r4"},
		{OpLdsfld, "ldsfld"},
		{OpCallvirt, "callvirt"},
		{OpNewobj, "newobj"},
		{OpBne, "bne.un"},
		{OpRet, "ret"},
	}

	for _, tt := range tests {
		got := tt.op.String()
		if got != tt.want {
			t.Errorf("Opcode(0x%02X).String() = %q, want %q", byte(tt.op), got, tt.want)
		}
	}
}

func TestUnknownOpcodeString(t *testing.T) {
	op := Opcode(0xEE) // Not defined
	got := op.String()
	if !strings.HasPrefix(got, "UNKNOWN") {
		t.Errorf("Unknown opcode should return UNKNOWN, got %q", got)
	}
	if op.Known() {
		t.Error("Opcode(0xEE).Known() = true, want false")
	}
}

func TestLookupOpcode(t *testing.T) {
	for _, op := range AllOpcodes() {
		got, ok := LookupOpcode(op.String())
		if !ok || got != op {
			t.Errorf("LookupOpcode(%q) = %v, %v; want %v, true", op.String(), got, ok, op)
		}
	}
	if _, ok := LookupOpcode("jmp"); ok {
		t.Error("LookupOpcode(\"jmp\") found an opcode")
	}
}

func TestOpcodeIsBranch(t *testing.T) {
	branches := []Opcode{OpBr, OpBrtrue, OpBrfalse, OpBeq, OpBne, OpBlt, OpBle, OpBgt, OpBge, OpLeave}
	for _, op := range branches {
		if !op.IsBranch() {
			t.Errorf("%s.IsBranch() = false, want true", op)
		}
	}

	nonBranches := []Opcode{OpNop, OpAdd, OpCall, OpRet}
	for _, op := range nonBranches {
		if op.IsBranch() {
			t.Errorf("%s.IsBranch() = true, want false", op)
		}
	}

	if OpBr.IsConditionalBranch() || OpLeave.IsConditionalBranch() {
		t.Error("br/leave reported as conditional")
	}
	if !OpBrfalse.IsConditionalBranch() {
		t.Error("brfalse not reported as conditional")
	}
}

func TestOpcodeIsCall(t *testing.T) {
	if !OpCall.IsCall() || !OpCallvirt.IsCall() {
		t.Error("call/callvirt not reported as calls")
	}
	if OpNewobj.IsCall() {
		t.Error("newobj reported as a call")
	}
}

func TestOpcodeFieldAccess(t *testing.T) {
	tests := []struct {
		op    Opcode
		load  bool
		store bool
	}{
		{OpLdfld, true, false},
		{OpLdsfld, true, false},
		{OpStfld, false, true},
		{OpStsfld, false, true},
		{OpLdflda, false, false},
		{OpLdloc, false, false},
	}

	for _, tt := range tests {
		if got := tt.op.IsFieldLoad(); got != tt.load {
			t.Errorf("%s.IsFieldLoad() = %v, want %v", tt.op, got, tt.load)
		}
		if got := tt.op.IsFieldStore(); got != tt.store {
			t.Errorf("%s.IsFieldStore() = %v, want %v", tt.op, got, tt.store)
		}
	}
}

func TestStackEffects(t *testing.T) {
	tests := []struct {
		op   Opcode
		pop  StackEffect
		push StackEffect
	}{
		{OpNop, StackNone, StackNone},
		{OpPop, StackOne, StackNone},
		{OpDup, StackOne, StackTwo},
		{OpLdcR4, StackNone, StackOne},
		{OpStfld, StackTwo, StackNone},
		{OpStelem, StackThree, StackNone},
		{OpBrtrue, StackOne, StackNone},
		{OpCall, StackVar, StackVar},
		{OpNewobj, StackVar, StackOne},
		{OpRet, StackVar, StackNone},
	}

	for _, tt := range tests {
		info := GetOpcodeInfo(tt.op)
		if info.Pop != tt.pop {
			t.Errorf("%s.Pop = %s, want %s", tt.op, info.Pop, tt.pop)
		}
		if info.Push != tt.push {
			t.Errorf("%s.Push = %s, want %s", tt.op, info.Push, tt.push)
		}
	}
}

func TestStackEffectCount(t *testing.T) {
	if StackVar.Fixed() {
		t.Error("StackVar.Fixed() = true")
	}
	if StackVar.Count() != 0 {
		t.Errorf("StackVar.Count() = %d, want 0", StackVar.Count())
	}
	if StackThree.Count() != 3 {
		t.Errorf("StackThree.Count() = %d, want 3", StackThree.Count())
	}
}

func TestOpcodeRanges(t *testing.T) {
	// Verify opcodes are in their expected ranges
	rangeTests := []struct {
		name     string
		ops      []Opcode
		minRange Opcode
		maxRange Opcode
	}{
		{"Stack", []Opcode{OpNop, OpPop, OpDup}, 0x00, 0x0F},
		{"Constants", []Opcode{OpLdcI4, OpLdcR4, OpLdstr, OpLdnull}, 0x10, 0x1F},
		{"Locals", []Opcode{OpLdarg, OpStarg, OpLdloc, OpStloc}, 0x20, 0x2F},
		{"Fields", []Opcode{OpLdfld, OpStfld, OpLdsfld, OpStsfld}, 0x30, 0x3F},
		{"Arithmetic", []Opcode{OpAdd, OpSub, OpMul, OpShr}, 0x40, 0x4F},
		{"Comparison", []Opcode{OpCeq, OpCgt, OpClt}, 0x50, 0x5F},
		{"Objects", []Opcode{OpBox, OpNewarr, OpStelem}, 0x60, 0x7F},
		{"Control", []Opcode{OpBr, OpBrtrue, OpLeave}, 0x80, 0x8F},
		{"Calls", []Opcode{OpCall, OpCallvirt, OpNewobj}, 0x90, 0x9F},
		{"Return", []Opcode{OpRet, OpThrow}, 0xF0, 0xFF},
	}

	for _, tt := range rangeTests {
		for _, op := range tt.ops {
			if op < tt.minRange || op > tt.maxRange {
				t.Errorf("%s opcode %s (0x%02X) is outside range [0x%02X, 0x%02X]",
					tt.name, op, byte(op), byte(tt.minRange), byte(tt.maxRange))
			}
		}
	}
}

func TestOperandKindString(t *testing.T) {
	tests := []struct {
		kind OperandKind
		want string
	}{
		{OperandNone, "none"},
		{OperandMethod, "method"},
		{OperandLabel, "label"},
		{OperandKind(99), "OperandKind(99)"},
	}

	for _, tt := range tests {
		got := tt.kind.String()
		if got != tt.want {
			t.Errorf("OperandKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
