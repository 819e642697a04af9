package bytecode

import "fmt"

// Opcode represents a bytecode instruction kind.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Stack manipulation (0x00-0x0F)
	// ========================================================================

	OpNop Opcode = 0x00 // No operation
	OpPop Opcode = 0x01 // Pop top of stack
	OpDup Opcode = 0x02 // Duplicate top of stack

	// ========================================================================
	// Constants (0x10-0x1F)
	// ========================================================================

	OpLdcI4  Opcode = 0x10 // Push int32 literal: ldc.i4 <int>
	OpLdcI8  Opcode = 0x11 // Push int64 literal: ldc.i8 <int>
	OpLdcR4  Opcode = 0x12 // Push float32 literal: ldc.r4 <float>
	OpLdcR8  Opcode = 0x13 // Push float64 literal: ldc.r8 <float>
	OpLdstr  Opcode = 0x14 // Push string literal: ldstr <string>
	OpLdnull Opcode = 0x15 // Push null reference

	// ========================================================================
	// Arguments and locals (0x20-0x2F)
	// ========================================================================

	OpLdarg  Opcode = 0x20 // Push argument: ldarg <index>
	OpLdarga Opcode = 0x21 // Push argument address: ldarga <index>
	OpStarg  Opcode = 0x22 // Pop and store to argument: starg <index>
	OpLdloc  Opcode = 0x23 // Push local: ldloc <index>
	OpLdloca Opcode = 0x24 // Push local address: ldloca <index>
	OpStloc  Opcode = 0x25 // Pop and store to local: stloc <index>

	// ========================================================================
	// Fields (0x30-0x3F)
	// ========================================================================

	OpLdfld   Opcode = 0x30 // Pop object, push instance field: ldfld <field>
	OpLdflda  Opcode = 0x31 // Pop object, push instance field address
	OpStfld   Opcode = 0x32 // Pop object and value, store instance field
	OpLdsfld  Opcode = 0x33 // Push static field: ldsfld <field>
	OpLdsflda Opcode = 0x34 // Push static field address
	OpStsfld  Opcode = 0x35 // Pop value, store static field

	// ========================================================================
	// Arithmetic and bitwise (0x40-0x4F)
	// ========================================================================

	OpAdd Opcode = 0x40 // Pop two, push sum
	OpSub Opcode = 0x41 // Pop two, push difference
	OpMul Opcode = 0x42 // Pop two, push product
	OpDiv Opcode = 0x43 // Pop two, push quotient
	OpRem Opcode = 0x44 // Pop two, push remainder
	OpNeg Opcode = 0x45 // Negate top of stack
	OpAnd Opcode = 0x46 // Pop two, push bitwise and
	OpOr  Opcode = 0x47 // Pop two, push bitwise or
	OpXor Opcode = 0x48 // Pop two, push bitwise xor
	OpNot Opcode = 0x49 // Bitwise complement of top of stack
	OpShl Opcode = 0x4A // Pop value and amount, push shifted left
	OpShr Opcode = 0x4B // Pop value and amount, push shifted right

	// ========================================================================
	// Comparison (0x50-0x5F)
	// ========================================================================

	OpCeq Opcode = 0x50 // Pop two, push 1 if equal
	OpCgt Opcode = 0x51 // Pop two, push 1 if a > b
	OpClt Opcode = 0x52 // Pop two, push 1 if a < b

	// ========================================================================
	// Conversion, objects and arrays (0x60-0x7F)
	// ========================================================================

	OpConvI4    Opcode = 0x60 // Convert top of stack to int32
	OpConvI8    Opcode = 0x61 // Convert top of stack to int64
	OpConvR4    Opcode = 0x62 // Convert top of stack to float32
	OpConvR8    Opcode = 0x63 // Convert top of stack to float64
	OpBox       Opcode = 0x64 // Box value type: box <type>
	OpUnboxAny  Opcode = 0x65 // Unbox to value: unbox.any <type>
	OpCastclass Opcode = 0x66 // Checked cast: castclass <type>
	OpIsinst    Opcode = 0x67 // Type test: isinst <type>
	OpInitobj   Opcode = 0x68 // Pop address, zero-initialize: initobj <type>
	OpNewarr    Opcode = 0x70 // Pop length, push new array: newarr <type>
	OpLdlen     Opcode = 0x71 // Pop array, push length
	OpLdelem    Opcode = 0x72 // Pop array and index, push element: ldelem <type>
	OpStelem    Opcode = 0x73 // Pop array, index and value: stelem <type>

	// ========================================================================
	// Control flow (0x80-0x8F)
	// ========================================================================

	OpBr      Opcode = 0x80 // Unconditional jump: br <label>
	OpBrtrue  Opcode = 0x81 // Jump if top is true/non-null: brtrue <label>
	OpBrfalse Opcode = 0x82 // Jump if top is false/null: brfalse <label>
	OpBeq     Opcode = 0x83 // Pop two, jump if equal
	OpBne     Opcode = 0x84 // Pop two, jump if not equal
	OpBlt     Opcode = 0x85 // Pop two, jump if a < b
	OpBle     Opcode = 0x86 // Pop two, jump if a <= b
	OpBgt     Opcode = 0x87 // Pop two, jump if a > b
	OpBge     Opcode = 0x88 // Pop two, jump if a >= b
	OpLeave   Opcode = 0x89 // Exit protected region: leave <label>

	// ========================================================================
	// Calls (0x90-0x9F)
	// ========================================================================

	OpCall     Opcode = 0x90 // Call method: call <method>
	OpCallvirt Opcode = 0x91 // Virtual call: callvirt <method>
	OpNewobj   Opcode = 0x92 // Allocate and construct: newobj <ctor>

	// ========================================================================
	// Return and exceptions (0xF0-0xFF)
	// ========================================================================

	OpRet     Opcode = 0xF0 // Return from method
	OpThrow   Opcode = 0xF1 // Pop exception object and throw
	OpRethrow Opcode = 0xF2 // Rethrow current exception
)

// StackEffect is the statically known category of an opcode's pops or pushes.
// StackVar means the count depends on the operand (calls) or the method
// being analyzed (ret).
type StackEffect int8

const (
	StackNone  StackEffect = 0
	StackOne   StackEffect = 1
	StackTwo   StackEffect = 2
	StackThree StackEffect = 3
	StackVar   StackEffect = -1
)

// String returns a short name for the stack effect category.
func (e StackEffect) String() string {
	switch e {
	case StackNone:
		return "none"
	case StackOne:
		return "one"
	case StackTwo:
		return "two"
	case StackThree:
		return "three"
	case StackVar:
		return "variable"
	default:
		return fmt.Sprintf("StackEffect(%d)", int8(e))
	}
}

// Fixed reports whether the effect has a static count.
func (e StackEffect) Fixed() bool {
	return e >= StackNone
}

// Count returns the static count. Variable effects count as zero.
func (e StackEffect) Count() int {
	if e < 0 {
		return 0
	}
	return int(e)
}

// OpcodeInfo provides metadata about each opcode for disassembly and validation.
type OpcodeInfo struct {
	Name    string      // Human-readable name
	Pop     StackEffect // Values popped from the stack
	Push    StackEffect // Values pushed to the stack
	Operand OperandKind // Kind of operand the opcode expects
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Stack manipulation
	OpNop: {"nop", StackNone, StackNone, OperandNone},
	OpPop: {"pop", StackOne, StackNone, OperandNone},
	OpDup: {"dup", StackOne, StackTwo, OperandNone},

	// Constants
	OpLdcI4:  {"ldc.i4", StackNone, StackOne, OperandInt},
	OpLdcI8:  {"ldc.i8", StackNone, StackOne, OperandInt},
	OpLdcR4:  {"ldc.r4", StackNone, StackOne, OperandFloat},
	OpLdcR8:  {"ldc.r8", StackNone, StackOne, OperandFloat},
	OpLdstr:  {"ldstr", StackNone, StackOne, OperandString},
	OpLdnull: {"ldnull", StackNone, StackOne, OperandNone},

	// Arguments and locals
	OpLdarg:  {"ldarg", StackNone, StackOne, OperandInt},
	OpLdarga: {"ldarga", StackNone, StackOne, OperandInt},
	OpStarg:  {"starg", StackOne, StackNone, OperandInt},
	OpLdloc:  {"ldloc", StackNone, StackOne, OperandInt},
	OpLdloca: {"ldloca", StackNone, StackOne, OperandInt},
	OpStloc:  {"stloc", StackOne, StackNone, OperandInt},

	// Fields
	OpLdfld:   {"ldfld", StackOne, StackOne, OperandField},
	OpLdflda:  {"ldflda", StackOne, StackOne, OperandField},
	OpStfld:   {"stfld", StackTwo, StackNone, OperandField},
	OpLdsfld:  {"ldsfld", StackNone, StackOne, OperandField},
	OpLdsflda: {"ldsflda", StackNone, StackOne, OperandField},
	OpStsfld:  {"stsfld", StackOne, StackNone, OperandField},

	// Arithmetic and bitwise
	OpAdd: {"add", StackTwo, StackOne, OperandNone},
	OpSub: {"sub", StackTwo, StackOne, OperandNone},
	OpMul: {"mul", StackTwo, StackOne, OperandNone},
	OpDiv: {"div", StackTwo, StackOne, OperandNone},
	OpRem: {"rem", StackTwo, StackOne, OperandNone},
	OpNeg: {"neg", StackOne, StackOne, OperandNone},
	OpAnd: {"and", StackTwo, StackOne, OperandNone},
	OpOr:  {"or", StackTwo, StackOne, OperandNone},
	OpXor: {"xor", StackTwo, StackOne, OperandNone},
	OpNot: {"not", StackOne, StackOne, OperandNone},
	OpShl: {"shl", StackTwo, StackOne, OperandNone},
	OpShr: {"shr", StackTwo, StackOne, OperandNone},

	// Comparison
	OpCeq: {"ceq", StackTwo, StackOne, OperandNone},
	OpCgt: {"cgt", StackTwo, StackOne, OperandNone},
	OpClt: {"clt", StackTwo, StackOne, OperandNone},

	// Conversion, objects and arrays
	OpConvI4:    {"conv.i4", StackOne, StackOne, OperandNone},
	OpConvI8:    {"conv.i8", StackOne, StackOne, OperandNone},
	OpConvR4:    {"conv.r4", StackOne, StackOne, OperandNone},
	OpConvR8:    {"conv.r8", StackOne, StackOne, OperandNone},
	OpBox:       {"box", StackOne, StackOne, OperandType},
	OpUnboxAny:  {"unbox.any", StackOne, StackOne, OperandType},
	OpCastclass: {"castclass", StackOne, StackOne, OperandType},
	OpIsinst:    {"isinst", StackOne, StackOne, OperandType},
	OpInitobj:   {"initobj", StackOne, StackNone, OperandType},
	OpNewarr:    {"newarr", StackOne, StackOne, OperandType},
	OpLdlen:     {"ldlen", StackOne, StackOne, OperandNone},
	OpLdelem:    {"ldelem", StackTwo, StackOne, OperandType},
	OpStelem:    {"stelem", StackThree, StackNone, OperandType},

	// Control flow
	OpBr:      {"br", StackNone, StackNone, OperandLabel},
	OpBrtrue:  {"brtrue", StackOne, StackNone, OperandLabel},
	OpBrfalse: {"brfalse", StackOne, StackNone, OperandLabel},
	OpBeq:     {"beq", StackTwo, StackNone, OperandLabel},
	OpBne:     {"bne.un", StackTwo, StackNone, OperandLabel},
	OpBlt:     {"blt", StackTwo, StackNone, OperandLabel},
	OpBle:     {"ble", StackTwo, StackNone, OperandLabel},
	OpBgt:     {"bgt", StackTwo, StackNone, OperandLabel},
	OpBge:     {"bge", StackTwo, StackNone, OperandLabel},
	OpLeave:   {"leave", StackNone, StackNone, OperandLabel},

	// Calls
	OpCall:     {"call", StackVar, StackVar, OperandMethod},     // Pops args (+ receiver if instance)
	OpCallvirt: {"callvirt", StackVar, StackVar, OperandMethod}, // Pops args + receiver
	OpNewobj:   {"newobj", StackVar, StackOne, OperandMethod},   // Pops ctor args, pushes instance

	// Return and exceptions
	OpRet:     {"ret", StackVar, StackNone, OperandNone}, // Pops 1 for non-void methods
	OpThrow:   {"throw", StackOne, StackNone, OperandNone},
	OpRethrow: {"rethrow", StackNone, StackNone, OperandNone},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// LookupOpcode returns the opcode with the given disassembly name.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opcodeByName[name]
	return op, ok
}

var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeInfoTable))
	for op, info := range opcodeInfoTable {
		m[info.Name] = op
	}
	return m
}()

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Known reports whether the opcode has metadata.
func (op Opcode) Known() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// IsBranch returns true for conditional and unconditional jumps.
func (op Opcode) IsBranch() bool {
	return op >= OpBr && op <= OpLeave
}

// IsConditionalBranch returns true for jumps that consume a condition.
func (op Opcode) IsConditionalBranch() bool {
	return op >= OpBrtrue && op <= OpBge
}

// IsCall returns true for call and callvirt. Constructor calls are not
// included; see OpNewobj.
func (op Opcode) IsCall() bool {
	return op == OpCall || op == OpCallvirt
}

// IsReturn returns true if this opcode leaves the method.
func (op Opcode) IsReturn() bool {
	return op == OpRet
}

// IsFieldLoad returns true for instance and static field loads.
func (op Opcode) IsFieldLoad() bool {
	return op == OpLdfld || op == OpLdsfld
}

// IsFieldStore returns true for instance and static field stores.
func (op Opcode) IsFieldStore() bool {
	return op == OpStfld || op == OpStsfld
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}
