// Package bytecode models a method's compiled instruction stream as handed
// over by a host toolchain that disassembles methods and later re-assembles
// them.
//
// # Instruction Model
//
//   - Opcodes: stack-based instructions covering constants, locals, fields,
//     arithmetic, branches, calls and returns. Every opcode has a statically
//     known stack effect category (none, one, two, three, or variable).
//     Variable effects are resolved from the operand: a call pops its
//     parameters plus a receiver for instance methods.
//
//   - Operands: a tagged union of literals, type references, method
//     references, field references and branch labels.
//
//   - Labels: logical markers attached to instructions. Branches reference
//     labels, never absolute positions, so a Stream can grow or shrink as
//     long as every label stays attached to some instruction.
//
//   - Stream: the ordered instruction sequence. Replace keeps the label set
//     of the slot being overwritten, and Remove/Splice move the labels of
//     deleted instructions onto their successor.
//
// # Method Files
//
// Methods travel between the host toolchain and the patch engine as a
// canonical CBOR envelope ("BPMT" magic plus a format version). A YAML form
// with opcodes written by name is accepted for hand-written fixtures.
package bytecode
