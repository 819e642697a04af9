package bytecode

import (
	"fmt"
	"slices"
	"strings"
)

// Label is a logical branch target. A label is attached to the instruction
// it marks and referenced by branch operands elsewhere in the stream.
type Label uint32

func (l Label) String() string {
	return fmt.Sprintf("L%d", uint32(l))
}

// Instruction is a single opcode with its operand and the labels that mark
// its position. Instructions are treated as values: mutation helpers return
// copies and never alias the label slice of the receiver.
type Instruction struct {
	Op      Opcode  `cbor:"op" yaml:"op"`
	Operand Operand `cbor:"operand" yaml:"operand"`
	Labels  []Label `cbor:"labels,omitempty" yaml:"labels,omitempty"`
}

// New creates an instruction without labels. A missing operand is NoOperand.
func New(op Opcode, operand ...Operand) Instruction {
	ins := Instruction{Op: op}
	if len(operand) > 0 {
		ins.Operand = operand[0]
	}
	return ins
}

// Call creates a non-virtual call to the given method.
func Call(m *MethodRef) Instruction {
	return New(OpCall, MethodOp(m))
}

// Callvirt creates a virtual call to the given method.
func Callvirt(m *MethodRef) Instruction {
	return New(OpCallvirt, MethodOp(m))
}

// Newobj creates a constructor call.
func Newobj(ctor *MethodRef) Instruction {
	return New(OpNewobj, MethodOp(ctor))
}

// Branch creates a jump to the given label.
func Branch(op Opcode, target Label) Instruction {
	return New(op, LabelOp(target))
}

// Nop creates a no-op.
func Nop() Instruction {
	return New(OpNop)
}

// Clone returns a copy that does not share the label slice.
func (i Instruction) Clone() Instruction {
	i.Labels = slices.Clone(i.Labels)
	return i
}

// WithLabels returns a copy of i carrying exactly the given labels.
func (i Instruction) WithLabels(labels []Label) Instruction {
	i.Labels = slices.Clone(labels)
	return i
}

// WithoutLabels returns a copy of i with no labels.
func (i Instruction) WithoutLabels() Instruction {
	i.Labels = nil
	return i
}

// AddLabels returns a copy of i with the given labels appended, skipping
// labels already present.
func (i Instruction) AddLabels(labels ...Label) Instruction {
	out := slices.Clone(i.Labels)
	for _, l := range labels {
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	i.Labels = out
	return i
}

// HasLabel reports whether the instruction carries the label.
func (i Instruction) HasLabel(l Label) bool {
	return slices.Contains(i.Labels, l)
}

// Is reports whether the instruction has the given opcode.
func (i Instruction) Is(op Opcode) bool {
	return i.Op == op
}

// Target returns the branch target label, if the instruction is a branch.
func (i Instruction) Target() (Label, bool) {
	if !i.Op.IsBranch() || i.Operand.Kind != OperandLabel {
		return 0, false
	}
	return i.Operand.Label, true
}

// Equal compares opcode, operand and label set (order-insensitive).
func (i Instruction) Equal(other Instruction) bool {
	if i.Op != other.Op || !i.Operand.Equal(other.Operand) {
		return false
	}
	return sameLabels(i.Labels, other.Labels)
}

func (i Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(i.Op.String())
	if s := i.Operand.Format(); s != "" {
		sb.WriteString(" ")
		sb.WriteString(s)
	}
	return sb.String()
}

func sameLabels(a, b []Label) bool {
	if len(a) != len(b) {
		return false
	}
	for _, l := range a {
		if !slices.Contains(b, l) {
			return false
		}
	}
	return true
}
