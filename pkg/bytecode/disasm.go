package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the stream.
func (s Stream) Disassemble() string {
	var sb strings.Builder
	s.writeCode(&sb)
	return sb.String()
}

// Disassemble returns a listing of the method with a metadata header.
func (m *Method) Disassemble() string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("; === %s ===\n", m.Meta.FullName()))
	sb.WriteString(fmt.Sprintf("; Returns: %s\n", m.Meta.Return.String()))
	if m.Meta.ParamCount > 0 {
		sb.WriteString(fmt.Sprintf("; Parameters: %d\n", m.Meta.ParamCount))
	}
	if m.Meta.Static {
		sb.WriteString("; Static\n")
	}
	sb.WriteString(fmt.Sprintf("; Instructions: %d\n", len(m.Body)))
	sb.WriteString("\n")

	m.Body.writeCode(&sb)
	return sb.String()
}

func (s Stream) writeCode(sb *strings.Builder) {
	for i, ins := range s {
		for _, l := range ins.Labels {
			sb.WriteString(fmt.Sprintf("%s:\n", l))
		}
		sb.WriteString(fmt.Sprintf("IL_%04X  %s\n", i, DisassembleInstruction(ins)))
	}
}

// DisassembleInstruction returns a human-readable representation of a
// single instruction, with a comment for operands that need context.
func DisassembleInstruction(ins Instruction) string {
	info := GetOpcodeInfo(ins.Op)

	if ins.Op.Known() && info.Operand != ins.Operand.Kind {
		return strings.TrimSpace(fmt.Sprintf("%s %s ; expected %s operand", info.Name, ins.Operand.Format(), info.Operand))
	}

	switch ins.Operand.Kind {
	case OperandNone:
		return info.Name

	case OperandString:
		display := ins.Operand.String
		// Truncate long strings for readability
		if len(display) > 40 {
			display = display[:37] + "..."
		}
		return fmt.Sprintf("%s %q", info.Name, display)

	case OperandMethod:
		m := ins.Operand.Method
		if m == nil {
			return info.Name + " <nil method>"
		}
		line := fmt.Sprintf("%s %s", info.Name, m.Signature())
		if ins.Op.IsCall() || ins.Op == OpNewobj {
			return fmt.Sprintf("%-50s ; pops %d", line, callPops(ins.Op, m))
		}
		return line

	case OperandField:
		f := ins.Operand.Field
		if f == nil {
			return info.Name + " <nil field>"
		}
		if f.Type.Name != "" {
			return fmt.Sprintf("%s %s %s", info.Name, f.Type, f)
		}
		return fmt.Sprintf("%s %s", info.Name, f)
	}

	return fmt.Sprintf("%s %s", info.Name, ins.Operand.Format())
}

// DisassembleToLines returns the disassembly as a slice of lines, one per
// instruction, without label markers.
func (s Stream) DisassembleToLines() []string {
	lines := make([]string, 0, len(s))
	for i, ins := range s {
		lines = append(lines, fmt.Sprintf("IL_%04X  %s", i, DisassembleInstruction(ins)))
	}
	return lines
}

func callPops(op Opcode, m *MethodRef) int {
	n := len(m.Params)
	if op != OpNewobj && !m.Static {
		n++
	}
	return n
}
