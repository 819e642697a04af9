package patch

import (
	"fmt"

	"github.com/chazu/bytepatch/pkg/bytecode"
)

// entryLeniency is how many leading instructions may underflow without a
// finding. Method bodies often start with prologue code whose stack inputs
// are invisible to a linear pass.
const entryLeniency = 5

// ValidationResult holds the outcome of a stack pass.
type ValidationResult struct {
	MaxDepth int
	Findings []string
}

// OK reports whether the pass produced no findings.
func (r ValidationResult) OK() bool {
	return len(r.Findings) == 0
}

// Validate walks body once in order, tracking evaluation stack depth.
// Branches are not followed. meta supplies the return type and parameter
// information a ret needs; nil treats the method as returning void.
func Validate(body bytecode.Stream, meta *bytecode.MethodMetadata) ValidationResult {
	var res ValidationResult
	depth := 0

	for i, ins := range body {
		if ins.Op.IsCall() || ins.Op == bytecode.OpNewobj {
			if ins.Operand.Kind != bytecode.OperandMethod || ins.Operand.Method == nil {
				res.Findings = append(res.Findings,
					fmt.Sprintf("missing method reference for %s at index %d", ins.Op, i))
			}
		}

		n := pops(ins, meta)
		depth -= n
		if depth < 0 && n > 0 {
			// A return always needs its value, even inside the entry window.
			if i < entryLeniency && !ins.Op.IsReturn() {
				depth = 0
			} else {
				res.Findings = append(res.Findings, fmt.Sprintf("stack underflow at index %d (%s)", i, ins))
			}
		}
		if ins.Op.IsReturn() && depth != 0 {
			res.Findings = append(res.Findings,
				fmt.Sprintf("unbalanced stack at return, depth = %d (index %d)", depth, i))
		}
		depth += pushes(ins)
		res.MaxDepth = max(res.MaxDepth, depth)
	}

	for _, d := range body.DanglingBranches() {
		res.Findings = append(res.Findings, d.String())
	}
	return res
}

// ValidateMethod validates m's body against its own metadata.
func ValidateMethod(m *bytecode.Method) ValidationResult {
	return Validate(m.Body, &m.Meta)
}

func pops(ins bytecode.Instruction, meta *bytecode.MethodMetadata) int {
	info := bytecode.GetOpcodeInfo(ins.Op)
	if info.Pop.Fixed() {
		return info.Pop.Count()
	}

	m := ins.Operand.Method
	switch {
	case ins.Op.IsReturn():
		if meta.ReturnsValue() {
			return 1
		}
		return 0
	case m == nil:
		return 0
	case ins.Op == bytecode.OpNewobj:
		return len(m.Params)
	case ins.Op.IsCall():
		if m.Static {
			return len(m.Params)
		}
		return len(m.Params) + 1
	}
	return 0
}

func pushes(ins bytecode.Instruction) int {
	info := bytecode.GetOpcodeInfo(ins.Op)
	if info.Push.Fixed() {
		return info.Push.Count()
	}
	if ins.Op.IsCall() && ins.Operand.Method != nil && !ins.Operand.Method.Return.IsVoid() {
		return 1
	}
	return 0
}
