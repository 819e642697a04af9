package patch

import (
	"fmt"
	"strings"

	"github.com/chazu/bytepatch/pkg/bytecode"
)

// Predicate tests one instruction of a sequence pattern.
type Predicate func(bytecode.Instruction) bool

// MatchResult is the outcome of a scan.
type MatchResult struct {
	Index  int
	Found  bool
	Reason string
}

// CallQuery selects call sites. Nil Params or GenericArgs match any
// signature; a non-nil slice must match exactly, except that open generic
// parameters match each other regardless of name.
type CallQuery struct {
	Type             bytecode.TypeRef
	Name             string
	Params           []bytecode.TypeRef
	GenericArgs      []bytecode.TypeRef
	IncludeInherited bool
}

func (q CallQuery) String() string {
	var sb strings.Builder
	sb.WriteString(q.Type.Name)
	sb.WriteString("::")
	sb.WriteString(q.Name)
	if q.GenericArgs != nil {
		sb.WriteString("<")
		sb.WriteString(typeList(q.GenericArgs))
		sb.WriteString(">")
	}
	if q.Params != nil {
		sb.WriteString("(")
		sb.WriteString(typeList(q.Params))
		sb.WriteString(")")
	}
	return sb.String()
}

// Matches reports whether m satisfies the query. r is consulted only when
// IncludeInherited is set; it may be nil otherwise.
func (q CallQuery) Matches(m *bytecode.MethodRef, r Resolver) bool {
	if m == nil || m.Name != q.Name {
		return false
	}
	if m.DeclaringType.Name != q.Type.Name {
		// A method declared on an ancestor of the requested type.
		if !q.IncludeInherited || r == nil || !r.IsAssignable(q.Type, m.DeclaringType) {
			return false
		}
	}
	if q.Params != nil && !sameTypes(q.Params, m.Params) {
		return false
	}
	if q.GenericArgs != nil {
		if !m.Generic || !sameTypes(q.GenericArgs, m.GenericArgs) {
			return false
		}
	}
	return true
}

func sameTypes(want, got []bytecode.TypeRef) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i].Open && got[i].Open {
			continue
		}
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

func typeList(types []bytecode.TypeRef) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// Is matches any instruction with the given opcode.
func Is(op bytecode.Opcode) Predicate {
	return func(ins bytecode.Instruction) bool { return ins.Op == op }
}

// Any matches every instruction.
func Any() Predicate {
	return func(bytecode.Instruction) bool { return true }
}

// IsLdcInt matches an integer constant load with the given value.
func IsLdcInt(v int64) Predicate {
	return func(ins bytecode.Instruction) bool {
		return (ins.Op == bytecode.OpLdcI4 || ins.Op == bytecode.OpLdcI8) &&
			ins.Operand.Kind == bytecode.OperandInt && ins.Operand.Int == v
	}
}

// IsLdcFloat matches a float constant load with the given value.
func IsLdcFloat(v float64) Predicate {
	return func(ins bytecode.Instruction) bool {
		return (ins.Op == bytecode.OpLdcR4 || ins.Op == bytecode.OpLdcR8) &&
			ins.Operand.Kind == bytecode.OperandFloat && ins.Operand.Float == v
	}
}

// IsCallTo matches a call or callvirt selected by q. Inherited matching
// needs a resolver; use Cursor.CallTo for that.
func IsCallTo(q CallQuery) Predicate {
	return callTo(q, nil)
}

func callTo(q CallQuery, r Resolver) Predicate {
	return func(ins bytecode.Instruction) bool {
		return ins.Op.IsCall() && ins.Operand.Kind == bytecode.OperandMethod && q.Matches(ins.Operand.Method, r)
	}
}

// IsNewobj matches construction of typ. When params are given the
// constructor signature must match them too.
func IsNewobj(typ bytecode.TypeRef, params ...bytecode.TypeRef) Predicate {
	return func(ins bytecode.Instruction) bool {
		if ins.Op != bytecode.OpNewobj || ins.Operand.Kind != bytecode.OperandMethod || ins.Operand.Method == nil {
			return false
		}
		m := ins.Operand.Method
		if m.DeclaringType.Name != typ.Name {
			return false
		}
		return len(params) == 0 || sameTypes(params, m.Params)
	}
}

// IsFieldLoad matches ldfld or ldsfld of typ::name.
func IsFieldLoad(typ bytecode.TypeRef, name string) Predicate {
	return func(ins bytecode.Instruction) bool {
		return ins.Op.IsFieldLoad() && fieldIs(ins, typ, name)
	}
}

// IsFieldStore matches stfld or stsfld of typ::name.
func IsFieldStore(typ bytecode.TypeRef, name string) Predicate {
	return func(ins bytecode.Instruction) bool {
		return ins.Op.IsFieldStore() && fieldIs(ins, typ, name)
	}
}

func fieldIs(ins bytecode.Instruction, typ bytecode.TypeRef, name string) bool {
	f := ins.Operand.Field
	return ins.Operand.Kind == bytecode.OperandField && f != nil &&
		f.DeclaringType.Name == typ.Name && f.Name == name
}

// IsBranch matches any branch instruction.
func IsBranch() Predicate {
	return func(ins bytecode.Instruction) bool { return ins.Op.IsBranch() }
}

// CallTo returns a call predicate that uses the cursor's resolver for
// inherited matching.
func (c *Cursor) CallTo(q CallQuery) Predicate {
	return callTo(q, c.resolver)
}

// Find scans for the first window at or after from whose instructions
// satisfy preds in order. It does not move the cursor.
func (c *Cursor) Find(from int, preds ...Predicate) MatchResult {
	return find(c.body, from, preds)
}

func find(body bytecode.Stream, from int, preds []Predicate) MatchResult {
	if len(preds) == 0 {
		return MatchResult{Index: -1, Reason: "empty pattern"}
	}
	if from < 0 {
		from = 0
	}
	for i := from; i+len(preds) <= len(body); i++ {
		if window(body, i, preds) {
			return MatchResult{Index: i, Found: true}
		}
	}
	return MatchResult{
		Index:  -1,
		Reason: fmt.Sprintf("no %d-instruction match at or after index %d", len(preds), from),
	}
}

func window(body bytecode.Stream, at int, preds []Predicate) bool {
	for k, p := range preds {
		if !p(body[at+k]) {
			return false
		}
	}
	return true
}

// seek moves the cursor to the first match of preds at or after from, or
// invalidates it with a warning naming what was searched for.
func (c *Cursor) seek(op, what string, from int, preds ...Predicate) *Cursor {
	if c.built {
		c.warnf("%s: cursor already built", op)
		return c
	}
	res := find(c.body, from, preds)
	c.last = res
	if !res.Found {
		c.invalidate("%s: %s not found (%s)", op, what, res.Reason)
		return c
	}
	c.pos, c.valid = res.Index, true
	return c
}

// next is seek from the instruction after the cursor.
func (c *Cursor) next(op, what string, preds ...Predicate) *Cursor {
	if !c.require(op) {
		return c
	}
	return c.seek(op, what, c.pos+1, preds...)
}

// MatchOpcode moves to the first instruction with the given opcode.
func (c *Cursor) MatchOpcode(op bytecode.Opcode) *Cursor {
	return c.seek("MatchOpcode", op.String(), 0, Is(op))
}

// MatchOpcodeNext moves to the next instruction with the given opcode.
func (c *Cursor) MatchOpcodeNext(op bytecode.Opcode) *Cursor {
	return c.next("MatchOpcodeNext", op.String(), Is(op))
}

// MatchSequence moves to the first window satisfying preds in order.
func (c *Cursor) MatchSequence(preds ...Predicate) *Cursor {
	return c.seek("MatchSequence", sequenceName(preds), 0, preds...)
}

// MatchSequenceNext moves to the next window satisfying preds.
func (c *Cursor) MatchSequenceNext(preds ...Predicate) *Cursor {
	return c.next("MatchSequenceNext", sequenceName(preds), preds...)
}

func sequenceName(preds []Predicate) string {
	return fmt.Sprintf("%d-instruction sequence", len(preds))
}

// MatchCall moves to the first call site selected by q.
func (c *Cursor) MatchCall(q CallQuery) *Cursor {
	return c.seek("MatchCall", "call to "+q.String(), 0, c.CallTo(q))
}

// MatchCallNext moves to the next call site selected by q.
func (c *Cursor) MatchCallNext(q CallQuery) *Cursor {
	return c.next("MatchCallNext", "call to "+q.String(), c.CallTo(q))
}

// MatchPropertyGetter moves to the first call of the getter for prop.
func (c *Cursor) MatchPropertyGetter(typ bytecode.TypeRef, prop string, inherited bool) *Cursor {
	q := CallQuery{Type: typ, Name: "get_" + prop, IncludeInherited: inherited}
	return c.seek("MatchPropertyGetter", "getter "+q.String(), 0, c.CallTo(q))
}

// MatchFieldLoad moves to the first load of typ::name.
func (c *Cursor) MatchFieldLoad(typ bytecode.TypeRef, name string) *Cursor {
	return c.seek("MatchFieldLoad", "load of "+typ.Name+"::"+name, 0, IsFieldLoad(typ, name))
}

// MatchFieldStore moves to the first store to typ::name.
func (c *Cursor) MatchFieldStore(typ bytecode.TypeRef, name string) *Cursor {
	return c.seek("MatchFieldStore", "store to "+typ.Name+"::"+name, 0, IsFieldStore(typ, name))
}

// MatchBranch moves to the first branch instruction.
func (c *Cursor) MatchBranch() *Cursor {
	return c.seek("MatchBranch", "branch", 0, IsBranch())
}

// MatchBranchNext moves to the next branch instruction.
func (c *Cursor) MatchBranchNext() *Cursor {
	return c.next("MatchBranchNext", "branch", IsBranch())
}

// MatchLabel moves to the instruction carrying l.
func (c *Cursor) MatchLabel(l bytecode.Label) *Cursor {
	return c.seek("MatchLabel", "label "+l.String(), 0, func(ins bytecode.Instruction) bool {
		return ins.HasLabel(l)
	})
}

// FollowBranch moves from the branch at the cursor to its target.
func (c *Cursor) FollowBranch() *Cursor {
	if !c.require("FollowBranch") {
		return c
	}
	target, ok := c.body[c.pos].Target()
	if !ok {
		c.invalidate("FollowBranch: %s at index %d is not a branch", c.body[c.pos].Op, c.pos)
		return c
	}
	return c.MatchLabel(target)
}
