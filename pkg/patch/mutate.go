package patch

import (
	"github.com/chazu/bytepatch/pkg/bytecode"
)

// ReplaceInstruction overwrites the instruction at the cursor. The slot
// keeps its labels.
func (c *Cursor) ReplaceInstruction(op bytecode.Opcode, operand ...bytecode.Operand) *Cursor {
	if !c.require("ReplaceInstruction") {
		return c
	}
	c.body = c.body.Replace(c.pos, bytecode.New(op, operand...))
	c.rewrites++
	return c
}

// ReplaceWithCall overwrites the instruction at the cursor with a call to a
// resolved static method. A nil params slice accepts any single overload.
func (c *Cursor) ReplaceWithCall(typ bytecode.TypeRef, name string, params []bytecode.TypeRef) *Cursor {
	if !c.require("ReplaceWithCall") {
		return c
	}
	target, ok := c.resolveStatic("ReplaceWithCall", typ, name, params)
	if !ok {
		return c
	}
	c.body = c.body.Replace(c.pos, bytecode.Call(target))
	c.rewrites++
	return c
}

// resolveStatic looks up a replacement call target and insists it is
// static, since a rewritten call site has no receiver to pass.
func (c *Cursor) resolveStatic(op string, typ bytecode.TypeRef, name string, params []bytecode.TypeRef) (*bytecode.MethodRef, bool) {
	if c.resolver == nil {
		c.warnf("%s: no resolver configured to look up %s::%s", op, typ.Name, name)
		return nil, false
	}
	m, err := c.resolver.LookupMethod(typ, name, params)
	if err != nil {
		c.warnf("%s: cannot resolve %s::%s: %v", op, typ.Name, name, err)
		return nil, false
	}
	if !m.Static {
		c.warnf("%s: replacement target %s must be static", op, m)
		return nil, false
	}
	return m, true
}

// InsertBefore inserts instructions before the cursor. The cursor stays on
// the instruction it pointed at. Labels on ins are discarded.
func (c *Cursor) InsertBefore(ins ...bytecode.Instruction) *Cursor {
	if !c.require("InsertBefore") {
		return c
	}
	c.body = c.body.Insert(c.pos, unlabeled(ins)...)
	c.pos += len(ins)
	return c
}

// InsertAfter inserts instructions after the cursor and moves the cursor to
// the last inserted instruction. Labels on ins are discarded.
func (c *Cursor) InsertAfter(ins ...bytecode.Instruction) *Cursor {
	if !c.require("InsertAfter") {
		return c
	}
	c.body = c.body.Insert(c.pos+1, unlabeled(ins)...)
	c.pos += len(ins)
	return c
}

// Remove deletes the instruction at the cursor. Its labels move to the
// instruction that follows, or to the new last instruction. The cursor
// stays at the same index, clamped to the end of the stream.
func (c *Cursor) Remove() *Cursor {
	if !c.require("Remove") {
		return c
	}
	if len(c.body) == 1 && len(c.body[0].Labels) > 0 {
		c.warnf("Remove: removing the only instruction drops labels %v", c.body[0].Labels)
	}
	c.body = c.body.Remove(c.pos, 1)
	c.rewrites++
	c.clamp()
	return c
}

// ReplaceSequence removes count instructions starting at the cursor and
// inserts repl in their place. Labels of the removed window move to the
// first replacement instruction.
func (c *Cursor) ReplaceSequence(count int, repl ...bytecode.Instruction) *Cursor {
	if !c.require("ReplaceSequence") {
		return c
	}
	if count < 0 || c.pos+count > len(c.body) {
		c.warnf("ReplaceSequence: window of %d at index %d exceeds stream of %d instructions",
			count, c.pos, len(c.body))
		return c
	}
	c.body = c.body.Splice(c.pos, count, unlabeled(repl)...)
	c.rewrites++
	c.clamp()
	return c
}

func (c *Cursor) clamp() {
	switch {
	case len(c.body) == 0:
		c.pos, c.valid = -1, false
	case c.pos >= len(c.body):
		c.pos = len(c.body) - 1
	}
}

func unlabeled(ins []bytecode.Instruction) []bytecode.Instruction {
	out := make([]bytecode.Instruction, len(ins))
	for i, in := range ins {
		out[i] = in.WithoutLabels()
	}
	return out
}
