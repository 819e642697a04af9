package patch

import (
	"github.com/chazu/bytepatch/pkg/bytecode"
)

// ReplaceAllPatterns replaces every non-overlapping window matching preds
// with repl. Windows are found left to right, the scan resuming after the
// end of each match, and are rewritten right to left so earlier indices
// stay valid.
//
// With preserveCount set, each window keeps its instruction count where
// possible: a shorter replacement is padded with leading nops, a longer one
// overwrites the window and inserts the remainder after it. Every
// overwritten slot keeps its labels. Without it, each window is spliced.
// Policy.ForcePreserveCount turns preserveCount on and emits a one-time
// notice per caller and method.
//
// On success the cursor moves to the first match.
func (c *Cursor) ReplaceAllPatterns(preds []Predicate, repl []bytecode.Instruction, preserveCount bool) *Cursor {
	if !c.require("ReplaceAllPatterns") {
		return c
	}
	if len(preds) == 0 {
		c.warnf("ReplaceAllPatterns: empty pattern")
		return c
	}
	if !preserveCount && c.policy.ForcePreserveCount {
		preserveCount = true
		c.escalate("ReplaceAllPatterns")
	}

	starts := scanAll(c.body, preds)
	if len(starts) == 0 {
		c.invalidate("ReplaceAllPatterns: no match for %s", sequenceName(preds))
		return c
	}

	repl = unlabeled(repl)
	for i := len(starts) - 1; i >= 0; i-- {
		if preserveCount {
			c.body = overwrite(c.body, starts[i], len(preds), repl)
		} else {
			c.body = c.body.Splice(starts[i], len(preds), repl...)
		}
	}
	c.rewrites += len(starts)
	c.pos, c.valid = starts[0], true
	c.clamp()
	return c
}

// scanAll returns the start of every non-overlapping match.
func scanAll(body bytecode.Stream, preds []Predicate) []int {
	var starts []int
	for i := 0; i+len(preds) <= len(body); {
		if window(body, i, preds) {
			starts = append(starts, i)
			i += len(preds)
			continue
		}
		i++
	}
	return starts
}

// overwrite rewrites the window [at, at+w) in place, keeping slot labels.
func overwrite(body bytecode.Stream, at, w int, repl []bytecode.Instruction) bytecode.Stream {
	r := len(repl)
	if r <= w {
		pad := w - r
		for k := 0; k < pad; k++ {
			body = body.Replace(at+k, bytecode.Nop())
		}
		for k := 0; k < r; k++ {
			body = body.Replace(at+pad+k, repl[k])
		}
		return body
	}
	for k := 0; k < w; k++ {
		body = body.Replace(at+k, repl[k])
	}
	return body.Insert(at+w, repl[w:]...)
}

// ReplaceAllCalls rewrites every call site selected by from into a call to
// the static method toType::toName. A target that is not static is refused
// and the stream is left unchanged. On success the cursor moves to the
// first rewritten site.
func (c *Cursor) ReplaceAllCalls(from CallQuery, toType bytecode.TypeRef, toName string) *Cursor {
	if !c.require("ReplaceAllCalls") {
		return c
	}
	target, ok := c.resolveStatic("ReplaceAllCalls", toType, toName, nil)
	if !ok {
		return c
	}

	match := c.CallTo(from)
	first := -1
	for i, ins := range c.body {
		if !match(ins) {
			continue
		}
		c.body = c.body.Replace(i, bytecode.Call(target))
		c.rewrites++
		if first < 0 {
			first = i
		}
	}
	if first < 0 {
		c.invalidate("ReplaceAllCalls: no call to %s", from)
		return c
	}
	c.pos, c.valid = first, true
	return c
}

func (c *Cursor) escalate(op string) {
	method := c.methodName()
	if !c.escalations.First(c.caller, method) {
		return
	}
	c.noticef("%s: policy forces instruction-count preservation for %s patching %s", op, c.caller, method)
}
