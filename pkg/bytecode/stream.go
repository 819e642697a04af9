package bytecode

import (
	"fmt"
	"slices"
)

// Stream is an ordered instruction sequence for one method body.
// Positions are slice indices; branch targets are labels, so inserting or
// removing instructions shifts positions without invalidating jumps as long
// as labels stay attached to an instruction.
type Stream []Instruction

// Clone returns a deep copy of the stream. The copy shares no label slices
// with s.
func (s Stream) Clone() Stream {
	if s == nil {
		return nil
	}
	out := make(Stream, len(s))
	for i, ins := range s {
		out[i] = ins.Clone()
	}
	return out
}

// Len returns the number of instructions.
func (s Stream) Len() int {
	return len(s)
}

// Insert inserts instructions before index at and returns the new stream.
// at may equal Len() to append.
func (s Stream) Insert(at int, ins ...Instruction) Stream {
	return slices.Insert(s, at, cloneAll(ins)...)
}

// Replace overwrites the instruction at index at with ins, keeping the label
// set of the slot being replaced. Labels carried by ins are discarded.
func (s Stream) Replace(at int, ins Instruction) Stream {
	s[at] = ins.WithLabels(s[at].Labels)
	return s
}

// Remove deletes n instructions starting at index at. Labels carried by the
// removed instructions move to the instruction that takes index at, or to
// the new last instruction when the tail is removed. Labels are dropped only
// when the stream becomes empty.
func (s Stream) Remove(at, n int) Stream {
	return s.Splice(at, n)
}

// Splice removes n instructions at index at and inserts repl in their place.
// Labels of the removed instructions move to the first replacement
// instruction; with an empty replacement they follow Remove's rules.
func (s Stream) Splice(at, n int, repl ...Instruction) Stream {
	moved := s.LabelsIn(at, n)
	s = slices.Delete(s, at, at+n)
	s = slices.Insert(s, at, cloneAll(repl)...)
	if len(moved) == 0 || len(s) == 0 {
		return s
	}
	dst := at
	if dst >= len(s) {
		dst = len(s) - 1
	}
	s[dst] = s[dst].AddLabels(moved...)
	return s
}

// LabelsIn returns the labels attached to instructions in [at, at+n).
func (s Stream) LabelsIn(at, n int) []Label {
	var out []Label
	for _, ins := range s[at : at+n] {
		out = append(out, ins.Labels...)
	}
	return out
}

// IndexOfLabel returns the index of the instruction carrying l, or -1.
func (s Stream) IndexOfLabel(l Label) int {
	for i, ins := range s {
		if ins.HasLabel(l) {
			return i
		}
	}
	return -1
}

// MaxLabel returns the highest label attached to or referenced by any
// instruction, and false if the stream has no labels at all.
func (s Stream) MaxLabel() (Label, bool) {
	var hi Label
	found := false
	note := func(l Label) {
		if !found || l > hi {
			hi = l
			found = true
		}
	}
	for _, ins := range s {
		for _, l := range ins.Labels {
			note(l)
		}
		if l, ok := ins.Target(); ok {
			note(l)
		}
	}
	return hi, found
}

// NextLabel returns a label id not used anywhere in the stream.
func (s Stream) NextLabel() Label {
	hi, ok := s.MaxLabel()
	if !ok {
		return 0
	}
	return hi + 1
}

// DanglingBranch describes a branch whose target label is attached to no
// instruction.
type DanglingBranch struct {
	Index int
	Label Label
}

func (d DanglingBranch) String() string {
	return fmt.Sprintf("branch at index %d targets undefined label %s", d.Index, d.Label)
}

// DanglingBranches returns every branch whose target label is missing.
func (s Stream) DanglingBranches() []DanglingBranch {
	var out []DanglingBranch
	for i, ins := range s {
		if l, ok := ins.Target(); ok && s.IndexOfLabel(l) < 0 {
			out = append(out, DanglingBranch{Index: i, Label: l})
		}
	}
	return out
}

// Equal reports whether two streams hold equal instructions in order.
func (s Stream) Equal(other Stream) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !s[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

func cloneAll(ins []Instruction) []Instruction {
	out := make([]Instruction, len(ins))
	for i, in := range ins {
		out[i] = in.Clone()
	}
	return out
}
