package patch

import (
	"fmt"

	"github.com/chazu/bytepatch/pkg/bytecode"
)

// Resolver is the symbol lookup service used for inherited call matching
// and for resolving replacement call targets. symbols.Table implements it.
type Resolver interface {
	// IsAssignable reports whether a value of type from can be used where
	// to is expected.
	IsAssignable(from, to bytecode.TypeRef) bool

	// LookupMethod resolves a method on typ or its base types. A nil params
	// slice matches any overload.
	LookupMethod(typ bytecode.TypeRef, name string, params []bytecode.TypeRef) (*bytecode.MethodRef, error)
}

// Cursor is a position plus validity flag over a private copy of a method
// body. It is created once per patch request, driven by a single chain of
// calls, and consumed by Build. It is not safe for concurrent use.
type Cursor struct {
	body  bytecode.Stream
	meta  *bytecode.MethodMetadata
	pos   int
	valid bool

	resolver    Resolver
	policy      Policy
	sink        Sink
	caller      string
	escalations *Escalations

	warnings  []string
	notices   []string
	rewrites  int
	nextLabel bytecode.Label
	last      MatchResult
	built     bool
}

// Option configures a Cursor.
type Option func(*Cursor)

// WithMethod supplies the method metadata used by the stack validator and
// in diagnostics.
func WithMethod(meta *bytecode.MethodMetadata) Option {
	return func(c *Cursor) {
		if meta != nil {
			cp := *meta
			c.meta = &cp
		}
	}
}

// WithResolver supplies the symbol lookup service.
func WithResolver(r Resolver) Option {
	return func(c *Cursor) { c.resolver = r }
}

// WithPolicy sets the safety policy read by bulk replacement and Build.
func WithPolicy(p Policy) Option {
	return func(c *Cursor) { c.policy = p }
}

// WithSink sets where diagnostics are forwarded at Build time.
func WithSink(s Sink) Option {
	return func(c *Cursor) { c.sink = s }
}

// WithCaller names the patch author for escalation notices.
func WithCaller(name string) Option {
	return func(c *Cursor) { c.caller = name }
}

// WithEscalations shares an escalation tracker between cursors so a policy
// escalation notice is emitted once per caller and method across requests.
func WithEscalations(e *Escalations) Option {
	return func(c *Cursor) { c.escalations = e }
}

// New creates a cursor over a copy of body. The cursor starts valid at
// index 0, or invalid when body is empty.
func New(body bytecode.Stream, opts ...Option) *Cursor {
	c := &Cursor{
		body:   body.Clone(),
		caller: "unknown",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sink == nil {
		c.sink = defaultSink()
	}
	if c.escalations == nil {
		c.escalations = NewEscalations()
	}
	if c.body == nil {
		c.body = bytecode.Stream{}
	}
	c.nextLabel = c.body.NextLabel()
	c.reset()
	return c
}

// NewForMethod creates a cursor over m's body with m's metadata.
func NewForMethod(m *bytecode.Method, opts ...Option) *Cursor {
	return New(m.Body, append([]Option{WithMethod(&m.Meta)}, opts...)...)
}

// Start moves the cursor back to the first instruction.
func (c *Cursor) Start() *Cursor {
	c.reset()
	return c
}

func (c *Cursor) reset() {
	if len(c.body) == 0 {
		c.pos, c.valid = -1, false
		return
	}
	c.pos, c.valid = 0, true
}

// Advance moves the cursor forward n instructions. Leaving the stream
// invalidates the cursor.
func (c *Cursor) Advance(n int) *Cursor {
	if !c.require("Advance") {
		return c
	}
	target := c.pos + n
	if target < 0 || target >= len(c.body) {
		c.invalidate("Advance(%d): position %d is outside the stream of %d instructions", n, target, len(c.body))
		return c
	}
	c.pos = target
	return c
}

// Retreat moves the cursor back n instructions.
func (c *Cursor) Retreat(n int) *Cursor {
	return c.Advance(-n)
}

// Pos returns the current index, or -1 when the cursor is invalid.
func (c *Cursor) Pos() int {
	return c.pos
}

// Valid reports whether the cursor points at an instruction.
func (c *Cursor) Valid() bool {
	return c.valid
}

// Current returns the instruction at the cursor.
func (c *Cursor) Current() (bytecode.Instruction, bool) {
	if !c.valid {
		return bytecode.Instruction{}, false
	}
	return c.body[c.pos].Clone(), true
}

// Len returns the current stream length.
func (c *Cursor) Len() int {
	return len(c.body)
}

// Instructions returns a snapshot of the current stream.
func (c *Cursor) Instructions() bytecode.Stream {
	return c.body.Clone()
}

// Method returns the metadata the cursor was created with, or nil.
func (c *Cursor) Method() *bytecode.MethodMetadata {
	return c.meta
}

// Warnings returns the accumulated warnings.
func (c *Cursor) Warnings() []string {
	return append([]string(nil), c.warnings...)
}

// Rewrites returns how many instructions or match sites this cursor has
// rewritten so far.
func (c *Cursor) Rewrites() int {
	return c.rewrites
}

// LastMatch returns the outcome of the most recent matcher call.
func (c *Cursor) LastMatch() MatchResult {
	return c.last
}

// CreateLabel attaches a fresh label to the current instruction so inserted
// branches can target it.
func (c *Cursor) CreateLabel() (bytecode.Label, bool) {
	if !c.require("CreateLabel") {
		return 0, false
	}
	l := c.nextLabel
	c.nextLabel++
	c.body[c.pos] = c.body[c.pos].AddLabels(l)
	return l, true
}

// Warn records a caller-supplied warning. Prefix the message with
// CriticalTag to make it build-fatal under a fail-fast policy.
func (c *Cursor) Warn(format string, args ...any) *Cursor {
	c.warnf(format, args...)
	return c
}

func (c *Cursor) methodName() string {
	return c.meta.FullName()
}

func (c *Cursor) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...)+" in "+c.methodName())
}

func (c *Cursor) noticef(format string, args ...any) {
	c.notices = append(c.notices, fmt.Sprintf(format, args...))
}

// invalidate marks the cursor invalid and records why.
func (c *Cursor) invalidate(format string, args ...any) {
	c.pos, c.valid = -1, false
	c.warnf(format, args...)
}

// require reports whether a positional operation may run, recording a
// warning when it may not.
func (c *Cursor) require(op string) bool {
	if c.built {
		c.warnf("%s: cursor already built", op)
		return false
	}
	if !c.valid {
		c.warnf("%s: skipped, cursor has no valid position", op)
		return false
	}
	return true
}
