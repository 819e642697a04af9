// Package patch rewrites a method's instruction stream through a fluent
// Cursor: matchers move the cursor to call sites, field accesses, opcodes or
// instruction windows, and mutations insert, replace or remove instructions
// at that position while keeping every branch label attached.
//
// A patch request is one Cursor used by one goroutine:
//
//	c := patch.New(method.Body,
//		patch.WithMethod(&method.Meta),
//		patch.WithResolver(table),
//		patch.WithPolicy(policy))
//	c.MatchCall(patch.CallQuery{Type: bytecode.T("Game.Player"), Name: "Damage"}).
//		InsertBefore(bytecode.New(bytecode.OpDup)).
//		InsertAfter(bytecode.New(bytecode.OpPop))
//	body, err := c.Build()
//
// # Failure Model
//
// Nothing in a chain panics or returns an error. A matcher that finds
// nothing records a warning and invalidates the cursor; every later
// positional operation records another warning and does nothing. Build is
// the only place a patch can fail, and only when the Policy says so: strict
// builds fail on any warning, fail-fast builds on critical warnings such as
// stack validator findings. Build never returns a partially applied stream.
//
// # Stack Validation
//
// Before returning, Build runs a linear stack-depth pass over the final
// stream. It does not follow branches or model exception regions, so it
// catches the common mistakes (a missing pop after an inserted call, a wrong
// constructor argument count) but not underflows that only happen on a
// branch-only path.
package patch
