package patch

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/bytepatch/pkg/bytecode"
	"github.com/google/go-cmp/cmp"
)

func hitBody() bytecode.Stream {
	return bytecode.Stream{
		op(bytecode.OpLdarg), ldc(5), bytecode.Callvirt(entityDamage), op(bytecode.OpRet),
	}
}

func TestBuildMissedMatchReturnsOriginal(t *testing.T) {
	sink := &recordSink{}
	c := New(hitBody(), WithMethod(voidMethod("Hit")), WithSink(sink))

	c.MatchCall(CallQuery{Type: bytecode.T("Game.Player"), Name: "Heal"}).
		InsertBefore(op(bytecode.OpNop))
	if len(c.Warnings()) != 2 {
		t.Fatalf("warnings = %v, want 2", c.Warnings())
	}

	body, err := c.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if diff := cmp.Diff(hitBody(), body); diff != "" {
		t.Errorf("stream mismatch (-want +got):\n%s", diff)
	}
	if warnings, _ := sink.counts(); warnings != 2 {
		t.Errorf("sink received %d warnings, want 2", warnings)
	}
	for _, w := range sink.warnings {
		if !strings.HasSuffix(w, "in Game.Player::Hit") {
			t.Errorf("warning %q does not name the method", w)
		}
	}
}

func TestBuildOnce(t *testing.T) {
	c := New(hitBody(), WithSink(Discard))
	if _, err := c.Build(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Build(); !errors.Is(err, ErrAlreadyBuilt) {
		t.Errorf("second Build() error = %v, want ErrAlreadyBuilt", err)
	}

	c.InsertAfter(op(bytecode.OpNop))
	if c.Len() != hitBody().Len() {
		t.Error("cursor mutated after Build")
	}
}

func TestBuildStrict(t *testing.T) {
	c := New(hitBody(), WithPolicy(Policy{StrictBuild: true}), WithSink(Discard))
	c.MatchOpcode(bytecode.OpThrow)

	body, err := c.Build()
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("Build() error = %v, want *BuildError", err)
	}
	if body != nil {
		t.Error("refused build returned a stream")
	}
	if len(be.Warnings) != 1 || len(be.Critical) != 0 {
		t.Errorf("BuildError = %+v", be)
	}
}

func TestBuildStrictFailsOnValidatorFindings(t *testing.T) {
	c := New(hitBody(), WithMethod(voidMethod("Hit")), WithPolicy(Policy{StrictBuild: true}), WithSink(Discard))
	c.MatchOpcode(bytecode.OpRet).InsertBefore(ldc(1))

	_, err := c.Build()
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("Build() error = %v, want *BuildError", err)
	}
	if !strings.Contains(be.Error(), "unbalanced stack at return, depth = 1") {
		t.Errorf("Error() = %q", be.Error())
	}
}

func TestBuildStrictShortGetter(t *testing.T) {
	c := New(bytecode.Stream{op(bytecode.OpRet)},
		WithMethod(intMethod("GetHealth")),
		WithPolicy(Policy{StrictBuild: true}),
		WithSink(Discard))
	body, err := c.Build()
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("Build() = %v, %v, want *BuildError", body, err)
	}
	if body != nil || !strings.Contains(be.Error(), "unbalanced stack at return") {
		t.Errorf("Error() = %q", be.Error())
	}
}

func TestBuildFailFast(t *testing.T) {
	underflow := bytecode.Stream{
		ldc(1), op(bytecode.OpPop), ldc(1), op(bytecode.OpPop), op(bytecode.OpNop), op(bytecode.OpRet),
	}

	t.Run("critical refuses", func(t *testing.T) {
		c := New(underflow, WithMethod(intMethod("GetHealth")), WithPolicy(DefaultPolicy()), WithSink(Discard))
		_, err := c.Build()
		var be *BuildError
		if !errors.As(err, &be) {
			t.Fatalf("Build() error = %v, want *BuildError", err)
		}
		if len(be.Critical) != 2 {
			t.Errorf("Critical = %q, want underflow and unbalanced return", be.Critical)
		}
	})

	t.Run("lenient returns stream", func(t *testing.T) {
		c := New(underflow, WithMethod(intMethod("GetHealth")), WithSink(Discard))
		body, err := c.Build()
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if !body.Equal(underflow) || len(c.Warnings()) != 2 {
			t.Errorf("body=%v warnings=%v", body, c.Warnings())
		}
	})

	t.Run("non-critical warning passes", func(t *testing.T) {
		c := New(hitBody(), WithPolicy(DefaultPolicy()), WithSink(Discard))
		c.MatchOpcode(bytecode.OpThrow)
		if _, err := c.Build(); err != nil {
			t.Errorf("Build() error = %v", err)
		}
	})

	t.Run("tagged warning refuses", func(t *testing.T) {
		c := New(hitBody(), WithPolicy(DefaultPolicy()), WithSink(Discard))
		c.Warn("%s target removed upstream", CriticalTag)
		if _, err := c.Build(); err == nil {
			t.Error("Build() accepted a critical warning")
		}
	})
}

func TestBuildMethod(t *testing.T) {
	m := &bytecode.Method{Meta: *voidMethod("Hit"), Body: hitBody()}
	c := NewForMethod(m, WithSink(Discard))
	c.MatchCall(CallQuery{Type: bytecode.T("Game.Entity"), Name: "Damage"}).
		InsertAfter(op(bytecode.OpNop))

	out, err := c.BuildMethod()
	if err != nil {
		t.Fatal(err)
	}
	if out.Meta.FullName() != "Game.Player::Hit" || out.Body.Len() != 5 {
		t.Errorf("BuildMethod() = %s with %d instructions", out.Meta.FullName(), out.Body.Len())
	}
	if m.Body.Len() != 4 {
		t.Error("input method mutated")
	}
}

func TestPolicyIsCritical(t *testing.T) {
	p := Policy{CriticalMarkers: []string{"obsolete"}}
	tests := []struct {
		msg  string
		want bool
	}{
		{"stack validation: stack underflow at index 7 (pop) in A::B", true},
		{"stack validation: unbalanced stack at return, depth = 2 (index 9) in A::B", true},
		{"stack validation: branch at index 0 targets undefined label L3 in A::B", true},
		{"critical: custom", true},
		{"call to obsolete API in A::B", true},
		{"MatchCall: call to A::B not found in A::B", false},
		{"InsertBefore: skipped, cursor has no valid position in A::B", false},
	}
	for _, tt := range tests {
		if got := p.IsCritical(tt.msg); got != tt.want {
			t.Errorf("IsCritical(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
	if got := p.Critical([]string{"critical: a", "fine"}); len(got) != 1 {
		t.Errorf("Critical() = %v", got)
	}
}
