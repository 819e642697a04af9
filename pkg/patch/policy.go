package patch

import (
	"strings"
	"sync"
)

// CriticalTag marks a caller-supplied warning as critical.
const CriticalTag = "critical:"

// builtinMarkers classify the validator's own findings as critical.
var builtinMarkers = []string{
	"stack underflow",
	"unbalanced stack",
	"undefined label",
	"missing method reference",
}

// Policy controls how strictly a patch is applied. The zero Policy is
// permissive: warnings are reported but never fail a build.
type Policy struct {
	// ForcePreserveCount makes every bulk pattern replacement preserve
	// instruction counts, whatever the caller asked for.
	ForcePreserveCount bool `toml:"force-preserve-count" yaml:"force-preserve-count"`

	// FailFastOnCritical fails Build when any warning is critical.
	FailFastOnCritical bool `toml:"fail-fast-on-critical" yaml:"fail-fast-on-critical"`

	// StrictBuild fails Build on any warning at all.
	StrictBuild bool `toml:"strict-build" yaml:"strict-build"`

	// CriticalMarkers are extra substrings that make a warning critical.
	CriticalMarkers []string `toml:"critical-markers" yaml:"critical-markers"`
}

// DefaultPolicy fails fast on critical warnings and nothing else.
func DefaultPolicy() Policy {
	return Policy{FailFastOnCritical: true}
}

// IsCritical reports whether a warning message is critical: it carries
// CriticalTag, a validator finding, or one of the configured markers.
func (p Policy) IsCritical(msg string) bool {
	if strings.HasPrefix(msg, CriticalTag) {
		return true
	}
	for _, m := range builtinMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	for _, m := range p.CriticalMarkers {
		if m != "" && strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// Critical filters warnings down to the critical ones.
func (p Policy) Critical(warnings []string) []string {
	var out []string
	for _, w := range warnings {
		if p.IsCritical(w) {
			out = append(out, w)
		}
	}
	return out
}

// Escalations remembers which caller and method pairs have already been
// told that policy overrode their request. It is safe for concurrent use.
type Escalations struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewEscalations creates an empty tracker.
func NewEscalations() *Escalations {
	return &Escalations{seen: make(map[string]struct{})}
}

// First records the pair and reports whether it was new.
func (e *Escalations) First(caller, method string) bool {
	key := caller + "\x00" + method
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.seen[key]; ok {
		return false
	}
	e.seen[key] = struct{}{}
	return true
}

// Len returns the number of recorded pairs.
func (e *Escalations) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.seen)
}
