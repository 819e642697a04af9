package patch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/bytepatch/pkg/bytecode"
)

// ErrAlreadyBuilt is returned by a second Build on the same cursor.
var ErrAlreadyBuilt = errors.New("patch: cursor already built")

// BuildError reports a build refused by policy. Warnings holds every
// diagnostic of the request; Critical the subset that caused a fail-fast
// refusal, empty for strict-build refusals.
type BuildError struct {
	Method   string
	Warnings []string
	Critical []string
}

func (e *BuildError) Error() string {
	reasons := e.Critical
	kind := "critical warning"
	if len(reasons) == 0 {
		reasons = e.Warnings
		kind = "warning"
	}
	return fmt.Sprintf("patch: build of %s refused, %d %s(s): %s",
		e.Method, len(reasons), kind, strings.Join(reasons, "; "))
}

// Build finalizes the patch and returns the rewritten stream. It runs the
// stack validator unless the request already produced warnings, applies
// the policy, and forwards all diagnostics to the sink. A refused build
// returns a *BuildError and no stream. A cursor can be built once.
func (c *Cursor) Build() (bytecode.Stream, error) {
	if c.built {
		return nil, ErrAlreadyBuilt
	}
	c.built = true
	defer c.flush()

	if c.policy.StrictBuild && len(c.warnings) > 0 {
		return nil, c.refuse(nil)
	}

	if len(c.warnings) == 0 {
		res := Validate(c.body, c.meta)
		for _, f := range res.Findings {
			c.warnf("stack validation: %s", f)
		}
	}

	if c.policy.StrictBuild && len(c.warnings) > 0 {
		return nil, c.refuse(nil)
	}
	if c.policy.FailFastOnCritical {
		if crit := c.policy.Critical(c.warnings); len(crit) > 0 {
			return nil, c.refuse(crit)
		}
	}
	return c.body.Clone(), nil
}

// BuildMethod is Build paired with the cursor's method metadata.
func (c *Cursor) BuildMethod() (*bytecode.Method, error) {
	body, err := c.Build()
	if err != nil {
		return nil, err
	}
	m := &bytecode.Method{Body: body}
	if c.meta != nil {
		m.Meta = *c.meta
	}
	return m, nil
}

func (c *Cursor) refuse(critical []string) *BuildError {
	return &BuildError{
		Method:   c.methodName(),
		Warnings: c.Warnings(),
		Critical: critical,
	}
}

func (c *Cursor) flush() {
	for _, n := range c.notices {
		c.sink.Notice(n)
	}
	for _, w := range c.warnings {
		c.sink.Warning(w)
	}
}
