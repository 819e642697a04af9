package patch

import (
	"context"
	"fmt"

	"github.com/chazu/bytepatch/pkg/bytecode"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Request is one independent patch: a method and the chain to run on it.
type Request struct {
	ID     uuid.UUID
	Caller string
	Method *bytecode.Method
	Patch  func(*Cursor)
}

// Outcome is the result of one Request. Body is nil when Err is set.
type Outcome struct {
	ID       uuid.UUID
	Method   string
	Body     bytecode.Stream
	Warnings []string
	Err      error
}

// BatchOptions configure RunBatch. Limit bounds the number of requests
// patched at once; zero or less means no limit.
type BatchOptions struct {
	Resolver    Resolver
	Policy      Policy
	Sink        Sink
	Escalations *Escalations
	Limit       int
}

// RunBatch patches every request concurrently, each on its own cursor.
// Requests share the resolver, sink and escalation tracker. Outcomes are
// returned in request order; requests not started before ctx is done get
// ctx's error. The returned error is ctx.Err().
func RunBatch(ctx context.Context, reqs []Request, opts BatchOptions) ([]Outcome, error) {
	if opts.Escalations == nil {
		opts.Escalations = NewEscalations()
	}
	if opts.Sink == nil {
		opts.Sink = defaultSink()
	}

	outcomes := make([]Outcome, len(reqs))
	var g errgroup.Group
	if opts.Limit > 0 {
		g.SetLimit(opts.Limit)
	}

	for i, req := range reqs {
		if req.ID == uuid.Nil {
			req.ID = uuid.New()
		}
		g.Go(func() error {
			outcomes[i] = runOne(ctx, req, opts)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, ctx.Err()
}

func runOne(ctx context.Context, req Request, opts BatchOptions) (out Outcome) {
	out.ID = req.ID
	if req.Method == nil {
		out.Err = fmt.Errorf("patch: request %s has no method", req.ID)
		return out
	}
	out.Method = req.Method.Meta.FullName()
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	caller := req.Caller
	if caller == "" {
		caller = req.ID.String()
	}
	c := NewForMethod(req.Method,
		WithResolver(opts.Resolver),
		WithPolicy(opts.Policy),
		WithSink(opts.Sink),
		WithCaller(caller),
		WithEscalations(opts.Escalations),
	)

	defer func() {
		if r := recover(); r != nil {
			out.Body = nil
			out.Err = fmt.Errorf("patch: request %s panicked: %v", req.ID, r)
		}
	}()
	if req.Patch != nil {
		req.Patch(c)
	}
	out.Body, out.Err = c.Build()
	out.Warnings = c.Warnings()
	return out
}
