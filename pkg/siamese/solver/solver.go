// Package solver implements depth-first SLD resolution over a knowledge
// base snapshot, producing a lazy stream of variable bindings. One
// Solver drives one query and owns that query's fresh-variable counter;
// concurrent queries each get their own Solver.
package solver

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/builtin"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/kb"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/term"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/unify"
)

// DefaultMaxDepth bounds rule recursion unless the caller overrides it.
const DefaultMaxDepth = 25

// Unbounded disables the solution cap.
const Unbounded = -1

// Options configures a single query's solver.
type Options struct {
	KB       *kb.Snapshot
	Builtins *builtin.Registry

	// MaxDepth caps rule expansions per branch. Zero or negative selects
	// DefaultMaxDepth.
	MaxDepth int

	// MaxSolutions caps the stream when >= 0; Unbounded means no cap.
	MaxSolutions int

	// Logger receives trace events at debug level. Nil disables tracing.
	Logger *zap.Logger
}

// Solver resolves one query.
type Solver struct {
	kb           *kb.Snapshot
	builtins     *builtin.Registry
	maxDepth     int
	maxSolutions int
	log          *zap.Logger
	id           string
	fresh        int
}

// New creates a solver for one query. The query gets a ULID identity
// that tags every trace event it emits.
func New(opts Options) *Solver {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := ulid.Make().String()
	return &Solver{
		kb:           opts.KB,
		builtins:     opts.Builtins,
		maxDepth:     maxDepth,
		maxSolutions: opts.MaxSolutions,
		log:          logger.With(zap.String("query_id", id)),
		id:           id,
	}
}

// QueryID returns the solver's ULID query identity.
func (s *Solver) QueryID() string { return s.id }

// Run starts resolution of goal with an empty substitution and returns
// the lazy solution stream. The producer stops at its next suspension
// point once ctx is cancelled, the stream is closed, or the solution cap
// is reached.
func (s *Solver) Run(ctx context.Context, goal *term.Compound) *Solutions {
	ctx, cancel := context.WithCancel(ctx)
	sols := &Solutions{
		ch:     make(chan Solution),
		cancel: cancel,
	}
	names := term.Vars(goal)

	go func() {
		defer close(sols.ch)
		count := 0
		_, err := s.solve(ctx, []*term.Compound{goal}, nil, 0, func(b *unify.Bindings) bool {
			if s.maxSolutions >= 0 && count >= s.maxSolutions {
				return false
			}
			select {
			case sols.ch <- project(names, b):
			case <-ctx.Done():
				return false
			}
			count++
			return s.maxSolutions < 0 || count < s.maxSolutions
		})
		sols.err = err
	}()
	return sols
}

// project deep-walks the user's query variables, and only those, into a
// solution mapping. Fresh variables introduced by renaming never leak.
func project(names []string, b *unify.Bindings) Solution {
	out := make(Solution, len(names))
	for _, name := range names {
		out[name] = unify.DeepWalk(term.Var(name), b)
	}
	return out
}

// solve proves the goal list left-to-right under b. Each solution is
// handed to yield; a false return stops the search. The returned bool
// tells the caller whether to keep trying alternatives; a non-nil error
// is fatal for the query.
func (s *Solver) solve(ctx context.Context, goals []*term.Compound, b *unify.Bindings, depth int, yield func(*unify.Bindings) bool) (bool, error) {
	if ctx.Err() != nil {
		return false, nil
	}
	if len(goals) == 0 {
		return yield(b), nil
	}
	if depth > s.maxDepth {
		// Silent cutoff: the branch is pruned, not failed.
		return true, nil
	}

	goal := unify.ResolveGoal(goals[0], b)
	rest := goals[1:]
	s.traceCall(goal, depth)

	produced := false
	wrapped := func(b1 *unify.Bindings) bool {
		if produced {
			s.traceRedo(goal)
		} else {
			s.traceExit(goal, b1)
			produced = true
		}
		return yield(b1)
	}

	if handler, ok := s.builtins.Lookup(goal.Name); ok {
		cont, err := s.solveBuiltin(ctx, handler, goal, rest, b, depth, wrapped)
		if !produced {
			s.traceFail(goal)
		}
		return cont, err
	}

	for _, clause := range s.kb.ClausesFor(goal.Name, len(goal.Args)) {
		if ctx.Err() != nil {
			return false, nil
		}
		head, body := s.rename(clause)
		b1, ok := unify.Unify(goal, head, b)
		if !ok {
			continue
		}
		next := make([]*term.Compound, 0, len(body)+len(rest))
		next = append(next, body...)
		next = append(next, rest...)
		cont, err := s.solve(ctx, next, b1, depth+1, wrapped)
		if err != nil {
			return false, err
		}
		if !cont {
			return false, nil
		}
	}
	if !produced {
		s.traceFail(goal)
	}
	return true, nil
}

// solveBuiltin dispatches to a registered handler. Built-in invocation
// does not count as a rule expansion, so depth is unchanged. A handler
// error is fatal for the query; an empty yield sequence is plain failure.
func (s *Solver) solveBuiltin(ctx context.Context, handler builtin.Handler, goal *term.Compound, rest []*term.Compound, b *unify.Bindings, depth int, yield func(*unify.Bindings) bool) (bool, error) {
	keepGoing := true
	var solveErr error
	call := &builtin.Call{
		Goal:     goal,
		Bindings: b,
		Yield: func(b1 *unify.Bindings) bool {
			cont, err := s.solve(ctx, rest, b1, depth, yield)
			if err != nil {
				solveErr = err
				keepGoing = false
				return false
			}
			if !cont {
				keepGoing = false
				return false
			}
			return true
		},
		Resolve: func(ctx context.Context, goals []*term.Compound, b2 *unify.Bindings, y func(*unify.Bindings) bool) error {
			_, err := s.solve(ctx, goals, b2, depth, y)
			return err
		},
	}
	if err := handler(ctx, call); err != nil {
		return false, fmt.Errorf("built-in %s: %w", goal.Name, err)
	}
	if solveErr != nil {
		return false, solveErr
	}
	return keepGoing, nil
}

// rename replaces every variable of a clause with a fresh one before
// use, consistently within the use, so a recursive clause cannot capture
// its own variables.
func (s *Solver) rename(c kb.Clause) (*term.Compound, []*term.Compound) {
	mapping := make(map[term.Var]term.Var)
	head := s.renameCompound(c.Head, mapping)
	body := make([]*term.Compound, len(c.Body))
	for i, g := range c.Body {
		body[i] = s.renameCompound(g, mapping)
	}
	return head, body
}

func (s *Solver) renameCompound(c *term.Compound, mapping map[term.Var]term.Var) *term.Compound {
	args := make([]term.Term, len(c.Args))
	for i, a := range c.Args {
		args[i] = s.renameTerm(a, mapping)
	}
	return &term.Compound{Name: c.Name, Args: args}
}

func (s *Solver) renameTerm(t term.Term, mapping map[term.Var]term.Var) term.Term {
	switch x := t.(type) {
	case term.Var:
		if fresh, ok := mapping[x]; ok {
			return fresh
		}
		s.fresh++
		fresh := term.Fresh(x, s.fresh)
		mapping[x] = fresh
		return fresh
	case *term.Compound:
		return s.renameCompound(x, mapping)
	case term.List:
		out := make(term.List, len(x))
		for i, e := range x {
			out[i] = s.renameTerm(e, mapping)
		}
		return out
	case term.Object:
		out := make(term.Object, len(x))
		for k, v := range x {
			out[k] = s.renameTerm(v, mapping)
		}
		return out
	}
	return t
}
