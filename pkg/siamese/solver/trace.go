package solver

import (
	"go.uber.org/zap"

	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/term"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/unify"
)

// Trace events follow the four-port box model: CALL when a goal is
// selected, EXIT when it first succeeds, REDO when a further solution is
// pulled through it, FAIL when it yields none. Events are observational
// only; they never alter the solution stream.

func (s *Solver) traceCall(goal *term.Compound, depth int) {
	if ce := s.log.Check(zap.DebugLevel, "CALL"); ce != nil {
		ce.Write(zap.Stringer("goal", goal), zap.Int("depth", depth))
	}
}

func (s *Solver) traceExit(goal *term.Compound, b *unify.Bindings) {
	if ce := s.log.Check(zap.DebugLevel, "EXIT"); ce != nil {
		ce.Write(zap.Stringer("goal", unify.ResolveGoal(goal, b)), zap.Int("bindings", b.Len()))
	}
}

func (s *Solver) traceRedo(goal *term.Compound) {
	if ce := s.log.Check(zap.DebugLevel, "REDO"); ce != nil {
		ce.Write(zap.Stringer("goal", goal))
	}
}

func (s *Solver) traceFail(goal *term.Compound) {
	if ce := s.log.Check(zap.DebugLevel, "FAIL"); ce != nil {
		ce.Write(zap.Stringer("goal", goal))
	}
}
