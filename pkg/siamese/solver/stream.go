package solver

import (
	"context"

	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/term"
)

// Solution maps the user's query variable names to deep-walked terms.
type Solution map[string]term.Term

// Solutions is a lazy solution stream, consumed like sql.Rows:
//
//	sols := solver.New(opts).Run(ctx, goal)
//	defer sols.Close()
//	for sols.Next() {
//		use(sols.Current())
//	}
//	if err := sols.Err(); err != nil { ... }
//
// The producer blocks between solutions; dropping the stream via Close
// or cancelling the context stops every nested resolution frame and any
// in-flight built-in at its next suspension point.
type Solutions struct {
	ch     chan Solution
	cancel context.CancelFunc
	cur    Solution
	err    error
	closed bool
}

// Next advances to the next solution. It returns false when the stream
// is exhausted, capped, cancelled, or failed; check Err afterwards.
func (s *Solutions) Next() bool {
	if s.closed {
		return false
	}
	sol, ok := <-s.ch
	if !ok {
		s.cur = nil
		return false
	}
	s.cur = sol
	return true
}

// Current returns the solution read by the last successful Next.
func (s *Solutions) Current() Solution { return s.cur }

// Err returns the fatal error that ended the stream, if any. Valid once
// Next has returned false.
func (s *Solutions) Err() error { return s.err }

// Close abandons the stream and releases the producer.
func (s *Solutions) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	for range s.ch {
	}
	s.cur = nil
	return nil
}

// Collect drains the remaining solutions, closes the stream, and
// returns them with any fatal error.
func (s *Solutions) Collect() ([]Solution, error) {
	defer s.Close()
	var out []Solution
	for s.Next() {
		out = append(out, s.cur)
	}
	return out, s.Err()
}
