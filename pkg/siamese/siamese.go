// Package siamese is a backward-chaining inference engine. Facts and
// Horn-clause rules live in an in-memory knowledge base; queries resolve
// depth-first into a lazy stream of variable bindings, and built-in
// predicates embed external I/O (HTTP, SQL) into the resolution stream.
package siamese

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/builtin"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/config"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/kb"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/solver"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/term"
)

// Goal is a (predicate, arg, arg, ...) tuple. Strings starting with "?"
// are variables.
type Goal []any

// G builds a Goal tuple.
func G(name string, args ...any) Goal {
	g := make(Goal, 0, len(args)+1)
	g = append(g, name)
	g = append(g, args...)
	return g
}

// Options configures an Engine.
type Options struct {
	// Builtins registers or overrides built-in predicates by name.
	// Names already taken by the standard set are replaced.
	Builtins map[string]builtin.Handler

	// Logger receives engine logs and trace events. Nil installs a
	// console logger whose level ConfigureLogging controls.
	Logger *zap.Logger

	// HTTPClient backs the HTTP built-ins. Nil selects a default client
	// with a request timeout.
	HTTPClient *http.Client
}

// Engine owns the knowledge base, the built-in registry and the trace
// sink. Knowledge-base mutation between queries is safe; each query
// reads a snapshot taken at its start.
type Engine struct {
	kb    *kb.KB
	reg   *builtin.Registry
	log   *zap.Logger
	level zap.AtomicLevel
}

// New constructs an engine. Built-in configuration problems surface
// here, not at query time.
func New(opts Options) (*Engine, error) {
	reg := builtin.NewRegistry(builtin.Config{HTTPClient: opts.HTTPClient})
	for name, h := range opts.Builtins {
		if err := reg.Override(name, h); err != nil {
			return nil, err
		}
	}

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger := opts.Logger
	if logger == nil {
		encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		logger = zap.New(zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level))
	}

	return &Engine{
		kb:    kb.New(),
		reg:   reg,
		log:   logger,
		level: level,
	}, nil
}

// ConfigureLogging sets the verbosity of the engine-owned logger. Trace
// events (CALL/EXIT/REDO/FAIL) emit at debug level. When the embedder
// supplied its own logger, its level configuration wins instead.
func (e *Engine) ConfigureLogging(level zapcore.Level) {
	e.level.SetLevel(level)
}

// RegisterBuiltin adds a built-in after construction. Registering a name
// twice, including a standard name, is a configuration error.
func (e *Engine) RegisterBuiltin(name string, h builtin.Handler) error {
	return e.reg.Register(name, h)
}

// AddFact asserts an unconditional clause.
func (e *Engine) AddFact(name string, args ...any) error {
	return e.kb.AddFact(name, args...)
}

// AddRule asserts a rule with a conjunctive body, evaluated
// left-to-right.
func (e *Engine) AddRule(head Goal, body ...Goal) error {
	tuples := make([][]any, len(body))
	for i, g := range body {
		tuples[i] = g
	}
	return e.kb.AddRule(head, tuples...)
}

// LoadFromFile parses a knowledge-base file and appends its facts and
// rules in document order. On any error the knowledge base is unchanged.
func (e *Engine) LoadFromFile(path string) error {
	f, err := config.Load(path)
	if err != nil {
		return err
	}
	clauses, err := f.Clauses()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	e.kb.AddAll(clauses)
	e.log.Info("knowledge base loaded",
		zap.String("path", path),
		zap.Int("facts", len(f.Facts)),
		zap.Int("rules", len(f.Rules)))
	return nil
}

// QueryOption adjusts one query.
type QueryOption func(*queryConfig)

type queryConfig struct {
	maxSolutions int
	maxDepth     int
}

// WithMaxSolutions caps the number of solutions the stream yields.
// Negative means unbounded, the default.
func WithMaxSolutions(k int) QueryOption {
	return func(c *queryConfig) { c.maxSolutions = k }
}

// WithMaxDepth caps rule recursion per branch. The default is
// solver.DefaultMaxDepth.
func WithMaxDepth(d int) QueryOption {
	return func(c *queryConfig) { c.maxDepth = d }
}

// Query resolves a goal lazily. The returned stream must be closed;
// dropping it cancels all in-flight resolution. A predicate that is
// neither a clause bucket nor a built-in yields no solutions.
func (e *Engine) Query(ctx context.Context, goal Goal, opts ...QueryOption) (*solver.Solutions, error) {
	cfg := queryConfig{maxSolutions: solver.Unbounded}
	for _, opt := range opts {
		opt(&cfg)
	}
	g, err := term.FromTuple(goal)
	if err != nil {
		return nil, err
	}
	s := solver.New(solver.Options{
		KB:           e.kb.Snapshot(),
		Builtins:     e.reg,
		MaxDepth:     cfg.maxDepth,
		MaxSolutions: cfg.maxSolutions,
		Logger:       e.log,
	})
	return s.Run(ctx, g), nil
}

// QueryOne returns the first solution, if any.
func (e *Engine) QueryOne(ctx context.Context, goal Goal, opts ...QueryOption) (solver.Solution, bool, error) {
	sols, err := e.Query(ctx, goal, append(opts, WithMaxSolutions(1))...)
	if err != nil {
		return nil, false, err
	}
	defer sols.Close()
	if sols.Next() {
		return sols.Current(), true, nil
	}
	return nil, false, sols.Err()
}

// Exists reports whether the goal has at least one solution.
func (e *Engine) Exists(ctx context.Context, goal Goal, opts ...QueryOption) (bool, error) {
	_, found, err := e.QueryOne(ctx, goal, opts...)
	return found, err
}
