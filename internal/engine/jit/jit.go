// Package jit drives graphs through the compiler pipeline: canonicalization,
// then lowering tier by tier until only nodes the backend understands remain.
package jit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/jitapi"
	"github.com/oracle/graal-sub160/internal/engine/jit/lowering"
	"github.com/oracle/graal-sub160/internal/engine/jit/lowering/hotspot"
)

type (
	// Engine compiles graphs with one lowering provider. Compilations of
	// distinct graphs may run concurrently.
	Engine struct {
		opts     *jitapi.Options
		provider lowering.Provider
		logger   *slog.Logger

		compiled map[string]*Result
		mux      sync.RWMutex
	}

	// Result is the outcome of one compilation.
	Result struct {
		Name  string
		Graph *ir.Graph
		// Phases lists the phases that ran, in order.
		Phases []PhaseStats
		// Err is set if the compilation failed.
		Err error
	}

	// PhaseStats is what a single phase did to the graph.
	PhaseStats struct {
		Name string
		// Applied is the number of rewrites or lowerings applied.
		Applied int
		// Nodes is the number of live nodes after the phase.
		Nodes int
	}
)

// NewEngine returns an Engine for the VM described by opts. A nil provider
// means the hotspot provider with runtime call snippets, and a nil logger
// discards everything.
func NewEngine(opts *jitapi.Options, provider lowering.Provider, logger *slog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		p, err := hotspot.NewProvider(opts, nil)
		if err != nil {
			return nil, err
		}
		provider = p
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{opts: opts, provider: provider, logger: logger, compiled: map[string]*Result{}}, nil
}

// phase is one step of the pipeline. It returns the number of changes it made.
type phase struct {
	name string
	run  func(e *Engine, g *ir.Graph) (int, error)
}

var pipeline = []phase{
	{name: "canonicalize", run: func(e *Engine, g *ir.Graph) (int, error) {
		return ir.Canonicalize(g, e.canonicalizerOptions(false))
	}},
	{name: "lower-high", run: func(e *Engine, g *ir.Graph) (int, error) {
		return e.lower(g, lowering.StageHigh)
	}},
	{name: "canonicalize-high", run: func(e *Engine, g *ir.Graph) (int, error) {
		return ir.Canonicalize(g, e.canonicalizerOptions(false))
	}},
	{name: "guard-lowering", run: func(_ *Engine, g *ir.Graph) (int, error) {
		n := fixGuards(g)
		g.SetGuardsStage(ir.GuardsFixedDeopts)
		return n, nil
	}},
	{name: "lower-mid", run: func(e *Engine, g *ir.Graph) (int, error) {
		return e.lower(g, lowering.StageMid)
	}},
	{name: "frame-state-assignment", run: func(_ *Engine, g *ir.Graph) (int, error) {
		g.SetGuardsStage(ir.GuardsAfterFSA)
		return 0, nil
	}},
	{name: "lower-low", run: func(e *Engine, g *ir.Graph) (int, error) {
		return e.lower(g, lowering.StageLow)
	}},
	{name: "canonicalize-final", run: func(e *Engine, g *ir.Graph) (int, error) {
		return ir.Canonicalize(g, e.canonicalizerOptions(true))
	}},
}

func (e *Engine) canonicalizerOptions(final bool) ir.CanonicalizerOptions {
	return ir.CanonicalizerOptions{
		Logger:                e.logger,
		MaxIterations:         e.opts.MaxCanonicalizerIterations,
		FinalCanonicalization: final,
	}
}

// Compile runs the pipeline over g and records the result under name. The
// context is checked between phases. Internal errors, including panics of
// the graph API, fail this compilation only.
func (e *Engine) Compile(ctx context.Context, name string, g *ir.Graph) (res *Result, err error) {
	res = &Result{Name: name, Graph: g}
	logger := e.logger.With(slog.String("method", name))
	current := ""
	defer func() {
		if r := recover(); r != nil {
			err = ir.Fatalf(nil, "%s: %v", current, r)
		}
		if err != nil {
			res.Err = err
			logger.Error("compilation failed", slog.String("phase", current), slog.Any("err", err))
		}
		e.addCompiled(name, res)
	}()

	for _, p := range pipeline {
		current = p.name
		if err = ctx.Err(); err != nil {
			return res, fmt.Errorf("%s before %s: %w", name, p.name, err)
		}
		applied, perr := p.run(e, g)
		if perr != nil {
			return res, perr
		}
		res.Phases = append(res.Phases, PhaseStats{Name: p.name, Applied: applied, Nodes: g.NodeCount()})
		logger.Debug("phase done", slog.String("phase", p.name), slog.Int("applied", applied), slog.Int("nodes", g.NodeCount()))
	}
	current = "verify"
	if verr := ir.Verify(g); verr != nil {
		return res, verr
	}
	return res, nil
}

// CompileAll compiles every graph of graphs with at most parallelism
// compilations in flight, and returns the errors of the failed ones.
func (e *Engine) CompileAll(ctx context.Context, graphs map[string]*ir.Graph, parallelism int) error {
	if parallelism < 1 {
		parallelism = 1
	}
	names := make([]string, 0, len(graphs))
	for name := range graphs {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
		sem  = make(chan struct{}, parallelism)
	)
	for _, name := range names {
		wg.Add(1)
		sem <- struct{}{}
		go func(name string, g *ir.Graph) {
			defer func() {
				<-sem
				wg.Done()
			}()
			if _, err := e.Compile(ctx, name, g); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
		}(name, graphs[name])
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Compiled returns the last result recorded under name.
func (e *Engine) Compiled(name string) (*Result, bool) {
	e.mux.RLock()
	defer e.mux.RUnlock()
	res, ok := e.compiled[name]
	return res, ok
}

// CompiledCount returns the number of recorded results.
func (e *Engine) CompiledCount() int {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return len(e.compiled)
}

// DeleteCompiled forgets the result recorded under name.
func (e *Engine) DeleteCompiled(name string) {
	e.mux.Lock()
	defer e.mux.Unlock()
	delete(e.compiled, name)
}

func (e *Engine) addCompiled(name string, res *Result) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.compiled[name] = res
}
