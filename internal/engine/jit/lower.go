package jit

import (
	"log/slog"

	"golang.org/x/tools/container/intsets"

	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/lowering"
)

// maxLoweringRounds bounds how often a tier revisits the graph. A lowering
// creates nodes the same tier may lower again, so one round is not enough.
const maxLoweringRounds = 16

// lower runs the provider over g at stage until a round applies nothing.
func (e *Engine) lower(g *ir.Graph, stage lowering.Stage) (int, error) {
	applied := 0
	for round := 0; round < maxLoweringRounds; round++ {
		n, err := e.lowerRound(g, stage)
		applied += n
		if err != nil {
			return applied, err
		}
		if n == 0 {
			e.logger.Debug("lowering converged", slog.String("stage", stage.String()), slog.Int("rounds", round+1), slog.Int("applied", applied))
			g.SetAfterStage(stage.Flag())
			return applied, nil
		}
	}
	return applied, ir.Fatalf(nil, "%s lowering did not converge within %d rounds", stage, maxLoweringRounds)
}

// lowerRound visits the fixed nodes in reverse postorder of their blocks.
// The floating inputs of a fixed node are lowered before it, with the node
// in front of it as the insertion point.
func (e *Engine) lowerRound(g *ir.Graph, stage lowering.Stage) (int, error) {
	tool := lowering.NewTool(g, stage, e.opts)
	var fixed []*ir.Node
	for _, b := range ir.ComputeCFG(g).Blocks() {
		for n := b.Begin(); ; n = n.Next() {
			fixed = append(fixed, n)
			if n == b.End() {
				break
			}
		}
	}

	var visited intsets.Sparse
	applied := 0
	var lowerFloating func(n, at *ir.Node) *ir.InternalError
	lowerFloating = func(n, at *ir.Node) *ir.InternalError {
		if n == nil || !n.IsAlive() || n.Opcode().IsFixed() || !visited.Insert(int(n.ID())) {
			return nil
		}
		switch n.Opcode() {
		case ir.OpcodePhi, ir.OpcodeFrameState:
			// Their inputs belong to other blocks or are never lowered.
			return nil
		}
		for _, in := range n.Inputs() {
			if err := lowerFloating(in, at); err != nil {
				return err
			}
		}
		tool.SetLastFixedNode(insertionPoint(at))
		return e.apply(n, tool, &applied)
	}

	for _, n := range fixed {
		if !n.IsAlive() || !visited.Insert(int(n.ID())) {
			continue
		}
		for _, in := range n.Inputs() {
			if err := lowerFloating(in, n); err != nil {
				return applied, err
			}
		}
		if !n.IsAlive() {
			continue
		}
		tool.SetLastFixedNode(insertionPoint(n))
		if err := e.apply(n, tool, &applied); err != nil {
			return applied, err
		}
	}
	return applied, nil
}

// insertionPoint returns the fixed node new nodes scheduled before at are
// linked after, or nil if at starts a block.
func insertionPoint(at *ir.Node) *ir.Node {
	if !at.IsAlive() {
		return nil
	}
	if p := at.Predecessor(); p != nil && p.Opcode().IsFixedWithNext() {
		return p
	}
	return nil
}

func (e *Engine) apply(n *ir.Node, tool *lowering.NodeTool, applied *int) *ir.InternalError {
	out := e.provider.Lower(n, tool)
	switch out.Kind {
	case ir.Applied:
		*applied++
	case ir.Fatal:
		return out.Err
	}
	return nil
}
