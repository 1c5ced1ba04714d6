// Package lowering replaces high-level nodes with the lower-level subgraphs the
// backend understands, one node at a time, gated on how far the graph has been
// lowered.
package lowering

import (
	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/jitapi"
)

// Stage is the lowering tier a node is lowered at.
type Stage byte

const (
	StageHigh Stage = iota
	StageMid
	StageLow
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case StageHigh:
		return "HIGH"
	case StageMid:
		return "MID"
	case StageLow:
		return "LOW"
	default:
		panic("invalid lowering stage")
	}
}

// Flag returns the graph milestone that is reached once this stage has run.
func (s Stage) Flag() ir.StageFlag {
	switch s {
	case StageHigh:
		return ir.StageHighTierLowering
	case StageMid:
		return ir.StageMidTierLowering
	case StageLow:
		return ir.StageLowTierLowering
	default:
		panic("invalid lowering stage")
	}
}

// Provider lowers nodes. Lower is called once per node and stage; it returns
// ir.OutcomeDeferred when the node is not lowered at this point.
type Provider interface {
	Lower(n *ir.Node, tool Tool) ir.Outcome
}

// Tool is the context a Provider lowers a node in.
type Tool interface {
	// Stage returns the tier being lowered.
	Stage() Stage
	// Graph returns the graph being lowered.
	Graph() *ir.Graph
	// Options returns the compiler configuration.
	Options() *jitapi.Options
	// LastFixedNode returns the fixed node new fixed nodes for a floating node
	// are inserted after.
	LastFixedNode() *ir.Node
	// CreateGuard returns a guard that deoptimizes unless cond holds (or, if
	// negated, when it holds), placed before the fixed node before. It returns
	// nil if cond is a constant that always passes.
	CreateGuard(before, cond *ir.Node, reason ir.DeoptReason, action ir.DeoptAction, negated bool) *ir.Node
}

// NodeTool is the Tool handed to a Provider for one node.
type NodeTool struct {
	g         *ir.Graph
	stage     Stage
	opts      *jitapi.Options
	lastFixed *ir.Node
}

// NewTool returns a Tool lowering g at stage.
func NewTool(g *ir.Graph, stage Stage, opts *jitapi.Options) *NodeTool {
	return &NodeTool{g: g, stage: stage, opts: opts}
}

// Stage implements Tool.
func (t *NodeTool) Stage() Stage { return t.stage }

// Graph implements Tool.
func (t *NodeTool) Graph() *ir.Graph { return t.g }

// Options implements Tool.
func (t *NodeTool) Options() *jitapi.Options { return t.opts }

// LastFixedNode implements Tool.
func (t *NodeTool) LastFixedNode() *ir.Node { return t.lastFixed }

// SetLastFixedNode sets the insertion point for floating node lowerings.
func (t *NodeTool) SetLastFixedNode(n *ir.Node) {
	if n != nil && !n.Opcode().IsFixedWithNext() {
		panic("BUG: last fixed node must have a next: " + n.String())
	}
	t.lastFixed = n
}

// CreateGuard implements Tool.
func (t *NodeTool) CreateGuard(before, cond *ir.Node, reason ir.DeoptReason, action ir.DeoptAction, negated bool) *ir.Node {
	if cond.Opcode() == ir.OpcodeLogicConstant && cond.LogicValue() != negated {
		return nil
	}
	if t.g.GuardsStage().AllowsFloatingGuards() {
		anchor := ir.PrevBegin(before)
		if anchor == nil {
			panic("BUG: no anchor for a guard before " + before.String())
		}
		return t.g.Guard(cond, anchor, reason, action, negated)
	}
	fg := t.g.FixedGuard(cond, reason, action, negated)
	t.g.AddBeforeFixed(before, fg)
	return fg
}
