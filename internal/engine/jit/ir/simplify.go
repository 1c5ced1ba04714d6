package ir

import (
	"log/slog"
	"math/bits"

	"github.com/google/btree"
)

// SwitchFolder recognizes a cascade of equality tests on one value as a
// multi-way dispatch. See SwitchFoldable for the view of an If it works on.
type SwitchFolder interface {
	// FoldSwitch tries to replace the cascade starting at ifNode and returns
	// true if the graph changed.
	FoldSwitch(ifNode SwitchFoldable, tool SimplifierTool) bool
}

// SimplifierTool is the context handed to every simplification.
type SimplifierTool interface {
	// AddToWorkList schedules n to be simplified again.
	AddToWorkList(n *Node)
	// FinalCanonicalization returns true for the last canonicalization before
	// the graph is scheduled, which enables shape-changing rewrites.
	FinalCanonicalization() bool
	// AllUsagesAvailable returns false while usages may be incomplete, e.g.
	// during graph construction.
	AllUsagesAvailable() bool
	// SwitchFolder returns the switch recognizer, or nil.
	SwitchFolder() SwitchFolder
	// Logger returns the logger rewrites report to.
	Logger() *slog.Logger
}

// CanonicalizerOptions configures Canonicalize.
type CanonicalizerOptions struct {
	// Logger receives a Debug record per applied rewrite. nil means silent.
	Logger *slog.Logger
	// MaxIterations bounds the number of applied rewrites. Zero picks a bound
	// from the graph size.
	MaxIterations int
	// FinalCanonicalization enables the rewrites that may break patterns other
	// phases look for, such as If reordering.
	FinalCanonicalization bool
	// SwitchFolder is consulted for cascades of equality tests. May be nil.
	SwitchFolder SwitchFolder
	// DuringConstruction disables the rewrites that need complete usages.
	DuringConstruction bool
}

const worklistDegree = 16

type canonicalizer struct {
	g      *Graph
	opts   CanonicalizerOptions
	logger *slog.Logger
	// work holds the IDs of the nodes to visit; the btree keeps them unique and
	// hands them out in ID order.
	work *btree.BTreeG[NodeID]
}

func newCanonicalizer(g *Graph, opts CanonicalizerOptions) *canonicalizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &canonicalizer{g: g, opts: opts, logger: logger, work: btree.NewOrderedG[NodeID](worklistDegree)}
}

// AddToWorkList implements SimplifierTool.AddToWorkList.
func (c *canonicalizer) AddToWorkList(n *Node) {
	if n.IsAlive() {
		c.work.ReplaceOrInsert(n.id)
	}
}

// FinalCanonicalization implements SimplifierTool.FinalCanonicalization.
func (c *canonicalizer) FinalCanonicalization() bool { return c.opts.FinalCanonicalization }

// AllUsagesAvailable implements SimplifierTool.AllUsagesAvailable.
func (c *canonicalizer) AllUsagesAvailable() bool { return !c.opts.DuringConstruction }

// SwitchFolder implements SimplifierTool.SwitchFolder.
func (c *canonicalizer) SwitchFolder() SwitchFolder { return c.opts.SwitchFolder }

// Logger implements SimplifierTool.Logger.
func (c *canonicalizer) Logger() *slog.Logger { return c.logger }

func (c *canonicalizer) addAll() {
	for _, n := range c.g.Nodes() {
		if !n.is(OpcodeFrameState) {
			c.work.ReplaceOrInsert(n.id)
		}
	}
}

// iterationBound returns opts.MaxIterations or a bound growing as n*log(n) in
// the number of live nodes.
func (c *canonicalizer) iterationBound() int {
	if c.opts.MaxIterations > 0 {
		return c.opts.MaxIterations
	}
	live := c.g.NodeCount()
	return 64 + 4*live*bits.Len(uint(live))
}

// Canonicalize simplifies g until no rule applies anymore and returns the
// number of applied rewrites. Exceeding the iteration bound is an *InternalError.
func Canonicalize(g *Graph, opts CanonicalizerOptions) (int, error) {
	c := newCanonicalizer(g, opts)
	prev := g.newNodeListener
	g.SetNewNodeListener(func(n *Node) {
		c.work.ReplaceOrInsert(n.id)
		if prev != nil {
			prev(n)
		}
	})
	defer g.SetNewNodeListener(prev)
	// Nodes whose inputs, usages or successors changed are the ones a rewrite
	// may have enabled a rule for.
	prevChange := g.changeListener
	g.SetChangeListener(func(n *Node) {
		c.AddToWorkList(n)
		if prevChange != nil {
			prevChange(n)
		}
	})
	defer g.SetChangeListener(prevChange)

	bound := c.iterationBound()
	c.addAll()
	applied := 0
	for {
		id, ok := c.work.DeleteMin()
		if !ok {
			break
		}
		n := g.Node(id)
		if !n.IsAlive() {
			continue
		}
		op := n.op
		out := Simplify(n, c)
		switch out.Kind {
		case Fatal:
			return applied, out.Err
		case Applied:
			applied++
			c.logger.Debug("rewrite applied", "node", id.String(), "op", op.String(), "nodes", g.NodeCount())
			if applied > bound {
				return applied, Fatalf(nil, "canonicalization did not converge within %d rewrites", bound)
			}
			c.AddToWorkList(n)
		}
	}
	return applied, nil
}

// Simplify applies the first matching local rewrite to n.
func Simplify(n *Node, tool SimplifierTool) Outcome {
	g := n.g
	switch {
	case n.is(OpcodeIf):
		return n.simplifyIf(tool)
	case n.is(OpcodeBegin):
		if p := n.Predecessor(); p != nil && !p.is(OpcodeIf) {
			g.RemoveFixed(n)
			return OutcomeApplied
		}
	case n.is(OpcodeMerge):
		if n.ForwardEndCount() == 1 {
			g.ReduceTrivialMerge(n)
			return OutcomeApplied
		}
	case n.is(OpcodeLoopBegin):
		if len(n.LoopEnds()) == 0 && n.ForwardEndCount() > 0 {
			g.ReduceDegenerateLoopBegin(n)
			return OutcomeApplied
		}
	case n.is(OpcodePhi):
		return simplifyPhi(n)
	case n.op.IsFixed(), n.is(OpcodeFrameState), n.is(OpcodeParameter):
	case n.HasNoUsages():
		return AppliedIf(TryKillUnused(n))
	default:
		return simplifyFloating(n)
	}
	return OutcomeDeferred
}

func simplifyPhi(phi *Node) Outcome {
	if phi.HasNoUsages() || isDegeneratedPhi(phi) {
		phi.ReplaceAtUsages(nil)
		KillWithUnusedFloatingInputs(phi)
		return OutcomeApplied
	}
	v := phi.SingleValueOrThis()
	if v == phi {
		return OutcomeDeferred
	}
	phi.ReplaceAtUsages(v)
	KillWithUnusedFloatingInputs(phi)
	return OutcomeApplied
}

// simplifyFloating folds a floating node whose inputs became known and merges
// it with a structurally equal node.
func simplifyFloating(n *Node) Outcome {
	g := n.g
	var replacement *Node
	switch {
	case n.is(OpcodeConditional):
		replacement = CanonicalizeConditional(n.Input(0), n.Input(1), n.Input(2))
	case n.is(OpcodeLogicNegation):
		if in := n.Input(0); in.is(OpcodeLogicConstant) || in.is(OpcodeLogicNegation) {
			replacement = g.LogicNegation(in)
		}
	case n.op.IsCompare():
		if c := foldCompare(n.op, n.Input(0), n.Input(1)); c.IsKnown() {
			replacement = g.LogicConstant(c.Bool())
		}
	case n.is(OpcodeIsNull):
		if s := n.Input(0).stamp; s.AlwaysNull() || s.NonNull() {
			replacement = g.LogicConstant(s.AlwaysNull())
		}
	}
	if replacement == nil && n.op.valueNumberable() {
		replacement = g.FindDuplicate(n)
	}
	if replacement == nil || replacement == n {
		return OutcomeDeferred
	}
	n.ReplaceAtUsages(replacement)
	KillWithUnusedFloatingInputs(n)
	return OutcomeApplied
}
