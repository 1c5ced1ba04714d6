package ir

import (
	"slices"
)

// simplifyIf runs the If rewrites in priority order and stops at the first one
// that restructures the graph.
func (n *Node) simplifyIf(tool SimplifierTool) Outcome {
	changed := n.correctProbability()
	if n.Condition().is(OpcodeLogicNegation) {
		n.eliminateNegation()
		changed = true
	}
	if c := n.Condition(); c.is(OpcodeLogicConstant) {
		n.removeConstantIf(c.LogicValue(), tool)
		return OutcomeApplied
	}
	if tool.AllUsagesAvailable() && n.TrueSuccessor().HasNoUsages() && n.FalseSuccessor().HasNoUsages() {
		if n.pushNodesThroughIf(tool) {
			changed = true
		}
		if n.checkForUnsignedCompare(tool) || n.removeOrMaterializeIf(tool) {
			return OutcomeApplied
		}
	}
	switch {
	case n.removeIntermediateMaterialization(tool),
		n.conditionalNodeOptimization(tool),
		n.switchTransformationOptimization(tool),
		tool.FinalCanonicalization() && n.reorderWithNextIf(tool),
		n.tryEliminateBoxedReferenceEquals(),
		n.optimizeCompoundConditional(),
		n.g.IsAfterStage(StageHighTierLowering) && n.splitIfAtPhi(tool):
		return OutcomeApplied
	}
	return AppliedIf(changed)
}

// correctProbability makes a successor that immediately deoptimizes the
// unlikely one, whatever the profile says.
func (n *Node) correctProbability() bool {
	switch {
	case n.TrueSuccessor().Next().is(OpcodeDeoptimize):
		if n.prob.P != 0 {
			n.prob = NeverTaken
			return true
		}
	case n.FalseSuccessor().Next().is(OpcodeDeoptimize):
		if n.prob.P != 1 {
			n.prob = AlwaysTaken
			return true
		}
	}
	return false
}

// eliminateNegation branches on the negated condition directly by swapping the successors.
func (n *Node) eliminateNegation() {
	t, f := n.TrueSuccessor(), n.FalseSuccessor()
	n.ClearSuccessors()
	n.SetTrueSuccessor(f)
	n.SetFalseSuccessor(t)
	n.prob = n.prob.Negated()
	negation := n.Condition()
	n.SetCondition(negation.Input(0))
	TryKillUnused(negation)
}

func (n *Node) removeConstantIf(v bool, tool SimplifierTool) {
	g := n.g
	cond := n.Condition()
	live, dead := n.SuccessorFor(v), n.SuccessorFor(!v)
	g.KillCFG(dead)
	tool.AddToWorkList(live)
	g.RemoveSplit(n, live)
	TryKillUnused(cond)
}

// sameFixedNode returns true if a and b compute the same thing from the same inputs.
func sameFixedNode(a, b *Node) bool {
	return a.op == b.op && a.stamp == b.stamp && a.payload == b.payload &&
		slices.Equal(a.inputs, b.inputs) && a.edges == b.edges
}

// pushNodesThroughIf hoists identical nodes starting both successors above the
// If and deduplicates their usages.
func (n *Node) pushNodesThroughIf(tool SimplifierTool) bool {
	g := n.g
	pushed := false
	for {
		t, f := n.TrueSuccessor(), n.FalseSuccessor()
		if !t.is(OpcodeBegin) || !f.is(OpcodeBegin) {
			return pushed
		}
		tn, fn := t.Next(), f.Next()
		if tn == nil || fn == nil || !tn.op.IsFixedWithNext() || !fn.op.IsFixedWithNext() {
			return pushed
		}
		if tn.op.IsBegin() || tn.op.IsControlFlowAnchored() || !sameFixedNode(tn, fn) {
			return pushed
		}
		fn.ReplaceAtUsages(tn)
		g.RemoveFixed(fn)
		unlinkFixed(tn)
		g.AddBeforeFixed(n, tn)
		for _, u := range tn.Usages() {
			if !u.IsAlive() {
				continue
			}
			if u.op.valueNumberable() && u.InputCount() > 0 {
				if dup := g.FindDuplicate(u); dup != nil {
					u.ReplaceAtUsages(dup)
					KillWithUnusedFloatingInputs(u)
				}
			}
			if u.IsAlive() {
				tool.AddToWorkList(u)
			}
		}
		pushed = true
	}
}
