package ir

// canMergeRangeChecks returns `x - a |<| b - a` for the range `a <= x < b`
// expressed by two signed tests of x against constants, or nil. With
// trueOrdered the lower bound comes from c1, otherwise from c2. The fused form
// is only equivalent when a < b.
func canMergeRangeChecks(c1, c2 *Node, trueOrdered bool) *Node {
	if c1 == c2 || !c1.is(OpcodeIntegerLessThan) || !c2.is(OpcodeIntegerLessThan) {
		return nil
	}
	x := c1.Input(0)
	if x != c2.Input(0) || !x.stamp.IsInt() {
		return nil
	}
	a, b := c1.Input(1), c2.Input(1)
	if !trueOrdered {
		a, b = b, a
	}
	if !a.IsIntConstant() || !b.IsIntConstant() {
		return nil
	}
	if a.AsInt() >= b.AsInt() {
		return nil
	}
	g := c1.g
	return g.IntegerBelow(g.Sub(x, a), g.Sub(b, a))
}

// optimizeCompoundConditional fuses two range tests of one value, combined
// either in a ShortCircuitOr or in two nested Ifs, into an unsigned compare.
func (n *Node) optimizeCompoundConditional() bool {
	return n.mergeShortCircuitOrRangeCheck() || n.mergeShortCircuitAndRangeCheck()
}

// mergeShortCircuitOrRangeCheck rewrites `x < a || !(x < b)` to
// `!(x - a |<| b - a)`.
func (n *Node) mergeShortCircuitOrRangeCheck() bool {
	sco := n.Condition()
	if !sco.is(OpcodeShortCircuitOr) {
		return false
	}
	xNegated, yNegated := sco.has(flagXNegated), sco.has(flagYNegated)
	if xNegated == yNegated {
		return false
	}
	replacement := canMergeRangeChecks(sco.Input(0), sco.Input(1), !xNegated)
	if replacement == nil {
		return false
	}
	n.SetCondition(n.g.LogicNegation(replacement))
	TryKillUnused(sco)
	return true
}

// mergeShortCircuitAndRangeCheck fuses nested Ifs testing the two bounds of a
// range whose out-of-range successors reach the same destination:
//
//	if (x < a) D else if (x < b) B else D   =>   if (x - a |<| b - a) B else D
//	if (x < b) { if (x < a) D else B } else D   =>   the same
func (n *Node) mergeShortCircuitAndRangeCheck() bool {
	t, f := n.TrueSuccessor(), n.FalseSuccessor()
	if t.HasUsages() || f.HasUsages() || t.is(OpcodeLoopExit) || f.is(OpcodeLoopExit) {
		return false
	}
	truePattern := f.Next().is(OpcodeIf)
	inner := t.Next()
	if truePattern {
		inner = f.Next()
	}
	if !inner.is(OpcodeIf) {
		return false
	}
	if truePattern && !sameDestination(t, inner.FalseSuccessor()) {
		return false
	}
	if !truePattern && !sameDestination(f, inner.TrueSuccessor()) {
		return false
	}
	cond, innerCond := n.Condition(), inner.Condition()
	replacement := canMergeRangeChecks(cond, innerCond, truePattern)
	if replacement == nil {
		return false
	}

	inner.SetCondition(replacement)
	var p BranchProbability
	if truePattern {
		p = inner.prob.CombineAndWithNegated(n.prob)
	} else {
		p = n.prob.CombineAndWithNegated(inner.prob)
	}
	inner.Predecessor().SetNext(nil)
	n.Predecessor().ReplaceFirstSuccessor(n, inner)
	inner.prob = p
	n.g.KillCFG(n)
	TryKillUnused(innerCond)
	if !truePattern {
		it, ifs := inner.TrueSuccessor(), inner.FalseSuccessor()
		inner.ClearSuccessors()
		inner.SetTrueSuccessor(ifs)
		inner.SetFalseSuccessor(it)
	}
	return true
}
