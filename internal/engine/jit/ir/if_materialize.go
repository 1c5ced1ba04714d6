package ir

import "slices"

// isEnd returns true for End and LoopEnd nodes.
func isEnd(n *Node) bool { return n != nil && n.op.IsEnd() }

// removeOrMaterializeIf collapses an If whose successors both flow into the
// same merge, or both return, into a value computed without branching.
// The successors must not be used by anything.
func (n *Node) removeOrMaterializeIf(tool SimplifierTool) bool {
	g := n.g
	t, f := n.TrueSuccessor(), n.FalseSuccessor()

	// A return on one side and a merge ending in a return on the other: move the
	// return into the merge's predecessors first.
	var blocking *Node
	switch tn, fn := t.Next(), f.Next(); {
	case tn.is(OpcodeReturn) && fn.is(OpcodeEnd):
		blocking = fn.Merge()
	case fn.is(OpcodeReturn) && tn.is(OpcodeEnd):
		blocking = tn.Merge()
	}
	duplicated := blocking.is(OpcodeMerge) && blocking.Next().is(OpcodeReturn) && g.duplicateReturnThroughMerge(blocking)

	tn, fn := t.Next(), f.Next()
	if isEnd(tn) && isEnd(fn) {
		if f.is(OpcodeLoopExit) && f.StateAfter() != nil {
			return duplicated
		}
		merge := tn.Merge()
		if merge == nil || merge != fn.Merge() || len(t.anchored()) > 0 || len(f.anchored()) > 0 {
			return duplicated
		}
		var single *Node
		distinct := 0
		for _, phi := range merge.Phis() {
			if phi.ValueAtEnd(tn) != phi.ValueAtEnd(fn) {
				distinct++
				single = phi
			}
		}
		switch distinct {
		case 0:
			n.removeThroughFalseBranch(tool, merge)
			return true
		case 1:
			tv, fv := single.ValueAtEnd(tn), single.ValueAtEnd(fn)
			if c := n.canonicalizeConditionalCascade(tv, fv); c != nil {
				single.SetValueAtEnd(tn, n.proxyReplacement(c))
				n.removeThroughFalseBranch(tool, merge)
				return true
			}
			// if (x == null) null else x
			cond := n.Condition()
			if cond.is(OpcodeIsNull) && tv.IsDefaultConstant() && merge.is(OpcodeMerge) &&
				fv == cond.Input(0) && single.stamp == fv.stamp {
				single.SetValueAtEnd(tn, fv)
				n.removeThroughFalseBranch(tool, merge)
				return true
			}
		}
		return duplicated
	}

	if !tn.is(OpcodeReturn) || !fn.is(OpcodeReturn) {
		return duplicated
	}
	exits := t.is(OpcodeLoopExit)
	if exits != f.is(OpcodeLoopExit) || (exits && t.LoopBeginOf() != f.LoopBeginOf()) {
		return duplicated
	}
	tv, fv := tn.Result(), fn.Result()
	var value *Node
	needsProxy := false
	if tv != nil {
		if tv == fv {
			value = tv
		} else {
			value = CanonicalizeConditional(n.Condition(), tv, fv)
			if value == nil {
				value = n.canonicalizeConditionalCascade(tv, fv)
			}
			if value == nil {
				return duplicated
			}
			needsProxy = true
		}
	}
	if exits {
		exit := g.LoopExit(t.LoopBeginOf())
		exit.SetStateAfter(t.StateAfter())
		g.AddBeforeFixed(n, exit)
		if needsProxy && g.IsBeforeStage(StageValueProxyRemoval) {
			value = g.ValueProxy(value, exit)
		}
	}
	ret := g.Return(value)
	n.ReplaceAtPredecessor(ret)
	g.KillCFG(n)
	return true
}

// duplicateReturnThroughMerge replaces the Return following merge by one Return
// per forward end, returning the value the result phi has at that end.
func (g *Graph) duplicateReturnThroughMerge(merge *Node) bool {
	ret := merge.Next()
	if len(merge.anchored()) > 0 {
		return false
	}
	state := merge.StateAfter()
	for _, phi := range merge.Phis() {
		for _, u := range phi.Usages() {
			if u != ret && u != state {
				return false
			}
		}
	}
	result := ret.Result()
	for _, end := range merge.ForwardEnds() {
		v := result
		if result.is(OpcodePhi) && result.Merge() == merge {
			v = result.ValueAtEnd(end)
		}
		end.ReplaceAtPredecessor(g.Return(v))
	}
	ends := merge.ForwardEnds()
	g.KillCFG(merge)
	for _, end := range ends {
		end.SafeDelete()
	}
	return true
}

// proxyReplacement proxies v at the true successor when both successors leave
// the same loop: the collapsed value is computed inside the loop.
func (n *Node) proxyReplacement(v *Node) *Node {
	g := n.g
	t, f := n.TrueSuccessor(), n.FalseSuccessor()
	if g.IsAfterStage(StageValueProxyRemoval) || !t.is(OpcodeLoopExit) || !f.is(OpcodeLoopExit) {
		return v
	}
	if len(f.anchored()) == 0 {
		for _, p := range f.Proxies() {
			p.SetInput(1, t)
		}
	}
	return g.ValueProxy(v, t)
}

// removeThroughFalseBranch keeps the true successor, deletes the false side and
// schedules the Ifs feeding merge, which may now match a pattern.
func (n *Node) removeThroughFalseBranch(tool SimplifierTool, merge *Node) {
	t := n.TrueSuccessor()
	cond := n.Condition()
	n.g.RemoveSplitPropagate(n, t)
	tool.AddToWorkList(t)
	TryKillUnused(cond)
	if !merge.IsAlive() || merge.ForwardEndCount() <= 1 {
		return
	}
	for _, end := range merge.ForwardEnds() {
		cur := end
		for cur.Predecessor().is(OpcodeBegin) {
			cur = cur.Predecessor()
		}
		if p := cur.Predecessor(); p.is(OpcodeIf) {
			tool.AddToWorkList(p)
		}
	}
}

// conditionalNodeOptimization turns a diamond feeding a single phi into a
// conditional value when the condition folds the choice, e.g.
// `(x == y) ? x : y`.
func (n *Node) conditionalNodeOptimization(tool SimplifierTool) bool {
	t, f := n.TrueSuccessor(), n.FalseSuccessor()
	tn, fn := t.Next(), f.Next()
	if !isEnd(tn) || !isEnd(fn) {
		return false
	}
	merge := tn.Merge()
	if !merge.is(OpcodeMerge) || merge != fn.Merge() {
		return false
	}
	phis := merge.Phis()
	if !merge.HasExactlyOneUsage() || len(phis) != 1 {
		return false
	}
	if len(t.anchored()) > 0 || len(f.anchored()) > 0 || t.is(OpcodeLoopExit) != f.is(OpcodeLoopExit) {
		return false
	}
	if f.is(OpcodeLoopExit) && f.StateAfter() != nil {
		return false
	}
	phi := phis[0]
	result := CanonicalizeConditional(n.Condition(), phi.ValueAtEnd(tn), phi.ValueAtEnd(fn))
	if result == nil {
		return false
	}
	phi.SetValueAtEnd(tn, n.proxyReplacement(result))
	n.removeThroughFalseBranch(tool, merge)
	return true
}

// canonicalizeConditionalViaImplies shrinks nested conditionals whose condition
// is decided by this If's condition.
func (n *Node) canonicalizeConditionalViaImplies(tv, fv *Node) *Node {
	cond := n.Condition()
	collapsedTrue, collapsedFalse := tv, fv
	simplify := false
	if tv.is(OpcodeConditional) {
		if r := cond.Implies(false, tv.Input(0)); r.IsKnown() {
			simplify = true
			collapsedTrue = conditionalArm(tv, r.Bool())
		}
	}
	if fv.is(OpcodeConditional) {
		if r := cond.Implies(true, fv.Input(0)); r.IsKnown() {
			simplify = true
			collapsedFalse = conditionalArm(fv, r.Bool())
		}
	}
	if !simplify {
		return nil
	}
	return n.g.Conditional(cond, collapsedTrue, collapsedFalse)
}

func conditionalArm(c *Node, v bool) *Node {
	if v {
		return c.Input(1)
	}
	return c.Input(2)
}

// isSafeConditionalInput returns true if computing v unconditionally adds no
// work to the path that did not need it.
func (n *Node) isSafeConditionalInput(v *Node) bool {
	if v.IsConstant() || slices.Contains(n.Condition().Inputs(), v) {
		return true
	}
	if n.g.IsAfterStage(StageFixedReads) {
		// Fixed values reaching an empty successor are computed before the If.
		return v.is(OpcodeParameter) || v.op.IsFixed()
	}
	return false
}

// canonicalizeConditionalCascade returns a branch-free integer value equal to
// `cond ? tv : fv`, or nil.
func (n *Node) canonicalizeConditionalCascade(tv, fv *Node) *Node {
	g := n.g
	cond := n.Condition()
	kind := tv.stamp.StackKind()
	if kind != fv.stamp.StackKind() || (kind != KindInt && kind != KindLong) {
		return nil
	}
	if n.isSafeConditionalInput(tv) && n.isSafeConditionalInput(fv) {
		return g.Conditional(cond, tv, fv)
	}
	if v := n.canonicalizeConditionalViaImplies(tv, fv); v != nil {
		return v
	}
	// NormalizeCompare cannot be created once logic is expanded.
	if g.IsAfterStage(StageExpandLogic) {
		return nil
	}
	var conditional, constant *Node
	negateCondition := false
	switch {
	case tv.is(OpcodeConditional) && fv.IsConstant():
		conditional, constant, negateCondition = tv, fv, true
	case fv.is(OpcodeConditional) && tv.IsConstant():
		conditional, constant = fv, tv
	default:
		return nil
	}
	inner := conditional.Input(0)
	innerTrue, innerFalse := conditional.Input(1), conditional.Input(2)

	var other *Node
	negateInner := false
	switch constant {
	case innerTrue:
		other = innerFalse
	case innerFalse:
		other, negateInner = innerTrue, true
	}
	if other != nil && other.IsConstant() {
		p := n.prob
		if negateCondition {
			p = p.Negated()
		}
		or := g.ShortCircuitOr(cond, negateCondition, inner, negateInner, p)
		return g.Conditional(or, constant, other)
	}

	// x c1 y ? k1 : (x c2 y ? k2 : k3) as a three-way compare.
	if !constant.IsIntConstant() || !innerTrue.IsIntConstant() || !innerFalse.IsIntConstant() ||
		!cond.op.IsCompare() || !inner.op.IsCompare() {
		return nil
	}
	x, y, c1 := cond.CompareParts()
	x2, y2, c2 := inner.CompareParts()
	if !x.stamp.IsInt() {
		return nil
	}
	if negateCondition {
		c1 = c1.Negate()
	}
	switch {
	case x == x2 && y == y2:
	case x == y2 && y == x2:
		c2 = c2.Mirror()
	default:
		return nil
	}
	if c2 = c2.Join(c1.Negate()); c2 == CondInvalid {
		return nil
	}
	c3 := c1.Negate().Join(c2.Negate())
	if c3 == CondInvalid {
		return nil
	}
	e1, ok1 := normalizeConstantFor(c1)
	e2, ok2 := normalizeConstantFor(c2)
	e3, ok3 := normalizeConstantFor(c3)
	if !ok1 || !ok2 || !ok3 {
		return nil
	}
	k1, k2, k3 := constant.AsInt(), innerTrue.AsInt(), innerFalse.AsInt()
	switch {
	case k1 == e1 && k2 == e2 && k3 == e3:
	case k1 == -e1 && k2 == -e2 && k3 == -e3:
		x, y = y, x
	default:
		return nil
	}
	return g.NormalizeCompare(x, y, innerTrue.stamp.StackKind(), c1.IsUnsigned() || c2.IsUnsigned())
}

// normalizeConstantFor returns the NormalizeCompare result meaning c.
func normalizeConstantFor(c Condition) (int64, bool) {
	switch c {
	case CondEQ:
		return 0, true
	case CondLT, CondBT:
		return -1, true
	case CondGT, CondAT:
		return 1, true
	}
	return 0, false
}
