package ir

import "slices"

// removeIntermediateMaterialization removes a boolean computed through a phi
// only to be tested right after the merge:
//
//	merge(e0, e1, e2); phi(c0, c1, c2); if (phi == k) ...
//
// Every compare input is constant per end, so each end is wired straight to
// the successor its value selects.
func (n *Node) removeIntermediateMaterialization(tool SimplifierTool) bool {
	g := n.g
	merge := n.Predecessor()
	if !merge.is(OpcodeMerge) {
		return false
	}
	compare := n.Condition()
	if !compare.op.IsCompare() || !compare.HasExactlyOneUsage() || !merge.HasExactlyOneUsage() {
		return false
	}
	phi := merge.SingleUsage()
	x, y := compare.Input(0), compare.Input(1)
	if !phi.is(OpcodePhi) || (phi != x && phi != y) {
		return false
	}
	t, f := n.TrueSuccessor(), n.FalseSuccessor()
	if len(t.anchored()) > 0 || len(f.anchored()) > 0 {
		return false
	}
	state := merge.StateAfter()
	for _, u := range phi.Usages() {
		switch {
		case u == compare, u == state:
		case u.is(OpcodeValueProxy) && (u.ProxyPoint() == t || u.ProxyPoint() == f):
		default:
			return false
		}
	}
	xs, ys := constantValues(x, merge), constantValues(y, merge)
	if xs == nil || ys == nil {
		return false
	}
	if state != nil && !MayRemoveSplit(n) {
		return false
	}
	folded := make([]bool, len(xs))
	for i := range xs {
		c := foldConstants(compare.op, xs[i], ys[i])
		if !c.IsKnown() {
			return false
		}
		folded[i] = c.Bool()
	}

	ends := merge.ForwardEnds()
	phiValues := make(map[*Node]*Node, len(ends))
	var trueEnds, falseEnds []*Node
	for i, end := range ends {
		phiValues[end] = phi.ValueAt(i)
		if folded[i] {
			trueEnds = append(trueEnds, end)
		} else {
			falseEnds = append(falseEnds, end)
		}
	}
	n.ClearSuccessors()

	switch n.prob.P {
	case 0:
		for _, end := range trueEnds {
			propagateZeroProbability(end)
		}
	case 1:
		for _, end := range falseEnds {
			propagateZeroProbability(end)
		}
	}
	if n.prob.Source.IsInjected() {
		propagateInjectedProfile(n.prob, trueEnds, falseEnds)
	}

	g.connectEnds(falseEnds, phi, phiValues, f, merge, tool)
	g.connectEnds(trueEnds, phi, phiValues, t, merge, tool)
	// Unreached successors go last: a loop exit must outlive the ends connected to the other one.
	if len(falseEnds) == 0 {
		g.KillCFG(f)
	}
	if len(trueEnds) == 0 {
		g.KillCFG(t)
	}
	g.KillCFG(merge)
	return true
}

// foldConstants evaluates a compare over two constants.
func foldConstants(op Opcode, x, y *Node) TriState {
	if x.stamp.IsInt() && y.stamp.IsInt() {
		return foldCompare(op, x, y)
	}
	if op != OpcodeObjectEquals {
		return TriUnknown
	}
	// Object constants are unique per value.
	return triOf(x == y)
}

// constantValues returns the value v has at each forward end of merge, provided
// all of them are constants.
func constantValues(v, merge *Node) []*Node {
	count := merge.ForwardEndCount()
	if v.IsConstant() {
		return slices.Repeat([]*Node{v}, count)
	}
	if !v.is(OpcodePhi) || v.Merge() != merge || v.ValueCount() != count {
		return nil
	}
	values := v.Values()
	for _, c := range values {
		if !c.IsConstant() {
			return nil
		}
	}
	return values
}

// propagateZeroProbability makes the closest dominating split on the way to
// start predict that start is never reached.
func propagateZeroProbability(start *Node) {
	var prev *Node
	for node := start; node != nil; prev, node = node, node.Predecessor() {
		switch {
		case node.is(OpcodeIf):
			switch prev {
			case node.TrueSuccessor():
				switch node.prob.P {
				case 0:
					return
				case 1:
					continue
				}
				node.prob = NeverTaken
				return
			case node.FalseSuccessor():
				switch node.prob.P {
				case 1:
					return
				case 0:
					continue
				}
				node.prob = AlwaysTaken
				return
			default:
				panic("BUG: " + prev.String() + " is not a successor of " + node.String())
			}
		case node.is(OpcodeMerge):
			for _, end := range node.ForwardEnds() {
				propagateZeroProbability(end)
			}
			return
		}
	}
}

// propagateInjectedProfile hands an injected probability to the guessed If
// deciding between the single true end and the false ends, or the other way
// around.
func propagateInjectedProfile(profile BranchProbability, trueEnds, falseEnds []*Node) {
	if len(trueEnds) == 0 || len(falseEnds) == 0 || (len(trueEnds) != 1 && len(falseEnds) != 1) {
		return
	}
	var found, prev *Node
	viaFalseEnd := false
	if len(trueEnds) == 1 {
		for node := trueEnds[0]; node != nil; node = node.Predecessor() {
			if node.is(OpcodeIf) {
				if !node.prob.Source.IsTrusted() {
					found = node
				}
				break
			}
			if node.op.IsMerge() || node.is(OpcodeLoopExit) {
				break
			}
			prev = node
		}
	}
	if len(falseEnds) == 1 {
		var falsePrev *Node
		for node := falseEnds[0]; node != nil; node = node.Predecessor() {
			if node.is(OpcodeIf) {
				if found == node {
					break
				}
				if found != nil {
					// Different Ifs through both ends.
					return
				}
				found, prev, viaFalseEnd = node, falsePrev, true
				break
			}
			if node.op.IsMerge() || node.is(OpcodeLoopExit) {
				break
			}
			falsePrev = node
		}
	}
	if found == nil || found.prob.Source.IsTrusted() {
		return
	}
	var negated bool
	switch prev {
	case found.TrueSuccessor():
		negated = viaFalseEnd
	case found.FalseSuccessor():
		negated = !viaFalseEnd
	default:
		panic("BUG: " + prev.String() + " is not a successor of " + found.String())
	}
	if negated {
		profile = profile.Negated()
	}
	found.prob = profile
}

// connectEnds wires ends to successor, through a new merge when there are
// several. Proxies of phi at successor take the value flowing in.
func (g *Graph) connectEnds(ends []*Node, phi *Node, phiValues map[*Node]*Node, successor, oldMerge *Node, tool SimplifierTool) {
	if len(ends) == 0 {
		return
	}
	var proxy *Node
	if successor.is(OpcodeLoopExit) {
		for _, u := range phi.Usages() {
			if u.is(OpcodeValueProxy) && u.ProxyPoint() == successor {
				proxy = u
			}
		}
	}
	isProxy := func(u *Node) bool { return u == proxy }

	if len(ends) == 1 {
		end := ends[0]
		if proxy != nil {
			phi.ReplaceAtUsagesIf(phiValues[end], isProxy)
		}
		end.Predecessor().SetNext(successor)
		oldMerge.RemoveEnd(end)
		end.SafeDelete()
		tool.AddToWorkList(successor)
		return
	}

	merge := g.Merge()
	state := oldMerge.StateAfter()
	// The value only needs a phi at the new merge if something still reads it.
	var newPhi *Node
	if proxy != nil || (state != nil && phi.IsUsedBy(state)) {
		newPhi = g.Phi(merge, phi.stamp)
	}
	if proxy != nil {
		phi.ReplaceAtUsagesIf(newPhi, isProxy)
	}
	for _, end := range ends {
		oldMerge.RemoveEnd(end)
		merge.AddForwardEnd(end)
		if newPhi != nil {
			newPhi.AddInput(phiValues[end])
		}
	}
	switch {
	case state == nil:
	case newPhi != nil:
		merge.SetStateAfter(state.DuplicateReplacing(phi, newPhi))
	default:
		merge.SetStateAfter(state.DuplicateReplacing(nil, nil))
	}
	merge.SetNext(successor)
	tool.AddToWorkList(successor)
}
