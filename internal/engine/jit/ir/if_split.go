package ir

// nodeColor tells on which side of a split If a usage of the split phi lives.
type nodeColor byte

const (
	colorNone nodeColor = iota
	colorConditionUsage
	colorTrueBranch
	colorFalseBranch
	// colorPhiMixed is a phi whose every input comes from exactly one side.
	colorPhiMixed
	colorMixed
)

// maxUsageColorSetSize bounds the number of nodes colorUsage visits.
const maxUsageColorSetSize = 64

// isWorthPerformingSplit returns true if cur, computed from cond for one
// predecessor of the merge, is simpler than cond. mark is the first ID of the
// nodes created while computing it.
func isWorthPerformingSplit(cur, cond *Node, mark NodeID) bool {
	switch {
	case cur == cond:
		return false
	case cur.id < mark:
		// Replaced by another existing condition.
		return true
	case cur.is(OpcodeLogicConstant):
		return true
	case cur.is(OpcodeLogicNegation):
		return isWorthPerformingSplit(cur.Input(0), cond, mark)
	case cond.is(OpcodeInstanceOf) && cur.is(OpcodeIsNull):
		return true
	}
	return false
}

// splitIfAtPhi splits off the predecessors of a merge for which the condition
// of the If right after it is decidable, or simpler, given the value the single
// phi of the merge has along them:
//
//	merge(e0, e1); phi(null, x); if (phi == null) T else F
//
// becomes e0 -> T and `if (x == null) T else F` after e1. New merges collect
// the moved predecessors in front of each successor. The predecessors left
// undecided keep using the original If.
func (n *Node) splitIfAtPhi(tool SimplifierTool) bool {
	g := n.g
	merge := n.Predecessor()
	if !merge.is(OpcodeMerge) || merge.ForwardEndCount() == 1 {
		return false
	}
	phis := merge.Phis()
	if merge.UsageCount() != 1 || len(phis) != 1 {
		// Further phis, mostly memory ones, would need rewiring too.
		return false
	}
	state := merge.StateAfter()
	if g.GuardsStage().AreFrameStatesAtSideEffects() && state == nil {
		return false
	}
	phi := phis[0]
	if phi.stamp.Kind() == StampVoid {
		return false
	}
	t, f := n.TrueSuccessor(), n.FalseSuccessor()
	if len(t.anchored()) > 0 || len(f.anchored()) > 0 {
		return false
	}
	// The new merges are placed between the If and its successors.
	if t.is(OpcodeLoopExit) || f.is(OpcodeLoopExit) {
		return false
	}

	cond := n.Condition()
	colors := make(map[*Node]nodeColor, 8)
	if !conditionUses(cond, phi, colors) {
		return false
	}
	if state != nil && !MayRemoveSplit(n) {
		return false
	}

	ends := merge.ForwardEnds()
	values := phi.Values()
	results := make([]*Node, len(ends))
	mark := NodeID(g.nodes.len())
	// Rejected candidates may share nodes with kept ones and are only dropped
	// once the kept ones are wired.
	var rejected []*Node
	success := false
	for i, v := range values {
		cur := computeCondition(cond, phi, v)
		results[i] = cond
		if !isWorthPerformingSplit(cur, cond, mark) {
			rejected = append(rejected, cur)
			continue
		}
		success = true
		results[i] = cur
		for _, in := range cur.Inputs() {
			if in.IsConstant() || in.is(OpcodeParameter) || in.op.IsFixed() || in == v {
				continue
			}
			// Could not be scheduled above the end.
			rejected = append(rejected, cur)
			results[i] = cond
			break
		}
	}
	drop := func() {
		for _, c := range rejected {
			dropCondition(c, mark)
		}
	}
	decline := func() bool {
		rejected = append(rejected, results...)
		drop()
		return false
	}
	if !success {
		return decline()
	}
	for _, u := range phi.Usages() {
		if u != state && colorUsage(colors, u, merge, t, f) == colorMixed {
			return decline()
		}
	}

	var trueMerge, trueMergePhi, falseMerge, falseMergePhi *Node
	intoTrue := func(v *Node) *Node {
		if trueMerge == nil {
			trueMerge, trueMergePhi = g.insertMerge(t, phi, state, tool)
			replaceNodesInBranch(colors, colorTrueBranch, phi, trueMergePhi)
		}
		trueMergePhi.AddInput(v)
		return trueMerge
	}
	intoFalse := func(v *Node) *Node {
		if falseMerge == nil {
			falseMerge, falseMergePhi = g.insertMerge(f, phi, state, tool)
			replaceNodesInBranch(colors, colorFalseBranch, phi, falseMergePhi)
		}
		falseMergePhi.AddInput(v)
		return falseMerge
	}
	for i, end := range ends {
		v, r := values[i], results[i]
		switch {
		case r.is(OpcodeLogicConstant):
			merge.RemoveEnd(end)
			if r.LogicValue() {
				intoTrue(v).AddForwardEnd(end)
			} else {
				intoFalse(v).AddForwardEnd(end)
			}
		case r != cond:
			tb, fb := g.Begin(), g.Begin()
			newIf := g.If(r, tb, fb, n.prob)
			tb.SetNext(g.End())
			intoTrue(v).AddForwardEnd(tb.Next())
			fb.SetNext(g.End())
			intoFalse(v).AddForwardEnd(fb.Next())
			merge.RemoveEnd(end)
			end.Predecessor().SetNext(newIf)
			end.SafeDelete()
		}
	}

	drop()
	g.cleanupMerge(merge)
	g.cleanupMerge(trueMerge)
	g.cleanupMerge(falseMerge)
	return true
}

// dropCondition deletes c if it was created after mark and is unused.
func dropCondition(c *Node, mark NodeID) {
	if c.IsAlive() && c.id >= mark {
		TryKillUnused(c)
	}
}

// conditionUses returns true if cond, its only usage being the If, tests phi
// directly. The testing nodes are colored as condition usages.
func conditionUses(cond, phi *Node, colors map[*Node]nodeColor) bool {
	if !cond.HasExactlyOneUsage() {
		return false
	}
	switch {
	case cond.is(OpcodeShortCircuitOr):
		// Guard lowering expects every test of an Or it has not lowered yet.
		if cond.g.GuardsStage().AreDeoptsFixed() {
			return conditionUses(cond.Input(0), phi, colors) || conditionUses(cond.Input(1), phi, colors)
		}
	case cond.op.IsCompare():
		if cond.Input(0) == phi || cond.Input(1) == phi {
			colors[cond] = colorConditionUsage
			return true
		}
	case cond.is(OpcodeIsNull), cond.is(OpcodeInstanceOf):
		if cond.Input(0) == phi {
			colors[cond] = colorConditionUsage
			return true
		}
	}
	return false
}

// computeCondition returns cond with v in place of phi, folded as far as
// possible, or cond itself.
func computeCondition(cond, phi, v *Node) *Node {
	g := cond.g
	sub := func(in *Node) *Node {
		if in == phi {
			return v
		}
		return in
	}
	switch {
	case cond.is(OpcodeShortCircuitOr):
		if !g.GuardsStage().AreDeoptsFixed() || g.IsAfterStage(StageExpandLogic) {
			return cond
		}
		x, y := cond.Input(0), cond.Input(1)
		rx, ry := computeCondition(x, phi, v), computeCondition(y, phi, v)
		if rx == x && ry == y {
			return cond
		}
		return g.foldShortCircuitOr(rx, cond.has(flagXNegated), ry, cond.has(flagYNegated), cond.prob)
	case cond.op.IsCompare():
		x, y := cond.Input(0), cond.Input(1)
		if x == phi || y == phi {
			return g.Compare(cond.op, sub(x), sub(y))
		}
	case cond.is(OpcodeIsNull):
		if cond.Input(0) == phi {
			return g.IsNull(v)
		}
	case cond.is(OpcodeInstanceOf):
		if cond.Input(0) == phi {
			return g.InstanceOf(v, cond.typ, cond.AllowsNull())
		}
	}
	return cond
}

// foldShortCircuitOr returns the Or of the operands, dropping constant ones.
func (g *Graph) foldShortCircuitOr(x *Node, xNegated bool, y *Node, yNegated bool, p BranchProbability) *Node {
	operand := func(c *Node, negated bool) *Node {
		if negated {
			return g.LogicNegation(c)
		}
		return c
	}
	if x.is(OpcodeLogicConstant) {
		if x.LogicValue() != xNegated {
			return g.LogicConstant(true)
		}
		return operand(y, yNegated)
	}
	if y.is(OpcodeLogicConstant) {
		if y.LogicValue() != yNegated {
			return g.LogicConstant(true)
		}
		return operand(x, xNegated)
	}
	return g.ShortCircuitOr(x, xNegated, y, yNegated, p)
}

// colorUsage returns the side of the split node is reached from, computing and
// caching it in colors.
func colorUsage(colors map[*Node]nodeColor, node, merge, t, f *Node) nodeColor {
	if c, ok := colors[node]; ok {
		return c
	}
	if len(colors) >= maxUsageColorSetSize {
		return colorMixed
	}
	// Cycles resolve to mixed.
	colors[node] = colorMixed

	combine := func(nodes []*Node) nodeColor {
		combined := colorNone
		for _, m := range nodes {
			c := colorUsage(colors, m, merge, t, f)
			switch combined {
			case colorNone:
				combined = c
			case c:
			default:
				return colorMixed
			}
		}
		return combined
	}

	var color nodeColor
	switch {
	case node == merge:
		color = colorMixed
	case node == t:
		color = colorTrueBranch
	case node == f:
		color = colorFalseBranch
	case node.op.IsMerge():
		color = combine(node.ForwardEnds())
	case node.is(OpcodeStart):
		color = colorMixed
	case node.op.IsFixed():
		p := node.Predecessor()
		if p == nil {
			panic("BUG: colored fixed node " + node.String() + " without predecessor")
		}
		color = colorUsage(colors, p, merge, t, f)
	case node.is(OpcodePhi):
		phiMerge := node.Merge()
		if phiMerge.is(OpcodeLoopBegin) {
			color = colorUsage(colors, phiMerge, merge, t, f)
			break
		}
		color = colorPhiMixed
		for _, end := range phiMerge.ForwardEnds() {
			if c := colorUsage(colors, end, merge, t, f); c != colorTrueBranch && c != colorFalseBranch {
				color = colorMixed
				break
			}
		}
	default:
		var usages []*Node
		for _, u := range node.Usages() {
			if u != node {
				usages = append(usages, u)
			}
		}
		if color = combine(usages); color == colorPhiMixed {
			color = colorMixed
		}
	}
	if color == colorNone {
		// Nothing to follow, e.g. a floating node without usages.
		color = colorMixed
	}
	colors[node] = color
	return color
}

// replaceNodesInBranch makes the usages of phi on one side use v instead.
func replaceNodesInBranch(colors map[*Node]nodeColor, branch nodeColor, phi, v *Node) {
	for _, u := range phi.Usages() {
		switch colors[u] {
		case branch:
			u.ReplaceAllInputs(phi, v)
		case colorPhiMixed:
			m := u.Merge()
			for i, end := range m.ForwardEnds() {
				if u.ValueAt(i) == phi && colors[end] == branch {
					u.SetValueAt(i, v)
				}
			}
		}
	}
}

// insertMerge puts a new merge with a single end in front of begin and returns
// it with a phi of oldPhi, to which the caller adds further predecessors.
func (g *Graph) insertMerge(begin, oldPhi, state *Node, tool SimplifierTool) (merge, phi *Node) {
	merge = g.Merge()
	newBegin := g.Begin()
	begin.ReplaceAtPredecessor(newBegin)
	newBegin.SetNext(g.End())
	merge.AddForwardEnd(newBegin.Next())
	phi = g.Phi(merge, oldPhi.stamp, oldPhi)
	if state != nil {
		merge.SetStateAfter(state.DuplicateReplacing(oldPhi, phi))
	}
	merge.SetNext(begin)
	tool.AddToWorkList(begin)
	return merge, phi
}

// cleanupMerge removes merge if the split left it without predecessors, or
// with a single one.
func (g *Graph) cleanupMerge(merge *Node) {
	if !merge.IsAlive() {
		return
	}
	switch merge.ForwardEndCount() {
	case 0:
		g.KillCFG(merge)
	case 1:
		g.ReduceTrivialMerge(merge)
	}
}
