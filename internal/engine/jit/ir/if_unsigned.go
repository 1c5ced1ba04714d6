package ir

// checkForUnsignedCompare fuses `x < c1` followed on its false side by a
// second bound on x into a single unsigned compare:
//
//	!(x < 0) && x < y            =>  x |<| y            (y known positive)
//	!(x < 0) && !(c < x)         =>  x |<| c+1
//	!(x < -c1) && x < c2         =>  x+c1 |<| c1+c2      (if c1+c2 fits)
//
// The first test's true successor must reach the same destination as the
// side of the second test that leaves the range.
func (n *Node) checkForUnsignedCompare(tool SimplifierTool) bool {
	g := n.g
	cond := n.Condition()
	if !cond.is(OpcodeIntegerLessThan) {
		return false
	}
	x := cond.Input(0)
	c1, ok := cond.Input(1).stamp.AsConstant()
	if !ok || !x.stamp.IsInt() {
		return false
	}
	if2 := n.FalseSuccessor().Next()
	if !if2.is(OpcodeIf) || !if2.Condition().is(OpcodeIntegerLessThan) {
		return false
	}
	cond2 := if2.Condition()
	x2, y2 := cond2.Input(0), cond2.Input(1)
	bits := x.stamp.Bits()

	var below, inRange, outOfRange *Node
	prob := n.prob.Negated()
	switch {
	case c1 == 0 && x2 == x && y2.stamp.IsPositive() && sameDestination(n.TrueSuccessor(), if2.FalseSuccessor()):
		below = g.IntegerBelow(x, y2)
		inRange, outOfRange = if2.TrueSuccessor(), if2.FalseSuccessor()
	case c1 == 0 && y2 == x && sameDestination(n.TrueSuccessor(), if2.TrueSuccessor()):
		limit, ok := x2.stamp.AsConstant()
		if !ok || limit <= 0 || limit >= MaxValue(bits) {
			return false
		}
		below = g.IntegerBelow(x, g.ConstantInt(bits, limit+1))
		inRange, outOfRange = if2.FalseSuccessor(), if2.TrueSuccessor()
	case c1 < 0 && x2 == x && sameDestination(n.TrueSuccessor(), if2.FalseSuccessor()):
		c2, ok := y2.stamp.AsConstant()
		if !ok || c2 <= 0 || !x.stamp.IsCompatible(cond.Input(1).stamp) || !x.stamp.IsCompatible(y2.stamp) {
			return false
		}
		// Overflow of c2-c1 in 64 bits wraps to a negative limit.
		limit := c2 - c1
		if limit <= 0 || limit > MaxValue(bits) {
			return false
		}
		below = g.IntegerBelow(g.Add(x, g.ConstantInt(bits, -c1)), g.ConstantInt(bits, limit))
		inRange, outOfRange = if2.TrueSuccessor(), if2.FalseSuccessor()
		prob = n.prob
	default:
		return false
	}

	if2.ClearSuccessors()
	newIf := g.If(below, inRange, outOfRange, prob)
	g.KillCFG(n.TrueSuccessor())
	g.RemoveSplit(n, n.FalseSuccessor())
	if2.ReplaceAtPredecessor(newIf)
	if2.SafeDelete()
	TryKillUnused(cond)
	TryKillUnused(cond2)
	tool.AddToWorkList(newIf)
	return true
}

// sameDestination returns true if control leaving through s1 and through s2
// ends up in the same place with the same values. The relation is reflexive
// and symmetric.
func sameDestination(s1, s2 *Node) bool {
	if s1 == s2 {
		return true
	}
	if s1.is(OpcodeLoopExit) || s2.is(OpcodeLoopExit) {
		if !s1.is(OpcodeLoopExit) || !s2.is(OpcodeLoopExit) || s1.LoopBeginOf() != s2.LoopBeginOf() {
			return false
		}
		if s1.StateAfter() != nil || s2.StateAfter() != nil || len(s1.Proxies()) > 0 || len(s2.Proxies()) > 0 {
			return false
		}
	}
	next1, next2 := s1.Next(), s2.Next()
	switch {
	case next1 == nil || next2 == nil:
		return false
	case next1.is(OpcodeEnd) && next2.is(OpcodeEnd):
		merge := next1.Merge()
		if merge == nil || merge != next2.Merge() {
			return false
		}
		for _, phi := range merge.Phis() {
			if phi.ValueAtEnd(next1) != phi.ValueAtEnd(next2) {
				return false
			}
		}
		return true
	case next1.is(OpcodeDeoptimize) && next2.is(OpcodeDeoptimize):
		return next1.reason == next2.reason && next1.action == next2.action
	case next1.is(OpcodeReturn) && next2.is(OpcodeReturn):
		return next1.Result() == next2.Result()
	}
	return false
}
