package ir

// reorderWithNextIf swaps this If with the If starting its false successor when
// the second test is more likely to decide and the two tests are exclusive:
//
//	if (a) A else if (b) B else C   =>   if (b) B else if (a) A else C
//
// Probabilities are recomputed so that each successor keeps its frequency.
func (n *Node) reorderWithNextIf(tool SimplifierTool) bool {
	between := n.FalseSuccessor()
	if between.HasUsages() || between.is(OpcodeLoopExit) {
		return false
	}
	nextIf := between.Next()
	if !nextIf.is(OpcodeIf) || nextIf.FalseSuccessor().is(OpcodeLoopExit) {
		return false
	}
	pA := n.prob.P
	probabilityB := (1 - pA) * nextIf.prob.P
	if pA >= probabilityB || !prepareForSwap(n.Condition(), nextIf.Condition()) {
		return false
	}

	bothFalse := nextIf.FalseSuccessor()
	nextIf.SetFalseSuccessor(nil)
	between.SetNext(nil)
	n.SetFalseSuccessor(nil)
	n.ReplaceAtPredecessor(nextIf)
	nextIf.SetFalseSuccessor(between)
	between.SetNext(n)
	n.SetFalseSuccessor(bothFalse)

	source := n.prob.Source.Combine(nextIf.prob.Source)
	nextIf.prob = Probability(probabilityB, source)
	if probabilityB == 1 {
		n.prob = Probability(0, source)
	} else {
		n.prob = Probability(min(1, pA/(1-probabilityB)), source)
	}
	tool.AddToWorkList(nextIf)
	return true
}

// prepareForSwap returns true if conditions a and b are never both true, so
// that testing them in either order selects the same successor.
func prepareForSwap(a, b *Node) bool {
	switch {
	case a.is(OpcodeInstanceOf):
		if a.AllowsNull() {
			return false
		}
		v := a.Input(0)
		switch {
		case b.is(OpcodeIsNull):
			return b.Input(0) == v
		case b.is(OpcodeInstanceOf):
			ta, tb := a.typ, b.typ
			return b.Input(0) == v && !b.AllowsNull() && !ta.IsInterface && !tb.IsInterface &&
				!ta.IsAssignableFrom(tb) && !tb.IsAssignableFrom(ta)
		}
	case a.op.IsCompare() && b.op.IsCompare():
		if a == b {
			// Left to value numbering.
			return false
		}
		xa, ya, ca := a.CompareParts()
		xb, yb, cb := b.CompareParts()
		switch {
		case xb == xa && yb == ya:
			return ca.TrueIsDisjoint(cb)
		case xb == ya && yb == xa:
			return ca.TrueIsDisjoint(cb.Mirror())
		}
		if ca != CondEQ || cb != CondEQ {
			return false
		}
		// One shared operand and two provably different others.
		return (xa == xb && valuesDistinct(ya, yb)) ||
			(xa == yb && valuesDistinct(ya, xb)) ||
			(ya == xb && valuesDistinct(xa, yb)) ||
			(ya == yb && valuesDistinct(xa, xb))
	}
	return false
}

// valuesDistinct returns true if a and b can never be equal.
func valuesDistinct(a, b *Node) bool {
	if a.IsConstant() && b.IsConstant() {
		return a != b
	}
	return a.stamp.AlwaysDistinct(b.stamp)
}

func isBoxedInt(s Stamp) bool {
	return s.IsObject() && s.Type() != nil && s.Type().Boxes == KindInt
}

// tryEliminateBoxedReferenceEquals falsifies a rarely successful reference
// pre-check in front of a boxed value comparison:
//
//	if (x == y || x.intValue() == y.intValue())   =>   if (x.intValue() == y.intValue())
//
// The true successor must be empty and the false one must only unbox and
// compare x and y.
func (n *Node) tryEliminateBoxedReferenceEquals() bool {
	cond := n.Condition()
	if !cond.is(OpcodeObjectEquals) {
		return false
	}
	x, y := cond.Input(0), cond.Input(1)
	if !isBoxedInt(x.stamp) && !isBoxedInt(y.stamp) {
		return false
	}
	if n.prob.P > 0.4 {
		return false
	}
	t := n.TrueSuccessor()
	if !(t.is(OpcodeBegin) || t.is(OpcodeLoopExit)) || !t.Next().is(OpcodeEnd) {
		return false
	}

	var unbox, unboxCheck *Node
	for node := n.FalseSuccessor(); ; node = node.Next() {
		switch node.op {
		case OpcodeBegin, OpcodeLoopExit, OpcodeLoadField, OpcodeEnd:
		case OpcodeUnbox:
			if unbox != nil {
				return false
			}
			unbox = node
		case OpcodeFixedGuard:
			eq := node.Condition()
			if !eq.is(OpcodeIntegerEquals) || node.IsNegated() {
				break
			}
			ex, ey := eq.Input(0), eq.Input(1)
			if (isUnboxedFrom(ex, x) && isUnboxedFrom(ey, y)) || (isUnboxedFrom(ex, y) && isUnboxedFrom(ey, x)) {
				unboxCheck = node
			}
		default:
			return false
		}
		if !node.op.IsFixedWithNext() || node.Next() == nil {
			break
		}
	}
	if unbox == nil || unboxCheck == nil {
		return false
	}
	n.SetCondition(n.g.LogicConstant(false))
	TryKillUnused(cond)
	return true
}

// isUnboxedFrom returns true if v is the primitive value boxed in src.
func isUnboxedFrom(v, src *Node) bool {
	for {
		switch {
		case v == src:
			return true
		case v.is(OpcodeUnbox), v.is(OpcodePi):
			v = v.Input(0)
		case v.is(OpcodeLoadField) && v.Input(0) != nil && isBoxedInt(v.Input(0).stamp):
			v = v.Input(0)
		default:
			return false
		}
	}
}
