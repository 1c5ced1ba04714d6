package ir

// TriState is a boolean that may be unknown.
type TriState byte

const (
	TriUnknown TriState = iota
	TriTrue
	TriFalse
)

func triOf(b bool) TriState {
	if b {
		return TriTrue
	}
	return TriFalse
}

// IsKnown returns true for TriTrue and TriFalse.
func (t TriState) IsKnown() bool { return t != TriUnknown }

// Bool returns the value of a known TriState.
func (t TriState) Bool() bool {
	if t == TriUnknown {
		panic("BUG: Bool of unknown TriState")
	}
	return t == TriTrue
}

func (t TriState) flip() TriState {
	switch t {
	case TriTrue:
		return TriFalse
	case TriFalse:
		return TriTrue
	}
	return TriUnknown
}

// Implies returns true if c being true guarantees o is true.
func (c Condition) Implies(o Condition) bool {
	if c == o {
		return true
	}
	r1, s1 := c.relation()
	r2, s2 := o.relation()
	if _, ok := joinSignedness(s1, s2); !ok {
		return false
	}
	return r1&^r2 == 0
}

// foldCompare evaluates the compare op over x and y from their stamps.
func foldCompare(op Opcode, x, y *Node) TriState {
	if x == y {
		return triOf(op == OpcodeIntegerEquals || op == OpcodeObjectEquals)
	}
	xs, ys := x.stamp, y.stamp
	if op == OpcodeObjectEquals {
		if xs.AlwaysDistinct(ys) {
			return TriFalse
		}
		if xs.AlwaysNull() && ys.AlwaysNull() {
			return TriTrue
		}
		return TriUnknown
	}
	if !xs.IsInt() || !ys.IsInt() {
		return TriUnknown
	}
	if xc, ok := xs.AsConstant(); ok {
		if yc, ok := ys.AsConstant(); ok {
			return triOf(CompareCondition(op).Fold(xs.Bits(), xc, yc))
		}
	}
	switch op {
	case OpcodeIntegerEquals:
		if xs.AlwaysDistinct(ys) {
			return TriFalse
		}
	case OpcodeIntegerLessThan:
		if xs.hi < ys.lo {
			return TriTrue
		} else if xs.lo >= ys.hi {
			return TriFalse
		}
	case OpcodeIntegerBelow:
		if yc, ok := ys.AsConstant(); ok && yc == 0 {
			return TriFalse
		}
		if xs.IsPositive() && ys.IsPositive() {
			if xs.hi < ys.lo {
				return TriTrue
			} else if xs.lo >= ys.hi {
				return TriFalse
			}
		}
	}
	return TriUnknown
}

// Implies returns what the logic node n being `!thisNegated` tells about other.
func (n *Node) Implies(thisNegated bool, other *Node) TriState {
	if n == other {
		return triOf(!thisNegated)
	}
	if other.is(OpcodeLogicNegation) {
		return n.Implies(thisNegated, other.Input(0)).flip()
	}
	if n.op.IsCompare() && other.op.IsCompare() {
		c1, c2 := CompareCondition(n.op), CompareCondition(other.op)
		switch {
		case n.Input(0) == other.Input(0) && n.Input(1) == other.Input(1):
		case n.Input(0) == other.Input(1) && n.Input(1) == other.Input(0):
			c2 = c2.Mirror()
		default:
			return TriUnknown
		}
		if thisNegated {
			c1 = c1.Negate()
		}
		if c1.Implies(c2) {
			return TriTrue
		}
		if c1.TrueIsDisjoint(c2) {
			return TriFalse
		}
	}
	return TriUnknown
}

// CanonicalizeConditional returns a simpler value equivalent to
// `cond ? t : f`, or nil if there is none.
func CanonicalizeConditional(cond, t, f *Node) *Node {
	if t == f {
		return t
	}
	if cond.is(OpcodeLogicConstant) {
		if cond.LogicValue() {
			return t
		}
		return f
	}
	if cond.is(OpcodeIntegerEquals) || cond.is(OpcodeObjectEquals) {
		x, y := cond.Input(0), cond.Input(1)
		// (x == y) ? x : y and (x == y) ? y : x are both y.
		if (x == t && y == f) || (x == f && y == t) {
			return f
		}
		// (x == c) ? c : x is x.
		if x == f && y.IsIntConstant() && t.IsIntConstant() && y.c == t.c {
			return f
		}
	}
	if cond.is(OpcodeIsNull) && cond.Input(0) == f && t.IsNullConstant() {
		return f
	}
	return nil
}

// CompareParts returns the operands and the condition of a compare node.
func (n *Node) CompareParts() (x, y *Node, c Condition) {
	if !n.op.IsCompare() {
		panic("BUG: CompareParts on " + n.String())
	}
	return n.Input(0), n.Input(1), CompareCondition(n.op)
}
