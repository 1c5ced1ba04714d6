package ir

// Condition is a comparison relation between two integers.
type Condition byte

const (
	CondInvalid Condition = iota
	// CondEQ represents "==".
	CondEQ
	// CondNE represents "!=".
	CondNE
	// CondLT represents signed "<".
	CondLT
	// CondLE represents signed "<=".
	CondLE
	// CondGT represents signed ">".
	CondGT
	// CondGE represents signed ">=".
	CondGE
	// CondBT represents unsigned "<".
	CondBT
	// CondBE represents unsigned "<=".
	CondBE
	// CondAT represents unsigned ">".
	CondAT
	// CondAE represents unsigned ">=".
	CondAE
)

// String implements fmt.Stringer.
func (c Condition) String() string {
	switch c {
	case CondEQ:
		return "eq"
	case CondNE:
		return "ne"
	case CondLT:
		return "lt"
	case CondLE:
		return "le"
	case CondGT:
		return "gt"
	case CondGE:
		return "ge"
	case CondBT:
		return "bt"
	case CondBE:
		return "be"
	case CondAT:
		return "at"
	case CondAE:
		return "ae"
	default:
		panic("invalid condition")
	}
}

const (
	relLess    = 1 << 0
	relEqual   = 1 << 1
	relGreater = 1 << 2
)

type signedness byte

const (
	eitherSigned signedness = iota
	signedOnly
	unsignedOnly
)

// relation returns the set of orderings for which c is true and the
// signedness under which those orderings are measured.
func (c Condition) relation() (byte, signedness) {
	switch c {
	case CondEQ:
		return relEqual, eitherSigned
	case CondNE:
		return relLess | relGreater, eitherSigned
	case CondLT:
		return relLess, signedOnly
	case CondLE:
		return relLess | relEqual, signedOnly
	case CondGT:
		return relGreater, signedOnly
	case CondGE:
		return relGreater | relEqual, signedOnly
	case CondBT:
		return relLess, unsignedOnly
	case CondBE:
		return relLess | relEqual, unsignedOnly
	case CondAT:
		return relGreater, unsignedOnly
	case CondAE:
		return relGreater | relEqual, unsignedOnly
	default:
		panic("invalid condition")
	}
}

func conditionOf(rel byte, s signedness) Condition {
	switch rel {
	case relEqual:
		return CondEQ
	case relLess | relGreater:
		if s == eitherSigned {
			return CondNE
		}
	}
	unsigned := s == unsignedOnly
	switch rel {
	case relLess:
		if unsigned {
			return CondBT
		}
		return CondLT
	case relLess | relEqual:
		if unsigned {
			return CondBE
		}
		return CondLE
	case relGreater:
		if unsigned {
			return CondAT
		}
		return CondGT
	case relGreater | relEqual:
		if unsigned {
			return CondAE
		}
		return CondGE
	case relLess | relGreater:
		// NE restricted to one signedness is still NE.
		return CondNE
	}
	return CondInvalid
}

// IsUnsigned returns true for the unsigned orderings.
func (c Condition) IsUnsigned() bool {
	_, s := c.relation()
	return s == unsignedOnly
}

// Negate returns the condition that is true exactly when c is false.
func (c Condition) Negate() Condition {
	rel, s := c.relation()
	return conditionOf(^rel&(relLess|relEqual|relGreater), s)
}

// Mirror returns the condition with swapped operands: `x c y == y c.Mirror() x`.
func (c Condition) Mirror() Condition {
	rel, s := c.relation()
	mirrored := rel & relEqual
	if rel&relLess != 0 {
		mirrored |= relGreater
	}
	if rel&relGreater != 0 {
		mirrored |= relLess
	}
	return conditionOf(mirrored, s)
}

func joinSignedness(a, b signedness) (signedness, bool) {
	switch {
	case a == eitherSigned:
		return b, true
	case b == eitherSigned || a == b:
		return a, true
	}
	return 0, false
}

// Join returns the condition that holds exactly when both c and o hold, or
// CondInvalid when that is unsatisfiable or mixes signed and unsigned orderings.
func (c Condition) Join(o Condition) Condition {
	r1, s1 := c.relation()
	r2, s2 := o.relation()
	s, ok := joinSignedness(s1, s2)
	if !ok {
		return CondInvalid
	}
	return conditionOf(r1&r2, s)
}

// TrueIsDisjoint returns true if c and o can never both be true for the same operands.
func (c Condition) TrueIsDisjoint(o Condition) bool {
	if c == o {
		return false
	}
	r1, s1 := c.relation()
	r2, s2 := o.relation()
	if _, ok := joinSignedness(s1, s2); !ok {
		return false
	}
	return r1&r2 == 0
}

// Fold evaluates `x c y` on bits-wide integers.
func (c Condition) Fold(bits int, x, y int64) bool {
	switch c {
	case CondEQ:
		return SignExtend(x, bits) == SignExtend(y, bits)
	case CondNE:
		return SignExtend(x, bits) != SignExtend(y, bits)
	case CondLT:
		return SignExtend(x, bits) < SignExtend(y, bits)
	case CondLE:
		return SignExtend(x, bits) <= SignExtend(y, bits)
	case CondGT:
		return SignExtend(x, bits) > SignExtend(y, bits)
	case CondGE:
		return SignExtend(x, bits) >= SignExtend(y, bits)
	case CondBT:
		return ZeroExtend(x, bits) < ZeroExtend(y, bits)
	case CondBE:
		return ZeroExtend(x, bits) <= ZeroExtend(y, bits)
	case CondAT:
		return ZeroExtend(x, bits) > ZeroExtend(y, bits)
	case CondAE:
		return ZeroExtend(x, bits) >= ZeroExtend(y, bits)
	default:
		panic("invalid condition")
	}
}

// CompareCondition returns the condition computed by a compare opcode.
func CompareCondition(op Opcode) Condition {
	switch op {
	case OpcodeIntegerEquals, OpcodeObjectEquals:
		return CondEQ
	case OpcodeIntegerLessThan:
		return CondLT
	case OpcodeIntegerBelow:
		return CondBT
	default:
		panic("BUG: not a compare opcode: " + op.String())
	}
}
