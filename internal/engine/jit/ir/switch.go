package ir

// SwitchFoldable is the view a switch recognizer has of one link of a cascade
// of equality tests `if (v == k) keySuccessor else next`.
type SwitchFoldable interface {
	// Node returns the underlying split.
	Node() *Node
	// NextSwitchFoldableBranch returns the successor continuing the cascade.
	NextSwitchFoldableBranch() *Node
	// IsInSwitch returns true if this link tests switchValue against a constant.
	IsInSwitch(switchValue *Node) bool
	// CutOffCascadeNode detaches the key successor of an inner link.
	CutOffCascadeNode()
	// CutOffLowestCascadeNode detaches both successors of the last link.
	CutOffLowestCascadeNode()
	// Default returns the successor taken when no key matches.
	Default() *Node
	// SwitchValue returns the tested value, or nil if this is not a link.
	SwitchValue() *Node
	// IsNonInitializedProfile returns true if the probabilities are guesses.
	IsNonInitializedProfile() bool
	// ProfileData returns the probability of taking the key successor.
	ProfileData() BranchProbability
	// IntKeyAt returns the i-th key. An If has exactly one.
	IntKeyAt(i int) int64
	// KeyProbability returns the probability of the i-th key.
	KeyProbability(i int) float64
	// KeySuccessor returns the successor of the i-th key.
	KeySuccessor(i int) *Node
	// DefaultProbability returns the probability of the default successor.
	DefaultProbability() float64
}

// ifSwitch is the SwitchFoldable view of an If.
type ifSwitch struct{ n *Node }

// AsSwitchFoldable returns the switch view of an If.
func AsSwitchFoldable(n *Node) (SwitchFoldable, bool) {
	if !n.is(OpcodeIf) {
		return nil, false
	}
	return ifSwitch{n}, true
}

// maybeIsInSwitch returns true for `x == c` with an integer constant c.
func maybeIsInSwitch(cond *Node) bool {
	return cond.is(OpcodeIntegerEquals) && cond.Input(1).IsIntConstant()
}

func (s ifSwitch) Node() *Node { return s.n }

func (s ifSwitch) NextSwitchFoldableBranch() *Node { return s.n.FalseSuccessor() }

func (s ifSwitch) IsInSwitch(switchValue *Node) bool {
	c := s.n.Condition()
	return maybeIsInSwitch(c) && c.Input(0) == switchValue
}

func (s ifSwitch) CutOffCascadeNode() { s.n.SetTrueSuccessor(nil) }

func (s ifSwitch) CutOffLowestCascadeNode() {
	s.n.SetFalseSuccessor(nil)
	s.n.SetTrueSuccessor(nil)
}

func (s ifSwitch) Default() *Node { return s.n.FalseSuccessor() }

func (s ifSwitch) SwitchValue() *Node {
	if c := s.n.Condition(); maybeIsInSwitch(c) {
		return c.Input(0)
	}
	return nil
}

func (s ifSwitch) IsNonInitializedProfile() bool { return !s.n.prob.Source.IsTrusted() }

func (s ifSwitch) ProfileData() BranchProbability { return s.n.prob }

func (s ifSwitch) IntKeyAt(i int) int64 {
	s.mustBeFirstKey(i)
	return s.n.Condition().Input(1).AsInt()
}

func (s ifSwitch) KeyProbability(i int) float64 {
	s.mustBeFirstKey(i)
	return s.n.prob.P
}

func (s ifSwitch) KeySuccessor(i int) *Node {
	s.mustBeFirstKey(i)
	return s.n.TrueSuccessor()
}

func (s ifSwitch) DefaultProbability() float64 { return 1 - s.n.prob.P }

func (s ifSwitch) mustBeFirstKey(i int) {
	if i != 0 {
		panic("BUG: an If has a single key")
	}
}

// switchTransformationOptimization hands an If testing `x == c` to the switch
// recognizer, if there is one.
func (n *Node) switchTransformationOptimization(tool SimplifierTool) bool {
	folder := tool.SwitchFolder()
	if folder == nil || !maybeIsInSwitch(n.Condition()) {
		return false
	}
	return folder.FoldSwitch(ifSwitch{n}, tool)
}
