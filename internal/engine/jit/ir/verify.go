package ir

// Verify checks the structural invariants of g and returns the first violation.
func Verify(g *Graph) *InternalError {
	for _, n := range g.Nodes() {
		if err := verifyEdges(n); err != nil {
			return err
		}
		if err := verifyNode(n); err != nil {
			return err
		}
	}
	return verifyLoopProxies(g)
}

func verifyEdges(n *Node) *InternalError {
	var err *InternalError
	n.forEachInput(func(in *Node) {
		switch {
		case err != nil:
		case !in.IsAlive():
			err = Fatalf([]*Node{n, in}, "%s uses deleted node %s", n, in.id)
		case !in.IsUsedBy(n):
			err = Fatalf([]*Node{n, in}, "%s misses usage %s", in, n)
		}
	})
	if err != nil {
		return err
	}
	for _, u := range n.Usages() {
		if !u.IsAlive() || !u.references(n.id) {
			return Fatalf([]*Node{n, u}, "%s has stale usage %s", n, u.id)
		}
	}
	for i, id := range n.succs {
		if id == nilNode {
			continue
		}
		s := n.Successor(i)
		if !s.IsAlive() {
			return Fatalf([]*Node{n}, "%s has deleted successor %s", n, id)
		}
		if s.pred != n.id {
			return Fatalf([]*Node{n, s}, "successor %s of %s has predecessor %s", s, n, s.pred)
		}
	}
	if p := n.Predecessor(); p != nil {
		if !p.IsAlive() {
			return Fatalf([]*Node{n}, "%s has deleted predecessor %s", n, n.pred)
		}
		found := false
		for _, id := range p.succs {
			found = found || id == n.id
		}
		if !found {
			return Fatalf([]*Node{n, p}, "%s is not a successor of its predecessor %s", n, p)
		}
	}
	return nil
}

func verifyNode(n *Node) *InternalError {
	switch {
	case n.op.IsMerge():
		count := n.PhiPredecessorCount()
		for _, phi := range n.Phis() {
			if phi.ValueCount() != count {
				return Fatalf([]*Node{n, phi}, "%s has %d values, merge has %d predecessors", phi, phi.ValueCount(), count)
			}
		}
		for _, e := range n.ForwardEnds() {
			if !e.is(OpcodeEnd) {
				return Fatalf([]*Node{n, e}, "forward end %s of %s is not an End", e, n)
			}
		}
		if n.pred != nilNode {
			return Fatalf([]*Node{n}, "merge %s has a predecessor", n)
		}
	case n.is(OpcodeIf):
		if n.TrueSuccessor() == nil || n.FalseSuccessor() == nil {
			return Fatalf([]*Node{n}, "%s misses a successor", n)
		}
		if c := n.Condition(); c == nil || !c.op.IsLogic() {
			return Fatalf([]*Node{n}, "%s has no logic condition", n)
		}
		for _, s := range n.Successors() {
			if !s.op.IsBegin() || s.op.IsMerge() {
				return Fatalf([]*Node{n, s}, "successor %s of %s is not a begin", s, n)
			}
		}
	case n.is(OpcodeEnd):
		if n.Merge() == nil {
			return Fatalf([]*Node{n}, "%s does not flow into a merge", n)
		}
	case n.is(OpcodePhi):
		if m := n.Input(0); m == nil || !m.op.IsMerge() {
			return Fatalf([]*Node{n}, "%s has no merge", n)
		}
	case n.is(OpcodeValueProxy):
		if !n.ProxyPoint().is(OpcodeLoopExit) {
			return Fatalf([]*Node{n}, "%s is not anchored at a loop exit", n)
		}
	case n.op.IsFixed():
		if n.pred == nilNode && n.id != n.g.start {
			return Fatalf([]*Node{n}, "%s has no predecessor", n)
		}
	}
	return nil
}

// verifyLoopProxies checks that fixed values computed inside a loop are only
// used outside of it through a ValueProxy. Control flow nodes produce no value
// and are skipped.
func verifyLoopProxies(g *Graph) *InternalError {
	cfg := ComputeCFG(g)
	headers := cfg.LoopHeaders()
	if len(headers) == 0 {
		return nil
	}
	for _, n := range g.Nodes() {
		if !n.op.IsFixed() || n.op.IsBegin() || n.op.IsEnd() || n.stamp.Kind() == StampVoid {
			continue
		}
		def := cfg.BlockOf(n)
		if def == nil {
			continue
		}
		for _, h := range headers {
			if !cfg.InLoop(def, h) {
				continue
			}
			for _, u := range n.Usages() {
				switch {
				case u.is(OpcodeValueProxy), u.is(OpcodeFrameState):
					continue
				case u.is(OpcodePhi) && u.Merge() == h.begin:
					continue
				case (u.is(OpcodeLoopExit) || u.is(OpcodeLoopEnd)) && u.LoopBeginOf() == h.begin:
					continue
				}
				var at *Node
				switch {
				case u.op.IsFixed():
					at = u
				case u.is(OpcodePhi):
					// The value flows through the end matching its position.
					m := u.Merge()
					for i, v := range u.Values() {
						if v == n {
							at = predecessorEnd(m, i)
						}
					}
				}
				if at == nil {
					continue
				}
				if b := cfg.BlockOf(at); b != nil && !cfg.InLoop(b, h) {
					return Fatalf([]*Node{n, u}, "%s escapes the loop %s without a proxy", n, h.begin)
				}
			}
		}
	}
	return nil
}

func predecessorEnd(merge *Node, i int) *Node {
	if i < merge.ForwardEndCount() {
		return merge.ForwardEndAt(i)
	}
	return merge.LoopEnds()[i-merge.ForwardEndCount()]
}
