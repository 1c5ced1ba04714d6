package hotspot

import (
	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/lowering"
)

// lowerIntegerDivRem turns a fixed signed division into a guard on the
// divisor and a floating division, so equal divisions can be value numbered.
func (p *Provider) lowerIntegerDivRem(n *ir.Node, tool lowering.Tool) ir.Outcome {
	opts := p.Options()
	g := tool.Graph()
	x, y := n.Input(0), n.Input(1)
	if !n.CanDeopt() || !opts.FloatingDivisions {
		return ir.OutcomeDeferred
	}
	if y.IsIntConstant() && y.AsInt() == 0 {
		return ir.OutcomeDeferred
	}
	bits := x.Stamp().Bits()
	if !opts.JVMSCompliantDivision && x.Stamp().Contains(ir.MinValue(bits)) && y.Stamp().Contains(-1) {
		// Floating would need a second guard against MIN / -1.
		return ir.OutcomeDeferred
	}

	divisor := y
	guard := n.Guard()
	if guard == nil {
		cond := g.IntegerEquals(y, g.ConstantInt(y.Stamp().Bits(), 0))
		if cond.Opcode() == ir.OpcodeLogicConstant && cond.LogicValue() {
			return ir.OutcomeDeferred
		}
		guard = tool.CreateGuard(n, cond, ir.ReasonArithmeticException, ir.ActionInvalidateReprofile, true)
		divisor = g.Pi(y, y.Stamp().ExcludeZero(), guard)
	} else if y.Stamp().Contains(0) {
		divisor = g.Pi(y, y.Stamp().ExcludeZero(), guard)
	}

	var div *ir.Node
	if n.Opcode() == ir.OpcodeSignedDiv {
		div = g.FloatingDiv(x, divisor, guard)
	} else {
		div = g.FloatingRem(x, divisor, guard)
	}
	g.ReplaceFixedWithFloating(n, div)
	return ir.OutcomeApplied
}

// fixFloatingDivRem pins a floating division back into the control flow at
// the last fixed node, where it can no longer trap.
func (p *Provider) fixFloatingDivRem(n *ir.Node, tool lowering.Tool) ir.Outcome {
	g := tool.Graph()
	last := tool.LastFixedNode()
	if last == nil {
		return ir.FatalOutcome(ir.Fatalf([]*ir.Node{n}, "floating division needs a fixed position"))
	}
	var fixed *ir.Node
	if n.Opcode() == ir.OpcodeFloatingDiv {
		fixed = g.SignedDiv(n.Input(0), n.Input(1))
	} else {
		fixed = g.SignedRem(n.Input(0), n.Input(1))
	}
	fixed.SetGuard(n.Guard())
	fixed.SetCanDeopt(false)
	n.ReplaceAtUsages(fixed)
	n.SafeDelete()
	g.AddAfterFixed(last, fixed)
	return ir.OutcomeApplied
}
