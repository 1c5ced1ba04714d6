package hotspot

import (
	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/lowering"
)

// splitNullableInstanceOf rewrites an instanceof that accepts null into
// `x == null || x instanceof T` so that the type test itself is strict.
func (p *Provider) splitNullableInstanceOf(n *ir.Node, tool lowering.Tool) ir.Outcome {
	if !n.AllowsNull() {
		return ir.OutcomeDeferred
	}
	g := tool.Graph()
	obj := n.Input(0)
	strict := g.InstanceOf(obj, n.TypeRef(), false)
	or := g.ShortCircuitOr(g.IsNull(obj), false, strict, false, ir.NotLikely)
	n.ReplaceAtUsages(or)
	n.SafeDelete()
	return ir.OutcomeApplied
}

// loadHubForMonitorEnter null checks the locked object and attaches its hub
// to the monitor so the hub read can be scheduled early.
func (p *Provider) loadHubForMonitorEnter(n *ir.Node, tool lowering.Tool) ir.Outcome {
	if n.Input(1) != nil {
		return ir.OutcomeDeferred
	}
	g := tool.Graph()
	obj := p.CreateNullCheckedValue(n.Input(0), n, tool)
	n.SetInput(0, obj)
	n.SetInput(1, p.CreateReadHub(g, obj, tool))
	return ir.OutcomeApplied
}
