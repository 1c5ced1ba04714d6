// Package hotspot is the lowering provider of a HotSpot-like VM: object
// headers with a hub word, vtable dispatch, interpreter OSR buffers and
// runtime calls for the slow paths.
package hotspot

import (
	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/jitapi"
	"github.com/oracle/graal-sub160/internal/engine/jit/lowering"
)

// Kinds are the node kinds Provider lowers itself, before the default provider.
var Kinds = []ir.Opcode{
	ir.OpcodeInvoke,
	ir.OpcodeLoadMethod,
	ir.OpcodeGetClass,
	ir.OpcodeStoreHub,
	ir.OpcodeOSRStart,
	ir.OpcodeBytecodeException,
	ir.OpcodeInstanceOf,
	ir.OpcodeNewInstance,
	ir.OpcodeNewArray,
	ir.OpcodeMonitorEnter,
	ir.OpcodeMonitorExit,
	ir.OpcodeDeoptimize,
	ir.OpcodeClassGetHub,
	ir.OpcodeHubGetClass,
	ir.OpcodeKlassLayoutHelper,
	ir.OpcodeSignedDiv,
	ir.OpcodeSignedRem,
	ir.OpcodeFloatingDiv,
	ir.OpcodeFloatingRem,
}

// Provider implements lowering.Provider.
type Provider struct {
	*lowering.DefaultProvider
	snippets lowering.SnippetService
	registry *lowering.Registry
}

// NewProvider returns a Provider for the VM described by opts. Snippets
// expand the allocation, locking and type check slow paths; nil means
// lowering.RuntimeCallSnippets.
func NewProvider(opts *jitapi.Options, snippets lowering.SnippetService) (*Provider, error) {
	def, err := lowering.NewDefaultProvider(opts, jitapi.NewOffsetData(opts))
	if err != nil {
		return nil, err
	}
	if snippets == nil {
		snippets = lowering.RuntimeCallSnippets{}
	}
	builtin := make([]string, 0, len(Kinds)+len(lowering.DefaultKinds))
	for _, op := range append(append([]ir.Opcode(nil), Kinds...), lowering.DefaultKinds...) {
		builtin = append(builtin, op.String())
	}
	return &Provider{DefaultProvider: def, snippets: snippets, registry: lowering.NewRegistry(builtin...)}, nil
}

// Registry returns the extensions consulted for kinds no built-in lowering owns.
func (p *Provider) Registry() *lowering.Registry { return p.registry }

// Lower implements lowering.Provider.
func (p *Provider) Lower(n *ir.Node, tool lowering.Tool) ir.Outcome {
	out, claimed := p.lowerWithoutDelegation(n, tool)
	if !claimed {
		out, claimed = p.LowerBuiltin(n, tool)
	}
	return p.registry.Dispatch(n, tool, claimed, out)
}

func (p *Provider) lowerWithoutDelegation(n *ir.Node, tool lowering.Tool) (ir.Outcome, bool) {
	g := tool.Graph()
	guards := g.GuardsStage()
	switch n.Opcode() {
	case ir.OpcodeInvoke:
		return p.lowerInvoke(n, tool), true
	case ir.OpcodeLoadMethod:
		return p.lowerLoadMethod(n, tool), true
	case ir.OpcodeGetClass:
		return p.lowerGetClass(n, tool), true
	case ir.OpcodeStoreHub:
		return p.lowerStoreHub(n, tool), true
	case ir.OpcodeOSRStart:
		if guards != ir.GuardsFixedDeopts {
			return ir.OutcomeDeferred, true
		}
		return p.lowerOSRStart(n, tool), true
	case ir.OpcodeBytecodeException:
		if tool.Stage() != lowering.StageMid {
			return ir.OutcomeDeferred, true
		}
		return p.lowerBytecodeException(n, tool), true
	case ir.OpcodeInstanceOf:
		if guards.AreDeoptsFixed() {
			return p.snippets.Instantiate(lowering.SnippetInstanceOf, n, tool), true
		}
		return p.splitNullableInstanceOf(n, tool), true
	case ir.OpcodeNewInstance:
		return p.atFrameStatesAtDeopts(lowering.SnippetNewInstance, n, tool), true
	case ir.OpcodeNewArray:
		return p.atFrameStatesAtDeopts(lowering.SnippetNewArray, n, tool), true
	case ir.OpcodeMonitorEnter:
		if guards.AreFrameStatesAtDeopts() {
			return p.snippets.Instantiate(lowering.SnippetMonitorEnter, n, tool), true
		}
		return p.loadHubForMonitorEnter(n, tool), true
	case ir.OpcodeMonitorExit:
		return p.atFrameStatesAtDeopts(lowering.SnippetMonitorExit, n, tool), true
	case ir.OpcodeDeoptimize:
		// Emitted directly by the backend.
		return ir.OutcomeDeferred, true
	case ir.OpcodeClassGetHub:
		if tool.Stage() == lowering.StageHigh {
			return ir.OutcomeDeferred, true
		}
		return p.lowerClassGetHub(n, tool), true
	case ir.OpcodeHubGetClass:
		if tool.Stage() == lowering.StageHigh {
			return ir.OutcomeDeferred, true
		}
		return p.lowerHubGetClass(n, tool), true
	case ir.OpcodeKlassLayoutHelper:
		if tool.Stage() == lowering.StageHigh || !guards.AreFrameStatesAtDeopts() {
			return ir.OutcomeDeferred, true
		}
		return p.lowerKlassLayoutHelper(n, tool), true
	case ir.OpcodeSignedDiv, ir.OpcodeSignedRem:
		if tool.Stage() != lowering.StageHigh {
			return ir.OutcomeDeferred, true
		}
		return p.lowerIntegerDivRem(n, tool), true
	case ir.OpcodeFloatingDiv, ir.OpcodeFloatingRem:
		if tool.Stage() != lowering.StageMid {
			return ir.OutcomeDeferred, true
		}
		return p.fixFloatingDivRem(n, tool), true
	default:
		return ir.OutcomeDeferred, false
	}
}

func (p *Provider) atFrameStatesAtDeopts(kind lowering.SnippetKind, n *ir.Node, tool lowering.Tool) ir.Outcome {
	if !tool.Graph().GuardsStage().AreFrameStatesAtDeopts() {
		return ir.OutcomeDeferred
	}
	return p.snippets.Instantiate(kind, n, tool)
}

func (p *Provider) wordStamp(nonNull bool) ir.Stamp {
	return ir.PointerStamp(p.Options().WordBits(), nonNull)
}
