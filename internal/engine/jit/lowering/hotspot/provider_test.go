package hotspot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/jitapi"
	"github.com/oracle/graal-sub160/internal/engine/jit/lowering"
)

func TestNewProvider(t *testing.T) {
	_, err := NewProvider(withOptions(func(o *jitapi.Options) { o.WordSize = 2 }), nil)
	require.EqualError(t, err, "word_size must be 4 or 8 but got 2")

	_, err = NewProvider(withOptions(func(o *jitapi.Options) { o.BarrierSet = "shenandoah" }), nil)
	require.Error(t, err)

	p := newTestProvider(t, jitapi.NewOptions(), nil)
	require.Equal(t, lowering.RuntimeCallSnippets{}, p.snippets)
	require.Equal(t, jitapi.Offset(8), p.Offsets().HubOffset)
}

func TestProvider_Registry(t *testing.T) {
	p := newTestProvider(t, jitapi.NewOptions(), nil)
	nop := lowering.ExtensionFunc(func(*ir.Node, lowering.Tool) ir.Outcome { return ir.OutcomeDeferred })
	for _, op := range append(append([]ir.Opcode(nil), Kinds...), lowering.DefaultKinds...) {
		require.Error(t, p.Registry().Register(op.String(), nop), op.String())
	}
	require.Empty(t, p.Registry().Kinds())

	var lowered []string
	require.NoError(t, p.Registry().Register("crc32", lowering.ExtensionFunc(func(n *ir.Node, tool lowering.Tool) ir.Outcome {
		lowered = append(lowered, n.ExtensionTag()+"@"+tool.Stage().String())
		tool.Graph().RemoveFixed(n)
		return ir.OutcomeApplied
	})))

	g := newTestGraph()
	crc := g.Extension("crc32", ir.VoidStamp(), g.Parameter(0, ir.IntStampUnrestricted(32)))
	other := g.Extension("vectorAdd", ir.VoidStamp())
	linkFixed(g, nil, crc, other)
	tool := lowering.NewTool(g, lowering.StageMid, p.Options())

	require.Equal(t, ir.OutcomeDeferred, p.Lower(other, tool))
	require.Equal(t, ir.OutcomeApplied, p.Lower(crc, tool))
	require.Equal(t, []string{"crc32@MID"}, lowered)
	requireVerified(t, g)
	require.Equal(t, []ir.Opcode{ir.OpcodeExtension, ir.OpcodeReturn}, fixedOpcodes(g))
}

func TestProvider_Deoptimize(t *testing.T) {
	p := newTestProvider(t, jitapi.NewOptions(), nil)
	g := newTestGraph()
	deopt := g.Deoptimize(ir.ReasonUnreachedCode, ir.ActionNone, g.FrameState(0, nil, nil, nil))
	g.Start().SetNext(deopt)
	for _, stage := range []lowering.Stage{lowering.StageHigh, lowering.StageMid, lowering.StageLow} {
		require.Equal(t, ir.OutcomeDeferred, p.Lower(deopt, lowering.NewTool(g, stage, p.Options())))
	}
	require.True(t, deopt.IsAlive())
}
