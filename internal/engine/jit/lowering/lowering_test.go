package lowering

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/jitapi"
)

func TestStage(t *testing.T) {
	for _, tc := range []struct {
		stage   Stage
		expName string
		expFlag ir.StageFlag
	}{
		{stage: StageHigh, expName: "HIGH", expFlag: ir.StageHighTierLowering},
		{stage: StageMid, expName: "MID", expFlag: ir.StageMidTierLowering},
		{stage: StageLow, expName: "LOW", expFlag: ir.StageLowTierLowering},
	} {
		t.Run(tc.expName, func(t *testing.T) {
			require.Equal(t, tc.expName, tc.stage.String())
			require.Equal(t, tc.expFlag, tc.stage.Flag())
		})
	}
}

func TestNodeTool_CreateGuard(t *testing.T) {
	opts := jitapi.NewOptions()
	for _, tc := range []struct {
		name     string
		guards   ir.GuardsStage
		cond     func(g *ir.Graph, obj *ir.Node) *ir.Node
		negated  bool
		expGuard ir.Opcode
	}{
		{
			name:     "floating",
			guards:   ir.GuardsFloating,
			cond:     func(g *ir.Graph, obj *ir.Node) *ir.Node { return g.IsNull(obj) },
			negated:  true,
			expGuard: ir.OpcodeGuard,
		},
		{
			name:     "fixed",
			guards:   ir.GuardsFixedDeopts,
			cond:     func(g *ir.Graph, obj *ir.Node) *ir.Node { return g.IsNull(obj) },
			negated:  true,
			expGuard: ir.OpcodeFixedGuard,
		},
		{
			name:   "always passes",
			guards: ir.GuardsFixedDeopts,
			cond:   func(g *ir.Graph, _ *ir.Node) *ir.Node { return g.LogicConstant(true) },
		},
		{
			name:    "always passes negated",
			guards:  ir.GuardsFloating,
			cond:    func(g *ir.Graph, _ *ir.Node) *ir.Node { return g.LogicConstant(false) },
			negated: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGraph()
			g.SetGuardsStage(tc.guards)
			obj := g.Parameter(0, ir.ObjectStamp(testHolder, false))
			f := &ir.Field{Name: "f", Holder: testHolder, Kind: ir.KindInt, Offset: 12}
			load := g.LoadField(obj, f, ir.IntStampUnrestricted(32))
			linkFixed(g, load, load)

			guard := NewTool(g, StageHigh, opts).CreateGuard(load, tc.cond(g, obj), ir.ReasonNullCheckException, ir.ActionInvalidateReprofile, tc.negated)
			requireVerified(t, g)
			if tc.expGuard == ir.OpcodeInvalid {
				require.Nil(t, guard)
				require.Equal(t, []ir.Opcode{ir.OpcodeLoadField, ir.OpcodeReturn}, fixedOpcodes(g))
				return
			}
			require.Equal(t, tc.expGuard, guard.Opcode())
			require.Equal(t, tc.negated, guard.IsNegated())
			require.Equal(t, ir.ReasonNullCheckException, guard.Reason())
			if tc.expGuard == ir.OpcodeFixedGuard {
				require.Equal(t, guard, load.Predecessor())
			} else {
				require.Equal(t, g.Start(), guard.Guard())
				require.Equal(t, g.Start(), load.Predecessor())
			}
		})
	}
}

func TestNodeTool_SetLastFixedNode(t *testing.T) {
	g := newTestGraph()
	ret := linkFixed(g, nil)
	tool := NewTool(g, StageLow, jitapi.NewOptions())
	require.Nil(t, tool.LastFixedNode())
	tool.SetLastFixedNode(g.Start())
	require.Equal(t, g.Start(), tool.LastFixedNode())
	require.Panics(t, func() { tool.SetLastFixedNode(ret) })
}
