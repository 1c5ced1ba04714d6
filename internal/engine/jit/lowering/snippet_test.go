package lowering

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/jitapi"
)

func TestRuntimeCallSnippets_allocation(t *testing.T) {
	opts := jitapi.NewOptions()
	point := &ir.Type{Name: "Point"}
	points := &ir.Type{Name: "Point[]", IsArray: true, Component: point}
	for _, tc := range []struct {
		name    string
		kind    SnippetKind
		build   func(g *ir.Graph) *ir.Node
		expCall *jitapi.ForeignCallDescriptor
		expArgs int
	}{
		{
			name:    "instance",
			kind:    SnippetNewInstance,
			build:   func(g *ir.Graph) *ir.Node { return g.NewInstance(point) },
			expCall: jitapi.NewInstance,
			expArgs: 1,
		},
		{
			name: "array",
			kind: SnippetNewArray,
			build: func(g *ir.Graph) *ir.Node {
				return g.NewArray(points, g.Parameter(0, ir.IntStamp(32, 0, 100)))
			},
			expCall: jitapi.NewArray,
			expArgs: 2,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGraph()
			g.SetGuardsStage(ir.GuardsAfterFSA)
			alloc := tc.build(g)
			state := g.FrameState(3, nil, nil, nil)
			alloc.SetStateAfter(state)
			ret := linkFixed(g, alloc, alloc)

			out := RuntimeCallSnippets{}.Instantiate(tc.kind, alloc, NewTool(g, StageLow, opts))
			require.Equal(t, ir.OutcomeApplied, out)
			requireVerified(t, g)
			call := ret.Result()
			require.Equal(t, ir.OpcodeForeignCall, call.Opcode())
			require.Equal(t, tc.expCall, call.ForeignCall())
			require.Equal(t, state, call.StateAfter())
			require.Equal(t, alloc.Stamp(), call.Stamp())
			require.Equal(t, tc.expArgs, call.InputCount())
			require.True(t, call.Input(0).IsConstant())
		})
	}
}

func TestRuntimeCallSnippets_monitor(t *testing.T) {
	for _, tc := range []struct {
		name    string
		kind    SnippetKind
		build   func(g *ir.Graph, obj *ir.Node) *ir.Node
		expCall *jitapi.ForeignCallDescriptor
	}{
		{
			name:    "enter",
			kind:    SnippetMonitorEnter,
			build:   func(g *ir.Graph, obj *ir.Node) *ir.Node { return g.MonitorEnter(obj, 1) },
			expCall: jitapi.MonitorEnter,
		},
		{
			name:    "exit",
			kind:    SnippetMonitorExit,
			build:   func(g *ir.Graph, obj *ir.Node) *ir.Node { return g.MonitorExit(obj, 1) },
			expCall: jitapi.MonitorExit,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts := options32()
			g := newTestGraph()
			obj := g.Parameter(0, ir.ObjectStamp(testHolder, true))
			n := tc.build(g, obj)
			linkFixed(g, nil, n)

			require.Equal(t, ir.OutcomeApplied, RuntimeCallSnippets{}.Instantiate(tc.kind, n, NewTool(g, StageLow, opts)))
			requireVerified(t, g)
			require.Equal(t, []ir.Opcode{ir.OpcodeBeginLockScope, ir.OpcodeForeignCall, ir.OpcodeReturn}, fixedOpcodes(g))
			lock := g.Start().Next()
			require.Equal(t, 1, lock.LockDepth())
			require.Equal(t, 32, lock.Stamp().Bits())
			call := lock.Next()
			require.Equal(t, tc.expCall, call.ForeignCall())
			require.Equal(t, obj, call.Input(0))
			require.Equal(t, lock, call.Input(1))
		})
	}
}

func TestRuntimeCallSnippets_instanceOf(t *testing.T) {
	sub := &ir.Type{Name: "Sub", Super: testHolder}
	for _, tc := range []struct {
		name       string
		allowsNull bool
	}{
		{name: "strict"},
		{name: "allows null", allowsNull: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts := jitapi.NewOptions()
			g := newTestGraph()
			obj := g.Parameter(0, ir.ObjectStamp(testHolder, false))
			test := g.InstanceOf(obj, sub, tc.allowsNull)
			require.Equal(t, tc.allowsNull, test.AllowsNull())
			guard := g.FixedGuard(test, ir.ReasonClassCastException, ir.ActionInvalidateReprofile, false)
			linkFixed(g, nil, guard)

			tool := NewTool(g, StageMid, opts)
			out := RuntimeCallSnippets{}.Instantiate(SnippetInstanceOf, test, tool)
			require.Equal(t, ir.Fatal, out.Kind)
			require.True(t, test.IsAlive())

			tool.SetLastFixedNode(g.Start())
			require.Equal(t, ir.OutcomeApplied, RuntimeCallSnippets{}.Instantiate(SnippetInstanceOf, test, tool))
			requireVerified(t, g)
			require.False(t, test.IsAlive())
			require.Equal(t, []ir.Opcode{ir.OpcodeForeignCall, ir.OpcodeFixedGuard, ir.OpcodeReturn}, fixedOpcodes(g))
			call := g.Start().Next()
			require.Equal(t, jitapi.InstanceOf, call.ForeignCall())
			require.Equal(t, obj, call.Input(0))

			cond := guard.Input(0)
			if tc.allowsNull {
				require.Equal(t, ir.OpcodeShortCircuitOr, cond.Opcode())
				require.Equal(t, ir.OpcodeIsNull, cond.Input(0).Opcode())
				require.Equal(t, ir.NotLikely, cond.ProfileData())
				cond = cond.Input(1)
			}
			require.Equal(t, ir.OpcodeIntegerEquals, cond.Opcode())
			require.Equal(t, call, cond.Input(0))
		})
	}
}

func TestRecordingSnippets(t *testing.T) {
	opts := jitapi.NewOptions()
	g := newTestGraph()
	alloc := g.NewInstance(testHolder)
	ret := linkFixed(g, alloc, alloc)
	tool := NewTool(g, StageLow, opts)

	rec := &RecordingSnippets{}
	require.Equal(t, ir.OutcomeDeferred, rec.Instantiate(SnippetNewInstance, alloc, tool))
	require.Equal(t, alloc, ret.Result())

	rec.Next = RuntimeCallSnippets{}
	require.Equal(t, ir.OutcomeApplied, rec.Instantiate(SnippetNewInstance, alloc, tool))
	require.Equal(t, ir.OpcodeForeignCall, ret.Result().Opcode())
	require.Equal(t, []SnippetRecord{
		{Kind: SnippetNewInstance, Node: alloc.ID(), Stage: StageLow},
		{Kind: SnippetNewInstance, Node: alloc.ID(), Stage: StageLow},
	}, rec.Records())

	out := rec.Instantiate("arraycopy", ret.Result(), tool)
	require.Equal(t, ir.Fatal, out.Kind)
	require.Len(t, rec.Records(), 3)
}
