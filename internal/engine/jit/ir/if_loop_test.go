package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testLoop builds `i = 0; loop { if (i < x) { i++; continue } ... }` and
// returns the loop begin, the counter phi and the begin following the
// counting If, from where the tests leave the loop.
func testLoop(g *Graph, x *Node) (lb, i, cont *Node) {
	entry := g.End()
	g.Start().SetNext(entry)
	lb = g.LoopBegin()
	lb.AddForwardEnd(entry)
	i = g.Phi(lb, testInt, g.ConstantInt(32, 0))
	body := g.Begin()
	cont = g.Begin()
	lb.SetNext(g.If(g.IntegerLessThan(i, x), body, cont, Likely))
	i.AddInput(g.Add(i, g.ConstantInt(32, 1)))
	body.SetNext(g.LoopEnd(lb))
	return lb, i, cont
}

// testExitIf links `if (cond)` after pred with both successors leaving lb.
func testExitIf(g *Graph, lb, pred, cond *Node) (n, t, f *Node) {
	t, f = g.LoopExit(lb), g.LoopExit(lb)
	n = g.If(cond, t, f, Unknown)
	pred.SetNext(n)
	return n, t, f
}

func TestRemoveOrMaterializeIf_loopExitReturns(t *testing.T) {
	for _, tc := range []struct {
		name         string
		proxyRemoved bool
	}{
		{name: "proxied"},
		{name: "after proxy removal", proxyRemoved: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGraph()
			x, k := g.Parameter(0, testInt), g.Parameter(1, testInt)
			lb, i, cont := testLoop(g, x)
			cond := g.IntegerEquals(i, k)
			n, te, fe := testExitIf(g, lb, cont, cond)
			te.SetNext(g.Return(g.ConstantInt(32, 1)))
			fe.SetNext(g.Return(g.ConstantInt(32, 2)))
			requireVerified(t, g)
			if tc.proxyRemoved {
				g.SetAfterStage(StageValueProxyRemoval)
			}

			require.Equal(t, Applied, Simplify(n, newTestTool(g, false)).Kind)
			requireVerified(t, g)
			for _, dead := range []*Node{n, te, fe} {
				require.False(t, dead.IsAlive(), dead.String())
			}

			// One exit of the same loop replaces both.
			exits := g.NodesOf(OpcodeLoopExit)
			require.Len(t, exits, 1)
			exit := exits[0]
			require.Equal(t, lb, exit.LoopBeginOf())
			require.Equal(t, cont, exit.Predecessor())
			rets := g.NodesOf(OpcodeReturn)
			require.Len(t, rets, 1)
			require.Equal(t, rets[0], exit.Next())

			sel := rets[0].Result()
			if !tc.proxyRemoved {
				require.Equal(t, OpcodeValueProxy, sel.Opcode())
				require.Equal(t, exit, sel.ProxyPoint())
				sel = sel.Input(0)
			}
			require.Equal(t, OpcodeConditional, sel.Opcode())
			require.Equal(t, cond, sel.Input(0))
			require.Equal(t, int64(1), sel.Input(1).AsInt())
			require.Equal(t, int64(2), sel.Input(2).AsInt())
		})
	}
}

func TestRemoveOrMaterializeIf_loopExitsDeclined(t *testing.T) {
	t.Run("exits of different loops", func(t *testing.T) {
		g := newTestGraph()
		x, k := g.Parameter(0, testInt), g.Parameter(1, testInt)
		lb, i, cont := testLoop(g, x)
		te, fe := g.LoopExit(lb), g.LoopExit(g.LoopBegin())
		n := g.If(g.IntegerEquals(i, k), te, fe, Unknown)
		cont.SetNext(n)
		te.SetNext(g.Return(g.ConstantInt(32, 1)))
		fe.SetNext(g.Return(g.ConstantInt(32, 2)))

		require.False(t, n.removeOrMaterializeIf(newTestTool(g, false)))
		require.True(t, n.IsAlive())
		require.Len(t, g.NodesOf(OpcodeLoopExit), 2)
		require.Empty(t, g.NodesOf(OpcodeConditional))
	})
	t.Run("exit and begin", func(t *testing.T) {
		g := newTestGraph()
		x, k := g.Parameter(0, testInt), g.Parameter(1, testInt)
		lb, i, cont := testLoop(g, x)
		te, fb := g.LoopExit(lb), g.Begin()
		n := g.If(g.IntegerEquals(i, k), te, fb, Unknown)
		cont.SetNext(n)
		te.SetNext(g.Return(g.ConstantInt(32, 1)))
		fb.SetNext(g.Return(g.ConstantInt(32, 2)))

		require.False(t, n.removeOrMaterializeIf(newTestTool(g, false)))
		require.True(t, n.IsAlive())
	})
	t.Run("false exit with state", func(t *testing.T) {
		g := newTestGraph()
		x, k := g.Parameter(0, testInt), g.Parameter(1, testInt)
		lb, i, cont := testLoop(g, x)
		n, te, fe := testExitIf(g, lb, cont, g.IntegerEquals(i, k))
		fe.SetStateAfter(g.FrameState(2, []*Node{i}, nil, nil))
		merge := g.Merge()
		for _, exit := range []*Node{te, fe} {
			end := g.End()
			exit.SetNext(end)
			merge.AddForwardEnd(end)
		}
		merge.SetNext(g.Return(g.Phi(merge, testInt, g.ConstantInt(32, 1), g.ConstantInt(32, 2))))

		require.False(t, n.removeOrMaterializeIf(newTestTool(g, false)))
		require.True(t, n.IsAlive())
	})
}

// exitMergeGraph builds an If on `i == k` inside a loop whose exits flow into
// one merge selecting 1 or 2, with a proxy of k at the false exit feeding the
// returned sum.
func exitMergeGraph() (g *Graph, n, te, fe, phi, proxy *Node) {
	g = newTestGraph()
	x, k := g.Parameter(0, testInt), g.Parameter(1, testInt)
	lb, i, cont := testLoop(g, x)
	n, te, fe = testExitIf(g, lb, cont, g.IntegerEquals(i, k))
	merge := g.Merge()
	for _, exit := range []*Node{te, fe} {
		end := g.End()
		exit.SetNext(end)
		merge.AddForwardEnd(end)
	}
	phi = g.Phi(merge, testInt, g.ConstantInt(32, 1), g.ConstantInt(32, 2))
	proxy = g.ValueProxy(k, fe)
	merge.SetNext(g.Return(g.Add(phi, proxy)))
	return g, n, te, fe, phi, proxy
}

func TestProxyReplacement(t *testing.T) {
	for _, tc := range []struct {
		name  string
		setup func(g *Graph, fe *Node)
		// proxied is true if the value is proxied at the true exit, moved if the
		// proxies of the false exit follow it there.
		proxied, moved bool
	}{
		{name: "both exits", setup: func(*Graph, *Node) {}, proxied: true, moved: true},
		{
			name: "anchored false exit",
			setup: func(g *Graph, fe *Node) {
				obj := g.Parameter(2, ObjectStamp(testObjectType, true))
				g.LoadField(obj, testValueField, testInt).SetGuard(fe)
			},
			proxied: true,
		},
		{
			name:  "after proxy removal",
			setup: func(g *Graph, _ *Node) { g.SetAfterStage(StageValueProxyRemoval) },
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g, n, te, fe, _, proxy := exitMergeGraph()
			tc.setup(g, fe)
			v := g.ConstantInt(32, 7)

			got := n.proxyReplacement(v)
			if !tc.proxied {
				require.Equal(t, v, got)
				require.Equal(t, fe, proxy.ProxyPoint())
				return
			}
			require.Equal(t, OpcodeValueProxy, got.Opcode())
			require.Equal(t, v, got.Input(0))
			require.Equal(t, te, got.ProxyPoint())
			if tc.moved {
				require.Equal(t, te, proxy.ProxyPoint())
				require.Empty(t, fe.Proxies())
			} else {
				require.Equal(t, fe, proxy.ProxyPoint())
			}
		})
	}

	t.Run("not leaving a loop", func(t *testing.T) {
		g := newTestGraph()
		x := g.Parameter(0, testInt)
		n, _, _, _ := testDiamond(g, g.Start(), g.IntegerLessThan(x, g.ConstantInt(32, 0)), Unknown)
		v := g.ConstantInt(32, 7)
		require.Equal(t, v, n.proxyReplacement(v))
	})
}

func TestRemoveOrMaterializeIf_loopExitMerge(t *testing.T) {
	g, n, te, fe, phi, proxy := exitMergeGraph()
	requireVerified(t, g)

	require.True(t, n.removeOrMaterializeIf(newTestTool(g, false)))
	requireVerified(t, g)
	require.False(t, n.IsAlive())
	require.False(t, fe.IsAlive())
	require.True(t, te.IsAlive())

	// The surviving exit carries the selected value and the moved proxy.
	require.Equal(t, 1, phi.ValueCount())
	v := phi.ValueAt(0)
	require.Equal(t, OpcodeValueProxy, v.Opcode())
	require.Equal(t, te, v.ProxyPoint())
	require.Equal(t, OpcodeConditional, v.Input(0).Opcode())
	require.True(t, proxy.IsAlive())
	require.Equal(t, te, proxy.ProxyPoint())
}

// exitMaterializedGraph builds
//
//	loop {
//	  if (i < x) { i++; continue }
//	  if (i < y) v = values[0]; else if (i < z) v = values[1]; else v = values[2]
//	  if (v == 1) exit and return v; else return b
//	}
//
// where the returned v leaves the loop through a proxy.
func exitMaterializedGraph(values [3]int64) (g *Graph, n, exit, proxy *Node) {
	g = newTestGraph()
	x, y, z, b := g.Parameter(0, testInt), g.Parameter(1, testInt), g.Parameter(2, testInt), g.Parameter(3, testInt)
	lb, i, cont := testLoop(g, x)
	_, t1, f1 := testIf(g, cont, g.IntegerLessThan(i, y), Unknown)
	_, t2, f2 := testIf(g, f1, g.IntegerLessThan(i, z), Unknown)
	merge := g.Merge()
	for _, begin := range []*Node{t1, t2, f2} {
		end := g.End()
		begin.SetNext(end)
		merge.AddForwardEnd(end)
	}
	phi := g.Phi(merge, IntStamp(32, 0, 1),
		g.ConstantInt(32, values[0]), g.ConstantInt(32, values[1]), g.ConstantInt(32, values[2]))
	exit, fb := g.LoopExit(lb), g.Begin()
	n = g.If(g.IntegerEquals(phi, g.ConstantInt(32, 1)), exit, fb, Unknown)
	merge.SetNext(n)
	proxy = g.ValueProxy(phi, exit)
	exit.SetNext(g.Return(proxy))
	fb.SetNext(g.Return(b))
	return g, n, exit, proxy
}

func TestRemoveIntermediateMaterialization_loopExitProxy(t *testing.T) {
	t.Run("several ends", func(t *testing.T) {
		g, n, exit, proxy := exitMaterializedGraph([3]int64{1, 0, 1})
		requireVerified(t, g)

		require.True(t, n.removeIntermediateMaterialization(newTestTool(g, false)))
		requireVerified(t, g)
		// The proxy now reads a phi of the merge joining the ends selecting the exit.
		merge := exit.Predecessor()
		require.Equal(t, OpcodeMerge, merge.Opcode())
		require.Equal(t, 2, merge.ForwardEndCount())
		phi := proxy.Input(0)
		require.Equal(t, OpcodePhi, phi.Opcode())
		require.Equal(t, merge, phi.Merge())
		for _, v := range phi.Values() {
			require.Equal(t, int64(1), v.AsInt())
		}
	})
	t.Run("single end", func(t *testing.T) {
		g, n, exit, proxy := exitMaterializedGraph([3]int64{1, 0, 0})
		requireVerified(t, g)

		require.True(t, n.removeIntermediateMaterialization(newTestTool(g, false)))
		requireVerified(t, g)
		// The exit follows the only begin selecting it and proxies its constant.
		require.Equal(t, OpcodeBegin, exit.Predecessor().Opcode())
		require.Equal(t, int64(1), proxy.Input(0).AsInt())
		require.Len(t, g.NodesOf(OpcodePhi), 1)
	})
}
