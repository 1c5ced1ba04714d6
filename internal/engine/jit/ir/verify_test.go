package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testValueField = &Field{Name: "value", Holder: testObjectType, Kind: KindInt, Offset: 12}

// loadLoop builds
//
//	loop { v = obj.value; if (i < v) { i = i + step; continue } }
//	return result(v, i, exit)
//
// where step and result pick how the loaded value is used.
func loadLoop(step func(g *Graph, v *Node) *Node, result func(g *Graph, v, i, exit *Node) *Node) *Graph {
	g := newTestGraph()
	obj := g.Parameter(0, ObjectStamp(testObjectType, true))
	entry := g.End()
	g.Start().SetNext(entry)
	lb := g.LoopBegin()
	lb.AddForwardEnd(entry)
	i := g.Phi(lb, testInt, g.ConstantInt(32, 0))
	load := g.LoadField(obj, testValueField, testInt)
	lb.SetNext(load)
	body, exit := g.Begin(), g.LoopExit(lb)
	load.SetNext(g.If(g.IntegerLessThan(i, load), body, exit, Likely))
	i.AddInput(g.Add(i, step(g, load)))
	body.SetNext(g.LoopEnd(lb))
	exit.SetNext(g.Return(result(g, load, i, exit)))
	return g
}

func TestVerify_loopProxies(t *testing.T) {
	one := func(g *Graph, _ *Node) *Node { return g.ConstantInt(32, 1) }
	for _, tc := range []struct {
		name   string
		step   func(g *Graph, v *Node) *Node
		result func(g *Graph, v, i, exit *Node) *Node
		expErr string
	}{
		{
			name:   "counter through a proxy",
			step:   one,
			result: func(g *Graph, _, i, exit *Node) *Node { return g.ValueProxy(i, exit) },
		},
		{
			name:   "load through a proxy",
			step:   one,
			result: func(g *Graph, v, _, exit *Node) *Node { return g.ValueProxy(v, exit) },
		},
		{
			name:   "load at the back edge",
			step:   func(_ *Graph, v *Node) *Node { return v },
			result: func(g *Graph, _, i, exit *Node) *Node { return g.ValueProxy(i, exit) },
		},
		{
			name:   "load escaping",
			step:   one,
			result: func(_ *Graph, v, _, _ *Node) *Node { return v },
			expErr: "without a proxy",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := loadLoop(tc.step, tc.result)
			err := Verify(g)
			if tc.expErr == "" {
				if err != nil {
					require.FailNow(t, err.Error(), g.Format())
				}
				return
			}
			require.NotNil(t, err, g.Format())
			require.Contains(t, err.Error(), tc.expErr)
		})
	}
}

func TestVerify_withoutLoops(t *testing.T) {
	g := newTestGraph()
	obj := g.Parameter(0, ObjectStamp(testObjectType, true))
	load := g.LoadField(obj, testValueField, testInt)
	g.Start().SetNext(load)
	load.SetNext(g.Return(load))
	requireVerified(t, g)
}
