package hotspot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/jitapi"
	"github.com/oracle/graal-sub160/internal/engine/jit/lowering"
)

var testObjectType = &ir.Type{Name: "Node", VTableLength: 4}

func newTestGraph() *ir.Graph {
	return ir.NewGraph(&ir.Method{Name: "test", VTableIndex: -1, MaxLocals: 4})
}

func newTestProvider(t *testing.T, opts *jitapi.Options, snippets lowering.SnippetService) *Provider {
	p, err := NewProvider(opts, snippets)
	require.NoError(t, err)
	return p
}

func withOptions(configure func(o *jitapi.Options)) *jitapi.Options {
	o := jitapi.NewOptions()
	if configure != nil {
		configure(o)
	}
	return o
}

// linkFixed links nodes after the start in order and ends the method with
// Return(result).
func linkFixed(g *ir.Graph, result *ir.Node, nodes ...*ir.Node) *ir.Node {
	prev := g.Start()
	for _, n := range nodes {
		prev.SetNext(n)
		prev = n
	}
	ret := g.Return(result)
	prev.SetNext(ret)
	return ret
}

// fixedOpcodes returns the opcodes of the straight-line control flow after the start.
func fixedOpcodes(g *ir.Graph) []ir.Opcode {
	var ret []ir.Opcode
	for n := g.Start().Next(); n != nil; {
		ret = append(ret, n.Opcode())
		if !n.Opcode().IsFixedWithNext() {
			break
		}
		n = n.Next()
	}
	return ret
}

func requireVerified(t *testing.T, g *ir.Graph) {
	t.Helper()
	if err := ir.Verify(g); err != nil {
		require.FailNow(t, err.Error(), g.Format())
	}
}
