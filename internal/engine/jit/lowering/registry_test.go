package lowering

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/jitapi"
)

func TestRegistry_Register(t *testing.T) {
	nop := ExtensionFunc(func(*ir.Node, Tool) ir.Outcome { return ir.OutcomeDeferred })
	r := NewRegistry("LoadField", "MonitorEnter")
	require.NoError(t, r.Register("vectorAdd", nop))

	for _, tc := range []struct {
		name   string
		kind   string
		ext    Extension
		expErr string
	}{
		{name: "empty kind", kind: "", ext: nop, expErr: "empty extension kind"},
		{name: "nil extension", kind: "crc32", expErr: `nil extension for kind "crc32"`},
		{name: "built-in kind", kind: "MonitorEnter", ext: nop, expErr: `kind "MonitorEnter" is lowered by the built-in provider`},
		{name: "duplicate", kind: "vectorAdd", ext: nop, expErr: `kind "vectorAdd" already has an extension`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.EqualError(t, r.Register(tc.kind, tc.ext), tc.expErr)
		})
	}

	require.NoError(t, r.Register("arrayCopy", nop))
	require.Equal(t, []string{"arrayCopy", "vectorAdd"}, r.Kinds())
	_, ok := r.Lookup("crc32")
	require.False(t, ok)
	_, ok = r.Lookup("vectorAdd")
	require.True(t, ok)
}

func TestRegistry_RegisterConcurrent(t *testing.T) {
	r := NewRegistry()
	nop := ExtensionFunc(func(*ir.Node, Tool) ir.Outcome { return ir.OutcomeDeferred })
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.Register("shared", nop)
		}()
	}
	wg.Wait()
	close(errs)
	var failed int
	for err := range errs {
		if err != nil {
			failed++
		}
	}
	require.Equal(t, 15, failed)
	require.Equal(t, []string{"shared"}, r.Kinds())
}

func TestRegistry_Dispatch(t *testing.T) {
	opts := jitapi.NewOptions()
	var lowered []*ir.Node
	ext := ExtensionFunc(func(n *ir.Node, tool Tool) ir.Outcome {
		lowered = append(lowered, n)
		return ir.OutcomeApplied
	})
	r := NewRegistry()
	require.NoError(t, r.Register("vectorAdd", ext))
	require.NoError(t, r.Register("LoadField", ext))

	g := newTestGraph()
	obj := g.Parameter(0, ir.ObjectStamp(testHolder, true))
	vec := g.Extension("vectorAdd", ir.IntStampUnrestricted(32), obj)
	other := g.Extension("crc32", ir.IntStampUnrestricted(32), obj)
	load := g.LoadField(obj, &ir.Field{Name: "f", Holder: testHolder, Kind: ir.KindInt, Offset: 12}, ir.IntStampUnrestricted(32))
	linkFixed(g, nil, vec, other, load)
	tool := NewTool(g, StageHigh, opts)

	for _, tc := range []struct {
		name       string
		n          *ir.Node
		claimed    bool
		out        ir.Outcome
		exp        ir.OutcomeKind
		expLowered bool
	}{
		{name: "extension", n: vec, exp: ir.Applied, expLowered: true},
		{name: "no extension", n: other, exp: ir.Deferred},
		{name: "claimed without extension", n: other, claimed: true, out: ir.OutcomeApplied, exp: ir.Applied},
		{name: "claimed and deferred", n: other, claimed: true, out: ir.OutcomeDeferred, exp: ir.Deferred},
		{name: "redundant extension", n: load, claimed: true, out: ir.OutcomeApplied, exp: ir.Fatal},
	} {
		t.Run(tc.name, func(t *testing.T) {
			lowered = nil
			out := r.Dispatch(tc.n, tool, tc.claimed, tc.out)
			require.Equal(t, tc.exp, out.Kind)
			if tc.expLowered {
				require.Equal(t, []*ir.Node{tc.n}, lowered)
			} else {
				require.Empty(t, lowered)
			}
			if tc.exp == ir.Fatal {
				require.Contains(t, out.Err.Error(), "Extension LoadField is redundant")
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	g := newTestGraph()
	obj := g.Parameter(0, ir.ObjectStamp(testHolder, true))
	require.Equal(t, "vectorAdd", KindOf(g.Extension("vectorAdd", ir.VoidStamp(), obj)))
	require.Equal(t, "MonitorEnter", KindOf(g.MonitorEnter(obj, 0)))
}
