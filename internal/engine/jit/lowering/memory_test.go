package lowering

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/jitapi"
)

func TestLowerLoadField(t *testing.T) {
	reference := &ir.Type{Name: "java.lang.ref.Reference"}
	weak := &ir.Type{Name: "java.lang.ref.WeakReference", Super: reference}
	for _, tc := range []struct {
		name    string
		opts    *jitapi.Options
		field   *ir.Field
		holder  *ir.Type
		nonNull bool
		// stamp is the stamp of the LoadField.
		stamp       ir.Stamp
		expConvert  ir.Opcode
		expBarrier  ir.BarrierType
		expOrder    ir.MemoryOrder
		expReadBits int
	}{
		{
			name:       "compressed reference",
			opts:       jitapi.NewOptions(),
			field:      &ir.Field{Name: "next", Holder: testHolder, Kind: ir.KindObject, Type: testHolder, Offset: 12},
			stamp:      ir.ObjectStamp(testHolder, false),
			expConvert: ir.OpcodeUncompress,
		},
		{
			name:        "int on 32 bit",
			opts:        options32(),
			field:       &ir.Field{Name: "count", Holder: testHolder, Kind: ir.KindInt, Offset: 8},
			stamp:       ir.IntStampUnrestricted(32),
			nonNull:     true,
			expReadBits: 32,
		},
		{
			name:        "byte",
			opts:        jitapi.NewOptions(),
			field:       &ir.Field{Name: "tag", Holder: testHolder, Kind: ir.KindByte, Offset: 16},
			stamp:       ir.IntStampUnrestricted(32),
			expConvert:  ir.OpcodeSignExtend,
			expReadBits: 8,
		},
		{
			name:        "char",
			opts:        jitapi.NewOptions(),
			field:       &ir.Field{Name: "c", Holder: testHolder, Kind: ir.KindChar, Offset: 18},
			stamp:       ir.IntStampUnrestricted(32),
			expConvert:  ir.OpcodeZeroExtend,
			expReadBits: 16,
		},
		{
			name:        "volatile long",
			opts:        jitapi.NewOptions(),
			field:       &ir.Field{Name: "seq", Holder: testHolder, Kind: ir.KindLong, Offset: 24, Volatile: true},
			stamp:       ir.IntStampUnrestricted(64),
			expOrder:    ir.OrderVolatile,
			expReadBits: 64,
		},
		{
			name:       "weak referent under g1",
			opts:       jitapi.NewOptions(),
			field:      &ir.Field{Name: "referent", Holder: reference, Kind: ir.KindObject, Offset: 12},
			holder:     weak,
			stamp:      ir.ObjectStamp(nil, false),
			expConvert: ir.OpcodeUncompress,
			expBarrier: ir.BarrierReferenceGet,
		},
		{
			name: "weak referent under card table",
			opts: func() *jitapi.Options {
				o := jitapi.NewOptions()
				o.BarrierSet = jitapi.BarrierSetCardTable
				return o
			}(),
			field:      &ir.Field{Name: "referent", Holder: reference, Kind: ir.KindObject, Offset: 12},
			holder:     weak,
			stamp:      ir.ObjectStamp(nil, false),
			expConvert: ir.OpcodeUncompress,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestProvider(t, tc.opts)
			g := newTestGraph()
			holder := tc.holder
			if holder == nil {
				holder = testHolder
			}
			obj := g.Parameter(0, ir.ObjectStamp(holder, tc.nonNull))
			load := g.LoadField(obj, tc.field, tc.stamp)
			ret := linkFixed(g, load, load)

			out := p.Lower(load, NewTool(g, StageHigh, tc.opts))
			require.Equal(t, ir.OutcomeApplied, out)
			requireVerified(t, g)
			require.False(t, load.IsAlive())
			require.Equal(t, []ir.Opcode{ir.OpcodeRead, ir.OpcodeReturn}, fixedOpcodes(g))

			read := g.Start().Next()
			require.Equal(t, ir.FieldLocation(tc.field), read.Location())
			require.Equal(t, tc.expBarrier, read.Barrier())
			require.Equal(t, tc.expOrder, read.MemoryOrder())
			if tc.expReadBits != 0 {
				require.Equal(t, tc.expReadBits, read.Stamp().Bits())
			}
			if tc.expConvert == ir.OpcodeInvalid {
				require.Equal(t, read, ret.Result())
			} else {
				require.Equal(t, tc.expConvert, ret.Result().Opcode())
				require.Equal(t, read, ret.Result().Input(0))
			}
			if tc.field.Kind == ir.KindObject {
				require.True(t, read.Stamp().IsCompressed())
			}

			address := read.Input(0)
			require.Equal(t, ir.OpcodeOffsetAddress, address.Opcode())
			require.Equal(t, int64(tc.field.Offset), address.Input(1).AsInt())
			require.Equal(t, tc.opts.WordBits(), address.Input(1).Stamp().Bits())
			base := address.Input(0)
			if tc.nonNull {
				require.Equal(t, obj, base)
				return
			}
			require.Equal(t, ir.OpcodePi, base.Opcode())
			require.True(t, base.Stamp().NonNull())
			guard := base.Guard()
			require.Equal(t, ir.OpcodeGuard, guard.Opcode())
			require.True(t, guard.IsNegated())
			require.Equal(t, ir.ReasonNullCheckException, guard.Reason())
			require.Equal(t, ir.OpcodeIsNull, guard.Input(0).Opcode())
			require.Equal(t, g.Start(), guard.Guard())
		})
	}
}

func TestLowerLoadField_negativeOffset(t *testing.T) {
	opts := jitapi.NewOptions()
	p := newTestProvider(t, opts)
	g := newTestGraph()
	obj := g.Parameter(0, ir.ObjectStamp(testHolder, true))
	f := &ir.Field{Name: "broken", Holder: testHolder, Kind: ir.KindInt, Offset: -4}
	load := g.LoadField(obj, f, ir.IntStampUnrestricted(32))
	linkFixed(g, load, load)

	out := p.Lower(load, NewTool(g, StageHigh, opts))
	require.Equal(t, ir.Fatal, out.Kind)
	require.Contains(t, out.Err.Error(), "negative offset -4")
	require.True(t, load.IsAlive())
}

func TestLowerLoadField_static(t *testing.T) {
	opts := jitapi.NewOptions()
	p := newTestProvider(t, opts)
	g := newTestGraph()
	f := &ir.Field{Name: "instances", Holder: testHolder, Kind: ir.KindInt, Offset: 112, IsStatic: true}
	load := g.LoadField(nil, f, ir.IntStampUnrestricted(32))
	ret := linkFixed(g, load, load)

	require.Equal(t, ir.OutcomeApplied, p.Lower(load, NewTool(g, StageHigh, opts)))
	requireVerified(t, g)
	read := ret.Result()
	require.Equal(t, ir.OpcodeRead, read.Opcode())
	mirror := read.Input(0).Input(0)
	require.True(t, mirror.IsConstant())
	require.True(t, mirror.Stamp().NonNull())
}

func TestLowerStoreField(t *testing.T) {
	withBarriers := func(b jitapi.BarrierSet) *jitapi.Options {
		o := jitapi.NewOptions()
		o.BarrierSet = b
		return o
	}
	for _, tc := range []struct {
		name       string
		opts       *jitapi.Options
		kind       ir.JavaKind
		value      func(g *ir.Graph) *ir.Node
		expBarrier ir.BarrierType
		expConvert ir.Opcode
	}{
		{
			name:       "reference under card table",
			opts:       withBarriers(jitapi.BarrierSetCardTable),
			kind:       ir.KindObject,
			value:      func(g *ir.Graph) *ir.Node { return g.Parameter(1, ir.ObjectStamp(testHolder, false)) },
			expBarrier: ir.BarrierField,
			expConvert: ir.OpcodeCompress,
		},
		{
			name:       "null under g1",
			opts:       withBarriers(jitapi.BarrierSetG1),
			kind:       ir.KindObject,
			value:      func(g *ir.Graph) *ir.Node { return g.ConstantNull() },
			expBarrier: ir.BarrierNone,
			expConvert: ir.OpcodeCompress,
		},
		{
			name:       "reference without barriers",
			opts:       withBarriers(jitapi.BarrierSetNone),
			kind:       ir.KindObject,
			value:      func(g *ir.Graph) *ir.Node { return g.Parameter(1, ir.ObjectStamp(testHolder, false)) },
			expBarrier: ir.BarrierNone,
			expConvert: ir.OpcodeCompress,
		},
		{
			name:       "short",
			opts:       withBarriers(jitapi.BarrierSetCardTable),
			kind:       ir.KindShort,
			value:      func(g *ir.Graph) *ir.Node { return g.Parameter(1, ir.IntStampUnrestricted(32)) },
			expBarrier: ir.BarrierNone,
			expConvert: ir.OpcodeNarrow,
		},
		{
			name:       "int",
			opts:       withBarriers(jitapi.BarrierSetCardTable),
			kind:       ir.KindInt,
			value:      func(g *ir.Graph) *ir.Node { return g.Parameter(1, ir.IntStampUnrestricted(32)) },
			expBarrier: ir.BarrierNone,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestProvider(t, tc.opts)
			g := newTestGraph()
			obj := g.Parameter(0, ir.ObjectStamp(testHolder, true))
			value := tc.value(g)
			f := &ir.Field{Name: "f", Holder: testHolder, Kind: tc.kind, Offset: 20}
			store := g.StoreField(obj, f, value)
			state := g.FrameState(7, []*ir.Node{obj}, nil, nil)
			store.SetStateAfter(state)
			linkFixed(g, nil, store)

			require.Equal(t, ir.OutcomeApplied, p.Lower(store, NewTool(g, StageHigh, tc.opts)))
			requireVerified(t, g)
			require.Equal(t, []ir.Opcode{ir.OpcodeWrite, ir.OpcodeReturn}, fixedOpcodes(g))
			write := g.Start().Next()
			require.Equal(t, tc.expBarrier, write.Barrier())
			require.Equal(t, ir.FieldLocation(f), write.Location())
			require.Equal(t, state, write.StateAfter())
			stored := write.Input(1)
			if tc.expConvert == ir.OpcodeInvalid {
				require.Equal(t, value, stored)
			} else {
				require.Equal(t, tc.expConvert, stored.Opcode())
				require.Equal(t, value, stored.Input(0))
			}
		})
	}
}

func TestLowerLoadIndexed(t *testing.T) {
	for _, tc := range []struct {
		name        string
		opts        *jitapi.Options
		guards      ir.GuardsStage
		expFixed    []ir.Opcode
		expBase     int64
		expExtended bool
	}{
		{
			name:        "floating guards",
			opts:        jitapi.NewOptions(),
			guards:      ir.GuardsFloating,
			expFixed:    []ir.Opcode{ir.OpcodeRead, ir.OpcodeRead, ir.OpcodeReturn},
			expBase:     16,
			expExtended: true,
		},
		{
			name:   "fixed guards",
			opts:   jitapi.NewOptions(),
			guards: ir.GuardsFixedDeopts,
			expFixed: []ir.Opcode{
				ir.OpcodeFixedGuard, ir.OpcodeRead, ir.OpcodeFixedGuard, ir.OpcodeRead, ir.OpcodeReturn,
			},
			expBase:     16,
			expExtended: true,
		},
		{
			name:     "32 bit",
			opts:     options32(),
			guards:   ir.GuardsFloating,
			expFixed: []ir.Opcode{ir.OpcodeRead, ir.OpcodeRead, ir.OpcodeReturn},
			expBase:  12,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestProvider(t, tc.opts)
			g := newTestGraph()
			g.SetGuardsStage(tc.guards)
			array := g.Parameter(0, ir.ObjectStamp(&ir.Type{Name: "int[]", IsArray: true}, false))
			index := g.Parameter(1, ir.IntStampUnrestricted(32))
			load := g.LoadIndexed(array, index, ir.KindInt, ir.IntStampUnrestricted(32))
			ret := linkFixed(g, load, load)

			require.Equal(t, ir.OutcomeApplied, p.Lower(load, NewTool(g, StageHigh, tc.opts)))
			requireVerified(t, g)
			require.Equal(t, tc.expFixed, fixedOpcodes(g), g.Format())

			read := ret.Result()
			require.Equal(t, ir.ArrayLocation(ir.KindInt), read.Location())
			check := read.Guard()
			require.NotNil(t, check)
			cond := check.Input(0)
			require.Equal(t, ir.OpcodeIntegerBelow, cond.Opcode())
			require.Equal(t, index, cond.Input(0))
			length := cond.Input(1)
			require.Equal(t, ir.LocationArrayLength, length.Location())
			require.Equal(t, int64(p.Offsets().ArrayLengthOffset), length.Input(0).Input(1).AsInt())
			require.Equal(t, ir.ReasonBoundsCheckException, check.Reason())
			require.False(t, check.IsNegated())

			// array + ((long) pi(index) << 2) + base
			address := read.Input(0)
			require.Equal(t, ir.OpcodeOffsetAddress, address.Opcode())
			require.Equal(t, ir.OpcodePi, address.Input(0).Opcode())
			add := address.Input(1)
			require.Equal(t, ir.OpcodeAdd, add.Opcode())
			require.Equal(t, tc.expBase, add.Input(1).AsInt())
			shift := add.Input(0)
			require.Equal(t, ir.OpcodeLeftShift, shift.Opcode())
			require.Equal(t, int64(2), shift.Input(1).AsInt())
			pi := shift.Input(0)
			if tc.expExtended {
				require.Equal(t, ir.OpcodeSignExtend, pi.Opcode())
				pi = pi.Input(0)
			}
			require.Equal(t, ir.OpcodePi, pi.Opcode())
			require.Equal(t, check, pi.Guard())
			require.Equal(t, ir.IntStamp(32, 0, ir.MaxValue(32)-1), pi.Stamp())
		})
	}
}

func TestLowerStoreIndexed(t *testing.T) {
	opts := jitapi.NewOptions()
	p := newTestProvider(t, opts)
	base := &ir.Type{Name: "Base"}
	other := &ir.Type{Name: "Other"}
	arrayType := &ir.Type{Name: "Base[]", IsArray: true, Component: base}

	for _, tc := range []struct {
		name       string
		value      ir.Stamp
		exact      bool
		storeCheck bool
	}{
		{name: "unrelated value", value: ir.ObjectStamp(other, true), storeCheck: true},
		{name: "untyped value", value: ir.ObjectStamp(nil, false), storeCheck: true},
		{name: "component value", value: ir.ObjectStamp(base, false)},
		{name: "component value into exact array", value: ir.ObjectStamp(base, true), exact: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGraph()
			arrayStamp := ir.ObjectStamp(arrayType, true)
			if tc.exact {
				arrayStamp = ir.ExactObjectStamp(arrayType, true)
			}
			array := g.Parameter(0, arrayStamp)
			index := g.Parameter(1, ir.IntStampUnrestricted(32))
			value := g.Parameter(2, tc.value)
			store := g.StoreIndexed(array, index, ir.KindObject, value)
			linkFixed(g, nil, store)

			require.Equal(t, ir.OutcomeApplied, p.Lower(store, NewTool(g, StageHigh, opts)))
			requireVerified(t, g)
			write := g.Start().Next().Next()
			require.Equal(t, ir.OpcodeWrite, write.Opcode(), g.Format())
			require.Equal(t, ir.BarrierArray, write.Barrier())
			require.Equal(t, ir.OpcodeCompress, write.Input(1).Opcode())

			var storeChecks []*ir.Node
			for _, guard := range g.NodesOf(ir.OpcodeGuard) {
				if guard.Reason() == ir.ReasonArrayStoreException {
					storeChecks = append(storeChecks, guard)
				}
			}
			if !tc.storeCheck {
				require.Empty(t, storeChecks)
				return
			}
			require.Len(t, storeChecks, 1)
			cond := storeChecks[0].Input(0)
			require.Equal(t, ir.OpcodeInstanceOf, cond.Opcode())
			require.Equal(t, base, cond.TypeRef())
		})
	}
}

func TestLowerArrayLength(t *testing.T) {
	opts := jitapi.NewOptions()
	p := newTestProvider(t, opts)
	g := newTestGraph()
	array := g.Parameter(0, ir.ObjectStamp(&ir.Type{Name: "long[]", IsArray: true}, true))
	length := g.ArrayLength(array)
	ret := linkFixed(g, length, length)

	require.Equal(t, ir.OutcomeApplied, p.Lower(length, NewTool(g, StageHigh, opts)))
	requireVerified(t, g)
	require.False(t, length.IsAlive())
	read := ret.Result()
	require.Equal(t, ir.OpcodeRead, read.Opcode())
	require.Equal(t, g.Start().Next(), read)
	require.Equal(t, ir.LocationArrayLength, read.Location())
	require.Equal(t, ir.IntStamp(32, 0, ir.MaxValue(32)), read.Stamp())
	require.Equal(t, array, read.Input(0).Input(0))
	require.Equal(t, int64(12), read.Input(0).Input(1).AsInt())
}

func TestLowerLoadHub(t *testing.T) {
	for _, tc := range []struct {
		name    string
		opts    *jitapi.Options
		stage   Stage
		guards  ir.GuardsStage
		applied bool
	}{
		{name: "mid tier", opts: jitapi.NewOptions(), stage: StageMid, guards: ir.GuardsFixedDeopts},
		{name: "floating guards", opts: jitapi.NewOptions(), stage: StageLow, guards: ir.GuardsFloating},
		{name: "compressed", opts: jitapi.NewOptions(), stage: StageLow, guards: ir.GuardsFixedDeopts, applied: true},
		{name: "32 bit", opts: options32(), stage: StageLow, guards: ir.GuardsAfterFSA, applied: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestProvider(t, tc.opts)
			g := newTestGraph()
			g.SetGuardsStage(tc.guards)
			obj := g.Parameter(0, ir.ObjectStamp(testHolder, true))
			hubStamp := ir.PointerStamp(tc.opts.WordBits(), true)
			hub := g.LoadHub(obj, hubStamp, nil)
			ret := linkFixed(g, hub)

			out := p.Lower(hub, NewTool(g, tc.stage, tc.opts))
			requireVerified(t, g)
			if !tc.applied {
				require.Equal(t, ir.OutcomeDeferred, out)
				require.Equal(t, hub, ret.Result())
				return
			}
			require.Equal(t, ir.OutcomeApplied, out)
			require.False(t, hub.IsAlive())
			read := ret.Result()
			if tc.opts.UseCompressedClassPointers {
				require.Equal(t, ir.OpcodeUncompress, read.Opcode())
				require.Equal(t, hubStamp, read.Stamp())
				read = read.Input(0)
				require.True(t, read.Stamp().IsCompressed())
			}
			require.Equal(t, ir.OpcodeFloatingRead, read.Opcode())
			require.Equal(t, ir.LocationHub, read.Location())
			require.Equal(t, obj, read.Input(0).Input(0))
			require.Equal(t, p.Offsets().HubOffset.I64(), read.Input(0).Input(1).AsInt())
		})
	}
}

func TestLowerUnbox(t *testing.T) {
	opts := jitapi.NewOptions()
	p := newTestProvider(t, opts)
	g := newTestGraph()
	boxed := g.Parameter(0, ir.ObjectStamp(&ir.Type{Name: "Short", Boxes: ir.KindShort}, false))
	unbox := g.Unbox(boxed, ir.KindShort)
	ret := linkFixed(g, unbox, unbox)

	require.Equal(t, ir.OutcomeDeferred, p.Lower(unbox, NewTool(g, StageHigh, opts)))
	require.True(t, unbox.IsAlive())

	require.Equal(t, ir.OutcomeApplied, p.Lower(unbox, NewTool(g, StageMid, opts)))
	requireVerified(t, g)
	ext := ret.Result()
	require.Equal(t, ir.OpcodeSignExtend, ext.Opcode())
	read := ext.Input(0)
	require.Equal(t, ir.LocationBoxValue, read.Location())
	require.Equal(t, int64(12), read.Input(0).Input(1).AsInt())
	require.Equal(t, ir.OpcodePi, read.Input(0).Input(0).Opcode())
}
