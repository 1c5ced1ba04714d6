// Package testcases holds graph builders shared by the tests of the
// compiler phases and by cmd/jitlower.
package testcases

import (
	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
)

// TestCase is a named graph builder.
type TestCase struct {
	Name string
	// Build returns a fresh graph of the test case.
	Build func() *ir.Graph
}

var (
	// RangeCheck is `if (x < 0) D else if (x < 100) return a else D; D: return d`.
	// The two tests fuse into one unsigned x |<| 100.
	RangeCheck = TestCase{Name: "range_check", Build: rangeCheck}
	// Diamond is `v = x < y ? 1 : 2; return v`, which collapses to a conditional.
	Diamond = TestCase{Name: "diamond", Build: diamond}
	// NullCheckReturn is `if (obj == null) return null; else return obj;`.
	NullCheckReturn = TestCase{Name: "null_check_return", Build: nullCheckReturn}
	// OSREntry is an OSR entry into a method with 3 locals (an object, an int
	// and a long) and one held monitor.
	OSREntry = TestCase{Name: "osr_entry", Build: osrEntry}
	// MemoryAccess loads a field, stores an array element, divides and calls
	// a virtual method.
	MemoryAccess = TestCase{Name: "memory_access", Build: memoryAccess}
	// CountLoop is `i = 0; while (i < x) i++; return i`. The counter leaves
	// the loop through a proxy.
	CountLoop = TestCase{Name: "count_loop", Build: countLoop}
)

// All lists every test case.
var All = []TestCase{RangeCheck, Diamond, NullCheckReturn, OSREntry, MemoryAccess, CountLoop}

// ByName returns the test case called name.
func ByName(name string) (TestCase, bool) {
	for _, tc := range All {
		if tc.Name == name {
			return tc, true
		}
	}
	return TestCase{}, false
}

var (
	i32 = ir.IntStampUnrestricted(32)
	i64 = ir.IntStampUnrestricted(64)

	// ObjectType is the root of the class hierarchy used by the test cases.
	ObjectType = &ir.Type{Name: "java.lang.Object"}
	// NodeType is a class with a vtable of two methods and the fields NextField and ValueField.
	NodeType = &ir.Type{Name: "Node", Super: ObjectType, VTableLength: 2}
	// NodeArrayType is Node[].
	NodeArrayType = &ir.Type{Name: "Node[]", Super: ObjectType, IsArray: true, Component: NodeType}

	NextField  = &ir.Field{Name: "next", Holder: NodeType, Kind: ir.KindObject, Type: NodeType, Offset: 12}
	ValueField = &ir.Field{Name: "value", Holder: NodeType, Kind: ir.KindInt, Offset: 16}
	// VisitMethod is the virtual Node.visit(int).
	VisitMethod = &ir.Method{Name: "visit", Holder: NodeType, VTableIndex: 1}
)

func newGraph(name string, maxLocals int) *ir.Graph {
	return ir.NewGraph(&ir.Method{Name: name, Holder: NodeType, VTableIndex: -1, MaxLocals: maxLocals})
}

// linkIf links `if (cond) t else f` after pred and returns the If with its
// begins.
func linkIf(g *ir.Graph, pred, cond *ir.Node, p ir.BranchProbability) (n, t, f *ir.Node) {
	t, f = g.Begin(), g.Begin()
	n = g.If(cond, t, f, p)
	pred.SetNext(n)
	return
}

func rangeCheck() *ir.Graph {
	g := newGraph("rangeCheck", 3)
	x := g.Parameter(0, i32)
	a, d := g.Parameter(1, i32), g.Parameter(2, i32)
	_, t1, f1 := linkIf(g, g.Start(), g.IntegerLessThan(x, g.ConstantInt(32, 0)), ir.Probability(0.1, ir.ProfileProfiled))
	_, t2, f2 := linkIf(g, f1, g.IntegerLessThan(x, g.ConstantInt(32, 100)), ir.Probability(0.8, ir.ProfileProfiled))
	t2.SetNext(g.Return(a))
	e1, e2 := g.End(), g.End()
	t1.SetNext(e1)
	f2.SetNext(e2)
	merge := g.Merge()
	merge.AddForwardEnd(e1)
	merge.AddForwardEnd(e2)
	merge.SetNext(g.Return(d))
	return g
}

func diamond() *ir.Graph {
	g := newGraph("diamond", 2)
	x, y := g.Parameter(0, i32), g.Parameter(1, i32)
	_, t, f := linkIf(g, g.Start(), g.IntegerLessThan(x, y), ir.Unknown)
	e1, e2 := g.End(), g.End()
	t.SetNext(e1)
	f.SetNext(e2)
	merge := g.Merge()
	merge.AddForwardEnd(e1)
	merge.AddForwardEnd(e2)
	phi := g.Phi(merge, ir.IntStamp(32, 1, 2), g.ConstantInt(32, 1), g.ConstantInt(32, 2))
	merge.SetNext(g.Return(phi))
	return g
}

func nullCheckReturn() *ir.Graph {
	g := newGraph("nullCheckReturn", 1)
	obj := g.Parameter(0, ir.ObjectStamp(NodeType, false))
	_, t, f := linkIf(g, g.Start(), g.IsNull(obj), ir.Unknown)
	t.SetNext(g.Return(g.ConstantNull()))
	f.SetNext(g.Return(obj))
	return g
}

func countLoop() *ir.Graph {
	g := newGraph("countLoop", 2)
	x := g.Parameter(0, i32)
	entry := g.End()
	g.Start().SetNext(entry)
	loop := g.LoopBegin()
	loop.AddForwardEnd(entry)
	i := g.Phi(loop, i32, g.ConstantInt(32, 0))
	body, exit := g.Begin(), g.LoopExit(loop)
	loop.SetNext(g.If(g.IntegerLessThan(i, x), body, exit, ir.Likely))
	i.AddInput(g.Add(i, g.ConstantInt(32, 1)))
	body.SetNext(g.LoopEnd(loop))
	exit.SetNext(g.Return(g.ValueProxy(i, exit)))
	return g
}

// OSR layout of OSREntry.
const (
	OSRMaxLocals = 4
	OSRLockCount = 1
)

// OSRLocals are the kinds of the locals of OSREntry by index. The long takes
// the slots 2 and 3.
var OSRLocals = []ir.JavaKind{ir.KindObject, ir.KindInt, ir.KindLong}

func osrEntry() *ir.Graph {
	g := newGraph("osrEntry", OSRMaxLocals)
	osr := g.OSRStart()
	this := g.OSRLocal(0, ir.KindObject, ir.ObjectStamp(NodeType, false))
	count := g.OSRLocal(1, ir.KindInt, i32)
	total := g.OSRLocal(2, ir.KindLong, i64)
	lock := g.OSRLock(0, ir.ObjectStamp(ObjectType, true))
	osr.SetStateAfter(g.FrameState(7, []*ir.Node{this, count, total, nil}, nil, []*ir.Node{lock}))

	enter := g.OSRMonitorEnter(lock, 0)
	exit := g.MonitorExit(lock, 0)
	exit.SetStateAfter(g.FrameState(9, []*ir.Node{this, count, total, nil}, nil, nil))
	osr.SetNext(enter)
	enter.SetNext(exit)
	exit.SetNext(g.Return(g.Add(count, g.Narrow(total, 32))))

	// The OSR entry replaces the method entry.
	old := g.Start()
	g.SetStart(osr)
	old.SafeDelete()
	return g
}

func memoryAccess() *ir.Graph {
	g := newGraph("memoryAccess", 4)
	node := g.Parameter(0, ir.ObjectStamp(NodeType, false))
	array := g.Parameter(1, ir.ObjectStamp(NodeArrayType, false))
	index := g.Parameter(2, i32)
	divisor := g.Parameter(3, ir.IntStamp(32, -100, 100))

	value := g.LoadField(node, ValueField, i32)
	store := g.StoreIndexed(array, index, ir.KindObject, node)
	store.SetStateAfter(g.FrameState(4, []*ir.Node{node, array, index, divisor}, nil, nil))
	div := g.SignedDiv(value, divisor)
	target := g.MethodCallTarget(ir.InvokeVirtual, VisitMethod, i32, node, div)
	invoke := g.Invoke(target)
	invoke.SetPolymorphic(true)
	invoke.SetStateAfter(g.FrameState(9, []*ir.Node{node, array, index, divisor}, nil, nil))

	g.Start().SetNext(value)
	value.SetNext(store)
	store.SetNext(div)
	div.SetNext(invoke)
	invoke.SetNext(g.Return(invoke))
	return g
}
