package lowering

import (
	"fmt"
	"sort"
	"sync"

	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
)

// Extension lowers node kinds the built-in providers do not know.
type Extension interface {
	Lower(n *ir.Node, tool Tool) ir.Outcome
}

// ExtensionFunc adapts a function to Extension.
type ExtensionFunc func(n *ir.Node, tool Tool) ir.Outcome

// Lower implements Extension.
func (f ExtensionFunc) Lower(n *ir.Node, tool Tool) ir.Outcome { return f(n, tool) }

// KindOf returns the registry key of n: the tag of an Extension node, the
// opcode name otherwise.
func KindOf(n *ir.Node) string {
	if n.Opcode() == ir.OpcodeExtension {
		return n.ExtensionTag()
	}
	return n.Opcode().String()
}

// Registry maps node kinds to the Extension that lowers them. Each kind has at
// most one owner. A Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	builtin map[string]struct{}
	exts    map[string]Extension
}

// NewRegistry returns an empty Registry that refuses extensions for the given
// built-in kinds.
func NewRegistry(builtin ...string) *Registry {
	r := &Registry{builtin: make(map[string]struct{}, len(builtin)), exts: map[string]Extension{}}
	for _, k := range builtin {
		r.builtin[k] = struct{}{}
	}
	return r
}

// Register makes ext the lowering of kind.
func (r *Registry) Register(kind string, ext Extension) error {
	if kind == "" {
		return fmt.Errorf("empty extension kind")
	}
	if ext == nil {
		return fmt.Errorf("nil extension for kind %q", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.builtin[kind]; ok {
		return fmt.Errorf("kind %q is lowered by the built-in provider", kind)
	}
	if _, ok := r.exts[kind]; ok {
		return fmt.Errorf("kind %q already has an extension", kind)
	}
	r.exts[kind] = ext
	return nil
}

// Lookup returns the extension registered for kind.
func (r *Registry) Lookup(kind string) (Extension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.exts[kind]
	return ext, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]string, 0, len(r.exts))
	for k := range r.exts {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// Dispatch finishes the lowering of n after a built-in chain. claimed tells
// whether the chain owns the kind of n, in which case out is its outcome and
// an extension for the same kind is a fatal error. Unclaimed nodes go to their
// extension, or are deferred if there is none.
func (r *Registry) Dispatch(n *ir.Node, tool Tool, claimed bool, out ir.Outcome) ir.Outcome {
	ext, ok := r.Lookup(KindOf(n))
	switch {
	case claimed && ok:
		return ir.FatalOutcome(ir.Fatalf([]*ir.Node{n}, "Extension %s is redundant", KindOf(n)))
	case claimed:
		return out
	case ok:
		return ext.Lower(n, tool)
	default:
		return ir.OutcomeDeferred
	}
}
