// Package visitor provides generic traversal over query ASTs: a read-only
// Visitor that collects values and a Transformer that rewrites trees. Both
// dispatch on node kind with family fallback (a handler for ast.KindTerm
// catches words, phrases and regexes that have no handler of their own, and
// ast.KindAny catches everything).
package visitor

import (
	"github.com/kyle-williams-1/esonic/ast"
)

// Context carries traversal state down the tree. Handlers may read and write
// freely; each node's children see a copy, so writes never leak to siblings.
type Context map[string]any

// Clone returns a shallow copy of the context.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Context keys maintained by traversals with parent tracking enabled.
const (
	// ParentsKey holds the []ast.Node chain from the root to the current
	// node's parent, in root-first order.
	ParentsKey = "parents"
	// NewParentsKey holds the chain of replacement nodes built so far by a
	// Transformer, mirroring ParentsKey.
	NewParentsKey = "new_parents"
)

// ParentNodes returns the original-parent chain recorded in the context, or
// nil when parent tracking is off.
func ParentNodes(ctx Context) []ast.Node {
	parents, _ := ctx[ParentsKey].([]ast.Node)
	return parents
}

// appendParent copies the chain so sibling subtrees never share backing
// arrays.
func appendParent(chain []ast.Node, n ast.Node) []ast.Node {
	out := make([]ast.Node, len(chain), len(chain)+1)
	copy(out, chain)
	return append(out, n)
}

// Handler computes the visitor's output for one node. It receives the visitor
// so it can descend into children, typically via v.VisitChildren.
type Handler func(v *Visitor, n ast.Node, ctx Context) ([]any, error)

// Visitor walks a tree and concatenates the values produced by the handlers.
// Register handlers before the first Visit call; afterwards a Visitor is safe
// for concurrent use.
type Visitor struct {
	handlers     map[ast.Kind]Handler
	resolved     map[ast.Kind]Handler
	trackParents bool
}

// New creates an empty visitor. Without any handlers it produces no values
// and simply walks the whole tree.
func New() *Visitor {
	v := &Visitor{handlers: map[ast.Kind]Handler{}}
	v.resolve()
	return v
}

// Handle registers a handler for a concrete or family kind and returns the
// visitor for chaining.
func (v *Visitor) Handle(kind ast.Kind, h Handler) *Visitor {
	v.handlers[kind] = h
	v.resolve()
	return v
}

// TrackParents makes VisitChildren record the parent chain under ParentsKey.
func (v *Visitor) TrackParents() *Visitor {
	v.trackParents = true
	return v
}

// Visit dispatches a single node to its handler. A nil context is replaced
// with an empty one.
func (v *Visitor) Visit(n ast.Node, ctx Context) ([]any, error) {
	if ctx == nil {
		ctx = Context{}
	}
	if h, ok := v.resolved[n.Kind()]; ok {
		return h(v, n, ctx)
	}
	return v.VisitChildren(n, ctx)
}

// VisitChildren visits each child of n in order and concatenates their
// values. It is the generic behavior for kinds without a handler and the
// usual way for handlers to recurse.
func (v *Visitor) VisitChildren(n ast.Node, ctx Context) ([]any, error) {
	children := n.Children()
	if len(children) == 0 {
		return nil, nil
	}
	childCtx := ctx.Clone()
	if v.trackParents {
		childCtx[ParentsKey] = appendParent(ParentNodes(ctx), n)
	}
	var out []any
	for _, child := range children {
		values, err := v.Visit(child, childCtx)
		if err != nil {
			return nil, err
		}
		out = append(out, values...)
	}
	return out, nil
}

// resolve precomputes, for every concrete kind, the handler its fallback
// chain selects.
func (v *Visitor) resolve() {
	resolved := make(map[ast.Kind]Handler, len(v.handlers))
	for kind := ast.KindWord; kind <= ast.KindProhibit; kind++ {
		for _, fallback := range ast.FallbackChain(kind) {
			if h, ok := v.handlers[fallback]; ok {
				resolved[kind] = h
				break
			}
		}
	}
	v.resolved = resolved
}
