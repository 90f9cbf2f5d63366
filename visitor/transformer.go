package visitor

import (
	"fmt"

	"github.com/kyle-williams-1/esonic/ast"
)

// ArityError reports a transformation whose handlers replaced the root with
// anything other than exactly one node.
type ArityError struct {
	Kind  ast.Kind
	Count int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("transforming %s produced %d nodes, expected exactly one", e.Kind, e.Count)
}

// TransformHandler rewrites one node. It returns the node's replacements:
// one node keeps the slot, several splice into the parent's child list, and
// an empty result removes the node. Handlers own the recursion; the usual
// body clones the node with CloneShell, descends with tr.TransformChildren
// and reattaches the result.
type TransformHandler func(tr *Transformer, n ast.Node, ctx Context) ([]ast.Node, error)

// Transformer rewrites a tree bottom-up through kind-dispatched handlers,
// with the same family fallback as Visitor. Kinds without a handler are
// rebuilt from a shell clone, so the input tree is never mutated. Register
// handlers before the first Transform call; afterwards a Transformer is safe
// for concurrent use.
type Transformer struct {
	handlers     map[ast.Kind]TransformHandler
	resolved     map[ast.Kind]TransformHandler
	trackParents bool
}

// NewTransformer creates a transformer with no handlers, which deep-copies
// any tree it is applied to.
func NewTransformer() *Transformer {
	t := &Transformer{handlers: map[ast.Kind]TransformHandler{}}
	t.resolve()
	return t
}

// Handle registers a handler for a concrete or family kind and returns the
// transformer for chaining.
func (t *Transformer) Handle(kind ast.Kind, h TransformHandler) *Transformer {
	t.handlers[kind] = h
	t.resolve()
	return t
}

// TrackParents makes TransformChildren record the original parent chain under
// ParentsKey and the replacement chain under NewParentsKey.
func (t *Transformer) TrackParents() *Transformer {
	t.trackParents = true
	return t
}

// Transform rewrites a whole tree and returns its replacement root. When the
// root's replacements do not come out to exactly one node the result is an
// *ArityError; handlers may still remove or split nodes anywhere below the
// root.
func (t *Transformer) Transform(n ast.Node, ctx Context) (ast.Node, error) {
	nodes, err := t.Apply(n, ctx)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, &ArityError{Kind: n.Kind(), Count: len(nodes)}
	}
	return nodes[0], nil
}

// Apply rewrites a single node, dispatching to its handler, and returns the
// replacement nodes. A nil context is replaced with an empty one.
func (t *Transformer) Apply(n ast.Node, ctx Context) ([]ast.Node, error) {
	if ctx == nil {
		ctx = Context{}
	}
	if h, ok := t.resolved[n.Kind()]; ok {
		return h(t, n, ctx)
	}
	return t.generic(n, ctx)
}

// generic is the default rewrite: clone the node's shell, transform the
// children and reattach them. A node whose children all vanish vanishes too.
func (t *Transformer) generic(n ast.Node, ctx Context) ([]ast.Node, error) {
	clone := n.CloneShell()
	if len(n.Children()) == 0 {
		return []ast.Node{clone}, nil
	}
	children, err := t.TransformChildren(n, clone, ctx)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, nil
	}
	if err := clone.SetChildren(children); err != nil {
		return nil, err
	}
	return []ast.Node{clone}, nil
}

// TransformChildren applies the transformer to each child of n and returns
// the flattened replacements. clone is the replacement node being built for
// n; it goes on the NewParentsKey chain when parent tracking is on.
func (t *Transformer) TransformChildren(n, clone ast.Node, ctx Context) ([]ast.Node, error) {
	children := n.Children()
	if len(children) == 0 {
		return nil, nil
	}
	childCtx := ctx.Clone()
	if t.trackParents {
		childCtx[ParentsKey] = appendParent(ParentNodes(ctx), n)
		newParents, _ := ctx[NewParentsKey].([]ast.Node)
		childCtx[NewParentsKey] = appendParent(newParents, clone)
	}
	var out []ast.Node
	for _, child := range children {
		replacements, err := t.Apply(child, childCtx)
		if err != nil {
			return nil, err
		}
		out = append(out, replacements...)
	}
	return out, nil
}

// resolve precomputes, for every concrete kind, the handler its fallback
// chain selects.
func (t *Transformer) resolve() {
	resolved := make(map[ast.Kind]TransformHandler, len(t.handlers))
	for kind := ast.KindWord; kind <= ast.KindProhibit; kind++ {
		for _, fallback := range ast.FallbackChain(kind) {
			if h, ok := t.handlers[fallback]; ok {
				resolved[kind] = h
				break
			}
		}
	}
	t.resolved = resolved
}
