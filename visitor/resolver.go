package visitor

import (
	"fmt"

	"github.com/kyle-williams-1/esonic/ast"
)

// UnknownOperationResolver returns a transformer that rewrites every implicit
// operation into an explicit one, keeping operands and layout. resolveTo
// selects the operation: ast.KindAnd, ast.KindOr, or ast.KindUnknown to
// resolve contextually to the nearest enclosing explicit operation, falling
// back to AND at the top of the tree.
func UnknownOperationResolver(resolveTo ast.Kind) (*Transformer, error) {
	switch resolveTo {
	case ast.KindAnd, ast.KindOr, ast.KindUnknown:
	default:
		return nil, fmt.Errorf("cannot resolve unknown operations to %s", resolveTo)
	}
	tr := NewTransformer().TrackParents()
	tr.Handle(ast.KindUnknown, func(t *Transformer, n ast.Node, ctx Context) ([]ast.Node, error) {
		kind := resolveTo
		if kind == ast.KindUnknown {
			kind = nearestOperation(ParentNodes(ctx))
		}
		var repl ast.Node
		if kind == ast.KindOr {
			repl = ast.NewOr()
		} else {
			repl = ast.NewAnd()
		}
		repl.SetHead(n.Head())
		repl.SetTail(n.Tail())
		repl.SetSpan(n.Pos(), n.Size())
		repl.SetQueryName(n.QueryName())
		children, err := t.TransformChildren(n, repl, ctx)
		if err != nil {
			return nil, err
		}
		if err := repl.SetChildren(children); err != nil {
			return nil, err
		}
		return []ast.Node{repl}, nil
	})
	return tr, nil
}

func nearestOperation(parents []ast.Node) ast.Kind {
	for i := len(parents) - 1; i >= 0; i-- {
		switch parents[i].Kind() {
		case ast.KindAnd, ast.KindOr:
			return parents[i].Kind()
		}
	}
	return ast.KindAnd
}
