package visitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyle-williams-1/esonic/ast"
	"github.com/kyle-williams-1/esonic/language/lucene"
)

func parse(t *testing.T, query string) ast.Node {
	t.Helper()
	node, err := lucene.New().Parse(query)
	require.NoError(t, err)
	return node
}

func TestVisitorCollectsWithFallback(t *testing.T) {
	tree := parse(t, `title:foo AND "bar baz" OR wild*`)

	// The term family handler catches phrases too; the word handler wins for
	// words because it is more specific.
	v := New().
		Handle(ast.KindWord, func(v *Visitor, n ast.Node, ctx Context) ([]any, error) {
			return []any{"word:" + n.(*ast.Word).Value}, nil
		}).
		Handle(ast.KindTerm, func(v *Visitor, n ast.Node, ctx Context) ([]any, error) {
			return []any{"term:" + n.String()}, nil
		})

	values, err := v.Visit(tree, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"word:foo", `term:"bar baz"`, "word:wild*"}, values)
}

func TestVisitorGenericWalk(t *testing.T) {
	tree := parse(t, "a AND (b OR c)")
	values, err := New().Visit(tree, nil)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestVisitorTracksParents(t *testing.T) {
	tree := parse(t, "a AND (b OR c)")

	var chains [][]ast.Kind
	v := New().TrackParents().
		Handle(ast.KindWord, func(v *Visitor, n ast.Node, ctx Context) ([]any, error) {
			var kinds []ast.Kind
			for _, p := range ParentNodes(ctx) {
				kinds = append(kinds, p.Kind())
			}
			chains = append(chains, kinds)
			return nil, nil
		})

	_, err := v.Visit(tree, nil)
	require.NoError(t, err)
	require.Len(t, chains, 3)
	assert.Equal(t, []ast.Kind{ast.KindAnd}, chains[0])
	assert.Equal(t, []ast.Kind{ast.KindAnd, ast.KindGroup, ast.KindOr}, chains[1])
	assert.Equal(t, []ast.Kind{ast.KindAnd, ast.KindGroup, ast.KindOr}, chains[2])
}

func TestVisitorContextIsolation(t *testing.T) {
	tree := parse(t, "(a b) (c d)")

	// Each group handler marks the context; words must only see the mark of
	// their own group.
	v := New().
		Handle(ast.KindGroup, func(v *Visitor, n ast.Node, ctx Context) ([]any, error) {
			ctx = ctx.Clone()
			ctx["group"] = n.Render(false)
			return v.VisitChildren(n, ctx)
		}).
		Handle(ast.KindWord, func(v *Visitor, n ast.Node, ctx Context) ([]any, error) {
			return []any{ctx["group"]}, nil
		})

	values, err := v.Visit(tree, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"(a b)", "(a b)", "(c d)", "(c d)"}, values)
}

func TestTransformerDeepCopies(t *testing.T) {
	tree := parse(t, "a AND (b OR c)")
	out, err := NewTransformer().Transform(tree, nil)
	require.NoError(t, err)
	require.True(t, out.Equal(tree))
	assert.Equal(t, tree.Render(true), out.Render(true))

	// Mutating the copy must not touch the original.
	out.Children()[0].(*ast.Word).Value = "changed"
	assert.Equal(t, "a", tree.Children()[0].(*ast.Word).Value)
}

func TestTransformerRemovesNodes(t *testing.T) {
	drop := func(value string) *Transformer {
		return NewTransformer().Handle(ast.KindWord,
			func(tr *Transformer, n ast.Node, ctx Context) ([]ast.Node, error) {
				if n.(*ast.Word).Value == value {
					return nil, nil
				}
				return []ast.Node{n.CloneShell()}, nil
			})
	}

	t.Run("operand removed from operation", func(t *testing.T) {
		out, err := drop("b").Transform(parse(t, "a AND b AND c"), nil)
		require.NoError(t, err)
		assert.True(t, out.Equal(ast.NewAnd(ast.NewWord("a"), ast.NewWord("c"))))
	})

	t.Run("emptied subtree vanishes", func(t *testing.T) {
		out, err := drop("b").Transform(parse(t, "a AND (b)"), nil)
		require.NoError(t, err)
		assert.True(t, out.Equal(ast.NewAnd(ast.NewWord("a"))))
	})

	t.Run("removing the root is an arity error", func(t *testing.T) {
		_, err := drop("a").Transform(parse(t, "a"), nil)
		var arityErr *ArityError
		require.ErrorAs(t, err, &arityErr)
		assert.Equal(t, 0, arityErr.Count)
		assert.Equal(t, ast.KindWord, arityErr.Kind)
	})
}

func TestTransformerSplicesNodes(t *testing.T) {
	tr := NewTransformer().Handle(ast.KindWord,
		func(t *Transformer, n ast.Node, ctx Context) ([]ast.Node, error) {
			w := n.(*ast.Word)
			if w.Value != "ab" {
				return []ast.Node{w.CloneShell()}, nil
			}
			return []ast.Node{ast.NewWord("a"), ast.NewWord("b")}, nil
		})

	out, err := tr.Transform(parse(t, "ab AND c"), nil)
	require.NoError(t, err)
	assert.True(t, out.Equal(ast.NewAnd(ast.NewWord("a"), ast.NewWord("b"), ast.NewWord("c"))))
}

func TestTransformerTracksNewParents(t *testing.T) {
	rename := NewTransformer().TrackParents()
	rename.Handle(ast.KindOperation, func(tr *Transformer, n ast.Node, ctx Context) ([]ast.Node, error) {
		clone := n.CloneShell()
		clone.SetQueryName("op")
		children, err := tr.TransformChildren(n, clone, ctx)
		if err != nil {
			return nil, err
		}
		if err := clone.SetChildren(children); err != nil {
			return nil, err
		}
		return []ast.Node{clone}, nil
	})

	var sawRenamedParent bool
	rename.Handle(ast.KindWord, func(tr *Transformer, n ast.Node, ctx Context) ([]ast.Node, error) {
		newParents, _ := ctx[NewParentsKey].([]ast.Node)
		for _, p := range newParents {
			if p.QueryName() == "op" {
				sawRenamedParent = true
			}
		}
		return []ast.Node{n.CloneShell()}, nil
	})

	_, err := rename.Transform(parse(t, "a AND b"), nil)
	require.NoError(t, err)
	assert.True(t, sawRenamedParent)
}

func TestUnknownOperationResolver(t *testing.T) {
	t.Run("fixed resolution", func(t *testing.T) {
		tr, err := UnknownOperationResolver(ast.KindOr)
		require.NoError(t, err)
		out, err := tr.Transform(parse(t, "a b c"), nil)
		require.NoError(t, err)
		assert.True(t, out.Equal(ast.NewOr(ast.NewWord("a"), ast.NewWord("b"), ast.NewWord("c"))))
	})

	t.Run("contextual resolution follows enclosing operation", func(t *testing.T) {
		tr, err := UnknownOperationResolver(ast.KindUnknown)
		require.NoError(t, err)
		out, err := tr.Transform(parse(t, "a OR (b c)"), nil)
		require.NoError(t, err)
		want := ast.NewOr(
			ast.NewWord("a"),
			ast.NewGroup(ast.NewOr(ast.NewWord("b"), ast.NewWord("c"))),
		)
		assert.True(t, out.Equal(want), "got %s", out.Render(false))
	})

	t.Run("contextual resolution defaults to and", func(t *testing.T) {
		tr, err := UnknownOperationResolver(ast.KindUnknown)
		require.NoError(t, err)
		out, err := tr.Transform(parse(t, "a b"), nil)
		require.NoError(t, err)
		assert.True(t, out.Equal(ast.NewAnd(ast.NewWord("a"), ast.NewWord("b"))))
	})

	t.Run("rejects other kinds", func(t *testing.T) {
		_, err := UnknownOperationResolver(ast.KindNot)
		require.Error(t, err)
	})

	t.Run("keeps span and operands", func(t *testing.T) {
		tr, err := UnknownOperationResolver(ast.KindAnd)
		require.NoError(t, err)
		out, err := tr.Transform(parse(t, " a  b "), nil)
		require.NoError(t, err)
		assert.Equal(t, "a AND b", out.Render(false))
		start, end := out.Span(false)
		assert.Equal(t, 1, start)
		assert.Equal(t, 5, end)
	})
}
