// Package lint inspects query trees for semantic oddities the parser accepts
// and reports them as human-readable diagnostics. Nothing here is fatal:
// malformed but parseable queries stay inspectable and displayable, so Check
// accumulates every finding instead of stopping at the first.
package lint

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kyle-williams-1/esonic/ast"
	"github.com/kyle-williams-1/esonic/visitor"
)

var fieldNameRe = regexp.MustCompile(`^[\w.]+$`)

var checker = visitor.New().
	TrackParents().
	Handle(ast.KindSearchField, checkSearchField).
	Handle(ast.KindWord, checkWord).
	Handle(ast.KindFuzzy, checkFuzzy).
	Handle(ast.KindProximity, checkProximity).
	Handle(ast.KindFieldGroup, checkFieldGroup).
	Handle(ast.KindGroup, checkGroup)

// Check walks the tree and returns all diagnostics found, in traversal order.
// An empty result means the tree looks sound.
func Check(tree ast.Node) []string {
	values, _ := checker.Visit(tree, nil)
	diags := make([]string, 0, len(values))
	for _, v := range values {
		diags = append(diags, v.(string))
	}
	return diags
}

func checkSearchField(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	sf := n.(*ast.SearchField)
	var diags []any
	if !fieldNameRe.MatchString(sf.Name) {
		diags = append(diags, fmt.Sprintf("%q is not a valid field name", sf.Name))
	}
	return descend(v, n, ctx, diags)
}

func checkWord(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	w := n.(*ast.Word)
	var diags []any
	if strings.ContainsAny(w.Value, " \t\n\r") {
		diags = append(diags, fmt.Sprintf("word %q contains unescaped whitespace", w.Value))
	}
	return descend(v, n, ctx, diags)
}

func checkFuzzy(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	f := n.(*ast.Fuzzy)
	var diags []any
	if f.Term == nil {
		diags = append(diags, "fuzzy modifier has no word to apply to")
	}
	if f.Degree.IsNegative() {
		diags = append(diags, fmt.Sprintf("fuzzy degree %s is negative", f.Degree))
	}
	return descend(v, n, ctx, diags)
}

func checkProximity(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	p := n.(*ast.Proximity)
	var diags []any
	if p.Term == nil {
		diags = append(diags, "proximity modifier has no phrase to apply to")
	}
	if p.Degree < 0 {
		diags = append(diags, fmt.Sprintf("proximity degree %d is negative", p.Degree))
	}
	return descend(v, n, ctx, diags)
}

// checkFieldGroup flags field groups that are not the direct value of a
// search field, where the grouping carries no field to distribute over.
func checkFieldGroup(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	var diags []any
	if _, ok := parent(ctx).(*ast.SearchField); !ok {
		diags = append(diags, "field group used outside a search field")
	}
	return descend(v, n, ctx, diags)
}

// checkGroup flags plain groups sitting directly under a search field, which
// should be field groups instead.
func checkGroup(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	var diags []any
	if sf, ok := parent(ctx).(*ast.SearchField); ok {
		diags = append(diags, fmt.Sprintf("group as the value of field %q should be a field group", sf.Name))
	}
	return descend(v, n, ctx, diags)
}

func parent(ctx visitor.Context) ast.Node {
	parents := visitor.ParentNodes(ctx)
	if len(parents) == 0 {
		return nil
	}
	return parents[len(parents)-1]
}

func descend(v *visitor.Visitor, n ast.Node, ctx visitor.Context, diags []any) ([]any, error) {
	children, err := v.VisitChildren(n, ctx)
	if err != nil {
		return nil, err
	}
	return append(diags, children...), nil
}
