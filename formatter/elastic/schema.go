package elastic

import (
	"strings"

	"github.com/kyle-williams-1/esonic/ast"
	"github.com/kyle-williams-1/esonic/config"
	"github.com/kyle-williams-1/esonic/visitor"
)

// NestedChecker validates every field path in a query against the declared
// nested and object structure before compilation, so schema mistakes surface
// as typed errors instead of engine-side failures.
type NestedChecker struct {
	nested    config.FieldTree
	combined  config.FieldTree
	subFields map[string]struct{}
	walker    *visitor.Visitor
}

// NewNestedChecker creates a checker for the config's declared fields.
func NewNestedChecker(cfg *config.Config) *NestedChecker {
	c := &NestedChecker{
		nested:    cfg.NestedFields,
		subFields: map[string]struct{}{},
	}
	for _, suffix := range cfg.SubFields {
		c.subFields[suffix] = struct{}{}
	}
	paths := leafPaths(cfg.NestedFields, nil)
	paths = append(paths, cfg.ObjectFields...)
	c.combined = config.NewFieldTree(paths...)

	check := func(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
		return nil, c.checkPath(fieldSegments(ctx))
	}
	c.walker = visitor.New().
		Handle(ast.KindSearchField, func(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
			ctx = ctx.Clone()
			ctx[fieldsKey] = appendSegments(fieldSegments(ctx), n.(*ast.SearchField).Name)
			return v.VisitChildren(n, ctx)
		}).
		Handle(ast.KindTerm, check).
		Handle(ast.KindRange, check).
		Handle(ast.KindFuzzy, check).
		Handle(ast.KindProximity, check)
	return c
}

// Check walks the query and returns the first invalid field path as a
// *NestedSearchFieldError or *ObjectSearchFieldError.
func (c *NestedChecker) Check(tree ast.Node) error {
	_, err := c.walker.Visit(tree, nil)
	return err
}

func (c *NestedChecker) checkPath(segs []string) error {
	if len(segs) == 0 {
		return nil
	}
	tree := c.combined
	for i, seg := range segs {
		sub, ok := tree[seg]
		if !ok {
			if i == 0 {
				// Undeclared top-level fields are ordinary simple fields.
				return nil
			}
			if i == len(segs)-1 {
				if _, ok := c.subFields[seg]; ok {
					return nil
				}
			}
			return &ObjectSearchFieldError{Field: strings.Join(segs, ".")}
		}
		tree = sub
	}
	if len(tree) > 0 {
		if c.withinNested(segs) {
			return &NestedSearchFieldError{Field: strings.Join(segs, ".")}
		}
		return &ObjectSearchFieldError{Field: strings.Join(segs, ".")}
	}
	return nil
}

func (c *NestedChecker) withinNested(segs []string) bool {
	tree := c.nested
	for _, seg := range segs {
		sub, ok := tree[seg]
		if !ok {
			return false
		}
		tree = sub
	}
	return true
}

// leafPaths enumerates a field tree's leaves as dotted paths.
func leafPaths(tree config.FieldTree, prefix []string) []string {
	var out []string
	for seg, sub := range tree {
		path := append(append([]string{}, prefix...), seg)
		if len(sub) == 0 {
			out = append(out, strings.Join(path, "."))
			continue
		}
		out = append(out, leafPaths(sub, path)...)
	}
	return out
}

// nestedPrefixes returns the dotted prefixes of a field path that are nested
// levels, innermost first, so wrapping in order nests outward correctly.
func nestedPrefixes(nested config.FieldTree, segs []string) []string {
	var out []string
	tree := nested
	for i, seg := range segs {
		sub, ok := tree[seg]
		if !ok {
			break
		}
		if len(sub) > 0 {
			out = append(out, strings.Join(segs[:i+1], "."))
		}
		tree = sub
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
