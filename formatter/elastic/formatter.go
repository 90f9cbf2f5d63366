// Package elastic formats query ASTs as Elasticsearch query DSL documents.
// Queries against analyzed fields use full-text queries (match, match_phrase,
// query_string); not-analyzed fields get exact-value queries (term, wildcard,
// fuzzy). Fields declared nested are wrapped in nested queries level by
// level, and node names stamped by the naming package come out as _name
// markers for match attribution.
package elastic

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kyle-williams-1/esonic/ast"
	"github.com/kyle-williams-1/esonic/config"
	"github.com/kyle-williams-1/esonic/formatter"
	"github.com/kyle-williams-1/esonic/visitor"
)

// fieldsKey carries the dotted field path accumulated from enclosing search
// fields down the traversal context.
const fieldsKey = "fields"

func fieldSegments(ctx visitor.Context) []string {
	segs, _ := ctx[fieldsKey].([]string)
	return segs
}

func appendSegments(segs []string, name string) []string {
	out := make([]string, 0, len(segs)+1)
	out = append(out, segs...)
	return append(out, strings.Split(name, ".")...)
}

// Formatter compiles query ASTs to Elasticsearch query DSL. It is immutable
// after construction and safe for concurrent use.
type Formatter struct {
	cfg         *config.Config
	checker     *NestedChecker
	compiler    *visitor.Visitor
	notAnalyzed map[string]struct{}
}

var _ formatter.Formatter[map[string]any] = (*Formatter)(nil)

// New creates an Elasticsearch formatter with the default configuration.
func New() *Formatter {
	return NewWithConfig(config.Default())
}

// NewWithConfig creates an Elasticsearch formatter with a custom configuration.
func NewWithConfig(cfg *config.Config) *Formatter {
	f := &Formatter{
		cfg:         cfg,
		checker:     NewNestedChecker(cfg),
		notAnalyzed: map[string]struct{}{},
	}
	for _, field := range cfg.NotAnalyzedFields {
		f.notAnalyzed[field] = struct{}{}
	}
	f.compiler = visitor.New().
		Handle(ast.KindWord, f.word).
		Handle(ast.KindPhrase, f.phrase).
		Handle(ast.KindRegex, f.regex).
		Handle(ast.KindFuzzy, f.fuzzy).
		Handle(ast.KindProximity, f.proximity).
		Handle(ast.KindRange, f.rangeQuery).
		Handle(ast.KindBoost, f.boost).
		Handle(ast.KindSearchField, f.searchField).
		Handle(ast.KindGroup, f.group).
		Handle(ast.KindFieldGroup, f.group).
		Handle(ast.KindOperation, f.operation).
		Handle(ast.KindPlus, f.must).
		Handle(ast.KindNot, f.mustNot).
		Handle(ast.KindProhibit, f.mustNot)
	return f
}

// Format validates the query's field paths and compiles the tree into a
// query DSL document, ready to be placed under "query" in a search request.
func (f *Formatter) Format(tree ast.Node) (map[string]any, error) {
	if err := f.checker.Check(tree); err != nil {
		return nil, err
	}
	it, err := f.compile(tree, nil)
	if err != nil {
		return nil, err
	}
	return it.json(), nil
}

// compile runs the visitor on one node and unwraps the single fragment its
// handler produced.
func (f *Formatter) compile(n ast.Node, ctx visitor.Context) (item, error) {
	values, err := f.compiler.Visit(n, ctx)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("compiling %s produced %d query fragments, expected one", n.Kind(), len(values))
	}
	it, ok := values[0].(item)
	if !ok {
		return nil, fmt.Errorf("compiling %s produced %T, expected a query fragment", n.Kind(), values[0])
	}
	return it, nil
}

func (f *Formatter) analyzed(field string) bool {
	_, ok := f.notAnalyzed[field]
	return !ok
}

// fieldName resolves the target field for a leaf: the accumulated dotted
// path, or the configured default field outside any search field.
func (f *Formatter) fieldName(ctx visitor.Context) string {
	segs := fieldSegments(ctx)
	if len(segs) == 0 {
		return f.cfg.DefaultField
	}
	return strings.Join(segs, ".")
}

// matchType returns the per-field query type override, if any.
func (f *Formatter) matchType(field string) string {
	mt, _ := f.cfg.FieldOptions[field]["match_type"].(string)
	return mt
}

// applyOptions merges the per-field extra parameters into the query params.
func (f *Formatter) applyOptions(field string, params M) {
	for k, v := range f.cfg.FieldOptions[field] {
		if k == "match_type" {
			continue
		}
		params[k] = v
	}
}

// named stamps the node's query name onto the fragment for match attribution.
func named(n ast.Node, it item) item {
	if name := n.QueryName(); name != "" {
		it.addExtra("_name", name)
	}
	return it
}

func (f *Formatter) word(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	w := n.(*ast.Word)
	it, err := f.wordItem(w, f.fieldName(ctx))
	if err != nil {
		return nil, err
	}
	return []any{named(n, it)}, nil
}

func (f *Formatter) wordItem(w *ast.Word, field string) (item, error) {
	if w.Value == ast.Wildcard {
		if field == "" {
			return nil, fmt.Errorf("bare wildcard requires a field or a default field")
		}
		return &flatItem{method: "exists", params: M{"field": field}}, nil
	}
	if ast.HasUnescapedWildcard(w.Value) {
		if field != "" && !f.analyzed(field) {
			params := M{"value": unescapeKeepWildcards(w.Value)}
			f.applyOptions(field, params)
			return &fieldItem{method: "wildcard", field: field, params: params}, nil
		}
		params := M{
			"query":                  w.Value,
			"analyze_wildcard":       true,
			"allow_leading_wildcard": true,
		}
		if field != "" {
			params["default_field"] = field
		}
		return &flatItem{method: "query_string", params: params}, nil
	}
	value := ast.UnescapeValue(w.Value)
	if field == "" {
		return &flatItem{method: "query_string", params: M{"query": value}}, nil
	}
	if !f.analyzed(field) {
		params := M{"value": value}
		f.applyOptions(field, params)
		return &fieldItem{method: "term", field: field, params: params}, nil
	}
	method := "match"
	params := M{"query": value, "zero_terms_query": "none"}
	if mt := f.matchType(field); mt != "" {
		method = mt
	} else if f.cfg.MatchWordAsPhrase {
		method = "match_phrase"
	}
	if method != "match" {
		delete(params, "zero_terms_query")
	}
	f.applyOptions(field, params)
	return &fieldItem{method: method, field: field, params: params}, nil
}

func (f *Formatter) phrase(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	p := n.(*ast.Phrase)
	field := f.fieldName(ctx)
	value := ast.UnescapeValue(phraseValue(p))
	var it item
	switch {
	case field == "":
		it = &flatItem{method: "query_string", params: M{"query": p.Value}}
	case !f.analyzed(field):
		params := M{"value": value}
		f.applyOptions(field, params)
		it = &fieldItem{method: "term", field: field, params: params}
	default:
		params := M{"query": value}
		f.applyOptions(field, params)
		it = &fieldItem{method: "match_phrase", field: field, params: params}
	}
	return []any{named(n, it)}, nil
}

func (f *Formatter) regex(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	r := n.(*ast.Regex)
	field := f.fieldName(ctx)
	if field == "" {
		return nil, fmt.Errorf("regex query requires a field or a default field")
	}
	params := M{"value": regexValue(r)}
	f.applyOptions(field, params)
	return []any{named(n, &fieldItem{method: "regexp", field: field, params: params})}, nil
}

func (f *Formatter) fuzzy(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	fz := n.(*ast.Fuzzy)
	field := f.fieldName(ctx)
	value := ast.UnescapeValue(fz.Term.Value)
	fuzziness := json.Number(fz.Degree.String())
	var it item
	if field != "" && !f.analyzed(field) {
		params := M{"value": value, "fuzziness": fuzziness}
		f.applyOptions(field, params)
		it = &fieldItem{method: "fuzzy", field: field, params: params}
	} else {
		if field == "" {
			return nil, fmt.Errorf("fuzzy query requires a field or a default field")
		}
		params := M{"query": value, "fuzziness": fuzziness, "zero_terms_query": "none"}
		f.applyOptions(field, params)
		it = &fieldItem{method: "match", field: field, params: params}
	}
	return []any{named(n, it)}, nil
}

func (f *Formatter) proximity(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	px := n.(*ast.Proximity)
	field := f.fieldName(ctx)
	if field == "" {
		return nil, fmt.Errorf("proximity query requires a field or a default field")
	}
	value := ast.UnescapeValue(phraseValue(px.Term))
	// Slop only applies to analyzed text; on exact-value fields the proximity
	// degrades to fuzziness.
	if !f.analyzed(field) {
		params := M{"value": value, "fuzziness": json.Number(strconv.Itoa(px.Degree))}
		f.applyOptions(field, params)
		return []any{named(n, &fieldItem{method: "fuzzy", field: field, params: params})}, nil
	}
	params := M{"query": value, "slop": px.Degree}
	f.applyOptions(field, params)
	return []any{named(n, &fieldItem{method: "match_phrase", field: field, params: params})}, nil
}

func (f *Formatter) rangeQuery(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	r := n.(*ast.Range)
	field := f.fieldName(ctx)
	if field == "" {
		return nil, fmt.Errorf("range query requires a field or a default field")
	}
	params := M{}
	if value, ok := boundValue(r.Low); ok {
		if r.IncludeLow {
			params["gte"] = value
		} else {
			params["gt"] = value
		}
	}
	if value, ok := boundValue(r.High); ok {
		if r.IncludeHigh {
			params["lte"] = value
		} else {
			params["lt"] = value
		}
	}
	f.applyOptions(field, params)
	return []any{named(n, &fieldItem{method: "range", field: field, params: params})}, nil
}

// boundValue extracts a range bound, reporting false for the open-bound
// wildcard.
func boundValue(n ast.Node) (string, bool) {
	switch b := n.(type) {
	case *ast.Word:
		if b.Value == ast.Wildcard {
			return "", false
		}
		return ast.UnescapeValue(b.Value), true
	case *ast.Phrase:
		return ast.UnescapeValue(phraseValue(b)), true
	default:
		return ast.UnescapeValue(n.Render(false)), true
	}
}

func (f *Formatter) boost(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	b := n.(*ast.Boost)
	it, err := f.compile(b.Expr, ctx)
	if err != nil {
		return nil, err
	}
	it.addExtra("boost", json.Number(b.Force.String()))
	return []any{named(n, it)}, nil
}

func (f *Formatter) group(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	it, err := f.compile(n.Children()[0], ctx)
	if err != nil {
		return nil, err
	}
	return []any{it}, nil
}

func (f *Formatter) searchField(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	sf := n.(*ast.SearchField)
	segs := appendSegments(fieldSegments(ctx), sf.Name)
	childCtx := ctx.Clone()
	childCtx[fieldsKey] = segs
	it, err := f.compile(sf.Expr, childCtx)
	if err != nil {
		return nil, err
	}
	// Inner search fields have already wrapped their own fragments; wrapping
	// again here would nest the same path twice.
	if needsNesting(it) {
		for _, path := range nestedPrefixes(f.cfg.NestedFields, segs) {
			wrapped := &nestedItem{path: path, query: it}
			// The engine attributes nested matches to the nested query
			// itself, so the envelope borrows the first name found in the
			// wrapped expression. With several named clauses inside one
			// envelope this over-attributes across multi-valued elements;
			// that is the engine's nested model.
			if name := firstName(it); name != "" {
				wrapped.addExtra("_name", name)
			}
			it = wrapped
		}
	}
	return []any{it}, nil
}

func (f *Formatter) operation(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	kind := f.resolveKind(n.Kind())
	for _, child := range n.Children() {
		switch child.Kind() {
		case ast.KindAnd, ast.KindOr, ast.KindUnknown:
			if f.resolveKind(child.Kind()) != kind {
				return nil, &OperatorAmbiguityError{Excerpt: n.Render(false)}
			}
		}
	}
	clause := "must"
	if kind == ast.KindOr {
		clause = "should"
	}
	b := newBoolItem()
	for _, child := range n.Children() {
		it, err := f.compile(child, ctx)
		if err != nil {
			return nil, err
		}
		b.add(clause, it)
	}
	return []any{named(n, b)}, nil
}

func (f *Formatter) resolveKind(k ast.Kind) ast.Kind {
	if k != ast.KindUnknown {
		return k
	}
	if f.cfg.DefaultOperator == config.OperatorMust {
		return ast.KindAnd
	}
	return ast.KindOr
}

func (f *Formatter) must(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	return f.unaryClause(n, ctx, "must")
}

func (f *Formatter) mustNot(v *visitor.Visitor, n ast.Node, ctx visitor.Context) ([]any, error) {
	return f.unaryClause(n, ctx, "must_not")
}

func (f *Formatter) unaryClause(n ast.Node, ctx visitor.Context, clause string) ([]any, error) {
	it, err := f.compile(n.Children()[0], ctx)
	if err != nil {
		return nil, err
	}
	b := newBoolItem()
	b.add(clause, it)
	return []any{named(n, b)}, nil
}

// phraseValue strips the quote delimiters from a phrase.
func phraseValue(p *ast.Phrase) string {
	return strings.TrimSuffix(strings.TrimPrefix(p.Value, `"`), `"`)
}

// regexValue strips the slash delimiters from a regex.
func regexValue(r *ast.Regex) string {
	return strings.TrimSuffix(strings.TrimPrefix(r.Value, "/"), "/")
}

// unescapeKeepWildcards removes backslash escaping except on wildcards,
// which have no literal spelling inside a wildcard query.
func unescapeKeepWildcards(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	escaped := false
	for _, r := range value {
		if escaped {
			if r == '*' || r == '?' {
				b.WriteRune('\\')
			}
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	if escaped {
		b.WriteRune('\\')
	}
	return b.String()
}
