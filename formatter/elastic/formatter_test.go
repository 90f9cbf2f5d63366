package elastic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyle-williams-1/esonic/ast"
	"github.com/kyle-williams-1/esonic/config"
	"github.com/kyle-williams-1/esonic/language/lucene"
	"github.com/kyle-williams-1/esonic/naming"
)

func parse(t *testing.T, query string) ast.Node {
	t.Helper()
	node, err := lucene.New().Parse(query)
	require.NoError(t, err)
	return node
}

func format(t *testing.T, f *Formatter, query string) map[string]any {
	t.Helper()
	doc, err := f.Format(parse(t, query))
	require.NoError(t, err)
	return doc
}

func TestFormatLeafQueries(t *testing.T) {
	cfg := config.Default().WithNotAnalyzedFields("status", "sku")
	f := NewWithConfig(cfg)

	tests := []struct {
		name  string
		query string
		want  M
	}{
		{
			name:  "analyzed field word becomes match",
			query: "title:foo",
			want:  M{"match": M{"title": M{"query": "foo", "zero_terms_query": "none"}}},
		},
		{
			name:  "not-analyzed field word becomes term",
			query: "status:active",
			want:  M{"term": M{"status": M{"value": "active"}}},
		},
		{
			name:  "phrase becomes match_phrase",
			query: `title:"quick fox"`,
			want:  M{"match_phrase": M{"title": M{"query": "quick fox"}}},
		},
		{
			name:  "phrase on not-analyzed field becomes term",
			query: `status:"on hold"`,
			want:  M{"term": M{"status": M{"value": "on hold"}}},
		},
		{
			name:  "fieldless word goes to the default field",
			query: "foo",
			want:  M{"match": M{"text": M{"query": "foo", "zero_terms_query": "none"}}},
		},
		{
			name:  "bare wildcard becomes exists",
			query: "title:*",
			want:  M{"exists": M{"field": "title"}},
		},
		{
			name:  "wildcard on analyzed field becomes query_string",
			query: "title:fo*o",
			want: M{"query_string": M{
				"default_field":          "title",
				"query":                  "fo*o",
				"analyze_wildcard":       true,
				"allow_leading_wildcard": true,
			}},
		},
		{
			name:  "wildcard on not-analyzed field becomes wildcard",
			query: "sku:AB-12*",
			want:  M{"wildcard": M{"sku": M{"value": "AB-12*"}}},
		},
		{
			name:  "regex becomes regexp",
			query: "title:/joh?n/",
			want:  M{"regexp": M{"title": M{"value": "joh?n"}}},
		},
		{
			name:  "escaped space is unescaped",
			query: `title:sp\ ace`,
			want:  M{"match": M{"title": M{"query": "sp ace", "zero_terms_query": "none"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, map[string]any(tt.want), format(t, f, tt.query))
		})
	}
}

func TestFormatRanges(t *testing.T) {
	f := New()

	tests := []struct {
		name  string
		query string
		want  M
	}{
		{
			name:  "inclusive range",
			query: "age:[20 TO 30]",
			want:  M{"range": M{"age": M{"gte": "20", "lte": "30"}}},
		},
		{
			name:  "exclusive high bound",
			query: "age:[20 TO 30}",
			want:  M{"range": M{"age": M{"gte": "20", "lt": "30"}}},
		},
		{
			name:  "exclusive low bound",
			query: "age:{20 TO 30]",
			want:  M{"range": M{"age": M{"gt": "20", "lte": "30"}}},
		},
		{
			name:  "open low bound is omitted",
			query: "age:[* TO 30]",
			want:  M{"range": M{"age": M{"lte": "30"}}},
		},
		{
			name:  "open high bound is omitted",
			query: "date:[2023-01-05T10:30:00Z TO *]",
			want:  M{"range": M{"date": M{"gte": "2023-01-05T10:30:00Z"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, map[string]any(tt.want), format(t, f, tt.query))
		})
	}
}

func TestFormatApproximations(t *testing.T) {
	cfg := config.Default().WithNotAnalyzedFields("sku")
	f := NewWithConfig(cfg)

	t.Run("fuzzy on analyzed field", func(t *testing.T) {
		want := M{"match": M{"title": M{
			"query":            "fox",
			"fuzziness":        json.Number("0.5"),
			"zero_terms_query": "none",
		}}}
		assert.Equal(t, map[string]any(want), format(t, f, "title:fox~"))
	})

	t.Run("fuzzy on not-analyzed field", func(t *testing.T) {
		want := M{"fuzzy": M{"sku": M{"value": "fox", "fuzziness": json.Number("2")}}}
		assert.Equal(t, map[string]any(want), format(t, f, "sku:fox~2"))
	})

	t.Run("proximity becomes match_phrase with slop", func(t *testing.T) {
		want := M{"match_phrase": M{"title": M{"query": "quick fox", "slop": 3}}}
		assert.Equal(t, map[string]any(want), format(t, f, `title:"quick fox"~3`))
	})

	t.Run("proximity on not-analyzed field degrades to fuzziness", func(t *testing.T) {
		want := M{"fuzzy": M{"sku": M{"value": "quick fox", "fuzziness": json.Number("3")}}}
		assert.Equal(t, map[string]any(want), format(t, f, `sku:"quick fox"~3`))
	})

	t.Run("boost lands in the query params", func(t *testing.T) {
		want := M{"match": M{"title": M{
			"query":            "foo",
			"zero_terms_query": "none",
			"boost":            json.Number("2"),
		}}}
		assert.Equal(t, map[string]any(want), format(t, f, "title:foo^2"))
	})
}

func TestFormatBoolQueries(t *testing.T) {
	f := New()
	match := func(value string) any {
		return M{"match": M{"text": M{"query": value, "zero_terms_query": "none"}}}
	}

	t.Run("and becomes must", func(t *testing.T) {
		want := M{"bool": M{"must": []any{match("a"), match("b"), match("c")}}}
		assert.Equal(t, map[string]any(want), format(t, f, "a AND b AND c"))
	})

	t.Run("or becomes should", func(t *testing.T) {
		want := M{"bool": M{"should": []any{match("a"), match("b")}}}
		assert.Equal(t, map[string]any(want), format(t, f, "a OR b"))
	})

	t.Run("implicit operation follows the default operator", func(t *testing.T) {
		want := M{"bool": M{"should": []any{match("a"), match("b")}}}
		assert.Equal(t, map[string]any(want), format(t, f, "a b"))

		strict := NewWithConfig(config.Default().WithDefaultOperator(config.OperatorMust))
		want = M{"bool": M{"must": []any{match("a"), match("b")}}}
		assert.Equal(t, map[string]any(want), format(t, strict, "a b"))
	})

	t.Run("implicit operands flatten into a matching explicit operation", func(t *testing.T) {
		want := M{"bool": M{"should": []any{match("a"), match("b"), match("c")}}}
		assert.Equal(t, map[string]any(want), format(t, f, "a b OR c"))
	})

	t.Run("negation merges into the enclosing must", func(t *testing.T) {
		want := M{"bool": M{"must": []any{match("a")}, "must_not": []any{match("b")}}}
		assert.Equal(t, map[string]any(want), format(t, f, "a AND NOT b"))
	})

	t.Run("prohibit compiles like not", func(t *testing.T) {
		want := M{"bool": M{"must_not": []any{match("b")}}}
		assert.Equal(t, map[string]any(want), format(t, f, "-b"))
	})

	t.Run("double negation stays nested", func(t *testing.T) {
		want := M{"bool": M{"must_not": []any{
			M{"bool": M{"must_not": []any{match("b")}}},
		}}}
		assert.Equal(t, map[string]any(want), format(t, f, "NOT -b"))
	})

	t.Run("plus requires its operand", func(t *testing.T) {
		want := M{"bool": M{"must": []any{match("a")}}}
		assert.Equal(t, map[string]any(want), format(t, f, "+a"))
	})

	t.Run("groups bound the combination", func(t *testing.T) {
		want := M{"bool": M{"should": []any{
			match("a"),
			M{"bool": M{"must": []any{match("b"), match("c")}}},
		}}}
		assert.Equal(t, map[string]any(want), format(t, f, "a OR (b AND c)"))
	})
}

func TestFormatOperatorAmbiguity(t *testing.T) {
	t.Run("explicit mix without parentheses", func(t *testing.T) {
		_, err := New().Format(parse(t, "a OR b AND c"))
		var ambiguityErr *OperatorAmbiguityError
		require.ErrorAs(t, err, &ambiguityErr)
		assert.Contains(t, ambiguityErr.Excerpt, "AND")
	})

	t.Run("implicit mix against the default operator", func(t *testing.T) {
		strict := NewWithConfig(config.Default().WithDefaultOperator(config.OperatorMust))
		_, err := strict.Format(parse(t, "a b OR c"))
		var ambiguityErr *OperatorAmbiguityError
		require.ErrorAs(t, err, &ambiguityErr)
	})

	t.Run("parentheses disambiguate", func(t *testing.T) {
		_, err := New().Format(parse(t, "a OR (b AND c)"))
		require.NoError(t, err)
	})
}

func TestFormatNestedFields(t *testing.T) {
	cfg := config.Default().
		WithNestedFields(config.NewFieldTree("author.firstname", "author.book.title")).
		WithObjectFields("meta.title").
		WithSubFields("keyword")
	f := NewWithConfig(cfg)

	match := func(field, value string) M {
		return M{"match": M{field: M{"query": value, "zero_terms_query": "none"}}}
	}

	t.Run("single nested level", func(t *testing.T) {
		want := M{"nested": M{
			"path":  "author",
			"query": match("author.firstname", "John"),
		}}
		assert.Equal(t, map[string]any(want), format(t, f, "author.firstname:John"))
	})

	t.Run("two nested levels wrap outward", func(t *testing.T) {
		want := M{"nested": M{
			"path": "author",
			"query": M{"nested": M{
				"path":  "author.book",
				"query": match("author.book.title", "Butterfly"),
			}},
		}}
		assert.Equal(t, map[string]any(want), format(t, f, "author.book.title:Butterfly"))
	})

	t.Run("chained fields are not wrapped twice", func(t *testing.T) {
		dotted := format(t, f, "author.book.title:Butterfly")
		chained := format(t, f, "author:book:title:Butterfly")
		grouped := format(t, f, "author:(book.title:Butterfly)")
		assert.Equal(t, dotted, chained)
		assert.Equal(t, dotted, grouped)
	})

	t.Run("bool of bare leaves is wrapped as a whole", func(t *testing.T) {
		want := M{"nested": M{
			"path": "author",
			"query": M{"bool": M{"should": []any{
				match("author.firstname", "John"),
				match("author.firstname", "Jane"),
			}}},
		}}
		assert.Equal(t, map[string]any(want), format(t, f, "author.firstname:(John OR Jane)"))
	})

	t.Run("nested envelope takes the first inner name", func(t *testing.T) {
		tree := parse(t, "author.firstname:John")
		naming.AutoName(tree)
		doc, err := f.Format(tree)
		require.NoError(t, err)

		nested := doc["nested"].(map[string]any)
		assert.Equal(t, "a", nested["_name"])
		inner := nested["query"].(map[string]any)["match"].(map[string]any)["author.firstname"].(map[string]any)
		assert.Equal(t, "a", inner["_name"])
	})

	t.Run("nested bool names the envelope after its operation", func(t *testing.T) {
		tree := parse(t, "author.firstname:(John OR Jane)")
		naming.AutoName(tree)
		doc, err := f.Format(tree)
		require.NoError(t, err)

		nested := doc["nested"].(map[string]any)
		assert.Equal(t, "a", nested["_name"])
		boolBody := nested["query"].(map[string]any)["bool"].(map[string]any)
		assert.Equal(t, "a", boolBody["_name"])
		first := boolBody["should"].([]any)[0].(map[string]any)["match"].(map[string]any)["author.firstname"].(map[string]any)
		assert.Equal(t, "b", first["_name"])
	})

	t.Run("sub field suffix is allowed", func(t *testing.T) {
		want := M{"nested": M{
			"path":  "author",
			"query": match("author.firstname.keyword", "John"),
		}}
		assert.Equal(t, map[string]any(want), format(t, f, "author.firstname.keyword:John"))
	})

	t.Run("object field is queried by dotted name", func(t *testing.T) {
		assert.Equal(t, map[string]any(match("meta.title", "x")), format(t, f, "meta.title:x"))
	})

	t.Run("querying a nested object itself fails", func(t *testing.T) {
		_, err := f.Format(parse(t, "author:John"))
		var nestedErr *NestedSearchFieldError
		require.ErrorAs(t, err, &nestedErr)
		assert.Equal(t, "author", nestedErr.Field)
	})

	t.Run("unknown inner field fails", func(t *testing.T) {
		_, err := f.Format(parse(t, "author.nickname:John"))
		var objectErr *ObjectSearchFieldError
		require.ErrorAs(t, err, &objectErr)
		assert.Equal(t, "author.nickname", objectErr.Field)
	})

	t.Run("incomplete object path fails", func(t *testing.T) {
		_, err := f.Format(parse(t, "meta:x"))
		var objectErr *ObjectSearchFieldError
		require.ErrorAs(t, err, &objectErr)
	})

	t.Run("undeclared simple fields pass", func(t *testing.T) {
		_, err := f.Format(parse(t, "title:x"))
		require.NoError(t, err)
	})
}

func TestFormatFieldOptions(t *testing.T) {
	t.Run("match_type override", func(t *testing.T) {
		cfg := config.Default().WithFieldOptions(map[string]map[string]any{
			"title": {"match_type": "match_phrase", "analyzer": "english"},
		})
		want := M{"match_phrase": M{"title": M{"query": "foo", "analyzer": "english"}}}
		assert.Equal(t, map[string]any(want), format(t, NewWithConfig(cfg), "title:foo"))
	})

	t.Run("match word as phrase", func(t *testing.T) {
		cfg := config.Default().WithMatchWordAsPhrase(true)
		want := M{"match_phrase": M{"title": M{"query": "foo"}}}
		assert.Equal(t, map[string]any(want), format(t, NewWithConfig(cfg), "title:foo"))
	})
}

func TestFormatNamedQueries(t *testing.T) {
	tree := parse(t, "breakfast AND spam")
	names := naming.AutoName(tree)
	require.Len(t, names, 3)

	doc, err := New().Format(tree)
	require.NoError(t, err)

	boolBody := doc["bool"].(map[string]any)
	assert.Equal(t, "a", boolBody["_name"])
	must := boolBody["must"].([]any)
	require.Len(t, must, 2)
	first := must[0].(map[string]any)["match"].(map[string]any)["text"].(map[string]any)
	assert.Equal(t, "b", first["_name"])
}
