package lint

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyle-williams-1/esonic/ast"
	"github.com/kyle-williams-1/esonic/language/lucene"
)

func TestCheckParsedQueriesAreClean(t *testing.T) {
	queries := []string{
		"breakfast AND (spam OR eggs)",
		`title:"fish and chips"~3 OR author.name:Tol*`,
		"age:[18 TO 65] AND NOT active:false",
	}
	for _, query := range queries {
		tree, err := lucene.New().Parse(query)
		require.NoError(t, err)
		assert.Empty(t, Check(tree), query)
	}
}

func TestCheckFieldName(t *testing.T) {
	tree := ast.NewSearchField("bad name", ast.NewWord("x"))
	diags := Check(tree)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0], "not a valid field name")
}

func TestCheckWordWhitespace(t *testing.T) {
	tree := ast.NewWord("two words")
	diags := Check(tree)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0], "whitespace")
}

func TestCheckNegativeDegrees(t *testing.T) {
	fuzzy := ast.NewFuzzy(ast.NewWord("fox"), decimal.NewFromInt(-1))
	diags := Check(fuzzy)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0], "negative")

	prox := ast.NewProximity(ast.NewPhrase(`"quick fox"`), -2)
	diags = Check(prox)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0], "negative")
}

func TestCheckMissingTerms(t *testing.T) {
	fuzzy := &ast.Fuzzy{}
	assert.Contains(t, Check(fuzzy), "fuzzy modifier has no word to apply to")
}

func TestCheckGroupMisuse(t *testing.T) {
	t.Run("field group outside a search field", func(t *testing.T) {
		tree := ast.NewFieldGroup(ast.NewWord("x"))
		diags := Check(tree)
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0], "outside a search field")
	})

	t.Run("plain group under a search field", func(t *testing.T) {
		tree := ast.NewSearchField("title", ast.NewGroup(ast.NewWord("x")))
		diags := Check(tree)
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0], "should be a field group")
	})
}

func TestCheckAccumulates(t *testing.T) {
	tree := ast.NewAnd(
		ast.NewSearchField("bad name", ast.NewWord("x")),
		ast.NewWord("two words"),
		ast.NewFieldGroup(ast.NewWord("y")),
	)
	assert.Len(t, Check(tree), 3)
}
