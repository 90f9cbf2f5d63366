package esonic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/kyle-williams-1/esonic/config"
	"github.com/kyle-williams-1/esonic/language/lucene"
)

func TestParseDefaultsToElastic(t *testing.T) {
	doc, err := Parse("title:fox")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"match": map[string]any{
			"title": map[string]any{"query": "fox", "zero_terms_query": "none"},
		},
	}, doc)
}

func TestParseEmptyQuery(t *testing.T) {
	doc, err := Parse("   ")
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestParsePropagatesSyntaxErrors(t *testing.T) {
	_, err := Parse("(unclosed")
	require.Error(t, err)
	var syntaxErr *lucene.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestParseWithMongoFormatter(t *testing.T) {
	cfg := config.Default().WithFormatter(config.FormatterMongo)
	p, err := NewWithConfig(cfg)
	require.NoError(t, err)

	doc, err := p.Parse("name:John AND age:>=30")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name": "John",
		"age":  bson.M{"$gte": 30.0},
	}, doc)
}

func TestParseMongoIgnoresConfiguredFormatter(t *testing.T) {
	doc, err := New().ParseMongo("active:true")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"active": true}, doc)
}

func TestParseAST(t *testing.T) {
	tree, err := New().ParseAST("a AND (b OR c)")
	require.NoError(t, err)
	assert.Equal(t, "a AND (b OR c)", tree.Render(true))
}

func TestNewWithConfigRejectsUnknownLanguage(t *testing.T) {
	cfg := config.Default().WithLanguage("sql")
	_, err := NewWithConfig(cfg)
	assert.Error(t, err)
}
