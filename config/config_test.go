package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, LanguageLucene, cfg.Language)
	assert.Equal(t, FormatterElastic, cfg.Formatter)
	assert.Equal(t, "text", cfg.DefaultField)
	assert.Equal(t, OperatorShould, cfg.DefaultOperator)
}

func TestChainedBuilders(t *testing.T) {
	cfg := Default().
		WithFormatter(FormatterMongo).
		WithDefaultField("body").
		WithDefaultOperator(OperatorMust).
		WithNotAnalyzedFields("status", "sku").
		WithSubFields("keyword").
		WithMatchWordAsPhrase(true).
		WithDefaultFields([]string{"title", "body"})

	assert.Equal(t, FormatterMongo, cfg.Formatter)
	assert.Equal(t, "body", cfg.DefaultField)
	assert.Equal(t, OperatorMust, cfg.DefaultOperator)
	assert.Equal(t, []string{"status", "sku"}, cfg.NotAnalyzedFields)
	assert.Equal(t, []string{"keyword"}, cfg.SubFields)
	assert.True(t, cfg.MatchWordAsPhrase)
	assert.Equal(t, []string{"title", "body"}, cfg.DefaultFields)
}

func TestNewFieldTree(t *testing.T) {
	tree := NewFieldTree("author.firstname", "author.book.title", "tags")

	assert.Len(t, tree, 2)
	assert.Len(t, tree["author"], 2)
	assert.Empty(t, tree["author"]["firstname"])
	assert.Empty(t, tree["author"]["book"]["title"])
	assert.Empty(t, tree["tags"])
}
