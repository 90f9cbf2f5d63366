// Package esonic provides a Lucene-style query parser producing search-engine
// query documents. Queries are parsed into a layout-preserving syntax tree and
// compiled for Elasticsearch or MongoDB depending on configuration.
package esonic

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/kyle-williams-1/esonic/ast"
	"github.com/kyle-williams-1/esonic/config"
	"github.com/kyle-williams-1/esonic/factory"
	"github.com/kyle-williams-1/esonic/formatter"
	"github.com/kyle-williams-1/esonic/language"
)

// Parser ties a query-language parser to the formatters built from one
// configuration. A Parser is stateless and safe for concurrent use.
type Parser struct {
	cfg     *config.Config
	parser  language.Parser
	elastic formatter.ElasticFormatter
	mongo   formatter.MongoFormatter
}

// New creates a parser with the default configuration: Lucene syntax and
// Elasticsearch output.
func New() *Parser {
	p, err := NewWithConfig(config.Default())
	if err != nil {
		// The default configuration always names a supported language.
		panic(err)
	}
	return p
}

// NewWithConfig creates a parser for the given configuration.
func NewWithConfig(cfg *config.Config) (*Parser, error) {
	parser, err := factory.CreateParser(cfg.Language)
	if err != nil {
		return nil, err
	}
	return &Parser{
		cfg:     cfg,
		parser:  parser,
		elastic: factory.CreateElasticFormatter(cfg),
		mongo:   factory.CreateMongoFormatter(cfg),
	}, nil
}

// Parse converts a query string into the query document of the configured
// formatter. An empty query produces an empty document.
func Parse(query string) (map[string]any, error) {
	return New().Parse(query)
}

// Parse converts a query string into the query document of the configured
// formatter. An empty query produces an empty document.
func (p *Parser) Parse(query string) (map[string]any, error) {
	if strings.TrimSpace(query) == "" {
		return map[string]any{}, nil
	}
	tree, err := p.parser.Parse(query)
	if err != nil {
		return nil, err
	}
	if p.cfg.Formatter == config.FormatterMongo {
		doc, err := p.mongo.Format(tree)
		if err != nil {
			return nil, err
		}
		return map[string]any(doc), nil
	}
	return p.elastic.Format(tree)
}

// ParseAST parses a query string into its layout-preserving syntax tree
// without compiling it, for callers that inspect or transform queries.
func (p *Parser) ParseAST(query string) (ast.Node, error) {
	return p.parser.Parse(query)
}

// ParseMongo converts a query string into a MongoDB filter document,
// regardless of the configured formatter. An empty query matches everything.
func (p *Parser) ParseMongo(query string) (bson.M, error) {
	if strings.TrimSpace(query) == "" {
		return bson.M{}, nil
	}
	tree, err := p.parser.Parse(query)
	if err != nil {
		return nil, err
	}
	return p.mongo.Format(tree)
}
