// Package factory provides factory functions for creating parsers and formatters.
package factory

import (
	"fmt"

	"github.com/kyle-williams-1/esonic/config"
	"github.com/kyle-williams-1/esonic/formatter"
	"github.com/kyle-williams-1/esonic/formatter/elastic"
	"github.com/kyle-williams-1/esonic/formatter/mongo"
	"github.com/kyle-williams-1/esonic/language"
	"github.com/kyle-williams-1/esonic/language/lucene"
)

// CreateParser creates a parser based on the language type.
func CreateParser(langType config.LanguageType) (language.Parser, error) {
	switch langType {
	case config.LanguageLucene:
		return lucene.New(), nil
	default:
		return nil, fmt.Errorf("unsupported language type: %s", langType)
	}
}

// CreateElasticFormatter creates an Elasticsearch formatter for the config.
func CreateElasticFormatter(cfg *config.Config) formatter.ElasticFormatter {
	return elastic.NewWithConfig(cfg)
}

// CreateMongoFormatter creates a MongoDB formatter for the config.
func CreateMongoFormatter(cfg *config.Config) formatter.MongoFormatter {
	return mongo.NewWithConfig(cfg)
}
