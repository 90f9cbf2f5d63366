// Package formatter provides interfaces for query result formatters.
package formatter

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/kyle-williams-1/esonic/ast"
)

// Formatter represents a query formatter for a specific output type.
type Formatter[T any] interface {
	Format(tree ast.Node) (T, error)
}

// Type aliases for the built-in output types
type (
	ElasticFormatter = Formatter[map[string]any]
	MongoFormatter   = Formatter[bson.M]
)
