// Package language provides interfaces for query language parsers.
package language

import "github.com/kyle-williams-1/esonic/ast"

// Parser represents a query language parser producing a layout-preserving AST.
type Parser interface {
	Parse(query string) (ast.Node, error)
}
