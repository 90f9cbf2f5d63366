// Package config provides configuration for language and formatter selection
// and for the schema knowledge the formatters need.
package config

import "strings"

// LanguageType represents the type of query language to use.
type LanguageType string

const (
	// LanguageLucene represents Lucene-style query syntax
	LanguageLucene LanguageType = "lucene"
)

// FormatterType represents the type of output formatter to use.
type FormatterType string

const (
	// FormatterElastic represents Elasticsearch query DSL output format
	FormatterElastic FormatterType = "elastic"
	// FormatterMongo represents MongoDB BSON output format
	FormatterMongo FormatterType = "mongo"
)

// Operator selects how adjacent expressions without an explicit connector
// combine.
type Operator string

const (
	// OperatorShould combines implicit operands as a union (OR).
	OperatorShould Operator = "should"
	// OperatorMust combines implicit operands as an intersection (AND).
	OperatorMust Operator = "must"
)

// FieldTree describes a hierarchy of document fields: each key is a path
// segment, an empty subtree marks a queryable leaf.
type FieldTree map[string]FieldTree

// NewFieldTree builds a FieldTree from dot-separated leaf paths, so
// NewFieldTree("author.firstname", "author.book.title") declares author and
// author.book as branches with firstname and title leaves.
func NewFieldTree(paths ...string) FieldTree {
	tree := FieldTree{}
	for _, path := range paths {
		node := tree
		for _, seg := range strings.Split(path, ".") {
			sub, ok := node[seg]
			if !ok {
				sub = FieldTree{}
				node[seg] = sub
			}
			node = sub
		}
	}
	return tree
}

// Config represents the configuration for a parser and its formatter.
type Config struct {
	Language  LanguageType
	Formatter FormatterType

	// DefaultField receives term queries that name no field.
	DefaultField string
	// DefaultOperator combines adjacent expressions with no explicit
	// connector.
	DefaultOperator Operator
	// NotAnalyzedFields are queried with exact-value queries (term, wildcard,
	// fuzzy) instead of analyzed ones (match, query_string).
	NotAnalyzedFields []string
	// NestedFields declares fields of the Elasticsearch nested type; queries
	// against their leaves are wrapped in nested queries level by level.
	NestedFields FieldTree
	// ObjectFields declares plain object fields as complete dotted leaf
	// paths; they are queried by their dotted name without nested wrapping.
	ObjectFields []string
	// SubFields are multi-field suffixes (such as "raw" or "keyword")
	// accepted after any declared leaf.
	SubFields []string
	// FieldOptions adds per-field parameters to the generated queries. The
	// special key "match_type" overrides the query type for the field.
	FieldOptions map[string]map[string]any
	// MatchWordAsPhrase makes single words query analyzed fields as phrases.
	MatchWordAsPhrase bool

	// DefaultFields are the document fields searched by unstructured terms in
	// the MongoDB formatter.
	DefaultFields []string
}

// Default returns the default configuration with Lucene language and the
// Elasticsearch formatter.
func Default() *Config {
	return &Config{
		Language:        LanguageLucene,
		Formatter:       FormatterElastic,
		DefaultField:    "text",
		DefaultOperator: OperatorShould,
		DefaultFields:   []string{},
	}
}

// WithLanguage sets the language type and returns the config.
func (c *Config) WithLanguage(lang LanguageType) *Config {
	c.Language = lang
	return c
}

// WithFormatter sets the formatter type and returns the config.
func (c *Config) WithFormatter(formatter FormatterType) *Config {
	c.Formatter = formatter
	return c
}

// WithDefaultField sets the field queried by unstructured terms and returns
// the config.
func (c *Config) WithDefaultField(field string) *Config {
	c.DefaultField = field
	return c
}

// WithDefaultOperator sets the implicit connector and returns the config.
func (c *Config) WithDefaultOperator(op Operator) *Config {
	c.DefaultOperator = op
	return c
}

// WithNotAnalyzedFields sets the fields queried by exact value and returns
// the config.
func (c *Config) WithNotAnalyzedFields(fields ...string) *Config {
	c.NotAnalyzedFields = fields
	return c
}

// WithNestedFields sets the nested field hierarchy and returns the config.
func (c *Config) WithNestedFields(tree FieldTree) *Config {
	c.NestedFields = tree
	return c
}

// WithObjectFields sets the declared object leaf paths and returns the config.
func (c *Config) WithObjectFields(paths ...string) *Config {
	c.ObjectFields = paths
	return c
}

// WithSubFields sets the accepted multi-field suffixes and returns the config.
func (c *Config) WithSubFields(suffixes ...string) *Config {
	c.SubFields = suffixes
	return c
}

// WithFieldOptions sets per-field query parameters and returns the config.
func (c *Config) WithFieldOptions(options map[string]map[string]any) *Config {
	c.FieldOptions = options
	return c
}

// WithMatchWordAsPhrase makes words query analyzed fields as phrases and
// returns the config.
func (c *Config) WithMatchWordAsPhrase(enabled bool) *Config {
	c.MatchWordAsPhrase = enabled
	return c
}

// WithDefaultFields sets the default fields for unstructured queries in the
// MongoDB formatter and returns the config.
func (c *Config) WithDefaultFields(fields []string) *Config {
	c.DefaultFields = fields
	return c
}
