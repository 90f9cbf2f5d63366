// Package mongo formats query ASTs as MongoDB BSON filter documents. Values
// are interpreted on the way out: ISO dates become time.Time, numerics become
// float64, booleans become bool, and wildcard terms become anchored $regex
// queries.
package mongo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/kyle-williams-1/esonic/ast"
	"github.com/kyle-williams-1/esonic/config"
	"github.com/kyle-williams-1/esonic/formatter"
)

// Formatter represents a MongoDB BSON formatter for query results.
type Formatter struct {
	defaultFields []string
}

// New creates a MongoDB BSON formatter searching no default fields.
func New() *Formatter {
	return &Formatter{}
}

// NewWithConfig creates a MongoDB BSON formatter. Unstructured terms search
// the config's DefaultFields.
func NewWithConfig(cfg *config.Config) *Formatter {
	return &Formatter{defaultFields: cfg.DefaultFields}
}

var _ formatter.Formatter[bson.M] = (*Formatter)(nil)

// Format converts a parsed query AST into a BSON filter document.
func (f *Formatter) Format(tree ast.Node) (bson.M, error) {
	return f.compile(tree, "")
}

func (f *Formatter) compile(n ast.Node, field string) (bson.M, error) {
	switch node := n.(type) {
	case *ast.Word:
		return f.word(node, field)
	case *ast.Phrase:
		return f.phrase(node, field)
	case *ast.Regex:
		return f.regex(node, field)
	case *ast.SearchField:
		return f.compile(node.Expr, joinField(field, node.Name))
	case *ast.Group:
		return f.compile(node.Expr, field)
	case *ast.FieldGroup:
		return f.compile(node.Expr, field)
	case *ast.Boost:
		// Relevance weights have no BSON equivalent; the operand stands.
		return f.compile(node.Expr, field)
	case *ast.Plus:
		return f.compile(node.Operand, field)
	case *ast.Range:
		return f.rangeQuery(node, field)
	case *ast.Not:
		return f.negate(node.Operand, field)
	case *ast.Prohibit:
		return f.negate(node.Operand, field)
	case *ast.AndOperation:
		return f.and(node.Operands, field)
	case *ast.UnknownOperation:
		return f.and(node.Operands, field)
	case *ast.OrOperation:
		return f.or(node.Operands, field)
	case *ast.Fuzzy:
		return nil, fmt.Errorf("fuzzy queries have no MongoDB equivalent")
	case *ast.Proximity:
		return nil, fmt.Errorf("proximity queries have no MongoDB equivalent")
	default:
		return nil, fmt.Errorf("cannot format %s for MongoDB", n.Kind())
	}
}

func joinField(field, name string) string {
	if field == "" {
		return name
	}
	return field + "." + name
}

func (f *Formatter) word(w *ast.Word, field string) (bson.M, error) {
	value := ast.UnescapeValue(w.Value)
	if field == "" {
		return f.freeText(value)
	}
	parsed, err := f.parseValue(value)
	if err != nil {
		return nil, err
	}
	return bson.M{field: parsed}, nil
}

func (f *Formatter) phrase(p *ast.Phrase, field string) (bson.M, error) {
	value := ast.UnescapeValue(strings.Trim(p.Value, `"`))
	if field == "" {
		return f.freeText(value)
	}
	return bson.M{field: value}, nil
}

func (f *Formatter) regex(r *ast.Regex, field string) (bson.M, error) {
	pattern := strings.TrimSuffix(strings.TrimPrefix(r.Value, "/"), "/")
	if !strings.HasPrefix(pattern, "^") {
		pattern = "^" + pattern
	}
	if !strings.HasSuffix(pattern, "$") {
		pattern = pattern + "$"
	}
	if field == "" {
		return f.freeTextRegex(pattern)
	}
	return bson.M{field: bson.M{"$regex": pattern}}, nil
}

// freeText searches an unstructured term across the default fields with
// case-insensitive regexes, or as a $text search when no default fields are
// configured.
func (f *Formatter) freeText(value string) (bson.M, error) {
	if len(f.defaultFields) == 0 {
		return bson.M{"$text": bson.M{"$search": value}}, nil
	}
	pattern := wildcardPattern(value)
	return f.freeTextRegex(pattern)
}

func (f *Formatter) freeTextRegex(pattern string) (bson.M, error) {
	if len(f.defaultFields) == 0 {
		return nil, errors.New("free text regex requires default fields")
	}
	if len(f.defaultFields) == 1 {
		return bson.M{f.defaultFields[0]: bson.M{"$regex": pattern, "$options": "i"}}, nil
	}
	clauses := make([]bson.M, len(f.defaultFields))
	for i, field := range f.defaultFields {
		clauses[i] = bson.M{field: bson.M{"$regex": pattern, "$options": "i"}}
	}
	return bson.M{"$or": clauses}, nil
}

func (f *Formatter) and(operands []ast.Node, field string) (bson.M, error) {
	docs, err := f.compileAll(operands, field)
	if err != nil {
		return nil, err
	}
	return mergeAnd(docs), nil
}

func (f *Formatter) or(operands []ast.Node, field string) (bson.M, error) {
	docs, err := f.compileAll(operands, field)
	if err != nil {
		return nil, err
	}
	clauses := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		// A nested $or folds into the parent.
		if sub, ok := doc["$or"].([]bson.M); ok && len(doc) == 1 {
			clauses = append(clauses, sub...)
			continue
		}
		clauses = append(clauses, doc)
	}
	return bson.M{"$or": clauses}, nil
}

func (f *Formatter) compileAll(operands []ast.Node, field string) ([]bson.M, error) {
	docs := make([]bson.M, len(operands))
	for i, operand := range operands {
		doc, err := f.compile(operand, field)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}
	return docs, nil
}

// mergeAnd combines AND operands into a single document when their keys do
// not collide, falling back to $and when they do.
func mergeAnd(docs []bson.M) bson.M {
	merged := bson.M{}
	for _, doc := range docs {
		for key, value := range doc {
			if _, exists := merged[key]; exists {
				clauses := make([]bson.M, len(docs))
				copy(clauses, docs)
				return bson.M{"$and": clauses}
			}
			merged[key] = value
		}
	}
	return merged
}

// negate inverts the operand: scalar equality becomes $ne, operator documents
// become $not, anything else $nor.
func (f *Formatter) negate(operand ast.Node, field string) (bson.M, error) {
	doc, err := f.compile(operand, field)
	if err != nil {
		return nil, err
	}
	if len(doc) == 1 {
		for key, value := range doc {
			if strings.HasPrefix(key, "$") {
				break
			}
			if sub, ok := value.(bson.M); ok {
				return bson.M{key: bson.M{"$not": sub}}, nil
			}
			return bson.M{key: bson.M{"$ne": value}}, nil
		}
	}
	return bson.M{"$nor": []bson.M{doc}}, nil
}

func (f *Formatter) rangeQuery(r *ast.Range, field string) (bson.M, error) {
	if field == "" {
		return nil, errors.New("range queries require a field")
	}
	bounds := bson.M{}
	if value, ok, err := f.bound(r.Low); err != nil {
		return nil, err
	} else if ok {
		if r.IncludeLow {
			bounds["$gte"] = value
		} else {
			bounds["$gt"] = value
		}
	}
	if value, ok, err := f.bound(r.High); err != nil {
		return nil, err
	} else if ok {
		if r.IncludeHigh {
			bounds["$lte"] = value
		} else {
			bounds["$lt"] = value
		}
	}
	if len(bounds) == 0 {
		return nil, errors.New("invalid range: both bounds cannot be wildcards")
	}
	return bson.M{field: bounds}, nil
}

// bound interprets a range bound, reporting false for the open-bound
// wildcard.
func (f *Formatter) bound(n ast.Node) (interface{}, bool, error) {
	var raw string
	switch b := n.(type) {
	case *ast.Word:
		if b.Value == ast.Wildcard {
			return nil, false, nil
		}
		raw = ast.UnescapeValue(b.Value)
	case *ast.Phrase:
		raw = ast.UnescapeValue(strings.Trim(b.Value, `"`))
	default:
		return nil, false, fmt.Errorf("unsupported range bound %s", n.Kind())
	}
	if f.isDateLike(raw) {
		if date, err := f.parseDate(raw); err == nil {
			return date, true, nil
		}
	}
	if num, err := strconv.ParseFloat(raw, 64); err == nil {
		return num, true, nil
	}
	return raw, true, nil
}

// parseValue parses a field value, handling comparisons, wildcards, dates,
// numbers and booleans.
func (f *Formatter) parseValue(valueStr string) (interface{}, error) {
	parsers := []func(string) (interface{}, error, bool){
		f.tryParseComparison,
		f.tryParseWildcard,
		f.tryParseDate,
		f.tryParseNumber,
		f.tryParseBoolean,
	}
	for _, parser := range parsers {
		if result, err, handled := parser(valueStr); handled {
			return result, err
		}
	}
	return valueStr, nil
}

// tryParseComparison attempts to parse a comparison value
func (f *Formatter) tryParseComparison(valueStr string) (interface{}, error, bool) {
	if strings.HasPrefix(valueStr, ">=") || strings.HasPrefix(valueStr, "<=") || strings.HasPrefix(valueStr, ">") || strings.HasPrefix(valueStr, "<") {
		result, err := f.parseComparison(valueStr)
		return result, err, true
	}
	return nil, nil, false
}

// tryParseWildcard attempts to parse a wildcard value
func (f *Formatter) tryParseWildcard(valueStr string) (interface{}, error, bool) {
	if strings.Contains(valueStr, "*") {
		return bson.M{"$regex": wildcardPattern(valueStr)}, nil, true
	}
	return nil, nil, false
}

// tryParseDate attempts to parse a date value
func (f *Formatter) tryParseDate(valueStr string) (interface{}, error, bool) {
	if !f.isDateLike(valueStr) {
		return nil, nil, false
	}
	if date, err := f.parseDate(valueStr); err == nil {
		return date, nil, true
	}
	return nil, nil, false
}

// tryParseNumber attempts to parse a number value
func (f *Formatter) tryParseNumber(valueStr string) (interface{}, error, bool) {
	if num, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return num, nil, true
	}
	return nil, nil, false
}

// tryParseBoolean attempts to parse a boolean value
func (f *Formatter) tryParseBoolean(valueStr string) (interface{}, error, bool) {
	if valueStr == "true" || valueStr == "false" {
		return valueStr == "true", nil, true
	}
	return nil, nil, false
}

// parseComparison parses comparison operators like >value, <value, >=value, <=value
func (f *Formatter) parseComparison(valueStr string) (interface{}, error) {
	operator, value, err := f.extractOperatorAndValue(valueStr)
	if err != nil {
		return nil, err
	}
	value = strings.TrimSpace(value)
	if f.isDateLike(value) {
		date, err := f.parseDate(value)
		if err != nil {
			return nil, err
		}
		return bson.M{operator: date}, nil
	}
	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number: %v", err)
	}
	return bson.M{operator: num}, nil
}

// extractOperatorAndValue extracts the operator and value from a comparison string
func (f *Formatter) extractOperatorAndValue(valueStr string) (string, string, error) {
	comparisonOperators := []struct {
		prefix   string
		operator string
	}{
		{">=", "$gte"},
		{"<=", "$lte"},
		{">", "$gt"},
		{"<", "$lt"},
	}
	for _, op := range comparisonOperators {
		if strings.HasPrefix(valueStr, op.prefix) {
			return op.operator, valueStr[len(op.prefix):], nil
		}
	}
	return "", "", errors.New("invalid comparison operator")
}

// isDateLike checks if a string looks like a date
func (f *Formatter) isDateLike(s string) bool {
	if s == ast.Wildcard {
		return false
	}
	return strings.Contains(s, "-") || strings.Contains(s, "/") ||
		strings.Contains(s, ":") || strings.Contains(s, "T")
}

// parseDate parses a date string in various formats
func (f *Formatter) parseDate(dateStr string) (time.Time, error) {
	if date, err := time.Parse(time.RFC3339, dateStr); err == nil {
		return date, nil
	}
	formats := []string{
		"2006-01-02",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"01/02/2006",
		"2006/01/02",
	}
	for _, format := range formats {
		if date, err := time.Parse(format, dateStr); err == nil {
			return date, nil
		}
	}
	return time.Time{}, errors.New("unable to parse date: " + dateStr)
}

// wildcardPattern converts a wildcard term into an anchored regex pattern.
func wildcardPattern(valueStr string) string {
	pattern := strings.ReplaceAll(valueStr, "*", ".*")
	starts := strings.HasPrefix(valueStr, "*")
	ends := strings.HasSuffix(valueStr, "*")
	switch {
	case starts && ends:
		// *J* - contains pattern
	case starts:
		// *J - ends with pattern
		pattern = pattern + "$"
	case ends:
		// J* - starts with pattern
		pattern = "^" + pattern
	default:
		// J*K - starts and ends with specific patterns
		pattern = "^" + pattern + "$"
	}
	return pattern
}
