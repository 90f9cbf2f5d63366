package elastic

import "fmt"

// NestedSearchFieldError reports a query against a nested object itself
// rather than one of its fields.
type NestedSearchFieldError struct {
	Field string
}

func (e *NestedSearchFieldError) Error() string {
	return fmt.Sprintf("%q is a nested object: query one of its inner fields instead", e.Field)
}

// ObjectSearchFieldError reports a field path that diverges from the
// declared object structure, either naming an unknown inner field or
// stopping before a leaf.
type ObjectSearchFieldError struct {
	Field string
}

func (e *ObjectSearchFieldError) Error() string {
	return fmt.Sprintf("%q is not a queryable field path", e.Field)
}

// OperatorAmbiguityError reports a query mixing explicit AND and OR at the
// same level without parentheses, whose boolean reading would otherwise be
// decided silently by precedence.
type OperatorAmbiguityError struct {
	Excerpt string
}

func (e *OperatorAmbiguityError) Error() string {
	return fmt.Sprintf("explicit AND and OR mix without parentheses in %q: group the operands", e.Excerpt)
}
