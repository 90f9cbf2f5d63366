// Package ast defines the abstract syntax tree produced by query language
// parsers. Nodes keep track of the whitespace and character offsets of the
// original text, so a parsed tree can be rendered back byte-for-byte.
package ast

import "strings"

// Kind identifies the concrete kind of a node. A few extra values act as
// family kinds used by traversal handler lookup: KindTerm covers Word, Phrase
// and Regex; KindOperation covers And, Or and Unknown; KindUnary covers Plus,
// Not and Prohibit; KindAny matches every node.
type Kind int

const (
	KindWord Kind = iota
	KindPhrase
	KindRegex
	KindSearchField
	KindGroup
	KindFieldGroup
	KindRange
	KindFuzzy
	KindProximity
	KindBoost
	KindAnd
	KindOr
	KindUnknown
	KindPlus
	KindNot
	KindProhibit

	// Family kinds. No node ever reports these from Kind(); they are valid
	// only as handler registration keys.
	KindTerm
	KindOperation
	KindUnary
	KindAny
)

var kindNames = map[Kind]string{
	KindWord:        "word",
	KindPhrase:      "phrase",
	KindRegex:       "regex",
	KindSearchField: "search_field",
	KindGroup:       "group",
	KindFieldGroup:  "field_group",
	KindRange:       "range",
	KindFuzzy:       "fuzzy",
	KindProximity:   "proximity",
	KindBoost:       "boost",
	KindAnd:         "and_operation",
	KindOr:          "or_operation",
	KindUnknown:     "unknown_operation",
	KindPlus:        "plus",
	KindNot:         "not",
	KindProhibit:    "prohibit",
	KindTerm:        "term",
	KindOperation:   "operation",
	KindUnary:       "unary",
	KindAny:         "any",
}

// String returns a stable lowercase name for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// FallbackChain returns the handler lookup order for a concrete kind, from
// most specific to least specific: the kind itself, then its family kind (if
// any), then KindAny.
func FallbackChain(k Kind) []Kind {
	switch k {
	case KindWord, KindPhrase, KindRegex:
		return []Kind{k, KindTerm, KindAny}
	case KindAnd, KindOr, KindUnknown:
		return []Kind{k, KindOperation, KindAny}
	case KindPlus, KindNot, KindProhibit:
		return []Kind{k, KindUnary, KindAny}
	default:
		return []Kind{k, KindAny}
	}
}

// Node is implemented by every AST node.
//
// Head and Tail hold the whitespace a node owns before and after its own
// content. Pos and Size locate the content (head and tail excluded) in the
// original text; both are -1 on synthetically constructed nodes.
//
// Equal compares kind, kind-specific attributes and children recursively;
// layout and query names are ignored.
type Node interface {
	Kind() Kind
	Children() []Node
	// SetChildren replaces the node's children. It returns an error when the
	// number (or required kind) of children does not fit the node.
	SetChildren([]Node) error
	Equal(Node) bool
	// Render returns the node's text. With withHeadTail the original layout
	// (whitespace, exact degree spellings) is reproduced so that a node
	// parsed from text renders back to the exact input. Without it the
	// canonical minimal form is produced, operators single-spaced.
	Render(withHeadTail bool) string
	String() string

	Head() string
	Tail() string
	SetHead(string)
	SetTail(string)
	Pos() int
	Size() int
	SetSpan(pos, size int)
	// Span returns the (start, end) offsets of the node, content only or
	// including head/tail. Returns (-1, -1) when the node carries no span.
	Span(withHeadTail bool) (int, int)

	QueryName() string
	SetQueryName(string)

	// CloneShell copies the node's attributes and layout but leaves the
	// children empty. They must be reassigned with SetChildren before the
	// clone takes part in equality comparisons or rendering.
	CloneShell() Node
}

// layout carries the surface-text bookkeeping shared by all nodes.
type layout struct {
	head, tail string
	pos, size  int
	name       string
}

func newLayout() layout {
	return layout{pos: -1, size: -1}
}

func (l *layout) Head() string            { return l.head }
func (l *layout) Tail() string            { return l.tail }
func (l *layout) SetHead(head string)     { l.head = head }
func (l *layout) SetTail(tail string)     { l.tail = tail }
func (l *layout) Pos() int                { return l.pos }
func (l *layout) Size() int               { return l.size }
func (l *layout) SetSpan(pos, size int)   { l.pos, l.size = pos, size }
func (l *layout) QueryName() string       { return l.name }
func (l *layout) SetQueryName(name string) { l.name = name }

func (l *layout) span(withHeadTail bool) (int, int) {
	if l.pos < 0 {
		return -1, -1
	}
	start, end := l.pos, l.pos+l.size
	if withHeadTail {
		start -= len(l.head)
		end += len(l.tail)
	}
	return start, end
}

// wrap surrounds the minimal or raw content with the owned whitespace.
func (l *layout) wrap(content string, withHeadTail bool) string {
	if !withHeadTail {
		return content
	}
	return l.head + content + l.tail
}

func equalNodes(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func equalChildren(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalNodes(a[i], b[i]) {
			return false
		}
	}
	return true
}

func renderAll(nodes []Node, sep string, withHeadTail bool) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.Render(withHeadTail)
	}
	return strings.Join(parts, sep)
}

// UnescapeValue removes lucene backslash escaping from a raw term value,
// turning every `\x` sequence into `x`.
func UnescapeValue(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	escaped := false
	for _, r := range value {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	if escaped {
		b.WriteRune('\\')
	}
	return b.String()
}

// HasUnescapedWildcard reports whether the raw value contains a `*` or `?`
// that is not protected by a backslash.
func HasUnescapedWildcard(value string) bool {
	escaped := false
	for _, r := range value {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '*', '?':
			return true
		}
	}
	return false
}
