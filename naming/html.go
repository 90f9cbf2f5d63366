package naming

import (
	"html"
	"strings"

	"github.com/kyle-williams-1/esonic/ast"
)

// HTMLMarker renders a query back to its original text as HTML, wrapping the
// nodes carrying a match verdict in spans. By default the rendering is
// parsimonious: a child with the same verdict as its enclosing span is not
// wrapped again.
type HTMLMarker struct {
	okClass, koClass string
	parsimonious     bool
}

// NewHTMLMarker creates a marker with the "ok" and "ko" span classes and
// parsimonious wrapping.
func NewHTMLMarker() *HTMLMarker {
	return &HTMLMarker{okClass: "ok", koClass: "ko", parsimonious: true}
}

// WithClasses sets the span classes used for positive and negative verdicts
// and returns the marker.
func (m *HTMLMarker) WithClasses(okClass, koClass string) *HTMLMarker {
	m.okClass, m.koClass = okClass, koClass
	return m
}

// WithExhaustiveMarks makes the marker wrap every node carrying a verdict,
// even when the enclosing span already shows the same one.
func (m *HTMLMarker) WithExhaustiveMarks() *HTMLMarker {
	m.parsimonious = false
	return m
}

// Mark renders the tree with the ok and ko paths produced by
// MatchingPropagator.Propagate highlighted. The text between the tags is the
// exact original query text, HTML-escaped.
func (m *HTMLMarker) Mark(tree ast.Node, ok, ko PathSet) string {
	return m.render(tree, Path{}, ok, ko, "")
}

func (m *HTMLMarker) render(n ast.Node, path Path, ok, ko PathSet, inherited string) string {
	class := ""
	if ok.Contains(path) {
		class = m.okClass
	} else if ko.Contains(path) {
		class = m.koClass
	}
	inner := inherited
	if class != "" {
		inner = class
	}
	content := m.content(n, path, ok, ko, inner)
	if class == "" || (m.parsimonious && class == inherited) {
		return content
	}
	return `<span class="` + class + `">` + content + `</span>`
}

// content renders a node's own text with its sub-query children marked
// recursively. Value-carrying nodes and leaves render as plain escaped text.
func (m *HTMLMarker) content(n ast.Node, path Path, ok, ko PathSet, inherited string) string {
	esc := html.EscapeString
	mark := func(idx int, child ast.Node) string {
		return m.render(child, path.child(idx), ok, ko, inherited)
	}
	switch node := n.(type) {
	case *ast.SearchField:
		return esc(node.Head()+node.Name+":") + mark(0, node.Expr) + esc(node.Tail())
	case *ast.Group:
		return esc(node.Head()+"(") + mark(0, node.Expr) + esc(")"+node.Tail())
	case *ast.FieldGroup:
		return esc(node.Head()+"(") + mark(0, node.Expr) + esc(")"+node.Tail())
	case *ast.Boost:
		return esc(node.Head()) + mark(0, node.Expr) + esc("^"+node.ForceText()+node.Tail())
	case *ast.Plus:
		return esc(node.Head()+"+") + mark(0, node.Operand) + esc(node.Tail())
	case *ast.Not:
		return esc(node.Head()+"NOT") + mark(0, node.Operand) + esc(node.Tail())
	case *ast.Prohibit:
		return esc(node.Head()+"-") + mark(0, node.Operand) + esc(node.Tail())
	case *ast.AndOperation:
		return m.operation(node, node.Operands, "AND", path, ok, ko, inherited)
	case *ast.OrOperation:
		return m.operation(node, node.Operands, "OR", path, ok, ko, inherited)
	case *ast.UnknownOperation:
		return m.operation(node, node.Operands, "", path, ok, ko, inherited)
	default:
		return esc(n.Render(true))
	}
}

func (m *HTMLMarker) operation(n ast.Node, operands []ast.Node, op string, path Path, ok, ko PathSet, inherited string) string {
	parts := make([]string, len(operands))
	for i, operand := range operands {
		parts[i] = m.render(operand, path.child(i), ok, ko, inherited)
	}
	return html.EscapeString(n.Head()) + strings.Join(parts, op) + html.EscapeString(n.Tail())
}
