package ast

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Wildcard is the literal term value standing for "anything", used both as a
// bare term and as an open range bound.
const Wildcard = "*"

// Word is a bare term. Value keeps the original lucene escaping and may
// contain the wildcard markers `*` and `?`.
type Word struct {
	Value string
	layout
}

// NewWord returns a synthetic Word with no layout information.
func NewWord(value string) *Word {
	return &Word{Value: value, layout: newLayout()}
}

func (w *Word) Kind() Kind        { return KindWord }
func (w *Word) Children() []Node  { return nil }
func (w *Word) String() string    { return w.Render(false) }
func (w *Word) CloneShell() Node  { c := *w; return &c }

func (w *Word) SetChildren(children []Node) error {
	if len(children) != 0 {
		return fmt.Errorf("word takes no children, got %d", len(children))
	}
	return nil
}

func (w *Word) Equal(other Node) bool {
	o, ok := other.(*Word)
	return ok && o.Value == w.Value
}

func (w *Word) Render(withHeadTail bool) string {
	return w.wrap(w.Value, withHeadTail)
}

func (w *Word) Span(withHeadTail bool) (int, int) { return w.span(withHeadTail) }

// Phrase is a double-quote delimited term. Value includes both quote
// delimiters and keeps internal escaping.
type Phrase struct {
	Value string
	layout
}

// NewPhrase returns a synthetic Phrase. Value must include its quotes.
func NewPhrase(value string) *Phrase {
	return &Phrase{Value: value, layout: newLayout()}
}

func (p *Phrase) Kind() Kind       { return KindPhrase }
func (p *Phrase) Children() []Node { return nil }
func (p *Phrase) String() string   { return p.Render(false) }
func (p *Phrase) CloneShell() Node { c := *p; return &c }

func (p *Phrase) SetChildren(children []Node) error {
	if len(children) != 0 {
		return fmt.Errorf("phrase takes no children, got %d", len(children))
	}
	return nil
}

func (p *Phrase) Equal(other Node) bool {
	o, ok := other.(*Phrase)
	return ok && o.Value == p.Value
}

func (p *Phrase) Render(withHeadTail bool) string {
	return p.wrap(p.Value, withHeadTail)
}

func (p *Phrase) Span(withHeadTail bool) (int, int) { return p.span(withHeadTail) }

// Regex is a slash-delimited pattern. Value includes both slash delimiters.
type Regex struct {
	Value string
	layout
}

// NewRegex returns a synthetic Regex. Value must include its slashes.
func NewRegex(value string) *Regex {
	return &Regex{Value: value, layout: newLayout()}
}

func (r *Regex) Kind() Kind       { return KindRegex }
func (r *Regex) Children() []Node { return nil }
func (r *Regex) String() string   { return r.Render(false) }
func (r *Regex) CloneShell() Node { c := *r; return &c }

func (r *Regex) SetChildren(children []Node) error {
	if len(children) != 0 {
		return fmt.Errorf("regex takes no children, got %d", len(children))
	}
	return nil
}

func (r *Regex) Equal(other Node) bool {
	o, ok := other.(*Regex)
	return ok && o.Value == r.Value
}

func (r *Regex) Render(withHeadTail bool) string {
	return r.wrap(r.Value, withHeadTail)
}

func (r *Regex) Span(withHeadTail bool) (int, int) { return r.span(withHeadTail) }

// SearchField restricts an expression to a named field, `name:expr`.
type SearchField struct {
	Name string
	Expr Node
	layout
}

// NewSearchField returns a synthetic SearchField.
func NewSearchField(name string, expr Node) *SearchField {
	return &SearchField{Name: name, Expr: expr, layout: newLayout()}
}

func (s *SearchField) Kind() Kind { return KindSearchField }

func (s *SearchField) Children() []Node {
	if s.Expr == nil {
		return nil
	}
	return []Node{s.Expr}
}

func (s *SearchField) SetChildren(children []Node) error {
	if len(children) != 1 {
		return fmt.Errorf("search field %q takes exactly one child, got %d", s.Name, len(children))
	}
	s.Expr = children[0]
	return nil
}

func (s *SearchField) Equal(other Node) bool {
	o, ok := other.(*SearchField)
	return ok && o.Name == s.Name && equalNodes(o.Expr, s.Expr)
}

func (s *SearchField) Render(withHeadTail bool) string {
	return s.wrap(s.Name+":"+s.Expr.Render(withHeadTail), withHeadTail)
}

func (s *SearchField) String() string { return s.Render(false) }

func (s *SearchField) Span(withHeadTail bool) (int, int) { return s.span(withHeadTail) }

func (s *SearchField) CloneShell() Node {
	c := *s
	c.Expr = nil
	return &c
}

// Group is a parenthesized sub-expression.
type Group struct {
	Expr Node
	layout
}

// NewGroup returns a synthetic Group.
func NewGroup(expr Node) *Group {
	return &Group{Expr: expr, layout: newLayout()}
}

func (g *Group) Kind() Kind { return KindGroup }

func (g *Group) Children() []Node {
	if g.Expr == nil {
		return nil
	}
	return []Node{g.Expr}
}

func (g *Group) SetChildren(children []Node) error {
	if len(children) != 1 {
		return fmt.Errorf("group takes exactly one child, got %d", len(children))
	}
	g.Expr = children[0]
	return nil
}

func (g *Group) Equal(other Node) bool {
	o, ok := other.(*Group)
	return ok && equalNodes(o.Expr, g.Expr)
}

func (g *Group) Render(withHeadTail bool) string {
	return g.wrap("("+g.Expr.Render(withHeadTail)+")", withHeadTail)
}

func (g *Group) String() string { return g.Render(false) }

func (g *Group) Span(withHeadTail bool) (int, int) { return g.span(withHeadTail) }

func (g *Group) CloneShell() Node {
	c := *g
	c.Expr = nil
	return &c
}

// FieldGroup is a parenthesized group directly under a SearchField, holding
// several alternatives scoped to that field: `field:(a OR b)`.
type FieldGroup struct {
	Expr Node
	layout
}

// NewFieldGroup returns a synthetic FieldGroup.
func NewFieldGroup(expr Node) *FieldGroup {
	return &FieldGroup{Expr: expr, layout: newLayout()}
}

func (g *FieldGroup) Kind() Kind { return KindFieldGroup }

func (g *FieldGroup) Children() []Node {
	if g.Expr == nil {
		return nil
	}
	return []Node{g.Expr}
}

func (g *FieldGroup) SetChildren(children []Node) error {
	if len(children) != 1 {
		return fmt.Errorf("field group takes exactly one child, got %d", len(children))
	}
	g.Expr = children[0]
	return nil
}

func (g *FieldGroup) Equal(other Node) bool {
	o, ok := other.(*FieldGroup)
	return ok && equalNodes(o.Expr, g.Expr)
}

func (g *FieldGroup) Render(withHeadTail bool) string {
	return g.wrap("("+g.Expr.Render(withHeadTail)+")", withHeadTail)
}

func (g *FieldGroup) String() string { return g.Render(false) }

func (g *FieldGroup) Span(withHeadTail bool) (int, int) { return g.span(withHeadTail) }

func (g *FieldGroup) CloneShell() Node {
	c := *g
	c.Expr = nil
	return &c
}

// Range is a bracketed interval `[low TO high]`. An open bound is spelled as
// the literal wildcard term, never as a nil node. The bracket spellings `[`
// vs `{` and `]` vs `}` are derived from the inclusivity flags.
type Range struct {
	Low, High              Node
	IncludeLow, IncludeHigh bool
	layout
}

// NewRange returns a synthetic Range.
func NewRange(low, high Node, includeLow, includeHigh bool) *Range {
	return &Range{Low: low, High: high, IncludeLow: includeLow, IncludeHigh: includeHigh, layout: newLayout()}
}

func (r *Range) Kind() Kind { return KindRange }

func (r *Range) Children() []Node {
	if r.Low == nil && r.High == nil {
		return nil
	}
	return []Node{r.Low, r.High}
}

func (r *Range) SetChildren(children []Node) error {
	if len(children) != 2 {
		return fmt.Errorf("range takes exactly two children, got %d", len(children))
	}
	r.Low, r.High = children[0], children[1]
	return nil
}

func (r *Range) Equal(other Node) bool {
	o, ok := other.(*Range)
	return ok && o.IncludeLow == r.IncludeLow && o.IncludeHigh == r.IncludeHigh &&
		equalNodes(o.Low, r.Low) && equalNodes(o.High, r.High)
}

func (r *Range) openBracket() string {
	if r.IncludeLow {
		return "["
	}
	return "{"
}

func (r *Range) closeBracket() string {
	if r.IncludeHigh {
		return "]"
	}
	return "}"
}

func (r *Range) Render(withHeadTail bool) string {
	if withHeadTail {
		return r.wrap(r.openBracket()+r.Low.Render(true)+"TO"+r.High.Render(true)+r.closeBracket(), true)
	}
	return r.openBracket() + r.Low.Render(false) + " TO " + r.High.Render(false) + r.closeBracket()
}

func (r *Range) String() string { return r.Render(false) }

func (r *Range) Span(withHeadTail bool) (int, int) { return r.span(withHeadTail) }

func (r *Range) CloneShell() Node {
	c := *r
	c.Low, c.High = nil, nil
	return &c
}

// DefaultFuzzyDegree is the edit distance used when `~` carries no number.
var DefaultFuzzyDegree = decimal.RequireFromString("0.5")

// Fuzzy is an edit-distance approximation of a Word, `word~degree`.
type Fuzzy struct {
	Term   *Word
	Degree decimal.Decimal
	// degreeText is the original spelling of the degree, empty when the
	// degree was implicit. Raw rendering reproduces it exactly.
	degreeText string
	layout
}

// NewFuzzy returns a synthetic Fuzzy with an explicit degree.
func NewFuzzy(term *Word, degree decimal.Decimal) *Fuzzy {
	return &Fuzzy{Term: term, Degree: degree, degreeText: degree.String(), layout: newLayout()}
}

// NewFuzzyFromText builds a Fuzzy from the degree's original spelling; an
// empty text means the implicit default of 0.5.
func NewFuzzyFromText(term *Word, text string) (*Fuzzy, error) {
	degree := DefaultFuzzyDegree
	if text != "" {
		var err error
		degree, err = decimal.NewFromString(text)
		if err != nil {
			return nil, fmt.Errorf("invalid fuzzy degree %q: %w", text, err)
		}
	}
	return &Fuzzy{Term: term, Degree: degree, degreeText: text, layout: newLayout()}, nil
}

// DegreeText returns the degree's original spelling, empty when the degree
// was implicit.
func (f *Fuzzy) DegreeText() string { return f.degreeText }

func (f *Fuzzy) Kind() Kind { return KindFuzzy }

func (f *Fuzzy) Children() []Node {
	if f.Term == nil {
		return nil
	}
	return []Node{f.Term}
}

func (f *Fuzzy) SetChildren(children []Node) error {
	if len(children) != 1 {
		return fmt.Errorf("fuzzy takes exactly one child, got %d", len(children))
	}
	word, ok := children[0].(*Word)
	if !ok {
		return fmt.Errorf("fuzzy applies to a word, got %s", children[0].Kind())
	}
	f.Term = word
	return nil
}

func (f *Fuzzy) Equal(other Node) bool {
	o, ok := other.(*Fuzzy)
	return ok && o.Degree.Equal(f.Degree) && equalNodes(nodeOrNil(o.Term), nodeOrNil(f.Term))
}

func (f *Fuzzy) Render(withHeadTail bool) string {
	if withHeadTail {
		return f.wrap(f.Term.Render(true)+"~"+f.degreeText, true)
	}
	return f.Term.Render(false) + "~" + f.Degree.String()
}

func (f *Fuzzy) String() string { return f.Render(false) }

func (f *Fuzzy) Span(withHeadTail bool) (int, int) { return f.span(withHeadTail) }

func (f *Fuzzy) CloneShell() Node {
	c := *f
	c.Term = nil
	return &c
}

// DefaultProximityDegree is the word distance used when `~` carries no number.
const DefaultProximityDegree = 1

// Proximity is a word-distance approximation of a Phrase, `"a b"~degree`.
type Proximity struct {
	Term       *Phrase
	Degree     int
	degreeText string
	layout
}

// NewProximity returns a synthetic Proximity with an explicit degree.
func NewProximity(term *Phrase, degree int) *Proximity {
	return &Proximity{Term: term, Degree: degree, degreeText: strconv.Itoa(degree), layout: newLayout()}
}

// NewProximityFromText builds a Proximity from the degree's original
// spelling; an empty text means the implicit default of 1.
func NewProximityFromText(term *Phrase, text string) (*Proximity, error) {
	degree := DefaultProximityDegree
	if text != "" {
		var err error
		degree, err = strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("invalid proximity degree %q: %w", text, err)
		}
	}
	return &Proximity{Term: term, Degree: degree, degreeText: text, layout: newLayout()}, nil
}

// DegreeText returns the degree's original spelling, empty when the degree
// was implicit.
func (p *Proximity) DegreeText() string { return p.degreeText }

func (p *Proximity) Kind() Kind { return KindProximity }

func (p *Proximity) Children() []Node {
	if p.Term == nil {
		return nil
	}
	return []Node{p.Term}
}

func (p *Proximity) SetChildren(children []Node) error {
	if len(children) != 1 {
		return fmt.Errorf("proximity takes exactly one child, got %d", len(children))
	}
	phrase, ok := children[0].(*Phrase)
	if !ok {
		return fmt.Errorf("proximity applies to a phrase, got %s", children[0].Kind())
	}
	p.Term = phrase
	return nil
}

func (p *Proximity) Equal(other Node) bool {
	o, ok := other.(*Proximity)
	return ok && o.Degree == p.Degree && equalNodes(nodeOrNil(o.Term), nodeOrNil(p.Term))
}

func (p *Proximity) Render(withHeadTail bool) string {
	if withHeadTail {
		return p.wrap(p.Term.Render(true)+"~"+p.degreeText, true)
	}
	return p.Term.Render(false) + "~" + strconv.Itoa(p.Degree)
}

func (p *Proximity) String() string { return p.Render(false) }

func (p *Proximity) Span(withHeadTail bool) (int, int) { return p.span(withHeadTail) }

func (p *Proximity) CloneShell() Node {
	c := *p
	c.Term = nil
	return &c
}

// Boost applies a relevance weight multiplier to an expression, `expr^force`.
type Boost struct {
	Expr      Node
	Force     decimal.Decimal
	forceText string
	layout
}

// NewBoost returns a synthetic Boost.
func NewBoost(expr Node, force decimal.Decimal) *Boost {
	return &Boost{Expr: expr, Force: force, forceText: force.String(), layout: newLayout()}
}

// NewBoostFromText builds a Boost from the force's original spelling; an
// empty text means a neutral force of 1.
func NewBoostFromText(expr Node, text string) (*Boost, error) {
	force := decimal.NewFromInt(1)
	if text != "" {
		var err error
		force, err = decimal.NewFromString(text)
		if err != nil {
			return nil, fmt.Errorf("invalid boost force %q: %w", text, err)
		}
	}
	return &Boost{Expr: expr, Force: force, forceText: text, layout: newLayout()}, nil
}

// ForceText returns the force's original spelling, empty when the force was
// implicit.
func (b *Boost) ForceText() string { return b.forceText }

func (b *Boost) Kind() Kind { return KindBoost }

func (b *Boost) Children() []Node {
	if b.Expr == nil {
		return nil
	}
	return []Node{b.Expr}
}

func (b *Boost) SetChildren(children []Node) error {
	if len(children) != 1 {
		return fmt.Errorf("boost takes exactly one child, got %d", len(children))
	}
	b.Expr = children[0]
	return nil
}

func (b *Boost) Equal(other Node) bool {
	o, ok := other.(*Boost)
	return ok && o.Force.Equal(b.Force) && equalNodes(o.Expr, b.Expr)
}

func (b *Boost) Render(withHeadTail bool) string {
	if withHeadTail {
		return b.wrap(b.Expr.Render(true)+"^"+b.forceText, true)
	}
	return b.Expr.Render(false) + "^" + b.Force.String()
}

func (b *Boost) String() string { return b.Render(false) }

func (b *Boost) Span(withHeadTail bool) (int, int) { return b.span(withHeadTail) }

func (b *Boost) CloneShell() Node {
	c := *b
	c.Expr = nil
	return &c
}

// operation is the shared shape of the n-ary boolean combinations.
type operation struct {
	Operands []Node
	layout
}

func (o *operation) Children() []Node { return o.Operands }

func (o *operation) setOperands(children []Node, kind Kind) error {
	if len(children) == 0 {
		return fmt.Errorf("%s takes at least one operand", kind)
	}
	o.Operands = children
	return nil
}

func (o *operation) render(op string, withHeadTail bool) string {
	if withHeadTail {
		return o.wrap(renderAll(o.Operands, op, true), true)
	}
	sep := " "
	if op != "" {
		sep = " " + op + " "
	}
	return renderAll(o.Operands, sep, false)
}

// AndOperation is an explicit n-ary AND.
type AndOperation struct{ operation }

// NewAnd returns a synthetic AndOperation over the given operands.
func NewAnd(operands ...Node) *AndOperation {
	return &AndOperation{operation{Operands: operands, layout: newLayout()}}
}

func (a *AndOperation) Kind() Kind { return KindAnd }

func (a *AndOperation) SetChildren(children []Node) error {
	return a.setOperands(children, KindAnd)
}

func (a *AndOperation) Equal(other Node) bool {
	o, ok := other.(*AndOperation)
	return ok && equalChildren(o.Operands, a.Operands)
}

func (a *AndOperation) Render(withHeadTail bool) string { return a.render("AND", withHeadTail) }
func (a *AndOperation) String() string                  { return a.Render(false) }
func (a *AndOperation) Span(b bool) (int, int)          { return a.span(b) }

func (a *AndOperation) CloneShell() Node {
	c := *a
	c.Operands = nil
	return &c
}

// OrOperation is an explicit n-ary OR.
type OrOperation struct{ operation }

// NewOr returns a synthetic OrOperation over the given operands.
func NewOr(operands ...Node) *OrOperation {
	return &OrOperation{operation{Operands: operands, layout: newLayout()}}
}

func (a *OrOperation) Kind() Kind { return KindOr }

func (a *OrOperation) SetChildren(children []Node) error {
	return a.setOperands(children, KindOr)
}

func (a *OrOperation) Equal(other Node) bool {
	o, ok := other.(*OrOperation)
	return ok && equalChildren(o.Operands, a.Operands)
}

func (a *OrOperation) Render(withHeadTail bool) string { return a.render("OR", withHeadTail) }
func (a *OrOperation) String() string                  { return a.Render(false) }
func (a *OrOperation) Span(b bool) (int, int)          { return a.span(b) }

func (a *OrOperation) CloneShell() Node {
	c := *a
	c.Operands = nil
	return &c
}

// UnknownOperation is the n-ary combination of adjacent expressions with no
// explicit connector. Its boolean meaning is decided later, either by
// visitor.UnknownOperationResolver or by a compiler's default operator.
type UnknownOperation struct{ operation }

// NewUnknown returns a synthetic UnknownOperation over the given operands.
func NewUnknown(operands ...Node) *UnknownOperation {
	return &UnknownOperation{operation{Operands: operands, layout: newLayout()}}
}

func (a *UnknownOperation) Kind() Kind { return KindUnknown }

func (a *UnknownOperation) SetChildren(children []Node) error {
	return a.setOperands(children, KindUnknown)
}

func (a *UnknownOperation) Equal(other Node) bool {
	o, ok := other.(*UnknownOperation)
	return ok && equalChildren(o.Operands, a.Operands)
}

func (a *UnknownOperation) Render(withHeadTail bool) string { return a.render("", withHeadTail) }
func (a *UnknownOperation) String() string                  { return a.Render(false) }
func (a *UnknownOperation) Span(b bool) (int, int)          { return a.span(b) }

func (a *UnknownOperation) CloneShell() Node {
	c := *a
	c.Operands = nil
	return &c
}

// unary is the shared shape of the single-operand modifiers.
type unary struct {
	Operand Node
	layout
}

func (u *unary) Children() []Node {
	if u.Operand == nil {
		return nil
	}
	return []Node{u.Operand}
}

func (u *unary) setOperand(children []Node, kind Kind) error {
	if len(children) != 1 {
		return fmt.Errorf("%s takes exactly one operand, got %d", kind, len(children))
	}
	u.Operand = children[0]
	return nil
}

// Plus marks its operand as required, `+expr`.
type Plus struct{ unary }

// NewPlus returns a synthetic Plus.
func NewPlus(operand Node) *Plus {
	return &Plus{unary{Operand: operand, layout: newLayout()}}
}

func (p *Plus) Kind() Kind { return KindPlus }

func (p *Plus) SetChildren(children []Node) error { return p.setOperand(children, KindPlus) }

func (p *Plus) Equal(other Node) bool {
	o, ok := other.(*Plus)
	return ok && equalNodes(o.Operand, p.Operand)
}

func (p *Plus) Render(withHeadTail bool) string {
	if withHeadTail {
		return p.wrap("+"+p.Operand.Render(true), true)
	}
	return "+" + p.Operand.Render(false)
}

func (p *Plus) String() string         { return p.Render(false) }
func (p *Plus) Span(b bool) (int, int) { return p.span(b) }

func (p *Plus) CloneShell() Node {
	c := *p
	c.Operand = nil
	return &c
}

// Not negates its operand, `NOT expr`.
type Not struct{ unary }

// NewNot returns a synthetic Not.
func NewNot(operand Node) *Not {
	return &Not{unary{Operand: operand, layout: newLayout()}}
}

func (n *Not) Kind() Kind { return KindNot }

func (n *Not) SetChildren(children []Node) error { return n.setOperand(children, KindNot) }

func (n *Not) Equal(other Node) bool {
	o, ok := other.(*Not)
	return ok && equalNodes(o.Operand, n.Operand)
}

func (n *Not) Render(withHeadTail bool) string {
	if withHeadTail {
		return n.wrap("NOT"+n.Operand.Render(true), true)
	}
	return "NOT " + n.Operand.Render(false)
}

func (n *Not) String() string         { return n.Render(false) }
func (n *Not) Span(b bool) (int, int) { return n.span(b) }

func (n *Not) CloneShell() Node {
	c := *n
	c.Operand = nil
	return &c
}

// Prohibit is the `-expr` spelling of negation. It is semantically identical
// to Not; the two exist as distinct surface spellings.
type Prohibit struct{ unary }

// NewProhibit returns a synthetic Prohibit.
func NewProhibit(operand Node) *Prohibit {
	return &Prohibit{unary{Operand: operand, layout: newLayout()}}
}

func (n *Prohibit) Kind() Kind { return KindProhibit }

func (n *Prohibit) SetChildren(children []Node) error { return n.setOperand(children, KindProhibit) }

func (n *Prohibit) Equal(other Node) bool {
	o, ok := other.(*Prohibit)
	return ok && equalNodes(o.Operand, n.Operand)
}

func (n *Prohibit) Render(withHeadTail bool) string {
	if withHeadTail {
		return n.wrap("-"+n.Operand.Render(true), true)
	}
	return "-" + n.Operand.Render(false)
}

func (n *Prohibit) String() string         { return n.Render(false) }
func (n *Prohibit) Span(b bool) (int, int) { return n.span(b) }

func (n *Prohibit) CloneShell() Node {
	c := *n
	c.Operand = nil
	return &c
}

// nodeOrNil avoids the typed-nil pitfall when comparing optional typed
// children through the Node interface.
func nodeOrNil[T Node](n T) Node {
	var zero T
	if any(n) == any(zero) {
		return nil
	}
	return n
}
