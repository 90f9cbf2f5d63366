package lucene

import (
	"strings"

	"github.com/kyle-williams-1/esonic/ast"
	"github.com/kyle-williams-1/esonic/language"
)

// Parser parses Lucene query syntax into a layout-preserving AST. It is
// stateless, all per-parse state lives on the call stack, so a single Parser
// is safe for concurrent use.
type Parser struct{}

// New creates a lucene query parser.
func New() *Parser { return &Parser{} }

var _ language.Parser = (*Parser)(nil)

// Parse parses a complete query. The returned tree renders back to the exact
// input through ast.Node.Render(true). Errors are *IllegalCharacterError or
// *SyntaxError.
func (p *Parser) Parse(query string) (ast.Node, error) {
	toks, err := tokenize(query)
	if err != nil {
		return nil, err
	}
	s := &parseState{toks: toks}
	node, err := s.parseExpression()
	if err != nil {
		return nil, err
	}
	if t, ok := s.peek(); ok {
		return nil, errUnexpected(t)
	}
	return node, nil
}

type parseState struct {
	toks []token
	i    int
}

func (s *parseState) peek() (token, bool) {
	if s.i >= len(s.toks) {
		return token{}, false
	}
	return s.toks[s.i], true
}

func (s *parseState) advance() token {
	t := s.toks[s.i]
	s.i++
	return t
}

func (s *parseState) errEOF() error { return &SyntaxError{EOF: true} }

func errUnexpected(t token) error { return &SyntaxError{Token: t.text, Offset: t.pos} }

func end(n ast.Node) int { return n.Pos() + n.Size() }

// applyToken stamps a leaf node with its token's layout and offsets.
func applyToken(n ast.Node, t token) {
	n.SetHead(t.head)
	n.SetTail(t.tail)
	n.SetSpan(t.pos, len(t.text))
}

// spanOperation gives an operation node the span of its operand sequence. The
// node itself owns no whitespace; the operands carry it all, so joining their
// raw renderings with the bare operator text reproduces the input.
func spanOperation(node ast.Node, operands []ast.Node) {
	pos := operands[0].Pos()
	if pos < 0 {
		return
	}
	node.SetSpan(pos, end(operands[len(operands)-1])-pos)
}

// parseExpression parses the lowest-precedence level: adjacent expressions
// with no explicit connector, collected into a single flat UnknownOperation.
func (s *parseState) parseExpression() (ast.Node, error) {
	first, err := s.parseOr()
	if err != nil {
		return nil, err
	}
	operands := []ast.Node{first}
	for s.startsOperand() {
		next, err := s.parseOr()
		if err != nil {
			return nil, err
		}
		operands = append(operands, next)
	}
	if len(operands) == 1 {
		return first, nil
	}
	node := ast.NewUnknown(operands...)
	spanOperation(node, operands)
	return node, nil
}

func (s *parseState) startsOperand() bool {
	t, ok := s.peek()
	if !ok {
		return false
	}
	switch t.typ {
	case typeTerm:
		return t.text != "AND" && t.text != "OR"
	case typePhrase, typeRegex, typeDateTime, typePlus, typeMinus, typeLParen, typeLBracket:
		return true
	}
	return false
}

// parseOr parses `a OR b OR c` into a flat n-ary OrOperation. The whitespace
// after each OR keyword moves into the head of the operand that follows it.
func (s *parseState) parseOr() (ast.Node, error) {
	left, err := s.parseAnd()
	if err != nil {
		return nil, err
	}
	operands := []ast.Node{left}
	for {
		t, ok := s.peek()
		if !ok || t.typ != typeTerm || t.text != "OR" {
			break
		}
		op := s.advance()
		right, err := s.parseAnd()
		if err != nil {
			return nil, err
		}
		right.SetHead(op.tail + right.Head())
		operands = append(operands, right)
	}
	if len(operands) == 1 {
		return left, nil
	}
	node := ast.NewOr(operands...)
	spanOperation(node, operands)
	return node, nil
}

// parseAnd binds tighter than OR, so `a OR b AND c` groups as a OR (b AND c).
func (s *parseState) parseAnd() (ast.Node, error) {
	left, err := s.parseUnary()
	if err != nil {
		return nil, err
	}
	operands := []ast.Node{left}
	for {
		t, ok := s.peek()
		if !ok || t.typ != typeTerm || t.text != "AND" {
			break
		}
		op := s.advance()
		right, err := s.parseUnary()
		if err != nil {
			return nil, err
		}
		right.SetHead(op.tail + right.Head())
		operands = append(operands, right)
	}
	if len(operands) == 1 {
		return left, nil
	}
	node := ast.NewAnd(operands...)
	spanOperation(node, operands)
	return node, nil
}

// parseUnary parses the prefix modifiers `+`, `-` and `NOT`, which nest
// (`NOT -a` is legal) and bind tighter than AND.
func (s *parseState) parseUnary() (ast.Node, error) {
	t, ok := s.peek()
	if !ok {
		return nil, s.errEOF()
	}
	var build func(ast.Node) ast.Node
	switch {
	case t.typ == typePlus:
		build = func(n ast.Node) ast.Node { return ast.NewPlus(n) }
	case t.typ == typeMinus:
		build = func(n ast.Node) ast.Node { return ast.NewProhibit(n) }
	case t.typ == typeTerm && t.text == "NOT":
		build = func(n ast.Node) ast.Node { return ast.NewNot(n) }
	default:
		return s.parsePostfix()
	}
	s.advance()
	operand, err := s.parseUnary()
	if err != nil {
		return nil, err
	}
	operand.SetHead(t.tail + operand.Head())
	node := build(operand)
	node.SetHead(t.head)
	node.SetSpan(t.pos, end(operand)-t.pos)
	return node, nil
}

// parsePostfix parses the `~` and `^` suffixes. An approximation suffix is
// only meaningful directly after a word (fuzziness) or a phrase (proximity);
// anywhere else the token is left for the caller to reject. Boosts apply to
// any expression and may follow an approximation, as in `word~2^3`.
func (s *parseState) parsePostfix() (ast.Node, error) {
	node, err := s.parsePrimary()
	if err != nil {
		return nil, err
	}
	if t, ok := s.peek(); ok && t.typ == typeApprox {
		degree := strings.TrimPrefix(t.text, "~")
		switch term := node.(type) {
		case *ast.Word:
			s.advance()
			fz, err := ast.NewFuzzyFromText(term, degree)
			if err != nil {
				return nil, errUnexpected(t)
			}
			promote(fz, term, t)
			node = fz
		case *ast.Phrase:
			s.advance()
			px, err := ast.NewProximityFromText(term, degree)
			if err != nil {
				return nil, errUnexpected(t)
			}
			promote(px, term, t)
			node = px
		}
	}
	for {
		t, ok := s.peek()
		if !ok || t.typ != typeBoost {
			break
		}
		s.advance()
		b, err := ast.NewBoostFromText(node, strings.TrimPrefix(t.text, "^"))
		if err != nil {
			return nil, errUnexpected(t)
		}
		promote(b, node, t)
		node = b
	}
	return node, nil
}

// promote moves the inner expression's head up to the wrapping suffix node,
// so the whitespace before `a ~2` stays outside the Fuzzy while the space in
// `a ~2` (between term and suffix) stays on the inner term's tail.
func promote(outer, inner ast.Node, suffix token) {
	outer.SetHead(inner.Head())
	inner.SetHead("")
	outer.SetTail(suffix.tail)
	outer.SetSpan(inner.Pos(), suffix.end()-inner.Pos())
}

func (s *parseState) parsePrimary() (ast.Node, error) {
	t, ok := s.peek()
	if !ok {
		return nil, s.errEOF()
	}
	switch t.typ {
	case typeLParen:
		return s.parseGroup()
	case typeLBracket:
		return s.parseRange()
	case typePhrase:
		s.advance()
		p := ast.NewPhrase(t.text)
		applyToken(p, t)
		return p, nil
	case typeRegex:
		s.advance()
		r := ast.NewRegex(t.text)
		applyToken(r, t)
		return r, nil
	case typeDateTime:
		s.advance()
		w := ast.NewWord(t.text)
		applyToken(w, t)
		return w, nil
	case typeTerm:
		// AND and OR never start an expression; TO outside a range is a word.
		if t.text == "AND" || t.text == "OR" {
			return nil, errUnexpected(t)
		}
		s.advance()
		if col, ok := s.peek(); ok && col.typ == typeColumn {
			return s.parseSearchField(t)
		}
		w := ast.NewWord(t.text)
		applyToken(w, t)
		return w, nil
	}
	return nil, errUnexpected(t)
}

// parseSearchField parses `name:expr` after its name token was consumed up to
// the lookahead colon. A parenthesized expression directly under the field
// becomes a FieldGroup. Whitespace between the name and the colon is not
// preserved in the tree.
func (s *parseState) parseSearchField(name token) (ast.Node, error) {
	col := s.advance()
	expr, err := s.parseUnary()
	if err != nil {
		return nil, err
	}
	expr.SetHead(col.tail + expr.Head())
	if g, ok := expr.(*ast.Group); ok {
		fg := ast.NewFieldGroup(g.Expr)
		fg.SetHead(g.Head())
		fg.SetTail(g.Tail())
		fg.SetSpan(g.Pos(), g.Size())
		expr = fg
	}
	sf := ast.NewSearchField(name.text, expr)
	sf.SetHead(name.head)
	sf.SetSpan(name.pos, end(expr)-name.pos)
	return sf, nil
}

func (s *parseState) parseGroup() (ast.Node, error) {
	lp := s.advance()
	expr, err := s.parseExpression()
	if err != nil {
		return nil, err
	}
	rp, ok := s.peek()
	if !ok {
		return nil, s.errEOF()
	}
	if rp.typ != typeRParen {
		return nil, errUnexpected(rp)
	}
	s.advance()
	expr.SetHead(lp.tail + expr.Head())
	g := ast.NewGroup(expr)
	g.SetHead(lp.head)
	g.SetTail(rp.tail)
	g.SetSpan(lp.pos, rp.end()-lp.pos)
	return g, nil
}

func (s *parseState) parseRange() (ast.Node, error) {
	lb := s.advance()
	low, err := s.parseRangeBound()
	if err != nil {
		return nil, err
	}
	to, ok := s.peek()
	if !ok {
		return nil, s.errEOF()
	}
	if to.typ != typeTerm || to.text != "TO" {
		return nil, errUnexpected(to)
	}
	s.advance()
	high, err := s.parseRangeBound()
	if err != nil {
		return nil, err
	}
	rb, ok := s.peek()
	if !ok {
		return nil, s.errEOF()
	}
	if rb.typ != typeRBracket {
		return nil, errUnexpected(rb)
	}
	s.advance()
	low.SetHead(lb.tail + low.Head())
	high.SetHead(to.tail + high.Head())
	r := ast.NewRange(low, high, lb.text == "[", rb.text == "]")
	r.SetHead(lb.head)
	r.SetTail(rb.tail)
	r.SetSpan(lb.pos, rb.end()-lb.pos)
	return r, nil
}

// parseRangeBound accepts a single word, timestamp or phrase. The wildcard
// `*` spelling an open bound is an ordinary word here.
func (s *parseState) parseRangeBound() (ast.Node, error) {
	t, ok := s.peek()
	if !ok {
		return nil, s.errEOF()
	}
	switch t.typ {
	case typeTerm, typeDateTime:
		s.advance()
		w := ast.NewWord(t.text)
		applyToken(w, t)
		return w, nil
	case typePhrase:
		s.advance()
		p := ast.NewPhrase(t.text)
		applyToken(p, t)
		return p, nil
	}
	return nil, errUnexpected(t)
}
