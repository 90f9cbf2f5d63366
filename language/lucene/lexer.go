// Package lucene provides Lucene-style query syntax parsing with exact
// surface-text preservation: every produced AST node knows its original
// offsets and the whitespace surrounding it.
package lucene

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer definition for Lucene-style queries. Rules are tried in order, so the
// datetime rule must come before Term (a bare term would otherwise stop at
// the first time-of-day colon) and Separator is kept, not elided: the parser
// folds it into the head/tail of neighbouring tokens.
var queryLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Whitespace, folded into token head/tail
	{Name: "Separator", Pattern: `\s+`},
	// Quoted phrases, escaped characters do not terminate the phrase
	{Name: "Phrase", Pattern: `"(?:[^"\\]|\\.)*"`},
	// Slash-delimited regex patterns, same escaping convention
	{Name: "Regex", Pattern: `/(?:[^/\\]|\\.)*/`},
	// Fuzzy/proximity suffix with optional degree
	{Name: "Approx", Pattern: `~(?:\d+(?:\.\d+)?)?`},
	// Boost suffix with optional force
	{Name: "Boost", Pattern: `\^(?:\d+(?:\.\d+)?)?`},
	{Name: "Plus", Pattern: `\+`},
	{Name: "Minus", Pattern: `-`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	// Bracket choice controls range bound inclusivity
	{Name: "LBracket", Pattern: `[\[{]`},
	{Name: "RBracket", Pattern: `[\]}]`},
	// ISO-8601 timestamps survive intact rather than being split on their
	// internal colons - must come before Column and Term
	{Name: "DateTime", Pattern: `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(?::\d{2})?(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?`},
	{Name: "Column", Pattern: `:`},
	// Bare terms: the first character may not be an unescaped metacharacter,
	// following characters are more permissive (dates, emails, wildcards) but
	// an unescaped quote or slash still ends the term
	{Name: "Term", Pattern: `(?:[^\s:\^~(){}\[\]/,"'+\-\\]|\\.)(?:[^\s:\^~(){}\[\]"/,\\]|\\.)*`},
})

var symbols = queryLexer.Symbols()

var (
	typeSeparator = symbols["Separator"]
	typePhrase    = symbols["Phrase"]
	typeRegex     = symbols["Regex"]
	typeApprox    = symbols["Approx"]
	typeBoost     = symbols["Boost"]
	typePlus      = symbols["Plus"]
	typeMinus     = symbols["Minus"]
	typeLParen    = symbols["LParen"]
	typeRParen    = symbols["RParen"]
	typeLBracket  = symbols["LBracket"]
	typeRBracket  = symbols["RBracket"]
	typeDateTime  = symbols["DateTime"]
	typeColumn    = symbols["Column"]
	typeTerm      = symbols["Term"]
)

// token is a substantive lexer token with the whitespace it owns folded in.
// pos is the byte offset of text in the original input; head and tail never
// count towards pos or the token's size.
type token struct {
	typ        lexer.TokenType
	text       string
	pos        int
	head, tail string
}

func (t token) end() int { return t.pos + len(t.text) }

// tokenize lexes a complete query into substantive tokens, folding every
// whitespace run into the preceding token's tail, or into the head of the
// first token when no token was produced yet. All tokenization state is local
// to the call, so concurrent callers never share scratch state.
func tokenize(input string) ([]token, error) {
	lx, err := queryLexer.LexString("", input)
	if err != nil {
		return nil, illegalCharacter(input, err)
	}
	var toks []token
	pendingHead := ""
	for {
		t, err := lx.Next()
		if err != nil {
			return nil, illegalCharacter(input, err)
		}
		if t.EOF() {
			break
		}
		if t.Type == typeSeparator {
			if len(toks) == 0 {
				pendingHead += t.Value
			} else {
				toks[len(toks)-1].tail += t.Value
			}
			continue
		}
		tok := token{typ: t.Type, text: t.Value, pos: t.Pos.Offset}
		if pendingHead != "" {
			tok.head = pendingHead
			pendingHead = ""
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

// illegalCharacter converts a lexer failure into an IllegalCharacterError
// carrying the offending character and its offset.
func illegalCharacter(input string, err error) error {
	var lexErr *lexer.Error
	if errors.As(err, &lexErr) {
		offset := lexErr.Pos.Offset
		if offset >= 0 && offset < len(input) {
			char, _ := utf8.DecodeRuneInString(input[offset:])
			return &IllegalCharacterError{Char: char, Offset: offset}
		}
	}
	return fmt.Errorf("tokenizing query: %w", err)
}
