package lucene

import "fmt"

// IllegalCharacterError reports a character the lexer could not start any
// token with, such as an unescaped backslash or a stray comma.
type IllegalCharacterError struct {
	Char   rune
	Offset int
}

func (e *IllegalCharacterError) Error() string {
	return fmt.Sprintf("illegal character %q at position %d", e.Char, e.Offset)
}

// SyntaxError reports a well-lexed query that does not fit the grammar. EOF
// is set when input ended where the grammar expected more.
type SyntaxError struct {
	Token  string
	Offset int
	EOF    bool
}

func (e *SyntaxError) Error() string {
	if e.EOF {
		return "unexpected end of expression (maybe due to unmatched parenthesis)"
	}
	return fmt.Sprintf("unexpected token %q at position %d", e.Token, e.Offset)
}
