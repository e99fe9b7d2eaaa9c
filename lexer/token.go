package lexer

import "fmt"

// Kind discriminates token classes produced by the scanner.
type Kind int

const (
	EOF Kind = iota
	Ident
	Int
	Float
	Str
	LParen
	RParen
	LBrace
	RBrace
	Colon
	ColonColon
	Comma
	DashDash
	Arrow
	Comment
	Err
)

var kindNames = map[Kind]string{
	EOF:        "eof",
	Ident:      "identifier",
	Int:        "integer",
	Float:      "float",
	Str:        "string",
	LParen:     "'('",
	RParen:     "')'",
	LBrace:     "'{'",
	RBrace:     "'}'",
	Colon:      "':'",
	ColonColon: "'::'",
	Comma:      "','",
	DashDash:   "'--'",
	Arrow:      "'->'",
	Comment:    "comment",
	Err:        "error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Token is one lexical unit. Lexeme is a materialized string so the token
// remains valid after the source buffer is gone. Line and Column are 1-based;
// Offset is the byte offset of the first byte of the lexeme.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
	Column int
	Offset int
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q @%d:%d", t.Kind, t.Lexeme, t.Line, t.Column)
}
