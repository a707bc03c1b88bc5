// Package token defines the lexical token kinds and source positions shared
// by the lexer and parser.
package token

import "fmt"

// Position is a single point in a source file. Positions are non-decreasing
// within a single parse; File is the path the lexer was given, not
// necessarily an on-disk path.
type Position struct {
	File   string
	Line   int // 1-indexed
	Column int // 1-indexed
	Offset int // 0-indexed byte offset
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Class is the kind of a Token.
type Class int

const (
	EOF Class = iota
	Ident
	Keyword
	IntLiteral
	FloatLiteral
	StringLiteral
	BoolLiteral

	// punctuation and operators
	Plus
	Minus
	Star
	Slash
	Percent
	Assign
	Eq
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	AndAnd
	OrOr
	Bang
	Tilde
	Amp
	Pipe
	Caret
	Arrow  // ->
	FatArrow // =>
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Colon
	Semicolon
	Dot

	// SIMD element-wise operators (leading dot)
	DotPlus
	DotMinus
	DotStar
	DotSlash
	DotAmp
	DotPipe
	DotCaret
	DotLt
	DotGt
	DotLtEq
	DotGtEq

	// SIMD type suffix, e.g. f32x4, i8x16. The lexer never emits this class:
	// a suffix is lexed as an Ident, and the parser recognizes it (via
	// SIMDSuffixes) when it directly follows an array literal.
	SIMDSuffix
)

var classNames = map[Class]string{
	EOF:           "end of file",
	Ident:         "identifier",
	Keyword:       "keyword",
	IntLiteral:    "integer literal",
	FloatLiteral:  "float literal",
	StringLiteral: "string literal",
	BoolLiteral:   "boolean literal",
	Plus:          "'+'",
	Minus:         "'-'",
	Star:          "'*'",
	Slash:         "'/'",
	Percent:       "'%'",
	Assign:        "'='",
	Eq:            "'=='",
	NotEq:         "'!='",
	Lt:            "'<'",
	LtEq:          "'<='",
	Gt:            "'>'",
	GtEq:          "'>='",
	AndAnd:        "'&&'",
	OrOr:          "'||'",
	Bang:          "'!'",
	Tilde:         "'~'",
	Amp:           "'&'",
	Pipe:          "'|'",
	Caret:         "'^'",
	Arrow:         "'->'",
	FatArrow:      "'=>'",
	LParen:        "'('",
	RParen:        "')'",
	LBrace:        "'{'",
	RBrace:        "'}'",
	LBracket:      "'['",
	RBracket:      "']'",
	Comma:         "','",
	Colon:         "':'",
	Semicolon:     "';'",
	Dot:           "'.'",
	DotPlus:       "'.+'",
	DotMinus:      "'.-'",
	DotStar:       "'.*'",
	DotSlash:      "'./'",
	DotAmp:        "'.&'",
	DotPipe:       "'.|'",
	DotCaret:      "'.^'",
	DotLt:         "'.<'",
	DotGt:         "'.>'",
	DotLtEq:       "'.<='",
	DotGtEq:       "'.>='",
	SIMDSuffix:    "SIMD type suffix",
}

// Human returns a human-readable description of the class, suitable for use
// in a diagnostic message.
func (c Class) Human() string {
	if n, ok := classNames[c]; ok {
		return n
	}
	return "token"
}

func (c Class) String() string {
	return c.Human()
}

// Keywords is the fixed recognized set of reserved identifiers.
var Keywords = map[string]bool{
	"func": true, "let": true, "mut": true, "if": true, "else": true,
	"while": true, "for": true, "return": true, "struct": true, "enum": true,
	"true": true, "false": true,

	"i8": true, "i16": true, "i32": true, "i64": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"f32": true, "f64": true, "bool": true, "string": true, "unit": true,
}

// SIMDSuffixes is the closed set of 47 recognized SIMD vector type suffixes.
var SIMDSuffixes = buildSIMDSuffixes()

func buildSIMDSuffixes() map[string]bool {
	m := map[string]bool{}
	for _, lanes := range []int{2, 4, 8, 16} {
		m[fmt.Sprintf("f32x%d", lanes)] = true
	}
	for _, lanes := range []int{2, 4, 8} {
		m[fmt.Sprintf("f64x%d", lanes)] = true
	}
	for _, width := range []int{8, 16, 32, 64} {
		for _, lanes := range []int{4, 8, 16, 32, 64} {
			m[fmt.Sprintf("i%dx%d", width, lanes)] = true
			m[fmt.Sprintf("u%dx%d", width, lanes)] = true
		}
	}
	return m
}

// Token is a single lexeme with its class, source position, and (for
// literals) the suffix text that followed it, if any.
type Token struct {
	Class    Class
	Lexeme   string
	Suffix   string // e.g. "i32", "f64" — type suffix on a numeric literal
	Pos      Position
	FullLine string
}

func (t Token) String() string {
	if t.Lexeme != "" {
		return fmt.Sprintf("%s(%q)", t.Class, t.Lexeme)
	}
	return t.Class.String()
}
