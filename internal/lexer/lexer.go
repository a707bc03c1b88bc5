// Package lexer tokenizes Eä source text. The lexer is deterministic and
// performs no I/O: callers read the full source buffer before lexing begins
// (spec §5).
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dekarrin/eac/internal/diag"
	"github.com/dekarrin/eac/internal/token"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripBOMAndNormalizeNewlines prepares a raw source buffer for lexing. If
// the buffer starts with a UTF-8 BOM, the BOM is dropped and the remainder is
// run through an NFC normalization transform (golang.org/x/text/transform
// with unicode/norm), keeping the unnormalized remainder if that fails; a
// buffer without a BOM is not NFC-normalized. In every case CRLF line endings
// become LF, so the rest of the lexer only ever has to reason about one
// line-ending convention (spec §6: "line endings LF or CRLF").
func stripBOMAndNormalizeNewlines(src []byte) []byte {
	if len(src) >= 3 && src[0] == 0xEF && src[1] == 0xBB && src[2] == 0xBF {
		out, _, err := transform.Bytes(norm.NFC, src[3:])
		if err == nil {
			src = out
		} else {
			src = src[3:]
		}
	}
	return []byte(strings.ReplaceAll(string(src), "\r\n", "\n"))
}

// Lexer holds the transient state of a single tokenization run. A Lexer is
// single-use: construct a new one per compilation.
type Lexer struct {
	file string
	src  []rune
	pos  int // index into src
	line int
	col  int
	off  int // byte offset of src[pos] in the normalized buffer

	lineStarts []int // rune index of the start of each line, 0-indexed by line-1
}

// New constructs a Lexer over the given source buffer.
func New(file string, src []byte) *Lexer {
	src = stripBOMAndNormalizeNewlines(src)
	return &Lexer{
		file: file,
		src:  []rune(string(src)),
		line: 1,
		col:  1,
	}
}

// Stream is the full, pre-scanned sequence of tokens produced by Lex. The
// parser walks a Stream rather than pulling tokens one at a time from the
// Lexer, mirroring the teacher's tokenStream.
type Stream struct {
	toks []token.Token
	cur  int
}

// Next consumes and returns the current token, advancing the cursor.
func (s *Stream) Next() token.Token {
	t := s.toks[s.cur]
	if s.cur < len(s.toks)-1 {
		s.cur++
	}
	return t
}

// Peek returns the current token without consuming it.
func (s *Stream) Peek() token.Token {
	return s.toks[s.cur]
}

// PeekAt returns the token n positions ahead of the cursor without consuming
// anything, clamped to the final (EOF) token.
func (s *Stream) PeekAt(n int) token.Token {
	i := s.cur + n
	if i >= len(s.toks) {
		i = len(s.toks) - 1
	}
	return s.toks[i]
}

// Mark returns an opaque cursor position for later Reset.
func (s *Stream) Mark() int { return s.cur }

// Reset rewinds the cursor to a previously Marked position.
func (s *Stream) Reset(mark int) { s.cur = mark }

// Remaining reports how many tokens (including the trailing EOF) remain.
func (s *Stream) Remaining() int {
	return len(s.toks) - s.cur
}

// Lex tokenizes the full source buffer, stopping at the first lexical error
// per spec §4.1 ("the lexer does not recover"). On success the returned
// Stream always ends with exactly one token.EOF.
func Lex(file string, src []byte) (*Stream, *diag.Diagnostic) {
	l := New(file, src)
	var toks []token.Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Class == token.EOF {
			break
		}
	}
	return &Stream{toks: toks}, nil
}

func (l *Lexer) peekRune() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekRuneAt(n int) rune {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	l.off += utf8.RuneLen(r)
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) position() token.Position {
	return token.Position{File: l.file, Line: l.line, Column: l.col, Offset: l.off}
}

func (l *Lexer) currentLine() string {
	start := l.pos
	for start > 0 && l.src[start-1] != '\n' {
		start--
	}
	end := l.pos
	for end < len(l.src) && l.src[end] != '\n' {
		end++
	}
	return string(l.src[start:end])
}

func (l *Lexer) errAt(pos token.Position, kind diag.Kind, msg string) *diag.Diagnostic {
	return &diag.Diagnostic{
		Phase:      diag.Lex,
		Kind:       kind,
		Pos:        pos,
		Message:    msg,
		SourceLine: l.currentLine(),
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentCont(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// next scans and returns the single next token, skipping whitespace and
// comments first.
func (l *Lexer) next() (token.Token, *diag.Diagnostic) {
	for {
		if l.atEnd() {
			return token.Token{Class: token.EOF, Pos: l.position()}, nil
		}
		r := l.peekRune()
		if r == ' ' || r == '\t' || r == '\n' {
			l.advance()
			continue
		}
		if r == '/' && l.peekRuneAt(1) == '/' {
			for !l.atEnd() && l.peekRune() != '\n' {
				l.advance()
			}
			continue
		}
		if r == '/' && l.peekRuneAt(1) == '*' {
			if err := l.skipBlockComment(); err != nil {
				return token.Token{}, err
			}
			continue
		}
		break
	}

	start := l.position()
	r := l.peekRune()

	switch {
	case isIdentStart(r):
		return l.lexIdentOrKeyword(start)
	case unicode.IsDigit(r):
		return l.lexNumber(start)
	case r == '"':
		return l.lexString(start)
	default:
		return l.lexOperator(start)
	}
}

// skipBlockComment consumes a nestable /* ... */ comment.
func (l *Lexer) skipBlockComment() *diag.Diagnostic {
	start := l.position()
	l.advance() // '/'
	l.advance() // '*'
	depth := 1
	for depth > 0 {
		if l.atEnd() {
			return l.errAt(start, diag.KindUnterminatedString, "unterminated block comment")
		}
		if l.peekRune() == '/' && l.peekRuneAt(1) == '*' {
			l.advance()
			l.advance()
			depth++
			continue
		}
		if l.peekRune() == '*' && l.peekRuneAt(1) == '/' {
			l.advance()
			l.advance()
			depth--
			continue
		}
		l.advance()
	}
	return nil
}

func (l *Lexer) lexIdentOrKeyword(start token.Position) (token.Token, *diag.Diagnostic) {
	var sb strings.Builder
	for !l.atEnd() && isIdentCont(l.peekRune()) {
		sb.WriteRune(l.advance())
	}
	name := sb.String()

	// a SIMD type suffix is lexed identically to an identifier; the parser
	// distinguishes it by context (immediately following a ']') and by
	// membership in the closed suffix set.
	class := token.Ident
	if token.Keywords[name] {
		class = token.Keyword
		if name == "true" || name == "false" {
			class = token.BoolLiteral
		}
	}
	return token.Token{Class: class, Lexeme: name, Pos: start, FullLine: l.currentLine()}, nil
}

func (l *Lexer) lexNumber(start token.Position) (token.Token, *diag.Diagnostic) {
	var sb strings.Builder

	if l.peekRune() == '0' && (l.peekRuneAt(1) == 'x' || l.peekRuneAt(1) == 'X') {
		sb.WriteRune(l.advance())
		sb.WriteRune(l.advance())
		if !isHexDigit(l.peekRune()) {
			return token.Token{}, l.errAt(start, diag.KindInvalidNumber, "malformed hex literal")
		}
		for isHexDigit(l.peekRune()) {
			sb.WriteRune(l.advance())
		}
		return l.finishIntLiteral(start, sb.String())
	}
	if l.peekRune() == '0' && (l.peekRuneAt(1) == 'b' || l.peekRuneAt(1) == 'B') {
		sb.WriteRune(l.advance())
		sb.WriteRune(l.advance())
		if l.peekRune() != '0' && l.peekRune() != '1' {
			return token.Token{}, l.errAt(start, diag.KindInvalidNumber, "malformed binary literal")
		}
		for l.peekRune() == '0' || l.peekRune() == '1' {
			sb.WriteRune(l.advance())
		}
		return l.finishIntLiteral(start, sb.String())
	}
	if l.peekRune() == '0' && (l.peekRuneAt(1) == 'o' || l.peekRuneAt(1) == 'O') {
		sb.WriteRune(l.advance())
		sb.WriteRune(l.advance())
		if !isOctalDigit(l.peekRune()) {
			return token.Token{}, l.errAt(start, diag.KindInvalidNumber, "malformed octal literal")
		}
		for isOctalDigit(l.peekRune()) {
			sb.WriteRune(l.advance())
		}
		return l.finishIntLiteral(start, sb.String())
	}

	for unicode.IsDigit(l.peekRune()) {
		sb.WriteRune(l.advance())
	}

	isFloat := false
	if l.peekRune() == '.' && unicode.IsDigit(l.peekRuneAt(1)) {
		isFloat = true
		sb.WriteRune(l.advance())
		for unicode.IsDigit(l.peekRune()) {
			sb.WriteRune(l.advance())
		}
		if l.peekRune() == 'e' || l.peekRune() == 'E' {
			sb.WriteRune(l.advance())
			if l.peekRune() == '+' || l.peekRune() == '-' {
				sb.WriteRune(l.advance())
			}
			if !unicode.IsDigit(l.peekRune()) {
				return token.Token{}, l.errAt(start, diag.KindInvalidNumber, "malformed exponent")
			}
			for unicode.IsDigit(l.peekRune()) {
				sb.WriteRune(l.advance())
			}
		}
	}

	if isFloat {
		return l.finishFloatLiteral(start, sb.String())
	}
	return l.finishIntLiteral(start, sb.String())
}

func isHexDigit(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isOctalDigit(r rune) bool {
	return r >= '0' && r <= '7'
}

var intSuffixes = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
}

var floatSuffixes = map[string]bool{"f32": true, "f64": true}

func (l *Lexer) finishIntLiteral(start token.Position, text string) (token.Token, *diag.Diagnostic) {
	suffix := l.readTypeSuffixIfPresent(intSuffixes)
	return token.Token{Class: token.IntLiteral, Lexeme: text, Suffix: suffix, Pos: start, FullLine: l.currentLine()}, nil
}

func (l *Lexer) finishFloatLiteral(start token.Position, text string) (token.Token, *diag.Diagnostic) {
	suffix := l.readTypeSuffixIfPresent(floatSuffixes)
	return token.Token{Class: token.FloatLiteral, Lexeme: text, Suffix: suffix, Pos: start, FullLine: l.currentLine()}, nil
}

// readTypeSuffixIfPresent greedily consumes an identifier-shaped suffix only
// if it is a member of the allowed set; otherwise it leaves the stream
// untouched so the following identifier lexes as its own token (e.g. `1 i32`
// with a space is two tokens; `1i32` is a suffixed literal).
func (l *Lexer) readTypeSuffixIfPresent(allowed map[string]bool) string {
	save := l.pos
	saveLine, saveCol, saveOff := l.line, l.col, l.off
	if !isIdentStart(l.peekRune()) {
		return ""
	}
	var sb strings.Builder
	for !l.atEnd() && isIdentCont(l.peekRune()) {
		sb.WriteRune(l.advance())
	}
	name := sb.String()
	if allowed[name] {
		return name
	}
	l.pos, l.line, l.col, l.off = save, saveLine, saveCol, saveOff
	return ""
}

// IsSIMDSuffix is exported for the parser: after closing an array literal's
// ']', the parser passes it the lexeme of the very next identifier token to
// ask whether that lexeme is a recognized SIMD suffix. The lexer itself
// always lexes such a suffix as a plain token.Ident; attaching it to the
// preceding literal is a parse-time decision (spec §4.1, "attaches to that
// literal as a SIMD-typed constructor").
func IsSIMDSuffix(lexeme string) bool {
	return token.SIMDSuffixes[lexeme]
}

func (l *Lexer) lexString(start token.Position) (token.Token, *diag.Diagnostic) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.atEnd() {
			return token.Token{}, l.errAt(start, diag.KindUnterminatedString, "unterminated string literal")
		}
		r := l.peekRune()
		if r == '"' {
			l.advance()
			break
		}
		if r == '\n' {
			return token.Token{}, l.errAt(start, diag.KindUnterminatedString, "unterminated string literal (newline before closing quote)")
		}
		if r == '\\' {
			escStart := l.position()
			l.advance()
			if l.atEnd() {
				return token.Token{}, l.errAt(escStart, diag.KindUnterminatedString, "unterminated escape sequence")
			}
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '\\':
				sb.WriteRune('\\')
			case '"':
				sb.WriteRune('"')
			case '0':
				sb.WriteRune(0)
			default:
				return token.Token{}, l.errAt(escStart, diag.KindInvalidEscape, "invalid escape sequence '\\"+string(esc)+"'")
			}
			continue
		}
		sb.WriteRune(l.advance())
	}
	return token.Token{Class: token.StringLiteral, Lexeme: sb.String(), Pos: start, FullLine: l.currentLine()}, nil
}

type opRule struct {
	text  string
	class token.Class
}

// multi-character operators must be tried longest-first.
var opRules = []opRule{
	{".<=", token.DotLtEq}, {".>=", token.DotGtEq},
	{".+", token.DotPlus}, {".-", token.DotMinus}, {".*", token.DotStar}, {"./", token.DotSlash},
	{".&", token.DotAmp}, {".|", token.DotPipe}, {".^", token.DotCaret},
	{".<", token.DotLt}, {".>", token.DotGt},
	{"==", token.Eq}, {"!=", token.NotEq}, {"<=", token.LtEq}, {">=", token.GtEq},
	{"&&", token.AndAnd}, {"||", token.OrOr}, {"->", token.Arrow}, {"=>", token.FatArrow},
	{"+", token.Plus}, {"-", token.Minus}, {"*", token.Star}, {"/", token.Slash}, {"%", token.Percent},
	{"=", token.Assign}, {"<", token.Lt}, {">", token.Gt}, {"!", token.Bang}, {"~", token.Tilde},
	{"&", token.Amp}, {"|", token.Pipe}, {"^", token.Caret},
	{"(", token.LParen}, {")", token.RParen}, {"{", token.LBrace}, {"}", token.RBrace},
	{"[", token.LBracket}, {"]", token.RBracket},
	{",", token.Comma}, {":", token.Colon}, {";", token.Semicolon}, {".", token.Dot},
}

func (l *Lexer) lexOperator(start token.Position) (token.Token, *diag.Diagnostic) {
	remaining := l.src[l.pos:]
	for _, rule := range opRules {
		rl := []rune(rule.text)
		if len(remaining) < len(rl) {
			continue
		}
		if string(remaining[:len(rl)]) != rule.text {
			continue
		}
		for range rl {
			l.advance()
		}
		return token.Token{Class: rule.class, Lexeme: rule.text, Pos: start, FullLine: l.currentLine()}, nil
	}
	bad := l.advance()
	return token.Token{}, l.errAt(start, diag.KindUnknownCharacter, "unexpected character '"+string(bad)+"'")
}
