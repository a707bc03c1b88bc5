package lexer

import (
	"testing"

	"github.com/dekarrin/eac/internal/token"
	"github.com/stretchr/testify/assert"
)

func classSequence(t *testing.T, src string) []token.Class {
	t.Helper()
	stream, err := Lex("test.ea", []byte(src))
	if err != nil {
		t.Fatalf("unexpected lex error: %s", err.Message)
	}
	var classes []token.Class
	for {
		tok := stream.Next()
		classes = append(classes, tok.Class)
		if tok.Class == token.EOF {
			break
		}
	}
	return classes
}

func Test_Lex_tokenClassSequence(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect []token.Class
	}{
		{name: "blank string", input: "", expect: []token.Class{token.EOF}},
		{name: "decimal int", input: "1384", expect: []token.Class{token.IntLiteral, token.EOF}},
		{name: "hex int", input: "0xFF", expect: []token.Class{token.IntLiteral, token.EOF}},
		{name: "binary int", input: "0b1010", expect: []token.Class{token.IntLiteral, token.EOF}},
		{name: "octal int", input: "0o17", expect: []token.Class{token.IntLiteral, token.EOF}},
		{name: "suffixed int", input: "12i64", expect: []token.Class{token.IntLiteral, token.EOF}},
		{name: "float", input: "1.5", expect: []token.Class{token.FloatLiteral, token.EOF}},
		{name: "float with exponent", input: "1.5e-3", expect: []token.Class{token.FloatLiteral, token.EOF}},
		{name: "suffixed float", input: "1.5f32", expect: []token.Class{token.FloatLiteral, token.EOF}},
		{name: "string literal", input: `"hi\n"`, expect: []token.Class{token.StringLiteral, token.EOF}},
		{name: "identifier", input: "x", expect: []token.Class{token.Ident, token.EOF}},
		{name: "keyword", input: "func", expect: []token.Class{token.Keyword, token.EOF}},
		{name: "bool literal", input: "true", expect: []token.Class{token.BoolLiteral, token.EOF}},
		{name: "negative number is 2 tokens", input: "-12", expect: []token.Class{token.Minus, token.IntLiteral, token.EOF}},
		{name: "simd add operator", input: "a .+ b", expect: []token.Class{token.Ident, token.DotPlus, token.Ident, token.EOF}},
		{name: "simd relational longest match", input: "a .<= b", expect: []token.Class{token.Ident, token.DotLtEq, token.Ident, token.EOF}},
		{name: "arrow and fat arrow", input: "-> =>", expect: []token.Class{token.Arrow, token.FatArrow, token.EOF}},
		{name: "line comment skipped", input: "1 // two\n2", expect: []token.Class{token.IntLiteral, token.IntLiteral, token.EOF}},
		{name: "nested block comment skipped", input: "1 /* a /* b */ c */ 2", expect: []token.Class{token.IntLiteral, token.IntLiteral, token.EOF}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, classSequence(t, tc.input))
		})
	}
}

func Test_Lex_errors(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expectErr bool
	}{
		{name: "unterminated string", input: `"abc`, expectErr: true},
		{name: "invalid escape", input: `"a\qb"`, expectErr: true},
		{name: "unknown character", input: "`", expectErr: true},
		{name: "unterminated block comment", input: "/* never closes", expectErr: true},
		{name: "valid program has no error", input: "let x = 1;", expectErr: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Lex("test.ea", []byte(tc.input))
			if tc.expectErr {
				assert.NotNil(t, err)
			} else {
				assert.Nil(t, err)
			}
		})
	}
}

// Token fidelity (spec §8): concatenating the textual extents of all
// non-whitespace tokens reproduces the source minus comments/whitespace, for
// programs with no string-escape-driven divergence between lexeme and source
// text.
func Test_Lex_tokenFidelity(t *testing.T) {
	src := "func main()->i32{return 1+2;}"
	stream, err := Lex("test.ea", []byte(src))
	assert.Nil(t, err)

	var rebuilt string
	for {
		tok := stream.Next()
		if tok.Class == token.EOF {
			break
		}
		rebuilt += tok.Lexeme
	}
	assert.Equal(t, src, rebuilt)
}

func Test_Lex_positionMonotonicity(t *testing.T) {
	src := "func main() -> i32 {\n  let x = 1;\n  return x;\n}"
	stream, err := Lex("test.ea", []byte(src))
	assert.Nil(t, err)

	var last token.Position
	for {
		tok := stream.Next()
		assert.True(t, tok.Pos.Offset >= last.Offset, "position went backwards at %v", tok)
		last = tok.Pos
		if tok.Class == token.EOF {
			break
		}
	}
}
