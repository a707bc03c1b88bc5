package parser

import "github.com/dekarrin/eac/internal/token"

// Binding powers implement the precedence table of spec §4.2, low to high:
// assignment, logical or, logical and, equality, relational (incl. SIMD),
// bitwise (incl. SIMD), additive (incl. SIMD), multiplicative (incl. SIMD),
// then unary (handled in nud) and postfix (handled as a very high led).
const (
	lbpNone       = 0
	lbpAssign     = 10
	lbpOr         = 20
	lbpAnd        = 30
	lbpEquality   = 40
	lbpRelational = 50
	lbpBitwise    = 60
	lbpAdditive   = 70
	lbpMultiplic  = 80
	lbpPostfix    = 90
)

var bindingPower = map[token.Class]int{
	token.Assign: lbpAssign,

	token.OrOr: lbpOr,

	token.AndAnd: lbpAnd,

	token.Eq:    lbpEquality,
	token.NotEq: lbpEquality,

	token.Lt: lbpRelational, token.LtEq: lbpRelational,
	token.Gt: lbpRelational, token.GtEq: lbpRelational,
	token.DotLt: lbpRelational, token.DotLtEq: lbpRelational,
	token.DotGt: lbpRelational, token.DotGtEq: lbpRelational,

	token.Pipe: lbpBitwise, token.Caret: lbpBitwise, token.Amp: lbpBitwise,
	token.DotPipe: lbpBitwise, token.DotCaret: lbpBitwise, token.DotAmp: lbpBitwise,

	token.Plus: lbpAdditive, token.Minus: lbpAdditive,
	token.DotPlus: lbpAdditive, token.DotMinus: lbpAdditive,

	token.Star: lbpMultiplic, token.Slash: lbpMultiplic, token.Percent: lbpMultiplic,
	token.DotStar: lbpMultiplic, token.DotSlash: lbpMultiplic,

	token.LParen:   lbpPostfix,
	token.LBracket: lbpPostfix,
	token.Dot:      lbpPostfix,
}

func lbp(c token.Class) int {
	return bindingPower[c]
}

// isSIMDOp reports whether a binary operator token class is one of the
// leading-dot element-wise forms.
func isSIMDOp(c token.Class) bool {
	switch c {
	case token.DotPlus, token.DotMinus, token.DotStar, token.DotSlash,
		token.DotAmp, token.DotPipe, token.DotCaret,
		token.DotLt, token.DotGt, token.DotLtEq, token.DotGtEq:
		return true
	default:
		return false
	}
}

// isRelational reports whether c is a scalar or SIMD relational operator.
func isRelational(c token.Class) bool {
	switch c {
	case token.Lt, token.LtEq, token.Gt, token.GtEq,
		token.DotLt, token.DotLtEq, token.DotGt, token.DotGtEq,
		token.Eq, token.NotEq:
		return true
	default:
		return false
	}
}
