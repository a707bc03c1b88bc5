package sema

import (
	"github.com/dekarrin/eac/internal/ast"
	"github.com/dekarrin/eac/internal/diag"
	"github.com/dekarrin/eac/internal/token"
	"github.com/dekarrin/eac/internal/types"
	"github.com/dekarrin/eac/internal/util"
)

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

func isRelationalOp(c token.Class) bool {
	switch c {
	case token.Eq, token.NotEq, token.Lt, token.LtEq, token.Gt, token.GtEq,
		token.DotLt, token.DotLtEq, token.DotGt, token.DotGtEq:
		return true
	default:
		return false
	}
}

func isLogicalOp(c token.Class) bool {
	return c == token.AndAnd || c == token.OrOr
}

// inferBinary implements spec §4.3's scalar and SIMD binary-operator rules.
func (a *Analyzer) inferBinary(b *ast.BinaryExpr, s *scope) types.Type {
	if b.Op == token.Assign {
		return a.inferAssignExpr(b, s)
	}

	lt := a.inferExpr(b.Left, s)
	rt := a.inferExpr(b.Right, s)

	if isLogicalOp(b.Op) {
		if lt.Kind != types.Bool {
			a.bag.Add(diag.Mismatch(diag.Sema, b.Left.Pos(), "bool", lt.String()))
		}
		if rt.Kind != types.Bool {
			a.bag.Add(diag.Mismatch(diag.Sema, b.Right.Pos(), "bool", rt.String()))
		}
		return types.TBool
	}

	if isSIMDOp(b.Op) {
		return a.inferSIMDBinary(b, lt, rt)
	}

	// scalar path: operands must have identical primitive type; mixed-integer
	// operands require an explicit conversion — implicit widening is never
	// performed (spec §4.3).
	if !lt.Equal(rt) {
		a.bag.Add(diag.Mismatch(diag.Sema, b.Pos(), lt.String(), rt.String()))
		if isRelationalOp(b.Op) {
			return types.TBool
		}
		return lt
	}
	if lt.Kind != types.Int && lt.Kind != types.Float && !(lt.Kind == types.String && b.Op == token.Plus) {
		a.bag.Add(diag.Mismatch(diag.Sema, b.Pos(), "numeric type", lt.String()))
	}

	if isRelationalOp(b.Op) {
		return types.TBool
	}
	return lt
}

// inferSIMDBinary implements the element-wise operator rules (spec §4.3,
// §8): both operands must be SIMD vectors of identical (element-type,
// lane-count); relational SIMD ops produce a boolean mask of the same lane
// count, never a scalar bool. There is no implicit scalar-to-vector
// broadcast.
func (a *Analyzer) inferSIMDBinary(b *ast.BinaryExpr, lt, rt types.Type) types.Type {
	if lt.Kind != types.SIMD {
		a.bag.Add(diag.Mismatch(diag.Sema, b.Left.Pos(), "SIMD vector", lt.String()))
	}
	if rt.Kind != types.SIMD {
		a.bag.Add(diag.Mismatch(diag.Sema, b.Right.Pos(), "SIMD vector", rt.String()))
	}
	if lt.Kind != types.SIMD || rt.Kind != types.SIMD {
		return types.Type{}
	}
	if !lt.Equal(rt) {
		a.bag.Add(diag.Mismatch(diag.Sema, b.Pos(), lt.String(), rt.String()))
		return lt
	}
	if isRelationalOp(b.Op) {
		// a SIMD relational op's result has the same lane count as its
		// operands and element type bool (spec §8).
		return types.Type{Kind: types.SIMD, Elem: &types.TBool, Lanes: lt.Lanes}
	}
	return lt
}

func (a *Analyzer) inferAssignExpr(b *ast.BinaryExpr, s *scope) types.Type {
	id, ok := b.Left.(*ast.Ident)
	if !ok {
		a.errorf(b.Left.Pos(), diag.KindUnsupportedConstruct, "assignment target must be a name")
		a.inferExpr(b.Right, s)
		return types.Type{}
	}
	sym, found := s.lookup(id.Name)
	if !found {
		a.errorf(id.Pos(), diag.KindUndefinedName, "undefined name %q", id.Name)
		a.inferExpr(b.Right, s)
		return types.Type{}
	}
	id.SetType(sym.Type)
	if !sym.Mutable {
		a.errorf(b.Pos(), diag.KindNotMutable, "cannot assign to immutable binding %q", id.Name)
	}
	rt := a.inferExpr(b.Right, s)
	if !rt.Equal(sym.Type) {
		a.bag.Add(diag.Mismatch(diag.Sema, b.Right.Pos(), sym.Type.String(), rt.String()))
	}
	return sym.Type
}

// inferCall resolves the callee name, checks arity, checks each argument is
// assignable to its declared parameter type, and adopts the declared return
// type (spec §4.3).
func (a *Analyzer) inferCall(c *ast.CallExpr, s *scope) types.Type {
	id, ok := c.Callee.(*ast.Ident)
	if !ok {
		a.errorf(c.Callee.Pos(), diag.KindNotCallable, "call target is not callable")
		for _, arg := range c.Args {
			a.inferExpr(arg, s)
		}
		return types.Type{}
	}

	sym, found := a.funcs[id.Name]
	if !found {
		if localSym, ok := s.lookup(id.Name); ok && localSym.Type.Kind == types.Func {
			sym = localSym
		} else {
			a.errorf(id.Pos(), diag.KindUndefinedName, "undefined function %q", id.Name)
			for _, arg := range c.Args {
				a.inferExpr(arg, s)
			}
			return types.Type{}
		}
	}
	id.SetType(sym.Type)

	if sym.Type.Kind != types.Func {
		a.errorf(id.Pos(), diag.KindNotCallable, "%q is not callable", id.Name)
		return types.Type{}
	}

	if len(c.Args) != len(sym.Type.Params) {
		paramNames := make([]string, len(sym.Type.Params))
		for i, p := range sym.Type.Params {
			paramNames[i] = p.String()
		}
		want := util.MakeTextList(paramNames)
		if want == "" {
			want = "no arguments"
		}
		a.errorf(c.Pos(), diag.KindArityMismatch, "%q expects %s, got %d argument(s)", id.Name, want, len(c.Args))
	}

	n := len(c.Args)
	if len(sym.Type.Params) < n {
		n = len(sym.Type.Params)
	}
	for i := 0; i < n; i++ {
		argType := a.inferExpr(c.Args[i], s)
		if !argType.AssignableTo(sym.Type.Params[i]) {
			a.bag.Add(diag.Mismatch(diag.Sema, c.Args[i].Pos(), sym.Type.Params[i].String(), argType.String()))
		}
	}
	for i := n; i < len(c.Args); i++ {
		a.inferExpr(c.Args[i], s)
	}

	if sym.Type.Return == nil {
		return types.TUnit
	}
	return *sym.Type.Return
}

// inferArrayLit implements spec §4.3/§8's SIMD-literal and plain-array-literal
// rules: a SIMD literal `[e1,...,ek]Txk` type-checks iff each e_i converts to
// T and there are exactly k elements; an unsuffixed array literal is a
// distinct, ordinary Array type (spec §9: the two are never unified).
func (a *Analyzer) inferArrayLit(lit *ast.ArrayLit, s *scope) types.Type {
	elemTypes := make([]types.Type, len(lit.Elements))
	for i, el := range lit.Elements {
		elemTypes[i] = a.inferExpr(el, s)
	}

	if lit.SIMDSuffix == "" {
		if len(elemTypes) == 0 {
			a.errorf(lit.Pos(), diag.KindUnsupportedConstruct, "empty array literal requires a type annotation")
			return types.Type{}
		}
		first := elemTypes[0]
		for i := 1; i < len(elemTypes); i++ {
			if !elemTypes[i].Equal(first) {
				a.bag.Add(diag.Mismatch(diag.Sema, lit.Elements[i].Pos(), first.String(), elemTypes[i].String()))
			}
		}
		et := first
		return types.Type{Kind: types.Array, ElemArr: &et, Length: len(elemTypes)}
	}

	simdType, ok := types.SIMDFromSuffix(lit.SIMDSuffix)
	if !ok {
		a.errorf(lit.Pos(), diag.KindInvalidSIMDWidth, "unrecognized SIMD type suffix %q", lit.SIMDSuffix)
		return types.Type{}
	}
	if len(elemTypes) != simdType.Lanes {
		a.errorf(lit.Pos(), diag.KindInvalidSIMDWidth, "SIMD literal %s requires exactly %d element(s), got %d", lit.SIMDSuffix, simdType.Lanes, len(elemTypes))
	}
	for i, et := range elemTypes {
		if !et.AssignableTo(*simdType.Elem) {
			a.bag.Add(diag.Mismatch(diag.Sema, lit.Elements[i].Pos(), simdType.Elem.String(), et.String()))
		}
	}
	return simdType
}

func (a *Analyzer) inferIndex(ix *ast.IndexExpr, s *scope) types.Type {
	baseType := a.inferExpr(ix.Base, s)
	idxType := a.inferExpr(ix.Index, s)
	if idxType.Kind != types.Int {
		a.bag.Add(diag.Mismatch(diag.Sema, ix.Index.Pos(), "integer", idxType.String()))
	}
	switch baseType.Kind {
	case types.Array:
		return *baseType.ElemArr
	case types.SIMD:
		return *baseType.Elem
	default:
		a.bag.Add(diag.Mismatch(diag.Sema, ix.Base.Pos(), "array or SIMD vector", baseType.String()))
		return types.Type{}
	}
}

func (a *Analyzer) inferCondExpr(c *ast.CondExpr, s *scope) types.Type {
	a.checkCondition(c.Cond, s)
	thenType := a.inferExpr(c.Then, s)
	if c.Else == nil {
		return types.TUnit
	}
	elseType := a.inferExpr(c.Else, s)
	if !thenType.Equal(elseType) {
		a.bag.Add(diag.Mismatch(diag.Sema, c.Pos(), thenType.String(), elseType.String()))
	}
	return thenType
}

func (a *Analyzer) inferBlockExpr(b *ast.BlockExpr, parent *scope) types.Type {
	s := newScope(parent)
	for _, stmt := range b.Stmts {
		a.checkStmt(stmt, s)
	}
	if b.Tail == nil {
		b.SetType(types.TUnit)
		return types.TUnit
	}
	t := a.inferExpr(b.Tail, s)
	b.SetType(t)
	return t
}
