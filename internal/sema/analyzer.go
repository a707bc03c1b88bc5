// Package sema implements Eä's semantic analyzer: a two-pass, non-short-
// circuiting type checker over the parsed AST that populates a scoped symbol
// table and annotates every expression with its inferred type (spec §4.3).
package sema

import (
	"fmt"

	"github.com/dekarrin/eac/internal/abi"
	"github.com/dekarrin/eac/internal/ast"
	"github.com/dekarrin/eac/internal/diag"
	"github.com/dekarrin/eac/internal/token"
	"github.com/dekarrin/eac/internal/types"
)

// Analyzer holds the transient state of a single Check run.
type Analyzer struct {
	bag             diag.Bag
	global          *scope
	funcs           map[string]*Symbol
	curFunc         *ast.FuncDecl
	defaultIntWidth types.Type
}

// Check type-checks a parsed file, returning the populated global symbol
// table on success. The analyzer is non-short-circuiting: it keeps checking
// after a statement-level error so a single compile can surface multiple
// diagnostics (spec §4.3).
//
// defaultIntWidth is the integer type an unsuffixed integer literal infers
// to (spec §9's Open Question, resolved as config.Config.DefaultIntWidth at
// the driver layer). An empty or unrecognized name falls back to i32.
func Check(file *ast.File, defaultIntWidth string) (*SymbolTable, []diag.Diagnostic) {
	intWidth := types.TI32
	if t, ok := types.FromName(defaultIntWidth); ok && t.Kind == types.Int {
		intWidth = t
	}
	a := &Analyzer{global: newScope(nil), funcs: make(map[string]*Symbol), defaultIntWidth: intWidth}
	a.registerBuiltins()

	// pass 1: register all top-level function signatures so forward
	// references within the module are permitted (spec §4.3).
	for _, d := range file.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok {
			a.registerFuncSignature(fn)
		}
	}

	// pass 2: check bodies against the fully populated signature set.
	for _, d := range file.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok {
			a.checkFuncBody(fn)
		}
	}

	return &SymbolTable{Functions: a.funcs}, a.bag.Errors()
}

func (a *Analyzer) errorf(pos token.Position, kind diag.Kind, format string, args ...interface{}) {
	a.bag.Add(diag.Diagnostic{Phase: diag.Sema, Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (a *Analyzer) registerBuiltins() {
	for _, b := range abi.Builtins {
		params := append([]types.Type{}, b.Params...)
		ret := b.Return
		a.funcs[b.Name] = &Symbol{
			Name: b.Name,
			Kind: SymFunction,
			Type: types.Type{Kind: types.Func, Params: params, Return: &ret},
		}
	}
}

func (a *Analyzer) registerFuncSignature(fn *ast.FuncDecl) {
	if _, exists := a.funcs[fn.Name]; exists {
		a.errorf(fn.Pos(), diag.KindRedefinition, "function %q is already defined", fn.Name)
		return
	}
	params := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Typ
	}
	ret := fn.ReturnType
	sym := &Symbol{
		Name: fn.Name,
		Kind: SymFunction,
		Type: types.Type{Kind: types.Func, Params: params, Return: &ret},
	}
	a.funcs[fn.Name] = sym
	a.global.declareHere(sym)
}

func (a *Analyzer) checkFuncBody(fn *ast.FuncDecl) {
	prev := a.curFunc
	a.curFunc = fn
	defer func() { a.curFunc = prev }()

	bodyScope := newScope(a.global)
	for _, p := range fn.Params {
		sym := &Symbol{Name: p.Name, Type: p.Typ, Kind: SymParameter, Mutable: false, Pos: p.Pos}
		if !bodyScope.declareHere(sym) {
			a.errorf(p.Pos, diag.KindRedefinition, "parameter %q redefined", p.Name)
		}
	}
	a.checkBlock(fn.Body, bodyScope)
}

func (a *Analyzer) checkBlock(b *ast.BlockStmt, parent *scope) {
	s := newScope(parent)
	for _, stmt := range b.Stmts {
		a.checkStmt(stmt, s)
	}
}

func (a *Analyzer) checkStmt(stmt ast.Stmt, s *scope) {
	switch st := stmt.(type) {
	case *ast.LetStmt:
		a.checkLet(st, s)
	case *ast.AssignStmt:
		a.checkAssign(st, s)
	case *ast.ExprStmt:
		a.inferExpr(st.X, s)
	case *ast.ReturnStmt:
		a.checkReturn(st, s)
	case *ast.IfStmt:
		a.checkCondition(st.Cond, s)
		a.checkBlock(st.Then, s)
		if st.Else != nil {
			a.checkStmt(st.Else, s)
		}
	case *ast.WhileStmt:
		a.checkCondition(st.Cond, s)
		a.checkBlock(st.Body, s)
	case *ast.ForStmt:
		forScope := newScope(s)
		if st.Init != nil {
			a.checkStmt(st.Init, forScope)
		}
		if st.Cond != nil {
			a.checkCondition(st.Cond, forScope)
		}
		if st.Step != nil {
			a.checkStmt(st.Step, forScope)
		}
		a.checkBlock(st.Body, forScope)
	case *ast.BlockStmt:
		a.checkBlock(st, s)
	case *ast.FuncDecl:
		// a nested function's signature is registered here, since pass 1
		// only walks top-level decls. It goes into the module-wide function
		// table and global frame like a top-level one, not into the
		// enclosing block's frame, so the name is visible outside that block.
		a.registerFuncSignature(st)
		a.checkFuncBody(st)
	case *ast.StructDecl:
		// struct declarations carry no executable checks in this core.
	default:
		a.errorf(stmt.Pos(), diag.KindUnsupportedConstruct, "unsupported statement")
	}
}

func (a *Analyzer) checkCondition(cond ast.Expr, s *scope) {
	t := a.inferExpr(cond, s)
	if t.Kind != types.Bool {
		a.errorf(cond.Pos(), diag.KindInvalidCondition, "condition must be bool, found %s", t)
	}
}

func (a *Analyzer) checkLet(st *ast.LetStmt, s *scope) {
	initType := a.inferExpr(st.Init, s)

	declaredType := initType
	if st.HasAnnot {
		if !initType.Equal(st.Annotated) {
			a.bag.Add(diag.Mismatch(diag.Sema, st.Init.Pos(), st.Annotated.String(), initType.String()))
		}
		declaredType = st.Annotated
	}
	st.ResolvedTyp = declaredType

	sym := &Symbol{Name: st.Name, Type: declaredType, Kind: SymVariable, Mutable: st.Mutable, Pos: st.Pos()}
	if !s.declareHere(sym) {
		a.errorf(st.Pos(), diag.KindRedefinition, "%q is already defined in this scope", st.Name)
	}
}

func (a *Analyzer) checkAssign(st *ast.AssignStmt, s *scope) {
	valType := a.inferExpr(st.Value, s)

	id, ok := st.Target.(*ast.Ident)
	if !ok {
		a.errorf(st.Target.Pos(), diag.KindUnsupportedConstruct, "assignment target must be a name")
		return
	}
	sym, found := s.lookup(id.Name)
	if !found {
		a.errorf(id.Pos(), diag.KindUndefinedName, "undefined name %q", id.Name)
		return
	}
	id.SetType(sym.Type)
	if !sym.Mutable {
		a.errorf(st.Pos(), diag.KindNotMutable, "cannot assign to immutable binding %q", id.Name)
		return
	}
	if !valType.Equal(sym.Type) {
		a.bag.Add(diag.Mismatch(diag.Sema, st.Value.Pos(), sym.Type.String(), valType.String()))
	}
}

func (a *Analyzer) checkReturn(st *ast.ReturnStmt, s *scope) {
	want := a.curFunc.ReturnType
	got := types.TUnit
	if st.Value != nil {
		got = a.inferExpr(st.Value, s)
	}
	if !got.Equal(want) {
		a.bag.Add(diag.Mismatch(diag.Sema, st.Pos(), want.String(), got.String()))
	}
}

// inferExpr is the bottom-up type-inference entry point; it always returns a
// usable (possibly Invalid) type and always annotates e via e.SetType, even
// on error, so later phases can proceed without nil-checking every node.
func (a *Analyzer) inferExpr(e ast.Expr, s *scope) types.Type {
	t := a.inferExprUnannotated(e, s)
	e.SetType(t)
	return t
}

func (a *Analyzer) inferExprUnannotated(e ast.Expr, s *scope) types.Type {
	switch ex := e.(type) {
	case *ast.IntLit:
		return a.inferIntLit(ex)
	case *ast.FloatLit:
		return a.inferFloatLit(ex)
	case *ast.BoolLit:
		return types.TBool
	case *ast.StringLit:
		return types.TString
	case *ast.Ident:
		return a.inferIdent(ex, s)
	case *ast.UnaryExpr:
		return a.inferUnary(ex, s)
	case *ast.BinaryExpr:
		return a.inferBinary(ex, s)
	case *ast.CallExpr:
		return a.inferCall(ex, s)
	case *ast.ArrayLit:
		return a.inferArrayLit(ex, s)
	case *ast.IndexExpr:
		return a.inferIndex(ex, s)
	case *ast.FieldExpr:
		a.errorf(ex.Pos(), diag.KindUnsupportedConstruct, "field access is not supported by this core")
		return types.Type{}
	case *ast.CondExpr:
		return a.inferCondExpr(ex, s)
	case *ast.BlockExpr:
		return a.inferBlockExpr(ex, s)
	default:
		a.errorf(e.Pos(), diag.KindUnsupportedConstruct, "unsupported expression")
		return types.Type{}
	}
}

// inferIntLit gives an unsuffixed integer literal the analyzer's configured
// default width (spec §4.3, §9; see Check's defaultIntWidth parameter).
func (a *Analyzer) inferIntLit(lit *ast.IntLit) types.Type {
	if lit.Suffix == "" {
		return a.defaultIntWidth
	}
	t, ok := types.FromName(lit.Suffix)
	if !ok || t.Kind != types.Int {
		a.bag.Add(diag.Mismatch(diag.Sema, lit.Pos(), "integer type suffix", lit.Suffix))
		return types.TI32
	}
	return t
}

func (a *Analyzer) inferFloatLit(lit *ast.FloatLit) types.Type {
	if lit.Suffix == "" {
		return types.TF64
	}
	t, ok := types.FromName(lit.Suffix)
	if !ok || t.Kind != types.Float {
		return types.TF64
	}
	return t
}

func (a *Analyzer) inferIdent(id *ast.Ident, s *scope) types.Type {
	if sym, ok := s.lookup(id.Name); ok {
		return sym.Type
	}
	if sym, ok := a.funcs[id.Name]; ok {
		return sym.Type
	}
	a.errorf(id.Pos(), diag.KindUndefinedName, "undefined name %q", id.Name)
	return types.Type{}
}

func (a *Analyzer) inferUnary(u *ast.UnaryExpr, s *scope) types.Type {
	t := a.inferExpr(u.Operand, s)
	switch u.Op {
	case token.Minus:
		if t.Kind != types.Int && t.Kind != types.Float && t.Kind != types.SIMD {
			a.bag.Add(diag.Mismatch(diag.Sema, u.Pos(), "numeric or SIMD type", t.String()))
		}
		return t
	case token.Bang:
		if t.Kind != types.Bool {
			a.bag.Add(diag.Mismatch(diag.Sema, u.Pos(), "bool", t.String()))
		}
		return types.TBool
	case token.Tilde:
		if t.Kind != types.Int {
			a.bag.Add(diag.Mismatch(diag.Sema, u.Pos(), "integer", t.String()))
		}
		return t
	default:
		return types.Type{}
	}
}
