// Package ast is the data model for Eä expressions, statements, and types as
// produced by the parser and annotated in place by the semantic analyzer.
package ast

import (
	"github.com/dekarrin/eac/internal/token"
	"github.com/dekarrin/eac/internal/types"
)

// Node is implemented by every AST expression and statement node. Each node
// exclusively owns its children; there are no shared references or
// back-edges (spec §9), and diagnostics refer to nodes only by Pos().
type Node interface {
	Pos() token.Position
}

// Expr is any expression node. Type() returns the zero Type until the
// semantic analyzer annotates the node through SetType; after a successful
// Check, every Expr's Type() is populated (spec §4.3: "typed AST").
type Expr interface {
	Node
	exprNode()
	Type() types.Type
	SetType(types.Type)
}

type exprBase struct {
	pos token.Position
	typ types.Type
}

func (e *exprBase) Pos() token.Position  { return e.pos }
func (e *exprBase) SetPos(p token.Position) { e.pos = p }
func (e *exprBase) Type() types.Type     { return e.typ }
func (e *exprBase) SetType(t types.Type) { e.typ = t }
func (e *exprBase) exprNode()            {}

// ---- literals ----

type IntLit struct {
	exprBase
	Text   string
	Suffix string // explicit type suffix, if any ("" means inferred default)
}

type FloatLit struct {
	exprBase
	Text   string
	Suffix string
}

type BoolLit struct {
	exprBase
	Value bool
}

type StringLit struct {
	exprBase
	Value string
}

// Ident is an identifier reference: a variable, parameter, or function name.
type Ident struct {
	exprBase
	Name string
}

// UnaryExpr is a prefix unary operation: -, !, ~.
type UnaryExpr struct {
	exprBase
	Op      token.Class
	Operand Expr
}

// BinaryExpr covers both scalar binary ops and SIMD element-wise ops; Op
// alone distinguishes a leading-dot operator from its scalar counterpart,
// since package token gives every dotted operator its own class (DotPlus,
// DotLt, ...).
type BinaryExpr struct {
	exprBase
	Op    token.Class
	Left  Expr
	Right Expr
}

// CallExpr is a function call.
type CallExpr struct {
	exprBase
	Callee Expr
	Args   []Expr
}

// ArrayLit is an array literal, or — when SIMDSuffix is non-empty — a SIMD
// vector literal (spec §3: "SIMD vector literal (array literal with trailing
// SIMD-suffix)").
type ArrayLit struct {
	exprBase
	Elements   []Expr
	SIMDSuffix string // e.g. "f32x4"; empty for an ordinary array literal
}

// IndexExpr is `base[index]`.
type IndexExpr struct {
	exprBase
	Base  Expr
	Index Expr
}

// FieldExpr is `base.field`.
type FieldExpr struct {
	exprBase
	Base  Expr
	Field string
}

// CondExpr is an if-expression: all three arms are expressions, and the
// value of the chosen branch is the expression's value.
type CondExpr struct {
	exprBase
	Cond Expr
	Then Expr
	Else Expr // nil if there is no else-branch (then the expression is unit)
}

// BlockExpr is `{ stmts... }` used as an expression; its value is that of
// the final expression-statement, if the block has one and ends without a
// semicolon — mirrored at the statement level by BlockStmt for statement
// position use. The core parser always produces a BlockStmt at statement
// position and a BlockExpr only when a block appears where an expression is
// expected (e.g. as an if-expression arm).
type BlockExpr struct {
	exprBase
	Stmts []Stmt
	Tail  Expr // nil if the block ends with a semicolon-terminated statement
}

// ---- statements ----

type Stmt interface {
	Node
	stmtNode()
}

type stmtBase struct {
	pos token.Position
}

func (s *stmtBase) Pos() token.Position     { return s.pos }
func (s *stmtBase) SetPos(p token.Position) { s.pos = p }
func (s *stmtBase) stmtNode()               {}

// LetStmt is `let [mut] name [: Type] = expr;`.
type LetStmt struct {
	stmtBase
	Name        string
	Mutable     bool
	Annotated   types.Type
	HasAnnot    bool
	Init        Expr
	ResolvedTyp types.Type // set by sema: the binding's final type
}

// AssignStmt is `target = expr;`.
type AssignStmt struct {
	stmtBase
	Target Expr
	Value  Expr
}

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	stmtBase
	X Expr
}

// ReturnStmt is `return [expr];`.
type ReturnStmt struct {
	stmtBase
	Value Expr // nil for a bare `return;`
}

// IfStmt is `if (cond) { ... } [else { ... }]` in statement position.
type IfStmt struct {
	stmtBase
	Cond Expr
	Then *BlockStmt
	Else Stmt // *BlockStmt or *IfStmt (else-if chain), nil if absent
}

// WhileStmt is `while (cond) { ... }`.
type WhileStmt struct {
	stmtBase
	Cond Expr
	Body *BlockStmt
}

// ForStmt is the C-style `for (init; cond; step) { ... }`.
type ForStmt struct {
	stmtBase
	Init Stmt // may be nil
	Cond Expr // may be nil (treated as `true`)
	Step Stmt // may be nil
	Body *BlockStmt
}

// BlockStmt is a brace-delimited sequence of statements, introducing a new
// scope.
type BlockStmt struct {
	stmtBase
	Stmts []Stmt
}

// Param is a single function parameter; both name and type are mandatory
// (spec §4.2).
type Param struct {
	Name string
	Typ  types.Type
	Pos  token.Position
}

// FuncDecl is a top-level or nested function declaration.
type FuncDecl struct {
	stmtBase
	Name       string
	Params     []Param
	ReturnType types.Type // normalized to Unit if no annotation was given
	Body       *BlockStmt
}

// FieldDecl is a single field within a struct declaration.
type FieldDecl struct {
	Name string
	Typ  types.Type
}

// StructDecl is a top-level struct type declaration.
type StructDecl struct {
	stmtBase
	Name   string
	Fields []FieldDecl
}

// File is the root of a parsed compilation unit: a flat sequence of
// top-level declarations.
type File struct {
	Decls []Stmt
}
