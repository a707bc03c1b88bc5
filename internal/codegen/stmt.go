package codegen

import (
	"github.com/llir/llvm/ir"

	"github.com/dekarrin/eac/internal/ast"
	"github.com/dekarrin/eac/internal/diag"
	"github.com/dekarrin/eac/internal/types"
)

// lowerBlock lowers a statement sequence into the current block, stopping
// early if a statement terminates the block (spec §4.4: "statements
// following an unconditional terminator in the same block are dead and must
// be skipped").
func (g *Generator) lowerBlock(b *ast.BlockStmt) {
	for _, stmt := range b.Stmts {
		if g.terminated {
			return
		}
		g.lowerStmt(stmt)
	}
}

func (g *Generator) lowerStmt(stmt ast.Stmt) {
	switch st := stmt.(type) {
	case *ast.LetStmt:
		g.lowerLet(st)
	case *ast.AssignStmt:
		g.lowerAssign(st)
	case *ast.ExprStmt:
		g.lowerExpr(st.X)
	case *ast.ReturnStmt:
		g.lowerReturn(st)
	case *ast.IfStmt:
		g.lowerIfStmt(st)
	case *ast.WhileStmt:
		g.lowerWhile(st)
	case *ast.ForStmt:
		g.lowerFor(st)
	case *ast.BlockStmt:
		g.lowerBlock(st)
	case *ast.FuncDecl:
		// nested functions are declared and lowered as their own LLVM
		// functions; the core has no closures over enclosing locals.
		g.declareFunc(st)
		g.lowerFunc(st)
	case *ast.StructDecl:
		// no executable lowering for a struct declaration in this core.
	default:
		g.errorf(stmt.Pos(), diag.KindUnsupportedConstruct, "unsupported statement in codegen")
	}
}

func (g *Generator) lowerLet(st *ast.LetStmt) {
	v := g.lowerExpr(st.Init)
	slot := g.curFunc.Blocks[0].NewAlloca(llvmType(st.ResolvedTyp))
	slot.SetName(st.Name)
	g.curBlock.NewStore(v, slot)
	g.vars[st.Name] = slot
}

func (g *Generator) lowerAssign(st *ast.AssignStmt) {
	v := g.lowerExpr(st.Value)
	id, ok := st.Target.(*ast.Ident)
	if !ok {
		g.errorf(st.Pos(), diag.KindUnsupportedConstruct, "unsupported assignment target")
		return
	}
	slot, ok := g.vars[id.Name]
	if !ok {
		g.errorf(st.Pos(), diag.KindUnresolvedSymbol, "assignment to unresolved name %q", id.Name)
		return
	}
	g.curBlock.NewStore(v, slot)
}

func (g *Generator) lowerReturn(st *ast.ReturnStmt) {
	if st.Value == nil || g.curRetType.Kind == types.Unit {
		if st.Value != nil {
			g.lowerExpr(st.Value)
		}
		g.curBlock.NewRet(nil)
	} else {
		v := g.lowerExpr(st.Value)
		g.curBlock.NewRet(v)
	}
	g.terminated = true
}

// lowerIfStmt lowers `if`/`else` in statement position: three blocks
// then/else/merge; both arms branch to merge unless an arm already
// terminated itself (e.g. via return), in which case it must not also
// branch to merge. If both arms terminate, merge is unreachable and is
// either skipped or emitted with an `unreachable` terminator (spec §4.4's
// terminator invariant, historically a source-bug area).
func (g *Generator) lowerIfStmt(st *ast.IfStmt) {
	cond := g.lowerExpr(st.Cond)

	thenBlock := g.newBlock("if.then")
	var elseBlock *ir.Block
	if st.Else != nil {
		elseBlock = g.newBlock("if.else")
	}

	if elseBlock != nil {
		g.curBlock.NewCondBr(cond, thenBlock, elseBlock)
	} else {
		mergeForNoElse := g.newBlock("if.merge")
		g.curBlock.NewCondBr(cond, thenBlock, mergeForNoElse)
		g.position(thenBlock)
		g.lowerBlock(st.Then)
		if !g.terminated {
			g.curBlock.NewBr(mergeForNoElse)
		}
		g.position(mergeForNoElse)
		return
	}

	g.position(thenBlock)
	g.lowerBlock(st.Then)
	thenTerminated := g.terminated
	thenExit := g.curBlock

	g.position(elseBlock)
	switch e := st.Else.(type) {
	case *ast.BlockStmt:
		g.lowerBlock(e)
	default:
		g.lowerStmt(e)
	}
	elseTerminated := g.terminated
	elseExit := g.curBlock

	if thenTerminated && elseTerminated {
		// merge is unreachable from either arm; do not branch to it, and
		// leave the generator positioned on a dead, already-terminated
		// block so any following dead statements are correctly skipped.
		return
	}

	merge := g.newBlock("if.merge")
	if !thenTerminated {
		thenExit.NewBr(merge)
	}
	if !elseTerminated {
		elseExit.NewBr(merge)
	}
	g.position(merge)
}

// lowerWhile lowers `cond`, `body`, `after` blocks (spec §4.4).
func (g *Generator) lowerWhile(st *ast.WhileStmt) {
	condBlock := g.newBlock("while.cond")
	bodyBlock := g.newBlock("while.body")
	afterBlock := g.newBlock("while.after")

	g.curBlock.NewBr(condBlock)

	g.position(condBlock)
	cond := g.lowerExpr(st.Cond)
	g.curBlock.NewCondBr(cond, bodyBlock, afterBlock)

	g.position(bodyBlock)
	g.lowerBlock(st.Body)
	if !g.terminated {
		g.curBlock.NewBr(condBlock)
	}

	g.position(afterBlock)
}

// lowerFor lowers the C-style for loop: init in the current block, then
// cond/body/step/after, with body branching to step and step to cond
// (spec §4.4).
func (g *Generator) lowerFor(st *ast.ForStmt) {
	if st.Init != nil {
		g.lowerStmt(st.Init)
	}

	condBlock := g.newBlock("for.cond")
	bodyBlock := g.newBlock("for.body")
	stepBlock := g.newBlock("for.step")
	afterBlock := g.newBlock("for.after")

	g.curBlock.NewBr(condBlock)

	g.position(condBlock)
	if st.Cond != nil {
		cond := g.lowerExpr(st.Cond)
		g.curBlock.NewCondBr(cond, bodyBlock, afterBlock)
	} else {
		g.curBlock.NewBr(bodyBlock)
	}

	g.position(bodyBlock)
	g.lowerBlock(st.Body)
	if !g.terminated {
		g.curBlock.NewBr(stepBlock)
	}

	g.position(stepBlock)
	if st.Step != nil {
		g.lowerStmt(st.Step)
	}
	if !g.terminated {
		g.curBlock.NewBr(condBlock)
	}

	g.position(afterBlock)
}
