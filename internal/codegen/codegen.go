package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/dekarrin/eac/internal/abi"
	"github.com/dekarrin/eac/internal/ast"
	"github.com/dekarrin/eac/internal/diag"
	"github.com/dekarrin/eac/internal/sema"
	"github.com/dekarrin/eac/internal/token"
	"github.com/dekarrin/eac/internal/types"
)

// Generator holds the transient state of a single Generate run: the module
// under construction, the running function's local variable slots, the
// current insertion block, and whether that block is already terminated
// (spec §4.4's basic-block terminator invariant).
type Generator struct {
	module *ir.Module

	symtab   *sema.SymbolTable
	funcs    map[string]*ir.Func
	externs  map[string]*ir.Func
	strings  map[string]*ir.Global
	strOrder int

	// per-function state
	curFunc      *ir.Func
	curBlock     *ir.Block
	terminated   bool
	vars         map[string]*ir.InstAlloca
	curRetType   types.Type

	bag diag.Bag
}

// Generate lowers a checked file to an LLVM module. symtab is the result of
// sema.Check against the same file; it is kept on the Generator but not
// read, since function signatures are taken from the declarations in file.
func Generate(file *ast.File, symtab *sema.SymbolTable) (*ir.Module, []diag.Diagnostic) {
	g := &Generator{
		module:  ir.NewModule(),
		symtab:  symtab,
		funcs:   make(map[string]*ir.Func),
		externs: make(map[string]*ir.Func),
		strings: make(map[string]*ir.Global),
	}

	// declare every user function's signature first so forward calls (and
	// mutually recursive functions) resolve regardless of declaration order.
	for _, d := range file.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok {
			g.declareFunc(fn)
		}
	}
	for _, d := range file.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok {
			g.lowerFunc(fn)
		}
	}

	return g.module, g.bag.Errors()
}

func (g *Generator) errorf(pos token.Position, kind diag.Kind, format string, args ...interface{}) {
	g.bag.Add(diag.Diagnostic{Phase: diag.Codegen, Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (g *Generator) declareFunc(fn *ast.FuncDecl) {
	params := make([]*ir.Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = ir.NewParam(p.Name, llvmType(p.Typ))
	}
	llf := g.module.NewFunc(fn.Name, llvmType(fn.ReturnType), params...)
	g.funcs[fn.Name] = llf
}

// lowerFunc lowers one function's entry block, parameter/local allocas, and
// body (spec §4.4: "create the signature, a single entry basic block,
// allocate stack slots for each parameter and local ... then lower the
// body").
func (g *Generator) lowerFunc(fn *ast.FuncDecl) {
	llf := g.funcs[fn.Name]

	g.curFunc = llf
	g.vars = make(map[string]*ir.InstAlloca)
	g.curRetType = fn.ReturnType

	entry := llf.NewBlock("entry")
	g.curBlock = entry
	g.terminated = false

	for i, p := range fn.Params {
		slot := entry.NewAlloca(llvmType(p.Typ))
		slot.SetName(p.Name + ".addr")
		entry.NewStore(llf.Params[i], slot)
		g.vars[p.Name] = slot
	}

	g.lowerBlock(fn.Body)

	// every function must leave its final block terminated; a procedure
	// that falls off the end of its body implicitly returns unit.
	if !g.terminated {
		if fn.ReturnType.Kind == types.Unit {
			g.curBlock.NewRet(nil)
		} else {
			g.curBlock.NewUnreachable()
		}
	}
}

// newBlock appends a fresh block to the current function. It neither moves
// the insertion point nor touches the terminated flag: position does both,
// and is the only place the flag is cleared (spec §4.4's terminator-bug
// postmortem: "cleared only when positioning on a fresh block").
func (g *Generator) newBlock(name string) *ir.Block {
	b := g.curFunc.NewBlock(name)
	return b
}

func (g *Generator) position(b *ir.Block) {
	g.curBlock = b
	g.terminated = false
}

// internString returns a pointer to an interned i8 array global for s,
// creating it on first use. Interning is by content (spec §3: "global
// string literals ... interned by content"); order of creation follows
// first textual appearance, the only order that keeps module output
// deterministic across otherwise-identical runs (spec §5).
func (g *Generator) internString(s string) value.Value {
	if gv, ok := g.strings[s]; ok {
		return g.gepToFirstByte(gv)
	}
	data := append([]byte(s), 0)
	name := fmt.Sprintf(".str.%d", g.strOrder)
	g.strOrder++
	gv := g.module.NewGlobalDef(name, constant.NewCharArrayFromString(string(data)))
	gv.Immutable = true
	g.strings[s] = gv
	return g.gepToFirstByte(gv)
}

func (g *Generator) gepToFirstByte(gv *ir.Global) value.Value {
	zero := constant.NewInt(lltypes.I64, 0)
	return constant.NewGetElementPtr(gv.ContentType, gv, zero, zero)
}

// externFunc resolves a call target against the runtime ABI, declaring the
// extern in this module on first reference (spec §4.4: "look up the symbol;
// if it names a runtime ABI function, declare the external if not already
// present").
func (g *Generator) externFunc(name string) (*ir.Func, bool) {
	if f, ok := g.externs[name]; ok {
		return f, true
	}
	sym, ok := abi.Lookup(name)
	if !ok {
		return nil, false
	}
	params := make([]*ir.Param, len(sym.Params))
	for i, pt := range sym.Params {
		params[i] = ir.NewParam("", llvmType(pt))
	}
	f := g.module.NewFunc(sym.Name, llvmType(sym.Return), params...)
	g.externs[name] = f
	return f, true
}
