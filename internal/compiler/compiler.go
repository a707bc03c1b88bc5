// Package compiler ties the four pipeline operations spec §6 exposes to a
// driver — compile_to_ast, check, emit_ir, jit_run — into one entry point
// each, plus the exit-code mapping in §6: 0 success, 1 compile error, 2 JIT
// trap. It also wires in the compiled-module cache (§C), which is purely an
// optimization: a cold cache and a warm cache return the same IR text. A
// cache hit's Result carries only that text (FromCache set, File and Module
// nil).
package compiler

import (
	"context"

	"github.com/llir/llvm/ir"

	"github.com/dekarrin/eac/internal/ast"
	"github.com/dekarrin/eac/internal/cache"
	"github.com/dekarrin/eac/internal/codegen"
	"github.com/dekarrin/eac/internal/config"
	"github.com/dekarrin/eac/internal/diag"
	"github.com/dekarrin/eac/internal/jit"
	"github.com/dekarrin/eac/internal/parser"
	"github.com/dekarrin/eac/internal/sema"
)

// Version is the compiler's own version string. Compile records it in each
// cache entry and folds it into the cache key together with the default
// integer width, so a binary upgrade never reuses a module cached by an
// older version.
const Version = "0.1.0"

// ExitCode values match spec §6.
const (
	ExitSuccess     = 0
	ExitCompileErr  = 1
	ExitTrap        = 2
)

// Result is the outcome of a full compile_to_ast → check → emit_ir run.
type Result struct {
	File        *ast.File
	Diagnostics []diag.Diagnostic
	Module      *ir.Module
	IR          string
	FromCache   bool
}

// CompileToAST runs the lexer and parser (spec §6's compile_to_ast).
func CompileToAST(filename string, source []byte) (*ast.File, []diag.Diagnostic) {
	return parser.Parse(filename, source)
}

// Check runs the semantic analyzer (spec §6's check). defaultIntWidth
// resolves spec §9's Open Question over unsuffixed integer literals
// (config.Config.DefaultIntWidth); pass "" to get the i32 fallback.
func Check(file *ast.File, defaultIntWidth string) (*sema.SymbolTable, []diag.Diagnostic) {
	return sema.Check(file, defaultIntWidth)
}

// EmitIR runs the IR generator (spec §6's emit_ir).
func EmitIR(file *ast.File, symtab *sema.SymbolTable) (*ir.Module, []diag.Diagnostic) {
	return codegen.Generate(file, symtab)
}

// Compile runs compile_to_ast → check → emit_ir in sequence, per §7's
// pipeline policy: each phase runs only if the previous phase produced no
// diagnostics. If store is non-nil and cfg.Cache.Enabled, a cache hit skips
// straight to a stored module.
func Compile(filename string, source []byte, cfg config.Config, store *cache.Store) Result {
	var cacheKey string
	if store != nil && cfg.Cache.Enabled {
		cacheKey = cache.Key(source, []byte(Version+"\x00"+cfg.DefaultIntWidth))
		if rec, err := store.Get(context.Background(), cacheKey); err == nil {
			return Result{IR: rec.ModuleText, FromCache: true}
		}
	}

	file, errs := CompileToAST(filename, source)
	if len(errs) > 0 {
		return Result{Diagnostics: errs}
	}

	symtab, errs := Check(file, cfg.DefaultIntWidth)
	if len(errs) > 0 {
		return Result{File: file, Diagnostics: errs}
	}

	module, errs := EmitIR(file, symtab)
	if len(errs) > 0 {
		return Result{File: file, Diagnostics: errs}
	}

	irText := module.String()
	res := Result{File: file, Module: module, IR: irText}

	if store != nil && cfg.Cache.Enabled {
		_ = store.Put(context.Background(), cacheKey, cache.Record{
			ModuleText: irText,
			Version:    Version,
		})
	}

	return res
}

// Run compiles source and, if that succeeds, JIT-executes the resulting
// module via jit_run, returning the process exit code per spec §6.
func Run(filename string, source []byte, cfg config.Config, store *cache.Store) (int, []diag.Diagnostic) {
	res := Compile(filename, source, cfg, store)
	if len(res.Diagnostics) > 0 {
		return ExitCompileErr, res.Diagnostics
	}
	if res.Module == nil {
		// a cache hit only stores emitted text, not a live *ir.Module; a
		// cached Run still has to recompile to get something executable,
		// since the cache is an emit_ir-result cache, not a JIT-result
		// cache (spec §C: "a hit skips straight to emit_ir's output").
		file, errs := CompileToAST(filename, source)
		if len(errs) > 0 {
			return ExitCompileErr, errs
		}
		symtab, errs := Check(file, cfg.DefaultIntWidth)
		if len(errs) > 0 {
			return ExitCompileErr, errs
		}
		module, errs := EmitIR(file, symtab)
		if len(errs) > 0 {
			return ExitCompileErr, errs
		}
		res.Module = module
	}

	engine := jit.New(cfg.JITSymbols)
	code, err := engine.Run(res.Module)
	if err != nil {
		kind := diag.KindExecutionTrapped
		if je, ok := err.(*jit.Error); ok {
			kind = je.Kind
		}
		return ExitTrap, []diag.Diagnostic{{Phase: diag.Jit, Kind: kind, Message: err.Error()}}
	}
	return code, nil
}
