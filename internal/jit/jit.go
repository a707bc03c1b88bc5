// Package jit implements the in-process JIT harness (spec §4.5): it takes
// the LLVM module produced by internal/codegen, materializes it with
// tinygo.org/x/go-llvm's MCJIT execution engine, resolves runtime-ABI
// symbols on demand, invokes main, and forwards its numeric exit code.
package jit

import (
	"fmt"
	"sync"

	"github.com/llir/llvm/ir"
	"tinygo.org/x/go-llvm"

	"github.com/dekarrin/eac/internal/abi"
	"github.com/dekarrin/eac/internal/diag"
	"github.com/dekarrin/eac/internal/util"
)

var initOnce sync.Once

func ensureNativeTarget() {
	initOnce.Do(func() {
		llvm.InitializeNativeTarget()
		llvm.InitializeNativeAsmPrinter()
		llvm.LinkInMCJIT()
	})
}

// Error is the JIT engine's failure sum (spec §4.5's JitError). Kind reuses
// diag.Kind's jit-phase constants rather than duplicating the enum.
type Error struct {
	Kind    diag.Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("jit: %s: %s", e.Kind, e.Message)
}

// Engine owns one execution engine instance for the lifetime of a single
// Run. Spec §3's lifecycle invariant: the execution engine's lifetime must
// outlive any function pointer retrieved from it, and it is destroyed only
// after the invoked entry returns — Run enforces this by deferring Dispose
// until after RunFunction returns.
type Engine struct {
	surface util.StringSet
}

// New creates an Engine whose default runtime-symbol surface is minimal:
// only the handful of ABI symbols a module actually references get mapped,
// plus any names in extraSymbols (config.Config.JITSymbols, §A.2). Exposing
// the full ABI surface unconditionally was a historical source of JIT
// segfaults via symbol conflict (spec §9); resolving on demand, per module,
// avoids it.
func New(extraSymbols []string) *Engine {
	surface := util.NewStringSet()
	for _, s := range extraSymbols {
		surface.Add(s)
	}
	return &Engine{surface: surface}
}

// Run materializes module with an MCJIT execution engine, maps only the
// runtime-ABI symbols the module actually declares (plus the engine's
// extra-symbols surface), invokes main, and returns its forwarded exit code:
// 0 for a unit-returning main, else the returned integer (spec §4.5).
func (e *Engine) Run(module *ir.Module) (int, error) {
	ensureNativeTarget()

	ctx := llvm.NewContext()
	defer ctx.Dispose()

	mod, err := ctx.ParseIR(llvm.NewMemoryBufferContentsString(module.String(), "eac-module"))
	if err != nil {
		return 2, &Error{Kind: diag.KindEngineCreation, Message: err.Error()}
	}

	options := llvm.NewMCJITCompilerOptions()
	options.SetMCJITOptimizationLevel(0)
	engine, err := llvm.NewMCJITCompiler(mod, options)
	if err != nil {
		return 2, &Error{Kind: diag.KindEngineCreation, Message: err.Error()}
	}
	defer engine.Dispose()

	if err := e.mapExternals(engine, module); err != nil {
		return 2, err
	}

	mainFn := mod.NamedFunction("main")
	if mainFn.IsNil() {
		return 2, &Error{Kind: diag.KindEntryNotFound, Message: "module defines no main function"}
	}

	result := func() (res llvm.GenericValue, trapped error) {
		defer func() {
			if r := recover(); r != nil {
				trapped = &Error{Kind: diag.KindExecutionTrapped, Message: fmt.Sprintf("%v", r)}
			}
		}()
		return engine.RunFunction(mainFn, nil), nil
	}
	gv, err := result()
	if err != nil {
		return 2, err
	}

	if mainFn.Type().ElementType().ReturnType().TypeKind() == llvm.VoidTypeKind {
		return 0, nil
	}
	return int(gv.Int(true)), nil
}

// mapExternals gates which runtime-ABI externs a module is allowed to call.
// abi.Core is spec §4.5's "default, always-available surface" — puts and
// printf resolve straight out of the host process's own symbol table via
// MCJIT's default RTDyldMemoryManager, and the print_T helpers alongside
// them are always permitted too, since the spec names them as part of the
// same default surface; actually running one still depends on the
// embedding host having linked a real print_T implementation into the
// process (spec §1's runtime-support-library collaborator boundary), but
// that is the host's responsibility, not something this gate can enforce.
// Everything outside Core — the optional Vec/HashMap/HashSet/String/File
// family — is not part of the default surface, so a module referencing one
// of those externs is only permitted if its name is in the engine's surface
// (config.Config.JITSymbols); otherwise mapExternals fails fast with
// diag.KindSymbolUnresolved instead of segfaulting inside RunFunction when
// MCJIT's lazy resolution comes up empty for a name nobody claims to
// provide — this is the fix for the historical JIT segfault spec §9
// describes.
func (e *Engine) mapExternals(engine llvm.ExecutionEngine, module *ir.Module) error {
	for _, f := range module.Funcs {
		if len(f.Blocks) > 0 {
			continue // has a body; not an extern
		}
		sym, ok := abi.Lookup(f.Name)
		if !ok {
			continue // not a recognized ABI name; leave unmapped until used
		}
		if isAlwaysOnCore(f.Name) {
			continue
		}
		if !e.surface.Has(f.Name) {
			return &Error{
				Kind: diag.KindSymbolUnresolved,
				Message: fmt.Sprintf(
					"%s is not in the engine's runtime-symbol surface; add it to config.Config.JITSymbols if a real implementation is linked into the host process",
					sym.Name,
				),
			}
		}
		// sym is allow-listed: mapping responsibility belongs to the host
		// that linked it in, not to this package, so there is nothing
		// further to bind here. The allow-list only turns an unclaimed
		// symbol into a clean diagnostic instead of a crash.
		_ = engine
	}
	return nil
}

// isAlwaysOnCore reports whether name is part of abi.Core, the default
// surface the engine never gates.
func isAlwaysOnCore(name string) bool {
	for _, s := range abi.Core {
		if s.Name == name {
			return true
		}
	}
	return false
}
