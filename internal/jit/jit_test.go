package jit

import (
	"testing"

	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/go-llvm"

	"github.com/dekarrin/eac/internal/diag"
)

// These tests stick to construction and the pure symbol-surface gating in
// mapExternals; actually running a module requires a native LLVM target
// initialized in the host process, which is exercised by
// internal/compiler's Run path instead.

func Test_New_surfaceContainsExtraSymbols(t *testing.T) {
	e := New([]string{"vec_new", "vec_push"})
	assert.True(t, e.surface.Has("vec_new"))
	assert.True(t, e.surface.Has("vec_push"))
	assert.False(t, e.surface.Has("hashmap_new"))
}

func Test_New_emptyExtraSymbols(t *testing.T) {
	e := New(nil)
	assert.Equal(t, 0, e.surface.Len())
}

func Test_isAlwaysOnCore(t *testing.T) {
	assert.True(t, isAlwaysOnCore("puts"))
	assert.True(t, isAlwaysOnCore("printf"))
	assert.True(t, isAlwaysOnCore("print_i32"))
	assert.False(t, isAlwaysOnCore("vec_new"))
	assert.False(t, isAlwaysOnCore("not_a_symbol"))
}

func Test_mapExternals_coreSymbolAlwaysAllowed(t *testing.T) {
	mod := ir.NewModule()
	mod.NewFunc("puts", lltypes.I32, ir.NewParam("s", lltypes.NewPointer(lltypes.I8)))

	e := New(nil)
	var engine llvm.ExecutionEngine
	require.NoError(t, e.mapExternals(engine, mod))
}

func Test_mapExternals_corePrintHelperAllowedWithoutSurfaceEntry(t *testing.T) {
	mod := ir.NewModule()
	mod.NewFunc("print_i32", lltypes.Void, ir.NewParam("v", lltypes.I32))

	e := New(nil)
	var engine llvm.ExecutionEngine
	require.NoError(t, e.mapExternals(engine, mod))
}

func Test_mapExternals_optionalUnallowedSymbolFails(t *testing.T) {
	mod := ir.NewModule()
	mod.NewFunc("vec_new", lltypes.NewPointer(lltypes.I8))

	e := New(nil)
	var engine llvm.ExecutionEngine
	err := e.mapExternals(engine, mod)
	require.Error(t, err)

	jerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, diag.KindSymbolUnresolved, jerr.Kind)
}

func Test_mapExternals_optionalAllowedSymbolPasses(t *testing.T) {
	mod := ir.NewModule()
	mod.NewFunc("vec_new", lltypes.NewPointer(lltypes.I8))

	e := New([]string{"vec_new"})
	var engine llvm.ExecutionEngine
	assert.NoError(t, e.mapExternals(engine, mod))
}

func Test_mapExternals_unrecognizedExternIgnored(t *testing.T) {
	mod := ir.NewModule()
	mod.NewFunc("some_other_extern", lltypes.Void)

	e := New(nil)
	var engine llvm.ExecutionEngine
	assert.NoError(t, e.mapExternals(engine, mod))
}
