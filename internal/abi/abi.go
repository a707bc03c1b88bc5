// Package abi declares the fixed set of C-ABI runtime symbols that generated
// code may call (spec §6). The core only ever declares these externs; it
// never defines them — the runtime support library living outside the core
// is the sole owner of their implementations.
package abi

import "github.com/dekarrin/eac/internal/types"

// Symbol is one runtime-ABI entry point: its call signature, for both the
// semantic analyzer's builtin-call checking and the IR generator's external
// declaration.
type Symbol struct {
	Name   string
	Params []types.Type
	Return types.Type
}

func ptrTo(t types.Type) types.Type {
	return types.Type{Kind: types.Pointer, Pointee: &t}
}

// Core is the default, always-available surface: I/O and the per-primitive
// print helpers (spec §4.5: "The default surface is {puts, printf, a small
// number of print_T helpers for each primitive}").
var Core = []Symbol{
	{Name: "puts", Params: []types.Type{ptrTo(types.TI8)}, Return: types.TI32},
	{Name: "printf", Params: []types.Type{ptrTo(types.TI8)}, Return: types.TI32}, // variadic; extra args checked loosely
	{Name: "print_i32", Params: []types.Type{types.TI32}, Return: types.TUnit},
	{Name: "print_f32", Params: []types.Type{types.TF32}, Return: types.TUnit},
	{Name: "print_f64", Params: []types.Type{types.TF64}, Return: types.TUnit},
}

// Optional is the collections/IO family referenced only if source invokes it
// (spec §6): vec_*, hashmap_*, hashset_*, string_*, file_*. Declared here as
// data so both sema (arity/type checking of calls naming them) and codegen
// (on-demand extern declaration) share one definition.
var Optional = []Symbol{
	{Name: "vec_new", Return: opaquePtr()},
	{Name: "vec_push", Params: []types.Type{opaquePtr(), types.TI32}, Return: types.TBool},
	{Name: "vec_get", Params: []types.Type{opaquePtr(), types.TU64}, Return: ptrTo(types.TI32)},
	{Name: "vec_pop", Params: []types.Type{opaquePtr(), ptrTo(types.TI32)}, Return: types.TBool},
	{Name: "vec_len", Params: []types.Type{opaquePtr()}, Return: types.TU64},
	{Name: "vec_free", Params: []types.Type{opaquePtr()}, Return: types.TUnit},

	{Name: "hashmap_new", Return: opaquePtr()},
	{Name: "hashmap_free", Params: []types.Type{opaquePtr()}, Return: types.TUnit},
	{Name: "hashset_new", Return: opaquePtr()},
	{Name: "hashset_free", Params: []types.Type{opaquePtr()}, Return: types.TUnit},
	{Name: "string_new", Return: opaquePtr()},
	{Name: "string_free", Params: []types.Type{opaquePtr()}, Return: types.TUnit},
	{Name: "file_open", Params: []types.Type{ptrTo(types.TI8)}, Return: opaquePtr()},
	{Name: "file_close", Params: []types.Type{opaquePtr()}, Return: types.TUnit},
}

func opaquePtr() types.Type {
	u8 := types.TU8
	return types.Type{Kind: types.Pointer, Pointee: &u8}
}

// All returns the full declared surface, core first.
func All() []Symbol {
	all := make([]Symbol, 0, len(Core)+len(Optional))
	all = append(all, Core...)
	all = append(all, Optional...)
	return all
}

// Lookup finds a runtime ABI symbol by name.
func Lookup(name string) (Symbol, bool) {
	for _, s := range Core {
		if s.Name == name {
			return s, true
		}
	}
	for _, s := range Optional {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}

// Builtins is the small set of language-level builtin functions (not
// C-ABI externs themselves, but thin wrappers the IR generator lowers
// directly to calls against the ABI above). Spec §9 leaves open whether
// println and print differ in newline handling; this core fixes println to
// append a trailing newline (via puts, which always appends one) and print
// to emit no newline (via printf with a bare "%s" format), and records the
// decision in DESIGN.md rather than guessing further.
var Builtins = []Symbol{
	{Name: "println", Params: []types.Type{types.TString}, Return: types.TUnit},
	{Name: "print", Params: []types.Type{types.TString}, Return: types.TUnit},
}

// LookupBuiltin finds a language-level builtin by name.
func LookupBuiltin(name string) (Symbol, bool) {
	for _, s := range Builtins {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}
