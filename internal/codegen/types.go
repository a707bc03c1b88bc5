// Package codegen lowers a typed AST (as produced by internal/sema) to an
// LLVM module using github.com/llir/llvm, per spec §4.4.
package codegen

import (
	lltypes "github.com/llir/llvm/ir/types"

	"github.com/dekarrin/eac/internal/types"
)

// llvmType maps an Eä type to its LLVM equivalent (spec §4.4): integers by
// width, float/double, i1 for bool, void for unit, i8* for string, an LLVM
// vector for SIMD, an LLVM array for Array, and a pointer for Pointer.
// Signedness has no LLVM type representation — it is honored only at the
// instruction level (sdiv vs udiv, signed vs unsigned icmp predicates).
func llvmType(t types.Type) lltypes.Type {
	switch t.Kind {
	case types.Unit:
		return lltypes.Void
	case types.Bool:
		return lltypes.I1
	case types.String:
		return lltypes.NewPointer(lltypes.I8)
	case types.Int:
		return lltypes.NewInt(uint64(t.Width))
	case types.Float:
		if t.Width == 32 {
			return lltypes.Float
		}
		return lltypes.Double
	case types.SIMD:
		return lltypes.NewVector(uint64(t.Lanes), llvmType(*t.Elem))
	case types.Array:
		return lltypes.NewArray(uint64(t.Length), llvmType(*t.ElemArr))
	case types.Pointer:
		return lltypes.NewPointer(llvmType(*t.Pointee))
	case types.Func:
		params := make([]lltypes.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = llvmType(p)
		}
		ret := lltypes.Type(lltypes.Void)
		if t.Return != nil {
			ret = llvmType(*t.Return)
		}
		return lltypes.NewFunc(ret, params...)
	default:
		return lltypes.Void
	}
}
