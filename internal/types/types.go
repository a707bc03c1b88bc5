// Package types implements the Eä type algebra: primitive scalars, SIMD
// vectors, functions, arrays, and runtime-ABI pointers, plus the
// compatibility rules the semantic analyzer and IR generator both rely on.
//
// Types are represented as a tagged sum rather than an interface hierarchy
// (spec §9: "avoid inheritance; represent types as a tagged sum with pattern
// matching on the variant"), so arithmetic lowering helpers can switch on Kind
// instead of dispatching through polymorphism.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the variant of a Type.
type Kind int

const (
	Invalid Kind = iota
	Unit
	Bool
	String
	Int
	Float
	SIMD
	Func
	Array
	Pointer
)

// Type is the tagged sum described in spec §3. The zero Type is Invalid.
type Type struct {
	Kind Kind

	// Int / Float
	Width int // bit width: 8,16,32,64

	// Int only
	Signed bool

	// SIMD
	Elem  *Type // element type, always a primitive scalar
	Lanes int   // power-of-two lane count

	// Func
	Params []Type
	Return *Type

	// Array
	ElemArr *Type
	Length  int

	// Pointer
	Pointee *Type
	Mutable bool
}

var (
	TUnit   = Type{Kind: Unit}
	TBool   = Type{Kind: Bool}
	TString = Type{Kind: String}

	TI8  = Type{Kind: Int, Width: 8, Signed: true}
	TI16 = Type{Kind: Int, Width: 16, Signed: true}
	TI32 = Type{Kind: Int, Width: 32, Signed: true}
	TI64 = Type{Kind: Int, Width: 64, Signed: true}
	TU8  = Type{Kind: Int, Width: 8, Signed: false}
	TU16 = Type{Kind: Int, Width: 16, Signed: false}
	TU32 = Type{Kind: Int, Width: 32, Signed: false}
	TU64 = Type{Kind: Int, Width: 64, Signed: false}

	TF32 = Type{Kind: Float, Width: 32}
	TF64 = Type{Kind: Float, Width: 64}
)

// scalarsByName backs lookup of a primitive scalar type from its keyword
// spelling; SIMD suffixes are resolved by SIMDFromSuffix.
var scalarsByName = map[string]Type{
	"i8": TI8, "i16": TI16, "i32": TI32, "i64": TI64,
	"u8": TU8, "u16": TU16, "u32": TU32, "u64": TU64,
	"f32": TF32, "f64": TF64,
	"bool": TBool, "string": TString, "unit": TUnit,
}

// validLaneCounts is the closed set of lane counts for each element type,
// per spec §3: f32×{2,4,8,16}, f64×{2,4,8}, iN/uN×{4,8,16,32,64}.
var validLaneCounts = map[string][]int{
	"f32": {2, 4, 8, 16},
	"f64": {2, 4, 8},
	"i8": {4, 8, 16, 32, 64}, "i16": {4, 8, 16, 32, 64}, "i32": {4, 8, 16, 32, 64}, "i64": {4, 8, 16, 32, 64},
	"u8": {4, 8, 16, 32, 64}, "u16": {4, 8, 16, 32, 64}, "u32": {4, 8, 16, 32, 64}, "u64": {4, 8, 16, 32, 64},
}

// FromName resolves a primitive scalar type by its keyword spelling. ok is
// false for unrecognized names.
func FromName(name string) (Type, bool) {
	t, ok := scalarsByName[name]
	return t, ok
}

// SIMDFromSuffix parses a closed-set SIMD suffix like "f32x4" into its
// vector Type. ok is false if the suffix is not one of the 47 recognized
// combinations.
func SIMDFromSuffix(suffix string) (Type, bool) {
	sep := strings.LastIndexByte(suffix, 'x')
	if sep <= 0 {
		return Type{}, false
	}
	elemName := suffix[:sep]
	lanes, err := strconv.Atoi(suffix[sep+1:])
	if err != nil {
		return Type{}, false
	}
	elem, ok := scalarsByName[elemName]
	if !ok || (elem.Kind != Int && elem.Kind != Float) {
		return Type{}, false
	}
	allowed, ok := validLaneCounts[elemName]
	if !ok {
		return Type{}, false
	}
	found := false
	for _, l := range allowed {
		if l == lanes {
			found = true
			break
		}
	}
	if !found {
		return Type{}, false
	}
	e := elem
	return Type{Kind: SIMD, Elem: &e, Lanes: lanes}, true
}

// Bits returns the total width in bits of a SIMD vector type
// (element-width × lane-count, per spec §3).
func (t Type) Bits() int {
	if t.Kind != SIMD {
		return t.Width
	}
	return t.Elem.Width * t.Lanes
}

// IsPrimitiveScalar reports whether t is a primitive scalar (spec §3).
func (t Type) IsPrimitiveScalar() bool {
	switch t.Kind {
	case Bool, String, Int, Float, Unit:
		return true
	default:
		return false
	}
}

// Equal reports structural equality: spec §3 mandates types are compared
// structurally, never nominally/by-pointer.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case Int:
		return t.Width == o.Width && t.Signed == o.Signed
	case Float:
		return t.Width == o.Width
	case SIMD:
		return t.Lanes == o.Lanes && t.Elem != nil && o.Elem != nil && t.Elem.Equal(*o.Elem)
	case Func:
		if t.Return == nil || o.Return == nil || !t.Return.Equal(*o.Return) {
			return false
		}
		if len(t.Params) != len(o.Params) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(o.Params[i]) {
				return false
			}
		}
		return true
	case Array:
		return t.Length == o.Length && t.ElemArr != nil && o.ElemArr != nil && t.ElemArr.Equal(*o.ElemArr)
	case Pointer:
		return t.Mutable == o.Mutable && t.Pointee != nil && o.Pointee != nil && t.Pointee.Equal(*o.Pointee)
	default:
		return true // Unit, Bool, String, Invalid: no further fields distinguish instances
	}
}

// String renders the type in Eä source-like notation, used in diagnostics.
func (t Type) String() string {
	switch t.Kind {
	case Invalid:
		return "<invalid>"
	case Unit:
		return "unit"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Int:
		sign := "i"
		if !t.Signed {
			sign = "u"
		}
		return fmt.Sprintf("%s%d", sign, t.Width)
	case Float:
		return fmt.Sprintf("f%d", t.Width)
	case SIMD:
		return fmt.Sprintf("%sx%d", t.Elem.String(), t.Lanes)
	case Func:
		params := ""
		for i, p := range t.Params {
			if i > 0 {
				params += ", "
			}
			params += p.String()
		}
		ret := "unit"
		if t.Return != nil {
			ret = t.Return.String()
		}
		return fmt.Sprintf("func(%s) -> %s", params, ret)
	case Array:
		return fmt.Sprintf("[%s; %d]", t.ElemArr.String(), t.Length)
	case Pointer:
		m := ""
		if t.Mutable {
			m = "mut "
		}
		return fmt.Sprintf("*%s%s", m, t.Pointee.String())
	default:
		return "<unknown>"
	}
}

// AssignableTo reports whether a value of type t may be assigned to (or
// passed as an argument of) a location of type target, under spec §4.3's "no
// implicit widening" rule: assignability is exact structural equality for
// every kind, scalar and SIMD alike.
func (t Type) AssignableTo(target Type) bool {
	return t.Equal(target)
}
