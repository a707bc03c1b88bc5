// Package diag defines the CompileError sum and the position-tagged
// diagnostics shared across every phase of the pipeline.
package diag

import (
	"fmt"
	"strings"

	"github.com/dekarrin/eac/internal/token"
	"github.com/dekarrin/rosed"
)

// Phase identifies which pipeline stage produced a diagnostic.
type Phase int

const (
	Lex Phase = iota
	Parse
	Sema
	Codegen
	Jit
)

func (p Phase) String() string {
	switch p {
	case Lex:
		return "lex"
	case Parse:
		return "parse"
	case Sema:
		return "sema"
	case Codegen:
		return "codegen"
	case Jit:
		return "jit"
	default:
		return "unknown"
	}
}

// Kind is a machine-discriminable diagnostic kind. The zero value is never
// used by a real diagnostic.
type Kind string

const (
	// lexical
	KindUnterminatedString Kind = "UnterminatedString"
	KindInvalidEscape      Kind = "InvalidEscape"
	KindInvalidNumber      Kind = "InvalidNumber"
	KindUnknownCharacter   Kind = "UnknownCharacter"

	// syntactic
	KindUnexpectedToken Kind = "UnexpectedToken"
	KindMissingTerm     Kind = "MissingTerminator"
	KindWatchdog        Kind = "WatchdogForcedAdvance"

	// semantic
	KindMismatch         Kind = "Mismatch"
	KindUndefinedName    Kind = "UndefinedName"
	KindArityMismatch    Kind = "ArityMismatch"
	KindNotMutable       Kind = "NotMutable"
	KindInvalidCondition Kind = "InvalidCondition"
	KindInvalidSIMDWidth Kind = "InvalidSIMDWidth"
	KindInvalidSIMDElem  Kind = "InvalidSIMDElement"
	KindNotCallable      Kind = "NotCallable"
	KindRedefinition     Kind = "Redefinition"

	// codegen
	KindUnresolvedSymbol    Kind = "UnresolvedSymbol"
	KindInternalConsistency Kind = "InternalConsistency"
	KindUnsupportedConstruct Kind = "UnsupportedConstruct"

	// jit
	KindEngineCreation    Kind = "EngineCreation"
	KindSymbolUnresolved  Kind = "SymbolUnresolved"
	KindEntryNotFound     Kind = "EntryNotFound"
	KindExecutionTrapped  Kind = "ExecutionTrapped"
)

// Diagnostic is a single, position-tagged compiler error. It is the
// CompileError sum of spec §4.6: every phase produces values of this one
// type, discriminated by Phase and Kind.
type Diagnostic struct {
	Phase      Phase
	Kind       Kind
	Pos        token.Position
	Message    string
	SourceLine string // the offending line, for cursor rendering; may be empty
	Expected   string // populated for KindMismatch
	Found      string // populated for KindMismatch
}

func (d Diagnostic) Error() string {
	if d.Pos.Line == 0 {
		return fmt.Sprintf("%s error: %s", d.Phase, d.Message)
	}
	return fmt.Sprintf("%s error: %s: %s", d.Phase, d.Pos, d.Message)
}

// Render produces a multi-line human-facing rendering of the diagnostic: the
// offending source line, a cursor beneath the offending column, and the
// message, wrapped to a reasonable width.
func (d Diagnostic) Render() string {
	msg := rosed.Edit(d.Error()).Wrap(100).String()
	if d.SourceLine == "" || d.Pos.Column == 0 {
		return msg
	}
	cursor := strings.Repeat(" ", d.Pos.Column-1) + "^"
	return d.SourceLine + "\n" + cursor + "\n" + msg
}

// Mismatch builds a KindMismatch diagnostic with expected/found recorded
// separately so callers (e.g. test assertions, LSP-style tooling) don't have
// to parse them back out of the message.
func Mismatch(phase Phase, pos token.Position, expected, found string) Diagnostic {
	return Diagnostic{
		Phase:    phase,
		Kind:     KindMismatch,
		Pos:      pos,
		Expected: expected,
		Found:    found,
		Message:  fmt.Sprintf("type mismatch: expected %s, found %s", expected, found),
	}
}

// Bag accumulates diagnostics for a single phase. The pipeline runs a phase
// only when the prior phase's Bag is empty (spec §6/§7): each phase continues
// past individual errors to surface as many independent diagnostics as it
// can, rather than stopping at the first.
type Bag struct {
	diags []Diagnostic
}

// Add appends a diagnostic to the bag.
func (b *Bag) Add(d Diagnostic) {
	b.diags = append(b.diags, d)
}

// HasErrors reports whether any diagnostic has been recorded.
func (b *Bag) HasErrors() bool {
	return len(b.diags) > 0
}

// Errors returns all accumulated diagnostics, in the order added.
func (b *Bag) Errors() []Diagnostic {
	return b.diags
}

// Err returns a single error aggregating every diagnostic in the bag, or nil
// if the bag is empty. Intended for callers that just want a boolean/err
// check rather than per-diagnostic structure.
func (b *Bag) Err() error {
	if !b.HasErrors() {
		return nil
	}
	lines := make([]string, len(b.diags))
	for i, d := range b.diags {
		lines[i] = d.Render()
	}
	return fmt.Errorf("%d error(s):\n%s", len(b.diags), strings.Join(lines, "\n"))
}
