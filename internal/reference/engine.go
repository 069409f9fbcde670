// Package reference wraps symbol usages in navigation and rename operations.
package reference

import (
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

// Engine resolves references against a symbol index.
type Engine struct {
	index *symbols.Index
}

// NewEngine creates an engine over ix.
func NewEngine(ix *symbols.Index) *Engine {
	return &Engine{index: ix}
}

// Index returns the underlying symbol index.
func (e *Engine) Index() *symbols.Index {
	return e.index
}

// MultiResolve returns every definition a usage may refer to. Local labels go
// through the positional resolver; everything else is an exact, kind-filtered
// name lookup, so register aliases and labels never mix. External
// declarations only count when the project holds no real definition.
func (e *Engine) MultiResolve(u symbols.Usage) []symbols.Definition {
	if u.File == nil {
		return nil
	}

	if u.Kind == symbols.KindLocalLabel {
		return e.index.ResolveLocalLabel(u)
	}

	return preferLocal(e.index.FindDefinitions(symbols.ScopeFor(u.Kind, u.File), u.Kind, u.Name, false))
}

func preferLocal(defs []symbols.Definition) []symbols.Definition {
	var local []symbols.Definition

	for _, d := range defs {
		if !d.External {
			local = append(local, d)
		}
	}

	if len(local) == 0 {
		return defs
	}

	return local
}

// Declarations returns the external declarations naming the same symbol as def.
func (e *Engine) Declarations(def symbols.Definition) []symbols.Definition {
	var result []symbols.Definition

	for _, d := range e.index.FindDefinitions(symbols.ScopeFor(def.Kind, def.File), def.Kind, def.Name, false) {
		if d.External && !d.Same(def) {
			result = append(result, d)
		}
	}

	return result
}

// Canonical maps an external declaration to the definition it declares,
// when exactly one exists.
func (e *Engine) Canonical(def symbols.Definition) symbols.Definition {
	if !def.External {
		return def
	}

	defs := preferLocal(e.index.FindDefinitions(symbols.ScopeFor(def.Kind, def.File), def.Kind, def.Name, false))
	if len(defs) == 1 {
		return defs[0]
	}

	return def
}

// Resolve returns the definition of a usage when exactly one candidate
// exists. Ambiguous references resolve to nothing.
func (e *Engine) Resolve(u symbols.Usage) (symbols.Definition, bool) {
	defs := e.MultiResolve(u)
	if len(defs) != 1 {
		return symbols.Definition{}, false
	}

	return defs[0], true
}

// References returns the usages that resolve to def, in discovery order. An
// external declaration stands for the definition it declares.
func (e *Engine) References(def symbols.Definition) []symbols.Usage {
	def = e.Canonical(def)

	var candidates []symbols.Usage

	if def.Kind == symbols.KindLocalLabel {
		for _, u := range symbols.Usages(def.File) {
			if u.Kind == symbols.KindLocalLabel {
				candidates = append(candidates, u)
			}
		}
	} else {
		candidates = e.index.FindUsages(def)
	}

	var result []symbols.Usage

	for _, u := range candidates {
		for _, d := range e.MultiResolve(u) {
			if d.Same(def) {
				result = append(result, u)
				break
			}
		}
	}

	return result
}

// Target returns the definitions for whatever sits at offset: the
// definition itself, or the candidates of a usage.
func (e *Engine) Target(file *symbols.SourceFile, offset int) []symbols.Definition {
	occ := symbols.OccurrenceAt(file, offset)

	switch {
	case occ.Definition != nil:
		return []symbols.Definition{*occ.Definition}
	case occ.Usage != nil:
		return e.MultiResolve(*occ.Usage)
	}

	return nil
}
