package symbols

import (
	"strings"
)

// Scope selects the files a lookup walks.
type Scope struct {
	// Family is the language family enumerated for project-wide lookups.
	Family string

	// File, when set, restricts the lookup to that file.
	File *SourceFile
}

// ProjectScope returns a scope covering every file of a language family.
func ProjectScope(family string) Scope {
	return Scope{Family: family}
}

// FileScope returns a scope covering one file.
func FileScope(file *SourceFile) Scope {
	return Scope{File: file}
}

// IsFile reports whether the scope is restricted to one file.
func (s Scope) IsFile() bool {
	return s.File != nil
}

// Index answers symbol queries over a project.
type Index struct {
	project     Project
	suggestions bool
}

// Option configures an Index.
type Option func(*Index)

// WithSuggestions enables "did you mean" suggestions on undefined symbols.
func WithSuggestions(enabled bool) Option {
	return func(ix *Index) {
		ix.suggestions = enabled
	}
}

// NewIndex creates an index over the given project.
func NewIndex(project Project, opts ...Option) *Index {
	ix := &Index{project: project, suggestions: true}
	for _, opt := range opts {
		opt(ix)
	}

	return ix
}

// ScopeFor returns the scope a lookup of kind starting in from must use.
// Local labels are always file-scoped.
func ScopeFor(kind Kind, from *SourceFile) Scope {
	if from == nil || from.Language == nil {
		return Scope{}
	}

	if kind == KindLocalLabel || from.Language.Reach(kind) == ReachFile {
		return FileScope(from)
	}

	return ProjectScope(from.Language.Family())
}

func (ix *Index) files(scope Scope) []*SourceFile {
	if scope.File != nil {
		return []*SourceFile{scope.File}
	}

	if ix.project == nil || scope.Family == "" {
		return nil
	}

	return ix.project.SourceFiles(scope.Family)
}

// FindDefinitions returns the definitions of kind in scope whose name equals
// name, or starts with it when partial is set. Names compare
// case-insensitively. Results come in file order, then document order, and
// are not deduplicated.
func (ix *Index) FindDefinitions(scope Scope, kind Kind, name string, partial bool) []Definition {
	want := Normalize(name)

	var result []Definition

	for _, file := range ix.files(scope) {
		for _, d := range Definitions(file) {
			if d.Kind != kind {
				continue
			}

			got := Normalize(d.Name)
			if partial && strings.HasPrefix(got, want) || !partial && got == want {
				result = append(result, d)
			}
		}
	}

	return result
}

// FindAllDefinitions returns every definition of kind in scope.
func (ix *Index) FindAllDefinitions(scope Scope, kind Kind) []Definition {
	var result []Definition

	for _, file := range ix.files(scope) {
		for _, d := range Definitions(file) {
			if d.Kind == kind {
				result = append(result, d)
			}
		}
	}

	return result
}

// FindUsages returns every usage of the definition's kind, in the
// definition's scope, spelled like the definition. Local labels are matched
// by spelling too; this answers "is the name referenced at all".
func (ix *Index) FindUsages(def Definition) []Usage {
	want := Normalize(def.Name)

	var result []Usage

	for _, file := range ix.files(ScopeFor(def.Kind, def.File)) {
		for _, u := range Usages(file) {
			if u.Kind == def.Kind && Normalize(u.Name) == want {
				result = append(result, u)
			}
		}
	}

	return result
}
