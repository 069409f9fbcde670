package symbols

import (
	"fmt"
	"sort"

	"github.com/hbollon/go-edlib"
)

// Severity of a symbol diagnostic.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	}

	return "unknown"
}

// Code classifies a symbol diagnostic.
type Code string

const (
	CodeDuplicateSymbol    Code = "duplicate-symbol"
	CodeUndefinedSymbol    Code = "undefined-symbol"
	CodeUndefinedTarget    Code = "undefined-target"
	CodeUnusedSymbol       Code = "unused-symbol"
	CodeUnassignedVariable Code = "unassigned-variable"
)

// Diagnostic is a finding about one occurrence. Presentation is left to the caller.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Message  string
	URI      string
	Start    int
	End      int
	Name     string
	Kind     Kind

	// Suggestions holds similarly spelled names for undefined symbols.
	Suggestions []string
}

const (
	maxSuggestions      = 3
	suggestionThreshold = 0.8
)

// CheckDefinition reports duplicate and unused definitions.
func (ix *Index) CheckDefinition(d Definition) []Diagnostic {
	var result []Diagnostic

	if isDuplicateCandidate(d) {
		count := 0
		for _, other := range ix.FindDefinitions(ScopeFor(d.Kind, d.File), d.Kind, d.Name, false) {
			if !other.External {
				count++
			}
		}

		if count > 1 {
			result = append(result, definitionDiagnostic(d, CodeDuplicateSymbol, SeverityError,
				fmt.Sprintf("Duplicate symbol %s", d.Name)))
		}
	}

	// Line numbers exist on every BASIC line; only jump targets are referenced.
	if d.Kind != KindBasicLineNumber && len(ix.FindUsages(d)) == 0 {
		result = append(result, definitionDiagnostic(d, CodeUnusedSymbol, SeverityWarning,
			fmt.Sprintf("Unused %s %s", d.Kind, d.Name)))
	}

	return result
}

// Local labels repeat on purpose and aliases live in their own namespace.
func isDuplicateCandidate(d Definition) bool {
	return !d.External && (d.Kind == KindLabel || d.Kind == KindMacro)
}

// CheckUsage reports usages without a matching definition.
func (ix *Index) CheckUsage(u Usage) []Diagnostic {
	if u.Kind == KindLocalLabel {
		if len(ix.ResolveLocalLabel(u)) == 0 {
			return []Diagnostic{usageDiagnostic(u, CodeUndefinedTarget, SeverityWarning,
				fmt.Sprintf("Undefined target %s", u.Name))}
		}

		return nil
	}

	scope := ScopeFor(u.Kind, u.File)
	if len(ix.FindDefinitions(scope, u.Kind, u.Name, false)) > 0 {
		return nil
	}

	if u.Kind.IsVariable() {
		return []Diagnostic{usageDiagnostic(u, CodeUnassignedVariable, SeverityWarning,
			fmt.Sprintf("Unassigned variable %s", u.Name))}
	}

	diag := usageDiagnostic(u, CodeUndefinedSymbol, SeverityError,
		fmt.Sprintf("Undefined %s %s", u.Kind, u.Name))
	if ix.suggestions {
		diag.Suggestions = ix.suggest(scope, u.Kind, u.Name)
		if len(diag.Suggestions) > 0 {
			diag.Message += fmt.Sprintf(" (did you mean %s?)", diag.Suggestions[0])
		}
	}

	return []Diagnostic{diag}
}

// Check runs every definition and usage check of a file.
func (ix *Index) Check(file *SourceFile) []Diagnostic {
	var result []Diagnostic

	for _, d := range Definitions(file) {
		result = append(result, ix.CheckDefinition(d)...)
	}

	for _, u := range Usages(file) {
		result = append(result, ix.CheckUsage(u)...)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Start < result[j].Start
	})

	return result
}

// suggest ranks known names of kind by Jaro-Winkler similarity to name.
func (ix *Index) suggest(scope Scope, kind Kind, name string) []string {
	type scored struct {
		name  string
		score float32
	}

	want := Normalize(name)
	seen := make(map[string]bool)

	var candidates []scored

	for _, d := range ix.FindAllDefinitions(scope, kind) {
		got := Normalize(d.Name)
		if seen[got] || got == want {
			continue
		}

		seen[got] = true

		score, err := edlib.StringsSimilarity(want, got, edlib.JaroWinkler)
		if err != nil || score < suggestionThreshold {
			continue
		}

		candidates = append(candidates, scored{name: d.Name, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var result []string
	for i := 0; i < len(candidates) && i < maxSuggestions; i++ {
		result = append(result, candidates[i].name)
	}

	return result
}

func definitionDiagnostic(d Definition, code Code, severity Severity, msg string) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: severity,
		Message:  msg,
		URI:      d.URI(),
		Start:    d.Offset,
		End:      d.End,
		Name:     d.Name,
		Kind:     d.Kind,
	}
}

func usageDiagnostic(u Usage, code Code, severity Severity, msg string) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: severity,
		Message:  msg,
		URI:      u.URI(),
		Start:    u.Offset,
		End:      u.End,
		Name:     u.Name,
		Kind:     u.Kind,
	}
}
