package symbols

import "github.com/CWBudde/go-xdt99-lsp/internal/syntax"

// Language is the capability set the symbol table needs from a dialect.
// The traversal and resolution code is written once against this interface;
// each dialect only describes its node tags and naming rules.
type Language interface {
	// Name identifies the dialect, e.g. "xas99r".
	Name() string

	// Family groups dialects whose files share one project namespace,
	// e.g. xas99 and its relaxed variant.
	Family() string

	// Matches reports whether a file path belongs to this dialect.
	Matches(path string) bool

	// LocalPrefix is the character that introduces local labels, or 0.
	LocalPrefix() byte

	// Classify tells whether a node defines or uses a symbol, and of which kind.
	Classify(tree *syntax.Tree, id syntax.NodeID) (Role, Kind)

	// Reach returns how far lookups of the kind extend.
	Reach(kind Kind) Reach

	// ValidName checks a new name against the dialect's identifier grammar.
	ValidName(kind Kind, name string) error
}

// SourceFile is one parsed source unit as the host currently sees it.
type SourceFile struct {
	URI      string
	Tree     *syntax.Tree
	Language Language
}

// Project enumerates the source files the host knows about.
type Project interface {
	// SourceFiles returns the files of a language family in a stable order.
	SourceFiles(family string) []*SourceFile
}

// ProjectFunc adapts a function to the Project interface.
type ProjectFunc func(family string) []*SourceFile

// SourceFiles implements Project.
func (f ProjectFunc) SourceFiles(family string) []*SourceFile {
	return f(family)
}

// Files is a fixed Project over a list of files.
type Files []*SourceFile

// SourceFiles implements Project.
func (fs Files) SourceFiles(family string) []*SourceFile {
	var result []*SourceFile

	for _, f := range fs {
		if f != nil && f.Language != nil && f.Language.Family() == family {
			result = append(result, f)
		}
	}

	return result
}
