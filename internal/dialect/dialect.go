// Package dialect implements the xdt99 source languages: the xas99 and xga99
// assemblers with their relaxed companions, and TI Extended BASIC (xbas99)
// with its label-based companion. Each dialect scans source text into a
// syntax.Tree and describes its node tags to the symbol table.
package dialect

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
	"github.com/CWBudde/go-xdt99-lsp/internal/syntax"
)

// Node tags shared by all dialects.
const (
	TagLabelDef syntax.Tag = syntax.TagDialect + iota
	TagLabelRef
	TagLocalDef
	TagLocalRef
	TagAliasDef
	TagAliasRef
	TagMacroDef
	TagMacroRef
	TagMnemonic
	TagOperands
	TagOperand
	TagRegister
	TagNumber
	TagString
	TagOperator
	TagWord

	TagLineNumberDef
	TagLineNumberRef
	TagStatement
	TagKeyword
	TagNumVarDef
	TagNumVarRef
	TagStrVarDef
	TagStrVarRef
	TagNumFuncDef
	TagNumFuncRef
	TagStrFuncDef
	TagStrFuncRef
)

// Families group dialects that share a project namespace.
const (
	FamilyXas99  = "xas99"
	FamilyXga99  = "xga99"
	FamilyXbas99 = "xbas99"
)

// ErrLocalLabelRename is returned by ValidName for local labels.
var ErrLocalLabelRename = errors.New("local labels are identified by position and cannot be renamed")

// ErrInvalidName is wrapped by ValidName failures.
var ErrInvalidName = errors.New("invalid name")

type classification struct {
	role symbols.Role
	kind symbols.Kind
}

// Parser turns source text into a tree.
type Parser func(src string, ctx *ParseContext) *syntax.Tree

// Dialect is one xdt99 source language.
type Dialect struct {
	name        string
	family      string
	languageIDs []string
	extensions  []string
	localPrefix byte
	reach       symbols.Reach
	tags        map[syntax.Tag]classification
	validName   func(kind symbols.Kind, name string) error
	parse       Parser
}

var _ symbols.Language = (*Dialect)(nil)

// Name implements symbols.Language.
func (d *Dialect) Name() string { return d.name }

// Family implements symbols.Language.
func (d *Dialect) Family() string { return d.family }

// LocalPrefix implements symbols.Language.
func (d *Dialect) LocalPrefix() byte { return d.localPrefix }

// Extensions returns the file extensions of the dialect, dot included.
func (d *Dialect) Extensions() []string {
	return append([]string(nil), d.extensions...)
}

// LanguageIDs returns the LSP language identifiers of the dialect.
func (d *Dialect) LanguageIDs() []string {
	return append([]string(nil), d.languageIDs...)
}

// Matches implements symbols.Language.
func (d *Dialect) Matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range d.extensions {
		if ext == e {
			return true
		}
	}

	return false
}

// Classify implements symbols.Language.
func (d *Dialect) Classify(tree *syntax.Tree, id syntax.NodeID) (symbols.Role, symbols.Kind) {
	c, ok := d.tags[tree.Tag(id)]
	if !ok {
		return symbols.RoleNone, symbols.KindNone
	}

	return c.role, c.kind
}

// Reach implements symbols.Language.
func (d *Dialect) Reach(kind symbols.Kind) symbols.Reach {
	if kind == symbols.KindLocalLabel {
		return symbols.ReachFile
	}

	return d.reach
}

// ValidName implements symbols.Language.
func (d *Dialect) ValidName(kind symbols.Kind, name string) error {
	if kind == symbols.KindLocalLabel || symbols.IsLocalLabel(name, d.localPrefix) {
		return ErrLocalLabelRename
	}

	return d.validName(kind, name)
}

// Parse scans src into a tree. A nil context is replaced by an empty one;
// the context is extended with the names defined in src.
func (d *Dialect) Parse(src string, ctx *ParseContext) *syntax.Tree {
	if ctx == nil {
		ctx = NewParseContext()
	}

	return d.parse(src, ctx)
}

// File parses src and wraps the result as a source file.
func (d *Dialect) File(uri, src string, ctx *ParseContext) *symbols.SourceFile {
	return &symbols.SourceFile{URI: uri, Tree: d.Parse(src, ctx), Language: d}
}

// withExtensions returns a copy of the dialect using other file extensions.
func (d *Dialect) withExtensions(exts []string) *Dialect {
	clone := *d
	clone.extensions = normalizeExtensions(exts)

	return &clone
}

func normalizeExtensions(exts []string) []string {
	result := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}

		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}

		result = append(result, e)
	}

	return result
}

// Registry holds the known dialects.
type Registry struct {
	dialects []*Dialect
}

// NewRegistry returns a registry with the six built-in dialects.
func NewRegistry() *Registry {
	return &Registry{dialects: []*Dialect{
		Xas99(), Xas99R(), Xga99(), Xga99R(), Xbas99(), Xbas99L(),
	}}
}

// WithExtensions returns a registry whose dialects use the given extension
// lists, keyed by dialect name. Dialects without an entry keep their defaults.
func (r *Registry) WithExtensions(overrides map[string][]string) (*Registry, error) {
	result := &Registry{}

	for _, d := range r.dialects {
		exts, ok := overrides[d.name]
		if !ok {
			result.dialects = append(result.dialects, d)
			continue
		}

		if len(normalizeExtensions(exts)) == 0 {
			return nil, fmt.Errorf("dialect %s: empty extension list", d.name)
		}

		result.dialects = append(result.dialects, d.withExtensions(exts))
	}

	for name := range overrides {
		if r.ByName(name) == nil {
			return nil, fmt.Errorf("unknown dialect %q", name)
		}
	}

	return result, nil
}

// All returns the dialects in registration order.
func (r *Registry) All() []*Dialect {
	return append([]*Dialect(nil), r.dialects...)
}

// Names returns the dialect names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.dialects))
	for _, d := range r.dialects {
		names = append(names, d.name)
	}

	sort.Strings(names)

	return names
}

// ByName looks a dialect up by name.
func (r *Registry) ByName(name string) *Dialect {
	for _, d := range r.dialects {
		if strings.EqualFold(d.name, name) {
			return d
		}
	}

	return nil
}

// ForPath returns the dialect handling a file path or URI.
func (r *Registry) ForPath(path string) *Dialect {
	for _, d := range r.dialects {
		if d.Matches(path) {
			return d
		}
	}

	return nil
}

// ForDocument picks a dialect by LSP language id, falling back to the path.
func (r *Registry) ForDocument(languageID, path string) *Dialect {
	for _, d := range r.dialects {
		for _, id := range d.languageIDs {
			if strings.EqualFold(id, languageID) {
				return d
			}
		}
	}

	return r.ForPath(path)
}
