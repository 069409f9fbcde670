package symbols

import (
	"fmt"

	"github.com/CWBudde/go-xdt99-lsp/internal/syntax"
)

// Definition is the defining occurrence of a symbol.
type Definition struct {
	Name   string
	Kind   Kind
	Offset int
	End    int
	File   *SourceFile
	Node   syntax.NodeID

	// External is set for names the linker provides (REF).
	External bool
}

// Same reports whether two definitions denote the same occurrence.
func (d Definition) Same(other Definition) bool {
	return d.File != nil && other.File != nil &&
		d.File.URI == other.File.URI &&
		d.Offset == other.Offset &&
		d.Kind == other.Kind
}

// URI returns the URI of the containing file.
func (d Definition) URI() string {
	if d.File == nil {
		return ""
	}

	return d.File.URI
}

// Usage is a referencing occurrence of a symbol.
type Usage struct {
	Name   string
	Kind   Kind
	Offset int
	End    int
	File   *SourceFile
	Node   syntax.NodeID

	// Distance is set for local labels only: its magnitude counts the
	// leading prefix characters, its sign is the search direction.
	Distance int

	// LineStart is the offset of the first token of the usage's line.
	LineStart int
}

// URI returns the URI of the containing file.
func (u Usage) URI() string {
	if u.File == nil {
		return ""
	}

	return u.File.URI
}

// NewDefinition builds the definition occurrence for a node.
func NewDefinition(file *SourceFile, id syntax.NodeID, kind Kind) (Definition, error) {
	if file == nil || !file.Tree.Valid(id) {
		return Definition{}, fmt.Errorf("definition at node %d: %w", id, syntax.ErrNodeNotInTree)
	}

	start, end := file.Tree.Span(id)

	return Definition{
		Name:     file.Tree.Text(id),
		Kind:     kind,
		Offset:   start,
		End:      end,
		File:     file,
		Node:     id,
		External: file.Tree.Has(id, syntax.FlagExternal),
	}, nil
}

// NewUsage builds the usage occurrence for a node. Local-label usages get
// their distance and line anchor here.
func NewUsage(file *SourceFile, id syntax.NodeID, kind Kind) (Usage, error) {
	if file == nil || !file.Tree.Valid(id) {
		return Usage{}, fmt.Errorf("usage at node %d: %w", id, syntax.ErrNodeNotInTree)
	}

	start, end := file.Tree.Span(id)
	u := Usage{
		Name:   file.Tree.Text(id),
		Kind:   kind,
		Offset: start,
		End:    end,
		File:   file,
		Node:   id,
	}

	if kind == KindLocalLabel {
		lineStart, err := file.Tree.LineStart(id)
		if err != nil {
			return Usage{}, err
		}

		u.LineStart = lineStart
		u.Distance = Distance(u.Name, file.Language.LocalPrefix(), file.Tree.Has(id, syntax.FlagNegative))
	}

	return u, nil
}

// Definitions extracts every definition of a file in document order.
func Definitions(file *SourceFile) []Definition {
	var result []Definition

	walk(file, func(id syntax.NodeID, role Role, kind Kind) {
		if role != RoleDefinition {
			return
		}

		if d, err := NewDefinition(file, id, kind); err == nil {
			result = append(result, d)
		}
	})

	return result
}

// Usages extracts every usage of a file in document order.
func Usages(file *SourceFile) []Usage {
	var result []Usage

	walk(file, func(id syntax.NodeID, role Role, kind Kind) {
		if role != RoleUsage {
			return
		}

		if u, err := NewUsage(file, id, kind); err == nil {
			result = append(result, u)
		}
	})

	return result
}

func walk(file *SourceFile, fn func(syntax.NodeID, Role, Kind)) {
	if file == nil || file.Tree == nil || file.Language == nil {
		return
	}

	tree := file.Tree
	tree.Walk(tree.Root(), func(id syntax.NodeID) bool {
		role, kind := file.Language.Classify(tree, id)
		if role != RoleNone && kind != KindNone {
			fn(id, role, kind)
		}

		return true
	})
}

// Occurrence is whatever symbol occurrence sits at a position: at most one
// of Definition and Usage is set.
type Occurrence struct {
	Definition *Definition
	Usage      *Usage
}

// Found reports whether the occurrence holds anything.
func (o Occurrence) Found() bool {
	return o.Definition != nil || o.Usage != nil
}

// Kind returns the kind of the occurrence.
func (o Occurrence) Kind() Kind {
	switch {
	case o.Definition != nil:
		return o.Definition.Kind
	case o.Usage != nil:
		return o.Usage.Kind
	}

	return KindNone
}

// Name returns the name of the occurrence.
func (o Occurrence) Name() string {
	switch {
	case o.Definition != nil:
		return o.Definition.Name
	case o.Usage != nil:
		return o.Usage.Name
	}

	return ""
}

// Span returns the byte range of the occurrence.
func (o Occurrence) Span() (int, int) {
	switch {
	case o.Definition != nil:
		return o.Definition.Offset, o.Definition.End
	case o.Usage != nil:
		return o.Usage.Offset, o.Usage.End
	}

	return 0, 0
}

// OccurrenceAt returns the symbol occurrence covering offset. A cursor placed
// directly after a name still finds it.
func OccurrenceAt(file *SourceFile, offset int) Occurrence {
	if file == nil || file.Tree == nil || file.Language == nil {
		return Occurrence{}
	}

	for _, off := range []int{offset, offset - 1} {
		if off < 0 {
			continue
		}

		id := file.Tree.NodeAt(off)
		for id != syntax.NoNode && id != file.Tree.Root() {
			role, kind := file.Language.Classify(file.Tree, id)
			if kind == KindNone {
				role = RoleNone
			}

			switch role {
			case RoleDefinition:
				if d, err := NewDefinition(file, id, kind); err == nil {
					return Occurrence{Definition: &d}
				}
			case RoleUsage:
				if u, err := NewUsage(file, id, kind); err == nil {
					return Occurrence{Usage: &u}
				}
			}

			id = file.Tree.Parent(id)
		}
	}

	return Occurrence{}
}
