package reference

import (
	"errors"
	"fmt"
	"sort"

	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

var (
	// ErrLocalLabel is returned when a rename targets a local label.
	ErrLocalLabel = errors.New("local labels cannot be renamed")

	// ErrInvalidName wraps dialect name validation failures.
	ErrInvalidName = errors.New("invalid name")

	// ErrUnresolved is returned when a reference has no unique definition.
	ErrUnresolved = errors.New("reference does not resolve to a single definition")
)

// Edit replaces the byte range [Start, End) of a file.
type Edit struct {
	URI     string
	Start   int
	End     int
	NewText string
}

// Rewriter applies text replacements on behalf of a rename.
type Rewriter interface {
	Replace(uri string, start, end int, newText string) error
}

// Collector is a Rewriter that records edits instead of applying them.
type Collector struct {
	edits map[string][]Edit
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{edits: make(map[string][]Edit)}
}

// Replace implements Rewriter.
func (c *Collector) Replace(uri string, start, end int, newText string) error {
	c.edits[uri] = append(c.edits[uri], Edit{URI: uri, Start: start, End: end, NewText: newText})
	return nil
}

// Edits returns the recorded edits by URI, in the order they were recorded.
func (c *Collector) Edits() map[string][]Edit {
	return c.edits
}

// URIs returns the URIs with edits, sorted.
func (c *Collector) URIs() []string {
	uris := make([]string, 0, len(c.edits))
	for uri := range c.edits {
		uris = append(uris, uri)
	}

	sort.Strings(uris)

	return uris
}

// Rename renames the definition a usage resolves to.
func (e *Engine) Rename(u symbols.Usage, newName string, w Rewriter) error {
	if u.Kind == symbols.KindLocalLabel {
		return ErrLocalLabel
	}

	def, ok := e.Resolve(u)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnresolved, u.Name)
	}

	return e.RenameDefinition(def, newName, w)
}

// RenameDefinition rewrites a definition and every usage resolving to it.
// Edits reach the rewriter grouped by file, last offset first, so applying
// them in order never shifts a pending range.
func (e *Engine) RenameDefinition(def symbols.Definition, newName string, w Rewriter) error {
	if def.Kind == symbols.KindLocalLabel {
		return ErrLocalLabel
	}

	if def.File == nil || def.File.Language == nil {
		return fmt.Errorf("%w: %s", ErrUnresolved, def.Name)
	}

	def = e.Canonical(def)

	if err := def.File.Language.ValidName(def.Kind, newName); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidName, err)
	}

	edits := e.renameEdits(def, newName)
	for _, edit := range edits {
		if err := w.Replace(edit.URI, edit.Start, edit.End, edit.NewText); err != nil {
			return fmt.Errorf("rename %s in %s: %w", def.Name, edit.URI, err)
		}
	}

	return nil
}

func (e *Engine) renameEdits(def symbols.Definition, newName string) []Edit {
	type key struct {
		uri   string
		start int
	}

	seen := map[key]bool{}

	var edits []Edit

	add := func(uri string, start, end int) {
		k := key{uri, start}
		if seen[k] {
			return
		}

		seen[k] = true
		edits = append(edits, Edit{URI: uri, Start: start, End: end, NewText: newName})
	}

	add(def.URI(), def.Offset, def.End)

	for _, d := range e.Declarations(def) {
		add(d.URI(), d.Offset, d.End)
	}

	for _, u := range e.References(def) {
		add(u.URI(), u.Offset, u.End)
	}

	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].URI != edits[j].URI {
			return edits[i].URI < edits[j].URI
		}

		return edits[i].Start > edits[j].Start
	})

	return edits
}
