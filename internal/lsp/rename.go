package lsp

import (
	"errors"
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/reference"
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

// ErrNoSymbol is returned when a rename starts outside any symbol.
var ErrNoSymbol = errors.New("no symbol at this position")

// PrepareRename handles the textDocument/prepareRename request. It rejects
// local labels and ambiguous or undefined usages before the user types a
// new name.
func PrepareRename(context *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
	srv := getServer("PrepareRename")
	if srv == nil {
		return nil, nil
	}

	cache := newLineCache(srv)
	uri := params.TextDocument.URI

	occ := occurrenceAt(srv, cache, uri, params.Position)
	if !occ.Found() {
		return nil, nil
	}

	if occ.Kind() == symbols.KindLocalLabel {
		return nil, reference.ErrLocalLabel
	}

	if _, ok := definitionOf(srv, occ); !ok {
		return nil, fmt.Errorf("%w: %s", reference.ErrUnresolved, occ.Name())
	}

	start, end := occ.Span()

	r, ok := cache.rangeOf(uri, start, end)
	if !ok {
		return nil, nil
	}

	return protocol.RangeWithPlaceholder{Range: r, Placeholder: occ.Name()}, nil
}

// Rename handles the textDocument/rename request.
// It rewrites the definition, its external declarations and every usage
// resolving to it, across the files of the language family.
func Rename(context *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	srv := getServer("Rename")
	if srv == nil {
		return nil, errors.New("server instance not available")
	}

	uri := params.TextDocument.URI

	logger().Infof("Rename request at %s line %d, character %d to %q",
		uri, params.Position.Line, params.Position.Character, params.NewName)

	cache := newLineCache(srv)

	occ := occurrenceAt(srv, cache, uri, params.Position)
	if !occ.Found() {
		return nil, ErrNoSymbol
	}

	engine := srv.Engine()
	collector := reference.NewCollector()

	var err error

	switch {
	case occ.Definition != nil:
		err = engine.RenameDefinition(*occ.Definition, params.NewName, collector)
	default:
		err = engine.Rename(*occ.Usage, params.NewName, collector)
	}

	if err != nil {
		logger().Infof("Rename of %s rejected: %v", occ.Name(), err)
		return nil, err
	}

	return workspaceEdit(cache, collector)
}

// workspaceEdit converts collected byte-offset edits into LSP text edits.
func workspaceEdit(cache *lineCache, collector *reference.Collector) (*protocol.WorkspaceEdit, error) {
	edits := collector.Edits()
	changes := make(map[protocol.DocumentUri][]protocol.TextEdit, len(edits))

	for _, uri := range collector.URIs() {
		for _, e := range edits[uri] {
			r, ok := cache.rangeOf(uri, e.Start, e.End)
			if !ok {
				return nil, fmt.Errorf("edit %d-%d outside %s", e.Start, e.End, uri)
			}

			changes[uri] = append(changes[uri], protocol.TextEdit{Range: r, NewText: e.NewText})
		}
	}

	return &protocol.WorkspaceEdit{Changes: changes}, nil
}
