package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/server"
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

// occurrenceAt returns the symbol occurrence under the cursor.
func occurrenceAt(srv *server.Server, cache *lineCache, uri string, pos protocol.Position) symbols.Occurrence {
	file, offset, ok := locate(srv, cache, uri, pos)
	if !ok {
		return symbols.Occurrence{}
	}

	return symbols.OccurrenceAt(file, offset)
}

// definitionOf returns the definition an occurrence stands for: a definition
// itself (external declarations map to what they declare) or the single
// definition a usage resolves to.
func definitionOf(srv *server.Server, occ symbols.Occurrence) (symbols.Definition, bool) {
	engine := srv.Engine()

	switch {
	case occ.Definition != nil:
		return engine.Canonical(*occ.Definition), true
	case occ.Usage != nil:
		return engine.Resolve(*occ.Usage)
	}

	return symbols.Definition{}, false
}

// Definition handles the textDocument/definition request.
// This provides "go-to definition" functionality. Usages that resolve to
// several definitions, or none, have no target.
func Definition(context *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	srv := getServer("Definition")
	if srv == nil {
		return nil, nil
	}

	uri := params.TextDocument.URI
	position := params.Position

	logger().Debugf("Definition request at %s line %d, character %d",
		uri, position.Line, position.Character)

	cache := newLineCache(srv)

	occ := occurrenceAt(srv, cache, uri, position)
	if !occ.Found() {
		logger().Debugf("No symbol at %s %d:%d", uri, position.Line, position.Character)
		return nil, nil
	}

	def, ok := definitionOf(srv, occ)
	if !ok {
		logger().Debugf("%s %s has no unique definition", occ.Kind(), occ.Name())
		return nil, nil
	}

	loc, ok := cache.definitionLocation(def)
	if !ok {
		return nil, nil
	}

	return loc, nil
}
