package lsp

import (
	"sort"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// References handles the textDocument/references request.
// It returns the usages resolving to the symbol under the cursor and, when
// requested, its definition and external declarations.
func References(context *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	srv := getServer("References")
	if srv == nil {
		return nil, nil
	}

	uri := params.TextDocument.URI
	position := params.Position

	logger().Debugf("References request at %s line %d, character %d (includeDeclaration=%v)",
		uri, position.Line, position.Character, params.Context.IncludeDeclaration)

	cache := newLineCache(srv)

	def, ok := definitionOf(srv, occurrenceAt(srv, cache, uri, position))
	if !ok {
		return []protocol.Location{}, nil
	}

	engine := srv.Engine()
	locations := []protocol.Location{}

	if params.Context.IncludeDeclaration {
		if loc, ok := cache.definitionLocation(def); ok {
			locations = append(locations, loc)
		}

		for _, d := range engine.Declarations(def) {
			if loc, ok := cache.definitionLocation(d); ok {
				locations = append(locations, loc)
			}
		}
	}

	for _, u := range engine.References(def) {
		if loc, ok := cache.usageLocation(u); ok {
			locations = append(locations, loc)
		}
	}

	sortLocations(locations)

	logger().Debugf("Found %d references to %s %s", len(locations), def.Kind, def.Name)

	return locations, nil
}

// sortLocations orders locations by URI, then position.
func sortLocations(locations []protocol.Location) {
	sort.SliceStable(locations, func(i, j int) bool {
		a, b := locations[i], locations[j]
		if a.URI != b.URI {
			return a.URI < b.URI
		}

		if a.Range.Start.Line != b.Range.Start.Line {
			return a.Range.Start.Line < b.Range.Start.Line
		}

		return a.Range.Start.Character < b.Range.Start.Character
	})
}
