package lsp

import (
	"sort"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/dialect"
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

// maxWorkspaceSymbols bounds the workspace/symbol result.
const maxWorkspaceSymbols = 500

// workspaceSymbolKinds are searched by workspace/symbol; local labels and
// BASIC variables are too numerous to be useful.
var workspaceSymbolKinds = []symbols.Kind{
	symbols.KindLabel,
	symbols.KindRegisterAlias,
	symbols.KindMacro,
	symbols.KindBasicNumericFunc,
	symbols.KindBasicStringFunc,
}

// WorkspaceSymbol handles the workspace/symbol request.
// Query matching is case-insensitive substring matching.
func WorkspaceSymbol(context *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	srv := getServer("WorkspaceSymbol")
	if srv == nil {
		return nil, nil
	}

	query := symbols.Normalize(strings.TrimSpace(params.Query))

	logger().Debugf("Workspace symbol search for %q", params.Query)

	ix := srv.Index()
	cache := newLineCache(srv)
	result := []protocol.SymbolInformation{}

	for _, family := range []string{dialect.FamilyXas99, dialect.FamilyXga99, dialect.FamilyXbas99} {
		scope := symbols.ProjectScope(family)

		for _, kind := range workspaceSymbolKinds {
			for _, d := range ix.FindAllDefinitions(scope, kind) {
				if d.External || !strings.Contains(symbols.Normalize(d.Name), query) {
					continue
				}

				loc, ok := cache.definitionLocation(d)
				if !ok {
					continue
				}

				container := family

				result = append(result, protocol.SymbolInformation{
					Name:          d.Name,
					Kind:          symbolKind(d.Kind),
					Location:      loc,
					ContainerName: &container,
				})
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return symbols.Normalize(result[i].Name) < symbols.Normalize(result[j].Name)
	})

	if len(result) > maxWorkspaceSymbols {
		result = result[:maxWorkspaceSymbols]
	}

	return result, nil
}
