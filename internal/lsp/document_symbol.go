package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

// DocumentSymbol handles the textDocument/documentSymbol request.
// Labels, aliases, macros and BASIC definitions make up the outline; local
// labels are nested under the preceding global label. External
// declarations and BASIC variables appear once, at their first definition.
func DocumentSymbol(context *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	srv := getServer("DocumentSymbol")
	if srv == nil {
		return nil, nil
	}

	uri := params.TextDocument.URI

	file := srv.File(uri)
	if file == nil {
		return []protocol.DocumentSymbol{}, nil
	}

	cache := newLineCache(srv)

	result := []protocol.DocumentSymbol{}
	parent := -1
	seen := make(map[string]bool)

	for _, d := range symbols.Definitions(file) {
		if d.External {
			continue
		}

		if d.Kind.IsVariable() {
			key := d.Kind.String() + "\x00" + symbols.Normalize(d.Name)
			if seen[key] {
				continue
			}

			seen[key] = true
		}

		r, ok := cache.rangeOf(uri, d.Offset, d.End)
		if !ok {
			continue
		}

		detail := d.Kind.String()

		sym := protocol.DocumentSymbol{
			Name:           d.Name,
			Detail:         &detail,
			Kind:           symbolKind(d.Kind),
			Range:          r,
			SelectionRange: r,
		}

		if d.Kind == symbols.KindLocalLabel && parent >= 0 {
			result[parent].Children = append(result[parent].Children, sym)
			continue
		}

		result = append(result, sym)

		if d.Kind == symbols.KindLabel {
			parent = len(result) - 1
		}
	}

	logger().Debugf("Document %s has %d top-level symbols", uri, len(result))

	return result, nil
}
