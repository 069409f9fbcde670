package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Hover handles the textDocument/hover request. It shows what a symbol is
// and the source line defining it.
func Hover(context *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	srv := getServer("Hover")
	if srv == nil {
		return nil, nil
	}

	uri := params.TextDocument.URI

	logger().Debugf("Hover request at %s line %d, character %d",
		uri, params.Position.Line, params.Position.Character)

	cache := newLineCache(srv)

	occ := occurrenceAt(srv, cache, uri, params.Position)
	if !occ.Found() {
		return nil, nil
	}

	var sb strings.Builder

	def, ok := definitionOf(srv, occ)
	if !ok {
		candidates := 0
		if occ.Usage != nil {
			candidates = len(srv.Engine().MultiResolve(*occ.Usage))
		}

		if candidates == 0 {
			fmt.Fprintf(&sb, "undefined %s **%s**", occ.Kind(), occ.Name())
		} else {
			fmt.Fprintf(&sb, "%s **%s** has %d definitions", occ.Kind(), occ.Name(), candidates)
		}
	} else {
		fmt.Fprintf(&sb, "%s **%s**\n\n", describe(def), def.Name)

		if line := definitionLine(def); line != "" {
			fmt.Fprintf(&sb, "```%s\n%s\n```", def.File.Language.Name(), line)
		}
	}

	start, end := occ.Span()

	hover := &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: sb.String(),
		},
	}

	if r, ok := cache.rangeOf(uri, start, end); ok {
		hover.Range = &r
	}

	return hover, nil
}
