package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/server"
)

// SemanticTokensFull handles textDocument/semanticTokens/full requests.
// It returns semantic highlighting information for the entire document.
func SemanticTokensFull(context *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	srv := getServer("SemanticTokensFull")
	if srv == nil {
		return nil, nil
	}

	uri := params.TextDocument.URI

	file := srv.File(uri)
	if file == nil || file.Tree == nil {
		logger().Debugf("No parsed file for semantic tokens: %s", uri)
		return &protocol.SemanticTokens{Data: []protocol.UInteger{}}, nil
	}

	lines := newLineCache(srv).get(uri)
	if lines == nil {
		return &protocol.SemanticTokens{Data: []protocol.UInteger{}}, nil
	}

	tokens := srv.SemanticTokensLegend().CollectSemanticTokens(file, lines)

	logger().Debugf("Collected %d semantic tokens for %s", len(tokens), uri)

	return &protocol.SemanticTokens{Data: server.EncodeSemanticTokens(tokens)}, nil
}
