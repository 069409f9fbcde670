package lsp

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

// CodeAction handles the textDocument/codeAction request.
// Undefined-symbol diagnostics carrying spelling suggestions get one quick
// fix per suggestion.
func CodeAction(context *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	srv := getServer("CodeAction")
	if srv == nil {
		return nil, nil
	}

	uri := params.TextDocument.URI

	logger().Debugf("CodeAction request at %s with %d diagnostics", uri, len(params.Context.Diagnostics))

	actions := []protocol.CodeAction{}

	for _, diagnostic := range params.Context.Diagnostics {
		actions = append(actions, quickFixes(uri, diagnostic)...)
	}

	return actions, nil
}

// quickFixes builds the "Change to" actions of a diagnostic.
func quickFixes(uri protocol.DocumentUri, diagnostic protocol.Diagnostic) []protocol.CodeAction {
	if diagnostic.Code == nil {
		return nil
	}

	code, _ := diagnostic.Code.Value.(string)
	if code != string(symbols.CodeUndefinedSymbol) && code != string(symbols.CodeUndefinedTarget) {
		return nil
	}

	var actions []protocol.CodeAction

	for i, name := range suggestionsOf(diagnostic.Data) {
		kind := protocol.CodeActionKindQuickFix
		preferred := i == 0

		actions = append(actions, protocol.CodeAction{
			Title:       fmt.Sprintf("Change to %s", name),
			Kind:        &kind,
			Diagnostics: []protocol.Diagnostic{diagnostic},
			IsPreferred: &preferred,
			Edit: &protocol.WorkspaceEdit{
				Changes: map[protocol.DocumentUri][]protocol.TextEdit{
					uri: {{Range: diagnostic.Range, NewText: name}},
				},
			},
		})
	}

	return actions
}

// suggestionsOf reads the names stored in a diagnostic's data field. Data
// that went through the client arrives as decoded JSON.
func suggestionsOf(data any) []string {
	switch v := data.(type) {
	case []string:
		return v
	case []any:
		names := make([]string, 0, len(v))

		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				names = append(names, s)
			}
		}

		return names
	}

	return nil
}
