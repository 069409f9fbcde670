package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/document"
)

// DidOpen handles the textDocument/didOpen notification.
// This is sent when a document is opened in the editor.
func DidOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	srv := getServer("DidOpen")
	if srv == nil {
		return nil
	}

	uri := params.TextDocument.URI
	text := params.TextDocument.Text
	languageID := params.TextDocument.LanguageID
	version := int(params.TextDocument.Version)

	logger().Infof("Document opened: %s (version %d, language %s, %d bytes)",
		uri, version, languageID, len(text))

	doc := srv.OpenDocument(uri, languageID, version, text)
	if doc.File == nil {
		logger().Infof("No xdt99 dialect handles %s", uri)
	}

	publishOpenDocuments(context, srv)

	return nil
}

// DidClose handles the textDocument/didClose notification.
// This is sent when a document is closed in the editor.
func DidClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv := getServer("DidClose")
	if srv == nil {
		return nil
	}

	uri := params.TextDocument.URI

	srv.CloseDocument(uri)

	logger().Infof("Document closed: %s", uri)

	// Clear the markers of the closed document; the others may depend on it.
	clearDiagnostics(context, uri)
	publishOpenDocuments(context, srv)

	return nil
}

// DidChange handles the textDocument/didChange notification.
// It supports both full and incremental sync modes.
func DidChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	srv := getServer("DidChange")
	if srv == nil {
		return nil
	}

	uri := params.TextDocument.URI
	version := int(params.TextDocument.Version)

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		logger().Warningf("Document not found for didChange: %s", uri)
		return nil
	}

	newText := doc.Text

	for i, changeInterface := range params.ContentChanges {
		switch change := changeInterface.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			newText = change.Text
		case protocol.TextDocumentContentChangeEvent:
			updatedText, err := document.ApplyContentChange(newText, change)
			if err != nil {
				logger().Errorf("Error applying incremental change to %s: %v", uri, err)
				// Continue with unchanged text to avoid corruption
				continue
			}

			newText = updatedText
		default:
			logger().Warningf("Invalid content change type at index %d for %s", i, uri)
		}
	}

	logger().Debugf("Document changed: %s (version %d, %d changes)", uri, version, len(params.ContentChanges))

	srv.ChangeDocument(uri, version, newText)

	publishOpenDocuments(context, srv)

	return nil
}

// DidSave handles the textDocument/didSave notification. The saved file's
// workspace copy is refreshed for when the document is closed.
func DidSave(context *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	srv := getServer("DidSave")
	if srv == nil {
		return nil
	}

	if _, ok := srv.Workspace().Get(params.TextDocument.URI); ok {
		srv.ReloadFile(params.TextDocument.URI)
	}

	return nil
}
