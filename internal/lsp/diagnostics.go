package lsp

import (
	"sort"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/document"
	"github.com/CWBudde/go-xdt99-lsp/internal/server"
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

const diagnosticSource = "xdt99"

// PublishDiagnostics sends diagnostic information to the client for a specific document.
func PublishDiagnostics(context *glsp.Context, uri string, diagnostics []protocol.Diagnostic) {
	if context == nil || context.Notify == nil {
		logger().Debug("Cannot publish diagnostics: context or Notify is nil")
		return
	}

	sortDiagnostics(diagnostics)

	params := &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	}

	logger().Debugf("Publishing %d diagnostic(s) for %s", len(diagnostics), uri)

	context.Notify(protocol.ServerTextDocumentPublishDiagnostics, params)
}

// sortDiagnostics sorts diagnostics by position (line first, then column).
func sortDiagnostics(diagnostics []protocol.Diagnostic) {
	sort.SliceStable(diagnostics, func(i, j int) bool {
		if diagnostics[i].Range.Start.Line != diagnostics[j].Range.Start.Line {
			return diagnostics[i].Range.Start.Line < diagnostics[j].Range.Start.Line
		}

		return diagnostics[i].Range.Start.Character < diagnostics[j].Range.Start.Character
	})
}

// ToProtocolDiagnostics converts symbol diagnostics, keeping at most
// maxProblems of them when maxProblems is positive. Suggestions travel in
// the diagnostic's data field for the quick fixes.
func ToProtocolDiagnostics(diags []symbols.Diagnostic, lines *document.LineIndex, maxProblems int) []protocol.Diagnostic {
	result := make([]protocol.Diagnostic, 0, len(diags))

	for _, d := range diags {
		if maxProblems > 0 && len(result) >= maxProblems {
			break
		}

		r, err := lines.Range(d.Start, d.End)
		if err != nil {
			continue
		}

		severity := protocol.DiagnosticSeverityError
		if d.Severity == symbols.SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}

		source := diagnosticSource

		pd := protocol.Diagnostic{
			Range:    r,
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: string(d.Code)},
			Source:   &source,
			Message:  d.Message,
		}

		if len(d.Suggestions) > 0 {
			pd.Data = d.Suggestions
		}

		if d.Code == symbols.CodeUnusedSymbol {
			pd.Tags = []protocol.DiagnosticTag{protocol.DiagnosticTagUnnecessary}
		}

		result = append(result, pd)
	}

	return result
}

// publishFor checks one document and publishes the result.
func publishFor(context *glsp.Context, srv *server.Server, uri string) {
	doc, ok := srv.Documents().Get(uri)
	if !ok {
		return
	}

	diags := srv.Diagnostics(uri)
	PublishDiagnostics(context, uri, ToProtocolDiagnostics(diags, doc.Lines(), srv.Config().MaxProblems))
}

// publishOpenDocuments refreshes the diagnostics of every open document;
// a change in one file can define or orphan symbols in the others.
func publishOpenDocuments(context *glsp.Context, srv *server.Server) {
	for _, uri := range srv.Documents().List() {
		publishFor(context, srv, uri)
	}
}

func clearDiagnostics(context *glsp.Context, uri string) {
	PublishDiagnostics(context, uri, []protocol.Diagnostic{})
}
