package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/document"
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

func TestToProtocolDiagnostics(t *testing.T) {
	lines := document.NewLineIndex("MAIN   BL   @SUX\n")

	diags := []symbols.Diagnostic{
		{
			Code: symbols.CodeUnusedSymbol, Severity: symbols.SeverityWarning,
			Message: "Unused label MAIN", Start: 0, End: 4,
		},
		{
			Code: symbols.CodeUndefinedSymbol, Severity: symbols.SeverityError,
			Message: "Undefined label SUX (did you mean SUB?)", Start: 13, End: 16,
			Suggestions: []string{"SUB"},
		},
		{
			Code: symbols.CodeUndefinedSymbol, Severity: symbols.SeverityError,
			Message: "outside", Start: 40, End: 44,
		},
	}

	result := ToProtocolDiagnostics(diags, lines, 0)
	require.Len(t, result, 2, "diagnostics outside the text are dropped")

	unused := result[0]
	assert.Equal(t, span(0, 0, 4), unused.Range)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *unused.Severity)
	assert.Equal(t, "unused-symbol", unused.Code.Value)
	assert.Equal(t, "xdt99", *unused.Source)
	assert.Equal(t, []protocol.DiagnosticTag{protocol.DiagnosticTagUnnecessary}, unused.Tags)
	assert.Nil(t, unused.Data)

	undefined := result[1]
	assert.Equal(t, protocol.DiagnosticSeverityError, *undefined.Severity)
	assert.Equal(t, "Undefined label SUX (did you mean SUB?)", undefined.Message)
	assert.Equal(t, []string{"SUB"}, undefined.Data)
	assert.Empty(t, undefined.Tags)
}

func TestToProtocolDiagnostics_MaxProblems(t *testing.T) {
	lines := document.NewLineIndex("A\nB\nC\n")

	var diags []symbols.Diagnostic
	for i := 0; i < 3; i++ {
		diags = append(diags, symbols.Diagnostic{
			Code: symbols.CodeUndefinedSymbol, Severity: symbols.SeverityError,
			Start: i * 2, End: i*2 + 1,
		})
	}

	assert.Len(t, ToProtocolDiagnostics(diags, lines, 2), 2)
	assert.Len(t, ToProtocolDiagnostics(diags, lines, 0), 3)
	assert.Len(t, ToProtocolDiagnostics(diags, lines, -1), 3)
}

func TestSortDiagnostics(t *testing.T) {
	diags := []protocol.Diagnostic{
		{Range: span(2, 0, 1), Message: "c"},
		{Range: span(0, 5, 6), Message: "b"},
		{Range: span(0, 1, 2), Message: "a"},
	}

	sortDiagnostics(diags)

	assert.Equal(t, "a", diags[0].Message)
	assert.Equal(t, "b", diags[1].Message)
	assert.Equal(t, "c", diags[2].Message)
}

func TestPublishDiagnostics_NilContext(t *testing.T) {
	assert.NotPanics(t, func() {
		PublishDiagnostics(nil, mainURI, nil)
		PublishDiagnostics(&glsp.Context{}, mainURI, nil)
	})
}
