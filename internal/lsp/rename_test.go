package lsp

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/document"
	"github.com/CWBudde/go-xdt99-lsp/internal/reference"
)

// applyTextEdits applies LSP edits to text, last edit first.
func applyTextEdits(t *testing.T, text string, edits []protocol.TextEdit) string {
	t.Helper()

	for i := len(edits) - 1; i >= 0; i-- {
		r := edits[i].Range
		change := protocol.TextDocumentContentChangeEvent{Range: &r, Text: edits[i].NewText}

		var err error
		text, err = document.ApplyContentChange(text, change)
		require.NoError(t, err)
	}

	return text
}

func sortEdits(edits []protocol.TextEdit) []protocol.TextEdit {
	sorted := append([]protocol.TextEdit(nil), edits...)

	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Range.Start, sorted[j].Range.Start
		if a.Line != b.Line {
			return a.Line < b.Line
		}

		return a.Character < b.Character
	})

	return sorted
}

func TestPrepareRename(t *testing.T) {
	openProject(t)

	result, err := PrepareRename(nil, &protocol.PrepareRenameParams{
		TextDocumentPositionParams: positionParams(mainURI, 1, 14),
	})
	require.NoError(t, err)
	assert.Equal(t, protocol.RangeWithPlaceholder{Range: span(1, 13, 16), Placeholder: "SUB"}, result)

	result, err = PrepareRename(nil, &protocol.PrepareRenameParams{
		TextDocumentPositionParams: positionParams(mainURI, 0, 8),
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestPrepareRename_Rejected(t *testing.T) {
	srv := newTestServer(t)
	srv.OpenDocument("file:///src/a.a99", "xas99", 1, "!      DEC  R1\n       JNE  -!\n       JMP  NOWHERE\n")

	_, err := PrepareRename(nil, &protocol.PrepareRenameParams{
		TextDocumentPositionParams: positionParams("file:///src/a.a99", 1, 13),
	})
	require.ErrorIs(t, err, reference.ErrLocalLabel)

	_, err = PrepareRename(nil, &protocol.PrepareRenameParams{
		TextDocumentPositionParams: positionParams("file:///src/a.a99", 2, 12),
	})
	require.ErrorIs(t, err, reference.ErrUnresolved)
	assert.Contains(t, err.Error(), "NOWHERE")
}

func TestRename_AcrossFiles(t *testing.T) {
	openProject(t)

	edit, err := Rename(nil, &protocol.RenameParams{
		TextDocumentPositionParams: positionParams(mainURI, 0, 13),
		NewName:                    "PRINT",
	})
	require.NoError(t, err)
	require.Len(t, edit.Changes, 2)

	assert.Equal(t, "MAIN   BL   @PRINT\n       B    @PRINT\n       DEF  MAIN\n",
		applyTextEdits(t, mainSrc, sortEdits(edit.Changes[mainURI])))
	assert.Equal(t, "PRINT    RT\n       DEF  PRINT\n",
		applyTextEdits(t, libSrc, sortEdits(edit.Changes[libURI])))
}

func TestRename_FromDefinition(t *testing.T) {
	openProject(t)

	edit, err := Rename(nil, &protocol.RenameParams{
		TextDocumentPositionParams: positionParams(libURI, 0, 0),
		NewName:                    "sub2",
	})
	require.NoError(t, err)
	assert.Len(t, edit.Changes[mainURI], 2)
	assert.Len(t, edit.Changes[libURI], 2)
}

func TestRename_Errors(t *testing.T) {
	openProject(t)

	_, err := Rename(nil, &protocol.RenameParams{
		TextDocumentPositionParams: positionParams(mainURI, 0, 8),
		NewName:                    "X",
	})
	assert.ErrorIs(t, err, ErrNoSymbol)

	_, err = Rename(nil, &protocol.RenameParams{
		TextDocumentPositionParams: positionParams(mainURI, 0, 13),
		NewName:                    "R3",
	})
	assert.ErrorIs(t, err, reference.ErrInvalidName)
}
