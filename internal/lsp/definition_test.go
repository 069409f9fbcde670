package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func definitionAt(t *testing.T, uri string, line, character int) any {
	t.Helper()

	result, err := Definition(nil, &protocol.DefinitionParams{
		TextDocumentPositionParams: positionParams(uri, line, character),
	})
	require.NoError(t, err)

	return result
}

func TestDefinition_AcrossFiles(t *testing.T) {
	openProject(t)

	result := definitionAt(t, mainURI, 0, 14)
	require.IsType(t, protocol.Location{}, result)

	loc := result.(protocol.Location)
	assert.Equal(t, libURI, loc.URI)
	assert.Equal(t, span(0, 0, 3), loc.Range)
}

func TestDefinition_OnDefinitionItself(t *testing.T) {
	openProject(t)

	result := definitionAt(t, libURI, 0, 1)
	require.IsType(t, protocol.Location{}, result)
	assert.Equal(t, span(0, 0, 3), result.(protocol.Location).Range)
}

func TestDefinition_ExternalDeclarationJumpsToDefinition(t *testing.T) {
	srv := openProject(t)
	srv.OpenDocument("file:///src/ext.a99", "xas99", 1, "       REF  SUB\n       BL   @SUB\n")

	for _, character := range []int{12, 13} {
		result := definitionAt(t, "file:///src/ext.a99", 0, character)
		require.IsType(t, protocol.Location{}, result)
		assert.Equal(t, libURI, result.(protocol.Location).URI)
	}

	result := definitionAt(t, "file:///src/ext.a99", 1, 13)
	require.IsType(t, protocol.Location{}, result)
	assert.Equal(t, libURI, result.(protocol.Location).URI, "a definition wins over the REF")
}

func TestDefinition_AmbiguousHasNoTarget(t *testing.T) {
	srv := openProject(t)
	srv.OpenDocument("file:///src/dup.a99", "xas99", 1, "SUB    RT\n")

	assert.Nil(t, definitionAt(t, mainURI, 0, 14))
}

func TestDefinition_LocalLabel(t *testing.T) {
	srv := newTestServer(t)
	srv.OpenDocument("file:///src/loop.a99", "xas99", 1,
		"       JMP  !!\n!      DEC  R1\n!      DEC  R2\n       JNE  -!\n")

	result := definitionAt(t, "file:///src/loop.a99", 0, 12)
	require.IsType(t, protocol.Location{}, result)
	assert.Equal(t, span(2, 0, 1), result.(protocol.Location).Range, "the second label ahead")

	result = definitionAt(t, "file:///src/loop.a99", 3, 13)
	require.IsType(t, protocol.Location{}, result)
	assert.Equal(t, span(2, 0, 1), result.(protocol.Location).Range, "the nearest label behind")
}

func TestDefinition_NoSymbol(t *testing.T) {
	openProject(t)

	assert.Nil(t, definitionAt(t, mainURI, 0, 8), "mnemonics are not symbols")
	assert.Nil(t, definitionAt(t, "file:///src/missing.a99", 0, 0))
	assert.Nil(t, definitionAt(t, mainURI, 40, 0))
}

func TestDefinition_NoServer(t *testing.T) {
	SetServer(nil)

	assert.Nil(t, definitionAt(t, mainURI, 0, 14))
}
