package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWBudde/go-xdt99-lsp/internal/config"
	"github.com/CWBudde/go-xdt99-lsp/internal/dialect"
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
	"github.com/CWBudde/go-xdt99-lsp/internal/workspace"
)

func usageKinds(file *symbols.SourceFile, name string) []symbols.Kind {
	var kinds []symbols.Kind

	for _, u := range symbols.Usages(file) {
		if u.Name == name {
			kinds = append(kinds, u.Kind)
		}
	}

	return kinds
}

func TestSourceFiles_OpenDocumentShadowsWorkspace(t *testing.T) {
	srv := New()

	srv.Workspace().Put("file:///src/main.a99", "OLD    DATA 0\n", srv.ParseWorkspaceFile)
	srv.Workspace().Put("file:///src/lib.a99", "LIB    DATA 0\n", srv.ParseWorkspaceFile)
	srv.OpenDocument("file:///src/main.a99", "xas99", 2, "NEW    DATA 0\n")
	srv.OpenDocument("file:///src/game.b99", "xbas99", 1, "10 END\n")

	files := srv.SourceFiles(dialect.FamilyXas99)
	require.Len(t, files, 2)
	assert.Equal(t, "file:///src/lib.a99", files[0].URI)
	assert.Equal(t, "file:///src/main.a99", files[1].URI)

	defs := symbols.Definitions(files[1])
	require.Len(t, defs, 1)
	assert.Equal(t, "NEW", defs[0].Name)

	assert.Len(t, srv.SourceFiles(dialect.FamilyXbas99), 1)
	assert.Empty(t, srv.SourceFiles(dialect.FamilyXga99))
}

func TestParse_SeedsAliasesFromOtherFiles(t *testing.T) {
	srv := New()

	srv.Workspace().Put("file:///src/regs.a99", "TMP    REQU R5\n", srv.ParseWorkspaceFile)

	file := srv.Parse("file:///src/main.a99", "", "       MOV  *TMP,R0\n")
	require.NotNil(t, file)
	assert.Equal(t, []symbols.Kind{symbols.KindRegisterAlias}, usageKinds(file, "TMP"))

	// BASIC files never share names across files.
	assert.NotNil(t, srv.Parse("file:///src/game.b99", "", "10 END\n"))
	assert.Nil(t, srv.Parse("file:///src/notes.txt", "", "hello"))
}

func TestParse_LanguageIDWins(t *testing.T) {
	srv := New()

	file := srv.Parse("file:///src/main.txt", "xas99r", "START: B @START\n")
	require.NotNil(t, file)
	assert.Equal(t, "xas99r", file.Language.Name())
}

func TestDocuments_OpenAndClose(t *testing.T) {
	srv := New()

	doc := srv.OpenDocument("file:///tmp/scratch.a99", "xas99", 1, "       B    @NOWHERE\n")
	require.NotNil(t, doc.File)
	assert.Same(t, doc.File, srv.File("file:///tmp/scratch.a99"))

	text, ok := srv.Text("file:///tmp/scratch.a99")
	assert.True(t, ok)
	assert.Equal(t, "       B    @NOWHERE\n", text)

	diags := srv.Diagnostics("file:///tmp/scratch.a99")
	require.Len(t, diags, 1)
	assert.Equal(t, symbols.CodeUndefinedSymbol, diags[0].Code)

	srv.CloseDocument("file:///tmp/scratch.a99")
	assert.Nil(t, srv.File("file:///tmp/scratch.a99"))
	assert.Empty(t, srv.Diagnostics("file:///tmp/scratch.a99"))
}

func TestConfig(t *testing.T) {
	srv := New()

	require.NoError(t, srv.UpdateConfig(func(cfg *config.Config) {
		cfg.MaxProblems = 7
		cfg.Languages = map[string][]string{"xas99": {".s"}}
	}))
	assert.Equal(t, 7, srv.Config().MaxProblems)
	assert.NotNil(t, srv.Registry().ForPath("boot.s"))

	err := srv.UpdateConfig(func(cfg *config.Config) { cfg.Trace = "loud" })
	require.Error(t, err)
	assert.Equal(t, config.TraceOff, srv.Config().Trace)

	// The returned configuration is a copy.
	srv.Config().MaxProblems = 1
	assert.Equal(t, 7, srv.Config().MaxProblems)
}

func TestIndexWorkspace(t *testing.T) {
	root := t.TempDir()

	files := map[string]string{
		"a.a99":           "       MOV  *WS,R0\n       B    @MAIN\n",
		"z.a99":           "WS     REQU R9\nMAIN   DATA 0\n",
		"game.b99":        "10 GOTO 20\n",
		".xdt99-lsp.yaml": "maxProblems: 3\nsuggestions: false\n",
	}

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}

	srv := New()
	srv.SetWorkspaceFolders([]string{root})

	stats, err := srv.IndexWorkspace(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Files)
	assert.Equal(t, 3, srv.Config().MaxProblems)

	a := srv.File(workspace.PathToURI(filepath.Join(root, "a.a99")))
	require.NotNil(t, a)
	assert.Equal(t, []symbols.Kind{symbols.KindRegisterAlias}, usageKinds(a, "WS"))
	assert.Empty(t, srv.Diagnostics(a.URI))

	game := workspace.PathToURI(filepath.Join(root, "game.b99"))
	diags := srv.Diagnostics(game)
	require.Len(t, diags, 1)
	assert.Empty(t, diags[0].Suggestions)

	assert.Equal(t, 3, srv.RemoveFolder(root))
	assert.Nil(t, srv.File(a.URI))
}

func TestReparse_UpdatesOpenDocuments(t *testing.T) {
	srv := New()

	srv.OpenDocument("file:///src/main.a99", "xas99", 1, "       MOV  *TMP,R0\n")
	assert.Equal(t, []symbols.Kind{symbols.KindLabel}, usageKinds(srv.File("file:///src/main.a99"), "TMP"))

	srv.Workspace().Put("file:///src/regs.a99", "TMP    REQU R5\n", srv.ParseWorkspaceFile)

	assert.Equal(t, []string{"file:///src/main.a99"}, srv.Reparse())
	assert.Equal(t, []symbols.Kind{symbols.KindRegisterAlias}, usageKinds(srv.File("file:///src/main.a99"), "TMP"))
}

func TestShuttingDown(t *testing.T) {
	srv := New()

	assert.False(t, srv.IsShuttingDown())
	srv.SetShuttingDown()
	assert.True(t, srv.IsShuttingDown())
}
