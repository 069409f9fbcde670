//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/lsp"
	"github.com/CWBudde/go-xdt99-lsp/internal/server"
	"github.com/CWBudde/go-xdt99-lsp/internal/workspace"
)

// project is a small cartridge: assembly routines shared through DEF/REF,
// a register alias file, GPL menus and an Extended BASIC loader.
var project = map[string]string{
	".xdt99-lsp.yaml": "maxProblems: 50\nexclude:\n  - \"generated/**\"\n",
	"src/main.a99": "       DEF  START\n" +
		"       REF  VSBW,CLS\n" +
		"START  LWPI WS\n" +
		"       BL   @CLS\n" +
		"       LI   R0,>0100\n" +
		"!      BL   @VSBW\n" +
		"       DEC  CNT\n" +
		"       JNE  -!\n" +
		"       B    @START\n",
	"src/video.a99": "       DEF  VSBW,CLS\n" +
		"VSBW   MOVB R1,@>8C00\n" +
		"       RT\n" +
		"CLS    CLR  R1\n" +
		"       RT\n" +
		"WS     BSS  32\n" +
		"       DEF  WS\n",
	"src/regs.a99":      "CNT    REQU R2\n",
	"gpl/menu.gpl":      "MENU   BACK >04\n       B    MENU\n",
	"basic/load.b99":    "10 CALL CLEAR\n20 INPUT N\n30 IF N>0 THEN 20\n40 END\n",
	"generated/out.a99": "VSBW   RT\n",
	"notes.txt":         "START\n",
}

type recorder struct {
	mu        sync.Mutex
	published map[string][]protocol.Diagnostic
}

func (r *recorder) get(uri string) ([]protocol.Diagnostic, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.published[uri]

	return d, ok
}

// session is a server wired to the handlers over a temporary copy of the
// project.
type session struct {
	srv *server.Server
	ctx *glsp.Context
	rec *recorder
	dir string
}

func newSession(t *testing.T) *session {
	t.Helper()

	dir := t.TempDir()
	for name, content := range project {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	rec := &recorder{published: make(map[string][]protocol.Diagnostic)}
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if p, ok := params.(*protocol.PublishDiagnosticsParams); ok {
				rec.mu.Lock()
				rec.published[p.URI] = p.Diagnostics
				rec.mu.Unlock()
			}
		},
	}

	srv := server.New()
	lsp.SetServer(srv)

	t.Cleanup(func() {
		srv.SetShuttingDown()
		lsp.SetServer(nil)
	})

	return &session{srv: srv, ctx: ctx, rec: rec, dir: dir}
}

func (s *session) uri(name string) string {
	return workspace.PathToURI(filepath.Join(s.dir, filepath.FromSlash(name)))
}

func (s *session) text(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(name)))
	require.NoError(t, err)

	return string(data)
}

func (s *session) initialize(t *testing.T) {
	t.Helper()

	root := workspace.PathToURI(s.dir)

	_, err := lsp.Initialize(s.ctx, &protocol.InitializeParams{RootURI: &root})
	require.NoError(t, err)
}

// start initializes the session and indexes the project before returning.
func (s *session) start(t *testing.T, files int) {
	t.Helper()

	s.initialize(t)

	_, err := s.srv.IndexWorkspace(s.srv.Context())
	require.NoError(t, err)
	require.Equal(t, files, s.srv.Workspace().Len())
}

func (s *session) open(t *testing.T, name, languageID string) {
	t.Helper()

	require.NoError(t, lsp.DidOpen(s.ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI: s.uri(name), LanguageID: languageID, Version: 1, Text: s.text(t, name),
		},
	}))
}

func position(uri string, line, character int) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(character)},
	}
}
