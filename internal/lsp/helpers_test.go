package lsp

import (
	"testing"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/server"
)

const (
	mainURI = "file:///src/main.a99"
	libURI  = "file:///src/lib.a99"
)

const (
	mainSrc = "MAIN   BL   @SUB\n" +
		"       B    @SUB\n" +
		"       DEF  MAIN\n"
	libSrc = "SUB    RT\n" +
		"       DEF  SUB\n"
)

// newTestServer installs a fresh server for the handlers and runs
// background work inline.
func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	srv := server.New()
	SetServer(srv)

	background := runInBackground
	runInBackground = func(f func()) { f() }

	t.Cleanup(func() {
		SetServer(nil)
		runInBackground = background
		srv.SetShuttingDown()
	})

	return srv
}

// openProject opens the two-file assembler project used by most tests.
func openProject(t *testing.T) *server.Server {
	t.Helper()

	srv := newTestServer(t)
	srv.OpenDocument(mainURI, "xas99", 1, mainSrc)
	srv.OpenDocument(libURI, "xas99", 1, libSrc)

	return srv
}

func at(line, character int) protocol.Position {
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(character)}
}

func span(line, start, end int) protocol.Range {
	return protocol.Range{Start: at(line, start), End: at(line, end)}
}

func positionParams(uri string, line, character int) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     at(line, character),
	}
}

// recorder captures published diagnostics, keeping the latest per URI.
type recorder struct {
	published map[string][]protocol.Diagnostic
}

func newRecorder() (*recorder, *glsp.Context) {
	r := &recorder{published: make(map[string][]protocol.Diagnostic)}

	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if p, ok := params.(*protocol.PublishDiagnosticsParams); ok {
				r.published[p.URI] = p.Diagnostics
			}
		},
	}

	return r, ctx
}

func (r *recorder) codes(uri string) []string {
	var codes []string

	for _, d := range r.published[uri] {
		if d.Code != nil {
			s, _ := d.Code.Value.(string)
			codes = append(codes, s)
		}
	}

	return codes
}
