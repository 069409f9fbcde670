package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/config"
	"github.com/CWBudde/go-xdt99-lsp/internal/server"
	"github.com/CWBudde/go-xdt99-lsp/internal/workspace"
)

// Name and Version are reported to the client in the initialize result.
var (
	Name    = "xdt99-lsp"
	Version = "0.1.0"
)

// runInBackground starts long-running work; tests replace it to run inline.
var runInBackground = func(f func()) { go f() }

// Initialize handles the LSP initialize request.
// This is the first request sent by the client and establishes the server capabilities.
func Initialize(context *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if srv := getServer("Initialize"); srv != nil {
		srv.SetWorkspaceFolders(workspaceFolders(params))
		srv.SetClientCapabilities(&params.Capabilities)

		logger().Infof("Initialize with %d workspace folders", len(srv.GetWorkspaceFolders()))
	}

	changeKind := protocol.TextDocumentSyncKindIncremental
	trueVal := true
	falseVal := false

	legend := server.NewSemanticTokensLegend()

	capabilities := protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: &trueVal,
			Change:    &changeKind,
			WillSave:  &falseVal,
			Save: &protocol.SaveOptions{
				IncludeText: &falseVal,
			},
		},

		HoverProvider:           &trueVal,
		DefinitionProvider:      &trueVal,
		ReferencesProvider:      &trueVal,
		DocumentSymbolProvider:  &trueVal,
		WorkspaceSymbolProvider: &trueVal,

		CompletionProvider: &protocol.CompletionOptions{
			// Address and local label prefixes of the assemblers.
			TriggerCharacters: []string{"@", "!"},
			ResolveProvider:   &falseVal,
		},

		RenameProvider: &protocol.RenameOptions{
			PrepareProvider: &trueVal,
		},

		SemanticTokensProvider: &protocol.SemanticTokensOptions{
			Legend: legend.ToProtocolLegend(),
			Full:   &trueVal,
		},

		CodeActionProvider: &protocol.CodeActionOptions{
			CodeActionKinds: []protocol.CodeActionKind{
				protocol.CodeActionKindQuickFix,
			},
			ResolveProvider: &falseVal,
		},

		Workspace: &protocol.ServerCapabilitiesWorkspace{
			WorkspaceFolders: &protocol.WorkspaceFoldersServerCapabilities{
				Supported:           &trueVal,
				ChangeNotifications: &protocol.BoolOrString{Value: true},
			},
		},
	}

	version := Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &version,
		},
	}, nil
}

// workspaceFolders returns the folder paths of the initialize request,
// falling back to the deprecated root URI.
func workspaceFolders(params *protocol.InitializeParams) []string {
	var folders []string

	for _, f := range params.WorkspaceFolders {
		folders = append(folders, workspace.URIToPath(f.URI))
	}

	if len(folders) == 0 && params.RootURI != nil && *params.RootURI != "" {
		folders = append(folders, workspace.URIToPath(*params.RootURI))
	}

	return folders
}

// Initialized handles the initialized notification from the client and
// starts indexing the workspace folders in the background.
func Initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	srv := getServer("Initialized")
	if srv == nil {
		return nil
	}

	runInBackground(func() {
		indexWorkspace(context, srv)
	})

	return nil
}

func indexWorkspace(context *glsp.Context, srv *server.Server) {
	stats, err := srv.IndexWorkspace(srv.Context())
	if err != nil {
		logger().Warningf("Workspace indexing stopped: %v", err)
	}

	logger().Infof("Indexed %d files (%d parsed, %d skipped)", stats.Files, stats.Parsed, stats.Skipped)

	publishOpenDocuments(context, srv)
}

// Shutdown handles the shutdown request and cancels background work.
func Shutdown(context *glsp.Context) error {
	if srv := getServer("Shutdown"); srv != nil {
		srv.SetShuttingDown()
	}

	logger().Info("Shutting down")

	return nil
}

// SetTrace handles $/setTrace.
func SetTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	srv := getServer("SetTrace")
	if srv == nil {
		return nil
	}

	trace := string(params.Value)
	if err := srv.UpdateConfig(func(cfg *config.Config) { cfg.Trace = trace }); err != nil {
		logger().Warningf("Ignoring trace value %q: %v", trace, err)
	}

	return nil
}
