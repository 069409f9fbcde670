package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/config"
	"github.com/CWBudde/go-xdt99-lsp/internal/workspace"
)

// settingsSection is the key clients nest the server's settings under.
const settingsSection = "xdt99-lsp"

// DidChangeConfiguration handles workspace configuration changes from the client.
// Settings are expected as {"xdt99-lsp": {"maxProblems": 100, "trace": "off"}}.
func DidChangeConfiguration(context *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	srv := getServer("DidChangeConfiguration")
	if srv == nil {
		return nil
	}

	settings, ok := params.Settings.(map[string]any)
	if !ok {
		return nil
	}

	section, ok := settings[settingsSection].(map[string]any)
	if !ok {
		return nil
	}

	err := srv.UpdateConfig(func(cfg *config.Config) {
		if maxProblems, ok := section["maxProblems"].(float64); ok {
			cfg.MaxProblems = int(maxProblems)
		}

		if trace, ok := section["trace"].(string); ok {
			cfg.Trace = trace
		}

		if suggestions, ok := section["suggestions"].(bool); ok {
			cfg.Suggestions = suggestions
		}
	})
	if err != nil {
		logger().Warningf("Ignoring configuration change: %v", err)
		return nil
	}

	logger().Infof("Configuration updated: maxProblems = %d, trace = %s",
		srv.Config().MaxProblems, srv.Config().Trace)

	publishOpenDocuments(context, srv)

	return nil
}

// DidChangeWorkspaceFolders handles changes to workspace folders.
// Added folders are indexed in the background; removed folders are dropped
// from the workspace store.
func DidChangeWorkspaceFolders(context *glsp.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	srv := getServer("DidChangeWorkspaceFolders")
	if srv == nil {
		return nil
	}

	folders := srv.GetWorkspaceFolders()
	removed := make(map[string]bool)

	for _, folder := range params.Event.Removed {
		path := workspace.URIToPath(folder.URI)
		removed[path] = true

		n := srv.RemoveFolder(path)
		logger().Infof("Workspace folder removed: %s (%d files dropped)", folder.URI, n)
	}

	var kept []string

	for _, f := range folders {
		if !removed[f] {
			kept = append(kept, f)
		}
	}

	var added []string

	for _, folder := range params.Event.Added {
		logger().Infof("Workspace folder added: %s", folder.URI)
		added = append(added, workspace.URIToPath(folder.URI))
	}

	srv.SetWorkspaceFolders(append(kept, added...))

	if len(params.Event.Removed) > 0 {
		srv.Reparse()
		publishOpenDocuments(context, srv)
	}

	if len(added) > 0 {
		runInBackground(func() {
			stats, err := srv.IndexFolders(srv.Context(), added)
			if err != nil {
				logger().Warningf("Indexing added folders: %v", err)
			}

			logger().Infof("Indexed %d files in added folders", stats.Files)
			publishOpenDocuments(context, srv)
		})
	}

	return nil
}

// DidChangeWatchedFiles handles file events for files the editor does not
// have open. Open documents are owned by the editor and left alone.
func DidChangeWatchedFiles(context *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	srv := getServer("DidChangeWatchedFiles")
	if srv == nil {
		return nil
	}

	changed := false

	for _, event := range params.Changes {
		switch event.Type {
		case protocol.FileChangeTypeCreated, protocol.FileChangeTypeChanged:
			if srv.Registry().ForPath(workspace.URIToPath(event.URI)) == nil {
				continue
			}

			srv.ReloadFile(event.URI)
		case protocol.FileChangeTypeDeleted:
			srv.Workspace().Remove(event.URI)
		default:
			continue
		}

		logger().Debugf("Watched file event %d for %s", event.Type, event.URI)

		changed = true
	}

	if changed {
		srv.Reparse()
		publishOpenDocuments(context, srv)
	}

	return nil
}
