// Package server provides the core LSP server state and management.
package server

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/config"
	"github.com/CWBudde/go-xdt99-lsp/internal/dialect"
	"github.com/CWBudde/go-xdt99-lsp/internal/reference"
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
	"github.com/CWBudde/go-xdt99-lsp/internal/workspace"
)

// Server holds the state of the LSP server.
type Server struct {
	// documents stores all open documents
	documents *DocumentStore

	// workspace keeps the parsed files of the workspace folders, open or not
	workspace *workspace.Store

	// workspaceFolders stores the workspace folder paths from the client
	workspaceFolders []string

	// clientCapabilities stores the client's capabilities from the initialize request
	clientCapabilities *protocol.ClientCapabilities

	config   *config.Config
	registry *dialect.Registry
	engine   *reference.Engine

	// semanticTokensLegend defines the token types and modifiers for semantic highlighting
	semanticTokensLegend *SemanticTokensLegend

	log commonlog.Logger

	// ctx is canceled on shutdown and bounds background work
	ctx    context.Context
	cancel context.CancelFunc

	// mutex protects server state
	mu sync.RWMutex

	// shutting down flag
	shuttingDown bool
}

var _ symbols.Project = (*Server)(nil)

// New creates a new LSP server instance with the default configuration.
func New() *Server {
	s := &Server{
		documents:            NewDocumentStore(),
		workspace:            workspace.NewStore(),
		semanticTokensLegend: NewSemanticTokensLegend(),
		log:                  commonlog.GetLogger("xdt99.server"),
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	cfg := config.Default()
	registry, _ := cfg.Registry()
	s.apply(cfg, registry)

	return s
}

// apply installs a configuration. The caller holds the lock or owns s.
func (s *Server) apply(cfg *config.Config, registry *dialect.Registry) {
	s.config = cfg
	s.registry = registry
	s.engine = reference.NewEngine(symbols.NewIndex(s, symbols.WithSuggestions(cfg.Suggestions)))
}

// Log returns the server's logger.
func (s *Server) Log() commonlog.Logger {
	return s.log
}

// IsShuttingDown returns true if the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shuttingDown
}

// SetShuttingDown marks the server as shutting down and cancels background work.
func (s *Server) SetShuttingDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuttingDown = true
	s.cancel()
}

// Context returns the server's lifetime context.
func (s *Server) Context() context.Context {
	return s.ctx
}

// Documents returns the document store.
func (s *Server) Documents() *DocumentStore {
	return s.documents
}

// Workspace returns the store of parsed workspace files.
func (s *Server) Workspace() *workspace.Store {
	return s.workspace
}

// Config returns a copy of the server configuration.
func (s *Server) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Clone()
}

// SetConfig validates and installs a configuration.
func (s *Server) SetConfig(cfg *config.Config) error {
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(cfg.Clone(), registry)

	return nil
}

// UpdateConfig updates the server configuration atomically.
// The update function is called with a copy of the current config; an
// invalid result leaves the configuration unchanged.
func (s *Server) UpdateConfig(update func(*config.Config)) error {
	cfg := s.Config()
	update(cfg)

	return s.SetConfig(cfg)
}

// Registry returns the dialect registry of the current configuration.
func (s *Server) Registry() *dialect.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry
}

// Engine returns the reference engine.
func (s *Server) Engine() *reference.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// Index returns the symbol index.
func (s *Server) Index() *symbols.Index {
	return s.Engine().Index()
}

// SetWorkspaceFolders sets the workspace folders.
func (s *Server) SetWorkspaceFolders(folders []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaceFolders = folders
}

// GetWorkspaceFolders returns the workspace folders.
func (s *Server) GetWorkspaceFolders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.workspaceFolders...)
}

// SetClientCapabilities sets the client's capabilities.
func (s *Server) SetClientCapabilities(capabilities *protocol.ClientCapabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientCapabilities = capabilities
}

// GetClientCapabilities returns the client's capabilities.
func (s *Server) GetClientCapabilities() *protocol.ClientCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientCapabilities
}

// SupportsSnippets returns true if the client supports snippet completions.
func (s *Server) SupportsSnippets() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.clientCapabilities
	if c == nil || c.TextDocument == nil || c.TextDocument.Completion == nil ||
		c.TextDocument.Completion.CompletionItem == nil ||
		c.TextDocument.Completion.CompletionItem.SnippetSupport == nil {
		return false
	}

	return *c.TextDocument.Completion.CompletionItem.SnippetSupport
}

// SemanticTokensLegend returns the semantic tokens legend.
// The legend is immutable and shared across all requests.
func (s *Server) SemanticTokensLegend() *SemanticTokensLegend {
	return s.semanticTokensLegend
}

// SourceFiles implements symbols.Project. An open document shadows the
// workspace copy of the same URI.
func (s *Server) SourceFiles(family string) []*symbols.SourceFile {
	files := make(map[string]*symbols.SourceFile)

	for _, f := range s.workspace.Files(family) {
		files[f.URI] = f
	}

	for _, doc := range s.documents.All() {
		delete(files, doc.URI)

		if doc.File != nil && doc.File.Language != nil && doc.File.Language.Family() == family {
			files[doc.URI] = doc.File
		}
	}

	uris := make([]string, 0, len(files))
	for uri := range files {
		uris = append(uris, uri)
	}

	sort.Strings(uris)

	result := make([]*symbols.SourceFile, 0, len(uris))
	for _, uri := range uris {
		result = append(result, files[uri])
	}

	return result
}

// File returns the current parse of uri, preferring the open document.
func (s *Server) File(uri string) *symbols.SourceFile {
	if doc, ok := s.documents.Get(uri); ok {
		return doc.File
	}

	if e, ok := s.workspace.Get(uri); ok {
		return e.File
	}

	return nil
}

// Text returns the current text of uri, preferring the open document.
func (s *Server) Text(uri string) (string, bool) {
	if doc, ok := s.documents.Get(uri); ok {
		return doc.Text, true
	}

	if e, ok := s.workspace.Get(uri); ok {
		return e.Text, true
	}

	return "", false
}

// Parse parses text with the dialect chosen by languageID or, failing that,
// by the URI's extension. Register aliases defined in the other files of the
// family are known to the parse. It returns nil when no dialect applies.
func (s *Server) Parse(uri, languageID, text string) *symbols.SourceFile {
	d := s.Registry().ForDocument(languageID, uri)
	if d == nil {
		return nil
	}

	return d.File(uri, text, s.parseContext(d, uri))
}

// ParseWorkspaceFile is the workspace.ParseFunc of the server.
func (s *Server) ParseWorkspaceFile(uri, text string) *symbols.SourceFile {
	languageID := ""
	if doc, ok := s.documents.Get(uri); ok {
		languageID = doc.LanguageID
	}

	return s.Parse(uri, languageID, text)
}

func (s *Server) parseContext(d *dialect.Dialect, uri string) *dialect.ParseContext {
	ctx := dialect.NewParseContext()

	if d.Reach(symbols.KindRegisterAlias) != symbols.ReachProject {
		return ctx
	}

	for _, f := range s.SourceFiles(d.Family()) {
		if f.URI == uri {
			continue
		}

		for _, def := range symbols.Definitions(f) {
			if def.Kind == symbols.KindRegisterAlias {
				ctx.AddAlias(def.Name)
			}
		}
	}

	return ctx
}

// OpenDocument parses and stores an open document.
func (s *Server) OpenDocument(uri, languageID string, version int, text string) *Document {
	previous := s.File(uri)

	doc := NewDocument(uri, languageID, version, text, s.Parse(uri, languageID, text))
	s.documents.Set(uri, doc)
	s.reparseOnAliasChange(previous, doc.File)

	return doc
}

// ChangeDocument replaces the text of an open document. It returns nil when
// the document is not open.
func (s *Server) ChangeDocument(uri string, version int, text string) *Document {
	old, ok := s.documents.Get(uri)
	if !ok {
		return nil
	}

	doc := NewDocument(uri, old.LanguageID, version, text, s.Parse(uri, old.LanguageID, text))
	s.documents.Set(uri, doc)
	s.reparseOnAliasChange(old.File, doc.File)

	return doc
}

// reparseOnAliasChange reparses everything when an edit added or removed a
// register alias, since aliases change how other files parse.
func (s *Server) reparseOnAliasChange(before, after *symbols.SourceFile) {
	if !slices.Equal(aliasNames(before), aliasNames(after)) {
		s.Reparse()
	}
}

func aliasNames(file *symbols.SourceFile) []string {
	if file == nil {
		return nil
	}

	var names []string

	for _, def := range symbols.Definitions(file) {
		if def.Kind == symbols.KindRegisterAlias {
			names = append(names, symbols.Normalize(def.Name))
		}
	}

	sort.Strings(names)

	return names
}

// CloseDocument forgets an open document. The file stays visible through the
// workspace store when it lives in a workspace folder; the disk copy is
// reloaded since the editor may have discarded unsaved changes.
func (s *Server) CloseDocument(uri string) {
	previous := s.File(uri)

	s.documents.Delete(uri)

	if _, ok := s.workspace.Get(uri); ok {
		s.ReloadFile(uri)
	}

	s.reparseOnAliasChange(previous, s.File(uri))
}

// ReloadFile reads a workspace file from disk again, or drops it when it no
// longer exists.
func (s *Server) ReloadFile(uri string) {
	idx := workspace.NewIndexer(s.workspace, s.Config(), s.Registry(), s.ParseWorkspaceFile)
	if _, err := idx.IndexFile(workspace.URIToPath(uri)); err != nil {
		s.workspace.Remove(uri)
	}
}

// Reparse parses every stored file and open document again so that names
// shared between files, like register aliases, are seen everywhere. It
// returns the URIs of the open documents.
func (s *Server) Reparse() []string {
	s.workspace.Reparse(s.ParseWorkspaceFile)

	var uris []string

	for _, doc := range s.documents.All() {
		fresh := NewDocument(doc.URI, doc.LanguageID, doc.Version, doc.Text,
			s.Parse(doc.URI, doc.LanguageID, doc.Text))
		s.documents.Replace(doc.URI, doc, fresh)
		uris = append(uris, doc.URI)
	}

	return uris
}

// IndexWorkspace loads the configuration of the first workspace folder and
// indexes every folder.
func (s *Server) IndexWorkspace(ctx context.Context) (workspace.Stats, error) {
	folders := s.GetWorkspaceFolders()

	if len(folders) > 0 {
		cfg, err := config.LoadForRoot(folders[0])
		if err != nil {
			s.log.Warningf("Ignoring configuration of %s: %v", folders[0], err)
		} else if err := s.SetConfig(cfg); err != nil {
			s.log.Warningf("Ignoring configuration of %s: %v", folders[0], err)
		}
	}

	return s.IndexFolders(ctx, folders)
}

// IndexFolders indexes the given folders and reparses afterwards.
func (s *Server) IndexFolders(ctx context.Context, folders []string) (workspace.Stats, error) {
	idx := workspace.NewIndexer(s.workspace, s.Config(), s.Registry(), s.ParseWorkspaceFile)

	stats, err := idx.Index(ctx, folders)
	if stats.Parsed > 0 {
		s.Reparse()
	}

	return stats, err
}

// RemoveFolder drops the workspace files of a folder.
func (s *Server) RemoveFolder(folder string) int {
	return s.workspace.RemoveFolder(workspace.PathToURI(folder))
}

// Diagnostics checks the current parse of uri.
func (s *Server) Diagnostics(uri string) []symbols.Diagnostic {
	file := s.File(uri)
	if file == nil {
		return nil
	}

	return s.Index().Check(file)
}
