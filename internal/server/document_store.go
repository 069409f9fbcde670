package server

import (
	"sort"
	"sync"

	"github.com/CWBudde/go-xdt99-lsp/internal/document"
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

// Document represents an open document in the workspace.
type Document struct {
	URI        string
	Text       string
	Version    int
	LanguageID string

	// File is the parsed document (nil if no dialect handles it).
	File *symbols.SourceFile

	lines *document.LineIndex
}

// NewDocument creates a document snapshot.
func NewDocument(uri, languageID string, version int, text string, file *symbols.SourceFile) *Document {
	return &Document{
		URI:        uri,
		Text:       text,
		Version:    version,
		LanguageID: languageID,
		File:       file,
		lines:      document.NewLineIndex(text),
	}
}

// Lines returns the line index of the document text.
func (d *Document) Lines() *document.LineIndex {
	if d.lines == nil {
		return document.NewLineIndex(d.Text)
	}

	return d.lines
}

// DocumentStore manages all open documents.
type DocumentStore struct {
	documents map[string]*Document
	mu        sync.RWMutex
}

// NewDocumentStore creates a new document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*Document),
	}
}

// Set stores or updates a document.
func (ds *DocumentStore) Set(uri string, doc *Document) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = doc
}

// Replace swaps old for doc unless the document changed in between.
func (ds *DocumentStore) Replace(uri string, old, doc *Document) bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.documents[uri] != old {
		return false
	}

	ds.documents[uri] = doc

	return true
}

// Get retrieves a document by URI.
func (ds *DocumentStore) Get(uri string) (*Document, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	doc, ok := ds.documents[uri]

	return doc, ok
}

// Delete removes a document from the store.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// List returns all document URIs, sorted.
func (ds *DocumentStore) List() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	uris := make([]string, 0, len(ds.documents))
	for uri := range ds.documents {
		uris = append(uris, uri)
	}

	sort.Strings(uris)

	return uris
}

// All returns the open documents ordered by URI.
func (ds *DocumentStore) All() []*Document {
	ds.mu.RLock()
	docs := make([]*Document, 0, len(ds.documents))

	for _, doc := range ds.documents {
		docs = append(docs, doc)
	}
	ds.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool { return docs[i].URI < docs[j].URI })

	return docs
}

// Clear removes all documents from the store.
func (ds *DocumentStore) Clear() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents = make(map[string]*Document)
}
