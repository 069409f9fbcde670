// Package workspace discovers, parses and keeps the source files of the
// workspace folders, whether or not they are open in the editor.
package workspace

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

// ParseFunc parses the contents of a file. It returns nil for files no
// dialect handles.
type ParseFunc func(uri, text string) *symbols.SourceFile

// Entry is one stored file.
type Entry struct {
	URI  string
	Text string
	Hash uint64
	File *symbols.SourceFile

	// Ticket orders writes: an entry only replaces one with a lower ticket.
	Ticket uint64
}

// Store keeps the parsed workspace files by URI.
// It provides thread-safe access for the indexer workers and the handlers.
type Store struct {
	entries map[string]*Entry
	mutex   sync.RWMutex
	tickets atomic.Uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*Entry)}
}

// Ticket reserves a write position. Take it before reading the content that
// is later passed to PutAt, so that content read earlier never replaces
// content read later.
func (s *Store) Ticket() uint64 {
	return s.tickets.Add(1)
}

// Put stores text for uri, parsing it unless the stored copy has the same
// content hash. It reports whether the file was (re)parsed.
func (s *Store) Put(uri, text string, parse ParseFunc) (*symbols.SourceFile, bool) {
	return s.PutAt(uri, text, s.Ticket(), parse)
}

// PutAt is Put for content read after ticket was taken. The parse runs
// outside the lock; the result is dropped when a write with a later ticket
// was stored in the meantime.
func (s *Store) PutAt(uri, text string, ticket uint64, parse ParseFunc) (*symbols.SourceFile, bool) {
	hash := xxhash.Sum64String(text)

	s.mutex.RLock()
	existing, ok := s.entries[uri]
	s.mutex.RUnlock()

	if ok && (existing.Hash == hash || existing.Ticket > ticket) {
		return existing.File, false
	}

	file := parse(uri, text)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if cur, ok := s.entries[uri]; ok && cur.Ticket > ticket {
		return cur.File, false
	}

	if file == nil {
		delete(s.entries, uri)
		return nil, false
	}

	s.entries[uri] = &Entry{URI: uri, Text: text, Hash: hash, File: file, Ticket: ticket}

	return file, true
}

// Reparse parses every stored file again, e.g. after the names shared
// between files changed.
func (s *Store) Reparse(parse ParseFunc) {
	for _, e := range s.snapshot() {
		if file := parse(e.URI, e.Text); file != nil {
			s.mutex.Lock()
			if cur, ok := s.entries[e.URI]; ok && cur.Ticket == e.Ticket {
				s.entries[e.URI] = &Entry{URI: e.URI, Text: e.Text, Hash: e.Hash, File: file, Ticket: e.Ticket}
			}
			s.mutex.Unlock()
		}
	}
}

// Get returns the entry for uri.
func (s *Store) Get(uri string) (*Entry, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, ok := s.entries[uri]

	return e, ok
}

// Remove drops a file.
func (s *Store) Remove(uri string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.entries, uri)
}

// RemoveFolder drops every file below a folder URI.
func (s *Store) RemoveFolder(folderURI string) int {
	prefix := strings.TrimSuffix(folderURI, "/") + "/"

	s.mutex.Lock()
	defer s.mutex.Unlock()

	n := 0

	for uri := range s.entries {
		if strings.HasPrefix(uri, prefix) {
			delete(s.entries, uri)
			n++
		}
	}

	return n
}

// Files returns the stored files of a language family, ordered by URI.
func (s *Store) Files(family string) []*symbols.SourceFile {
	var result []*symbols.SourceFile

	for _, e := range s.snapshot() {
		if e.File.Language != nil && e.File.Language.Family() == family {
			result = append(result, e.File)
		}
	}

	return result
}

// URIs returns the stored URIs, sorted.
func (s *Store) URIs() []string {
	entries := s.snapshot()

	uris := make([]string, 0, len(entries))
	for _, e := range entries {
		uris = append(uris, e.URI)
	}

	return uris
}

// Len returns the number of stored files.
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.entries)
}

// Clear drops every file.
func (s *Store) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = make(map[string]*Entry)
}

// snapshot returns a snapshot of the entries ordered by URI.
func (s *Store) snapshot() []Entry {
	s.mutex.RLock()
	result := make([]Entry, 0, len(s.entries))

	for _, e := range s.entries {
		result = append(result, *e)
	}
	s.mutex.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].URI < result[j].URI })

	return result
}
