// Package lsp implements LSP protocol handlers.
package lsp

import (
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-xdt99-lsp/internal/document"
	"github.com/CWBudde/go-xdt99-lsp/internal/server"
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
)

// serverInstance holds the global server instance.
// This is set by SetServer and accessed by handlers.
var serverInstance any

// SetServer sets the global server instance for handlers to access.
func SetServer(srv any) {
	serverInstance = srv
}

func logger() commonlog.Logger {
	return commonlog.GetLogger("xdt99.lsp")
}

// getServer returns the server instance, logging when it is missing.
func getServer(method string) *server.Server {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		logger().Warningf("server instance not available in %s", method)
		return nil
	}

	return srv
}

// lineCache builds line indexes on demand while a handler converts offsets
// of several files.
type lineCache struct {
	srv   *server.Server
	lines map[string]*document.LineIndex
}

func newLineCache(srv *server.Server) *lineCache {
	return &lineCache{srv: srv, lines: make(map[string]*document.LineIndex)}
}

func (c *lineCache) get(uri string) *document.LineIndex {
	if li, ok := c.lines[uri]; ok {
		return li
	}

	var li *document.LineIndex

	if doc, ok := c.srv.Documents().Get(uri); ok {
		li = doc.Lines()
	} else if text, ok := c.srv.Text(uri); ok {
		li = document.NewLineIndex(text)
	}

	c.lines[uri] = li

	return li
}

func (c *lineCache) rangeOf(uri string, start, end int) (protocol.Range, bool) {
	li := c.get(uri)
	if li == nil {
		return protocol.Range{}, false
	}

	r, err := li.Range(start, end)
	if err != nil {
		return protocol.Range{}, false
	}

	return r, true
}

func (c *lineCache) location(uri string, start, end int) (protocol.Location, bool) {
	r, ok := c.rangeOf(uri, start, end)
	if !ok {
		return protocol.Location{}, false
	}

	return protocol.Location{URI: uri, Range: r}, true
}

func (c *lineCache) definitionLocation(d symbols.Definition) (protocol.Location, bool) {
	return c.location(d.URI(), d.Offset, d.End)
}

func (c *lineCache) usageLocation(u symbols.Usage) (protocol.Location, bool) {
	return c.location(u.URI(), u.Offset, u.End)
}

// locate returns the parsed file of uri and the byte offset of pos in it.
func locate(srv *server.Server, cache *lineCache, uri string, pos protocol.Position) (*symbols.SourceFile, int, bool) {
	file := srv.File(uri)
	if file == nil {
		logger().Debugf("No parsed file for %s", uri)
		return nil, 0, false
	}

	li := cache.get(uri)
	if li == nil {
		return nil, 0, false
	}

	offset, err := li.Offset(int(pos.Line), int(pos.Character))
	if err != nil {
		logger().Debugf("Position %d:%d outside %s: %v", pos.Line, pos.Character, uri, err)
		return nil, 0, false
	}

	return file, offset, true
}
