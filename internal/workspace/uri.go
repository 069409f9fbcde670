package workspace

import (
	"net/url"
	"path/filepath"
	"strings"
)

// URIToPath converts a file URI to a file system path, decoding percent
// escapes. Other URIs are returned unchanged.
func URIToPath(uri string) string {
	if !strings.HasPrefix(uri, "file:") {
		return uri
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "file://")
	}

	path := parsed.Path
	if path == "" {
		path = parsed.Opaque
	}

	// file:///C:/path carries a slash before the drive letter.
	if len(path) > 2 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}

	return filepath.FromSlash(path)
}

// PathToURI converts a file system path to a file URI, escaping characters
// like spaces the way editors do.
func PathToURI(path string) string {
	path = filepath.ToSlash(path)

	if len(path) > 1 && path[1] == ':' {
		path = "/" + path
	}

	u := url.URL{Scheme: "file", Path: path}

	return u.String()
}
