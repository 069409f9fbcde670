package workspace

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/CWBudde/go-xdt99-lsp/internal/config"
	"github.com/CWBudde/go-xdt99-lsp/internal/dialect"
)

// ErrFileLimit is returned by Discover when a folder holds more source files
// than the configuration allows; the files found so far are still returned.
var ErrFileLimit = errors.New("file limit reached")

var skipDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
	"bin":          {},
	"obj":          {},
	"dist":         {},
	"build":        {},
	"out":          {},
	"__pycache__":  {},
}

// Stats summarizes an indexing run.
type Stats struct {
	Files   int
	Parsed  int
	Skipped int
}

// Indexer handles workspace file indexing.
type Indexer struct {
	store    *Store
	cfg      *config.Config
	registry *dialect.Registry
	parse    ParseFunc
	log      commonlog.Logger
}

// NewIndexer creates an indexer filling store. Files are selected by the
// registry's extensions and parsed with parse.
func NewIndexer(store *Store, cfg *config.Config, registry *dialect.Registry, parse ParseFunc) *Indexer {
	if cfg == nil {
		cfg = config.Default()
	}

	return &Indexer{
		store:    store,
		cfg:      cfg,
		registry: registry,
		parse:    parse,
		log:      commonlog.GetLogger("xdt99.workspace"),
	}
}

// Discover lists the source files below root, sorted. Hidden and build
// directories, gitignored files and excluded globs are skipped.
func (idx *Indexer) Discover(root string) ([]string, error) {
	var gi *ignore.GitIgnore
	if idx.cfg.RespectGitignore {
		gi = loadGitignore(root)
	}

	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			return nil
		}

		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		rel = filepath.ToSlash(rel)
		name := d.Name()

		if d.IsDir() {
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}

			if idx.cfg.MaxDepth > 0 && strings.Count(rel, "/")+1 > idx.cfg.MaxDepth {
				return filepath.SkipDir
			}

			if idx.cfg.Excluded(rel) || gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}

			return nil
		}

		if strings.HasPrefix(name, ".") || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if idx.registry.ForPath(name) == nil || idx.cfg.Excluded(rel) || gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		if idx.cfg.MaxFiles > 0 && len(paths) >= idx.cfg.MaxFiles {
			return ErrFileLimit
		}

		paths = append(paths, path)

		return nil
	})

	return paths, err
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}

	return gi
}

// Index discovers and parses the files of every root. Files are read and
// parsed by a bounded worker group; unreadable files are skipped.
func (idx *Indexer) Index(ctx context.Context, roots []string) (Stats, error) {
	var stats Stats

	if len(roots) == 0 {
		idx.log.Info("No workspace folders to index")
		return stats, nil
	}

	idx.log.Infof("Starting workspace indexing for %d folders", len(roots))

	var paths []string

	for _, root := range roots {
		found, err := idx.Discover(root)
		if errors.Is(err, ErrFileLimit) {
			idx.log.Warningf("Stopped indexing %s after %d files", root, len(found))
		} else if err != nil {
			idx.log.Warningf("Could not walk %s: %v", root, err)
		}

		paths = append(paths, found...)
	}

	workers := idx.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex

	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			parsed, err := idx.IndexFile(path)

			mu.Lock()
			defer mu.Unlock()

			stats.Files++

			switch {
			case err != nil:
				stats.Skipped++
			case parsed:
				stats.Parsed++
			}

			return nil
		})
	}

	err := g.Wait()

	idx.log.Infof("Workspace indexing complete. %d files, %d parsed, %d skipped",
		stats.Files, stats.Parsed, stats.Skipped)

	return stats, err
}

// IndexFile reads and stores one file. It reports whether the file was
// parsed; unchanged content is not parsed again.
func (idx *Indexer) IndexFile(path string) (bool, error) {
	ticket := idx.store.Ticket()

	content, err := os.ReadFile(path)
	if err != nil {
		idx.log.Warningf("Could not read file %s: %v", path, err)
		return false, err
	}

	_, parsed := idx.store.PutAt(PathToURI(path), string(content), ticket, idx.parse)

	return parsed, nil
}
