package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CWBudde/go-xdt99-lsp/internal/document"
	"github.com/CWBudde/go-xdt99-lsp/internal/reference"
	"github.com/CWBudde/go-xdt99-lsp/internal/server"
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
	"github.com/CWBudde/go-xdt99-lsp/internal/workspace"
)

var errBadPosition = errors.New("position must be file:line:column")

var (
	renameRoot   string
	renameDryRun bool
)

var renameCmd = &cobra.Command{
	Use:   "rename file:line:column new-name",
	Short: "Rename the symbol at a position in every file of the workspace",
	Long: `rename renames the label, macro, register alias or BASIC name at the given
1-based position, together with its external declarations and every usage
resolving to it, and writes the changed files.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}

		return runRename(cmd, args[0], args[1])
	},
}

func init() {
	renameCmd.Flags().StringVar(&renameRoot, "root", ".", "Workspace folder to search for usages")
	renameCmd.Flags().BoolVar(&renameDryRun, "dry-run", false, "Print the files that would change without writing them")
}

// parsePosition splits file:line:column, allowing colons in the file name.
func parsePosition(s string) (string, int, int, error) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return "", 0, 0, errBadPosition
	}

	j := strings.LastIndex(s[:i], ":")
	if j < 0 {
		return "", 0, 0, errBadPosition
	}

	line, err := strconv.Atoi(s[j+1 : i])
	if err != nil || line < 1 {
		return "", 0, 0, errBadPosition
	}

	col, err := strconv.Atoi(s[i+1:])
	if err != nil || col < 1 {
		return "", 0, 0, errBadPosition
	}

	return s[:j], line, col, nil
}

func runRename(cmd *cobra.Command, position, newName string) error {
	path, line, col, err := parsePosition(position)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(renameRoot)
	if err != nil {
		return err
	}

	path, err = filepath.Abs(path)
	if err != nil {
		return err
	}

	srv := server.New()
	defer srv.SetShuttingDown()

	srv.SetWorkspaceFolders([]string{root})

	if _, err := srv.IndexWorkspace(cmd.Context()); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	uri := workspace.PathToURI(path)

	// Files outside the workspace folder take part as well.
	if _, ok := srv.Text(uri); !ok {
		srv.ReloadFile(uri)
	}

	text, ok := srv.Text(uri)
	if !ok {
		return fmt.Errorf("%s is not an xdt99 source file", path)
	}

	offset, err := document.PositionToOffset(text, line-1, col-1)
	if err != nil {
		return fmt.Errorf("%s: %w", position, err)
	}

	occ := symbols.OccurrenceAt(srv.File(uri), offset)
	if !occ.Found() {
		return fmt.Errorf("%s: no symbol at this position", position)
	}

	engine := srv.Engine()
	collector := reference.NewCollector()

	if occ.Definition != nil {
		err = engine.RenameDefinition(*occ.Definition, newName, collector)
	} else {
		err = engine.Rename(*occ.Usage, newName, collector)
	}

	if err != nil {
		return err
	}

	return writeEdits(cmd, srv, root, collector)
}

// writeEdits applies the collected edits to the files on disk.
func writeEdits(cmd *cobra.Command, srv *server.Server, root string, collector *reference.Collector) error {
	edits := collector.Edits()

	for _, uri := range collector.URIs() {
		text, ok := srv.Text(uri)
		if !ok {
			return fmt.Errorf("lost the text of %s", uri)
		}

		var changes []document.Edit
		for _, e := range edits[uri] {
			changes = append(changes, document.Edit{Start: e.Start, End: e.End, NewText: e.NewText})
		}

		updated, err := document.ApplyEdits(text, changes)
		if err != nil {
			return fmt.Errorf("%s: %w", uri, err)
		}

		path := workspace.URIToPath(uri)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d edits\n", relative([]string{root}, path), len(changes))

		if renameDryRun {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
			return err
		}
	}

	return nil
}
