package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CWBudde/go-xdt99-lsp/internal/document"
	"github.com/CWBudde/go-xdt99-lsp/internal/server"
	"github.com/CWBudde/go-xdt99-lsp/internal/symbols"
	"github.com/CWBudde/go-xdt99-lsp/internal/workspace"
)

// errFindings makes check exit with status 1.
var errFindings = errors.New("errors found")

var warningsAsErrors bool

var checkCmd = &cobra.Command{
	Use:   "check [folder...]",
	Short: "Report symbol diagnostics of the xdt99 sources in folders",
	Long: `check indexes the given folders (default: the current directory) like the
language server does and prints one line per diagnostic:

  file:line:column: severity: message

The exit status is 1 when any error is reported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}

		if len(args) == 0 {
			args = []string{"."}
		}

		return runCheck(cmd, args)
	},
}

func init() {
	checkCmd.Flags().BoolVar(&warningsAsErrors, "warnings-as-errors", false, "Exit with status 1 on warnings too")
}

func runCheck(cmd *cobra.Command, folders []string) error {
	var roots []string

	for _, f := range folders {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}

		roots = append(roots, abs)
	}

	srv := server.New()
	defer srv.SetShuttingDown()

	srv.SetWorkspaceFolders(roots)

	if _, err := srv.IndexWorkspace(cmd.Context()); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	failed := false

	for _, uri := range srv.Workspace().URIs() {
		text, _ := srv.Text(uri)

		for _, d := range srv.Diagnostics(uri) {
			if d.Severity == symbols.SeverityError || warningsAsErrors {
				failed = true
			}

			printDiagnostic(cmd.OutOrStdout(), relative(roots, workspace.URIToPath(uri)), text, d)
		}
	}

	if failed {
		return errFindings
	}

	return nil
}

// printDiagnostic writes a diagnostic with 1-based line and column.
func printDiagnostic(w io.Writer, path, text string, d symbols.Diagnostic) {
	line, col, err := document.OffsetToPosition(text, d.Start)
	if err != nil {
		line, col = 0, 0
	}

	fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", path, line+1, col+1, d.Severity, d.Message)
}

// relative shortens path against the first root containing it.
func relative(roots []string, path string) string {
	for _, root := range roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}

	return path
}

func exitCode(err error) int {
	if errors.Is(err, errFindings) {
		return 1
	}

	return 2
}
