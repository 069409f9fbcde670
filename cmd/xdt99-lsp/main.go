// Command xdt99-lsp is a language server for the xdt99 cross-development
// languages of the TI-99/4A.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/CWBudde/go-xdt99-lsp/internal/lsp"
	"github.com/CWBudde/go-xdt99-lsp/internal/server"
)

var (
	tcpMode  bool
	tcpPort  int
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:   "xdt99-lsp",
	Short: "Language server for the xdt99 assembly, GPL and Extended BASIC dialects",
	Long: `xdt99-lsp serves the Language Server Protocol for xas99, xga99 and xbas99
sources: go-to definition, references, rename, completion, hover, symbols
and symbol diagnostics across the files of a workspace.

Without a subcommand the server talks LSP over stdio.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server (default)",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", lsp.Name, lsp.Version)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().BoolVar(&tcpMode, "tcp", false, "Run server in TCP mode (for debugging)")
		cmd.Flags().IntVar(&tcpPort, "port", 8765, "TCP port to listen on (used with --tcp)")
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error, off")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// verbosity maps a log level name to a commonlog verbosity.
func verbosity(level string) (int, error) {
	switch strings.ToLower(level) {
	case "debug":
		return 2, nil
	case "info":
		return 1, nil
	case "notice":
		return 0, nil
	case "warn", "warning":
		return -1, nil
	case "error":
		return -2, nil
	case "off", "none":
		return -4, nil
	}

	return 0, fmt.Errorf("unknown log level %q", level)
}

// setupLogging configures the logging system based on command-line flags.
func setupLogging() error {
	v, err := verbosity(logLevel)
	if err != nil {
		return err
	}

	var path *string
	if logFile != "" {
		path = &logFile
	}

	commonlog.Configure(v, path)

	return nil
}

func newHandler() protocol.Handler {
	return protocol.Handler{
		Initialize:  lsp.Initialize,
		Initialized: lsp.Initialized,
		Shutdown:    lsp.Shutdown,
		SetTrace:    lsp.SetTrace,

		WorkspaceDidChangeConfiguration:    lsp.DidChangeConfiguration,
		WorkspaceDidChangeWorkspaceFolders: lsp.DidChangeWorkspaceFolders,
		WorkspaceDidChangeWatchedFiles:     lsp.DidChangeWatchedFiles,
		WorkspaceSymbol:                    lsp.WorkspaceSymbol,

		TextDocumentDidOpen:   lsp.DidOpen,
		TextDocumentDidChange: lsp.DidChange,
		TextDocumentDidSave:   lsp.DidSave,
		TextDocumentDidClose:  lsp.DidClose,

		TextDocumentCompletion:         lsp.Completion,
		TextDocumentHover:              lsp.Hover,
		TextDocumentDefinition:         lsp.Definition,
		TextDocumentReferences:         lsp.References,
		TextDocumentDocumentSymbol:     lsp.DocumentSymbol,
		TextDocumentCodeAction:         lsp.CodeAction,
		TextDocumentRename:             lsp.Rename,
		TextDocumentPrepareRename:      lsp.PrepareRename,
		TextDocumentSemanticTokensFull: lsp.SemanticTokensFull,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := setupLogging(); err != nil {
		return err
	}

	log := commonlog.GetLogger("xdt99.server")

	srv := server.New()
	lsp.SetServer(srv)

	defer srv.SetShuttingDown()

	handler := newHandler()
	glspServer := glspserver.NewServer(&handler, lsp.Name, false)

	if tcpMode {
		log.Noticef("%s %s listening on port %d", lsp.Name, lsp.Version, tcpPort)
		return glspServer.RunTCP(fmt.Sprintf("127.0.0.1:%d", tcpPort))
	}

	log.Noticef("%s %s on stdio", lsp.Name, lsp.Version)

	return glspServer.RunStdio()
}
