package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/groundcheck/internal/rpc"
	"github.com/ppiankov/groundcheck/internal/store"
)

var dbPath string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agent-protocol server on stdio",
	Long: `Serve speaks line-delimited JSON-RPC on stdin/stdout so agent hosts can
store facts, query them, and verify drafts against a persistent,
namespaced memory store.

Methods: store_fact, check_memory, verify_output, forget, ping.

Example:
  groundcheck serve --db ~/.groundcheck/memories.db`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: ~/.groundcheck/memories.db)")
	serveCmd.Flags().BoolVar(&neuralFlag, "neural", false, "enable the OpenAI-backed semantic matcher (needs OPENAI_API_KEY)")
}

func runServe(cmd *cobra.Command, args []string) error {
	path := dbPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dir := filepath.Join(home, ".groundcheck")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		path = filepath.Join(dir, "memories.db")
	}

	verifier, err := buildVerifier()
	if err != nil {
		return err
	}

	memStore, err := store.Open(path)
	if err != nil {
		return err
	}
	defer memStore.Close()

	if verbose {
		fmt.Fprintf(os.Stderr, "Serving on stdio (store: %s)\n", path)
	}

	server := rpc.NewServer(verifier, memStore)
	return server.Serve(context.Background(), os.Stdin, os.Stdout)
}
