// Package cmd implements the codegraphctl CLI binding shell: it parses
// flags and dispatches to internal/codegraph, carrying no indexing logic
// of its own.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codegraph-dev/codegraph/internal/codegraph"
	cfgpkg "github.com/codegraph-dev/codegraph/internal/config"
)

var (
	repoPath   string
	dbDir      string
	configPath string

	graph *codegraph.CodeGraph
)

var rootCmd = &cobra.Command{
	Use:   "codegraphctl",
	Short: "Index and query a repository's code graph",
	Long: `codegraphctl builds a typed property graph from a source repository
and lets you query it with a Cypher-like language.

It provides commands to index a repository, run queries against the
stored graph, look up a function's parameter types, and clean a
previously indexed project.`,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		if c.Name() == "help" || c.Name() == "completion" {
			return nil
		}
		fileCfg, err := cfgpkg.Load(configPath)
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		g, err := codegraph.Open(dbDir, repoPath, &codegraph.Config{
			IgnorePatterns: fileCfg.IgnorePatterns,
			Languages:      fileCfg.Languages,
			LogLevel:       fileCfg.LogLevel,
		})
		if err != nil {
			return err
		}
		graph = g
		return nil
	},
	PersistentPostRunE: func(c *cobra.Command, args []string) error {
		if graph == nil {
			return nil
		}
		return graph.Close()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&repoPath, "repo", "r", ".", "path to the repository to index or query")
	rootCmd.PersistentFlags().StringVar(&dbDir, "db-dir", "", "directory holding the graph database (default: the store's cache dir)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".codegraph.yaml", "path to a codegraphctl config file")
}

// CodeGraph returns the CodeGraph opened by the root command's
// PersistentPreRunE, for subcommands to use.
func CodeGraph() *codegraph.CodeGraph {
	return graph
}
