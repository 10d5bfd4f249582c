package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var incremental bool

var indexCmd = &cobra.Command{
	Use:   "index [paths...]",
	Short: "Index the repository into the code graph",
	Long: `index walks the repository, extracts definitions and references, and
writes the resulting graph to the database.

Examples:
  codegraphctl index --repo ./myrepo
  codegraphctl index src/server`,
	RunE: func(c *cobra.Command, args []string) error {
		if err := CodeGraph().Index(context.Background(), args, incremental); err != nil {
			return fmt.Errorf("index: %w", err)
		}
		fmt.Println("indexed", repoPath)
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&incremental, "incremental", false, "accepted for interface compatibility; every run performs a full re-index")
	rootCmd.AddCommand(indexCmd)
}
