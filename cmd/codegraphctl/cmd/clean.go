package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteDir bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the indexed graph data for this project",
	Long: `clean removes every node and edge stored for the repository bound by
--repo. With --delete-dir it also removes the backing database file.`,
	RunE: func(c *cobra.Command, args []string) error {
		if err := CodeGraph().Clean(deleteDir); err != nil {
			return fmt.Errorf("clean: %w", err)
		}
		fmt.Println("cleaned", repoPath)
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&deleteDir, "delete-dir", false, "also remove the database file from disk")
	rootCmd.AddCommand(cleanCmd)
}
