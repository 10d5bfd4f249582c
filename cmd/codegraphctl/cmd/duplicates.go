package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List definitions that share an identical source span with another definition",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		groups, err := CodeGraph().DuplicateSpans()
		if err != nil {
			return fmt.Errorf("duplicates: %w", err)
		}
		if len(groups) == 0 {
			fmt.Println("no duplicate spans found")
			return nil
		}
		for _, g := range groups {
			fmt.Printf("--- %s ---\n", g.ContentHash)
			for _, n := range g.Nodes {
				fmt.Printf("%s %s:%d-%d\n", n.QualifiedName, n.FilePath, n.StartLine, n.EndLine)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(duplicatesCmd)
}
