package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <cypher-like query>",
	Short: "Run a Cypher-like query against the indexed graph",
	Long: `query evaluates a single MATCH/WHERE/RETURN query against the graph
already written by "index" and prints the matching rows.

Examples:
  codegraphctl query "MATCH (f:Function) RETURN f.name"
  codegraphctl query "MATCH (f:Function)-[:REFERENCES]->(g:Function) WHERE f.name = 'main' RETURN g.name"`,
	Args: cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		result, err := CodeGraph().Query(args[0])
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		if len(result.Rows) == 0 {
			fmt.Println("no rows")
			return nil
		}
		for _, row := range result.Rows {
			for _, col := range result.Columns {
				fmt.Printf("%s=%v ", col, row[col])
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
