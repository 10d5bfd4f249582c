package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var paramTypesCmd = &cobra.Command{
	Use:   "param-types <file> <line>",
	Short: "Print the resolved parameter types of the function at file:line",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		line, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("param-types: invalid line %q: %w", args[1], err)
		}
		snippets, err := CodeGraph().GetFuncParamTypes(args[0], line)
		if err != nil {
			return fmt.Errorf("param-types: %w", err)
		}
		if len(snippets) == 0 {
			fmt.Println("no resolvable parameter types")
			return nil
		}
		for _, s := range snippets {
			fmt.Printf("--- %s:%d-%d ---\n%s\n", s.Path, s.StartLine, s.EndLine, s.Content)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(paramTypesCmd)
}
