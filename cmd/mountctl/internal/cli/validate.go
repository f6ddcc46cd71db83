package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Check that every generation of the scenarios builds a valid tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			for _, path := range args {
				sc, err := LoadScenario(path)
				if err != nil {
					return err
				}
				trees, err := sc.Trees()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				nodes := 0
				for _, tree := range trees {
					nodes += tree.Len()
				}
				logger.Debug("validated", "path", path, "generations", len(trees), "nodes", nodes)
				fmt.Fprintf(cmd.OutOrStdout(), "ok %s: %d generations, %d nodes\n", path, len(trees), nodes)
			}
			return nil
		},
	}
}
