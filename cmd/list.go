package cmd

import (
	"fmt"

	"github.com/signalnine/gauntlet/internal/config"
	"github.com/signalnine/gauntlet/internal/matrix"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured evaluation matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Checkpoint: %s\n", cfg.Checkpoint)
			fmt.Printf("Model family: %s (trials/task: %d, seed: %d)\n",
				cfg.ModelFamily, cfg.TrialsPerTask, cfg.Seed)
			cells := matrix.Expand(cfg.Suites, cfg.Levels)
			fmt.Printf("\nCells (%d):\n", len(cells))
			for _, c := range cells {
				fmt.Printf("  - %s L%d\n", c.Suite, c.Level)
			}
			return nil
		},
	}
}
