package cmd

import (
	"fmt"
	"os"

	"github.com/signalnine/gauntlet/internal/report"
	"github.com/signalnine/gauntlet/internal/result"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <summary.csv>",
		Short: "Re-render the table view from a stored summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := report.ReadSummary(args[0])
			if err != nil {
				return err
			}
			tally := result.Tally{Total: len(records)}
			for _, r := range records {
				if r.Outcome == result.OutcomeFailed {
					tally.Failed++
				} else {
					tally.Succeeded++
				}
			}
			fmt.Printf("%d cells: %d succeeded, %d failed\n\n",
				tally.Total, tally.Succeeded, tally.Failed)
			return report.WriteTable(os.Stdout, records)
		},
	}
}
