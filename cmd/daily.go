package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/j0nl1/aitracker/internal/cli"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily cost breakdown per provider",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, _ []string) error {
	summaries, days, err := loadSummaries(cmd)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("\n  No usage found.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY COSTS  Last %dd", days)))
	fmt.Println()

	for _, p := range sortedProviders(summaries) {
		s := summaries[p]
		if len(s.Daily) == 0 {
			continue
		}

		rows := make([][]string, 0, len(s.Daily))
		spark := make([]float64, 0, len(s.Daily))
		for _, d := range s.Daily {
			var tokens int64
			for _, c := range d.Costs {
				tokens += c.InputTokens + c.OutputTokens + c.CacheReadTokens + c.CacheCreationTokens
			}
			rows = append(rows, []string{
				d.Date,
				cli.FormatNumber(int64(len(d.Costs))),
				cli.FormatTokens(tokens),
				cli.FormatCost(d.TotalCost),
			})
		}
		// Daily is newest first; the sparkline reads left to right in time.
		for i := len(s.Daily) - 1; i >= 0; i-- {
			spark = append(spark, s.Daily[i].TotalCost)
		}

		fmt.Print(cli.RenderTable(cli.Table{
			Title:   p.DisplayName(),
			Headers: []string{"Date", "Models", "Tokens", "Cost"},
			Rows:    rows,
		}))
		fmt.Printf("  %s %s\n\n", cli.RenderSparkline(spark), cli.Muted("trend"))
	}

	return nil
}
