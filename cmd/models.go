package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/j0nl1/aitracker/internal/cli"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Cost breakdown by model",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, _ []string) error {
	summaries, days, err := loadSummaries(cmd)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("\n  No usage found.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("MODEL COSTS  Last %dd", days)))
	fmt.Println()

	for _, p := range sortedProviders(summaries) {
		s := summaries[p]
		if len(s.ByModel) == 0 {
			continue
		}

		rows := make([][]string, 0, len(s.ByModel))
		for _, m := range s.ByModel {
			rows = append(rows, []string{
				m.Model,
				cli.FormatTokens(m.InputTokens),
				cli.FormatTokens(m.OutputTokens),
				cli.FormatTokens(m.CacheReadTokens + m.CacheCreationTokens),
				cli.FormatCost(m.TotalCost),
			})
		}
		rows = append(rows, []string{"---"})
		rows = append(rows, []string{"Total", "", "", "", cli.FormatCost(s.TotalCost)})

		fmt.Print(cli.RenderTable(cli.Table{
			Title:   p.DisplayName(),
			Headers: []string{"Model", "Input", "Output", "Cache", "Cost"},
			Rows:    rows,
		}))
		fmt.Println()
	}

	return nil
}
