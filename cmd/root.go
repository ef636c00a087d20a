package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/j0nl1/aitracker/internal/cli"
	"github.com/j0nl1/aitracker/internal/config"
	"github.com/j0nl1/aitracker/internal/model"
	"github.com/j0nl1/aitracker/internal/pipeline"
	"github.com/j0nl1/aitracker/internal/provider"
	"github.com/j0nl1/aitracker/internal/source"
	"github.com/j0nl1/aitracker/internal/store"
)

var (
	flagDays     int
	flagProvider string
	flagNoCache  bool
	flagQuiet    bool
)

var rootCmd = &cobra.Command{
	Use:   "aitracker",
	Short: "AI coding assistant cost tracker",
	Long:  "Track token usage and costs across Claude Code and Codex session logs.",
	RunE:  runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 30, "Time window in days")
	rootCmd.PersistentFlags().StringVarP(&flagProvider, "provider", "p", "", "Show a single provider (claude, codex, vertex_ai)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the scan cache, reparse everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// newScanner builds a scanner honoring the config's source overrides and the
// cache flag.
func newScanner(cfg config.Config) *pipeline.Scanner {
	s := pipeline.NewScanner()
	if flagNoCache {
		s.CachePath = ""
	}

	if dir := cfg.Sources.ClaudeDir; dir != "" {
		for i := range s.Layouts {
			if s.Layouts[i].Provider == provider.Claude {
				s.Layouts[i].Discover = func() []string {
					return source.DiscoverClaudeFiles([]string{dir})
				}
			}
		}
	}
	if dir := cfg.Sources.CodexDir; dir != "" {
		for i := range s.Layouts {
			if s.Layouts[i].Provider == provider.Codex {
				s.Layouts[i].Discover = func() []string {
					return source.DiscoverCodexFiles([]string{dir})
				}
			}
		}
	}

	return s
}

// scanDays resolves the effective window: an explicit --days flag wins over
// the configured default.
func scanDays(cmd *cobra.Command, cfg config.Config) int {
	if cmd.Flags().Changed("days") {
		return flagDays
	}
	if cfg.General.DefaultDays > 0 {
		return cfg.General.DefaultDays
	}
	return flagDays
}

// loadSummaries is the shared scan path used by all reporting commands. It
// returns the per-provider summaries already filtered down to the providers
// the user wants to see.
func loadSummaries(cmd *cobra.Command) (map[provider.ID]model.CostSummary, int, error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  %s\n", cli.Warn(err.Error()))
		cfg = config.DefaultConfig()
	}

	days := scanDays(cmd, cfg)
	s := newScanner(cfg)

	if !flagQuiet {
		if s.CachePath != "" && store.HasWarmCache(s.CachePath) {
			fmt.Fprintf(os.Stderr, "  Refreshing usage data...\n")
		} else {
			fmt.Fprintf(os.Stderr, "  Scanning usage logs (first run may take a moment)...\n")
		}
		s.Progress = func(p provider.ID, current, total int) {
			if current%50 == 0 || current == total {
				fmt.Fprint(os.Stderr, cli.OverwriteLine(
					fmt.Sprintf("  %s [%d/%d]", p.DisplayName(), current, total)))
			}
		}
	}

	summaries := s.Scan(days)

	if !flagQuiet && s.Stats.Files > 0 {
		fmt.Fprint(os.Stderr, cli.OverwriteLine(fmt.Sprintf("  %s files: %s cached, %s parsed\n",
			cli.FormatNumber(int64(s.Stats.Files)),
			cli.FormatNumber(int64(s.Stats.CacheHits)),
			cli.FormatNumber(int64(s.Stats.Reparsed)),
		)))
	}

	filterProviders(summaries, cfg)
	return summaries, days, nil
}

// filterProviders drops summaries the user asked to hide, via --provider or
// the configured provider list.
func filterProviders(summaries map[provider.ID]model.CostSummary, cfg config.Config) {
	if flagProvider != "" {
		want, ok := provider.FromID(flagProvider)
		for p := range summaries {
			if !ok || p != want {
				delete(summaries, p)
			}
		}
		return
	}

	if len(cfg.General.Providers) == 0 {
		return
	}
	enabled := make(map[provider.ID]bool, len(cfg.General.Providers))
	for _, id := range cfg.General.Providers {
		if p, ok := provider.FromID(id); ok {
			enabled[p] = true
		}
	}
	for p := range summaries {
		if !enabled[p] {
			delete(summaries, p)
		}
	}
}

// sortedProviders returns the summary keys in a stable display order.
func sortedProviders(summaries map[provider.ID]model.CostSummary) []provider.ID {
	providers := make([]provider.ID, 0, len(summaries))
	for p := range summaries {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool {
		return providers[i] < providers[j]
	})
	return providers
}

func runSummary(cmd *cobra.Command, _ []string) error {
	summaries, days, err := loadSummaries(cmd)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("\n  No usage found.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("AI USAGE  Last %dd", days)))
	fmt.Println()

	var grandTotal, todayTotal float64
	rows := make([][]string, 0, len(summaries))
	for _, p := range sortedProviders(summaries) {
		s := summaries[p]
		grandTotal += s.TotalCost
		todayTotal += s.TodayCost

		var tokens int64
		topModel := ""
		for i, m := range s.ByModel {
			tokens += m.InputTokens + m.OutputTokens + m.CacheReadTokens + m.CacheCreationTokens
			if i == 0 {
				topModel = m.Model
			}
		}
		rows = append(rows, []string{
			p.DisplayName(),
			topModel,
			cli.FormatTokens(tokens),
			cli.FormatCost(s.TodayCost),
			cli.FormatCost(s.TotalCost),
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{
		"Total", "", "", cli.FormatCost(todayTotal), cli.FormatCost(grandTotal),
	})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Provider", "Top Model", "Tokens", "Today", "Total"},
		Rows:    rows,
	}))
	fmt.Println()

	return nil
}
