package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/j0nl1/aitracker/internal/claudeai"
	"github.com/j0nl1/aitracker/internal/cli"
	"github.com/j0nl1/aitracker/internal/config"
	"github.com/j0nl1/aitracker/internal/model"
	"github.com/j0nl1/aitracker/internal/provider"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's spend and claude.ai rate limits",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, _ := config.Load()
	sessionKey := config.SessionKey(cfg)

	// The claude.ai fetch and the local scan are independent; run the slow
	// network call while the scan chews through the logs.
	var status *claudeai.Status
	done := make(chan struct{})
	if sessionKey != "" {
		client := claudeai.NewClient(sessionKey)
		if client == nil {
			return errors.New("invalid session key format (expected sk-ant-sid... prefix)")
		}
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Fetching claude.ai rate limits...\n")
		}
		go func() {
			defer close(done)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			status = client.FetchStatus(ctx)
		}()
	} else {
		close(done)
	}

	summaries, _, err := loadSummaries(cmd)
	if err != nil {
		return err
	}
	<-done

	fmt.Println()
	fmt.Println(cli.RenderTitle("STATUS"))
	fmt.Println()

	renderTodaySpend(summaries)

	if sessionKey == "" {
		fmt.Println("  No claude.ai session key configured.")
		fmt.Println()
		fmt.Println("  To get your session key:")
		fmt.Println("    1. Open claude.ai in your browser")
		fmt.Println("    2. DevTools (F12) > Application > Cookies > claude.ai")
		fmt.Println("    3. Copy the 'sessionKey' value (starts with sk-ant-sid...)")
		fmt.Println()
		fmt.Println("  Then set CLAUDE_SESSION_KEY or add it to the [claude_ai] config section.")
		fmt.Println()
		return nil
	}

	if status.Error != nil {
		if errors.Is(status.Error, claudeai.ErrUnauthorized) {
			return errors.New("session key expired or invalid, grab a fresh one from claude.ai cookies")
		}
		if errors.Is(status.Error, claudeai.ErrRateLimited) {
			return errors.New("rate limited by claude.ai, try again in a minute")
		}
		if status.Limits == nil {
			return fmt.Errorf("fetch failed: %w", status.Error)
		}
	}

	if status.Org.UUID != "" {
		fmt.Printf("  Organization: %s\n", status.Org.Name)
		if len(status.Org.Capabilities) > 0 {
			fmt.Printf("  Capabilities: %s\n", strings.Join(status.Org.Capabilities, ", "))
		}
		fmt.Println()
	}

	if status.Limits != nil {
		rows := [][]string{}
		if w := status.Limits.FiveHour; w != nil {
			rows = append(rows, rateLimitRow("5-hour window", w))
		}
		if w := status.Limits.SevenDay; w != nil {
			rows = append(rows, rateLimitRow("7-day (all)", w))
		}
		if w := status.Limits.SevenDayOpus; w != nil {
			rows = append(rows, rateLimitRow("7-day Opus", w))
		}
		if w := status.Limits.SevenDaySonnet; w != nil {
			rows = append(rows, rateLimitRow("7-day Sonnet", w))
		}
		if len(rows) > 0 {
			fmt.Print(cli.RenderTable(cli.Table{
				Title:   "Rate Limits",
				Headers: []string{"Window", "Used", "Bar", "Resets"},
				Rows:    rows,
			}))
		}
	}

	if status.Error != nil {
		fmt.Printf("  %s\n\n", cli.Warn(fmt.Sprintf("Partial data, %s", status.Error)))
	}
	fmt.Printf("  Fetched at %s\n\n", status.FetchedAt.Format("3:04:05 PM"))

	return nil
}

func renderTodaySpend(summaries map[provider.ID]model.CostSummary) {
	if len(summaries) == 0 {
		fmt.Println("  No usage found today.")
		fmt.Println()
		return
	}

	rows := make([][]string, 0, len(summaries))
	var total float64
	for _, p := range sortedProviders(summaries) {
		s := summaries[p]
		total += s.TodayCost
		rows = append(rows, []string{p.DisplayName(), cli.FormatCost(s.TodayCost)})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", cli.FormatCost(total)})

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Today's Spend",
		Headers: []string{"Provider", "Cost"},
		Rows:    rows,
	}))
	fmt.Println()
}

func rateLimitRow(label string, w *claudeai.Window) []string {
	pctStr := fmt.Sprintf("%.0f%%", w.Pct*100)
	bar := renderMiniBar(w.Pct, 20)
	resets := ""
	if !w.ResetsAt.IsZero() {
		dur := time.Until(w.ResetsAt)
		if dur > 0 {
			resets = formatCountdown(dur)
		} else {
			resets = "now"
		}
	}
	return []string{label, pctStr, bar, resets}
}

func renderMiniBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	filled := int(pct * float64(width))
	empty := width - filled

	color := cli.ColorGreen
	if pct >= 0.8 {
		color = cli.ColorRed
	} else if pct >= 0.5 {
		color = cli.ColorOrange
	}

	barStyle := lipgloss.NewStyle().Foreground(color)
	dimStyle := lipgloss.NewStyle().Foreground(cli.ColorTextDim)

	return barStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", empty))
}

func formatCountdown(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
