package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/j0nl1/aitracker/internal/config"
	"github.com/j0nl1/aitracker/internal/provider"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Choose which providers to show",
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// An empty list means everything; preselect accordingly.
	selected := cfg.General.Providers
	if len(selected) == 0 {
		for _, p := range provider.All() {
			selected = append(selected, string(p))
		}
	}

	options := make([]huh.Option[string], 0, len(provider.All()))
	for _, p := range provider.All() {
		options = append(options, huh.NewOption(p.DisplayName(), string(p)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Providers").
				Description("Only the selected providers appear in reports.").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	if len(selected) == len(provider.All()) {
		// All selected is the default; keep the config minimal.
		cfg.General.Providers = nil
	} else {
		cfg.General.Providers = selected
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("  Saved to %s\n", config.Path())
	return nil
}
