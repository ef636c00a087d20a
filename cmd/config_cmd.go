// Package cmd implements the aitracker CLI commands.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/j0nl1/aitracker/internal/config"
	"github.com/j0nl1/aitracker/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default days: %d\n", cfg.General.DefaultDays)
	if len(cfg.General.Providers) > 0 {
		fmt.Printf("    Providers:    %s\n", strings.Join(cfg.General.Providers, ", "))
	} else {
		fmt.Println("    Providers:    all")
	}
	fmt.Println()

	fmt.Println("  [Sources]")
	if cfg.Sources.ClaudeDir != "" {
		fmt.Printf("    Claude directory: %s\n", cfg.Sources.ClaudeDir)
	} else {
		fmt.Println("    Claude directory: auto-detected")
	}
	if cfg.Sources.CodexDir != "" {
		fmt.Printf("    Codex directory:  %s\n", cfg.Sources.CodexDir)
	} else {
		fmt.Println("    Codex directory:  auto-detected")
	}
	fmt.Println()

	fmt.Println("  [Claude.ai]")
	if key := config.SessionKey(cfg); key != "" {
		fmt.Printf("    Session key: %s\n", maskKey(key))
	} else {
		fmt.Println("    Session key: not configured")
	}
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    Cache file: %s\n", store.DefaultPath())
	if store.HasWarmCache(store.DefaultPath()) {
		fmt.Println("    Status:     warm")
	} else {
		fmt.Println("    Status:     cold")
	}
	fmt.Println()

	return nil
}

func maskKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
