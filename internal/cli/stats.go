package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/linkguard/internal/stats"
)

var statsJSON bool

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show persisted analysis counters",
	Long: `Stats prints the totals that "linkguard serve" has flushed to the
stats database (stats.path).`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print counters as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Stats.Path == "" {
		return fmt.Errorf("stats.path is not configured")
	}
	if _, err := os.Stat(cfg.Stats.Path); err != nil {
		return fmt.Errorf("no stats database at %s: %w", cfg.Stats.Path, err)
	}

	store, err := stats.NewSQLiteStore(cfg.Stats.Path, newLogger())
	if err != nil {
		return fmt.Errorf("open stats store: %w", err)
	}
	defer func() { _ = store.Close() }()

	totals, err := store.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	if statsJSON {
		return writeJSON(os.Stdout, totals)
	}

	fmt.Printf("  Links checked:    %d\n", totals.Analyses)
	_, _ = dangerColor.Printf("  Threats blocked:  %d\n", totals.ThreatsBlocked())
	_, _ = warningColor.Printf("  Warnings:         %d\n", totals.Warnings)
	fmt.Printf("  Cache hits:       %d\n", totals.CacheHits)
	if totals.Faults > 0 {
		fmt.Printf("  Detector faults:  %d\n", totals.Faults)
	}
	fmt.Printf("\n  Database: %s\n", cfg.Stats.Path)
	return nil
}
