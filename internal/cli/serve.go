package cli

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/linkguard/internal/server"
	"github.com/ppiankov/linkguard/internal/stats"
)

var (
	serveQuiet       bool
	serveMemoryStats bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the LinkGuard HTTP API",
	Long: `Serve exposes analysis over HTTP for browser extensions and other clients:
  POST /v1/analyze        {"url": "..."}
  GET  /v1/analyze?url=...
  GET  /v1/stats
  POST /v1/cache/sweep
  GET  /healthz

Expired cache entries are swept at startup and every cache.sweep_interval.
Counters are flushed to the stats database every stats.flush_interval.

Example:
  linkguard serve --addr :9000
  LINKGUARD_SERVER_REQUESTS_PER_SECOND=5 linkguard serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default: server.addr)")
	serveCmd.Flags().String("stats-db", "", "SQLite file for persisted counters (default: stats.path)")
	serveCmd.Flags().BoolVar(&serveMemoryStats, "memory-stats", false, "keep counters in memory only")
	serveCmd.Flags().BoolVarP(&serveQuiet, "quiet", "q", false, "suppress the startup banner")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("stats.path", serveCmd.Flags().Lookup("stats-db"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, p, logger, err := newPipeline()
	if err != nil {
		return err
	}

	var store stats.Store
	if serveMemoryStats || cfg.Stats.Path == "" {
		store = stats.NewMemoryStore()
	} else {
		s, err := stats.NewSQLiteStore(cfg.Stats.Path, logger.WithName("stats"))
		if err != nil {
			return fmt.Errorf("open stats store: %w", err)
		}
		store = s
	}
	defer func() { _ = store.Close() }()

	if !serveQuiet {
		printBanner(cfg.Server.Addr)
	}

	return server.NewServer(cfg, p, store, logger).Run(cmd.Context())
}

func printBanner(addr string) {
	figure.NewColorFigure("LinkGuard", "small", "green", true).Print()
	_, _ = color.New(color.FgCyan).Printf("  %s listening on %s\n\n", version, addr)
}
