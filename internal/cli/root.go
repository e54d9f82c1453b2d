package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/linkguard/internal/model"
	"github.com/ppiankov/linkguard/internal/pipeline"
)

const version = "linkguard v0.3.0"

var (
	cfgFile string
	verbose bool
	noColor bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "linkguard",
	Short: "LinkGuard - offline phishing and malicious link heuristics",
	Long: `LinkGuard inspects a URL string and returns a threat verdict
(safe, warning or danger) with a score and the signals that raised it.

Analysis is purely lexical: no page is fetched and no external reputation
service is consulted, so a verdict is a hint, not a guarantee.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

// Execute runs the root command; ctx is cancelled on interrupt by main
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.linkguard/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	registerDefaults(model.DefaultConfig())

	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("stats.path", filepath.Join(home, ".linkguard", "stats.db"))
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if err == nil {
		viper.AddConfigPath(filepath.Join(home, ".linkguard"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// LINKGUARD_CACHE_TTL overrides cache.ttl
	viper.SetEnvPrefix("LINKGUARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every config key known to viper so that
// environment variables can override keys absent from the config file
func registerDefaults(cfg *model.Config) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	for key, val := range flatten("", tree) {
		viper.SetDefault(key, val)
	}
}

func flatten(prefix string, tree map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// loadConfig resolves defaults, config file, environment and bound flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger writes JSON lines to stderr; --verbose raises verbosity to 1
func newLogger() logr.Logger {
	v := 0
	if viper.GetBool("verbose") {
		v = 1
	}
	return funcr.NewJSON(func(obj string) {
		fmt.Fprintln(os.Stderr, obj)
	}, funcr.Options{Verbosity: v}).WithName("linkguard")
}

// newPipeline loads config and builds a pipeline with the CLI logger
func newPipeline() (*model.Config, *pipeline.Pipeline, logr.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, logr.Discard(), err
	}
	logger := newLogger()
	return cfg, pipeline.NewPipeline(cfg, pipeline.WithLogger(logger)), logger, nil
}

// sortedKeys is used for stable config listings
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
