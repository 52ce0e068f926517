package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/corey/zeal/internal/app"
	"github.com/corey/zeal/internal/config"
	"github.com/corey/zeal/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgPath    string
	sourcePath string
	logLevel   string
	jsonOut    bool

	settings *config.Config
	log      *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "zeal",
	Short:         "Restaurant catalog enrichment and search",
	Long:          "Builds a cuisine- and dish-enriched restaurant catalog, caches it by content hash, and answers searches against it.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if sourcePath != "" {
			cfg.Source.Path = sourcePath
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		settings = cfg
		log = logger.New(cfg.Log.Level, cfg.Log.Format)
		return nil
	},
}

// projectRoot returns the project root (cwd by default).
func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return dir
}

// newApp wires an App from the loaded settings.
func newApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, app.Config{Settings: settings, Log: log})
	if err != nil {
		if isDBLockError(err) {
			return nil, fmt.Errorf("%w\n%s", err, diagnoseDBLock(settings.Cache.Path))
		}
		return nil, fmt.Errorf("init: %w", err)
	}
	return a, nil
}

// loadedApp returns an App with the catalog loaded.
func loadedApp(ctx context.Context) (*app.App, error) {
	a, err := newApp(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := a.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s✗%s %v\n", colorYellow, colorReset, err)
	}
	if log != nil {
		_ = log.Sync()
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default: zeal.yaml in ., ./configs or ~/.zeal)")
	rootCmd.PersistentFlags().StringVar(&sourcePath, "source", "", "Restaurant JSON file (default: bundled data)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print JSON instead of text")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(wipeCmd)
	rootCmd.AddCommand(serveCmd)
}
