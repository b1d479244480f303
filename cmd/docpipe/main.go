package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-docpipe/pkg/config"
	"github.com/adfharrison1/go-docpipe/pkg/logging"
)

var (
	cfg    *config.Config
	logger *zap.Logger

	driverFlag   string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "docpipe",
	Short: "Pipeline-based document store accessor",
	Long: `docpipe serves collections of documents over HTTP, backed by MongoDB or an
in-memory engine with optional snapshots.

Configuration comes from the environment or a .env file (STORE_DRIVER,
MONGO_URI, MONGO_DATABASE, PORT, DATA_FILE, SNAPSHOT_INTERVAL, LOG_LEVEL).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if driverFlag != "" {
			if err := os.Setenv("STORE_DRIVER", driverFlag); err != nil {
				return err
			}
		}
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if logLevelFlag != "" {
			loaded.LogLevel = logLevelFlag
		}
		cfg = loaded
		logger = logging.New(cfg.LogLevel, logFormat(cfg))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// logFormat returns the configured log format. Production always logs JSON.
func logFormat(c *config.Config) string {
	if c.IsProduction() {
		return logging.FormatJSON
	}
	return c.LogFormat
}

func init() {
	rootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "store driver (memory or mongo), overrides STORE_DRIVER")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (debug, info, warn, error), overrides LOG_LEVEL")

	rootCmd.AddCommand(newServeCmd(), newSeedCmd(), newMoviesCmd(), newPingCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
