package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/GabrielNunesIT/log-payload/internal/config"
)

// Execute builds and runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile  string
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:   "log-payload",
		Short: "Build compressed, schema-validated log payloads",
		Long: `log-payload turns raw log messages into ingestion payloads: messages are
filtered, mapped to records, validated against the record schema, encoded as
protobuf, bounded in size and compressed.

build produces one payload from files or stdin. watch turns every file written
under a directory into a payload appended to the spool.

Hot-reload: When a config file is specified, changes are automatically applied
without requiring a restart.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides loglevel")

	rootCmd.AddCommand(
		NewBuildCmd(&cfgFile, &logLevel),
		NewWatchCmd(&cfgFile, &logLevel),
		NewValidateCmd(&cfgFile),
		NewVersionCmd(),
	)

	return rootCmd
}

// loadConfig loads configuration and applies the flags of cmd that were set.
func loadConfig(cmd *cobra.Command, cfgFile, logLevel string) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	applyFlagOverrides(cmd.Flags(), cfg)
	return cfg, nil
}

// applyFlagOverrides copies explicitly set command flags into cfg.
func applyFlagOverrides(flags *pflag.FlagSet, cfg *config.Config) {
	if f := flags.Lookup("host-id"); f != nil && f.Changed {
		cfg.Source.HostID = f.Value.String()
	}
	if f := flags.Lookup("source-id"); f != nil && f.Changed {
		cfg.Source.SourceID = f.Value.String()
	}
	if f := flags.Lookup("compression"); f != nil && f.Changed {
		cfg.Payload.Compression = f.Value.String()
	}
	if v, err := flags.GetInt("max-bytes"); err == nil && flags.Changed("max-bytes") {
		cfg.Payload.MaxBytes = v
	}
	if v, err := flags.GetInt("workers"); err == nil && flags.Changed("workers") {
		cfg.Payload.Workers = v
	}
	if f := flags.Lookup("filter-regexp"); f != nil && f.Changed {
		cfg.Filter.Regexp = f.Value.String()
	}
	if f := flags.Lookup("dir"); f != nil && f.Changed {
		cfg.Watch.Dir = f.Value.String()
	}
	if f := flags.Lookup("metrics-address"); f != nil && f.Changed {
		cfg.Watch.MetricsAddress = f.Value.String()
	}
}

// addPayloadFlags registers the flags shared by build and watch.
func addPayloadFlags(cmd *cobra.Command) {
	cmd.Flags().String("host-id", "", `host id; "auto" generates one`)
	cmd.Flags().String("source-id", "", "source id")
	cmd.Flags().String("compression", "", "payload compression (zlib, gzip)")
	cmd.Flags().Int("max-bytes", 0, "uncompressed payload bound; <= 0 disables it")
	cmd.Flags().Int("workers", 0, "record encoding goroutines")
	cmd.Flags().String("filter-regexp", "", "keep only messages matching this pattern")
}
