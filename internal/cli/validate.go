package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/GabrielNunesIT/log-payload/internal/config"
	"github.com/GabrielNunesIT/log-payload/internal/pipeline"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			// Compiles filters and checks the compressor.
			if _, err := pipeline.New(cfg, zerolog.Nop()); err != nil {
				return fmt.Errorf("pipeline configuration error: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration valid:\n")
			fmt.Fprintf(out, "  Compression: %s (max %d bytes, %d workers)\n", cfg.Payload.Compression, cfg.Payload.MaxBytes, cfg.Payload.Workers)
			fmt.Fprintf(out, "  Host meta:   %d configured\n", len(cfg.Source.HostMeta))
			if cfg.Watch.Dir != "" {
				fmt.Fprintf(out, "  Watching:    %s/%s\n", cfg.Watch.Dir, cfg.Watch.Pattern)
			}
			return nil
		},
	}
}
