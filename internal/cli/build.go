package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/GabrielNunesIT/log-payload/internal/emitter"
	"github.com/GabrielNunesIT/log-payload/internal/ingestor"
	"github.com/GabrielNunesIT/log-payload/internal/pipeline"
)

// NewBuildCmd creates the build command.
func NewBuildCmd(cfgFile, logLevel *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [files...]",
		Short: "Build one payload from files or stdin",
		Long: `Reads one raw message per line from the given files, or stdin when none
are given. Lines starting with '{' are parsed as JSON objects, others are kept
as text. The payload is written raw to --output, appended to the spool with
--spool, or printed base64 encoded on stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args, *cfgFile, *logLevel)
		},
	}

	addPayloadFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "write the raw payload to this file")
	cmd.Flags().Bool("spool", false, "append the payload to the configured spool")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string, cfgFile, logLevel string) error {
	cfg, err := loadConfig(cmd, cfgFile, logLevel)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	log := SetupLogging(cfg.LogLevel)

	var em emitter.Emitter
	output, _ := cmd.Flags().GetString("output")
	toSpool, _ := cmd.Flags().GetBool("spool")
	switch {
	case output != "" && toSpool:
		return errors.New("--output and --spool are mutually exclusive")
	case output != "":
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		em = emitter.NewStdoutEmitter(f, true, log)
	case toSpool:
		em = emitter.NewSpoolEmitter(cfg.Spool)
	default:
		em = emitter.NewStdoutEmitter(cmd.OutOrStdout(), false, log)
	}

	p, err := pipeline.New(cfg, log, pipeline.WithEmitter(em))
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	batch, err := readInputs(ctx, args, log)
	if err != nil {
		return err
	}
	return p.BuildOnce(ctx, batch)
}

// readInputs collects the messages of every file in order into one batch,
// or reads stdin when no files are given.
func readInputs(ctx context.Context, files []string, log zerolog.Logger) (ingestor.Batch, error) {
	var sources []ingestor.Ingestor
	if len(files) == 0 {
		sources = append(sources, ingestor.NewStdinIngestor(log))
	}
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return ingestor.Batch{}, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		sources = append(sources, ingestor.NewReaderIngestor(name, f, log))
	}

	batch := ingestor.Batch{Source: "stdin"}
	if len(files) > 0 {
		batch.Source = strings.Join(files, ",")
	}
	for _, src := range sources {
		// A reader ingestor sends at most one batch before closing out.
		out := make(chan ingestor.Batch, 1)
		if err := src.Start(ctx, out); err != nil {
			return ingestor.Batch{}, fmt.Errorf("reading %s: %w", src.Name(), err)
		}
		for b := range out {
			batch.Messages = append(batch.Messages, b.Messages...)
		}
	}
	return batch, nil
}
