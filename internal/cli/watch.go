package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/GabrielNunesIT/log-payload/internal/config"
	"github.com/GabrielNunesIT/log-payload/internal/pipeline"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd(cfgFile, logLevel *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Build a payload for every file written under a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, cfgFile, logLevel)
		},
	}

	addPayloadFlags(cmd)
	cmd.Flags().String("dir", "", "directory to watch (overrides watch.dir)")
	cmd.Flags().String("metrics-address", "", "serve Prometheus metrics on this address")

	// Hot-reload flag
	cmd.Flags().Bool("hot-reload", true, "enable hot-reload of config file")

	return cmd
}

func runWatch(cmd *cobra.Command, cfgFile, logLevel *string) error {
	cfg, err := loadConfig(cmd, *cfgFile, *logLevel)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	log := SetupLogging(cfg.LogLevel)

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}

	log.Info().
		Str("dir", cfg.Watch.Dir).
		Str("pattern", cfg.Watch.Pattern).
		Str("spool", cfg.Spool.Path).
		Msg("starting log payload watcher")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	reload := func(newCfg *config.Config) {
		applyFlagOverrides(cmd.Flags(), newCfg)
		if err := p.Reconfigure(newCfg); err != nil {
			log.Error().Err(err).Msg("reconfigure failed")
		}
	}

	hotReloadEnabled, _ := cmd.Flags().GetBool("hot-reload")
	if *cfgFile != "" && hotReloadEnabled {
		startConfigWatcher(ctx, *cfgFile, p, reload, log)
	}

	reloadFailed := func(error) { p.Metrics().ConfigReloaded(false) }
	go handleSignals(ctx, cancel, sigChan, *cfgFile, reload, reloadFailed, log)

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn().Err(err).Msg("systemd notification failed")
	} else if sent {
		log.Debug().Msg("notified systemd readiness")
	}

	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("pipeline error: %w", err)
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	log.Info().Msg("log payload watcher stopped")
	return nil
}

func startConfigWatcher(ctx context.Context, cfgFile string, p *pipeline.Pipeline, reload func(*config.Config), log zerolog.Logger) {
	watcher := config.NewWatcher(cfgFile, log)
	if err := watcher.Start(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to start config watcher")
		return
	}

	log.Info().Str("config", cfgFile).Msg("hot-reload enabled")

	go func() {
		for {
			select {
			case newCfg := <-watcher.Changes():
				reload(newCfg)
			case err := <-watcher.Errors():
				p.Metrics().ConfigReloaded(false)
				log.Error().Err(err).Msg("config watcher error")
			case <-ctx.Done():
				return
			}
		}
	}()
}

// handleSignals reloads on SIGHUP and cancels on SIGINT or SIGTERM.
// onError is called when a reloaded config fails to load or validate.
func handleSignals(ctx context.Context, cancel context.CancelFunc, sigChan <-chan os.Signal, cfgFile string, reload func(*config.Config), onError func(error), log zerolog.Logger) {
	for {
		select {
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGHUP:
				log.Info().Msg("received SIGHUP, reloading config")
				newCfg, err := config.Load(cfgFile)
				if err == nil {
					err = newCfg.Validate()
				}
				if err != nil {
					onError(err)
					log.Error().Err(err).Msg("failed to reload config")
					continue
				}
				reload(newCfg)
			case syscall.SIGINT, syscall.SIGTERM:
				log.Info().Stringer("signal", sig).Msg("received shutdown signal")
				cancel()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
