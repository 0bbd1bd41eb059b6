// ABOUTME: Entry point for the udp-audio sender
// ABOUTME: Loads configuration, then streams a capture source to a UDP receiver as mono PCM
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Resonate-Protocol/udp-audio/internal/capture"
	"github.com/Resonate-Protocol/udp-audio/internal/config"
	"github.com/Resonate-Protocol/udp-audio/internal/discovery"
	"github.com/Resonate-Protocol/udp-audio/internal/observe"
	"github.com/Resonate-Protocol/udp-audio/internal/ui"
	"github.com/Resonate-Protocol/udp-audio/internal/version"
	"github.com/Resonate-Protocol/udp-audio/pkg/forward"
	"github.com/Resonate-Protocol/udp-audio/pkg/streamer"
)

// statsInterval is how often stats are logged when the TUI is off
const statsInterval = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("udp-audio failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet(version.Product, flag.ExitOnError)
	configFile := fs.String("config", "", "YAML configuration file")
	envFile := fs.String("env-file", config.DefaultEnvFile, "dotenv file read when present")
	flags := config.SenderFlags(fs)
	fs.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, config.Sources{File: *configFile, EnvFile: *envFile}, flags.Apply)
	if err != nil {
		return err
	}

	logger, closeLog, err := setupLogging(cfg.LogFile, cfg.Debug, cfg.TUI)
	if err != nil {
		return err
	}
	defer closeLog()

	instanceID := uuid.NewString()
	logger = logger.With("instance", instanceID)
	slog.SetDefault(logger)

	logger.Info("Starting "+version.String(), "log_file", cfg.LogFile, "debug", cfg.Debug)

	if cfg.Address == "" && cfg.Discover {
		logger.Info("Browsing for a receiver", "timeout", cfg.DiscoverTimeout)
		rcv, err := discovery.FindReceiver(ctx, cfg.DiscoverTimeout, logger)
		if err != nil {
			return fmt.Errorf("discovery failed: %w", err)
		}
		logger.Info("Using discovered receiver", "receiver", rcv.String())
		cfg.Address = rcv.Addr.String()
		cfg.Port = rcv.Port
	}

	g, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()

	pipelineOpts := []streamer.Option{streamer.WithLogger(logger)}
	if cfg.MetricsAddr != "" {
		provider, err := observe.InitProvider(ctx, observe.ProviderConfig{
			ServiceName:    version.Product,
			ServiceVersion: version.Version,
		})
		if err != nil {
			return fmt.Errorf("failed to init metrics: %w", err)
		}
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			provider.Shutdown(shutdownCtx)
		}()
		pipelineOpts = append(pipelineOpts, streamer.WithMeterProvider(provider.MeterProvider))
		g.Go(func() error { return provider.Serve(gctx, cfg.MetricsAddr, logger) })
	}

	streamCfg, err := cfg.Streamer()
	if err != nil {
		return err
	}
	pipeline, err := streamer.New(streamCfg, pipelineOpts...)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	if err := pipeline.Start(); err != nil {
		return err
	}

	src, err := capture.Open(cfg.Source, cfg.Capture(logger))
	if err != nil {
		return fmt.Errorf("failed to open capture source: %w", err)
	}
	defer src.Close()

	g.Go(func() error {
		defer cancel()
		return src.Run(gctx, func(raw []byte) error {
			err := pipeline.OnAudioFrame(raw)
			if errors.Is(err, forward.ErrClosed) || errors.Is(err, forward.ErrFailed) {
				return capture.ErrStop
			}
			return err
		})
	})

	snapshot := func() ui.StatusMsg {
		return ui.StatusMsg{
			Source:      src.Describe(),
			Destination: pipeline.Destination().String(),
			Format:      streamCfg.Format.String(),
			Output:      streamCfg.Output.String(),
			Monitor:     streamCfg.Monitor.String(),
			State:       pipeline.State().String(),
			Stats:       pipeline.Stats(),
		}
	}

	if cfg.TUI {
		tui := ui.New(snapshot())
		g.Go(func() error {
			defer cancel()
			return tui.Run()
		})
		g.Go(func() error {
			tui.Poll(gctx, 250*time.Millisecond, snapshot)
			return nil
		})
		g.Go(func() error {
			select {
			case <-tui.QuitChan():
				logger.Info("Received quit signal from TUI")
				cancel()
			case <-gctx.Done():
			}
			tui.Stop()
			return nil
		})
	} else {
		g.Go(func() error {
			logStats(gctx, logger, pipeline)
			return nil
		})
	}

	err = g.Wait()
	logStatsOnce(logger, pipeline)
	logger.Info("Sender stopped")
	return err
}

// setupLogging logs to the file, and to stdout as well unless the TUI owns the terminal
func setupLogging(path string, debug, tui bool) (*slog.Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening log file: %w", err)
	}

	var w io.Writer = f
	if !tui {
		w = io.MultiWriter(os.Stdout, f)
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }, nil
}

func logStats(ctx context.Context, logger *slog.Logger, p *streamer.Pipeline) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logStatsOnce(logger, p)
		}
	}
}

func logStatsOnce(logger *slog.Logger, p *streamer.Pipeline) {
	s := p.Stats()
	logger.Info("Stream stats",
		"buffers", s.Buffers,
		"datagrams", s.Datagrams,
		"bytes", s.Bytes,
		"malformed", s.Malformed,
		"repeats", s.Repeats,
		"send_errors", s.SendErrors)
}
