// ABOUTME: Entry point for the udp-audio receiver
// ABOUTME: Listens for mono PCM datagrams, plays them and advertises itself over mDNS
package main

import (
	"context"
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

	"github.com/Resonate-Protocol/udp-audio/internal/config"
	"github.com/Resonate-Protocol/udp-audio/internal/discovery"
	"github.com/Resonate-Protocol/udp-audio/internal/observe"
	"github.com/Resonate-Protocol/udp-audio/internal/receiver"
	"github.com/Resonate-Protocol/udp-audio/internal/version"
	"github.com/Resonate-Protocol/udp-audio/pkg/audio/output"
)

func main() {
	if err := run(); err != nil {
		slog.Error("udp-audio-listen failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("udp-audio-listen", flag.ExitOnError)
	configFile := fs.String("config", "", "YAML configuration file")
	envFile := fs.String("env-file", config.DefaultEnvFile, "dotenv file read when present")
	flags := config.ReceiverFlags(fs)
	fs.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadReceiver(ctx, config.Sources{File: *configFile, EnvFile: *envFile}, flags.Apply)
	if err != nil {
		return err
	}

	// Set up logging (both file and console)
	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	defer f.Close()

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	instanceID := uuid.NewString()
	logger := slog.New(slog.NewTextHandler(io.MultiWriter(os.Stdout, f), &slog.HandlerOptions{Level: level})).
		With("instance", instanceID)
	slog.SetDefault(logger)

	name := cfg.Name
	if name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		name = fmt.Sprintf("%s-udp-audio", hostname)
	}

	logger.Info("Starting "+version.String()+" receiver", "name", name, "port", cfg.Port, "log_file", cfg.LogFile)

	out := newOutput(cfg, logger)
	if err := out.Open(cfg.SampleRate, 1); err != nil {
		return fmt.Errorf("failed to open audio output: %w", err)
	}
	defer out.Close()

	g, gctx := errgroup.WithContext(ctx)

	metrics := observe.Discard()
	if cfg.MetricsAddr != "" {
		provider, err := observe.InitProvider(ctx, observe.ProviderConfig{
			ServiceName:    version.Product + "-listen",
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
		if metrics, err = observe.NewMetrics(provider.MeterProvider); err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
		g.Go(func() error { return provider.Serve(gctx, cfg.MetricsAddr, logger) })
	}

	rcv, err := receiver.Listen(receiver.Config{Bind: cfg.Bind, Port: cfg.Port}, out,
		receiver.WithLogger(logger), receiver.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer rcv.Close()

	if cfg.Advertise {
		mgr := discovery.NewManager(discovery.Config{
			ServiceName: name,
			ID:          instanceID,
			Port:        int(rcv.Addr().Port()),
			SampleRate:  cfg.SampleRate,
			Logger:      logger,
		})
		if err := mgr.Advertise(); err != nil {
			logger.Warn("mDNS advertisement failed", "err", err)
		}
		defer mgr.Stop()
	}

	g.Go(func() error { return rcv.Run(gctx) })

	err = g.Wait()
	s := rcv.Stats()
	logger.Info("Receiver stopped",
		"datagrams", s.Datagrams,
		"bytes", s.Bytes,
		"samples", s.Samples,
		"invalid", s.Invalid,
		"output_errors", s.OutputErrors)
	return err
}

func newOutput(cfg *config.Receiver, logger *slog.Logger) output.Output {
	if !cfg.Playback {
		logger.Info("Playback disabled, discarding audio")
		return output.NewDiscard()
	}
	var out output.Output
	switch cfg.Backend {
	case "portaudio":
		out = output.NewPortAudio()
	default:
		out = output.NewOto(logger)
	}
	if output.SetGain(out, cfg.Volume, cfg.Mute) {
		logger.Info("Playback gain", "backend", cfg.Backend, "volume", cfg.Volume, "muted", cfg.Mute)
	}
	return out
}
