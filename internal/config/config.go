// ABOUTME: Sender and receiver configuration with defaults and validation
// ABOUTME: Converts validated settings into pipeline and capture options
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Resonate-Protocol/udp-audio/internal/capture"
	"github.com/Resonate-Protocol/udp-audio/pkg/audio"
	"github.com/Resonate-Protocol/udp-audio/pkg/audio/downmix"
	"github.com/Resonate-Protocol/udp-audio/pkg/streamer"
)

const (
	// EnvPrefix is prepended to every environment variable name
	EnvPrefix = "UDP_AUDIO_"

	// DefaultPort is the datagram port shared by sender and receiver
	DefaultPort = 5004

	// DefaultEnvFile is read when present
	DefaultEnvFile = ".env"

	// maxChunk bounds one capture buffer
	maxChunk = time.Second
)

// Config holds sender settings. Zero-valued fields in YAML or the environment
// leave the defaults in place.
type Config struct {
	Source          string        `yaml:"source" env:"SOURCE"`
	Format          string        `yaml:"format" env:"FORMAT"`
	OutputChannel   string        `yaml:"output_channel" env:"OUTPUT_CHANNEL"`
	MonitorChannel  string        `yaml:"monitor_channel" env:"MONITOR_CHANNEL"`
	Address         string        `yaml:"address" env:"ADDRESS"`
	Port            uint16        `yaml:"port" env:"PORT"`
	RepeatThreshold int           `yaml:"repeat_threshold" env:"REPEAT_THRESHOLD"`
	SampleRate      int           `yaml:"sample_rate" env:"SAMPLE_RATE"`
	Chunk           time.Duration `yaml:"chunk" env:"CHUNK"`
	Frequency       float64       `yaml:"frequency" env:"FREQUENCY"`
	Listen          string        `yaml:"listen" env:"LISTEN"`
	MetricsAddr     string        `yaml:"metrics_addr" env:"METRICS_ADDR"`
	Discover        bool          `yaml:"discover" env:"DISCOVER"`
	DiscoverTimeout time.Duration `yaml:"discover_timeout" env:"DISCOVER_TIMEOUT"`
	LogFile         string        `yaml:"log_file" env:"LOG_FILE"`
	Debug           bool          `yaml:"debug" env:"DEBUG"`
	TUI             bool          `yaml:"tui" env:"TUI"`
}

// Default returns the built-in sender settings
func Default() *Config {
	return &Config{
		Source:          "tone",
		Format:          audio.Int16Stereo.String(),
		OutputChannel:   audio.Left.String(),
		MonitorChannel:  audio.Left.String(),
		Port:            DefaultPort,
		RepeatThreshold: downmix.DefaultRepeatThreshold,
		SampleRate:      capture.DefaultSampleRate,
		Chunk:           capture.DefaultChunk,
		Frequency:       capture.DefaultFrequency,
		Listen:          capture.DefaultListen,
		DiscoverTimeout: 3 * time.Second,
		LogFile:         "udp-audio.log",
		TUI:             true,
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := audio.ParseSampleFormat(cfg.Format); err != nil {
		errs = append(errs, fmt.Errorf("format: %w", err))
	}
	if _, err := audio.ParseChannel(cfg.OutputChannel); err != nil {
		errs = append(errs, fmt.Errorf("output_channel: %w", err))
	}
	if _, err := audio.ParseChannel(cfg.MonitorChannel); err != nil {
		errs = append(errs, fmt.Errorf("monitor_channel: %w", err))
	}
	if cfg.RepeatThreshold < 2 {
		errs = append(errs, fmt.Errorf("repeat_threshold %d must be at least 2", cfg.RepeatThreshold))
	}
	if cfg.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate %d must be positive", cfg.SampleRate))
	}
	if cfg.Chunk <= 0 || cfg.Chunk > maxChunk {
		errs = append(errs, fmt.Errorf("chunk %s is out of range (0, %s]", cfg.Chunk, maxChunk))
	} else if cfg.SampleRate > 0 {
		frames := (capture.Options{SampleRate: cfg.SampleRate, Chunk: cfg.Chunk}).FramesPerChunk()
		if frames > capture.MaxFramesPerBuffer {
			errs = append(errs, fmt.Errorf("chunk %s at %d Hz is %d frames; one datagram holds at most %d",
				cfg.Chunk, cfg.SampleRate, frames, capture.MaxFramesPerBuffer))
		}
	}
	if cfg.Frequency <= 0 || cfg.Frequency*2 > float64(cfg.SampleRate) {
		errs = append(errs, fmt.Errorf("frequency %.1f must be positive and below half the sample rate", cfg.Frequency))
	}
	if !cfg.Discover {
		if cfg.Address == "" {
			errs = append(errs, errors.New("address is required unless discover is enabled"))
		}
		if cfg.Port == 0 {
			errs = append(errs, errors.New("port is required unless discover is enabled"))
		}
	}
	if cfg.Discover && cfg.DiscoverTimeout <= 0 {
		errs = append(errs, fmt.Errorf("discover_timeout %s must be positive", cfg.DiscoverTimeout))
	}

	return errors.Join(errs...)
}

// Streamer returns the pipeline configuration. Call Validate first.
func (c *Config) Streamer() (streamer.Config, error) {
	format, err := audio.ParseSampleFormat(c.Format)
	if err != nil {
		return streamer.Config{}, err
	}
	output, err := audio.ParseChannel(c.OutputChannel)
	if err != nil {
		return streamer.Config{}, err
	}
	monitor, err := audio.ParseChannel(c.MonitorChannel)
	if err != nil {
		return streamer.Config{}, err
	}
	return streamer.Config{
		Format:          format,
		Output:          output,
		Monitor:         monitor,
		RepeatThreshold: c.RepeatThreshold,
		Address:         c.Address,
		Port:            c.Port,
	}, nil
}

// Capture returns the capture source options
func (c *Config) Capture(logger *slog.Logger) capture.Options {
	format, _ := audio.ParseSampleFormat(c.Format)
	return capture.Options{
		Format:     format,
		SampleRate: c.SampleRate,
		Chunk:      c.Chunk,
		Frequency:  c.Frequency,
		Listen:     c.Listen,
		Logger:     logger,
	}
}

// Receiver holds listener settings
type Receiver struct {
	Bind        string `yaml:"bind" env:"BIND"`
	Port        uint16 `yaml:"port" env:"PORT"`
	SampleRate  int    `yaml:"sample_rate" env:"SAMPLE_RATE"`
	Playback    bool   `yaml:"playback" env:"PLAYBACK"`
	Backend     string `yaml:"backend" env:"BACKEND"`
	Volume      int    `yaml:"volume" env:"VOLUME"`
	Mute        bool   `yaml:"mute" env:"MUTE"`
	Advertise   bool   `yaml:"advertise" env:"ADVERTISE"`
	Name        string `yaml:"name" env:"NAME"`
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR"`
	LogFile     string `yaml:"log_file" env:"LOG_FILE"`
	Debug       bool   `yaml:"debug" env:"DEBUG"`
}

// DefaultReceiver returns the built-in receiver settings
func DefaultReceiver() *Receiver {
	return &Receiver{
		Bind:       "0.0.0.0",
		Port:       DefaultPort,
		SampleRate: capture.DefaultSampleRate,
		Playback:   true,
		Backend:    "oto",
		Volume:     100,
		Advertise:  true,
		LogFile:    "udp-audio-listen.log",
	}
}

// ValidateReceiver checks receiver settings
func ValidateReceiver(cfg *Receiver) error {
	var errs []error

	if cfg.Port == 0 {
		errs = append(errs, errors.New("port is required"))
	}
	if cfg.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate %d must be positive", cfg.SampleRate))
	}
	switch cfg.Backend {
	case "oto", "portaudio":
	default:
		errs = append(errs, fmt.Errorf("backend %q unsupported (supported: oto, portaudio)", cfg.Backend))
	}
	if cfg.Volume < 0 || cfg.Volume > 100 {
		errs = append(errs, fmt.Errorf("volume %d is out of range [0, 100]", cfg.Volume))
	}

	return errors.Join(errs...)
}
