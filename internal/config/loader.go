// ABOUTME: Layered configuration loading
// ABOUTME: Applies a YAML file, a .env file and prefixed environment variables over defaults
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Sources names the optional layers applied over the defaults
type Sources struct {
	// File is a YAML file; an empty path skips the layer
	File string
	// EnvFile is a dotenv file; a missing file is skipped
	EnvFile string
	// Lookuper resolves environment variables; nil uses the process environment
	Lookuper envconfig.Lookuper
}

// Load builds a validated sender configuration. Overrides such as
// Flags.Apply run after the file and environment layers.
func Load(ctx context.Context, src Sources, overrides ...func(*Config)) (*Config, error) {
	cfg := Default()
	if err := apply(ctx, src, cfg); err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadReceiver builds a validated receiver configuration
func LoadReceiver(ctx context.Context, src Sources, overrides ...func(*Receiver)) (*Receiver, error) {
	cfg := DefaultReceiver()
	if err := apply(ctx, src, cfg); err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := ValidateReceiver(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode overlays YAML from r onto target. Unknown keys are rejected.
func Decode(r io.Reader, target any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

func apply(ctx context.Context, src Sources, target any) error {
	if src.File != "" {
		f, err := os.Open(src.File)
		if err != nil {
			return fmt.Errorf("config: open %q: %w", src.File, err)
		}
		defer f.Close()
		if err := Decode(f, target); err != nil {
			return fmt.Errorf("config: parse %q: %w", src.File, err)
		}
	}

	lookuper := src.Lookuper
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	if src.EnvFile != "" {
		vals, err := godotenv.Read(src.EnvFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return fmt.Errorf("config: read %q: %w", src.EnvFile, err)
		default:
			// Real environment wins over the file
			lookuper = envconfig.MultiLookuper(lookuper, envconfig.MapLookuper(vals))
		}
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           target,
		Lookuper:         envconfig.PrefixLookuper(EnvPrefix, lookuper),
		DefaultOverwrite: true,
	}); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}
