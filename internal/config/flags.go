// ABOUTME: Command-line flag layer for sender and receiver configuration
// ABOUTME: Only flags set explicitly on the command line override loaded values
package config

import (
	"flag"
	"strconv"
	"time"
)

// Flags binds command-line flags for a configuration of type T. Parsed
// values are held aside and copied onto a loaded configuration by Apply.
type Flags[T any] struct {
	fs     *flag.FlagSet
	values *T
	copies map[string]func(dst *T)
}

// NewFlags prepares a flag layer whose defaults come from defaults
func NewFlags[T any](fs *flag.FlagSet, defaults *T) *Flags[T] {
	values := *defaults
	return &Flags[T]{fs: fs, values: &values, copies: make(map[string]func(*T))}
}

// Apply copies explicitly set flags onto cfg. Call after fs.Parse.
func (f *Flags[T]) Apply(cfg *T) {
	f.fs.Visit(func(fl *flag.Flag) {
		if c, ok := f.copies[fl.Name]; ok {
			c(cfg)
		}
	})
}

func bind[T, V any](f *Flags[T], name string, field func(*T) *V, define func(p *V)) {
	define(field(f.values))
	f.copies[name] = func(dst *T) { *field(dst) = *field(f.values) }
}

func stringFlag[T any](f *Flags[T], name, usage string, field func(*T) *string) {
	bind(f, name, field, func(p *string) { f.fs.StringVar(p, name, *p, usage) })
}

func boolFlag[T any](f *Flags[T], name, usage string, field func(*T) *bool) {
	bind(f, name, field, func(p *bool) { f.fs.BoolVar(p, name, *p, usage) })
}

func intFlag[T any](f *Flags[T], name, usage string, field func(*T) *int) {
	bind(f, name, field, func(p *int) { f.fs.IntVar(p, name, *p, usage) })
}

func floatFlag[T any](f *Flags[T], name, usage string, field func(*T) *float64) {
	bind(f, name, field, func(p *float64) { f.fs.Float64Var(p, name, *p, usage) })
}

func durationFlag[T any](f *Flags[T], name, usage string, field func(*T) *time.Duration) {
	bind(f, name, field, func(p *time.Duration) { f.fs.DurationVar(p, name, *p, usage) })
}

func portFlag[T any](f *Flags[T], name, usage string, field func(*T) *uint16) {
	bind(f, name, field, func(p *uint16) { f.fs.Var((*portValue)(p), name, usage) })
}

// negatedFlag sets field to false when the flag is given as true
func negatedFlag[T any](f *Flags[T], name, usage string, field func(*T) *bool) {
	v := new(bool)
	f.fs.BoolVar(v, name, false, usage)
	f.copies[name] = func(dst *T) { *field(dst) = !*v }
}

// portValue parses a 16-bit port number
type portValue uint16

func (p *portValue) String() string { return strconv.Itoa(int(*p)) }

func (p *portValue) Set(s string) error {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return err
	}
	*p = portValue(v)
	return nil
}

// SenderFlags registers the sender's flags on fs
func SenderFlags(fs *flag.FlagSet) *Flags[Config] {
	f := NewFlags(fs, Default())
	stringFlag(f, "source", "Capture source: tone, mic, ws, or an .mp3/.flac file", func(c *Config) *string { return &c.Source })
	stringFlag(f, "format", "Input sample format: s16 or s32", func(c *Config) *string { return &c.Format })
	stringFlag(f, "output", "Channel forwarded as mono: left or right", func(c *Config) *string { return &c.OutputChannel })
	stringFlag(f, "monitor", "Channel scanned for repeated samples: left or right", func(c *Config) *string { return &c.MonitorChannel })
	stringFlag(f, "addr", "Destination IP address", func(c *Config) *string { return &c.Address })
	portFlag(f, "port", "Destination UDP port", func(c *Config) *uint16 { return &c.Port })
	intFlag(f, "threshold", "Repeated sample run length that triggers a warning", func(c *Config) *int { return &c.RepeatThreshold })
	intFlag(f, "rate", "Capture sample rate in Hz", func(c *Config) *int { return &c.SampleRate })
	durationFlag(f, "chunk", "Capture buffer duration", func(c *Config) *time.Duration { return &c.Chunk })
	floatFlag(f, "freq", "Test tone frequency in Hz", func(c *Config) *float64 { return &c.Frequency })
	stringFlag(f, "listen", "WebSocket ingest address for the ws source", func(c *Config) *string { return &c.Listen })
	stringFlag(f, "metrics", "Prometheus metrics address (empty disables)", func(c *Config) *string { return &c.MetricsAddr })
	boolFlag(f, "discover", "Find the destination via mDNS when no address is set", func(c *Config) *bool { return &c.Discover })
	durationFlag(f, "discover-timeout", "mDNS browse timeout", func(c *Config) *time.Duration { return &c.DiscoverTimeout })
	stringFlag(f, "log-file", "Log file path", func(c *Config) *string { return &c.LogFile })
	boolFlag(f, "debug", "Enable debug logging", func(c *Config) *bool { return &c.Debug })
	negatedFlag(f, "no-tui", "Disable the status TUI", func(c *Config) *bool { return &c.TUI })
	return f
}

// ReceiverFlags registers the receiver's flags on fs
func ReceiverFlags(fs *flag.FlagSet) *Flags[Receiver] {
	f := NewFlags(fs, DefaultReceiver())
	stringFlag(f, "bind", "Local address to listen on", func(c *Receiver) *string { return &c.Bind })
	portFlag(f, "port", "UDP port to listen on", func(c *Receiver) *uint16 { return &c.Port })
	intFlag(f, "rate", "Playback sample rate in Hz", func(c *Receiver) *int { return &c.SampleRate })
	negatedFlag(f, "no-playback", "Discard received audio instead of playing it", func(c *Receiver) *bool { return &c.Playback })
	stringFlag(f, "backend", "Playback backend: oto or portaudio", func(c *Receiver) *string { return &c.Backend })
	intFlag(f, "volume", "Playback volume 0-100", func(c *Receiver) *int { return &c.Volume })
	boolFlag(f, "mute", "Start with playback muted", func(c *Receiver) *bool { return &c.Mute })
	boolFlag(f, "advertise", "Advertise via mDNS", func(c *Receiver) *bool { return &c.Advertise })
	stringFlag(f, "name", "Receiver name (defaults to hostname)", func(c *Receiver) *string { return &c.Name })
	stringFlag(f, "metrics", "Prometheus metrics address (empty disables)", func(c *Receiver) *string { return &c.MetricsAddr })
	stringFlag(f, "log-file", "Log file path", func(c *Receiver) *string { return &c.LogFile })
	boolFlag(f, "debug", "Enable debug logging", func(c *Receiver) *bool { return &c.Debug })
	return f
}
