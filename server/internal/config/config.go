package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tonerelay/tonerelay/pkg/types"
)

// Default values for the relay configuration.
const (
	DefaultPort            = 8000
	DefaultSendBuffer      = 256
	DefaultMaxMessageBytes = 1 << 20
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultFallbackMessage = "Audio Server Logic Active. Connect via WebSocket."

	// LogLevelEnv overrides log.level when set.
	LogLevelEnv = "RELAY_LOG_LEVEL"
)

// DefaultSeed is the state a relay starts with when the config does not set
// relay.seed.
func DefaultSeed() []types.Oscillator {
	return []types.Oscillator{
		types.NewOscillator(types.Fields{ID: "osc-initial", Frequency: 440, IsPlaying: false}),
	}
}

// Config is the full relay configuration tree.
type Config struct {
	Relay RelayConfig `yaml:"relay"`
	Admin AdminConfig `yaml:"admin"`
	Log   LogConfig   `yaml:"log"`
}

// RelayConfig holds the settings of the relay listener itself.
type RelayConfig struct {
	// Port is the single listener for both upgrade and plain requests (default 8000).
	Port int `yaml:"port"`

	// FallbackMessage is the 200 text/plain body for non-upgrade requests.
	FallbackMessage string `yaml:"fallback_message"`

	// Seed is the initial oscillator list. Absent means DefaultSeed;
	// an explicit empty list (seed: []) starts empty. Entries are free-form
	// and are served to clients as their JSON encoding.
	Seed *[]interface{} `yaml:"seed"`

	// WS tunes the WebSocket transport.
	WS WSConfig `yaml:"ws"`

	seed []types.Oscillator
}

// SeedOscillators returns the configured seed, falling back to DefaultSeed.
func (r RelayConfig) SeedOscillators() []types.Oscillator {
	if r.Seed == nil {
		return DefaultSeed()
	}
	return types.Clone(r.seed)
}

// encodeSeed converts the YAML seed entries into records.
func (r *RelayConfig) encodeSeed() error {
	if r.Seed == nil {
		return nil
	}
	r.seed = make([]types.Oscillator, 0, len(*r.Seed))
	for i, v := range *r.Seed {
		o, err := types.FromValue(v)
		if err != nil {
			return fmt.Errorf("relay.seed[%d]: %w", i, err)
		}
		r.seed = append(r.seed, o)
	}
	return nil
}

// WSConfig tunes per-connection transport behaviour.
type WSConfig struct {
	// SendBuffer is the outbound queue depth per connection (default 256).
	// A peer whose queue overflows is disconnected.
	SendBuffer int `yaml:"send_buffer"`

	// MaxMessageBytes caps inbound frames (default 1 MiB).
	MaxMessageBytes int64 `yaml:"max_message_bytes"`

	// PingInterval enables keepalive pings; 0 (default) disables them.
	PingInterval time.Duration `yaml:"ping_interval"`

	// WriteTimeout bounds a single frame write; 0 (default) means none.
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// AdminConfig controls the optional metrics/health listener.
type AdminConfig struct {
	// Port enables the admin listener when non-zero. It must differ from relay.port.
	Port int `yaml:"port"`
}

// Enabled reports whether the admin listener should be started.
func (a AdminConfig) Enabled() bool { return a.Port != 0 }

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is one of: json | text.
	Format string `yaml:"format"`
}

// SlogLevel maps Level to a slog.Level. Unknown values map to info;
// validate rejects them before this is reached.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns a Config populated only with default values. It is what the
// relay runs with when no config file is given.
func Default() *Config {
	cfg := defaults()
	applyEnv(cfg)
	return cfg
}

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("relay config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data, applies defaults and environment overrides,
// and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("relay config: parse yaml: %w", err)
	}
	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("relay config: %w", err)
	}
	if err := cfg.Relay.encodeSeed(); err != nil {
		return nil, fmt.Errorf("relay config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Relay: RelayConfig{
			Port:            DefaultPort,
			FallbackMessage: DefaultFallbackMessage,
			WS: WSConfig{
				SendBuffer:      DefaultSendBuffer,
				MaxMessageBytes: DefaultMaxMessageBytes,
			},
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

func applyEnv(cfg *Config) {
	if lvl := os.Getenv(LogLevelEnv); lvl != "" {
		cfg.Log.Level = lvl
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Relay.Port <= 0 || cfg.Relay.Port > 65535 {
		return fmt.Errorf("relay.port %d is out of range [1, 65535]", cfg.Relay.Port)
	}
	if cfg.Admin.Port < 0 || cfg.Admin.Port > 65535 {
		return fmt.Errorf("admin.port %d is out of range [0, 65535]", cfg.Admin.Port)
	}
	if cfg.Admin.Port == cfg.Relay.Port {
		return fmt.Errorf("admin.port must differ from relay.port (%d)", cfg.Relay.Port)
	}
	if cfg.Relay.WS.SendBuffer <= 0 {
		return fmt.Errorf("relay.ws.send_buffer must be positive")
	}
	if cfg.Relay.WS.MaxMessageBytes < 0 {
		return fmt.Errorf("relay.ws.max_message_bytes must not be negative")
	}
	if cfg.Relay.WS.PingInterval < 0 {
		return fmt.Errorf("relay.ws.ping_interval must not be negative")
	}
	if cfg.Relay.WS.WriteTimeout < 0 {
		return fmt.Errorf("relay.ws.write_timeout must not be negative")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q unknown: want json|text", cfg.Log.Format)
	}
	return nil
}
