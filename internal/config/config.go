package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"chaosdash/internal/api"
	"chaosdash/internal/chaos"
	"chaosdash/internal/series"
	"chaosdash/internal/session"
	"chaosdash/internal/telemetry"
)

// EnvPrefix namespaces environment overrides, e.g. CHAOSDASH_SERVER_BASE_URL.
const EnvPrefix = "CHAOSDASH"

// Config is the top-level client configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Chaos     ChaosConfig     `mapstructure:"chaos"`
	Session   SessionConfig   `mapstructure:"session"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	TelemetryPath  string        `mapstructure:"telemetry_path"`
	ChaosPath      string        `mapstructure:"chaos_path"`
	StartPath      string        `mapstructure:"start_path"`
	StopPath       string        `mapstructure:"stop_path"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type TelemetryConfig struct {
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	Window         int           `mapstructure:"window"`
}

type ChaosConfig struct {
	Initial         chaos.Config `mapstructure:"initial"`
	SerializePushes bool         `mapstructure:"serialize_pushes"`
	// MaxPushRate caps chaos pushes per second; 0 disables pacing. It
	// needs SerializePushes. Time spent waiting for the rate is not counted
	// against Server.RequestTimeout, so any positive rate is valid.
	MaxPushRate float64 `mapstructure:"max_push_rate"`
}

type SessionConfig struct {
	TargetURL string `mapstructure:"target_url"`
	Users     int    `mapstructure:"users"`
	SpawnRate int    `mapstructure:"spawn_rate"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// File receives logs; empty means the mode's default sink.
	File string `mapstructure:"file"`
}

type MetricsConfig struct {
	// Addr serves /metrics when set, e.g. ":9464".
	Addr string `mapstructure:"addr"`
}

// Default returns a Config pointing at a local chaos tester.
func Default() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:        "http://127.0.0.1:8080",
			TelemetryPath:  api.PathTelemetry,
			ChaosPath:      api.PathChaos,
			StartPath:      api.PathStart,
			StopPath:       api.PathStop,
			RequestTimeout: 10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ReconnectDelay: telemetry.DefaultReconnectDelay,
			Window:         series.DefaultCapacity,
		},
		Chaos: ChaosConfig{
			Initial:         chaos.DefaultConfig(),
			SerializePushes: true,
		},
		Session: SessionConfig{
			TargetURL: session.DefaultTargetURL,
			Users:     session.DefaultUsers,
			SpawnRate: session.DefaultSpawnRate,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.base_url %q: scheme must be http or https", c.Server.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("server.base_url %q: missing host", c.Server.BaseURL)
	}
	for name, p := range map[string]string{
		"telemetry_path": c.Server.TelemetryPath,
		"chaos_path":     c.Server.ChaosPath,
		"start_path":     c.Server.StartPath,
		"stop_path":      c.Server.StopPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("server.%s must start with /, got %q", name, p)
		}
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive, got %s", c.Server.RequestTimeout)
	}
	if c.Telemetry.ReconnectDelay <= 0 {
		return fmt.Errorf("telemetry.reconnect_delay must be positive, got %s", c.Telemetry.ReconnectDelay)
	}
	if c.Telemetry.Window < 1 {
		return fmt.Errorf("telemetry.window must be at least 1, got %d", c.Telemetry.Window)
	}
	if err := c.Chaos.Initial.Validate(); err != nil {
		return fmt.Errorf("chaos.initial: %w", err)
	}
	if c.Chaos.MaxPushRate < 0 {
		return fmt.Errorf("chaos.max_push_rate must be >= 0, got %v", c.Chaos.MaxPushRate)
	}
	if c.Chaos.MaxPushRate > 0 && !c.Chaos.SerializePushes {
		return errors.New("chaos.max_push_rate requires chaos.serialize_pushes")
	}
	if c.Session.Users < 1 || c.Session.SpawnRate < 1 {
		return errors.New("session.users and session.spawn_rate must be at least 1")
	}
	return nil
}

// TelemetryURL derives the websocket endpoint: ws for http, wss for https.
func (c Config) TelemetryURL() (string, error) {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.JoinPath(c.Server.TelemetryPath).String(), nil
}

// SessionDefaults returns the start-form fallbacks.
func (c Config) SessionDefaults() session.Defaults {
	return session.Defaults{
		TargetURL: c.Session.TargetURL,
		Users:     c.Session.Users,
		SpawnRate: c.Session.SpawnRate,
	}
}

// APIPaths returns the control endpoint paths.
func (c Config) APIPaths() api.Paths {
	return api.Paths{Chaos: c.Server.ChaosPath, Start: c.Server.StartPath, Stop: c.Server.StopPath}
}

// SetDefaults registers every default on v so file, env and flag layers
// only need to name what they change.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.telemetry_path", d.Server.TelemetryPath)
	v.SetDefault("server.chaos_path", d.Server.ChaosPath)
	v.SetDefault("server.start_path", d.Server.StartPath)
	v.SetDefault("server.stop_path", d.Server.StopPath)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("telemetry.reconnect_delay", d.Telemetry.ReconnectDelay)
	v.SetDefault("telemetry.window", d.Telemetry.Window)
	v.SetDefault("chaos.initial.latency_ms", d.Chaos.Initial.LatencyMs)
	v.SetDefault("chaos.initial.latency_jitter_ms", d.Chaos.Initial.LatencyJitterMs)
	v.SetDefault("chaos.initial.packet_loss_percent", d.Chaos.Initial.PacketLossPercent)
	v.SetDefault("chaos.initial.rate_limit_percent", d.Chaos.Initial.RateLimitPercent)
	v.SetDefault("chaos.initial.slowdown_multiplier", d.Chaos.Initial.SlowdownMultiplier)
	v.SetDefault("chaos.serialize_pushes", d.Chaos.SerializePushes)
	v.SetDefault("chaos.max_push_rate", d.Chaos.MaxPushRate)
	v.SetDefault("session.target_url", d.Session.TargetURL)
	v.SetDefault("session.users", d.Session.Users)
	v.SetDefault("session.spawn_rate", d.Session.SpawnRate)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// NewViper returns a viper instance with defaults and environment
// overrides wired.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile loads path into v, or the first .chaosdash.yaml found in the
// home directory when path is empty. A missing default file is not an error.
func ReadFile(v *viper.Viper, path, home string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}
	if home == "" {
		return nil
	}
	v.AddConfigPath(home)
	v.SetConfigType("yaml")
	v.SetConfigName(".chaosdash")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes and validates v.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
