package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "VANGUARD_CONFIG"

type Config struct {
	Agent     AgentConfig     `toml:"agent"`
	Network   NetworkConfig   `toml:"network"`
	Plan      PlanConfig      `toml:"plan"`
	Logging   LoggingConfig   `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

type AgentConfig struct {
	Name         string `toml:"name"`
	Planner      string `toml:"planner"`       // builtin, YAML or Lua plan name
	UpdatePolicy string `toml:"update_policy"` // "create" or "drop"
}

type NetworkConfig struct {
	Transport    string        `toml:"transport"` // "tcp", "unix" or "websocket"
	BindAddress  string        `toml:"bind_address"`
	WSPath       string        `toml:"ws_path"`
	InQueueSize  int           `toml:"in_queue_size"`
	OutQueueSize int           `toml:"out_queue_size"`
	MaxFrameSize int           `toml:"max_frame_size"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
}

type PlanConfig struct {
	YAMLDir   string `toml:"yaml_dir"`
	ScriptDir string `toml:"script_dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type RateLimitConfig struct {
	Enabled          bool `toml:"enabled"`
	PacketsPerSecond int  `toml:"packets_per_second"`
}

// Path returns the config path: VANGUARD_CONFIG when set, else def.
func Path(def string) string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return def
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Agent.Planner == "" {
		errs = append(errs, errors.New("agent.planner is required"))
	}
	switch c.Agent.UpdatePolicy {
	case "create", "drop":
	default:
		errs = append(errs, fmt.Errorf("agent.update_policy %q: want create or drop", c.Agent.UpdatePolicy))
	}
	switch c.Network.Transport {
	case "tcp", "unix", "websocket":
	default:
		errs = append(errs, fmt.Errorf("network.transport %q: want tcp, unix or websocket", c.Network.Transport))
	}
	if c.Network.BindAddress == "" {
		errs = append(errs, errors.New("network.bind_address is required"))
	}
	if c.Network.MaxFrameSize <= 0 {
		errs = append(errs, fmt.Errorf("network.max_frame_size %d must be positive", c.Network.MaxFrameSize))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q: want json or console", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			Name:         "vanguard",
			Planner:      "first",
			UpdatePolicy: "create",
		},
		Network: NetworkConfig{
			Transport:    "tcp",
			BindAddress:  "127.0.0.1:31001",
			WSPath:       "/agent",
			InQueueSize:  16,
			OutQueueSize: 16,
			MaxFrameSize: 1 << 20,
			WriteTimeout: 10 * time.Second,
			ReadTimeout:  60 * time.Second,
		},
		Plan: PlanConfig{
			YAMLDir:   "data/plans",
			ScriptDir: "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		RateLimit: RateLimitConfig{
			Enabled:          false,
			PacketsPerSecond: 600,
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config { return defaults() }
