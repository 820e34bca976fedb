package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Backend selects the display override implementation
type Backend string

const (
	BackendAuto      Backend = "auto"
	BackendDemo      Backend = "demo"
	BackendBacklight Backend = "backlight"
	BackendAgent     Backend = "agent"
)

// ParseBackend validates a backend name
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(name))); b {
	case BackendAuto, BackendDemo, BackendBacklight, BackendAgent:
		return b, nil
	case "":
		return BackendAuto, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

// AgentConfig stores connection details for a display agent
type AgentConfig struct {
	// host:port of the agent
	Host string `json:"host" mapstructure:"host"`
	// Key issued by the agent during pairing
	Key string `json:"key" mapstructure:"key"`
	// Unique agent identifier
	AgentID string `json:"agent_id" mapstructure:"agent_id"`
}

// BacklightConfig configures the sysfs backlight backend
type BacklightConfig struct {
	// Device name under /sys/class/backlight; empty picks the first one
	Device string `json:"device,omitempty" mapstructure:"device"`
	// Luminance at full brightness, enables nits settings when set
	MaxNits float64 `json:"max_nits,omitempty" mapstructure:"max_nits"`
}

// Config stores all application configuration
type Config struct {
	Backend Backend `json:"backend" mapstructure:"backend"`
	// List of paired agents
	Agents []AgentConfig `json:"agents" mapstructure:"agents"`
	// ID of the last used agent
	LastAgentID string          `json:"last_agent_id,omitempty" mapstructure:"last_agent_id"`
	Backlight   BacklightConfig `json:"backlight" mapstructure:"backlight"`
	// Percentage step for the slider arrow keys
	SliderStep int `json:"slider_step" mapstructure:"slider_step"`
	// Stop an active override when quitting
	RestoreOnExit bool `json:"restore_on_exit" mapstructure:"restore_on_exit"`

	// Demo forces the demo backend; set from DEO_DEMO, never saved
	Demo bool `json:"-" mapstructure:"demo"`
}

var (
	ErrAgentNotFound  = errors.New("agent not found")
	ErrNoAgents       = errors.New("no agents configured")
	ErrUnknownBackend = errors.New("unknown backend")
)

const (
	DefaultSliderStep = 5
	envPrefix         = "DEO"
)

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Backend:       BackendAuto,
		SliderStep:    DefaultSliderStep,
		RestoreOnExit: true,
	}
}

// configDir returns the configuration directory path
func configDir() (string, error) {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "deo-tui"), nil
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "deo-tui"), nil
}

// Path returns the full path to the config file
func Path() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("backend", string(d.Backend))
	v.SetDefault("last_agent_id", "")
	v.SetDefault("backlight.device", "")
	v.SetDefault("backlight.max_nits", 0.0)
	v.SetDefault("slider_step", d.SliderStep)
	v.SetDefault("restore_on_exit", d.RestoreOnExit)
	v.SetDefault("demo", false)
}

// Load reads the configuration from disk with DEO_* environment overrides
// (DEO_BACKEND, DEO_SLIDER_STEP, DEO_BACKLIGHT_MAX_NITS, ...)
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file at %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file at %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks and normalizes loaded values
func (c *Config) validate() error {
	var problems []string

	backend, err := ParseBackend(string(c.Backend))
	if err != nil {
		problems = append(problems, err.Error())
	}
	c.Backend = backend

	if c.SliderStep < 1 || c.SliderStep > 100 {
		problems = append(problems, "slider_step must be between 1 and 100")
	}
	if c.Backlight.MaxNits < 0 {
		problems = append(problems, "backlight.max_nits must be non-negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// EffectiveBackend returns the backend to use, honoring the demo switch
func (c *Config) EffectiveBackend() Backend {
	if c.Demo {
		return BackendDemo
	}
	if c.Backend == "" {
		return BackendAuto
	}
	return c.Backend
}

// Save writes the configuration to disk
func (c *Config) Save() error {
	dir, err := configDir()
	if err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := Path()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// AddAgent adds or updates an agent configuration
func (c *Config) AddAgent(agent AgentConfig) {
	// Check if agent already exists and update it
	for i, a := range c.Agents {
		if a.AgentID == agent.AgentID {
			c.Agents[i] = agent
			return
		}
	}

	c.Agents = append(c.Agents, agent)
}

// GetAgent returns the agent configuration by ID
func (c *Config) GetAgent(agentID string) (*AgentConfig, error) {
	for i := range c.Agents {
		if c.Agents[i].AgentID == agentID {
			return &c.Agents[i], nil
		}
	}
	return nil, ErrAgentNotFound
}

// GetLastAgent returns the last used agent or the first available
func (c *Config) GetLastAgent() (*AgentConfig, error) {
	if len(c.Agents) == 0 {
		return nil, ErrNoAgents
	}

	if c.LastAgentID != "" {
		agent, err := c.GetAgent(c.LastAgentID)
		if err == nil {
			return agent, nil
		}
	}

	// Fall back to first agent
	return &c.Agents[0], nil
}

// RemoveAgent removes an agent by ID
func (c *Config) RemoveAgent(agentID string) {
	for i, a := range c.Agents {
		if a.AgentID == agentID {
			c.Agents = append(c.Agents[:i], c.Agents[i+1:]...)
			if c.LastAgentID == agentID {
				c.LastAgentID = ""
			}
			return
		}
	}
}

// HasAgents returns true if at least one agent is configured
func (c *Config) HasAgents() bool {
	return len(c.Agents) > 0
}
