package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func useTempConfigDir(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	return tmpDir
}

func TestConfigLoadSave(t *testing.T) {
	tmpDir := useTempConfigDir(t)

	cfg := Default()
	cfg.Backend = BackendAgent
	cfg.Agents = []AgentConfig{
		{
			Host:    "192.168.1.40:8420",
			Key:     "test-agent-key",
			AgentID: "agent-001",
		},
	}
	cfg.LastAgentID = "agent-001"
	cfg.Backlight.MaxNits = 400
	cfg.SliderStep = 10

	if err := cfg.Save(); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	// Verify file exists with private permissions
	configPath := filepath.Join(tmpDir, "deo-tui", "config.json")
	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Backend != BackendAgent {
		t.Errorf("Expected backend agent, got %s", loaded.Backend)
	}
	if len(loaded.Agents) != 1 {
		t.Fatalf("Expected 1 agent, got %d", len(loaded.Agents))
	}
	if loaded.Agents[0].Host != "192.168.1.40:8420" {
		t.Errorf("Expected host 192.168.1.40:8420, got %s", loaded.Agents[0].Host)
	}
	if loaded.Agents[0].Key != "test-agent-key" {
		t.Errorf("Expected key test-agent-key, got %s", loaded.Agents[0].Key)
	}
	if loaded.LastAgentID != "agent-001" {
		t.Errorf("Expected LastAgentID agent-001, got %s", loaded.LastAgentID)
	}
	if loaded.Backlight.MaxNits != 400 {
		t.Errorf("Expected max_nits 400, got %v", loaded.Backlight.MaxNits)
	}
	if loaded.SliderStep != 10 {
		t.Errorf("Expected slider_step 10, got %d", loaded.SliderStep)
	}
}

func TestLoadNonExistent(t *testing.T) {
	useTempConfigDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error for non-existent config, got %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config")
	}
	if len(cfg.Agents) != 0 {
		t.Errorf("Expected empty agents, got %d", len(cfg.Agents))
	}
	if cfg.Backend != BackendAuto {
		t.Errorf("Expected backend auto, got %s", cfg.Backend)
	}
	if cfg.SliderStep != DefaultSliderStep {
		t.Errorf("Expected default slider step, got %d", cfg.SliderStep)
	}
	if !cfg.RestoreOnExit {
		t.Error("Expected restore_on_exit to default to true")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	useTempConfigDir(t)
	t.Setenv("DEO_BACKEND", "backlight")
	t.Setenv("DEO_SLIDER_STEP", "20")
	t.Setenv("DEO_BACKLIGHT_MAX_NITS", "350")
	t.Setenv("DEO_DEMO", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Backend != BackendBacklight {
		t.Errorf("Expected backend backlight, got %s", cfg.Backend)
	}
	if cfg.SliderStep != 20 {
		t.Errorf("Expected slider_step 20, got %d", cfg.SliderStep)
	}
	if cfg.Backlight.MaxNits != 350 {
		t.Errorf("Expected max_nits 350, got %v", cfg.Backlight.MaxNits)
	}
	if cfg.EffectiveBackend() != BackendDemo {
		t.Errorf("Expected DEO_DEMO to force the demo backend, got %s", cfg.EffectiveBackend())
	}
}

func TestLoadInvalid(t *testing.T) {
	tmpDir := useTempConfigDir(t)

	dir := filepath.Join(tmpDir, "deo-tui")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data := []byte(`{"backend": "hologram", "slider_step": 0}`)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Expected validation error")
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want Backend
		err  bool
	}{
		{"", BackendAuto, false},
		{"auto", BackendAuto, false},
		{"Demo", BackendDemo, false},
		{" backlight ", BackendBacklight, false},
		{"agent", BackendAgent, false},
		{"hologram", "", true},
	}

	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if tt.err {
			if !errors.Is(err, ErrUnknownBackend) {
				t.Errorf("ParseBackend(%q): expected ErrUnknownBackend, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseBackend(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestConfigAddAgent(t *testing.T) {
	cfg := &Config{}

	cfg.AddAgent(AgentConfig{Host: "192.168.1.40:8420", Key: "key1", AgentID: "agent1"})
	if len(cfg.Agents) != 1 {
		t.Errorf("Expected 1 agent, got %d", len(cfg.Agents))
	}

	cfg.AddAgent(AgentConfig{Host: "192.168.1.41:8420", Key: "key2", AgentID: "agent2"})
	if len(cfg.Agents) != 2 {
		t.Errorf("Expected 2 agents, got %d", len(cfg.Agents))
	}

	// Update existing agent
	cfg.AddAgent(AgentConfig{Host: "192.168.1.99:8420", Key: "key1-updated", AgentID: "agent1"})
	if len(cfg.Agents) != 2 {
		t.Errorf("Expected 2 agents after update, got %d", len(cfg.Agents))
	}

	agent, err := cfg.GetAgent("agent1")
	if err != nil {
		t.Fatalf("Failed to get agent: %v", err)
	}
	if agent.Host != "192.168.1.99:8420" {
		t.Errorf("Expected updated host 192.168.1.99:8420, got %s", agent.Host)
	}
}

func TestConfigGetAgent(t *testing.T) {
	cfg := &Config{
		Agents: []AgentConfig{
			{Host: "192.168.1.40:8420", Key: "key1", AgentID: "agent1"},
			{Host: "192.168.1.41:8420", Key: "key2", AgentID: "agent2"},
		},
	}

	agent, err := cfg.GetAgent("agent2")
	if err != nil {
		t.Fatalf("Failed to get existing agent: %v", err)
	}
	if agent.Host != "192.168.1.41:8420" {
		t.Errorf("Expected host 192.168.1.41:8420, got %s", agent.Host)
	}

	_, err = cfg.GetAgent("nonexistent")
	if err != ErrAgentNotFound {
		t.Errorf("Expected ErrAgentNotFound, got %v", err)
	}
}

func TestConfigGetLastAgent(t *testing.T) {
	cfg := &Config{}
	_, err := cfg.GetLastAgent()
	if err != ErrNoAgents {
		t.Errorf("Expected ErrNoAgents for empty config, got %v", err)
	}

	cfg = &Config{
		Agents: []AgentConfig{
			{Host: "192.168.1.40:8420", Key: "key1", AgentID: "agent1"},
			{Host: "192.168.1.41:8420", Key: "key2", AgentID: "agent2"},
		},
	}
	agent, err := cfg.GetLastAgent()
	if err != nil {
		t.Fatalf("Failed to get last agent: %v", err)
	}
	if agent.AgentID != "agent1" {
		t.Errorf("Expected agent1, got %s", agent.AgentID)
	}

	cfg.LastAgentID = "agent2"
	agent, err = cfg.GetLastAgent()
	if err != nil {
		t.Fatalf("Failed to get last agent: %v", err)
	}
	if agent.AgentID != "agent2" {
		t.Errorf("Expected last agent agent2, got %s", agent.AgentID)
	}
}

func TestConfigRemoveAgent(t *testing.T) {
	cfg := &Config{
		Agents: []AgentConfig{
			{Host: "192.168.1.40:8420", Key: "key1", AgentID: "agent1"},
			{Host: "192.168.1.41:8420", Key: "key2", AgentID: "agent2"},
		},
		LastAgentID: "agent1",
	}

	cfg.RemoveAgent("agent1")

	if len(cfg.Agents) != 1 {
		t.Errorf("Expected 1 agent after removal, got %d", len(cfg.Agents))
	}
	if cfg.Agents[0].AgentID != "agent2" {
		t.Errorf("Expected remaining agent to be agent2")
	}
	if cfg.LastAgentID != "" {
		t.Errorf("Expected LastAgentID to be cleared, got %s", cfg.LastAgentID)
	}

	// Remove non-existent (should not panic)
	cfg.RemoveAgent("nonexistent")
	if len(cfg.Agents) != 1 {
		t.Errorf("Expected 1 agent, got %d", len(cfg.Agents))
	}
}

func TestConfigHasAgents(t *testing.T) {
	cfg := &Config{}
	if cfg.HasAgents() {
		t.Error("Expected HasAgents() to be false for empty config")
	}

	cfg.Agents = []AgentConfig{{Host: "test", Key: "test", AgentID: "test"}}
	if !cfg.HasAgents() {
		t.Error("Expected HasAgents() to be true")
	}
}
