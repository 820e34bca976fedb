package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angristan/deo-tui/internal/api"
	"github.com/angristan/deo-tui/internal/config"
	"github.com/angristan/deo-tui/internal/models"
)

func TestSelectBackendDemo(t *testing.T) {
	cfg := config.Default()
	cfg.Demo = true

	client, err := selectBackend(cfg, "", zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &api.DemoOverride{}, client)
}

func TestSelectBackendAgent(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendAgent

	client, err := selectBackend(cfg, "", zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, client, "no configured agent leaves pairing to the setup screen")

	cfg.AddAgent(config.AgentConfig{Host: "10.0.0.2:8080", Key: "k1", AgentID: "a1"})
	cfg.AddAgent(config.AgentConfig{Host: "10.0.0.3:8080", Key: "k2", AgentID: "a2"})

	client, err = selectBackend(cfg, "a2", zerolog.Nop())
	require.NoError(t, err)
	agent, ok := client.(*api.AgentOverride)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.3:8080", agent.Host())

	_, err = selectBackend(cfg, "missing", zerolog.Nop())
	assert.ErrorIs(t, err, config.ErrAgentNotFound)
}

func TestLoadConfigFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := loadConfig(&options{backend: "agent"})
	require.NoError(t, err)
	assert.Equal(t, config.BackendAgent, cfg.EffectiveBackend())

	cfg, err = loadConfig(&options{backend: "agent", demo: true})
	require.NoError(t, err)
	assert.Equal(t, config.BackendDemo, cfg.EffectiveBackend())

	_, err = loadConfig(&options{backend: "hdmi"})
	assert.ErrorIs(t, err, config.ErrUnknownBackend)
}

func TestPrintState(t *testing.T) {
	var buf bytes.Buffer
	printState(&buf, "demo", models.OverrideState{
		Capabilities: models.Capabilities{
			BrightnessSupported: true,
			NitsSupported:       true,
			NitsRanges:          []models.NitsRange{{Min: 5, Max: 500, Step: 1}},
		},
		CanOverride: true,
	})

	out := buf.String()
	assert.Contains(t, out, "Display:              demo")
	assert.Contains(t, out, "nits range:         5-500")
	assert.Contains(t, out, "Can override:         Yes")
	assert.Contains(t, out, "Override active:      No")
}

func TestLogClosedWhenCommandFails(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root, sink := newRootCmd()
	root.SetArgs([]string{"status", "--backend", "hdmi"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	require.Error(t, root.Execute())
	require.NotNil(t, sink.closer, "log opened before the command ran")
	assert.FileExists(t, filepath.Join(state, "deo-tui", "deo.log"))

	sink.Close()
	assert.ErrorIs(t, sink.closer.Close(), os.ErrClosed)
}

func TestRunReportsFailure(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	assert.Equal(t, 1, run([]string{"status", "--backend", "hdmi"}))
}
