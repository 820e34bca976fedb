package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/angristan/deo-tui/internal/api"
	"github.com/angristan/deo-tui/internal/config"
	"github.com/angristan/deo-tui/internal/models"
)

// selectBackend builds the override object for the configured backend.
// A nil client with a nil error means the device has no override support.
func selectBackend(cfg *config.Config, agentID string, log zerolog.Logger) (api.DisplayOverride, error) {
	switch cfg.EffectiveBackend() {
	case config.BackendDemo:
		return api.NewDemoOverride(), nil

	case config.BackendBacklight:
		dev, err := api.DiscoverBacklight("", cfg.Backlight.Device)
		if err != nil {
			return nil, fmt.Errorf("backlight: %w", err)
		}
		return newBacklight(cfg, dev), nil

	case config.BackendAgent:
		agent, err := configuredAgent(cfg, agentID)
		if errors.Is(err, config.ErrNoAgents) && agentID == "" {
			// The setup screen pairs one
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return agent, nil
	}

	// auto
	if dev, err := api.DiscoverBacklight("", cfg.Backlight.Device); err == nil {
		log.Debug().Str("device", dev.Dir).Msg("using backlight")
		return newBacklight(cfg, dev), nil
	}
	if agent, err := configuredAgent(cfg, agentID); err == nil {
		log.Debug().Str("agent", agent.Name()).Msg("using agent")
		return agent, nil
	}
	log.Info().Msg("no display override backend available")
	return nil, nil
}

func newBacklight(cfg *config.Config, dev *api.Backlight) api.DisplayOverride {
	return api.NewBacklightOverride(dev, api.BacklightOptions{MaxNits: cfg.Backlight.MaxNits})
}

func configuredAgent(cfg *config.Config, agentID string) (*api.AgentOverride, error) {
	var (
		agent *config.AgentConfig
		err   error
	)
	if agentID != "" {
		agent, err = cfg.GetAgent(agentID)
	} else {
		agent, err = cfg.GetLastAgent()
	}
	if err != nil {
		return nil, err
	}
	return api.NewAgentOverride(agent.Host, agent.Key, agent.AgentID), nil
}

func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, d)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func printState(w io.Writer, name string, state models.OverrideState) {
	fmt.Fprintf(w, "Display:              %s\n", name)
	fmt.Fprintf(w, "Percentage supported: %s\n", yesNo(state.Capabilities.BrightnessSupported))
	fmt.Fprintf(w, "Nits supported:       %s\n", yesNo(state.Capabilities.NitsSupported))
	for _, r := range state.Capabilities.NitsRanges {
		fmt.Fprintf(w, "  nits range:         %s-%s\n", formatFloat(r.Min), formatFloat(r.Max))
	}
	fmt.Fprintf(w, "Can override:         %s\n", yesNo(state.CanOverride))
	fmt.Fprintf(w, "Override active:      %s\n", yesNo(state.Active))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
