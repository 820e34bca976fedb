package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/angristan/deo-tui/internal/models"
)

const (
	agentKeyHeader      = "deo-agent-key"
	agentRequestTimeout = 10 * time.Second
	agentRetryMax       = 3
	agentRetryWaitMin   = 200 * time.Millisecond
	agentRetryWaitMax   = 2 * time.Second
)

// newAgentHTTPClient returns a client that retries connection errors and
// 5xx answers from the agent
func newAgentHTTPClient() *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = agentRetryMax
	retryClient.RetryWaitMin = agentRetryWaitMin
	retryClient.RetryWaitMax = agentRetryWaitMax
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{Timeout: agentRequestTimeout}
	return retryClient.StandardClient()
}

// AgentOverride talks to a network display agent that owns the display
type AgentOverride struct {
	host    string
	key     string
	agentID string
	scheme  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewAgentOverride creates a client for the agent at host (host or host:port)
func NewAgentOverride(host, key, agentID string) *AgentOverride {
	return &AgentOverride{
		host:    host,
		key:     key,
		agentID: agentID,
		scheme:  "http",
		client:  newAgentHTTPClient(),
		// Slider bursts are paced, not dropped
		limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 4),
	}
}

// Name returns the agent identity
func (a *AgentOverride) Name() string {
	if a.agentID != "" {
		return "agent:" + a.agentID
	}
	return "agent:" + a.host
}

// Host returns the agent host
func (a *AgentOverride) Host() string {
	return a.host
}

// AgentID returns the agent identifier
func (a *AgentOverride) AgentID() string {
	return a.agentID
}

func (a *AgentOverride) baseURL() string {
	return fmt.Sprintf("%s://%s", a.scheme, a.host)
}

// doRequest performs an authenticated API request and decodes the response into out
func (a *AgentOverride) doRequest(ctx context.Context, method, path string, body, out interface{}) (err error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL()+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set(agentKeyHeader, a.key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("agent request %s %s failed: %w", method, path, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && len(apiErr.Errors) > 0 {
			return fmt.Errorf("API error: %s", apiErr.Errors[0].Description)
		}
		return fmt.Errorf("agent returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode agent response: %w", err)
		}
	}
	return nil
}

// errorResponse is the agent's error body
type errorResponse struct {
	Errors []struct {
		Description string `json:"description"`
	} `json:"errors"`
}

// capabilitiesResource is the wire form of models.Capabilities
type capabilitiesResource struct {
	Brightness bool `json:"brightness"`
	Nits       bool `json:"nits"`
	NitsRanges []struct {
		Min  float64 `json:"min"`
		Max  float64 `json:"max"`
		Step float64 `json:"step"`
	} `json:"nits_ranges,omitempty"`
}

func (r *capabilitiesResource) toModel() models.Capabilities {
	caps := models.Capabilities{
		BrightnessSupported: r.Brightness,
		NitsSupported:       r.Nits,
	}
	for _, nr := range r.NitsRanges {
		caps.NitsRanges = append(caps.NitsRanges, models.NitsRange{Min: nr.Min, Max: nr.Max, Step: nr.Step})
	}
	return caps
}

// overrideResource is the agent's GET /v1/override body
type overrideResource struct {
	Capabilities capabilitiesResource `json:"capabilities"`
	CanOverride  bool                 `json:"can_override"`
	Active       bool                 `json:"active"`
}

// brightnessPayload is the PUT /v1/override/brightness body
type brightnessPayload struct {
	Kind     string  `json:"kind"`
	Level    float64 `json:"level,omitempty"`
	Nits     float64 `json:"nits,omitempty"`
	Scenario string  `json:"scenario,omitempty"`
}

func newBrightnessPayload(s models.BrightnessSetting) brightnessPayload {
	switch s.Kind() {
	case models.BrightnessPercentage:
		return brightnessPayload{Kind: "percentage", Level: s.Level()}
	case models.BrightnessNits:
		return brightnessPayload{Kind: "nits", Nits: s.Nits()}
	case models.BrightnessPreset:
		scenario, _ := s.Scenario()
		return brightnessPayload{Kind: "scenario", Scenario: scenario.Key()}
	}
	return brightnessPayload{Kind: "none"}
}

// colorPayload is the PUT /v1/override/color body
type colorPayload struct {
	Kind     string `json:"kind"`
	Scenario string `json:"scenario,omitempty"`
}

func newColorPayload(s models.ColorSetting) colorPayload {
	if scenario, ok := s.Scenario(); ok {
		return colorPayload{Kind: "scenario", Scenario: scenario.Key()}
	}
	return colorPayload{Kind: "none"}
}

// Snapshot retrieves the override state from the agent
func (a *AgentOverride) Snapshot(ctx context.Context) (models.OverrideState, error) {
	var res overrideResource
	if err := a.doRequest(ctx, http.MethodGet, "/v1/override", nil, &res); err != nil {
		return models.OverrideState{}, fmt.Errorf("failed to get override state: %w", err)
	}
	return models.OverrideState{
		Capabilities: res.Capabilities.toModel(),
		CanOverride:  res.CanOverride,
		Active:       res.Active,
	}, nil
}

// SetBrightnessSettings pushes the brightness property to the agent
func (a *AgentOverride) SetBrightnessSettings(ctx context.Context, setting models.BrightnessSetting) error {
	if err := a.doRequest(ctx, http.MethodPut, "/v1/override/brightness", newBrightnessPayload(setting), nil); err != nil {
		return fmt.Errorf("failed to set brightness override: %w", err)
	}
	return nil
}

// SetColorSettings pushes the color property to the agent
func (a *AgentOverride) SetColorSettings(ctx context.Context, setting models.ColorSetting) error {
	if err := a.doRequest(ctx, http.MethodPut, "/v1/override/color", newColorPayload(setting), nil); err != nil {
		return fmt.Errorf("failed to set color override: %w", err)
	}
	return nil
}

// RequestOverride asks the agent to apply the override
func (a *AgentOverride) RequestOverride(ctx context.Context) error {
	if err := a.doRequest(ctx, http.MethodPost, "/v1/override/request", nil, nil); err != nil {
		return fmt.Errorf("failed to request override: %w", err)
	}
	return nil
}

// StopOverride asks the agent to release the override
func (a *AgentOverride) StopOverride(ctx context.Context) error {
	if err := a.doRequest(ctx, http.MethodPost, "/v1/override/stop", nil, nil); err != nil {
		return fmt.Errorf("failed to stop override: %w", err)
	}
	return nil
}

// Subscribe opens the agent's event stream
func (a *AgentOverride) Subscribe(ctx context.Context, handler EventHandler) (Subscription, error) {
	sub := NewEventSubscription(a, handler)
	if err := sub.Start(ctx); err != nil {
		return nil, err
	}
	return sub, nil
}

// eventsURL returns the websocket endpoint for the event stream
func (a *AgentOverride) eventsURL() string {
	scheme := "ws"
	if a.scheme == "https" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s/v1/events", scheme, a.host)
}

// Compile-time check that AgentOverride implements DisplayOverride
var _ DisplayOverride = (*AgentOverride)(nil)
