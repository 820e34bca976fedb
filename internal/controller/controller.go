// Package controller binds the settings page to a display override object.
//
// The controller is owned by the UI loop: every method must be called from
// bubbletea's Update. Platform calls are returned as commands and their
// outcome comes back as a ResultMsg; notifications from the platform are
// queued by the caller and fed to the On* methods one at a time.
package controller

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/angristan/deo-tui/internal/api"
	"github.com/angristan/deo-tui/internal/models"
)

// Status text values
const (
	StatusYes         = "Yes"
	StatusNo          = "No"
	StatusUnknown     = "Unknown"
	StatusUnsupported = "Unsupported"
)

// Advisory messages
const (
	AdvisoryNoSetting   = "Select a brightness or color setting before requesting an override"
	AdvisoryUnsupported = "Display enhancement override is not supported on this device"
)

// Display is the text the settings page shows
type Display struct {
	Brightness          string
	Color               string
	PercentageSupported string
	NitsSupported       string
	CanOverride         string
	OverrideActive      string
	Advisory            string
	ToggleEnabled       bool
	ToggleOn            bool
}

// SnapshotMsg carries a platform state read
type SnapshotMsg struct {
	State models.OverrideState
	Err   error
}

// Controller holds the selected settings and mirrors platform state
type Controller struct {
	client api.DisplayOverride
	log    zerolog.Logger

	brightness   models.BrightnessSetting
	color        models.ColorSetting
	capabilities models.Capabilities

	display Display
	calls   callQueue
	// Bumped on every toggle change; request and stop results from an
	// older generation no longer describe what the user asked for
	toggleGen uint64
}

// New creates a controller for client. A nil client puts the controller in
// unsupported mode: settings are tracked but nothing is sent.
func New(client api.DisplayOverride, log zerolog.Logger) *Controller {
	c := &Controller{
		client: client,
		log:    log.With().Str("component", "controller").Logger(),
		display: Display{
			Brightness:          models.NoBrightness().Label(),
			Color:               models.NoColor().Label(),
			PercentageSupported: StatusUnknown,
			NitsSupported:       StatusUnknown,
			CanOverride:         StatusUnknown,
			OverrideActive:      StatusUnknown,
		},
	}
	if client == nil {
		c.display.PercentageSupported = StatusUnsupported
		c.display.NitsSupported = StatusUnsupported
		c.display.CanOverride = StatusUnsupported
		c.display.OverrideActive = StatusUnsupported
	}
	c.RefreshEligibility()
	return c
}

// Supported reports whether a platform override object is available
func (c *Controller) Supported() bool {
	return c.client != nil
}

// Display returns the current display text
func (c *Controller) Display() Display {
	return c.display
}

// Brightness returns the selected brightness setting
func (c *Controller) Brightness() models.BrightnessSetting {
	return c.brightness
}

// Color returns the selected color setting
func (c *Controller) Color() models.ColorSetting {
	return c.color
}

// Capabilities returns the last reported capabilities
func (c *Controller) Capabilities() models.Capabilities {
	return c.capabilities
}

// Busy reports whether platform calls are outstanding
func (c *Controller) Busy() bool {
	return c.calls.busy()
}

// SetBrightness replaces the brightness setting and pushes it to the platform
func (c *Controller) SetBrightness(setting models.BrightnessSetting) tea.Cmd {
	c.brightness = setting
	c.display.Brightness = setting.Label()

	var cmd tea.Cmd
	if c.client != nil {
		client := c.client
		c.log.Debug().Stringer("setting", setting).Msg("push brightness")
		cmd = c.calls.push(pendingCall{op: OpSetBrightness, run: func(ctx context.Context) error {
			return client.SetBrightnessSettings(ctx, setting)
		}})
	}

	c.RefreshEligibility()
	return cmd
}

// SetColor replaces the color setting and pushes it to the platform
func (c *Controller) SetColor(setting models.ColorSetting) tea.Cmd {
	c.color = setting
	c.display.Color = setting.Label()

	var cmd tea.Cmd
	if c.client != nil {
		client := c.client
		c.log.Debug().Stringer("setting", setting).Msg("push color")
		cmd = c.calls.push(pendingCall{op: OpSetColor, run: func(ctx context.Context) error {
			return client.SetColorSettings(ctx, setting)
		}})
	}

	c.RefreshEligibility()
	return cmd
}

// ClearBrightness sets brightness to None
func (c *Controller) ClearBrightness() tea.Cmd {
	return c.SetBrightness(models.NoBrightness())
}

// ClearColor sets color to None
func (c *Controller) ClearColor() tea.Cmd {
	return c.SetColor(models.NoColor())
}

// RefreshEligibility enables the toggle when a setting is selected. An on
// toggle is never disabled.
func (c *Controller) RefreshEligibility() {
	if c.client == nil {
		if !c.display.ToggleOn {
			c.display.ToggleEnabled = false
		}
		c.display.Advisory = AdvisoryUnsupported
		return
	}

	if c.eligible() {
		c.display.ToggleEnabled = true
		c.display.Advisory = ""
		return
	}
	if !c.display.ToggleOn {
		c.display.ToggleEnabled = false
		c.display.Advisory = AdvisoryNoSetting
	}
}

func (c *Controller) eligible() bool {
	return !c.brightness.IsNone() || !c.color.IsNone()
}

// ToggleChanged handles the override toggle being switched
func (c *Controller) ToggleChanged(on bool) tea.Cmd {
	if c.client == nil || on == c.display.ToggleOn {
		return nil
	}
	client := c.client

	if on {
		if !c.display.ToggleEnabled || !c.eligible() {
			c.log.Debug().Msg("ignoring override request without a setting")
			return nil
		}
		c.display.ToggleOn = true
		c.toggleGen++
		c.log.Debug().Uint64("gen", c.toggleGen).Msg("request override")
		return c.calls.push(pendingCall{op: OpRequestOverride, gen: c.toggleGen, run: client.RequestOverride})
	}

	c.display.ToggleOn = false
	c.toggleGen++
	c.RefreshEligibility()
	c.log.Debug().Uint64("gen", c.toggleGen).Msg("stop override")
	return c.calls.push(pendingCall{op: OpStopOverride, gen: c.toggleGen, run: client.StopOverride})
}

// HandleResult applies the outcome of a platform call and issues the next one
func (c *Controller) HandleResult(msg ResultMsg) tea.Cmd {
	if msg.Err != nil {
		c.log.Warn().Err(msg.Err).Stringer("op", msg.Op).Msg("platform call failed")

		stale := (msg.Op == OpRequestOverride || msg.Op == OpStopOverride) && msg.Gen != c.toggleGen
		switch {
		case stale:
			c.log.Debug().Uint64("gen", msg.Gen).Uint64("current", c.toggleGen).Msg("toggle changed since call, keeping it")
		case msg.Op == OpRequestOverride:
			c.display.ToggleOn = false
			c.RefreshEligibility()
			c.display.Advisory = "Could not request override: " + msg.Err.Error()
		case msg.Op == OpStopOverride:
			c.display.ToggleOn = true
			c.display.ToggleEnabled = true
			c.display.Advisory = "Could not stop override: " + msg.Err.Error()
		case msg.Op == OpSetBrightness:
			c.display.Advisory = "Could not apply brightness setting: " + msg.Err.Error()
		case msg.Op == OpSetColor:
			c.display.Advisory = "Could not apply color setting: " + msg.Err.Error()
		}
	}
	return c.calls.done()
}

// OnCapabilitiesChanged mirrors the capability flags
func (c *Controller) OnCapabilitiesChanged(caps models.Capabilities) {
	c.capabilities = caps
	c.display.PercentageSupported = yesNo(caps.BrightnessSupported)
	c.display.NitsSupported = yesNo(caps.NitsSupported)
}

// OnCanOverrideChanged mirrors whether an override may be requested
func (c *Controller) OnCanOverrideChanged(canOverride bool) {
	c.display.CanOverride = yesNo(canOverride)
}

// OnOverrideActiveChanged mirrors whether an override is applied
func (c *Controller) OnOverrideActiveChanged(active bool) {
	c.display.OverrideActive = yesNo(active)
}

// Refresh reads the platform state
func (c *Controller) Refresh() tea.Cmd {
	if c.client == nil {
		return nil
	}
	client := c.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), platformCallTimeout)
		defer cancel()
		state, err := client.Snapshot(ctx)
		return SnapshotMsg{State: state, Err: err}
	}
}

// HandleSnapshot mirrors a platform state read
func (c *Controller) HandleSnapshot(msg SnapshotMsg) {
	if msg.Err != nil {
		c.log.Warn().Err(msg.Err).Msg("snapshot failed")
		c.display.Advisory = "Could not read override state: " + msg.Err.Error()
		return
	}
	c.OnCapabilitiesChanged(msg.State.Capabilities)
	c.OnCanOverrideChanged(msg.State.CanOverride)
	c.OnOverrideActiveChanged(msg.State.Active)
}

func yesNo(b bool) string {
	if b {
		return StatusYes
	}
	return StatusNo
}
