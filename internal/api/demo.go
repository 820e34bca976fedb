package api

import (
	"context"
	"sync"
	"time"

	"github.com/angristan/deo-tui/internal/models"
)

// DemoOverride implements DisplayOverride for demo mode without real hardware.
// All state is kept in memory and notifications are simulated with short delays.
type DemoOverride struct {
	mu          sync.RWMutex
	hub         *eventHub
	caps        models.Capabilities
	canOverride bool
	active      bool
	brightness  models.BrightnessSetting
	color       models.ColorSetting

	readyDelay      time.Duration
	activationDelay time.Duration
}

// NewDemoOverride creates a demo override object for a simulated HDR panel
func NewDemoOverride() *DemoOverride {
	return newDemoOverride(200*time.Millisecond, 300*time.Millisecond)
}

func newDemoOverride(readyDelay, activationDelay time.Duration) *DemoOverride {
	return &DemoOverride{
		hub: newEventHub(),
		caps: models.Capabilities{
			BrightnessSupported: true,
			NitsSupported:       true,
			NitsRanges:          []models.NitsRange{{Min: 5, Max: 500, Step: 1}},
		},
		readyDelay:      readyDelay,
		activationDelay: activationDelay,
	}
}

// Name returns the demo backend name
func (d *DemoOverride) Name() string {
	return "demo panel"
}

// Snapshot returns the simulated state
func (d *DemoOverride) Snapshot(ctx context.Context) (models.OverrideState, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return models.OverrideState{
		Capabilities: d.caps,
		CanOverride:  d.canOverride,
		Active:       d.active,
	}, nil
}

// SetBrightnessSettings stores the brightness override property
func (d *DemoOverride) SetBrightnessSettings(ctx context.Context, setting models.BrightnessSetting) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.brightness = setting
	return nil
}

// SetColorSettings stores the color override property
func (d *DemoOverride) SetColorSettings(ctx context.Context, setting models.ColorSetting) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.color = setting
	return nil
}

// RequestOverride activates the override after a short simulated delay
func (d *DemoOverride) RequestOverride(ctx context.Context) error {
	d.mu.RLock()
	canOverride := d.canOverride
	empty := d.brightness.IsNone() && d.color.IsNone()
	d.mu.RUnlock()

	if !canOverride {
		return ErrCannotOverride
	}
	if empty {
		return ErrNothingToOverride
	}

	time.AfterFunc(d.activationDelay, func() {
		d.setActive(true)
	})
	return nil
}

// StopOverride deactivates the override
func (d *DemoOverride) StopOverride(ctx context.Context) error {
	d.setActive(false)
	return nil
}

// SetCanOverride simulates the platform granting or revoking override permission
func (d *DemoOverride) SetCanOverride(canOverride bool) {
	d.mu.Lock()
	if d.canOverride == canOverride {
		d.mu.Unlock()
		return
	}
	d.canOverride = canOverride
	d.mu.Unlock()

	d.hub.publish(Event{Type: EventCanOverrideChanged, CanOverride: canOverride})
	if !canOverride {
		d.setActive(false)
	}
}

// Subscribe registers a handler. The simulated panel reports its capabilities
// and becomes overridable shortly afterwards.
func (d *DemoOverride) Subscribe(ctx context.Context, handler EventHandler) (Subscription, error) {
	sub := d.hub.subscribe(handler)

	time.AfterFunc(d.readyDelay, func() {
		d.mu.RLock()
		caps := d.caps
		d.mu.RUnlock()

		d.hub.publish(Event{Type: EventCapabilitiesChanged, Capabilities: caps})
		d.SetCanOverride(true)
	})

	return sub, nil
}

func (d *DemoOverride) setActive(active bool) {
	d.mu.Lock()
	if d.active == active {
		d.mu.Unlock()
		return
	}
	d.active = active
	d.mu.Unlock()

	d.hub.publish(Event{Type: EventOverrideActiveChanged, Active: active})
}

// Compile-time check that DemoOverride implements DisplayOverride
var _ DisplayOverride = (*DemoOverride)(nil)
