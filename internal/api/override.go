package api

import (
	"context"
	"errors"

	"github.com/angristan/deo-tui/internal/models"
)

var (
	ErrUnsupported       = errors.New("display enhancement override is not supported on this device")
	ErrCannotOverride    = errors.New("override is not currently allowed")
	ErrNothingToOverride = errors.New("no brightness or color setting to apply")
)

// DisplayOverride defines the platform object that overrides display brightness
// and color rendering. Implementations deliver change notifications on their own
// goroutine; callers must marshal them onto their UI loop.
type DisplayOverride interface {
	// Name identifies the backend (and device) for display
	Name() string

	// Snapshot reads the current capabilities and override state
	Snapshot(ctx context.Context) (models.OverrideState, error)

	// Override settings. A None setting clears the property.
	SetBrightnessSettings(ctx context.Context, setting models.BrightnessSetting) error
	SetColorSettings(ctx context.Context, setting models.ColorSetting) error

	// RequestOverride asks for the settings to be applied. The outcome is
	// reported through an override_active_changed event.
	RequestOverride(ctx context.Context) error
	// StopOverride releases an active override
	StopOverride(ctx context.Context) error

	// Subscribe registers for change notifications until the subscription is stopped
	Subscribe(ctx context.Context, handler EventHandler) (Subscription, error)
}

// Subscription is a registered notification handler
type Subscription interface {
	Stop()
}
