package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/angristan/deo-tui/internal/logging"
	"github.com/angristan/deo-tui/internal/models"
)

// DefaultBacklightRoot is where the kernel exposes backlight devices
const DefaultBacklightRoot = "/sys/class/backlight"

var ErrNoBacklight = errors.New("no backlight device found")

// Scenario levels in percent for a plain backlight
var backlightScenarioLevels = map[models.BrightnessScenario]float64{
	models.ScenarioFullBrightness: 100,
	models.ScenarioBarcodeReading: 100,
	models.ScenarioIdle:           20,
}

// Backlight is a sysfs backlight device
type Backlight struct {
	Dir            string // /sys/class/backlight/<name>
	BrightnessPath string
	MaxPath        string
}

// DiscoverBacklight returns the named device under root, or the first usable one
func DiscoverBacklight(root, name string) (*Backlight, error) {
	if root == "" {
		root = DefaultBacklightRoot
	}
	if name != "" {
		return OpenBacklight(filepath.Join(root, name))
	}

	entries, err := filepath.Glob(filepath.Join(root, "*"))
	if err != nil || len(entries) == 0 {
		return nil, ErrNoBacklight
	}
	for _, dir := range entries {
		if b, err := OpenBacklight(dir); err == nil {
			return b, nil
		}
	}
	return nil, ErrNoBacklight
}

// OpenBacklight opens a device directory holding brightness and max_brightness
func OpenBacklight(dir string) (*Backlight, error) {
	b := &Backlight{
		Dir:            dir,
		BrightnessPath: filepath.Join(dir, "brightness"),
		MaxPath:        filepath.Join(dir, "max_brightness"),
	}
	if _, err := os.Stat(b.BrightnessPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoBacklight, dir)
	}
	if _, err := os.Stat(b.MaxPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoBacklight, dir)
	}
	return b, nil
}

// Max returns max_brightness
func (b *Backlight) Max() (int, error) {
	v, err := readInt(b.MaxPath)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid max_brightness: %d", v)
	}
	return v, nil
}

// Raw returns the current brightness value
func (b *Backlight) Raw() (int, error) {
	return readInt(b.BrightnessPath)
}

// SetRaw writes a brightness value
func (b *Backlight) SetRaw(v int) error {
	return os.WriteFile(b.BrightnessPath, []byte(strconv.Itoa(v)), 0644)
}

// SetPercent sets brightness from a percentage (0-100)
func (b *Backlight) SetPercent(pct float64) error {
	pct = math.Max(0, math.Min(100, pct))
	maxV, err := b.Max()
	if err != nil {
		return err
	}
	return b.SetRaw(int(math.Round(pct * float64(maxV) / 100)))
}

// Writable reports whether the brightness node can be written by this process
func (b *Backlight) Writable() bool {
	f, err := os.OpenFile(b.BrightnessPath, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// BacklightOptions tunes how settings map onto the backlight
type BacklightOptions struct {
	// Luminance at 100%; enables nits settings when positive
	MaxNits float64
}

// BacklightOverride implements DisplayOverride on top of a sysfs backlight.
// The level in effect before the override is restored when it stops.
type BacklightOverride struct {
	dev  *Backlight
	opts BacklightOptions
	hub  *eventHub

	mu         sync.Mutex
	brightness models.BrightnessSetting
	color      models.ColorSetting
	active     bool
	savedRaw   int
}

// NewBacklightOverride creates an override object for the given device
func NewBacklightOverride(dev *Backlight, opts BacklightOptions) *BacklightOverride {
	return &BacklightOverride{
		dev:  dev,
		opts: opts,
		hub:  newEventHub(),
	}
}

// Name returns the backend and device name
func (o *BacklightOverride) Name() string {
	return "backlight:" + filepath.Base(o.dev.Dir)
}

func (o *BacklightOverride) capabilities() models.Capabilities {
	caps := models.Capabilities{BrightnessSupported: true}
	if o.opts.MaxNits > 0 {
		caps.NitsSupported = true
		caps.NitsRanges = []models.NitsRange{{Min: 1, Max: o.opts.MaxNits, Step: 1}}
	}
	return caps
}

// Snapshot reads the device state
func (o *BacklightOverride) Snapshot(ctx context.Context) (models.OverrideState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return models.OverrideState{
		Capabilities: o.capabilities(),
		CanOverride:  o.dev.Writable(),
		Active:       o.active,
	}, nil
}

// SetBrightnessSettings stores the setting and re-applies it while active.
// Clearing it during an override returns the panel to the saved level.
func (o *BacklightOverride) SetBrightnessSettings(ctx context.Context, setting models.BrightnessSetting) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.brightness = setting
	if !o.active {
		return nil
	}
	if setting.IsNone() {
		if err := o.dev.SetRaw(o.savedRaw); err != nil {
			return fmt.Errorf("failed to restore backlight level: %w", err)
		}
		return nil
	}
	return o.apply(setting)
}

// SetColorSettings stores the setting. A backlight renders colors unchanged,
// so accurate colors are always in effect.
func (o *BacklightOverride) SetColorSettings(ctx context.Context, setting models.ColorSetting) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.color = setting
	return nil
}

// RequestOverride saves the current level and applies the brightness setting
func (o *BacklightOverride) RequestOverride(ctx context.Context) error {
	o.mu.Lock()
	if !o.dev.Writable() {
		o.mu.Unlock()
		return ErrCannotOverride
	}
	if o.brightness.IsNone() && o.color.IsNone() {
		o.mu.Unlock()
		return ErrNothingToOverride
	}
	if o.active {
		o.mu.Unlock()
		return nil
	}

	raw, err := o.dev.Raw()
	if err != nil {
		o.mu.Unlock()
		return fmt.Errorf("failed to read backlight level: %w", err)
	}
	if !o.brightness.IsNone() {
		if err := o.apply(o.brightness); err != nil {
			o.mu.Unlock()
			return err
		}
	}
	o.savedRaw = raw
	o.active = true
	o.mu.Unlock()

	logging.FromContext(ctx).Debug().Str("device", o.dev.Dir).Int("saved_raw", raw).Msg("backlight override applied")
	o.hub.publish(Event{Type: EventOverrideActiveChanged, Active: true})
	return nil
}

// StopOverride restores the level saved when the override started
func (o *BacklightOverride) StopOverride(ctx context.Context) error {
	o.mu.Lock()
	if !o.active {
		o.mu.Unlock()
		return nil
	}
	if err := o.dev.SetRaw(o.savedRaw); err != nil {
		o.mu.Unlock()
		return fmt.Errorf("failed to restore backlight level: %w", err)
	}
	o.active = false
	o.mu.Unlock()

	logging.FromContext(ctx).Debug().Str("device", o.dev.Dir).Msg("backlight override released")
	o.hub.publish(Event{Type: EventOverrideActiveChanged, Active: false})
	return nil
}

// Subscribe registers a handler and immediately reports the current capabilities
func (o *BacklightOverride) Subscribe(ctx context.Context, handler EventHandler) (Subscription, error) {
	sub := o.hub.subscribe(handler)
	o.hub.publish(
		Event{Type: EventCapabilitiesChanged, Capabilities: o.capabilities()},
		Event{Type: EventCanOverrideChanged, CanOverride: o.dev.Writable()},
	)
	return sub, nil
}

// apply drives the device to a setting; caller holds o.mu
func (o *BacklightOverride) apply(setting models.BrightnessSetting) error {
	pct, err := o.percentFor(setting)
	if err != nil {
		return err
	}
	if err := o.dev.SetPercent(pct); err != nil {
		return fmt.Errorf("failed to set backlight: %w", err)
	}
	return nil
}

func (o *BacklightOverride) percentFor(setting models.BrightnessSetting) (float64, error) {
	switch setting.Kind() {
	case models.BrightnessPercentage:
		return setting.Percentage(), nil
	case models.BrightnessNits:
		if o.opts.MaxNits <= 0 {
			return 0, fmt.Errorf("%w: nits control needs backlight.max_nits", ErrUnsupported)
		}
		return math.Min(100, setting.Nits()/o.opts.MaxNits*100), nil
	case models.BrightnessPreset:
		scenario, _ := setting.Scenario()
		return backlightScenarioLevels[scenario], nil
	}
	return 0, ErrNothingToOverride
}

// Compile-time check that BacklightOverride implements DisplayOverride
var _ DisplayOverride = (*BacklightOverride)(nil)
