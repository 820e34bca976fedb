package api

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angristan/deo-tui/internal/models"
)

// fakeSysfs creates root/<name>/{brightness,max_brightness}
func fakeSysfs(t *testing.T, name string, raw, maxRaw int) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brightness"), []byte(strconv.Itoa(raw)+"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "max_brightness"), []byte(strconv.Itoa(maxRaw)+"\n"), 0644))
	return root
}

func readRaw(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, name, "brightness"))
	require.NoError(t, err)
	return strings.TrimSpace(string(data))
}

func TestDiscoverBacklight(t *testing.T) {
	root := fakeSysfs(t, "intel_backlight", 300, 1000)

	dev, err := DiscoverBacklight(root, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "intel_backlight"), dev.Dir)

	_, err = DiscoverBacklight(root, "acpi_video0")
	assert.ErrorIs(t, err, ErrNoBacklight)

	_, err = DiscoverBacklight(t.TempDir(), "")
	assert.ErrorIs(t, err, ErrNoBacklight)
}

func TestBacklightOverrideRequestRestores(t *testing.T) {
	ctx := context.Background()
	root := fakeSysfs(t, "panel", 300, 1000)
	dev, err := DiscoverBacklight(root, "panel")
	require.NoError(t, err)

	o := NewBacklightOverride(dev, BacklightOptions{})
	assert.Equal(t, "backlight:panel", o.Name())

	pct, err := models.BrightnessFromPercentage(42)
	require.NoError(t, err)
	require.NoError(t, o.SetBrightnessSettings(ctx, pct))
	assert.Equal(t, "300", readRaw(t, root, "panel"), "setting alone must not touch the device")

	require.NoError(t, o.RequestOverride(ctx))
	assert.Equal(t, "420", readRaw(t, root, "panel"))

	idle, err := models.BrightnessFromScenario(models.ScenarioIdle)
	require.NoError(t, err)
	require.NoError(t, o.SetBrightnessSettings(ctx, idle))
	assert.Equal(t, "200", readRaw(t, root, "panel"), "changes re-apply while active")

	state, err := o.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, state.Active)

	require.NoError(t, o.StopOverride(ctx))
	assert.Equal(t, "300", readRaw(t, root, "panel"))
}

func TestBacklightOverrideNits(t *testing.T) {
	ctx := context.Background()
	root := fakeSysfs(t, "panel", 500, 1000)
	dev, err := DiscoverBacklight(root, "")
	require.NoError(t, err)

	nits, err := models.BrightnessFromNits(100)
	require.NoError(t, err)

	plain := NewBacklightOverride(dev, BacklightOptions{})
	state, err := plain.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, state.Capabilities.NitsSupported)

	require.NoError(t, plain.SetBrightnessSettings(ctx, nits))
	assert.ErrorIs(t, plain.RequestOverride(ctx), ErrUnsupported)

	calibrated := NewBacklightOverride(dev, BacklightOptions{MaxNits: 400})
	require.NoError(t, calibrated.SetBrightnessSettings(ctx, nits))
	require.NoError(t, calibrated.RequestOverride(ctx))
	assert.Equal(t, "250", readRaw(t, root, "panel"))
}

func TestBacklightOverrideColorOnly(t *testing.T) {
	ctx := context.Background()
	root := fakeSysfs(t, "panel", 640, 1000)
	dev, err := DiscoverBacklight(root, "")
	require.NoError(t, err)
	o := NewBacklightOverride(dev, BacklightOptions{})

	assert.ErrorIs(t, o.RequestOverride(ctx), ErrNothingToOverride)

	accurate, err := models.ColorFromScenario(models.ScenarioAccurateColors)
	require.NoError(t, err)
	require.NoError(t, o.SetColorSettings(ctx, accurate))
	require.NoError(t, o.RequestOverride(ctx))
	assert.Equal(t, "640", readRaw(t, root, "panel"))
}

func TestBacklightOverrideClearBrightnessWhileActive(t *testing.T) {
	ctx := context.Background()
	root := fakeSysfs(t, "panel", 40, 100)
	dev, err := DiscoverBacklight(root, "")
	require.NoError(t, err)
	o := NewBacklightOverride(dev, BacklightOptions{})

	pct, err := models.BrightnessFromPercentage(90)
	require.NoError(t, err)
	accurate, err := models.ColorFromScenario(models.ScenarioAccurateColors)
	require.NoError(t, err)
	require.NoError(t, o.SetBrightnessSettings(ctx, pct))
	require.NoError(t, o.SetColorSettings(ctx, accurate))

	require.NoError(t, o.RequestOverride(ctx))
	assert.Equal(t, "90", readRaw(t, root, "panel"))

	// The override stays on for color but the panel goes back to its own level
	require.NoError(t, o.SetBrightnessSettings(ctx, models.NoBrightness()))
	assert.Equal(t, "40", readRaw(t, root, "panel"))
	state, err := o.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, state.Active)

	require.NoError(t, o.SetBrightnessSettings(ctx, pct))
	assert.Equal(t, "90", readRaw(t, root, "panel"))

	require.NoError(t, o.StopOverride(ctx))
	assert.Equal(t, "40", readRaw(t, root, "panel"))
}

func TestBacklightOverrideSubscribeReportsCapabilities(t *testing.T) {
	root := fakeSysfs(t, "panel", 1, 10)
	dev, err := DiscoverBacklight(root, "")
	require.NoError(t, err)

	o := NewBacklightOverride(dev, BacklightOptions{MaxNits: 350})
	ch, sub := collect(t, o)
	defer sub.Stop()

	caps := waitEvent(t, ch, EventCapabilitiesChanged)
	assert.True(t, caps.Capabilities.BrightnessSupported)
	assert.True(t, caps.Capabilities.NitsSupported)

	can := waitEvent(t, ch, EventCanOverrideChanged)
	assert.True(t, can.CanOverride)
}
