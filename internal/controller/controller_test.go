package controller

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angristan/deo-tui/internal/api"
	"github.com/angristan/deo-tui/internal/models"
)

// fakeOverride records every call made to it
type fakeOverride struct {
	mu         sync.Mutex
	calls      []string
	brightness []models.BrightnessSetting
	color      []models.ColorSetting
	requestErr error
	stopErr    error
	setErr     error
	state      models.OverrideState
}

func (f *fakeOverride) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeOverride) Name() string { return "fake" }

func (f *fakeOverride) Snapshot(ctx context.Context) (models.OverrideState, error) {
	f.record("snapshot")
	return f.state, nil
}

func (f *fakeOverride) SetBrightnessSettings(ctx context.Context, s models.BrightnessSetting) error {
	f.record("brightness")
	f.mu.Lock()
	f.brightness = append(f.brightness, s)
	f.mu.Unlock()
	return f.setErr
}

func (f *fakeOverride) SetColorSettings(ctx context.Context, s models.ColorSetting) error {
	f.record("color")
	f.mu.Lock()
	f.color = append(f.color, s)
	f.mu.Unlock()
	return f.setErr
}

func (f *fakeOverride) RequestOverride(ctx context.Context) error {
	f.record("request")
	return f.requestErr
}

func (f *fakeOverride) StopOverride(ctx context.Context) error {
	f.record("stop")
	return f.stopErr
}

func (f *fakeOverride) Subscribe(ctx context.Context, h api.EventHandler) (api.Subscription, error) {
	return nil, errors.New("not used")
}

var _ api.DisplayOverride = (*fakeOverride)(nil)

// run executes cmd and every follow-up command the controller returns,
// the way the bubbletea loop would
func run(t *testing.T, c *Controller, cmd tea.Cmd) {
	t.Helper()
	for cmd != nil {
		msg, ok := cmd().(ResultMsg)
		require.True(t, ok, "expected a ResultMsg")
		cmd = c.HandleResult(msg)
	}
}

func newTestController() (*Controller, *fakeOverride) {
	f := &fakeOverride{}
	return New(f, zerolog.Nop()), f
}

func pct(t *testing.T, v float64) models.BrightnessSetting {
	t.Helper()
	b, err := models.BrightnessFromPercentage(v)
	require.NoError(t, err)
	return b
}

func TestNewControllerInitialState(t *testing.T) {
	c, f := newTestController()

	d := c.Display()
	assert.Equal(t, "None", d.Brightness)
	assert.Equal(t, "None", d.Color)
	assert.Equal(t, StatusUnknown, d.CanOverride)
	assert.False(t, d.ToggleEnabled)
	assert.False(t, d.ToggleOn)
	assert.Equal(t, AdvisoryNoSetting, d.Advisory)
	assert.Empty(t, f.calls)
}

func TestSetBrightnessPercentage(t *testing.T) {
	c, f := newTestController()

	run(t, c, c.SetBrightness(pct(t, 42)))

	assert.Equal(t, "42%", c.Display().Brightness)
	require.Len(t, f.brightness, 1)
	assert.Equal(t, models.BrightnessPercentage, f.brightness[0].Kind())
	assert.InDelta(t, 0.42, f.brightness[0].Level(), 1e-9)
	assert.True(t, c.Display().ToggleEnabled)
	assert.Empty(t, c.Display().Advisory)
}

func TestSetBrightnessScenarioIdle(t *testing.T) {
	c, _ := newTestController()

	idle, err := models.BrightnessFromScenario(models.ScenarioIdle)
	require.NoError(t, err)
	run(t, c, c.SetBrightness(idle))

	assert.Equal(t, "Idle Brightness", c.Display().Brightness)
}

func TestClearBrightnessDisablesToggle(t *testing.T) {
	c, f := newTestController()

	run(t, c, c.SetBrightness(pct(t, 80)))
	run(t, c, c.ClearBrightness())
	c.RefreshEligibility()

	d := c.Display()
	assert.Equal(t, "None", d.Brightness)
	assert.False(t, d.ToggleEnabled)
	assert.NotEmpty(t, d.Advisory)
	require.Len(t, f.brightness, 2)
	assert.True(t, f.brightness[1].IsNone())
}

func TestRefreshEligibilityIdempotent(t *testing.T) {
	c, _ := newTestController()
	run(t, c, c.SetBrightness(pct(t, 10)))

	before := c.Display()
	c.RefreshEligibility()
	c.RefreshEligibility()
	assert.Equal(t, before, c.Display())
}

func TestEligibilityProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	accurate, err := models.ColorFromScenario(models.ScenarioAccurateColors)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		c, _ := newTestController()
		for step := 0; step < 30; step++ {
			var cmd tea.Cmd
			switch rng.Intn(6) {
			case 0:
				cmd = c.SetBrightness(pct(t, float64(rng.Intn(101))))
			case 1:
				cmd = c.ClearBrightness()
			case 2:
				cmd = c.SetColor(accurate)
			case 3:
				cmd = c.ClearColor()
			case 4:
				cmd = c.ToggleChanged(true)
			case 5:
				cmd = c.ToggleChanged(false)
			}
			run(t, c, cmd)
			c.RefreshEligibility()

			d := c.Display()
			eligible := !c.Brightness().IsNone() || !c.Color().IsNone()
			if d.ToggleOn {
				assert.True(t, d.ToggleEnabled, "an on toggle must stay enabled")
			} else {
				assert.Equal(t, eligible, d.ToggleEnabled)
			}
		}
	}
}

func TestToggleIgnoredWithoutSetting(t *testing.T) {
	c, f := newTestController()

	run(t, c, c.ToggleChanged(true))

	assert.False(t, c.Display().ToggleOn)
	assert.NotContains(t, f.calls, "request")
}

func TestToggleOnKeepsEnabledWhenSettingsCleared(t *testing.T) {
	c, f := newTestController()

	run(t, c, c.SetBrightness(pct(t, 50)))
	run(t, c, c.ToggleChanged(true))
	run(t, c, c.ClearBrightness())

	d := c.Display()
	assert.True(t, d.ToggleOn)
	assert.True(t, d.ToggleEnabled)
	assert.Empty(t, d.Advisory)

	run(t, c, c.ToggleChanged(false))

	d = c.Display()
	assert.False(t, d.ToggleOn)
	assert.False(t, d.ToggleEnabled)
	assert.Equal(t, AdvisoryNoSetting, d.Advisory)
	assert.Equal(t, []string{"brightness", "request", "brightness", "stop"}, f.calls)
}

func TestRequestFailureRevertsToggle(t *testing.T) {
	c, f := newTestController()
	f.requestErr = api.ErrCannotOverride

	run(t, c, c.SetBrightness(pct(t, 50)))
	run(t, c, c.ToggleChanged(true))

	d := c.Display()
	assert.False(t, d.ToggleOn)
	assert.True(t, d.ToggleEnabled)
	assert.Equal(t, "Could not request override: "+api.ErrCannotOverride.Error(), d.Advisory)
}

func TestStopFailureRevertsToggle(t *testing.T) {
	c, f := newTestController()
	f.stopErr = errors.New("agent unreachable")

	run(t, c, c.SetBrightness(pct(t, 50)))
	run(t, c, c.ToggleChanged(true))
	run(t, c, c.ClearBrightness())
	run(t, c, c.ToggleChanged(false))

	d := c.Display()
	assert.True(t, d.ToggleOn)
	assert.True(t, d.ToggleEnabled)
	assert.Equal(t, "Could not stop override: agent unreachable", d.Advisory)
}

func TestLateRequestFailureKeepsNewerToggle(t *testing.T) {
	c, f := newTestController()
	run(t, c, c.SetBrightness(pct(t, 50)))

	first := c.ToggleChanged(true)
	require.NotNil(t, first)
	assert.Nil(t, c.ToggleChanged(false))
	assert.Nil(t, c.ToggleChanged(true))

	f.requestErr = errors.New("transient")
	msg := first()
	f.requestErr = nil
	run(t, c, c.HandleResult(msg.(ResultMsg)))

	d := c.Display()
	assert.Equal(t, []string{"brightness", "request", "stop", "request"}, f.calls)
	assert.True(t, d.ToggleOn)
	assert.True(t, d.ToggleEnabled)
	assert.Empty(t, d.Advisory)
}

func TestLateStopFailureKeepsNewerToggle(t *testing.T) {
	c, f := newTestController()
	run(t, c, c.SetBrightness(pct(t, 50)))
	run(t, c, c.ToggleChanged(true))

	stop := c.ToggleChanged(false)
	require.NotNil(t, stop)
	assert.Nil(t, c.ToggleChanged(true))
	assert.Nil(t, c.ToggleChanged(false))

	f.stopErr = errors.New("transient")
	msg := stop()
	f.stopErr = nil
	run(t, c, c.HandleResult(msg.(ResultMsg)))

	d := c.Display()
	assert.Equal(t, []string{"brightness", "request", "stop", "request", "stop"}, f.calls)
	assert.False(t, d.ToggleOn)
	assert.Empty(t, d.Advisory)
}

func TestPushFailureKeepsSetting(t *testing.T) {
	c, f := newTestController()
	f.setErr = errors.New("out of range")

	run(t, c, c.SetBrightness(pct(t, 30)))

	d := c.Display()
	assert.Equal(t, "30%", d.Brightness)
	assert.Equal(t, "Could not apply brightness setting: out of range", d.Advisory)
	assert.Equal(t, models.BrightnessPercentage, c.Brightness().Kind())
}

func TestCallsAreSerializedAndCoalesced(t *testing.T) {
	c, f := newTestController()

	first := c.SetBrightness(pct(t, 10))
	require.NotNil(t, first)
	assert.Nil(t, c.SetBrightness(pct(t, 20)))
	assert.Nil(t, c.SetBrightness(pct(t, 30)))
	assert.Nil(t, c.ToggleChanged(true))
	assert.True(t, c.Busy())

	run(t, c, first)

	assert.False(t, c.Busy())
	assert.Equal(t, []string{"brightness", "brightness", "request"}, f.calls)
	require.Len(t, f.brightness, 2)
	assert.InDelta(t, 0.10, f.brightness[0].Level(), 1e-9)
	assert.InDelta(t, 0.30, f.brightness[1].Level(), 1e-9)
}

func TestCapabilitiesProjection(t *testing.T) {
	c, _ := newTestController()
	run(t, c, c.SetBrightness(pct(t, 50)))
	before := c.Display()

	c.OnCapabilitiesChanged(models.Capabilities{BrightnessSupported: false, NitsSupported: true})

	d := c.Display()
	assert.Equal(t, StatusNo, d.PercentageSupported)
	assert.Equal(t, StatusYes, d.NitsSupported)
	assert.Equal(t, before.Brightness, d.Brightness)
	assert.Equal(t, before.ToggleEnabled, d.ToggleEnabled)
}

func TestNotificationsProjectOnly(t *testing.T) {
	c, f := newTestController()

	c.OnCanOverrideChanged(true)
	c.OnOverrideActiveChanged(true)

	d := c.Display()
	assert.Equal(t, StatusYes, d.CanOverride)
	assert.Equal(t, StatusYes, d.OverrideActive)
	assert.False(t, d.ToggleOn)
	assert.Empty(t, f.calls)

	c.OnOverrideActiveChanged(false)
	assert.Equal(t, StatusNo, c.Display().OverrideActive)
}

func TestRefreshSnapshot(t *testing.T) {
	c, f := newTestController()
	f.state = models.OverrideState{
		Capabilities: models.Capabilities{BrightnessSupported: true},
		CanOverride:  true,
	}

	msg, ok := c.Refresh()().(SnapshotMsg)
	require.True(t, ok)
	c.HandleSnapshot(msg)

	d := c.Display()
	assert.Equal(t, StatusYes, d.PercentageSupported)
	assert.Equal(t, StatusNo, d.NitsSupported)
	assert.Equal(t, StatusYes, d.CanOverride)
	assert.Equal(t, StatusNo, d.OverrideActive)
}

func TestUnsupportedMode(t *testing.T) {
	c := New(nil, zerolog.Nop())

	assert.False(t, c.Supported())
	assert.Nil(t, c.SetBrightness(pct(t, 40)))
	assert.Nil(t, c.ToggleChanged(true))
	assert.Nil(t, c.Refresh())

	d := c.Display()
	assert.Equal(t, "40%", d.Brightness)
	assert.Equal(t, StatusUnsupported, d.CanOverride)
	assert.False(t, d.ToggleEnabled)
	assert.Equal(t, AdvisoryUnsupported, d.Advisory)
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "request_override", OpRequestOverride.String())
	assert.Equal(t, "unknown", Op(42).String())
}
