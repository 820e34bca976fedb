package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angristan/deo-tui/internal/models"
)

// collect subscribes and forwards every event onto a channel
func collect(t *testing.T, o DisplayOverride) (<-chan Event, Subscription) {
	t.Helper()
	ch := make(chan Event, 32)
	sub, err := o.Subscribe(context.Background(), func(events []Event) {
		for _, e := range events {
			ch <- e
		}
	})
	require.NoError(t, err)
	return ch, sub
}

func waitEvent(t *testing.T, ch <-chan Event, typ EventType) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e := <-ch:
			if e.Type == typ {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func TestDemoOverrideBecomesReady(t *testing.T) {
	d := newDemoOverride(0, 0)
	ch, sub := collect(t, d)
	defer sub.Stop()

	caps := waitEvent(t, ch, EventCapabilitiesChanged)
	assert.True(t, caps.Capabilities.BrightnessSupported)
	assert.True(t, caps.Capabilities.NitsSupported)

	can := waitEvent(t, ch, EventCanOverrideChanged)
	assert.True(t, can.CanOverride)

	state, err := d.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, state.CanOverride)
	assert.False(t, state.Active)
}

func TestDemoOverrideRequestAndStop(t *testing.T) {
	ctx := context.Background()
	d := newDemoOverride(0, 0)
	ch, sub := collect(t, d)
	defer sub.Stop()
	waitEvent(t, ch, EventCanOverrideChanged)

	assert.ErrorIs(t, d.RequestOverride(ctx), ErrNothingToOverride)

	idle, err := models.BrightnessFromScenario(models.ScenarioIdle)
	require.NoError(t, err)
	require.NoError(t, d.SetBrightnessSettings(ctx, idle))
	require.NoError(t, d.RequestOverride(ctx))

	active := waitEvent(t, ch, EventOverrideActiveChanged)
	assert.True(t, active.Active)

	require.NoError(t, d.StopOverride(ctx))
	stopped := waitEvent(t, ch, EventOverrideActiveChanged)
	assert.False(t, stopped.Active)
}

func TestDemoOverrideRevokedPermission(t *testing.T) {
	ctx := context.Background()
	d := newDemoOverride(time.Hour, 0)

	accurate, err := models.ColorFromScenario(models.ScenarioAccurateColors)
	require.NoError(t, err)
	require.NoError(t, d.SetColorSettings(ctx, accurate))

	assert.ErrorIs(t, d.RequestOverride(ctx), ErrCannotOverride)
}

func TestEventHubStopDropsHandler(t *testing.T) {
	hub := newEventHub()
	ch := make(chan Event, 4)
	sub := hub.subscribe(func(events []Event) {
		for _, e := range events {
			ch <- e
		}
	})

	hub.publish(Event{Type: EventCanOverrideChanged, CanOverride: true})
	select {
	case e := <-ch:
		assert.True(t, e.CanOverride)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	sub.Stop()
	sub.Stop()
	hub.publish(Event{Type: EventCanOverrideChanged})

	select {
	case e := <-ch:
		t.Fatalf("unexpected event after stop: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}
