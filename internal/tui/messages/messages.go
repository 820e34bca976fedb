package messages

import (
	"github.com/angristan/deo-tui/internal/api"
	"github.com/angristan/deo-tui/internal/models"
)

// AgentConnectedMsg indicates successful agent pairing
type AgentConnectedMsg struct {
	Agent *api.AgentOverride
	Key   string
}

// SubscribedMsg carries the result of registering for platform notifications
type SubscribedMsg struct {
	Sub api.Subscription
	Err error
}

// ErrorMsg indicates an error occurred
type ErrorMsg struct {
	Err error
}

// ShowScenariosMsg requests showing the scenario picker
type ShowScenariosMsg struct{}

// HideScenariosMsg requests hiding the scenario picker
type HideScenariosMsg struct{}

// Axis is the setting a scenario applies to
type Axis int

const (
	AxisBrightness Axis = iota
	AxisColor
)

// ScenarioSelectedMsg indicates a preset was picked. Only the setting
// matching Axis is meaningful.
type ScenarioSelectedMsg struct {
	Axis       Axis
	Brightness models.BrightnessSetting
	Color      models.ColorSetting
}

// QuitRequestedMsg asks the root model to tear down and exit
type QuitRequestedMsg struct{}

// CapabilitiesChangedMsg mirrors a capabilities_changed notification
type CapabilitiesChangedMsg struct {
	Capabilities models.Capabilities
}

// CanOverrideChangedMsg mirrors a can_override_changed notification
type CanOverrideChangedMsg struct {
	CanOverride bool
}

// OverrideActiveChangedMsg mirrors an override_active_changed notification
type OverrideActiveChangedMsg struct {
	Active bool
}

// FromEvent converts a platform notification into its UI message
func FromEvent(e api.Event) interface{} {
	switch e.Type {
	case api.EventCapabilitiesChanged:
		return CapabilitiesChangedMsg{Capabilities: e.Capabilities}
	case api.EventCanOverrideChanged:
		return CanOverrideChangedMsg{CanOverride: e.CanOverride}
	case api.EventOverrideActiveChanged:
		return OverrideActiveChangedMsg{Active: e.Active}
	}
	return nil
}
