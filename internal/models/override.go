package models

// NitsRange is a luminance range the display can be driven to
type NitsRange struct {
	Min  float64
	Max  float64
	Step float64
}

// Capabilities describes what brightness control a display supports
type Capabilities struct {
	// Brightness can be set as a percentage level
	BrightnessSupported bool
	// Brightness can be set in absolute nits
	NitsSupported bool
	// Supported nits ranges (empty when nits are unsupported)
	NitsRanges []NitsRange
}

// SupportsNits returns true if the given luminance falls in a supported range
func (c Capabilities) SupportsNits(nits float64) bool {
	if !c.NitsSupported {
		return false
	}
	if len(c.NitsRanges) == 0 {
		return true
	}
	for _, r := range c.NitsRanges {
		if nits >= r.Min && nits <= r.Max {
			return true
		}
	}
	return false
}

// OverrideState is a snapshot of the platform override object
type OverrideState struct {
	Capabilities Capabilities
	// Whether an override may currently be requested
	CanOverride bool
	// Whether an override is currently applied
	Active bool
}
