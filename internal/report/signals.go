package report

// Signal names, in the order they are declared and rendered.
const (
	SignalBasic         = "basic"
	SignalHardware      = "hardware"
	SignalScreen        = "screen"
	SignalGraphics      = "graphics"
	SignalNetwork       = "network"
	SignalIdentity      = "identity"
	SignalGeolocation   = "geolocation"
	SignalContentFilter = "content_filter"
	SignalPrivacyMode   = "privacy_mode"
	SignalBattery       = "battery"
	SignalPermissions   = "permissions"
	SignalStorage       = "storage"
	SignalMediaDevices  = "media_devices"
)

// Declared lists every signal a full run produces.
var Declared = []string{
	SignalBasic,
	SignalHardware,
	SignalScreen,
	SignalGraphics,
	SignalNetwork,
	SignalIdentity,
	SignalGeolocation,
	SignalContentFilter,
	SignalPrivacyMode,
	SignalBattery,
	SignalPermissions,
	SignalStorage,
	SignalMediaDevices,
}
