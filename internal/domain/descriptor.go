package domain

// Descriptor is an environment snapshot collected on the client side and
// submitted with consent. Nil sections mean the client could not (or chose
// not to) collect them.
type Descriptor struct {
	Basic        *Basic           `json:"basic,omitempty"`
	Hardware     *Hardware        `json:"hardware,omitempty"`
	Screen       *Screen          `json:"screen,omitempty"`
	Graphics     *Graphics        `json:"graphics,omitempty"`
	Battery      *Battery         `json:"battery,omitempty"`
	Network      *Network         `json:"network,omitempty"`
	Position     *Position        `json:"position,omitempty"`
	Storage      *StorageEstimate `json:"storage,omitempty"`
	MediaDevices *MediaDevices    `json:"media_devices,omitempty"`
	Permissions  Permissions      `json:"permissions,omitempty"`

	// Raw heuristic observations; the detectors interpret them.
	Probes *ProbeObservations `json:"probes,omitempty"`
}

// ProbeObservations are the low-level results a client gathered for the
// privacy-mode and content-filter detectors. Pointers distinguish "not
// checked" from a false observation.
type ProbeObservations struct {
	BaitHidden        *bool   `json:"bait_hidden,omitempty"`
	BlockedFetchError *string `json:"blocked_fetch_error,omitempty"`
	BlockedFetchDone  *bool   `json:"blocked_fetch_done,omitempty"`
	BlockerLibrary    *bool   `json:"blocker_library,omitempty"`
	CookieRoundTrip   *bool   `json:"cookie_round_trip,omitempty"`
	StoreWriteOK      *bool   `json:"store_write_ok,omitempty"`
	LegacyQuotaOK     *bool   `json:"legacy_quota_ok,omitempty"`
}
