package domain

// TargetID identifies where a report is delivered (a chat id for Telegram).
type TargetID string

// Basic describes the client runtime: browser, platform and locale.
type Basic struct {
	UserAgent string `json:"user_agent,omitempty"`
	Browser   string `json:"browser,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Language  string `json:"language,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
	Pointer   string `json:"pointer,omitempty"` // "Touch" | "Mouse" | "Both"
}

type Hardware struct {
	CPUCores    int    `json:"cpu_cores,omitempty"`
	MemoryBytes uint64 `json:"memory_bytes,omitempty"`
}

type Screen struct {
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	ColorDepth  int     `json:"color_depth,omitempty"`
	PixelRatio  float64 `json:"pixel_ratio,omitempty"`
	Orientation string  `json:"orientation,omitempty"`
}

// Graphics carries the WebGL (or host GPU) renderer description.
type Graphics struct {
	Vendor         string `json:"vendor,omitempty"`
	Renderer       string `json:"renderer,omitempty"`
	MaxTextureSize int    `json:"max_texture_size,omitempty"`
}

// Battery level is a fraction in [0,1].
type Battery struct {
	Level    float64 `json:"level"`
	Charging bool    `json:"charging"`
}

type Network struct {
	RawType       string  `json:"raw_type,omitempty"`
	Type          string  `json:"type,omitempty"` // normalized: WiFi | Cellular | Ethernet | raw
	EffectiveType string  `json:"effective_type,omitempty"`
	DownlinkMbps  float64 `json:"downlink_mbps,omitempty"`
	RTTMillis     int     `json:"rtt_ms,omitempty"`
	SaveData      *bool   `json:"save_data,omitempty"`
	Online        bool    `json:"online"`
}

// Identity is the network identity of the client as seen by an IP lookup
// service. Only IP is guaranteed when the coarse provider answered.
type Identity struct {
	IP       string `json:"ip"`
	City     string `json:"city,omitempty"`
	Region   string `json:"region,omitempty"`
	Country  string `json:"country,omitempty"`
	Org      string `json:"org,omitempty"`
	Loc      string `json:"loc,omitempty"` // "lat,lon"
	Timezone string `json:"timezone,omitempty"`
	Source   string `json:"source,omitempty"`
}

type Position struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"accuracy_m,omitempty"`
	Source         string  `json:"source,omitempty"` // "precise" | "ip"
}

type StorageEstimate struct {
	QuotaBytes uint64 `json:"quota_bytes"`
	UsageBytes uint64 `json:"usage_bytes"`
}

type MediaDevices struct {
	Cameras     int `json:"cameras"`
	Microphones int `json:"microphones"`
	Outputs     int `json:"outputs"`
}

type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
	PermissionUnknown PermissionState = "unknown"
)

// Permissions maps a permission name (camera, microphone, ...) to its state.
type Permissions map[string]PermissionState

type FilterVerdict string

const (
	FilterPositive FilterVerdict = "Positive"
	FilterNegative FilterVerdict = "Negative"
)

// ContentFilter is the ad-blocker detector verdict with the methods that fired.
type ContentFilter struct {
	Detected       FilterVerdict `json:"detected"`
	Methods        []string      `json:"methods"`
	CookiesBlocked bool          `json:"cookies_blocked"`
}

// PrivacyMode is the private-session detector verdict. Method names the
// decisive signal ("quota", "storage", "legacy-quota") when Private is set.
type PrivacyMode struct {
	Private  bool   `json:"private"`
	Method   string `json:"method,omitempty"`
	Evidence string `json:"evidence,omitempty"`
}
