package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr     string `env:"API_ADDR" envDefault:"127.0.0.1:8080"` // "127.0.0.1:8080" (Windows) or ":8080" (Docker)
	LogDir   string `env:"LOG_DIR" envDefault:"logs"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// API access
	PublicAPIKeys  []string `env:"PUBLIC_API_KEYS" envSeparator:","`
	AdminAPIKeys   []string `env:"ADMIN_API_KEYS" envSeparator:","`
	PublicRPM      int      `env:"PUBLIC_RPM" envDefault:"30"`
	PublicBurst    int      `env:"PUBLIC_BURST" envDefault:"5"`
	AdminRPM       int      `env:"ADMIN_RPM" envDefault:"600"`
	AdminBurst     int      `env:"ADMIN_BURST" envDefault:"50"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Delivery
	DeliveryEnabled bool   `env:"DELIVERY_ENABLED" envDefault:"true"`
	TelegramToken   string `env:"TELEGRAM_TOKEN"`
	TelegramAPIBase string `env:"TELEGRAM_API_BASE" envDefault:"https://api.telegram.org"`
	SlackWebhook    string `env:"SLACK_WEBHOOK"`

	// Network identity providers
	IPProvider  string `env:"IP_PROVIDER" envDefault:"ipinfo"`
	IPInfoToken string `env:"IPINFO_TOKEN"`
	IPInfoBase  string `env:"IPINFO_BASE" envDefault:"https://ipinfo.io"`
	IPifyURL    string `env:"IPIFY_URL" envDefault:"https://api.ipify.org?format=json"`

	// Probe tuning
	HTTPTimeout            time.Duration // resolved from the _MS fields
	ProbeTimeout           time.Duration
	RunTimeout             time.Duration
	HTTPTimeoutMS          int           `env:"HTTP_TIMEOUT_MS" envDefault:"2500"`
	ProbeTimeoutMS         int           `env:"PROBE_TIMEOUT_MS" envDefault:"3000"`
	RunTimeoutMS           int           `env:"RUN_TIMEOUT_MS" envDefault:"15000"`
	MaxConcurrentProbes    int           `env:"MAX_CONCURRENT_PROBES" envDefault:"0"`
	PrivacyQuotaMB         int           `env:"PRIVACY_QUOTA_THRESHOLD_MB" envDefault:"120"`
	AttemptGeolocation     bool          `env:"ATTEMPT_GEOLOCATION" envDefault:"true"`
	EnumerateDevices       bool          `env:"ENUMERATE_DEVICES" envDefault:"true"`
	IncludePermissions     bool          `env:"INCLUDE_PERMISSIONS" envDefault:"true"`
	IncludeStorageEstimate bool          `env:"INCLUDE_STORAGE_ESTIMATE" envDefault:"true"`

	// Content-filter probes on the host.
	ControlHost string   `env:"CONTROL_HOST" envDefault:"example.com"`
	BaitHosts   []string `env:"BAIT_HOSTS" envSeparator:"," envDefault:"pagead2.googlesyndication.com,doubleclick.net"`
	BlockedURL  string   `env:"BLOCKED_URL" envDefault:"https://pagead2.googlesyndication.com/pagead/js/adsbygoogle.js"`
	StateDir    string   `env:"STATE_DIR"`

	ProbeConfig  string `env:"PROBE_CONFIG"` // optional YAML tuning file
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads the environment, then the PROBE_CONFIG file if one is set.
// File values override the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ProbeConfig != "" {
		f, err := LoadProbeFile(cfg.ProbeConfig)
		if err != nil {
			return Config{}, err
		}
		f.Apply(&cfg)
	}
	cfg.resolve()
	return cfg, nil
}

// FromEnv is Load without the error: a bad value falls back to defaults.
func FromEnv() Config {
	cfg, err := Load()
	if err != nil {
		cfg = Config{}
		_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
		cfg.resolve()
	}
	return cfg
}

func (c *Config) resolve() {
	c.HTTPTimeout = ms(c.HTTPTimeoutMS, 2500)
	c.ProbeTimeout = ms(c.ProbeTimeoutMS, 3000)
	c.RunTimeout = ms(c.RunTimeoutMS, 15000)
	if c.MaxConcurrentProbes < 0 {
		c.MaxConcurrentProbes = 0
	}
	if c.PrivacyQuotaMB <= 0 {
		c.PrivacyQuotaMB = 120
	}
	if c.IPProvider != "ipify" {
		c.IPProvider = "ipinfo"
	}
}

func ms(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Millisecond
}
