package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProbeFile is the optional YAML tuning file. Unset keys keep the value
// from the environment.
type ProbeFile struct {
	ProbeTimeout     time.Duration `yaml:"probe_timeout"`
	RunTimeout       time.Duration `yaml:"run_timeout"`
	Concurrency      *int          `yaml:"concurrency"`
	QuotaThresholdMB int           `yaml:"privacy_quota_threshold_mb"`
	IPProvider       string        `yaml:"ip_provider"`

	ContentFilter struct {
		ControlHost string   `yaml:"control_host"`
		BaitHosts   []string `yaml:"bait_hosts"`
		BlockedURL  string   `yaml:"blocked_url"`
	} `yaml:"content_filter"`

	Toggles struct {
		AttemptGeolocation     *bool `yaml:"attempt_geolocation"`
		EnumerateDevices       *bool `yaml:"enumerate_devices"`
		IncludePermissions     *bool `yaml:"include_permissions"`
		IncludeStorageEstimate *bool `yaml:"include_storage_estimate"`
	} `yaml:"toggles"`
}

func LoadProbeFile(path string) (ProbeFile, error) {
	var pf ProbeFile
	f, err := os.Open(path)
	if err != nil {
		return pf, fmt.Errorf("open probe config: %w", err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return pf, fmt.Errorf("read probe config: %w", err)
	}
	if err := yaml.Unmarshal(content, &pf); err != nil {
		return pf, fmt.Errorf("parse probe config: %w", err)
	}
	return pf, nil
}

func (pf ProbeFile) Apply(c *Config) {
	if pf.ProbeTimeout > 0 {
		c.ProbeTimeoutMS = int(pf.ProbeTimeout / time.Millisecond)
	}
	if pf.RunTimeout > 0 {
		c.RunTimeoutMS = int(pf.RunTimeout / time.Millisecond)
	}
	if pf.Concurrency != nil {
		c.MaxConcurrentProbes = *pf.Concurrency
	}
	if pf.QuotaThresholdMB > 0 {
		c.PrivacyQuotaMB = pf.QuotaThresholdMB
	}
	if pf.IPProvider != "" {
		c.IPProvider = pf.IPProvider
	}

	cf := pf.ContentFilter
	if cf.ControlHost != "" {
		c.ControlHost = cf.ControlHost
	}
	if cf.BaitHosts != nil {
		c.BaitHosts = cf.BaitHosts
	}
	if cf.BlockedURL != "" {
		c.BlockedURL = cf.BlockedURL
	}

	setBool(&c.AttemptGeolocation, pf.Toggles.AttemptGeolocation)
	setBool(&c.EnumerateDevices, pf.Toggles.EnumerateDevices)
	setBool(&c.IncludePermissions, pf.Toggles.IncludePermissions)
	setBool(&c.IncludeStorageEstimate, pf.Toggles.IncludeStorageEstimate)
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
