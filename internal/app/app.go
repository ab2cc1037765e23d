// Package app turns a config.Config into the collector, sinks and
// capability sources the commands run with.
package app

import (
	"net"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/hamed0406/envprobe/internal/capability"
	"github.com/hamed0406/envprobe/internal/collector"
	"github.com/hamed0406/envprobe/internal/config"
	"github.com/hamed0406/envprobe/internal/detect"
	"github.com/hamed0406/envprobe/internal/notify"
)

func Tuning(cfg config.Config) collector.Tuning {
	return collector.Tuning{
		ProbeTimeout: cfg.ProbeTimeout,
		RunTimeout:   cfg.RunTimeout,
		Concurrency:  cfg.MaxConcurrentProbes,
		Privacy: detect.PrivacyConfig{
			QuotaThreshold: uint64(cfg.PrivacyQuotaMB) * humanize.MiByte,
		},
		AttemptGeolocation:     cfg.AttemptGeolocation,
		EnumerateDevices:       cfg.EnumerateDevices,
		IncludePermissions:     cfg.IncludePermissions,
		IncludeStorageEstimate: cfg.IncludeStorageEstimate,
		IPProvider:             cfg.IPProvider,
	}
}

// Sink returns every configured delivery channel. With delivery switched
// off, or nothing configured, reports are produced but not sent.
func Sink(cfg config.Config) notify.Sink {
	if !cfg.DeliveryEnabled {
		return notify.Disabled{}
	}
	var sinks notify.Multi
	if tg := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramAPIBase); tg != nil {
		sinks = append(sinks, tg)
	}
	if sl := notify.NewSlack(cfg.SlackWebhook); sl != nil {
		sinks = append(sinks, sl)
	}
	switch len(sinks) {
	case 0:
		return notify.Disabled{}
	case 1:
		return sinks[0]
	}
	return sinks
}

func NewCollector(cfg config.Config, logger *zap.Logger, sink notify.Sink) *collector.Collector {
	return collector.New(logger, sink, Tuning(cfg))
}

// HostSources probes the machine the binary runs on. The identity chain
// asks the preferred provider for our own public address.
func HostSources(cfg config.Config) capability.Sources {
	src := capability.Host(capability.HostOptions{
		StateDir:    cfg.StateDir,
		ControlHost: cfg.ControlHost,
		BaitHosts:   cfg.BaitHosts,
		BlockedURL:  cfg.BlockedURL,
		HTTPTimeout: cfg.HTTPTimeout,
		Resolver:    net.DefaultResolver,
	})
	ipl := capability.NewIPLookup(cfg.HTTPTimeout)
	src.Identity = []capability.IdentityLookup{
		ipl.IPInfo(cfg.IPInfoBase, cfg.IPInfoToken, ""),
		ipl.IPify(cfg.IPifyURL),
	}
	return src
}

// ServerSources is what the API can add for a remote client: its network
// identity, looked up by the address it connected from. Asking ipify here
// would return the server's own address, so the fallback is the bare
// remote address.
func ServerSources(cfg config.Config) func(clientIP string) capability.Sources {
	ipl := capability.NewIPLookup(cfg.HTTPTimeout)
	return func(clientIP string) capability.Sources {
		return capability.Sources{
			Identity: []capability.IdentityLookup{
				ipl.IPInfo(cfg.IPInfoBase, cfg.IPInfoToken, clientIP),
				capability.KnownIP(clientIP),
			},
		}
	}
}

// Timeout bounds a whole CLI or request run: the run budget plus delivery.
func Timeout(cfg config.Config) time.Duration {
	return cfg.RunTimeout + 4*cfg.HTTPTimeout
}
