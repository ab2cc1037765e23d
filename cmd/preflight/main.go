// cmd/preflight/main.go
package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hamed0406/envprobe/internal/config"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load()
	if err != nil {
		fail(err.Error())
	}

	if len(cfg.AdminAPIKeys) == 0 {
		warn("ADMIN_API_KEYS is empty (admin routes are open).")
	}
	if len(cfg.PublicAPIKeys) == 0 {
		warn("PUBLIC_API_KEYS is empty (anyone can submit reports).")
	}
	for name, keys := range map[string][]string{"ADMIN_API_KEYS": cfg.AdminAPIKeys, "PUBLIC_API_KEYS": cfg.PublicAPIKeys} {
		for _, k := range keys {
			if strings.TrimSpace(k) != k || k == "" {
				warn(name + " contains spaces or empty entries; use comma-separated with no spaces, e.g. key1,key2")
				break
			}
		}
	}

	ok("API_ADDR=" + cfg.Addr)

	if !cfg.DeliveryEnabled {
		warn("DELIVERY_ENABLED=false — reports are produced but never sent.")
	} else {
		if cfg.TelegramToken == "" && cfg.SlackWebhook == "" {
			fail("no delivery channel: set TELEGRAM_TOKEN or SLACK_WEBHOOK (or DELIVERY_ENABLED=false).")
		}
		if cfg.TelegramToken != "" {
			if !strings.Contains(cfg.TelegramToken, ":") {
				fail("TELEGRAM_TOKEN does not look like a bot token (<id>:<secret>).")
			}
			ok("TELEGRAM_TOKEN present")
		}
		if cfg.SlackWebhook != "" {
			if u, err := url.Parse(cfg.SlackWebhook); err != nil || u.Scheme != "https" {
				fail("SLACK_WEBHOOK must be an https URL.")
			}
			ok("SLACK_WEBHOOK present")
		}
	}

	if cfg.IPProvider == "ipinfo" && cfg.IPInfoToken == "" {
		warn("IPINFO_TOKEN empty — ipinfo.io applies anonymous rate limits.")
	}

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty — CORS allows every origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if cfg.ProbeConfig != "" {
		ok("PROBE_CONFIG=" + cfg.ProbeConfig)
	}

	ok("preflight passed")
}
