package capability

import (
	"strings"

	"golang.org/x/text/language"
)

// BrowserFromUA maps a user-agent string to a browser family. Order matters:
// Edge and Opera also advertise Chrome, and Chrome advertises Safari.
func BrowserFromUA(ua string) string {
	u := strings.ToLower(ua)
	switch {
	case u == "":
		return ""
	case strings.Contains(u, "edg/"):
		return "Edge"
	case strings.Contains(u, "opr/") || strings.Contains(u, "opera"):
		return "Opera"
	case strings.Contains(u, "chrome") && !strings.Contains(u, "chromium"):
		return "Chrome"
	case strings.Contains(u, "firefox"):
		return "Firefox"
	case strings.Contains(u, "safari"):
		return "Safari"
	default:
		return ua
	}
}

// NormalizeLanguage canonicalizes a BCP 47 tag ("en_us" -> "en-US"). POSIX
// locale suffixes such as ".UTF-8" are dropped. Unparseable input is
// returned unchanged.
func NormalizeLanguage(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "" || s == "C" || s == "POSIX" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return raw
	}
	return tag.String()
}

// NormalizeConnection folds the many connection type spellings into WiFi,
// Cellular or Ethernet; anything else is passed through.
func NormalizeConnection(raw string) string {
	nt := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case nt == "" || nt == "unknown":
		return ""
	case strings.Contains(nt, "wifi") || strings.Contains(nt, "wlan"):
		return "WiFi"
	case strings.Contains(nt, "cell") || strings.Contains(nt, "wwan") || strings.Contains(nt, "mobile"),
		nt == "2g", nt == "3g", nt == "4g", nt == "5g", nt == "slow-2g":
		return "Cellular"
	case strings.Contains(nt, "ethernet"):
		return "Ethernet"
	default:
		return nt
	}
}
