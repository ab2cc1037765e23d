package capability

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

var cookieProbeURL = &url.URL{Scheme: "https", Host: "probe.envprobe.test", Path: "/"}

// CookieRoundTrip writes a cookie into a fresh public-suffix aware jar and
// reads it back, mirroring the browser's document.cookie check.
func CookieRoundTrip(ctx context.Context) error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return err
	}
	jar.SetCookies(cookieProbeURL, []*http.Cookie{{Name: "abctest", Value: "1", Path: "/"}})
	for _, c := range jar.Cookies(cookieProbeURL) {
		if c.Name == "abctest" && c.Value == "1" {
			return nil
		}
	}
	return errors.New("cookie not readable after write")
}
