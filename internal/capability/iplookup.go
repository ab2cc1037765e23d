package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/envprobe/internal/domain"
)

// IPLookup resolves the network identity of a client through public
// IP-information services.
type IPLookup struct {
	Client *http.Client
}

func NewIPLookup(timeout time.Duration) *IPLookup {
	return &IPLookup{
		Client: &http.Client{Timeout: timeout},
	}
}

type ipinfoResponse struct {
	IP       string `json:"ip"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Org      string `json:"org"`
	Loc      string `json:"loc"`
	Timezone string `json:"timezone"`
}

// IPInfo queries an ipinfo.io compatible endpoint. An empty ip asks about
// the caller's own address.
func (l *IPLookup) IPInfo(base, token, ip string) IdentityLookup {
	return IdentityLookup{
		Name: "ipinfo",
		Lookup: func(ctx context.Context) (domain.Identity, error) {
			u := strings.TrimRight(base, "/")
			if ip != "" {
				u += "/" + url.PathEscape(ip)
			}
			u += "/json"
			if token != "" {
				u += "?token=" + url.QueryEscape(token)
			}

			var r ipinfoResponse
			if err := l.fetchJSON(ctx, u, &r); err != nil {
				return domain.Identity{}, fmt.Errorf("ipinfo: %w", err)
			}
			if r.IP == "" {
				return domain.Identity{}, errors.New("ipinfo: empty ip")
			}
			return domain.Identity{
				IP:       r.IP,
				City:     r.City,
				Region:   r.Region,
				Country:  r.Country,
				Org:      r.Org,
				Loc:      r.Loc,
				Timezone: r.Timezone,
				Source:   "ipinfo",
			}, nil
		},
	}
}

// IPify only learns the public address; location fields stay empty.
func (l *IPLookup) IPify(endpoint string) IdentityLookup {
	return IdentityLookup{
		Name: "ipify",
		Lookup: func(ctx context.Context) (domain.Identity, error) {
			var r struct {
				IP string `json:"ip"`
			}
			if err := l.fetchJSON(ctx, endpoint, &r); err != nil {
				return domain.Identity{}, fmt.Errorf("ipify: %w", err)
			}
			if r.IP == "" {
				return domain.Identity{}, errors.New("ipify: empty ip")
			}
			return domain.Identity{IP: r.IP, Source: "ipify"}, nil
		},
	}
}

// KnownIP is the last-resort provider when the address is already known
// (the remote address of an API request).
func KnownIP(ip string) IdentityLookup {
	return IdentityLookup{
		Name: "remote_addr",
		Lookup: func(ctx context.Context) (domain.Identity, error) {
			if ip == "" {
				return domain.Identity{}, errors.New("remote address unknown")
			}
			return domain.Identity{IP: ip, Source: "remote_addr"}, nil
		},
	}
}

func (l *IPLookup) fetchJSON(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// PositionFromLoc parses an ipinfo "lat,lon" pair.
func PositionFromLoc(loc string) (domain.Position, error) {
	lat, lon, ok := strings.Cut(loc, ",")
	if !ok {
		return domain.Position{}, fmt.Errorf("malformed loc %q", loc)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return domain.Position{}, fmt.Errorf("latitude: %w", err)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return domain.Position{}, fmt.Errorf("longitude: %w", err)
	}
	if la < -90 || la > 90 || lo < -180 || lo > 180 {
		return domain.Position{}, fmt.Errorf("loc out of range %q", loc)
	}
	return domain.Position{Latitude: la, Longitude: lo, Source: "ip"}, nil
}
