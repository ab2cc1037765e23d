package capability

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// DNS classes reported by CheckDNS.
const (
	DNSResolves    = "RESOLVES"
	DNSSinkholed   = "SINKHOLED"
	DNSNXDomain    = "NXDOMAIN"
	DNSServfail    = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName = "INVALID_NAME"
)

type DNSStatus struct {
	Domain        string
	Addrs         []netip.Addr
	Class         string
	ResolverError string
}

// Resolver is the subset of *net.Resolver CheckDNS needs.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// CheckDNS classifies how the local resolver answers for domain. Filtering
// resolvers (Pi-hole, AdGuard, hosts-file blocklists) answer ad hosts with
// 0.0.0.0 / :: / loopback, which is reported as SINKHOLED.
func CheckDNS(ctx context.Context, r Resolver, domain string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(domain)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") {
		s.Class = DNSInvalidName
		return s
	}
	if r == nil {
		r = net.DefaultResolver
	}

	addrs, err := r.LookupNetIP(ctx, "ip", s.Domain)
	if err != nil {
		s.ResolverError = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) && de.IsNotFound {
			s.Class = DNSNXDomain
		} else {
			s.Class = DNSServfail
		}
		return s
	}
	s.Addrs = addrs
	if len(addrs) == 0 {
		s.Class = DNSNXDomain
		return s
	}

	s.Class = DNSSinkholed
	for _, a := range addrs {
		a = a.Unmap()
		if !a.IsUnspecified() && !a.IsLoopback() {
			s.Class = DNSResolves
			break
		}
	}
	return s
}

// BaitHiddenByDNS reports whether the resolver hides any of the bait hosts.
// A blocked bait only counts when the control host resolves normally;
// otherwise the machine is simply offline and the check is inconclusive.
func BaitHiddenByDNS(r Resolver, control string, bait []string) func(ctx context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		if len(bait) == 0 {
			return false, errors.ErrUnsupported
		}
		if c := CheckDNS(ctx, r, control); c.Class != DNSResolves {
			return false, errors.New("control host " + control + ": " + c.Class)
		}
		for _, h := range bait {
			switch CheckDNS(ctx, r, h).Class {
			case DNSSinkholed, DNSNXDomain:
				return true, nil
			}
		}
		return false, nil
	}
}

func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
