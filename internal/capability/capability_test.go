package capability

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/envprobe/internal/domain"
	"github.com/hamed0406/envprobe/internal/probe"
)

type fakeResolver map[string][]string

func (f fakeResolver) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	ips, ok := f[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	out := make([]netip.Addr, 0, len(ips))
	for _, s := range ips {
		out = append(out, netip.MustParseAddr(s))
	}
	return out, nil
}

func TestCheckDNS_Classes(t *testing.T) {
	r := fakeResolver{
		"example.com":   {"93.184.215.14"},
		"ads.example":   {"0.0.0.0"},
		"track.example": {"::"},
		"local.example": {"127.0.0.1", "::1"},
	}
	cases := map[string]string{
		"example.com":     DNSResolves,
		"ads.example":     DNSSinkholed,
		"track.example":   DNSSinkholed,
		"local.example":   DNSSinkholed,
		"missing.example": DNSNXDomain,
		"":                DNSInvalidName,
		"https://x":       DNSInvalidName,
	}
	for host, want := range cases {
		if got := CheckDNS(context.Background(), r, host).Class; got != want {
			t.Fatalf("CheckDNS(%q)=%s want %s", host, got, want)
		}
	}
}

func TestBaitHiddenByDNS(t *testing.T) {
	ctx := context.Background()

	blocked := fakeResolver{"example.com": {"93.184.215.14"}, "ads.example": {"0.0.0.0"}}
	hidden, err := BaitHiddenByDNS(blocked, "example.com", []string{"ads.example"})(ctx)
	require.NoError(t, err)
	assert.True(t, hidden)

	open := fakeResolver{"example.com": {"93.184.215.14"}, "ads.example": {"142.250.1.1"}}
	hidden, err = BaitHiddenByDNS(open, "example.com", []string{"ads.example"})(ctx)
	require.NoError(t, err)
	assert.False(t, hidden)

	// offline: control fails, so the check is inconclusive rather than positive
	_, err = BaitHiddenByDNS(fakeResolver{}, "example.com", []string{"ads.example"})(ctx)
	assert.Error(t, err)
}

func TestFromDescriptor_OnlyPresentSections(t *testing.T) {
	yes, no := true, false
	d := domain.Descriptor{
		Basic:       &domain.Basic{UserAgent: "Mozilla/5.0 (X11) Gecko/20100101 Firefox/128.0", Language: "en_us"},
		Network:     &domain.Network{RawType: "wifi", Online: true},
		Permissions: domain.Permissions{"geolocation": domain.PermissionDenied},
		Probes:      &domain.ProbeObservations{BaitHidden: &yes, CookieRoundTrip: &no, StoreWriteOK: &yes},
	}
	s := FromDescriptor(d)
	ctx := context.Background()

	require.NotNil(t, s.Basic)
	b, _ := s.Basic(ctx)
	assert.Equal(t, "Firefox", b.Browser)
	assert.Equal(t, "en-US", b.Language)

	n, _ := s.Network(ctx)
	assert.Equal(t, "WiFi", n.Type)

	assert.Nil(t, s.Hardware)
	assert.Nil(t, s.Screen)
	assert.Nil(t, s.BlockedFetch)

	_, err := s.PreciseLocation(ctx)
	assert.ErrorIs(t, err, probe.ErrDenied)

	_, err = s.Permission(ctx, "camera")
	assert.ErrorIs(t, err, errors.ErrUnsupported)

	hidden, _ := s.BaitHidden(ctx)
	assert.True(t, hidden)
	assert.Error(t, s.CookieRoundTrip(ctx))

	require.NoError(t, s.PersistentStore.Put(ctx, "k", "v"))
	v, err := s.PersistentStore.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestMerge_PrimaryWins(t *testing.T) {
	primary := Sources{Hardware: constant(domain.Hardware{CPUCores: 2})}
	fallback := Sources{
		Hardware: constant(domain.Hardware{CPUCores: 64}),
		Battery:  constant(domain.Battery{Level: 0.4}),
		Identity: []IdentityLookup{KnownIP("198.51.100.2")},
	}
	m := Merge(primary, fallback)

	hw, _ := m.Hardware(context.Background())
	assert.Equal(t, 2, hw.CPUCores)
	require.NotNil(t, m.Battery)
	assert.Len(t, m.Identity, 1)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Edge", BrowserFromUA("Mozilla/5.0 Chrome/126.0 Safari/537.36 Edg/126.0"))
	assert.Equal(t, "Opera", BrowserFromUA("Mozilla/5.0 Chrome/126.0 Safari/537.36 OPR/111.0"))
	assert.Equal(t, "Chrome", BrowserFromUA("Mozilla/5.0 Chrome/126.0 Safari/537.36"))
	assert.Equal(t, "Safari", BrowserFromUA("Mozilla/5.0 Version/17.5 Safari/605.1.15"))

	assert.Equal(t, "de-DE", NormalizeLanguage("de_DE.UTF-8"))
	assert.Equal(t, "", NormalizeLanguage("C"))

	assert.Equal(t, "Cellular", NormalizeConnection("4g"))
	assert.Equal(t, "Ethernet", NormalizeConnection("ethernet"))
	assert.Equal(t, "bluetooth", NormalizeConnection("Bluetooth"))
	assert.Equal(t, "", NormalizeConnection("unknown"))
}

func TestHostReaders(t *testing.T) {
	root := t.TempDir()

	proc := filepath.Join(root, "proc")
	require.NoError(t, os.MkdirAll(proc, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(proc, "meminfo"),
		[]byte("MemTotal:       16318480 kB\nMemFree:  1 kB\n"), 0o644))

	bat := filepath.Join(root, "sys", "class", "power_supply", "BAT0")
	require.NoError(t, os.MkdirAll(bat, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bat, "capacity"), []byte("87\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(bat, "status"), []byte("Discharging\n"), 0o644))

	hw, err := hostHardware(proc)
	require.NoError(t, err)
	assert.Equal(t, uint64(16318480*1024), hw.MemoryBytes)
	assert.Positive(t, hw.CPUCores)

	b, err := hostBattery(filepath.Join(root, "sys"))
	require.NoError(t, err)
	assert.InDelta(t, 0.87, b.Level, 1e-9)
	assert.False(t, b.Charging)

	_, err = hostBattery(t.TempDir())
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore(filepath.Join(t.TempDir(), "state"))

	require.NoError(t, fs.Put(ctx, "probe-1", "token"))
	v, err := fs.Get(ctx, "probe-1")
	require.NoError(t, err)
	assert.Equal(t, "token", v)
	require.NoError(t, fs.Delete(ctx, "probe-1"))

	_, err = fs.Get(ctx, "probe-1")
	assert.Error(t, err)
	assert.Error(t, fs.Put(ctx, "../escape", "x"))
}

func TestCookieRoundTrip(t *testing.T) {
	assert.NoError(t, CookieRoundTrip(context.Background()))
}
