package capability

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/envprobe/internal/domain"
)

// HostOptions configures the sources that read the local machine.
type HostOptions struct {
	StateDir    string // where the persistent-store probe writes; defaults to os.TempDir()
	ControlHost string
	BaitHosts   []string
	BlockedURL  string
	HTTPTimeout time.Duration
	Resolver    Resolver

	// Root of the sysfs/procfs trees; overridden in tests.
	SysRoot  string
	ProcRoot string
}

// Host returns sources backed by this machine. Browser-only capabilities
// (screen, WebGL, precise location, media devices) are left absent.
func Host(opts HostOptions) Sources {
	if opts.StateDir == "" {
		opts.StateDir = os.TempDir()
	}
	if opts.SysRoot == "" {
		opts.SysRoot = "/sys"
	}
	if opts.ProcRoot == "" {
		opts.ProcRoot = "/proc"
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 2 * time.Second
	}
	client := &http.Client{Timeout: opts.HTTPTimeout}

	s := Sources{
		Basic:           hostBasic,
		Hardware:        func(ctx context.Context) (domain.Hardware, error) { return hostHardware(opts.ProcRoot) },
		Battery:         func(ctx context.Context) (domain.Battery, error) { return hostBattery(opts.SysRoot) },
		Network:         func(ctx context.Context) (domain.Network, error) { return hostNetwork(opts.SysRoot) },
		StorageEstimate: func(ctx context.Context) (domain.StorageEstimate, error) { return diskEstimate(opts.StateDir) },
		PersistentStore: NewFileStore(filepath.Join(opts.StateDir, ".envprobe")),
		CookieRoundTrip: CookieRoundTrip,
	}

	bait := opts.BaitHosts
	if opts.BlockedURL != "" {
		bait = append(append([]string(nil), bait...), extractHost(opts.BlockedURL))
		s.BlockedFetch = blockedFetch(client, opts.BlockedURL)
	}
	if len(bait) > 0 && opts.ControlHost != "" {
		s.BaitHidden = BaitHiddenByDNS(opts.Resolver, opts.ControlHost, bait)
	}
	return s
}

func hostBasic(ctx context.Context) (domain.Basic, error) {
	lang := ""
	for _, k := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(k); v != "" {
			lang = v
			break
		}
	}
	tz := time.Local.String()
	if tz == "Local" {
		if v := os.Getenv("TZ"); v != "" {
			tz = v
		}
	}
	return domain.Basic{
		UserAgent: fmt.Sprintf("envprobe (%s; %s) %s", runtime.GOOS, runtime.GOARCH, runtime.Version()),
		Browser:   "none",
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Language:  NormalizeLanguage(lang),
		Timezone:  tz,
	}, nil
}

func hostHardware(procRoot string) (domain.Hardware, error) {
	hw := domain.Hardware{CPUCores: runtime.NumCPU()}
	mem, err := memTotal(filepath.Join(procRoot, "meminfo"))
	if err == nil {
		hw.MemoryBytes = mem
	}
	return hw, nil
}

func memTotal(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		// MemTotal:       16318480 kB
		fields := strings.Fields(sc.Text())
		if len(fields) >= 2 && fields[0] == "MemTotal:" {
			kb, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return 0, err
			}
			return kb * 1024, nil
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, errors.New("MemTotal not found")
}

func hostBattery(sysRoot string) (domain.Battery, error) {
	matches, _ := filepath.Glob(filepath.Join(sysRoot, "class", "power_supply", "BAT*"))
	if len(matches) == 0 {
		return domain.Battery{}, errors.ErrUnsupported
	}
	dir := matches[0]
	capRaw, err := os.ReadFile(filepath.Join(dir, "capacity"))
	if err != nil {
		return domain.Battery{}, fmt.Errorf("battery capacity: %w", err)
	}
	pct, err := strconv.Atoi(strings.TrimSpace(string(capRaw)))
	if err != nil {
		return domain.Battery{}, fmt.Errorf("battery capacity: %w", err)
	}
	status, _ := os.ReadFile(filepath.Join(dir, "status"))
	st := strings.TrimSpace(string(status))
	return domain.Battery{
		Level:    float64(pct) / 100,
		Charging: st == "Charging" || st == "Full",
	}, nil
}

func hostNetwork(sysRoot string) (domain.Network, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return domain.Network{}, err
	}
	var n domain.Network
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagUp == 0 || ifc.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := ifc.Addrs()
		if len(addrs) == 0 {
			continue
		}
		n.Online = true
		if n.RawType == "" {
			n.RawType = interfaceKind(sysRoot, ifc.Name)
		}
	}
	n.Type = NormalizeConnection(n.RawType)
	return n, nil
}

// interfaceKind guesses the medium from sysfs, falling back to the usual
// predictable interface name prefixes.
func interfaceKind(sysRoot, name string) string {
	if _, err := os.Stat(filepath.Join(sysRoot, "class", "net", name, "wireless")); err == nil {
		return "wifi"
	}
	switch {
	case strings.HasPrefix(name, "wl"):
		return "wifi"
	case strings.HasPrefix(name, "ww"):
		return "wwan"
	case strings.HasPrefix(name, "en"), strings.HasPrefix(name, "eth"):
		return "ethernet"
	default:
		return name
	}
}

func blockedFetch(client *http.Client, target string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	}
}
