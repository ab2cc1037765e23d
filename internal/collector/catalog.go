package collector

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hamed0406/envprobe/internal/capability"
	"github.com/hamed0406/envprobe/internal/detect"
	"github.com/hamed0406/envprobe/internal/domain"
	"github.com/hamed0406/envprobe/internal/probe"
	"github.com/hamed0406/envprobe/internal/report"
)

// PermissionNames are the permissions queried by the permissions probe.
var PermissionNames = []string{"camera", "microphone", "notifications", "geolocation"}

// Tuning controls which probes run and how long each may take.
type Tuning struct {
	ProbeTimeout time.Duration
	RunTimeout   time.Duration
	Concurrency  int

	Privacy detect.PrivacyConfig

	AttemptGeolocation     bool
	EnumerateDevices       bool
	IncludePermissions     bool
	IncludeStorageEstimate bool
	// IPProvider names the identity provider tried first ("ipinfo" or "ipify").
	IPProvider string
}

func DefaultTuning() Tuning {
	return Tuning{
		ProbeTimeout:           3 * time.Second,
		RunTimeout:             15 * time.Second,
		AttemptGeolocation:     true,
		EnumerateDevices:       true,
		IncludePermissions:     true,
		IncludeStorageEstimate: true,
		IPProvider:             "ipinfo",
	}
}

// Catalog builds one unit per declared signal, in report.Declared order.
func Catalog(src capability.Sources, t Tuning) []probe.Unit {
	timeout := t.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultTuning().ProbeTimeout
	}
	p := func(name string, fn probe.RunFunc) probe.Unit {
		return probe.New(name, timeout, fn)
	}

	ident := &sharedIdentity{chain: identityChain(src.Identity, t.IPProvider, timeout)}
	// the chain's candidates each get their own timeout, so the outer
	// probes allow for all of them
	chainBudget := timeout * time.Duration(max(1, len(src.Identity)))

	return []probe.Unit{
		p(report.SignalBasic, lift(src.Basic)),
		p(report.SignalHardware, lift(src.Hardware)),
		p(report.SignalScreen, lift(src.Screen)),
		p(report.SignalGraphics, lift(src.Graphics)),
		p(report.SignalNetwork, lift(src.Network)),
		probe.New(report.SignalIdentity, chainBudget, ident.Run),
		newGeolocation(
			p("geolocation.precise", enabled(t.AttemptGeolocation,
				gated(src.Permission, "geolocation", lift(src.PreciseLocation)))),
			probe.New("geolocation.ip", chainBudget, ipPosition(ident)),
		),
		p(report.SignalContentFilter, detect.ContentFilter(src)),
		p(report.SignalPrivacyMode, detect.PrivacyMode(src, t.Privacy)),
		p(report.SignalBattery, lift(src.Battery)),
		p(report.SignalPermissions, enabled(t.IncludePermissions, permissions(src.Permission))),
		p(report.SignalStorage, enabled(t.IncludeStorageEstimate, lift(src.StorageEstimate))),
		p(report.SignalMediaDevices, enabled(t.EnumerateDevices,
			gated(src.Permission, "camera", lift(src.MediaDevices)))),
	}
}

// lift adapts a capability read to a probe function. A nil capability
// is reported as absent.
func lift[T any](fn func(context.Context) (T, error)) probe.RunFunc {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context) probe.Value {
		return probe.From(fn(ctx))
	}
}

func enabled(on bool, fn probe.RunFunc) probe.RunFunc {
	if on {
		return fn
	}
	return func(context.Context) probe.Value { return probe.FromError(probe.ErrDisabled) }
}

// gated resolves to Denied without calling fn when the named permission is
// already denied. Unknown or unqueryable permissions let fn decide.
func gated(perm func(context.Context, string) (domain.PermissionState, error), name string, fn probe.RunFunc) probe.RunFunc {
	if fn == nil || perm == nil {
		return fn
	}
	return func(ctx context.Context) probe.Value {
		if st, err := perm(ctx, name); err == nil && st == domain.PermissionDenied {
			return probe.Denied()
		}
		return fn(ctx)
	}
}

func permissions(perm func(context.Context, string) (domain.PermissionState, error)) probe.RunFunc {
	if perm == nil {
		return nil
	}
	return func(ctx context.Context) probe.Value {
		out := make(domain.Permissions, len(PermissionNames))
		answered := 0
		for _, name := range PermissionNames {
			st, err := perm(ctx, name)
			switch {
			case err == nil:
				answered++
				out[name] = st
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return probe.FromError(err)
			default:
				out[name] = domain.PermissionUnknown
			}
		}
		if answered == 0 {
			return probe.FromError(errors.ErrUnsupported)
		}
		return probe.Ok(out)
	}
}

// identityChain ranks the lookups with the preferred provider first and
// wraps each one in its own timed probe.
func identityChain(lookups []capability.IdentityLookup, preferred string, timeout time.Duration) *probe.Chain {
	ranked := append([]capability.IdentityLookup(nil), lookups...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Name == preferred && ranked[j].Name != preferred
	})
	units := make([]probe.Unit, 0, len(ranked))
	for _, l := range ranked {
		units = append(units, probe.New(l.Name, timeout, lift(l.Lookup)))
	}
	return probe.NewChain(report.SignalIdentity, units...)
}

// sharedIdentity runs the identity chain at most once per run so the
// geolocation fallback can reuse its answer instead of asking again.
type sharedIdentity struct {
	chain *probe.Chain

	once sync.Once
	val  probe.Value
}

func (s *sharedIdentity) Run(ctx context.Context) probe.Value {
	s.once.Do(func() { s.val = s.chain.Run(ctx) })
	return s.val
}

func ipPosition(ident *sharedIdentity) probe.RunFunc {
	return func(ctx context.Context) probe.Value {
		v := ident.Run(ctx)
		id, ok := probe.As[domain.Identity](v)
		if !ok {
			if v.Kind == probe.KindOk {
				return probe.Unavailable("identity has no location")
			}
			return v
		}
		if id.Loc == "" {
			return probe.Unavailable("identity has no location")
		}
		return probe.From(capability.PositionFromLoc(id.Loc))
	}
}

// geolocation is the precise-then-IP chain. A refusal of the precise
// candidate outranks a failed IP fallback, so the report still shows the
// user said no.
type geolocation struct {
	chain   *probe.Chain
	precise *refusal
}

func newGeolocation(precise, fallback probe.Unit) *geolocation {
	r := &refusal{Unit: precise}
	return &geolocation{
		chain:   probe.NewChain(report.SignalGeolocation, r, fallback),
		precise: r,
	}
}

func (g *geolocation) Name() string { return g.chain.Name() }

func (g *geolocation) Run(ctx context.Context) probe.Value {
	v := g.chain.Run(ctx)
	if !v.IsOk() && g.precise.denied.Load() {
		return probe.Denied()
	}
	return v
}

// refusal records whether its unit resolved to Denied.
type refusal struct {
	probe.Unit
	denied atomic.Bool
}

func (r *refusal) Run(ctx context.Context) probe.Value {
	v := r.Unit.Run(ctx)
	r.denied.Store(v.Kind == probe.KindDenied)
	return v
}
