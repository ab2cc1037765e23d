// Package capability holds the injected data sources the probes read from.
// Every field of Sources is optional; a nil field means the capability does
// not exist in this environment.
package capability

import (
	"context"

	"github.com/hamed0406/envprobe/internal/domain"
)

// Store is a small persistent key/value store used by the privacy-mode
// detector to test whether storage survives a write/read/delete cycle.
type Store interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// IdentityLookup is one ranked network-identity provider.
type IdentityLookup struct {
	Name   string
	Lookup func(ctx context.Context) (domain.Identity, error)
}

type Sources struct {
	Basic    func(ctx context.Context) (domain.Basic, error)
	Hardware func(ctx context.Context) (domain.Hardware, error)
	Screen   func(ctx context.Context) (domain.Screen, error)
	Graphics func(ctx context.Context) (domain.Graphics, error)
	Battery  func(ctx context.Context) (domain.Battery, error)
	Network  func(ctx context.Context) (domain.Network, error)

	// Permission reports the state of a named permission without prompting.
	Permission func(ctx context.Context, name string) (domain.PermissionState, error)

	PreciseLocation func(ctx context.Context) (domain.Position, error)
	StorageEstimate func(ctx context.Context) (domain.StorageEstimate, error)
	MediaDevices    func(ctx context.Context) (domain.MediaDevices, error)

	// Identity providers in priority order (precise first, coarse last).
	Identity []IdentityLookup

	// Privacy-mode detector inputs.
	PersistentStore Store
	LegacyQuota     func(ctx context.Context, bytes uint64) error

	// Content-filter detector inputs.
	BaitHidden      func(ctx context.Context) (bool, error)
	BlockedFetch    func(ctx context.Context) error
	BlockerLibrary  func(ctx context.Context) (bool, error)
	CookieRoundTrip func(ctx context.Context) error
}

// Merge returns primary with every absent capability filled from fallback.
func Merge(primary, fallback Sources) Sources {
	out := primary
	if out.Basic == nil {
		out.Basic = fallback.Basic
	}
	if out.Hardware == nil {
		out.Hardware = fallback.Hardware
	}
	if out.Screen == nil {
		out.Screen = fallback.Screen
	}
	if out.Graphics == nil {
		out.Graphics = fallback.Graphics
	}
	if out.Battery == nil {
		out.Battery = fallback.Battery
	}
	if out.Network == nil {
		out.Network = fallback.Network
	}
	if out.Permission == nil {
		out.Permission = fallback.Permission
	}
	if out.PreciseLocation == nil {
		out.PreciseLocation = fallback.PreciseLocation
	}
	if out.StorageEstimate == nil {
		out.StorageEstimate = fallback.StorageEstimate
	}
	if out.MediaDevices == nil {
		out.MediaDevices = fallback.MediaDevices
	}
	if out.LegacyQuota == nil {
		out.LegacyQuota = fallback.LegacyQuota
	}
	if out.BaitHidden == nil {
		out.BaitHidden = fallback.BaitHidden
	}
	if out.BlockedFetch == nil {
		out.BlockedFetch = fallback.BlockedFetch
	}
	if out.BlockerLibrary == nil {
		out.BlockerLibrary = fallback.BlockerLibrary
	}
	if out.CookieRoundTrip == nil {
		out.CookieRoundTrip = fallback.CookieRoundTrip
	}
	if out.PersistentStore == nil {
		out.PersistentStore = fallback.PersistentStore
	}
	if len(out.Identity) == 0 {
		out.Identity = fallback.Identity
	}
	return out
}
