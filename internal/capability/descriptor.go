package capability

import (
	"context"
	"errors"
	"sync"

	"github.com/hamed0406/envprobe/internal/domain"
	"github.com/hamed0406/envprobe/internal/probe"
)

// FromDescriptor exposes a client-submitted snapshot as capability sources.
// Sections the client did not send stay nil so the probes report them as
// absent rather than as empty values.
func FromDescriptor(d domain.Descriptor) Sources {
	var s Sources

	if d.Basic != nil {
		b := *d.Basic
		if b.Browser == "" {
			b.Browser = BrowserFromUA(b.UserAgent)
		}
		b.Language = NormalizeLanguage(b.Language)
		s.Basic = constant(b)
	}
	if d.Hardware != nil {
		s.Hardware = constant(*d.Hardware)
	}
	if d.Screen != nil {
		s.Screen = constant(*d.Screen)
	}
	if d.Graphics != nil {
		s.Graphics = constant(*d.Graphics)
	}
	if d.Battery != nil {
		s.Battery = constant(*d.Battery)
	}
	if d.Network != nil {
		n := *d.Network
		if n.Type == "" {
			raw := n.RawType
			if raw == "" {
				raw = n.EffectiveType
			}
			n.Type = NormalizeConnection(raw)
		}
		s.Network = constant(n)
	}
	if d.Position != nil {
		p := *d.Position
		p.Source = "precise"
		s.PreciseLocation = constant(p)
	}
	if d.Storage != nil {
		s.StorageEstimate = constant(*d.Storage)
	}
	if d.MediaDevices != nil {
		s.MediaDevices = constant(*d.MediaDevices)
	}
	if d.Permissions != nil {
		perms := d.Permissions
		s.Permission = func(ctx context.Context, name string) (domain.PermissionState, error) {
			st, ok := perms[name]
			if !ok {
				return domain.PermissionUnknown, errors.ErrUnsupported
			}
			return st, nil
		}
		// A denied geolocation with no position is an explicit refusal.
		if perms["geolocation"] == domain.PermissionDenied && s.PreciseLocation == nil {
			s.PreciseLocation = func(ctx context.Context) (domain.Position, error) {
				return domain.Position{}, probe.ErrDenied
			}
		}
	}

	if o := d.Probes; o != nil {
		if o.BaitHidden != nil {
			s.BaitHidden = constant(*o.BaitHidden)
		}
		if o.BlockedFetchError != nil || o.BlockedFetchDone != nil {
			fetchErr := o.BlockedFetchError
			s.BlockedFetch = func(ctx context.Context) error {
				if fetchErr != nil {
					return errors.New(*fetchErr)
				}
				return nil
			}
		}
		if o.BlockerLibrary != nil {
			s.BlockerLibrary = constant(*o.BlockerLibrary)
		}
		if o.CookieRoundTrip != nil {
			ok := *o.CookieRoundTrip
			s.CookieRoundTrip = func(ctx context.Context) error {
				if !ok {
					return errors.New("cookie not readable after write")
				}
				return nil
			}
		}
		if o.StoreWriteOK != nil {
			s.PersistentStore = newObservedStore(*o.StoreWriteOK)
		}
		if o.LegacyQuotaOK != nil {
			ok := *o.LegacyQuotaOK
			s.LegacyQuota = func(ctx context.Context, _ uint64) error {
				if !ok {
					return errors.New("quota request refused")
				}
				return nil
			}
		}
	}
	return s
}

func constant[T any](v T) func(context.Context) (T, error) {
	return func(context.Context) (T, error) { return v, nil }
}

// observedStore replays a client-side storage probe: either the client's
// write/read cycle worked, and this store behaves like memory, or it failed
// and every write fails.
type observedStore struct {
	ok bool

	mu   sync.Mutex
	vals map[string]string
}

func newObservedStore(ok bool) *observedStore {
	return &observedStore{ok: ok, vals: make(map[string]string)}
}

var errStoreWrite = errors.New("store write failed")

func (o *observedStore) Put(ctx context.Context, key, value string) error {
	if !o.ok {
		return errStoreWrite
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.vals[key] = value
	return nil
}

func (o *observedStore) Get(ctx context.Context, key string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.vals[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return v, nil
}

func (o *observedStore) Delete(ctx context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.vals, key)
	return nil
}
