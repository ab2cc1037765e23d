package detect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/envprobe/internal/capability"
	"github.com/hamed0406/envprobe/internal/domain"
	"github.com/hamed0406/envprobe/internal/probe"
)

func flag(v bool) func(context.Context) (bool, error) {
	return func(context.Context) (bool, error) { return v, nil }
}

func fails(msg string) func(context.Context) error {
	return func(context.Context) error { return errors.New(msg) }
}

func succeeds(context.Context) error { return nil }

func quota(q uint64) func(context.Context) (domain.StorageEstimate, error) {
	return func(context.Context) (domain.StorageEstimate, error) {
		return domain.StorageEstimate{QuotaBytes: q}, nil
	}
}

type brokenStore struct{ capability.Store }

func (brokenStore) Put(context.Context, string, string) error { return errors.New("quota exceeded") }

type memStore map[string]string

func (m memStore) Put(_ context.Context, k, v string) error { m[k] = v; return nil }
func (m memStore) Get(_ context.Context, k string) (string, error) {
	v, ok := m[k]
	if !ok {
		return "", errors.New("missing")
	}
	return v, nil
}
func (m memStore) Delete(_ context.Context, k string) error { delete(m, k); return nil }

// unreadableStore accepts writes but loses them on read.
type unreadableStore struct{ memStore }

func (unreadableStore) Get(context.Context, string) (string, error) { return "", errors.New("evicted") }

func runFilter(t *testing.T, src capability.Sources) domain.ContentFilter {
	t.Helper()
	v := ContentFilter(src)(context.Background())
	cf, ok := probe.As[domain.ContentFilter](v)
	require.True(t, ok, "want Ok(ContentFilter), got %v", v)
	return cf
}

func TestContentFilter_BaitIsDecisive(t *testing.T) {
	fetched := false
	cf := runFilter(t, capability.Sources{
		BaitHidden:   flag(true),
		BlockedFetch: func(context.Context) error { fetched = true; return nil },
	})
	assert.Equal(t, domain.FilterPositive, cf.Detected)
	assert.Equal(t, []string{MethodDOM}, cf.Methods)
	assert.False(t, fetched, "network check must not run after a decisive bait")
}

func TestContentFilter_FetchErrorIsPositive(t *testing.T) {
	cf := runFilter(t, capability.Sources{
		BaitHidden:   flag(false),
		BlockedFetch: fails("net::ERR_BLOCKED_BY_CLIENT"),
	})
	assert.Equal(t, domain.FilterPositive, cf.Detected)
	assert.Equal(t, []string{MethodNetwork}, cf.Methods)
}

func TestContentFilter_CompletedFetchIsInconclusive(t *testing.T) {
	cf := runFilter(t, capability.Sources{
		BaitHidden:      flag(false),
		BlockedFetch:    succeeds,
		CookieRoundTrip: fails("cookie lost"),
	})
	assert.Equal(t, domain.FilterNegative, cf.Detected)
	assert.Empty(t, cf.Methods)
	assert.True(t, cf.CookiesBlocked, "cookie failure alone is recorded but not decisive")
}

func TestContentFilter_CookieCorroborates(t *testing.T) {
	cf := runFilter(t, capability.Sources{
		BlockerLibrary:  flag(true),
		CookieRoundTrip: fails("cookie lost"),
	})
	assert.Equal(t, []string{MethodLibrary, MethodCookie}, cf.Methods)
}

func TestContentFilter_NoCapabilities(t *testing.T) {
	v := ContentFilter(capability.Sources{})(context.Background())
	assert.Equal(t, probe.KindUnavailable, v.Kind)
}

func TestPrivacyMode_Order(t *testing.T) {
	cases := []struct {
		name       string
		src        capability.Sources
		wantKind   probe.Kind
		wantPriv   bool
		wantMethod string
	}{
		{
			name:       "low quota wins before storage",
			src:        capability.Sources{StorageEstimate: quota(50 << 20), PersistentStore: brokenStore{}},
			wantKind:   probe.KindOk,
			wantPriv:   true,
			wantMethod: "quota",
		},
		{
			name:       "storage failure",
			src:        capability.Sources{StorageEstimate: quota(10 << 30), PersistentStore: brokenStore{}},
			wantKind:   probe.KindOk,
			wantPriv:   true,
			wantMethod: "storage",
		},
		{
			name: "legacy quota refused",
			src: capability.Sources{
				PersistentStore: memStore{},
				LegacyQuota:     func(context.Context, uint64) error { return errors.New("refused") },
			},
			wantKind:   probe.KindOk,
			wantPriv:   true,
			wantMethod: "legacy-quota",
		},
		{
			name:     "nothing decisive",
			src:      capability.Sources{StorageEstimate: quota(10 << 30), PersistentStore: memStore{}},
			wantKind: probe.KindOk,
		},
		{
			name:     "no capabilities",
			src:      capability.Sources{},
			wantKind: probe.KindUnavailable,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v := PrivacyMode(c.src, PrivacyConfig{})(context.Background())
			require.Equal(t, c.wantKind, v.Kind)
			if v.Kind != probe.KindOk {
				return
			}
			pm, _ := probe.As[domain.PrivacyMode](v)
			assert.Equal(t, c.wantPriv, pm.Private)
			assert.Equal(t, c.wantMethod, pm.Method)
		})
	}
}

func TestPrivacyMode_ThresholdConfigurable(t *testing.T) {
	src := capability.Sources{StorageEstimate: quota(200 << 20)}
	v := PrivacyMode(src, PrivacyConfig{QuotaThreshold: 1 << 30})(context.Background())
	pm, ok := probe.As[domain.PrivacyMode](v)
	require.True(t, ok)
	assert.True(t, pm.Private)
}

func TestPrivacyMode_StoreCleanedUpOnFailedRead(t *testing.T) {
	store := unreadableStore{memStore{}}
	v := PrivacyMode(capability.Sources{PersistentStore: store}, PrivacyConfig{})(context.Background())

	pm, ok := probe.As[domain.PrivacyMode](v)
	require.True(t, ok)
	assert.True(t, pm.Private)
	assert.Equal(t, "storage", pm.Method)
	assert.Contains(t, pm.Evidence, "read: evicted")
	assert.Empty(t, store.memStore, "the written key must be removed")
}

func TestPrivacyMode_StoreCleanedUpOnSuccess(t *testing.T) {
	store := memStore{}
	v := PrivacyMode(capability.Sources{PersistentStore: store}, PrivacyConfig{})(context.Background())

	pm, ok := probe.As[domain.PrivacyMode](v)
	require.True(t, ok)
	assert.False(t, pm.Private)
	assert.Empty(t, store)
}
