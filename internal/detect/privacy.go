// Package detect holds the heuristic probes that fuse several weak signals
// into one verdict. Signals are evaluated in a fixed order and the first
// decisive one wins.
package detect

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hamed0406/envprobe/internal/capability"
	"github.com/hamed0406/envprobe/internal/domain"
	"github.com/hamed0406/envprobe/internal/probe"
)

// DefaultQuotaThreshold is the storage quota below which a session is taken
// to be private. Browsers cap incognito quotas far below normal profiles;
// the exact figure is empirical.
const DefaultQuotaThreshold uint64 = 120 * humanize.MiByte

// DefaultLegacyQuotaRequest is how much the legacy filesystem quota probe asks for.
const DefaultLegacyQuotaRequest uint64 = 100 * humanize.MiByte

type PrivacyConfig struct {
	QuotaThreshold     uint64
	LegacyQuotaRequest uint64
}

// PrivacyMode returns the private-session detector as a probe function.
//
// Order: (a) storage quota under the threshold, (b) persistent store
// write/read/delete cycle failing, (c) legacy quota request refused.
func PrivacyMode(src capability.Sources, cfg PrivacyConfig) probe.RunFunc {
	if cfg.QuotaThreshold == 0 {
		cfg.QuotaThreshold = DefaultQuotaThreshold
	}
	if cfg.LegacyQuotaRequest == 0 {
		cfg.LegacyQuotaRequest = DefaultLegacyQuotaRequest
	}

	return func(ctx context.Context) probe.Value {
		checked := 0

		if src.StorageEstimate != nil {
			est, err := src.StorageEstimate(ctx)
			if err == nil && est.QuotaBytes > 0 {
				checked++
				if est.QuotaBytes < cfg.QuotaThreshold {
					return probe.Ok(domain.PrivacyMode{
						Private:  true,
						Method:   "quota",
						Evidence: fmt.Sprintf("quota %s below %s", humanize.IBytes(est.QuotaBytes), humanize.IBytes(cfg.QuotaThreshold)),
					})
				}
			}
		}

		if src.PersistentStore != nil {
			checked++
			if err := storeCycle(ctx, src.PersistentStore); err != nil {
				return probe.Ok(domain.PrivacyMode{Private: true, Method: "storage", Evidence: err.Error()})
			}
		}

		if src.LegacyQuota != nil {
			checked++
			if err := src.LegacyQuota(ctx, cfg.LegacyQuotaRequest); err != nil {
				return probe.Ok(domain.PrivacyMode{Private: true, Method: "legacy-quota", Evidence: err.Error()})
			}
		}

		if checked == 0 {
			return probe.Unavailable("no storage capabilities")
		}
		return probe.Ok(domain.PrivacyMode{Private: false})
	}
}

func storeCycle(ctx context.Context, s capability.Store) (err error) {
	key := "envprobe-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	want := key + "-v"
	if err := s.Put(ctx, key, want); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	defer func() {
		if derr := s.Delete(ctx, key); derr != nil && err == nil {
			err = fmt.Errorf("delete: %w", derr)
		}
	}()
	got, err := s.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if got != want {
		return fmt.Errorf("read back %q, wrote %q", got, want)
	}
	return nil
}
