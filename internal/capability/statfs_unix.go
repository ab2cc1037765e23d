//go:build linux || darwin || freebsd

package capability

import (
	"golang.org/x/sys/unix"

	"github.com/hamed0406/envprobe/internal/domain"
)

// diskEstimate reports the filesystem holding dir the way a storage quota
// estimate would: quota is what this user could still fill, usage what is
// already taken.
func diskEstimate(dir string) (domain.StorageEstimate, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return domain.StorageEstimate{}, err
	}
	bsize := uint64(st.Bsize)
	total := uint64(st.Blocks) * bsize
	free := uint64(st.Bfree) * bsize
	avail := uint64(st.Bavail) * bsize
	return domain.StorageEstimate{
		QuotaBytes: avail + (total - free),
		UsageBytes: total - free,
	}, nil
}
