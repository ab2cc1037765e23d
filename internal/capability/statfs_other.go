//go:build !linux && !darwin && !freebsd

package capability

import (
	"errors"

	"github.com/hamed0406/envprobe/internal/domain"
)

func diskEstimate(dir string) (domain.StorageEstimate, error) {
	return domain.StorageEstimate{}, errors.ErrUnsupported
}
