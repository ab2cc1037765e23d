package probe

import (
	"context"
	"fmt"
	"time"
)

// RunFunc does the work of one probe. It should honor ctx but is not
// required to: Probe.Run enforces the timeout from the outside.
type RunFunc func(ctx context.Context) Value

// Probe is a single time-bounded unit of work producing one named signal.
type Probe struct {
	ID      string
	Timeout time.Duration
	Fn      RunFunc
}

// New builds a Probe. A non-positive timeout means "bounded only by ctx".
func New(name string, timeout time.Duration, fn RunFunc) *Probe {
	return &Probe{ID: name, Timeout: timeout, Fn: fn}
}

func (p *Probe) Name() string { return p.ID }

// Run races the probe's work against its timeout. On expiry the work is
// abandoned, not cancelled beyond ctx; its late result is dropped. A panic in
// the work becomes Unavailable.
func (p *Probe) Run(ctx context.Context) Value {
	if p.Fn == nil {
		return Unavailable("capability absent")
	}

	cctx, cancel := ctx, context.CancelFunc(func() {})
	if p.Timeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, p.Timeout)
	}
	defer cancel()

	// buffered so an abandoned worker can always finish its send
	done := make(chan Value, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Unavailable(fmt.Sprint(r))
			}
		}()
		done <- p.Fn(cctx)
	}()

	select {
	case v := <-done:
		return v
	case <-cctx.Done():
		return TimedOut()
	}
}
