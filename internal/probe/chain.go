package probe

import "context"

// Chain tries alternative sources for one signal in priority order. The first
// Ok wins; when every candidate fails the last failure is returned, since the
// later candidates are the coarser fallbacks and their failure is what the
// caller ended up with.
type Chain struct {
	ID         string
	Candidates []Unit
}

func NewChain(name string, candidates ...Unit) *Chain {
	return &Chain{ID: name, Candidates: candidates}
}

func (c *Chain) Name() string { return c.ID }

func (c *Chain) Run(ctx context.Context) Value {
	last := Unavailable("no candidates")
	for _, cand := range c.Candidates {
		if cand == nil {
			continue
		}
		last = cand.Run(ctx)
		if last.IsOk() {
			return last
		}
		if ctx.Err() != nil {
			break
		}
	}
	return last
}
