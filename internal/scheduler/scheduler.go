package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/envprobe/internal/probe"
)

// Scheduler fans a probe set out concurrently and joins every outcome.
// It cannot fail: units report failures as values.
type Scheduler struct {
	Logger      *zap.Logger
	Tracer      trace.Tracer
	Timeout     time.Duration // upper bound for the whole run; 0 = none
	Concurrency int           // 0 = unbounded
}

func New(logger *zap.Logger, timeout time.Duration, concurrency int) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 0 {
		concurrency = 0
	}
	if timeout < 0 {
		timeout = 0
	}
	return &Scheduler{
		Logger:      logger,
		Tracer:      otel.Tracer("github.com/hamed0406/envprobe/internal/scheduler"),
		Timeout:     timeout,
		Concurrency: concurrency,
	}
}

// Settled records one unit's outcome with its settle position, which is the
// only place completion order is visible.
type Settled struct {
	Name     string
	Value    probe.Value
	Duration time.Duration
	Order    int
}

// Run launches every unit and returns once all have settled. Each unit
// writes only its own slot, so no locking is needed on results.
func (s *Scheduler) Run(ctx context.Context, units []probe.Unit) map[string]probe.Value {
	settled := s.RunDetailed(ctx, units)
	out := make(map[string]probe.Value, len(settled))
	for _, st := range settled {
		out[st.Name] = st.Value
	}
	return out
}

func (s *Scheduler) RunDetailed(ctx context.Context, units []probe.Unit) []Settled {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	results := make([]Settled, len(units))
	order := make(chan int, len(units))

	var g errgroup.Group
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}
	start := time.Now()

	for i, u := range units {
		if u == nil {
			continue
		}
		g.Go(func() error {
			uctx, span := s.Tracer.Start(ctx, "probe "+u.Name(),
				trace.WithAttributes(attribute.String("probe.name", u.Name())))
			defer span.End()

			began := time.Now()
			v := runGuarded(uctx, u)
			results[i] = Settled{Name: u.Name(), Value: v, Duration: time.Since(began)}
			order <- i

			span.SetAttributes(attribute.String("probe.kind", v.Kind.String()))
			if v.Reason != "" {
				span.SetAttributes(attribute.String("probe.reason", v.Reason))
			}
			return nil
		})
	}
	_ = g.Wait()
	close(order)

	n := 0
	for i := range order {
		n++
		results[i].Order = n
		s.Logger.Debug("probe_settled",
			zap.String("probe", results[i].Name),
			zap.Int("order", n),
			zap.String("kind", results[i].Value.Kind.String()),
			zap.String("reason", results[i].Value.Reason),
			zap.Duration("took", results[i].Duration),
		)
	}

	out := results[:0]
	for _, r := range results {
		if r.Name != "" {
			out = append(out, r)
		}
	}
	s.Logger.Info("probe_run_done",
		zap.Int("units", len(out)),
		zap.Duration("took", time.Since(start)),
	)
	return out
}

// runGuarded keeps a panicking unit from taking the run down with it.
// Probes already recover; this covers custom Unit implementations.
func runGuarded(ctx context.Context, u probe.Unit) (v probe.Value) {
	defer func() {
		if r := recover(); r != nil {
			v = probe.Unavailable(fmt.Sprint("panic: ", r))
		}
	}()
	return u.Run(ctx)
}
