// Package collector runs one aggregation: build the probe catalog, fan it
// out, synthesize the report, format it and hand it to the delivery sink.
package collector

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/envprobe/internal/capability"
	"github.com/hamed0406/envprobe/internal/domain"
	"github.com/hamed0406/envprobe/internal/notify"
	"github.com/hamed0406/envprobe/internal/report"
	"github.com/hamed0406/envprobe/internal/scheduler"
)

var (
	ErrMissingTarget   = errors.New("collector: target id is required")
	ErrConsentRequired = errors.New("collector: consent is required before probing")
)

type Request struct {
	Target  domain.TargetID
	Consent bool
	Sources capability.Sources
}

// Result carries everything one run produced. Delivery failures live in
// Outcome; they never turn into an error.
type Result struct {
	Report  report.Report  `json:"report"`
	Text    string         `json:"text"`
	Outcome notify.Outcome `json:"outcome"`
}

type Collector struct {
	Scheduler *scheduler.Scheduler
	Sink      notify.Sink
	Tuning    Tuning
	Logger    *zap.Logger

	Now   func() time.Time
	NewID func() string
}

func New(logger *zap.Logger, sink notify.Sink, t Tuning) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		Scheduler: scheduler.New(logger, t.RunTimeout, t.Concurrency),
		Sink:      sink,
		Tuning:    t,
		Logger:    logger,
	}
}

// Collect validates the request, probes, and delivers. The only errors are
// precondition failures, returned before any probe starts.
func (c *Collector) Collect(ctx context.Context, req Request) (Result, error) {
	target := domain.TargetID(strings.TrimSpace(string(req.Target)))
	if target == "" {
		return Result{}, ErrMissingTarget
	}
	if !req.Consent {
		return Result{}, ErrConsentRequired
	}

	now, newID := c.Now, c.NewID
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	sched := c.Scheduler
	if sched == nil {
		sched = scheduler.New(c.Logger, c.Tuning.RunTimeout, c.Tuning.Concurrency)
	}
	sink := c.Sink
	if sink == nil {
		sink = notify.Disabled{}
	}
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}

	id := newID()
	log = log.With(zap.String("report_id", id), zap.String("target", string(target)))

	values := sched.Run(ctx, Catalog(req.Sources, c.Tuning))
	rep := report.Synthesize(id, now(), report.Declared, values)
	text := report.Format(rep)

	out := sink.Deliver(ctx, string(target), text)
	if out.OK {
		log.Info("report_delivered", zap.Int("signals", rep.Len()))
	} else {
		log.Warn("delivery_failed", zap.String("detail", out.Detail))
	}
	return Result{Report: rep, Text: text, Outcome: out}, nil
}
