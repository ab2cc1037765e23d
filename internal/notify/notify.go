package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Outcome is the result of one delivery attempt.
type Outcome struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

func success() Outcome              { return Outcome{OK: true} }
func failure(detail string) Outcome { return Outcome{OK: false, Detail: detail} }

func fromErr(err error) Outcome {
	if err != nil {
		return failure(err.Error())
	}
	return success()
}

// Sink delivers formatted text to a target. Implementations never panic and
// own their own timeouts; failures are reported in the Outcome.
type Sink interface {
	Deliver(ctx context.Context, targetID, text string) Outcome
}

// Multi delivers to every sink. The outcome is OK only if every sink
// succeeded; details of all failures are combined.
type Multi []Sink

func (m Multi) Deliver(ctx context.Context, targetID, text string) Outcome {
	var err error
	n := 0
	for _, s := range m {
		if s == nil {
			continue
		}
		n++
		if out := s.Deliver(ctx, targetID, text); !out.OK {
			err = multierr.Append(err, outcomeError(out.Detail))
		}
	}
	if n == 0 {
		return failure("no sinks configured")
	}
	return fromErr(err)
}

type outcomeError string

func (e outcomeError) Error() string { return string(e) }

// Disabled is the sink used when sending is switched off.
type Disabled struct{}

func (Disabled) Deliver(context.Context, string, string) Outcome {
	return failure("delivery disabled")
}

// Func adapts a function to Sink.
type Func func(ctx context.Context, targetID, text string) Outcome

func (f Func) Deliver(ctx context.Context, targetID, text string) Outcome {
	return f(ctx, targetID, text)
}
