package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindUnavailable Kind = iota
	KindOk
	KindDenied
	KindTimedOut
)

func (k Kind) String() string {
	switch k {
	case KindOk:
		return "ok"
	case KindDenied:
		return "denied"
	case KindTimedOut:
		return "timed_out"
	default:
		return "unavailable"
	}
}

// Value is the outcome of one signal. The zero Value is Unavailable with an
// empty reason, so an unset slot is never mistaken for success.
type Value struct {
	Kind   Kind
	Data   any    // set when Kind == KindOk
	Reason string // set when Kind == KindUnavailable
}

func Ok(data any) Value               { return Value{Kind: KindOk, Data: data} }
func Unavailable(reason string) Value { return Value{Kind: KindUnavailable, Reason: reason} }
func Denied() Value                   { return Value{Kind: KindDenied} }
func TimedOut() Value                 { return Value{Kind: KindTimedOut} }

func (v Value) IsOk() bool     { return v.Kind == KindOk }
func (v Value) String() string { return v.describe() }

// MarshalJSON renders {"kind": ..., "value": ..., "reason": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.wire())
}

func (v Value) describe() string {
	switch v.Kind {
	case KindOk:
		return fmt.Sprintf("ok(%v)", v.Data)
	case KindUnavailable:
		return fmt.Sprintf("unavailable(%s)", v.Reason)
	default:
		return v.Kind.String()
	}
}

type wireValue struct {
	Kind   string `json:"kind"`
	Value  any    `json:"value,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (v Value) wire() wireValue {
	return wireValue{Kind: v.Kind.String(), Value: v.Data, Reason: v.Reason}
}

var (
	// ErrDenied is returned by capability sources when the user or platform
	// refused the permission the capability needs.
	ErrDenied = errors.New("permission denied")

	// ErrDisabled marks a capability switched off by configuration.
	ErrDisabled = errors.New("disabled")
)

// FromError converts a capability failure into a Value. It never returns Ok.
func FromError(err error) Value {
	switch {
	case err == nil:
		return Unavailable("no value")
	case errors.Is(err, ErrDenied):
		return Denied()
	case errors.Is(err, context.DeadlineExceeded):
		return TimedOut()
	case errors.Is(err, errors.ErrUnsupported):
		return Unavailable("capability absent")
	case errors.Is(err, ErrDisabled):
		return Unavailable("disabled")
	default:
		return Unavailable(err.Error())
	}
}

// From wraps the common (value, error) capability shape.
func From[T any](v T, err error) Value {
	if err != nil {
		return FromError(err)
	}
	return Ok(v)
}

// Unit is anything the scheduler can run to produce one named signal:
// a single Probe or a Chain of them.
type Unit interface {
	Name() string
	Run(ctx context.Context) Value
}

// As returns the Ok payload of v typed as T.
func As[T any](v Value) (T, bool) {
	var zero T
	if v.Kind != KindOk {
		return zero, false
	}
	t, ok := v.Data.(T)
	return t, ok
}
