package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fake unit you can control
type fakeUnit struct {
	name  string
	out   Value
	calls int
}

func (f *fakeUnit) Name() string { return f.name }

func (f *fakeUnit) Run(ctx context.Context) Value {
	f.calls++
	return f.out
}

func TestChain_FirstOkShortCircuits(t *testing.T) {
	a := &fakeUnit{name: "a", out: Ok("precise")}
	b := &fakeUnit{name: "b", out: Ok("coarse")}

	out := NewChain("geo", a, b).Run(context.Background())

	require.True(t, out.IsOk())
	assert.Equal(t, "precise", out.Data)
	assert.Equal(t, 0, b.calls, "fallback must not run after a success")
}

func TestChain_FallsBackAfterFailure(t *testing.T) {
	a := &fakeUnit{name: "a", out: Denied()}
	b := &fakeUnit{name: "b", out: Ok("coarse")}

	out := NewChain("geo", a, b).Run(context.Background())

	require.True(t, out.IsOk())
	assert.Equal(t, "coarse", out.Data)
	assert.Equal(t, 1, a.calls)
}

func TestChain_AllFailReturnsLastReason(t *testing.T) {
	a := &fakeUnit{name: "a", out: Unavailable("provider A down")}
	b := &fakeUnit{name: "b", out: Unavailable("provider B down")}

	out := NewChain("identity", a, b).Run(context.Background())

	assert.Equal(t, KindUnavailable, out.Kind)
	assert.Equal(t, "provider B down", out.Reason)
}

func TestChain_DeniedThenUnavailableKeepsLast(t *testing.T) {
	a := &fakeUnit{name: "a", out: Denied()}
	b := &fakeUnit{name: "b", out: Unavailable("x")}

	out := NewChain("geo", a, b).Run(context.Background())

	assert.Equal(t, Unavailable("x"), out)
}

func TestChain_Empty(t *testing.T) {
	out := NewChain("nothing").Run(context.Background())
	assert.Equal(t, KindUnavailable, out.Kind)
	assert.NotEmpty(t, out.Reason)
}

func TestChain_CandidateTimeoutIsItsOwn(t *testing.T) {
	slow := New("slow", 20*time.Millisecond, func(ctx context.Context) Value {
		time.Sleep(200 * time.Millisecond)
		return Ok("late")
	})
	fast := New("fast", time.Second, func(ctx context.Context) Value {
		return From("ip", error(nil))
	})

	start := time.Now()
	out := NewChain("geo", slow, fast).Run(context.Background())

	require.True(t, out.IsOk())
	assert.Equal(t, "ip", out.Data)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestFromError_Classifies(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrDenied, KindDenied},
		{errors.Join(errors.New("wrap"), ErrDenied), KindDenied},
		{context.DeadlineExceeded, KindTimedOut},
		{errors.ErrUnsupported, KindUnavailable},
		{errors.New("boom"), KindUnavailable},
	}
	for _, c := range cases {
		if got := FromError(c.err); got.Kind != c.want {
			t.Fatalf("FromError(%v)=%v want %v", c.err, got.Kind, c.want)
		}
	}
	assert.Equal(t, "boom", FromError(errors.New("boom")).Reason)
	assert.Equal(t, "capability absent", FromError(errors.ErrUnsupported).Reason)
}
