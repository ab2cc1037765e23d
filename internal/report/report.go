package report

import (
	"encoding/json"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/hamed0406/envprobe/internal/domain"
	"github.com/hamed0406/envprobe/internal/probe"
)

// NotProbed is the reason recorded for a declared signal with no outcome.
const NotProbed = "not probed"

// Report is the immutable result of one aggregation run. Build it with
// Synthesize; the zero Report is empty but valid.
type Report struct {
	id        string
	createdAt time.Time
	names     []string
	values    map[string]probe.Value
}

// Synthesize merges raw outcomes into a Report. Every declared name appears
// exactly once, in declared order, with NotProbed filling gaps; outcomes for
// undeclared names follow in sorted order. Pure: the same input always
// yields the same Report.
func Synthesize(id string, at time.Time, declared []string, values map[string]probe.Value) Report {
	r := Report{
		id:        id,
		createdAt: at,
		names:     make([]string, 0, len(declared)+len(values)),
		values:    make(map[string]probe.Value, len(declared)+len(values)),
	}
	for _, name := range declared {
		if _, dup := r.values[name]; dup {
			continue
		}
		v, ok := values[name]
		if !ok {
			v = probe.Unavailable(NotProbed)
		}
		r.names = append(r.names, name)
		r.values[name] = detach(v)
	}

	var extra []string
	for name := range values {
		if _, ok := r.values[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		r.names = append(r.names, name)
		r.values[name] = detach(values[name])
	}
	return r
}

func (r Report) ID() string           { return r.id }
func (r Report) CreatedAt() time.Time { return r.createdAt }
func (r Report) Len() int             { return len(r.names) }

// Names returns the signal names in report order.
func (r Report) Names() []string {
	return append([]string(nil), r.names...)
}

// Get returns the value of a signal; absent names read as NotProbed.
func (r Report) Get(name string) probe.Value {
	v, ok := r.values[name]
	if !ok {
		return probe.Unavailable(NotProbed)
	}
	return detach(v)
}

// detach copies the reference-typed payloads so a Report shares no mutable
// state with its input or with the values it hands out.
func detach(v probe.Value) probe.Value {
	switch d := v.Data.(type) {
	case domain.Permissions:
		v.Data = maps.Clone(d)
	case domain.ContentFilter:
		d.Methods = slices.Clone(d.Methods)
		v.Data = d
	}
	return v
}

type signalJSON struct {
	Name   string      `json:"name"`
	Result probe.Value `json:"result"`
}

func (r Report) MarshalJSON() ([]byte, error) {
	signals := make([]signalJSON, 0, len(r.names))
	for _, n := range r.names {
		signals = append(signals, signalJSON{Name: n, Result: r.values[n]})
	}
	return json.Marshal(struct {
		ID        string       `json:"id"`
		CreatedAt time.Time    `json:"created_at"`
		Signals   []signalJSON `json:"signals"`
	}{r.id, r.createdAt, signals})
}
