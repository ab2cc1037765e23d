package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/envprobe/internal/capability"
	"github.com/hamed0406/envprobe/internal/collector"
	"github.com/hamed0406/envprobe/internal/domain"
	apimw "github.com/hamed0406/envprobe/internal/httpapi/middleware"
	"github.com/hamed0406/envprobe/internal/notify"
	"github.com/hamed0406/envprobe/internal/report"
)

// ---- test helpers ----

type recordingSink struct {
	calls  int32
	target string
	text   string
	out    notify.Outcome
}

func (s *recordingSink) Deliver(_ context.Context, target, text string) notify.Outcome {
	atomic.AddInt32(&s.calls, 1)
	s.target, s.text = target, text
	return s.out
}

func setupRouter(t *testing.T, sink notify.Sink, serverSources func(string) capability.Sources) http.Handler {
	t.Helper()
	log := zap.NewNop()

	tun := collector.DefaultTuning()
	tun.ProbeTimeout = time.Second
	c := collector.New(log, sink, tun)
	c.NewID = func() string { return "rep-1" }

	srv := NewServer(log, c, serverSources)

	keys := apimw.Keys{
		Public: []string{"pub_test"},
		Admin:  []string{"adm_test"},
	}

	// very high rate limits to avoid flakiness in tests
	return srv.Router(keys, nil, 10_000, 10_000, 10_000, 10_000)
}

func post(t *testing.T, url, key, body string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	return resp
}

// ---- tests ----

func TestCreateReport_OK(t *testing.T) {
	sink := &recordingSink{out: notify.Outcome{OK: true}}
	var gotIP string
	serverSources := func(ip string) capability.Sources {
		gotIP = ip
		return capability.Sources{Identity: []capability.IdentityLookup{capability.KnownIP(ip)}}
	}
	ts := httptest.NewServer(setupRouter(t, sink, serverSources))
	defer ts.Close()

	body := `{"target":"-100200","consent":true,"environment":{
		"basic":{"user_agent":"Mozilla/5.0 (X11; Linux x86_64; rv:126.0) Gecko/20100101 Firefox/126.0","language":"en_us"},
		"battery":{"level":0.5,"charging":true},
		"permissions":{"geolocation":"denied","camera":"prompt"},
		"probes":{"bait_hidden":true}
	}}`
	resp := post(t, ts.URL+"/api/reports", "pub_test", body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}

	var out struct {
		Report struct {
			ID      string `json:"id"`
			Signals []struct {
				Name   string `json:"name"`
				Result struct {
					Kind   string          `json:"kind"`
					Value  json.RawMessage `json:"value"`
					Reason string          `json:"reason"`
				} `json:"result"`
			} `json:"signals"`
		} `json:"report"`
		Text    string         `json:"text"`
		Outcome notify.Outcome `json:"outcome"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if out.Report.ID != "rep-1" || !out.Outcome.OK {
		t.Fatalf("unexpected response: id=%q outcome=%+v", out.Report.ID, out.Outcome)
	}
	if len(out.Report.Signals) != len(report.Declared) {
		t.Fatalf("want %d signals, got %d", len(report.Declared), len(out.Report.Signals))
	}
	kinds := map[string]string{}
	for _, s := range out.Report.Signals {
		kinds[s.Name] = s.Result.Kind
	}
	if kinds[report.SignalBasic] != "ok" || kinds[report.SignalBattery] != "ok" {
		t.Fatalf("client sections should be ok: %+v", kinds)
	}
	if kinds[report.SignalIdentity] != "ok" {
		t.Fatalf("identity should come from the server side: %+v", kinds)
	}
	if kinds[report.SignalScreen] != "unavailable" {
		t.Fatalf("screen was not sent: %+v", kinds)
	}
	if gotIP != "127.0.0.1" {
		t.Fatalf("server sources got ip %q", gotIP)
	}
	if sink.target != "-100200" || sink.text != out.Text {
		t.Fatalf("sink got target=%q", sink.target)
	}
	if !bytes.Contains([]byte(out.Text), []byte("- Browser: Firefox")) {
		t.Fatalf("text missing browser: %s", out.Text)
	}
	if !bytes.Contains([]byte(out.Text), []byte("- Detected: Positive")) {
		t.Fatalf("text missing content filter verdict: %s", out.Text)
	}
}

func TestCreateReport_Preconditions(t *testing.T) {
	sink := &recordingSink{out: notify.Outcome{OK: true}}
	ts := httptest.NewServer(setupRouter(t, sink, nil))
	defer ts.Close()

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing target", `{"consent":true}`, http.StatusBadRequest},
		{"no consent", `{"target":"42"}`, http.StatusPreconditionFailed},
		{"garbage", `{"target":`, http.StatusBadRequest},
	}
	for _, c := range cases {
		resp := post(t, ts.URL+"/api/reports", "pub_test", c.body)
		resp.Body.Close()
		if resp.StatusCode != c.want {
			t.Fatalf("%s: want %d, got %d", c.name, c.want, resp.StatusCode)
		}
	}
	if n := atomic.LoadInt32(&sink.calls); n != 0 {
		t.Fatalf("nothing should be delivered, got %d", n)
	}
}

func TestCreateReport_DeliveryFailureStill200(t *testing.T) {
	sink := &recordingSink{out: notify.Outcome{Detail: "status 403: Forbidden"}}
	ts := httptest.NewServer(setupRouter(t, sink, nil))
	defer ts.Close()

	resp := post(t, ts.URL+"/api/reports", "pub_test", `{"target":"42","consent":true}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var out struct {
		Outcome notify.Outcome `json:"outcome"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if out.Outcome.OK || out.Outcome.Detail != "status 403: Forbidden" {
		t.Fatalf("unexpected outcome %+v", out.Outcome)
	}
}

func TestAuth_KeysRequired(t *testing.T) {
	ts := httptest.NewServer(setupRouter(t, &recordingSink{}, nil))
	defer ts.Close()

	resp := post(t, ts.URL+"/api/reports", "", `{"target":"42","consent":true}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401 without key, got %d", resp.StatusCode)
	}

	resp = post(t, ts.URL+"/api/admin/test-delivery", "pub_test", `{"target":"42"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("public key on admin route: want 403, got %d", resp.StatusCode)
	}
}

func TestTestDelivery_Admin(t *testing.T) {
	sink := &recordingSink{out: notify.Outcome{OK: true}}
	ts := httptest.NewServer(setupRouter(t, sink, nil))
	defer ts.Close()

	resp := post(t, ts.URL+"/api/admin/test-delivery", "adm_test", `{"target":"42"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	if sink.target != "42" || sink.text != "envprobe delivery test" {
		t.Fatalf("unexpected delivery %q %q", sink.target, sink.text)
	}
}

func TestSignalsAndHealth(t *testing.T) {
	ts := httptest.NewServer(setupRouter(t, &recordingSink{}, nil))
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/signals", nil)
	req.Header.Set("Authorization", "Bearer pub_test")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(names) != len(report.Declared) || names[0] != report.SignalBasic {
		t.Fatalf("unexpected signals %v", names)
	}

	h, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	h.Body.Close()
	if h.StatusCode != http.StatusOK {
		t.Fatalf("healthz want 200 got %d", h.StatusCode)
	}
}

func TestDescriptorPermissionDeniedGeolocation(t *testing.T) {
	src := capability.FromDescriptor(domain.Descriptor{
		Permissions: domain.Permissions{"geolocation": domain.PermissionDenied},
	})
	if src.PreciseLocation == nil {
		t.Fatalf("denied geolocation should surface as a denying source")
	}
}
