package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/envprobe/internal/capability"
	"github.com/hamed0406/envprobe/internal/collector"
	"github.com/hamed0406/envprobe/internal/domain"
	apimw "github.com/hamed0406/envprobe/internal/httpapi/middleware"
	"github.com/hamed0406/envprobe/internal/report"
)

// maxBody caps a submitted environment descriptor.
const maxBody = 1 << 20

type Server struct {
	Logger    *zap.Logger
	Collector *collector.Collector

	// ServerSources returns what the server itself can observe about a
	// client, such as its network identity. Client-submitted sections win.
	ServerSources func(clientIP string) capability.Sources
}

func NewServer(l *zap.Logger, c *collector.Collector, serverSources func(clientIP string) capability.Sources) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Collector: c, ServerSources: serverSources}
}

func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(corsHandler(allowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAny(keys))
		r.Use(apimw.RateLimit(pubRPM, pubBurst))
		r.Get("/api/signals", s.handleSignals)
		r.Post("/api/reports", s.handleCreateReport)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(keys))
		r.Use(apimw.RateLimit(admRPM, admBurst))
		r.Post("/api/admin/test-delivery", s.handleTestDelivery)
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	})
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.Declared)
}

type reportPayload struct {
	Target      string            `json:"target"`
	Consent     bool              `json:"consent"`
	Environment domain.Descriptor `json:"environment"`
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var p reportPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}

	ip := apimw.ClientIP(r)
	src := capability.FromDescriptor(p.Environment)
	if s.ServerSources != nil {
		src = capability.Merge(src, s.ServerSources(ip))
	}

	res, err := s.Collector.Collect(r.Context(), collector.Request{
		Target:  domain.TargetID(p.Target),
		Consent: p.Consent,
		Sources: src,
	})
	switch {
	case errors.Is(err, collector.ErrMissingTarget):
		writeError(w, http.StatusBadRequest, "target is required")
		return
	case errors.Is(err, collector.ErrConsentRequired):
		writeError(w, http.StatusPreconditionFailed, "consent is required")
		return
	case err != nil:
		s.Logger.Error("collect_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "collect failed")
		return
	}

	s.Logger.Info("report_created",
		zap.String("report_id", res.Report.ID()),
		zap.String("target", strings.TrimSpace(p.Target)),
		zap.String("client_ip", ip),
		zap.String("role", string(apimw.RoleFrom(r.Context()))),
		zap.Bool("delivered", res.Outcome.OK),
	)
	writeJSON(w, http.StatusOK, res)
}

type deliveryPayload struct {
	Target string `json:"target"`
	Text   string `json:"text"`
}

// handleTestDelivery sends a message straight to the sink so operators can
// check delivery credentials without running a probe.
func (s *Server) handleTestDelivery(w http.ResponseWriter, r *http.Request) {
	var p deliveryPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&p); err != nil || strings.TrimSpace(p.Target) == "" {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if p.Text == "" {
		p.Text = "envprobe delivery test"
	}
	if s.Collector == nil || s.Collector.Sink == nil {
		writeError(w, http.StatusServiceUnavailable, "delivery not configured")
		return
	}
	out := s.Collector.Sink.Deliver(r.Context(), strings.TrimSpace(p.Target), p.Text)
	s.Logger.Info("test_delivery", zap.Bool("ok", out.OK), zap.String("detail", out.Detail))
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
