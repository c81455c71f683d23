// Package http exposes the service's HTTP surface: health, readiness, and
// metrics endpoints plus a small JSON API for on-demand evaluation,
// notification preferences, and the connectivity switch.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/language"

	"github.com/agrisafe/crop-risk-advisory/internal/dispatch"
	"github.com/agrisafe/crop-risk-advisory/internal/domain"
	"github.com/agrisafe/crop-risk-advisory/internal/engine"
	"github.com/agrisafe/crop-risk-advisory/internal/risk"
	"github.com/agrisafe/crop-risk-advisory/internal/store"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness() error
}

// Server exposes the HTTP endpoints.
type Server struct {
	httpServer  *http.Server
	dispatcher  *dispatch.Dispatcher
	sessions    *dispatch.Sessions
	crops       *store.CropRegistry
	defaultLang language.Tag
	logger      *slog.Logger
}

// NewServer creates an HTTP server with health, metrics, and API routes.
func NewServer(addr string, ready ReadinessChecker, dispatcher *dispatch.Dispatcher, sessions *dispatch.Sessions, crops *store.CropRegistry, defaultLang language.Tag, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dispatcher:  dispatcher,
		sessions:    sessions,
		crops:       crops,
		defaultLang: defaultLang,
		logger:      logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("GET /v1/farmers/{id}/preferences", s.handleGetPreferences)
	mux.HandleFunc("PUT /v1/farmers/{id}/preferences", s.handlePutPreferences)
	mux.HandleFunc("GET /v1/farmers/{id}/crops", s.handleGetCrops)
	mux.HandleFunc("PUT /v1/farmers/{id}/crops", s.handlePutCrops)
	mux.HandleFunc("POST /v1/connectivity", s.handleConnectivity)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if err := checker.CheckReadiness(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// evaluateRequest carries an ad-hoc evaluation: caller-supplied weather and
// crop state, assessed without dispatching anything.
type evaluateRequest struct {
	Weather  *domain.WeatherReading  `json:"weather"`
	Crops    []domain.CropBatchState `json:"crops"`
	Language string                  `json:"language,omitempty"`
}

type evaluateResponse struct {
	OverallRisk domain.RiskLevel        `json:"overall_risk"`
	Assessments []domain.RiskAssessment `json:"assessments"`
	Advisories  []domain.Advisory       `json:"advisories"`
}

// handleEvaluate runs the pure assessment and synthesis steps on the request
// body. Nothing is dispatched or persisted; this is the dry-run surface.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lang := s.defaultLang
	if req.Language != "" {
		parsed, err := language.Parse(req.Language)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown language tag"})
			return
		}
		lang = parsed
	}

	assessments := make([]domain.RiskAssessment, 0, len(req.Crops))
	for _, crop := range req.Crops {
		assessments = append(assessments, risk.AssessCrop(&crop, req.Weather))
	}

	advisories := engine.Evaluate(req.Weather, req.Crops, lang)
	if advisories == nil {
		advisories = []domain.Advisory{}
	}

	writeJSON(w, http.StatusOK, evaluateResponse{
		OverallRisk: risk.OverallRisk(assessments),
		Assessments: assessments,
		Advisories:  advisories,
	})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(r.PathValue("id"))
	writeJSON(w, http.StatusOK, sess.Preferences())
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs domain.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sess := s.sessions.Get(r.PathValue("id"))
	sess.SetPreferences(prefs)
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleGetCrops(w http.ResponseWriter, r *http.Request) {
	batches, _ := s.crops.FetchCropBatches(r.Context(), r.PathValue("id"))
	writeJSON(w, http.StatusOK, batches)
}

// handlePutCrops replaces the farmer's crop batches in the registry. The
// next evaluation cycle and reminder poll pick them up.
func (s *Server) handlePutCrops(w http.ResponseWriter, r *http.Request) {
	var batches []domain.CropBatchState
	if err := json.NewDecoder(r.Body).Decode(&batches); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s.crops.SetCrops(r.PathValue("id"), batches)
	writeJSON(w, http.StatusOK, map[string]int{"count": len(batches)})
}

type connectivityRequest struct {
	Online bool `json:"online"`
}

// handleConnectivity flips the dispatcher's connectivity state. Coming back
// online drains queued notifications as a side effect.
func (s *Server) handleConnectivity(w http.ResponseWriter, r *http.Request) {
	var req connectivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s.dispatcher.SetOnline(req.Online)
	writeJSON(w, http.StatusOK, map[string]bool{"online": s.dispatcher.Online()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
