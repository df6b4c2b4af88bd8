// Package api exposes the engine over HTTP for operational checks and for
// the platform's admin panel, which previews the context blocks the engine
// would inject for a given conversation.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/atendezap/insight/internal/detect"
	"github.com/atendezap/insight/internal/feedback"
)

// Detector is the detection surface the preview endpoints need.
type Detector interface {
	DetectContext(ctx context.Context, customerID, companyID uuid.UUID, currentMessage string) (*detect.Result, error)
}

// Aggregator is the feedback surface the preview endpoints need.
type Aggregator interface {
	GetFeedbackContext(ctx context.Context, companyID uuid.UUID, limit int) (*feedback.FeedbackContext, error)
	GetCustomerFeedbackHistory(ctx context.Context, customerID uuid.UUID) (*feedback.CustomerHistory, error)
}

type Server struct {
	router     *chi.Mux
	port       int
	token      string
	detector   Detector
	aggregator Aggregator
}

func NewServer(port int, token string, det Detector, agg Aggregator) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:     router,
		port:       port,
		token:      token,
		detector:   det,
		aggregator: agg,
	}

	router.Get("/health", s.health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/engine/status", s.status)
		r.Post("/context/preview", s.contextPreview)
		r.Get("/feedback/context", s.feedbackContext)
		r.Get("/customers/{customerID}/feedback", s.customerFeedback)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// auth enforces a static bearer token on everything under /api/v1. An
// empty configured token disables the check.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			header := r.Header.Get("Authorization")
			if header != "Bearer "+s.token {
				writeError(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"engine": "insight",
		"status": "running",
	})
}

type previewRequest struct {
	CustomerID string `json:"customer_id"`
	CompanyID  string `json:"company_id"`
	Message    string `json:"message"`
}

type previewResponse struct {
	Result *detect.Result `json:"result"`
	Prompt string         `json:"prompt"`
}

// contextPreview runs detection for a conversation without touching the
// reply path, so an operator can see what the engine would inject.
func (s *Server) contextPreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer_id")
		return
	}
	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid company_id")
		return
	}

	res, err := s.detector.DetectContext(r.Context(), customerID, companyID, req.Message)
	if err != nil {
		slog.Error("context preview failed", "customer_id", customerID, "error", err)
		writeError(w, http.StatusInternalServerError, "detection failed")
		return
	}

	writeJSON(w, http.StatusOK, previewResponse{
		Result: res,
		Prompt: detect.FormatForPrompt(res),
	})
}

type feedbackContextResponse struct {
	Context *feedback.FeedbackContext `json:"context"`
	Prompt  string                    `json:"prompt"`
}

func (s *Server) feedbackContext(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(r.URL.Query().Get("company_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid company_id")
		return
	}
	limit := feedback.DefaultSampleLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	fc, err := s.aggregator.GetFeedbackContext(r.Context(), companyID, limit)
	if err != nil {
		slog.Error("feedback context failed", "company_id", companyID, "error", err)
		writeError(w, http.StatusInternalServerError, "feedback lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, feedbackContextResponse{
		Context: fc,
		Prompt:  feedback.FormatForPrompt(fc),
	})
}

func (s *Server) customerFeedback(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	history, err := s.aggregator.GetCustomerFeedbackHistory(r.Context(), customerID)
	if err != nil {
		slog.Error("customer feedback lookup failed", "customer_id", customerID, "error", err)
		writeError(w, http.StatusInternalServerError, "history lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, history)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
