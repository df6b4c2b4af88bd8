package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/atendezap/insight/internal/detect"
	"github.com/atendezap/insight/internal/feedback"
)

type fakeDetector struct{ res *detect.Result }

func (f *fakeDetector) DetectContext(context.Context, uuid.UUID, uuid.UUID, string) (*detect.Result, error) {
	return f.res, nil
}

type fakeAggregator struct {
	fc      *feedback.FeedbackContext
	history *feedback.CustomerHistory
}

func (f *fakeAggregator) GetFeedbackContext(context.Context, uuid.UUID, int) (*feedback.FeedbackContext, error) {
	return f.fc, nil
}

func (f *fakeAggregator) GetCustomerFeedbackHistory(context.Context, uuid.UUID) (*feedback.CustomerHistory, error) {
	return f.history, nil
}

func newTestServer(token string) *Server {
	det := &fakeDetector{res: &detect.Result{
		DetectedService: &detect.ServiceContext{
			ServiceName:  "Corte Feminino",
			Price:        "80,00",
			Confidence:   0.5,
			DetectedFrom: detect.SignalExplicitMention,
		},
		CustomerIntent: detect.IntentPricing,
	}}
	agg := &fakeAggregator{
		fc:      &feedback.FeedbackContext{TotalGood: 3, TotalBad: 1},
		history: &feedback.CustomerHistory{RecentBadFeedbacks: 2, LastFeedbackNote: "resposta longa"},
	}
	return NewServer(8620, token, det, agg)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer("")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer("")

	req := httptest.NewRequest("GET", "/api/v1/engine/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["engine"] != "insight" {
		t.Errorf("expected engine insight, got %q", body["engine"])
	}
}

func TestAuthRequiredWhenTokenSet(t *testing.T) {
	srv := newTestServer("s3cret")

	req := httptest.NewRequest("GET", "/api/v1/engine/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/engine/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: expected 401, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/engine/status", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token: expected 200, got %d", w.Code)
	}

	// Health stays open for load balancer probes.
	req = httptest.NewRequest("GET", "/health", nil)
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health with token set: expected 200, got %d", w.Code)
	}
}

func TestContextPreviewEndpoint(t *testing.T) {
	srv := newTestServer("")

	payload, _ := json.Marshal(previewRequest{
		CustomerID: uuid.NewString(),
		CompanyID:  uuid.NewString(),
		Message:    "quanto custa o corte?",
	})
	req := httptest.NewRequest("POST", "/api/v1/context/preview", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body previewResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Result == nil || body.Result.DetectedService == nil {
		t.Fatal("expected a detected service in the preview")
	}
	if body.Result.DetectedService.ServiceName != "Corte Feminino" {
		t.Errorf("service = %q", body.Result.DetectedService.ServiceName)
	}
	if body.Prompt == "" {
		t.Error("expected a rendered prompt block")
	}
}

func TestContextPreviewRejectsBadIDs(t *testing.T) {
	srv := newTestServer("")

	payload, _ := json.Marshal(previewRequest{CustomerID: "nope", CompanyID: uuid.NewString()})
	req := httptest.NewRequest("POST", "/api/v1/context/preview", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestFeedbackContextEndpoint(t *testing.T) {
	srv := newTestServer("")

	req := httptest.NewRequest("GET", "/api/v1/feedback/context?company_id="+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body feedbackContextResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Context == nil || body.Context.TotalGood != 3 {
		t.Errorf("unexpected context: %+v", body.Context)
	}
}

func TestFeedbackContextRejectsBadLimit(t *testing.T) {
	srv := newTestServer("")

	req := httptest.NewRequest("GET", "/api/v1/feedback/context?company_id="+uuid.NewString()+"&limit=zero", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestCustomerFeedbackEndpoint(t *testing.T) {
	srv := newTestServer("")

	req := httptest.NewRequest("GET", "/api/v1/customers/"+uuid.NewString()+"/feedback", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body feedback.CustomerHistory
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.RecentBadFeedbacks != 2 {
		t.Errorf("RecentBadFeedbacks = %d, want 2", body.RecentBadFeedbacks)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := newTestServer("")

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
