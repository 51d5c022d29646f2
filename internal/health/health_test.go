package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandlerHealthy(t *testing.T) {
	handler := NewHandler("v1.2.3")

	handler.RegisterChecker("postgres", NewSimpleChecker("postgres", func() error {
		return nil
	}))
	handler.RegisterChecker("redis", NewSimpleChecker("redis", func() error {
		return nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var response Response
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != StatusHealthy {
		t.Errorf("expected status healthy, got %s", response.Status)
	}
	if response.Version != "v1.2.3" {
		t.Errorf("expected version v1.2.3, got %s", response.Version)
	}
	if len(response.Checks) != 2 {
		t.Errorf("expected 2 checks, got %d", len(response.Checks))
	}
}

func TestHandlerUnhealthyComponent(t *testing.T) {
	handler := NewHandler("v1.2.3")

	handler.RegisterChecker("postgres", NewSimpleChecker("postgres", func() error {
		return nil
	}))
	handler.RegisterChecker("kafka", NewSimpleChecker("kafka", func() error {
		return errors.New("broker unreachable")
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	var response Response
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != StatusUnhealthy {
		t.Errorf("expected status unhealthy, got %s", response.Status)
	}
}

func TestLivenessHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	w := httptest.NewRecorder()

	LivenessHandler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Errorf("expected body 'ok', got %s", w.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	handler := NewHandler("v1.2.3")
	handler.RegisterChecker("postgres", NewSimpleChecker("postgres", func() error {
		return nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()

	handler.ReadinessHandler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ready" {
		t.Errorf("expected body 'ready', got %s", w.Body.String())
	}
}

func TestReadinessHandlerNotReady(t *testing.T) {
	handler := NewHandler("v1.2.3")
	handler.RegisterChecker("postgres", NewSimpleChecker("postgres", func() error {
		return errors.New("connection refused")
	}))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()

	handler.ReadinessHandler(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
	if w.Body.String() != "not ready" {
		t.Errorf("expected body 'not ready', got %s", w.Body.String())
	}
}

func TestSimpleCheckerReportsError(t *testing.T) {
	checker := NewSimpleChecker("catalog-cache", func() error {
		return errors.New("dial tcp: connection refused")
	})

	check := checker.Check()

	if check.Status != StatusUnhealthy {
		t.Errorf("expected status unhealthy, got %s", check.Status)
	}
	if check.Message != "dial tcp: connection refused" {
		t.Errorf("unexpected message: %s", check.Message)
	}
}
