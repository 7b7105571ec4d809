package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcpgate/mcpgate/internal/coordinator"
	"github.com/mcpgate/mcpgate/internal/schema"
)

type staticTransport struct {
	tools []schema.ToolDescriptor
}

func (s *staticTransport) Connect(ctx context.Context) error { return nil }
func (s *staticTransport) Connected() bool                   { return true }
func (s *staticTransport) ListTools(ctx context.Context) ([]schema.ToolDescriptor, error) {
	return s.tools, nil
}
func (s *staticTransport) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	return "", nil
}
func (s *staticTransport) Disconnect(ctx context.Context) error { return nil }

func newTestRouter(t *testing.T) (http.Handler, *coordinator.Coordinator) {
	t.Helper()
	coord := coordinator.New(
		&staticTransport{tools: []schema.ToolDescriptor{{Name: "ping", Description: "liveness"}}},
		coordinator.Config{},
	)
	if err := coord.Setup(context.Background()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	return NewRouter(coord, prometheus.NewRegistry()), coord
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unparsable body: %v", err)
	}
	if body.State != "ready" {
		t.Errorf("expected ready, got %q", body.State)
	}
}

func TestHealthz_UnavailableWhenClosed(t *testing.T) {
	router, coord := newTestRouter(t)
	coord.Close(context.Background()) //nolint:errcheck

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after Close, got %d", rec.Code)
	}
}

func TestTools(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tools", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Tools []schema.ToolDescriptor `json:"tools"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unparsable body: %v", err)
	}
	if len(body.Tools) != 1 || body.Tools[0].Name != "ping" {
		t.Errorf("unexpected tools payload: %+v", body.Tools)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 from /metrics, got %d", rec.Code)
	}
}
