package routers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"codesync/internal/api"
	"codesync/internal/events"
	"codesync/internal/exec"
	"codesync/internal/session"
	"codesync/internal/utils"
)

type noopExecutor struct{}

func (noopExecutor) Run(exec.Key, string)     {}
func (noopExecutor) Execute(exec.Key, string) {}
func (noopExecutor) Input(exec.Key, string)   {}
func (noopExecutor) Stop(exec.Key)            {}
func (noopExecutor) StopAll(string)           {}

func newTestHandler() http.Handler {
	logger := utils.NewLogger()
	sessions := session.NewCoordinator(logger)
	router := events.NewRouter(sessions, logger)
	return New(api.NewHandlers(logger, sessions, router, noopExecutor{}))
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(newTestHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Fatalf("body %q", body)
	}
}

func TestRoomUsersEmptyRoom(t *testing.T) {
	srv := httptest.NewServer(newTestHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/rooms/nope/users")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := httptest.NewServer(newTestHandler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/healthz", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin %q", got)
	}
}

func TestWSRejectsPlainGet(t *testing.T) {
	srv := httptest.NewServer(newTestHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected upgrade refusal, got %d", resp.StatusCode)
	}
}
