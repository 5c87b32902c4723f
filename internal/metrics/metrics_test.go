package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewarePassesThrough(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	rec := httptest.NewRecorder()
	Middleware(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Fatalf("body %q", rec.Body.String())
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	EventRouted("file-updated")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("empty exposition")
	}
}

func TestRecorderTracksOccupancy(t *testing.T) {
	r := Recorder{}
	r.JoinedRoom("r1", "alice", 1)
	r.JoinedRoom("r1", "bob", 2)
	r.LeftRoom("r1", "bob", 1)
	r.LeftRoom("r1", "alice", 0)
}
