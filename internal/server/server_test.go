package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/dashtrack/internal/constants"
	"github.com/julianstephens/dashtrack/internal/dispatch"
	"github.com/julianstephens/dashtrack/internal/engine"
	errs "github.com/julianstephens/dashtrack/internal/errors"
	"github.com/julianstephens/dashtrack/internal/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(Config{}, dispatch.New(engine.New(memory.New())))
}

func doRequest(t *testing.T, s *Server, method, path, owner, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if owner != "" {
		req.Header.Set(constants.OwnerHeader, owner)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestStatusMapping(t *testing.T) {
	s := newTestServer(t)
	created := doRequest(t, s, http.MethodPost, "/api/todos", "", `{"text":"x"}`)
	if created.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", created.Code, created.Body.String())
	}
	id := decode[map[string]any](t, created)["id"].(string)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"list", http.MethodGet, "/api/todos", "", http.StatusOK},
		{"schedule default date", http.MethodGet, "/api/schedule", "", http.StatusOK},
		{"schedule bad date", http.MethodGet, "/api/schedule?date=2024-13-01", "", http.StatusBadRequest},
		{"invalid payload", http.MethodPost, "/api/music", `{"rating":9}`, http.StatusBadRequest},
		{"patch", http.MethodPatch, "/api/todos/" + id, `{"completed":true}`, http.StatusOK},
		{"patch missing", http.MethodPatch, "/api/todos/nope", `{"completed":true}`, http.StatusNotFound},
		{"unknown resource", http.MethodGet, "/api/budget", "", http.StatusNotFound},
		{"unknown verb", http.MethodPut, "/api/todos/" + id, "", http.StatusNotFound},
		{"outside api", http.MethodGet, "/todos", "", http.StatusNotFound},
		{"delete", http.MethodDelete, "/api/todos/" + id, "", http.StatusOK},
		{"delete again", http.MethodDelete, "/api/todos/" + id, "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, tt.method, tt.path, "", tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestInvalidInputBody(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodPost, "/api/projects", "", `{"name":"","progress":150}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decode[ErrorResponse](t, rec)
	fields := map[string]bool{}
	for _, f := range resp.Fields {
		fields[f.Field] = true
	}
	if !fields["name"] || !fields["progress"] {
		t.Errorf("fields = %+v, want name and progress", resp.Fields)
	}
}

func TestUnknownEndpointBody(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodGet, "/api/nothing", "", "")
	if resp := decode[ErrorResponse](t, rec); resp.Message != "Unknown endpoint" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestOwnerHeader(t *testing.T) {
	s := newTestServer(t)
	doRequest(t, s, http.MethodPost, "/api/habits", "alice", `{"name":"read"}`)
	doRequest(t, s, http.MethodPost, "/api/habits", "", `{"name":"default owner"}`)

	alice := decode[[]map[string]any](t, doRequest(t, s, http.MethodGet, "/api/habits", "alice", ""))
	if len(alice) != 1 || alice[0]["ownerId"] != "alice" {
		t.Errorf("alice sees %+v", alice)
	}

	def := decode[[]map[string]any](t, doRequest(t, s, http.MethodGet, "/api/habits", "", ""))
	if len(def) != 1 || def[0]["ownerId"] != constants.DefaultOwnerID {
		t.Errorf("default owner sees %+v", def)
	}
}

type failingRequester struct{}

func (failingRequester) Do(ctx context.Context, ownerID, method, target string, body []byte) (any, error) {
	return nil, errs.Engine("list", errors.New("disk on fire"))
}

func TestEngineFailureHidesCause(t *testing.T) {
	s := New(Config{}, failingRequester{})
	rec := doRequest(t, s, http.MethodGet, "/api/todos", "", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "disk on fire") {
		t.Errorf("response leaks the cause: %s", rec.Body.String())
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"}, dispatch.New(engine.New(memory.New())))
	ctx, cancel := context.WithCancel(context.Background())

	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ctx, func(addr string) { addrCh <- addr })
	}()

	var addr string
	select {
	case addr = <-addrCh:
	case err := <-errCh:
		t.Fatalf("Serve failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	res, err := http.Get("http://" + addr + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	io.Copy(io.Discard, res.Body)
	res.Body.Close()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
