package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/dashtrack/internal/dispatch"
	"github.com/julianstephens/dashtrack/internal/engine"
	errs "github.com/julianstephens/dashtrack/internal/errors"
	"github.com/julianstephens/dashtrack/internal/server"
	"github.com/julianstephens/dashtrack/internal/storage/memory"
)

var _ dispatch.Requester = (*Client)(nil)

func setupTestClient(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := server.New(server.Config{}, dispatch.New(engine.New(memory.New())))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func TestRoundTripThroughServer(t *testing.T) {
	ctx := context.Background()
	c := setupTestClient(t)

	out, err := c.Do(ctx, "alice", "POST", "/todos", []byte(`{"text":"remote"}`))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	var created struct {
		ID      string `json:"id"`
		OwnerID string `json:"ownerId"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal(out.(json.RawMessage), &created); err != nil {
		t.Fatalf("failed to decode created todo: %v", err)
	}
	if created.ID == "" || created.OwnerID != "alice" || created.Text != "remote" {
		t.Errorf("unexpected todo: %+v", created)
	}

	out, err = c.Do(ctx, "alice", "DELETE", "/api/todos/"+created.ID, nil)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	var conf dispatch.Confirmation
	json.Unmarshal(out.(json.RawMessage), &conf)
	if conf.Message != "Todo item deleted" {
		t.Errorf("confirmation = %q", conf.Message)
	}
}

func TestErrorMapping(t *testing.T) {
	ctx := context.Background()
	c := setupTestClient(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   error
	}{
		{"invalid input", "POST", "/music", `{"rating":0}`, errs.ErrInvalidInput},
		{"not found", "DELETE", "/todos/missing", "", errs.ErrNotFound},
		{"unknown endpoint", "GET", "/budget", "", errs.ErrUnknownEndpoint},
		{"bad schedule date", "GET", "/schedule?date=someday", "", errs.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Do(ctx, "alice", tt.method, tt.target, []byte(tt.body))
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestInvalidInputKeepsFields(t *testing.T) {
	c := setupTestClient(t)
	_, err := c.Do(context.Background(), "alice", "POST", "/meals", []byte(`{"dayOfWeek":9,"mealType":"brunch","name":"x"}`))

	var invalid *errs.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want InvalidInputError", err)
	}
	names := invalid.FieldNames()
	if len(names) != 2 || names[0] != "dayOfWeek" || names[1] != "mealType" {
		t.Errorf("fields = %v, want [dayOfWeek mealType]", names)
	}
}

func TestUnreachableServerIsEngineFailure(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	_, err := New(url).Do(context.Background(), "alice", "GET", "/todos", nil)
	if !errors.Is(err, errs.ErrEngineFailure) {
		t.Errorf("error = %v, want EngineFailure", err)
	}
}
