// Package dispatch maps (verb, path, body) requests onto engine operations
// through an enumerated route table.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/julianstephens/dashtrack/internal/constants"
	"github.com/julianstephens/dashtrack/internal/engine"
	errs "github.com/julianstephens/dashtrack/internal/errors"
	"github.com/julianstephens/dashtrack/internal/models"
)

// Requester is the single calling convention shared by the in-process
// dispatcher and the HTTP client.
type Requester interface {
	Do(ctx context.Context, ownerID, method, target string, body []byte) (any, error)
}

// Confirmation is the response body of a successful delete.
type Confirmation struct {
	Message string `json:"message"`
}

type routeKey struct {
	method string
	kind   models.Kind
	hasID  bool
}

type request struct {
	ownerID string
	id      string
	query   url.Values
	body    []byte
}

type handler func(ctx context.Context, req request) (any, error)

// Dispatcher routes requests to one engine.
type Dispatcher struct {
	routes map[routeKey]handler
}

var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete}

// New builds the route table for every resource kind. It panics if a kind
// is missing any of its routes.
func New(e *engine.Engine) *Dispatcher {
	d := &Dispatcher{routes: make(map[routeKey]handler)}

	register(d, e.Music)
	register(d, e.Todos)
	register(d, e.Projects)
	register(d, e.Habits)
	register(d, e.Workouts)
	register(d, e.Schedule)
	register(d, e.Meals)

	for _, kind := range models.Kinds {
		for _, method := range routeMethods {
			key := routeKey{method: method, kind: kind, hasID: method == http.MethodPatch || method == http.MethodDelete}
			if _, ok := d.routes[key]; !ok {
				panic(fmt.Sprintf("dispatch: no %s route for %s", method, kind))
			}
		}
	}
	return d
}

func register[S models.Record, I models.Input[S]](d *Dispatcher, c *engine.Collection[S, I]) {
	if c == nil {
		return
	}
	kind := c.Kind()
	label := kind.Label()

	d.routes[routeKey{http.MethodGet, kind, false}] = func(ctx context.Context, req request) (any, error) {
		var q engine.Query
		if kind == models.KindSchedule {
			q.Date = req.query.Get("date")
		}
		return c.List(ctx, req.ownerID, q)
	}

	d.routes[routeKey{http.MethodPost, kind, false}] = func(ctx context.Context, req request) (any, error) {
		in, err := models.DecodeInput[I](req.body)
		if err != nil {
			return nil, err
		}
		return c.Create(ctx, req.ownerID, in)
	}

	d.routes[routeKey{http.MethodPatch, kind, true}] = func(ctx context.Context, req request) (any, error) {
		in, err := models.DecodeInput[I](req.body)
		if err != nil {
			return nil, err
		}
		rec, err := c.Update(ctx, req.id, req.ownerID, in)
		if errors.Is(err, errs.ErrNotFound) {
			return nil, notFound(label)
		}
		if err != nil {
			return nil, err
		}
		return rec, nil
	}

	d.routes[routeKey{http.MethodDelete, kind, true}] = func(ctx context.Context, req request) (any, error) {
		ok, err := c.Delete(ctx, req.id, req.ownerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, notFound(label)
		}
		return Confirmation{Message: label + " deleted"}, nil
	}
}

func notFound(label string) error {
	return fmt.Errorf("%s %w", label, errs.ErrNotFound)
}

// Do resolves method and target to a route and runs it for ownerID. target
// is a logical path such as "/todos", "/todos/{id}" or
// "/schedule?date=2024-01-01", with or without the "/api" prefix.
func (d *Dispatcher) Do(ctx context.Context, ownerID, method, target string, body []byte) (any, error) {
	method = strings.ToUpper(method)
	key, req, ok := parseTarget(method, target)
	if !ok {
		return nil, &errs.UnknownEndpointError{Method: method, Path: target}
	}
	h, ok := d.routes[key]
	if !ok {
		return nil, &errs.UnknownEndpointError{Method: method, Path: target}
	}
	req.ownerID = ownerID
	req.body = body
	return h(ctx, req)
}

func parseTarget(method, target string) (routeKey, request, bool) {
	u, err := url.Parse(target)
	if err != nil {
		return routeKey{}, request{}, false
	}

	path := strings.TrimPrefix(u.Path, constants.APIPrefix+"/")
	if path == u.Path {
		path = strings.TrimPrefix(path, "/")
	}
	segments := strings.Split(strings.TrimSuffix(path, "/"), "/")
	if len(segments) == 0 || len(segments) > 2 || segments[0] == "" {
		return routeKey{}, request{}, false
	}

	kind, ok := models.ParseKind(segments[0])
	if !ok {
		return routeKey{}, request{}, false
	}
	req := request{query: u.Query()}
	if len(segments) == 2 {
		if segments[1] == "" {
			return routeKey{}, request{}, false
		}
		req.id = segments[1]
	}
	return routeKey{method: method, kind: kind, hasID: req.id != ""}, req, true
}
