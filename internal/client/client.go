// Package client talks to a running dashtrack server through the same
// Requester interface as the in-process dispatcher.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/julianstephens/dashtrack/internal/constants"
	errs "github.com/julianstephens/dashtrack/internal/errors"
	"github.com/julianstephens/dashtrack/internal/server"
)

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends the request to the server's /api surface. Successful responses
// are returned as raw JSON; error statuses are mapped back onto the error
// taxonomy.
func (c *Client) Do(ctx context.Context, ownerID, method, target string, body []byte) (any, error) {
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	if !strings.HasPrefix(target, constants.APIPrefix+"/") {
		target = constants.APIPrefix + target
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), c.baseURL+target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ownerID != "" {
		req.Header.Set(constants.OwnerHeader, ownerID)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Engine("request", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errs.Engine("request", err)
	}
	if res.StatusCode == http.StatusOK {
		return json.RawMessage(data), nil
	}
	return nil, decodeError(res.StatusCode, strings.ToUpper(method), target, data)
}

func decodeError(status int, method, target string, data []byte) error {
	var resp server.ErrorResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		resp.Message = strings.TrimSpace(string(data))
	}

	switch status {
	case http.StatusBadRequest:
		invalid := &errs.InvalidInputError{Fields: resp.Fields}
		if len(invalid.Fields) == 0 {
			invalid.Add("body", resp.Message)
		}
		return invalid
	case http.StatusNotFound:
		if resp.Message == "Unknown endpoint" {
			return &errs.UnknownEndpointError{Method: method, Path: target}
		}
		return fmt.Errorf("%s: %w", resp.Message, errs.ErrNotFound)
	default:
		return errs.Engine("request", fmt.Errorf("server returned %d: %s", status, resp.Message))
	}
}
