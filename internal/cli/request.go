package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/dashtrack/internal/constants"
	"github.com/julianstephens/dashtrack/internal/models"
)

// RequestCmd sends one logical request through the dispatcher or a server.
type RequestCmd struct {
	Method string `arg:"" help:"HTTP verb (GET, POST, PATCH, DELETE)."`
	Path   string `arg:"" help:"Resource path such as /api/todos or todos/<id>."`
	Data   string `short:"d" help:"JSON request body."`
}

func (c *RequestCmd) Run(ctx *Context) error {
	req, err := ctx.Requester()
	if err != nil {
		return err
	}

	var body []byte
	if c.Data != "" {
		body = []byte(c.Data)
	}
	result, err := req.Do(ctx.Context(), ctx.Owner, strings.ToUpper(c.Method), c.Path, body)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	ctx.println(string(out))
	return nil
}

// ListCmd prints one resource kind as a table.
type ListCmd struct {
	Kind string `arg:"" help:"Resource kind: music, todos, projects, habits, workouts, schedule, meals."`
	Date string `help:"Schedule date (YYYY-MM-DD); defaults to today."`
	JSON bool   `help:"Print raw JSON instead of a table."`
}

func (c *ListCmd) Run(ctx *Context) error {
	kind, ok := models.ParseKind(strings.ToLower(c.Kind))
	if !ok {
		return fmt.Errorf("unknown resource kind %q", c.Kind)
	}

	target := constants.APIPrefix + "/" + string(kind)
	if c.Date != "" {
		target += "?" + url.Values{"date": {c.Date}}.Encode()
	}

	req, err := ctx.Requester()
	if err != nil {
		return err
	}
	result, err := req.Do(ctx.Context(), ctx.Owner, "GET", target, nil)
	if err != nil {
		return err
	}

	// Round-trip through JSON so local and remote results render the same
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if c.JSON {
		var pretty []byte
		if pretty, err = json.MarshalIndent(json.RawMessage(raw), "", "  "); err != nil {
			return err
		}
		ctx.println(string(pretty))
		return nil
	}

	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return fmt.Errorf("unexpected list response: %w", err)
	}
	ctx.println(renderTable(kind, rows))
	return nil
}
