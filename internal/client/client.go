// Package client is a thin SDK for the actions REST API: one method per
// operation, success payloads unwrapped, failures normalized to *APIError.
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

	"go.uber.org/zap"

	"github.com/and161185/eco-actions/internal/errs"
	"github.com/and161185/eco-actions/internal/model"
)

// DefaultBaseURL points at a locally running server.
const DefaultBaseURL = "http://localhost:3001/api"

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

// APIError is returned for transport failures and non-2xx responses.
// Message is the server's "error" field when present, else the transport or status text.
type APIError struct {
	Op      string // e.g. "fetch actions"
	Status  int    // 0 for transport failures
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Failed to %s: %s", e.Op, e.Message)
}

// Unwrap maps well-known statuses onto shared sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return errs.ErrNotFound
	case http.StatusBadRequest:
		return errs.ErrValidation
	}
	return e.Err
}

// Client calls the API rooted at a base URL such as http://host:3001/api.
type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

// New constructs a client. A zero timeout means DefaultTimeout.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// List fetches every action in storage order.
func (c *Client) List(ctx context.Context) ([]model.Action, error) {
	var out []model.Action
	if err := c.do(ctx, "fetch actions", http.MethodGet, "/actions", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Action{}
	}
	return out, nil
}

// Create posts a new action and returns it with its id.
func (c *Client) Create(ctx context.Context, in model.ActionInput) (model.Action, error) {
	var out model.Action
	err := c.do(ctx, "create action", http.MethodPost, "/actions", in, &out)
	return out, err
}

// Replace overwrites every field of action id.
func (c *Client) Replace(ctx context.Context, id int64, in model.ActionInput) (model.Action, error) {
	var out model.Action
	err := c.do(ctx, "update action", http.MethodPut, fmt.Sprintf("/actions/%d", id), in, &out)
	return out, err
}

// Patch overwrites the supplied fields of action id.
func (c *Client) Patch(ctx context.Context, id int64, p model.ActionPatch) (model.Action, error) {
	var out model.Action
	err := c.do(ctx, "patch action", http.MethodPatch, fmt.Sprintf("/actions/%d", id), p, &out)
	return out, err
}

// Delete removes action id.
func (c *Client) Delete(ctx context.Context, id int64) (model.DeleteResult, error) {
	var out model.DeleteResult
	err := c.do(ctx, "delete action", http.MethodDelete, fmt.Sprintf("/actions/%d", id), nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &APIError{Op: op, Message: err.Error(), Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return &APIError{Op: op, Message: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("api request", zap.String("method", method), zap.String("path", path))
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("api transport error", zap.Error(err))
		return &APIError{Op: op, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()
	c.log.Debug("api response", zap.Int("status", resp.StatusCode), zap.String("path", path))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Op: op, Status: resp.StatusCode, Message: err.Error(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, Status: resp.StatusCode, Message: serverMessage(resp, raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Op: op, Status: resp.StatusCode, Message: "malformed response: " + err.Error(), Err: err}
	}
	return nil
}

func serverMessage(resp *http.Response, raw []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		return e.Error
	}
	return fmt.Sprintf("Request failed with status code %d", resp.StatusCode)
}
