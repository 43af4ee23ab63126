package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tgienger/taskboard/internal/models"
)

// NetworkErrorMessage is reported when the server could not be reached or answered garbage
const NetworkErrorMessage = "Network error. Please check your connection."

// APIError is returned for every failed call.
// Status is 0 when no usable response arrived.
type APIError struct {
	Status  int
	Message string
	Details []models.FieldError
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client talks to the task API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:3001/api
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches every task
func (c *Client) List(ctx context.Context) ([]models.Task, error) {
	var list []models.Task
	if _, err := c.do(ctx, http.MethodGet, "/tasks", nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Task{}
	}
	return list, nil
}

// Get fetches one task
func (c *Client) Get(ctx context.Context, id string) (models.Task, error) {
	var t models.Task
	_, err := c.do(ctx, http.MethodGet, taskPath(id), nil, &t)
	return t, err
}

// Create submits a new task
func (c *Client) Create(ctx context.Context, in models.TaskInput) (models.Task, error) {
	var t models.Task
	_, err := c.do(ctx, http.MethodPost, "/tasks", in, &t)
	return t, err
}

// Update replaces a task's editable fields
func (c *Client) Update(ctx context.Context, id string, in models.TaskInput) (models.Task, error) {
	var t models.Task
	_, err := c.do(ctx, http.MethodPut, taskPath(id), in, &t)
	return t, err
}

// UpdateStatus changes only a task's status
func (c *Client) UpdateStatus(ctx context.Context, id string, status models.Status) (models.Task, error) {
	s := string(status)
	var t models.Task
	_, err := c.do(ctx, http.MethodPatch, taskPath(id)+"/status", models.StatusInput{Status: &s}, &t)
	return t, err
}

// Delete removes a task and returns the server's confirmation message
func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	env, err := c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

// do sends one request and decodes the envelope, placing its data in out
func (c *Client) do(ctx context.Context, method, path string, body, out any) (models.Envelope, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return models.Envelope{}, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return models.Envelope{}, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Envelope{}, &APIError{Message: NetworkErrorMessage, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Envelope{}, &APIError{Message: NetworkErrorMessage, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Envelope{}, failure(resp.StatusCode, raw)
	}

	env := models.Envelope{}
	if out != nil {
		env.Data = out
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return models.Envelope{}, &APIError{Message: NetworkErrorMessage, Err: fmt.Errorf("decode %s %s: %w", method, path, err)}
	}
	return env, nil
}

// failure builds the error for a non-2xx response
func failure(status int, raw []byte) error {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{Status: status, Message: "Network error occurred", Err: err}
	}

	msg := env.Error
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return &APIError{Status: status, Message: msg, Details: env.Details}
}
