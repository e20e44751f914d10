package sdk

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

	"github.com/docgate/docgate/internals/env"
	"github.com/docgate/docgate/internals/schemas"
)

type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
	maxEventSize int
}

var ErrShutdownUnsupported = errors.New("shutdown unsupported")

type ErrorResponse struct {
	Status  string              `json:"status"`
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithStreamClient sets the client used for event streams. It should not
// carry a request timeout.
func WithStreamClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.streamClient = client
		}
	}
}

// WithMaxEventSize sets the largest stream event the client accepts.
func WithMaxEventSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxEventSize = size
		}
	}
}

func NewClient(opts ...Option) *Client {
	envs := env.Get()
	client := &Client{
		baseURL: strings.TrimRight(envs.BASE_URL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		streamClient: &http.Client{},
		maxEventSize: DefaultMaxEventSize,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Version(ctx context.Context) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/version", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", responseError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(body)), nil
}

func (c *Client) Shutdown(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/shutdown", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrShutdownUnsupported
	}
	return responseError(resp)
}

func (c *Client) ListTools(ctx context.Context) (*schemas.ToolListResponse, error) {
	var payload schemas.ToolListResponse
	if err := c.getJSON(ctx, "/tools/list", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Submit starts a tool call and returns its task id without waiting for it.
func (c *Client) Submit(ctx context.Context, request schemas.ToolCallRequest) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/tools/call", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", responseError(resp)
	}

	var payload schemas.ToolCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.TaskID == "" {
		return "", errors.New("server returned an empty task id")
	}
	return payload.TaskID, nil
}

func (c *Client) TaskStatus(ctx context.Context, taskID string) (*schemas.TaskResponse, error) {
	var payload schemas.TaskResponse
	if err := c.getJSON(ctx, "/tasks/"+url.PathEscape(taskID), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) Users(ctx context.Context) (*schemas.UserListResponse, error) {
	var payload schemas.UserListResponse
	if err := c.getJSON(ctx, "/users", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) Permissions(ctx context.Context, role string) (*schemas.PermissionListResponse, error) {
	var payload schemas.PermissionListResponse
	if err := c.getJSON(ctx, "/permissions/"+url.PathEscape(role), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) Documents(ctx context.Context) (*schemas.DocumentListResponse, error) {
	var payload schemas.DocumentListResponse
	if err := c.getJSON(ctx, "/documents", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) DocumentHTML(ctx context.Context, user, docID string) (string, error) {
	path := "/documents/" + url.PathEscape(docID) + "/html?user=" + url.QueryEscape(user)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", responseError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

func responseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var payload ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && (payload.Code != "" || payload.Message != "") {
		return &APIError{StatusCode: resp.StatusCode, Code: payload.Code, Message: payload.Message, Fields: payload.Errors}
	}

	return fmt.Errorf("unexpected status: %s", resp.Status)
}
