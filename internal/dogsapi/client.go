package dogsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pura-pata-web/internal/models"
)

// maxBody caps how much of a response is read, for both decoding and error bodies.
const maxBody = 4 << 20

// CallObserver is told about every remote call once it finishes.
type CallObserver func(op string, err error)

// Client talks to the remote dogs API. All persistence, authorization and
// business rules live there; the client only moves JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observe    CallObserver
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithObserver(fn CallObserver) Option {
	return func(c *Client) { c.observe = fn }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListDogs returns dogs matching filters in the order the service returns them.
func (c *Client) ListDogs(ctx context.Context, filters models.Filters) ([]models.Dog, error) {
	path := "/dogs"
	if q := filters.Values().Encode(); q != "" {
		path += "?" + q
	}

	var dogs []models.Dog
	if err := c.do(ctx, "list_dogs", http.MethodGet, path, "", nil, &dogs); err != nil {
		return nil, fmt.Errorf("failed to list dogs: %w", err)
	}
	if dogs == nil {
		dogs = []models.Dog{}
	}
	return dogs, nil
}

// GetDog returns ErrNotFound when the service does not know id.
func (c *Client) GetDog(ctx context.Context, id string) (*models.Dog, error) {
	var dog models.Dog
	if err := c.do(ctx, "get_dog", http.MethodGet, "/dogs/"+url.PathEscape(id), "", nil, &dog); err != nil {
		return nil, fmt.Errorf("failed to get dog %s: %w", id, err)
	}
	return &dog, nil
}

func (c *Client) CreateDog(ctx context.Context, token string, in models.DogInput) (*models.Dog, error) {
	var dog models.Dog
	if err := c.do(ctx, "create_dog", http.MethodPost, "/dogs/", token, in, &dog); err != nil {
		return nil, fmt.Errorf("failed to create dog: %w", err)
	}
	return &dog, nil
}

func (c *Client) UpdateDog(ctx context.Context, token, id string, in models.DogInput) (*models.Dog, error) {
	var dog models.Dog
	if err := c.do(ctx, "update_dog", http.MethodPut, "/dogs/"+url.PathEscape(id), token, in, &dog); err != nil {
		return nil, fmt.Errorf("failed to update dog %s: %w", id, err)
	}
	return &dog, nil
}

func (c *Client) UpdateStatus(ctx context.Context, token, id string, status models.Status) (*models.Dog, error) {
	var dog models.Dog
	body := models.StatusUpdate{Status: status}
	if err := c.do(ctx, "update_status", http.MethodPatch, "/dogs/"+url.PathEscape(id)+"/status", token, body, &dog); err != nil {
		return nil, fmt.Errorf("failed to update status of dog %s: %w", id, err)
	}
	return &dog, nil
}

func (c *Client) DeleteDog(ctx context.Context, token, id string) error {
	if err := c.do(ctx, "delete_dog", http.MethodDelete, "/dogs/"+url.PathEscape(id), token, nil, nil); err != nil {
		return fmt.Errorf("failed to delete dog %s: %w", id, err)
	}
	return nil
}

func (c *Client) StatusHistory(ctx context.Context, id string) ([]models.StatusChange, error) {
	var history []models.StatusChange
	if err := c.do(ctx, "status_history", http.MethodGet, "/dogs/"+url.PathEscape(id)+"/history", "", nil, &history); err != nil {
		return nil, fmt.Errorf("failed to get history of dog %s: %w", id, err)
	}
	return history, nil
}

// MyDogs lists the caller's own listings, optionally restricted to one status.
func (c *Client) MyDogs(ctx context.Context, token string, status models.Status) ([]models.Dog, error) {
	path := "/users/me/dogs"
	if status != "" {
		path += "?" + url.Values{"status_filter": {string(status)}}.Encode()
	}

	var dogs []models.Dog
	if err := c.do(ctx, "my_dogs", http.MethodGet, path, token, nil, &dogs); err != nil {
		return nil, fmt.Errorf("failed to list own dogs: %w", err)
	}
	return dogs, nil
}

func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, "me", http.MethodGet, "/users/me", token, nil, &user); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &user, nil
}

// SyncUser creates or refreshes the remote profile of the account behind token.
func (c *Client) SyncUser(ctx context.Context, token string, profile models.Profile) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, "sync_user", http.MethodPost, "/auth/sync", token, profile, &user); err != nil {
		return nil, fmt.Errorf("failed to sync user: %w", err)
	}
	return &user, nil
}

func (c *Client) do(ctx context.Context, op, method, path, token string, in, out any) (err error) {
	if c.observe != nil {
		defer func() { c.observe(op, err) }()
	}

	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
