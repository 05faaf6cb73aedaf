// Package remote is the client for the external transaction persistence
// service, the remote-API variant of the persistence ports. Every request
// carries the session's credential token.
package remote

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

	"tally/internal/core"
)

// TokenSource yields the current credential token. The session store owns
// the token; the client only reads it per request.
type TokenSource func() string

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
}

func NewClient(baseURL string, token TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		token:      token,
	}
}

// The service scopes collections by the token's identity; the userID
// arguments required by the ports are not sent over the wire.

func (c *Client) ListTransactions(ctx context.Context, _ string) ([]core.Transaction, error) {
	var out []core.Transaction
	if err := c.call(ctx, http.MethodGet, "/transactions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTransaction(ctx context.Context, _ string, in core.TransactionInput) (core.Transaction, error) {
	var out core.Transaction
	if err := c.call(ctx, http.MethodPost, "/transactions", in, &out); err != nil {
		return core.Transaction{}, err
	}
	return out, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, _ string, id string) error {
	path := "/transactions/" + url.PathEscape(id)
	return c.call(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) ListCategories(ctx context.Context, _ string) ([]core.Category, error) {
	var out []core.Category
	if err := c.call(ctx, http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCategory is not offered by the remote service; the category listing
// is derived service-side. Custom categories are a local-variant extension.
func (c *Client) CreateCategory(ctx context.Context, _ string, in core.CategoryInput) (core.Category, error) {
	return core.Category{}, core.NewPersistenceError("create category",
		errors.New("remote service does not support custom categories"))
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return core.NewPersistenceError("encode request", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return core.NewPersistenceError("build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.NewPersistenceError("call persistence service", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return core.NewPersistenceError("read response", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return core.NewPersistenceError("decode response", err)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return core.NewAuthError(serviceMessage(raw, "credential token rejected"))
	case resp.StatusCode == http.StatusNotFound:
		return core.NewNotFoundError("resource", path)
	default:
		return core.NewPersistenceError("persistence service",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, serviceMessage(raw, "")))
	}
}

func serviceMessage(raw []byte, fallback string) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return fallback
}
