// Package client is the HTTP client for the omara REST API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/erazemk/omara/internal/model"
)

// TokenSource supplies the bearer token for each request. An empty token
// sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// Client talks to the authenticated /api/clothing endpoints.
type Client struct {
	t      *transport
	tokens TokenSource
}

// New creates a clothing client for the API at baseURL.
func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	t, err := newTransport(baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &Client{t: t, tokens: tokens}, nil
}

func (c *Client) authorize(req *http.Request) {
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

// ListClothing returns the items matching f. Empty fields impose no filter.
func (c *Client) ListClothing(ctx context.Context, f model.FilterCriteria) ([]model.ClothingItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.t.url("/api/clothing", f.Values()), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.authorize(req)

	var items []model.ClothingItem
	if err := c.t.do("list clothing", req, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.ClothingItem{}
	}
	return items, nil
}

// GetClothing returns a single item.
func (c *Client) GetClothing(ctx context.Context, id string) (*model.ClothingItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.t.url("/api/clothing/"+url.PathEscape(id), nil), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.authorize(req)

	var item model.ClothingItem
	if err := c.t.do("get clothing", req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateClothing creates an item from form.
func (c *Client) CreateClothing(ctx context.Context, form ItemForm) (*model.ClothingItem, error) {
	return c.sendForm(ctx, "create clothing", http.MethodPost, "/api/clothing", form)
}

// UpdateClothing replaces the fields of item id with form. A form without an
// image keeps the current photo.
func (c *Client) UpdateClothing(ctx context.Context, id string, form ItemForm) (*model.ClothingItem, error) {
	return c.sendForm(ctx, "update clothing", http.MethodPut, "/api/clothing/"+url.PathEscape(id), form)
}

// DeleteClothing deletes item id.
func (c *Client) DeleteClothing(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.t.url("/api/clothing/"+url.PathEscape(id), nil), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.authorize(req)
	return c.t.do("delete clothing", req, nil)
}

func (c *Client) sendForm(ctx context.Context, op, method, path string, form ItemForm) (*model.ClothingItem, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	body, contentType, err := form.encode()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.t.url(path, nil), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req)

	var item model.ClothingItem
	if err := c.t.do(op, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
