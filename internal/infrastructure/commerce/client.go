// Package commerce talks to the store's Admin REST API (Shopify-compatible)
// to mirror approved listings as products.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Config configures the admin API client.
type Config struct {
	StoreDomain string // e.g. my-shop.myshopify.com
	AccessToken string
	APIVersion  string
	// BaseURL overrides https://<StoreDomain>; used in tests.
	BaseURL    string
	HTTPClient *http.Client
}

// Product is the subset of product fields the marketplace manages.
type Product struct {
	Title       string
	BodyHTML    string
	Vendor      string
	ProductType string
	PriceCents  int64
	ImageURLs   []string
	// Tags carry the marketplace listing id so products can be traced back.
	Tags []string
}

// Product statuses on the commerce side.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
)

// APIError is a non-2xx response.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("commerce %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Temporary reports whether retrying could help.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsPermanent reports whether err is a client error that retrying cannot fix.
func IsPermanent(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && !ae.Temporary()
}

// Client performs product calls against the admin API.
type Client struct {
	prefix  string
	token   string
	http    *http.Client
	headers map[string]string
}

func New(cfg Config) (*Client, error) {
	if cfg.StoreDomain == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("store domain is required")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-07"
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://" + strings.TrimSuffix(cfg.StoreDomain, "/")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		prefix: strings.TrimRight(base, "/") + "/admin/api/" + cfg.APIVersion,
		token:  cfg.AccessToken,
		http:   hc,
		headers: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
	}, nil
}

// CreateProduct creates a draft product and returns its id.
func (c *Client) CreateProduct(ctx context.Context, p Product) (string, error) {
	images := make([]map[string]any, 0, len(p.ImageURLs))
	for i, u := range p.ImageURLs {
		images = append(images, map[string]any{"src": u, "position": i + 1})
	}
	body := map[string]any{
		"product": map[string]any{
			"title":        p.Title,
			"body_html":    p.BodyHTML,
			"vendor":       p.Vendor,
			"product_type": p.ProductType,
			"status":       StatusDraft,
			"tags":         strings.Join(p.Tags, ", "),
			"variants":     []map[string]any{{"price": formatPrice(p.PriceCents), "inventory_quantity": 1}},
			"images":       images,
		},
	}
	raw, err := c.do(ctx, "create product", http.MethodPost, "/products.json", body)
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(raw, "product.id")
	if !id.Exists() || id.String() == "" {
		return "", fmt.Errorf("commerce create product: response has no product id")
	}
	return id.String(), nil
}

// SetProductStatus switches a product between draft, active and archived.
func (c *Client) SetProductStatus(ctx context.Context, productID, status string) error {
	body := map[string]any{"product": map[string]any{"id": productID, "status": status}}
	_, err := c.do(ctx, "set product status", http.MethodPut, "/products/"+productID+".json", body)
	return err
}

// DeleteProduct removes a product; a missing product is not an error.
func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	_, err := c.do(ctx, "delete product", http.MethodDelete, "/products/"+productID+".json", nil)
	var ae *APIError
	if errors.As(err, &ae) && ae.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, body any) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.prefix+path, rdr)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("commerce %s: %w", op, err)
	}
	defer func() { _ = res.Body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("commerce %s: read body: %w", op, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg := gjson.GetBytes(raw, "errors").String()
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return nil, &APIError{Op: op, StatusCode: res.StatusCode, Body: msg}
	}
	return raw, nil
}

func formatPrice(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
