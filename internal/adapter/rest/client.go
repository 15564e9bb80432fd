package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "user-order-console/pkg/errors"
	"user-order-console/pkg/logger"
)

const (
	// DefaultBaseURL is used when no API base URL is configured.
	DefaultBaseURL = "http://localhost:5000"
	// DefaultPage is the page requested when ListParams.Page is unset.
	DefaultPage = 1
	// DefaultLimit is the page size requested when ListParams.Limit is unset.
	DefaultLimit = 10
)

// Config holds the settings of the REST client.
type Config struct {
	BaseURL string
	Timeout time.Duration // zero means no timeout
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is still
// wrapped with the request-id logging transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client is a typed client for the users/orders REST API.
// Every method maps to exactly one backend endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New creates a new REST client.
func New(cfg Config, log *zap.Logger, opts ...Option) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log.Named("rest"),
	}
	for _, opt := range opts {
		opt(c)
	}

	wrapped := *c.http
	wrapped.Transport = logger.NewTransport(c.http.Transport, c.log)
	c.http = &wrapped

	return c
}

// BaseURL returns the API base URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListParams are the pagination and search parameters of list endpoints.
type ListParams struct {
	Page  int64
	Limit int64
	Query string
}

// values encodes the params, defaulting page and limit and omitting an empty query.
func (p ListParams) values() url.Values {
	page := p.Page
	if page <= 0 {
		page = DefaultPage
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	v := url.Values{}
	v.Set("page", strconv.FormatInt(page, 10))
	v.Set("limit", strconv.FormatInt(limit, 10))
	if p.Query != "" {
		v.Set("q", p.Query)
	}
	return v
}

// Health probes GET /health. Any 2xx is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

// do performs one JSON request. out may be nil to discard the body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	op := method + " " + path

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewTransportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(op, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// decodeError builds an APIError from a non-2xx response. An undecodable
// body yields an APIError without payload.
func (c *Client) decodeError(op string, resp *http.Response) error {
	var payload apperrors.ErrorPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Debug("error response has no JSON payload",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return apperrors.NewAPIError(resp.StatusCode, nil)
	}
	return apperrors.NewAPIError(resp.StatusCode, &payload)
}
