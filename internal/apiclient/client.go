package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rdm/internal/domain"
	"rdm/internal/httputil"
)

// CredentialSource supplies the bearer token and knows how to refresh it when
// the server rejects one.
type CredentialSource interface {
	// Token returns the current bearer token
	Token(ctx context.Context) (string, error)

	// Refresh obtains a new token after a rejection
	Refresh(ctx context.Context) error
}

// Client is an HTTP client for the document server. A 401 response triggers
// one token refresh and one retry; a second 401 surfaces as ErrUnauthorized
// rather than looping.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialSource
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the server at baseURL.
func New(baseURL string, creds CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		creds:      creds,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do executes one request with auth, refreshing the token and retrying once
// on a 401. Bodies ineligible for replay (streams) must not go through here.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	resp, err := c.send(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	c.logger.Debug("token rejected, refreshing", "method", method, "path", path)
	if err := c.creds.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("%w: token refresh failed: %v", domain.ErrUnauthorized, err)
	}

	resp, err = c.send(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: credentials rejected after refresh", domain.ErrUnauthorized)
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: no token available: %v", domain.ErrUnauthorized, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// doJSON runs a JSON request/response exchange. A nil out discards the body.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	contentType := ""
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeJSONBody(body io.Reader, out any) error {
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError turns an RFC 7807 problem response into a domain error.
func decodeError(resp *http.Response) error {
	var problem httputil.ProblemDetail
	detail := ""
	if err := json.NewDecoder(resp.Body).Decode(&problem); err == nil && problem.Detail != "" {
		detail = problem.Detail
	} else {
		detail = http.StatusText(resp.StatusCode)
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		sentinel = domain.ErrValidation
	case http.StatusUnauthorized:
		sentinel = domain.ErrUnauthorized
	case http.StatusForbidden:
		sentinel = domain.ErrForbidden
	case http.StatusNotFound:
		sentinel = domain.ErrNotFound
	case http.StatusConflict:
		sentinel = domain.ErrConflict
	case http.StatusGone:
		sentinel = domain.ErrGone
	default:
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, detail)
	}
	return fmt.Errorf("%w: %s", sentinel, detail)
}
