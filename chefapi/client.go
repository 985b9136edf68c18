// Package chefapi is the HTTP client for the recipe API: saved recipes,
// community listing, generation and the cooking assistant.
package chefapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"aichef/models"
	"aichef/recipes"
)

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Retries is the number of extra attempts on connection errors and 5xx.
	Retries   int
	RetryWait time.Duration
	Logger    *zap.Logger
}

// Client implements recipes.Store against the remote API and proxies the
// generation endpoints.
type Client struct {
	base string
	http *retryablehttp.Client
	log  *zap.Logger
}

var _ recipes.Store = (*Client)(nil)

func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.Retries
	if opts.RetryWait > 0 {
		rc.RetryWaitMin = opts.RetryWait
		rc.RetryWaitMax = 4 * opts.RetryWait
	}
	if opts.Timeout > 0 {
		rc.HTTPClient.Timeout = opts.Timeout
	}
	rc.Logger = leveledLogger{log.Named("chefapi").Sugar()}
	// hand the last response back instead of a generic "giving up" error
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		base: strings.TrimRight(opts.BaseURL, "/"),
		http: rc,
		log:  log,
	}
}

// call sends one request and returns the body of a 2xx response. A 204 yields
// a nil body.
func (c *Client) call(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}
	return c.send(ctx, method, path, token, "application/json", body)
}

// send is call for an already encoded body.
func (c *Client) send(ctx context.Context, method, path, token, contentType string, body []byte) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, &recipes.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &recipes.TransportError{Op: "read " + path, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, recipes.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, recipes.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, appError(resp, data)
	}
	return data, nil
}

// appError prefers the server's "detail" string from a JSON body.
func appError(resp *http.Response, data []byte) error {
	reason := fmt.Sprintf("API error: %d", resp.StatusCode)
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if d := gjson.GetBytes(data, "detail"); d.Type == gjson.String && d.Str != "" {
			reason = d.Str
		}
	}
	return &recipes.AppError{Status: resp.StatusCode, Reason: reason}
}

func decode[T any](data []byte, what string) (T, error) {
	var out T
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", what, err)
	}
	return out, nil
}

type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }

// nonNil keeps an empty list rendering as [] rather than null.
func nonNil(in []models.Recipe) []models.Recipe {
	if in == nil {
		return []models.Recipe{}
	}
	return in
}
