// Package client is the HTTP transport to the remote data service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/config"
	"github.com/goliatone/go-formflow/logging"
)

const maxBodySize = 8 << 20

type Option func(*Client)

// WithBaseURL prefixes every relative request URL.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers.Set(k, v)
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		c.logger = logging.Normalize(l)
	}
}

// WithTimeout bounds a single round trip.
func WithTimeout(t time.Duration) Option {
	return func(c *Client) {
		c.timeout = t
	}
}

// WithConfig applies base_url, headers and request_timeout.
func WithConfig(cfg config.Config) Option {
	return func(c *Client) {
		WithBaseURL(cfg.BaseURL)(c)
		WithHeaders(cfg.Headers)(c)
		WithTimeout(cfg.RequestTimeout)(c)
	}
}

type Client struct {
	http    *http.Client
	baseURL string
	headers http.Header
	timeout time.Duration
	logger  logging.Logger
}

func New(opts ...Option) *Client {
	c := &Client{
		http:    http.DefaultClient,
		headers: http.Header{},
		timeout: config.DefaultRequestTimeout,
		logger:  logging.NewFmtLogger(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Do sends req and returns the response body of a 2xx answer. Any other
// status becomes an ErrRemoteRequest carrying the service's message.
func (c *Client) Do(ctx context.Context, req formflow.Request) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.resolve(req.URL)
	meta := map[string]any{"method": req.Method, "url": target}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, formflow.NewError(formflow.ErrRemoteRequest, "", err, meta)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	logging.WithFields(c.logger, meta).Debug("sending request")

	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, formflow.NewError(formflow.ErrRemoteRequest, "", err, meta)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, formflow.NewError(formflow.ErrRemoteRequest, "", err, meta)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		meta["status"] = res.StatusCode
		return nil, formflow.NewError(formflow.ErrRemoteRequest, remoteMessage(res.StatusCode, data), nil, meta)
	}
	return data, nil
}

func (c *Client) resolve(u string) string {
	if c.baseURL == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return c.baseURL + u
}

func remoteMessage(status int, data []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return formflow.ErrRemoteRequest.Message
}
