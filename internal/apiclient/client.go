// Package apiclient talks to the platform REST API on behalf of one admin
// session: it attaches the session's bearer credential, decodes the response
// envelope and rotates the credential once when the API answers 401.
package apiclient

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

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/clinic-admin/internal/config"
	"github.com/spec-kit/clinic-admin/internal/observability"
)

// RefreshPath is the endpoint that exchanges a credential for a fresh one.
const RefreshPath = "/auth/refresh-token"

const defaultRefreshTimeout = 30 * time.Second

// Credentials is the storage the client reads the bearer token from and
// writes rotated tokens to.
type Credentials interface {
	Token(ctx context.Context) (string, bool, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Response is a decoded 2xx answer.
type Response struct {
	Status   int
	Header   http.Header
	Envelope Envelope
}

// Client is safe for concurrent use. WithCredentials returns a copy bound to
// one session's credentials; copies share the transport and refresh group.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	creds        Credentials
	logger       *zap.Logger
	metrics      *observability.Metrics
	refreshGroup *singleflight.Group
}

// New builds an unbound client for the configured API.
func New(cfg config.APIConfig, logger *zap.Logger, metrics *observability.Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:   &http.Client{Timeout: cfg.Timeout()},
		logger:       logger,
		metrics:      metrics,
		refreshGroup: &singleflight.Group{},
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	clone := *c
	clone.httpClient = hc
	return &clone
}

// WithCredentials returns a client that authenticates with creds.
func (c *Client) WithCredentials(creds Credentials) *Client {
	clone := *c
	clone.creds = creds
	return &clone
}

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
}

// Do sends a JSON request. body may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	req := &request{method: method, path: path}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		req.body = payload
		req.contentType = "application/json"
	}
	return c.send(ctx, req)
}

func (c *Client) send(ctx context.Context, req *request) (*Response, error) {
	token, err := c.currentToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.roundTrip(ctx, req, token)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusUnauthorized || isRefreshPath(req.path) || c.creds == nil {
		return c.finish(req, resp)
	}

	original := resp.apiError(req)
	if token == "" {
		c.clearCredentials(ctx, "unauthorized without credential")
		return nil, original
	}

	fresh, err := c.refresh(ctx, token)
	if err != nil && ctx.Err() != nil {
		// The caller gave up; the refresh itself may still succeed.
		return nil, ctx.Err()
	}
	if err != nil {
		c.logger.Info("credential refresh failed", zap.String("path", req.path), zap.Error(err))
		c.clearCredentials(ctx, "refresh failed")
		return nil, original
	}

	retried, err := c.roundTrip(ctx, req, fresh)
	if err != nil {
		return nil, err
	}
	if retried.status == http.StatusUnauthorized {
		c.clearCredentials(ctx, "unauthorized after refresh")
		return nil, retried.apiError(req)
	}
	return c.finish(req, retried)
}

func (c *Client) finish(req *request, raw *rawResponse) (*Response, error) {
	resp, err := raw.result(req)
	if err != nil && errors.Is(err, ErrMalformedResponse) {
		c.logger.Error("api response rejected",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Int("status", raw.status),
			zap.Error(err),
		)
	}
	return resp, err
}

func (c *Client) currentToken(ctx context.Context) (string, error) {
	if c.creds == nil {
		return "", nil
	}
	token, ok, err := c.creds.Token(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// refresh exchanges token for a new one and persists it. Concurrent 401s on
// the same token share one refresh call, which runs to completion on its own
// deadline even when every waiting caller has gone.
func (c *Client) refresh(ctx context.Context, token string) (string, error) {
	creds := c.creds
	ch := c.refreshGroup.DoChan(token, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout())
		defer cancel()

		fresh, err := c.exchange(rctx, token)
		c.metrics.RecordRefresh(err == nil)
		if err != nil {
			return "", err
		}
		if err := creds.Save(rctx, fresh); err != nil {
			return "", err
		}
		return fresh, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if res.Err != nil {
		return "", res.Err
	}

	fresh := res.Val.(string)
	if res.Shared {
		// Each session sharing the refresh persists the token in its own storage.
		if err := c.creds.Save(context.WithoutCancel(ctx), fresh); err != nil {
			return "", err
		}
	}
	c.logger.Debug("credential refreshed", zap.Bool("shared", res.Shared))
	return fresh, nil
}

func (c *Client) exchange(ctx context.Context, token string) (string, error) {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return "", err
	}
	resp, err := c.roundTrip(ctx, &request{
		method:      http.MethodPost,
		path:        RefreshPath,
		body:        body,
		contentType: "application/json",
	}, token)
	if err != nil {
		return "", err
	}
	out, err := resp.result(&request{method: http.MethodPost, path: RefreshPath})
	if err != nil {
		return "", err
	}
	payload, err := Decode[refreshPayload](out.Envelope)
	if err != nil {
		return "", err
	}
	fresh := payload.token()
	if fresh == "" {
		return "", fmt.Errorf("%w: refresh response carries no token", ErrMalformedResponse)
	}
	return fresh, nil
}

func (c *Client) refreshTimeout() time.Duration {
	if c.httpClient.Timeout > 0 {
		return c.httpClient.Timeout
	}
	return defaultRefreshTimeout
}

type refreshPayload struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
}

func (p refreshPayload) token() string {
	if p.Token != "" {
		return p.Token
	}
	return p.AccessToken
}

func (c *Client) clearCredentials(ctx context.Context, reason string) {
	if c.creds == nil {
		return
	}
	if err := c.creds.Clear(ctx); err != nil {
		c.logger.Warn("clear credentials", zap.String("reason", reason), zap.Error(err))
		return
	}
	c.logger.Info("credentials cleared", zap.String("reason", reason))
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) roundTrip(ctx context.Context, req *request, token string) (*rawResponse, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.RecordUpstream(req.method, 0)
		c.logger.Warn("api request failed", zap.String("method", req.method), zap.String("path", req.path), zap.Error(err))
		return nil, err
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.metrics.RecordUpstream(req.method, 0)
		return nil, err
	}

	c.metrics.RecordUpstream(req.method, httpResp.StatusCode)
	c.logger.Debug("api request",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	return &rawResponse{status: httpResp.StatusCode, header: httpResp.Header, body: payload}, nil
}

func (r *rawResponse) apiError(req *request) *APIError {
	env, err := DecodeEnvelope(r.body)
	if err != nil {
		env = Envelope{}
	}
	return newAPIError(req.method, req.path, r.status, env, r.body)
}

func (r *rawResponse) result(req *request) (*Response, error) {
	if r.status < 200 || r.status >= 300 {
		return nil, r.apiError(req)
	}
	env, err := DecodeEnvelope(r.body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	if env.Failed() {
		return nil, newAPIError(req.method, req.path, r.status, env, r.body)
	}
	return &Response{Status: r.status, Header: r.header, Envelope: env}, nil
}

func isRefreshPath(path string) bool {
	p := path
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p == RefreshPath
}
