// Package client is the HTTP boundary of the Duckity SDK: it fetches raw
// challenges from a duckling server and validates solution tokens. The
// solve pipeline itself lives in package pow and never touches the network.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/google/uuid"

	"github.com/duckity/duckity-go/pow"
)

// DefaultDomain is the hosted duckling endpoint.
const DefaultDomain = "quack.duckity.dev"

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 16
)

type Client struct {
	domain string
	scheme string
	doer   Doer
	log    *slog.Logger
}

type Option func(*Client)

// WithDomain points the client at a self-hosted duckling.
func WithDomain(domain string) Option {
	return func(c *Client) { c.domain = domain }
}

// WithTimeout replaces the default HTTP client with one using the given
// per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.doer = &http.Client{Timeout: d} }
}

// WithDoer replaces the underlying HTTP client entirely.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func New(opts ...Option) *Client {
	c := &Client{
		domain: DefaultDomain,
		scheme: "https",
		doer:   &http.Client{Timeout: defaultTimeout},
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIError is the structured error payload the duckling API returns on
// non-2xx fetch responses.
type APIError struct {
	Status  int    `json:"-"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("duckling API error (%d): %s: %s", e.Status, e.Title, e.Message)
}

type challengeRequest struct {
	Profile string `json:"profile"`
}

type validationRequest struct {
	Profile string `json:"profile"`
	Token   string `json:"token"`
	IP      string `json:"ip"`
}

// Fetch requests a challenge for the application and profile. The raw body
// of a 2xx response becomes the challenge; non-2xx responses decode into
// *APIError. Fetch never decodes the challenge itself — transport failures
// and malformed challenges stay distinct.
func (c *Client) Fetch(ctx context.Context, appID, profileCode string) (*pow.Challenge, error) {
	body, err := json.Marshal(challengeRequest{Profile: profileCode})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s://%s/v1/challenges/%s", c.scheme, c.domain, appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch challenge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError(resp, reqID)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read challenge body: %w", err)
	}
	c.log.Debug("challenge fetched", "request_id", reqID, "bytes", len(raw))
	return pow.NewChallenge(raw), nil
}

// ValidateRequest carries everything the validation endpoint needs. The
// client IP must match the one the challenge was issued for; it is
// available from the decoded descriptor.
type ValidateRequest struct {
	AppID       string
	AppSecret   string
	ProfileCode string
	Token       string
	ClientIP    netip.Addr
}

// Validate submits a solution token. Any 2xx status means the token was
// accepted; every other status is a rejection — invalid, expired, or issued
// for a different IP — reported as false without an error. Only transport
// failures return an error.
func (c *Client) Validate(ctx context.Context, vr ValidateRequest) (bool, error) {
	body, err := json.Marshal(validationRequest{
		Profile: vr.ProfileCode,
		Token:   vr.Token,
		IP:      vr.ClientIP.String(),
	})
	if err != nil {
		return false, err
	}
	url := fmt.Sprintf("%s://%s/v1/challenges/%s/validate", c.scheme, c.domain, vr.AppID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build validate request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+vr.AppSecret)
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.doer.Do(req)
	if err != nil {
		return false, fmt.Errorf("validate token: %w", err)
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if !ok {
		c.log.Debug("token rejected", "request_id", reqID, "status", resp.StatusCode)
	}
	return ok, nil
}

func (c *Client) apiError(resp *http.Response, reqID string) error {
	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(apiErr); err != nil {
		apiErr.Title = "unexpected response"
		apiErr.Message = resp.Status
	}
	c.log.Debug("api request failed",
		"request_id", reqID,
		"status", resp.StatusCode,
		"title", apiErr.Title,
	)
	return apiErr
}
