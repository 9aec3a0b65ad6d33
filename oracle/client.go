// Package oracle talks to the external optimization service. The oracle
// is optional: any transport, authentication or timeout failure is mapped
// to ErrUnavailable so the pipeline can fall back to local search.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/manvalan/fdc-railway-engine/core/logger"
)

// ErrUnavailable wraps every failure mode of the oracle round-trip.
var ErrUnavailable = errors.New("oracle: unavailable")

// Config holds the oracle endpoint and credentials.
type Config struct {
	Enabled        bool   `json:"enabled"`
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
	TokenURL       string `json:"token_url"`
}

// SetDefaults applies the stock timeout.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
}

// Validate checks that an enabled oracle has an endpoint.
func (c Config) Validate() error {
	if c.Enabled && c.URL == "" {
		return fmt.Errorf("oracle: url is required when enabled")
	}
	return nil
}

// Proposer is the pipeline's view of the oracle.
type Proposer interface {
	Propose(ctx context.Context, req Request) (Response, error)
}

// Client is the HTTP implementation of Proposer.
type Client struct {
	cfg   Config
	http  *http.Client
	creds *clientcredentials.Config
	log   logger.Logger
}

// NewClient builds a Client. When a token URL is configured, requests are
// authenticated with the client-credentials flow.
func NewClient(cfg Config, log logger.Logger) *Client {
	cfg.SetDefaults()
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:  log,
	}
	if cfg.TokenURL != "" {
		c.creds = &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
	}
	return c
}

// Propose sends the snapshot and decodes the proposed adjustments. The
// wait is bounded by both the configured timeout and the caller's context.
func (c *Client) Propose(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if c.creds != nil {
		token, err := c.creds.Token(ctx)
		if err != nil {
			return Response{}, fmt.Errorf("%w: auth: %v", ErrUnavailable, err)
		}
		token.SetAuthHeader(httpReq)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	c.log.Debugw("oracle proposal received", map[string]any{"adjustments": len(out.Adjustments)})
	return out, nil
}
