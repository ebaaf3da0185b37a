// Package spotify retrieves liked tracks and audio-feature enriched playlist
// tracks from the Spotify Web API.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the root of the Spotify Web API.
const DefaultBaseURL = "https://api.spotify.com/v1"

// Getter performs an authenticated GET and returns the response body.
// *Fetcher is the production implementation.
type Getter interface {
	Get(ctx context.Context, url, accessToken string) ([]byte, error)
}

// Client drives the retrieval workflows with a single access token.
// All requests are issued sequentially.
type Client struct {
	api     Getter
	token   string
	baseURL string
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the Web API root, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger used for progress messages.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client that authorizes every request with accessToken.
func New(api Getter, accessToken string, opts ...Option) *Client {
	c := &Client{
		api:     api,
		token:   accessToken,
		baseURL: DefaultBaseURL,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "spotify").Logger()
	return c
}

// getJSON fetches path relative to the base URL and decodes the body into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, err := c.api.Get(ctx, c.baseURL+path, c.token)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}

	return nil
}
