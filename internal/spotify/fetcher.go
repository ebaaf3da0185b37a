package spotify

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

// APIError is returned when the Web API answers with a status other than 200.
type APIError struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Error returns the error message.
func (e *APIError) Error() string {
	return fmt.Sprintf("spotify: GET %s returned status %d", e.URL, e.StatusCode)
}

// Fetcher performs authenticated GET requests against the Web API.
type Fetcher struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewFetcher creates a Fetcher that sends requests with httpClient.
func NewFetcher(httpClient *http.Client, logger zerolog.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{
		httpClient: httpClient,
		logger:     logger.With().Str("component", "fetcher").Logger(),
	}
}

// Get fetches url with a bearer access token and returns the raw response body.
// Any status other than 200 is reported as an *APIError carrying the body.
func (f *Fetcher) Get(ctx context.Context, url, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	f.logger.Debug().Str("url", url).Msg("Trying to access endpoint")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		f.logger.Error().
			Str("url", url).
			Int("status", resp.StatusCode).
			Bytes("body", body).
			Msg("Unable to continue execution")
		return nil, &APIError{URL: url, StatusCode: resp.StatusCode, Body: body}
	}

	f.logger.Debug().Str("url", url).Msg("Response successfully retrieved")
	return body, nil
}
