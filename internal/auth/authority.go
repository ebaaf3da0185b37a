package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/justestif/spotify-track-export/internal/config"
)

var (
	// ErrAuthentication is returned when no usable access token can be obtained.
	ErrAuthentication = errors.New("authentication failed")

	// ErrUnknownGrantType is returned when the authorization code was rejected
	// and no refresh token is stored to fall back on.
	ErrUnknownGrantType = fmt.Errorf("%w: unknown grant type", ErrAuthentication)
)

// Authority obtains an access token from the token endpoint.
//
// It first tries the configured authorization code. On success the returned
// refresh token is persisted, on any rejection it falls back to the stored
// refresh token. Neither step is retried.
type Authority struct {
	config     *oauth2.Config
	code       string
	store      *TokenStore
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewAuthority creates an Authority for the given credentials.
// Token requests are sent with httpClient, which carries the request timeout.
func NewAuthority(creds config.Credentials, store *TokenStore, httpClient *http.Client, logger zerolog.Logger) *Authority {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Authority{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Endpoint: oauth2.Endpoint{
				TokenURL:  creds.TokenEndpoint,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		code:       creds.AuthorizationCode,
		store:      store,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "auth").Logger(),
	}
}

// AccessToken runs the authorization-code grant and, if the endpoint rejects
// it, the refresh-token grant. The returned token is valid for this run only.
func (a *Authority) AccessToken(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	a.logger.Debug().Msg("Trying to retrieve access token using authorization code")
	token, err := a.config.Exchange(ctx, a.code)
	if err == nil {
		if err := a.persist(token); err != nil {
			return "", err
		}
		return token.AccessToken, nil
	}

	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return "", fmt.Errorf("%w: exchanging authorization code: %w", ErrAuthentication, err)
	}
	a.logRejection("authorization_code", retrieveErr)

	return a.refresh(ctx)
}

// refresh exchanges the stored refresh token for an access token.
// The stored token is left untouched.
func (a *Authority) refresh(ctx context.Context) (string, error) {
	refreshToken, err := a.store.Load()
	if err != nil {
		return "", err
	}
	if refreshToken == "" {
		a.logger.Error().Str("path", a.store.Path()).Msg("Unknown grant type - unable to generate access token")
		return "", ErrUnknownGrantType
	}

	a.logger.Debug().Msg("Trying to retrieve access token using refresh token")
	token, err := a.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			a.logRejection("refresh_token", retrieveErr)
		}
		return "", fmt.Errorf("%w: refreshing access token: %w", ErrAuthentication, err)
	}

	return token.AccessToken, nil
}

// persist stores the refresh token from an authorization-code exchange.
func (a *Authority) persist(token *oauth2.Token) error {
	if token.RefreshToken == "" {
		a.logger.Warn().Msg("Token response carried no refresh token, nothing persisted")
		return nil
	}

	if err := a.store.Save(token.RefreshToken); err != nil {
		return fmt.Errorf("persisting refresh token: %w", err)
	}

	a.logger.Debug().Str("path", a.store.Path()).Msg("Refresh token persisted")
	return nil
}

func (a *Authority) logRejection(grantType string, err *oauth2.RetrieveError) {
	ev := a.logger.Debug().Str("grant_type", grantType).Bytes("body", err.Body)
	if err.Response != nil {
		ev = ev.Int("status", err.Response.StatusCode)
	}
	ev.Msg("Token endpoint rejected grant")
}
