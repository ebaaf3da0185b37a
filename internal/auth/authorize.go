package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/justestif/spotify-track-export/internal/config"
)

const callbackTimeout = 2 * time.Minute

var (
	// ErrAuthTimeout is returned when the OAuth callback is not received in time.
	ErrAuthTimeout = errors.New("authentication timed out waiting for callback")

	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")

	// ErrMissingCode is returned when the callback carries no authorization code.
	ErrMissingCode = errors.New("callback carried no authorization code")
)

// Authorizer obtains a fresh authorization code by sending the user to the
// Spotify consent page and listening for the redirect on the configured
// redirect URL.
type Authorizer struct {
	auth        *spotifyauth.Authenticator
	redirectURL *url.URL
	out         io.Writer
	logger      zerolog.Logger
}

// NewAuthorizer creates an Authorizer for the given credentials.
// Instructions for the user are written to out.
func NewAuthorizer(creds config.Credentials, out io.Writer, logger zerolog.Logger) (*Authorizer, error) {
	redirectURL, err := url.Parse(creds.RedirectURL)
	if err != nil || redirectURL.Host == "" {
		return nil, fmt.Errorf("%w: redirectUrl %q is not an absolute URL", config.ErrInvalidConfig, creds.RedirectURL)
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(creds.ClientID),
		spotifyauth.WithClientSecret(creds.ClientSecret),
		spotifyauth.WithRedirectURL(creds.RedirectURL),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserLibraryRead,
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistReadCollaborative,
		),
	)

	return &Authorizer{
		auth:        auth,
		redirectURL: redirectURL,
		out:         out,
		logger:      logger.With().Str("component", "authorize").Logger(),
	}, nil
}

// AuthorizationCode prints the consent URL and waits for Spotify to redirect
// back with an authorization code. The code is returned unexchanged.
func (a *Authorizer) AuthorizationCode(ctx context.Context) (string, error) {
	state := uuid.NewString()

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", a.redirectURL.Host)
	if err != nil {
		return "", fmt.Errorf("listening on %s: %w", a.redirectURL.Host, err)
	}

	server := &http.Server{
		Handler:           a.callbackHandler(state, codeCh, errCh),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			report(errCh, fmt.Errorf("callback server error: %w", err))
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	fmt.Fprintln(a.out, "\nTo authorize, open this URL in your browser:")
	fmt.Fprintln(a.out, a.auth.AuthURL(state))
	fmt.Fprintln(a.out, "\nWaiting for authorization...")

	select {
	case code := <-codeCh:
		a.logger.Debug().Msg("Authorization code received")
		return code, nil
	case err := <-errCh:
		return "", err
	case <-time.After(callbackTimeout):
		return "", ErrAuthTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// callbackHandler serves the redirect target and reports the outcome on the channels.
func (a *Authorizer) callbackHandler(expectedState string, codeCh chan<- string, errCh chan<- error) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	path := a.redirectURL.Path
	if path == "" {
		path = "/"
	}

	router.Get(path, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if query.Get("state") != expectedState {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			report(errCh, ErrStateMismatch)
			return
		}

		if errMsg := query.Get("error"); errMsg != "" {
			http.Error(w, "Authorization failed: "+errMsg, http.StatusBadRequest)
			report(errCh, fmt.Errorf("spotify auth error: %s", errMsg))
			return
		}

		code := query.Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code", http.StatusBadRequest)
			report(errCh, ErrMissingCode)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Authorization Successful</title></head>
<body>
<h1>Authorization Successful!</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`)

		report(codeCh, code)
	})

	return router
}

// report delivers v without blocking when a result was already delivered.
func report[T any](ch chan<- T, v T) {
	select {
	case ch <- v:
	default:
	}
}
