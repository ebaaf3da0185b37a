package spotify

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

const testToken = "test-access-token"

type response struct {
	status int
	body   string
}

// fakeAPI serves canned responses keyed by URL path and records every request.
type fakeAPI struct {
	mu       sync.Mutex
	routes   map[string]response
	requests []string
	auth     []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL.RequestURI())
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	resp, ok := f.routes[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.Error(w, `{"error":{"status":404,"message":"Not found."}}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	fmt.Fprint(w, resp.body)
}

func (f *fakeAPI) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeAPI) authHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

// newTestClient starts a fake API serving routes and returns a Client wired to it.
func newTestClient(t *testing.T, routes map[string]response) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{routes: routes}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	fetcher := NewFetcher(server.Client(), zerolog.Nop())
	return New(fetcher, testToken, WithBaseURL(server.URL)), api
}

func ok(body string) response {
	return response{status: http.StatusOK, body: body}
}

const playlistsJSON = `{
  "href": "https://api.spotify.com/v1/me/playlists",
  "items": [
    {"id": "pl-chill", "name": "Chill"},
    {"id": "pl-top", "name": "Świat Top 50"},
    {"id": "pl-run", "name": "Running"}
  ],
  "limit": 20, "offset": 0, "total": 3
}`

const playlistTracksJSON = `{
  "items": [
    {
      "added_at": "2024-01-15T10:30:00Z",
      "track": {
        "id": "track-1", "name": "First Song",
        "artists": [{"name": "Artist A"}, {"name": "Artist B"}],
        "popularity": 71, "explicit": true, "duration_ms": 200000
      }
    },
    {
      "added_at": "2024-01-16T10:30:00Z",
      "track": {
        "id": "track-2", "name": "Second Song",
        "artists": [{"name": "Artist C"}],
        "popularity": 55, "explicit": false, "duration_ms": 180000
      }
    },
    {
      "added_at": "2024-01-17T10:30:00Z",
      "track": {
        "id": "track-1", "name": "First Song",
        "artists": [{"name": "Artist A"}, {"name": "Artist B"}],
        "popularity": 71, "explicit": true, "duration_ms": 200000
      }
    }
  ],
  "total": 3
}`

func featuresJSON(id string, energy float32, durationMs int) string {
	return fmt.Sprintf(`{
  "id": %q, "danceability": 0.735, "energy": %g, "key": 5, "loudness": -11.84,
  "mode": 1, "speechiness": 0.0461, "acousticness": 0.514, "instrumentalness": 0.0902,
  "liveness": 0.159, "valence": 0.624, "tempo": 98.002, "type": "audio_features",
  "duration_ms": %d, "time_signature": 4
}`, id, energy, durationMs)
}

func playlistRoutes() map[string]response {
	return map[string]response{
		"/me/playlists":              ok(playlistsJSON),
		"/playlists/pl-top/tracks":   ok(playlistTracksJSON),
		"/playlists/pl-chill/tracks": ok(`{"items": []}`),
		"/audio-features/track-1":    ok(featuresJSON("track-1", 0.578, 201000)),
		"/audio-features/track-2":    ok(featuresJSON("track-2", 0.9, 181000)),
	}
}
