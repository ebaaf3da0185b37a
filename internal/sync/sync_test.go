package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/justestif/spotify-track-export/internal/auth"
	"github.com/justestif/spotify-track-export/internal/clustering"
	"github.com/justestif/spotify-track-export/internal/config"
	"github.com/justestif/spotify-track-export/internal/export"
	"github.com/justestif/spotify-track-export/internal/spotify"
)

// fakeTokens hands out a fixed access token and counts requests.
type fakeTokens struct {
	token string
	err   error
	calls atomic.Int32
}

func (f *fakeTokens) AccessToken(context.Context) (string, error) {
	f.calls.Add(1)
	return f.token, f.err
}

const (
	likedJSON = `{"items": [
  {"added_at": "2024-02-01T08:00:00Z", "track": {"id": "a", "name": "Alpha", "artists": [{"name": "One"}, {"name": "Two"}], "duration_ms": 1000}},
  {"added_at": "2024-01-01T08:00:00Z", "track": {"id": "b", "name": "Bravo", "artists": [{"name": "Three"}], "duration_ms": 2000}}
]}`

	playlistsJSON = `{"items": [{"id": "pl-1", "name": "Mix"}, {"id": "pl-2", "name": "Świat Top 50"}]}`

	playlistTracksJSON = `{"items": [
  {"track": {"id": "t1", "name": "One", "artists": [{"name": "A"}], "popularity": 10, "explicit": false}},
  {"track": {"id": "t2", "name": "Two", "artists": [{"name": "B"}], "popularity": 20, "explicit": true}}
]}`
)

func featuresJSON(id string) string {
	return fmt.Sprintf(`{"id": %q, "danceability": 0.5, "energy": 0.25, "key": 1, "loudness": -6,
  "mode": 1, "speechiness": 0.05, "acousticness": 0.5, "instrumentalness": 0,
  "liveness": 0.1, "valence": 0.25, "tempo": 100, "type": "audio_features",
  "duration_ms": 123000, "time_signature": 4}`, id)
}

// newAPI serves the Web API endpoints used by both workflows. A path listed
// in failing answers 500. Every request must carry wantToken.
func newAPI(t *testing.T, wantToken string, failing ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	routes := map[string]string{
		"/me/tracks":             likedJSON,
		"/me/playlists":          playlistsJSON,
		"/playlists/pl-2/tracks": playlistTracksJSON,
		"/audio-features/t1":     featuresJSON("t1"),
		"/audio-features/t2":     featuresJSON("t2"),
	}

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if got := r.Header.Get("Authorization"); got != "Bearer "+wantToken {
			t.Errorf("Authorization = %q, want bearer %q", got, wantToken)
		}
		for _, p := range failing {
			if r.URL.Path == p {
				http.Error(w, `{"error":{"status":500}}`, http.StatusInternalServerError)
				return
			}
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func newService(t *testing.T, tokens TokenSource, server *httptest.Server, mode export.Mode, opts ...Option) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	fetcher := spotify.NewFetcher(server.Client(), zerolog.Nop())
	opts = append([]Option{WithOutputDir(dir), WithBaseURL(server.URL)}, opts...)
	return New(tokens, fetcher, export.NewWriter(mode, zerolog.Nop()), opts...), dir
}

func TestExportLikedTracks(t *testing.T) {
	tokens := &fakeTokens{token: "tok"}
	server, _ := newAPI(t, "tok")
	svc, dir := newService(t, tokens, server, export.ModeOverwrite)

	result, err := svc.ExportLikedTracks(context.Background())
	if err != nil {
		t.Fatalf("ExportLikedTracks() error = %v", err)
	}

	wantPath := filepath.Join(dir, export.LikedTracksFile)
	if result.Path != wantPath {
		t.Errorf("Path = %q, want %q", result.Path, wantPath)
	}
	if result.Rows != 2 {
		t.Errorf("Rows = %d, want 2", result.Rows)
	}

	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "name,artist,duration_ms,added_at\n" +
		"Alpha,\"One, Two\",1000,2024-02-01T08:00:00Z\n" +
		"Bravo,Three,2000,2024-01-01T08:00:00Z\n"
	if string(data) != want {
		t.Errorf("file =\n%s\nwant\n%s", data, want)
	}
}

func TestExportPlaylist(t *testing.T) {
	tokens := &fakeTokens{token: "tok"}
	server, requests := newAPI(t, "tok")
	svc, dir := newService(t, tokens, server, export.ModeOverwrite)

	result, err := svc.ExportPlaylist(context.Background(), "Świat Top 50")
	if err != nil {
		t.Fatalf("ExportPlaylist() error = %v", err)
	}

	if result.Playlist.ID != "pl-2" {
		t.Errorf("Playlist = %+v, want pl-2", result.Playlist)
	}
	if n := requests.Load(); n != 4 {
		t.Errorf("made %d API requests, want 4 (K+2)", n)
	}
	if result.MoodsPath != "" {
		t.Errorf("MoodsPath = %q, want empty when moods are disabled", result.MoodsPath)
	}

	records, err := export.ReadRecords(filepath.Join(dir, export.PlaylistTracksFile))
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	checks := map[string]string{
		"id":          "t1",
		"name":        "One",
		"artist":      "A",
		"popularity":  "10",
		"explicit":    "false",
		"energy":      "0.25",
		"type":        "audio_features",
		"duration_ms": "123000",
	}
	for col, want := range checks {
		if first[col] != want {
			t.Errorf("record[0][%s] = %q, want %q", col, first[col], want)
		}
	}
	if records[1]["id"] != "t2" || records[1]["explicit"] != "true" {
		t.Errorf("record[1] = %v, want t2 explicit", records[1])
	}

	if _, err := os.Stat(filepath.Join(dir, export.PlaylistMoodsFile)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("moods file should not exist, stat error = %v", err)
	}
}

func TestExportPlaylist_WithMoods(t *testing.T) {
	tokens := &fakeTokens{token: "tok"}
	server, _ := newAPI(t, "tok")
	svc, dir := newService(t, tokens, server, export.ModeOverwrite,
		WithMoods(clustering.MoodConfig{NumClusters: 1, MinClusterSize: 1}))

	result, err := svc.ExportPlaylist(context.Background(), "Świat Top 50")
	if err != nil {
		t.Fatalf("ExportPlaylist() error = %v", err)
	}

	if len(result.Moods) != 1 || len(result.Moods[0].Tracks) != 2 {
		t.Fatalf("Moods = %+v, want one mood with both tracks", result.Moods)
	}
	if result.MoodsPath != filepath.Join(dir, export.PlaylistMoodsFile) {
		t.Errorf("MoodsPath = %q", result.MoodsPath)
	}

	records, err := export.ReadRecords(result.MoodsPath)
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d mood records, want 2", len(records))
	}
	if records[0]["mood"] != "Reflective & Melancholy" {
		t.Errorf("mood = %q, want %q", records[0]["mood"], "Reflective & Melancholy")
	}
}

func TestService_TokenRequestedOnce(t *testing.T) {
	tokens := &fakeTokens{token: "tok"}
	server, _ := newAPI(t, "tok")
	svc, _ := newService(t, tokens, server, export.ModeOverwrite)

	if _, err := svc.ExportLikedTracks(context.Background()); err != nil {
		t.Fatalf("ExportLikedTracks() error = %v", err)
	}
	if _, err := svc.ExportPlaylist(context.Background(), "Świat Top 50"); err != nil {
		t.Fatalf("ExportPlaylist() error = %v", err)
	}

	if n := tokens.calls.Load(); n != 1 {
		t.Errorf("AccessToken called %d times, want 1", n)
	}
}

func TestService_TokenFailure(t *testing.T) {
	tokens := &fakeTokens{err: auth.ErrUnknownGrantType}
	server, requests := newAPI(t, "")
	svc, dir := newService(t, tokens, server, export.ModeOverwrite)

	_, err := svc.ExportLikedTracks(context.Background())
	if !errors.Is(err, auth.ErrAuthentication) {
		t.Fatalf("ExportLikedTracks() error = %v, want ErrAuthentication", err)
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("made %d API requests, want 0", n)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("output dir has %d entries, want none", len(entries))
	}
}

func TestService_APIFailureLeavesOutputUntouched(t *testing.T) {
	tests := []struct {
		name     string
		failPath string
		file     string
		run      func(*Service) error
	}{
		{
			name:     "liked tracks",
			failPath: "/me/tracks",
			file:     export.LikedTracksFile,
			run: func(s *Service) error {
				_, err := s.ExportLikedTracks(context.Background())
				return err
			},
		},
		{
			name:     "playlist audio features",
			failPath: "/audio-features/t2",
			file:     export.PlaylistTracksFile,
			run: func(s *Service) error {
				_, err := s.ExportPlaylist(context.Background(), "Świat Top 50")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := &fakeTokens{token: "tok"}
			server, _ := newAPI(t, "tok", tt.failPath)
			svc, dir := newService(t, tokens, server, export.ModeOverwrite)

			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte("previous run\n"), 0644); err != nil {
				t.Fatal(err)
			}

			err := tt.run(svc)

			var apiErr *spotify.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *spotify.APIError", err)
			}
			if apiErr.StatusCode != http.StatusInternalServerError {
				t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != "previous run\n" {
				t.Errorf("output was modified: %q", data)
			}
		})
	}
}

func TestService_FailIfExists(t *testing.T) {
	tokens := &fakeTokens{token: "tok"}
	server, _ := newAPI(t, "tok")
	svc, dir := newService(t, tokens, server, export.ModeFailIfExists)

	if err := os.WriteFile(filepath.Join(dir, export.LikedTracksFile), nil, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := svc.ExportLikedTracks(context.Background())
	if !errors.Is(err, os.ErrExist) {
		t.Errorf("ExportLikedTracks() error = %v, want os.ErrExist", err)
	}
}

// TestService_RefreshFallback runs a whole export with a rejected
// authorization code and a stored refresh token.
func TestService_RefreshFallback(t *testing.T) {
	grants := make(chan string, 4)
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		grant := r.PostForm.Get("grant_type")
		grants <- grant

		w.Header().Set("Content-Type", "application/json")
		if grant == "authorization_code" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Invalid authorization code"}`)
			return
		}
		fmt.Fprint(w, `{"access_token":"refreshed","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenServer.Close()

	storePath := filepath.Join(t.TempDir(), "refresh_token.txt")
	store := auth.NewTokenStore(storePath)
	if err := store.Save("stored-refresh"); err != nil {
		t.Fatal(err)
	}

	authority := auth.NewAuthority(config.Credentials{
		ClientID:          "id",
		ClientSecret:      "secret",
		AuthorizationCode: "stale-code",
		RedirectURL:       "http://localhost:8888/callback",
		TokenEndpoint:     tokenServer.URL,
	}, store, tokenServer.Client(), zerolog.Nop())

	server, _ := newAPI(t, "refreshed")
	svc, _ := newService(t, authority, server, export.ModeOverwrite)

	if _, err := svc.ExportLikedTracks(context.Background()); err != nil {
		t.Fatalf("ExportLikedTracks() error = %v", err)
	}

	close(grants)
	var got []string
	for g := range grants {
		got = append(got, g)
	}
	if strings.Join(got, ",") != "authorization_code,refresh_token" {
		t.Errorf("grants = %v, want one code attempt then one refresh", got)
	}

	stored, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if stored != "stored-refresh" {
		t.Errorf("stored refresh token = %q, want it unchanged", stored)
	}
}
