// Package sync runs the export workflows: it obtains an access token, pulls
// tracks from the Spotify Web API and writes them to CSV files.
package sync

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/justestif/spotify-track-export/internal/clustering"
	"github.com/justestif/spotify-track-export/internal/export"
	"github.com/justestif/spotify-track-export/internal/spotify"
)

// TokenSource provides the access token for a run. *auth.Authority is the
// production implementation.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Service runs export workflows. The access token is requested on first use
// and shared by every later workflow on the same Service.
type Service struct {
	tokens    TokenSource
	api       spotify.Getter
	writer    *export.Writer
	outputDir string
	baseURL   string
	moods     *clustering.MoodConfig
	logger    zerolog.Logger

	client *spotify.Client
}

// Option configures a Service.
type Option func(*Service)

// WithOutputDir sets the directory the CSV files are written to.
func WithOutputDir(dir string) Option {
	return func(s *Service) {
		s.outputDir = dir
	}
}

// WithBaseURL overrides the Web API root.
func WithBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.baseURL = baseURL
	}
}

// WithMoods enables the mood summary of playlist exports.
func WithMoods(cfg clustering.MoodConfig) Option {
	return func(s *Service) {
		s.moods = &cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a new export service.
func New(tokens TokenSource, api spotify.Getter, writer *export.Writer, opts ...Option) *Service {
	s := &Service{
		tokens:    tokens,
		api:       api,
		writer:    writer,
		outputDir: ".",
		baseURL:   spotify.DefaultBaseURL,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result describes a finished export. Playlist is zero for liked tracks, and
// the mood fields are set only when moods are enabled.
type Result struct {
	Path     string
	Rows     int
	Playlist spotify.Playlist

	MoodsPath string
	Moods     []clustering.Mood
	Outliers  []spotify.EnrichedTrack
}

// ExportLikedTracks writes the user's liked tracks to my_tracks_basic_info.csv.
// Nothing is written unless every request succeeds.
func (s *Service) ExportLikedTracks(ctx context.Context) (*Result, error) {
	client, err := s.spotifyClient(ctx)
	if err != nil {
		return nil, err
	}

	tracks, err := client.LikedTracks(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, len(tracks))
	for i, t := range tracks {
		rows[i] = t.Row()
	}

	path := filepath.Join(s.outputDir, export.LikedTracksFile)
	if err := s.writer.WriteRecords(path, spotify.TrackHeader, rows); err != nil {
		return nil, fmt.Errorf("saving liked tracks: %w", err)
	}

	return &Result{Path: path, Rows: len(rows)}, nil
}

// ExportPlaylist writes the audio-feature enriched tracks of the playlist
// called name to playlist_tracks_info.csv, and the mood summary to
// playlist_moods.csv when enabled. Nothing is written unless every request
// succeeds.
func (s *Service) ExportPlaylist(ctx context.Context, name string) (*Result, error) {
	client, err := s.spotifyClient(ctx)
	if err != nil {
		return nil, err
	}

	playlist, tracks, err := client.PlaylistTracks(ctx, name)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Path:     filepath.Join(s.outputDir, export.PlaylistTracksFile),
		Rows:     len(tracks),
		Playlist: playlist,
	}

	if s.moods != nil {
		result.Moods, result.Outliers, err = clustering.DetectMoods(tracks, *s.moods)
		if err != nil {
			return nil, fmt.Errorf("detecting moods: %w", err)
		}
	}

	rows := make([][]string, len(tracks))
	for i, t := range tracks {
		rows[i] = t.Row()
	}
	if err := s.writer.WriteRecords(result.Path, spotify.EnrichedTrackHeader, rows); err != nil {
		return nil, fmt.Errorf("saving playlist tracks: %w", err)
	}

	if s.moods != nil {
		result.MoodsPath = filepath.Join(s.outputDir, export.PlaylistMoodsFile)
		moodRows := clustering.Rows(result.Moods, result.Outliers)
		if err := s.writer.WriteRecords(result.MoodsPath, clustering.MoodHeader, moodRows); err != nil {
			return nil, fmt.Errorf("saving playlist moods: %w", err)
		}
		s.logger.Info().
			Int("moods", len(result.Moods)).
			Int("outliers", len(result.Outliers)).
			Msg("Mood summary saved")
	}

	return result, nil
}

// spotifyClient returns the Web API client, requesting the access token the
// first time it is needed.
func (s *Service) spotifyClient(ctx context.Context) (*spotify.Client, error) {
	if s.client != nil {
		return s.client, nil
	}

	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting access token: %w", err)
	}

	s.client = spotify.New(s.api, token,
		spotify.WithBaseURL(s.baseURL),
		spotify.WithLogger(s.logger),
	)
	return s.client, nil
}
