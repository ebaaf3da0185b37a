package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/zmb3/spotify/v2"
)

// ErrNoPlaylists is returned when the user has no playlists to choose from.
var ErrNoPlaylists = errors.New("user has no playlists")

// Playlists retrieves the first page of the current user's playlists.
func (c *Client) Playlists(ctx context.Context) ([]Playlist, error) {
	var page spotify.SimplePlaylistPage
	if err := c.getJSON(ctx, "/me/playlists", &page); err != nil {
		return nil, fmt.Errorf("fetching playlists: %w", err)
	}

	playlists := make([]Playlist, len(page.Playlists))
	for i, p := range page.Playlists {
		playlists[i] = Playlist{ID: p.ID.String(), Name: p.Name}
	}
	return playlists, nil
}

// SelectPlaylist picks the playlist whose name equals name exactly; the last
// match wins. When nothing matches, the first playlist is returned and
// matched is false.
func SelectPlaylist(playlists []Playlist, name string) (selected Playlist, matched bool, err error) {
	if len(playlists) == 0 {
		return Playlist{}, false, ErrNoPlaylists
	}

	selected = playlists[0]
	for _, p := range playlists {
		if p.Name == name {
			selected = p
			matched = true
		}
	}
	return selected, matched, nil
}

// PlaylistTracks retrieves the first page of tracks of the playlist called
// name and enriches each with its audio features.
//
// If no playlist has that name, the first playlist of the user is used.
// Audio features are fetched with one request per track, so a playlist of
// K tracks costs K+2 requests.
func (c *Client) PlaylistTracks(ctx context.Context, name string) (Playlist, []EnrichedTrack, error) {
	c.logger.Info().Str("playlist", name).Msg("Trying to fetch tracks from playlist")

	playlists, err := c.Playlists(ctx)
	if err != nil {
		return Playlist{}, nil, err
	}

	selected, matched, err := SelectPlaylist(playlists, name)
	if err != nil {
		return Playlist{}, nil, err
	}
	if !matched {
		c.logger.Warn().
			Str("requested", name).
			Str("selected", selected.Name).
			Msg("No playlist with that name, falling back to the first playlist")
	}

	var page spotify.PlaylistTrackPage
	path := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(selected.ID))
	if err := c.getJSON(ctx, path, &page); err != nil {
		return Playlist{}, nil, fmt.Errorf("fetching tracks of playlist %q: %w", selected.Name, err)
	}

	tracks := make([]EnrichedTrack, 0, len(page.Tracks))
	for i, item := range page.Tracks {
		if item.Track.ID == "" {
			return Playlist{}, nil, fmt.Errorf("playlist item %d has no track id", i)
		}

		features, err := c.fetchAudioFeatures(ctx, item.Track.ID.String())
		if err != nil {
			return Playlist{}, nil, err
		}

		tracks = append(tracks, mergeFeatures(item.Track, features))
	}

	c.logger.Info().
		Str("playlist", selected.Name).
		Int("count", len(tracks)).
		Msg("Fetched playlist tracks")
	return selected, tracks, nil
}
