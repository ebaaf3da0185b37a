package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// likedTracksLimit is the largest page the saved-tracks endpoint serves.
const likedTracksLimit = 50

// LikedTracks retrieves the first page of the user's saved tracks, in the
// order the API returns them. Later pages are not requested.
func (c *Client) LikedTracks(ctx context.Context) ([]Track, error) {
	var page spotify.SavedTrackPage
	if err := c.getJSON(ctx, fmt.Sprintf("/me/tracks?limit=%d", likedTracksLimit), &page); err != nil {
		return nil, fmt.Errorf("fetching liked tracks: %w", err)
	}

	tracks := make([]Track, 0, len(page.Tracks))
	for _, saved := range page.Tracks {
		tracks = append(tracks, convertTrack(saved))
	}

	c.logger.Info().Int("count", len(tracks)).Msg("Fetched liked tracks")
	return tracks, nil
}

// convertTrack converts a Spotify SavedTrack to a Track.
func convertTrack(saved spotify.SavedTrack) Track {
	return Track{
		Name:       saved.Name,
		Artists:    artistNames(saved.Artists),
		DurationMs: int(saved.Duration),
		AddedAt:    saved.AddedAt,
	}
}
