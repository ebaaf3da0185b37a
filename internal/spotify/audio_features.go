package spotify

import (
	"context"
	"fmt"
	"net/url"

	"github.com/zmb3/spotify/v2"
)

// trackFeatures is the audio-features payload, including the object type
// that the library struct leaves out.
type trackFeatures struct {
	spotify.AudioFeatures
	Type string `json:"type"`
}

// fetchAudioFeatures retrieves the audio-feature vector of a single track.
func (c *Client) fetchAudioFeatures(ctx context.Context, trackID string) (trackFeatures, error) {
	var f trackFeatures
	if err := c.getJSON(ctx, "/audio-features/"+url.PathEscape(trackID), &f); err != nil {
		return trackFeatures{}, fmt.Errorf("fetching audio features for %s: %w", trackID, err)
	}
	return f, nil
}

// mergeFeatures joins a track's metadata with its audio features.
func mergeFeatures(t spotify.FullTrack, f trackFeatures) EnrichedTrack {
	return EnrichedTrack{
		ID:         t.ID.String(),
		Name:       t.Name,
		Artists:    artistNames(t.Artists),
		Popularity: int(t.Popularity),
		Explicit:   t.Explicit,

		Danceability:     f.Danceability,
		Energy:           f.Energy,
		Key:              int(f.Key),
		Loudness:         f.Loudness,
		Mode:             int(f.Mode),
		Speechiness:      f.Speechiness,
		Acousticness:     f.Acousticness,
		Instrumentalness: f.Instrumentalness,
		Liveness:         f.Liveness,
		Valence:          f.Valence,
		Tempo:            f.Tempo,
		Type:             f.Type,
		TimeSignature:    int(f.TimeSignature),
		DurationMs:       int(f.Duration),
	}
}
